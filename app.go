package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/kwv/plantopo/topo"
)

// ErrBatchFailures is returned by RunBatch when at least one plan failed.
var ErrBatchFailures = errors.New("some plans failed")

// graphSuffix names batch outputs and keeps them out of later batch inputs.
const graphSuffix = ".graph.json"

// App encapsulates the application state and dependencies
type App struct {
	Logger *log.Logger
	Out    io.Writer

	// CLI Flags (effectively dependencies)
	ConfigFile   string
	OutputFile   string
	GeoJSONFile  string
	OutputDir    string
	Workers      int
	RenderFormat string
	Scale        float64
}

// NewApp creates a new App writing results to out and logs to logOut.
func NewApp(out, logOut io.Writer) *App {
	return &App{
		Logger: log.NewWithOptions(logOut, log.Options{
			ReportTimestamp: true,
			Level:           log.InfoLevel,
		}),
		Out:     out,
		Workers: 1,
		Scale:   1,
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.OutputFile = opts.OutputFile
	a.GeoJSONFile = opts.GeoJSONFile
	a.OutputDir = opts.OutputDir
	a.Workers = opts.Workers
	a.RenderFormat = opts.RenderFormat
	a.Scale = opts.Scale

	if opts.Debug {
		a.Logger.SetLevel(log.DebugLevel)
	} else {
		a.Logger.SetLevel(log.InfoLevel)
	}
	if opts.LogFormat == "json" {
		a.Logger.SetFormatter(log.JSONFormatter)
	} else {
		a.Logger.SetFormatter(log.TextFormatter)
	}
}

// loadConfig returns the configured tables, or the defaults when no file is
// set.
func (a *App) loadConfig() (*topo.Config, error) {
	if a.ConfigFile == "" {
		return topo.DefaultConfig(), nil
	}
	cfg, err := topo.LoadConfig(a.ConfigFile)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("loaded config", "path", a.ConfigFile)
	return cfg, nil
}

func (a *App) newBuilder() (*topo.Builder, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return topo.NewBuilder(cfg, a.Logger), nil
}

// buildFile parses, validates and builds one plan file.
func (a *App) buildFile(b *topo.Builder, path string) (*topo.Graph, error) {
	in, err := topo.ParsePlanFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g, err := b.Build(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// RunBuild builds one plan and writes its graph JSON.
func (a *App) RunBuild(input string) error {
	b, err := a.newBuilder()
	if err != nil {
		return err
	}
	g, err := a.buildFile(b, input)
	if err != nil {
		return err
	}

	if a.OutputFile == "" {
		if err := topo.WriteGraph(a.Out, g); err != nil {
			return err
		}
	} else {
		if err := topo.SaveGraph(a.OutputFile, g); err != nil {
			return err
		}
		a.Logger.Info("wrote graph", "path", a.OutputFile, "nodes", len(g.Nodes), "edges", len(g.Edges))
	}

	if a.GeoJSONFile != "" {
		data, err := topo.MarshalGeoJSON(g)
		if err != nil {
			return err
		}
		if err := os.WriteFile(a.GeoJSONFile, data, 0o644); err != nil {
			return fmt.Errorf("writing GeoJSON: %w", err)
		}
		a.Logger.Info("wrote GeoJSON", "path", a.GeoJSONFile)
	}
	return nil
}

// batchInputs lists the plan files in dir, skipping earlier batch outputs.
func batchInputs(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("finding JSON files: %w", err)
	}
	inputs := files[:0]
	for _, f := range files {
		if !strings.HasSuffix(f, graphSuffix) {
			inputs = append(inputs, f)
		}
	}
	return inputs, nil
}

// batchOutput is the graph path for one input file.
func batchOutput(outDir, input string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outDir, name+graphSuffix)
}

// RunBatch builds every plan in dir with bounded parallelism. A failed plan
// is logged and counted; the others still run.
func (a *App) RunBatch(ctx context.Context, dir string) error {
	b, err := a.newBuilder()
	if err != nil {
		return err
	}
	inputs, err := batchInputs(dir)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no plan JSON files found in %s", dir)
	}

	outDir := a.OutputDir
	if outDir == "" {
		outDir = dir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	workers := a.Workers
	if workers < 1 {
		workers = 1
	}
	a.Logger.Info("starting batch", "dir", dir, "plans", len(inputs), "workers", workers)

	var failed atomic.Int32
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, input := range inputs {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}

			graph, err := a.buildFile(b, input)
			if err == nil {
				err = topo.SaveGraph(batchOutput(outDir, input), graph)
			}
			if err != nil {
				failed.Add(1)
				a.Logger.Warn("plan failed", "file", input, "err", err)
				return nil
			}
			a.Logger.Debug("plan done", "file", input, "nodes", len(graph.Nodes), "edges", len(graph.Edges))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	n := int(failed.Load())
	a.Logger.Info("batch finished", "ok", len(inputs)-n, "failed", n)
	if n > 0 {
		return fmt.Errorf("%d of %d plans: %w", n, len(inputs), ErrBatchFailures)
	}
	return nil
}

// renderOutput picks the default output file for a render format.
func renderOutput(input, format string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if format == "svg" {
		return base + ".svg"
	}
	return base + ".png"
}

// RunRender builds one plan and renders its graph.
func (a *App) RunRender(input string) error {
	b, err := a.newBuilder()
	if err != nil {
		return err
	}
	g, err := a.buildFile(b, input)
	if err != nil {
		return err
	}

	format := a.RenderFormat
	if format == "" {
		format = "raster"
	}
	output := a.OutputFile
	if output == "" {
		output = renderOutput(input, format)
	}

	switch format {
	case "raster":
		r := topo.NewRasterRenderer(g)
		if a.Scale > 0 {
			r.Scale = a.Scale
		}
		if err := r.SavePNG(output); err != nil {
			return fmt.Errorf("saving PNG: %w", err)
		}
	case "svg", "png":
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		r := topo.NewVectorRenderer(g)
		if format == "svg" {
			err = r.RenderToSVG(f)
		} else {
			err = r.RenderToPNG(f)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("rendering %s: %w", format, err)
		}
	default:
		return fmt.Errorf("unknown render format %q", format)
	}

	a.Logger.Info("rendered graph", "path", output, "format", format)
	return nil
}

// RunSummary builds one plan and prints a plain-text report.
func (a *App) RunSummary(input string) error {
	b, err := a.newBuilder()
	if err != nil {
		return err
	}
	g, err := a.buildFile(b, input)
	if err != nil {
		return err
	}
	return topo.WriteSummary(a.Out, g)
}

// RunConfigDump writes the effective configuration as YAML.
func (a *App) RunConfigDump() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.OutputFile != "" {
		return topo.SaveConfig(a.OutputFile, cfg)
	}
	enc := yaml.NewEncoder(a.Out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
