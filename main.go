package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions holds every CLI flag. Commands copy them into the Application
// before running.
type AppOptions struct {
	ConfigFile string
	Debug      bool
	LogFormat  string

	OutputFile   string
	GeoJSONFile  string
	OutputDir    string
	Workers      int
	RenderFormat string
	Scale        float64
}

// Application is what the command tree drives. App is the real one; tests
// substitute a recorder.
type Application interface {
	ApplyOptions(opts AppOptions)
	RunBuild(input string) error
	RunBatch(ctx context.Context, dir string) error
	RunRender(input string) error
	RunSummary(input string) error
	RunConfigDump() error
}

func main() {
	app := NewApp(os.Stdout, os.Stderr)
	if err := run(os.Args[1:], os.Stdout, app); err != nil {
		app.Logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// run executes the command line in args against app.
func run(args []string, out io.Writer, app Application) error {
	cmd := newRootCommand(app)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd.ExecuteContext(context.Background())
}

func newRootCommand(app Application) *cobra.Command {
	opts := &AppOptions{}

	root := &cobra.Command{
		Use:   "plantopo",
		Short: "Build room topology graphs from floor-plan annotations",
		Long: "plantopo fuses object, OCR, structure and space detections of a floor-plan\n" +
			"image into a graph of spaces connected by doors, windows and open passages.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.LogFormat {
			case "text", "json":
			default:
				return fmt.Errorf("unknown log format %q (want text or json)", opts.LogFormat)
			}
			app.ApplyOptions(*opts)
			return nil
		},
	}
	root.SetVersionTemplate("plantopo version: {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML file overlaying the default tables")
	pf.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&opts.LogFormat, "log-format", "text", "Log format: text or json")

	build := &cobra.Command{
		Use:   "build <input.json>",
		Short: "Build the topology graph of one plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunBuild(args[0])
		},
	}
	build.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Graph JSON output file (default stdout)")
	build.Flags().StringVar(&opts.GeoJSONFile, "geojson", "", "Also write a GeoJSON export to this file")

	batch := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Build graphs for every plan JSON in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunBatch(cmd.Context(), args[0])
		},
	}
	batch.Flags().IntVarP(&opts.Workers, "workers", "w", 4, "Number of plans processed in parallel")
	batch.Flags().StringVar(&opts.OutputDir, "output-dir", "", "Directory for <name>.graph.json files (default: input dir)")

	render := &cobra.Command{
		Use:   "render <input.json>",
		Short: "Render the topology graph of one plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.RenderFormat {
			case "raster", "svg", "png":
			default:
				return fmt.Errorf("unknown render format %q (want raster, svg or png)", opts.RenderFormat)
			}
			return app.RunRender(args[0])
		},
	}
	render.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output file (default: input name with the format's extension)")
	render.Flags().StringVar(&opts.RenderFormat, "format", "raster", "Render format: raster, svg or png")
	render.Flags().Float64Var(&opts.Scale, "scale", 1, "Raster scale factor")

	summary := &cobra.Command{
		Use:   "summary <input.json>",
		Short: "Print a plain-text report of one plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunSummary(args[0])
		},
	}

	config := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	dump := &cobra.Command{
		Use:   "dump",
		Short: "Write the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunConfigDump()
		},
	}
	dump.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output file (default stdout)")
	config.AddCommand(dump)

	root.AddCommand(build, batch, render, summary, config)
	return root
}
