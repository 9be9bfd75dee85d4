package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwv/plantopo/topo"
)

// twoRoomPlan is a living room and a bedroom joined by a door.
const twoRoomPlan = `{
  "image_info": {"file_name": "two_rooms.png", "width": 400, "height": 200},
  "objects": [],
  "ocr": [
    {"id": 1, "category_name": "text", "bbox": [90, 95, 20, 10], "attributes": {"text": "거실"}},
    {"id": 2, "category_name": "text", "bbox": [290, 95, 20, 10], "attributes": {"text": "침실"}}
  ],
  "structures": [
    {"id": 10, "category_name": "출입문", "bbox": [190, 80, 20, 40], "segmentation": [], "attributes": {"type": "swing"}}
  ],
  "spaces": [
    {"id": 100, "category_name": "공간_거실", "bbox": [0, 0, 200, 200],
     "segmentation": [[0, 0, 200, 0, 200, 200, 0, 200]], "area": 40000},
    {"id": 101, "category_name": "공간_침실", "bbox": [200, 0, 200, 200],
     "segmentation": [[200, 0, 400, 0, 400, 200, 200, 200]], "area": 40000}
  ]
}`

func writePlan(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newTestApp returns an App writing results to out and discarding logs.
func newTestApp(out *bytes.Buffer) (*App, *bytes.Buffer) {
	logs := &bytes.Buffer{}
	return NewApp(out, logs), logs
}

func TestNewApp(t *testing.T) {
	var out bytes.Buffer
	app, _ := newTestApp(&out)
	require.NotNil(t, app)
	assert.NotNil(t, app.Logger)
	assert.Equal(t, 1, app.Workers)
	assert.Equal(t, 1.0, app.Scale)
}

func TestApplyOptions(t *testing.T) {
	var out bytes.Buffer
	app, logs := newTestApp(&out)

	app.ApplyOptions(AppOptions{
		ConfigFile:   "tables.yaml",
		Debug:        true,
		LogFormat:    "json",
		OutputFile:   "out.json",
		GeoJSONFile:  "out.geojson",
		OutputDir:    "graphs",
		Workers:      3,
		RenderFormat: "svg",
		Scale:        2,
	})

	assert.Equal(t, "tables.yaml", app.ConfigFile)
	assert.Equal(t, "out.json", app.OutputFile)
	assert.Equal(t, "out.geojson", app.GeoJSONFile)
	assert.Equal(t, "graphs", app.OutputDir)
	assert.Equal(t, 3, app.Workers)
	assert.Equal(t, "svg", app.RenderFormat)
	assert.Equal(t, 2.0, app.Scale)

	app.Logger.Debug("hello", "k", "v")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry), "log line is JSON: %s", logs.String())
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "v", entry["k"])
}

func TestRunBuildToStdout(t *testing.T) {
	dir := t.TempDir()
	input := writePlan(t, dir, "two_rooms.json", twoRoomPlan)

	var out bytes.Buffer
	app, _ := newTestApp(&out)
	require.NoError(t, app.RunBuild(input))

	g, err := topo.ParseGraphJSON(out.Bytes())
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "100", g.Nodes[0].NodeID)
	assert.Equal(t, "거실", g.Nodes[0].Label)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, topo.ConnectionDoor, g.Edges[0].ConnectionType)
	require.NotNil(t, g.Edges[0].ConnectionID)
	assert.Equal(t, "10", *g.Edges[0].ConnectionID)
}

func TestRunBuildToFiles(t *testing.T) {
	dir := t.TempDir()
	input := writePlan(t, dir, "two_rooms.json", twoRoomPlan)

	var out bytes.Buffer
	app, _ := newTestApp(&out)
	app.OutputFile = filepath.Join(dir, "graph.json")
	app.GeoJSONFile = filepath.Join(dir, "graph.geojson")
	require.NoError(t, app.RunBuild(input))
	assert.Empty(t, out.String())

	data, err := os.ReadFile(app.OutputFile)
	require.NoError(t, err)
	_, err = topo.ParseGraphJSON(data)
	require.NoError(t, err)

	geo, err := os.ReadFile(app.GeoJSONFile)
	require.NoError(t, err)
	assert.Contains(t, string(geo), `"FeatureCollection"`)
}

func TestRunBuildErrors(t *testing.T) {
	dir := t.TempDir()
	invalid := writePlan(t, dir, "invalid.json", `{"image_info": {"width": 0, "height": 10}}`)
	broken := writePlan(t, dir, "broken.json", `{"image_info":`)

	var out bytes.Buffer
	app, _ := newTestApp(&out)

	err := app.RunBuild(invalid)
	assert.True(t, errors.Is(err, topo.ErrInvalidImageInfo), "got %v", err)

	assert.Error(t, app.RunBuild(broken))
	assert.Error(t, app.RunBuild(filepath.Join(dir, "missing.json")))

	app.ConfigFile = filepath.Join(dir, "missing.yaml")
	assert.Error(t, app.RunBuild(filepath.Join(dir, "invalid.json")))
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "a.json", twoRoomPlan)
	writePlan(t, dir, "b.json", twoRoomPlan)
	writePlan(t, dir, "bad.json", `{"image_info": {"width": -1, "height": 1}}`)
	writePlan(t, dir, "old.graph.json", `not a plan`)
	writePlan(t, dir, "notes.txt", "ignored")

	var out bytes.Buffer
	app, logs := newTestApp(&out)
	app.Workers = 2

	err := app.RunBatch(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBatchFailures))
	assert.Contains(t, err.Error(), "1 of 3")
	assert.Contains(t, logs.String(), "bad.json")

	for _, name := range []string{"a", "b"} {
		data, err := os.ReadFile(filepath.Join(dir, name+".graph.json"))
		require.NoError(t, err, name)
		g, err := topo.ParseGraphJSON(data)
		require.NoError(t, err)
		assert.Len(t, g.Nodes, 2)
	}
	_, err = os.Stat(filepath.Join(dir, "bad.graph.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunBatchOutputDir(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "a.json", twoRoomPlan)
	outDir := filepath.Join(t.TempDir(), "graphs")

	var out bytes.Buffer
	app, _ := newTestApp(&out)
	app.OutputDir = outDir
	require.NoError(t, app.RunBatch(context.Background(), dir))

	_, err := os.Stat(filepath.Join(outDir, "a.graph.json"))
	assert.NoError(t, err)
}

func TestRunBatchEmptyDir(t *testing.T) {
	var out bytes.Buffer
	app, _ := newTestApp(&out)
	assert.Error(t, app.RunBatch(context.Background(), t.TempDir()))
}

func TestBatchInputs(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "x.json", "{}")
	writePlan(t, dir, "x.graph.json", "{}")

	inputs, err := batchInputs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "x.json")}, inputs)
	assert.Equal(t, filepath.Join("out", "x.graph.json"), batchOutput("out", "/in/x.json"))
}

func TestRunRender(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"raster", ".png"},
		{"svg", ".svg"},
		{"png", ".png"},
	}

	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			dir := t.TempDir()
			input := writePlan(t, dir, "plan.json", twoRoomPlan)

			var out bytes.Buffer
			app, _ := newTestApp(&out)
			app.RenderFormat = tc.format
			require.NoError(t, app.RunRender(input))

			output := filepath.Join(dir, "plan"+tc.ext)
			f, err := os.Open(output)
			require.NoError(t, err)
			defer f.Close()

			if tc.ext == ".png" {
				_, err := png.Decode(f)
				assert.NoError(t, err)
				return
			}
			data, err := os.ReadFile(output)
			require.NoError(t, err)
			assert.Contains(t, string(data), "<svg")
		})
	}
}

func TestRunRenderUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	input := writePlan(t, dir, "plan.json", twoRoomPlan)

	var out bytes.Buffer
	app, _ := newTestApp(&out)
	app.RenderFormat = "gif"
	assert.Error(t, app.RunRender(input))
}

func TestRunSummary(t *testing.T) {
	dir := t.TempDir()
	input := writePlan(t, dir, "two_rooms.json", twoRoomPlan)

	var out bytes.Buffer
	app, _ := newTestApp(&out)
	require.NoError(t, app.RunSummary(input))

	report := out.String()
	assert.True(t, strings.HasPrefix(report, "=== two_rooms.png ==="))
	assert.Contains(t, report, "Edges: 1 [door=1]")
	assert.Contains(t, report, "Rooms: 1")
}

func TestRunConfigDump(t *testing.T) {
	var out bytes.Buffer
	app, _ := newTestApp(&out)
	require.NoError(t, app.RunConfigDump())

	cfg, err := topo.ParseConfig(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, topo.DefaultConfig(), cfg)
}

func TestRunConfigDumpUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writePlan(t, dir, "tables.yaml", "thresholds:\n  minFragmentArea: 250\n")

	var out bytes.Buffer
	app, _ := newTestApp(&out)
	app.ConfigFile = path
	app.OutputFile = filepath.Join(dir, "effective.yaml")
	require.NoError(t, app.RunConfigDump())
	assert.Empty(t, out.String())

	cfg, err := topo.LoadConfig(app.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, 250.0, cfg.Thresholds.MinFragmentArea)
	assert.Equal(t, topo.DefaultConfig().Thresholds.WallBuffer, cfg.Thresholds.WallBuffer)
}
