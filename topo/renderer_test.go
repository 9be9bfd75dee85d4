package topo

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewBuilder(nil, nil).Build(samplePlan())
	require.NoError(t, err)
	return g
}

func TestRasterRender(t *testing.T) {
	r := NewRasterRenderer(sampleGraph(t))
	img := r.Render()

	b := img.Bounds()
	assert.Equal(t, 600+2*r.Padding, b.Dx())
	assert.Equal(t, 400+2*r.Padding, b.Dy())

	white := color.RGBA{255, 255, 255, 255}
	// Inside the living room, away from labels and edges.
	assert.NotEqual(t, white, img.RGBAAt(260, 40))
	// Below the balcony nothing is drawn.
	assert.Equal(t, white, img.RGBAAt(500, 350))
}

func TestRasterRenderHonorsMaxSize(t *testing.T) {
	r := NewRasterRenderer(sampleGraph(t))
	r.Scale = 4
	r.MaxSize = 1200

	img := r.Render()
	assert.Equal(t, 1200+2*r.Padding, img.Bounds().Dx())
	assert.Equal(t, 800+2*r.Padding, img.Bounds().Dy())
}

func TestRasterSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.png")
	require.NoError(t, NewRasterRenderer(sampleGraph(t)).SavePNG(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestBlendColors(t *testing.T) {
	bg := color.RGBA{255, 255, 255, 255}
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, blendColors(bg, color.NRGBA{0, 0, 0, 255}))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, blendColors(bg, color.NRGBA{0, 0, 0, 0}))
}

func TestVectorRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewVectorRenderer(sampleGraph(t)).RenderToSVG(&buf))

	out := buf.String()
	assert.True(t, strings.Contains(out, "<svg"), "output is an SVG document")
	assert.Contains(t, out, "</svg>")
	assert.Contains(t, out, "<path")
}

func TestVectorRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewVectorRenderer(sampleGraph(t)).RenderToPNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Greater(t, img.Bounds().Dy(), 0)
}

func TestVectorRendererSizeCoversNodes(t *testing.T) {
	g := &Graph{
		ImageInfo: ImageInfo{Width: 100, Height: 100},
		Nodes:     []Node{testNode("1", "공간", "거실", 50, 50, 180, 140)},
	}
	r := NewVectorRenderer(g)
	w, h := r.size()
	assert.Equal(t, 180+2*r.Padding, w)
	assert.Equal(t, 140+2*r.Padding, h)
}

func TestNRGBAToRGBA(t *testing.T) {
	assert.Equal(t, color.RGBA{0, 0, 0, 0}, nrgbaToRGBA(color.NRGBA{200, 100, 50, 0}))
	assert.Equal(t, color.RGBA{200, 100, 50, 255}, nrgbaToRGBA(color.NRGBA{200, 100, 50, 255}))
	assert.Equal(t, color.RGBA{40, 20, 10, 51}, nrgbaToRGBA(color.NRGBA{200, 100, 50, 51}))
}
