package topo

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/paulmach/orb"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RasterRenderer draws a quick pixel preview of a graph in image
// coordinates. Labels use the built-in 7x13 font, which only covers ASCII, so
// nodes are tagged with their id and space type.
type RasterRenderer struct {
	Graph   *Graph
	Scale   float64
	Padding int
	MaxSize int
}

// NewRasterRenderer creates a raster renderer with default settings
func NewRasterRenderer(g *Graph) *RasterRenderer {
	return &RasterRenderer{Graph: g, Scale: 1, Padding: 10, MaxSize: 4000}
}

// Render draws the graph into a new image.
func (r *RasterRenderer) Render() *image.RGBA {
	scale := r.Scale
	if scale <= 0 {
		scale = 1
	}
	w, h := float64(r.Graph.ImageInfo.Width), float64(r.Graph.ImageInfo.Height)
	if r.MaxSize > 0 {
		if longest := math.Max(w, h) * scale; longest > float64(r.MaxSize) {
			scale *= float64(r.MaxSize) / longest
		}
	}
	width := int(w*scale) + 2*r.Padding
	height := int(h*scale) + 2*r.Padding
	if width <= 0 {
		width = 2*r.Padding + 1
	}
	if height <= 0 {
		height = 2*r.Padding + 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	toImage := func(x, y float64) (int, int) {
		return int(x*scale) + r.Padding, int(y*scale) + r.Padding
	}
	toPlan := func(ix, iy int) orb.Point {
		return orb.Point{(float64(ix-r.Padding) + 0.5) / scale, (float64(iy-r.Padding) + 0.5) / scale}
	}

	// First pass: space fills
	for i := range r.Graph.Nodes {
		n := &r.Graph.Nodes[i]
		shape := n.Shape()
		fill := spaceColor(n.SpaceType)
		fill.A = 200

		b := shape.Outline().Bound()
		x0, y0 := toImage(b.Min[0], b.Min[1])
		x1, y1 := toImage(b.Max[0], b.Max[1])
		for iy := max(y0, 0); iy <= min(y1, height-1); iy++ {
			for ix := max(x0, 0); ix <= min(x1, width-1); ix++ {
				if shape.Contains(toPlan(ix, iy)) {
					img.Set(ix, iy, blendColors(img.RGBAAt(ix, iy), fill))
				}
			}
		}
	}

	// Second pass: outlines
	outline := color.RGBA{60, 60, 60, 255}
	for i := range r.Graph.Nodes {
		for _, poly := range r.Graph.Nodes[i].Shape().Outline() {
			ring := poly[0]
			for j := 0; j+1 < len(ring); j++ {
				ax, ay := toImage(ring[j][0], ring[j][1])
				bx, by := toImage(ring[j+1][0], ring[j+1][1])
				drawLine(img, ax, ay, bx, by, outline)
			}
		}
	}

	// Third pass: edges, centroids and tags
	for _, e := range r.Graph.Edges {
		src, ok1 := r.Graph.NodeByID(e.Source)
		dst, ok2 := r.Graph.NodeByID(e.Target)
		if !ok1 || !ok2 {
			continue
		}
		ax, ay := toImage(src.Centroid[0], src.Centroid[1])
		bx, by := toImage(dst.Centroid[0], dst.Centroid[1])
		drawLine(img, ax, ay, bx, by, edgeColors[e.ConnectionType])
	}
	for i := range r.Graph.Nodes {
		n := &r.Graph.Nodes[i]
		cx, cy := toImage(n.Centroid[0], n.Centroid[1])
		drawCircle(img, cx, cy, 4, color.RGBA{0, 0, 0, 255})
		drawText(img, cx+6, cy+4, fmt.Sprintf("%s %s", n.NodeID, n.SpaceType), color.RGBA{0, 0, 0, 255})
	}

	r.drawLegend(img)
	return img
}

// SavePNG saves the rendered image to a file
func (r *RasterRenderer) SavePNG(path string) error {
	img := r.Render()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return png.Encode(f, img)
}

// drawLegend lists the edge colors in the top-left corner.
func (r *RasterRenderer) drawLegend(img *image.RGBA) {
	y := 15
	for _, ct := range []ConnectionType{ConnectionDoor, ConnectionWindow, ConnectionOpen} {
		c := edgeColors[ct]
		for dy := 0; dy < 12; dy++ {
			for dx := 0; dx < 12; dx++ {
				setPixel(img, 10+dx, y+dy-10, c)
			}
		}
		drawText(img, 28, y, string(ct), color.RGBA{0, 0, 0, 255})
		y += 18
	}
}

// blendColors alpha-blends fg over an opaque or premultiplied background.
func blendColors(bg color.RGBA, fg color.NRGBA) color.NRGBA {
	var bgNRGBA color.NRGBA
	switch bg.A {
	case 0:
		bgNRGBA = color.NRGBA{0, 0, 0, 0}
	case 255:
		bgNRGBA = color.NRGBA{bg.R, bg.G, bg.B, 255}
	default:
		alpha32 := uint32(bg.A)
		bgNRGBA = color.NRGBA{
			R: uint8((uint32(bg.R) * 255) / alpha32),
			G: uint8((uint32(bg.G) * 255) / alpha32),
			B: uint8((uint32(bg.B) * 255) / alpha32),
			A: bg.A,
		}
	}

	alpha := float64(fg.A) / 255.0
	invAlpha := 1.0 - alpha

	return color.NRGBA{
		R: uint8(float64(fg.R)*alpha + float64(bgNRGBA.R)*invAlpha),
		G: uint8(float64(fg.G)*alpha + float64(bgNRGBA.G)*invAlpha),
		B: uint8(float64(fg.B)*alpha + float64(bgNRGBA.B)*invAlpha),
		A: 255,
	}
}

func setPixel(img *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

// drawLine draws a 1px line with Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		setPixel(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawCircle draws a filled circle
func drawCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setPixel(img, cx+dx, cy+dy, c)
			}
		}
	}
}

// drawText renders text onto an image at the specified position
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
