package topo

import (
	"image/color"
	"image/png"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// spaceTypeColors fills nodes by classification.
var spaceTypeColors = map[SpaceType]color.NRGBA{
	SpaceCommon:       {R: 255, G: 214, B: 153, A: 255},
	SpacePrivate:      {R: 166, G: 206, B: 227, A: 255},
	SpaceWet:          {R: 178, G: 223, B: 138, A: 255},
	SpaceSpecialized:  {R: 202, G: 178, B: 214, A: 255},
	SpaceOutside:      {R: 220, G: 220, B: 220, A: 255},
	SpaceOther:        {R: 240, G: 240, B: 200, A: 255},
	SpaceUnclassified: {R: 250, G: 250, B: 250, A: 255},
}

// edgeColors strokes edges by connection type.
var edgeColors = map[ConnectionType]color.RGBA{
	ConnectionDoor:   {R: 200, G: 40, B: 40, A: 255},
	ConnectionWindow: {R: 40, G: 90, B: 200, A: 255},
	ConnectionOpen:   {R: 40, G: 160, B: 60, A: 255},
}

func spaceColor(t SpaceType) color.NRGBA {
	if c, ok := spaceTypeColors[t]; ok {
		return c
	}
	return spaceTypeColors[SpaceUnclassified]
}

// nrgbaToRGBA premultiplies alpha for the canvas library.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// VectorRenderer draws a topology graph over the plan's image frame as SVG or
// high resolution PNG.
type VectorRenderer struct {
	Graph      *Graph
	Padding    float64           // padding around the image frame, in pixels
	Resolution canvas.Resolution // PNG resolution
	NodeRadius float64           // centroid marker radius
	ShowEdges  bool
}

// NewVectorRenderer creates a vector renderer with default settings
func NewVectorRenderer(g *Graph) *VectorRenderer {
	return &VectorRenderer{
		Graph:      g,
		Padding:    20,
		Resolution: canvas.DPI(96),
		NodeRadius: 6,
		ShowEdges:  true,
	}
}

// canvasRenderer is implemented by both the svg and rasterizer renderers
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// size returns the drawing size: the image frame, grown to the node bounds
// when nodes reach outside it, plus padding.
func (r *VectorRenderer) size() (width, height float64) {
	width = float64(r.Graph.ImageInfo.Width)
	height = float64(r.Graph.ImageInfo.Height)
	for i := range r.Graph.Nodes {
		b := r.Graph.Nodes[i].Shape().Outline().Bound()
		if b.Max[0] > width {
			width = b.Max[0]
		}
		if b.Max[1] > height {
			height = b.Max[1]
		}
	}
	return width + 2*r.Padding, height + 2*r.Padding
}

// RenderToSVG writes the graph as an SVG to the provided writer
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	width, height := r.size()
	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the graph as a PNG to the provided writer
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	width, height := r.size()
	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, width, height)
	return png.Encode(w, rast)
}

func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, width, height float64) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	// Image y grows downward, canvas y upward.
	toCanvas := func(x, y float64) (float64, float64) {
		return x + r.Padding, height - (y + r.Padding)
	}

	frameStyle := canvas.DefaultStyle
	frameStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	frameStyle.Stroke = canvas.Paint{Color: canvas.Gray}
	frameStyle.StrokeWidth = 1
	frameStyle.Dashes = []float64{6, 6}
	fx, fy := toCanvas(0, float64(r.Graph.ImageInfo.Height))
	frame := canvas.Rectangle(float64(r.Graph.ImageInfo.Width), float64(r.Graph.ImageInfo.Height))
	renderer.RenderPath(frame.Translate(fx, fy), frameStyle, canvas.Identity)

	for i := range r.Graph.Nodes {
		n := &r.Graph.Nodes[i]
		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: nrgbaToRGBA(spaceColor(n.SpaceType))}
		style.Stroke = canvas.Paint{Color: canvas.Black}
		style.StrokeWidth = 2
		if n.IsOutside {
			style.Dashes = []float64{8, 4}
		}

		for _, poly := range n.Shape().Outline() {
			cp := &canvas.Path{}
			for j, pt := range openRing(poly[0]) {
				cx, cy := toCanvas(pt[0], pt[1])
				if j == 0 {
					cp.MoveTo(cx, cy)
				} else {
					cp.LineTo(cx, cy)
				}
			}
			cp.Close()
			renderer.RenderPath(cp, style, canvas.Identity)
		}
	}

	if r.ShowEdges {
		for _, e := range r.Graph.Edges {
			src, ok1 := r.Graph.NodeByID(e.Source)
			dst, ok2 := r.Graph.NodeByID(e.Target)
			if !ok1 || !ok2 {
				continue
			}
			style := canvas.DefaultStyle
			style.Fill = canvas.Paint{Color: canvas.Transparent}
			style.Stroke = canvas.Paint{Color: edgeColors[e.ConnectionType]}
			style.StrokeWidth = 3
			if e.ConnectionType == ConnectionOpen {
				style.Dashes = []float64{10, 5}
			}

			x1, y1 := toCanvas(src.Centroid[0], src.Centroid[1])
			x2, y2 := toCanvas(dst.Centroid[0], dst.Centroid[1])
			p := &canvas.Path{}
			p.MoveTo(x1, y1)
			p.LineTo(x2, y2)
			renderer.RenderPath(p, style, canvas.Identity)
		}
	}

	markerStyle := canvas.DefaultStyle
	markerStyle.Fill = canvas.Paint{Color: canvas.Black}
	markerStyle.Stroke = canvas.Paint{Color: canvas.White}
	markerStyle.StrokeWidth = 1
	for i := range r.Graph.Nodes {
		n := &r.Graph.Nodes[i]
		cx, cy := toCanvas(n.Centroid[0], n.Centroid[1])
		renderer.RenderPath(canvas.Circle(r.NodeRadius).Translate(cx, cy), markerStyle, canvas.Identity)
	}
}
