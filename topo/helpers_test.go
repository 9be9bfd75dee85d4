package topo

// ---------------------------------------------------------------------------
// fixtures shared by the package tests
// ---------------------------------------------------------------------------

func rectSeq(x0, y0, x1, y1 float64) []float64 {
	return []float64{x0, y0, x1, y0, x1, y1, x0, y1}
}

// rectAnn is an annotation whose polygon is the axis-aligned rectangle
// (x0,y0)-(x1,y1).
func rectAnn(id, category string, x0, y0, x1, y1 float64) Annotation {
	return Annotation{
		ID:           ID(id),
		CategoryName: category,
		BBox:         BBox{x0, y0, x1 - x0, y1 - y0},
		Segmentation: [][]float64{rectSeq(x0, y0, x1, y1)},
		Area:         (x1 - x0) * (y1 - y0),
		Confidence:   0.9,
	}
}

// textAnn is an OCR box of 20x10 centered on (cx, cy) without a polygon.
func textAnn(id, text string, cx, cy float64) Annotation {
	return Annotation{
		ID:           ID(id),
		CategoryName: "text",
		BBox:         BBox{cx - 10, cy - 5, 20, 10},
		Attributes:   map[string]interface{}{"text": text},
	}
}

func structAnn(id, category string, x0, y0, x1, y1 float64) Annotation {
	a := rectAnn(id, category, x0, y0, x1, y1)
	a.Attributes = map[string]interface{}{"type": "swing"}
	return a
}

// windowRef is a contained window with the given bbox.
func windowRef(id string, x, y, w, h float64) StructureRef {
	return StructureRef{ID: id, CategoryName: "window", BBox: BBox{x, y, w, h}}
}

// testNode builds a node with a rectangular shape and the given label.
func testNode(id, category, label string, x0, y0, x1, y1 float64) Node {
	labels := NewLabelResolver(DefaultConfig())
	shape := NewShape([][]float64{rectSeq(x0, y0, x1, y1)}, BBox{x0, y0, x1 - x0, y1 - y0})
	c := shape.Centroid()
	return Node{
		NodeID:       id,
		NodeType:     NodeTypeSpace,
		CategoryName: category,
		Label:        label,
		SpaceType:    labels.ResolveSpaceType(label),
		IsOutside:    labels.IsOutsideSpace(label),
		BBox:         BBox{x0, y0, x1 - x0, y1 - y0},
		Segmentation: [][]float64{rectSeq(x0, y0, x1, y1)},
		Area:         (x1 - x0) * (y1 - y0),
		Centroid:     [2]float64{c[0], c[1]},
		Contains:     newContents(),
		shape:        shape,
	}
}
