package topo

import "strings"

// Indexer assigns objects, text labels and structures to the space that
// contains their centroid.
type Indexer struct {
	labels *LabelResolver
	cats   *categories
}

// NewIndexer creates an Indexer over the given tables.
func NewIndexer(cfg *Config, labels *LabelResolver) *Indexer {
	return &Indexer{labels: labels, cats: newCategories(cfg.Categories)}
}

// Index returns everything whose centroid lies inside shape. Structures that
// are neither doors nor windows are not recorded.
func (x *Indexer) Index(shape Shape, objects, texts, structures []Annotation) Contents {
	c := newContents()
	for _, o := range objects {
		if x.inside(shape, o) {
			c.Objects = append(c.Objects, ObjectRef{
				ID:           o.ID.String(),
				CategoryID:   o.CategoryID,
				CategoryName: o.CategoryName,
				BBox:         o.BBox,
			})
		}
	}
	for _, t := range texts {
		if x.inside(shape, t) {
			c.OCRLabels = append(c.OCRLabels, TextRef{ID: t.ID.String(), Text: t.Text(), BBox: t.BBox})
		}
	}
	for _, s := range structures {
		kind := x.cats.structureKind(s)
		if kind != structureDoor && kind != structureWindow {
			continue
		}
		if !x.inside(shape, s) {
			continue
		}
		ref := StructureRef{ID: s.ID.String(), CategoryName: s.CategoryName, Type: s.SubType(), BBox: s.BBox}
		if kind == structureDoor {
			c.Structures.Doors = append(c.Structures.Doors, ref)
		} else {
			c.Structures.Windows = append(c.Structures.Windows, ref)
		}
	}
	return c
}

func (x *Indexer) inside(shape Shape, a Annotation) bool {
	return shape.Contains(ShapeOf(a).Centroid())
}

// NewNode turns a space region into a node: label, classification and
// contents. AreaRatio is filled in later by the metrics pass.
func (x *Indexer) NewNode(r SpaceRegion, objects, texts, structures []Annotation) Node {
	contents := x.Index(r.Shape, objects, texts, structures)
	label := x.Label(r.Source.CategoryName, contents.OCRLabels)
	centroid := r.Shape.Centroid()

	n := Node{
		NodeID:       r.ID,
		NodeType:     NodeTypeSpace,
		CategoryID:   r.Source.CategoryID,
		CategoryName: r.Source.CategoryName,
		Label:        label,
		SpaceType:    x.labels.ResolveSpaceType(label),
		IsOutside:    x.labels.IsOutsideSpace(label),
		Area:         r.Area,
		Centroid:     [2]float64{centroid[0], centroid[1]},
		Contains:     contents,
		shape:        r.Shape,
	}
	if r.Strategy == SplitNone {
		n.BBox = r.Source.BBox
		n.Segmentation = r.Source.Segmentation
		if n.Segmentation == nil {
			n.Segmentation = make([][]float64, 0)
		}
	} else {
		n.BBox = BBoxFromBound(r.Shape.Bound)
		n.Segmentation = Flatten(r.Shape.Polygon)
	}
	return n
}

// Label picks the first contained text that names a known space, falling
// back to the part of the category name after its last underscore.
func (x *Indexer) Label(categoryName string, texts []TextRef) string {
	for _, t := range texts {
		if canonical, ok := x.labels.Canonical(t.Text); ok {
			return canonical
		}
	}
	if i := strings.LastIndex(categoryName, "_"); i >= 0 {
		return categoryName[i+1:]
	}
	return categoryName
}
