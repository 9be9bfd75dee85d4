package topo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// SplitStrategy records how a space region was produced.
type SplitStrategy string

const (
	SplitNone    SplitStrategy = "none"
	SplitWall    SplitStrategy = "wall"
	SplitDivider SplitStrategy = "divider"
)

// SpaceRegion is a space annotation, or one fragment of it, ready to become a
// node.
type SpaceRegion struct {
	ID       string
	Source   Annotation
	Shape    Shape
	Area     float64
	Strategy SplitStrategy
}

// Splitter detects space regions that hold two or more rooms, evidenced by
// duplicate labels, and cuts them apart.
type Splitter struct {
	labels     *LabelResolver
	thresholds Thresholds
	log        Logger
}

// NewSplitter creates a Splitter over the given tables.
func NewSplitter(cfg *Config, labels *LabelResolver, logger Logger) *Splitter {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Splitter{labels: labels, thresholds: cfg.Thresholds, log: logger}
}

// Split returns the regions for one space. Splitting is best effort: when
// neither a wall nor a divider line yields two fragments of at least the
// minimum area, the space comes back unchanged as the only region.
func (s *Splitter) Split(space Annotation, texts, walls []Annotation) []SpaceRegion {
	region := wholeRegion(space)
	shape := region.Shape
	whole := []SpaceRegion{region}

	a, b, ok := s.referencePair(shape, texts)
	if !ok {
		return whole
	}

	if frags := s.splitByWalls(shape, a, b, walls); len(frags) >= 2 {
		s.log.Debug("split space along wall", "space", space.ID, "fragments", len(frags))
		return s.children(space, frags, SplitWall)
	}
	if frags := s.splitByDivider(shape, a, b); len(frags) >= 2 {
		s.log.Debug("split space along divider", "space", space.ID, "fragments", len(frags))
		return s.children(space, frags, SplitDivider)
	}

	s.log.Debug("duplicate labels but no valid split", "space", space.ID)
	return whole
}

// wholeRegion is the unsplit region of a space. The annotated area wins over
// the geometric one when present.
func wholeRegion(space Annotation) SpaceRegion {
	shape := ShapeOf(space)
	area := space.Area
	if area <= 0 {
		area = shape.Area()
	}
	return SpaceRegion{
		ID:       space.ID.String(),
		Source:   space,
		Shape:    shape,
		Area:     area,
		Strategy: SplitNone,
	}
}

// referencePair groups the texts inside shape by synonymy and returns the
// centroids of the first two members of the first group with duplicates.
func (s *Splitter) referencePair(shape Shape, texts []Annotation) (orb.Point, orb.Point, bool) {
	type placed struct {
		text     string
		centroid orb.Point
	}
	var inside []placed
	for _, t := range texts {
		c := ShapeOf(t).Centroid()
		if shape.Contains(c) {
			inside = append(inside, placed{text: t.Text(), centroid: c})
		}
	}
	if len(inside) < 2 {
		return orb.Point{}, orb.Point{}, false
	}

	grouped := make([]bool, len(inside))
	for i := range inside {
		if grouped[i] {
			continue
		}
		grouped[i] = true
		group := []int{i}
		for j := i + 1; j < len(inside); j++ {
			if !grouped[j] && s.labels.AreSynonyms(inside[i].text, inside[j].text) {
				grouped[j] = true
				group = append(group, j)
			}
		}
		if len(group) >= 2 {
			return inside[group[0]].centroid, inside[group[1]].centroid, true
		}
	}
	return orb.Point{}, orb.Point{}, false
}

// splitByWalls subtracts, one at a time, each wall that intersects the space
// and lies between the two reference points.
func (s *Splitter) splitByWalls(shape Shape, a, b orb.Point, walls []Annotation) []orb.MultiPolygon {
	outline := shape.Outline()
	for _, w := range walls {
		ws := ShapeOf(w)
		if !ws.Intersects(shape) {
			continue
		}
		c := ws.Centroid()
		if !between(c[0], a[0], b[0]) && !between(c[1], a[1], b[1]) {
			continue
		}
		cutters := bufferCutters(ws.Outline(), s.thresholds.WallBuffer)
		if len(cutters) == 0 {
			continue
		}
		frags := s.accept(groupFragments(differenceConvex(outline, cutters)))
		if len(frags) >= 2 {
			return frags
		}
	}
	return nil
}

// splitByDivider cuts the space with a line through the midpoint of a and b,
// perpendicular to the axis along which they are farthest apart.
func (s *Splitter) splitByDivider(shape Shape, a, b orb.Point) []orb.MultiPolygon {
	p1, p2 := dividerLine(shape.Outline().Bound(), a, b, s.thresholds.DividerExtensionMult)

	var pieces []orb.Ring
	cut := false
	for _, poly := range shape.Outline() {
		if len(poly) == 0 {
			continue
		}
		split := splitRingByLine(poly[0], p1, p2)
		if len(split) > 1 {
			cut = true
		}
		pieces = append(pieces, split...)
	}
	// Disjoint parts the line misses are not a split.
	if !cut {
		return nil
	}
	return s.accept(fragmentsOf(pieces))
}

// dividerLine returns two points of the divider, extended well past bound.
func dividerLine(bound orb.Bound, a, b orb.Point, mult float64) (orb.Point, orb.Point) {
	mid := orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
	ext := math.Max(bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1])*mult + 1

	if math.Abs(b[0]-a[0]) >= math.Abs(b[1]-a[1]) {
		return orb.Point{mid[0], bound.Min[1] - ext}, orb.Point{mid[0], bound.Max[1] + ext}
	}
	return orb.Point{bound.Min[0] - ext, mid[1]}, orb.Point{bound.Max[0] + ext, mid[1]}
}

// accept keeps fragments of at least the minimum area.
func (s *Splitter) accept(frags []orb.MultiPolygon) []orb.MultiPolygon {
	var out []orb.MultiPolygon
	for _, f := range frags {
		if fragmentArea(f) >= s.thresholds.MinFragmentArea {
			out = append(out, f)
		}
	}
	return out
}

func (s *Splitter) children(space Annotation, frags []orb.MultiPolygon, strategy SplitStrategy) []SpaceRegion {
	out := make([]SpaceRegion, 0, len(frags))
	for i, f := range frags {
		out = append(out, SpaceRegion{
			ID:       fmt.Sprintf("%s_%d", space.ID, i),
			Source:   space,
			Shape:    shapeFromPolygons(f),
			Area:     fragmentArea(f),
			Strategy: strategy,
		})
	}
	return out
}

// between reports whether v lies strictly between p and q.
func between(v, p, q float64) bool {
	return v > math.Min(p, q) && v < math.Max(p, q)
}
