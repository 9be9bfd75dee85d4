package topo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// geomEpsilon is the tolerance used for collinearity and touching tests, in
// image pixels.
const geomEpsilon = 1e-7

// minRingArea rejects rings that collapse to a line or a point.
const minRingArea = 1e-6

// Shape is the geometry of an annotation or node. Polygon is nil when the
// segmentation was absent or could not be repaired; every operation then falls
// back to the bounding box.
type Shape struct {
	Polygon orb.MultiPolygon
	Bound   orb.Bound
}

// NewShape builds a Shape from flat coordinate sequences and a bbox.
func NewShape(segmentation [][]float64, box BBox) Shape {
	s := Shape{Bound: box.Bound()}
	for _, seq := range segmentation {
		if poly, ok := ToPolygon(seq); ok {
			s.Polygon = append(s.Polygon, poly)
		}
	}
	return s
}

// ShapeOf returns the Shape of an annotation.
func ShapeOf(a Annotation) Shape {
	return NewShape(a.Segmentation, a.BBox)
}

// shapeFromPolygons wraps derived polygons; the bound is taken from the
// polygons themselves.
func shapeFromPolygons(mp orb.MultiPolygon) Shape {
	return Shape{Polygon: mp, Bound: mp.Bound()}
}

// Valid reports whether the shape carries a usable polygon.
func (s Shape) Valid() bool {
	return len(s.Polygon) > 0
}

// Outline returns the polygon, or the bbox as a polygon when there is none.
func (s Shape) Outline() orb.MultiPolygon {
	if s.Valid() {
		return s.Polygon
	}
	ring := closeRing(orb.Ring{
		s.Bound.Min,
		{s.Bound.Max[0], s.Bound.Min[1]},
		s.Bound.Max,
		{s.Bound.Min[0], s.Bound.Max[1]},
	})
	return orb.MultiPolygon{orb.Polygon{ring}}
}

// Centroid prefers the area centroid of the polygon and falls back to the bbox
// center.
func (s Shape) Centroid() orb.Point {
	if s.Valid() {
		c, area := planar.CentroidArea(s.Polygon)
		if area > 0 {
			return c
		}
	}
	return s.Bound.Center()
}

// Area returns the polygon area, or the bbox area without a polygon.
func (s Shape) Area() float64 {
	if s.Valid() {
		return planar.Area(s.Polygon)
	}
	return (s.Bound.Max[0] - s.Bound.Min[0]) * (s.Bound.Max[1] - s.Bound.Min[1])
}

// Contains reports whether p lies in the shape. Boundary points count.
func (s Shape) Contains(p orb.Point) bool {
	if s.Valid() {
		return planar.MultiPolygonContains(s.Polygon, p)
	}
	return s.Bound.Contains(p)
}

// Intersects uses polygon intersection when both shapes are valid and a bbox
// overlap test otherwise. Touching counts as intersecting.
func (s Shape) Intersects(o Shape) bool {
	if s.Valid() && o.Valid() {
		return multiPolygonsIntersect(s.Polygon, o.Polygon)
	}
	return s.Bound.Intersects(o.Bound)
}

// DistanceTo returns the smallest distance between the outlines of two shapes;
// 0 when they intersect.
func (s Shape) DistanceTo(o Shape) float64 {
	a, b := s.Outline(), o.Outline()
	if multiPolygonsIntersect(a, b) {
		return 0
	}
	best := math.Inf(1)
	for _, pa := range a {
		for _, pb := range b {
			if d := ringDistance(pa[0], pb[0]); d < best {
				best = d
			}
		}
	}
	return best
}

// CrossedBy reports whether the segment a-b touches the shape.
func (s Shape) CrossedBy(a, b orb.Point) bool {
	for _, poly := range s.Outline() {
		if planar.PolygonContains(poly, a) || planar.PolygonContains(poly, b) {
			return true
		}
		for _, ring := range poly {
			for i := 0; i+1 < len(ring); i++ {
				if segmentsIntersect(a, b, ring[i], ring[i+1]) {
					return true
				}
			}
		}
	}
	return false
}

// ToPolygon converts a flat [x1,y1,x2,y2,...] sequence into a valid simple
// polygon. Self-intersecting rings are repaired into their convex hull. The
// bool is false when fewer than three distinct points remain or the ring has
// no area.
func ToPolygon(seq []float64) (orb.Polygon, bool) {
	ring := make(orb.Ring, 0, len(seq)/2)
	for i := 0; i+1 < len(seq); i += 2 {
		p := orb.Point{seq[i], seq[i+1]}
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return nil, false
		}
		if len(ring) > 0 && ring[len(ring)-1].Equal(p) {
			continue
		}
		ring = append(ring, p)
	}
	ring = openRing(ring)
	if len(ring) < 3 {
		return nil, false
	}

	if ringSelfIntersects(ring) {
		ring = orb.Ring(convexHull(ring))
		if len(ring) < 3 {
			return nil, false
		}
	}

	ring = closeRing(ring)
	if math.Abs(signedArea(ring)) < minRingArea {
		return nil, false
	}
	if ring.Orientation() == orb.CW {
		ring.Reverse()
	}
	return orb.Polygon{ring}, true
}

// Flatten converts polygons back to flat coordinate sequences, one per outer
// ring, without the closing point.
func Flatten(mp orb.MultiPolygon) [][]float64 {
	out := make([][]float64, 0, len(mp))
	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}
		ring := openRing(poly[0])
		seq := make([]float64, 0, 2*len(ring))
		for _, p := range ring {
			seq = append(seq, p[0], p[1])
		}
		out = append(out, seq)
	}
	return out
}

func multiPolygonsIntersect(a, b orb.MultiPolygon) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	for _, pa := range a {
		for _, pb := range b {
			if polygonsIntersect(pa, pb) {
				return true
			}
		}
	}
	return false
}

func polygonsIntersect(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 || len(a[0]) == 0 || len(b[0]) == 0 {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	ra, rb := a[0], b[0]
	for i := 0; i+1 < len(ra); i++ {
		for j := 0; j+1 < len(rb); j++ {
			if segmentsIntersect(ra[i], ra[i+1], rb[j], rb[j+1]) {
				return true
			}
		}
	}
	return planar.PolygonContains(a, rb[0]) || planar.PolygonContains(b, ra[0])
}

// ringDistance is the minimum vertex-to-edge distance between two closed rings
// that do not intersect.
func ringDistance(a, b orb.Ring) float64 {
	best := math.Inf(1)
	for _, p := range a {
		for j := 0; j+1 < len(b); j++ {
			if d := planar.DistanceFromSegment(b[j], b[j+1], p); d < best {
				best = d
			}
		}
	}
	for _, p := range b {
		for j := 0; j+1 < len(a); j++ {
			if d := planar.DistanceFromSegment(a[j], a[j+1], p); d < best {
				best = d
			}
		}
	}
	return best
}

// cross returns the z component of (a-o) x (b-o). Positive when b is to the
// left of the directed line o->a.
func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func orient(o, a, b orb.Point) int {
	c := cross(o, a, b)
	scale := math.Max(1, math.Max(math.Abs(a[0]-o[0])+math.Abs(a[1]-o[1]), math.Abs(b[0]-o[0])+math.Abs(b[1]-o[1])))
	switch {
	case c > geomEpsilon*scale:
		return 1
	case c < -geomEpsilon*scale:
		return -1
	}
	return 0
}

func onSegment(a, b, p orb.Point) bool {
	return p[0] >= math.Min(a[0], b[0])-geomEpsilon && p[0] <= math.Max(a[0], b[0])+geomEpsilon &&
		p[1] >= math.Min(a[1], b[1])-geomEpsilon && p[1] <= math.Max(a[1], b[1])+geomEpsilon
}

// segmentsIntersect reports whether segments p1-p2 and p3-p4 share any point.
func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := orient(p3, p4, p1)
	d2 := orient(p3, p4, p2)
	d3 := orient(p1, p2, p3)
	d4 := orient(p1, p2, p4)

	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}
	return false
}

// ringSelfIntersects checks an open ring for crossings between non-adjacent
// edges.
func ringSelfIntersects(ring orb.Ring) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		a1, a2 := ring[i], ring[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(a1, a2, ring[j], ring[(j+1)%n]) {
				return true
			}
		}
	}
	return false
}

// signedArea is positive for counter-clockwise closed rings.
func signedArea(r orb.Ring) float64 {
	area := 0.0
	for i := 0; i+1 < len(r); i++ {
		area += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return area / 2
}

func closeRing(r orb.Ring) orb.Ring {
	if len(r) > 0 && !r[0].Equal(r[len(r)-1]) {
		r = append(r, r[0])
	}
	return r
}

func openRing(r orb.Ring) orb.Ring {
	if len(r) > 1 && r[0].Equal(r[len(r)-1]) {
		return r[:len(r)-1]
	}
	return r
}
