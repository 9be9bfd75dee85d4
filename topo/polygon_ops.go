package topo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// bufferSegments is the number of sides of the polygon standing in for the
// disc swept around each vertex when buffering.
const bufferSegments = 16

// minPieceArea drops slivers left behind by nudged split lines.
const minPieceArea = 1e-2

// minPieceWidth drops pieces thinner than this, measured as twice the area
// over the perimeter. It sits above the widest sliver eight nudges can cut.
const minPieceWidth = 2e-3

// shareTolerance is how far apart two edges may lie and still count as
// shared, so pieces on either side of a dropped sliver stay joined.
const shareTolerance = 5e-3

// lineNudge shifts a split line off vertices that sit exactly on it.
const lineNudge = 1e-4

// bufferCutters decomposes the polygons of mp grown by distance d into convex
// counter-clockwise rings: the triangles of each polygon, a band of half
// width d along every edge and a disc around every vertex that is not
// reflex. Their union is the buffered polygon, so subtracting them one by one
// removes exactly the buffered shape.
func bufferCutters(mp orb.MultiPolygon, d float64) []orb.Ring {
	var out []orb.Ring
	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}
		pts := dedupPoints(openRing(poly[0]))
		n := len(pts)
		if n < 3 {
			continue
		}
		if signedArea(closeRing(append(orb.Ring(nil), pts...))) < 0 {
			for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
				pts[i], pts[j] = pts[j], pts[i]
			}
		}
		out = append(out, triangulate(pts)...)
		if d <= 0 {
			continue
		}
		for i := 0; i < n; i++ {
			prev, p, next := pts[(i+n-1)%n], pts[i], pts[(i+1)%n]
			out = append(out, edgeBand(p, next, d))
			if cross(prev, p, next) >= 0 {
				out = append(out, vertexDisc(p, d))
			}
		}
	}
	return out
}

// dedupPoints drops consecutive repeated points, including a last point equal
// to the first.
func dedupPoints(pts []orb.Point) []orb.Point {
	out := make([]orb.Point, 0, len(pts))
	for _, p := range pts {
		if len(out) == 0 || !out[len(out)-1].Equal(p) {
			out = append(out, p)
		}
	}
	for len(out) > 1 && out[0].Equal(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// triangulate splits a simple counter-clockwise ring into triangles by ear
// clipping. Input that has no ear left falls back to the hull of what
// remains.
func triangulate(pts []orb.Point) []orb.Ring {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}

	var out []orb.Ring
	for len(idx) > 3 {
		n := len(idx)
		clipped := false
		for k := 0; k < n && !clipped; k++ {
			a, b, c := pts[idx[(k+n-1)%n]], pts[idx[k]], pts[idx[(k+1)%n]]
			turn := cross(a, b, c)
			switch {
			case math.Abs(turn) < geomEpsilon:
				// collinear or a zero-width spike
			case turn < 0:
				continue
			case earBlocked(pts, idx, k, a, b, c):
				continue
			default:
				out = append(out, orb.Ring{a, b, c, a})
			}
			idx = append(idx[:k], idx[k+1:]...)
			clipped = true
		}
		if !clipped {
			rest := make([]orb.Point, len(idx))
			for i, j := range idx {
				rest[i] = pts[j]
			}
			if hull := convexHull(rest); len(hull) >= 3 {
				out = append(out, closeRing(orb.Ring(hull)))
			}
			return out
		}
	}
	if len(idx) == 3 {
		a, b, c := pts[idx[0]], pts[idx[1]], pts[idx[2]]
		if cross(a, b, c) > geomEpsilon {
			out = append(out, orb.Ring{a, b, c, a})
		}
	}
	return out
}

// earBlocked reports whether another vertex of the ring lies in or on the
// triangle a, b, c cut at position k.
func earBlocked(pts []orb.Point, idx []int, k int, a, b, c orb.Point) bool {
	n := len(idx)
	for m := 0; m < n; m++ {
		if m == k || m == (k+n-1)%n || m == (k+1)%n {
			continue
		}
		p := pts[idx[m]]
		if p.Equal(a) || p.Equal(b) || p.Equal(c) {
			continue
		}
		if cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0 {
			return true
		}
	}
	return false
}

// edgeBand is the rectangle of half width d around the segment p-q.
func edgeBand(p, q orb.Point, d float64) orb.Ring {
	l := math.Hypot(q[0]-p[0], q[1]-p[1])
	nx, ny := -(q[1]-p[1])/l*d, (q[0]-p[0])/l*d
	return orb.Ring{
		{p[0] - nx, p[1] - ny},
		{q[0] - nx, q[1] - ny},
		{q[0] + nx, q[1] + ny},
		{p[0] + nx, p[1] + ny},
		{p[0] - nx, p[1] - ny},
	}
}

// vertexDisc is a regular polygon around c whose sides touch the circle of
// radius d. Its flat sides face the axes, so the buffer of an axis-aligned
// wall stays axis-aligned.
func vertexDisc(c orb.Point, d float64) orb.Ring {
	r := d / math.Cos(math.Pi/bufferSegments)
	ring := make(orb.Ring, 0, bufferSegments+1)
	for k := 0; k < bufferSegments; k++ {
		a := math.Pi * float64(2*k+1) / bufferSegments
		ring = append(ring, orb.Point{c[0] + r*math.Cos(a), c[1] + r*math.Sin(a)})
	}
	return closeRing(ring)
}

// splitRingByLine cuts a simple closed ring with the infinite line through a
// and b. It returns the closed pieces; a ring the line misses comes back as
// the only element.
func splitRingByLine(ring orb.Ring, a, b orb.Point) []orb.Ring {
	pts := openRing(ring)
	n := len(pts)
	if n < 3 {
		return nil
	}
	length := math.Hypot(b[0]-a[0], b[1]-a[1])
	if length == 0 {
		return []orb.Ring{ring}
	}
	dir := orb.Point{(b[0] - a[0]) / length, (b[1] - a[1]) / length}

	// Signed distance to the line, shifted until no vertex lies on it.
	dist := make([]float64, n)
	offset := 0.0
	for attempt := 0; ; attempt++ {
		onLine := false
		for i, p := range pts {
			dist[i] = cross(a, b, p)/length - offset
			if math.Abs(dist[i]) < geomEpsilon {
				onLine = true
			}
		}
		if !onLine {
			break
		}
		if attempt == 8 {
			return []orb.Ring{ring}
		}
		offset += lineNudge
	}

	type vertex struct {
		p     orb.Point
		cross bool
		t     float64
	}
	verts := make([]vertex, 0, n+4)
	var crossings []int
	for i := 0; i < n; i++ {
		p, q := pts[i], pts[(i+1)%n]
		dp, dq := dist[i], dist[(i+1)%n]
		verts = append(verts, vertex{p: p})
		if (dp > 0) != (dq > 0) {
			f := dp / (dp - dq)
			x := orb.Point{p[0] + f*(q[0]-p[0]), p[1] + f*(q[1]-p[1])}
			t := (x[0]-a[0])*dir[0] + (x[1]-a[1])*dir[1]
			crossings = append(crossings, len(verts))
			verts = append(verts, vertex{p: x, cross: true, t: t})
		}
	}
	if len(crossings) < 2 || len(crossings)%2 != 0 {
		return []orb.Ring{ring}
	}

	// Along the line, crossings alternate between entering and leaving the
	// ring, so consecutive pairs bound the chords inside it.
	sort.Slice(crossings, func(i, j int) bool {
		return verts[crossings[i]].t < verts[crossings[j]].t
	})
	partner := make(map[int]int, len(crossings))
	for k := 0; k+1 < len(crossings); k += 2 {
		partner[crossings[k]] = crossings[k+1]
		partner[crossings[k+1]] = crossings[k]
	}

	visited := make([]bool, len(verts))
	var pieces []orb.Ring
	for start := range verts {
		if verts[start].cross || visited[start] {
			continue
		}
		var piece orb.Ring
		i := start
		for steps := 0; steps <= 2*len(verts); steps++ {
			visited[i] = true
			piece = append(piece, verts[i].p)
			if verts[i].cross {
				j := partner[i]
				piece = append(piece, verts[j].p)
				i = (j + 1) % len(verts)
			} else {
				i = (i + 1) % len(verts)
			}
			if i == start {
				break
			}
		}
		if len(piece) >= 3 {
			pieces = append(pieces, closeRing(piece))
		}
	}
	return pieces
}

// sideOfLine returns +1 when the ring lies left of the directed line a->b and
// -1 when it lies right, judged by its farthest vertex.
func sideOfLine(ring orb.Ring, a, b orb.Point) int {
	best := 0.0
	for _, p := range ring {
		if c := cross(a, b, p); math.Abs(c) > math.Abs(best) {
			best = c
		}
	}
	if best > 0 {
		return 1
	}
	return -1
}

// subtractConvex removes a convex counter-clockwise ring from a ring. The
// result is the set of pieces left of no hull edge; pieces that belong to the
// same connected region share an edge and are merged by groupFragments.
func subtractConvex(ring orb.Ring, hull orb.Ring) []orb.Ring {
	h := openRing(hull)
	if len(h) < 3 {
		return []orb.Ring{ring}
	}
	if !ring.Bound().Intersects(hull.Bound()) {
		return []orb.Ring{ring}
	}

	remaining := []orb.Ring{ring}
	var out []orb.Ring
	for i := range h {
		a, b := h[i], h[(i+1)%len(h)]
		var next []orb.Ring
		for _, r := range remaining {
			for _, piece := range splitRingByLine(r, a, b) {
				if sideOfLine(piece, a, b) > 0 {
					next = append(next, piece)
				} else {
					out = append(out, piece)
				}
			}
		}
		remaining = next
		if len(remaining) == 0 {
			break
		}
	}
	return out
}

// differenceConvex subtracts each convex cutter in turn from every polygon of
// mp and returns the surviving pieces.
func differenceConvex(mp orb.MultiPolygon, cutters []orb.Ring) []orb.Ring {
	var pieces []orb.Ring
	for _, poly := range mp {
		if len(poly) > 0 {
			pieces = append(pieces, poly[0])
		}
	}
	for _, c := range cutters {
		var next []orb.Ring
		for _, p := range pieces {
			for _, piece := range subtractConvex(p, c) {
				if keepPiece(piece) {
					next = append(next, piece)
				}
			}
		}
		pieces = next
	}
	return pieces
}

// keepPiece rejects pieces too small or too thin to be more than clipping
// noise.
func keepPiece(r orb.Ring) bool {
	area := math.Abs(signedArea(r))
	if area < minPieceArea {
		return false
	}
	return 2*area/planar.Length(r) >= minPieceWidth
}

// groupFragments merges pieces that share a boundary segment into connected
// fragments.
func groupFragments(pieces []orb.Ring) []orb.MultiPolygon {
	uf := newUnionFind(len(pieces))
	for i := 0; i < len(pieces); i++ {
		for j := i + 1; j < len(pieces); j++ {
			if !pieces[i].Bound().Pad(shareTolerance).Intersects(pieces[j].Bound()) {
				continue
			}
			if ringsShareEdge(pieces[i], pieces[j]) {
				uf.union(i, j)
			}
		}
	}

	groups := make(map[int]int)
	var out []orb.MultiPolygon
	for i, p := range pieces {
		root := uf.find(i)
		idx, ok := groups[root]
		if !ok {
			idx = len(out)
			groups[root] = idx
			out = append(out, nil)
		}
		out[idx] = append(out[idx], orb.Polygon{simplifyRing(p)})
	}
	return out
}

// fragmentsOf wraps each piece as its own fragment.
func fragmentsOf(pieces []orb.Ring) []orb.MultiPolygon {
	out := make([]orb.MultiPolygon, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, orb.MultiPolygon{orb.Polygon{simplifyRing(p)}})
	}
	return out
}

// ringsShareEdge reports whether two rings have collinear edges that overlap
// over a positive length.
func ringsShareEdge(a, b orb.Ring) bool {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsOverlap(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsOverlap(a1, a2, b1, b2 orb.Point) bool {
	length := math.Hypot(a2[0]-a1[0], a2[1]-a1[1])
	if length == 0 {
		return false
	}
	tol := math.Max(1e-6*length, shareTolerance)
	if math.Abs(cross(a1, a2, b1))/length > tol || math.Abs(cross(a1, a2, b2))/length > tol {
		return false
	}
	dx, dy := (a2[0]-a1[0])/length, (a2[1]-a1[1])/length
	t1 := (b1[0]-a1[0])*dx + (b1[1]-a1[1])*dy
	t2 := (b2[0]-a1[0])*dx + (b2[1]-a1[1])*dy
	lo, hi := math.Min(t1, t2), math.Max(t1, t2)
	return math.Min(hi, length)-math.Max(lo, 0) > tol
}

// simplifyRing drops the collinear vertices clipping leaves behind.
func simplifyRing(r orb.Ring) orb.Ring {
	s := simplify.DouglasPeucker(1e-6).Ring(r.Clone())
	if len(s) < 4 {
		return r
	}
	return s
}

// fragmentArea is the total area of a fragment.
func fragmentArea(mp orb.MultiPolygon) float64 {
	return planar.Area(mp)
}

// unionFind implements a disjoint-set data structure with path compression.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

// convexHull computes the convex hull of a set of 2D points using
// Andrew's monotone chain algorithm. Returns points in counter-clockwise order.
func convexHull(points []orb.Point) []orb.Point {
	if len(points) < 3 {
		result := make([]orb.Point, len(points))
		copy(result, points)
		return result
	}

	sorted := make([]orb.Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	n := len(sorted)
	hull := make([]orb.Point, 0, 2*n)

	// Lower hull
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Upper hull
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Remove last point (duplicate of first)
	return hull[:len(hull)-1]
}
