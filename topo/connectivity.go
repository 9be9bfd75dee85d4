package topo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Analyzer derives the edge set of a graph from doors, windows and open
// adjacency between spaces.
type Analyzer struct {
	cats       *categories
	thresholds Thresholds
	log        Logger
}

// NewAnalyzer creates an Analyzer over the given tables.
func NewAnalyzer(cfg *Config, logger Logger) *Analyzer {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Analyzer{cats: newCategories(cfg.Categories), thresholds: cfg.Thresholds, log: logger}
}

type pairKey struct{ a, b string }

func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// edgeSet accumulates edges. A node pair is claimed by the first edge that
// connects it, whatever its connection type.
type edgeSet struct {
	claimed map[pairKey]bool
	edges   []Edge
}

func (e *edgeSet) isClaimed(a, b string) bool {
	return e.claimed[newPairKey(a, b)]
}

func (e *edgeSet) add(source, target string, ct ConnectionType, connectionID *string) bool {
	if source == target || e.isClaimed(source, target) {
		return false
	}
	e.claimed[newPairKey(source, target)] = true
	e.edges = append(e.edges, Edge{
		EdgeID:         fmt.Sprintf("edge_%d", len(e.edges)),
		Source:         source,
		Target:         target,
		ConnectionType: ct,
		ConnectionID:   connectionID,
	})
	return true
}

// candidate is a node pair proposed by one structure, by node index.
type candidate struct{ i, j int }

// Connect runs the door, window and open passes in that order.
func (an *Analyzer) Connect(nodes []Node, structures []Annotation) []Edge {
	sets := an.cats.partition(structures)
	shapes := make([]Shape, len(nodes))
	for i := range nodes {
		shapes[i] = nodes[i].Shape()
	}
	walls := make([]Shape, len(sets.walls))
	for i, w := range sets.walls {
		walls[i] = ShapeOf(w)
	}

	es := &edgeSet{claimed: make(map[pairKey]bool), edges: make([]Edge, 0)}
	for _, d := range sets.doors {
		an.connectStructure(es, nodes, shapes, walls, d, ConnectionDoor)
	}
	for _, w := range sets.windows {
		an.connectStructure(es, nodes, shapes, walls, w, ConnectionWindow)
	}
	an.connectOpen(es, nodes, shapes, walls)
	return es.edges
}

// connectStructure adds the edges one door or window produces. A panic while
// analysing the structure drops only that structure's edges.
func (an *Analyzer) connectStructure(es *edgeSet, nodes []Node, shapes, walls []Shape, s Annotation, ct ConnectionType) {
	var pairs []candidate
	func() {
		defer func() {
			if r := recover(); r != nil {
				an.log.Warn("structure analysis failed", "structure", s.ID, "type", ct, "err", r)
				pairs = nil
			}
		}()
		pairs = an.structurePairs(es, nodes, shapes, walls, s, ct)
	}()

	id := s.ID.String()
	for _, p := range pairs {
		es.add(nodes[p.i].NodeID, nodes[p.j].NodeID, ct, &id)
	}
}

func (an *Analyzer) structurePairs(es *edgeSet, nodes []Node, shapes, walls []Shape, s Annotation, ct ConnectionType) []candidate {
	ss := ShapeOf(s)
	var hits []int
	for i := range shapes {
		if shapes[i].Intersects(ss) {
			hits = append(hits, i)
		}
	}

	switch {
	case len(hits) < 2:
		an.log.Debug("structure touches fewer than two spaces", "structure", s.ID, "type", ct, "spaces", len(hits))
		return nil
	case len(hits) == 2:
		return []candidate{{hits[0], hits[1]}}
	}

	// Three or more spaces: cut the opening along nearby walls and pair the
	// spaces each remaining piece still touches.
	var pairs []candidate
	for _, frag := range an.cutByWalls(ss, walls) {
		fs := shapeFromPolygons(frag)
		var touching []int
		for _, h := range hits {
			if shapes[h].Intersects(fs) {
				touching = append(touching, h)
			}
		}
		if len(touching) != 2 {
			continue
		}
		if an.pairAllowed(es, nodes, shapes, touching[0], touching[1], ct) {
			pairs = append(pairs, candidate{touching[0], touching[1]})
		}
	}
	if len(pairs) > 0 {
		return pairs
	}

	for x := 0; x < len(hits); x++ {
		for y := x + 1; y < len(hits); y++ {
			if an.pairAllowed(es, nodes, shapes, hits[x], hits[y], ct) {
				pairs = append(pairs, candidate{hits[x], hits[y]})
			}
		}
	}
	return pairs
}

// cutByWalls subtracts every buffered wall near the structure from its shape.
func (an *Analyzer) cutByWalls(ss Shape, walls []Shape) []orb.MultiPolygon {
	buffer := an.thresholds.StructureWallBuffer
	near := ss.Outline().Bound().Pad(buffer)

	var cutters []orb.Ring
	for _, w := range walls {
		if !w.Outline().Bound().Intersects(near) {
			continue
		}
		cutters = append(cutters, bufferCutters(w.Outline(), buffer)...)
	}
	return groupFragments(differenceConvex(ss.Outline(), cutters))
}

// pairAllowed applies the checks for pairs found through a structure that
// touches three or more spaces. Doors never join two bedrooms this way.
func (an *Analyzer) pairAllowed(es *edgeSet, nodes []Node, shapes []Shape, i, j int, ct ConnectionType) bool {
	if es.isClaimed(nodes[i].NodeID, nodes[j].NodeID) {
		return false
	}
	if !an.adjacent(shapes[i], shapes[j]) {
		return false
	}
	if ct == ConnectionDoor && an.cats.isBedroom(&nodes[i]) && an.cats.isBedroom(&nodes[j]) {
		return false
	}
	return true
}

func (an *Analyzer) adjacent(a, b Shape) bool {
	d := an.thresholds.AdjacencyDistance
	if !a.Outline().Bound().Pad(d).Intersects(b.Outline().Bound()) {
		return false
	}
	return a.DistanceTo(b) <= d
}

// connectOpen links unclaimed adjacent pairs when no wall crosses the segment
// between their centroids.
func (an *Analyzer) connectOpen(es *edgeSet, nodes []Node, shapes, walls []Shape) {
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if es.isClaimed(nodes[i].NodeID, nodes[j].NodeID) {
				continue
			}
			if !an.adjacent(shapes[i], shapes[j]) {
				continue
			}
			a := orb.Point{nodes[i].Centroid[0], nodes[i].Centroid[1]}
			b := orb.Point{nodes[j].Centroid[0], nodes[j].Centroid[1]}
			if crossesAny(walls, a, b) {
				continue
			}
			es.add(nodes[i].NodeID, nodes[j].NodeID, ConnectionOpen, nil)
		}
	}
}

func crossesAny(walls []Shape, a, b orb.Point) bool {
	for _, w := range walls {
		if w.CrossedBy(a, b) {
			return true
		}
	}
	return false
}
