package topo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultConfig(), nil)
}

// assertUniquePairs checks that no unordered node pair carries two edges.
func assertUniquePairs(t *testing.T, edges []Edge) {
	t.Helper()
	seen := make(map[pairKey]bool)
	for _, e := range edges {
		k := newPairKey(e.Source, e.Target)
		assert.False(t, seen[k], "duplicate edge for %s-%s", e.Source, e.Target)
		seen[k] = true
	}
}

func edgeBetween(edges []Edge, a, b string) (Edge, bool) {
	for _, e := range edges {
		if newPairKey(e.Source, e.Target) == newPairKey(a, b) {
			return e, true
		}
	}
	return Edge{}, false
}

func TestConnectDoorBetweenTwoSpaces(t *testing.T) {
	// The spaces are 20 apart, farther than the adjacency distance; a door
	// touching exactly two spaces links them anyway.
	nodes := []Node{
		testNode("a", "공간", "거실", 0, 0, 100, 100),
		testNode("b", "공간", "침실", 120, 0, 220, 100),
	}
	structures := []Annotation{structAnn("d1", "출입문", 90, 40, 130, 60)}

	edges := newTestAnalyzer().Connect(nodes, structures)
	require.Len(t, edges, 1)

	e := edges[0]
	assert.Equal(t, "edge_0", e.EdgeID)
	assert.Equal(t, "a", e.Source)
	assert.Equal(t, "b", e.Target)
	assert.Equal(t, ConnectionDoor, e.ConnectionType)
	require.NotNil(t, e.ConnectionID)
	assert.Equal(t, "d1", *e.ConnectionID)
}

func TestConnectDoorClaimsBeforeWindow(t *testing.T) {
	nodes := []Node{
		testNode("a", "공간", "거실", 0, 0, 100, 100),
		testNode("b", "공간", "주방", 100, 0, 200, 100),
	}
	structures := []Annotation{
		structAnn("w1", "창호", 95, 10, 105, 30),
		structAnn("d1", "door", 95, 50, 105, 70),
	}

	edges := newTestAnalyzer().Connect(nodes, structures)
	require.Len(t, edges, 1)
	assert.Equal(t, ConnectionDoor, edges[0].ConnectionType)
	assert.Equal(t, "d1", *edges[0].ConnectionID)
}

func TestConnectWindowEdge(t *testing.T) {
	nodes := []Node{
		testNode("a", "공간", "거실", 0, 0, 100, 100),
		testNode("b", "공간", "발코니", 0, 100, 100, 150),
	}
	structures := []Annotation{
		structAnn("w1", "창호", 20, 95, 80, 105),
		structAnn("wall", "벽체", 0, 98, 100, 102),
	}

	edges := newTestAnalyzer().Connect(nodes, structures)
	require.Len(t, edges, 1)
	assert.Equal(t, ConnectionWindow, edges[0].ConnectionType)
	assert.Equal(t, "w1", *edges[0].ConnectionID)
}

func TestConnectStructureTouchingOneSpace(t *testing.T) {
	nodes := []Node{
		testNode("a", "공간", "거실", 0, 0, 100, 100),
		testNode("b", "공간", "침실", 200, 0, 300, 100),
	}
	structures := []Annotation{structAnn("d1", "출입문", 40, 95, 60, 110)}

	assert.Empty(t, newTestAnalyzer().Connect(nodes, structures))
}

// threeSpaces lays out a, b side by side with c spanning both above, and a
// wall separating the row from c.
func threeSpaces(labelA, labelB string) ([]Node, Annotation) {
	nodes := []Node{
		testNode("a", "공간", labelA, 0, 0, 100, 100),
		testNode("b", "공간", labelB, 100, 0, 200, 100),
		testNode("c", "공간", "거실", 0, 100, 200, 200),
	}
	return nodes, structAnn("wall", "벽체", 0, 98, 200, 102)
}

func TestConnectDoorAcrossThreeSpacesUsesFragments(t *testing.T) {
	nodes, wall := threeSpaces("주방", "식당")
	door := structAnn("d1", "출입문", 90, 90, 130, 120)

	edges := newTestAnalyzer().Connect(nodes, []Annotation{door, wall})
	assertUniquePairs(t, edges)

	// The part of the door below the wall touches a and b only.
	require.Len(t, edges, 1)
	e, ok := edgeBetween(edges, "a", "b")
	require.True(t, ok)
	assert.Equal(t, ConnectionDoor, e.ConnectionType)
}

func TestConnectDoorCutByWallNetwork(t *testing.T) {
	nodes, _ := threeSpaces("주방", "식당")
	// One polygon for the wall under c and the outer wall down the right
	// side of b. The door below the wall still touches a and b.
	network := Annotation{
		ID:           "net",
		CategoryName: "벽체",
		BBox:         BBox{0, 0, 200, 102},
		Segmentation: [][]float64{{0, 98, 196, 98, 196, 0, 200, 0, 200, 102, 0, 102}},
	}
	door := structAnn("d1", "출입문", 90, 90, 130, 120)

	edges := newTestAnalyzer().Connect(nodes, []Annotation{door, network})
	assertUniquePairs(t, edges)

	require.Len(t, edges, 1)
	e, ok := edgeBetween(edges, "a", "b")
	require.True(t, ok)
	assert.Equal(t, ConnectionDoor, e.ConnectionType)
}

func TestConnectExcludesBedroomPairsFromMultiSpaceDoors(t *testing.T) {
	nodes, wall := threeSpaces("침실", "침실2")
	door := structAnn("d1", "출입문", 90, 90, 130, 120)

	edges := newTestAnalyzer().Connect(nodes, []Annotation{door, wall})
	assertUniquePairs(t, edges)

	for _, e := range edges {
		if e.ConnectionType == ConnectionDoor {
			bothBedrooms := (e.Source == "a" || e.Source == "b") && (e.Target == "a" || e.Target == "b")
			assert.False(t, bothBedrooms, "door edge %s joins two bedrooms", e.EdgeID)
		}
	}

	ac, ok := edgeBetween(edges, "a", "c")
	require.True(t, ok, "fallback pairs every adjacent combination")
	assert.Equal(t, ConnectionDoor, ac.ConnectionType)
	bc, ok := edgeBetween(edges, "b", "c")
	require.True(t, ok)
	assert.Equal(t, ConnectionDoor, bc.ConnectionType)

	ab, ok := edgeBetween(edges, "a", "b")
	require.True(t, ok, "the bedrooms are still openly adjacent")
	assert.Equal(t, ConnectionOpen, ab.ConnectionType)
	assert.Nil(t, ab.ConnectionID)
}

func TestConnectMultiSpaceFallbackChecksAdjacency(t *testing.T) {
	// Three rooms in a row, walls between them, and a long door over all
	// three. No piece touches two rooms, so pairs come from the fallback,
	// which skips the non-adjacent a-c pair.
	nodes := []Node{
		testNode("a", "공간", "주방", 0, 0, 100, 100),
		testNode("b", "공간", "거실", 100, 0, 200, 100),
		testNode("c", "공간", "현관", 200, 0, 300, 100),
	}
	structures := []Annotation{
		structAnn("d1", "출입문", 90, 40, 210, 60),
		structAnn("w1", "벽체", 98, 0, 102, 100),
		structAnn("w2", "벽체", 198, 0, 202, 100),
	}

	edges := newTestAnalyzer().Connect(nodes, structures)
	assertUniquePairs(t, edges)
	require.Len(t, edges, 2)

	_, ok := edgeBetween(edges, "a", "b")
	assert.True(t, ok)
	_, ok = edgeBetween(edges, "b", "c")
	assert.True(t, ok)
	_, ok = edgeBetween(edges, "a", "c")
	assert.False(t, ok)
}

func TestConnectOpen(t *testing.T) {
	tests := []struct {
		name  string
		gap   float64
		walls []Annotation
		want  int
	}{
		{"touching", 0, nil, 1},
		{"within adjacency distance", 4, nil, 1},
		{"too far apart", 6, nil, 0},
		{"wall across the centroid segment", 0, []Annotation{structAnn("w", "벽체", 98, 0, 102, 100)}, 0},
		{"wall beside the segment", 0, []Annotation{structAnn("w", "벽체", 98, 0, 102, 20)}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			nodes := []Node{
				testNode("a", "공간", "거실", 0, 0, 100, 100),
				testNode("b", "공간", "주방", 100+tc.gap, 0, 200+tc.gap, 100),
			}
			edges := newTestAnalyzer().Connect(nodes, tc.walls)
			require.Len(t, edges, tc.want)
			if tc.want == 1 {
				assert.Equal(t, ConnectionOpen, edges[0].ConnectionType)
				assert.Nil(t, edges[0].ConnectionID)
			}
		})
	}
}

func TestEdgeSetClaimsUnorderedPairs(t *testing.T) {
	es := &edgeSet{claimed: make(map[pairKey]bool)}

	assert.True(t, es.add("a", "b", ConnectionDoor, nil))
	assert.False(t, es.add("b", "a", ConnectionWindow, nil))
	assert.False(t, es.add("a", "a", ConnectionOpen, nil))
	assert.True(t, es.add("b", "c", ConnectionOpen, nil))

	require.Len(t, es.edges, 2)
	assert.Equal(t, "edge_1", es.edges[1].EdgeID)
}
