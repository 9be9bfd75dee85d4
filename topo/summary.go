package topo

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// GraphSummary holds key information about a graph for reports.
type GraphSummary struct {
	FileName      string
	NodeCount     int
	EdgeCount     int
	EdgesByType   map[ConnectionType]int
	Labels        []string
	RoomCount     int
	BathroomCount int
	BayCount      int
	StructureType StructureType
}

// Summarize extracts key information from a graph
func Summarize(g *Graph) GraphSummary {
	s := GraphSummary{
		FileName:      g.ImageInfo.FileName,
		NodeCount:     len(g.Nodes),
		EdgeCount:     len(g.Edges),
		EdgesByType:   make(map[ConnectionType]int),
		RoomCount:     g.Statistics.RoomCount,
		BathroomCount: g.Statistics.BathroomCount,
		BayCount:      g.Statistics.BayCount,
		StructureType: g.Statistics.StructureType,
	}
	for _, e := range g.Edges {
		s.EdgesByType[e.ConnectionType]++
	}
	for i := range g.Nodes {
		s.Labels = append(s.Labels, g.Nodes[i].Label)
	}
	return s
}

// WriteSummary prints a plain-text report of g.
func WriteSummary(w io.Writer, g *Graph) error {
	s := Summarize(g)
	st := g.Statistics

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", s.FileName)
	fmt.Fprintf(&b, "Image: %dx%d\n", g.ImageInfo.Width, g.ImageInfo.Height)
	fmt.Fprintf(&b, "Spaces: %d (%d inside)\n", st.SpaceCount, st.InsideSpaceCount)

	for i := range g.Nodes {
		n := &g.Nodes[i]
		ratio := "-"
		if n.AreaRatio != nil {
			ratio = fmt.Sprintf("%.1f%%", *n.AreaRatio*100)
		}
		fmt.Fprintf(&b, "  %-10s %-12s %-12s area=%.0f ratio=%s\n", n.NodeID, n.Label, n.SpaceType, n.Area, ratio)
	}

	types := make([]string, 0, len(s.EdgesByType))
	for ct := range s.EdgesByType {
		types = append(types, string(ct))
	}
	sort.Strings(types)
	parts := make([]string, 0, len(types))
	for _, ct := range types {
		parts = append(parts, fmt.Sprintf("%s=%d", ct, s.EdgesByType[ConnectionType(ct)]))
	}
	fmt.Fprintf(&b, "Edges: %d", s.EdgeCount)
	if len(parts) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, ", "))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Rooms: %d, Bathrooms: %d, Balconies: %d, Bays: %d\n",
		st.RoomCount, st.BathroomCount, st.BalconyCount, st.BayCount)
	fmt.Fprintf(&b, "Structure: %s\n", st.StructureType)
	fmt.Fprintf(&b, "Balcony ratio: %.1f%%, Windowless ratio: %.1f%%\n", st.BalconyRatio, st.WindowlessRatio)

	_, err := io.WriteString(w, b.String())
	return err
}
