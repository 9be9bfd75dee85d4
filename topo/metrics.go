package topo

// Orientation is the façade a window faces. Image y grows downward, so a
// window below the room centroid faces south.
type Orientation string

const (
	OrientationNone  Orientation = ""
	OrientationNorth Orientation = "N"
	OrientationSouth Orientation = "S"
	OrientationEast  Orientation = "E"
	OrientationWest  Orientation = "W"
)

// northSouth reports whether o lies on the north/south axis.
func (o Orientation) northSouth() bool {
	return o == OrientationNorth || o == OrientationSouth
}

// eastWest reports whether o lies on the east/west axis.
func (o Orientation) eastWest() bool {
	return o == OrientationEast || o == OrientationWest
}

func (o Orientation) opposite() Orientation {
	switch o {
	case OrientationNorth:
		return OrientationSouth
	case OrientationSouth:
		return OrientationNorth
	case OrientationEast:
		return OrientationWest
	case OrientationWest:
		return OrientationEast
	}
	return OrientationNone
}

// StructureType classifies the unit layout by ventilation.
type StructureType string

const (
	StructureSlab  StructureType = "판상형"
	StructureTower StructureType = "타워형"
	StructureMixed StructureType = "혼합형"
)

// windowOrientation compares a window's center to the room centroid. Wide
// windows face north or south, tall ones east or west. A window centered on
// the centroid along its axis has no orientation.
func windowOrientation(w StructureRef, centroid [2]float64) Orientation {
	c := w.BBox.Center()
	dx, dy := c[0]-centroid[0], c[1]-centroid[1]
	if w.BBox.Width() >= w.BBox.Height() {
		switch {
		case dy > 0:
			return OrientationSouth
		case dy < 0:
			return OrientationNorth
		}
		return OrientationNone
	}
	switch {
	case dx > 0:
		return OrientationEast
	case dx < 0:
		return OrientationWest
	}
	return OrientationNone
}

// referenceOrientation is the orientation of the node's widest window.
func referenceOrientation(n *Node) Orientation {
	windows := n.Contains.Structures.Windows
	if len(windows) == 0 {
		return OrientationNone
	}
	widest := windows[0]
	for _, w := range windows[1:] {
		if w.BBox.Width() > widest.BBox.Width() {
			widest = w
		}
	}
	return windowOrientation(widest, n.Centroid)
}

// Metrics computes area ratios and whole-plan statistics.
type Metrics struct {
	cats *categories
}

// NewMetrics creates a Metrics engine over the given tables.
func NewMetrics(cfg *Config) *Metrics {
	return &Metrics{cats: newCategories(cfg.Categories)}
}

// Compute sets AreaRatio on every node and returns the plan statistics.
func (m *Metrics) Compute(info ImageInfo, nodes []Node) Statistics {
	st := Statistics{
		TotalImageArea: float64(info.Width) * float64(info.Height),
		SpaceCount:     len(nodes),
		SpaceTypeCount: make(map[string]int),
	}

	balconyArea := 0.0
	for i := range nodes {
		n := &nodes[i]
		st.TotalSpaceArea += n.Area
		st.SpaceTypeCount[string(n.SpaceType)]++
		if !n.IsOutside {
			st.TotalInsideArea += n.Area
			st.InsideSpaceCount++
		}
		if m.cats.isBedroom(n) {
			st.RoomCount++
		}
		if m.cats.isBathroom(n) {
			st.BathroomCount++
		}
		if m.cats.isBalcony(n) {
			st.BalconyCount++
			balconyArea += n.Area
		}
	}

	m.setAreaRatios(nodes, st.TotalInsideArea)
	if st.TotalInsideArea > 0 {
		st.BalconyRatio = balconyArea / st.TotalInsideArea * 100
	}
	st.WindowlessRatio = windowlessRatio(nodes)
	st.BayCount = m.BayCount(nodes)
	st.StructureType = m.StructureType(nodes)
	return st
}

func (m *Metrics) setAreaRatios(nodes []Node, insideArea float64) {
	for i := range nodes {
		if nodes[i].IsOutside {
			nodes[i].AreaRatio = nil
			continue
		}
		ratio := 0.0
		if insideArea > 0 {
			ratio = nodes[i].Area / insideArea
		}
		nodes[i].AreaRatio = &ratio
	}
}

// windowlessRatio is the percentage of inside nodes without a window,
// ignoring nodes classified as Other.
func windowlessRatio(nodes []Node) float64 {
	total, windowless := 0, 0
	for i := range nodes {
		n := &nodes[i]
		if n.IsOutside || n.SpaceType == SpaceOther {
			continue
		}
		total++
		if len(n.Contains.Structures.Windows) == 0 {
			windowless++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(windowless) / float64(total) * 100
}

func (m *Metrics) livingRooms(nodes []Node) []*Node {
	var out []*Node
	for i := range nodes {
		if m.cats.isLiving(&nodes[i]) {
			out = append(out, &nodes[i])
		}
	}
	return out
}

// BayCount counts the room fronts that share the living room's façade. With
// zero or several living rooms the living room count is returned as is.
func (m *Metrics) BayCount(nodes []Node) int {
	livings := m.livingRooms(nodes)
	if len(livings) != 1 {
		return len(livings)
	}
	ref := referenceOrientation(livings[0])
	if ref == OrientationNone {
		return 1
	}
	bays := 1
	for i := range nodes {
		if m.cats.isBedroom(&nodes[i]) && referenceOrientation(&nodes[i]) == ref {
			bays++
		}
	}
	return bays
}

// StructureType compares the living room and kitchen orientations.
func (m *Metrics) StructureType(nodes []Node) StructureType {
	livings := m.livingRooms(nodes)
	if len(livings) == 0 {
		return StructureMixed
	}
	living := livings[0]

	var ns, ew bool
	for _, w := range living.Contains.Structures.Windows {
		o := windowOrientation(w, living.Centroid)
		ns = ns || o.northSouth()
		ew = ew || o.eastWest()
	}
	if ns && ew {
		return StructureTower
	}

	ref := referenceOrientation(living)
	if ref == OrientationNone {
		return StructureMixed
	}
	kitchen := m.kitchen(nodes)
	if kitchen == nil {
		return StructureMixed
	}
	kref := referenceOrientation(kitchen)
	switch {
	case kref == OrientationNone:
		return StructureTower
	case kref == ref.opposite():
		return StructureSlab
	case kref == ref:
		return StructureTower
	}
	// perpendicular
	return StructureMixed
}

// kitchen prefers a combined kitchen and dining node over a plain kitchen.
func (m *Metrics) kitchen(nodes []Node) *Node {
	for i := range nodes {
		if m.cats.isKitchenDining(&nodes[i]) {
			return &nodes[i]
		}
	}
	for i := range nodes {
		if m.cats.isKitchen(&nodes[i]) {
			return &nodes[i]
		}
	}
	return nil
}
