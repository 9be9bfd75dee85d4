package topo

import "strings"

// keywordSet matches category names by case-insensitive substring.
type keywordSet []string

func newKeywordSet(words []string) keywordSet {
	out := make(keywordSet, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func (k keywordSet) match(name string) bool {
	name = strings.ToLower(name)
	if name == "" {
		return false
	}
	for _, w := range k {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

// categories identifies node and structure kinds from category names. Node
// kinds also accept the resolved label so plans with generic space
// categories still classify.
type categories struct {
	living, bedroom, kitchenDining, kitchen, bathroom, balcony keywordSet
	door, window, wall                                         keywordSet
}

func newCategories(c CategoryKeywords) *categories {
	return &categories{
		living:        newKeywordSet(c.Living),
		bedroom:       newKeywordSet(c.Bedroom),
		kitchenDining: newKeywordSet(c.KitchenDining),
		kitchen:       newKeywordSet(c.Kitchen),
		bathroom:      newKeywordSet(c.Bathroom),
		balcony:       newKeywordSet(c.Balcony),
		door:          newKeywordSet(c.Door),
		window:        newKeywordSet(c.Window),
		wall:          newKeywordSet(c.Wall),
	}
}

func (c *categories) nodeIs(k keywordSet, n *Node) bool {
	return k.match(n.CategoryName) || k.match(n.Label)
}

func (c *categories) isLiving(n *Node) bool        { return c.nodeIs(c.living, n) }
func (c *categories) isBedroom(n *Node) bool       { return c.nodeIs(c.bedroom, n) }
func (c *categories) isKitchenDining(n *Node) bool { return c.nodeIs(c.kitchenDining, n) }
func (c *categories) isKitchen(n *Node) bool       { return c.nodeIs(c.kitchen, n) }
func (c *categories) isBathroom(n *Node) bool      { return c.nodeIs(c.bathroom, n) }
func (c *categories) isBalcony(n *Node) bool       { return c.nodeIs(c.balcony, n) }

// structureKind buckets a structure annotation. Door keywords are checked
// before window keywords.
type structureKind int

const (
	structureOther structureKind = iota
	structureDoor
	structureWindow
	structureWall
)

func (c *categories) structureKind(a Annotation) structureKind {
	switch {
	case c.door.match(a.CategoryName):
		return structureDoor
	case c.window.match(a.CategoryName):
		return structureWindow
	case c.wall.match(a.CategoryName):
		return structureWall
	}
	return structureOther
}

// structureSets splits structures into doors, windows and walls.
type structureSets struct {
	doors, windows, walls []Annotation
}

func (c *categories) partition(structures []Annotation) structureSets {
	var s structureSets
	for _, a := range structures {
		switch c.structureKind(a) {
		case structureDoor:
			s.doors = append(s.doors, a)
		case structureWindow:
			s.windows = append(s.windows, a)
		case structureWall:
			s.walls = append(s.walls, a)
		}
	}
	return s
}
