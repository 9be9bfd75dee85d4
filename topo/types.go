package topo

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
)

// ID is an annotation identifier. Upstream detectors emit either JSON numbers
// or strings; both decode into the same string form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("annotation id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// BBox is an axis-aligned box in image pixels: [x, y, width, height].
type BBox [4]float64

// Bound converts the box to an orb.Bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b[0], b[1]},
		Max: orb.Point{b[0] + b[2], b[1] + b[3]},
	}
}

// Center returns the box center.
func (b BBox) Center() orb.Point {
	return orb.Point{b[0] + b[2]/2, b[1] + b[3]/2}
}

// Width returns the box width.
func (b BBox) Width() float64 { return b[2] }

// Height returns the box height.
func (b BBox) Height() float64 { return b[3] }

// BBoxFromBound converts an orb.Bound back to [x, y, w, h].
func BBoxFromBound(b orb.Bound) BBox {
	return BBox{b.Min[0], b.Min[1], b.Max[0] - b.Min[0], b.Max[1] - b.Min[1]}
}

// Annotation is one detection produced by an upstream model. Objects, OCR text
// regions, structures and spaces all share this shape.
type Annotation struct {
	ID           ID                     `json:"id"`
	CategoryID   int                    `json:"category_id"`
	CategoryName string                 `json:"category_name"`
	BBox         BBox                   `json:"bbox"`
	Segmentation [][]float64            `json:"segmentation"`
	Area         float64                `json:"area"`
	Confidence   float64                `json:"confidence"`
	Attributes   map[string]interface{} `json:"attributes,omitempty"`
}

// Text returns the recognized text of an OCR annotation.
func (a Annotation) Text() string {
	return a.stringAttribute("text")
}

// SubType returns the structure sub-type attribute (e.g. "swing", "sliding").
func (a Annotation) SubType() string {
	return a.stringAttribute("type")
}

func (a Annotation) stringAttribute(key string) string {
	if a.Attributes == nil {
		return ""
	}
	switch v := a.Attributes[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// ImageInfo describes the source floor-plan image.
type ImageInfo struct {
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// PlanInput is the full annotation set for one floor-plan image.
type PlanInput struct {
	ImageInfo  ImageInfo    `json:"image_info"`
	Objects    []Annotation `json:"objects"`
	OCR        []Annotation `json:"ocr"`
	Structures []Annotation `json:"structures"`
	Spaces     []Annotation `json:"spaces"`
}

// SpaceType is the coarse functional class of a space.
type SpaceType string

const (
	SpaceOther        SpaceType = "Other"
	SpaceSpecialized  SpaceType = "Specialized"
	SpaceWet          SpaceType = "Wet"
	SpaceCommon       SpaceType = "Common"
	SpacePrivate      SpaceType = "Private"
	SpaceOutside      SpaceType = "Outside"
	SpaceUnclassified SpaceType = "Unclassified"
)

// ConnectionType is the kind of passage an edge represents.
type ConnectionType string

const (
	ConnectionDoor   ConnectionType = "door"
	ConnectionWindow ConnectionType = "window"
	ConnectionOpen   ConnectionType = "open"
)

// NodeTypeSpace is the only node type emitted today.
const NodeTypeSpace = "space"

// ObjectRef is a fixture contained in a space.
type ObjectRef struct {
	ID           string `json:"id"`
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
	BBox         BBox   `json:"bbox"`
}

// TextRef is an OCR label contained in a space.
type TextRef struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	BBox BBox   `json:"bbox"`
}

// StructureRef is a door or window contained in a space.
type StructureRef struct {
	ID           string `json:"id"`
	CategoryName string `json:"category_name"`
	Type         string `json:"type"`
	BBox         BBox   `json:"bbox"`
}

// StructureRefs buckets contained structures by kind.
type StructureRefs struct {
	Doors   []StructureRef `json:"doors"`
	Windows []StructureRef `json:"windows"`
}

// Contents records everything geometrically contained in a space.
type Contents struct {
	Objects    []ObjectRef   `json:"objects"`
	OCRLabels  []TextRef     `json:"ocr_labels"`
	Structures StructureRefs `json:"structures"`
}

func newContents() Contents {
	return Contents{
		Objects:   make([]ObjectRef, 0),
		OCRLabels: make([]TextRef, 0),
		Structures: StructureRefs{
			Doors:   make([]StructureRef, 0),
			Windows: make([]StructureRef, 0),
		},
	}
}

// Node is one space in the topology graph.
type Node struct {
	NodeID       string      `json:"node_id"`
	NodeType     string      `json:"node_type"`
	CategoryID   int         `json:"category_id"`
	CategoryName string      `json:"category_name"`
	Label        string      `json:"label"`
	SpaceType    SpaceType   `json:"space_type"`
	IsOutside    bool        `json:"is_outside"`
	BBox         BBox        `json:"bbox"`
	Segmentation [][]float64 `json:"segmentation"`
	Area         float64     `json:"area"`
	AreaRatio    *float64    `json:"area_ratio"`
	Centroid     [2]float64  `json:"centroid"`
	Contains     Contents    `json:"contains"`

	shape Shape
}

// Shape returns the node geometry. Nodes decoded from JSON rebuild it from
// their segmentation and bbox.
func (n Node) Shape() Shape {
	if n.shape.Polygon == nil && n.shape.Bound == (orb.Bound{}) {
		return NewShape(n.Segmentation, n.BBox)
	}
	return n.shape
}

// Edge connects two nodes.
type Edge struct {
	EdgeID         string         `json:"edge_id"`
	Source         string         `json:"source_node"`
	Target         string         `json:"target_node"`
	ConnectionType ConnectionType `json:"connection_type"`
	ConnectionID   *string        `json:"connection_id"`
}

// Statistics holds whole-plan metrics.
type Statistics struct {
	TotalImageArea   float64        `json:"total_image_area"`
	TotalSpaceArea   float64        `json:"total_space_area"`
	TotalInsideArea  float64        `json:"total_inside_area"`
	SpaceCount       int            `json:"space_count"`
	InsideSpaceCount int            `json:"inside_space_count"`
	RoomCount        int            `json:"room_count"`
	BathroomCount    int            `json:"bathroom_count"`
	BalconyCount     int            `json:"balcony_count"`
	BayCount         int            `json:"bay_count"`
	SpaceTypeCount   map[string]int `json:"space_type_count"`
	StructureType    StructureType  `json:"structure_type"`
	BalconyRatio     float64        `json:"balcony_ratio"`
	WindowlessRatio  float64        `json:"windowless_ratio"`
}

// Graph is the topology graph for one image.
type Graph struct {
	ImageInfo  ImageInfo  `json:"image_info"`
	Nodes      []Node     `json:"nodes"`
	Edges      []Edge     `json:"edges"`
	Statistics Statistics `json:"statistics"`
}

// NodeByID returns the node with the given id.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].NodeID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Neighbors returns the ids of nodes sharing an edge with id, in edge order.
func (g *Graph) Neighbors(id string) []string {
	var out []string
	for _, e := range g.Edges {
		switch id {
		case e.Source:
			out = append(out, e.Target)
		case e.Target:
			out = append(out, e.Source)
		}
	}
	return out
}
