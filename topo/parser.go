package topo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Input validation errors.
var (
	ErrNilInput         = errors.New("plan input is nil")
	ErrInvalidImageInfo = errors.New("image dimensions must be positive")
	ErrInvalidBBox      = errors.New("bbox width and height must be non-negative")
	ErrDuplicateSpaceID = errors.New("duplicate space id")
)

// ParsePlanFile reads and parses a plan annotation JSON file
func ParsePlanFile(path string) (*PlanInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParsePlanJSON(data)
}

// ParsePlanJSON parses plan annotation JSON data
func ParsePlanJSON(data []byte) (*PlanInput, error) {
	var in PlanInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return &in, nil
}

// ValidateInput checks the parts of a plan the builder relies on. Broken
// segmentations are not errors; they degrade to bbox geometry.
func ValidateInput(in *PlanInput) error {
	if in == nil {
		return ErrNilInput
	}
	if in.ImageInfo.Width <= 0 || in.ImageInfo.Height <= 0 {
		return fmt.Errorf("%dx%d: %w", in.ImageInfo.Width, in.ImageInfo.Height, ErrInvalidImageInfo)
	}
	sets := []struct {
		name string
		anns []Annotation
	}{
		{"objects", in.Objects},
		{"ocr", in.OCR},
		{"structures", in.Structures},
		{"spaces", in.Spaces},
	}
	for _, set := range sets {
		for i, a := range set.anns {
			if a.BBox.Width() < 0 || a.BBox.Height() < 0 {
				return fmt.Errorf("%s[%d] (id %s): %w", set.name, i, a.ID, ErrInvalidBBox)
			}
		}
	}
	seen := make(map[ID]bool, len(in.Spaces))
	for _, s := range in.Spaces {
		if seen[s.ID] {
			return fmt.Errorf("space %s: %w", s.ID, ErrDuplicateSpaceID)
		}
		seen[s.ID] = true
	}
	return nil
}

// WriteGraph encodes g as indented JSON.
func WriteGraph(w io.Writer, g *Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	return nil
}

// SaveGraph writes g as JSON to path.
func SaveGraph(path string, g *Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := WriteGraph(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ParseGraphJSON decodes a graph previously written by WriteGraph.
func ParseGraphJSON(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing graph JSON: %w", err)
	}
	return &g, nil
}
