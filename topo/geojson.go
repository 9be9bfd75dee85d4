package topo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature kinds written to the "kind" property.
const (
	FeatureKindSpace = "space"
	FeatureKindEdge  = "edge"
)

// GraphToFeatureCollection exports a graph as GeoJSON in image pixel
// coordinates. Nodes become Polygon or MultiPolygon features and edges become
// LineStrings between the centroids of their endpoints.
func GraphToFeatureCollection(g *Graph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i := range g.Nodes {
		n := &g.Nodes[i]
		f := geojson.NewFeature(nodeGeometry(n))
		f.ID = n.NodeID
		f.Properties["kind"] = FeatureKindSpace
		f.Properties["node_id"] = n.NodeID
		f.Properties["category_name"] = n.CategoryName
		f.Properties["label"] = n.Label
		f.Properties["space_type"] = string(n.SpaceType)
		f.Properties["is_outside"] = n.IsOutside
		f.Properties["area"] = n.Area
		if n.AreaRatio != nil {
			f.Properties["area_ratio"] = *n.AreaRatio
		}
		f.Properties["window_count"] = len(n.Contains.Structures.Windows)
		f.Properties["door_count"] = len(n.Contains.Structures.Doors)
		fc.Append(f)
	}

	for _, e := range g.Edges {
		src, ok1 := g.NodeByID(e.Source)
		dst, ok2 := g.NodeByID(e.Target)
		if !ok1 || !ok2 {
			continue
		}
		line := orb.LineString{
			{src.Centroid[0], src.Centroid[1]},
			{dst.Centroid[0], dst.Centroid[1]},
		}
		f := geojson.NewFeature(line)
		f.ID = e.EdgeID
		f.Properties["kind"] = FeatureKindEdge
		f.Properties["edge_id"] = e.EdgeID
		f.Properties["source_node"] = e.Source
		f.Properties["target_node"] = e.Target
		f.Properties["connection_type"] = string(e.ConnectionType)
		if e.ConnectionID != nil {
			f.Properties["connection_id"] = *e.ConnectionID
		}
		fc.Append(f)
	}

	return fc
}

func nodeGeometry(n *Node) orb.Geometry {
	outline := n.Shape().Outline()
	if len(outline) == 1 {
		return outline[0]
	}
	return outline
}

// MarshalGeoJSON encodes the GeoJSON export of g.
func MarshalGeoJSON(g *Graph) ([]byte, error) {
	data, err := json.MarshalIndent(GraphToFeatureCollection(g), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding GeoJSON: %w", err)
	}
	return data, nil
}
