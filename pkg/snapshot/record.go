// Package snapshot reads one time sample of a graph: a node table and an
// edge table.
package snapshot

import (
	"github.com/ritzau/netscene/pkg/geom"
	"github.com/ritzau/netscene/pkg/material"
	"gonum.org/v1/gonum/spatial/r3"
)

// NodeRecord is one row of a node table
type NodeRecord struct {
	Name       string
	Position   r3.Vec
	ColourName string
	Color      material.RGB
	Shape      string
	Size       float64
}

// EdgeRecord is one row of an edge table
type EdgeRecord struct {
	Name       string
	FromName   string
	ToName     string
	From       r3.Vec
	To         r3.Vec
	Thickness  float64
	ColourName string
	Color      material.RGB
	Curvature  float64
	ForceCurve bool
	// FromShorten and ToShorten trim the path at each end
	FromShorten float64
	ToShorten   float64
	ArrowLength float64
	ArrowSize   float64
	Is3D        bool
	DashScale   float64
	ForceDash   bool
}

// Shape returns the geometric shaping parameters of the edge
func (e EdgeRecord) Shape() geom.Shape {
	return geom.Shape{
		Curvature:   e.Curvature,
		ForceCurve:  e.ForceCurve,
		FromShorten: e.FromShorten,
		ToShorten:   e.ToShorten,
		ArrowLength: e.ArrowLength,
		ArrowSize:   e.ArrowSize,
		Is3D:        e.Is3D,
	}
}

// HasArrowhead reports whether the edge draws an arrowhead
func (e EdgeRecord) HasArrowhead() bool {
	return e.ArrowLength > 0
}

// Material returns the material parameters of the edge
func (e EdgeRecord) Material() material.Params {
	return material.Derive(e.Color, e.DashScale, e.ForceDash)
}

// Snapshot is the graph state at one point in time
type Snapshot struct {
	NodesPath string
	EdgesPath string
	// Prefix names the collections this snapshot's objects are linked into
	Prefix string
	Nodes  []NodeRecord
	Edges  []EdgeRecord
}

// NodeCollection names the collection receiving new node objects
func (s *Snapshot) NodeCollection() string {
	return s.Prefix + "nodes"
}

// EdgeCollection names the collection receiving new edge objects
func (s *Snapshot) EdgeCollection() string {
	return s.Prefix + "edges"
}
