package scene

import (
	"fmt"

	"github.com/ritzau/netscene/pkg/geom"
	"github.com/ritzau/netscene/pkg/material"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Shape is a builtin mesh primitive
type Shape string

const (
	ShapeSphere Shape = "sphere"
	ShapeCube   Shape = "cube"
	ShapeCircle Shape = "circle"
	ShapeSquare Shape = "square"
	ShapeCone   Shape = "cone"
)

// ShapeNone is the sentinel shape for nodes that get no geometry
const ShapeNone = "none"

// ParseShape returns the builtin primitive named s, if any. Cones are
// reserved for arrowheads and not accepted from tables.
func ParseShape(s string) (Shape, bool) {
	switch Shape(s) {
	case ShapeSphere, ShapeCube, ShapeCircle, ShapeSquare:
		return Shape(s), true
	}
	return "", false
}

// ObjectKind distinguishes mesh objects from curve objects
type ObjectKind string

const (
	KindMesh  ObjectKind = "mesh"
	KindCurve ObjectKind = "curve"
)

// Curve is the data block of a curve object
type Curve struct {
	Points          []geom.ControlPoint `json:"points"`
	BevelDepth      float64             `json:"bevelDepth"`
	BevelResolution int                 `json:"bevelResolution"`
	Dimensions      string              `json:"dimensions"`
}

func (c *Curve) clone() *Curve {
	cc := *c
	cc.Points = append([]geom.ControlPoint(nil), c.Points...)
	return &cc
}

// Object is a persistent scene object
type Object struct {
	Name       string      `json:"name"`
	Kind       ObjectKind  `json:"kind"`
	Shape      Shape       `json:"shape,omitempty"`
	Template   string      `json:"template,omitempty"`
	Collection string      `json:"collection,omitempty"`
	Location   r3.Vec      `json:"location"`
	Scale      r3.Vec      `json:"scale"`
	Rotation   quat.Number `json:"rotation"`
	Curve      *Curve      `json:"curve,omitempty"`
	Material   string      `json:"material,omitempty"`
	Animation  Animation   `json:"animation"`
}

func newObject(name string, kind ObjectKind) *Object {
	return &Object{
		Name:      name,
		Kind:      kind,
		Scale:     r3.Vec{X: 1, Y: 1, Z: 1},
		Rotation:  quat.Number{Real: 1},
		Animation: make(Animation),
	}
}

// NewMesh creates a unit-sized primitive mesh object
func NewMesh(name string, shape Shape) *Object {
	obj := newObject(name, KindMesh)
	obj.Shape = shape
	return obj
}

// NewCurve creates an empty curve object with the bevel settings used for edges
func NewCurve(name string) *Object {
	obj := newObject(name, KindCurve)
	obj.Curve = &Curve{BevelResolution: 3, Dimensions: "3D"}
	return obj
}

// Duplicate copies the object and its data block under a new name.
// Animation, collection and material are not carried over.
func (o *Object) Duplicate(name string) *Object {
	dup := newObject(name, o.Kind)
	dup.Shape = o.Shape
	dup.Template = o.Name
	dup.Location = o.Location
	dup.Scale = o.Scale
	dup.Rotation = o.Rotation
	if o.Curve != nil {
		dup.Curve = o.Curve.clone()
	}
	return dup
}

// SetPoints replaces the curve's control points. It reports whether the
// point count changed, which rebuilds the spline topology.
func (o *Object) SetPoints(points []geom.ControlPoint) (bool, error) {
	if o.Curve == nil {
		return false, fmt.Errorf("object %s has no curve data", o.Name)
	}
	rebuilt := len(o.Curve.Points) != 0 && len(o.Curve.Points) != len(points)
	o.Curve.Points = append(o.Curve.Points[:0], points...)
	return rebuilt, nil
}

// Keyframe records every animatable attribute of the object at frame
func (o *Object) Keyframe(frame int) {
	o.Animation.Insert(AttrLocation, frame, geom.VecSlice(o.Location))
	o.Animation.Insert(AttrScale, frame, geom.VecSlice(o.Scale))
	o.Animation.Insert(AttrRotation, frame, geom.QuatSlice(o.Rotation))
	if o.Curve != nil {
		o.Animation.Insert(AttrControlPoints, frame, geom.Flat(o.Curve.Points))
		o.Animation.Insert(AttrBevelDepth, frame, []float64{o.Curve.BevelDepth})
	}
}

func (o *Object) clone() *Object {
	c := *o
	if o.Curve != nil {
		c.Curve = o.Curve.clone()
	}
	c.Animation = o.Animation.clone()
	return &c
}

// Material is a persistent material driven by material.Params
type Material struct {
	Name         string          `json:"name"`
	Label        string          `json:"label,omitempty"`
	Params       material.Params `json:"params"`
	PatternSpace string          `json:"patternSpace"`
	Animation    Animation       `json:"animation"`
}

// NewMaterial creates a solid white material
func NewMaterial(name string) *Material {
	return &Material{
		Name:         name,
		Params:       material.Solid(material.RGB{R: 1, G: 1, B: 1}),
		PatternSpace: material.PatternSpace,
		Animation:    make(Animation),
	}
}

// Keyframe records color and dash parameters at frame
func (m *Material) Keyframe(frame int) {
	dash := 0.0
	if m.Params.Dash {
		dash = 1
	}
	m.Animation.Insert(AttrColor, frame, m.Params.Color.Slice())
	m.Animation.Insert(AttrDashScale, frame, []float64{m.Params.DashScale})
	m.Animation.Insert(AttrDashEnabled, frame, []float64{dash})
}

func (m *Material) clone() *Material {
	c := *m
	c.Animation = m.Animation.clone()
	return &c
}
