// Package material derives the appearance parameters each scene object's
// material is driven by: a solid color, or a two-tone dash pattern.
package material

import "math"

// Suffix is appended to an object key to name its material
const Suffix = "_mat"

// PatternSpace is the coordinate frame dash patterns are evaluated in
const PatternSpace = "object"

// RGB is a color with components in the 0-1 range
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Slice returns the color as a keyframe value
func (c RGB) Slice() []float64 {
	return []float64{c.R, c.G, c.B}
}

// Params describes the desired appearance of one material
type Params struct {
	Color     RGB     `json:"color"`
	DashScale float64 `json:"dashScale"`
	Dash      bool    `json:"dash"`
}

// Name returns the material name owned by the object with the given key
func Name(key string) string {
	return key + Suffix
}

// Derive builds material parameters from table values.
// A material is dashed when dashScale is positive or forceDash is set.
func Derive(color RGB, dashScale float64, forceDash bool) Params {
	return Params{
		Color:     color,
		DashScale: dashScale,
		Dash:      dashScale > 0 || forceDash,
	}
}

// Solid builds parameters for a plain colored material
func Solid(color RGB) Params {
	return Params{Color: color}
}

// Pattern returns the dash pattern for these parameters
func (p Params) Pattern() Pattern {
	if !p.Dash {
		return Pattern{}
	}
	scale := p.DashScale
	if scale <= 0 {
		// forced dash without a scale still alternates once along the object
		scale = 1
	}
	return Pattern{Scale: scale}
}

// Pattern is a periodic two-tone pattern along an object's local
// parametrization u in [0, 1]
type Pattern struct {
	Scale float64 `json:"scale"`
}

// Tone returns 0 for the primary tone and 1 for the gap tone at u.
// A zero pattern is solid and always returns 0.
func (p Pattern) Tone(u float64) int {
	if p.Scale <= 0 {
		return 0
	}
	return int(math.Abs(math.Floor(u*p.Scale))) % 2
}
