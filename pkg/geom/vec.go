// Package geom computes edge paths and arrowhead transforms from
// endpoint positions and shaping parameters.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// FlattenScale is the near-zero scale used to flatten 2D objects along one
// local axis. True zero would collapse the geometry.
const FlattenScale = 1e-5

// unit normalizes v, mapping the zero vector to itself instead of NaN
func unit(v r3.Vec) r3.Vec {
	if v.X == 0 && v.Y == 0 && v.Z == 0 {
		return v
	}
	return r3.Unit(v)
}

// minAxis returns the unit axis along which v has the smallest absolute
// component. Ties go to the later axis.
func minAxis(v r3.Vec) r3.Vec {
	abs := [3]float64{math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)}
	idx := 2
	for i := 1; i >= 0; i-- {
		if abs[i] < abs[idx] {
			idx = i
		}
	}

	var axis r3.Vec
	switch idx {
	case 0:
		axis.X = 1
	case 1:
		axis.Y = 1
	default:
		axis.Z = 1
	}
	return axis
}

// Flatten returns s with the component selected by axis set to FlattenScale
func Flatten(s r3.Vec, axis int) r3.Vec {
	switch axis {
	case 0:
		s.X = FlattenScale
	case 1:
		s.Y = FlattenScale
	default:
		s.Z = FlattenScale
	}
	return s
}
