package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Arrow is the transform of an arrowhead cone. The cone's local +Z is its
// pointing axis.
type Arrow struct {
	Position r3.Vec
	Rotation quat.Number
	Scale    r3.Vec
}

// BuildArrow computes the arrowhead transform for the edge from p0 to p1.
// The trim is recomputed on its own copy of the endpoints with the arrow
// length stacked onto the end trim, so the cone sits where the path stops.
func BuildArrow(p0, p1 r3.Vec, s Shape) Arrow {
	start, end := trim(p0, p1, s.FromShorten, s.ToShorten+s.ArrowLength)

	ref := end
	if s.Curved() {
		ref = curveMid(start, end, s)
	}

	scale := r3.Vec{X: s.ArrowSize, Y: s.ArrowSize, Z: s.ArrowLength}
	if !s.Is3D {
		scale = Flatten(scale, 0)
	}

	return Arrow{
		Position: end,
		Rotation: TrackQuat(r3.Sub(p1, ref)),
		Scale:    scale,
	}
}

// TrackQuat returns the rotation turning local +Z onto dir while keeping
// local +X as close to world +Z as possible. When dir is parallel to
// world Z, local +X follows world +X instead. A zero dir yields identity.
func TrackQuat(dir r3.Vec) quat.Number {
	z := unit(dir)
	if z == (r3.Vec{}) {
		return quat.Number{Real: 1}
	}

	up := r3.Vec{Z: 1}
	x := r3.Sub(up, r3.Scale(r3.Dot(up, z), z))
	if r3.Norm(x) < 1e-9 {
		ref := r3.Vec{X: 1}
		x = r3.Sub(ref, r3.Scale(r3.Dot(ref, z), z))
	}
	x = r3.Unit(x)
	y := r3.Cross(z, x)

	return basisQuat(x, y, z)
}

// basisQuat converts the orthonormal basis with columns x, y, z into a
// unit quaternion
func basisQuat(x, y, z r3.Vec) quat.Number {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q quat.Number
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{
			Real: 0.25 / s,
			Imag: (m21 - m12) * s,
			Jmag: (m02 - m20) * s,
			Kmag: (m10 - m01) * s,
		}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{
			Real: (m21 - m12) / s,
			Imag: 0.25 * s,
			Jmag: (m01 + m10) / s,
			Kmag: (m02 + m20) / s,
		}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{
			Real: (m02 - m20) / s,
			Imag: (m01 + m10) / s,
			Jmag: 0.25 * s,
			Kmag: (m12 + m21) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{
			Real: (m10 - m01) / s,
			Imag: (m02 + m20) / s,
			Jmag: (m12 + m21) / s,
			Kmag: 0.25 * s,
		}
	}

	// keep a canonical sign so identical inputs keyframe identically
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	n := quat.Abs(q)
	return quat.Scale(1/n, q)
}

// QuatSlice returns q as a keyframe value in w, x, y, z order
func QuatSlice(q quat.Number) []float64 {
	return []float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}

// VecSlice returns v as a keyframe value
func VecSlice(v r3.Vec) []float64 {
	return []float64{v.X, v.Y, v.Z}
}
