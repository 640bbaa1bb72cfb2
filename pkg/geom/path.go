package geom

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Shape holds the shaping parameters of one edge
type Shape struct {
	Curvature   float64
	ForceCurve  bool
	FromShorten float64
	ToShorten   float64
	ArrowLength float64
	ArrowSize   float64
	Is3D        bool
}

// Curved reports whether the path needs a middle control point
func (s Shape) Curved() bool {
	return s.Curvature > 0 || s.ForceCurve
}

// ControlPoint is one Bezier point of a path with its tangent handles,
// all relative to the path origin
type ControlPoint struct {
	Co          r3.Vec `json:"co"`
	HandleLeft  r3.Vec `json:"handleLeft"`
	HandleRight r3.Vec `json:"handleRight"`
}

// Path is the geometry of one edge
type Path struct {
	// Origin is the object-local origin, the midpoint of the trimmed segment
	Origin r3.Vec
	// Start and End are the trimmed endpoints in world space
	Start r3.Vec
	End   r3.Vec
	// Mid is the curve reference point in world space; equals End when the
	// path is straight
	Mid    r3.Vec
	Curved bool
	Points []ControlPoint
}

// trim shortens the segment p0-p1 by from at the start and to at the end
func trim(p0, p1 r3.Vec, from, to float64) (r3.Vec, r3.Vec) {
	d := unit(r3.Sub(p1, p0))
	start := r3.Add(p0, r3.Scale(from, d))
	// remaining length is measured from the trimmed start
	length := r3.Norm(r3.Sub(p1, start))
	end := r3.Add(start, r3.Scale(length-to, d))
	return start, end
}

// curveMid returns the middle control point for a trimmed segment
func curveMid(start, end r3.Vec, s Shape) r3.Vec {
	o := r3.Scale(0.5, r3.Add(start, end))
	if s.Curvature <= 0 {
		return o
	}
	dir := r3.Sub(end, start)
	offset := unit(r3.Cross(dir, minAxis(dir)))
	return r3.Add(o, r3.Scale(s.Curvature, offset))
}

// BuildPath computes the control points of the edge from p0 to p1.
// The arrow length is always trimmed from the end, reserving room for an
// arrowhead whether or not one is drawn.
func BuildPath(p0, p1 r3.Vec, s Shape) Path {
	start, end := trim(p0, p1, s.FromShorten, s.ToShorten+s.ArrowLength)
	o := r3.Scale(0.5, r3.Add(start, end))

	path := Path{
		Origin: o,
		Start:  start,
		End:    end,
		Mid:    end,
		Curved: s.Curved(),
	}

	cos := []r3.Vec{r3.Sub(start, o)}
	if path.Curved {
		path.Mid = curveMid(start, end, s)
		cos = append(cos, r3.Sub(path.Mid, o))
	}
	cos = append(cos, r3.Sub(end, o))

	path.Points = AutoHandles(cos)
	return path
}

// AutoHandles builds control points with smooth tangent handles. Each
// handle lies on the neighbour-to-neighbour tangent at a third of the
// adjacent segment length; endpoints aim at their only neighbour.
func AutoHandles(cos []r3.Vec) []ControlPoint {
	points := make([]ControlPoint, len(cos))
	for i, co := range cos {
		points[i] = ControlPoint{Co: co, HandleLeft: co, HandleRight: co}
		if len(cos) < 2 {
			continue
		}

		prev, next := co, co
		if i > 0 {
			prev = cos[i-1]
		}
		if i < len(cos)-1 {
			next = cos[i+1]
		}
		tangent := unit(r3.Sub(next, prev))

		if i > 0 {
			l := r3.Norm(r3.Sub(co, prev)) / 3
			points[i].HandleLeft = r3.Sub(co, r3.Scale(l, tangent))
		}
		if i < len(cos)-1 {
			l := r3.Norm(r3.Sub(next, co)) / 3
			points[i].HandleRight = r3.Add(co, r3.Scale(l, tangent))
		}
	}

	// mirror the inner handle onto the free side of each endpoint
	n := len(points)
	if n >= 2 {
		first, last := &points[0], &points[n-1]
		first.HandleLeft = r3.Sub(first.Co, r3.Sub(first.HandleRight, first.Co))
		last.HandleRight = r3.Add(last.Co, r3.Sub(last.Co, last.HandleLeft))
	}
	return points
}

// Flat returns the control points as a single keyframe value:
// co, left handle and right handle per point
func Flat(points []ControlPoint) []float64 {
	out := make([]float64, 0, len(points)*9)
	for _, p := range points {
		for _, v := range []r3.Vec{p.Co, p.HandleLeft, p.HandleRight} {
			out = append(out, v.X, v.Y, v.Z)
		}
	}
	return out
}
