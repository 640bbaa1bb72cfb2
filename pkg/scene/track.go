package scene

import "sort"

// Attribute names an animatable property of an object or material
type Attribute string

const (
	AttrLocation      Attribute = "location"
	AttrScale         Attribute = "scale"
	AttrRotation      Attribute = "rotation_quaternion"
	AttrControlPoints Attribute = "control_points"
	AttrBevelDepth    Attribute = "bevel_depth"
	AttrColor         Attribute = "diffuse_color"
	AttrDashScale     Attribute = "dash_scale"
	AttrDashEnabled   Attribute = "dash_enabled"
)

// Keyframe is a recorded value of one attribute at one frame
type Keyframe struct {
	Frame int       `json:"frame"`
	Value []float64 `json:"value"`
}

// Track holds the keyframes of one attribute, sorted by frame with at most
// one keyframe per frame
type Track struct {
	Keyframes []Keyframe `json:"keyframes"`
}

// Set records value at frame. An existing keyframe at the same frame is
// overwritten; it returns true in that case.
func (t *Track) Set(frame int, value []float64) bool {
	v := append([]float64(nil), value...)

	i := sort.Search(len(t.Keyframes), func(i int) bool {
		return t.Keyframes[i].Frame >= frame
	})
	if i < len(t.Keyframes) && t.Keyframes[i].Frame == frame {
		t.Keyframes[i].Value = v
		return true
	}

	t.Keyframes = append(t.Keyframes, Keyframe{})
	copy(t.Keyframes[i+1:], t.Keyframes[i:])
	t.Keyframes[i] = Keyframe{Frame: frame, Value: v}
	return false
}

// At returns the value keyed exactly at frame
func (t *Track) At(frame int) ([]float64, bool) {
	i := sort.Search(len(t.Keyframes), func(i int) bool {
		return t.Keyframes[i].Frame >= frame
	})
	if i < len(t.Keyframes) && t.Keyframes[i].Frame == frame {
		return t.Keyframes[i].Value, true
	}
	return nil, false
}

// Len returns the number of keyframes; a nil track has none
func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Keyframes)
}

func (t *Track) clone() *Track {
	c := &Track{Keyframes: make([]Keyframe, len(t.Keyframes))}
	for i, kf := range t.Keyframes {
		c.Keyframes[i] = Keyframe{Frame: kf.Frame, Value: append([]float64(nil), kf.Value...)}
	}
	return c
}

// Animation maps attributes to their tracks
type Animation map[Attribute]*Track

// Insert records value for attr at frame, creating the track on first use
func (a Animation) Insert(attr Attribute, frame int, value []float64) {
	tr, ok := a[attr]
	if !ok {
		tr = &Track{}
		a[attr] = tr
	}
	tr.Set(frame, value)
}

// Track returns the track for attr, or nil
func (a Animation) Track(attr Attribute) *Track {
	return a[attr]
}

func (a Animation) clone() Animation {
	c := make(Animation, len(a))
	for attr, tr := range a {
		c[attr] = tr.clone()
	}
	return c
}
