package registry

import (
	"errors"
	"testing"

	"github.com/ritzau/netscene/pkg/material"
	"github.com/ritzau/netscene/pkg/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

func nodeSpec(loc r3.Vec, color material.RGB) Spec {
	return Spec{
		Collection: "nodes",
		Build: func(name string) (*scene.Object, error) {
			return scene.NewMesh(name, scene.ShapeSphere), nil
		},
		Apply: func(obj *scene.Object) (bool, error) {
			obj.Location = loc
			return false, nil
		},
		Material: material.Solid(color),
	}
}

func TestStateMachine(t *testing.T) {
	reg := New(scene.New(), Options{})
	key := NodeKey("A")

	if reg.State(key) != Unseen {
		t.Fatalf("Expected unseen, got %v", reg.State(key))
	}

	res, err := reg.Upsert(key, 0, nodeSpec(r3.Vec{}, material.RGB{R: 1}))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if res.Transition != TransitionCreate {
		t.Errorf("First encounter transition = %v, want create", res.Transition)
	}
	if reg.State(key) != Created {
		t.Errorf("Expected created, got %v", reg.State(key))
	}

	res, err = reg.Upsert(key, 10, nodeSpec(r3.Vec{X: 1}, material.RGB{R: 1}))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if res.Transition != TransitionUpdate {
		t.Errorf("Second encounter transition = %v, want update", res.Transition)
	}
	if reg.State(key) != Created {
		t.Errorf("Created must be terminal, got %v", reg.State(key))
	}
}

func TestIdentityStability(t *testing.T) {
	s := scene.New()
	reg := New(s, Options{})
	key := NodeKey("A")

	frames := []int{0, 3, 7, 20}
	var first *Entry
	for i, f := range frames {
		res, err := reg.Upsert(key, f, nodeSpec(r3.Vec{X: float64(i)}, material.RGB{G: 1}))
		if err != nil {
			t.Fatalf("Upsert(%d) error = %v", f, err)
		}
		if first == nil {
			first = res.Entry
		} else if res.Entry.Object != first.Object || res.Entry.Material != first.Material {
			t.Fatalf("Frame %d produced a new object or material", f)
		}
	}

	if s.ObjectCount() != 1 || s.MaterialCount() != 1 {
		t.Fatalf("Expected 1 object and 1 material, got %d and %d", s.ObjectCount(), s.MaterialCount())
	}

	for attr, tr := range first.Object.Animation {
		if tr.Len() != len(frames) {
			t.Errorf("Object attribute %s has %d keyframes, want %d", attr, tr.Len(), len(frames))
		}
	}
	for attr, tr := range first.Material.Animation {
		if tr.Len() != len(frames) {
			t.Errorf("Material attribute %s has %d keyframes, want %d", attr, tr.Len(), len(frames))
		}
	}

	// earlier keyframes keep their values
	v, ok := first.Object.Animation.Track(scene.AttrLocation).At(3)
	if !ok || v[0] != 1 {
		t.Errorf("Location at frame 3 = %v, want x=1", v)
	}
	if first.CreatedAt != 0 || first.LastFrame != 20 {
		t.Errorf("CreatedAt/LastFrame = %d/%d, want 0/20", first.CreatedAt, first.LastFrame)
	}
}

func TestIdempotentSameFrame(t *testing.T) {
	reg := New(scene.New(), Options{})
	key := NodeKey("A")

	if _, err := reg.Upsert(key, 5, nodeSpec(r3.Vec{X: 1}, material.RGB{})); err != nil {
		t.Fatal(err)
	}
	res, err := reg.Upsert(key, 5, nodeSpec(r3.Vec{X: 2}, material.RGB{}))
	if err != nil {
		t.Fatal(err)
	}

	tr := res.Entry.Object.Animation.Track(scene.AttrLocation)
	if tr.Len() != 1 {
		t.Fatalf("Expected 1 keyframe, got %d", tr.Len())
	}
	if v, _ := tr.At(5); v[0] != 2 {
		t.Errorf("Second import should overwrite, got %v", v)
	}
}

func TestMaterialNaming(t *testing.T) {
	s := scene.New()
	reg := New(s, Options{})

	res, err := reg.Upsert(NodeKey("A"), 0, nodeSpec(r3.Vec{}, material.RGB{R: 1}))
	if err != nil {
		t.Fatal(err)
	}
	if res.Entry.Material.Name != "A_mat" {
		t.Errorf("Material name = %q, want A_mat", res.Entry.Material.Name)
	}
	if res.Entry.Object.Material != "A_mat" {
		t.Errorf("Object material = %q, want A_mat", res.Entry.Object.Material)
	}
	if _, ok := s.Material("A_mat"); !ok {
		t.Error("Material not added to scene")
	}
}

func TestKeySpacesDoNotCollide(t *testing.T) {
	s := scene.New()
	reg := New(s, Options{})

	if _, err := reg.Upsert(NodeKey("A_B"), 0, nodeSpec(r3.Vec{}, material.RGB{})); err != nil {
		t.Fatal(err)
	}
	res, err := reg.Upsert(EdgeKey("A_B"), 0, nodeSpec(r3.Vec{}, material.RGB{}))
	if err != nil {
		t.Fatal(err)
	}

	if res.Transition != TransitionCreate {
		t.Error("Edge key should not match the node key")
	}
	if reg.Len() != 2 || s.ObjectCount() != 2 || s.MaterialCount() != 2 {
		t.Errorf("Expected 2 entries/objects/materials, got %d/%d/%d", reg.Len(), s.ObjectCount(), s.MaterialCount())
	}

	entries := reg.Entries()
	if len(entries) != 2 || entries[0].Key != NodeKey("A_B") || entries[1].Key != EdgeKey("A_B") {
		t.Errorf("Entries() not in creation order: %v", entries)
	}
}

func TestArrowheadKey(t *testing.T) {
	k := ArrowheadKey("A_B")
	if k.ObjectName() != "A_Bah" {
		t.Errorf("ObjectName() = %q, want A_Bah", k.ObjectName())
	}
	parent, ok := k.Parent()
	if !ok || parent != EdgeKey("A_B") {
		t.Errorf("Parent() = %v, %v", parent, ok)
	}
	if _, ok := EdgeKey("A_B").Parent(); ok {
		t.Error("Edge keys have no parent")
	}
}

func TestArrowheadBackfill(t *testing.T) {
	tests := []struct {
		name     string
		backfill bool
		want     int
	}{
		{"observed behavior", false, 1},
		{"backfilled", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New(scene.New(), Options{BackfillArrowheads: tt.backfill})

			if _, err := reg.Upsert(EdgeKey("A_B"), 0, nodeSpec(r3.Vec{}, material.RGB{})); err != nil {
				t.Fatal(err)
			}
			res, err := reg.Upsert(ArrowheadKey("A_B"), 24, nodeSpec(r3.Vec{}, material.RGB{}))
			if err != nil {
				t.Fatal(err)
			}

			if got := res.Entry.Object.Animation.Track(scene.AttrLocation).Len(); got != tt.want {
				t.Errorf("Arrowhead keyframes = %d, want %d", got, tt.want)
			}
			if res.Backfilled != tt.backfill {
				t.Errorf("Backfilled = %v, want %v", res.Backfilled, tt.backfill)
			}
		})
	}
}

func TestUpsertErrors(t *testing.T) {
	reg := New(scene.New(), Options{})
	boom := errors.New("boom")

	_, err := reg.Upsert(NodeKey("A"), 0, Spec{
		Build: func(string) (*scene.Object, error) { return nil, boom },
		Apply: func(*scene.Object) (bool, error) { return false, nil },
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected build error to be wrapped, got %v", err)
	}
	if reg.State(NodeKey("A")) != Unseen {
		t.Error("Failed build must leave the key unseen")
	}

	if _, err := reg.Upsert(NodeKey("B"), 0, Spec{}); err == nil {
		t.Error("Expected error for spec without Apply")
	}
}
