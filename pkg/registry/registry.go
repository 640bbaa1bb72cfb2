// Package registry tracks which stable keys already own scene geometry,
// turning each encounter into either a creation or an in-place update
// with a keyframe at the current frame.
package registry

import (
	"fmt"

	"github.com/ritzau/netscene/pkg/material"
	"github.com/ritzau/netscene/pkg/scene"
)

// State is the lifecycle state of a key
type State int

const (
	Unseen State = iota
	Created
)

func (s State) String() string {
	if s == Created {
		return "created"
	}
	return "unseen"
}

// Transition is what an encounter did to a key
type Transition int

const (
	// TransitionCreate is UNSEEN -> CREATED
	TransitionCreate Transition = iota
	// TransitionUpdate is CREATED -> CREATED
	TransitionUpdate
)

func (t Transition) String() string {
	if t == TransitionCreate {
		return "create"
	}
	return "update"
}

// Spec describes the desired state of a key at one frame
type Spec struct {
	// Collection receives the object on creation
	Collection string
	// Label is a human-readable material label, e.g. the table's colour name
	Label string
	// Build allocates the geometry on first encounter
	Build func(name string) (*scene.Object, error)
	// Apply writes the frame's attribute values into the object. It reports
	// whether the object's topology had to be rebuilt.
	Apply func(obj *scene.Object) (bool, error)
	// Material is the desired appearance
	Material material.Params
}

// Entry is the geometry and material owned by one key
type Entry struct {
	Key      Key
	Object   *scene.Object
	Material *scene.Material
	// CreatedAt is the frame of the first encounter
	CreatedAt int
	// LastFrame is the frame of the latest encounter
	LastFrame int
}

// Result describes one Upsert
type Result struct {
	Entry      *Entry
	Transition Transition
	Rebuilt    bool
	Backfilled bool
}

// Options tunes registry behavior
type Options struct {
	// BackfillArrowheads adds a keyframe at the parent edge's creation frame
	// when an arrowhead first appears in a later frame
	BackfillArrowheads bool
}

// Registry owns every key's geometry and material for an import run
type Registry struct {
	host    scene.Host
	opts    Options
	entries map[Key]*Entry
	order   []Key
}

// New creates an empty registry writing into host
func New(host scene.Host, opts Options) *Registry {
	return &Registry{
		host:    host,
		opts:    opts,
		entries: make(map[Key]*Entry),
	}
}

// State returns the lifecycle state of key
func (r *Registry) State(key Key) State {
	if _, ok := r.entries[key]; ok {
		return Created
	}
	return Unseen
}

// Get returns the entry owned by key
func (r *Registry) Get(key Key) (*Entry, bool) {
	e, ok := r.entries[key]
	return e, ok
}

// Len returns the number of created keys
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns all entries in creation order
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k])
	}
	return out
}

// Upsert creates key's geometry on first encounter or updates it in place,
// then keyframes every animatable attribute of object and material at frame
func (r *Registry) Upsert(key Key, frame int, spec Spec) (Result, error) {
	if spec.Apply == nil {
		return Result{}, fmt.Errorf("%s: spec has no Apply", key)
	}

	entry, ok := r.entries[key]
	res := Result{Entry: entry, Transition: TransitionUpdate}
	if !ok {
		var err error
		entry, err = r.create(key, frame, spec)
		if err != nil {
			return Result{}, err
		}
		res = Result{Entry: entry, Transition: TransitionCreate}
	}

	rebuilt, err := spec.Apply(entry.Object)
	if err != nil {
		return Result{}, fmt.Errorf("%s: applying frame %d: %w", key, frame, err)
	}
	res.Rebuilt = rebuilt

	entry.Material.Params = spec.Material
	if spec.Label != "" {
		entry.Material.Label = spec.Label
	}

	entry.Object.Keyframe(frame)
	entry.Material.Keyframe(frame)
	if frame > entry.LastFrame {
		entry.LastFrame = frame
	}

	if res.Transition == TransitionCreate && r.opts.BackfillArrowheads {
		res.Backfilled = r.backfill(entry)
	}
	return res, nil
}

func (r *Registry) create(key Key, frame int, spec Spec) (*Entry, error) {
	if spec.Build == nil {
		return nil, fmt.Errorf("%s: spec has no Build", key)
	}

	obj, err := spec.Build(key.ObjectName())
	if err != nil {
		return nil, fmt.Errorf("%s: building geometry: %w", key, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%s: builder returned no object", key)
	}
	if err := r.host.Link(spec.Collection, obj); err != nil {
		return nil, fmt.Errorf("%s: linking object: %w", key, err)
	}

	// named after the linked object so host renames keep names unique
	mat := scene.NewMaterial(material.Name(obj.Name))
	if err := r.host.AddMaterial(mat); err != nil {
		return nil, fmt.Errorf("%s: adding material: %w", key, err)
	}
	obj.Material = mat.Name

	entry := &Entry{
		Key:       key,
		Object:    obj,
		Material:  mat,
		CreatedAt: frame,
		LastFrame: frame,
	}
	r.entries[key] = entry
	r.order = append(r.order, key)
	return entry, nil
}

// backfill keys a late arrowhead at its edge's creation frame with the
// values of its first appearance
func (r *Registry) backfill(entry *Entry) bool {
	parentKey, ok := entry.Key.Parent()
	if !ok {
		return false
	}
	parent, ok := r.entries[parentKey]
	if !ok || parent.CreatedAt >= entry.CreatedAt {
		return false
	}

	entry.Object.Keyframe(parent.CreatedAt)
	entry.Material.Keyframe(parent.CreatedAt)
	return true
}
