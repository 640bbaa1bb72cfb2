// Package scene is the in-memory scene host the compiler writes into:
// objects, materials, collections and their keyframes.
package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Host is the scene capability surface the compiler drives
type Host interface {
	// Template returns a named object that can be duplicated for a node
	Template(name string) (*Object, bool)
	// Link adds obj to the scene under collection. The host may rename obj
	// to keep object names unique.
	Link(collection string, obj *Object) error
	// AddMaterial adds mat to the scene
	AddMaterial(mat *Material) error
}

// Scene is an in-memory Host
type Scene struct {
	objects     map[string]*Object
	order       []string
	materials   map[string]*Material
	matOrder    []string
	collections map[string][]string
	colOrder    []string
	templates   map[string]*Object
	frames      map[int]bool
}

// New creates an empty scene
func New() *Scene {
	return &Scene{
		objects:     make(map[string]*Object),
		materials:   make(map[string]*Material),
		collections: make(map[string][]string),
		templates:   make(map[string]*Object),
		frames:      make(map[int]bool),
	}
}

// AddTemplate registers an external template object. Templates are not
// part of the exported scene.
func (s *Scene) AddTemplate(obj *Object) {
	s.templates[obj.Name] = obj
}

// Template looks up registered templates first, then scene objects
func (s *Scene) Template(name string) (*Object, bool) {
	if obj, ok := s.templates[name]; ok {
		return obj, true
	}
	obj, ok := s.objects[name]
	return obj, ok
}

// Link implements Host
func (s *Scene) Link(collection string, obj *Object) error {
	if obj == nil {
		return fmt.Errorf("cannot link nil object")
	}
	if _, exists := s.objects[obj.Name]; exists {
		obj.Name = s.uniqueName(obj.Name)
	}

	obj.Collection = collection
	s.objects[obj.Name] = obj
	s.order = append(s.order, obj.Name)

	if _, ok := s.collections[collection]; !ok {
		s.colOrder = append(s.colOrder, collection)
	}
	s.collections[collection] = append(s.collections[collection], obj.Name)
	return nil
}

// uniqueName appends a numeric suffix the way 3D hosts resolve clashes
func (s *Scene) uniqueName(name string) string {
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", name, i)
		if _, exists := s.objects[candidate]; !exists {
			return candidate
		}
	}
}

// AddMaterial implements Host
func (s *Scene) AddMaterial(mat *Material) error {
	if _, exists := s.materials[mat.Name]; exists {
		return fmt.Errorf("material %s already exists", mat.Name)
	}
	s.materials[mat.Name] = mat
	s.matOrder = append(s.matOrder, mat.Name)
	return nil
}

// MarkFrame records that a snapshot was imported at frame
func (s *Scene) MarkFrame(frame int) {
	s.frames[frame] = true
}

// Object returns the scene object with the given name
func (s *Scene) Object(name string) (*Object, bool) {
	obj, ok := s.objects[name]
	return obj, ok
}

// Material returns the material with the given name
func (s *Scene) Material(name string) (*Material, bool) {
	mat, ok := s.materials[name]
	return mat, ok
}

// Collection returns the object names linked into a collection
func (s *Scene) Collection(name string) []string {
	return s.collections[name]
}

// ObjectCount returns the number of objects in the scene
func (s *Scene) ObjectCount() int {
	return len(s.objects)
}

// MaterialCount returns the number of materials in the scene
func (s *Scene) MaterialCount() int {
	return len(s.materials)
}

// Document is a point-in-time export of the scene
type Document struct {
	Frames      []int               `json:"frames"`
	Collections map[string][]string `json:"collections"`
	Objects     []*Object           `json:"objects"`
	Materials   []*Material         `json:"materials"`
}

// Document returns a deep copy of the scene in creation order
func (s *Scene) Document() *Document {
	doc := &Document{
		Frames:      make([]int, 0, len(s.frames)),
		Collections: make(map[string][]string, len(s.collections)),
		Objects:     make([]*Object, 0, len(s.order)),
		Materials:   make([]*Material, 0, len(s.matOrder)),
	}

	for frame := range s.frames {
		doc.Frames = append(doc.Frames, frame)
	}
	sort.Ints(doc.Frames)

	for _, name := range s.colOrder {
		doc.Collections[name] = append([]string(nil), s.collections[name]...)
	}
	for _, name := range s.order {
		doc.Objects = append(doc.Objects, s.objects[name].clone())
	}
	for _, name := range s.matOrder {
		doc.Materials = append(doc.Materials, s.materials[name].clone())
	}
	return doc
}

// WriteFile writes the document as indented JSON
func (d *Document) WriteFile(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scene document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scene document: %w", err)
	}
	return nil
}

// FindObject returns the exported object with the given name
func (d *Document) FindObject(name string) (*Object, bool) {
	for _, obj := range d.Objects {
		if obj.Name == name {
			return obj, true
		}
	}
	return nil, false
}

// FindMaterial returns the exported material with the given name
func (d *Document) FindMaterial(name string) (*Material, bool) {
	for _, mat := range d.Materials {
		if mat.Name == name {
			return mat, true
		}
	}
	return nil, false
}
