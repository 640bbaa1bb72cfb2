// Package importer compiles one graph snapshot into the scene at one frame.
package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ritzau/netscene/pkg/geom"
	"github.com/ritzau/netscene/pkg/logging"
	"github.com/ritzau/netscene/pkg/material"
	"github.com/ritzau/netscene/pkg/registry"
	"github.com/ritzau/netscene/pkg/scene"
	"github.com/ritzau/netscene/pkg/snapshot"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options configures an Importer
type Options struct {
	// NodeMarker is the file name substring identifying node tables; the
	// text before it prefixes collection names
	NodeMarker string
	Registry   registry.Options
}

// Report summarizes one snapshot import
type Report struct {
	RunID      string        `json:"runId"`
	Frame      int           `json:"frame"`
	NodesPath  string        `json:"nodesPath"`
	EdgesPath  string        `json:"edgesPath"`
	Nodes      int           `json:"nodes"`
	Edges      int           `json:"edges"`
	Arrowheads int           `json:"arrowheads"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Rebuilt    int           `json:"rebuilt"`
	Backfilled int           `json:"backfilled"`
	Dangling   int           `json:"dangling"`
	Warnings   []string      `json:"warnings,omitempty"`
	Duration   time.Duration `json:"duration"`
}

func (r *Report) count(res registry.Result) {
	if res.Transition == registry.TransitionCreate {
		r.Created++
	} else {
		r.Updated++
	}
	if res.Rebuilt {
		r.Rebuilt++
	}
	if res.Backfilled {
		r.Backfilled++
	}
}

func (r *Report) warn(ctx context.Context, msg string, args ...any) {
	logging.WarnContext(ctx, msg, args...)
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	r.Warnings = append(r.Warnings, b.String())
}

// Importer compiles snapshots into a scene. Imports and document exports
// are serialized, so one Importer can be shared by a watcher and a server.
type Importer struct {
	mu       sync.Mutex // Prevent concurrent mutation of the registry
	scene    *scene.Scene
	registry *registry.Registry
	opts     Options
}

// New creates an importer writing into s
func New(s *scene.Scene, opts Options) *Importer {
	return &Importer{
		scene:    s,
		registry: registry.New(s, opts.Registry),
		opts:     opts,
	}
}

// ImportFiles reads a node table and an edge table and imports them at frame
func (im *Importer) ImportFiles(ctx context.Context, nodesPath, edgesPath string, frame int) (*Report, error) {
	snap, err := snapshot.Load(nodesPath, edgesPath, im.opts.NodeMarker)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot for frame %d: %w", frame, err)
	}
	return im.Import(ctx, snap, frame)
}

// Import compiles snap into the scene at frame. Nodes are processed before
// edges.
func (im *Importer) Import(ctx context.Context, snap *snapshot.Snapshot, frame int) (*Report, error) {
	if frame < 0 {
		return nil, fmt.Errorf("frame must not be negative, got %d", frame)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	runID := logging.GetRunID(ctx)
	if runID == "" {
		runID = uuid.New().String()
		ctx = logging.WithRunID(ctx, runID)
	}

	start := time.Now()
	rep := &Report{
		RunID:     runID,
		Frame:     frame,
		NodesPath: snap.NodesPath,
		EdgesPath: snap.EdgesPath,
	}
	logging.InfoContext(ctx, "importing snapshot", "frame", frame, "nodes", len(snap.Nodes), "edges", len(snap.Edges))

	topo := snapshot.BuildTopology(snap)
	for _, d := range topo.Dangling() {
		rep.Dangling++
		rep.warn(ctx, "edge endpoint is not a node of this snapshot", "edge", d.Name, "from", d.FromName, "to", d.ToName)
	}
	if isolated := topo.Isolated(); len(isolated) > 0 {
		logging.DebugContext(ctx, "nodes without edges", "count", len(isolated), "links", topo.EdgeCount())
	}

	for _, n := range snap.Nodes {
		if err := im.importNode(ctx, rep, snap, n, frame); err != nil {
			return rep, err
		}
	}
	for _, e := range snap.Edges {
		if err := im.importEdge(ctx, rep, snap, e, frame); err != nil {
			return rep, err
		}
	}

	im.scene.MarkFrame(frame)
	rep.Duration = time.Since(start)
	logging.InfoContext(ctx, "snapshot imported",
		"frame", frame,
		"created", rep.Created,
		"updated", rep.Updated,
		"skipped", rep.Skipped,
		"durationMs", rep.Duration.Milliseconds(),
	)
	return rep, nil
}

func (im *Importer) importNode(ctx context.Context, rep *Report, snap *snapshot.Snapshot, n snapshot.NodeRecord, frame int) error {
	if n.Name == "" {
		rep.Skipped++
		rep.warn(ctx, "node without name skipped", "frame", frame)
		return nil
	}

	key := registry.NodeKey(n.Name)
	var build func(string) (*scene.Object, error)
	if im.registry.State(key) == registry.Unseen {
		var ok bool
		build, ok = im.nodeBuilder(ctx, rep, n)
		if !ok {
			rep.Skipped++
			return nil
		}
	}

	size := n.Size
	res, err := im.registry.Upsert(key, frame, registry.Spec{
		Collection: snap.NodeCollection(),
		Label:      n.ColourName,
		Build:      build,
		Apply: func(obj *scene.Object) (bool, error) {
			obj.Location = n.Position
			obj.Scale = r3.Vec{X: size, Y: size, Z: size}
			return false, nil
		},
		Material: material.Solid(n.Color),
	})
	if err != nil {
		return fmt.Errorf("node %s: %w", n.Name, err)
	}

	rep.Nodes++
	rep.count(res)
	logging.TraceContext(ctx, "node keyed", "node", n.Name, "transition", res.Transition.String(), "frame", frame)
	return nil
}

// nodeBuilder picks how a new node's geometry is allocated: a builtin
// primitive, or a duplicate of a template object. It returns false when
// the node gets no geometry.
func (im *Importer) nodeBuilder(ctx context.Context, rep *Report, n snapshot.NodeRecord) (func(string) (*scene.Object, error), bool) {
	if shape, ok := scene.ParseShape(n.Shape); ok {
		return func(name string) (*scene.Object, error) {
			return scene.NewMesh(name, shape), nil
		}, true
	}

	if n.Shape == scene.ShapeNone {
		logging.DebugContext(ctx, "node has no geometry", "node", n.Name)
		return nil, false
	}

	tmpl, ok := im.scene.Template(n.Shape)
	if !ok {
		rep.warn(ctx, "shape template not found, node skipped", "node", n.Name, "shape", n.Shape)
		return nil, false
	}
	return func(name string) (*scene.Object, error) {
		return tmpl.Duplicate(name), nil
	}, true
}

func (im *Importer) importEdge(ctx context.Context, rep *Report, snap *snapshot.Snapshot, e snapshot.EdgeRecord, frame int) error {
	shape := e.Shape()
	path := geom.BuildPath(e.From, e.To, shape)

	res, err := im.registry.Upsert(registry.EdgeKey(e.Name), frame, registry.Spec{
		Collection: snap.EdgeCollection(),
		Label:      e.ColourName,
		Build: func(name string) (*scene.Object, error) {
			return scene.NewCurve(name), nil
		},
		Apply: func(obj *scene.Object) (bool, error) {
			obj.Location = path.Origin
			obj.Scale = r3.Vec{X: 1, Y: 1, Z: 1}
			if !e.Is3D {
				obj.Scale = geom.Flatten(obj.Scale, 2)
			}
			if obj.Curve != nil {
				obj.Curve.BevelDepth = e.Thickness
			}
			return obj.SetPoints(path.Points)
		},
		Material: e.Material(),
	})
	if err != nil {
		return fmt.Errorf("edge %s: %w", e.Name, err)
	}

	rep.Edges++
	rep.count(res)
	if res.Rebuilt {
		logging.DebugContext(ctx, "edge path topology rebuilt", "edge", e.Name, "points", len(path.Points), "frame", frame)
	}

	if !e.HasArrowhead() {
		return nil
	}

	arrow := geom.BuildArrow(e.From, e.To, shape)
	res, err = im.registry.Upsert(registry.ArrowheadKey(e.Name), frame, registry.Spec{
		Collection: snap.EdgeCollection(),
		Label:      e.ColourName,
		Build: func(name string) (*scene.Object, error) {
			return scene.NewMesh(name, scene.ShapeCone), nil
		},
		Apply: func(obj *scene.Object) (bool, error) {
			obj.Location = arrow.Position
			obj.Rotation = arrow.Rotation
			obj.Scale = arrow.Scale
			return false, nil
		},
		Material: material.Solid(e.Color),
	})
	if err != nil {
		return fmt.Errorf("arrowhead of edge %s: %w", e.Name, err)
	}

	rep.Arrowheads++
	rep.count(res)
	return nil
}

// Document exports the current scene
func (im *Importer) Document() *scene.Document {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.scene.Document()
}

// Keys returns the number of stable keys created so far
func (im *Importer) Keys() int {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.registry.Len()
}
