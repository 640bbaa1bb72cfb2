package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ritzau/netscene/pkg/material"
	"github.com/ritzau/netscene/pkg/schema"
	"gonum.org/v1/gonum/spatial/r3"
)

// ParseError reports a cell that could not be read
type ParseError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: column %s: invalid value %q: %v", e.Path, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errShortRow = errors.New("row has fewer cells than the header")

var errNotFinite = errors.New("value is not a finite number")

// table is a header-resolved CSV file being read row by row
type table struct {
	path string
	r    *csv.Reader
	cols schema.Columns
}

func openTable(path, name string, required []string) (*table, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s table: %w", name, err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			return nil, nil, &schema.SchemaError{Table: name, Missing: required}
		}
		return nil, nil, fmt.Errorf("reading %s header: %w", name, err)
	}

	cols, err := schema.Resolve(name, header, required)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}

	return &table{path: path, r: r, cols: cols}, f, nil
}

// each calls fn for every data row with a cell accessor
func (t *table) each(fn func(c *cells) error) error {
	width := t.cols.Width()
	for {
		row, err := t.r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", t.path, err)
		}

		line, _ := t.r.FieldPos(0)
		if len(row) < width {
			return &ParseError{Path: t.path, Line: line, Err: errShortRow}
		}

		c := &cells{path: t.path, line: line, row: row, cols: t.cols}
		if err := fn(c); err != nil {
			return err
		}
		if c.err != nil {
			return c.err
		}
	}
}

// cells reads typed values from one row, keeping the first error
type cells struct {
	path string
	line int
	row  []string
	cols schema.Columns
	err  error
}

func (c *cells) str(field string) string {
	return c.cols.Get(c.row, field)
}

func (c *cells) float(field string) float64 {
	raw := c.str(field)
	v, err := strconv.ParseFloat(raw, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = errNotFinite
	}
	if err != nil && c.err == nil {
		c.err = &ParseError{Path: c.path, Line: c.line, Column: field, Value: raw, Err: err}
	}
	return v
}

// isTrue is true only for the literal TRUE
func (c *cells) isTrue(field string) bool {
	return c.str(field) == "TRUE"
}

// notFalse is false only for the literal FALSE
func (c *cells) notFalse(field string) bool {
	return c.str(field) != "FALSE"
}

func (c *cells) vec(x, y, z string) r3.Vec {
	return r3.Vec{X: c.float(x), Y: c.float(y), Z: c.float(z)}
}

func (c *cells) rgb() material.RGB {
	return material.RGB{R: c.float("red"), G: c.float("green"), B: c.float("blue")}
}

// ReadNodes reads every record of a node table
func ReadNodes(path string) ([]NodeRecord, error) {
	t, closer, err := openTable(path, schema.TableNodes, schema.NodeColumns)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer.Close() }()

	var nodes []NodeRecord
	err = t.each(func(c *cells) error {
		nodes = append(nodes, NodeRecord{
			Name:       c.str("name"),
			Position:   c.vec("x", "y", "z"),
			ColourName: c.str("colour"),
			Color:      c.rgb(),
			Shape:      c.str("shape"),
			Size:       c.float("size"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// ReadEdges reads every record of an edge table. An empty name is derived
// from the endpoint names.
func ReadEdges(path string) ([]EdgeRecord, error) {
	t, closer, err := openTable(path, schema.TableEdges, schema.EdgeColumns)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer.Close() }()

	var edges []EdgeRecord
	err = t.each(func(c *cells) error {
		e := EdgeRecord{
			Name:        c.str("name"),
			FromName:    c.str("from_name"),
			ToName:      c.str("to_name"),
			From:        c.vec("from_x", "from_y", "from_z"),
			To:          c.vec("to_x", "to_y", "to_z"),
			Thickness:   c.float("size"),
			ColourName:  c.str("colour"),
			Color:       c.rgb(),
			Curvature:   c.float("curve"),
			ForceCurve:  c.isTrue("forcecurve"),
			FromShorten: c.float("from_shorten"),
			ToShorten:   c.float("to_shorten"),
			ArrowLength: c.float("arrowlength"),
			ArrowSize:   c.float("arrowsize"),
			Is3D:        c.notFalse("is3d"),
			DashScale:   c.float("dash"),
			ForceDash:   c.isTrue("isdashed"),
		}
		if e.Name == "" {
			e.Name = EdgeName(e.FromName, e.ToName)
		}
		edges = append(edges, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// EdgeName derives the stable name of an unnamed edge
func EdgeName(from, to string) string {
	return from + "_" + to
}

// Load reads a full snapshot. Both tables are resolved and parsed before
// anything is returned, so a bad table never yields a partial snapshot.
func Load(nodesPath, edgesPath, marker string) (*Snapshot, error) {
	nodes, err := ReadNodes(nodesPath)
	if err != nil {
		return nil, err
	}
	edges, err := ReadEdges(edgesPath)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		NodesPath: nodesPath,
		EdgesPath: edgesPath,
		Prefix:    Prefix(nodesPath, marker),
		Nodes:     nodes,
		Edges:     edges,
	}, nil
}

// Prefix derives the collection prefix from a table file name: the text
// before marker. Names without the marker get no prefix, so their objects
// land in the plain "nodes" and "edges" collections.
func Prefix(path, marker string) string {
	if marker == "" {
		return ""
	}
	base := filepath.Base(path)
	if idx := strings.Index(base, marker); idx >= 0 {
		return base[:idx]
	}
	return ""
}
