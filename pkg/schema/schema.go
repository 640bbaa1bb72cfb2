package schema

import (
	"fmt"
	"strings"
)

// Table names used in errors and logs
const (
	TableNodes = "nodes"
	TableEdges = "edges"
)

// NodeColumns are the columns every node table must carry
var NodeColumns = []string{
	"name", "x", "y", "z", "colour", "shape", "size", "red", "green", "blue",
}

// EdgeColumns are the columns every edge table must carry
var EdgeColumns = []string{
	"from_name", "to_name", "size", "colour",
	"from_x", "from_y", "from_z", "to_x", "to_y", "to_z",
	"red", "green", "blue",
	"curve", "forcecurve", "from_shorten", "to_shorten",
	"arrowlength", "arrowsize", "is3d", "dash", "isdashed", "name",
}

// SchemaError reports required columns missing from a table header
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s table is missing required column(s): %s", e.Table, strings.Join(e.Missing, ", "))
}

// Columns maps a logical field name to its position in a row
type Columns map[string]int

// Resolve maps every required field to its column index in header.
// The first occurrence of a name wins. All missing fields are reported together.
func Resolve(table string, header []string, required []string) (Columns, error) {
	positions := make(map[string]int, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	cols := make(Columns, len(required))
	var missing []string
	for _, field := range required {
		idx, ok := positions[field]
		if !ok {
			missing = append(missing, field)
			continue
		}
		cols[field] = idx
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Table: table, Missing: missing}
	}
	return cols, nil
}

// Width returns the minimum row length needed to read every resolved column
func (c Columns) Width() int {
	width := 0
	for _, idx := range c {
		if idx+1 > width {
			width = idx + 1
		}
	}
	return width
}

// Get returns the cell for field in row, or "" if the row is too short
func (c Columns) Get(row []string, field string) string {
	idx, ok := c[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
