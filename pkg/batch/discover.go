// Package batch turns a folder of snapshot tables into an ordered sequence
// of imports, one frame per node/edge table pair.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ritzau/netscene/pkg/logging"
)

// Pair is one snapshot: a node table and the edge table taken at the same time
type Pair struct {
	Nodes string `json:"nodes"`
	Edges string `json:"edges"`
}

type tableFile struct {
	path    string
	modTime time.Time
}

// Discover lists folder (non-recursively) and pairs node tables with edge
// tables. A file is a node table if its name contains nodeMarker and an
// edge table if it contains edgeMarker. Each list is ordered by
// modification time, ties broken by name, and the lists are paired by
// position. Surplus files on the longer side are ignored with a warning.
func Discover(folder, nodeMarker, edgeMarker string) ([]Pair, error) {
	if nodeMarker == "" || edgeMarker == "" {
		return nil, fmt.Errorf("node and edge markers must not be empty")
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", folder, err)
	}

	var nodes, edges []tableFile
	for _, entry := range entries {
		// Skip directories and editor droppings
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		name := entry.Name()
		isNodes := strings.Contains(name, nodeMarker)
		isEdges := strings.Contains(name, edgeMarker)
		if !isNodes && !isEdges {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}
		f := tableFile{path: filepath.Join(folder, name), modTime: info.ModTime()}
		if isNodes {
			nodes = append(nodes, f)
		}
		if isEdges {
			edges = append(edges, f)
		}
	}

	sortByModTime(nodes)
	sortByModTime(edges)

	if len(nodes) != len(edges) {
		logging.Warn("node and edge table counts differ, pairing the oldest files",
			"folder", folder,
			"nodeTables", len(nodes),
			"edgeTables", len(edges),
		)
	}

	n := min(len(nodes), len(edges))
	pairs := make([]Pair, n)
	for i := 0; i < n; i++ {
		pairs[i] = Pair{Nodes: nodes[i].path, Edges: edges[i].path}
	}
	return pairs, nil
}

func sortByModTime(files []tableFile) {
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].path < files[j].path
	})
}
