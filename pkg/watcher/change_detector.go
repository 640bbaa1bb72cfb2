package watcher

import "strings"

// Classify reports which kind of table a file name belongs to. Hidden files
// are ignored, as are names matching neither marker. A name matching both
// markers counts as a node table.
func Classify(name, nodeMarker, edgeMarker string) (ChangeType, bool) {
	if name == "" || strings.HasPrefix(name, ".") {
		return 0, false
	}
	switch {
	case nodeMarker != "" && strings.Contains(name, nodeMarker):
		return ChangeTypeNodeTable, true
	case edgeMarker != "" && strings.Contains(name, edgeMarker):
		return ChangeTypeEdgeTable, true
	}
	return 0, false
}
