package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/ritzau/netscene/pkg/importer"
	"github.com/ritzau/netscene/pkg/scene"
)

// PrintImportReport prints a colorized summary of one snapshot import
func PrintImportReport(w io.Writer, rep *importer.Report) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintf(w, "Frame %d", rep.Frame)
	cyan.Fprintf(w, "  %s + %s\n", rep.NodesPath, rep.EdgesPath)

	fmt.Fprintf(w, "  nodes %d, edges %d, arrowheads %d\n", rep.Nodes, rep.Edges, rep.Arrowheads)
	green.Fprintf(w, "  created %d", rep.Created)
	fmt.Fprintf(w, ", updated %d", rep.Updated)
	if rep.Skipped > 0 {
		yellow.Fprintf(w, ", skipped %d", rep.Skipped)
	}
	if rep.Rebuilt > 0 {
		yellow.Fprintf(w, ", rebuilt %d", rep.Rebuilt)
	}
	if rep.Backfilled > 0 {
		fmt.Fprintf(w, ", backfilled %d", rep.Backfilled)
	}
	fmt.Fprintln(w)

	for _, warning := range rep.Warnings {
		yellow.Fprintf(w, "  ! %s\n", warning)
	}
}

// PrintSummary prints the totals of a run and where the scene was written
func PrintSummary(w io.Writer, reports []*importer.Report, doc *scene.Document, outPath string, runErr error) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	var warnings int
	for _, rep := range reports {
		warnings += len(rep.Warnings)
	}

	fmt.Fprintln(w)
	bold.Fprintln(w, "Scene Summary")
	bold.Fprintln(w, "=============")
	fmt.Fprintf(w, "Snapshots: %d\n", len(reports))
	fmt.Fprintf(w, "Frames:    %v\n", doc.Frames)
	fmt.Fprintf(w, "Objects:   %d in %d collection(s)\n", len(doc.Objects), len(doc.Collections))
	fmt.Fprintf(w, "Materials: %d\n", len(doc.Materials))
	if outPath != "" {
		fmt.Fprintf(w, "Written:   %s\n", outPath)
	}

	switch {
	case runErr != nil:
		red.Fprintf(w, "✗ Aborted: %v\n", runErr)
	case warnings > 0:
		yellow.Fprintf(w, "Completed with %d warning(s)\n", warnings)
	default:
		green.Fprintln(w, "✓ All snapshots imported")
	}
}
