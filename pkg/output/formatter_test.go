package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/ritzau/netscene/pkg/importer"
	"github.com/ritzau/netscene/pkg/scene"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestPrintImportReport(t *testing.T) {
	var buf bytes.Buffer
	PrintImportReport(&buf, &importer.Report{
		Frame:     24,
		NodesPath: "t1_vdata.csv",
		EdgesPath: "t1_edata.csv",
		Nodes:     3,
		Edges:     2,
		Created:   4,
		Updated:   1,
		Skipped:   1,
		Warnings:  []string{"shape template not found, node skipped node=C shape=star"},
	})

	out := buf.String()
	for _, want := range []string{
		"Frame 24",
		"t1_vdata.csv + t1_edata.csv",
		"nodes 3, edges 2",
		"created 4, updated 1, skipped 1",
		"! shape template not found",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "rebuilt") {
		t.Errorf("Zero counters should be omitted:\n%s", out)
	}
}

func TestPrintSummary(t *testing.T) {
	doc := &scene.Document{
		Frames:      []int{0, 24},
		Collections: map[string][]string{"nodes": {"A"}},
		Objects:     []*scene.Object{scene.NewMesh("A", scene.ShapeSphere)},
	}

	var buf bytes.Buffer
	PrintSummary(&buf, []*importer.Report{{}, {}}, doc, "scene.json", nil)
	out := buf.String()
	if !strings.Contains(out, "Snapshots: 2") || !strings.Contains(out, "Written:   scene.json") {
		t.Errorf("Unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "All snapshots imported") {
		t.Errorf("Expected success line:\n%s", out)
	}

	buf.Reset()
	PrintSummary(&buf, nil, doc, "", errors.New("missing column name"))
	if !strings.Contains(buf.String(), "Aborted: missing column name") {
		t.Errorf("Expected abort line:\n%s", buf.String())
	}
}
