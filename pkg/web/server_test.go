package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/netscene/pkg/importer"
	"github.com/ritzau/netscene/pkg/material"
	"github.com/ritzau/netscene/pkg/scene"
	"github.com/ritzau/netscene/pkg/snapshot"
	"gonum.org/v1/gonum/spatial/r3"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	imp := importer.New(scene.New(), importer.Options{})
	a := snapshot.NodeRecord{Name: "A", Shape: "sphere", Size: 1, Color: material.RGB{R: 1}}
	b := snapshot.NodeRecord{Name: "B", Shape: "cube", Size: 1, Position: r3.Vec{X: 10}}
	snap := &snapshot.Snapshot{
		Nodes: []snapshot.NodeRecord{a, b},
		Edges: []snapshot.EdgeRecord{{
			Name: "A_B", FromName: "A", ToName: "B",
			From: a.Position, To: b.Position, Thickness: 0.1, Is3D: true,
		}},
	}
	for _, frame := range []int{0, 24} {
		if _, err := imp.Import(context.Background(), snap, frame); err != nil {
			t.Fatalf("Import() error = %v", err)
		}
	}
	return NewServer(imp)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSceneEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/scene")

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header from middleware")
	}

	var doc scene.Document
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode scene: %v", err)
	}
	if len(doc.Objects) != 3 || len(doc.Materials) != 3 {
		t.Errorf("Expected 3 objects and 3 materials, got %d and %d", len(doc.Objects), len(doc.Materials))
	}
	if len(doc.Frames) != 2 || doc.Frames[1] != 24 {
		t.Errorf("Frames = %v, want [0 24]", doc.Frames)
	}
}

func TestObjectsEndpoint(t *testing.T) {
	s := newTestServer(t)

	var all []ObjectSummary
	if err := json.NewDecoder(get(t, s, "/api/objects").Body).Decode(&all); err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Name != "A" {
		t.Fatalf("Unexpected listing: %+v", all)
	}
	if all[0].Keyframes != 2 || all[0].Material != "A_mat" {
		t.Errorf("Unexpected summary: %+v", all[0])
	}

	var curves []ObjectSummary
	if err := json.NewDecoder(get(t, s, "/api/objects?kind=curve").Body).Decode(&curves); err != nil {
		t.Fatal(err)
	}
	if len(curves) != 1 || curves[0].Name != "A_B" || curves[0].Collection != "edges" {
		t.Errorf("Unexpected curve listing: %+v", curves)
	}
}

func TestObjectAndMaterialLookup(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/api/objects/A_B")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var obj scene.Object
	if err := json.NewDecoder(rec.Body).Decode(&obj); err != nil {
		t.Fatal(err)
	}
	if obj.Curve == nil || len(obj.Curve.Points) != 2 {
		t.Errorf("Expected straight curve, got %+v", obj.Curve)
	}

	rec = get(t, s, "/api/materials/A_mat")
	var mat scene.Material
	if err := json.NewDecoder(rec.Body).Decode(&mat); err != nil {
		t.Fatal(err)
	}
	if mat.Params.Color != (material.RGB{R: 1}) {
		t.Errorf("Color = %v, want red", mat.Params.Color)
	}

	if rec := get(t, s, "/api/objects/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("Missing object status = %d, want 404", rec.Code)
	}
	if rec := get(t, s, "/api/materials/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("Missing material status = %d, want 404", rec.Code)
	}
	if rec := get(t, s, "/api/subscribe/unknown"); rec.Code != http.StatusNotFound {
		t.Errorf("Unknown topic status = %d, want 404", rec.Code)
	}
}

func TestSubscribeImports(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/subscribe/imports", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Subscribe request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != ": connected" {
		t.Fatalf("Expected connection comment, got %q", lines.Text())
	}

	if err := s.PublishImport(nil, "n.csv", "e.csv", 48, errors.New("missing column")); err != nil {
		t.Fatalf("PublishImport() error = %v", err)
	}

	var sawEvent, sawData bool
	for lines.Scan() {
		line := lines.Text()
		if line == "event: import_failed" {
			sawEvent = true
		}
		if strings.HasPrefix(line, "data: ") {
			sawData = strings.Contains(line, "missing column")
			break
		}
	}
	if !sawEvent || !sawData {
		t.Errorf("Expected import_failed event with error text (event=%v data=%v)", sawEvent, sawData)
	}
}
