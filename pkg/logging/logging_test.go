package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := slog.New(h).With("frame", 24)

	log.Warn("shape template not found", "node", "A", "shape", "star burst", "durationMs", 12)

	out := buf.String()
	for _, want := range []string{
		"[WARN]  ",
		"shape template not found | ",
		"frame=24",
		"node=A",
		`shape="star burst"`,
		"duration=12ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output %q does not contain %q", out, want)
		}
	}
}

func TestCompactHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, nil)
	log := slog.New(h).With("frame", 24).WithGroup("edge").With("name", "A_B")

	log.Info("edge keyed", "points", 3, slog.Group("arrow", "size", 0.5))

	out := buf.String()
	for _, want := range []string{
		"| frame=24 ",
		"edge.name=A_B",
		"edge.points=3",
		"edge.arrow.size=0.5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output %q does not contain %q", out, want)
		}
	}
}

func TestCompactHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	log := slog.New(h)

	log.Debug("hidden")
	log.Log(context.Background(), LevelTrace, "also hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below info, got %q", buf.String())
	}
}

func TestContextIDsAreShortened(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	ctx := WithRunID(context.Background(), "0123456789abcdef")
	InfoContext(ctx, "import started")

	if !strings.Contains(buf.String(), "run=01234567") {
		t.Errorf("Expected shortened run ID, got %q", buf.String())
	}
	if GetRunID(ctx) != "0123456789abcdef" {
		t.Errorf("GetRunID() = %q", GetRunID(ctx))
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		verbose int
		want    slog.Level
		wantErr bool
	}{
		{"", 0, slog.LevelInfo, false},
		{"", 1, slog.LevelDebug, false},
		{"", 3, LevelTrace, false},
		{"warn", 2, slog.LevelWarn, false},
		{"TRACE", 0, LevelTrace, false},
		{"loud", 0, slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.name, tt.verbose)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q, %d) error = %v, wantErr %v", tt.name, tt.verbose, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q, %d) = %v, want %v", tt.name, tt.verbose, got, tt.want)
		}
	}
}
