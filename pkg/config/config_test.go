package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"), nil)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Interval != 24 || cfg.NodeMarker != "vdata" || cfg.EdgeMarker != "edata" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.Out != "scene.json" || cfg.Port != 8080 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestLoadLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netscene.toml")
	content := strings.Join([]string{
		`folder = "snapshots"`,
		`interval = 12`,
		`port = 9000`,
		`[templates]`,
		`star = "sphere"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("NETSCENE_PORT", "9090")
	t.Setenv("NETSCENE_EDGE_MARKER", "links")

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Int("interval", 24, "")
	f.Int("port", 8080, "")
	f.String("node-marker", "vdata", "")
	if err := f.Parse([]string{"--interval=6", "--node-marker=nodes"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path, f)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Folder != "snapshots" {
		t.Errorf("Folder = %q, want value from file", cfg.Folder)
	}
	if cfg.Interval != 6 {
		t.Errorf("Interval = %d, want flag value 6", cfg.Interval)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want env value 9090 over file and unset flag", cfg.Port)
	}
	if cfg.NodeMarker != "nodes" {
		t.Errorf("NodeMarker = %q, want flag value nodes", cfg.NodeMarker)
	}
	if cfg.EdgeMarker != "links" {
		t.Errorf("EdgeMarker = %q, want links", cfg.EdgeMarker)
	}
	if cfg.Templates["star"] != "sphere" {
		t.Errorf("Templates = %v", cfg.Templates)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Nodes:      "n.csv",
			Edges:      "e.csv",
			Interval:   24,
			NodeMarker: "vdata",
			EdgeMarker: "edata",
			Port:       8080,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"single mode", func(c *Config) {}, ""},
		{"batch mode", func(c *Config) { c.Nodes, c.Edges, c.Folder = "", "", "dir" }, ""},
		{"watch batch", func(c *Config) { c.Nodes, c.Edges, c.Folder, c.Watch = "", "", "dir", true }, ""},
		{"missing edges", func(c *Config) { c.Edges = "" }, "both nodes and edges"},
		{"folder and tables", func(c *Config) { c.Folder = "dir" }, "cannot be combined"},
		{"negative frame", func(c *Config) { c.Frame = -1 }, "frame must not be negative"},
		{"zero interval", func(c *Config) { c.Nodes, c.Edges, c.Folder, c.Interval = "", "", "dir", 0 }, "interval"},
		{"watch without folder", func(c *Config) { c.Watch = true }, "watch requires folder"},
		{"same markers", func(c *Config) { c.EdgeMarker = "vdata" }, "must differ"},
		{"bad port", func(c *Config) { c.Serve, c.Port = true, 0 }, "port"},
		{"bad template", func(c *Config) { c.Templates = map[string]string{"star": "torus"} }, "torus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
