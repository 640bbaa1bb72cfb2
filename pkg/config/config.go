package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/ritzau/netscene/pkg/scene"
	"github.com/spf13/pflag"
)

// FileName is the optional config file read from the working directory
const FileName = "netscene.toml"

// EnvPrefix prefixes environment overrides, e.g. NETSCENE_PORT=9090
const EnvPrefix = "NETSCENE_"

// Config holds all configuration for the application
type Config struct {
	Nodes      string `koanf:"nodes"`
	Edges      string `koanf:"edges"`
	Frame      int    `koanf:"frame"`
	Folder     string `koanf:"folder"`
	Interval   int    `koanf:"interval"`
	NodeMarker string `koanf:"node_marker"`
	EdgeMarker string `koanf:"edge_marker"`
	Out        string `koanf:"out"`
	Backfill   bool   `koanf:"backfill"`
	Watch      bool   `koanf:"watch"`
	Serve      bool   `koanf:"serve"`
	Port       int    `koanf:"port"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`
	JSONLogs   bool   `koanf:"json_logs"`
	// Templates maps a template object name to the builtin shape it is
	// built from, e.g. star = "sphere"
	Templates map[string]string `koanf:"templates"`
}

// Defaults returns the default value of every key
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"nodes":       "",
		"edges":       "",
		"frame":       0,
		"folder":      "",
		"interval":    24,
		"node_marker": "vdata",
		"edge_marker": "edata",
		"out":         "scene.json",
		"backfill":    false,
		"watch":       false,
		"serve":       false,
		"port":        8080,
		"verbosity":   "",
		"verbose":     0,
		"json_logs":   false,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(FileName, f)
}

// LoadFile is Load with an explicit config file path
func LoadFile(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider(path), toml.Parser())

	// 3. Environment Variables
	// NETSCENE_NODE_MARKER=nodes sets node_marker; NETSCENE_TEMPLATES__STAR
	// sets templates.star
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	// --node-marker sets node_marker
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			return strings.ReplaceAll(fl.Name, "-", "_"), posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// BatchMode reports whether the run imports a folder rather than one pair
func (c *Config) BatchMode() bool {
	return c.Folder != ""
}

// Validate checks that the run parameters describe one runnable mode
func (c *Config) Validate() error {
	var errs []error

	if c.BatchMode() {
		if c.Nodes != "" || c.Edges != "" {
			errs = append(errs, errors.New("folder cannot be combined with nodes/edges"))
		}
		if c.Interval < 1 {
			errs = append(errs, fmt.Errorf("interval must be at least 1, got %d", c.Interval))
		}
	} else {
		if c.Nodes == "" || c.Edges == "" {
			errs = append(errs, errors.New("either folder or both nodes and edges are required"))
		}
		if c.Watch {
			errs = append(errs, errors.New("watch requires folder"))
		}
	}

	if c.Frame < 0 {
		errs = append(errs, fmt.Errorf("frame must not be negative, got %d", c.Frame))
	}
	if c.NodeMarker == "" || c.EdgeMarker == "" {
		errs = append(errs, errors.New("node_marker and edge_marker must not be empty"))
	}
	if c.NodeMarker != "" && c.NodeMarker == c.EdgeMarker {
		errs = append(errs, fmt.Errorf("node_marker and edge_marker must differ, both are %q", c.NodeMarker))
	}
	if c.Serve && (c.Port < 1 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	for name, shape := range c.Templates {
		if _, ok := scene.ParseShape(shape); !ok {
			errs = append(errs, fmt.Errorf("template %s: unknown builtin shape %q", name, shape))
		}
	}

	return errors.Join(errs...)
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
