// Package projectconfig provides the ProjectConfig struct and loader for
// .gradestat.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gradestat/gradestat/internal/statistics"
)

// Default values for project configuration. Sampler defaults live in the
// statistics package; New() references them and no other code should
// duplicate them.
const (
	DefaultStorePath = "gradestat.db"

	DefaultConfidence = 0.95

	DefaultServerHost = "127.0.0.1"
	DefaultServerPort = 3000
)

// StoreConfig holds subject database settings.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// BootstrapConfig holds bootstrap sampler defaults. Precision is a pointer
// because zero is meaningful (round bounds to integers).
type BootstrapConfig struct {
	Replicates int     `yaml:"replicates,omitempty"`
	Workers    int     `yaml:"workers,omitempty"`
	Precision  *int    `yaml:"precision,omitempty"`
	Confidence float64 `yaml:"confidence,omitempty"`
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .gradestat.yaml.
type ProjectConfig struct {
	Store     StoreConfig     `yaml:"store,omitempty"`
	Bootstrap BootstrapConfig `yaml:"bootstrap,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
		Bootstrap: BootstrapConfig{
			Replicates: statistics.DefaultReplicates,
			Workers:    statistics.DefaultWorkers,
			Precision:  intPtr(statistics.DefaultPrecision),
			Confidence: DefaultConfidence,
		},
		Server: ServerConfig{
			Host: DefaultServerHost,
			Port: DefaultServerPort,
		},
	}
}

// Load finds .gradestat.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading .gradestat.yaml: %w", err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing .gradestat.yaml: %w", err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// BootstrapOptions converts the configured sampler defaults into statistics
// options with the given seed.
func (c *ProjectConfig) BootstrapOptions(seed int64) statistics.Options {
	opts := statistics.Options{
		Replicates: c.Bootstrap.Replicates,
		Seed:       seed,
		Workers:    c.Bootstrap.Workers,
		Precision:  statistics.DefaultPrecision,
	}
	if c.Bootstrap.Precision != nil {
		opts.Precision = *c.Bootstrap.Precision
	}
	return opts
}

// findConfigFile walks up from dir looking for .gradestat.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates
// real I/O errors (e.g. permission denied) instead of silently swallowing
// them.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ".gradestat.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Store.Path != "" {
		dst.Store.Path = src.Store.Path
	}

	if src.Bootstrap.Replicates != 0 {
		dst.Bootstrap.Replicates = src.Bootstrap.Replicates
	}
	if src.Bootstrap.Workers != 0 {
		dst.Bootstrap.Workers = src.Bootstrap.Workers
	}
	if src.Bootstrap.Precision != nil {
		dst.Bootstrap.Precision = src.Bootstrap.Precision
	}
	if src.Bootstrap.Confidence != 0 {
		dst.Bootstrap.Confidence = src.Bootstrap.Confidence
	}

	if src.Server.Host != "" {
		dst.Server.Host = src.Server.Host
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
}

func intPtr(i int) *int {
	return &i
}
