// Package config loads the optional attest.toml project manifest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file searched for from the start directory up.
const FileName = "attest.toml"

// Config is the full manifest. Every section is optional; Defaults fills
// the values a missing file or key would have.
type Config struct {
	Test   TestConfig   `toml:"test"`
	Cache  CacheConfig  `toml:"cache"`
	Output OutputConfig `toml:"output"`
}

type TestConfig struct {
	// Patterns are glob patterns matched against file base names to decide
	// which modules get assertion rewriting.
	Patterns []string `toml:"patterns"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // empty: per-source-directory artifact folders
}

type OutputConfig struct {
	Color string `toml:"color"` // auto, on, off
}

// Manifest couples a loaded config with where it came from.
type Manifest struct {
	Path   string // manifest file path
	Root   string // its directory, the project root
	Config Config
}

// Defaults returns the configuration an absent manifest implies.
func Defaults() Config {
	return Config{
		Test:   TestConfig{Patterns: []string{"test_*.att", "*_test.att"}},
		Cache:  CacheConfig{Enabled: true},
		Output: OutputConfig{Color: "auto"},
	}
}

// Find walks from startDir toward the filesystem root looking for the
// manifest file.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and parses the manifest. ok is false when no manifest exists,
// in which case the returned manifest carries Defaults and no root.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &Manifest{Config: Defaults()}, false, nil
	}
	cfg, err := parseFile(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

func parseFile(path string) (Config, error) {
	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	switch cfg.Output.Color {
	case "auto", "on", "off":
	default:
		return Config{}, fmt.Errorf("%s: [output].color must be auto, on or off, got %q",
			path, cfg.Output.Color)
	}
	for _, p := range cfg.Test.Patterns {
		if strings.TrimSpace(p) == "" {
			return Config{}, fmt.Errorf("%s: [test].patterns contains an empty pattern", path)
		}
		if _, err := filepath.Match(p, "probe"); err != nil {
			return Config{}, fmt.Errorf("%s: [test].patterns: bad pattern %q", path, p)
		}
	}
	return cfg, nil
}
