// Package config loads optional JSONC configuration (algorithm
// selection, worker count override, log format), following
// mehmetkoksal-w-mind-palace's apps/cli/internal/jsonc/jsonc.go pattern:
// read the file, strip comments with github.com/muhammadmuzzammil1998/jsonc,
// then json.Unmarshal. Config is never required — every field has a
// spec-consistent default, and CLI flags always override a loaded value.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/muhammadmuzzammil1998/jsonc"

	"github.com/meisterluk/fsintegrity/internal/hashalgo"
)

// Config is the optional on-disk configuration shape.
type Config struct {
	Algorithms []hashalgo.ID `json:"algorithms,omitempty"`
	Workers    int           `json:"workers,omitempty"`
	LogFormat  string        `json:"log_format,omitempty"`
	LogLevel   string        `json:"log_level,omitempty"`
}

// Default returns the registry-default, physical-core-sized, text-format
// configuration used when no config file is given.
func Default() Config {
	return Config{
		Algorithms: []hashalgo.ID{hashalgo.Default},
		Workers:    0, // 0 means "physical CPU count", resolved in internal/scan
		LogFormat:  "text",
		LogLevel:   "warn",
	}
}

// Load reads and decodes a JSONC config file at path. A missing path
// returns Default() with no error, since configuration is always
// optional.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(Clean(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Clean strips // and /* */ comments and trailing commas from JSONC
// source, producing valid JSON.
func Clean(data []byte) []byte {
	return jsonc.ToJSON(data)
}

// AlgorithmSet converts the configured algorithm IDs into a
// hashalgo.Set, validating that every one is known to this binary.
func (c Config) AlgorithmSet() (hashalgo.Set, error) {
	if len(c.Algorithms) == 0 {
		return hashalgo.Set{hashalgo.Default}, nil
	}
	set := make(hashalgo.Set, len(c.Algorithms))
	for i, id := range c.Algorithms {
		if !hashalgo.IsKnown(id) {
			return nil, fmt.Errorf("config: unknown algorithm %q", id)
		}
		set[i] = id
	}
	return set, nil
}
