// Package rkvconfig defines the client's YAML configuration surface,
// loaded the way boomballa-df2redis/internal/config loads its own
// (nested struct, sane defaults, a single Load entry point) — repurposing
// gopkg.in/yaml.v3 from describing a migration job to describing a
// cluster client.
package rkvconfig

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Options configures a Client.
type Options struct {
	Seeds           []string      `yaml:"seeds"`
	PoolDialTimeout time.Duration `yaml:"dialTimeout"`
	MaxRetries      int           `yaml:"maxRetries"`
	RefreshInterval time.Duration `yaml:"minRefreshInterval"`
	Password        string        `yaml:"password"`
}

// DefaultOptions returns the baseline configuration a caller can override
// field by field.
func DefaultOptions() Options {
	return Options{
		PoolDialTimeout: 5 * time.Second,
		MaxRetries:      16,
		RefreshInterval: 100 * time.Millisecond,
	}
}

// Load reads a YAML file at path into Options, starting from
// DefaultOptions so an omitted field keeps its default.
func Load(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}
