// Package config loads trainer presets from HCL files.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the root of a trainer configuration file.
type Config struct {
	Training TrainingConfig `hcl:"training,block"`
}

// TrainingConfig mirrors the trainer CLI: a preset for long runs that flags
// can still override.
type TrainingConfig struct {
	Algorithm     string `hcl:"algorithm,optional"`
	Iterations    int    `hcl:"iterations,optional"`
	Seed          *int64 `hcl:"seed,optional"`
	OutputDir     string `hcl:"output_dir,optional"`
	ProgressEvery int    `hcl:"progress_every,optional"`
	SnapshotEvery int    `hcl:"snapshot_every,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Training: TrainingConfig{
			Algorithm:     "vanilla",
			ProgressEvery: 1000,
			SnapshotEvery: 10_000_000,
		},
	}
}

// Load parses an HCL configuration file, filling unset fields with defaults.
// A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse config: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode config: %s", diags.Error())
	}

	defaults := Default()
	if cfg.Training.Algorithm == "" {
		cfg.Training.Algorithm = defaults.Training.Algorithm
	}
	if cfg.Training.ProgressEvery == 0 {
		cfg.Training.ProgressEvery = defaults.Training.ProgressEvery
	}
	if cfg.Training.SnapshotEvery == 0 {
		cfg.Training.SnapshotEvery = defaults.Training.SnapshotEvery
	}
	return &cfg, nil
}

// Validate ensures the preset is usable before a run starts.
func (c *Config) Validate() error {
	switch c.Training.Algorithm {
	case "vanilla", "chance", "external", "outcome":
	default:
		return fmt.Errorf("unknown algorithm %q", c.Training.Algorithm)
	}
	if c.Training.Iterations < 0 {
		return errors.New("iterations cannot be negative")
	}
	if c.Training.ProgressEvery <= 0 {
		return errors.New("progress_every must be positive")
	}
	if c.Training.SnapshotEvery <= 0 {
		return errors.New("snapshot_every must be positive")
	}
	return nil
}
