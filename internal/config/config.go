// Package config handles configuration loading and shared data structures.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Kheng2023/SamYong2025/internal/heatmap"
)

// Config represents the root configuration file structure.
type Config struct {
	Host    string `yaml:"host,omitempty"`
	Port    string `yaml:"port,omitempty"`
	DataDir string `yaml:"data_dir,omitempty"`
	// DB names the DuckDB sink database. Empty disables the sink.
	DB string `yaml:"db,omitempty"`

	// Layers describe heatmaps to bake from source files.
	Layers []Layer `yaml:"layers,omitempty"`
	// Combine optionally merges all baked layers into one grid.
	Combine *Combine `yaml:"combine,omitempty"`
}

// Layer is one heatmap bake job: a source file plus its rasterization
// configuration.
type Layer struct {
	Name   string                   `yaml:"name"`
	Source string                   `yaml:"source"`
	Config heatmap.ProcessingConfig `yaml:"config"`
}

// Combine describes how baked layers are merged.
type Combine struct {
	Name    string    `yaml:"name"`
	Mode    string    `yaml:"mode,omitempty"`
	Weights []float64 `yaml:"weights,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:    "localhost",
		Port:    "8086",
		DataDir: ".data",
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Missing fields fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
