// Package config loads the YAML configuration shared by the command-line
// tools. It handles defaults for a missing file and converts the sections
// into the parameter types of the region and grid packages.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"tma-mapper/internal/grid"
	"tma-mapper/internal/logging"
	"tma-mapper/internal/region"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Segmentation parameters for mask -> region detection
	Segmentation struct {
		// ProbabilityThreshold cuts the mask before Otsu; 0 disables the cut
		ProbabilityThreshold float64 `yaml:"probabilityThreshold"`

		// MinArea and MaxArea bound core areas in pixels, inclusive
		MinArea int `yaml:"minArea"`
		MaxArea int `yaml:"maxArea"`

		// DistanceMultiplier is the fraction of the deepest distance kept as foreground
		DistanceMultiplier float64 `yaml:"distanceMultiplier"`

		OpenIterations int     `yaml:"openIterations"`
		SmallHoleRatio float64 `yaml:"smallHoleRatio"`
		Connectivity   int     `yaml:"connectivity"`
	} `yaml:"segmentation"`

	// Grid angle search parameters
	Grid struct {
		// Optimize enables the rotation search after detection
		Optimize bool `yaml:"optimize"`

		FineStart   int `yaml:"fineStart"`
		FineEnd     int `yaml:"fineEnd"`
		FineStep    int `yaml:"fineStep"`
		CoarseStart int `yaml:"coarseStart"`
		CoarseEnd   int `yaml:"coarseEnd"`
		CoarseStep  int `yaml:"coarseStep"`

		// RowGapFactor scales the median core radius into the row break gap
		RowGapFactor float64 `yaml:"rowGapFactor"`

		// StartingX and StartingY are the rotation origin in mask pixels
		StartingX float64 `yaml:"startingX"`
		StartingY float64 `yaml:"startingY"`
	} `yaml:"grid"`

	// Output parameters
	Output struct {
		// SaveStages writes every intermediate image to StageDir
		SaveStages bool   `yaml:"saveStages"`
		StageDir   string `yaml:"stageDir"`

		// Overlay writes the detected and imaginary cores over the mask
		Overlay bool `yaml:"overlay"`

		// Workers bounds how many masks are processed at once
		Workers int `yaml:"workers"`
	} `yaml:"output"`

	Logging struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	p := region.DefaultParams()
	cfg.Segmentation.ProbabilityThreshold = p.ProbabilityThreshold
	cfg.Segmentation.MinArea = p.MinArea
	cfg.Segmentation.MaxArea = p.MaxArea
	cfg.Segmentation.DistanceMultiplier = p.DistanceMultiplier
	cfg.Segmentation.OpenIterations = p.OpenIterations
	cfg.Segmentation.SmallHoleRatio = p.SmallHoleRatio
	cfg.Segmentation.Connectivity = p.Connectivity

	s := grid.DefaultSearchParams()
	cfg.Grid.Optimize = false
	cfg.Grid.FineStart, cfg.Grid.FineEnd, cfg.Grid.FineStep = s.Fine.Start, s.Fine.End, s.Fine.Step
	cfg.Grid.CoarseStart, cfg.Grid.CoarseEnd, cfg.Grid.CoarseStep = s.Coarse.Start, s.Coarse.End, s.Coarse.Step
	cfg.Grid.RowGapFactor = grid.DefaultHyperparameters().RowGapFactor

	cfg.Output.SaveStages = false
	cfg.Output.StageDir = "stages"
	cfg.Output.Overlay = false
	cfg.Output.Workers = runtime.NumCPU()

	cfg.Logging.Level = "info"
	cfg.Logging.Console = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// RegionParams converts the segmentation section.
func (c *Config) RegionParams() region.Params {
	s := c.Segmentation
	return region.Params{
		ProbabilityThreshold: s.ProbabilityThreshold,
		MinArea:              s.MinArea,
		MaxArea:              s.MaxArea,
		DistanceMultiplier:   s.DistanceMultiplier,
		OpenIterations:       s.OpenIterations,
		SmallHoleRatio:       s.SmallHoleRatio,
		Connectivity:         s.Connectivity,
	}
}

// SearchParams converts the grid search ranges.
func (c *Config) SearchParams() grid.SearchParams {
	g := c.Grid
	return grid.SearchParams{
		Fine:   grid.SearchRange{Start: g.FineStart, End: g.FineEnd, Step: g.FineStep},
		Coarse: grid.SearchRange{Start: g.CoarseStart, End: g.CoarseEnd, Step: g.CoarseStep},
	}
}

// Hyperparameters converts the grid assigner settings.
func (c *Config) Hyperparameters() grid.Hyperparameters {
	return grid.Hyperparameters{
		StartingX:    c.Grid.StartingX,
		StartingY:    c.Grid.StartingY,
		RowGapFactor: c.Grid.RowGapFactor,
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.RegionParams().Validate(); err != nil {
		return fmt.Errorf("segmentation: %w", err)
	}
	if err := c.SearchParams().Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if c.Grid.RowGapFactor <= 0 {
		return fmt.Errorf("grid: rowGapFactor must be positive, got %g", c.Grid.RowGapFactor)
	}
	if c.Output.Workers < 1 {
		return fmt.Errorf("output: workers must be at least 1, got %d", c.Output.Workers)
	}
	if c.Output.SaveStages && c.Output.StageDir == "" {
		return fmt.Errorf("output: stageDir required when saveStages is set")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
