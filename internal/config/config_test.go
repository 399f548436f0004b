package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tma-mapper/internal/region"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to validate, got %v", err)
	}
	if cfg.RegionParams() != region.DefaultParams() {
		t.Errorf("Expected region defaults %+v, got %+v", region.DefaultParams(), cfg.RegionParams())
	}

	s := cfg.SearchParams()
	if s.Fine.Start != -10 || s.Fine.End != 10 || s.Fine.Step != 1 {
		t.Errorf("Expected fine range -10..10 step 1, got %+v", s.Fine)
	}
	if s.Coarse.Start != -90 || s.Coarse.End != 90 || s.Coarse.Step != 2 {
		t.Errorf("Expected coarse range -90..90 step 2, got %+v", s.Coarse)
	}
	if cfg.Output.Workers < 1 {
		t.Errorf("Expected at least one worker, got %d", cfg.Output.Workers)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Segmentation.MinArea != 50 {
		t.Errorf("Expected default MinArea 50, got %d", cfg.Segmentation.MinArea)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
segmentation:
  minArea: 80
  distanceMultiplier: 0.5
grid:
  optimize: true
  startingX: 12.5
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Segmentation.MinArea != 80 {
		t.Errorf("Expected MinArea 80, got %d", cfg.Segmentation.MinArea)
	}
	if cfg.Segmentation.MaxArea != 10000 {
		t.Errorf("Expected untouched MaxArea 10000, got %d", cfg.Segmentation.MaxArea)
	}
	if cfg.RegionParams().DistanceMultiplier != 0.5 {
		t.Errorf("Expected δ 0.5, got %v", cfg.RegionParams().DistanceMultiplier)
	}
	if !cfg.Grid.Optimize {
		t.Error("Expected optimize to be enabled")
	}
	if cfg.Hyperparameters().StartingX != 12.5 {
		t.Errorf("Expected StartingX 12.5, got %v", cfg.Hyperparameters().StartingX)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level debug, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "segmentation: [1, 2"},
		{"zero delta", "segmentation:\n  distanceMultiplier: 0\n"},
		{"bad connectivity", "segmentation:\n  connectivity: 6\n"},
		{"zero fine step", "grid:\n  fineStep: 0\n"},
		{"zero workers", "output:\n  workers: 0\n"},
		{"bad level", "logging:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestValidateWrapsPrecondition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Segmentation.MinArea = 0

	err := cfg.Validate()
	if !errors.Is(err, region.ErrPrecondition) {
		t.Errorf("Expected ErrPrecondition, got %v", err)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Grid.Optimize = true
	cfg.Output.StageDir = "out/stages"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !loaded.Grid.Optimize || loaded.Output.StageDir != "out/stages" {
		t.Errorf("Expected saved values, got optimize=%v stageDir=%q", loaded.Grid.Optimize, loaded.Output.StageDir)
	}
}
