package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Simulation.Gravity != [3]float32{0, -9.82, 0} {
		t.Fatalf("gravity = %v", cfg.Simulation.Gravity)
	}
	if cfg.Simulation.StepHz != 60 {
		t.Fatalf("step_hz = %d", cfg.Simulation.StepHz)
	}
	if cfg.Cable.SegmentsPerUnit != 2 {
		t.Fatalf("segments_per_unit = %v", cfg.Cable.SegmentsPerUnit)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadFromFileMergesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rigger.yaml")
	body := "scene:\n  path: crane.yaml\nsimulation:\n  substeps: 4\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}

	if cfg.Scene.Path != "crane.yaml" {
		t.Fatalf("scene path = %q", cfg.Scene.Path)
	}
	if cfg.Simulation.Substeps != 4 {
		t.Fatalf("substeps = %d", cfg.Simulation.Substeps)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Simulation.SolverIterations != 8 {
		t.Fatalf("solver_iterations = %d", cfg.Simulation.SolverIterations)
	}
	if cfg.Viewer.Width != 1280 {
		t.Fatalf("viewer width = %d", cfg.Viewer.Width)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "rigger.yaml")

	cfg := Default()
	cfg.Cable.SegmentRadius = 0.08
	cfg.Logging.Level = "debug"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}
	if loaded.Cable.SegmentRadius != 0.08 {
		t.Fatalf("segment_radius = %v", loaded.Cable.SegmentRadius)
	}
	if loaded.Logging.Level != "debug" {
		t.Fatalf("log level = %q", loaded.Logging.Level)
	}
}

func TestLoadBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rigger.yaml")
	if err := os.WriteFile(path, []byte("simulation: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := loadFromFile(Default(), path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
