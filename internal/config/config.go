// Package config handles settings for the demo binaries.
package config

// Config holds all rigger demo settings.
type Config struct {
	Scene      SceneConfig      `yaml:"scene"`
	Simulation SimulationConfig `yaml:"simulation"`
	Cable      CableConfig      `yaml:"cable"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SceneConfig names the scene file driving the demo.
type SceneConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"` // re-rig when the file changes
}

// SimulationConfig holds world stepping settings.
type SimulationConfig struct {
	Gravity          [3]float32 `yaml:"gravity"`
	StepHz           int        `yaml:"step_hz"`
	Substeps         int        `yaml:"substeps"`
	SolverIterations int        `yaml:"solver_iterations"`
	// Duration in seconds for the headless demo; 0 runs until interrupted.
	Duration float32 `yaml:"duration"`
}

// CableConfig holds cable chain tuning.
type CableConfig struct {
	SegmentsPerUnit float32 `yaml:"segments_per_unit"`
	SegmentRadius   float32 `yaml:"segment_radius"`
	SegmentMass     float32 `yaml:"segment_mass"`
}

// ViewerConfig holds the wireframe inspector's window settings.
type ViewerConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	VSync  bool `yaml:"vsync"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scene: SceneConfig{
			Path:  "scene.yaml",
			Watch: false,
		},
		Simulation: SimulationConfig{
			Gravity:          [3]float32{0, -9.82, 0},
			StepHz:           60,
			Substeps:         2,
			SolverIterations: 8,
			Duration:         0,
		},
		Cable: CableConfig{
			SegmentsPerUnit: 2,
			SegmentRadius:   0.05,
			SegmentMass:     0.1,
		},
		Viewer: ViewerConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
