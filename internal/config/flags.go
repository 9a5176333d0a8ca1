package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagScene       = flag.String("scene", "", "Path to scene file")
	flagWatch       = flag.Bool("watch", false, "Re-rig when the scene file changes")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagDuration    = flag.Float64("duration", -1, "Seconds to simulate (0 = until interrupted)")
	flagWidth       = flag.Int("width", 0, "Viewer window width")
	flagHeight      = flag.Int("height", 0, "Viewer window height")
	flagWriteConfig = flag.Bool("write-config", false, "Write current config to the config dir and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigRequested reports whether -write-config was passed.
func WriteConfigRequested() bool {
	return *flagWriteConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagScene != "" {
		cfg.Scene.Path = *flagScene
	}
	if *flagWatch {
		cfg.Scene.Watch = true
	}
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagDuration >= 0 {
		cfg.Simulation.Duration = float32(*flagDuration)
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
}
