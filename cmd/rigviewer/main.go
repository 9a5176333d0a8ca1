// Package main opens the wireframe inspector: it rigs an annotated scene
// file and draws every collider, cable and joint while the simulation
// runs. Drag to orbit, scroll to zoom, ESC to quit.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/bandinopla/threejs-cannones-rigger/internal/config"
	"github.com/bandinopla/threejs-cannones-rigger/internal/logger"
	"github.com/bandinopla/threejs-cannones-rigger/internal/viewer"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/dynamics"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/rig"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/scenefile"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Log.Error("viewer failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	g := cfg.Simulation.Gravity
	world := dynamics.NewWorld(math.Vec3{X: g[0], Y: g[1], Z: g[2]})
	world.Substeps = cfg.Simulation.Substeps
	world.SolverIterations = cfg.Simulation.SolverIterations

	session := rig.NewSession(world, logger.Log)
	session.Cable = rig.CableOptions{
		SegmentsPerUnit: cfg.Cable.SegmentsPerUnit,
		SegmentRadius:   cfg.Cable.SegmentRadius,
		SegmentMass:     cfg.Cable.SegmentMass,
	}

	root, err := scenefile.Load(cfg.Scene.Path)
	if err != nil {
		return err
	}
	if err := session.RigScene(root); err != nil {
		return err
	}
	logger.Log.Info("scene rigged",
		zap.String("scene", cfg.Scene.Path),
		zap.Int("bodies", world.NumBodies()),
		zap.Int("constraints", world.NumConstraints()),
	)

	window, err := viewer.NewWindow(viewer.WindowConfig{
		Title:  "cannones rigger - " + cfg.Scene.Path,
		Width:  cfg.Viewer.Width,
		Height: cfg.Viewer.Height,
		VSync:  cfg.Viewer.VSync,
	}, logger.Log)
	if err != nil {
		return err
	}
	defer window.Close()

	view, err := viewer.New(window, logger.Log)
	if err != nil {
		return err
	}
	defer view.Close()

	view.Run(world, session, cfg.Simulation.StepHz, func(dt float32) {
		world.Step(dt)
		session.Update(dt)
	})
	return nil
}
