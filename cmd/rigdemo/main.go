// Package main runs a headless rigging demo: it loads an annotated scene
// file, rigs it into a physics world and steps the simulation, logging
// body poses as it goes.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/bandinopla/threejs-cannones-rigger/internal/config"
	"github.com/bandinopla/threejs-cannones-rigger/internal/logger"
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

	if config.WriteConfigRequested() {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("config written to", config.ConfigDir())
		return
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Log.Error("demo failed", zap.Error(err))
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

	rigFromFile := func() error {
		root, err := scenefile.Load(cfg.Scene.Path)
		if err != nil {
			return err
		}
		session.Clear()
		if err := session.RigScene(root); err != nil {
			return err
		}
		logger.Log.Info("scene rigged",
			zap.String("scene", cfg.Scene.Path),
			zap.Int("bodies", world.NumBodies()),
			zap.Int("constraints", world.NumConstraints()),
		)
		return nil
	}

	if err := rigFromFile(); err != nil {
		return err
	}

	reload := make(chan struct{}, 1)
	if cfg.Scene.Watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("starting scene watcher: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(cfg.Scene.Path); err != nil {
			return fmt.Errorf("watching %s: %w", cfg.Scene.Path, err)
		}
		go func() {
			for event := range watcher.Events {
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					select {
					case reload <- struct{}{}:
					default:
					}
				}
			}
		}()
		logger.Log.Info("watching scene file", zap.String("path", cfg.Scene.Path))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	stepHz := cfg.Simulation.StepHz
	if stepHz <= 0 {
		stepHz = 60
	}
	dt := 1.0 / float32(stepHz)
	ticker := time.NewTicker(time.Second / time.Duration(stepHz))
	defer ticker.Stop()

	var elapsed float32
	var sinceReport float32
	for {
		select {
		case <-quit:
			logger.Log.Info("interrupted")
			return nil
		case <-reload:
			logger.Log.Info("scene file changed, re-rigging")
			if err := rigFromFile(); err != nil {
				logger.Log.Warn("re-rig failed, keeping previous rig", zap.Error(err))
			}
		case <-ticker.C:
			world.Step(dt)
			session.Update(dt)
			elapsed += dt
			sinceReport += dt
			if sinceReport >= 1 {
				sinceReport = 0
				reportPoses(world)
			}
			if cfg.Simulation.Duration > 0 && elapsed >= cfg.Simulation.Duration {
				logger.Log.Info("done", zap.Float32("seconds", elapsed))
				return nil
			}
		}
	}
}

func reportPoses(world *dynamics.World) {
	for _, body := range world.Bodies() {
		if body.Static() || body.Name == "" {
			continue
		}
		p := body.Position
		logger.Log.Info("body",
			zap.String("name", body.Name),
			zap.Float32("x", p.X),
			zap.Float32("y", p.Y),
			zap.Float32("z", p.Z),
		)
	}
}
