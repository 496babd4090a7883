package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Versifine/grasp/internal/config"
	"github.com/Versifine/grasp/internal/content"
	"github.com/Versifine/grasp/internal/debug"
	"github.com/Versifine/grasp/internal/event"
	"github.com/Versifine/grasp/internal/input"
	"github.com/Versifine/grasp/internal/interaction"
	"github.com/Versifine/grasp/internal/logger"
	"github.com/Versifine/grasp/internal/sim"
)

func main() {

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	closer, err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		slog.Error("Failed to open log file", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	manifest, err := content.Load(cfg.Scene.Manifest)
	if err != nil {
		slog.Error("Failed to load scene manifest", "path", cfg.Scene.Manifest, "error", err)
		os.Exit(1)
	}
	world, err := content.Build(manifest, cfg.Session, nil)
	if err != nil {
		slog.Error("Failed to build scene", "error", err)
		os.Exit(1)
	}

	bus := event.NewBus()
	sim.LogEvents(bus)
	simulation, err := sim.New(sim.Options{
		World:        world,
		Descriptors:  descriptors(cfg.Actuators),
		SpawnTimeout: cfg.Spawn.LoadTimeout.Std(),
		Interval:     cfg.Tick.Interval.Std(),
		Bus:          bus,
		Logger:       logger.L(),
	})
	if err != nil {
		slog.Error("Failed to start simulation", "error", err)
		os.Exit(1)
	}
	slog.Info("Scene loaded",
		"manifest", cfg.Scene.Manifest,
		"interactables", world.Registry.Len(),
		"assets", len(world.Library.Sources()),
		"session", cfg.Session,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Debug.Console {
		err = debug.NewConsole(simulation, cfg.Tick.Interval.Std()).Start(ctx)
	} else {
		err = simulation.Run(ctx)
	}
	bus.Drain()
	if err != nil {
		slog.Error("Simulation stopped", "error", err)
		os.Exit(1)
	}

}

func descriptors(paths config.ActuatorsConfig) map[interaction.Source]interaction.Descriptor {
	descs := interaction.DefaultDescriptors(content.LeftPose, content.RightPose, content.CursorPose)
	overrides := map[interaction.Source]config.PathConfig{
		interaction.LeftHand:  paths.LeftHand,
		interaction.RightHand: paths.RightHand,
		interaction.Cursor:    paths.Cursor,
	}
	for src, p := range overrides {
		d := descs[src]
		d.Grab = input.Path(p.Grab).Or(d.Grab)
		d.Drop = input.Path(p.Drop).Or(d.Drop)
		descs[src] = d
	}
	return descs
}
