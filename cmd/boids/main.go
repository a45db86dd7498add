package main

import (
	"context"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-flocking/internal/viewer"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
)

func main() {
	ctx := context.Background()
	logger := golog.New(golog.InfoLevel, os.Stdout)

	// 1. Configure the rules: defaults, or a JSON/TOML file given as first argument
	cfg := simulation.DefaultConfig()
	if len(os.Args) > 1 {
		loaded, err := simulation.LoadConfig(os.Args[1])
		if err != nil {
			logger.Fatalf("cannot load %s: %v", os.Args[1], err)
		}
		cfg = loaded
	}

	// 2. The actor system hosts the world actor that owns the flock
	system, err := actor.NewActorSystem("FlockingWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		logger.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		logger.Fatal(err)
	}
	defer func() { _ = system.Stop(ctx) }()

	game, err := viewer.NewGame(ctx, cfg, system)
	if err != nil {
		logger.Fatal(err)
	}

	ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
	ebiten.SetWindowTitle("Boids")
	if err := ebiten.RunGame(game); err != nil {
		logger.Error(err)
	}
}
