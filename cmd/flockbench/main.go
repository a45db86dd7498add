package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/simulation"
	golog "github.com/tochemey/goakt/v3/log"
	"github.com/ttacon/chalk"
	"github.com/urfave/cli"
)

func failWith(err error) {
	fmt.Println(chalk.Red.Color("=== ❌ " + err.Error()))
	os.Exit(1)
}

func main() {
	app := makeapp()
	if err := app.Run(os.Args); err != nil {
		failWith(err)
	}
}

func makeapp() *cli.App {
	app := cli.NewApp()
	app.Name = "flockbench"
	app.Usage = "Run the flock without a window and report its throughput"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "", Usage: "JSON or TOML config file"},
		cli.IntFlag{Name: "ticks", Value: 1000, Usage: "Number of ticks to run"},
		cli.Float64Flag{Name: "dt", Value: 1.0 / 60, Usage: "Elapsed seconds per tick"},
		cli.IntFlag{Name: "agents", Usage: "Population size; overrides the config"},
		cli.StringFlag{Name: "neighborhood", Usage: "linear, grid or rtree; overrides the config"},
		cli.StringFlag{Name: "boundary", Usage: "wrap, reflect or unbounded; overrides the config"},
		cli.IntFlag{Name: "workers", Usage: "Goroutines per tick phase (0 = one per CPU); overrides the config"},
		cli.IntFlag{Name: "seed", Usage: "Population seed; overrides the config"},
		cli.IntFlag{Name: "report", Value: 100, Usage: "Print statistics every N ticks"},
		cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		cli.StringFlag{Name: "profile", Value: "", Usage: "Write a CPU profile to this file"},
	}
	app.Action = func(c *cli.Context) error {
		cfg, err := configFrom(c)
		if err != nil {
			return err
		}

		if path := c.String("profile"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		level := golog.InfoLevel
		if c.Bool("debug") {
			level = golog.DebugLevel
		}
		return benchAction(cfg, c.Int("ticks"), c.Float64("dt"), c.Int("report"), golog.New(level, os.Stdout))
	}
	return app
}

// configFrom loads the config file, if any, then applies the command line overrides.
func configFrom(c *cli.Context) (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := simulation.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.IsSet("agents") {
		cfg.Population = c.Int("agents")
	}
	if c.IsSet("neighborhood") {
		cfg.Neighborhood = c.String("neighborhood")
	}
	if c.IsSet("boundary") {
		cfg.Boundary = c.String("boundary")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("seed") {
		cfg.Seed = uint64(c.Int("seed"))
	}
	return cfg, nil
}

func benchAction(cfg *simulation.Config, ticks int, dt float64, report int, logger golog.Logger) error {
	flock, err := simulation.NewFlockFromConfig(cfg, simulation.WithLogger(logger))
	if err != nil {
		return err
	}
	params := cfg.Parameters

	fmt.Print(chalk.Green)
	fmt.Printf("flocking %d agents for %d ticks (%s neighborhood, %s boundary)\n",
		flock.Len(), ticks, flock.Neighborhood().Name(), cfg.Boundary)
	fmt.Print(chalk.Reset)

	start := time.Now()
	for i := 1; i <= ticks; i++ {
		flock.Tick(dt, &params)
		if report > 0 && i%report == 0 {
			printStats(i, flock)
		}
	}
	elapsed := time.Since(start)

	fmt.Print(chalk.Yellow)
	fmt.Printf("%d ticks in %s: %.1f ticks/s, %.0f agent updates/s\n",
		ticks, elapsed.Round(time.Millisecond),
		float64(ticks)/elapsed.Seconds(),
		float64(ticks*flock.Len())/elapsed.Seconds())
	fmt.Print(chalk.Reset)
	printStats(ticks, flock)
	return nil
}

func printStats(tick int, flock *simulation.Flock) {
	stats := flock.Stats()
	fmt.Printf("%s tick %6d%s  polarization %.3f  mean neighbors %.2f\n",
		chalk.Blue, tick, chalk.Reset,
		behavior.Polarization(flock.Agents()), stats.MeanNeighbors)
}
