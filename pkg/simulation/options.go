package simulation

import (
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
	"github.com/tochemey/goakt/v3/log"
)

// Option configures a Flock.
type Option func(*Flock)

// WithLogger sets the logger used to report parameter adjustments.
func WithLogger(logger log.Logger) Option {
	return func(f *Flock) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithWorkers bounds the number of goroutines used per tick phase.
// Values below 1 mean one worker per available CPU.
func WithWorkers(workers int) Option {
	return func(f *Flock) {
		f.workers = workers
	}
}

// WithSeed makes population sampling deterministic.
func WithSeed(seed uint64) Option {
	return func(f *Flock) {
		f.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand injects the random source used by Reseed.
func WithRand(rng *rand.Rand) Option {
	return func(f *Flock) {
		if rng != nil {
			f.rng = rng
		}
	}
}

// WithNeighborhood sets the neighbor search strategy.
func WithNeighborhood(n Neighborhood) Option {
	return func(f *Flock) {
		if n != nil {
			f.neighborhood = n
		}
	}
}

// WithBoundary sets what happens to agents reaching the world edges.
func WithBoundary(policy behavior.BoundaryPolicy) Option {
	return func(f *Flock) {
		f.boundary = policy
	}
}

// WithSerialThreshold sets the population size under which a tick runs on the calling goroutine.
func WithSerialThreshold(n int) Option {
	return func(f *Flock) {
		f.serialThreshold = n
	}
}
