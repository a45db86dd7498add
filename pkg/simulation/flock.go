package simulation

import (
	"math"
	"math/rand/v2"
	"runtime"
	"strings"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
	"github.com/tochemey/goakt/v3/log"
	"golang.org/x/sync/errgroup"
)

// defaultSerialThreshold is the population size under which fanning out costs more than it saves.
const defaultSerialThreshold = 256

// TickStats describes the last completed tick.
type TickStats struct {
	Agents int
	// MeanNeighbors is the average number of agents perceived (both radii), 0 when flocking is off.
	MeanNeighbors float64
}

// Flock is the simulation engine: it owns the agent store and advances it one tick at a time.
//
// A Flock is not safe for concurrent use. Tick and Reseed must be serialized
// by the caller; WorldActor does this through its mailbox.
type Flock struct {
	store           *Store
	rng             *rand.Rand
	neighborhood    Neighborhood
	boundary        behavior.BoundaryPolicy
	bounds          behavior.Bounds
	workers         int
	serialThreshold int
	logger          log.Logger

	// per tick buffers, reused across ticks
	snapshot  []behavior.Agent
	summaries []behavior.NeighborSummary

	lastAdjusted string
	stats        TickStats
}

// NewFlock returns an empty flock. Call Reseed to populate it.
func NewFlock(opts ...Option) *Flock {
	f := &Flock{
		store:           NewStore(),
		rng:             rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		neighborhood:    newGridNeighborhood(),
		boundary:        behavior.BoundaryWrap,
		serialThreshold: defaultSerialThreshold,
		logger:          log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Reseed replaces the whole population with count random agents inside bounds.
// Every previously returned Handle becomes stale.
func (f *Flock) Reseed(count int, bounds behavior.Bounds) {
	f.bounds = bounds
	f.store.Replace(spawnAgents(f.rng, count, bounds))
	f.stats = TickStats{Agents: f.store.Len()}
	f.logger.Infof("reseeded %d agents in %.0fx%.0f (population %s)",
		f.store.Len(), bounds.Width, bounds.Height, f.store.Population())
}

// Populate replaces the whole population with the given agents.
// A heading that cannot be normalized is replaced by a random one.
func (f *Flock) Populate(agents []behavior.Agent, bounds behavior.Bounds) {
	clean := make([]behavior.Agent, len(agents))
	for i, a := range agents {
		heading, ok := a.Heading.TryNormalize()
		if !ok {
			heading = randomHeading(f.rng)
		}
		clean[i] = behavior.Agent{Position: a.Position, Heading: heading}
	}
	f.bounds = bounds
	f.store.Replace(clean)
	f.stats = TickStats{Agents: len(clean)}
}

// Bounds returns the world rectangle used by the boundary policy.
func (f *Flock) Bounds() behavior.Bounds { return f.bounds }

// SetBounds changes the world rectangle without touching the agents, e.g. after a window resize.
func (f *Flock) SetBounds(bounds behavior.Bounds) { f.bounds = bounds }

// Neighborhood returns the current neighbor search strategy.
func (f *Flock) Neighborhood() Neighborhood { return f.neighborhood }

// SetNeighborhood swaps the neighbor search strategy. Results do not depend on it.
func (f *Flock) SetNeighborhood(n Neighborhood) {
	if n != nil {
		f.neighborhood = n
	}
}

// Len returns the number of agents.
func (f *Flock) Len() int { return f.store.Len() }

// Agents returns a copy of every agent as of the last completed tick.
func (f *Flock) Agents() []behavior.Agent {
	return f.store.Snapshot(make([]behavior.Agent, 0, f.store.Len()))
}

// Handles returns a handle for every agent of the current population.
func (f *Flock) Handles() []Handle { return f.store.Handles() }

// Agent resolves a handle, ErrStaleHandle is returned after a reseed.
func (f *Flock) Agent(h Handle) (behavior.Agent, error) { return f.store.Get(h) }

// Stats returns figures about the last completed tick.
func (f *Flock) Stats() TickStats { return f.stats }

// Tick advances every agent by elapsed seconds using params.
// A nil params runs with DefaultParameters. Invalid parameters are clamped,
// never rejected; a non-finite or negative elapsed time counts as zero.
func (f *Flock) Tick(elapsed float64, params *behavior.ParameterSet) {
	dt := elapsed
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		dt = 0
	}

	n := f.store.Len()
	f.stats = TickStats{Agents: n}
	if n == 0 {
		return
	}

	if params == nil {
		defaults := behavior.DefaultParameters()
		params = &defaults
	}
	p, adjusted := params.Sanitized()
	f.reportAdjustments(adjusted)

	// 1. Frozen snapshot: nobody sees a position written during this tick.
	f.snapshot = f.store.Snapshot(f.snapshot)
	snapshot := f.snapshot

	// 2. Perception
	if p.FlockingEnabled {
		f.perceive(snapshot, p.Radii())
	}

	// 3. Steering + integration, each worker writes its own slots only.
	weights := p.Weights()
	f.forEachChunk(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			me := snapshot[i]
			heading := me.Heading
			if p.FlockingEnabled {
				heading = behavior.Steer(me.Position, heading, f.summaries[i], p.Goal, weights, dt)
			}
			pos, heading := behavior.Advance(me.Position, heading, p.Speed, dt, f.bounds, f.boundary)
			f.store.Set(i, behavior.Agent{Position: pos, Heading: heading})
		}
	})
}

// perceive fills f.summaries for the snapshot.
func (f *Flock) perceive(snapshot []behavior.Agent, radii behavior.Radii) {
	n := len(snapshot)
	if cap(f.summaries) < n {
		f.summaries = make([]behavior.NeighborSummary, n)
	}
	f.summaries = f.summaries[:n]

	linear := f.neighborhood.Name() == NeighborhoodLinear
	if !linear {
		f.neighborhood.Rebuild(snapshot, math.Max(radii.Perception, radii.Separation))
	}

	f.forEachChunk(n, func(lo, hi int) {
		var candidates []int
		for i := lo; i < hi; i++ {
			if linear {
				f.summaries[i] = behavior.Summarize(i, snapshot, radii)
				continue
			}
			candidates = f.neighborhood.Candidates(i, candidates[:0])
			f.summaries[i] = behavior.SummarizeAmong(i, snapshot, candidates, radii)
		}
	})

	total := 0
	for _, s := range f.summaries {
		total += s.NeighborCount + s.CloseNeighborCount
	}
	f.stats.MeanNeighbors = float64(total) / float64(n)
}

// forEachChunk splits [0, n) into contiguous chunks and runs fn on each,
// concurrently unless the population is small.
func (f *Flock) forEachChunk(n int, fn func(lo, hi int)) {
	workers := f.workerCount()
	if workers == 1 || n < f.serialThreshold {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

func (f *Flock) workerCount() int {
	if f.workers > 0 {
		return f.workers
	}
	return runtime.GOMAXPROCS(0)
}

// reportAdjustments logs clamped parameters once per distinct set of adjustments.
func (f *Flock) reportAdjustments(adjusted []string) {
	key := strings.Join(adjusted, ",")
	if key == f.lastAdjusted {
		return
	}
	f.lastAdjusted = key
	if key != "" {
		f.logger.Debugf("invalid flocking parameters clamped: %s", key)
	}
}
