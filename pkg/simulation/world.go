package simulation

import (
	"time"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// WorldSnapshot is what the world publishes to the UI after each tick or reseed.
type WorldSnapshot struct {
	Agents        []behavior.Agent
	Ticks         uint64
	Polarization  float64
	MeanNeighbors float64
}

// WorldActor owns the flock and is the only one allowed to tick or reseed it.
// Everything goes through its mailbox, so a reseed can never run in the middle of a tick.
//
// Messages:
//   - *durationpb.Duration: run one tick of that length
//   - *wrapperspb.UInt32Value: reseed that many agents in the current bounds
//   - *wrapperspb.StringValue: switch the neighborhood strategy
//
// Each of them is answered with *emptypb.Empty, except an unknown neighborhood
// name: it is answered with a *wrapperspb.StringValue holding the reason, and
// the flock keeps its current strategy.
type WorldActor struct {
	cfg    *Config
	params *behavior.ParameterSet
	flock  *Flock
	// Communication with UI
	snapshotCh chan<- *WorldSnapshot

	ticks uint64
	// --- Benchmark Stats ---
	tickCount   int
	lastLogTime time.Time
}

// NewWorldActor creates the world logic unit.
// params is the live parameter set: the host may write into it between two ticks,
// it must use Ask (not Tell) for ticks so that writes never overlap one.
func NewWorldActor(snapshotCh chan<- *WorldSnapshot, cfg *Config, params *behavior.ParameterSet) *WorldActor {
	if params == nil {
		p := cfg.Parameters
		params = &p
	}
	return &WorldActor{
		cfg:         cfg,
		params:      params,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	flock, err := NewFlockFromConfig(w.cfg, WithLogger(ctx.ActorSystem().Logger()))
	if err != nil {
		return err
	}
	w.flock = flock
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Infof("World started: %d agents, %s neighborhood, %s boundary",
			w.flock.Len(), w.flock.Neighborhood().Name(), w.cfg.Boundary)
		w.pushSnapshot()

	// The Main Simulation Step (Driven by Game Loop)
	case *durationpb.Duration:
		w.flock.Tick(msg.AsDuration().Seconds(), w.params)
		w.ticks++
		w.logBenchmarks(ctx)
		w.pushSnapshot()
		ctx.Response(&emptypb.Empty{})

	case *wrapperspb.UInt32Value:
		w.flock.Reseed(int(msg.GetValue()), w.flock.Bounds())
		w.pushSnapshot()
		ctx.Response(&emptypb.Empty{})

	case *wrapperspb.StringValue:
		n, err := NewNeighborhood(msg.GetValue())
		if err != nil {
			// ctx.Err would hand the error to the supervisor and stop the world
			ctx.Logger().Warnf("ignoring neighborhood switch: %v", err)
			ctx.Response(wrapperspb.String(err.Error()))
			return
		}
		w.flock.SetNeighborhood(n)
		ctx.Logger().Infof("Neighborhood switched to %s", n.Name())
		ctx.Response(&emptypb.Empty{})

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	w.tickCount++
	if time.Since(w.lastLogTime) >= time.Second {
		stats := w.flock.Stats()
		ctx.Logger().Infof("📊 TICK RATE: %d/sec | Agents: %d | Mean neighbors: %.1f",
			w.tickCount, stats.Agents, stats.MeanNeighbors)
		w.tickCount = 0
		w.lastLogTime = time.Now()
	}
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.buildSnapshot():
	default:
		// UI busy, skip frame
	}
}

func (w *WorldActor) buildSnapshot() *WorldSnapshot {
	agents := w.flock.Agents()
	return &WorldSnapshot{
		Agents:        agents,
		Ticks:         w.ticks,
		Polarization:  behavior.Polarization(agents),
		MeanNeighbors: w.flock.Stats().MeanNeighbors,
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World is shutdown after %d ticks...", w.ticks)
	return nil
}
