package simulation

import (
	"errors"
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
)

var testBounds = behavior.Bounds{Width: 400, Height: 300}

func assertUnitHeadings(t *testing.T, agents []behavior.Agent) {
	t.Helper()
	for i, a := range agents {
		if math.Abs(a.Heading.Len()-1) > 1e-9 {
			t.Fatalf("agent %d: |heading| = %v; want 1", i, a.Heading.Len())
		}
	}
}

func TestFlock_Reseed(t *testing.T) {
	f := NewFlock(WithSeed(1))
	for _, n := range []int{0, 1, 37, 250} {
		f.Reseed(n, testBounds)
		agents := f.Agents()
		if len(agents) != n {
			t.Errorf("Reseed(%d): len(Agents) = %d", n, len(agents))
		}
		for i, a := range agents {
			if !testBounds.Contains(a.Position) {
				t.Errorf("Reseed(%d): agent %d at %v outside bounds", n, i, a.Position)
			}
		}
		assertUnitHeadings(t, agents)
	}
}

func TestFlock_EmptyPopulation(t *testing.T) {
	f := NewFlock()
	params := behavior.DefaultParameters()
	f.Tick(0.016, &params)
	if got := f.Agents(); len(got) != 0 {
		t.Errorf("Agents() = %v; want empty", got)
	}
	if f.Stats().Agents != 0 {
		t.Errorf("Stats().Agents = %d; want 0", f.Stats().Agents)
	}
}

func TestFlock_HeadingInvariant(t *testing.T) {
	for _, name := range []string{NeighborhoodLinear, NeighborhoodGrid, NeighborhoodRTree} {
		t.Run(name, func(t *testing.T) {
			n, _ := NewNeighborhood(name)
			f := NewFlock(WithSeed(5), WithNeighborhood(n))
			f.Reseed(300, testBounds)

			params := behavior.DefaultParameters()
			goal := geometry.Vector2D{X: 200, Y: 150}
			params.Goal = &goal
			for i := 0; i < 50; i++ {
				f.Tick(0.016, &params)
				assertUnitHeadings(t, f.Agents())
			}
		})
	}
}

func TestFlock_NoFlockKeepsHeadings(t *testing.T) {
	f := NewFlock(WithSeed(9))
	f.Reseed(200, testBounds)
	before := f.Agents()

	params := behavior.DefaultParameters()
	params.FlockingEnabled = false
	f.Tick(0.5, &params)

	after := f.Agents()
	for i := range before {
		if after[i].Heading != before[i].Heading {
			t.Errorf("agent %d heading changed: %v -> %v", i, before[i].Heading, after[i].Heading)
		}
		if after[i].Position == before[i].Position {
			t.Errorf("agent %d did not move", i)
		}
	}
	if f.Stats().MeanNeighbors != 0 {
		t.Errorf("MeanNeighbors = %v; want 0 without flocking", f.Stats().MeanNeighbors)
	}
}

func TestFlock_IsolatedAgentKeepsHeading(t *testing.T) {
	f := NewFlock()
	f.Populate([]behavior.Agent{agentAt(10, 10, 0.6, 0.8)}, testBounds)
	heading := f.Agents()[0].Heading

	params := behavior.DefaultParameters()
	for i := 0; i < 500; i++ {
		f.Tick(0.016, &params)
	}
	if got := f.Agents()[0].Heading; got != heading {
		t.Errorf("heading = %v; want %v", got, heading)
	}
}

func TestFlock_SeparationPushesApart(t *testing.T) {
	f := NewFlock()
	f.Populate([]behavior.Agent{
		agentAt(100, 100, 0, 1),
		agentAt(103, 100, 0, 1),
	}, testBounds)

	params := behavior.ParameterSet{
		PerceptionRadius: 50,
		SeparationRadius: 10,
		SeparationWeight: 5,
		FlockingEnabled:  true,
	}
	f.Tick(1, &params)

	agents := f.Agents()
	if agents[0].Heading.X >= 0 {
		t.Errorf("left agent heading = %v; want negative X", agents[0].Heading)
	}
	if agents[1].Heading.X <= 0 {
		t.Errorf("right agent heading = %v; want positive X", agents[1].Heading)
	}
}

func TestFlock_TwoAgentsTurnTowardMidpoint(t *testing.T) {
	f := NewFlock()
	bounds := behavior.Bounds{Width: 1000, Height: 1000}
	f.Populate([]behavior.Agent{
		agentAt(100, 100, 1, 0),
		agentAt(110, 100, -1, 0),
	}, bounds)

	params := behavior.ParameterSet{
		PerceptionRadius: 50,
		SeparationRadius: 5,
		CohesionWeight:   1,
		AlignmentWeight:  1,
		FlockingEnabled:  true,
	}
	// Speed 0 so only the headings change.
	f.Tick(1, &params)

	agents := f.Agents()
	midpoint := geometry.Vector2D{X: 105, Y: 100}
	for i, a := range agents {
		if a.Heading.Dot(midpoint.Sub(a.Position)) <= 0 {
			t.Errorf("agent %d heading %v does not point toward %v", i, a.Heading, midpoint)
		}
	}
	assertUnitHeadings(t, agents)
}

func TestFlock_WrapIsExact(t *testing.T) {
	f := NewFlock()
	f.Populate([]behavior.Agent{agentAt(400, 150, 1, 0)}, testBounds)

	params := behavior.ParameterSet{Speed: 0.5}
	f.Tick(1, &params)

	if got := f.Agents()[0].Position; got.X != 0.5 || got.Y != 150 {
		t.Errorf("position = %v; want (0.5, 150)", got)
	}
}

func TestFlock_ReflectBoundary(t *testing.T) {
	f := NewFlock(WithBoundary(behavior.BoundaryReflect))
	f.Populate([]behavior.Agent{agentAt(395, 150, 1, 0)}, testBounds)

	params := behavior.ParameterSet{Speed: 10}
	f.Tick(1, &params)

	a := f.Agents()[0]
	if !a.Position.Eq(geometry.Vector2D{X: 395, Y: 150}) || !a.Heading.Eq(geometry.Vector2D{X: -1, Y: 0}) {
		t.Errorf("agent = %+v; want position (395, 150) heading (-1, 0)", a)
	}
}

func TestFlock_InvalidElapsedTime(t *testing.T) {
	f := NewFlock(WithSeed(2))
	f.Reseed(20, testBounds)
	params := behavior.DefaultParameters()

	for _, dt := range []float64{-1, math.NaN(), math.Inf(1), 0} {
		before := f.Agents()
		f.Tick(dt, &params)
		after := f.Agents()
		for i := range before {
			if before[i] != after[i] {
				t.Fatalf("Tick(%v) moved agent %d: %v -> %v", dt, i, before[i], after[i])
			}
		}
	}
}

func TestFlock_InvalidParametersAreClamped(t *testing.T) {
	f := NewFlock(WithSeed(4))
	f.Reseed(50, testBounds)

	params := behavior.DefaultParameters()
	params.Speed = math.NaN()
	params.CohesionWeight = -3
	params.PerceptionRadius = -1
	for i := 0; i < 5; i++ {
		f.Tick(0.1, &params)
	}
	for i, a := range f.Agents() {
		if !a.Position.IsFinite() {
			t.Fatalf("agent %d position = %v; want finite", i, a.Position)
		}
	}
	assertUnitHeadings(t, f.Agents())

	// the host's parameters are left alone
	if params.CohesionWeight != -3 {
		t.Errorf("CohesionWeight = %v; Tick must not write into the parameters", params.CohesionWeight)
	}
}

func TestFlock_NilParametersUseDefaults(t *testing.T) {
	a := NewFlock(WithSeed(8))
	b := NewFlock(WithSeed(8))
	a.Reseed(60, testBounds)
	b.Reseed(60, testBounds)

	defaults := behavior.DefaultParameters()
	a.Tick(0.02, nil)
	b.Tick(0.02, &defaults)

	ga, gb := a.Agents(), b.Agents()
	for i := range ga {
		if ga[i] != gb[i] {
			t.Fatalf("agent %d: nil params %v; defaults %v", i, ga[i], gb[i])
		}
	}
}

func TestFlock_ResultsIndependentOfWorkersAndNeighborhood(t *testing.T) {
	params := behavior.DefaultParameters()
	run := func(opts ...Option) []behavior.Agent {
		f := NewFlock(append([]Option{WithSeed(21)}, opts...)...)
		f.Reseed(600, testBounds)
		for i := 0; i < 20; i++ {
			f.Tick(0.016, &params)
		}
		return f.Agents()
	}

	rtree, _ := NewNeighborhood(NeighborhoodRTree)
	linear, _ := NewNeighborhood(NeighborhoodLinear)
	want := run(WithWorkers(1), WithNeighborhood(linear))

	variants := map[string][]Option{
		"parallel linear": {WithWorkers(4), WithSerialThreshold(0), WithNeighborhood(&linearNeighborhood{})},
		"serial grid":     {WithWorkers(1)},
		"parallel grid":   {WithWorkers(3), WithSerialThreshold(0)},
		"parallel rtree":  {WithWorkers(4), WithSerialThreshold(0), WithNeighborhood(rtree)},
	}
	for name, opts := range variants {
		got := run(opts...)
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s: agent %d = %v; want %v", name, i, got[i], want[i])
				break
			}
		}
	}
}

func TestFlock_HandlesGoStaleOnReseed(t *testing.T) {
	f := NewFlock(WithSeed(3))
	f.Reseed(5, testBounds)
	handles := f.Handles()

	want := f.Agents()[2]
	got, err := f.Agent(handles[2])
	if err != nil || got != want {
		t.Fatalf("Agent(%v) = %v, %v; want %v", handles[2], got, err, want)
	}

	f.Reseed(5, testBounds)
	if _, err := f.Agent(handles[2]); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Agent(old handle) error = %v; want ErrStaleHandle", err)
	}
}

func TestFlock_PopulateRepairsHeadings(t *testing.T) {
	f := NewFlock(WithSeed(6))
	f.Populate([]behavior.Agent{agentAt(1, 1, 0, 0), agentAt(2, 2, 3, 4)}, testBounds)
	agents := f.Agents()
	assertUnitHeadings(t, agents)
	if !agents[1].Heading.EqWithin(geometry.Vector2D{X: 0.6, Y: 0.8}, 1e-12) {
		t.Errorf("heading = %v; want (0.6, 0.8)", agents[1].Heading)
	}
}

func TestFlock_Stats(t *testing.T) {
	f := NewFlock()
	f.Populate([]behavior.Agent{
		agentAt(10, 10, 1, 0),
		agentAt(12, 10, 1, 0),
		agentAt(200, 200, 1, 0),
	}, testBounds)
	params := behavior.DefaultParameters()
	f.Tick(0.001, &params)

	// agents 0 and 1 see each other, agent 2 sees nobody
	if got, want := f.Stats().MeanNeighbors, 2.0/3.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("MeanNeighbors = %v; want %v", got, want)
	}
}

func BenchmarkFlock_Tick(b *testing.B) {
	params := behavior.DefaultParameters()
	for _, name := range []string{NeighborhoodLinear, NeighborhoodGrid, NeighborhoodRTree} {
		b.Run(name, func(b *testing.B) {
			n, _ := NewNeighborhood(name)
			f := NewFlock(WithSeed(1), WithNeighborhood(n))
			f.Reseed(2000, behavior.Bounds{Width: 2000, Height: 2000})
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				f.Tick(0.016, &params)
			}
		})
	}
}
