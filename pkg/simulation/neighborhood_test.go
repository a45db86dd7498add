package simulation

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
)

func TestGridNeighborhood_Rebuild(t *testing.T) {
	// radius 100 -> cell size just above 100
	g := newGridNeighborhood()
	snapshot := []behavior.Agent{
		agentAt(50, 50, 1, 0),   // Grid 0,0
		agentAt(150, 50, 1, 0),  // Grid 1,0
		agentAt(50, 150, 1, 0),  // Grid 0,1
		agentAt(250, 250, 1, 0), // Grid 2,2
		agentAt(-50, -50, 1, 0), // Grid -1,-1
	}

	g.Rebuild(snapshot, 100)

	tests := []struct {
		key  gridKey
		want []int
	}{
		{gridKey{x: 0, y: 0}, []int{0}},
		{gridKey{x: 1, y: 0}, []int{1}},
		{gridKey{x: 0, y: 1}, []int{2}},
		{gridKey{x: 2, y: 2}, []int{3}},
		{gridKey{x: -1, y: -1}, []int{4}},
	}
	for _, tt := range tests {
		if got := g.grid[tt.key]; !slices.Equal(got, tt.want) {
			t.Errorf("grid[%v] = %v; want %v", tt.key, got, tt.want)
		}
	}

	// Rebuilding keeps the cells but empties the ones nobody lives in anymore.
	g.Rebuild(snapshot[:1], 100)
	if got := g.grid[gridKey{x: 1, y: 0}]; len(got) != 0 {
		t.Errorf("stale cell after rebuild: %v", got)
	}
}

func TestGridNeighborhood_Candidates(t *testing.T) {
	g := newGridNeighborhood()
	snapshot := []behavior.Agent{
		agentAt(350, 350, 1, 0), // far: Grid 3,3
		agentAt(50, 50, 1, 0),   // neighbor: Grid 0,0
		agentAt(150, 150, 1, 0), // center: Grid 1,1
	}
	g.Rebuild(snapshot, 100)

	got := g.Candidates(2, nil)
	if !slices.Contains(got, 2) {
		t.Error("Expected to find center actor")
	}
	if !slices.Contains(got, 1) {
		t.Error("Expected to find neighbor actor (in 0,0)")
	}
	if slices.Contains(got, 0) {
		t.Error("Should NOT find far actor (in 3,3)")
	}
	if !slices.IsSorted(got) {
		t.Errorf("Candidates = %v; want ascending order", got)
	}
}

func TestGridNeighborhood_FarAgents(t *testing.T) {
	// an unbounded flock can drift further than any cell coordinate
	g := newGridNeighborhood()
	snapshot := []behavior.Agent{
		agentAt(1e300, 0, 1, 0),
		agentAt(0, 0, 1, 0),
		agentAt(1e300, 10, 1, 0),
	}
	g.Rebuild(snapshot, 50)

	radii := behavior.Radii{Perception: 50, Separation: 5}
	for i := range snapshot {
		got := behavior.SummarizeAmong(i, snapshot, g.Candidates(i, nil), radii)
		want := behavior.Summarize(i, snapshot, radii)
		if got != want {
			t.Errorf("agent %d: summary = %+v; want %+v", i, got, want)
		}
	}
}

func TestNewNeighborhood(t *testing.T) {
	for _, name := range []string{NeighborhoodLinear, NeighborhoodGrid, NeighborhoodRTree} {
		n, err := NewNeighborhood(name)
		if err != nil {
			t.Fatalf("NewNeighborhood(%q) error: %v", name, err)
		}
		if n.Name() != name {
			t.Errorf("NewNeighborhood(%q).Name() = %q", name, n.Name())
		}
	}
	if n, _ := NewNeighborhood(""); n.Name() != NeighborhoodGrid {
		t.Errorf("default neighborhood = %q; want %q", n.Name(), NeighborhoodGrid)
	}
	if _, err := NewNeighborhood("kdtree"); !errors.Is(err, ErrUnknownNeighborhood) {
		t.Errorf("NewNeighborhood(kdtree) error = %v; want ErrUnknownNeighborhood", err)
	}
}

func randomSnapshot(seed uint64, n int, size float64) []behavior.Agent {
	return spawnAgents(rand.New(rand.NewPCG(seed, seed)), n, behavior.Bounds{Width: size, Height: size})
}

func TestNeighborhoods_MatchLinearScan(t *testing.T) {
	snapshot := randomSnapshot(3, 400, 500)
	// agents exactly on the perception edge, and two on the same spot
	snapshot = append(snapshot,
		agentAt(100, 100, 1, 0),
		agentAt(150, 100, 0, 1),
		agentAt(100, 100, -1, 0),
	)

	radiiCases := []struct {
		name  string
		radii behavior.Radii
	}{
		{"default", behavior.Radii{Perception: 50, Separation: 15}},
		{"tiny", behavior.Radii{Perception: 2, Separation: 1}},
		{"separation above perception", behavior.Radii{Perception: 20, Separation: 40}},
		{"infinite perception", behavior.Radii{Perception: math.Inf(1), Separation: 10}},
		{"largest finite perception", behavior.Radii{Perception: math.MaxFloat64, Separation: 1}},
		{"huge perception", behavior.Radii{Perception: 1e300, Separation: 1}},
		{"zero", behavior.Radii{}},
	}

	for _, name := range []string{NeighborhoodGrid, NeighborhoodRTree} {
		for _, rc := range radiiCases {
			t.Run(name+"/"+rc.name, func(t *testing.T) {
				n, _ := NewNeighborhood(name)
				n.Rebuild(snapshot, math.Max(rc.radii.Perception, rc.radii.Separation))

				var candidates []int
				for i := range snapshot {
					candidates = n.Candidates(i, candidates[:0])
					got := behavior.SummarizeAmong(i, snapshot, candidates, rc.radii)
					want := behavior.Summarize(i, snapshot, rc.radii)
					if got != want {
						t.Fatalf("agent %d: summary = %+v; want %+v", i, got, want)
					}
				}
			})
		}
	}
}

func TestRTreeNeighborhood_EmptySnapshot(t *testing.T) {
	n, _ := NewNeighborhood(NeighborhoodRTree)
	n.Rebuild(nil, 50)
	n.Rebuild(randomSnapshot(1, 1, 10), 50)
	if got := n.Candidates(0, nil); !slices.Equal(got, []int{0}) {
		t.Errorf("Candidates = %v; want [0]", got)
	}
}

func BenchmarkGridNeighborhood_Rebuild(b *testing.B) {
	// Setup: 1000 agents
	snapshot := randomSnapshot(1, 1000, 1000)
	g := newGridNeighborhood()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Rebuild(snapshot, 100)
	}
}

func BenchmarkNeighborhood_Candidates(b *testing.B) {
	snapshot := randomSnapshot(1, 1000, 1000)
	for _, name := range []string{NeighborhoodLinear, NeighborhoodGrid, NeighborhoodRTree} {
		b.Run(name, func(b *testing.B) {
			n, _ := NewNeighborhood(name)
			n.Rebuild(snapshot, 100)
			var dst []int
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				dst = n.Candidates(i%len(snapshot), dst[:0])
			}
		})
	}
}
