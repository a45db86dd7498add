package simulation

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
)

// ErrUnknownNeighborhood is returned by NewNeighborhood for unsupported strategy names.
var ErrUnknownNeighborhood = errors.New("unknown neighborhood strategy")

// Neighborhood strategy names, as used in configuration files.
const (
	NeighborhoodLinear = "linear"
	NeighborhoodGrid   = "grid"
	NeighborhoodRTree  = "rtree"
)

// Neighborhood narrows down which agents may be within radius of each other.
//
// Rebuild is called once per tick on the frozen snapshot; Candidates is then
// called concurrently from the tick workers and must not mutate the index.
// Candidates appends to dst, in ascending index order, a superset of the agents
// within radius of self (self itself may be included).
type Neighborhood interface {
	Name() string
	Rebuild(snapshot []behavior.Agent, radius float64)
	Candidates(self int, dst []int) []int
}

// NewNeighborhood returns the strategy registered under name.
// The empty string selects the grid.
func NewNeighborhood(name string) (Neighborhood, error) {
	switch name {
	case NeighborhoodLinear:
		return &linearNeighborhood{}, nil
	case "", NeighborhoodGrid:
		return newGridNeighborhood(), nil
	case NeighborhoodRTree:
		return &rtreeNeighborhood{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNeighborhood, name)
}

// queryRadius widens r a little so float rounding at the exact perception
// edge can never drop an agent the linear scan would keep.
func queryRadius(r float64) float64 {
	return r*(1+1e-9) + 1e-6
}

// indexable reports whether a widened query radius can be used for a spatial
// lookup. Otherwise, like an infinite or NaN radius, it sees everyone.
func indexable(radius float64) bool {
	return !math.IsInf(radius, 0) && !math.IsNaN(radius)
}

// maxCell bounds grid coordinates well inside the int range.
const maxCell = 1 << 52

// appendAll appends every index of a population of n agents.
func appendAll(dst []int, n int) []int {
	for i := 0; i < n; i++ {
		dst = append(dst, i)
	}
	return dst
}

// linearNeighborhood is the brute force O(n^2) scan.
type linearNeighborhood struct {
	n int
}

func (l *linearNeighborhood) Name() string { return NeighborhoodLinear }

func (l *linearNeighborhood) Rebuild(snapshot []behavior.Agent, _ float64) {
	l.n = len(snapshot)
}

func (l *linearNeighborhood) Candidates(_ int, dst []int) []int {
	return appendAll(dst, l.n)
}

type gridKey struct {
	x, y int
}

// minCellSize avoids tiny grids (and a division by zero) for small radii.
const minCellSize = 10.0

// gridNeighborhood is a spatial hash: agents are bucketed into square cells
// at least as large as the query radius, so a 3x3 block of cells covers it.
type gridNeighborhood struct {
	grid     map[gridKey][]int
	snapshot []behavior.Agent
	cellSize float64
	radius   float64
	// all is set when the radius or a position cannot be bucketed.
	all bool
}

func newGridNeighborhood() *gridNeighborhood {
	return &gridNeighborhood{grid: make(map[gridKey][]int)}
}

func (g *gridNeighborhood) Name() string { return NeighborhoodGrid }

func (g *gridNeighborhood) Rebuild(snapshot []behavior.Agent, radius float64) {
	// Reset slices to length 0 but keep their capacity: after the first few
	// ticks rebuilding allocates almost nothing.
	for k := range g.grid {
		g.grid[k] = g.grid[k][:0]
	}
	g.snapshot = snapshot
	g.radius = queryRadius(radius)
	g.all = !indexable(g.radius)
	if g.all {
		return
	}
	g.cellSize = math.Max(g.radius, minCellSize)

	for i, a := range snapshot {
		key, ok := g.cellOf(a.Position)
		if !ok {
			g.all = true
			return
		}
		g.grid[key] = append(g.grid[key], i)
	}
}

// cellOf returns the cell holding p, or false when p is too far out
// (or not finite) to get a cell coordinate.
func (g *gridNeighborhood) cellOf(p geometry.Vector2D) (gridKey, bool) {
	x := math.Floor(p.X / g.cellSize)
	y := math.Floor(p.Y / g.cellSize)
	if !(math.Abs(x) <= maxCell && math.Abs(y) <= maxCell) {
		return gridKey{}, false
	}
	return gridKey{x: int(x), y: int(y)}, true
}

func (g *gridNeighborhood) Candidates(self int, dst []int) []int {
	if g.all {
		return appendAll(dst, len(g.snapshot))
	}
	p := g.snapshot[self].Position
	lo, okLo := g.cellOf(geometry.Vector2D{X: p.X - g.radius, Y: p.Y - g.radius})
	hi, okHi := g.cellOf(geometry.Vector2D{X: p.X + g.radius, Y: p.Y + g.radius})
	if !okLo || !okHi {
		return appendAll(dst, len(g.snapshot))
	}

	start := len(dst)
	for i := lo.x; i <= hi.x; i++ {
		for j := lo.y; j <= hi.y; j++ {
			if cell, ok := g.grid[gridKey{x: i, y: j}]; ok {
				dst = append(dst, cell...)
			}
		}
	}
	slices.Sort(dst[start:])
	return dst
}

// rtreeItem is an agent as stored in the rtree: a tiny box around its position.
type rtreeItem struct {
	index int
	rect  rtreego.Rect
}

func (it *rtreeItem) Bounds() rtreego.Rect { return it.rect }

// rtreeNeighborhood bulk loads an rtree each tick and answers box queries.
type rtreeNeighborhood struct {
	tree     *rtreego.Rtree
	items    []rtreeItem
	snapshot []behavior.Agent
	radius   float64
	all      bool
}

func (r *rtreeNeighborhood) Name() string { return NeighborhoodRTree }

func (r *rtreeNeighborhood) Rebuild(snapshot []behavior.Agent, radius float64) {
	r.snapshot = snapshot
	r.radius = queryRadius(radius)
	r.all = !indexable(r.radius)
	if r.all {
		r.tree = nil
		return
	}

	r.items = slices.Grow(r.items[:0], len(snapshot))
	spatials := make([]rtreego.Spatial, len(snapshot))
	for i, a := range snapshot {
		r.items = append(r.items, rtreeItem{
			index: i,
			rect:  rtreego.Point{a.Position.X, a.Position.Y}.ToRect(geometry.Epsilon),
		})
		spatials[i] = &r.items[i]
	}
	r.tree = rtreego.NewTree(2, 25, 50, spatials...)
}

func (r *rtreeNeighborhood) Candidates(self int, dst []int) []int {
	if r.all || r.tree == nil {
		return appendAll(dst, len(r.snapshot))
	}
	p := r.snapshot[self].Position
	bb := rtreego.Point{p.X, p.Y}.ToRect(r.radius)

	start := len(dst)
	for _, obj := range r.tree.SearchIntersect(bb) {
		dst = append(dst, obj.(*rtreeItem).index)
	}
	slices.Sort(dst[start:])
	return dst
}
