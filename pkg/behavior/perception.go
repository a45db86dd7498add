package behavior

import "github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"

// NeighborSummary is what an agent perceives of its local flock during one tick.
// It is recomputed every tick and never kept across ticks.
//
// Neighbors within the separation radius are only avoided, they do not take
// part in the cohesion/alignment averages.
type NeighborSummary struct {
	flockCenter  geometry.Vector2D
	flockHeading geometry.Vector2D
	avoidCenter  geometry.Vector2D

	// NeighborCount is the number of agents with separation < d <= perception.
	NeighborCount int
	// CloseNeighborCount is the number of agents with d <= separation.
	CloseNeighborCount int
}

// FlockCenter is the average position of the local flock, ok is false when there is none.
func (s NeighborSummary) FlockCenter() (geometry.Vector2D, bool) {
	return s.flockCenter, s.NeighborCount > 0
}

// FlockHeading is the average heading of the local flock, ok is false when there is none.
// The average of unit vectors is generally not a unit vector, and may be zero.
func (s NeighborSummary) FlockHeading() (geometry.Vector2D, bool) {
	return s.flockHeading, s.NeighborCount > 0
}

// AvoidCenter is the average position of the agents crowding us, ok is false when there is none.
func (s NeighborSummary) AvoidCenter() (geometry.Vector2D, bool) {
	return s.avoidCenter, s.CloseNeighborCount > 0
}

// accumulator sums the neighbors of one agent before averaging.
type accumulator struct {
	self                 geometry.Vector2D
	perceptionSq, sepSq  float64
	posSum, headingSum   geometry.Vector2D
	avoidSum             geometry.Vector2D
	neighbors, closeOnes int
}

func newAccumulator(self geometry.Vector2D, radii Radii) accumulator {
	// Pre-calculate squared ranges to avoid Sqrt() calls in loops
	return accumulator{
		self:         self,
		perceptionSq: radii.Perception * radii.Perception,
		sepSq:        radii.Separation * radii.Separation,
	}
}

func (a *accumulator) observe(other Agent) {
	distSq := a.self.DistanceSquaredTo(other.Position)

	switch {
	case distSq <= a.sepSq:
		a.avoidSum = a.avoidSum.Add(other.Position)
		a.closeOnes++
	case distSq <= a.perceptionSq:
		a.posSum = a.posSum.Add(other.Position)
		a.headingSum = a.headingSum.Add(other.Heading)
		a.neighbors++
	}
}

func (a *accumulator) summary() NeighborSummary {
	s := NeighborSummary{
		NeighborCount:      a.neighbors,
		CloseNeighborCount: a.closeOnes,
	}
	if a.neighbors > 0 {
		n := float64(a.neighbors)
		s.flockCenter = geometry.Vector2D{X: a.posSum.X / n, Y: a.posSum.Y / n}
		s.flockHeading = geometry.Vector2D{X: a.headingSum.X / n, Y: a.headingSum.Y / n}
	}
	if a.closeOnes > 0 {
		n := float64(a.closeOnes)
		s.avoidCenter = geometry.Vector2D{X: a.avoidSum.X / n, Y: a.avoidSum.Y / n}
	}
	return s
}

// Summarize scans the whole snapshot and reduces the neighbors of snapshot[self].
// The agent is excluded by its index, two agents sharing a position still see each other.
func Summarize(self int, snapshot []Agent, radii Radii) NeighborSummary {
	acc := newAccumulator(snapshot[self].Position, radii)
	for i := range snapshot {
		if i == self {
			continue
		}
		acc.observe(snapshot[i])
	}
	return acc.summary()
}

// SummarizeAmong is Summarize restricted to the candidate indices returned by a
// spatial index. Candidates must be sorted in ascending order for the result to be
// bit-identical to Summarize, since floating point sums depend on the order.
// self may appear among the candidates, it is skipped.
func SummarizeAmong(self int, snapshot []Agent, candidates []int, radii Radii) NeighborSummary {
	acc := newAccumulator(snapshot[self].Position, radii)
	for _, i := range candidates {
		if i == self {
			continue
		}
		acc.observe(snapshot[i])
	}
	return acc.summary()
}
