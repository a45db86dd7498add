package behavior

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
)

// Steer blends the flocking rules into a new heading for an agent at position
// currently flying along heading.
//
// Each rule yields a desired unit direction:
//   - cohesion: toward the flock center
//   - alignment: along the flock average heading
//   - separation: away from the avoid center
//   - goal: toward the goal, when goal is not nil
//
// The contributions are weighted by weight*dt, summed onto the current heading
// and the result is renormalized (sum-then-normalize, so the rules commute).
// A rule whose direction is undefined (zero length) contributes nothing.
// When nothing contributes, or the blend cancels out, the heading is returned unchanged.
func Steer(position, heading geometry.Vector2D, summary NeighborSummary, goal *geometry.Vector2D, weights Weights, dt float64) geometry.Vector2D {
	blended := heading
	contributed := false

	push := func(dir geometry.Vector2D, ok bool, weight float64) {
		if !ok || weight == 0 {
			return
		}
		blended = blended.Add(dir.Mul(weight * dt))
		contributed = true
	}

	// 1. Cohesion
	if center, ok := summary.FlockCenter(); ok {
		dir, ok := position.DirectionTo(center)
		push(dir, ok, weights.Cohesion)
	}

	// 2. Alignment
	if avg, ok := summary.FlockHeading(); ok {
		dir, ok := avg.TryNormalize()
		push(dir, ok, weights.Alignment)
	}

	// 3. Separation
	if crowd, ok := summary.AvoidCenter(); ok {
		dir, ok := crowd.DirectionTo(position)
		push(dir, ok, weights.Separation)
	}

	// 4. Goal seeking
	if goal != nil {
		dir, ok := position.DirectionTo(*goal)
		push(dir, ok, weights.Goal)
	}

	if !contributed || dt == 0 || math.IsNaN(dt) {
		return heading
	}

	next, ok := blended.TryNormalize()
	if !ok {
		// exact cancellation: never hand out a zero heading
		return heading
	}
	return next
}
