package simulation

import (
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
)

// maxHeadingAttempts bounds the rejection loop of randomHeading.
const maxHeadingAttempts = 64

// fallbackHeading is used when the random source keeps producing unusable directions.
var fallbackHeading = geometry.Vector2D{X: 1, Y: 0}

// spawnAgents creates count agents with a uniform position inside bounds
// and a uniform random heading.
func spawnAgents(rng *rand.Rand, count int, bounds behavior.Bounds) []behavior.Agent {
	if count < 0 {
		count = 0
	}
	agents := make([]behavior.Agent, count)
	for i := range agents {
		agents[i] = behavior.Agent{
			Position: geometry.Vector2D{
				X: rng.Float64() * bounds.Width,
				Y: rng.Float64() * bounds.Height,
			},
			Heading: randomHeading(rng),
		}
	}
	return agents
}

// randomHeading samples a point in the unit disk, rejecting the zero vector
// (it has no direction) and points outside the disk (they would bias the
// distribution toward the diagonals), then normalizes it.
func randomHeading(rng *rand.Rand) geometry.Vector2D {
	for attempt := 0; attempt < maxHeadingAttempts; attempt++ {
		v := geometry.Vector2D{
			X: rng.Float64()*2 - 1,
			Y: rng.Float64()*2 - 1,
		}
		if v.LenSqr() > 1 {
			continue
		}
		if dir, ok := v.TryNormalize(); ok {
			return dir
		}
	}
	return fallbackHeading
}
