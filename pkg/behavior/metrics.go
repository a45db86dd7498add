package behavior

import "github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"

// Polarization is the order parameter of the flock: the length of the mean heading.
// 1 when every agent flies the same way, close to 0 for a disordered swarm.
// It returns 0 for an empty flock.
func Polarization(agents []Agent) float64 {
	if len(agents) == 0 {
		return 0
	}
	var sum geometry.Vector2D
	for _, a := range agents {
		sum = sum.Add(a.Heading)
	}
	return sum.Len() / float64(len(agents))
}
