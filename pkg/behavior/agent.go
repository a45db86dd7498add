// Package behavior holds the flocking rules of a boid.
//
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// The name "boid" corresponds to a shortened version of "bird-oid object",
// which refers to a bird-like object. https://en.wikipedia.org/wiki/Boids
//
// Every function in this package is pure: it reads a frozen snapshot of the
// flock and returns new values, so callers can run it for many agents in
// parallel as long as the snapshot is not mutated meanwhile.
package behavior

import "github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"

// Agent is the state of a single boid as seen by its neighbors and by the renderer.
// Heading is a unit vector, the speed is shared by the whole flock (see ParameterSet).
type Agent struct {
	Position geometry.Vector2D `json:"position"`
	Heading  geometry.Vector2D `json:"heading"`
}
