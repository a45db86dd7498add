package behavior

import (
	"errors"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
)

// Bounds is the simulated rectangle. The origin is the top-left corner:
// x in [0, Width], y in [0, Height].
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of the rectangle.
func (b Bounds) Center() geometry.Vector2D {
	return geometry.Vector2D{X: b.Width / 2, Y: b.Height / 2}
}

// Contains reports whether p lies inside the rectangle, edges included.
func (b Bounds) Contains(p geometry.Vector2D) bool {
	return p.X >= 0 && p.X <= b.Width && p.Y >= 0 && p.Y <= b.Height
}

// BoundaryPolicy decides what happens to an agent leaving the world.
type BoundaryPolicy string

const (
	// BoundaryWrap makes agents reappear on the opposite edge, heading preserved.
	BoundaryWrap BoundaryPolicy = "wrap"
	// BoundaryReflect mirrors agents back inside and flips the matching heading component.
	BoundaryReflect BoundaryPolicy = "reflect"
	// BoundaryUnbounded lets agents fly away.
	BoundaryUnbounded BoundaryPolicy = "unbounded"
)

// ErrUnknownBoundary is returned by ParseBoundaryPolicy for unsupported names.
var ErrUnknownBoundary = errors.New("unknown boundary policy")

// ParseBoundaryPolicy converts a config value into a BoundaryPolicy.
// The empty string selects BoundaryWrap.
func ParseBoundaryPolicy(name string) (BoundaryPolicy, error) {
	switch BoundaryPolicy(name) {
	case "", BoundaryWrap:
		return BoundaryWrap, nil
	case BoundaryReflect:
		return BoundaryReflect, nil
	case BoundaryUnbounded:
		return BoundaryUnbounded, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBoundary, name)
}

// Advance moves an agent along its heading for dt seconds and applies the
// boundary policy. It returns the new position and heading; the heading only
// changes under BoundaryReflect. A zero dt is a no-op.
func Advance(position, heading geometry.Vector2D, speed, dt float64, bounds Bounds, policy BoundaryPolicy) (geometry.Vector2D, geometry.Vector2D) {
	next := position.Add(heading.Mul(speed * dt))
	if !next.IsFinite() {
		return position, heading
	}

	switch policy {
	case BoundaryUnbounded:
		// nothing to do
	case BoundaryReflect:
		next.X, heading.X = reflectAxis(next.X, heading.X, bounds.Width)
		next.Y, heading.Y = reflectAxis(next.Y, heading.Y, bounds.Height)
	default:
		next.X = wrapAxis(next.X, bounds.Width)
		next.Y = wrapAxis(next.Y, bounds.Height)
	}
	return next, heading
}

// wrapAxis maps x into [0, extent]: exceeding the max by e lands at min+e.
// Overshooting by more than one extent still lands inside.
// A non-positive extent leaves the axis unconstrained.
func wrapAxis(x, extent float64) float64 {
	if extent <= 0 || (x >= 0 && x <= extent) {
		return x
	}
	m := math.Mod(x, extent)
	if m < 0 {
		m += extent
	}
	return m
}

// reflectAxis folds x back into [0, extent] as if bouncing off both walls,
// flipping the heading component once per bounce.
func reflectAxis(x, h, extent float64) (float64, float64) {
	if extent <= 0 || (x >= 0 && x <= extent) {
		return x, h
	}
	k := math.Floor(x / extent)
	m := x - k*extent
	if math.Mod(k, 2) != 0 {
		return extent - m, -h
	}
	return m, h
}
