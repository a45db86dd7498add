package geometry

import (
	"fmt"
	"math"
)

// Epsilon Precision constant.
// Vectors shorter than Epsilon are considered to have no direction.
const (
	Epsilon = 1e-9
)

// Vector2D represents a 2D vector or point in cartesian space.
// We use public fields (X, Y) because they are fundamental data, not internal state,
// which allows for cleaner literal initialization: v := Vector2D{1, 2}
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zero is the null vector.
var Zero = Vector2D{}

// NewVectorPolar creates a new Vector2D from polar coordinates.
// theta is in radians.
func NewVectorPolar(radius, theta float64) Vector2D {
	sin, cos := math.Sincos(theta)
	x := radius * cos
	y := radius * sin

	// Handle standard floating point precision issues near zero
	if math.Abs(x) < Epsilon {
		x = 0
	}
	if math.Abs(y) < Epsilon {
		y = 0
	}

	return Vector2D{X: x, Y: y}
}

// String implements the fmt.Stringer interface.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// ---------------------------------------------------------------------
// Arithmetic Operations
// These methods use value receivers and return new Values.
// ---------------------------------------------------------------------

// Add adds two vectors and returns the result.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts the other vector from the current vector.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{v.X * scalar, v.Y * scalar}
}

// Dot calculates the dot product of two vectors.
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// ---------------------------------------------------------------------
// Magnitude and Normalization
// ---------------------------------------------------------------------

// LenSqr calculates the squared magnitude of the vector.
// Use it for comparisons, it avoids the square root.
func (v Vector2D) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Len calculates the magnitude (length) of the vector.
func (v Vector2D) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// TryNormalize returns the unit vector in the direction of v and true,
// or the zero vector and false when v has no usable direction
// (shorter than Epsilon, or not finite).
func (v Vector2D) TryNormalize() (Vector2D, bool) {
	if !v.IsFinite() {
		return Zero, false
	}
	l := v.Len()
	if l < Epsilon {
		return Zero, false
	}
	return Vector2D{v.X / l, v.Y / l}, true
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// ---------------------------------------------------------------------
// Geometric Utilities
// ---------------------------------------------------------------------

// DistanceSquaredTo calculates the squared Euclidean distance to another vector.
func (v Vector2D) DistanceSquaredTo(other Vector2D) float64 {
	return v.Sub(other).LenSqr()
}

// DirectionTo returns the unit vector pointing from v to target, and false
// when both points coincide.
func (v Vector2D) DirectionTo(target Vector2D) (Vector2D, bool) {
	return target.Sub(v).TryNormalize()
}

// Angle returns the angle (in radians) of the vector relative to the X-axis.
// Range: [-Pi, Pi]
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector2D) Eq(other Vector2D) bool {
	return v.EqWithin(other, Epsilon)
}

// EqWithin checks if two vectors are equal within the given tolerance per component.
func (v Vector2D) EqWithin(other Vector2D, tolerance float64) bool {
	return math.Abs(v.X-other.X) <= tolerance && math.Abs(v.Y-other.Y) <= tolerance
}
