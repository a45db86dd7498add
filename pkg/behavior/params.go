package behavior

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
)

// ParameterSet controls the flocking rules.
// It is owned by the host (settings panel, config file) and passed to every tick,
// the simulation itself never writes into it.
type ParameterSet struct {
	Speed            float64 `json:"speed"`            // units per second
	PerceptionRadius float64 `json:"perceptionRadius"` // how far can they see?
	SeparationRadius float64 `json:"separationRadius"` // personal space radius

	CohesionWeight   float64 `json:"cohesionWeight"`
	AlignmentWeight  float64 `json:"alignmentWeight"`
	SeparationWeight float64 `json:"separationWeight"`

	// FlockingEnabled false means agents keep their heading and fly straight.
	FlockingEnabled bool `json:"flockingEnabled"`

	// Goal is an optional point every agent steers toward, nil when unset.
	Goal       *geometry.Vector2D `json:"goal,omitempty"`
	GoalWeight float64            `json:"goalWeight"`
}

// Radii are the two perception distances of an agent.
type Radii struct {
	Perception float64
	Separation float64
}

// Weights are the steering strengths per second of each rule.
type Weights struct {
	Cohesion   float64
	Alignment  float64
	Separation float64
	Goal       float64
}

// DefaultParameters returns the tuning the flock was designed around.
func DefaultParameters() ParameterSet {
	return ParameterSet{
		Speed:            100,
		PerceptionRadius: 100,
		SeparationRadius: 30,
		CohesionWeight:   10,
		AlignmentWeight:  20,
		SeparationWeight: 30,
		FlockingEnabled:  true,
		GoalWeight:       40,
	}
}

// Radii returns the perception distances of p.
func (p ParameterSet) Radii() Radii {
	return Radii{Perception: p.PerceptionRadius, Separation: p.SeparationRadius}
}

// Weights returns the steering weights of p.
func (p ParameterSet) Weights() Weights {
	return Weights{
		Cohesion:   p.CohesionWeight,
		Alignment:  p.AlignmentWeight,
		Separation: p.SeparationWeight,
		Goal:       p.GoalWeight,
	}
}

// Sanitized returns a copy of p that is safe to simulate with, and the names
// of the fields it had to adjust.
// Negative or NaN values are clamped to 0. Speed and weights must also be finite,
// radii may be +Inf (the agent perceives the whole world).
// A goal with a non-finite coordinate is dropped.
// SeparationRadius > PerceptionRadius is left alone, the two radii are independent.
func (p ParameterSet) Sanitized() (ParameterSet, []string) {
	var adjusted []string
	clamp := func(name string, v *float64, allowInf bool) {
		switch {
		case math.IsNaN(*v), *v < 0:
			*v = 0
		case math.IsInf(*v, 1) && !allowInf:
			*v = 0
		default:
			return
		}
		adjusted = append(adjusted, name)
	}

	out := p
	clamp("speed", &out.Speed, false)
	clamp("perceptionRadius", &out.PerceptionRadius, true)
	clamp("separationRadius", &out.SeparationRadius, true)
	clamp("cohesionWeight", &out.CohesionWeight, false)
	clamp("alignmentWeight", &out.AlignmentWeight, false)
	clamp("separationWeight", &out.SeparationWeight, false)
	clamp("goalWeight", &out.GoalWeight, false)

	if out.Goal != nil {
		if !out.Goal.IsFinite() {
			out.Goal = nil
			adjusted = append(adjusted, "goal")
		} else {
			// detach from the host's pointer, the host may move the goal mid-tick
			g := *out.Goal
			out.Goal = &g
		}
	}
	return out, adjusted
}
