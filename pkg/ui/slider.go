package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider is a simple UI widget editing a float64 owned by someone else.
type Slider struct {
	Label    string
	Target   *float64
	Min, Max float64
	// Limit, when set, lowers Max to the value it points to.
	Limit *float64
	X, Y  float64
	W, H  float64
}

// NewSlider creates a slider bound to target.
func NewSlider(x, y, w float64, label string, min, max float64, target *float64) *Slider {
	return &Slider{
		Label:  label,
		Target: target,
		Min:    min,
		Max:    max,
		X:      x,
		Y:      y,
		W:      w,
		H:      10,
	}
}

// LimitTo caps the slider at *limit and returns the slider.
func (s *Slider) LimitTo(limit *float64) *Slider {
	s.Limit = limit
	return s
}

// Range returns the bounds the slider currently accepts.
func (s *Slider) Range() (lo, hi float64) {
	hi = s.Max
	if s.Limit != nil && *s.Limit < hi {
		hi = max(*s.Limit, s.Min)
	}
	return s.Min, hi
}

// clampTarget pulls the bound value back into range, e.g. after the limit moved.
func (s *Slider) clampTarget() {
	lo, hi := s.Range()
	*s.Target = min(max(*s.Target, lo), hi)
}

// Value returns the current value of the bound float64.
func (s *Slider) Value() float64 {
	if s.Target == nil {
		return s.Min
	}
	return *s.Target
}

// valueAt maps a horizontal cursor position to a value. The track always
// spans [Min, Max]; positions beyond the limit clamp to it.
func (s *Slider) valueAt(mx float64) float64 {
	p := (mx - s.X) / s.W
	lo, hi := s.Range()
	return min(max(s.Min+p*(s.Max-s.Min), lo), hi)
}

// Update checks for mouse interaction
func (s *Slider) Update() {
	if s.Target == nil {
		return
	}
	s.clampTarget()
	mx, my := ebiten.CursorPosition()
	// Check if mouse is clicking inside the slider area
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if float64(mx) >= s.X && float64(mx) <= s.X+s.W &&
			float64(my) >= s.Y && float64(my) <= s.Y+s.H {
			*s.Target = s.valueAt(float64(mx))
		}
	}
}

// Draw renders the slider
func (s *Slider) Draw(screen *ebiten.Image) {
	// Draw Background (Dark Gray)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H), color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)

	// Out of reach part of the track (limit below Max)
	if _, hi := s.Range(); hi < s.Max {
		x := s.X + s.W*s.ratio(hi)
		vector.FillRect(screen, float32(x), float32(s.Y), float32(s.X+s.W-x), float32(s.H), color.RGBA{R: 50, G: 40, B: 40, A: 255}, true)
	}

	// Draw Value Bar (Light Gray/White)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*s.ratio(s.Value())), float32(s.H), color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
}

// ratio is the position of v along the track, in [0, 1].
func (s *Slider) ratio(v float64) float64 {
	if s.Max <= s.Min {
		return 0
	}
	return min(max((v-s.Min)/(s.Max-s.Min), 0), 1)
}
