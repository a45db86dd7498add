package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox is a simple UI widget toggling a bool owned by someone else.
type Checkbox struct {
	Label   string
	Target  *bool
	X, Y    float64
	Size    float64
	clicked bool // Track if already clicked this frame
}

// NewCheckbox creates a new checkbox bound to target
func NewCheckbox(x, y float64, label string, target *bool) *Checkbox {
	return &Checkbox{
		Label:  label,
		Target: target,
		X:      x,
		Y:      y,
		Size:   16, // Default size
	}
}

// Checked reports the current value of the bound bool.
func (c *Checkbox) Checked() bool {
	return c.Target != nil && *c.Target
}

// Update checks for mouse interaction
func (c *Checkbox) Update() {
	if c.Target == nil {
		return
	}
	mx, my := ebiten.CursorPosition()

	// Check if mouse is over the checkbox
	isOver := float64(mx) >= c.X && float64(mx) <= c.X+c.Size &&
		float64(my) >= c.Y && float64(my) <= c.Y+c.Size

	// Toggle on click (with debouncing)
	if isOver && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !c.clicked {
			*c.Target = !*c.Target
			c.clicked = true
		}
	} else {
		c.clicked = false
	}
}

// Draw renders the checkbox
func (c *Checkbox) Draw(screen *ebiten.Image) {
	// Draw box border
	vector.StrokeRect(screen,
		float32(c.X), float32(c.Y),
		float32(c.Size), float32(c.Size),
		2,
		color.RGBA{R: 200, G: 200, B: 200, A: 255},
		true)

	// Fill if checked
	if c.Checked() {
		vector.FillRect(screen,
			float32(c.X+2), float32(c.Y+2),
			float32(c.Size-4), float32(c.Size-4),
			color.RGBA{R: 100, G: 200, B: 100, A: 255},
			true)
	}
}
