package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Panel layout, in pixels.
const (
	titleHeight  = 30.0
	headerHeight = 25.0
	captionSpace = 15.0
	panelMargin  = 10.0
	scrollStep   = 20.0
)

// UIWidget is an interface for all UI widgets
type UIWidget interface {
	Update()
	Draw(screen *ebiten.Image)
	GetHeight() float64
	// caption is the text printed above the widget, empty for none.
	caption() string
	moveTo(y float64)
}

func (s *Slider) GetHeight() float64 { return s.H + 25 }
func (s *Slider) caption() string    { return fmt.Sprintf("%s: %.1f", s.Label, s.Value()) }
func (s *Slider) moveTo(y float64)   { s.Y = y }

func (c *Checkbox) GetHeight() float64 { return c.Size + 25 }
func (c *Checkbox) caption() string    { return c.Label }
func (c *Checkbox) moveTo(y float64)   { c.Y = y }

func (b *Button) GetHeight() float64 { return b.Height + 20 }
func (b *Button) caption() string    { return "" }
func (b *Button) moveTo(y float64)   { b.Y = y - captionSpace }

// PanelSection is a titled group of widgets; clicking its header folds it.
type PanelSection struct {
	Title     string
	Collapsed bool
	widgets   []UIWidget
	headerY   float64
}

// UIPanel is a scrollable column of sections, drawn over the simulation.
// Widgets are laid out again on every Update, so scrolling and folding
// never leave a widget listening at a stale position.
type UIPanel struct {
	X, Y          float64
	Width, Height float64
	Title         string
	ScrollOffset  float64

	// Styling
	BGColor      color.RGBA
	BorderColor  color.RGBA
	HeaderColor  color.RGBA
	contentDepth float64
	sections     []*PanelSection
}

// NewUIPanel creates an empty panel
func NewUIPanel(x, y, width, height float64, title string) *UIPanel {
	return &UIPanel{
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		Title:       title,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
		HeaderColor: color.RGBA{R: 60, G: 60, B: 70, A: 255},
	}
}

// AddSection starts a new section; widgets added next belong to it.
func (p *UIPanel) AddSection(title string) *PanelSection {
	s := &PanelSection{Title: title}
	p.sections = append(p.sections, s)
	return s
}

func (p *UIPanel) add(w UIWidget) {
	if len(p.sections) == 0 {
		p.AddSection("")
	}
	s := p.sections[len(p.sections)-1]
	s.widgets = append(s.widgets, w)
	p.layout()
}

// AddSlider adds a slider editing target to the current section
func (p *UIPanel) AddSlider(label string, min, max float64, target *float64) *Slider {
	slider := NewSlider(p.X+panelMargin, 0, p.Width-2*panelMargin, label, min, max, target)
	p.add(slider)
	return slider
}

// AddCheckbox adds a checkbox toggling target to the current section
func (p *UIPanel) AddCheckbox(label string, target *bool) *Checkbox {
	checkbox := NewCheckbox(p.X+panelMargin, 0, label, target)
	p.add(checkbox)
	return checkbox
}

// AddButton adds a full width button to the current section
func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	button := NewButton(p.X+panelMargin, 0, p.Width-2*panelMargin, 24, label, onClick)
	p.add(button)
	return button
}

// Contains reports whether the screen point (x, y) lies on the panel.
func (p *UIPanel) Contains(x, y int) bool {
	fx, fy := float64(x), float64(y)
	return fx >= p.X && fx <= p.X+p.Width && fy >= p.Y && fy <= p.Y+p.Height
}

// layout places every section header and unfolded widget for the current scroll.
func (p *UIPanel) layout() {
	y := p.Y + titleHeight - p.ScrollOffset
	for _, s := range p.sections {
		s.headerY = y
		if s.Title != "" {
			y += headerHeight
		}
		if s.Collapsed {
			continue
		}
		for _, w := range s.widgets {
			w.moveTo(y + captionSpace)
			y += w.GetHeight()
		}
	}
	p.contentDepth = y + p.ScrollOffset - p.Y
}

// visible reports whether a row starting at y is inside the panel.
func (p *UIPanel) visible(y float64) bool {
	return y >= p.Y+titleHeight-captionSpace && y <= p.Y+p.Height-captionSpace
}

func (p *UIPanel) scroll(dy float64) {
	maxScroll := max(p.contentDepth-p.Height+panelMargin, 0)
	p.ScrollOffset = min(max(p.ScrollOffset-dy*scrollStep, 0), maxScroll)
}

// Update handles scrolling and folding, then lets the visible widgets read the mouse.
func (p *UIPanel) Update() {
	mx, my := ebiten.CursorPosition()
	if p.Contains(mx, my) {
		if _, dy := ebiten.Wheel(); dy != 0 {
			p.scroll(dy)
		}
	}
	p.layout()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if s := p.headerAt(float64(mx), float64(my)); s != nil {
			s.Collapsed = !s.Collapsed
			p.layout()
			return
		}
	}

	for _, s := range p.sections {
		for _, w := range s.widgets {
			if s.Collapsed || !p.visible(rowTop(w)) {
				// hidden sliders still follow their limit
				if sl, ok := w.(*Slider); ok && sl.Target != nil {
					sl.clampTarget()
				}
				continue
			}
			w.Update()
		}
	}
}

func (p *UIPanel) headerAt(x, y float64) *PanelSection {
	if x < p.X || x > p.X+p.Width {
		return nil
	}
	for _, s := range p.sections {
		if s.Title != "" && p.visible(s.headerY+captionSpace) && y >= s.headerY && y < s.headerY+headerHeight-5 {
			return s
		}
	}
	return nil
}

// rowTop is where the caption of w starts.
func rowTop(w UIWidget) float64 {
	switch w := w.(type) {
	case *Slider:
		return w.Y - captionSpace
	case *Checkbox:
		return w.Y - captionSpace
	case *Button:
		return w.Y
	}
	return 0
}

// Draw renders the panel and its visible widgets
func (p *UIPanel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+panelMargin), int(p.Y+5))

	for _, s := range p.sections {
		if s.Title != "" && p.visible(s.headerY+captionSpace) {
			vector.FillRect(screen,
				float32(p.X+5), float32(s.headerY),
				float32(p.Width-10), headerHeight-5,
				p.HeaderColor, true)
			marker := "-"
			if s.Collapsed {
				marker = "+"
			}
			ebitenutil.DebugPrintAt(screen, marker+" "+s.Title, int(p.X+panelMargin), int(s.headerY+2))
		}
		if s.Collapsed {
			continue
		}
		for _, w := range s.widgets {
			top := rowTop(w)
			if !p.visible(top) {
				continue
			}
			if c := w.caption(); c != "" {
				ebitenutil.DebugPrintAt(screen, c, int(p.X+panelMargin), int(top))
			}
			w.Draw(screen)
		}
	}
}
