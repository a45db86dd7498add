// Package viewer is the interactive ebiten host of the flock: it drives the
// world actor once per frame and renders what it publishes.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	panelWidth = 280.0
	askTimeout = 2 * time.Second
	maxAgents  = 3000
)

var (
	backgroundColor = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	goalColor       = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	whiteImage      = ebiten.NewImage(3, 3)
)

func init() {
	whiteImage.Fill(color.RGBA{R: 100, G: 200, B: 255, A: 255})
}

type Game struct {
	ctx        context.Context
	worldPID   *actor.PID
	snapshotCh chan *simulation.WorldSnapshot
	lastState  *simulation.WorldSnapshot

	// Live parameters, written by the panel between two ticks.
	params      *behavior.ParameterSet
	goal        geometry.Vector2D
	goalEnabled bool
	population  float64
	reseed      bool

	// neighborhood strategy requested with N, sent before the next tick
	neighborhood     string
	switchRequested  bool
	neighborhoodNote string

	// UI Controls
	panel *ui.UIPanel

	cfg *simulation.Config

	// reused between frames
	vertices []ebiten.Vertex
	indices  []uint16

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

// NewGame spawns the world actor in system and builds the settings panel.
func NewGame(ctx context.Context, cfg *simulation.Config, system actor.ActorSystem) (*Game, error) {
	params := cfg.Parameters
	g := &Game{
		ctx:        ctx,
		snapshotCh: make(chan *simulation.WorldSnapshot, 10), // Buffer to avoid blocking
		lastState:  &simulation.WorldSnapshot{},              // Avoid nil pointer
		params:     &params,
		goal:       cfg.Bounds().Center(),
		population: float64(cfg.Population),
		cfg:        cfg,
	}
	g.neighborhood = cfg.Neighborhood
	if g.neighborhood == "" {
		g.neighborhood = simulation.NeighborhoodGrid
	}
	if params.Goal != nil {
		g.goal = *params.Goal
		g.goalEnabled = true
	}

	// We pass the channel to the World so it can push updates to us.
	worldPID, err := system.Spawn(ctx, "world", simulation.NewWorldActor(g.snapshotCh, cfg, g.params))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}
	g.worldPID = worldPID

	panel := ui.NewUIPanel(10, 10, panelWidth, cfg.WorldHeight-20, "Flock")

	panel.AddSection("Movement")
	panel.AddSlider("Speed", 0, 300, &g.params.Speed)
	panel.AddCheckbox("Flocking", &g.params.FlockingEnabled)

	panel.AddSection("Perception")
	panel.AddSlider("Perception Radius", 0, 300, &g.params.PerceptionRadius)
	// separation never reaches past what an agent can see
	panel.AddSlider("Separation Radius", 0, 150, &g.params.SeparationRadius).LimitTo(&g.params.PerceptionRadius)

	panel.AddSection("Rules")
	panel.AddSlider("Cohesion", 0, 100, &g.params.CohesionWeight)
	panel.AddSlider("Alignment", 0, 100, &g.params.AlignmentWeight)
	panel.AddSlider("Separation", 0, 100, &g.params.SeparationWeight)

	panel.AddSection("Goal (click to place)")
	panel.AddCheckbox("Seek Goal", &g.goalEnabled)
	panel.AddSlider("Goal Weight", 0, 100, &g.params.GoalWeight)

	panel.AddSection("Population")
	panel.AddSlider("Agents", 1, maxAgents, &g.population)
	panel.AddButton("Reseed (R)", func() { g.reseed = true })

	g.panel = panel
	return g, nil
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	// 1. Update UI Panel, it writes straight into the live parameters
	g.panel.Update()
	g.handleInput()

	if g.goalEnabled {
		goal := g.goal
		g.params.Goal = &goal
	} else {
		g.params.Goal = nil
	}

	// 2. Reseed is a barrier: it is answered before the next tick is sent.
	if g.reseed {
		g.reseed = false
		count := uint32(math.Round(g.population))
		if _, err := actor.Ask(g.ctx, g.worldPID, wrapperspb.UInt32(count), askTimeout); err != nil {
			return fmt.Errorf("reseed failed: %w", err)
		}
	}

	if g.switchRequested {
		g.switchRequested = false
		reply, err := actor.Ask(g.ctx, g.worldPID, wrapperspb.String(g.neighborhood), askTimeout)
		if err != nil {
			return fmt.Errorf("neighborhood switch failed: %w", err)
		}
		g.neighborhoodNote = ""
		if reason, ok := reply.(*wrapperspb.StringValue); ok {
			g.neighborhoodNote = reason.GetValue()
		}
	}

	// 3. Trigger Simulation Step; Ask so the parameters are not written while it runs
	dt := time.Second / time.Duration(ebiten.TPS())
	if _, err := actor.Ask(g.ctx, g.worldPID, durationpb.New(dt), askTimeout); err != nil {
		return fmt.Errorf("tick failed: %w", err)
	}

	// 4. Retrieve Latest State (Non-blocking)
	for {
		select {
		case snap := <-g.snapshotCh:
			g.lastState = snap
		default:
			return nil
		}
	}
}

func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reseed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.neighborhood = nextNeighborhood(g.neighborhood)
		g.switchRequested = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.goalEnabled = !g.goalEnabled
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		p := geometry.Vector2D{X: float64(mx), Y: float64(my)}
		if !g.panel.Contains(mx, my) && g.cfg.Bounds().Contains(p) {
			g.goal = p
			g.goalEnabled = true
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(backgroundColor)

	// 1. Draw all agents from the last known snapshot, in a single batch
	g.drawAgents(screen, g.lastState.Agents)

	if g.goalEnabled {
		vector.StrokeCircle(screen, float32(g.goal.X), float32(g.goal.Y), 6, 2, goalColor, true)
	}

	// 2. Draw UI Panel
	g.panel.Draw(screen)

	// 3. Stats (right side to avoid overlap with panel)
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nAgents: %d\nIndex: %s (N)\nTicks: %d\nOrder: %.2f\nNeighbors: %.1f\n\nUpdate: %.2fms\nDraw:   %.2fms\n%s",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		len(g.lastState.Agents),
		g.neighborhood,
		g.lastState.Ticks,
		g.lastState.Polarization,
		g.lastState.MeanNeighbors,
		g.updateAvg,
		g.drawAvg,
		g.neighborhoodNote)
	ebitenutil.DebugPrintAt(screen, msg, int(g.cfg.WorldWidth)-150, 10)
}

// drawAgents renders each agent as a small triangle pointing along its heading.
func (g *Game) drawAgents(screen *ebiten.Image, agents []behavior.Agent) {
	g.vertices = g.vertices[:0]
	g.indices = g.indices[:0]

	for _, a := range agents {
		// DrawTriangles indices are uint16
		if len(g.vertices)+3 > math.MaxUint16 {
			screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
			g.vertices = g.vertices[:0]
			g.indices = g.indices[:0]
		}

		angle := a.Heading.Angle()
		base := uint16(len(g.vertices))
		g.vertices = append(g.vertices,
			vertex(a.Position.Add(geometry.NewVectorPolar(6, angle))),
			vertex(a.Position.Add(geometry.NewVectorPolar(5, angle+2.5))),
			vertex(a.Position.Add(geometry.NewVectorPolar(5, angle-2.5))),
		)
		g.indices = append(g.indices, base, base+1, base+2)
	}

	if len(g.vertices) > 0 {
		screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
	}
}

func vertex(p geometry.Vector2D) ebiten.Vertex {
	return ebiten.Vertex{
		DstX: float32(p.X),
		DstY: float32(p.Y),
		SrcX: 1, SrcY: 1,
		ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
	}
}

var neighborhoods = []string{simulation.NeighborhoodGrid, simulation.NeighborhoodRTree, simulation.NeighborhoodLinear}

// nextNeighborhood cycles through the available strategies.
func nextNeighborhood(current string) string {
	for i, n := range neighborhoods {
		if n == current {
			return neighborhoods[(i+1)%len(neighborhoods)]
		}
	}
	return neighborhoods[0]
}

func (g *Game) Layout(w, h int) (int, int) { return int(g.cfg.WorldWidth), int(g.cfg.WorldHeight) }
