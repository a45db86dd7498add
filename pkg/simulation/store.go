package simulation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
)

// ErrStaleHandle is returned when a handle minted before the last reseed is used.
var ErrStaleHandle = errors.New("stale agent handle")

// Handle identifies an agent. Index addresses the arena slot, Population is
// regenerated on every reseed so older handles can be told apart.
type Handle struct {
	Population uuid.UUID
	Index      int
}

// String implements the fmt.Stringer interface.
func (h Handle) String() string {
	return fmt.Sprintf("%s#%d", h.Population.String()[:8], h.Index)
}

// Store is the agent arena: parallel arrays indexed by handle index.
// It is not safe for concurrent writers; the tick writes each slot from one worker only.
type Store struct {
	population uuid.UUID
	positions  []geometry.Vector2D
	headings   []geometry.Vector2D
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{population: uuid.New()}
}

// Len returns the number of agents.
func (s *Store) Len() int { return len(s.positions) }

// Population returns the id of the current population.
func (s *Store) Population() uuid.UUID { return s.population }

// Replace swaps the whole population for agents and invalidates every handle.
func (s *Store) Replace(agents []behavior.Agent) {
	positions := make([]geometry.Vector2D, len(agents))
	headings := make([]geometry.Vector2D, len(agents))
	for i, a := range agents {
		positions[i] = a.Position
		headings[i] = a.Heading
	}
	s.positions = positions
	s.headings = headings
	s.population = uuid.New()
}

// Snapshot copies every agent into dst (reusing its capacity) and returns it.
func (s *Store) Snapshot(dst []behavior.Agent) []behavior.Agent {
	dst = dst[:0]
	for i := range s.positions {
		dst = append(dst, behavior.Agent{Position: s.positions[i], Heading: s.headings[i]})
	}
	return dst
}

// At returns the agent in slot i.
func (s *Store) At(i int) behavior.Agent {
	return behavior.Agent{Position: s.positions[i], Heading: s.headings[i]}
}

// Set overwrites slot i.
func (s *Store) Set(i int, a behavior.Agent) {
	s.positions[i] = a.Position
	s.headings[i] = a.Heading
}

// Handles returns a handle for every agent of the current population.
func (s *Store) Handles() []Handle {
	handles := make([]Handle, len(s.positions))
	for i := range handles {
		handles[i] = Handle{Population: s.population, Index: i}
	}
	return handles
}

// Get resolves a handle.
func (s *Store) Get(h Handle) (behavior.Agent, error) {
	if h.Population != s.population || h.Index < 0 || h.Index >= len(s.positions) {
		return behavior.Agent{}, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	return s.At(h.Index), nil
}
