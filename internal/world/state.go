package world

import (
	"math/rand"
	"time"

	"github.com/hordecore/hordecore/internal/core/event"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/terrain"
)

// DeviceClass selects look sensitivity.
type DeviceClass uint8

const (
	DevicePointer DeviceClass = iota
	DeviceTouch
)

// Input is the per-frame normalized signal set from the input collaborator.
// MoveX/MoveZ are camera-relative intent in [-1, 1].
type Input struct {
	MoveX, MoveZ   float64
	LookDX, LookDY float64
	Jump           bool
	Slide          bool
	Interact       bool
	Device         DeviceClass
}

// Clock tracks simulated and real time of a run, in seconds.
type Clock struct {
	Elapsed float64 // simulated, slowed during the death sequence
	Real    float64 // unscaled frame time
	Frame   uint64
	Dt      float64 // simulated step of the current frame
}

// Minutes returns simulated elapsed minutes.
func (c *Clock) Minutes() float64 { return c.Elapsed / 60 }

// State is the mutable context of one run. Systems keep pointers to the
// parts they use rather than to State itself.
type State struct {
	Player    *Player
	Store     *Store
	Grid      *Grid
	Stats     *Stats
	Frame     *FrameLog
	Integrity *Integrity
	Clock     *Clock
	Input     *Input
	RNG       *rand.Rand
	Events    *event.Queue

	Tables    *data.Tables
	Map       *data.MapDef
	Character *data.CharacterDef
	Bounds    terrain.Bounds

	// wall clock, injectable for tests
	Now     func() time.Time
	Started time.Time
}

// NewState builds an empty run on the given map. The player is created by the
// caller once modifiers are known.
func NewState(tables *data.Tables, m *data.MapDef, c *data.CharacterDef, seed int64, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	half := m.HalfSize
	if half <= 0 {
		half = 100
	}
	store := NewStore()
	return &State{
		Store:     store,
		Grid:      NewGrid(store),
		Stats:     NewStats(),
		Frame:     &FrameLog{},
		Integrity: &Integrity{},
		Clock:     &Clock{},
		Input:     &Input{},
		RNG:       rand.New(rand.NewSource(seed)),
		Events:    event.NewQueue(),
		Tables:    tables,
		Map:       m,
		Character: c,
		Bounds:    terrain.Bounds{Half: half},
		Now:       now,
		Started:   now(),
	}
}

// Ground returns terrain height at (x, z) on this map.
func (s *State) Ground(x, z float64) float64 {
	return terrain.HeightAmp(x, z, s.Map.Seed, s.Map.Amplitude)
}

// Place clamps p into the arena and snaps it to the ground.
func (s *State) Place(p Vec3) Vec3 {
	p.X, p.Z = s.Bounds.Clamp(p.X, p.Z)
	p.Y = s.Ground(p.X, p.Z)
	return p
}

// WallElapsed returns wall-clock time since the run started.
func (s *State) WallElapsed() time.Duration {
	return s.Now().Sub(s.Started)
}
