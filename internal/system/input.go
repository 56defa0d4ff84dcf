package system

import (
	"math"
	"time"

	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/world"
)

// InputSystem latches the collaborator's signals into the frame input.
// Movement axes are held until replaced; look deltas accumulate between
// frames and action flags stay raised until one frame has seen them.
type InputSystem struct {
	frame   *world.Input
	pending world.Input
}

func NewInputSystem(ws *world.State) *InputSystem {
	return &InputSystem{frame: ws.Input}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Submit queues signals for the next frame. Safe to call any number of times
// between frames; only the game loop goroutine may call it.
func (s *InputSystem) Submit(in world.Input) {
	s.pending.MoveX = axis(in.MoveX)
	s.pending.MoveZ = axis(in.MoveZ)
	s.pending.LookDX += finite(in.LookDX)
	s.pending.LookDY += finite(in.LookDY)
	s.pending.Jump = s.pending.Jump || in.Jump
	s.pending.Slide = s.pending.Slide || in.Slide
	s.pending.Interact = s.pending.Interact || in.Interact
	s.pending.Device = in.Device
}

func (s *InputSystem) Update(_ time.Duration) {
	*s.frame = s.pending
	s.pending.LookDX, s.pending.LookDY = 0, 0
	s.pending.Jump, s.pending.Slide, s.pending.Interact = false, false, false
}

func axis(v float64) float64 {
	return clamp(finite(v), -1, 1)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
