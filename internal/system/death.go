package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/world"
)

// DeathSystem runs the death sequence: once the player is dying it counts
// unscaled frame time and reports Finished after the slow-motion window.
type DeathSystem struct {
	player   *world.Player
	clock    *world.Clock
	stats    *world.Stats
	window   float64 // real seconds
	elapsed  float64
	noticed  bool
	finished bool
	log      *zap.Logger
}

func NewDeathSystem(ws *world.State, window time.Duration, log *zap.Logger) *DeathSystem {
	return &DeathSystem{player: ws.Player, clock: ws.Clock, stats: ws.Stats, window: window.Seconds(), log: log}
}

func (s *DeathSystem) Phase() coresys.Phase { return coresys.PhaseProgression }

func (s *DeathSystem) Update(_ time.Duration) {
	if !s.player.Dying || s.finished {
		return
	}
	if !s.noticed {
		s.noticed = true
		s.log.Info("player died",
			zap.Float64("survival", s.clock.Elapsed),
			zap.Int("kills", s.stats.Kills),
			zap.Int("level", s.player.Level),
		)
	}
	s.elapsed += s.clock.Real
	if s.elapsed >= s.window {
		s.finished = true
	}
}

// Finished reports whether the slow-motion window has run out.
func (s *DeathSystem) Finished() bool { return s.finished }

// Remaining returns real seconds left in the window, 0 when not dying.
func (s *DeathSystem) Remaining() float64 {
	if !s.player.Dying {
		return 0
	}
	return max(0, s.window-s.elapsed)
}
