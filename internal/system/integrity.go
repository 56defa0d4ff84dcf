package system

import (
	"time"

	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/world"
)

// IntegritySystem feeds this frame's kills and damage into the integrity
// tracker and takes (sim, wall) checkpoints on a fixed simulated cadence.
type IntegritySystem struct {
	ws     *world.State
	frame  *world.FrameLog
	clock  *world.Clock
	track  *world.Integrity
	limits world.IntegrityLimits
	nextCP float64
	kills  uint32
}

func NewIntegritySystem(ws *world.State, limits world.IntegrityLimits) *IntegritySystem {
	return &IntegritySystem{
		ws:     ws,
		frame:  ws.Frame,
		clock:  ws.Clock,
		track:  ws.Integrity,
		limits: limits,
		nextCP: limits.CheckpointInterval,
	}
}

func (s *IntegritySystem) Phase() coresys.Phase { return coresys.PhaseIntegrity }

func (s *IntegritySystem) Update(_ time.Duration) {
	now := s.clock.Elapsed
	for range s.frame.Kills {
		s.kills++
		s.track.RecordKill(now, s.limits.KillWindow)
		s.track.Feed(world.HashKill, s.kills)
	}
	s.track.RecordDamage(now, s.frame.Damage)
	if s.limits.CheckpointInterval > 0 && now >= s.nextCP {
		s.track.AddCheckpoint(now, s.ws.WallElapsed())
		s.nextCP += s.limits.CheckpointInterval
	}
}

// Report finalizes the integrity signals at the current instant.
func (s *IntegritySystem) Report() world.IntegrityReport {
	return s.track.Report(s.limits, world.Checkpoint{Sim: s.clock.Elapsed, Wall: s.ws.WallElapsed()})
}
