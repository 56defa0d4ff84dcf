package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput       Phase = iota // 0: latch input for this frame
	PhasePlayer                   // 1: player movement, pickups
	PhaseEnemies                  // 2: enemy AI, contact damage
	PhaseWeapons                  // 3: weapon cooldowns and casts
	PhaseEffects                  // 4: projectiles + area effects
	PhaseSpawn                    // 5: spawn director, population control, map hazards
	PhaseBoss                     // 6: boss schedule + phase machines
	PhaseScore                    // 7: combo decay, score recompute
	PhaseIntegrity                // 8: anti-cheat signals
	PhaseProgression              // 9: level-up and chest triggers
	PhaseCleanup                  // 10: return dead entities to their pools
)

var phaseNames = [...]string{
	"input", "player", "enemies", "weapons", "effects", "spawn",
	"boss", "score", "integrity", "progression", "cleanup",
}

func (p Phase) String() string {
	if int(p) < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every per-frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
