package system

import (
	"time"

	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/world"
)

// ScoreSystem decays the combo and recomputes the score from current stats.
type ScoreSystem struct {
	stats   *world.Stats
	player  *world.Player
	clock   *world.Clock
	weights world.ScoreWeights
}

func NewScoreSystem(ws *world.State) *ScoreSystem {
	return &ScoreSystem{stats: ws.Stats, player: ws.Player, clock: ws.Clock, weights: world.DefaultScoreWeights}
}

func (s *ScoreSystem) Phase() coresys.Phase { return coresys.PhaseScore }

func (s *ScoreSystem) Update(d time.Duration) {
	s.stats.Survival = s.clock.Elapsed
	s.stats.DecayCombo(d.Seconds())
	s.stats.Score = world.ComputeScore(s.stats, s.player.Level, s.weights)
}
