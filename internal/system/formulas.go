package system

import (
	"math"
	"time"

	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/scripting"
	"github.com/hordecore/hordecore/internal/world"
)

// Formulas is the tunable-formula surface. *scripting.Engine and
// scripting.Builtin both satisfy it.
type Formulas interface {
	XPToNext(level int) int
	RunGold(ctx scripting.RunGoldContext) int
	EliteChance(ctx scripting.EliteContext) float64
}

// Population enforces the level-scaled cap on live non-boss enemies. Every
// path that adds regular enemies asks it for room first.
type Population struct {
	store  *world.Store
	player *world.Player
	cfg    *data.DirectorConfig
}

func NewPopulation(ws *world.State) *Population {
	return &Population{store: ws.Store, player: ws.Player, cfg: &ws.Tables.Spawn.Director}
}

// Cap returns the hard cap for the current player level.
func (p *Population) Cap() int {
	return p.cfg.PopulationCap(p.player.Level)
}

// Room returns how many more regular enemies may spawn right now.
func (p *Population) Room() int {
	return max(0, p.Cap()-p.store.LiveEnemies(false))
}

// simEpoch anchors simulated seconds on a time.Time for rate limiters.
var simEpoch = time.Unix(0, 0)

func simTime(sec float64) time.Time {
	return simEpoch.Add(time.Duration(sec * float64(time.Second)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
