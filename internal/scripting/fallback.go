package scripting

import "math"

// Go renditions of formulas.lua, used when a script fails and by callers that
// run without a VM.

func XPToNext(level int) int {
	l := float64(level)
	return int(math.Floor(10 + 10*l + 0.5*l*l))
}

func RunGold(ctx RunGoldContext) int {
	base := ctx.Survival/6 + float64(ctx.Kills)/10 + 25*float64(ctx.BossKills)
	return int(math.Floor(base * (1 + ctx.Greed)))
}

func EliteChance(ctx EliteContext) float64 {
	c := ctx.Base + ctx.Slope*ctx.Minutes
	return math.Max(0, math.Min(ctx.Cap, c))
}

// Builtin satisfies the same method set as Engine without Lua.
type Builtin struct{}

func (Builtin) XPToNext(level int) int               { return XPToNext(level) }
func (Builtin) RunGold(ctx RunGoldContext) int       { return RunGold(ctx) }
func (Builtin) EliteChance(ctx EliteContext) float64 { return EliteChance(ctx) }
