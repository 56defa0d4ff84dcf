package system

import (
	"math"

	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

// BossBehavior is the per-type part of a boss. The director owns timers and
// phase transitions and calls into the behaviour at fixed points.
type BossBehavior interface {
	OnTick(b *BossDirector, e *world.Enemy, dt float64)
	OnPhaseEnter(b *BossDirector, e *world.Enemy, phase int)
	OnSlam(b *BossDirector, e *world.Enemy)
}

// Boss ids with dedicated behaviours.
const (
	BossGolemKing    = "golem_king"
	BossFrostTitan   = "frost_titan"
	BossShadowReaper = "shadow_reaper"
	BossInfernoDrake = "inferno_drake"
	BossStoneWarden  = "stone_warden"
)

var bossBehaviors = map[string]func() BossBehavior{
	BossGolemKing:    func() BossBehavior { return &golemKing{} },
	BossFrostTitan:   func() BossBehavior { return &frostTitan{} },
	BossShadowReaper: func() BossBehavior { return &shadowReaper{} },
	BossInfernoDrake: func() BossBehavior { return &infernoDrake{} },
	BossStoneWarden:  func() BossBehavior { return &stoneWarden{} },
}

// behaviorFor returns the boss's behaviour. Unknown ids get a generic one
// that casts whatever ability the current phase row names.
func behaviorFor(def *data.BossDef) BossBehavior {
	if mk, ok := bossBehaviors[def.ID]; ok {
		return mk()
	}
	return &genericBoss{}
}

// periodic fires the current phase's ability every AbilityInterval seconds.
func periodic(b *BossDirector, e *world.Enemy, dt float64, fire func()) {
	br := e.Boss
	row := b.phaseRow(br)
	if row.Ability == data.AbilityNone || row.AbilityInterval <= 0 {
		return
	}
	br.AbilityTimer -= dt
	if br.AbilityTimer > 0 {
		return
	}
	br.AbilityTimer = row.AbilityInterval
	fire()
}

func castAbility(b *BossDirector, e *world.Enemy, ability string) {
	switch ability {
	case data.AbilitySummon:
		summonAdds(b, e)
	case data.AbilityHazard:
		dropHazards(b, e)
	case data.AbilityTeleport:
		teleportStrike(b, e)
	case data.AbilityCone:
		breatheCone(b, e)
	case data.AbilityObstacles:
		raiseObstacles(b, e)
	}
}

type genericBoss struct{}

func (genericBoss) OnTick(b *BossDirector, e *world.Enemy, dt float64) {
	periodic(b, e, dt, func() { castAbility(b, e, b.phaseRow(e.Boss).Ability) })
}
func (genericBoss) OnPhaseEnter(*BossDirector, *world.Enemy, int) {}
func (genericBoss) OnSlam(*BossDirector, *world.Enemy)            {}

// golemKing calls a wave of adds on entering its enraged phase and then
// keeps summoning on the phase interval.
type golemKing struct{}

func (golemKing) OnTick(b *BossDirector, e *world.Enemy, dt float64) {
	periodic(b, e, dt, func() { summonAdds(b, e) })
}
func (golemKing) OnPhaseEnter(b *BossDirector, e *world.Enemy, _ int) { summonAdds(b, e) }
func (golemKing) OnSlam(*BossDirector, *world.Enemy)                  {}

// frostTitan drops frost hazard zones around the player; its slam leaves a
// short-lived frost patch under itself.
type frostTitan struct{}

func (frostTitan) OnTick(b *BossDirector, e *world.Enemy, dt float64) {
	periodic(b, e, dt, func() { dropHazards(b, e) })
}
func (frostTitan) OnPhaseEnter(b *BossDirector, e *world.Enemy, _ int) { dropHazards(b, e) }
func (frostTitan) OnSlam(b *BossDirector, e *world.Enemy) {
	if e.Boss.Phase == 0 {
		return
	}
	def := e.Boss.Def
	_, fx := b.store.SpawnEffect(world.EffectHazard, e.Pos, b.clock.Elapsed+def.AbilityDuration/2)
	fx.Source = def.ID
	fx.Radius = e.Boss.Entry.SlamRadius * 0.5
	fx.Damage = def.AbilityDamage
	fx.Element = data.ElementIce
	fx.TickInterval = 0.5
	fx.TickTimer = 0.5
}

// shadowReaper blinks behind the player and strikes.
type shadowReaper struct{}

func (shadowReaper) OnTick(b *BossDirector, e *world.Enemy, dt float64) {
	periodic(b, e, dt, func() { teleportStrike(b, e) })
}
func (shadowReaper) OnPhaseEnter(b *BossDirector, e *world.Enemy, _ int) { teleportStrike(b, e) }
func (shadowReaper) OnSlam(*BossDirector, *world.Enemy)                  {}

// infernoDrake breathes a fire cone toward the player.
type infernoDrake struct{}

func (infernoDrake) OnTick(b *BossDirector, e *world.Enemy, dt float64) {
	periodic(b, e, dt, func() { breatheCone(b, e) })
}
func (infernoDrake) OnPhaseEnter(*BossDirector, *world.Enemy, int) {}
func (infernoDrake) OnSlam(b *BossDirector, e *world.Enemy) {
	if e.Boss.Phase >= 2 {
		breatheCone(b, e)
	}
}

// stoneWarden walls the player in with temporary pillars.
type stoneWarden struct{}

func (stoneWarden) OnTick(b *BossDirector, e *world.Enemy, dt float64) {
	periodic(b, e, dt, func() { raiseObstacles(b, e) })
}
func (stoneWarden) OnPhaseEnter(b *BossDirector, e *world.Enemy, _ int) { raiseObstacles(b, e) }
func (stoneWarden) OnSlam(*BossDirector, *world.Enemy)                  {}

func summonAdds(b *BossDirector, e *world.Enemy) {
	def := e.Boss.Def
	add := b.tables.Enemies.Get(def.SummonType)
	if add == nil {
		return
	}
	n := min(def.SummonCount, b.pop.Room())
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(max(1, def.SummonCount))
		b.store.SpawnEnemy(add, b.ws.Place(e.Pos.Polar(angle, e.Radius+2)))
	}
}

func dropHazards(b *BossDirector, e *world.Enemy) {
	def := e.Boss.Def
	for i := 0; i < max(1, def.AbilityCount); i++ {
		at := b.player.Pos
		if i > 0 {
			at = at.Polar(b.rng.Float64()*2*math.Pi, b.rng.Float64()*def.AbilityRange)
		}
		_, fx := b.store.SpawnEffect(world.EffectHazard, b.ws.Place(at), b.clock.Elapsed+def.AbilityDuration)
		fx.Source = def.ID
		fx.Radius = def.AbilityRadius
		fx.Damage = def.AbilityDamage
		fx.Element = data.ElementIce
		fx.TickInterval = 0.5
		fx.TickTimer = 0.5
	}
}

// teleportStrike moves the boss AbilityRange units behind the player and
// strikes within AbilityRadius of where it lands.
func teleportStrike(b *BossDirector, e *world.Enemy) {
	def := e.Boss.Def
	// facing is (sin yaw, cos yaw) on XZ; Polar measures from +X
	behind := math.Pi/2 - b.player.Yaw + math.Pi
	e.Pos = b.ws.Place(b.player.Pos.Polar(behind, def.AbilityRange))
	if e.Pos.Dist2D(b.player.Pos) <= def.AbilityRadius+world.PlayerRadius {
		b.combat.DamagePlayer(def.AbilityDamage, e.Pos, true)
	}
	_, fx := b.store.SpawnEffect(world.EffectSlam, e.Pos, b.clock.Elapsed+slamLife)
	fx.Source = def.ID
	fx.Radius = def.AbilityRadius
}

// breatheCone damages the player if they stand inside a cone of length
// AbilityRadius and half-angle AbilityRange aimed at them.
func breatheCone(b *BossDirector, e *world.Enemy) {
	def := e.Boss.Def
	if InCone(e.Pos, e.Pos.Dir2D(b.player.Pos), b.player.Pos, def.AbilityRadius, def.AbilityRange) {
		b.combat.DamagePlayer(def.AbilityDamage, e.Pos, true)
	}
	_, fx := b.store.SpawnEffect(world.EffectBeam, e.Pos, b.clock.Elapsed+slamLife)
	fx.Source = def.ID
	fx.Element = data.ElementFire
	fx.Radius = def.AbilityRange
	fx.Points = append(fx.Points, e.Pos, e.Pos.Add(e.Pos.Dir2D(b.player.Pos).Scale(def.AbilityRadius)))
}

// InCone reports whether target lies within length of origin and within
// halfAngle radians of dir.
func InCone(origin, dir, target world.Vec3, length, halfAngle float64) bool {
	d := origin.Dist2D(target)
	if d > length {
		return false
	}
	if d == 0 {
		return true
	}
	to := origin.Dir2D(target)
	dot := dir.X*to.X + dir.Z*to.Z
	return dot >= math.Cos(halfAngle)
}

func raiseObstacles(b *BossDirector, e *world.Enemy) {
	def := e.Boss.Def
	n := max(1, def.AbilityCount)
	offset := b.rng.Float64() * 2 * math.Pi
	for i := 0; i < n; i++ {
		angle := offset + 2*math.Pi*float64(i)/float64(n)
		_, fx := b.store.SpawnEffect(world.EffectObstacle, b.ws.Place(b.player.Pos.Polar(angle, def.AbilityRange)), b.clock.Elapsed+def.AbilityDuration)
		fx.Source = def.ID
		fx.Radius = def.AbilityRadius
	}
}
