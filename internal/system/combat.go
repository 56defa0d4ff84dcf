package system

import (
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/core/event"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

// Status effect constants.
const (
	BurnShare      = 0.3 // burn dps as a fraction of the igniting hit
	BurnDuration   = 3.0
	BurnTick       = 0.5
	IceSlow        = 0.4
	IceSlowTime    = 2.0
	ChainShare     = 0.5 // lightning chain-on-kill damage fraction
	ChainRadius    = 6.0
	HitFlashTime   = 0.1
	ContactDelay   = 0.5
	PulseInterval  = 250 // ms between damage-pulse events
	GemScatter     = 0.4
	SplitSpreadMul = 1.2
)

// Hit describes one damage application against an enemy.
type Hit struct {
	Amount    float64
	Type      string // data.Element*
	Silent    bool   // no hit flash
	ForceCrit bool
	NoCrit    bool
	Knockback float64
	From      world.Vec3
}

// Combat is the damage resolver. It mutates hp and status fields only;
// deaths and spawns go through the Store.
type Combat struct {
	store    *world.Store
	grid     *world.Grid
	player   *world.Player
	stats    *world.Stats
	frame    *world.FrameLog
	clock    *world.Clock
	rng      *rand.Rand
	events   *event.Queue
	tables   *data.Tables
	pop      *Population
	place    func(world.Vec3) world.Vec3
	combo    world.ComboConfig
	pulse    *rate.Limiter
	chaining bool
}

func NewCombat(ws *world.State, pop *Population) *Combat {
	return &Combat{
		store:  ws.Store,
		grid:   ws.Grid,
		player: ws.Player,
		stats:  ws.Stats,
		frame:  ws.Frame,
		clock:  ws.Clock,
		rng:    ws.RNG,
		events: ws.Events,
		tables: ws.Tables,
		pop:    pop,
		place:  ws.Place,
		combo:  world.DefaultCombo,
		pulse:  rate.NewLimiter(rate.Every(PulseInterval*time.Millisecond), 1),
	}
}

// ApplyDamage applies amount of damage type dtype to an enemy and returns the
// hp it actually lost. Dead or stale targets take nothing.
func (c *Combat) ApplyDamage(id ecs.EntityID, amount float64, dtype string, silent bool) float64 {
	return c.ApplyHit(id, Hit{Amount: amount, Type: dtype, Silent: silent})
}

// ApplyHit resolves crit, status effects, knockback and the lethal
// transition for one hit.
func (c *Combat) ApplyHit(id ecs.EntityID, h Hit) float64 {
	e := c.store.Enemy(id)
	if e == nil || h.Amount <= 0 {
		return 0
	}
	dmg := h.Amount
	if !h.NoCrit && (h.ForceCrit || c.rng.Float64() < c.player.CritChance) {
		dmg *= c.player.CritMult
	}

	before := e.HP
	e.HP = math.Max(0, e.HP-dmg)
	lost := before - e.HP
	c.frame.Damage += lost
	c.stats.DamageDealt += lost
	if !h.Silent {
		e.HitFlash = HitFlashTime
	}

	switch h.Type {
	case data.ElementFire:
		e.BurnDPS = dmg * BurnShare
		e.BurnTimer = BurnDuration
		e.Attach("burning")
	case data.ElementIce:
		e.SlowAmount = math.Max(e.SlowAmount, IceSlow)
		e.SlowTimer = math.Max(e.SlowTimer, IceSlowTime)
		e.Attach("frozen")
	}
	if h.Knockback > 0 && !e.IsBoss() {
		e.Pos = c.place(e.Pos.Add(h.From.Dir2D(e.Pos).Scale(h.Knockback)))
	}

	if e.HP <= 0 {
		c.kill(id, e, dmg, h.Type)
	}
	return lost
}

func (c *Combat) kill(id ecs.EntityID, e *world.Enemy, blow float64, dtype string) {
	pos, xp, elite, boss, def := e.Pos, e.XP, e.Elite, e.IsBoss(), e.Def
	hpScale := 1.0
	if def != nil && def.HP > 0 {
		hpScale = e.MaxHP / def.HP
		if elite {
			hpScale /= c.tables.Spawn.Director.EliteHPMult
		}
	}
	if !c.store.KillEnemy(id) {
		return
	}
	c.stats.RecordKill(c.combo)
	c.frame.Kills = append(c.frame.Kills, world.KillRecord{Type: e.Type, Pos: pos, Boss: boss, Elite: elite})
	if w := c.player.Weapon(WeaponSoulHarvest); w != nil {
		w.Souls++
	}

	c.store.SpawnPickup(world.PickupXP, pos, xp*c.player.XPMult)
	if elite && c.rng.Float64() < c.tables.Spawn.Director.EliteChestChance {
		c.store.SpawnPickup(world.PickupChest, c.place(pos.Polar(c.rng.Float64()*2*math.Pi, GemScatter)), 0)
	}
	if def != nil && def.SplitInto != "" {
		c.split(def, pos, hpScale)
	}
	if dtype == data.ElementLightning && !c.chaining {
		c.chain(pos, blow)
	}
}

// split spawns the lower-tier children around a dead splitter. Children
// inherit the parent's time scaling but never its elite bonus.
func (c *Combat) split(def *data.EnemyDef, pos world.Vec3, hpScale float64) {
	child := c.tables.Enemies.Get(def.SplitInto)
	if child == nil {
		return
	}
	n := min(def.SplitCount, c.pop.Room())
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(def.SplitCount)
		_, e := c.store.SpawnEnemy(child, c.place(pos.Polar(angle, child.Radius*SplitSpreadMul+0.2)))
		e.MaxHP = child.HP * hpScale
		e.HP = e.MaxHP
	}
}

// chain forwards part of a lightning killing blow to the nearest live enemy.
// One hop only.
func (c *Combat) chain(from world.Vec3, blow float64) {
	next, _ := c.grid.Nearest(from, ChainRadius, nil)
	if next.IsZero() {
		return
	}
	c.chaining = true
	c.ApplyHit(next, Hit{Amount: blow * ChainShare, Type: data.ElementLightning, NoCrit: true})
	c.chaining = false
}

// DamagePlayer applies incoming damage to the player: max(1, amount-armor),
// ignored while invulnerable. Returns the damage taken.
func (c *Combat) DamagePlayer(amount float64, source world.Vec3, fromBoss bool) float64 {
	p := c.player
	if p.Dying || p.Invuln > 0 || amount <= 0 {
		return 0
	}
	final := math.Max(1, amount-p.Armor)
	p.HP = math.Max(0, p.HP-final)
	p.Invuln = world.InvulnDuration

	kb := world.Knockback
	if fromBoss {
		kb = world.BossKnockback
	}
	p.Knock = source.Dir2D(p.Pos).Scale(kb)

	if c.pulse.AllowN(simTime(c.clock.Elapsed), 1) {
		event.Emit(c.events, world.DamagePulse{Amount: final, HP: p.HP})
	}
	if p.HP <= 0 {
		p.Dying = true
		event.Emit(c.events, world.PlayerDied{Survival: c.clock.Elapsed})
	}
	return final
}
