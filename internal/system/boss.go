package system

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/core/event"
	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

// slamLife is how long the slam pulse effect stays visible.
const slamLife = 0.4

// BossDirector walks the map's boss schedule, runs the active boss's phase
// state machine and slam timer, and drives overtime once the schedule is
// exhausted. At most one boss is active.
type BossDirector struct {
	ws       *world.State
	store    *world.Store
	player   *world.Player
	clock    *world.Clock
	stats    *world.Stats
	rng      *rand.Rand
	events   *event.Queue
	tables   *data.Tables
	combat   *Combat
	pop      *Population
	log      *zap.Logger
	schedule []data.ScheduleEntry
	unique   []string

	next     int // index of the next unspawned schedule entry
	active   ecs.EntityID
	behavior BossBehavior

	overtimeN    int // overtime spawns so far
	lastOvertime float64
}

func NewBossDirector(ws *world.State, combat *Combat, pop *Population, log *zap.Logger) *BossDirector {
	return &BossDirector{
		ws:           ws,
		store:        ws.Store,
		player:       ws.Player,
		clock:        ws.Clock,
		stats:        ws.Stats,
		rng:          ws.RNG,
		events:       ws.Events,
		tables:       ws.Tables,
		combat:       combat,
		pop:          pop,
		log:          log,
		schedule:     ws.Tables.Bosses.Schedule(ws.Map.ID),
		unique:       ws.Tables.Bosses.UniqueBosses(ws.Map.ID),
		lastOvertime: math.Inf(-1),
	}
}

func (b *BossDirector) Phase() coresys.Phase { return coresys.PhaseBoss }

// Active returns the live boss, or nil.
func (b *BossDirector) Active() (ecs.EntityID, *world.Enemy) {
	if b.active.IsZero() {
		return 0, nil
	}
	return b.active, b.store.Enemy(b.active)
}

// Next returns the index of the next unspawned schedule entry.
func (b *BossDirector) Next() int { return b.next }

func (b *BossDirector) Update(d time.Duration) {
	dt := d.Seconds()
	if !b.active.IsZero() {
		b.tickActive(dt)
	}
	if b.active.IsZero() && !b.player.Dying {
		b.trySpawn()
	}
}

func (b *BossDirector) trySpawn() {
	now := b.clock.Elapsed
	if b.next < len(b.schedule) {
		entry := b.schedule[b.next]
		if now < entry.Minute*60 {
			return
		}
		b.next++
		if def := b.tables.Bosses.Get(entry.Boss); def != nil {
			b.spawn(def, entry, 1, 0)
		}
		return
	}

	ot := b.tables.Bosses.Overtime
	if len(b.unique) == 0 || now < ot.StartMinute*60 || now-b.lastOvertime < ot.Cooldown {
		return
	}
	id := b.unique[b.overtimeN%len(b.unique)]
	cycle := b.overtimeN/len(b.unique) + 1
	b.overtimeN++
	b.lastOvertime = now
	def := b.tables.Bosses.Get(id)
	if def == nil {
		return
	}
	entry := b.lastEntryFor(id)
	entry.Mini = false
	b.spawn(def, entry, 1+ot.CycleScale*float64(cycle), cycle)
}

// lastEntryFor reuses the slam settings of the boss's latest schedule entry.
func (b *BossDirector) lastEntryFor(id string) data.ScheduleEntry {
	entry := data.ScheduleEntry{Boss: id, SlamInterval: 6, SlamRadius: 6, SlamDamage: 25}
	for _, e := range b.schedule {
		if e.Boss == id {
			entry = e
		}
	}
	return entry
}

func (b *BossDirector) spawn(def *data.BossDef, entry data.ScheduleEntry, mult float64, cycle int) {
	cfg := b.tables.Bosses.Director
	minutes := b.clock.Minutes()
	sd := b.tables.Spawn.Director
	hpMult := (1 + sd.HPPerMinute*minutes) * mult
	dmgMult := (1 + sd.DamagePerMinute*minutes) * mult

	pos := b.ws.Place(b.player.Pos.Polar(b.rng.Float64()*2*math.Pi, cfg.SpawnDistance))
	id, e := b.store.SpawnBoss(def, entry, pos, cfg.ScaleIn)
	e.MaxHP = def.HP * hpMult
	e.Damage = def.Damage * dmgMult
	if entry.Mini {
		e.MaxHP *= cfg.MiniHPMult
	}
	e.HP = e.MaxHP
	e.Boss.Overtime = cycle > 0
	e.Boss.Cycle = cycle
	e.Boss.SlamTimer = entry.SlamInterval

	b.active = id
	b.behavior = behaviorFor(def)
	b.enterPhase(e, 0)

	event.Emit(b.events, world.BossSpawned{ID: def.ID, Name: def.Name, Mini: entry.Mini, Overtime: cycle > 0})
	b.log.Info("boss spawned",
		zap.String("boss", def.ID),
		zap.Float64("hp", e.MaxHP),
		zap.Bool("mini", entry.Mini),
		zap.Int("cycle", cycle),
		zap.Float64("elapsed", b.clock.Elapsed),
	)
}

// targetScale is the size a boss grows into during scale-in.
func (b *BossDirector) targetScale(e *world.Enemy) float64 {
	if e.Boss.Entry.Mini && b.tables.Bosses.Director.MiniScale > 0 {
		return b.tables.Bosses.Director.MiniScale
	}
	return 1
}

func (b *BossDirector) tickActive(dt float64) {
	raw, ok := b.store.Enemies.Get(b.active)
	if !ok || !raw.Alive {
		b.defeated(raw)
		return
	}
	e := raw
	br := e.Boss
	target := b.targetScale(e)
	if br.ScaleIn > 0 {
		br.ScaleIn = math.Max(0, br.ScaleIn-dt)
		total := b.tables.Bosses.Director.ScaleIn
		if total > 0 {
			e.Scale = target * (1 - br.ScaleIn/total)
		} else {
			e.Scale = target
		}
		return
	}
	e.Scale = target
	if b.player.Dying {
		return
	}
	br.PhaseTime += dt

	if p := br.Def.PhaseFor(e.HP / e.MaxHP); p > br.Phase {
		b.enterPhase(e, p)
	}

	br.SlamTimer -= dt
	if br.SlamTimer <= 0 {
		b.slam(e)
		br.SlamTimer = br.Entry.SlamInterval * b.phaseRow(br).SlamMult
	}
	b.behavior.OnTick(b, e, dt)
}

// enterPhase moves a boss into phase p. Phases only increase, so each
// transition fires at most once.
func (b *BossDirector) enterPhase(e *world.Enemy, p int) {
	br := e.Boss
	if p < br.Phase || (p == br.Phase && p != 0) {
		return
	}
	br.Phase = p
	br.PhaseTime = 0
	row := b.phaseRow(br)
	e.Speed = e.BaseSpeed * row.SpeedMult
	br.AbilityTimer = row.AbilityInterval
	if p == 0 {
		return
	}
	event.Emit(b.events, world.BossPhaseChanged{ID: br.Def.ID, Name: br.Def.Name, Phase: p, Ability: row.Ability})
	b.behavior.OnPhaseEnter(b, e, p)
}

func (b *BossDirector) phaseRow(br *world.BossRuntime) data.BossPhase {
	if br.Phase < len(br.Def.Phases) {
		return br.Def.Phases[br.Phase]
	}
	return data.BossPhase{SpeedMult: 1, SlamMult: 1}
}

// slam is the boss's baseline periodic AOE.
func (b *BossDirector) slam(e *world.Enemy) {
	br := e.Boss
	radius := br.Entry.SlamRadius
	if e.Pos.Dist2D(b.player.Pos) <= radius+world.PlayerRadius {
		scale := 1.0
		if br.Def.Damage > 0 {
			scale = e.Damage / br.Def.Damage
		}
		b.combat.DamagePlayer(br.Entry.SlamDamage*scale, e.Pos, true)
	}
	_, fx := b.store.SpawnEffect(world.EffectSlam, e.Pos, b.clock.Elapsed+slamLife)
	fx.Source = br.Def.ID
	fx.Radius = radius
	event.Emit(b.events, world.BossSlam{ID: br.Def.ID, Pos: e.Pos, Radius: radius})
	b.behavior.OnSlam(b, e)
}

// defeated clears the active slot and awards the kill bonus. e may be nil
// if the slot was already recycled.
func (b *BossDirector) defeated(e *world.Enemy) {
	b.active = 0
	b.behavior = nil
	if e == nil || e.Boss == nil {
		return
	}
	def := e.Boss.Def
	e.Boss.SlamTimer = 0
	b.stats.BossKills++
	b.ws.Integrity.Feed(world.HashBoss, uint32(b.stats.BossKills))
	for i := 0; i < b.tables.Bosses.Director.ChestDrops; i++ {
		at := e.Pos.Polar(2*math.Pi*float64(i)/float64(b.tables.Bosses.Director.ChestDrops), 1.5)
		b.store.SpawnPickup(world.PickupChest, b.ws.Place(at), 0)
	}
	event.Emit(b.events, world.BossDefeated{ID: def.ID, Name: def.Name})
	b.log.Info("boss defeated",
		zap.String("boss", def.ID),
		zap.Int("boss_kills", b.stats.BossKills),
		zap.Float64("elapsed", b.clock.Elapsed),
	)
}
