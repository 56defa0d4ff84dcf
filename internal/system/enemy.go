package system

import (
	"math"
	"time"

	"github.com/hordecore/hordecore/internal/core/ecs"
	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

// Support enemies hold this distance from the player instead of closing in.
const supportStandoff = 9.0

// EnemySystem runs enemy AI: status ticks, chasing, contact damage,
// healer/summoner behaviours and distance despawn. It rebuilds the
// neighbour grid once enemies have moved.
type EnemySystem struct {
	store   *world.Store
	grid    *world.Grid
	player  *world.Player
	tables  *data.Tables
	combat  *Combat
	pop     *Population
	place   func(world.Vec3) world.Vec3
	despawn float64
}

func NewEnemySystem(ws *world.State, combat *Combat, pop *Population) *EnemySystem {
	return &EnemySystem{
		store:   ws.Store,
		grid:    ws.Grid,
		player:  ws.Player,
		tables:  ws.Tables,
		combat:  combat,
		pop:     pop,
		place:   ws.Place,
		despawn: ws.Tables.Spawn.Director.DespawnDistance,
	}
}

func (s *EnemySystem) Phase() coresys.Phase { return coresys.PhaseEnemies }

func (s *EnemySystem) Update(d time.Duration) {
	dt := d.Seconds()
	s.store.EachEnemy(func(id ecs.EntityID, e *world.Enemy) bool {
		s.tickStatus(id, e, dt)
		if !e.Alive {
			return true
		}
		dist := e.Pos.Dist2D(s.player.Pos)
		if !e.IsBoss() && s.despawn > 0 && dist > s.despawn {
			s.store.DespawnEnemy(id)
			return true
		}
		if e.IsBoss() && e.Boss.ScaleIn > 0 {
			return true
		}
		if e.Def != nil {
			switch e.Def.Behaviour {
			case data.BehaviourHealer:
				s.heal(id, e, dt)
			case data.BehaviourSummoner:
				s.summon(e, dt)
			}
		}
		s.move(e, dist, dt)
		s.contact(e)
		return true
	})
	s.grid.Rebuild()
}

func (s *EnemySystem) tickStatus(id ecs.EntityID, e *world.Enemy, dt float64) {
	e.HitFlash = math.Max(0, e.HitFlash-dt)
	e.ContactCooldown = math.Max(0, e.ContactCooldown-dt)
	if e.SlowTimer > 0 {
		e.SlowTimer -= dt
		if e.SlowTimer <= 0 {
			e.SlowTimer = 0
			e.SlowAmount = 0
			e.Detach("frozen")
		}
	}
	if e.BurnTimer > 0 {
		e.BurnTick += dt
		e.BurnTimer -= dt
		for e.BurnTick >= BurnTick && e.Alive {
			e.BurnTick -= BurnTick
			// burn ticks never crit and never re-ignite
			s.combat.ApplyHit(id, Hit{Amount: e.BurnDPS * BurnTick, Type: data.ElementPhysical, NoCrit: true, Silent: true})
		}
		if e.BurnTimer <= 0 && e.Alive {
			e.BurnTimer, e.BurnDPS, e.BurnTick = 0, 0, 0
			e.Detach("burning")
		}
	}
}

func (s *EnemySystem) move(e *world.Enemy, dist, dt float64) {
	if e.Def != nil && e.Def.Behaviour != data.BehaviourChaser && dist < supportStandoff {
		return
	}
	speed := e.Speed * (1 - e.SlowAmount)
	step := math.Min(speed*dt, math.Max(0, dist-e.Radius))
	e.Vel = e.Pos.Dir2D(s.player.Pos).Scale(speed)
	e.Pos = s.place(e.Pos.Add(e.Pos.Dir2D(s.player.Pos).Scale(step)))
}

func (s *EnemySystem) contact(e *world.Enemy) {
	if e.ContactCooldown > 0 {
		return
	}
	if e.Pos.Dist2D(s.player.Pos) <= e.Radius+world.PlayerRadius {
		if s.combat.DamagePlayer(e.Damage, e.Pos, e.IsBoss()) > 0 {
			e.ContactCooldown = ContactDelay
		}
	}
}

func (s *EnemySystem) heal(self ecs.EntityID, e *world.Enemy, dt float64) {
	e.AbilityTimer -= dt
	if e.AbilityTimer > 0 {
		return
	}
	e.AbilityTimer = e.Def.AbilityInterval
	s.grid.Query(e.Pos, e.Def.AbilityRadius, func(id ecs.EntityID, ally *world.Enemy) bool {
		if id != self {
			ally.HP = math.Min(ally.MaxHP, ally.HP+e.Def.AbilityAmount)
		}
		return true
	})
}

func (s *EnemySystem) summon(e *world.Enemy, dt float64) {
	e.AbilityTimer -= dt
	if e.AbilityTimer > 0 {
		return
	}
	e.AbilityTimer = e.Def.AbilityInterval
	def := s.tables.Enemies.Get(e.Def.SummonType)
	if def == nil {
		return
	}
	n := min(e.Def.SummonCount, s.pop.Room())
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(max(1, e.Def.SummonCount))
		s.store.SpawnEnemy(def, s.place(e.Pos.Polar(angle, e.Radius+1.5)))
	}
}
