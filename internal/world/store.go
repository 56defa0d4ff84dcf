package world

import (
	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/data"
)

// Store owns every entity of a run. Combat code mutates hp and status fields
// only; membership changes go through Spawn*, KillEnemy, DespawnEnemy and
// Flush.
type Store struct {
	Enemies     *ecs.Arena[Enemy]
	Projectiles *ecs.Arena[Projectile]
	Pickups     *ecs.Arena[Pickup]
	Effects     *ecs.Arena[Effect]

	handles    map[string][]uint32 // enemy type → free render handles
	nextHandle uint32

	liveRegular int
	liveBoss    int
}

func NewStore() *Store {
	return &Store{
		Enemies:     ecs.NewArena[Enemy](),
		Projectiles: ecs.NewArena[Projectile](),
		Pickups:     ecs.NewArena[Pickup](),
		Effects:     ecs.NewArena[Effect](),
		handles:     make(map[string][]uint32),
	}
}

func (s *Store) takeHandle(typ string) uint32 {
	free := s.handles[typ]
	if n := len(free); n > 0 {
		h := free[n-1]
		s.handles[typ] = free[:n-1]
		return h
	}
	s.nextHandle++
	return s.nextHandle
}

// SpawnEnemy creates a live enemy of the given type at pos with base stats.
// Callers scale stats afterwards.
func (s *Store) SpawnEnemy(def *data.EnemyDef, pos Vec3) (ecs.EntityID, *Enemy) {
	id, e := s.Enemies.Alloc()
	e.Type = def.ID
	e.Def = def
	e.Name = def.Name
	e.Pos = pos
	e.HP = def.HP
	e.MaxHP = def.HP
	e.Damage = def.Damage
	e.Speed = def.Speed
	e.BaseSpeed = def.Speed
	e.Radius = def.Radius
	e.XP = def.XP
	e.Scale = 1
	e.Alive = true
	e.AbilityTimer = def.AbilityInterval
	e.Handle = s.takeHandle(def.ID)
	s.liveRegular++
	return id, e
}

// SpawnBoss creates a live boss. The boss starts inert for scaleIn seconds.
func (s *Store) SpawnBoss(def *data.BossDef, entry data.ScheduleEntry, pos Vec3, scaleIn float64) (ecs.EntityID, *Enemy) {
	id, e := s.Enemies.Alloc()
	e.Type = def.ID
	e.Name = def.Name
	e.Pos = pos
	e.HP = def.HP
	e.MaxHP = def.HP
	e.Damage = def.Damage
	e.Speed = def.Speed
	e.BaseSpeed = def.Speed
	e.Radius = def.Radius
	e.XP = def.XP
	e.Alive = true
	e.Handle = s.takeHandle(def.ID)
	e.Boss = &BossRuntime{
		Def:       def,
		Entry:     entry,
		SlamTimer: entry.SlamInterval,
		ScaleIn:   scaleIn,
	}
	if scaleIn <= 0 {
		e.Scale = 1
	}
	s.liveBoss++
	return id, e
}

// KillEnemy marks a live enemy dead and queues its removal. It returns true
// only on the single live→dead transition.
func (s *Store) KillEnemy(id ecs.EntityID) bool {
	e, ok := s.Enemies.Get(id)
	if !ok || !e.Alive {
		return false
	}
	s.markDead(id, e)
	return true
}

// DespawnEnemy removes a live enemy without rewards (distance culling,
// population trim).
func (s *Store) DespawnEnemy(id ecs.EntityID) bool {
	return s.KillEnemy(id)
}

func (s *Store) markDead(id ecs.EntityID, e *Enemy) {
	e.Alive = false
	e.HP = 0
	if e.IsBoss() {
		s.liveBoss--
	} else {
		s.liveRegular--
	}
	s.Enemies.MarkForRemoval(id)
}

// Enemy resolves a live enemy. Dead or stale ids return nil.
func (s *Store) Enemy(id ecs.EntityID) *Enemy {
	e, ok := s.Enemies.Get(id)
	if !ok || !e.Alive {
		return nil
	}
	return e
}

// LiveEnemies counts live enemies, optionally including bosses.
func (s *Store) LiveEnemies(includeBoss bool) int {
	if includeBoss {
		return s.liveRegular + s.liveBoss
	}
	return s.liveRegular
}

// EachEnemy visits live enemies.
func (s *Store) EachEnemy(fn func(ecs.EntityID, *Enemy) bool) {
	s.Enemies.Each(func(id ecs.EntityID, e *Enemy) bool {
		if !e.Alive {
			return true
		}
		return fn(id, e)
	})
}

func (s *Store) SpawnProjectile() (ecs.EntityID, *Projectile) {
	id, p := s.Projectiles.Alloc()
	if p.Hit == nil {
		p.Hit = make(map[ecs.EntityID]struct{}, 4)
	}
	return id, p
}

func (s *Store) SpawnPickup(kind PickupKind, pos Vec3, value float64) ecs.EntityID {
	id, p := s.Pickups.Alloc()
	p.Kind = kind
	p.Pos = pos
	p.Value = value
	return id
}

func (s *Store) SpawnEffect(kind EffectKind, pos Vec3, expires float64) (ecs.EntityID, *Effect) {
	id, e := s.Effects.Alloc()
	e.Kind = kind
	e.Pos = pos
	e.Expires = expires
	return id, e
}

func (s *Store) RemoveProjectile(id ecs.EntityID) { s.Projectiles.MarkForRemoval(id) }
func (s *Store) RemovePickup(id ecs.EntityID)     { s.Pickups.MarkForRemoval(id) }
func (s *Store) RemoveEffect(id ecs.EntityID)     { s.Effects.MarkForRemoval(id) }

// Flush returns every queued entity to its pool. Enemy render handles go
// back to their type's free list.
func (s *Store) Flush() int {
	n := s.Enemies.FlushRemovals(func(_ ecs.EntityID, e *Enemy) {
		if e.Handle != 0 {
			s.handles[e.Type] = append(s.handles[e.Type], e.Handle)
		}
	})
	n += s.Projectiles.FlushRemovals(nil)
	n += s.Pickups.FlushRemovals(nil)
	n += s.Effects.FlushRemovals(nil)
	return n
}

// FreeHandles returns the pooled render handles for an enemy type.
func (s *Store) FreeHandles(typ string) int {
	return len(s.handles[typ])
}
