package system

import (
	"math"
	"time"

	"github.com/hordecore/hordecore/internal/core/ecs"
	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/world"
)

const (
	vortexReach     = 1.5 // pull reaches this multiple of the vortex radius
	orbExplodeReach = 2.0
	projectileClear = 1.5 // projectiles fly this high above the ground at launch
)

// EffectSystem integrates projectiles and ticks timed effects. Expired or
// spent entries are queued for the cleanup pass.
type EffectSystem struct {
	ws     *world.State
	store  *world.Store
	grid   *world.Grid
	player *world.Player
	clock  *world.Clock
	combat *Combat

	obstacles []world.Vec3
	obstRadii []float64
}

func NewEffectSystem(ws *world.State, combat *Combat) *EffectSystem {
	return &EffectSystem{
		ws:     ws,
		store:  ws.Store,
		grid:   ws.Grid,
		player: ws.Player,
		clock:  ws.Clock,
		combat: combat,
	}
}

func (s *EffectSystem) Phase() coresys.Phase { return coresys.PhaseEffects }

func (s *EffectSystem) Update(d time.Duration) {
	dt := d.Seconds()
	s.collectObstacles()
	s.store.Projectiles.Each(func(id ecs.EntityID, p *world.Projectile) bool {
		if !s.store.Projectiles.Pending(id) {
			s.stepProjectile(id, p, dt)
		}
		return true
	})
	now := s.clock.Elapsed
	s.store.Effects.Each(func(id ecs.EntityID, fx *world.Effect) bool {
		if s.store.Effects.Pending(id) {
			return true
		}
		if now >= fx.Expires {
			if fx.Kind == world.EffectOrb && fx.Explode > 0 {
				s.burst(fx.Pos, fx.Radius*orbExplodeReach, fx.Explode, fx.Element)
			}
			s.store.RemoveEffect(id)
			return true
		}
		s.tickEffect(fx, dt, now)
		return true
	})
}

func (s *EffectSystem) collectObstacles() {
	s.obstacles = s.obstacles[:0]
	s.obstRadii = s.obstRadii[:0]
	s.store.Effects.Each(func(_ ecs.EntityID, fx *world.Effect) bool {
		if fx.Kind == world.EffectObstacle {
			s.obstacles = append(s.obstacles, fx.Pos)
			s.obstRadii = append(s.obstRadii, fx.Radius)
		}
		return true
	})
}

func (s *EffectSystem) blocked(pos world.Vec3) bool {
	for i, o := range s.obstacles {
		if pos.Dist2D(o) < s.obstRadii[i] {
			return true
		}
	}
	return false
}

func (s *EffectSystem) stepProjectile(id ecs.EntityID, p *world.Projectile, dt float64) {
	p.Life -= dt
	if p.Life <= 0 {
		s.store.RemoveProjectile(id)
		return
	}
	p.Pos = p.Pos.Add(p.Vel.Scale(dt))
	if !s.ws.Bounds.Contains(p.Pos.X, p.Pos.Z) ||
		s.ws.Ground(p.Pos.X, p.Pos.Z) > p.Pos.Y+projectileClear ||
		s.blocked(p.Pos) {
		s.store.RemoveProjectile(id)
		return
	}
	s.grid.Overlapping(p.Pos, p.Radius, func(eid ecs.EntityID, _ *world.Enemy) bool {
		if _, seen := p.Hit[eid]; seen {
			return true
		}
		p.Hit[eid] = struct{}{}
		s.combat.ApplyHit(eid, Hit{
			Amount:    p.Damage,
			Type:      p.Element,
			ForceCrit: p.ForceCrit,
			Knockback: p.Knockback,
			From:      p.Pos.Sub(p.Vel),
		})
		p.Pierce--
		if p.Pierce <= 0 {
			s.store.RemoveProjectile(id)
			return false
		}
		return true
	})
}

func (s *EffectSystem) tickEffect(fx *world.Effect, dt, now float64) {
	switch fx.Kind {
	case world.EffectRing:
		fx.Radius = math.Min(fx.MaxRad, fx.Radius+fx.Grow*dt)
		if fx.Damage <= 0 {
			return
		}
		s.grid.Query(fx.Pos, fx.Radius, func(id ecs.EntityID, _ *world.Enemy) bool {
			if fx.CanHit(id, now) {
				fx.MarkHit(id, now, math.Inf(1))
				s.combat.ApplyHit(id, Hit{Amount: fx.Damage, Type: fx.Element, Knockback: fx.Knockback, From: fx.Pos})
			}
			return true
		})

	case world.EffectZone, world.EffectTrail:
		if !s.ticked(fx, dt) {
			return
		}
		silent := fx.Kind == world.EffectTrail
		for _, id := range s.grid.Collect(fx.Pos, fx.Radius) {
			s.combat.ApplyHit(id, Hit{Amount: fx.Damage, Type: fx.Element, Silent: silent})
		}
		if fx.Heal > 0 && s.player.Pos.Dist2D(fx.Pos) <= fx.Radius {
			s.player.Heal(fx.Heal)
		}

	case world.EffectVortex:
		reach := fx.Radius * vortexReach
		s.grid.Query(fx.Pos, reach, func(id ecs.EntityID, e *world.Enemy) bool {
			d := e.Pos.Dist2D(fx.Pos)
			if !e.IsBoss() && d > 0.2 {
				step := math.Min(d, fx.Pull*(1-d/reach)*dt+fx.Pull*0.25*dt)
				e.Pos = s.ws.Place(e.Pos.Add(e.Pos.Dir2D(fx.Pos).Scale(step)))
			}
			if d <= fx.Radius && fx.CanHit(id, now) {
				fx.MarkHit(id, now, fx.TickInterval)
				s.combat.ApplyHit(id, Hit{Amount: fx.Damage, Type: fx.Element, Silent: true})
			}
			return true
		})

	case world.EffectOrb:
		fx.Pos = s.ws.Place(fx.Pos.Add(fx.Vel.Scale(dt)))
		s.grid.Overlapping(fx.Pos, fx.Radius, func(id ecs.EntityID, _ *world.Enemy) bool {
			if fx.CanHit(id, now) {
				fx.MarkHit(id, now, fx.TickInterval)
				s.combat.ApplyHit(id, Hit{Amount: fx.Damage, Type: fx.Element})
			}
			return true
		})

	case world.EffectHazard:
		if !s.ticked(fx, dt) {
			return
		}
		if s.player.Pos.Dist2D(fx.Pos) <= fx.Radius+world.PlayerRadius {
			s.combat.DamagePlayer(fx.Damage*fx.TickInterval, fx.Pos, false)
		}
	}
}

// ticked advances a periodic effect and reports whether a tick fired.
func (s *EffectSystem) ticked(fx *world.Effect, dt float64) bool {
	if fx.TickInterval <= 0 {
		return false
	}
	fx.TickTimer -= dt
	if fx.TickTimer > 0 {
		return false
	}
	fx.TickTimer += fx.TickInterval
	if fx.TickTimer <= 0 {
		fx.TickTimer = fx.TickInterval
	}
	return true
}

func (s *EffectSystem) burst(at world.Vec3, radius, dmg float64, element string) {
	for _, id := range s.grid.Collect(at, radius) {
		s.combat.ApplyHit(id, Hit{Amount: dmg, Type: element})
	}
}
