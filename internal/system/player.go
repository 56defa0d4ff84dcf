package system

import (
	"math"
	"time"

	"github.com/hordecore/hordecore/internal/core/ecs"
	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/world"
)

// Pickup tuning.
const (
	MagnetPull    = 40.0 // pull speed = MagnetPull / remaining distance
	CollectRadius = 1.0
	ChestRadius   = 1.4
)

// PlayerSystem applies input to the player: look, movement on terrain,
// jump, slide, knockback, regen and pickup collection.
type PlayerSystem struct {
	ws     *world.State
	player *world.Player
	input  *world.Input
	store  *world.Store
	frame  *world.FrameLog
}

func NewPlayerSystem(ws *world.State) *PlayerSystem {
	return &PlayerSystem{ws: ws, player: ws.Player, input: ws.Input, store: ws.Store, frame: ws.Frame}
}

func (s *PlayerSystem) Phase() coresys.Phase { return coresys.PhasePlayer }

func (s *PlayerSystem) Update(d time.Duration) {
	dt := d.Seconds()
	p := s.player
	in := *s.input

	p.Invuln = math.Max(0, p.Invuln-dt)
	p.SlideCooldown = math.Max(0, p.SlideCooldown-dt)
	if p.Dying {
		p.Vel = world.Vec3{}
		return
	}

	sens := world.PointerSensitivity
	if in.Device == world.DeviceTouch {
		sens = world.TouchSensitivity
	}
	p.Yaw += in.LookDX * sens

	// camera-relative intent → world XZ
	sin, cos := math.Sincos(p.Yaw)
	mx := in.MoveX*cos + in.MoveZ*sin
	mz := in.MoveZ*cos - in.MoveX*sin
	if l := math.Hypot(mx, mz); l > 1 {
		mx, mz = mx/l, mz/l
	}
	moving := mx != 0 || mz != 0

	if in.Slide && moving && p.Grounded && !p.Sliding && p.SlideCooldown <= 0 {
		p.Sliding = true
		p.SlideTimer = world.SlideDuration
		p.SlideCooldown = world.SlideCooldown
	}
	speed := p.Speed
	if p.Sliding {
		speed *= world.SlideSpeedMult
		p.SlideTimer -= dt
		if p.SlideTimer <= 0 {
			p.Sliding = false
			p.SlideTimer = 0
		}
	}

	p.Vel.X = mx*speed + p.Knock.X
	p.Vel.Z = mz*speed + p.Knock.Z
	p.Knock = p.Knock.Scale(math.Max(0, 1-world.KnockbackDecay*dt))

	if in.Jump && p.Grounded {
		p.Vel.Y = world.JumpVelocity
		p.Grounded = false
	}
	if !p.Grounded {
		p.Vel.Y -= world.Gravity * dt
	}

	next := p.Pos.Add(p.Vel.Scale(dt))
	next.X, next.Z = s.ws.Bounds.Clamp(next.X, next.Z)
	next = s.pushOutOfObstacles(next)
	ground := s.ws.Ground(next.X, next.Z)
	if p.Grounded || next.Y <= ground {
		next.Y = ground
		p.Vel.Y = 0
		p.Grounded = true
	}
	p.Pos = next

	p.Heal(p.HPRegen * dt)
	s.collect(dt)
}

func (s *PlayerSystem) pushOutOfObstacles(pos world.Vec3) world.Vec3 {
	s.store.Effects.Each(func(_ ecs.EntityID, fx *world.Effect) bool {
		if fx.Kind != world.EffectObstacle {
			return true
		}
		minD := fx.Radius + world.PlayerRadius
		if d := pos.Dist2D(fx.Pos); d < minD {
			dir := fx.Pos.Dir2D(pos)
			if dir == (world.Vec3{}) {
				dir = world.Vec3{X: 1}
			}
			pos.X = fx.Pos.X + dir.X*minD
			pos.Z = fx.Pos.Z + dir.Z*minD
		}
		return true
	})
	return pos
}

// collect magnetizes gems inside the magnet range, pulls magnetized gems
// with speed inversely proportional to the remaining distance, and picks up
// anything touching the player.
func (s *PlayerSystem) collect(dt float64) {
	p := s.player
	s.store.Pickups.Each(func(id ecs.EntityID, pk *world.Pickup) bool {
		if s.store.Pickups.Pending(id) {
			return true
		}
		d := pk.Pos.Dist2D(p.Pos)
		switch pk.Kind {
		case world.PickupXP:
			if d <= p.MagnetRange {
				pk.Magnetized = true
			}
			if pk.Magnetized && d > 0 {
				step := math.Min(d, MagnetPull/math.Max(d, 0.5)*dt)
				pk.Pos = pk.Pos.Add(pk.Pos.Dir2D(p.Pos).Scale(step))
				d -= step
			}
			if d <= CollectRadius {
				p.XP += pk.Value
				s.store.RemovePickup(id)
			}
		case world.PickupChest:
			if d <= ChestRadius {
				s.frame.Chests++
				s.store.RemovePickup(id)
			}
		}
		return true
	})
}
