package main

import (
	"math"

	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/world"
)

const (
	threatRadius = 12.0
	wallMargin   = 10.0
)

// autopilot produces input for headless runs: it kites away from nearby
// enemies, circles when nothing is close and steers back from the arena
// edge. Movement is expressed camera-relative, so the look delta stays zero
// and yaw is whatever the player already faces.
type autopilot struct {
	orbit float64
}

func (a *autopilot) next(ws *world.State) world.Input {
	p := ws.Player
	var away world.Vec3
	ws.Store.EachEnemy(func(_ ecs.EntityID, e *world.Enemy) bool {
		d := e.Pos.Dist2D(p.Pos)
		if d < threatRadius && d > 0 {
			w := (threatRadius - d) / threatRadius
			away = away.Add(e.Pos.Dir2D(p.Pos).Scale(w))
		}
		return true
	})

	a.orbit += 0.01
	dir := away
	if dir.Len2D() < 0.05 {
		dir = world.Vec3{X: math.Cos(a.orbit), Z: math.Sin(a.orbit)}
	}
	half := ws.Bounds.Half - wallMargin
	if math.Abs(p.Pos.X) > half {
		dir.X -= math.Copysign(1, p.Pos.X)
	}
	if math.Abs(p.Pos.Z) > half {
		dir.Z -= math.Copysign(1, p.Pos.Z)
	}
	if l := dir.Len2D(); l > 0 {
		dir = dir.Scale(1 / l)
	}

	// world XZ → camera-relative intent (inverse of the player rotation)
	sin, cos := math.Sincos(p.Yaw)
	return world.Input{
		MoveX: dir.X*cos - dir.Z*sin,
		MoveZ: dir.X*sin + dir.Z*cos,
		Slide: away.Len2D() > 1.5,
	}
}
