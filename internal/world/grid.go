package world

import (
	"math"

	"github.com/hordecore/hordecore/internal/core/ecs"
)

// Grid is a cell-based neighbour index over live enemies, rebuilt once per
// frame after enemy movement. Cell size is chosen so that a 3x3
// neighbourhood covers typical weapon radii; larger queries walk more cells.
// Accessed only from the game loop goroutine — no locks.

const cellSize = 8.0

type cellKey struct {
	cx, cz int32
}

func toCellCoord(v float64) int32 {
	return int32(math.Floor(v / cellSize))
}

type Grid struct {
	store *Store
	cells map[cellKey][]ecs.EntityID
	buf   []ecs.EntityID
	reach float64 // largest enemy radius at the last rebuild
}

func NewGrid(store *Store) *Grid {
	return &Grid{
		store: store,
		cells: make(map[cellKey][]ecs.EntityID, 256),
	}
}

// Rebuild re-indexes every live enemy. Cell slices are reused.
func (g *Grid) Rebuild() {
	for k, ids := range g.cells {
		g.cells[k] = ids[:0]
	}
	g.reach = 0
	g.store.EachEnemy(func(id ecs.EntityID, e *Enemy) bool {
		k := cellKey{toCellCoord(e.Pos.X), toCellCoord(e.Pos.Z)}
		g.cells[k] = append(g.cells[k], id)
		g.reach = math.Max(g.reach, e.Radius)
		return true
	})
}

// Query visits live enemies whose centre lies within radius of pos. Enemies
// killed since the last rebuild are skipped. Returning false stops the walk.
func (g *Grid) Query(pos Vec3, radius float64, fn func(ecs.EntityID, *Enemy) bool) {
	r2 := radius * radius
	minX, maxX := toCellCoord(pos.X-radius), toCellCoord(pos.X+radius)
	minZ, maxZ := toCellCoord(pos.Z-radius), toCellCoord(pos.Z+radius)
	for cx := minX; cx <= maxX; cx++ {
		for cz := minZ; cz <= maxZ; cz++ {
			for _, id := range g.cells[cellKey{cx, cz}] {
				e := g.store.Enemy(id)
				if e == nil || e.Pos.Dist2DSq(pos) > r2 {
					continue
				}
				if !fn(id, e) {
					return
				}
			}
		}
	}
}

// Overlapping visits live enemies whose hitbox intersects a circle of the
// given radius around pos.
func (g *Grid) Overlapping(pos Vec3, radius float64, fn func(ecs.EntityID, *Enemy) bool) {
	g.Query(pos, radius+g.reach, func(id ecs.EntityID, e *Enemy) bool {
		if e.Pos.Dist2D(pos) > radius+e.Radius {
			return true
		}
		return fn(id, e)
	})
}

// Collect returns ids within radius into a reused buffer, valid until the
// next Collect.
func (g *Grid) Collect(pos Vec3, radius float64) []ecs.EntityID {
	g.buf = g.buf[:0]
	g.Query(pos, radius, func(id ecs.EntityID, _ *Enemy) bool {
		g.buf = append(g.buf, id)
		return true
	})
	return g.buf
}

// Count returns how many live enemies lie within radius of pos.
func (g *Grid) Count(pos Vec3, radius float64) int {
	n := 0
	g.Query(pos, radius, func(ecs.EntityID, *Enemy) bool {
		n++
		return true
	})
	return n
}

// Nearest returns the closest live enemy within maxDist for which skip
// returns false (skip may be nil). Returns the zero id when none qualifies.
func (g *Grid) Nearest(pos Vec3, maxDist float64, skip func(ecs.EntityID) bool) (ecs.EntityID, *Enemy) {
	var (
		bestID ecs.EntityID
		best   *Enemy
		bestD  = math.MaxFloat64
	)
	g.Query(pos, maxDist, func(id ecs.EntityID, e *Enemy) bool {
		if skip != nil && skip(id) {
			return true
		}
		if d := e.Pos.Dist2DSq(pos); d < bestD || (d == bestD && id < bestID) {
			bestD, bestID, best = d, id, e
		}
		return true
	})
	return bestID, best
}
