package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

func newTestEffects(t *testing.T, seed int64) (*world.State, *EffectSystem) {
	t.Helper()
	ws, c := newTestCombat(t, seed)
	return ws, NewEffectSystem(ws, c)
}

func TestProjectilePierceLimit(t *testing.T) {
	ws, s := newTestEffects(t, 80)
	var targets []*world.Enemy
	for i := 0; i < 3; i++ {
		_, e := spawnAt(t, ws, "brute", 2+float64(i)*0.2, 0)
		targets = append(targets, e)
	}
	id, p := ws.Store.SpawnProjectile()
	p.Pos = ws.Player.Pos.Add(world.Vec3{X: 1, Y: 1})
	p.Vel = world.Vec3{X: 10}
	p.Damage = 5
	p.Life = 2
	p.Pierce = 2
	p.Radius = 0.3

	s.Update(frame)

	hit := 0
	for _, e := range targets {
		if e.HP < e.MaxHP {
			hit++
		}
	}
	assert.Equal(t, 2, hit)
	assert.True(t, ws.Store.Projectiles.Pending(id))
}

func TestProjectileExpires(t *testing.T) {
	ws, s := newTestEffects(t, 81)
	id, p := ws.Store.SpawnProjectile()
	p.Pos = ws.Player.Pos.Add(world.Vec3{Y: 1})
	p.Vel = world.Vec3{X: 1}
	p.Life = 0.01
	p.Pierce = 1
	s.Update(frame)
	assert.True(t, ws.Store.Projectiles.Pending(id))
}

func TestRingHitsEachEnemyOnce(t *testing.T) {
	ws, s := newTestEffects(t, 82)
	_, e := spawnAt(t, ws, "brute", 1, 0)
	_, fx := ws.Store.SpawnEffect(world.EffectRing, ws.Player.Pos, 10)
	fx.MaxRad, fx.Grow, fx.Damage = 5, 10, 7

	for i := 0; i < 20; i++ {
		ws.Clock.Elapsed += frame.Seconds()
		s.Update(frame)
	}
	assert.InDelta(t, e.MaxHP-7, e.HP, 1e-9)
}

func TestHolyZoneHealsPlayer(t *testing.T) {
	ws, s := newTestEffects(t, 83)
	ws.Player.HP = 50
	_, fx := ws.Store.SpawnEffect(world.EffectZone, ws.Player.Pos, 10)
	fx.Radius, fx.Element, fx.Heal = 3, data.ElementHoly, 4
	fx.TickInterval = 0.5

	// first tick fires immediately, the next one half a second later
	for i := 0; i < 20; i++ {
		ws.Clock.Elapsed += frame.Seconds()
		s.Update(frame)
	}
	assert.Equal(t, 54.0, ws.Player.HP)
}

func TestHazardDamagesPlayer(t *testing.T) {
	ws, s := newTestEffects(t, 84)
	_, fx := ws.Store.SpawnEffect(world.EffectHazard, ws.Player.Pos, 10)
	fx.Radius, fx.Damage, fx.TickInterval = 2, 10, 0.5

	s.Update(frame)
	assert.Equal(t, world.BaseMaxHP-5, ws.Player.HP)
}

func TestVortexPullsInward(t *testing.T) {
	ws, s := newTestEffects(t, 85)
	_, e := spawnAt(t, ws, "brute", 30, 0)
	center := ws.Place(world.Vec3{X: 25})
	_, fx := ws.Store.SpawnEffect(world.EffectVortex, center, 10)
	fx.Radius, fx.Pull, fx.Damage, fx.TickInterval = 4, 8, 1, 0.3

	before := e.Pos.Dist2D(center)
	s.Update(frame)
	assert.Less(t, e.Pos.Dist2D(center), before)
}

func TestEvolvedOrbExplodesOnExpiry(t *testing.T) {
	ws, s := newTestEffects(t, 86)
	_, e := spawnAt(t, ws, "brute", 20, 0)
	id, fx := ws.Store.SpawnEffect(world.EffectOrb, ws.Place(world.Vec3{X: 20}), 0)
	fx.Radius, fx.Explode = 1, 30

	s.Update(frame)
	assert.True(t, ws.Store.Effects.Pending(id))
	assert.InDelta(t, e.MaxHP-30, e.HP, 1e-9)
}

func TestExpiredEffectsAreReaped(t *testing.T) {
	ws, s := newTestEffects(t, 87)
	_, fx := ws.Store.SpawnEffect(world.EffectBeam, ws.Player.Pos, 0.1)
	require.NotNil(t, fx)
	ws.Clock.Elapsed = 0.2
	s.Update(frame)
	NewCleanupSystem(ws).Update(frame)
	assert.Zero(t, ws.Store.Effects.Len())
}

func TestProjectileHitsLargeBossHitbox(t *testing.T) {
	ws, s := newTestEffects(t, 88)
	def := testTables.Bosses.Get("stone_warden")
	require.NotNil(t, def)
	_, boss := ws.Store.SpawnBoss(def, data.ScheduleEntry{}, ws.Place(world.Vec3{X: 3.5}), 0)
	ws.Grid.Rebuild()

	_, p := ws.Store.SpawnProjectile()
	p.Pos = ws.Player.Pos.Add(world.Vec3{Y: 1})
	p.Vel = world.Vec3{X: 0.01}
	p.Damage = 10
	p.Life = 1
	p.Pierce = 1
	p.Radius = 0.5

	s.Update(frame)
	assert.InDelta(t, boss.MaxHP-10, boss.HP, 1e-9)
}
