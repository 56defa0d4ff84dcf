package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

func TestApplyHitGuaranteedCritKills(t *testing.T) {
	ws, c := newTestCombat(t, 1)
	id, e := spawnAt(t, ws, "zombie", 5, 0)
	e.HP, e.MaxHP = 30, 30

	lost := c.ApplyHit(id, Hit{Amount: 18, Type: data.ElementPhysical, ForceCrit: true})

	assert.Equal(t, 30.0, lost)
	assert.False(t, e.Alive)
	assert.Equal(t, 1, ws.Stats.Kills)
	assert.Len(t, ws.Frame.Kills, 1)
	assert.Equal(t, 1, ws.Store.Pickups.Len())
}

func TestApplyDamageKeepsHPInBounds(t *testing.T) {
	ws, c := newTestCombat(t, 2)
	id, e := spawnAt(t, ws, "ghoul", 5, 0)
	for _, amt := range []float64{0, -4, 3, 12.5, 1000} {
		c.ApplyDamage(id, amt, data.ElementPhysical, false)
		assert.GreaterOrEqual(t, e.HP, 0.0)
		assert.LessOrEqual(t, e.HP, e.MaxHP)
	}
}

func TestKillHappensExactlyOnce(t *testing.T) {
	ws, c := newTestCombat(t, 3)
	id, _ := spawnAt(t, ws, "bat", 5, 0)

	require.Greater(t, c.ApplyDamage(id, 100, data.ElementPhysical, false), 0.0)
	assert.Zero(t, c.ApplyDamage(id, 100, data.ElementPhysical, false))
	assert.Equal(t, 1, ws.Stats.Kills)
	assert.Equal(t, 1, ws.Store.Pickups.Len())
}

func TestFireBurnRefreshesWithoutStacking(t *testing.T) {
	ws, c := newTestCombat(t, 4)
	id, e := spawnAt(t, ws, "brute", 5, 0)

	c.ApplyDamage(id, 20, data.ElementFire, false)
	assert.InDelta(t, 6.0, e.BurnDPS, 1e-9)
	assert.Equal(t, BurnDuration, e.BurnTimer)

	e.BurnTimer = 1
	c.ApplyDamage(id, 10, data.ElementFire, false)
	assert.InDelta(t, 3.0, e.BurnDPS, 1e-9, "a new burn replaces the old rate")
	assert.Equal(t, BurnDuration, e.BurnTimer)
	assert.Contains(t, e.Attachments, "burning")
}

func TestIceSlowTakesMax(t *testing.T) {
	ws, c := newTestCombat(t, 5)
	id, e := spawnAt(t, ws, "brute", 5, 0)
	e.SlowAmount, e.SlowTimer = 0.6, 5

	c.ApplyDamage(id, 1, data.ElementIce, false)
	assert.Equal(t, 0.6, e.SlowAmount)
	assert.Equal(t, 5.0, e.SlowTimer)

	e.SlowAmount, e.SlowTimer = 0, 0
	c.ApplyDamage(id, 1, data.ElementIce, false)
	assert.Equal(t, IceSlow, e.SlowAmount)
	assert.Equal(t, IceSlowTime, e.SlowTimer)
}

func TestLightningKillChainsOneHop(t *testing.T) {
	ws, c := newTestCombat(t, 6)
	first, a := spawnAt(t, ws, "bat", 5, 0)
	_, b := spawnAt(t, ws, "brute", 7, 0)
	_, far := spawnAt(t, ws, "brute", 30, 0)
	a.HP = 10

	c.ApplyDamage(first, 10, data.ElementLightning, false)

	assert.False(t, a.Alive)
	assert.InDelta(t, b.MaxHP-5, b.HP, 1e-9)
	assert.Equal(t, far.MaxHP, far.HP)
}

func TestSplitterSpawnsChildren(t *testing.T) {
	ws, c := newTestCombat(t, 7)
	id, _ := spawnAt(t, ws, "slime", 5, 0)

	c.ApplyDamage(id, 1000, data.ElementPhysical, false)

	var kids []string
	ws.Store.EachEnemy(func(_ ecs.EntityID, e *world.Enemy) bool {
		kids = append(kids, e.Type)
		return true
	})
	assert.Equal(t, []string{"slime_small", "slime_small"}, kids)
}

func TestSplitRespectsPopulationCap(t *testing.T) {
	ws, c := newTestCombat(t, 8)
	limit := NewPopulation(ws).Cap()
	var id ecs.EntityID
	for i := 0; i < limit; i++ {
		id, _ = spawnAt(t, ws, "slime", 5, float64(i%5))
	}
	c.ApplyDamage(id, 1000, data.ElementPhysical, false)
	assert.LessOrEqual(t, ws.Store.LiveEnemies(false), limit)
}

func TestDamagePlayerArmorAndInvuln(t *testing.T) {
	ws, c := newTestCombat(t, 9)
	p := ws.Player
	p.Armor = 5

	assert.Equal(t, 1.0, c.DamagePlayer(3, world.Vec3{X: 1}, false))
	assert.Equal(t, world.InvulnDuration, p.Invuln)
	assert.Zero(t, c.DamagePlayer(50, world.Vec3{X: 1}, false), "invulnerable")

	p.Invuln = 0
	assert.Equal(t, 15.0, c.DamagePlayer(20, world.Vec3{X: 1}, false))
	assert.InDelta(t, world.BaseMaxHP-16, p.HP, 1e-9)
	assert.Less(t, p.Knock.X, 0.0, "knocked away from the source")
}

func TestDamagePlayerDeathStartsSequence(t *testing.T) {
	ws, c := newTestCombat(t, 10)
	c.DamagePlayer(1e6, world.Vec3{X: 1}, true)

	assert.True(t, ws.Player.Dying)
	assert.Zero(t, ws.Player.HP)
	assert.Len(t, drain[world.PlayerDied](ws), 1)

	ws.Player.Invuln = 0
	assert.Zero(t, c.DamagePlayer(10, world.Vec3{X: 1}, false), "no damage once dying")
}

func TestDamagePulseIsRateLimited(t *testing.T) {
	ws, c := newTestCombat(t, 11)
	for i := 0; i < 5; i++ {
		ws.Player.Invuln = 0
		c.DamagePlayer(1, world.Vec3{X: 1}, false)
	}
	assert.Len(t, drain[world.DamagePulse](ws), 1)

	ws.Clock.Elapsed += 1
	ws.Player.Invuln = 0
	c.DamagePlayer(1, world.Vec3{X: 1}, false)
	assert.Len(t, drain[world.DamagePulse](ws), 1)
}
