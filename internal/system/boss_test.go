package system

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

const frame = 16 * time.Millisecond

func newTestBoss(t *testing.T, seed int64) (*world.State, *Combat, *BossDirector) {
	t.Helper()
	ws, c := newTestCombat(t, seed)
	return ws, c, NewBossDirector(ws, c, NewPopulation(ws), nopLog)
}

// stepBoss advances the clock by dt and runs one director frame.
func stepBoss(ws *world.State, b *BossDirector, dt time.Duration) {
	ws.Clock.Elapsed += dt.Seconds()
	b.Update(dt)
}

func TestBossScheduleSpawnsOnce(t *testing.T) {
	ws, _, b := newTestBoss(t, 40)

	ws.Clock.Elapsed = 299
	b.Update(frame)
	assert.Empty(t, drain[world.BossSpawned](ws))

	ws.Clock.Elapsed = 300
	b.Update(frame)
	spawned := drain[world.BossSpawned](ws)
	require.Len(t, spawned, 1)
	assert.Equal(t, "golem_king", spawned[0].ID)
	assert.Equal(t, 1, b.Next())

	ws.Clock.Elapsed = 301
	b.Update(frame)
	assert.Empty(t, drain[world.BossSpawned](ws))
	assert.Equal(t, 1, ws.Store.LiveEnemies(true)-ws.Store.LiveEnemies(false))
}

func TestBossSpawnPlacementAndScaling(t *testing.T) {
	ws, _, b := newTestBoss(t, 41)
	ws.Clock.Elapsed = 300
	b.Update(frame)

	_, e := b.Active()
	require.NotNil(t, e)
	def := testTables.Bosses.Get("golem_king")
	assert.InDelta(t, def.HP*(1+ws.Tables.Spawn.Director.HPPerMinute*5), e.MaxHP, 1e-6)
	assert.InDelta(t, ws.Tables.Bosses.Director.SpawnDistance, e.Pos.Dist2D(ws.Player.Pos), 1e-6)
	assert.Zero(t, e.Scale)
}

func TestBossInertDuringScaleIn(t *testing.T) {
	ws, _, b := newTestBoss(t, 42)
	ws.Clock.Elapsed = 300
	b.Update(frame)
	_, e := b.Active()
	require.NotNil(t, e)
	e.Pos = ws.Player.Pos
	e.Boss.SlamTimer = 0

	stepBoss(ws, b, 500*time.Millisecond)
	assert.InDelta(t, 0.5, e.Scale, 1e-9)
	assert.Equal(t, world.BaseMaxHP, ws.Player.HP, "no slam while scaling in")

	stepBoss(ws, b, 600*time.Millisecond)
	assert.Equal(t, 1.0, e.Scale)
	stepBoss(ws, b, frame)
	assert.Less(t, ws.Player.HP, world.BaseMaxHP)
	assert.Len(t, drain[world.BossSlam](ws), 1)
}

func TestBossPhasesOnlyAdvance(t *testing.T) {
	ws, _, b := newTestBoss(t, 43)
	ws.Clock.Elapsed = 300
	b.Update(frame)
	_, e := b.Active()
	require.NotNil(t, e)
	e.Boss.ScaleIn = 0
	e.Boss.SlamTimer = math.Inf(1)
	ws.Events.Flush()
	ws.Events.Drain()

	e.HP = e.MaxHP * 0.45
	stepBoss(ws, b, frame)
	changed := drain[world.BossPhaseChanged](ws)
	require.Len(t, changed, 1)
	assert.Equal(t, 1, changed[0].Phase)
	assert.Equal(t, data.AbilitySummon, changed[0].Ability)
	assert.InDelta(t, e.BaseSpeed*e.Boss.Def.Phases[1].SpeedMult, e.Speed, 1e-9)

	e.HP = e.MaxHP
	stepBoss(ws, b, frame)
	assert.Equal(t, 1, e.Boss.Phase, "healing never lowers the phase")
	assert.Empty(t, drain[world.BossPhaseChanged](ws))
}

func TestGolemPhaseSummonsWithinCap(t *testing.T) {
	ws, _, b := newTestBoss(t, 44)
	ws.Clock.Elapsed = 300
	b.Update(frame)
	_, e := b.Active()
	e.Boss.ScaleIn = 0
	e.Boss.SlamTimer = math.Inf(1)

	e.HP = e.MaxHP * 0.4
	stepBoss(ws, b, frame)
	assert.Equal(t, e.Boss.Def.SummonCount, ws.Store.LiveEnemies(false))
}

func TestBossDeathAwardsBonus(t *testing.T) {
	ws, c, b := newTestBoss(t, 45)
	ws.Clock.Elapsed = 300
	b.Update(frame)
	id, e := b.Active()
	require.NotNil(t, e)
	def := e.Boss.Def
	ws.Grid.Rebuild()

	c.ApplyDamage(id, e.MaxHP*10, data.ElementPhysical, false)
	stepBoss(ws, b, frame)

	_, active := b.Active()
	assert.Nil(t, active)
	assert.Equal(t, 1, ws.Stats.BossKills)
	defeated := drain[world.BossDefeated](ws)
	require.Len(t, defeated, 1)
	assert.Equal(t, def.Name, defeated[0].Name)

	chests := 0
	ws.Store.Pickups.Each(func(_ ecs.EntityID, p *world.Pickup) bool {
		if p.Kind == world.PickupChest {
			chests++
		}
		return true
	})
	assert.Equal(t, ws.Tables.Bosses.Director.ChestDrops, chests)
}

func TestBossNextEntryWaitsForActiveSlot(t *testing.T) {
	ws, _, b := newTestBoss(t, 46)
	ws.Clock.Elapsed = 300
	b.Update(frame)
	ws.Clock.Elapsed = 700 // past the second entry's minute
	b.Update(frame)
	assert.Equal(t, 1, b.Next())
}

func TestOvertimeCyclesUniqueBosses(t *testing.T) {
	ws, c, b := newTestBoss(t, 47)
	b.next = len(b.schedule)
	unique := ws.Tables.Bosses.UniqueBosses(ws.Map.ID)
	require.NotEmpty(t, unique)

	ws.Clock.Elapsed = 29 * 60
	b.Update(frame)
	assert.Empty(t, drain[world.BossSpawned](ws))

	ws.Clock.Elapsed = 30 * 60
	b.Update(frame)
	spawned := drain[world.BossSpawned](ws)
	require.Len(t, spawned, 1)
	assert.True(t, spawned[0].Overtime)
	assert.Equal(t, unique[0], spawned[0].ID)

	id, e := b.Active()
	assert.Equal(t, 1, e.Boss.Cycle)
	ws.Grid.Rebuild()
	c.ApplyDamage(id, e.MaxHP*10, data.ElementPhysical, false)
	stepBoss(ws, b, frame)
	ws.Store.Flush()

	ws.Clock.Elapsed = 30*60 + 60
	b.Update(frame)
	assert.Empty(t, drain[world.BossSpawned](ws), "cooldown not yet elapsed")

	ws.Clock.Elapsed = 30*60 + 91
	b.Update(frame)
	spawned = drain[world.BossSpawned](ws)
	require.Len(t, spawned, 1)
	assert.Equal(t, unique[1%len(unique)], spawned[0].ID)
}

func TestInCone(t *testing.T) {
	dir := world.Vec3{X: 1}
	assert.True(t, InCone(world.Vec3{}, dir, world.Vec3{X: 5, Z: 1}, 10, 0.5))
	assert.False(t, InCone(world.Vec3{}, dir, world.Vec3{X: 5, Z: 5}, 10, 0.5))
	assert.False(t, InCone(world.Vec3{}, dir, world.Vec3{X: 11}, 10, 0.5))
}
