package system

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/scripting"
	"github.com/hordecore/hordecore/internal/terrain"
	"github.com/hordecore/hordecore/internal/world"
)

// fixedElite is a Formulas whose elite roll always returns chance.
type fixedElite struct {
	scripting.Builtin
	chance float64
}

func (f fixedElite) EliteChance(scripting.EliteContext) float64 { return f.chance }

func newTestDirector(t *testing.T, seed int64, f Formulas) (*world.State, *SpawnDirector) {
	t.Helper()
	ws := newTestWorld(t, seed)
	return ws, NewSpawnDirector(ws, NewPopulation(ws), f, nopLog)
}

func TestPlaceSpawnMirrorsInsideExclusion(t *testing.T) {
	b := terrain.Bounds{Half: 50}
	center := world.Vec3{X: 45, Z: 0}

	// 25 units east clamps to x=50, only 5 from the player
	p := PlaceSpawn(center, 0, 25, b, 15)
	assert.InDelta(t, 20.0, p.X, 1e-9)
	assert.InDelta(t, 0.0, p.Z, 1e-9)
	assert.GreaterOrEqual(t, p.Dist2D(center), 15.0)

	q := PlaceSpawn(world.Vec3{}, math.Pi/2, 25, b, 15)
	assert.InDelta(t, 25.0, q.Z, 1e-9, "outside exclusion is left alone")
}

func TestPlaceSpawnStaysInBounds(t *testing.T) {
	b := terrain.Bounds{Half: 100}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		c := world.Vec3{X: rng.Float64()*200 - 100, Z: rng.Float64()*200 - 100}
		p := PlaceSpawn(c, rng.Float64()*2*math.Pi, 25+rng.Float64()*10, b, 15)
		assert.True(t, b.Contains(p.X, p.Z), "%v", p)
	}
}

func TestGroupSizeAndInterval(t *testing.T) {
	cfg := &testTables.Spawn.Director
	assert.Equal(t, 3, GroupSize(3, 4, cfg))
	assert.Equal(t, 5, GroupSize(3, 10, cfg))
	assert.Equal(t, cfg.GroupCeiling, GroupSize(10, 100, cfg))

	band := &data.SpawnBand{Interval: 1}
	assert.InDelta(t, 0.9, SpawnInterval(band, 10, cfg), 1e-9)
	assert.Equal(t, cfg.MinInterval, SpawnInterval(band, 1000, cfg))
}

func TestSpawnScalesWithMinutes(t *testing.T) {
	ws, d := newTestDirector(t, 30, fixedElite{})
	def := testTables.Enemies.Get("zombie")

	_, early := d.Spawn(def, 0)
	require.NotNil(t, early)
	_, late := d.Spawn(def, 10)
	require.NotNil(t, late)

	assert.Equal(t, def.HP, early.MaxHP)
	assert.InDelta(t, def.HP*(1+ws.Tables.Spawn.Director.HPPerMinute*10), late.MaxHP, 1e-9)
	assert.Greater(t, late.Damage, early.Damage)
	assert.GreaterOrEqual(t, early.Pos.Dist2D(ws.Player.Pos), ws.Tables.Spawn.Director.ExclusionRadius)
}

func TestSpawnEliteRoll(t *testing.T) {
	ws, d := newTestDirector(t, 31, fixedElite{chance: 1})
	def := testTables.Enemies.Get("zombie")
	cfg := ws.Tables.Spawn.Director

	_, e := d.Spawn(def, 0)
	require.NotNil(t, e)
	assert.True(t, e.Elite)
	assert.Equal(t, def.HP*cfg.EliteHPMult, e.MaxHP)
	assert.Equal(t, def.XP*cfg.EliteXPMult, e.XP)
	assert.Contains(t, e.Attachments, "elite")

	_, d2 := newTestDirector(t, 31, fixedElite{chance: 0})
	_, plain := d2.Spawn(def, 0)
	assert.False(t, plain.Elite)
}

func TestPopulationNeverExceedsCap(t *testing.T) {
	ws, d := newTestDirector(t, 32, scripting.Builtin{})
	pop := NewPopulation(ws)
	step := 100 * time.Millisecond
	for i := 0; i < 3000; i++ {
		ws.Clock.Elapsed += step.Seconds()
		if i%500 == 0 {
			ws.Player.Level++
		}
		d.Update(step)
		require.LessOrEqual(t, ws.Store.LiveEnemies(false), pop.Cap())
		ws.Store.Flush()
	}
	assert.Positive(t, ws.Store.LiveEnemies(false))
}

func TestTrimRemovesFarthestBeyondSafety(t *testing.T) {
	ws, d := newTestDirector(t, 33, scripting.Builtin{})
	near, _ := spawnAt(t, ws, "zombie", 5, 0)
	limit := NewPopulation(ws).Cap()
	for i := 0; i < limit+20; i++ {
		ws.Store.SpawnEnemy(testTables.Enemies.Get("bat"), ws.Place(world.Vec3{X: 30 + float64(i%40), Z: float64(i / 40)}))
	}

	d.enforceCap()

	assert.LessOrEqual(t, ws.Store.LiveEnemies(false), int(float64(limit)*ws.Tables.Spawn.Director.TrimRatio))
	assert.NotNil(t, ws.Store.Enemy(near), "enemies inside the safety distance are kept")
}

func TestNoSpawnsWhileDying(t *testing.T) {
	ws, d := newTestDirector(t, 34, scripting.Builtin{})
	ws.Player.Dying = true
	for i := 0; i < 100; i++ {
		ws.Clock.Elapsed += 0.1
		d.Update(100 * time.Millisecond)
	}
	assert.Zero(t, ws.Store.LiveEnemies(true))
}

func TestHazardWarnsBeforeLanding(t *testing.T) {
	ws, d := newTestDirector(t, 35, scripting.Builtin{})
	hz := ws.Map.Hazard
	require.NotEmpty(t, hz.Kind)
	land := hz.FirstMinute * 60

	ws.Clock.Elapsed = land - hz.Warning
	d.Update(16 * time.Millisecond)
	warnings := drain[world.HazardWarning](ws)
	require.Len(t, warnings, 1)
	assert.Equal(t, hz.Kind, warnings[0].Kind)
	assert.InDelta(t, hz.Warning, warnings[0].Lead, 1e-9)
	assert.Len(t, warnings[0].Positions, hz.Count)

	hazards := func() int {
		n := 0
		ws.Store.Effects.Each(func(_ ecs.EntityID, fx *world.Effect) bool {
			if fx.Kind == world.EffectHazard {
				n++
			}
			return true
		})
		return n
	}
	assert.Zero(t, hazards())

	ws.Clock.Elapsed = land
	d.Update(16 * time.Millisecond)
	assert.Equal(t, hz.Count, hazards())
	assert.Empty(t, drain[world.HazardWarning](ws))
}

func TestAggressiveCleanupNeedsTwoCrowdedChecks(t *testing.T) {
	ws, d := newTestDirector(t, 36, fixedElite{})
	d.timer = math.Inf(1)
	cfg := &ws.Tables.Spawn.Director
	limit := d.pop.Cap()
	crowded := limit * 95 / 100
	require.Greater(t, float64(crowded), float64(limit)*cfg.CleanupTrigger)

	def := testTables.Enemies.Get("bat")
	for i := 0; i < crowded; i++ {
		angle := 2 * math.Pi * float64(i) / float64(crowded)
		ws.Store.SpawnEnemy(def, ws.Place(ws.Player.Pos.Polar(angle, 40+float64(i%10))))
	}
	step := time.Duration(cfg.CleanupInterval * float64(time.Second))

	d.Update(step)
	assert.Equal(t, crowded, ws.Store.LiveEnemies(false), "first crowded check only arms the cleanup")

	d.Update(step)
	assert.Equal(t, int(float64(limit)*cfg.CleanupRatio), ws.Store.LiveEnemies(false))
}

func TestAggressiveCleanupResetsWhenCrowdClears(t *testing.T) {
	ws, d := newTestDirector(t, 37, fixedElite{})
	d.timer = math.Inf(1)
	cfg := &ws.Tables.Spawn.Director
	limit := d.pop.Cap()
	crowded := limit * 95 / 100

	def := testTables.Enemies.Get("bat")
	ids := make([]ecs.EntityID, 0, crowded)
	for i := 0; i < crowded; i++ {
		angle := 2 * math.Pi * float64(i) / float64(crowded)
		id, _ := ws.Store.SpawnEnemy(def, ws.Place(ws.Player.Pos.Polar(angle, 40)))
		ids = append(ids, id)
	}
	step := time.Duration(cfg.CleanupInterval * float64(time.Second))
	d.Update(step)

	// thin out below the trigger, then crowd again: the streak restarts
	for _, id := range ids[:crowded/2] {
		ws.Store.DespawnEnemy(id)
	}
	d.Update(step)
	for i := 0; i < crowded/2; i++ {
		ws.Store.SpawnEnemy(def, ws.Place(ws.Player.Pos.Polar(float64(i), 45)))
	}
	live := ws.Store.LiveEnemies(false)
	d.Update(step)
	assert.Equal(t, live, ws.Store.LiveEnemies(false))
}
