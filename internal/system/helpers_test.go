package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/scripting"
	"github.com/hordecore/hordecore/internal/world"
)

var testTables = data.DefaultTables()

// newTestWorld builds a seeded run on the graveyard with a level-1 knight
// standing at the origin and crits disabled.
func newTestWorld(t *testing.T, seed int64) *world.State {
	t.Helper()
	m := testTables.Maps.Get("graveyard")
	c := testTables.Characters.Get("knight")
	require.NotNil(t, m)
	require.NotNil(t, c)
	start := time.Unix(1_700_000_000, 0)
	ws := world.NewState(testTables, m, c, seed, func() time.Time { return start })
	ws.Player = world.NewPlayer(scripting.XPToNext(1))
	ws.Player.Pos = ws.Place(world.Vec3{})
	ws.Player.CritChance = 0
	return ws
}

func newTestCombat(t *testing.T, seed int64) (*world.State, *Combat) {
	t.Helper()
	ws := newTestWorld(t, seed)
	return ws, NewCombat(ws, NewPopulation(ws))
}

// spawnAt places an enemy of type typ at (x, z) and indexes it in the grid.
func spawnAt(t *testing.T, ws *world.State, typ string, x, z float64) (ecs.EntityID, *world.Enemy) {
	t.Helper()
	def := testTables.Enemies.Get(typ)
	require.NotNil(t, def, typ)
	id, e := ws.Store.SpawnEnemy(def, ws.Place(world.Vec3{X: x, Z: z}))
	ws.Grid.Rebuild()
	return id, e
}

func drain[T any](ws *world.State) []T {
	ws.Events.Flush()
	var out []T
	for _, ev := range ws.Events.Drain() {
		if v, ok := ev.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

var nopLog = zap.NewNop()
