package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

func TestScoreRecomputedFromStats(t *testing.T) {
	ws := newTestWorld(t, 90)
	s := NewScoreSystem(ws)
	ws.Clock.Elapsed = 12.7
	ws.Stats.RecordKill(world.DefaultCombo)
	ws.Stats.BossKills = 1

	s.Update(frame)
	want := world.ComputeScore(ws.Stats, ws.Player.Level, world.DefaultScoreWeights)
	assert.Equal(t, want, ws.Stats.Score)
	assert.Equal(t, 12.7, ws.Stats.Survival)

	// recomputing without changes is stable
	s.Update(0)
	assert.Equal(t, want, ws.Stats.Score)
}

func TestComboResetsAfterWindow(t *testing.T) {
	ws := newTestWorld(t, 91)
	s := NewScoreSystem(ws)
	for i := 0; i < 10; i++ {
		ws.Stats.RecordKill(world.DefaultCombo)
	}
	require.Greater(t, ws.Stats.ComboMult, 1.0)

	s.Update(2 * time.Second)
	assert.Equal(t, 10, ws.Stats.Combo)
	s.Update(1500 * time.Millisecond)
	assert.Zero(t, ws.Stats.Combo)
	assert.Equal(t, 1.0, ws.Stats.ComboMult)
	assert.Equal(t, 10, ws.Stats.MaxCombo)
}

func TestIntegrityCheckpointsAndKills(t *testing.T) {
	ws := newTestWorld(t, 92)
	wall := time.Unix(1_700_000_000, 0)
	ws.Now = func() time.Time { return wall }
	ws.Started = wall
	s := NewIntegritySystem(ws, world.DefaultIntegrityLimits)

	ws.Frame.Kills = append(ws.Frame.Kills, world.KillRecord{Type: "bat"}, world.KillRecord{Type: "bat"})
	before := ws.Integrity.Hash()
	s.Update(frame)
	assert.NotEqual(t, before, ws.Integrity.Hash())
	ws.Frame.Reset()

	for sim := 1.0; sim <= 65; sim++ {
		ws.Clock.Elapsed = sim
		wall = wall.Add(time.Second)
		s.Update(time.Second)
	}
	assert.Len(t, ws.Integrity.Checkpoints, 2)

	r := s.Report()
	assert.Equal(t, 100, r.Score)
	assert.False(t, r.TimeDrift)
}

func TestIntegrityFlagsFastClock(t *testing.T) {
	ws := newTestWorld(t, 93)
	s := NewIntegritySystem(ws, world.DefaultIntegrityLimits)
	// wall clock frozen while sim time races ahead
	for sim := 1.0; sim <= 120; sim++ {
		ws.Clock.Elapsed = sim
		s.Update(time.Second)
	}
	r := s.Report()
	assert.True(t, r.TimeDrift)
	assert.Equal(t, 100-world.PenaltyTimeDrift, r.Score)
}

func TestCleanupFlushesAndResets(t *testing.T) {
	ws, c := newTestCombat(t, 94)
	id, _ := spawnAt(t, ws, "bat", 5, 0)
	c.ApplyDamage(id, 100, data.ElementPhysical, false)
	require.Len(t, ws.Frame.Kills, 1)

	NewCleanupSystem(ws).Update(frame)
	assert.Empty(t, ws.Frame.Kills)
	assert.Zero(t, ws.Store.Enemies.Len())
	assert.Equal(t, 1, ws.Store.FreeHandles("bat"))
}
