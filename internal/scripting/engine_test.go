package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestEmbeddedFormulasMatchGo(t *testing.T) {
	e := newTestEngine(t, "")
	for lvl := 1; lvl <= 60; lvl++ {
		assert.Equal(t, XPToNext(lvl), e.XPToNext(lvl), "level %d", lvl)
	}
	ctx := RunGoldContext{Survival: 600, Kills: 1234, BossKills: 2, Level: 30, Greed: 0.3}
	assert.Equal(t, RunGold(ctx), e.RunGold(ctx))

	ec := EliteContext{Minutes: 10, Base: 0.02, Slope: 0.005, Cap: 0.15}
	assert.InDelta(t, 0.07, e.EliteChance(ec), 1e-9)
	ec.Minutes = 100
	assert.InDelta(t, 0.15, e.EliteChance(ec), 1e-9)
}

func TestXPCurve(t *testing.T) {
	assert.Equal(t, 20, XPToNext(1))
	assert.Equal(t, 32, XPToNext(2))
	assert.Equal(t, 160, XPToNext(10))
}

func TestRunGold(t *testing.T) {
	// 600/6 + 100/10 + 25 = 135, x1.2 = 162
	assert.Equal(t, 162, RunGold(RunGoldContext{Survival: 600, Kills: 100, BossKills: 1, Greed: 0.2}))
	assert.Zero(t, RunGold(RunGoldContext{}))
}

func TestOverrideScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10_xp.lua"),
		[]byte("function xp_to_next(level) return 100 * level end\n"), 0o644))

	e := newTestEngine(t, dir)
	assert.Equal(t, 300, e.XPToNext(3))
	// untouched formulas still come from the embedded script
	assert.Equal(t, RunGold(RunGoldContext{Survival: 60}), e.RunGold(RunGoldContext{Survival: 60}))
}

func TestFallbackOnScriptError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.lua"), []byte(`
function xp_to_next(level) error("boom") end
function run_gold(ctx) return "lots" end
`), 0o644))

	e := newTestEngine(t, dir)
	assert.Equal(t, XPToNext(4), e.XPToNext(4))
	assert.Equal(t, 10, e.RunGold(RunGoldContext{Survival: 60}))
}

func TestBadScriptFailsInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "syntax.lua"), []byte("function ("), 0o644))
	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}
