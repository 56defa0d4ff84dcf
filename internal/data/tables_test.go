package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTablesLoad(t *testing.T) {
	tbl, err := LoadTables("")
	require.NoError(t, err)

	assert.Equal(t, 12, tbl.Weapons.Count())
	assert.NotNil(t, tbl.Enemies.Get("slime"))
	assert.NotEmpty(t, tbl.Bosses.Schedule("graveyard"))
	assert.NotNil(t, tbl.Characters.Get("knight"))
	assert.NotNil(t, tbl.MetaUpgrades.Get("extra_choice"))
}

func TestEveryBandHasTypes(t *testing.T) {
	tbl := DefaultTables()
	require.NotEmpty(t, tbl.Spawn.Bands)
	for _, b := range tbl.Spawn.Bands {
		assert.NotEmpty(t, b.Types)
	}
}

func TestBandLookup(t *testing.T) {
	tbl := DefaultTables()
	assert.Equal(t, 0.0, tbl.Spawn.Band(0).FromMinute)
	assert.Equal(t, 2.0, tbl.Spawn.Band(4.99).FromMinute)
	assert.Equal(t, 18.0, tbl.Spawn.Band(99).FromMinute)

	empty := &SpawnTable{}
	assert.Nil(t, empty.Band(3))
}

func TestBandsEscalate(t *testing.T) {
	bands := DefaultTables().Spawn.Bands
	for i := 1; i < len(bands); i++ {
		assert.Less(t, bands[i].Interval, bands[i-1].Interval)
		assert.GreaterOrEqual(t, bands[i].GroupMax, bands[i-1].GroupMax)
	}
}

func TestPopulationCap(t *testing.T) {
	d := DefaultTables().Spawn.Director
	assert.Equal(t, 155, d.PopulationCap(1))
	assert.Equal(t, 300, d.PopulationCap(100))
}

func TestWeaponLevelScaling(t *testing.T) {
	w := DefaultTables().Weapons.Get("lightning_arc")
	require.NotNil(t, w)
	assert.Equal(t, 3, w.CountAt(1))
	assert.Equal(t, 5, w.CountAt(5))
	assert.Equal(t, 7, w.CountAt(EvolvedLevel))
	assert.Equal(t, "Thunderlord", w.DisplayNameAt(EvolvedLevel))
	assert.Equal(t, "Lightning Arc", w.DisplayNameAt(1))
}

func TestBossPhaseFor(t *testing.T) {
	b := DefaultTables().Bosses.Get("frost_titan")
	require.NotNil(t, b)
	assert.Equal(t, 0, b.PhaseFor(1.0))
	assert.Equal(t, 1, b.PhaseFor(0.7))
	assert.Equal(t, 1, b.PhaseFor(0.5))
	assert.Equal(t, 2, b.PhaseFor(0.1))
}

func TestUniqueBosses(t *testing.T) {
	ids := DefaultTables().Bosses.UniqueBosses("ember_peaks")
	assert.Equal(t, []string{"inferno_drake", "stone_warden"}, ids)
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "passives.yaml"), []byte(`
passives:
  - { id: might, stat: damage, per_level: 0.5, max_level: 2 }
  - { id: haste, stat: cooldown, per_level: 0.1, max_level: 2 }
  - { id: vitality, stat: max_hp, per_level: 10, max_level: 2 }
  - { id: swiftness, stat: speed, per_level: 0.1, max_level: 2 }
  - { id: magnet, stat: magnet, per_level: 1, max_level: 2 }
  - { id: armor, stat: armor, per_level: 1, max_level: 2 }
  - { id: luck, stat: crit, per_level: 0.1, max_level: 2 }
  - { id: growth, stat: xp, per_level: 0.1, max_level: 2 }
  - { id: regen, stat: regen, per_level: 1, max_level: 2 }
`), 0o644))

	tbl, err := LoadTables(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.5, tbl.Passives.Get("might").PerLevel)
	// other files still come from the embedded defaults
	assert.Equal(t, 12, tbl.Weapons.Count())
}

func TestValidateCatchesBadReference(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spawn.yaml"), []byte(`
bands:
  - { from_minute: 0, interval: 1, types: [dragon], group_min: 1, group_max: 2 }
  - { from_minute: 1, interval: 1, types: [], group_min: 1, group_max: 2 }
`), 0o644))
	_, err := LoadTables(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dragon")
	assert.Contains(t, err.Error(), "no enemy types")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Golem King", DisplayName("golem_king"))
	assert.Equal(t, "Bat", DisplayName("bat"))
}
