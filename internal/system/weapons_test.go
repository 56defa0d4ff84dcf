package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

func TestWeaponCooldownFormula(t *testing.T) {
	def := &data.WeaponDef{Cooldown: 2, FireRate: 2}
	assert.InDelta(t, 1.0, WeaponCooldown(def, 1, 0), 1e-9)
	assert.InDelta(t, 0.75, WeaponCooldown(def, 1, 0.25), 1e-9)
	assert.GreaterOrEqual(t, WeaponCooldown(def, 1, 5), 0.0, "reduction is clamped")

	def.Evolved.Cooldown = 0.3
	assert.InDelta(t, 0.15, WeaponCooldown(def, data.EvolvedLevel, 0), 1e-9)
	assert.InDelta(t, 1.0, WeaponCooldown(def, data.MaxWeaponLevel, 0), 1e-9)
}

func TestWeaponDamageScalesWithLevel(t *testing.T) {
	def := &data.WeaponDef{BaseDamage: 10, LevelScale: 0.5}
	def.Evolved.DamageMult = 2
	assert.InDelta(t, 10.0, WeaponDamage(def, 1, 1), 1e-9)
	assert.InDelta(t, 20.0, WeaponDamage(def, 3, 1), 1e-9)
	assert.InDelta(t, 30.0, WeaponDamage(def, 3, 1.5), 1e-9)
	assert.InDelta(t, 60.0, WeaponDamage(def, data.EvolvedLevel, 1), 1e-9)
	assert.InDelta(t, WeaponDamage(def, data.MaxWeaponLevel, 1)*def.Evolved.DamageMult,
		WeaponDamage(def, data.EvolvedLevel, 1), 1e-9, "evolution keeps max-level scaling")
}

func TestChainDamagesDecay(t *testing.T) {
	got := ChainDamages(28, 3, 0.8)
	require.Len(t, got, 3)
	assert.InDelta(t, 28.0, got[0], 1e-9)
	assert.InDelta(t, 22.4, got[1], 1e-9)
	assert.InDelta(t, 17.92, got[2], 1e-9)
}

func TestBestClusterPicksDensestEnemy(t *testing.T) {
	ws := newTestWorld(t, 20)
	spawnAt(t, ws, "zombie", 10, 0)
	spawnAt(t, ws, "zombie", -10, 0)
	spawnAt(t, ws, "zombie", -11, 0.5)
	spawnAt(t, ws, "zombie", -10.5, -0.5)

	pos, ok := BestCluster(ws.Grid, ws.Player.Pos, 20, 2)
	require.True(t, ok)
	assert.Less(t, pos.X, 0.0)

	empty := newTestWorld(t, 21)
	_, ok = BestCluster(empty.Grid, empty.Player.Pos, 20, 2)
	assert.False(t, ok)
}

func TestCanEvolveNeedsMaxLevelAndPassive(t *testing.T) {
	ws := newTestWorld(t, 22)
	p := ws.Player
	def := testTables.Weapons.Get(WeaponBone)
	require.NotNil(t, def)
	require.True(t, p.AddWeapon(def))
	slot := p.Weapon(WeaponBone)
	passive := testTables.Passives.Get(def.Passive)
	require.NotNil(t, passive)

	assert.False(t, CanEvolve(p, slot, testTables.Passives))
	slot.Level = data.MaxWeaponLevel
	assert.False(t, CanEvolve(p, slot, testTables.Passives))
	p.Passives[passive.ID] = passive.MaxLevel
	assert.True(t, CanEvolve(p, slot, testTables.Passives))
	slot.Level = data.EvolvedLevel
	assert.False(t, CanEvolve(p, slot, testTables.Passives), "already evolved")
}

func TestLightningArcHopsWithDecay(t *testing.T) {
	ws, c := newTestCombat(t, 23)
	def := testTables.Weapons.Get(WeaponLightningArc)
	require.NotNil(t, def)
	require.True(t, ws.Player.AddWeapon(def))

	var hp []*world.Enemy
	for i := 1; i <= 3; i++ {
		_, e := spawnAt(t, ws, "brute", float64(3*i), 0)
		hp = append(hp, e)
	}
	ws.Player.Pos = ws.Place(world.Vec3{})
	NewWeaponSystem(ws, c).Update(16 * time.Millisecond)

	want := ChainDamages(WeaponDamage(def, 1, 1), 3, ChainDecay)
	for i, e := range hp {
		assert.InDelta(t, e.MaxHP-want[i], e.HP, 1e-6, "hop %d", i)
	}
	assert.Greater(t, ws.Player.Weapon(WeaponLightningArc).Cooldown, 0.0)
}

func TestLightningArcHoldsFireWithoutTargets(t *testing.T) {
	ws, c := newTestCombat(t, 24)
	require.True(t, ws.Player.AddWeapon(testTables.Weapons.Get(WeaponLightningArc)))
	NewWeaponSystem(ws, c).Update(16 * time.Millisecond)
	assert.Zero(t, ws.Player.Weapon(WeaponLightningArc).Cooldown)
	assert.Zero(t, ws.Store.Effects.Len())
}

func TestSoulHarvestDetonatesAtThreshold(t *testing.T) {
	ws, c := newTestCombat(t, 25)
	def := testTables.Weapons.Get(WeaponSoulHarvest)
	require.NotNil(t, def)
	require.True(t, ws.Player.AddWeapon(def))
	slot := ws.Player.Weapon(WeaponSoulHarvest)
	_, e := spawnAt(t, ws, "brute", 2, 0)

	sys := NewWeaponSystem(ws, c)
	slot.Souls = SoulThreshold(def, 1) - 1
	sys.Update(16 * time.Millisecond)
	assert.Equal(t, e.MaxHP, e.HP)

	slot.Souls++
	sys.Update(16 * time.Millisecond)
	assert.Zero(t, slot.Souls)
	assert.Less(t, e.HP, e.MaxHP)
}

func TestWeaponsIdleWhileDying(t *testing.T) {
	ws, c := newTestCombat(t, 26)
	require.True(t, ws.Player.AddWeapon(testTables.Weapons.Get(WeaponThornAura)))
	_, e := spawnAt(t, ws, "brute", 1, 0)
	ws.Player.Dying = true
	NewWeaponSystem(ws, c).Update(16 * time.Millisecond)
	assert.Equal(t, e.MaxHP, e.HP)
}

// equip gives the player a weapon at the given level.
func equip(t *testing.T, ws *world.State, id string, level int) *world.WeaponSlot {
	t.Helper()
	def := testTables.Weapons.Get(id)
	require.NotNil(t, def, id)
	require.True(t, ws.Player.AddWeapon(def))
	slot := ws.Player.Weapon(id)
	slot.Level = level
	return slot
}

func effectsOf(ws *world.State, kind world.EffectKind) []*world.Effect {
	var out []*world.Effect
	ws.Store.Effects.Each(func(_ ecs.EntityID, fx *world.Effect) bool {
		if fx.Kind == kind {
			out = append(out, fx)
		}
		return true
	})
	return out
}

func projectiles(ws *world.State) []*world.Projectile {
	var out []*world.Projectile
	ws.Store.Projectiles.Each(func(_ ecs.EntityID, p *world.Projectile) bool {
		out = append(out, p)
		return true
	})
	return out
}

func TestOrbitBladesHitOncePerCooldown(t *testing.T) {
	ws, c := newTestCombat(t, 27)
	equip(t, ws, WeaponOrbitBlades, 1)
	_, e := spawnAt(t, ws, "brute", 3, 0)
	sys := NewWeaponSystem(ws, c)

	sys.Update(frame)
	require.Less(t, e.HP, e.MaxHP)
	hp := e.HP

	sys.Update(frame)
	assert.Equal(t, hp, e.HP, "per-enemy hit cooldown holds")
}

func TestBoneFiresAtNearestEnemy(t *testing.T) {
	ws, c := newTestCombat(t, 28)
	slot := equip(t, ws, WeaponBone, 1)
	spawnAt(t, ws, "zombie", 5, 0)

	NewWeaponSystem(ws, c).Update(frame)
	shots := projectiles(ws)
	require.Len(t, shots, 1)
	assert.Greater(t, shots[0].Vel.X, 0.0)
	assert.InDelta(t, 0.0, shots[0].Vel.Z, 1e-6)
	assert.False(t, shots[0].ForceCrit)
	assert.Greater(t, slot.Cooldown, 0.0)
}

func TestEvolvedBoneSpreadsWithForcedCrit(t *testing.T) {
	ws, c := newTestCombat(t, 29)
	slot := equip(t, ws, WeaponBone, data.EvolvedLevel)
	spawnAt(t, ws, "zombie", 5, 0)

	NewWeaponSystem(ws, c).Update(frame)
	shots := projectiles(ws)
	require.Len(t, shots, slot.Def.CountAt(data.EvolvedLevel))
	behind := 0
	for _, p := range shots {
		assert.True(t, p.ForceCrit)
		assert.Equal(t, slot.Def.Evolved.Penetration, p.Pierce)
		if p.Vel.X < 0 {
			behind++
		}
	}
	assert.Positive(t, behind, "evolved volley covers the full circle")
}

func TestThrownHoldsFireWithoutTarget(t *testing.T) {
	ws, c := newTestCombat(t, 40)
	slot := equip(t, ws, WeaponBloodAxe, 1)
	NewWeaponSystem(ws, c).Update(frame)
	assert.Empty(t, projectiles(ws))
	assert.Zero(t, slot.Cooldown)
}

func TestShockwaveRingsLandOnDistinctClusters(t *testing.T) {
	ws, c := newTestCombat(t, 41)
	slot := equip(t, ws, WeaponShockwave, data.EvolvedLevel)
	spawnAt(t, ws, "brute", 8, 0)
	spawnAt(t, ws, "brute", 9, 0)
	spawnAt(t, ws, "brute", -20, 0)
	spawnAt(t, ws, "brute", -21, 0)

	NewWeaponSystem(ws, c).Update(frame)
	rings := effectsOf(ws, world.EffectRing)
	require.Len(t, rings, 3)
	assert.InDelta(t, ws.Player.Pos.X, rings[0].Pos.X, 1e-9)
	assert.Greater(t, rings[1].Pos.Dist2D(rings[2].Pos), slot.Def.RadiusAt(data.EvolvedLevel))
	assert.Greater(t, slot.Cooldown, 0.0)
}

func TestShockwaveSkipsUsedCluster(t *testing.T) {
	ws, c := newTestCombat(t, 42)
	equip(t, ws, WeaponShockwave, data.EvolvedLevel)
	spawnAt(t, ws, "brute", 6, 0)
	spawnAt(t, ws, "brute", 6.5, 0)

	NewWeaponSystem(ws, c).Update(frame)
	assert.Len(t, effectsOf(ws, world.EffectRing), 2, "one ring on the player, one on the only cluster")
}

func TestFrostNovaZonesOnCluster(t *testing.T) {
	ws, c := newTestCombat(t, 43)
	slot := equip(t, ws, WeaponFrostNova, 1)
	_, a := spawnAt(t, ws, "brute", 6, 0)
	_, b := spawnAt(t, ws, "brute", 6.5, 0)

	NewWeaponSystem(ws, c).Update(frame)
	zones := effectsOf(ws, world.EffectZone)
	require.Len(t, zones, 1)
	assert.Equal(t, data.ElementIce, zones[0].Element)
	assert.Zero(t, zones[0].Heal)
	assert.InDelta(t, 6.25, zones[0].Pos.X, 0.5)
	assert.Less(t, a.HP, a.MaxHP)
	assert.Less(t, b.HP, b.MaxHP)
	assert.Positive(t, a.SlowTimer)
	assert.Greater(t, slot.Cooldown, 0.0)
}

func TestHolySmiteZoneHeals(t *testing.T) {
	ws, c := newTestCombat(t, 44)
	equip(t, ws, WeaponHolySmite, 1)
	spawnAt(t, ws, "brute", 6, 0)

	NewWeaponSystem(ws, c).Update(frame)
	zones := effectsOf(ws, world.EffectZone)
	require.Len(t, zones, 1)
	assert.Positive(t, zones[0].Heal)
}

func TestClusterZoneWaitsForEnemies(t *testing.T) {
	ws, c := newTestCombat(t, 45)
	slot := equip(t, ws, WeaponFrostNova, 1)
	NewWeaponSystem(ws, c).Update(frame)
	assert.Empty(t, effectsOf(ws, world.EffectZone))
	assert.Zero(t, slot.Cooldown)
}

func TestFireTrailNeedsMovementBetweenDrops(t *testing.T) {
	ws, c := newTestCombat(t, 46)
	slot := equip(t, ws, WeaponFireTrail, 1)
	sys := NewWeaponSystem(ws, c)

	sys.Update(frame)
	require.Len(t, effectsOf(ws, world.EffectTrail), 1)

	slot.Cooldown = 0
	sys.Update(frame)
	assert.Len(t, effectsOf(ws, world.EffectTrail), 1, "standing still drops nothing")

	ws.Player.Pos = ws.Place(world.Vec3{X: slot.Def.Range + 0.5})
	slot.Cooldown = 0
	sys.Update(frame)
	assert.Len(t, effectsOf(ws, world.EffectTrail), 2)
}

func TestVoidVortexSpawnsNearPlayer(t *testing.T) {
	for _, level := range []int{1, data.EvolvedLevel} {
		ws, c := newTestCombat(t, 47)
		slot := equip(t, ws, WeaponVoidVortex, level)
		NewWeaponSystem(ws, c).Update(frame)

		vortices := effectsOf(ws, world.EffectVortex)
		require.Len(t, vortices, slot.Def.CountAt(level), "level %d", level)
		for _, fx := range vortices {
			assert.Equal(t, slot.Def.Speed, fx.Pull)
			assert.LessOrEqual(t, fx.Pos.Dist2D(ws.Player.Pos), slot.Def.Range+1e-9)
		}
	}
}

func TestArcaneOrbCount(t *testing.T) {
	ws, c := newTestCombat(t, 48)
	equip(t, ws, WeaponArcaneOrb, 1)
	NewWeaponSystem(ws, c).Update(frame)
	orbs := effectsOf(ws, world.EffectOrb)
	require.Len(t, orbs, 1)
	assert.Zero(t, orbs[0].Explode)

	ws, c = newTestCombat(t, 49)
	slot := equip(t, ws, WeaponArcaneOrb, data.EvolvedLevel)
	NewWeaponSystem(ws, c).Update(frame)
	orbs = effectsOf(ws, world.EffectOrb)
	require.Len(t, orbs, 3)
	for _, fx := range orbs {
		assert.Equal(t, slot.Def.Evolved.Explode, fx.Explode)
	}
}
