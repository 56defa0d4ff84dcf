package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hordecore/hordecore/internal/data"
)

func TestApplyStat(t *testing.T) {
	p := NewPlayer(20)
	p.ApplyStat(data.StatMaxHP, 20)
	assert.Equal(t, 120.0, p.MaxHP)
	assert.Equal(t, 120.0, p.HP)

	p.ApplyStat(data.StatCooldown, 2)
	assert.Equal(t, MaxCooldownReduct, p.CooldownReduction)

	p.ApplyStat(data.StatSpeed, 0.1)
	assert.InDelta(t, BaseSpeed*1.1, p.Speed, 1e-9)

	p.ApplyStat(data.StatChoices, 1)
	assert.Equal(t, 1, p.ExtraChoices)

	p.ApplyStat("nonsense", 100)
}

func TestAddWeaponSlots(t *testing.T) {
	p := NewPlayer(20)
	ws := testTables.Weapons.All()
	for i, w := range ws {
		ok := p.AddWeapon(w)
		assert.Equal(t, i < data.MaxWeaponSlots, ok)
	}
	assert.Len(t, p.Weapons, data.MaxWeaponSlots)
	assert.False(t, p.AddWeapon(ws[0]), "already owned")
	assert.NotNil(t, p.Weapon(ws[0].ID))
}

func TestHealCapped(t *testing.T) {
	p := NewPlayer(20)
	p.HP = 90
	assert.Equal(t, 10.0, p.Heal(50))
	assert.Equal(t, p.MaxHP, p.HP)
	p.Dying = true
	p.HP = 1
	assert.Zero(t, p.Heal(10))
}
