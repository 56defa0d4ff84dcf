package world

import (
	"math"

	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/data"
)

// Base player stats before character and meta modifiers.
const (
	BaseMaxHP          = 100.0
	BaseSpeed          = 8.0
	BaseMagnet         = 3.0
	BaseCritChance     = 0.05
	BaseCritMult       = 2.0
	MaxCooldownReduct  = 0.9
	InvulnDuration     = 0.5
	Knockback          = 6.0
	BossKnockback      = 12.0
	KnockbackDecay     = 8.0 // per second
	JumpVelocity       = 9.0
	Gravity            = 24.0
	SlideDuration      = 0.35
	SlideCooldown      = 1.2
	SlideSpeedMult     = 2.2
	PlayerRadius       = 0.6
	PointerSensitivity = 0.0025
	TouchSensitivity   = 0.006
)

// WeaponSlot is one owned weapon and its per-weapon scratch.
type WeaponSlot struct {
	ID       string
	Def      *data.WeaponDef
	Level    int     // 1..5, 6 = evolved
	Cooldown float64 // seconds until the weapon may act again

	Angle    float64 // orbit phase
	LastDrop Vec3    // trail anchor
	Dropped  bool
	Souls    int

	// next allowed hit time per enemy, for continuous weapons
	HitTimes map[ecs.EntityID]float64
}

// Evolved reports whether the slot is at the evolved sentinel level.
func (w *WeaponSlot) Evolved() bool { return w.Level >= data.EvolvedLevel }

// Player is the single player of a run.
type Player struct {
	Pos, Vel  Vec3
	Yaw       float64
	Knock     Vec3
	HP, MaxHP float64
	Level     int
	XP        float64
	XPToNext  float64

	Grounded      bool
	Sliding       bool
	SlideTimer    float64
	SlideCooldown float64

	Speed             float64
	DamageMult        float64
	XPMult            float64
	MagnetRange       float64
	Armor             float64
	CritChance        float64
	CritMult          float64
	CooldownReduction float64
	HPRegen           float64
	GoldMult          float64
	ExtraChoices      int

	Invuln float64
	Dying  bool

	Weapons  []WeaponSlot
	Passives map[string]int
}

// NewPlayer returns a level-1 player standing at the origin.
func NewPlayer(xpToNext int) *Player {
	return &Player{
		HP:          BaseMaxHP,
		MaxHP:       BaseMaxHP,
		Level:       1,
		XPToNext:    float64(xpToNext),
		Grounded:    true,
		Speed:       BaseSpeed,
		DamageMult:  1,
		XPMult:      1,
		MagnetRange: BaseMagnet,
		CritChance:  BaseCritChance,
		CritMult:    BaseCritMult,
		GoldMult:    1,
		Passives:    make(map[string]int),
	}
}

// Weapon returns the owned slot for id, or nil.
func (p *Player) Weapon(id string) *WeaponSlot {
	for i := range p.Weapons {
		if p.Weapons[i].ID == id {
			return &p.Weapons[i]
		}
	}
	return nil
}

// AddWeapon equips a new weapon at level 1. Returns false when already owned
// or every slot is taken.
func (p *Player) AddWeapon(def *data.WeaponDef) bool {
	if p.Weapon(def.ID) != nil || len(p.Weapons) >= data.MaxWeaponSlots {
		return false
	}
	p.Weapons = append(p.Weapons, WeaponSlot{ID: def.ID, Def: def, Level: 1})
	return true
}

// PassiveLevel returns the level of a passive, 0 if not taken.
func (p *Player) PassiveLevel(id string) int {
	return p.Passives[id]
}

// ApplyStat adds v to the stat named by key. Unknown keys are ignored.
func (p *Player) ApplyStat(key string, v float64) {
	switch key {
	case data.StatDamage:
		p.DamageMult += v
	case data.StatCooldown:
		p.CooldownReduction = math.Min(MaxCooldownReduct, math.Max(0, p.CooldownReduction+v))
	case data.StatMaxHP:
		p.MaxHP = math.Max(1, p.MaxHP+v)
		if v > 0 {
			p.HP += v
		}
		p.HP = math.Min(p.HP, p.MaxHP)
	case data.StatSpeed:
		p.Speed += BaseSpeed * v
	case data.StatMagnet:
		p.MagnetRange += v
	case data.StatArmor:
		p.Armor += v
	case data.StatCrit:
		p.CritChance = math.Min(1, p.CritChance+v)
	case data.StatXP:
		p.XPMult += v
	case data.StatRegen:
		p.HPRegen += v
	case data.StatGreed:
		p.GoldMult += v
	case data.StatChoices:
		p.ExtraChoices += int(v)
	}
}

// Heal restores hp up to MaxHP and returns the amount healed.
func (p *Player) Heal(amount float64) float64 {
	if amount <= 0 || p.Dying {
		return 0
	}
	before := p.HP
	p.HP = math.Min(p.MaxHP, p.HP+amount)
	return p.HP - before
}
