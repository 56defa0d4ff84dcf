package data

import (
	"fmt"
	"math"
)

// Damage elements.
const (
	ElementPhysical  = "physical"
	ElementFire      = "fire"
	ElementIce       = "ice"
	ElementLightning = "lightning"
	ElementHoly      = "holy"
)

const (
	// MaxWeaponLevel is the highest pre-evolution level.
	MaxWeaponLevel = 5
	// EvolvedLevel is the level sentinel of an evolved weapon.
	EvolvedLevel = 6
	// MaxWeaponSlots bounds how many weapons a player holds at once.
	MaxWeaponSlots = 6
)

// WeaponDef holds static data for one weapon behaviour.
type WeaponDef struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	BaseDamage float64 `yaml:"base_damage"`
	Cooldown   float64 `yaml:"cooldown"` // seconds
	FireRate   float64 `yaml:"fire_rate"`
	LevelScale float64 `yaml:"level_scale"`

	Count               int     `yaml:"count"`
	CountPerLevel       float64 `yaml:"count_per_level"`
	Penetration         int     `yaml:"penetration"`
	PenetrationPerLevel float64 `yaml:"penetration_per_level"`
	Radius              float64 `yaml:"radius"`
	RadiusPerLevel      float64 `yaml:"radius_per_level"`
	Duration            float64 `yaml:"duration"`
	Range               float64 `yaml:"range"`
	Speed               float64 `yaml:"speed"`
	TickInterval        float64 `yaml:"tick_interval"`
	Knockback           float64 `yaml:"knockback"`
	Threshold           int     `yaml:"threshold"` // soul harvest detonation count at level 1

	Element   string     `yaml:"element"`
	Passive   string     `yaml:"passive"`   // paired passive for evolution
	Exclusive string     `yaml:"exclusive"` // character id, empty = everyone
	Evolved   EvolvedDef `yaml:"evolved"`
}

// EvolvedDef overrides behaviour multipliers at EvolvedLevel.
type EvolvedDef struct {
	Name        string  `yaml:"name"`
	DamageMult  float64 `yaml:"damage_mult"`
	Cooldown    float64 `yaml:"cooldown"` // overrides the base cooldown when > 0
	Count       int     `yaml:"count"`
	Radius      float64 `yaml:"radius"`
	Duration    float64 `yaml:"duration"`
	Penetration int     `yaml:"penetration"`
	ForceCrit   bool    `yaml:"force_crit"`
	Explode     float64 `yaml:"explode"` // bonus damage on expiry
}

// levelInt returns level-scaled base + floor((level-1) * perLevel).
func levelInt(base int, perLevel float64, level int) int {
	return base + int(math.Floor(float64(level-1)*perLevel))
}

// CountAt returns the projectile/blade/hop count at a level.
func (w *WeaponDef) CountAt(level int) int {
	if level >= EvolvedLevel && w.Evolved.Count > 0 {
		return w.Evolved.Count
	}
	return levelInt(w.Count, w.CountPerLevel, min(level, MaxWeaponLevel))
}

// PenetrationAt returns how many enemies a projectile passes through.
func (w *WeaponDef) PenetrationAt(level int) int {
	if level >= EvolvedLevel && w.Evolved.Penetration > 0 {
		return w.Evolved.Penetration
	}
	return levelInt(w.Penetration, w.PenetrationPerLevel, min(level, MaxWeaponLevel))
}

// RadiusAt returns the area radius at a level.
func (w *WeaponDef) RadiusAt(level int) float64 {
	if level >= EvolvedLevel && w.Evolved.Radius > 0 {
		return w.Evolved.Radius
	}
	return w.Radius + float64(min(level, MaxWeaponLevel)-1)*w.RadiusPerLevel
}

// DurationAt returns the effect lifetime at a level.
func (w *WeaponDef) DurationAt(level int) float64 {
	if level >= EvolvedLevel && w.Evolved.Duration > 0 {
		return w.Evolved.Duration
	}
	return w.Duration
}

// DisplayNameAt returns the evolved name at EvolvedLevel.
func (w *WeaponDef) DisplayNameAt(level int) string {
	if level >= EvolvedLevel && w.Evolved.Name != "" {
		return w.Evolved.Name
	}
	return w.Name
}

type weaponFile struct {
	Weapons []WeaponDef `yaml:"weapons"`
}

// WeaponTable holds weapon definitions indexed by id.
type WeaponTable struct {
	byID  map[string]*WeaponDef
	order []*WeaponDef
}

func loadWeaponTable(dir string) (*WeaponTable, error) {
	var f weaponFile
	if err := loadYAML(dir, "weapons.yaml", &f); err != nil {
		return nil, err
	}
	t := &WeaponTable{byID: make(map[string]*WeaponDef, len(f.Weapons))}
	for i := range f.Weapons {
		w := &f.Weapons[i]
		if w.FireRate <= 0 {
			w.FireRate = 1
		}
		if w.Element == "" {
			w.Element = ElementPhysical
		}
		if w.Evolved.DamageMult <= 0 {
			w.Evolved.DamageMult = 1
		}
		if w.Cooldown < 0 {
			return nil, fmt.Errorf("weapon %s: negative cooldown", w.ID)
		}
		w.Name = nameOr(w.Name, w.ID)
		t.byID[w.ID] = w
		t.order = append(t.order, w)
	}
	return t, nil
}

// Get returns a weapon by id, or nil if not found.
func (t *WeaponTable) Get(id string) *WeaponDef {
	return t.byID[id]
}

// All returns weapons in file order.
func (t *WeaponTable) All() []*WeaponDef {
	return t.order
}

// Count returns the number of loaded weapons.
func (t *WeaponTable) Count() int {
	return len(t.order)
}
