package data

import "fmt"

// Stat keys shared by passives, character modifiers and meta upgrades.
const (
	StatDamage   = "damage"   // additive damage multiplier
	StatCooldown = "cooldown" // additive cooldown reduction
	StatMaxHP    = "max_hp"   // flat max hp
	StatSpeed    = "speed"    // additive move speed multiplier
	StatMagnet   = "magnet"   // flat magnet range
	StatArmor    = "armor"    // flat armor
	StatCrit     = "crit"     // additive crit chance
	StatXP       = "xp"       // additive xp multiplier
	StatRegen    = "regen"    // hp per second
	StatGreed    = "greed"    // additive gold multiplier
	StatChoices  = "choices"  // extra level-up options
)

// PassiveDef is an in-run stat upgrade.
type PassiveDef struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Stat     string  `yaml:"stat"`
	PerLevel float64 `yaml:"per_level"`
	MaxLevel int     `yaml:"max_level"`
}

type passiveFile struct {
	Passives []PassiveDef `yaml:"passives"`
}

// PassiveTable holds passives indexed by id.
type PassiveTable struct {
	byID  map[string]*PassiveDef
	order []*PassiveDef
}

func loadPassiveTable(dir string) (*PassiveTable, error) {
	var f passiveFile
	if err := loadYAML(dir, "passives.yaml", &f); err != nil {
		return nil, err
	}
	t := &PassiveTable{byID: make(map[string]*PassiveDef, len(f.Passives))}
	for i := range f.Passives {
		p := &f.Passives[i]
		if p.MaxLevel <= 0 {
			return nil, fmt.Errorf("passive %s: max_level must be positive", p.ID)
		}
		p.Name = nameOr(p.Name, p.ID)
		t.byID[p.ID] = p
		t.order = append(t.order, p)
	}
	return t, nil
}

// Get returns a passive by id, or nil if not found.
func (t *PassiveTable) Get(id string) *PassiveDef {
	return t.byID[id]
}

// All returns passives in file order.
func (t *PassiveTable) All() []*PassiveDef {
	return t.order
}

// MetaUpgradeDef is a permanent upgrade bought with gold between runs.
type MetaUpgradeDef struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Stat     string  `yaml:"stat"`
	PerLevel float64 `yaml:"per_level"`
	MaxLevel int     `yaml:"max_level"`
}

type metaUpgradeFile struct {
	Upgrades []MetaUpgradeDef `yaml:"upgrades"`
}

// MetaUpgradeTable holds meta upgrades indexed by id.
type MetaUpgradeTable struct {
	byID  map[string]*MetaUpgradeDef
	order []*MetaUpgradeDef
}

func loadMetaUpgradeTable(dir string) (*MetaUpgradeTable, error) {
	var f metaUpgradeFile
	if err := loadYAML(dir, "meta_upgrades.yaml", &f); err != nil {
		return nil, err
	}
	t := &MetaUpgradeTable{byID: make(map[string]*MetaUpgradeDef, len(f.Upgrades))}
	for i := range f.Upgrades {
		u := &f.Upgrades[i]
		u.Name = nameOr(u.Name, u.ID)
		t.byID[u.ID] = u
		t.order = append(t.order, u)
	}
	return t, nil
}

// Get returns a meta upgrade by id, or nil if not found.
func (t *MetaUpgradeTable) Get(id string) *MetaUpgradeDef {
	return t.byID[id]
}

// All returns meta upgrades in file order.
func (t *MetaUpgradeTable) All() []*MetaUpgradeDef {
	return t.order
}
