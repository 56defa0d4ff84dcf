package data

import "fmt"

// Enemy behaviours.
const (
	BehaviourChaser   = "chaser"
	BehaviourHealer   = "healer"
	BehaviourSummoner = "summoner"
)

// EnemyDef holds static data for an enemy type.
type EnemyDef struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	HP         float64 `yaml:"hp"`
	Damage     float64 `yaml:"damage"`
	Speed      float64 `yaml:"speed"`
	Radius     float64 `yaml:"radius"`
	XP         float64 `yaml:"xp"`
	SplitInto  string  `yaml:"split_into"`
	SplitCount int     `yaml:"split_count"`
	Behaviour  string  `yaml:"behaviour"`

	// healer / summoner
	AbilityInterval float64 `yaml:"ability_interval"` // seconds
	AbilityRadius   float64 `yaml:"ability_radius"`
	AbilityAmount   float64 `yaml:"ability_amount"` // heal per pulse
	SummonType      string  `yaml:"summon_type"`
	SummonCount     int     `yaml:"summon_count"`
}

type enemyFile struct {
	Enemies []EnemyDef `yaml:"enemies"`
}

// EnemyTable holds enemy types indexed by id.
type EnemyTable struct {
	byID  map[string]*EnemyDef
	order []*EnemyDef
}

func loadEnemyTable(dir string) (*EnemyTable, error) {
	var f enemyFile
	if err := loadYAML(dir, "enemies.yaml", &f); err != nil {
		return nil, err
	}
	t := &EnemyTable{byID: make(map[string]*EnemyDef, len(f.Enemies))}
	for i := range f.Enemies {
		e := &f.Enemies[i]
		if e.HP <= 0 || e.Radius <= 0 {
			return nil, fmt.Errorf("enemy %s: hp and radius must be positive", e.ID)
		}
		if e.Behaviour == "" {
			e.Behaviour = BehaviourChaser
		}
		e.Name = nameOr(e.Name, e.ID)
		t.byID[e.ID] = e
		t.order = append(t.order, e)
	}
	return t, nil
}

// Get returns an enemy type by id, or nil if not found.
func (t *EnemyTable) Get(id string) *EnemyDef {
	return t.byID[id]
}

// All returns enemy types in file order.
func (t *EnemyTable) All() []*EnemyDef {
	return t.order
}

// Count returns the number of loaded enemy types.
func (t *EnemyTable) Count() int {
	return len(t.order)
}
