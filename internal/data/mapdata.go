package data

// Hazard kinds.
const (
	HazardStorm    = "storm"
	HazardEruption = "eruption"
	HazardBlizzard = "blizzard"
)

// Unlock condition stats, matched against lifetime achievements.
const (
	CondMaxKills    = "max_kills"
	CondMaxSurvival = "max_survival" // seconds
	CondMaxLevel    = "max_level"
	CondTotalRuns   = "total_runs"
)

// Condition is an achievement threshold.
type Condition struct {
	Stat  string  `yaml:"stat"`
	Value float64 `yaml:"value"`
}

// Unlock gates a character, map or skin behind gold and an achievement.
type Unlock struct {
	Cost      int       `yaml:"cost"`
	Condition Condition `yaml:"condition"`
	Default   bool      `yaml:"default"` // unlocked on a fresh profile
}

// HazardDef is a map's timed environmental event.
type HazardDef struct {
	Kind        string  `yaml:"kind"`
	FirstMinute float64 `yaml:"first_minute"`
	Interval    float64 `yaml:"interval"` // seconds
	Warning     float64 `yaml:"warning"`  // lead time of the warning event
	Damage      float64 `yaml:"damage"`   // per second while inside
	Radius      float64 `yaml:"radius"`
	Count       int     `yaml:"count"`
	Duration    float64 `yaml:"duration"`
	Spread      float64 `yaml:"spread"` // zones land within this distance of the player
}

// MapDef holds static data for an arena.
type MapDef struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Seed      int64     `yaml:"seed"`
	Amplitude float64   `yaml:"amplitude"`
	HalfSize  float64   `yaml:"half_size"`
	Hazard    HazardDef `yaml:"hazard"`
	Unlock    Unlock    `yaml:"unlock"`
}

type mapFile struct {
	Maps []MapDef `yaml:"maps"`
}

// MapTable holds maps indexed by id.
type MapTable struct {
	byID  map[string]*MapDef
	order []*MapDef
}

func loadMapTable(dir string) (*MapTable, error) {
	var f mapFile
	if err := loadYAML(dir, "maps.yaml", &f); err != nil {
		return nil, err
	}
	t := &MapTable{byID: make(map[string]*MapDef, len(f.Maps))}
	for i := range f.Maps {
		m := &f.Maps[i]
		m.Name = nameOr(m.Name, m.ID)
		t.byID[m.ID] = m
		t.order = append(t.order, m)
	}
	return t, nil
}

// Get returns a map by id, or nil if not found.
func (t *MapTable) Get(id string) *MapDef {
	return t.byID[id]
}

// All returns maps in file order.
func (t *MapTable) All() []*MapDef {
	return t.order
}
