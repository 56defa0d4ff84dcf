package data

import (
	"fmt"
	"sort"
)

// Boss phase abilities.
const (
	AbilityNone      = ""
	AbilitySummon    = "summon"
	AbilityHazard    = "hazard"
	AbilityTeleport  = "teleport"
	AbilityCone      = "cone"
	AbilityObstacles = "obstacles"
)

// BossPhase is one row of a boss's phase table. Phase 0 is the entry phase;
// phase i (i>0) is entered once hp/maxHp <= Threshold.
type BossPhase struct {
	Threshold       float64 `yaml:"threshold"`
	SpeedMult       float64 `yaml:"speed_mult"`
	SlamMult        float64 `yaml:"slam_mult"` // multiplies the slam interval
	Ability         string  `yaml:"ability"`
	AbilityInterval float64 `yaml:"ability_interval"`
}

// BossDef holds static data for a boss type.
type BossDef struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	HP          float64     `yaml:"hp"`
	Damage      float64     `yaml:"damage"`
	Speed       float64     `yaml:"speed"`
	Radius      float64     `yaml:"radius"`
	XP          float64     `yaml:"xp"`
	Phases      []BossPhase `yaml:"phases"`
	SummonType  string      `yaml:"summon_type"`
	SummonCount int         `yaml:"summon_count"`

	AbilityDamage   float64 `yaml:"ability_damage"`
	AbilityRadius   float64 `yaml:"ability_radius"`
	AbilityDuration float64 `yaml:"ability_duration"`
	AbilityCount    int     `yaml:"ability_count"`
	AbilityRange    float64 `yaml:"ability_range"`
}

// ScheduleEntry is one scripted boss spawn on a map.
type ScheduleEntry struct {
	Boss         string  `yaml:"boss"`
	Minute       float64 `yaml:"minute"`
	SlamInterval float64 `yaml:"slam_interval"`
	SlamRadius   float64 `yaml:"slam_radius"`
	SlamDamage   float64 `yaml:"slam_damage"`
	Mini         bool    `yaml:"mini"`
}

// OvertimeConfig drives procedural boss spawns after the schedule runs out.
type OvertimeConfig struct {
	StartMinute float64 `yaml:"start_minute"`
	Cooldown    float64 `yaml:"cooldown"`    // seconds between overtime spawns
	CycleScale  float64 `yaml:"cycle_scale"` // hp/damage bonus per full cycle
}

// BossDirectorConfig holds director constants.
type BossDirectorConfig struct {
	SpawnDistance float64 `yaml:"spawn_distance"`
	ScaleIn       float64 `yaml:"scale_in"` // seconds
	MiniHPMult    float64 `yaml:"mini_hp_mult"`
	MiniScale     float64 `yaml:"mini_scale"`
	ChestDrops    int     `yaml:"chest_drops"`
}

type bossFile struct {
	Bosses    []BossDef                  `yaml:"bosses"`
	Schedules map[string][]ScheduleEntry `yaml:"schedules"`
	Overtime  OvertimeConfig             `yaml:"overtime"`
	Director  BossDirectorConfig         `yaml:"director"`
}

// BossTable holds boss types and per-map schedules.
type BossTable struct {
	byID      map[string]*BossDef
	order     []*BossDef
	Schedules map[string][]ScheduleEntry // sorted by minute
	Overtime  OvertimeConfig
	Director  BossDirectorConfig
}

func loadBossTable(dir string) (*BossTable, error) {
	var f bossFile
	if err := loadYAML(dir, "bosses.yaml", &f); err != nil {
		return nil, err
	}
	t := &BossTable{
		byID:      make(map[string]*BossDef, len(f.Bosses)),
		Schedules: f.Schedules,
		Overtime:  f.Overtime,
		Director:  f.Director,
	}
	for i := range f.Bosses {
		b := &f.Bosses[i]
		for j := 1; j < len(b.Phases); j++ {
			if b.Phases[j].Threshold >= b.Phases[j-1].Threshold {
				return nil, fmt.Errorf("boss %s: phase thresholds must decrease", b.ID)
			}
		}
		for j := range b.Phases {
			if b.Phases[j].SpeedMult <= 0 {
				b.Phases[j].SpeedMult = 1
			}
			if b.Phases[j].SlamMult <= 0 {
				b.Phases[j].SlamMult = 1
			}
		}
		b.Name = nameOr(b.Name, b.ID)
		t.byID[b.ID] = b
		t.order = append(t.order, b)
	}
	for id := range t.Schedules {
		s := t.Schedules[id]
		sort.SliceStable(s, func(i, j int) bool { return s[i].Minute < s[j].Minute })
	}
	return t, nil
}

// Get returns a boss by id, or nil if not found.
func (t *BossTable) Get(id string) *BossDef {
	return t.byID[id]
}

// All returns bosses in file order.
func (t *BossTable) All() []*BossDef {
	return t.order
}

// Schedule returns the ordered schedule for a map.
func (t *BossTable) Schedule(mapID string) []ScheduleEntry {
	return t.Schedules[mapID]
}

// UniqueBosses returns the distinct boss ids of a map's schedule in first
// appearance order.
func (t *BossTable) UniqueBosses(mapID string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range t.Schedules[mapID] {
		if !seen[e.Boss] {
			seen[e.Boss] = true
			out = append(out, e.Boss)
		}
	}
	return out
}

// PhaseFor returns the highest phase index whose threshold the hp fraction
// has reached. Phase 0 always matches.
func (b *BossDef) PhaseFor(frac float64) int {
	p := 0
	for i := 1; i < len(b.Phases); i++ {
		if frac <= b.Phases[i].Threshold {
			p = i
		}
	}
	return p
}
