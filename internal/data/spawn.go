package data

// SpawnBand fixes interval, eligible types and group size from a minute on.
type SpawnBand struct {
	FromMinute float64  `yaml:"from_minute"`
	Interval   float64  `yaml:"interval"` // seconds between bursts
	Types      []string `yaml:"types"`
	GroupMin   int      `yaml:"group_min"`
	GroupMax   int      `yaml:"group_max"`
}

// SpecialTimer spawns a type on its own clock, outside group bursts.
type SpecialTimer struct {
	Type      string  `yaml:"type"`
	MinMinute float64 `yaml:"min_minute"`
	Interval  float64 `yaml:"interval"`
	Count     int     `yaml:"count"`
}

// DirectorConfig holds the spawn director's scaling constants.
type DirectorConfig struct {
	GroupCeiling        int     `yaml:"group_ceiling"`
	LevelDivisor        int     `yaml:"level_divisor"`
	LevelIntervalFactor float64 `yaml:"level_interval_factor"`
	MinInterval         float64 `yaml:"min_interval"`

	SpawnDistMin    float64 `yaml:"spawn_dist_min"`
	SpawnDistMax    float64 `yaml:"spawn_dist_max"`
	ExclusionRadius float64 `yaml:"exclusion_radius"`
	DespawnDistance float64 `yaml:"despawn_distance"`

	HPPerMinute     float64 `yaml:"hp_per_minute"`
	DamagePerMinute float64 `yaml:"damage_per_minute"`

	EliteBase        float64 `yaml:"elite_base"`
	EliteSlope       float64 `yaml:"elite_slope"`
	EliteCap         float64 `yaml:"elite_cap"`
	EliteHPMult      float64 `yaml:"elite_hp_mult"`
	EliteDamageMult  float64 `yaml:"elite_damage_mult"`
	EliteXPMult      float64 `yaml:"elite_xp_mult"`
	EliteScale       float64 `yaml:"elite_scale"`
	EliteChestChance float64 `yaml:"elite_chest_chance"`

	CapBase        int     `yaml:"cap_base"`
	CapPerLevel    int     `yaml:"cap_per_level"`
	CapMax         int     `yaml:"cap_max"`
	TrimRatio      float64 `yaml:"trim_ratio"`
	SafetyDistance float64 `yaml:"safety_distance"`

	CleanupInterval float64 `yaml:"cleanup_interval"` // seconds
	CleanupTrigger  float64 `yaml:"cleanup_trigger"`  // fraction of cap
	CleanupRatio    float64 `yaml:"cleanup_ratio"`    // trim target fraction
}

type spawnFile struct {
	Bands    []SpawnBand    `yaml:"bands"`
	Specials []SpecialTimer `yaml:"specials"`
	Director DirectorConfig `yaml:"director"`
}

// SpawnTable holds difficulty bands (ascending by from_minute), special
// timers and director constants.
type SpawnTable struct {
	Bands    []SpawnBand
	Specials []SpecialTimer
	Director DirectorConfig
}

func loadSpawnTable(dir string) (*SpawnTable, error) {
	var f spawnFile
	if err := loadYAML(dir, "spawn.yaml", &f); err != nil {
		return nil, err
	}
	return &SpawnTable{Bands: f.Bands, Specials: f.Specials, Director: f.Director}, nil
}

// Band returns the band active at the given elapsed minutes, or nil when
// minutes precede the first band.
func (t *SpawnTable) Band(minutes float64) *SpawnBand {
	var cur *SpawnBand
	for i := range t.Bands {
		if t.Bands[i].FromMinute > minutes {
			break
		}
		cur = &t.Bands[i]
	}
	return cur
}

// PopulationCap returns the live non-boss enemy cap for a player level.
func (d *DirectorConfig) PopulationCap(level int) int {
	c := d.CapBase + d.CapPerLevel*level
	if d.CapMax > 0 && c > d.CapMax {
		c = d.CapMax
	}
	return c
}
