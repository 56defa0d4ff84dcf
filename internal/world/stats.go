package world

import "math"

// ComboConfig shapes the kill-streak multiplier.
type ComboConfig struct {
	Window    float64 // seconds a streak survives without a kill
	MinStreak int     // streak length before the multiplier grows
	Step      float64 // multiplier gained per kill above MinStreak
	MaxMult   float64
}

var DefaultCombo = ComboConfig{Window: 3, MinStreak: 5, Step: 0.05, MaxMult: 3}

// Stats is the per-run scoreboard.
type Stats struct {
	Kills     int
	Score     int
	Survival  float64 // seconds of simulated time
	BossKills int
	Gold      int

	Combo      int
	MaxCombo   int
	ComboTimer float64
	ComboMult  float64

	DamageDealt float64
	Chests      int
}

func NewStats() *Stats {
	return &Stats{ComboMult: 1}
}

// RecordKill counts a kill and advances the streak.
func (s *Stats) RecordKill(cfg ComboConfig) {
	s.Kills++
	s.Combo++
	if s.Combo > s.MaxCombo {
		s.MaxCombo = s.Combo
	}
	s.ComboTimer = cfg.Window
	s.ComboMult = ComboMultiplier(s.Combo, cfg)
}

// DecayCombo runs the streak timer down; at zero the streak resets.
func (s *Stats) DecayCombo(dt float64) {
	if s.Combo == 0 {
		return
	}
	s.ComboTimer -= dt
	if s.ComboTimer <= 0 {
		s.ComboTimer = 0
		s.Combo = 0
		s.ComboMult = 1
	}
}

// ComboMultiplier is 1 up to MinStreak kills, then grows linearly by Step per
// kill, capped at MaxMult.
func ComboMultiplier(combo int, cfg ComboConfig) float64 {
	over := combo - cfg.MinStreak
	if over <= 0 {
		return 1
	}
	return math.Min(cfg.MaxMult, 1+float64(over)*cfg.Step)
}

// ScoreWeights weights each stat in the score formula.
type ScoreWeights struct {
	Survival float64
	Kill     float64
	Level    float64
	BossKill float64
	MaxCombo float64
}

var DefaultScoreWeights = ScoreWeights{Survival: 10, Kill: 10, Level: 50, BossKill: 5000, MaxCombo: 5}

// ComputeScore derives the score from current stats alone, so two runs that
// end with the same stats score the same regardless of kill order.
func ComputeScore(s *Stats, level int, w ScoreWeights) int {
	v := w.Survival*math.Floor(s.Survival) +
		w.Kill*float64(s.Kills) +
		w.Level*float64(level) +
		w.BossKill*float64(s.BossKills) +
		w.MaxCombo*float64(s.MaxCombo)
	return int(v)
}

// KillRecord is one kill observed this frame.
type KillRecord struct {
	Type  string
	Pos   Vec3
	Boss  bool
	Elite bool
}

// FrameLog collects per-frame facts consumed by later phases and reset by
// cleanup.
type FrameLog struct {
	Kills    []KillRecord
	LevelUps int
	Chests   int     // chests touched this frame
	Damage   float64 // damage dealt to enemies this frame
}

func (f *FrameLog) Reset() {
	f.Kills = f.Kills[:0]
	f.LevelUps = 0
	f.Chests = 0
	f.Damage = 0
}
