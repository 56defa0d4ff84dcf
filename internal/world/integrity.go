package world

import (
	"math"
	"time"
)

// IntegrityLimits are the ceilings behind the integrity score.
type IntegrityLimits struct {
	CheckpointInterval float64 // sim seconds
	TimeTolerance      float64
	TimeSlack          float64 // seconds
	MaxKillRate        float64 // kills per second
	KillWindow         float64 // seconds
	MaxDPS             float64
}

var DefaultIntegrityLimits = IntegrityLimits{
	CheckpointInterval: 30,
	TimeTolerance:      0.1,
	TimeSlack:          5,
	MaxKillRate:        30,
	KillWindow:         10,
	MaxDPS:             50000,
}

// OrDefault returns DefaultIntegrityLimits for the zero value.
func (l IntegrityLimits) OrDefault() IntegrityLimits {
	if l == (IntegrityLimits{}) {
		return DefaultIntegrityLimits
	}
	return l
}

// Integrity penalties, subtracted from 100.
const (
	PenaltyTimeDrift = 40
	PenaltyKillRate  = 30
	PenaltyDPS       = 30
)

// Event tags fed into the rolling hash.
const (
	HashKill    uint32 = 1
	HashLevelUp uint32 = 2
	HashBoss    uint32 = 3
)

// Checkpoint pairs simulated time with wall-clock time since run start.
type Checkpoint struct {
	Sim  float64       `json:"sim"`
	Wall time.Duration `json:"wall"`
}

// Integrity collects tamper signals during a run.
type Integrity struct {
	hash        uint32
	Checkpoints []Checkpoint
	kills       []float64 // kill timestamps within the window
	MaxKillRate float64
	MaxDPS      float64

	bucket      float64
	bucketStart float64
}

// Feed folds an event into the rolling hash: h = h*31 + tag, h = h*31 + v.
func (t *Integrity) Feed(tag, v uint32) {
	t.hash = t.hash*31 + tag
	t.hash = t.hash*31 + v
}

func (t *Integrity) Hash() uint32 { return t.hash }

// RecordKill notes a kill at sim time now and updates the peak kill rate.
func (t *Integrity) RecordKill(now, window float64) {
	t.kills = append(t.kills, now)
	cut := 0
	for cut < len(t.kills) && t.kills[cut] <= now-window {
		cut++
	}
	if cut > 0 {
		t.kills = append(t.kills[:0], t.kills[cut:]...)
	}
	if window > 0 {
		t.MaxKillRate = math.Max(t.MaxKillRate, float64(len(t.kills))/window)
	}
}

// RecordDamage adds damage dealt at sim time now, closing one-second DPS
// buckets as they elapse.
func (t *Integrity) RecordDamage(now, amount float64) {
	if span := now - t.bucketStart; span >= 1 {
		t.MaxDPS = math.Max(t.MaxDPS, t.bucket/span)
		t.bucket = 0
		t.bucketStart = now
	}
	t.bucket += amount
}

// AddCheckpoint records a (sim, wall) pair.
func (t *Integrity) AddCheckpoint(sim float64, wall time.Duration) {
	t.Checkpoints = append(t.Checkpoints, Checkpoint{Sim: sim, Wall: wall})
}

// IntegrityReport is handed to the score submission collaborator.
type IntegrityReport struct {
	Score       int          `json:"score"`
	Hash        uint32       `json:"hash"`
	Checkpoints []Checkpoint `json:"checkpoints"`
	MaxKillRate float64      `json:"max_kill_rate"`
	MaxDPS      float64      `json:"max_dps"`
	TimeDrift   bool         `json:"time_drift"`
	KillRateHit bool         `json:"kill_rate_exceeded"`
	DPSHit      bool         `json:"dps_exceeded"`
}

// Report derives the integrity score from the collected signals. final is
// the (sim, wall) pair at run end.
func (t *Integrity) Report(lim IntegrityLimits, final Checkpoint) IntegrityReport {
	r := IntegrityReport{
		Hash:        t.hash,
		Checkpoints: append([]Checkpoint(nil), t.Checkpoints...),
		MaxKillRate: t.MaxKillRate,
		MaxDPS:      math.Max(t.MaxDPS, t.openBucketDPS(final.Sim)),
	}
	prev := Checkpoint{}
	for _, c := range append(r.Checkpoints, final) {
		if drifted(prev, c, lim) {
			r.TimeDrift = true
			break
		}
		prev = c
	}
	if !r.TimeDrift && drifted(Checkpoint{}, final, lim) {
		r.TimeDrift = true
	}
	r.KillRateHit = lim.MaxKillRate > 0 && r.MaxKillRate > lim.MaxKillRate
	r.DPSHit = lim.MaxDPS > 0 && r.MaxDPS > lim.MaxDPS

	score := 100
	if r.TimeDrift {
		score -= PenaltyTimeDrift
	}
	if r.KillRateHit {
		score -= PenaltyKillRate
	}
	if r.DPSHit {
		score -= PenaltyDPS
	}
	r.Score = max(0, min(100, score))
	return r
}

func (t *Integrity) openBucketDPS(now float64) float64 {
	span := now - t.bucketStart
	if span < 1 {
		return 0
	}
	return t.bucket / span
}

// drifted reports whether simulated time outran wall time between a and b.
func drifted(a, b Checkpoint, lim IntegrityLimits) bool {
	dSim := b.Sim - a.Sim
	dWall := (b.Wall - a.Wall).Seconds()
	return dSim > dWall*(1+lim.TimeTolerance)+lim.TimeSlack
}
