package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hordecore/hordecore/internal/game"
	"github.com/hordecore/hordecore/internal/world"
)

// Metrics holds the run gauges and counters on a private registry so tests
// and multiple runs in one process never collide on the default one.
// Labels are bounded: event kind and run state only.
type Metrics struct {
	reg *prometheus.Registry

	frameDuration prometheus.Histogram
	enemies       prometheus.Gauge
	projectiles   prometheus.Gauge
	effects       prometheus.Gauge
	kills         prometheus.Gauge
	score         prometheus.Gauge
	level         prometheus.Gauge
	survival      prometheus.Gauge
	events        *prometheus.CounterVec
	states        *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		frameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hordecore_frame_duration_seconds",
			Help:    "Wall time spent simulating one frame",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033},
		}),
		enemies: f.NewGauge(prometheus.GaugeOpts{
			Name: "hordecore_live_enemies",
			Help: "Live enemies including bosses",
		}),
		projectiles: f.NewGauge(prometheus.GaugeOpts{
			Name: "hordecore_projectiles",
			Help: "Allocated projectiles",
		}),
		effects: f.NewGauge(prometheus.GaugeOpts{
			Name: "hordecore_effects",
			Help: "Allocated area effects",
		}),
		kills: f.NewGauge(prometheus.GaugeOpts{
			Name: "hordecore_run_kills",
			Help: "Kills in the current run",
		}),
		score: f.NewGauge(prometheus.GaugeOpts{
			Name: "hordecore_run_score",
			Help: "Score of the current run",
		}),
		level: f.NewGauge(prometheus.GaugeOpts{
			Name: "hordecore_run_level",
			Help: "Player level",
		}),
		survival: f.NewGauge(prometheus.GaugeOpts{
			Name: "hordecore_run_survival_seconds",
			Help: "Simulated survival time",
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hordecore_events_total",
			Help: "Outbound simulation events by kind",
		}, []string{"kind"}),
		states: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hordecore_state_transitions_total",
			Help: "Run state transitions by target state",
		}, []string{"state"}),
	}
}

// Registry returns the registry the /metrics endpoint serves.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observe records one frame.
func (m *Metrics) Observe(s game.Snapshot, frame time.Duration) {
	m.frameDuration.Observe(frame.Seconds())
	m.enemies.Set(float64(s.Enemies))
	m.projectiles.Set(float64(s.Projectiles))
	m.effects.Set(float64(s.Effects))
	m.kills.Set(float64(s.Kills))
	m.score.Set(float64(s.Score))
	m.level.Set(float64(s.Level))
	m.survival.Set(s.Survival)
}

// ObserveEvents counts drained events.
func (m *Metrics) ObserveEvents(events []any) {
	for _, ev := range events {
		kind := EventKind(ev)
		if kind == "" {
			continue
		}
		m.events.WithLabelValues(kind).Inc()
		if sc, ok := ev.(world.StateChanged); ok {
			m.states.WithLabelValues(sc.To).Inc()
		}
	}
}

// EventKind names an outbound event for metrics and subscribers; unknown
// values yield "".
func EventKind(ev any) string {
	switch ev.(type) {
	case world.StateChanged:
		return "state_changed"
	case world.LevelUp:
		return "level_up"
	case world.BossSpawned:
		return "boss_spawned"
	case world.BossPhaseChanged:
		return "boss_phase"
	case world.BossDefeated:
		return "boss_defeated"
	case world.BossSlam:
		return "boss_slam"
	case world.HazardWarning:
		return "hazard_warning"
	case world.DamagePulse:
		return "damage_pulse"
	case world.ChestOpened:
		return "chest_opened"
	case world.ChestRewardApplied:
		return "chest_reward"
	case world.PlayerDied:
		return "player_died"
	case game.GameOver:
		return "game_over"
	}
	return ""
}
