package system

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/core/event"
	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/scripting"
	"github.com/hordecore/hordecore/internal/terrain"
	"github.com/hordecore/hordecore/internal/world"
)

// PlaceSpawn picks the point at angle/dist around center and clamps it into
// the arena. A point that lands inside the exclusion radius (pressed against
// a wall) is mirrored to the opposite side of center.
func PlaceSpawn(center world.Vec3, angle, dist float64, b terrain.Bounds, exclusion float64) world.Vec3 {
	p := center.Polar(angle, dist)
	p.X, p.Z = b.Clamp(p.X, p.Z)
	if p.Dist2D(center) < exclusion {
		p = center.Polar(angle+math.Pi, dist)
		p.X, p.Z = b.Clamp(p.X, p.Z)
	}
	return p
}

// GroupSize returns base + floor(level/divisor), capped at the ceiling.
func GroupSize(base, level int, cfg *data.DirectorConfig) int {
	n := base
	if cfg.LevelDivisor > 0 {
		n += level / cfg.LevelDivisor
	}
	if cfg.GroupCeiling > 0 && n > cfg.GroupCeiling {
		n = cfg.GroupCeiling
	}
	return n
}

// SpawnInterval shortens a band interval by a per-level factor, floored at
// the minimum.
func SpawnInterval(band *data.SpawnBand, level int, cfg *data.DirectorConfig) float64 {
	return math.Max(cfg.MinInterval, band.Interval*(1-cfg.LevelIntervalFactor*float64(level)))
}

// SpawnDirector decides when to burst new enemies, which types and how many,
// keeps the population under its cap and schedules map hazards.
type SpawnDirector struct {
	ws       *world.State
	store    *world.Store
	player   *world.Player
	clock    *world.Clock
	rng      *rand.Rand
	tables   *data.Tables
	cfg      *data.DirectorConfig
	pop      *Population
	formulas Formulas
	log      *zap.Logger

	timer        float64
	special      []float64
	cleanupTimer float64
	crowdedRuns  int

	hazard hazardState
	order  []trimCandidate
}

type trimCandidate struct {
	id   ecs.EntityID
	dist float64
}

func NewSpawnDirector(ws *world.State, pop *Population, f Formulas, log *zap.Logger) *SpawnDirector {
	s := &SpawnDirector{
		ws:       ws,
		store:    ws.Store,
		player:   ws.Player,
		clock:    ws.Clock,
		rng:      ws.RNG,
		tables:   ws.Tables,
		cfg:      &ws.Tables.Spawn.Director,
		pop:      pop,
		formulas: f,
		log:      log,
		special:  make([]float64, len(ws.Tables.Spawn.Specials)),
	}
	for i, sp := range ws.Tables.Spawn.Specials {
		s.special[i] = sp.Interval
	}
	s.cleanupTimer = s.cfg.CleanupInterval
	s.hazard.init(ws.Map)
	return s
}

func (s *SpawnDirector) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (s *SpawnDirector) Update(d time.Duration) {
	if s.player.Dying {
		return
	}
	dt := d.Seconds()
	minutes := s.clock.Minutes()

	s.timer -= dt
	if s.timer <= 0 {
		s.burst(minutes)
	}
	for i, sp := range s.tables.Spawn.Specials {
		if minutes < sp.MinMinute {
			continue
		}
		s.special[i] -= dt
		if s.special[i] <= 0 {
			s.special[i] = sp.Interval
			if def := s.tables.Enemies.Get(sp.Type); def != nil {
				for k := 0; k < max(1, sp.Count); k++ {
					s.Spawn(def, minutes)
				}
			}
		}
	}

	s.enforceCap()
	s.cleanupTimer -= dt
	if s.cleanupTimer <= 0 {
		s.cleanupTimer = s.cfg.CleanupInterval
		s.aggressiveCleanup()
	}
	s.hazard.update(s)
}

// burst spawns one group for the current band and re-arms the timer.
func (s *SpawnDirector) burst(minutes float64) {
	band := s.tables.Spawn.Band(minutes)
	if band == nil || len(band.Types) == 0 {
		s.timer = math.Max(s.cfg.MinInterval, 0.25)
		return
	}
	level := s.player.Level
	s.timer = SpawnInterval(band, level, s.cfg)

	base := band.GroupMin
	if band.GroupMax > band.GroupMin {
		base += s.rng.Intn(band.GroupMax - band.GroupMin + 1)
	}
	n := GroupSize(base, level, s.cfg)
	for i := 0; i < n; i++ {
		def := s.tables.Enemies.Get(band.Types[s.rng.Intn(len(band.Types))])
		if def == nil {
			continue
		}
		if _, e := s.Spawn(def, minutes); e == nil {
			break
		}
	}
}

// Spawn places one regular enemy with time scaling and the elite roll.
// Returns nil when the population cap leaves no room.
func (s *SpawnDirector) Spawn(def *data.EnemyDef, minutes float64) (ecs.EntityID, *world.Enemy) {
	if s.pop.Room() <= 0 {
		return 0, nil
	}
	angle := s.rng.Float64() * 2 * math.Pi
	dist := s.cfg.SpawnDistMin + s.rng.Float64()*(s.cfg.SpawnDistMax-s.cfg.SpawnDistMin)
	pos := s.ws.Place(PlaceSpawn(s.player.Pos, angle, dist, s.ws.Bounds, s.cfg.ExclusionRadius))

	id, e := s.store.SpawnEnemy(def, pos)
	hpMult := 1 + s.cfg.HPPerMinute*minutes
	dmgMult := 1 + s.cfg.DamagePerMinute*minutes
	e.MaxHP = def.HP * hpMult
	e.HP = e.MaxHP
	e.Damage = def.Damage * dmgMult

	chance := s.formulas.EliteChance(scripting.EliteContext{
		Minutes: minutes,
		Base:    s.cfg.EliteBase,
		Slope:   s.cfg.EliteSlope,
		Cap:     s.cfg.EliteCap,
	})
	if s.rng.Float64() < chance {
		e.Elite = true
		e.MaxHP *= s.cfg.EliteHPMult
		e.HP = e.MaxHP
		e.Damage *= s.cfg.EliteDamageMult
		e.XP *= s.cfg.EliteXPMult
		e.Scale = s.cfg.EliteScale
		e.Attach("elite")
	}
	return id, e
}

// enforceCap trims the farthest enemies beyond the safety distance down to
// the trim target once the hard cap is exceeded.
func (s *SpawnDirector) enforceCap() {
	limit := s.pop.Cap()
	if s.store.LiveEnemies(false) <= limit {
		return
	}
	s.trimTo(int(float64(limit) * s.cfg.TrimRatio))
}

// aggressiveCleanup trims further after overcrowding persists across two
// consecutive checks.
func (s *SpawnDirector) aggressiveCleanup() {
	limit := s.pop.Cap()
	if float64(s.store.LiveEnemies(false)) < float64(limit)*s.cfg.CleanupTrigger {
		s.crowdedRuns = 0
		return
	}
	s.crowdedRuns++
	if s.crowdedRuns < 2 {
		return
	}
	s.crowdedRuns = 0
	removed := s.trimTo(int(float64(limit) * s.cfg.CleanupRatio))
	s.log.Debug("population cleanup", zap.Int("removed", removed), zap.Int("cap", limit))
}

func (s *SpawnDirector) trimTo(target int) int {
	live := s.store.LiveEnemies(false)
	if live <= target {
		return 0
	}
	s.order = s.order[:0]
	s.store.EachEnemy(func(id ecs.EntityID, e *world.Enemy) bool {
		if e.IsBoss() {
			return true
		}
		if d := e.Pos.Dist2D(s.player.Pos); d > s.cfg.SafetyDistance {
			s.order = append(s.order, trimCandidate{id: id, dist: d})
		}
		return true
	})
	sort.Slice(s.order, func(i, j int) bool { return s.order[i].dist > s.order[j].dist })
	removed := 0
	for _, c := range s.order {
		if live-removed <= target {
			break
		}
		if s.store.DespawnEnemy(c.id) {
			removed++
		}
	}
	return removed
}

// hazardState schedules a map's timed hazard: a warning event Warning
// seconds ahead, then hazard zones at the announced positions.
type hazardState struct {
	def       *data.HazardDef
	nextAt    float64
	warned    bool
	positions []world.Vec3
}

func (h *hazardState) init(m *data.MapDef) {
	if m == nil || m.Hazard.Kind == "" || m.Hazard.Interval <= 0 {
		return
	}
	h.def = &m.Hazard
	h.nextAt = m.Hazard.FirstMinute * 60
}

func (h *hazardState) update(s *SpawnDirector) {
	if h.def == nil {
		return
	}
	now := s.clock.Elapsed
	if !h.warned && now >= h.nextAt-h.def.Warning {
		h.positions = h.positions[:0]
		for i := 0; i < max(1, h.def.Count); i++ {
			at := s.player.Pos.Polar(s.rng.Float64()*2*math.Pi, s.rng.Float64()*h.def.Spread)
			h.positions = append(h.positions, s.ws.Place(at))
		}
		h.warned = true
		event.Emit(s.ws.Events, world.HazardWarning{
			Kind:      h.def.Kind,
			Lead:      math.Max(0, h.nextAt-now),
			Positions: append([]world.Vec3(nil), h.positions...),
		})
	}
	if h.warned && now >= h.nextAt {
		for _, at := range h.positions {
			_, fx := s.store.SpawnEffect(world.EffectHazard, at, now+h.def.Duration)
			fx.Source = h.def.Kind
			fx.Radius = h.def.Radius
			fx.Damage = h.def.Damage
			fx.TickInterval = 0.5
		}
		h.warned = false
		h.nextAt += h.def.Interval
	}
}
