package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hordecore/hordecore/internal/config"
	"github.com/hordecore/hordecore/internal/core/event"
	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/meta"
	"github.com/hordecore/hordecore/internal/scripting"
	"github.com/hordecore/hordecore/internal/system"
	"github.com/hordecore/hordecore/internal/terrain"
	"github.com/hordecore/hordecore/internal/world"
)

// Options configures a run.
type Options struct {
	Tables   *data.Tables
	Formulas system.Formulas // nil uses the built-in formulas
	Sim      config.SimConfig
	Limits   world.IntegrityLimits // zero uses world.DefaultIntegrityLimits

	// Profile gates characters and maps and supplies permanent upgrades.
	Profile meta.State
	// Manager persists the profile at game over; may be nil.
	Manager  *meta.Manager
	PlayerID string

	Now func() time.Time // wall clock for integrity checkpoints; nil = time.Now
	Log *zap.Logger
}

// Sim drives one run: it owns the world, the system runner and the run
// state machine. It is not safe for concurrent use; everything happens on
// the caller's game loop goroutine.
type Sim struct {
	ws       *world.State
	runner   *coresys.Runner
	formulas system.Formulas
	cfg      config.SimConfig
	profile  meta.State
	manager  *meta.Manager
	playerID string
	log      *zap.Logger

	input       *system.InputSystem
	progression *system.ProgressionSystem
	boss        *system.BossDirector
	integrity   *system.IntegritySystem
	death       *system.DeathSystem

	state    RunState
	runID    uuid.UUID
	snapshot Snapshot
	summary  *RunSummary
}

// New validates the options and builds a run in the menu state.
func New(o Options) (*Sim, error) {
	if o.Tables == nil {
		return nil, fmt.Errorf("new sim: no tables")
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.Formulas == nil {
		o.Formulas = scripting.Builtin{}
	}
	c := o.Tables.Characters.Get(o.Sim.Character)
	if c == nil {
		return nil, fmt.Errorf("character %q: %w", o.Sim.Character, ErrUnknownCharacter)
	}
	if !o.Profile.UnlockedCharacters.Has(c.ID) {
		return nil, fmt.Errorf("character %q: %w", c.ID, meta.ErrLocked)
	}
	m := o.Tables.Maps.Get(o.Sim.Map)
	if m == nil {
		return nil, fmt.Errorf("map %q: %w", o.Sim.Map, ErrUnknownMap)
	}
	if !o.Profile.UnlockedMaps.Has(m.ID) {
		return nil, fmt.Errorf("map %q: %w", m.ID, meta.ErrLocked)
	}
	if o.Sim.MaxStep <= 0 {
		return nil, fmt.Errorf("new sim: max_step must be positive")
	}
	weapon := o.Tables.Weapons.Get(c.StartWeapon)
	if weapon == nil {
		return nil, fmt.Errorf("character %s start weapon %q: %w", c.ID, c.StartWeapon, ErrUnknownCharacter)
	}

	seed := o.Sim.RNGSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ws := world.NewState(o.Tables, mapWithFallbacks(m, o.Sim), c, seed, o.Now)

	p := world.NewPlayer(o.Formulas.XPToNext(1))
	for stat, v := range c.Modifiers {
		p.ApplyStat(stat, v)
	}
	for stat, v := range meta.RunModifiers(o.Profile, o.Tables) {
		p.ApplyStat(stat, v)
	}
	p.HP = p.MaxHP
	p.AddWeapon(weapon)
	ws.Player = p
	p.Pos = ws.Place(world.Vec3{})

	s := &Sim{
		ws:       ws,
		formulas: o.Formulas,
		cfg:      o.Sim,
		profile:  o.Profile.Clone(),
		manager:  o.Manager,
		playerID: o.PlayerID,
		log:      o.Log,
		state:    StateMenu,
		runID:    uuid.New(),
	}
	s.build(o.Limits.OrDefault())
	s.publish()
	return s, nil
}

// mapWithFallbacks fills in a seed or size the map table leaves unset.
func mapWithFallbacks(m *data.MapDef, cfg config.SimConfig) *data.MapDef {
	if m.Seed != 0 && m.HalfSize > 0 {
		return m
	}
	cp := *m
	if cp.Seed == 0 {
		cp.Seed = cfg.MapSeed
	}
	if cp.HalfSize <= 0 {
		cp.HalfSize = cfg.ArenaHalfSize
	}
	return &cp
}

func (s *Sim) build(limits world.IntegrityLimits) {
	ws := s.ws
	pop := system.NewPopulation(ws)
	combat := system.NewCombat(ws, pop)

	s.input = system.NewInputSystem(ws)
	s.progression = system.NewProgressionSystem(ws, s.formulas, s.log)
	s.boss = system.NewBossDirector(ws, combat, pop, s.log)
	s.integrity = system.NewIntegritySystem(ws, limits)
	s.death = system.NewDeathSystem(ws, s.cfg.DeathSlowmo, s.log)

	r := coresys.NewRunner()
	r.Register(s.input)
	r.Register(system.NewPlayerSystem(ws))
	r.Register(system.NewEnemySystem(ws, combat, pop))
	r.Register(system.NewWeaponSystem(ws, combat))
	r.Register(system.NewEffectSystem(ws, combat))
	r.Register(system.NewSpawnDirector(ws, pop, s.formulas, s.log))
	r.Register(s.boss)
	r.Register(system.NewScoreSystem(ws))
	r.Register(s.integrity)
	r.Register(s.progression)
	r.Register(s.death)
	r.Register(system.NewCleanupSystem(ws))
	s.runner = r
}

// State returns the current run state.
func (s *Sim) State() RunState { return s.state }

// RunID identifies this run.
func (s *Sim) RunID() uuid.UUID { return s.runID }

// World exposes the run's state for read-only inspection.
func (s *Sim) World() *world.State { return s.ws }

func (s *Sim) setState(to RunState) {
	if to == s.state {
		return
	}
	from := s.state
	s.state = to
	event.Emit(s.ws.Events, world.StateChanged{From: string(from), To: string(to)})
}

// Start leaves the menu and begins simulating.
func (s *Sim) Start() error {
	if s.state != StateMenu {
		return fmt.Errorf("start from %s: %w", s.state, ErrNotPlaying)
	}
	s.ws.Started = s.ws.Now()
	s.setState(StatePlaying)
	s.log.Info("run started",
		zap.String("run", s.runID.String()),
		zap.String("character", s.ws.Character.ID),
		zap.String("map", s.ws.Map.ID),
	)
	s.ws.Events.Flush()
	return nil
}

// SetInput queues the collaborator's signals for the next simulated frame.
func (s *Sim) SetInput(in world.Input) {
	s.input.Submit(in)
}

// Update advances the run by one rendered frame of real duration dt. The
// step is clamped to max_step and slowed during the death sequence.
func (s *Sim) Update(dt time.Duration) {
	defer s.ws.Events.Flush()
	switch s.state {
	case StateMenu, StateGameOver:
		return
	case StateLevelUp, StateRewardSpin:
		s.runner.TickPhase(coresys.PhaseInput, 0)
		return
	}

	dt = min(max(dt, 0), s.cfg.MaxStep)
	step := dt
	if s.ws.Player.Dying {
		step = time.Duration(float64(dt) * s.cfg.SlowmoScale)
	}
	clk := s.ws.Clock
	clk.Real = dt.Seconds()
	clk.Dt = step.Seconds()
	clk.Elapsed += clk.Dt
	clk.Frame++

	s.runner.Tick(step)

	switch {
	case s.death.Finished():
		s.finish()
	case s.progression.Pending() != nil:
		s.pauseForOffer()
	}
	s.publish()
}

func (s *Sim) pauseForOffer() {
	if s.progression.Pending().Kind == system.OfferChest {
		s.setState(StateRewardSpin)
	} else {
		s.setState(StateLevelUp)
	}
}

// Offer returns the choice waiting in the levelup or reward-spin state.
func (s *Sim) Offer() *system.Offer {
	return s.progression.Pending()
}

// ChooseUpgrade applies option i of the pending level-up offer.
func (s *Sim) ChooseUpgrade(i int) (world.Option, error) {
	return s.choose(StateLevelUp, i)
}

// ChooseChestReward applies option i of the pending chest offer.
func (s *Sim) ChooseChestReward(i int) (world.Option, error) {
	return s.choose(StateRewardSpin, i)
}

func (s *Sim) choose(want RunState, i int) (world.Option, error) {
	defer s.ws.Events.Flush()
	if s.state != want {
		return world.Option{}, fmt.Errorf("choose in %s, want %s: %w", s.state, want, ErrInvalidChoice)
	}
	opt, err := s.progression.Choose(i)
	if err != nil {
		return world.Option{}, fmt.Errorf("%w: %v", ErrInvalidChoice, err)
	}
	if s.progression.Pending() != nil {
		s.pauseForOffer()
	} else {
		s.setState(StatePlaying)
	}
	s.publish()
	return opt, nil
}

// finish closes the run: gold, profile update, persistence, GameOver.
func (s *Sim) finish() {
	p, st := s.ws.Player, s.ws.Stats
	earned := s.formulas.RunGold(scripting.RunGoldContext{
		Survival:  st.Survival,
		Kills:     st.Kills,
		BossKills: st.BossKills,
		Level:     p.Level,
		Greed:     p.GoldMult - 1,
	})
	gold := earned + st.Gold

	meta.RecordRun(&s.profile, meta.RunResult{
		Kills:    st.Kills,
		Survival: st.Survival,
		Level:    p.Level,
		Gold:     gold,
	})
	if s.manager != nil {
		if err := s.manager.Save(s.profile); err != nil {
			s.log.Warn("profile save failed", zap.Error(err))
		}
	}

	sum := RunSummary{
		RunID:     s.runID,
		PlayerID:  s.playerID,
		Character: s.ws.Character.ID,
		Map:       s.ws.Map.ID,
		Score:     st.Score,
		Kills:     st.Kills,
		BossKills: st.BossKills,
		Level:     p.Level,
		Survival:  st.Survival,
		MaxCombo:  st.MaxCombo,
		Gold:      gold,
		Integrity: s.integrity.Report(),
	}
	s.summary = &sum
	s.setState(StateGameOver)
	event.Emit(s.ws.Events, GameOver{Summary: sum})
	s.log.Info("game over",
		zap.String("run", s.runID.String()),
		zap.Int("score", sum.Score),
		zap.Int("kills", sum.Kills),
		zap.Int("level", sum.Level),
		zap.Float64("survival", sum.Survival),
		zap.Int("gold", gold),
		zap.Int("integrity", sum.Integrity.Score),
	)
}

// Summary returns the run summary once the run is over.
func (s *Sim) Summary() (RunSummary, bool) {
	if s.summary == nil {
		return RunSummary{}, false
	}
	return *s.summary, true
}

// Profile returns the meta profile as updated by this run.
func (s *Sim) Profile() meta.State { return s.profile.Clone() }

// Events delivers the last frame's events to handlers registered with On,
// then returns all of them in emission order.
func (s *Sim) Events() []any {
	return s.ws.Events.DispatchAll()
}

// On registers fn for events of type T, called from Events.
func On[T any](s *Sim, fn func(T)) {
	event.Subscribe(s.ws.Events, fn)
}

// Snapshot returns the view published at the end of the last frame.
func (s *Sim) Snapshot() Snapshot { return s.snapshot }

func (s *Sim) publish() {
	p, st := s.ws.Player, s.ws.Stats
	snap := Snapshot{
		State:       s.state,
		Frame:       s.ws.Clock.Frame,
		HP:          p.HP,
		MaxHP:       p.MaxHP,
		XP:          p.XP,
		XPToNext:    p.XPToNext,
		Level:       p.Level,
		Kills:       st.Kills,
		Score:       st.Score,
		Survival:    st.Survival,
		Combo:       st.Combo,
		ComboMult:   st.ComboMult,
		Gold:        st.Gold,
		Weapons:     make([]WeaponView, len(p.Weapons)),
		Enemies:     s.ws.Store.LiveEnemies(true),
		Projectiles: s.ws.Store.Projectiles.Len(),
		Effects:     s.ws.Store.Effects.Len(),
		Position:    p.Pos,
	}
	for i, w := range p.Weapons {
		snap.Weapons[i] = WeaponView{ID: w.ID, Level: w.Level}
	}
	if _, b := s.boss.Active(); b != nil && b.Boss != nil {
		snap.Boss = &BossView{
			ID:    b.Boss.Def.ID,
			Name:  b.Name,
			HP:    b.HP,
			MaxHP: b.MaxHP,
			Phase: b.Boss.Phase,
		}
	}
	s.snapshot = snap
}

// Bounds returns the arena bounds of this run.
func (s *Sim) Bounds() terrain.Bounds { return s.ws.Bounds }
