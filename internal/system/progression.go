package system

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/hordecore/hordecore/internal/core/event"
	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

// Option pool weights.
const (
	weightUpgrade   = 3
	weightNewWeapon = 2
	weightPassive   = 2
	weightEvolution = 5

	BaseChoices  = 3
	ChestChoices = 3
	HealFraction = 0.3
	FallbackGold = 25
)

// OfferKind says what opened an option offer.
type OfferKind uint8

const (
	OfferLevelUp OfferKind = iota
	OfferChest
)

// Offer is a pending choice. Only one is shown at a time; the rest queue.
type Offer struct {
	Kind    OfferKind
	Level   int
	Options []world.Option
}

// ApplyLevels runs the level-up loop, one level per iteration, and returns
// the number of levels gained. Calling it again with no new XP is a no-op.
func ApplyLevels(p *world.Player, curve func(int) int) int {
	n := 0
	for p.XPToNext > 0 && p.XP >= p.XPToNext {
		p.XP -= p.XPToNext
		p.Level++
		p.XPToNext = float64(curve(p.Level))
		n++
	}
	return n
}

// ProgressionSystem turns XP into levels and chest touches into offers, and
// applies the player's choices.
type ProgressionSystem struct {
	player    *world.Player
	stats     *world.Stats
	frame     *world.FrameLog
	rng       *rand.Rand
	events    *event.Queue
	tables    *data.Tables
	character *data.CharacterDef
	integrity *world.Integrity
	formulas  Formulas
	log       *zap.Logger

	queue   []Offer
	current *Offer
	pool    []weighted
}

type weighted struct {
	opt    world.Option
	weight int
}

func NewProgressionSystem(ws *world.State, f Formulas, log *zap.Logger) *ProgressionSystem {
	return &ProgressionSystem{
		player:    ws.Player,
		stats:     ws.Stats,
		frame:     ws.Frame,
		rng:       ws.RNG,
		events:    ws.Events,
		tables:    ws.Tables,
		character: ws.Character,
		integrity: ws.Integrity,
		formulas:  f,
		log:       log,
	}
}

func (s *ProgressionSystem) Phase() coresys.Phase { return coresys.PhaseProgression }

func (s *ProgressionSystem) Update(_ time.Duration) {
	if s.player.Dying {
		return
	}
	from := s.player.Level
	gained := ApplyLevels(s.player, s.formulas.XPToNext)
	for l := from + 1; l <= from+gained; l++ {
		s.queue = append(s.queue, Offer{Kind: OfferLevelUp, Level: l})
		s.integrity.Feed(world.HashLevelUp, uint32(l))
	}
	s.frame.LevelUps += gained
	if gained > 0 {
		s.log.Info("level up", zap.Int("level", s.player.Level), zap.Int("gained", gained))
	}
	for i := 0; i < s.frame.Chests; i++ {
		s.queue = append(s.queue, Offer{Kind: OfferChest, Level: s.player.Level})
	}
	s.stats.Chests += s.frame.Chests
	s.advance()
}

// Pending returns the offer awaiting a choice, or nil.
func (s *ProgressionSystem) Pending() *Offer { return s.current }

// Queued returns how many offers wait behind the current one.
func (s *ProgressionSystem) Queued() int { return len(s.queue) }

// advance opens the next queued offer once the current one is resolved.
// Options are rolled on open so they reflect earlier choices.
func (s *ProgressionSystem) advance() {
	if s.current != nil || len(s.queue) == 0 {
		return
	}
	o := s.queue[0]
	s.queue = s.queue[1:]
	switch o.Kind {
	case OfferLevelUp:
		o.Options = s.Roll(BaseChoices + s.player.ExtraChoices)
		event.Emit(s.events, world.LevelUp{Level: o.Level, Options: o.Options})
	case OfferChest:
		o.Options = s.Roll(ChestChoices)
		event.Emit(s.events, world.ChestOpened{Options: o.Options})
	}
	s.current = &o
}

// Choose applies option i of the pending offer and opens the next one.
func (s *ProgressionSystem) Choose(i int) (world.Option, error) {
	if s.current == nil {
		return world.Option{}, fmt.Errorf("no pending offer")
	}
	if i < 0 || i >= len(s.current.Options) {
		return world.Option{}, fmt.Errorf("option %d out of range [0,%d)", i, len(s.current.Options))
	}
	opt := s.current.Options[i]
	kind := s.current.Kind
	s.Apply(opt)
	if kind == OfferChest {
		event.Emit(s.events, world.ChestRewardApplied{Option: opt})
	}
	s.current = nil
	s.advance()
	return opt, nil
}

// Apply applies one option to the player.
func (s *ProgressionSystem) Apply(opt world.Option) {
	p := s.player
	switch opt.Kind {
	case world.OptWeaponUpgrade:
		if w := p.Weapon(opt.ID); w != nil && w.Level < data.MaxWeaponLevel {
			w.Level++
		}
	case world.OptNewWeapon:
		if def := s.tables.Weapons.Get(opt.ID); def != nil {
			p.AddWeapon(def)
		}
	case world.OptPassive:
		if def := s.tables.Passives.Get(opt.ID); def != nil && p.PassiveLevel(def.ID) < def.MaxLevel {
			p.Passives[def.ID]++
			p.ApplyStat(def.Stat, def.PerLevel)
		}
	case world.OptEvolution:
		if w := p.Weapon(opt.ID); CanEvolve(p, w, s.tables.Passives) {
			w.Level = data.EvolvedLevel
		}
	case world.OptHeal:
		p.Heal(opt.Amount)
	case world.OptGold:
		s.stats.Gold += int(opt.Amount)
	}
}

// Roll draws up to n distinct options from the weighted pool, without
// replacement. Heal and gold fill in when the pool runs dry.
func (s *ProgressionSystem) Roll(n int) []world.Option {
	s.buildPool()
	out := make([]world.Option, 0, n)
	for len(out) < n && len(s.pool) > 0 {
		total := 0
		for _, w := range s.pool {
			total += w.weight
		}
		r := s.rng.Intn(total)
		for j, w := range s.pool {
			if r < w.weight {
				out = append(out, w.opt)
				s.pool = append(s.pool[:j], s.pool[j+1:]...)
				break
			}
			r -= w.weight
		}
	}
	if len(out) < n {
		out = append(out, world.Option{Kind: world.OptHeal, Name: "Heal", Amount: s.player.MaxHP * HealFraction})
	}
	if len(out) < n {
		out = append(out, world.Option{Kind: world.OptGold, Name: "Gold", Amount: FallbackGold})
	}
	return out
}

func (s *ProgressionSystem) buildPool() {
	p := s.player
	s.pool = s.pool[:0]
	for i := range p.Weapons {
		w := &p.Weapons[i]
		if w.Def == nil {
			continue
		}
		switch {
		case w.Level < data.MaxWeaponLevel:
			s.pool = append(s.pool, weighted{world.Option{
				Kind: world.OptWeaponUpgrade, ID: w.ID, Name: w.Def.DisplayNameAt(w.Level + 1), Level: w.Level + 1,
			}, weightUpgrade})
		case CanEvolve(p, w, s.tables.Passives):
			s.pool = append(s.pool, weighted{world.Option{
				Kind: world.OptEvolution, ID: w.ID, Name: w.Def.DisplayNameAt(data.EvolvedLevel), Level: data.EvolvedLevel,
			}, weightEvolution})
		}
	}
	if len(p.Weapons) < data.MaxWeaponSlots {
		for _, def := range s.tables.Weapons.All() {
			if p.Weapon(def.ID) != nil || !s.eligible(def) {
				continue
			}
			s.pool = append(s.pool, weighted{world.Option{
				Kind: world.OptNewWeapon, ID: def.ID, Name: def.DisplayNameAt(1), Level: 1,
			}, weightNewWeapon})
		}
	}
	for _, def := range s.tables.Passives.All() {
		lvl := p.PassiveLevel(def.ID)
		if lvl >= def.MaxLevel {
			continue
		}
		s.pool = append(s.pool, weighted{world.Option{
			Kind: world.OptPassive, ID: def.ID, Name: def.Name, Level: lvl + 1, Amount: def.PerLevel,
		}, weightPassive})
	}
}

// eligible filters character-exclusive weapons.
func (s *ProgressionSystem) eligible(def *data.WeaponDef) bool {
	return def.Exclusive == "" || (s.character != nil && def.Exclusive == s.character.ID)
}
