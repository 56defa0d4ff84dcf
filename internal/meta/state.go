package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hordecore/hordecore/internal/data"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrCorrupt          = errors.New("corrupt meta state")
	ErrInsufficientGold = errors.New("insufficient gold")
	ErrLocked           = errors.New("locked")
	ErrMaxLevel         = errors.New("already at max level")
	ErrAlreadyUnlocked  = errors.New("already unlocked")
)

// Set is a sorted, duplicate-free string set, serialized as a JSON array.
type Set []string

func NewSet(items ...string) Set {
	var s Set
	for _, it := range items {
		s = s.Add(it)
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := slices.BinarySearch(s, v)
	return ok
}

// Add returns the set with v inserted.
func (s Set) Add(v string) Set {
	i, ok := slices.BinarySearch(s, v)
	if ok {
		return s
	}
	return slices.Insert(s, i, v)
}

// Union returns a new set holding both sets' members. The union of two nil
// sets is nil.
func Union(a, b Set) Set {
	if a == nil && b == nil {
		return nil
	}
	out := make(Set, 0, len(a)+len(b))
	out = append(out, a...)
	for _, v := range b {
		out = out.Add(v)
	}
	return out
}

// Achievements are lifetime maxima used by unlock conditions.
type Achievements struct {
	MaxKills        int     `json:"maxKills"`
	MaxSurvivalTime float64 `json:"maxSurvivalTime"`
	MaxLevel        int     `json:"maxLevel"`
	TotalRuns       int     `json:"totalRuns"`
}

// Stat returns the achievement named by a data.Cond* key.
func (a Achievements) Stat(key string) (float64, bool) {
	switch key {
	case data.CondMaxKills:
		return float64(a.MaxKills), true
	case data.CondMaxSurvival:
		return a.MaxSurvivalTime, true
	case data.CondMaxLevel:
		return float64(a.MaxLevel), true
	case data.CondTotalRuns:
		return float64(a.TotalRuns), true
	}
	return 0, false
}

// State is the persistent cross-run profile.
type State struct {
	Gold               int               `json:"gold"`
	PermanentUpgrades  map[string]int    `json:"permanentUpgrades"`
	UnlockedCharacters Set               `json:"unlockedCharacters"`
	UnlockedMaps       Set               `json:"unlockedMaps"`
	UnlockedSkins      Set               `json:"unlockedSkins"`
	SelectedSkins      map[string]string `json:"selectedSkins"`
	TotalRuns          int               `json:"totalRuns"`
	Achievements       Achievements      `json:"achievements"`
}

// NewState returns a fresh profile: no gold, default characters, maps and
// skins unlocked, each character wearing its first default skin.
func NewState(t *data.Tables) State {
	s := State{
		PermanentUpgrades: make(map[string]int),
		SelectedSkins:     make(map[string]string),
	}
	for _, c := range t.Characters.All() {
		if c.Unlock.Default {
			s.UnlockedCharacters = s.UnlockedCharacters.Add(c.ID)
		}
		for _, sk := range c.Skins {
			if !sk.Unlock.Default {
				continue
			}
			s.UnlockedSkins = s.UnlockedSkins.Add(sk.ID)
			if _, ok := s.SelectedSkins[c.ID]; !ok {
				s.SelectedSkins[c.ID] = sk.ID
			}
		}
	}
	for _, m := range t.Maps.All() {
		if m.Unlock.Default {
			s.UnlockedMaps = s.UnlockedMaps.Add(m.ID)
		}
	}
	return s
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	if s.PermanentUpgrades != nil {
		c.PermanentUpgrades = make(map[string]int, len(s.PermanentUpgrades))
		for k, v := range s.PermanentUpgrades {
			c.PermanentUpgrades[k] = v
		}
	}
	if s.SelectedSkins != nil {
		c.SelectedSkins = make(map[string]string, len(s.SelectedSkins))
		for k, v := range s.SelectedSkins {
			c.SelectedSkins[k] = v
		}
	}
	c.UnlockedCharacters = slices.Clone(s.UnlockedCharacters)
	c.UnlockedMaps = slices.Clone(s.UnlockedMaps)
	c.UnlockedSkins = slices.Clone(s.UnlockedSkins)
	return c
}

// Merge combines two profiles without losing progress from either: numeric
// fields take the maximum, sets the union, upgrade levels the per-key
// maximum and skin selections the lexically larger id on conflict. Merge is
// commutative and idempotent.
func Merge(a, b State) State {
	return State{
		Gold:               max(a.Gold, b.Gold),
		PermanentUpgrades:  mergeLevels(a.PermanentUpgrades, b.PermanentUpgrades),
		UnlockedCharacters: Union(a.UnlockedCharacters, b.UnlockedCharacters),
		UnlockedMaps:       Union(a.UnlockedMaps, b.UnlockedMaps),
		UnlockedSkins:      Union(a.UnlockedSkins, b.UnlockedSkins),
		SelectedSkins:      mergeSkins(a.SelectedSkins, b.SelectedSkins),
		TotalRuns:          max(a.TotalRuns, b.TotalRuns),
		Achievements: Achievements{
			MaxKills:        max(a.Achievements.MaxKills, b.Achievements.MaxKills),
			MaxSurvivalTime: math.Max(a.Achievements.MaxSurvivalTime, b.Achievements.MaxSurvivalTime),
			MaxLevel:        max(a.Achievements.MaxLevel, b.Achievements.MaxLevel),
			TotalRuns:       max(a.Achievements.TotalRuns, b.Achievements.TotalRuns),
		},
	}
}

func mergeLevels(a, b map[string]int) map[string]int {
	if a == nil && b == nil {
		return nil
	}
	out := make(map[string]int, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = max(out[k], v)
	}
	return out
}

func mergeSkins(a, b map[string]string) map[string]string {
	if a == nil && b == nil {
		return nil
	}
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if cur, ok := out[k]; !ok || v > cur {
			out[k] = v
		}
	}
	return out
}

// Encode serializes a profile.
func Encode(s State) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode meta state: %w", err)
	}
	return b, nil
}

// Decode parses a persisted profile and repairs it against the tables.
// Unparseable input yields a fresh profile. The returned list names every
// repair made; it is empty for clean input.
func Decode(raw []byte, t *data.Tables) (State, []string) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return NewState(t), []string{fmt.Sprintf("%v: %v", ErrCorrupt, err)}
	}
	return Repair(s, t)
}

// Repair clamps out-of-range values, drops unknown ids and restores default
// unlocks. It never fails.
func Repair(s State, t *data.Tables) (State, []string) {
	var fixes []string
	fix := func(format string, args ...any) { fixes = append(fixes, fmt.Sprintf(format, args...)) }

	if s.Gold < 0 {
		fix("gold %d reset to 0", s.Gold)
		s.Gold = 0
	}
	if s.TotalRuns < 0 {
		fix("totalRuns %d reset to 0", s.TotalRuns)
		s.TotalRuns = 0
	}
	a := &s.Achievements
	if a.MaxKills < 0 {
		fix("maxKills %d reset to 0", a.MaxKills)
		a.MaxKills = 0
	}
	if a.MaxLevel < 0 {
		fix("maxLevel %d reset to 0", a.MaxLevel)
		a.MaxLevel = 0
	}
	if a.MaxSurvivalTime < 0 || math.IsNaN(a.MaxSurvivalTime) || math.IsInf(a.MaxSurvivalTime, 0) {
		fix("maxSurvivalTime %v reset to 0", a.MaxSurvivalTime)
		a.MaxSurvivalTime = 0
	}
	if a.TotalRuns != s.TotalRuns {
		n := max(a.TotalRuns, s.TotalRuns, 0)
		fix("totalRuns reconciled to %d", n)
		a.TotalRuns, s.TotalRuns = n, n
	}

	if s.PermanentUpgrades == nil {
		s.PermanentUpgrades = make(map[string]int)
	}
	for id, lvl := range s.PermanentUpgrades {
		def := t.MetaUpgrades.Get(id)
		switch {
		case def == nil:
			fix("unknown upgrade %q dropped", id)
			delete(s.PermanentUpgrades, id)
		case lvl < 0 || lvl > def.MaxLevel:
			c := min(max(lvl, 0), def.MaxLevel)
			fix("upgrade %q level %d clamped to %d", id, lvl, c)
			s.PermanentUpgrades[id] = c
		}
	}

	defaults := NewState(t)
	s.UnlockedCharacters = repairSet(s.UnlockedCharacters, defaults.UnlockedCharacters, "character",
		func(id string) bool { return t.Characters.Get(id) != nil }, fix)
	s.UnlockedMaps = repairSet(s.UnlockedMaps, defaults.UnlockedMaps, "map",
		func(id string) bool { return t.Maps.Get(id) != nil }, fix)
	s.UnlockedSkins = repairSet(s.UnlockedSkins, defaults.UnlockedSkins, "skin",
		func(id string) bool { return t.Characters.Skin(id) != nil }, fix)

	if s.SelectedSkins == nil {
		s.SelectedSkins = make(map[string]string)
	}
	for char, skin := range s.SelectedSkins {
		c := t.Characters.Get(char)
		if c == nil {
			fix("skin selection for unknown character %q dropped", char)
			delete(s.SelectedSkins, char)
			continue
		}
		if !c.HasSkin(skin) || !s.UnlockedSkins.Has(skin) {
			fix("skin %q for %s reset", skin, char)
			delete(s.SelectedSkins, char)
		}
	}
	for char, skin := range defaults.SelectedSkins {
		if _, ok := s.SelectedSkins[char]; !ok {
			s.SelectedSkins[char] = skin
		}
	}
	return s, fixes
}

// repairSet drops unknown ids, restores sorted order and adds defaults.
func repairSet(s, defaults Set, kind string, known func(string) bool, fix func(string, ...any)) Set {
	var out Set
	for _, id := range s {
		if !known(id) {
			fix("unknown %s %q dropped", kind, id)
			continue
		}
		out = out.Add(id)
	}
	for _, id := range defaults {
		out = out.Add(id)
	}
	return out
}
