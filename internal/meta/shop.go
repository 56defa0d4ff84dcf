package meta

import (
	"fmt"
	"math"

	"github.com/hordecore/hordecore/internal/data"
)

// UpgradeCost is the gold price of raising a permanent upgrade from level.
func UpgradeCost(level int) int {
	return int(math.Floor(100 * math.Pow(1.5, float64(level))))
}

// BuyUpgrade raises a permanent upgrade by one level and deducts its cost.
// On error s is left unchanged.
func BuyUpgrade(s *State, t *data.Tables, id string) error {
	def := t.MetaUpgrades.Get(id)
	if def == nil {
		return fmt.Errorf("upgrade %q: %w", id, ErrNotFound)
	}
	lvl := s.PermanentUpgrades[id]
	if lvl >= def.MaxLevel {
		return fmt.Errorf("upgrade %q: %w", id, ErrMaxLevel)
	}
	cost := UpgradeCost(lvl)
	if s.Gold < cost {
		return fmt.Errorf("upgrade %q costs %d, have %d: %w", id, cost, s.Gold, ErrInsufficientGold)
	}
	if s.PermanentUpgrades == nil {
		s.PermanentUpgrades = make(map[string]int)
	}
	s.Gold -= cost
	s.PermanentUpgrades[id] = lvl + 1
	return nil
}

// RunModifiers sums the stat bonuses of every owned permanent upgrade.
func RunModifiers(s State, t *data.Tables) map[string]float64 {
	mods := make(map[string]float64)
	for id, lvl := range s.PermanentUpgrades {
		def := t.MetaUpgrades.Get(id)
		if def == nil || lvl <= 0 {
			continue
		}
		mods[def.Stat] += def.PerLevel * float64(min(lvl, def.MaxLevel))
	}
	return mods
}

// UnlockKind selects which table an unlock id refers to.
type UnlockKind int

const (
	UnlockCharacter UnlockKind = iota
	UnlockMap
	UnlockSkin
)

func (k UnlockKind) String() string {
	switch k {
	case UnlockCharacter:
		return "character"
	case UnlockMap:
		return "map"
	case UnlockSkin:
		return "skin"
	}
	return fmt.Sprintf("UnlockKind(%d)", int(k))
}

func (s *State) unlocked(kind UnlockKind) *Set {
	switch kind {
	case UnlockMap:
		return &s.UnlockedMaps
	case UnlockSkin:
		return &s.UnlockedSkins
	default:
		return &s.UnlockedCharacters
	}
}

func lookupUnlock(t *data.Tables, kind UnlockKind, id string) (data.Unlock, string, bool) {
	switch kind {
	case UnlockCharacter:
		if c := t.Characters.Get(id); c != nil {
			return c.Unlock, "", true
		}
	case UnlockMap:
		if m := t.Maps.Get(id); m != nil {
			return m.Unlock, "", true
		}
	case UnlockSkin:
		for _, c := range t.Characters.All() {
			if c.HasSkin(id) {
				return t.Characters.Skin(id).Unlock, c.ID, true
			}
		}
	}
	return data.Unlock{}, "", false
}

// CanUnlock reports whether id can be bought now. The error names the first
// unmet requirement.
func CanUnlock(s State, t *data.Tables, kind UnlockKind, id string) error {
	u, owner, ok := lookupUnlock(t, kind, id)
	if !ok {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	if s.unlocked(kind).Has(id) {
		return fmt.Errorf("%s %q: %w", kind, id, ErrAlreadyUnlocked)
	}
	if owner != "" && !s.UnlockedCharacters.Has(owner) {
		return fmt.Errorf("skin %q needs character %s: %w", id, owner, ErrLocked)
	}
	if c := u.Condition; c.Stat != "" {
		have, known := s.Achievements.Stat(c.Stat)
		if !known || have < c.Value {
			return fmt.Errorf("%s %q needs %s >= %v: %w", kind, id, c.Stat, c.Value, ErrLocked)
		}
	}
	if s.Gold < u.Cost {
		return fmt.Errorf("%s %q costs %d, have %d: %w", kind, id, u.Cost, s.Gold, ErrInsufficientGold)
	}
	return nil
}

// Unlock buys id, deducting its cost. On error s is left unchanged.
func Unlock(s *State, t *data.Tables, kind UnlockKind, id string) error {
	if err := CanUnlock(*s, t, kind, id); err != nil {
		return err
	}
	u, _, _ := lookupUnlock(t, kind, id)
	s.Gold -= u.Cost
	set := s.unlocked(kind)
	*set = set.Add(id)
	return nil
}

// SelectSkin sets the skin a character wears. The skin must belong to the
// character and both must be unlocked.
func SelectSkin(s *State, t *data.Tables, charID, skinID string) error {
	c := t.Characters.Get(charID)
	if c == nil {
		return fmt.Errorf("character %q: %w", charID, ErrNotFound)
	}
	if !c.HasSkin(skinID) {
		return fmt.Errorf("skin %q for %s: %w", skinID, charID, ErrNotFound)
	}
	if !s.UnlockedCharacters.Has(charID) || !s.UnlockedSkins.Has(skinID) {
		return fmt.Errorf("skin %q for %s: %w", skinID, charID, ErrLocked)
	}
	if s.SelectedSkins == nil {
		s.SelectedSkins = make(map[string]string)
	}
	s.SelectedSkins[charID] = skinID
	return nil
}

// RunResult is what a finished run contributes to the profile.
type RunResult struct {
	Kills    int
	Survival float64 // seconds
	Level    int
	Gold     int
}

// RecordRun credits gold and raises lifetime achievements.
func RecordRun(s *State, r RunResult) {
	s.Gold += max(r.Gold, 0)
	s.TotalRuns++
	a := &s.Achievements
	a.TotalRuns = s.TotalRuns
	a.MaxKills = max(a.MaxKills, r.Kills)
	a.MaxLevel = max(a.MaxLevel, r.Level)
	a.MaxSurvivalTime = math.Max(a.MaxSurvivalTime, r.Survival)
}
