package data

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed yaml/*.yaml
var defaults embed.FS

// Tables bundles every balance table the simulation reads.
type Tables struct {
	Enemies      *EnemyTable
	Spawn        *SpawnTable
	Weapons      *WeaponTable
	Passives     *PassiveTable
	Bosses       *BossTable
	Maps         *MapTable
	Characters   *CharacterTable
	MetaUpgrades *MetaUpgradeTable
}

// LoadTables loads all tables. A file present in dir replaces the embedded
// default of the same name; dir may be empty.
func LoadTables(dir string) (*Tables, error) {
	t := &Tables{}
	var err error
	if t.Enemies, err = loadEnemyTable(dir); err != nil {
		return nil, err
	}
	if t.Spawn, err = loadSpawnTable(dir); err != nil {
		return nil, err
	}
	if t.Weapons, err = loadWeaponTable(dir); err != nil {
		return nil, err
	}
	if t.Passives, err = loadPassiveTable(dir); err != nil {
		return nil, err
	}
	if t.Bosses, err = loadBossTable(dir); err != nil {
		return nil, err
	}
	if t.Maps, err = loadMapTable(dir); err != nil {
		return nil, err
	}
	if t.Characters, err = loadCharacterTable(dir); err != nil {
		return nil, err
	}
	if t.MetaUpgrades, err = loadMetaUpgradeTable(dir); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// DefaultTables loads the embedded tables only. Panics if they are broken,
// which is a build defect rather than a runtime condition.
func DefaultTables() *Tables {
	t, err := LoadTables("")
	if err != nil {
		panic(fmt.Sprintf("embedded tables: %v", err))
	}
	return t
}

// Validate checks cross-table references.
func (t *Tables) Validate() error {
	var errs []error
	for i, b := range t.Spawn.Bands {
		if len(b.Types) == 0 {
			errs = append(errs, fmt.Errorf("spawn band %d: no enemy types", i))
		}
		if i > 0 && b.FromMinute <= t.Spawn.Bands[i-1].FromMinute {
			errs = append(errs, fmt.Errorf("spawn band %d: from_minute not increasing", i))
		}
		for _, id := range b.Types {
			if t.Enemies.Get(id) == nil {
				errs = append(errs, fmt.Errorf("spawn band %d: unknown enemy %q", i, id))
			}
		}
	}
	for _, s := range t.Spawn.Specials {
		if t.Enemies.Get(s.Type) == nil {
			errs = append(errs, fmt.Errorf("special timer: unknown enemy %q", s.Type))
		}
	}
	for _, e := range t.Enemies.All() {
		if e.SplitInto != "" && t.Enemies.Get(e.SplitInto) == nil {
			errs = append(errs, fmt.Errorf("enemy %s: unknown split_into %q", e.ID, e.SplitInto))
		}
		if e.SummonType != "" && t.Enemies.Get(e.SummonType) == nil {
			errs = append(errs, fmt.Errorf("enemy %s: unknown summon_type %q", e.ID, e.SummonType))
		}
	}
	for _, w := range t.Weapons.All() {
		if w.Passive != "" && t.Passives.Get(w.Passive) == nil {
			errs = append(errs, fmt.Errorf("weapon %s: unknown passive %q", w.ID, w.Passive))
		}
	}
	for _, b := range t.Bosses.All() {
		if len(b.Phases) == 0 {
			errs = append(errs, fmt.Errorf("boss %s: no phases", b.ID))
		}
		if b.SummonType != "" && t.Enemies.Get(b.SummonType) == nil {
			errs = append(errs, fmt.Errorf("boss %s: unknown summon_type %q", b.ID, b.SummonType))
		}
	}
	for mapID, sched := range t.Bosses.Schedules {
		if t.Maps.Get(mapID) == nil {
			errs = append(errs, fmt.Errorf("boss schedule: unknown map %q", mapID))
		}
		for _, e := range sched {
			if t.Bosses.Get(e.Boss) == nil {
				errs = append(errs, fmt.Errorf("boss schedule %s: unknown boss %q", mapID, e.Boss))
			}
		}
	}
	for _, c := range t.Characters.All() {
		if t.Weapons.Get(c.StartWeapon) == nil {
			errs = append(errs, fmt.Errorf("character %s: unknown start weapon %q", c.ID, c.StartWeapon))
		}
	}
	return errors.Join(errs...)
}

var titleCaser = cases.Title(language.English)

// DisplayName turns a table id such as "golem_king" into "Golem King".
func DisplayName(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

func readTable(dir, name string) ([]byte, error) {
	if dir != "" {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return raw, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
	}
	raw, err := defaults.ReadFile("yaml/" + name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return raw, nil
}

func loadYAML(dir, name string, out any) error {
	raw, err := readTable(dir, name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// nameOr returns name, or the display form of id when name is empty.
func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return DisplayName(id)
}
