package data

// SkinDef is a cosmetic variant of a character.
type SkinDef struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Unlock Unlock `yaml:"unlock"`
}

// CharacterDef holds a playable character.
type CharacterDef struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	StartWeapon string             `yaml:"start_weapon"`
	Modifiers   map[string]float64 `yaml:"modifiers"` // stat key -> bonus
	Skins       []SkinDef          `yaml:"skins"`
	Unlock      Unlock             `yaml:"unlock"`
}

type characterFile struct {
	Characters []CharacterDef `yaml:"characters"`
}

// CharacterTable holds characters indexed by id.
type CharacterTable struct {
	byID   map[string]*CharacterDef
	order  []*CharacterDef
	skinOf map[string]*SkinDef
}

func loadCharacterTable(dir string) (*CharacterTable, error) {
	var f characterFile
	if err := loadYAML(dir, "characters.yaml", &f); err != nil {
		return nil, err
	}
	t := &CharacterTable{
		byID:   make(map[string]*CharacterDef, len(f.Characters)),
		skinOf: make(map[string]*SkinDef),
	}
	for i := range f.Characters {
		c := &f.Characters[i]
		c.Name = nameOr(c.Name, c.ID)
		for j := range c.Skins {
			s := &c.Skins[j]
			s.Name = nameOr(s.Name, s.ID)
			t.skinOf[s.ID] = s
		}
		t.byID[c.ID] = c
		t.order = append(t.order, c)
	}
	return t, nil
}

// Get returns a character by id, or nil if not found.
func (t *CharacterTable) Get(id string) *CharacterDef {
	return t.byID[id]
}

// All returns characters in file order.
func (t *CharacterTable) All() []*CharacterDef {
	return t.order
}

// Skin returns a skin by id across all characters.
func (t *CharacterTable) Skin(id string) *SkinDef {
	return t.skinOf[id]
}

// HasSkin reports whether skinID belongs to character charID.
func (c *CharacterDef) HasSkin(skinID string) bool {
	for _, s := range c.Skins {
		if s.ID == skinID {
			return true
		}
	}
	return false
}
