package world

// OptionKind tags a level-up or chest choice.
type OptionKind uint8

const (
	OptWeaponUpgrade OptionKind = iota
	OptNewWeapon
	OptPassive
	OptEvolution
	OptHeal
	OptGold
)

var optionKindNames = [...]string{"weapon_upgrade", "new_weapon", "passive", "evolution", "heal", "gold"}

func (k OptionKind) String() string {
	if int(k) < len(optionKindNames) {
		return optionKindNames[k]
	}
	return "unknown"
}

func (k OptionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Option is one choice offered to the player.
type Option struct {
	Kind   OptionKind `json:"kind"`
	ID     string     `json:"id,omitempty"`
	Name   string     `json:"name"`
	Level  int        `json:"level,omitempty"` // level after applying
	Amount float64    `json:"amount,omitempty"`
}
