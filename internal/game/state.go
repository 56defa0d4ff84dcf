package game

import (
	"errors"

	"github.com/google/uuid"

	"github.com/hordecore/hordecore/internal/world"
)

var (
	ErrUnknownCharacter = errors.New("unknown character")
	ErrUnknownMap       = errors.New("unknown map")
	ErrNotPlaying       = errors.New("not playing")
	ErrInvalidChoice    = errors.New("invalid choice")
)

// RunState is the top-level state machine of a run.
type RunState string

const (
	StateMenu       RunState = "menu"
	StatePlaying    RunState = "playing"
	StateLevelUp    RunState = "levelup"
	StateRewardSpin RunState = "reward-spin"
	StateGameOver   RunState = "gameover"
)

// Paused reports whether the simulation is halted in this state.
func (s RunState) Paused() bool {
	return s != StatePlaying
}

// RunSummary is the end-of-run report handed to score submission.
type RunSummary struct {
	RunID     uuid.UUID             `json:"run_id"`
	PlayerID  string                `json:"player_id"`
	Character string                `json:"character"`
	Map       string                `json:"map"`
	Score     int                   `json:"score"`
	Kills     int                   `json:"kills"`
	BossKills int                   `json:"boss_kills"`
	Level     int                   `json:"level"`
	Survival  float64               `json:"survival"`
	MaxCombo  int                   `json:"max_combo"`
	Gold      int                   `json:"gold"`
	Integrity world.IntegrityReport `json:"integrity"`
}

// GameOver is emitted once, after the death sequence, with the final
// summary. The meta profile has already been updated when it fires.
type GameOver struct {
	Summary RunSummary
}

// WeaponView is one weapon slot in a snapshot.
type WeaponView struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

// BossView describes the active boss in a snapshot.
type BossView struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	HP    float64 `json:"hp"`
	MaxHP float64 `json:"max_hp"`
	Phase int     `json:"phase"`
}

// Snapshot is the per-frame stat view for rendering and UI collaborators.
type Snapshot struct {
	State       RunState     `json:"state"`
	Frame       uint64       `json:"frame"`
	HP          float64      `json:"hp"`
	MaxHP       float64      `json:"max_hp"`
	XP          float64      `json:"xp"`
	XPToNext    float64      `json:"xp_to_next"`
	Level       int          `json:"level"`
	Kills       int          `json:"kills"`
	Score       int          `json:"score"`
	Survival    float64      `json:"survival"`
	Combo       int          `json:"combo"`
	ComboMult   float64      `json:"combo_mult"`
	Gold        int          `json:"gold"`
	Weapons     []WeaponView `json:"weapons"`
	Enemies     int          `json:"enemies"`
	Projectiles int          `json:"projectiles"`
	Effects     int          `json:"effects"`
	Boss        *BossView    `json:"boss,omitempty"`
	Position    world.Vec3   `json:"position"`
}
