package world

// Outbound events, queued during a frame and drained by the presentation
// layer after it.

type StateChanged struct {
	From, To string
}

type LevelUp struct {
	Level   int
	Options []Option
}

type BossSpawned struct {
	ID       string
	Name     string
	Mini     bool
	Overtime bool
}

type BossPhaseChanged struct {
	ID      string
	Name    string
	Phase   int
	Ability string
}

type BossDefeated struct {
	ID   string
	Name string
}

type BossSlam struct {
	ID     string
	Pos    Vec3
	Radius float64
}

type HazardWarning struct {
	Kind      string
	Lead      float64 // seconds until the hazard lands
	Positions []Vec3
}

type DamagePulse struct {
	Amount float64
	HP     float64
}

type ChestOpened struct {
	Options []Option
}

type ChestRewardApplied struct {
	Option Option
}

type PlayerDied struct {
	Survival float64
}
