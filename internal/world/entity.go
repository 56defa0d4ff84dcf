package world

import (
	"github.com/hordecore/hordecore/internal/core/ecs"
	"github.com/hordecore/hordecore/internal/data"
)

// BossRuntime is the per-boss state machine scratch.
type BossRuntime struct {
	Def          *data.BossDef
	Entry        data.ScheduleEntry
	Phase        int     // only increases
	PhaseTime    float64 // seconds in current phase
	SlamTimer    float64
	AbilityTimer float64
	ScaleIn      float64 // remaining scale-in seconds; boss is inert while > 0
	Overtime     bool
	Cycle        int
}

// Enemy is a live (or dying) enemy. Dead enemies stay in the arena until the
// cleanup pass and are skipped by AI and damage.
type Enemy struct {
	Type string
	Def  *data.EnemyDef
	Name string

	Pos, Vel  Vec3
	HP, MaxHP float64
	Damage    float64
	Speed     float64
	BaseSpeed float64
	Radius    float64
	XP        float64
	Scale     float64
	Alive     bool
	Elite     bool

	HitFlash   float64
	SlowAmount float64
	SlowTimer  float64
	BurnDPS    float64
	BurnTimer  float64
	BurnTick   float64

	AbilityTimer    float64
	ContactCooldown float64

	Boss *BossRuntime

	// Handle is the presentation-side render handle, recycled per type.
	Handle uint32
	// Attachments are transient visual markers (elite glow, frozen, burning).
	Attachments []string
}

// ResetForPool strips the enemy for reuse, keeping the attachment buffer.
func (e *Enemy) ResetForPool() {
	att := e.Attachments[:0]
	*e = Enemy{Attachments: att}
}

// IsBoss reports whether the enemy is a boss.
func (e *Enemy) IsBoss() bool { return e.Boss != nil }

// Attach adds a visual marker once.
func (e *Enemy) Attach(tag string) {
	for _, a := range e.Attachments {
		if a == tag {
			return
		}
	}
	e.Attachments = append(e.Attachments, tag)
}

// Detach removes a visual marker.
func (e *Enemy) Detach(tag string) {
	for i, a := range e.Attachments {
		if a == tag {
			e.Attachments = append(e.Attachments[:i], e.Attachments[i+1:]...)
			return
		}
	}
}

// Projectile is a moving hitbox fired by a weapon.
type Projectile struct {
	Weapon    string
	Pos, Vel  Vec3
	Damage    float64
	Element   string
	Life      float64 // seconds remaining
	Pierce    int     // enemies it may still hit
	Radius    float64
	ForceCrit bool
	Knockback float64
	Spin      float64 // visual hint, radians per second
	Hit       map[ecs.EntityID]struct{}
}

func (p *Projectile) ResetForPool() {
	hit := p.Hit
	clear(hit)
	*p = Projectile{Hit: hit}
}

// PickupKind tags a pickup.
type PickupKind uint8

const (
	PickupXP PickupKind = iota
	PickupChest
)

// Pickup is an XP gem or a chest lying on the ground.
type Pickup struct {
	Kind       PickupKind
	Pos        Vec3
	Value      float64
	Magnetized bool
}

// EffectKind tags a timed effect.
type EffectKind uint8

const (
	EffectRing     EffectKind = iota // expanding ring, hits each enemy once
	EffectZone                       // stationary damage zone, burst + ticks
	EffectTrail                      // trail segment dropped while moving
	EffectVortex                     // pulls enemies inward
	EffectOrb                        // slow orb, may explode on expiry
	EffectBeam                       // visual-only chain segment
	EffectHazard                     // damages the player
	EffectObstacle                   // blocks player movement
	EffectSlam                       // visual pulse of a boss slam
)

var effectKindNames = [...]string{"ring", "zone", "trail", "vortex", "orb", "beam", "hazard", "obstacle", "slam"}

func (k EffectKind) String() string {
	if int(k) < len(effectKindNames) {
		return effectKindNames[k]
	}
	return "unknown"
}

// Effect is a timed area effect, reaped by the cleanup pass on expiry.
type Effect struct {
	Kind    EffectKind
	Source  string // weapon or boss id
	Pos     Vec3
	Vel     Vec3
	Points  []Vec3 // beam path
	Radius  float64
	Grow    float64 // radius growth per second (rings)
	MaxRad  float64
	Damage  float64 // per tick, or burst for rings
	Element string
	Expires float64 // sim seconds

	TickInterval float64
	TickTimer    float64
	Pull         float64
	Explode      float64
	Heal         float64 // per tick while the player stands inside
	Knockback    float64

	// Hit holds the sim time at which each enemy may be hit again. Rings use
	// +Inf for "never again".
	Hit map[ecs.EntityID]float64
}

func (e *Effect) ResetForPool() {
	hit := e.Hit
	clear(hit)
	pts := e.Points[:0]
	*e = Effect{Hit: hit, Points: pts}
}

// CanHit reports whether enemy id may be hit at time now.
func (e *Effect) CanHit(id ecs.EntityID, now float64) bool {
	next, ok := e.Hit[id]
	return !ok || now >= next
}

// MarkHit records a hit and blocks the enemy until now+cooldown.
func (e *Effect) MarkHit(id ecs.EntityID, now, cooldown float64) {
	if e.Hit == nil {
		e.Hit = make(map[ecs.EntityID]float64)
	}
	e.Hit[id] = now + cooldown
}
