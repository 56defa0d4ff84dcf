package system

import (
	"math"
	"math/rand"
	"time"

	"github.com/hordecore/hordecore/internal/core/ecs"
	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/world"
)

// Weapon ids with dedicated behaviours.
const (
	WeaponOrbitBlades  = "orbit_blades"
	WeaponBone         = "bone"
	WeaponBloodAxe     = "blood_axe"
	WeaponShockwave    = "shockwave"
	WeaponFrostNova    = "frost_nova"
	WeaponHolySmite    = "holy_smite"
	WeaponLightningArc = "lightning_arc"
	WeaponFireTrail    = "fire_trail"
	WeaponVoidVortex   = "void_vortex"
	WeaponSoulHarvest  = "soul_harvest"
	WeaponArcaneOrb    = "arcane_orb"
	WeaponThornAura    = "thorn_aura"
)

const (
	ChainDecay       = 0.8
	bladeHitRadius   = 0.9
	projectileRadius = 0.5
	projectileSpread = 0.15 // radians between sibling projectiles
	beamLife         = 0.15
	hitPruneLen      = 256
)

// WeaponDamage returns base × (1 + (level−1) × scale) × damageMult. The
// evolved level keeps the max-level scaling and swaps in its own multiplier.
func WeaponDamage(def *data.WeaponDef, level int, damageMult float64) float64 {
	lvl := min(level, data.MaxWeaponLevel)
	dmg := def.BaseDamage * (1 + float64(lvl-1)*def.LevelScale) * damageMult
	if level >= data.EvolvedLevel {
		dmg *= def.Evolved.DamageMult
	}
	return dmg
}

// WeaponCooldown returns base/fireRate × (1 − cdr). The evolved level uses
// its own base cooldown when one is set. Never negative.
func WeaponCooldown(def *data.WeaponDef, level int, cdr float64) float64 {
	base := def.Cooldown
	if level >= data.EvolvedLevel && def.Evolved.Cooldown > 0 {
		base = def.Evolved.Cooldown
	}
	rate := def.FireRate
	if rate <= 0 {
		rate = 1
	}
	return math.Max(0, base/rate*(1-clamp(cdr, 0, world.MaxCooldownReduct)))
}

// ChainDamages returns the damage of each hop of a chain: base, base×decay,
// base×decay², …
func ChainDamages(base float64, hops int, decay float64) []float64 {
	out := make([]float64, 0, hops)
	d := base
	for i := 0; i < hops; i++ {
		out = append(out, d)
		d *= decay
	}
	return out
}

// SoulThreshold returns the kill count a soul harvest needs to detonate.
func SoulThreshold(def *data.WeaponDef, level int) int {
	t := def.Threshold - 5*(min(level, data.MaxWeaponLevel)-1)
	if level >= data.EvolvedLevel {
		t = t * 3 / 4
	}
	return max(5, t)
}

// BestCluster returns the position of the enemy within searchRange of
// center that has the most enemies within clusterRadius of itself.
func BestCluster(g *world.Grid, center world.Vec3, searchRange, clusterRadius float64) (world.Vec3, bool) {
	return bestClusterAway(g, center, searchRange, clusterRadius, nil)
}

// bestClusterAway is BestCluster ignoring candidates within clusterRadius of
// any centre in used.
func bestClusterAway(g *world.Grid, center world.Vec3, searchRange, clusterRadius float64, used []world.Vec3) (world.Vec3, bool) {
	var (
		best  world.Vec3
		count = 0
	)
	g.Query(center, searchRange, func(_ ecs.EntityID, e *world.Enemy) bool {
		pos := e.Pos
		for _, u := range used {
			if pos.Dist2D(u) < clusterRadius {
				return true
			}
		}
		if n := g.Count(pos, clusterRadius); n > count {
			count, best = n, pos
		}
		return true
	})
	return best, count > 0
}

// CanEvolve reports whether an owned weapon may be offered its evolution:
// it sits at the max pre-evolution level and its paired passive is maxed.
func CanEvolve(p *world.Player, slot *world.WeaponSlot, passives *data.PassiveTable) bool {
	if slot == nil || slot.Level != data.MaxWeaponLevel || slot.Def == nil || slot.Def.Passive == "" {
		return false
	}
	pd := passives.Get(slot.Def.Passive)
	return pd != nil && p.PassiveLevel(pd.ID) >= pd.MaxLevel
}

type weaponBehavior func(s *WeaponSystem, w *world.WeaponSlot, dt float64)

var weaponBehaviors = map[string]weaponBehavior{
	WeaponOrbitBlades:  (*WeaponSystem).orbitBlades,
	WeaponBone:         (*WeaponSystem).thrown,
	WeaponBloodAxe:     (*WeaponSystem).thrown,
	WeaponShockwave:    (*WeaponSystem).shockwave,
	WeaponFrostNova:    (*WeaponSystem).clusterZone,
	WeaponHolySmite:    (*WeaponSystem).clusterZone,
	WeaponLightningArc: (*WeaponSystem).lightningArc,
	WeaponFireTrail:    (*WeaponSystem).fireTrail,
	WeaponVoidVortex:   (*WeaponSystem).voidVortex,
	WeaponSoulHarvest:  (*WeaponSystem).soulHarvest,
	WeaponArcaneOrb:    (*WeaponSystem).arcaneOrb,
	WeaponThornAura:    (*WeaponSystem).thornAura,
}

// WeaponSystem lets every owned weapon decide, once per frame, whether to act.
type WeaponSystem struct {
	store  *world.Store
	grid   *world.Grid
	player *world.Player
	clock  *world.Clock
	rng    *rand.Rand
	combat *Combat
	place  func(world.Vec3) world.Vec3
}

func NewWeaponSystem(ws *world.State, combat *Combat) *WeaponSystem {
	return &WeaponSystem{
		store:  ws.Store,
		grid:   ws.Grid,
		player: ws.Player,
		clock:  ws.Clock,
		rng:    ws.RNG,
		combat: combat,
		place:  ws.Place,
	}
}

func (s *WeaponSystem) Phase() coresys.Phase { return coresys.PhaseWeapons }

func (s *WeaponSystem) Update(d time.Duration) {
	if s.player.Dying {
		return
	}
	dt := d.Seconds()
	for i := range s.player.Weapons {
		w := &s.player.Weapons[i]
		b := weaponBehaviors[w.ID]
		if b == nil || w.Def == nil {
			continue
		}
		if w.Cooldown > 0 {
			w.Cooldown = math.Max(0, w.Cooldown-dt)
		}
		b(s, w, dt)
	}
}

func (s *WeaponSystem) damage(w *world.WeaponSlot) float64 {
	return WeaponDamage(w.Def, w.Level, s.player.DamageMult)
}

func (s *WeaponSystem) rearm(w *world.WeaponSlot) {
	w.Cooldown = WeaponCooldown(w.Def, w.Level, s.player.CooldownReduction)
}

// hitReady gates continuous weapons: one hit per enemy per cooldown.
func (s *WeaponSystem) hitReady(w *world.WeaponSlot, id ecs.EntityID, cooldown float64) bool {
	now := s.clock.Elapsed
	if w.HitTimes == nil {
		w.HitTimes = make(map[ecs.EntityID]float64)
	}
	if next, ok := w.HitTimes[id]; ok && now < next {
		return false
	}
	if len(w.HitTimes) > hitPruneLen {
		for k, t := range w.HitTimes {
			if t <= now {
				delete(w.HitTimes, k)
			}
		}
	}
	w.HitTimes[id] = now + cooldown
	return true
}

// orbitBlades spins N blades around the player; radius and angular speed
// grow with level.
func (s *WeaponSystem) orbitBlades(w *world.WeaponSlot, dt float64) {
	def := w.Def
	n := def.CountAt(w.Level)
	radius := def.RadiusAt(w.Level)
	w.Angle = math.Mod(w.Angle+def.Speed*(1+0.1*float64(w.Level-1))*dt, 2*math.Pi)
	dmg := s.damage(w)
	center := s.player.Pos
	for k := 0; k < n; k++ {
		blade := center.Polar(w.Angle+2*math.Pi*float64(k)/float64(n), radius)
		s.grid.Overlapping(blade, bladeHitRadius, func(id ecs.EntityID, _ *world.Enemy) bool {
			if s.hitReady(w, id, def.Cooldown) {
				s.combat.ApplyHit(id, Hit{Amount: dmg, Type: def.Element, Knockback: def.Knockback, From: center})
			}
			return true
		})
	}
}

// thrown fires projectiles at the nearest enemy in range (bone, blood axe).
func (s *WeaponSystem) thrown(w *world.WeaponSlot, _ float64) {
	if w.Cooldown > 0 {
		return
	}
	def := w.Def
	_, target := s.grid.Nearest(s.player.Pos, def.Range, nil)
	if target == nil {
		return
	}
	origin := s.player.Pos
	origin.Y += 1
	base := math.Atan2(target.Pos.Z-origin.Z, target.Pos.X-origin.X)
	n := def.CountAt(w.Level)
	dmg := s.damage(w)
	spin := 10.0
	if w.ID == WeaponBloodAxe {
		spin = 14
	}
	for k := 0; k < n; k++ {
		angle := base + (float64(k)-float64(n-1)/2)*projectileSpread
		if w.Evolved() && n > 3 {
			angle = base + 2*math.Pi*float64(k)/float64(n)
		}
		_, pr := s.store.SpawnProjectile()
		pr.Weapon = w.ID
		pr.Pos = origin
		pr.Vel = world.Vec3{X: math.Cos(angle) * def.Speed, Z: math.Sin(angle) * def.Speed}
		pr.Damage = dmg
		pr.Element = def.Element
		pr.Life = def.DurationAt(w.Level)
		pr.Pierce = max(1, def.PenetrationAt(w.Level))
		pr.Radius = projectileRadius
		pr.ForceCrit = w.Evolved() && def.Evolved.ForceCrit
		pr.Knockback = def.Knockback
		pr.Spin = spin
	}
	s.rearm(w)
}

// shockwave emits expanding rings, the first on the player and the rest on
// distinct dense clusters nearby.
func (s *WeaponSystem) shockwave(w *world.WeaponSlot, _ float64) {
	if w.Cooldown > 0 {
		return
	}
	def := w.Def
	radius := def.RadiusAt(w.Level)
	if s.grid.Count(s.player.Pos, radius*2) == 0 {
		return
	}
	n := def.CountAt(w.Level)
	dmg := s.damage(w)
	var used []world.Vec3
	for k := 0; k < n; k++ {
		center := s.player.Pos
		if k > 0 {
			pos, ok := bestClusterAway(s.grid, s.player.Pos, radius*3, radius, used)
			if !ok {
				break
			}
			center = pos
			used = append(used, pos)
		}
		s.spawnRing(w.ID, center, radius, def.Duration, dmg, def.Knockback)
	}
	s.rearm(w)
}

func (s *WeaponSystem) spawnRing(source string, center world.Vec3, radius, duration, dmg, knockback float64) {
	if duration <= 0 {
		duration = 0.5
	}
	_, fx := s.store.SpawnEffect(world.EffectRing, center, s.clock.Elapsed+duration)
	fx.Source = source
	fx.MaxRad = radius
	fx.Grow = radius / duration
	fx.Damage = dmg
	fx.Knockback = knockback
}

// clusterZone drops damage zones on the best cluster (frost nova, holy
// smite): an immediate burst, then smaller periodic ticks. Frost slows,
// holy heals the player standing inside.
func (s *WeaponSystem) clusterZone(w *world.WeaponSlot, _ float64) {
	if w.Cooldown > 0 {
		return
	}
	def := w.Def
	radius := def.RadiusAt(w.Level)
	n := max(1, def.CountAt(w.Level))
	dmg := s.damage(w)
	placed := 0
	for k := 0; k < n; k++ {
		center, ok := BestCluster(s.grid, s.player.Pos, def.Range, radius)
		if !ok {
			break
		}
		if k > 0 {
			center = s.place(center.Polar(s.rng.Float64()*2*math.Pi, radius))
		}
		_, fx := s.store.SpawnEffect(world.EffectZone, center, s.clock.Elapsed+def.DurationAt(w.Level))
		fx.Source = w.ID
		fx.Radius = radius
		fx.Damage = dmg * 0.25
		fx.Element = def.Element
		fx.TickInterval = def.TickInterval
		fx.TickTimer = def.TickInterval
		if def.Element == data.ElementHoly {
			fx.Heal = 2 + 0.5*float64(w.Level)
		}
		for _, id := range s.grid.Collect(center, radius) {
			s.combat.ApplyHit(id, Hit{Amount: dmg, Type: def.Element})
		}
		placed++
	}
	if placed > 0 {
		s.rearm(w)
	}
}

// lightningArc walks from the player to the nearest not-yet-hit enemy, then
// onward, for N hops with decaying damage.
func (s *WeaponSystem) lightningArc(w *world.WeaponSlot, _ float64) {
	if w.Cooldown > 0 {
		return
	}
	def := w.Def
	hops := ChainDamages(s.damage(w), def.CountAt(w.Level), ChainDecay)
	hit := make(map[ecs.EntityID]struct{}, len(hops))
	from := s.player.Pos
	var path []world.Vec3
	for _, dmg := range hops {
		id, e := s.grid.Nearest(from, def.Range, func(id ecs.EntityID) bool {
			_, seen := hit[id]
			return seen
		})
		if e == nil {
			break
		}
		hit[id] = struct{}{}
		path = append(path, from)
		from = e.Pos
		s.combat.ApplyHit(id, Hit{Amount: dmg, Type: def.Element})
	}
	if len(hit) == 0 {
		return
	}
	_, fx := s.store.SpawnEffect(world.EffectBeam, s.player.Pos, s.clock.Elapsed+beamLife)
	fx.Source = w.ID
	fx.Points = append(append(fx.Points, path...), from)
	s.rearm(w)
}

// fireTrail drops a burning zone whenever the player has moved far enough
// from the previous drop.
func (s *WeaponSystem) fireTrail(w *world.WeaponSlot, _ float64) {
	if w.Cooldown > 0 {
		return
	}
	def := w.Def
	pos := s.player.Pos
	if w.Dropped && pos.Dist2D(w.LastDrop) < def.Range {
		return
	}
	w.LastDrop, w.Dropped = pos, true
	_, fx := s.store.SpawnEffect(world.EffectTrail, pos, s.clock.Elapsed+def.DurationAt(w.Level))
	fx.Source = w.ID
	fx.Radius = def.RadiusAt(w.Level)
	fx.Damage = s.damage(w) * def.TickInterval
	fx.Element = def.Element
	fx.TickInterval = def.TickInterval
	s.rearm(w)
}

// voidVortex spawns pulling vortices at random points near the player.
func (s *WeaponSystem) voidVortex(w *world.WeaponSlot, _ float64) {
	if w.Cooldown > 0 {
		return
	}
	def := w.Def
	for k := 0; k < max(1, def.CountAt(w.Level)); k++ {
		at := s.place(s.player.Pos.Polar(s.rng.Float64()*2*math.Pi, s.rng.Float64()*def.Range))
		_, fx := s.store.SpawnEffect(world.EffectVortex, at, s.clock.Elapsed+def.DurationAt(w.Level))
		fx.Source = w.ID
		fx.Radius = def.RadiusAt(w.Level)
		fx.Damage = s.damage(w)
		fx.Pull = def.Speed
		fx.TickInterval = def.TickInterval
		fx.Element = def.Element
	}
	s.rearm(w)
}

// soulHarvest detonates around the player once enough souls are gathered.
func (s *WeaponSystem) soulHarvest(w *world.WeaponSlot, _ float64) {
	def := w.Def
	if w.Souls < SoulThreshold(def, w.Level) {
		return
	}
	w.Souls = 0
	radius := def.RadiusAt(w.Level)
	dmg := s.damage(w)
	center := s.player.Pos
	for _, id := range s.grid.Collect(center, radius) {
		s.combat.ApplyHit(id, Hit{Amount: dmg, Type: def.Element, Knockback: def.Knockback, From: center})
	}
	s.spawnRing(w.ID, center, radius, 0.4, 0, 0)
}

// arcaneOrb releases slow orbs that damage what they overlap; evolved orbs
// explode on expiry.
func (s *WeaponSystem) arcaneOrb(w *world.WeaponSlot, _ float64) {
	if w.Cooldown > 0 {
		return
	}
	def := w.Def
	n := max(1, def.CountAt(w.Level))
	base := s.rng.Float64() * 2 * math.Pi
	for k := 0; k < n; k++ {
		angle := base + 2*math.Pi*float64(k)/float64(n)
		_, fx := s.store.SpawnEffect(world.EffectOrb, s.player.Pos, s.clock.Elapsed+def.DurationAt(w.Level))
		fx.Source = w.ID
		fx.Vel = world.Vec3{X: math.Cos(angle) * def.Speed, Z: math.Sin(angle) * def.Speed}
		fx.Radius = def.RadiusAt(w.Level)
		fx.Damage = s.damage(w)
		fx.TickInterval = def.TickInterval
		fx.Element = def.Element
		if w.Evolved() {
			fx.Explode = def.Evolved.Explode * s.player.DamageMult
		}
	}
	s.rearm(w)
}

// thornAura damages everything near the player on a per-enemy cooldown.
func (s *WeaponSystem) thornAura(w *world.WeaponSlot, _ float64) {
	def := w.Def
	dmg := s.damage(w)
	center := s.player.Pos
	for _, id := range s.grid.Collect(center, def.RadiusAt(w.Level)) {
		if s.hitReady(w, id, def.Cooldown) {
			s.combat.ApplyHit(id, Hit{Amount: dmg, Type: def.Element, Silent: true, Knockback: def.Knockback, From: center})
		}
	}
}
