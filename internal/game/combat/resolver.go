// Package combat resolves attack attempts between characters: precondition
// gates, hit/crit/block rolls, elemental mitigation, the death transition
// and leech. Every failure mode is a returned zero, never an error —
// attacks fire every frame and must not halt the simulation loop.
package combat

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/skalder/emberfall/internal/model"
)

// DefaultTileSize is the world-unit width of one map tile; attack ranges
// in derived stats are expressed in tiles.
const DefaultTileSize = 32.0

// Forced-hit / forced-evade threshold: at 95+ final accuracy the normal
// hit-chance roll is bypassed entirely. The attacker's check runs first,
// so a near-certain hitter beats a near-certain evader.
const accuracyThreshold = 95.0

// Resolver performs one-shot attack resolution. The RNG and clock are
// injected so outcomes are reproducible under test.
type Resolver struct {
	rng      *rand.Rand
	now      func() time.Time
	tileSize float64
	log      *slog.Logger

	deathHooks []func(victim, killer *model.Character)
}

// NewResolver builds a resolver with the given RNG source.
func NewResolver(rng *rand.Rand) *Resolver {
	return &Resolver{
		rng:      rng,
		now:      time.Now,
		tileSize: DefaultTileSize,
		log:      slog.Default(),
	}
}

// SetClock replaces the resolver's time source (tests).
func (r *Resolver) SetClock(now func() time.Time) { r.now = now }

// SetTileSize overrides the tile size used for range checks.
func (r *Resolver) SetTileSize(size float64) { r.tileSize = size }

// OnDeath registers a callback fired exactly once when a character makes
// the terminal Dead transition. killer is nil for damage without an
// attacker (damage-over-time).
func (r *Resolver) OnDeath(fn func(victim, killer *model.Character)) {
	r.deathHooks = append(r.deathHooks, fn)
}

// ResolveAttack runs one attack attempt and returns the damage dealt: 0 on
// any failed precondition, miss or block. Callers decide what to do with a
// zero — retry next tick, reposition, abandon.
func (r *Resolver) ResolveAttack(attacker, defender *model.Character) int {
	if attacker == nil || defender == nil {
		return 0
	}
	// Precondition gates, all fail-soft.
	if attacker.IsDead() || attacker.IsStunned() || attacker.IsActing() {
		return 0
	}
	if defender.IsDead() {
		return 0
	}

	att := attacker.Derived()
	now := r.now()

	// Attack-speed cooldown: timestamp comparison, not a scheduler.
	cooldown := time.Duration(1000/math.Max(att.AttackSpeed, 0.1)) * time.Millisecond
	if now.Sub(attacker.LastAttack()) < cooldown {
		return 0
	}

	// Range gate. Closing distance is the caller's job.
	if attacker.Pos().DistanceTo(defender.Pos()) > att.AttackRange*r.tileSize {
		return 0
	}

	// The attempt counts against the cooldown even if it misses.
	attacker.SetLastAttack(now)

	def := defender.Derived()

	// Base damage: final attack scaled by level, then by the governing
	// attribute for the weapon style.
	attrs := attacker.Attrs()
	damage := att.FinalAttack * (1 + float64(attacker.Level())*0.05)
	if att.WeaponRanged {
		damage *= 1 + float64(attrs.Dexterity)*0.01
	} else {
		damage *= 1 + float64(attrs.Strength)*0.01
	}
	dmg := math.Floor(damage)

	// Critical roll.
	crit := r.rng.Float64()*100 < att.CritRate
	if crit {
		dmg = math.Floor(dmg * att.CritDamage)
	}

	// Hit roll. Attacker forced-hit is checked before defender
	// forced-evade — explicit tie-break, do not reorder.
	if att.FinalAccuracy < accuracyThreshold {
		if def.FinalAccuracy >= accuracyThreshold {
			return 0
		}
		chance := clampf(att.FinalAccuracy-def.BasicDefence, 5, 95)
		if r.rng.Float64()*100 >= chance {
			return 0
		}
	}

	// Block roll: off-hand shield only, negates everything before
	// mitigation.
	if def.HasShield && r.rng.Float64()*100 < def.BlockRate {
		return 0
	}

	// Mitigated physical hit plus the attacker's elemental riders, each
	// mitigated by its own resistance.
	total := r.applyMitigated(defender, attacker, int(dmg), model.DamagePhysical)
	for elem, extra := range att.ExtraDamage {
		if extra > 0 && !defender.IsDead() {
			total += r.applyMitigated(defender, attacker, int(math.Floor(extra)), model.DamageType(elem))
		}
	}

	// Leech: a fraction of damage dealt returns to the attacker, clamped
	// to its own maxima.
	if att.LifeLeech > 0 {
		attacker.AddLife(float64(total) * att.LifeLeech / 100)
	}
	if att.ManaLeech > 0 {
		attacker.AddMana(float64(total) * att.ManaLeech / 100)
	}

	return total
}

// ApplyDamage pushes raw damage through elemental mitigation and applies
// it, skipping the hit/crit/block stages. This is the path DoT ticks use,
// so periodic damage respects resistances. Returns the damage dealt, 0 if
// the target is already dead.
func (r *Resolver) ApplyDamage(target *model.Character, amount int, dtype model.DamageType) int {
	return r.applyMitigated(target, nil, amount, dtype)
}

// applyMitigated applies one damage packet: resistance mitigation with the
// 75% ceiling, the minimum-1 floor, the life reduction and, when life
// reaches zero, the terminal death transition.
func (r *Resolver) applyMitigated(target, attacker *model.Character, amount int, dtype model.DamageType) int {
	if target == nil || target.IsDead() || amount < 0 {
		return 0
	}
	def := target.Derived()
	resist := math.Min(def.Resist[dtype]/100, model.ResistanceCap/100)
	final := int(math.Floor(float64(amount) * (1 - resist)))
	// A hit that reached mitigation always deals at least 1.
	if final < 1 {
		final = 1
	}

	remaining := target.ReduceLife(float64(final))
	if remaining <= 0 && target.Die() {
		name := ""
		if attacker != nil {
			name = attacker.Name()
		}
		r.log.Info("character died",
			"victim", target.Name(),
			"killer", name)
		for _, hook := range r.deathHooks {
			hook(target, attacker)
		}
	}
	return final
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
