package model

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Position is a character's location on the map grid, in tile units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the euclidean distance to other, in tiles.
func (p Position) DistanceTo(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Character owns all engine state for one simulated actor: base
// attributes, resources, resistances, equipment, the effect ledger and the
// derived-stat cache. Each instance is privately owned by one simulation
// slot; the only cross-character writes are the damage/leech paths in the
// combat resolver.
type Character struct {
	id    uuid.UUID
	name  string
	class string

	mu sync.RWMutex

	level int
	attrs Attributes

	life float64
	mana float64

	// Live resistance bases, mutated by the effect ledger. Application
	// caps at ResistanceCap, reversal floors at 0 — the asymmetry is
	// deliberate game balance, see the ledger handlers.
	baseResist [NumDamageTypes]float64

	// Live elemental bonus-damage bases, mutated by damageModifier
	// ledger entries.
	baseExtraDamage [NumDamageTypes]float64

	equipment [NumSlots]*Equipment

	derived Derived
	dirty   bool

	pos        Position
	lastAttack time.Time

	effects EffectState

	stunned atomic.Bool
	acting  atomic.Bool
	dead    atomic.Bool

	deathOnce sync.Once
}

// NewCharacter creates a character at spawn. Resources start empty: the
// caller is expected to run a stat recompute and then RestoreToFull before
// the character enters the simulation.
func NewCharacter(name, class string, level int, attrs Attributes) *Character {
	if level < 1 {
		level = 1
	}
	c := &Character{
		id:    uuid.New(),
		name:  name,
		class: class,
		level: level,
		attrs: attrs,
		dirty: true,
	}
	c.effects.init()
	return c
}

func (c *Character) ID() uuid.UUID { return c.id }
func (c *Character) Name() string  { return c.name }
func (c *Character) Class() string { return c.class }

// Effects exposes the character's effect bookkeeping. The ledger in
// game/effect is the only intended writer.
func (c *Character) Effects() *EffectState { return &c.effects }

// Level returns the character level.
func (c *Character) Level() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// LevelUp raises the level by one and folds the allocated attribute points
// in. Marks the derived cache dirty; the caller must recompute.
func (c *Character) LevelUp(allocated Attributes) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level++
	c.attrs.Strength += allocated.Strength
	c.attrs.Dexterity += allocated.Dexterity
	c.attrs.Vitality += allocated.Vitality
	c.attrs.Energy += allocated.Energy
	c.dirty = true
}

// Attrs returns a copy of the base attributes.
func (c *Character) Attrs() Attributes {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attrs
}

// attrFields is the typed accessor table replacing dynamic field probing:
// a lookup miss is the soft-failure branch for unknown attribute names.
var attrFields = map[string]func(*Attributes) *int{
	"strength":  func(a *Attributes) *int { return &a.Strength },
	"dexterity": func(a *Attributes) *int { return &a.Dexterity },
	"vitality":  func(a *Attributes) *int { return &a.Vitality },
	"energy":    func(a *Attributes) *int { return &a.Energy },
}

// BaseAttribute looks up one base attribute by name.
// Returns false for unknown names.
func (c *Character) BaseAttribute(name string) (int, bool) {
	field, ok := attrFields[name]
	if !ok {
		return 0, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *field(&c.attrs), true
}

// AddBaseAttribute adjusts one base attribute by delta and marks the
// derived cache dirty. Returns false (nothing mutated) for unknown names.
// The shift is deliberately unclamped so a later reversal restores the
// exact pre-apply value; the recalculator guards the derivations against
// transient negatives.
func (c *Character) AddBaseAttribute(name string, delta int) bool {
	field, ok := attrFields[name]
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	*field(&c.attrs) += delta
	c.dirty = true
	return true
}

// BaseResistance looks up one live resistance base by element name.
// Returns false for unknown names.
func (c *Character) BaseResistance(name string) (float64, bool) {
	t, ok := ParseDamageType(name)
	if !ok {
		return 0, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseResist[t], true
}

// SetBaseResistance overwrites one live resistance base and marks the
// derived cache dirty. Returns false for unknown names. Capping and
// flooring policy belongs to the ledger handlers, not here.
func (c *Character) SetBaseResistance(name string, v float64) bool {
	t, ok := ParseDamageType(name)
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseResist[t] = v
	c.dirty = true
	return true
}

// BaseResistances returns a copy of the live resistance bases.
func (c *Character) BaseResistances() [NumDamageTypes]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseResist
}

// ExtraDamage looks up one live elemental bonus-damage base.
func (c *Character) ExtraDamage(name string) (float64, bool) {
	t, ok := ParseDamageType(name)
	if !ok {
		return 0, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseExtraDamage[t], true
}

// AddExtraDamage adjusts one live elemental bonus-damage base by delta.
// Returns false for unknown element names.
func (c *Character) AddExtraDamage(name string, delta float64) bool {
	t, ok := ParseDamageType(name)
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseExtraDamage[t] += delta
	c.dirty = true
	return true
}

// ExtraDamages returns a copy of the live elemental bonus-damage bases.
func (c *Character) ExtraDamages() [NumDamageTypes]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseExtraDamage
}

// Equip places item into slot, returning the item it displaced (nil if the
// slot was empty). Marks the derived cache dirty.
func (c *Character) Equip(slot Slot, item *Equipment) *Equipment {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.equipment[slot]
	c.equipment[slot] = item
	c.dirty = true
	return prev
}

// Unequip empties slot and returns the removed item, nil if already empty.
func (c *Character) Unequip(slot Slot) *Equipment {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.equipment[slot]
	c.equipment[slot] = nil
	if prev != nil {
		c.dirty = true
	}
	return prev
}

// ItemAt returns the item in slot, nil if empty.
func (c *Character) ItemAt(slot Slot) *Equipment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.equipment[slot]
}

// EquipmentSlots returns a copy of the slot array.
func (c *Character) EquipmentSlots() [NumSlots]*Equipment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.equipment
}

// Derived returns the published derived-stat cache.
func (c *Character) Derived() Derived {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.derived
}

// SetDerived publishes a freshly recomputed stat cache wholesale and
// clamps current life/mana to the new maxima, so a max-reducing change can
// never leave resources above cap.
func (c *Character) SetDerived(d Derived) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.derived = d
	if c.life > d.MaxLife {
		c.life = d.MaxLife
	}
	if c.mana > d.MaxMana {
		c.mana = d.MaxMana
	}
	c.dirty = false
}

// MarkDirty flags the derived cache as stale.
func (c *Character) MarkDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// Dirty reports whether the derived cache is stale.
func (c *Character) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Life returns current life.
func (c *Character) Life() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.life
}

// Mana returns current mana.
func (c *Character) Mana() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mana
}

// AddLife adds delta to current life, clamped to [0, maxLife].
// No-op once the character is dead: death is terminal, no heal or leech
// may raise life above 0 afterwards.
func (c *Character) AddLife(delta float64) {
	if c.dead.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.life = clamp(c.life+delta, 0, c.derived.MaxLife)
}

// AddMana adds delta to current mana, clamped to [0, maxMana].
// No-op once dead.
func (c *Character) AddMana(delta float64) {
	if c.dead.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mana = clamp(c.mana+delta, 0, c.derived.MaxMana)
}

// SetLife overwrites current life, clamped to [0, maxLife]. No-op once dead.
func (c *Character) SetLife(v float64) {
	if c.dead.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.life = clamp(v, 0, c.derived.MaxLife)
}

// SetMana overwrites current mana, clamped to [0, maxMana]. No-op once dead.
func (c *Character) SetMana(v float64) {
	if c.dead.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mana = clamp(v, 0, c.derived.MaxMana)
}

// RestoreToFull fills life and mana to the current maxima. No-op once dead.
func (c *Character) RestoreToFull() {
	if c.dead.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.life = c.derived.MaxLife
	c.mana = c.derived.MaxMana
}

// ReduceLife subtracts damage from current life, floored at 0, and returns
// the remaining life. Dead characters take no further damage.
func (c *Character) ReduceLife(damage float64) float64 {
	if c.dead.Load() {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.life
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.life = maxf(c.life-damage, 0)
	return c.life
}

// IsDead reports whether the character has made the terminal Dead
// transition.
func (c *Character) IsDead() bool { return c.dead.Load() }

// Die performs the terminal Dead transition. The first caller wins and
// gets true; every later call is a no-op returning false.
func (c *Character) Die() bool {
	executed := false
	c.deathOnce.Do(func() {
		c.mu.Lock()
		c.life = 0
		c.mu.Unlock()
		c.dead.Store(true)
		executed = true
	})
	return executed
}

// IsStunned reports the stun flag set by special effects.
func (c *Character) IsStunned() bool { return c.stunned.Load() }

// SetStunned sets or clears the stun flag.
func (c *Character) SetStunned(v bool) { c.stunned.Store(v) }

// IsActing reports whether the character is mid-action (attack wind-up,
// skill cast). The action queue owns this flag.
func (c *Character) IsActing() bool { return c.acting.Load() }

// SetActing sets or clears the acting flag.
func (c *Character) SetActing(v bool) { c.acting.Store(v) }

// LastAttack returns the timestamp of the last resolved attack attempt.
func (c *Character) LastAttack() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastAttack
}

// SetLastAttack stamps the attack cooldown clock.
func (c *Character) SetLastAttack(t time.Time) {
	c.mu.Lock()
	c.lastAttack = t
	c.mu.Unlock()
}

// Pos returns the character's map position.
func (c *Character) Pos() Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pos
}

// SetPos moves the character.
func (c *Character) SetPos(p Position) {
	c.mu.Lock()
	c.pos = p
	c.mu.Unlock()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
