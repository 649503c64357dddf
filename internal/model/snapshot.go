package model

import (
	"time"

	"github.com/google/uuid"
)

// NamedEffectSnapshot is the persisted form of an active named effect.
// Remaining time is stored instead of wall-clock timestamps so a restore
// on a different clock keeps the same time left.
type NamedEffectSnapshot struct {
	Name      string        `json:"name"`
	Debuff    bool          `json:"debuff,omitempty"`
	Mods      []StatMod     `json:"mods,omitempty"`
	Remaining time.Duration `json:"remaining"` // 0 = permanent
	DotDamage int           `json:"dotDamage,omitempty"`
	DotType   DamageType    `json:"dotType,omitempty"`
}

// CharacterSnapshot is the flat persistence record: base attributes,
// resources, equipment and active named effects. Derived stats are never
// persisted — a restore re-runs the recalculator so the cache cannot
// drift from the formulas.
type CharacterSnapshot struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Class string     `json:"class"`
	Level int        `json:"level"`
	Attrs Attributes `json:"attrs"`

	Life float64 `json:"life"`
	Mana float64 `json:"mana"`

	BaseResist      [NumDamageTypes]float64 `json:"baseResist"`
	BaseExtraDamage [NumDamageTypes]float64 `json:"baseExtraDamage"`

	Equipment map[string]*Equipment `json:"equipment,omitempty"` // keyed by slot name
	Named     []NamedEffectSnapshot `json:"named,omitempty"`

	Pos Position `json:"pos"`
}

// Snapshot captures the character's persistable state at the wall clock.
func (c *Character) Snapshot() CharacterSnapshot {
	return c.SnapshotAt(time.Now())
}

// SnapshotAt captures the character's persistable state, computing each
// named effect's remaining duration against the given time. The
// source-keyed ledger buckets are deliberately absent: skill-sourced
// modifiers are transient and their owners re-apply them after a restore.
func (c *Character) SnapshotAt(now time.Time) CharacterSnapshot {
	c.mu.RLock()
	snap := CharacterSnapshot{
		ID:              c.id,
		Name:            c.name,
		Class:           c.class,
		Level:           c.level,
		Attrs:           c.attrs,
		Life:            c.life,
		Mana:            c.mana,
		BaseResist:      c.baseResist,
		BaseExtraDamage: c.baseExtraDamage,
		Pos:             c.pos,
	}
	for slot, item := range c.equipment {
		if item != nil {
			if snap.Equipment == nil {
				snap.Equipment = make(map[string]*Equipment)
			}
			snap.Equipment[Slot(slot).String()] = item
		}
	}
	c.mu.RUnlock()

	for _, ne := range c.effects.Named() {
		es := NamedEffectSnapshot{
			Name:      ne.Name,
			Debuff:    ne.Debuff,
			Mods:      ne.Mods,
			DotDamage: ne.DotDamage,
			DotType:   ne.DotType,
		}
		if ne.Duration > 0 {
			remaining := ne.Duration - now.Sub(ne.Started)
			if remaining <= 0 {
				continue // expired between ticks, drop it
			}
			es.Remaining = remaining
		}
		snap.Named = append(snap.Named, es)
	}
	return snap
}

// FromSnapshot rebuilds a character from its persisted record at the wall
// clock.
func FromSnapshot(snap CharacterSnapshot) *Character {
	return FromSnapshotAt(snap, time.Now())
}

// FromSnapshotAt rebuilds a character from its persisted record, restarting
// each named effect's remaining duration at the given time. The derived
// cache is left dirty: callers MUST run a stat recompute before the
// character enters the simulation, which also re-clamps the restored
// resources to the recomputed maxima.
func FromSnapshotAt(snap CharacterSnapshot, now time.Time) *Character {
	c := &Character{
		id:              snap.ID,
		name:            snap.Name,
		class:           snap.Class,
		level:           max(snap.Level, 1),
		attrs:           snap.Attrs,
		life:            maxf(snap.Life, 0),
		mana:            maxf(snap.Mana, 0),
		baseResist:      snap.BaseResist,
		baseExtraDamage: snap.BaseExtraDamage,
		pos:             snap.Pos,
		dirty:           true,
	}
	c.effects.init()
	for name, item := range snap.Equipment {
		if slot, ok := ParseSlot(name); ok {
			c.equipment[slot] = item
		}
	}
	for _, es := range snap.Named {
		c.effects.AddNamed(&NamedEffect{
			Name:      es.Name,
			Debuff:    es.Debuff,
			Mods:      es.Mods,
			Duration:  es.Remaining,
			Started:   now,
			DotDamage: es.DotDamage,
			DotType:   es.DotType,
		})
	}
	return c
}
