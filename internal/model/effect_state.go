package model

import (
	"sync"
	"time"
)

// EffectKind tags an effect record. The set is closed; the ledger registry
// rejects kinds it has no handler for.
type EffectKind string

const (
	EffectAttribute  EffectKind = "attributeModifier"
	EffectResistance EffectKind = "resistanceModifier"
	EffectDamage     EffectKind = "damageModifier"
	EffectSpecial    EffectKind = "specialEffect"
	EffectBuff       EffectKind = "buff"
	EffectDebuff     EffectKind = "debuff"
)

// Effect is a request to apply one modifier to a character. Field names the
// target attribute, resistance, element or special behaviour; unknown
// names fail soft at apply time.
type Effect struct {
	Kind  EffectKind `json:"kind"`
	Field string     `json:"field"`
	Value float64    `json:"value"`
}

// AppliedEffect is the ledger record of one applied modifier: exactly what
// was requested, stored under its source id so it can later be reversed
// without residual state.
type AppliedEffect struct {
	Kind  EffectKind `json:"kind"`
	Field string     `json:"field"`
	Value float64    `json:"value"`
}

// StatMod is one derived-stat modification inside a named buff or debuff.
// Multiplicative mods scale the stat, additive mods shift it; application
// order is insertion order and is numerically significant.
type StatMod struct {
	Stat  string  `json:"stat" yaml:"stat"`
	Value float64 `json:"value" yaml:"value"`
	Mul   bool    `json:"mul,omitempty" yaml:"mul,omitempty"`
}

// NamedEffect is a display-named buff or debuff. At most one entry with a
// given name is active per character; re-application replaces the entry
// and resets its start time rather than stacking.
type NamedEffect struct {
	Name     string        `json:"name"`
	Debuff   bool          `json:"debuff,omitempty"`
	Mods     []StatMod     `json:"mods,omitempty"`
	Duration time.Duration `json:"duration"` // 0 = permanent
	Started  time.Time     `json:"started"`

	// Damage-over-time payload. A zero DotDamage means no DoT. Ticks are
	// throttled by LastDot, not by a scheduler.
	DotDamage int        `json:"dotDamage,omitempty"`
	DotType   DamageType `json:"dotType,omitempty"`
	LastDot   time.Time  `json:"-"`
}

// Expired reports whether the effect's duration has elapsed at now.
// Permanent effects (duration 0) never expire.
func (n *NamedEffect) Expired(now time.Time) bool {
	return n.Duration > 0 && now.Sub(n.Started) >= n.Duration
}

// DotTick is one due damage-over-time application.
type DotTick struct {
	Source string
	Damage int
	Type   DamageType
}

// dotInterval is the minimum spacing between two DoT applications of the
// same entry.
const dotInterval = time.Second

// EffectState is the per-character effect bookkeeping: the source-keyed
// ledger buckets plus the ordered named buff/debuff list. It carries its
// own lock so the ledger can operate on it without holding the character's
// stat lock.
type EffectState struct {
	mu       sync.RWMutex
	bySource map[string][]AppliedEffect
	named    []*NamedEffect
}

func (s *EffectState) init() {
	s.bySource = make(map[string][]AppliedEffect)
}

// Record stores an applied effect under its source bucket.
func (s *EffectState) Record(sourceID string, rec AppliedEffect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bySource == nil {
		s.bySource = make(map[string][]AppliedEffect)
	}
	s.bySource[sourceID] = append(s.bySource[sourceID], rec)
}

// Unrecord removes and returns the first record in the source bucket
// matching kind and field. Returns false if no such record exists.
func (s *EffectState) Unrecord(sourceID string, kind EffectKind, field string) (AppliedEffect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.bySource[sourceID]
	for i, rec := range bucket {
		if rec.Kind == kind && rec.Field == field {
			s.bySource[sourceID] = append(bucket[:i], bucket[i+1:]...)
			if len(s.bySource[sourceID]) == 0 {
				delete(s.bySource, sourceID)
			}
			return rec, true
		}
	}
	return AppliedEffect{}, false
}

// DrainSource removes the whole bucket for sourceID and returns a snapshot
// of its records, so the caller can reverse them without iterating a live
// collection.
func (s *EffectState) DrainSource(sourceID string) []AppliedEffect {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.bySource[sourceID]
	if bucket == nil {
		return nil
	}
	out := make([]AppliedEffect, len(bucket))
	copy(out, bucket)
	delete(s.bySource, sourceID)
	return out
}

// SourceEffects returns a copy of the records for sourceID.
func (s *EffectState) SourceEffects(sourceID string) []AppliedEffect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.bySource[sourceID]
	if bucket == nil {
		return nil
	}
	out := make([]AppliedEffect, len(bucket))
	copy(out, bucket)
	return out
}

// Sources returns the ids of all sources with recorded effects.
func (s *EffectState) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.bySource))
	for id := range s.bySource {
		out = append(out, id)
	}
	return out
}

// AddNamed appends a named buff/debuff. If an entry with the same display
// name is already active it is replaced in place, which resets the start
// time; the replaced entry is returned so its modifiers can be unwound if
// they differ.
func (s *EffectState) AddNamed(ne *NamedEffect) (replaced *NamedEffect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.named {
		if existing.Name == ne.Name {
			s.named[i] = ne
			return existing
		}
	}
	s.named = append(s.named, ne)
	return nil
}

// RemoveNamed removes the entry with the given display name.
func (s *EffectState) RemoveNamed(name string) (*NamedEffect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.named {
		if existing.Name == name {
			s.named = append(s.named[:i], s.named[i+1:]...)
			return existing, true
		}
	}
	return nil, false
}

// Named returns the active named effects in insertion order. The slice is
// a copy; the entries are shared.
func (s *EffectState) Named() []*NamedEffect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*NamedEffect, len(s.named))
	copy(out, s.named)
	return out
}

// ExpireDue removes and returns every named effect whose duration has
// elapsed at now, preserving the order of the survivors.
func (s *EffectState) ExpireDue(now time.Time) []*NamedEffect {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []*NamedEffect
	n := 0
	for _, ne := range s.named {
		if ne.Expired(now) {
			expired = append(expired, ne)
		} else {
			s.named[n] = ne
			n++
		}
	}
	s.named = s.named[:n]
	return expired
}

// DueDots stamps and returns the DoT ticks that are due at now: named
// debuffs carrying dot damage whose last tick is at least dotInterval ago.
func (s *EffectState) DueDots(now time.Time) []DotTick {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []DotTick
	for _, ne := range s.named {
		if !ne.Debuff || ne.DotDamage <= 0 {
			continue
		}
		if ne.LastDot.IsZero() {
			// First tick fires one interval after application.
			ne.LastDot = ne.Started
			continue
		}
		if now.Sub(ne.LastDot) >= dotInterval {
			ne.LastDot = now
			due = append(due, DotTick{Source: ne.Name, Damage: ne.DotDamage, Type: ne.DotType})
		}
	}
	return due
}
