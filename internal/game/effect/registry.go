// Package effect implements the status-effect ledger: a source-keyed
// record of every modifier applied to a character, supporting exact
// reversal and bulk removal, plus the named buff/debuff list with duration
// expiry and damage-over-time bookkeeping.
package effect

import (
	"github.com/skalder/emberfall/internal/model"
)

// Handler applies one effect kind to a character and later reverses the
// recorded application. Apply returns false (and mutates nothing) when the
// effect's target field is unknown.
type Handler interface {
	Apply(ch *model.Character, e model.Effect) bool
	Remove(ch *model.Character, rec model.AppliedEffect)
}

// Registry maps effect kinds to their handlers. It is explicitly
// constructed and passed into each Ledger — never a process-wide
// singleton — so parallel simulations cannot share mutable handler state.
type Registry struct {
	handlers map[model.EffectKind]Handler
}

// NewRegistry returns a registry with the built-in handlers installed.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[model.EffectKind]Handler)}
	r.Register(model.EffectAttribute, attributeHandler{})
	r.Register(model.EffectResistance, resistanceHandler{})
	r.Register(model.EffectDamage, damageHandler{})
	r.Register(model.EffectSpecial, specialHandler{})
	return r
}

// Register installs or replaces the handler for a kind.
func (r *Registry) Register(kind model.EffectKind, h Handler) {
	r.handlers[kind] = h
}

// Handler looks up the handler for a kind.
func (r *Registry) Handler(kind model.EffectKind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// attributeHandler shifts a base attribute by a flat delta. The shift is
// exactly reversible: Remove subtracts precisely what Apply added.
type attributeHandler struct{}

func (attributeHandler) Apply(ch *model.Character, e model.Effect) bool {
	return ch.AddBaseAttribute(e.Field, int(e.Value))
}

func (attributeHandler) Remove(ch *model.Character, rec model.AppliedEffect) {
	ch.AddBaseAttribute(rec.Field, -int(rec.Value))
}

// resistanceHandler shifts a live resistance base. Application caps the
// result at the resistance ceiling; reversal floors at 0 even when the
// apply never hit the cap. The asymmetry is intentional game-balance
// behaviour: stacking past the cap and then removing can land a character
// below its pre-buff baseline, which is the documented risk of stacking
// resistance modifiers.
type resistanceHandler struct{}

func (resistanceHandler) Apply(ch *model.Character, e model.Effect) bool {
	cur, ok := ch.BaseResistance(e.Field)
	if !ok {
		return false
	}
	next := cur + e.Value
	if next > model.ResistanceCap {
		next = model.ResistanceCap
	}
	return ch.SetBaseResistance(e.Field, next)
}

func (resistanceHandler) Remove(ch *model.Character, rec model.AppliedEffect) {
	cur, ok := ch.BaseResistance(rec.Field)
	if !ok {
		return
	}
	next := cur - rec.Value
	if next < 0 {
		next = 0
	}
	ch.SetBaseResistance(rec.Field, next)
}

// damageHandler shifts a live elemental bonus-damage base by a flat,
// exactly reversible delta.
type damageHandler struct{}

func (damageHandler) Apply(ch *model.Character, e model.Effect) bool {
	return ch.AddExtraDamage(e.Field, e.Value)
}

func (damageHandler) Remove(ch *model.Character, rec model.AppliedEffect) {
	ch.AddExtraDamage(rec.Field, -rec.Value)
}

// specialHandler toggles behavioural flags. Only the fields listed in the
// table are known; anything else fails soft.
type specialHandler struct{}

var specialFields = map[string]struct {
	apply  func(*model.Character)
	remove func(*model.Character)
}{
	"stun": {
		apply:  func(ch *model.Character) { ch.SetStunned(true) },
		remove: func(ch *model.Character) { ch.SetStunned(false) },
	},
}

func (specialHandler) Apply(ch *model.Character, e model.Effect) bool {
	f, ok := specialFields[e.Field]
	if !ok {
		return false
	}
	f.apply(ch)
	return true
}

func (specialHandler) Remove(ch *model.Character, rec model.AppliedEffect) {
	if f, ok := specialFields[rec.Field]; ok {
		f.remove(ch)
	}
}
