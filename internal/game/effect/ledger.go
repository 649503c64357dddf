package effect

import (
	"log/slog"
	"time"

	"github.com/skalder/emberfall/internal/model"
)

// DamageSink is the mitigation path damage-over-time ticks are pushed
// through, so DoT respects the target's resistances exactly like a direct
// hit. The combat resolver implements it.
type DamageSink interface {
	ApplyDamage(target *model.Character, amount int, dtype model.DamageType) int
}

// Ledger applies and reverses typed effect records on characters, keyed by
// source id, and drives the named buff/debuff lifecycle. All failures are
// soft: an unknown kind or field is logged and reported as false, never an
// error, because effect application sits on the per-frame path.
type Ledger struct {
	reg *Registry
	now func() time.Time
	log *slog.Logger
}

// NewLedger builds a ledger over the given handler registry.
func NewLedger(reg *Registry) *Ledger {
	return &Ledger{
		reg: reg,
		now: time.Now,
		log: slog.Default(),
	}
}

// SetClock replaces the ledger's time source (tests).
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// Apply dispatches the effect to its kind handler, and on success records
// it under the source bucket for later exact reversal. Returns false when
// the kind has no handler or the handler rejects the target field; nothing
// is mutated and nothing is recorded in that case.
func (l *Ledger) Apply(ch *model.Character, e model.Effect, sourceID string) bool {
	h, ok := l.reg.Handler(e.Kind)
	if !ok {
		l.log.Warn("effect kind has no handler",
			"kind", e.Kind,
			"source", sourceID,
			"target", ch.Name())
		return false
	}
	if !h.Apply(ch, e) {
		l.log.Warn("effect rejected unknown field",
			"kind", e.Kind,
			"field", e.Field,
			"source", sourceID,
			"target", ch.Name())
		return false
	}
	ch.Effects().Record(sourceID, model.AppliedEffect(e))
	return true
}

// Remove reverses one recorded application of the effect from the given
// source. A miss (never applied, or already removed) is a no-op.
func (l *Ledger) Remove(ch *model.Character, e model.Effect, sourceID string) bool {
	rec, ok := ch.Effects().Unrecord(sourceID, e.Kind, e.Field)
	if !ok {
		return false
	}
	if h, ok := l.reg.Handler(rec.Kind); ok {
		h.Remove(ch, rec)
	}
	return true
}

// RemoveAllFromSource reverses every effect recorded under sourceID and
// deletes the bucket. It works on a drained snapshot, never the live
// collection, so handlers that touch the ledger cannot corrupt iteration.
func (l *Ledger) RemoveAllFromSource(ch *model.Character, sourceID string) {
	for _, rec := range ch.Effects().DrainSource(sourceID) {
		if h, ok := l.reg.Handler(rec.Kind); ok {
			h.Remove(ch, rec)
		}
	}
}

// ApplyNamed activates a display-named buff or debuff. Re-applying a name
// already active replaces the entry and resets its start time instead of
// stacking. Marks the derived cache dirty so the next recompute folds the
// new modifier list in.
func (l *Ledger) ApplyNamed(ch *model.Character, ne *model.NamedEffect) {
	ne.Started = l.now()
	if replaced := ch.Effects().AddNamed(ne); replaced != nil {
		l.log.Debug("named effect refreshed",
			"name", ne.Name,
			"target", ch.Name())
	}
	ch.MarkDirty()
}

// RemoveNamed deactivates the named effect, if active.
func (l *Ledger) RemoveNamed(ch *model.Character, name string) bool {
	if _, ok := ch.Effects().RemoveNamed(name); !ok {
		return false
	}
	ch.MarkDirty()
	return true
}

// Tick advances the named-effect bookkeeping for one simulation tick:
// expires entries whose duration elapsed and pushes due damage-over-time
// ticks through the mitigation sink. Returns true when anything expired,
// meaning the caller must recompute derived stats before reading them.
func (l *Ledger) Tick(ch *model.Character, now time.Time, sink DamageSink) bool {
	expired := ch.Effects().ExpireDue(now)
	for _, ne := range expired {
		l.log.Debug("named effect expired",
			"name", ne.Name,
			"target", ch.Name())
	}
	if len(expired) > 0 {
		ch.MarkDirty()
	}

	if sink != nil && !ch.IsDead() {
		for _, tick := range ch.Effects().DueDots(now) {
			dealt := sink.ApplyDamage(ch, tick.Damage, tick.Type)
			l.log.Debug("dot tick",
				"effect", tick.Source,
				"damage", dealt,
				"target", ch.Name())
		}
	}

	return len(expired) > 0
}
