// Package sim owns the per-tick pipeline. Within one tick each character
// is processed to completion — effect expiry, stat recompute, regen, then
// its queued actions — before the next character, so combat never reads a
// half-updated stat sheet. All engine mutation happens on the single tick
// goroutine; characters are privately owned by their world.
package sim

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skalder/emberfall/internal/data"
	"github.com/skalder/emberfall/internal/game/combat"
	"github.com/skalder/emberfall/internal/game/effect"
	"github.com/skalder/emberfall/internal/game/stats"
	"github.com/skalder/emberfall/internal/model"
)

// DefaultCorpseDelay is how long a dead character lingers before the world
// removes it, giving external collaborators (loot, experience) time to
// react to the death notification.
const DefaultCorpseDelay = 5 * time.Second

// attackIntent is one queued attack order, re-validated at execution time:
// a stale intent (dead target, out of range, cooldown) self-invalidates
// inside the resolver.
type attackIntent struct {
	target uuid.UUID
}

// World drives a set of characters through the simulation pipeline.
type World struct {
	tables   *data.Tables
	recalc   *stats.Recalculator
	ledger   *effect.Ledger
	resolver *combat.Resolver

	now         func() time.Time
	tick        time.Duration
	corpseDelay time.Duration
	log         *slog.Logger

	// mu guards the roster and intent queue: ticks mutate them on the
	// loop goroutine, while spawn/queue/snapshot callers may come from
	// outside it.
	mu      sync.Mutex
	order   []*model.Character
	byID    map[uuid.UUID]*model.Character
	intents map[uuid.UUID][]attackIntent
	diedAt  map[uuid.UUID]time.Time
}

// Config carries the world's tuning knobs.
type Config struct {
	TickInterval time.Duration
	CorpseDelay  time.Duration
	TileSize     float64
	Seed         uint64
}

// NewWorld wires a world from explicitly constructed collaborators: the
// balance tables and the effect-handler registry are passed in, never
// shared process-wide.
func NewWorld(cfg Config, tables *data.Tables, reg *effect.Registry) *World {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	if cfg.CorpseDelay <= 0 {
		cfg.CorpseDelay = DefaultCorpseDelay
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	resolver := combat.NewResolver(rng)
	if cfg.TileSize > 0 {
		resolver.SetTileSize(cfg.TileSize)
	}

	w := &World{
		tables:      tables,
		recalc:      stats.NewRecalculator(tables),
		ledger:      effect.NewLedger(reg),
		resolver:    resolver,
		now:         time.Now,
		tick:        cfg.TickInterval,
		corpseDelay: cfg.CorpseDelay,
		log:         slog.Default(),
		byID:        make(map[uuid.UUID]*model.Character),
		intents:     make(map[uuid.UUID][]attackIntent),
		diedAt:      make(map[uuid.UUID]time.Time),
	}
	resolver.OnDeath(w.noteDeath)
	return w
}

// SetClock replaces the world's time source and propagates it to the
// ledger and resolver (tests).
func (w *World) SetClock(now func() time.Time) {
	w.now = now
	w.ledger.SetClock(now)
	w.resolver.SetClock(now)
}

// Ledger exposes the effect ledger for skill/equipment collaborators.
func (w *World) Ledger() *effect.Ledger { return w.ledger }

// Resolver exposes the combat resolver.
func (w *World) Resolver() *combat.Resolver { return w.resolver }

// Recalculator exposes the stat recalculator.
func (w *World) Recalculator() *stats.Recalculator { return w.recalc }

// OnDeath registers an external death listener (loot, experience awards).
func (w *World) OnDeath(fn func(victim, killer *model.Character)) {
	w.resolver.OnDeath(fn)
}

// Spawn creates a character, runs its first recompute and fills its
// resources.
func (w *World) Spawn(name, class string, level int, attrs model.Attributes) *model.Character {
	ch := model.NewCharacter(name, class, level, attrs)
	w.recalc.Recompute(ch)
	ch.RestoreToFull()
	w.add(ch)
	w.log.Info("character spawned",
		"id", ch.ID(),
		"name", name,
		"class", class,
		"level", level)
	return ch
}

// Restore places a snapshot-rebuilt character into the world, restarting
// effect durations on the world clock. The recompute runs before the
// character is visible, so derived stats never come from persisted data.
func (w *World) Restore(snap model.CharacterSnapshot) *model.Character {
	ch := model.FromSnapshotAt(snap, w.now())
	w.recalc.Recompute(ch)
	w.add(ch)
	return ch
}

func (w *World) add(ch *model.Character) {
	w.mu.Lock()
	w.order = append(w.order, ch)
	w.byID[ch.ID()] = ch
	w.mu.Unlock()
}

// Character looks up a live character by id.
func (w *World) Character(id uuid.UUID) (*model.Character, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, ok := w.byID[id]
	return ch, ok
}

// Characters returns the live characters in processing order.
func (w *World) Characters() []*model.Character {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*model.Character, len(w.order))
	copy(out, w.order)
	return out
}

// QueueAttack orders attacker to swing at target on its next pipeline
// slot. Returns false if either id is unknown.
func (w *World) QueueAttack(attacker, target uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byID[attacker]; !ok {
		return false
	}
	if _, ok := w.byID[target]; !ok {
		return false
	}
	w.intents[attacker] = append(w.intents[attacker], attackIntent{target: target})
	return true
}

// TickOnce advances the whole world by one tick at the given time.
func (w *World) TickOnce(now time.Time) {
	for _, ch := range w.Characters() {
		w.tickCharacter(ch, now)
	}
	w.cull(now)
}

// tickCharacter runs one character's full pipeline in order: effect
// expiry and DoT, recompute if anything is stale, regen, queued actions.
func (w *World) tickCharacter(ch *model.Character, now time.Time) {
	if ch.IsDead() {
		return
	}

	w.ledger.Tick(ch, now, w.resolver)
	if ch.IsDead() { // a DoT tick may have been lethal
		return
	}

	if ch.Dirty() {
		w.recalc.Recompute(ch)
	}

	w.regen(ch)

	w.mu.Lock()
	intents := w.intents[ch.ID()]
	delete(w.intents, ch.ID())
	w.mu.Unlock()
	for _, intent := range intents {
		target, ok := w.Character(intent.target)
		if !ok {
			continue
		}
		w.resolver.ResolveAttack(ch, target)
	}
}

// regen applies per-tick regeneration: the regen rates are fractions of
// the respective maximum per second.
func (w *World) regen(ch *model.Character) {
	d := ch.Derived()
	dt := w.tick.Seconds()
	if d.LifeRegen > 0 {
		ch.AddLife(d.LifeRegen * d.MaxLife * dt)
	}
	if d.ManaRegen > 0 {
		ch.AddMana(d.ManaRegen * d.MaxMana * dt)
	}
}

// noteDeath records the death time so the corpse can be culled after the
// lingering delay.
func (w *World) noteDeath(victim, killer *model.Character) {
	w.mu.Lock()
	w.diedAt[victim.ID()] = w.now()
	w.mu.Unlock()
}

// cull removes characters whose corpse delay has elapsed. Death is
// terminal: there is no resurrection path in this engine.
func (w *World) cull(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, at := range w.diedAt {
		if now.Sub(at) < w.corpseDelay {
			continue
		}
		delete(w.diedAt, id)
		delete(w.byID, id)
		delete(w.intents, id)
		for i, ch := range w.order {
			if ch.ID() == id {
				w.order = append(w.order[:i], w.order[i+1:]...)
				break
			}
		}
		w.log.Debug("corpse removed", "id", id)
	}
}

// Run drives TickOnce on the configured interval until ctx is cancelled.
func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()
	w.log.Info("simulation loop started", "tick", w.tick)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("simulation loop stopped")
			return ctx.Err()
		case <-ticker.C:
			w.TickOnce(w.now())
		}
	}
}
