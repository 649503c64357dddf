package effect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skalder/emberfall/internal/model"
)

// countingSink records mitigation calls instead of dealing damage.
type countingSink struct {
	calls []model.DotTick
}

func (s *countingSink) ApplyDamage(target *model.Character, amount int, dtype model.DamageType) int {
	s.calls = append(s.calls, model.DotTick{Damage: amount, Type: dtype})
	return amount
}

func newTestCharacter() *model.Character {
	ch := model.NewCharacter("Vex", "adventurer", 1, model.Attributes{
		Strength: 10, Dexterity: 10, Vitality: 10, Energy: 10,
	})
	ch.SetDerived(model.Derived{MaxLife: 100, MaxMana: 50, CritDamage: 1.5, AttackSpeed: 1})
	ch.RestoreToFull()
	return ch
}

func TestAttributeEffectIsExactlyReversible(t *testing.T) {
	l := NewLedger(NewRegistry())
	ch := newTestCharacter()

	require.True(t, l.Apply(ch, model.Effect{Kind: model.EffectAttribute, Field: "strength", Value: 5}, "skill:war-cry"))
	v, _ := ch.BaseAttribute("strength")
	assert.Equal(t, 15, v)

	require.True(t, l.Remove(ch, model.Effect{Kind: model.EffectAttribute, Field: "strength", Value: 5}, "skill:war-cry"))
	v, _ = ch.BaseAttribute("strength")
	assert.Equal(t, 10, v)

	// The record is gone: a second removal is a miss, not a double revert.
	assert.False(t, l.Remove(ch, model.Effect{Kind: model.EffectAttribute, Field: "strength", Value: 5}, "skill:war-cry"))
	v, _ = ch.BaseAttribute("strength")
	assert.Equal(t, 10, v)
}

func TestResistanceCapFloorAsymmetry(t *testing.T) {
	l := NewLedger(NewRegistry())
	ch := newTestCharacter()

	// Two +50 fire buffs: the first lands at 50, the second caps at 75.
	require.True(t, l.Apply(ch, model.Effect{Kind: model.EffectResistance, Field: "fire", Value: 50}, "totem-a"))
	fire, _ := ch.BaseResistance("fire")
	assert.Equal(t, 50.0, fire)

	require.True(t, l.Apply(ch, model.Effect{Kind: model.EffectResistance, Field: "fire", Value: 50}, "totem-b"))
	fire, _ = ch.BaseResistance("fire")
	assert.Equal(t, model.ResistanceCap, fire)

	// Removal subtracts the full recorded value: 75 − 50 = 25, below the
	// 50 the character had before the second buff. Stacking past the cap
	// and unwinding loses the overflow.
	require.True(t, l.Remove(ch, model.Effect{Kind: model.EffectResistance, Field: "fire", Value: 50}, "totem-b"))
	fire, _ = ch.BaseResistance("fire")
	assert.Equal(t, 25.0, fire)

	// The second removal floors at 0 rather than going negative.
	require.True(t, l.Remove(ch, model.Effect{Kind: model.EffectResistance, Field: "fire", Value: 50}, "totem-a"))
	fire, _ = ch.BaseResistance("fire")
	assert.Equal(t, 0.0, fire)
}

func TestDamageModifierReversible(t *testing.T) {
	l := NewLedger(NewRegistry())
	ch := newTestCharacter()

	require.True(t, l.Apply(ch, model.Effect{Kind: model.EffectDamage, Field: "cold", Value: 7}, "enchant"))
	v, _ := ch.ExtraDamage("cold")
	assert.Equal(t, 7.0, v)

	l.Remove(ch, model.Effect{Kind: model.EffectDamage, Field: "cold", Value: 7}, "enchant")
	v, _ = ch.ExtraDamage("cold")
	assert.Equal(t, 0.0, v)
}

func TestStunSpecialEffect(t *testing.T) {
	l := NewLedger(NewRegistry())
	ch := newTestCharacter()

	require.True(t, l.Apply(ch, model.Effect{Kind: model.EffectSpecial, Field: "stun", Value: 1}, "skill:bash"))
	assert.True(t, ch.IsStunned())

	l.Remove(ch, model.Effect{Kind: model.EffectSpecial, Field: "stun", Value: 1}, "skill:bash")
	assert.False(t, ch.IsStunned())
}

func TestApplyUnknownKindOrFieldFailsSoft(t *testing.T) {
	l := NewLedger(NewRegistry())
	ch := newTestCharacter()

	assert.False(t, l.Apply(ch, model.Effect{Kind: "polymorph", Field: "shape", Value: 1}, "src"))
	assert.False(t, l.Apply(ch, model.Effect{Kind: model.EffectAttribute, Field: "luck", Value: 5}, "src"))
	assert.False(t, l.Apply(ch, model.Effect{Kind: model.EffectResistance, Field: "arcane", Value: 5}, "src"))
	assert.False(t, l.Apply(ch, model.Effect{Kind: model.EffectSpecial, Field: "root", Value: 1}, "src"))

	// Nothing was recorded for the failed applications.
	assert.Empty(t, ch.Effects().Sources())
}

func TestRemoveAllFromSource(t *testing.T) {
	l := NewLedger(NewRegistry())
	ch := newTestCharacter()

	l.Apply(ch, model.Effect{Kind: model.EffectAttribute, Field: "strength", Value: 3}, "aura")
	l.Apply(ch, model.Effect{Kind: model.EffectAttribute, Field: "vitality", Value: 2}, "aura")
	l.Apply(ch, model.Effect{Kind: model.EffectResistance, Field: "poison", Value: 20}, "aura")
	l.Apply(ch, model.Effect{Kind: model.EffectAttribute, Field: "strength", Value: 9}, "other")

	l.RemoveAllFromSource(ch, "aura")

	str, _ := ch.BaseAttribute("strength")
	assert.Equal(t, 19, str, "the other source's modifier survives")
	vit, _ := ch.BaseAttribute("vitality")
	assert.Equal(t, 10, vit, "every aura modifier is reversed to baseline")
	poison, _ := ch.BaseResistance("poison")
	assert.Equal(t, 0.0, poison)
	assert.Equal(t, []string{"other"}, ch.Effects().Sources())
}

func TestApplyNamedReplacesAndMarksDirty(t *testing.T) {
	l := NewLedger(NewRegistry())
	base := time.Unix(1000, 0)
	l.SetClock(func() time.Time { return base })
	ch := newTestCharacter()
	require.False(t, ch.Dirty())

	l.ApplyNamed(ch, &model.NamedEffect{Name: "Haste", Duration: 10 * time.Second})
	assert.True(t, ch.Dirty())

	l.SetClock(func() time.Time { return base.Add(8 * time.Second) })
	l.ApplyNamed(ch, &model.NamedEffect{Name: "Haste", Duration: 10 * time.Second})

	named := ch.Effects().Named()
	require.Len(t, named, 1, "re-application replaces, never stacks")
	assert.Equal(t, base.Add(8*time.Second), named[0].Started,
		"refresh resets the start time")
}

func TestTickExpiresAndMarksDirty(t *testing.T) {
	l := NewLedger(NewRegistry())
	base := time.Unix(1000, 0)
	l.SetClock(func() time.Time { return base })
	ch := newTestCharacter()

	l.ApplyNamed(ch, &model.NamedEffect{Name: "Short Blessing", Duration: 2 * time.Second})
	ch.SetDerived(ch.Derived()) // simulate the recompute clearing the flag

	assert.False(t, l.Tick(ch, base.Add(time.Second), nil))
	assert.False(t, ch.Dirty())

	assert.True(t, l.Tick(ch, base.Add(3*time.Second), nil))
	assert.True(t, ch.Dirty())
	assert.Empty(t, ch.Effects().Named())
}

func TestTickDotsThrottledToInterval(t *testing.T) {
	l := NewLedger(NewRegistry())
	base := time.Unix(1000, 0)
	l.SetClock(func() time.Time { return base })
	ch := newTestCharacter()
	sink := &countingSink{}

	l.ApplyNamed(ch, &model.NamedEffect{
		Name:      "Venom",
		Debuff:    true,
		DotDamage: 4,
		DotType:   model.DamagePoison,
		Duration:  10 * time.Second,
	})

	// Sub-second ticks after application: the throttle holds.
	l.Tick(ch, base.Add(100*time.Millisecond), sink)
	l.Tick(ch, base.Add(500*time.Millisecond), sink)
	assert.Empty(t, sink.calls)

	l.Tick(ch, base.Add(1100*time.Millisecond), sink)
	require.Len(t, sink.calls, 1)
	assert.Equal(t, 4, sink.calls[0].Damage)
	assert.Equal(t, model.DamagePoison, sink.calls[0].Type)

	// The next tick inside the interval deals nothing.
	l.Tick(ch, base.Add(1500*time.Millisecond), sink)
	assert.Len(t, sink.calls, 1)

	l.Tick(ch, base.Add(2200*time.Millisecond), sink)
	assert.Len(t, sink.calls, 2)
}

func TestTickSkipsDotsOnDead(t *testing.T) {
	l := NewLedger(NewRegistry())
	base := time.Unix(1000, 0)
	l.SetClock(func() time.Time { return base })
	ch := newTestCharacter()
	sink := &countingSink{}

	l.ApplyNamed(ch, &model.NamedEffect{
		Name: "Venom", Debuff: true, DotDamage: 4,
		DotType: model.DamagePoison, Duration: time.Minute,
	})
	l.Tick(ch, base.Add(time.Millisecond), sink) // stamps the throttle
	ch.Die()

	l.Tick(ch, base.Add(2*time.Second), sink)
	assert.Empty(t, sink.calls)
}
