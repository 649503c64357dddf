package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/skalder/emberfall/internal/data"
	"github.com/skalder/emberfall/internal/model"
)

func newTestRecalc(t *testing.T) *Recalculator {
	t.Helper()
	tables, err := data.Load()
	require.NoError(t, err)
	return NewRecalculator(tables)
}

func newTestCharacter() *model.Character {
	return model.NewCharacter("Vex", "adventurer", 1, model.Attributes{
		Strength:  10,
		Dexterity: 20,
		Vitality:  10,
		Energy:    5,
	})
}

func TestBaseDerivation(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()

	d := r.Recompute(ch)

	// adventurer: base_hp 50, base_mana 30, base_ar 0, base_attack 10.
	assert.Equal(t, 81.0, d.MaxLife)  // 50 + 1 + 10×3
	assert.Equal(t, 46.0, d.MaxMana)  // 30 + 1 + 5×3
	assert.Equal(t, 65.0, d.FinalAccuracy) // 20×5 − 35
	assert.Equal(t, 10.0, d.FinalAttack)
	assert.Equal(t, 5.0, d.FinalDefence)
	assert.Equal(t, 5.0, d.CritRate)
	assert.Equal(t, 1.5, d.CritDamage)
	assert.Equal(t, 1.0, d.AttackSpeed)
	assert.Equal(t, 4.0, d.MoveSpeed)
	assert.Equal(t, meleeAttackRange, d.AttackRange)
	assert.False(t, ch.Dirty())
}

func TestEquipmentBasicCountedExactlyOnce(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()
	ch.Equip(model.SlotHandRight, &model.Equipment{
		Name:     "Steel Sword",
		Category: model.CategoryWeapon,
		Basic:    7,
	})

	d := r.Recompute(ch)

	// Basic-performance lands in the final stat, never in the attribute
	// derivation: the weapon shifts FinalAttack by its basic value and
	// nothing else.
	assert.Equal(t, 10.0, d.BasicAttack)
	assert.Equal(t, 17.0, d.FinalAttack)
	assert.True(t, d.HasWeapon)
	assert.False(t, d.WeaponRanged)
	assert.Equal(t, meleeAttackRange, d.AttackRange)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()
	ch.Equip(model.SlotHandRight, &model.Equipment{
		Name:     "Steel Sword",
		Category: model.CategoryWeapon,
		Basic:    7,
		Options:  []model.Option{{Type: model.OptionCritRate, Value: 2}},
	})
	ch.Equip(model.SlotBody, &model.Equipment{
		Name:     "Padded Vest",
		Category: model.CategoryArmor,
		Basic:    4,
		Options:  []model.Option{{Type: model.OptionFlatLife, Value: 20}},
	})

	first := r.Recompute(ch)
	second := r.Recompute(ch)
	assert.Equal(t, first, second,
		"back-to-back recomputes with no mutation must agree")
}

func TestRangedWeaponExtendsAttackRange(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()
	ch.Equip(model.SlotHandRight, &model.Equipment{
		Name:     "Hunting Bow",
		Category: model.CategoryWeapon,
		Basic:    5,
		Ranged:   true,
	})

	d := r.Recompute(ch)
	assert.True(t, d.WeaponRanged)
	assert.Equal(t, rangedAttackRange, d.AttackRange)
}

func TestBuffModifierInsertionOrder(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()
	now := time.Now()

	// Additive first, multiplicative second: (10 + 10) × 2, not 10×2 + 10.
	ch.Effects().AddNamed(&model.NamedEffect{
		Name:    "Might",
		Mods:    []model.StatMod{{Stat: "attack", Value: 10}},
		Started: now,
	})
	ch.Effects().AddNamed(&model.NamedEffect{
		Name:    "Frenzy",
		Mods:    []model.StatMod{{Stat: "attack", Value: 2, Mul: true}},
		Started: now,
	})

	d := r.Recompute(ch)
	assert.Equal(t, 40.0, d.FinalAttack)
}

func TestBuffsApplyBeforeDebuffs(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()
	now := time.Now()

	// Debuff inserted first, but the buff pass runs ahead of it:
	// 10 × 2 − 5 = 15, not (10 − 5) × 2 = 10.
	ch.Effects().AddNamed(&model.NamedEffect{
		Name:    "Weakness",
		Debuff:  true,
		Mods:    []model.StatMod{{Stat: "attack", Value: -5}},
		Started: now,
	})
	ch.Effects().AddNamed(&model.NamedEffect{
		Name:    "Frenzy",
		Mods:    []model.StatMod{{Stat: "attack", Value: 2, Mul: true}},
		Started: now,
	})

	d := r.Recompute(ch)
	assert.Equal(t, 15.0, d.FinalAttack)
}

func TestResistanceCappedNoFloor(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()
	ch.SetBaseResistance("fire", 60)
	ch.Equip(model.SlotRingLeft, &model.Equipment{
		Name:     "Ember Ring",
		Category: model.CategoryJewelry,
		Options:  []model.Option{{Type: model.OptionFireResist, Value: 30}},
	})
	ch.Effects().AddNamed(&model.NamedEffect{
		Name:    "Brittle Frost",
		Debuff:  true,
		Mods:    []model.StatMod{{Stat: "coldResist", Value: -50}},
		Started: time.Now(),
	})

	d := r.Recompute(ch)
	assert.Equal(t, model.ResistanceCap, d.Resist[model.DamageFire],
		"resistances clamp at the cap")
	assert.Equal(t, -50.0, d.Resist[model.DamageCold],
		"debuffs may push a resistance negative, there is no floor")
}

func TestFlatLifeExtendsMaxAndClampsCurrent(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()
	belt := &model.Equipment{
		Name:     "Girdle of Vigor",
		Category: model.CategoryArmor,
		Options:  []model.Option{{Type: model.OptionFlatLife, Value: 40}},
	}
	ch.Equip(model.SlotBelt, belt)

	d := r.Recompute(ch)
	assert.Equal(t, 121.0, d.MaxLife) // 81 + 40
	ch.RestoreToFull()
	require.Equal(t, 121.0, ch.Life())

	// Removing the item shrinks the cap and drags current life with it.
	ch.Unequip(model.SlotBelt)
	d = r.Recompute(ch)
	assert.Equal(t, 81.0, d.MaxLife)
	assert.Equal(t, 81.0, ch.Life())
}

func TestMaxLifeNeverBelowOne(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()
	ch.Effects().AddNamed(&model.NamedEffect{
		Name:    "Wasting Curse",
		Debuff:  true,
		Mods:    []model.StatMod{{Stat: "maxLife", Value: -10000}},
		Started: time.Now(),
	})

	d := r.Recompute(ch)
	assert.Equal(t, 1.0, d.MaxLife)
}

func TestAttackSpeedFloorAndMoveSpeedScaling(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()
	now := time.Now()
	ch.Effects().AddNamed(&model.NamedEffect{
		Name:    "Glacial Shackles",
		Debuff:  true,
		Mods:    []model.StatMod{{Stat: "attackSpeed", Value: -500}},
		Started: now,
	})
	ch.Effects().AddNamed(&model.NamedEffect{
		Name:    "Fleet Foot",
		Mods:    []model.StatMod{{Stat: "moveSpeed", Value: 25}},
		Started: now,
	})

	d := r.Recompute(ch)
	assert.Equal(t, 0.1, d.AttackSpeed)
	assert.Equal(t, 5.0, d.MoveSpeed) // 4.0 × 1.25
}

func TestUnknownStatModSkipped(t *testing.T) {
	r := newTestRecalc(t)
	ch := newTestCharacter()
	ch.Effects().AddNamed(&model.NamedEffect{
		Name: "Glitch",
		Mods: []model.StatMod{
			{Stat: "teleportRange", Value: 99},
			{Stat: "attack", Value: 5},
		},
		Started: time.Now(),
	})

	d := r.Recompute(ch)
	assert.Equal(t, 15.0, d.FinalAttack,
		"known mods in the same effect still apply")
}

func TestRecomputePropertyResistancesNeverExceedCap(t *testing.T) {
	tables, err := data.Load()
	require.NoError(t, err)
	r := NewRecalculator(tables)

	rapid.Check(t, func(t *rapid.T) {
		ch := model.NewCharacter("Prop", "warrior",
			rapid.IntRange(1, 60).Draw(t, "level"),
			model.Attributes{
				Strength:  rapid.IntRange(1, 100).Draw(t, "str"),
				Dexterity: rapid.IntRange(1, 100).Draw(t, "dex"),
				Vitality:  rapid.IntRange(1, 100).Draw(t, "vit"),
				Energy:    rapid.IntRange(1, 100).Draw(t, "nrg"),
			})
		ch.SetBaseResistance("fire", rapid.Float64Range(-100, 200).Draw(t, "baseFire"))
		ch.Effects().AddNamed(&model.NamedEffect{
			Name: "Prop Buff",
			Mods: []model.StatMod{
				{Stat: "fireResist", Value: rapid.Float64Range(-200, 200).Draw(t, "modFire")},
			},
			Started: time.Now(),
		})

		d := r.Recompute(ch)
		for i := 0; i < model.NumDamageTypes; i++ {
			if d.Resist[i] > model.ResistanceCap {
				t.Fatalf("resistance %d above cap: %v", i, d.Resist[i])
			}
		}
		if d.MaxLife < 1 {
			t.Fatalf("max life below 1: %v", d.MaxLife)
		}
		if d.AttackSpeed < 0.1 {
			t.Fatalf("attack speed below floor: %v", d.AttackSpeed)
		}
	})
}

func TestRecomputePropertyIdempotent(t *testing.T) {
	tables, err := data.Load()
	require.NoError(t, err)
	r := NewRecalculator(tables)

	rapid.Check(t, func(t *rapid.T) {
		ch := model.NewCharacter("Prop", "ranger",
			rapid.IntRange(1, 60).Draw(t, "level"),
			model.Attributes{
				Strength:  rapid.IntRange(1, 100).Draw(t, "str"),
				Dexterity: rapid.IntRange(1, 100).Draw(t, "dex"),
				Vitality:  rapid.IntRange(1, 100).Draw(t, "vit"),
				Energy:    rapid.IntRange(1, 100).Draw(t, "nrg"),
			})
		if rapid.Bool().Draw(t, "armed") {
			ch.Equip(model.SlotHandRight, &model.Equipment{
				Name:     "Prop Blade",
				Category: model.CategoryWeapon,
				Basic:    rapid.Float64Range(0, 50).Draw(t, "basic"),
				Ranged:   rapid.Bool().Draw(t, "ranged"),
			})
		}

		first := r.Recompute(ch)
		second := r.Recompute(ch)
		if first != second {
			t.Fatalf("recompute not idempotent:\nfirst  %+v\nsecond %+v", first, second)
		}
	})
}
