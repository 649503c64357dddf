package model

// Bonus accumulates equipment contributions for one recompute pass.
// A fresh value must be produced for every fold: NewBonus seeds the
// non-zero baselines (crit, regen) so stale bonuses can never compound.
type Bonus struct {
	Attack      float64
	Defence     float64
	Accuracy    float64
	CritRate    float64
	CritDamage  float64
	AttackSpeed float64 // percent, final multiplier is 1 + AttackSpeed/100
	MoveSpeed   float64 // percent, final multiplier is base × (1 + MoveSpeed/100)
	FlatLife    float64
	FlatMana    float64
	LifeLeech   float64 // percent of damage dealt
	ManaLeech   float64
	LifeRegen   float64 // fraction of max per second
	ManaRegen   float64
	BlockRate   float64

	Resist       [NumDamageTypes]float64
	ExtraDamage  [NumDamageTypes]float64
	WeaponRanged bool
	HasWeapon    bool
	HasShield    bool
}

// NewBonus returns the accumulator baseline: every character crits 5% of
// the time for ×1.5 damage and trickle-regenerates 1%/s of each resource
// before any equipment is counted.
func NewBonus() Bonus {
	return Bonus{
		CritRate:   5,
		CritDamage: 1.5,
		LifeRegen:  0.01,
		ManaRegen:  0.01,
	}
}

// optionFields dispatches an option type to the accumulator field it feeds.
// Unknown types have no entry and are silently skipped; new affixes are
// added here and nowhere else.
var optionFields = map[OptionType]func(*Bonus, float64){
	OptionAttack:         func(b *Bonus, v float64) { b.Attack += v },
	OptionDefence:        func(b *Bonus, v float64) { b.Defence += v },
	OptionAccuracy:       func(b *Bonus, v float64) { b.Accuracy += v },
	OptionCritRate:       func(b *Bonus, v float64) { b.CritRate += v },
	OptionCritDamage:     func(b *Bonus, v float64) { b.CritDamage += v },
	OptionAttackSpeed:    func(b *Bonus, v float64) { b.AttackSpeed += v },
	OptionMoveSpeed:      func(b *Bonus, v float64) { b.MoveSpeed += v },
	OptionFlatLife:       func(b *Bonus, v float64) { b.FlatLife += v },
	OptionFlatMana:       func(b *Bonus, v float64) { b.FlatMana += v },
	OptionLifeLeech:      func(b *Bonus, v float64) { b.LifeLeech += v },
	OptionManaLeech:      func(b *Bonus, v float64) { b.ManaLeech += v },
	OptionLifeRegen:      func(b *Bonus, v float64) { b.LifeRegen += v },
	OptionManaRegen:      func(b *Bonus, v float64) { b.ManaRegen += v },
	OptionBlockRate:      func(b *Bonus, v float64) { b.BlockRate += v },
	OptionPoisonResist:   func(b *Bonus, v float64) { b.Resist[DamagePoison] += v },
	OptionFireResist:     func(b *Bonus, v float64) { b.Resist[DamageFire] += v },
	OptionColdResist:     func(b *Bonus, v float64) { b.Resist[DamageCold] += v },
	OptionElectricResist: func(b *Bonus, v float64) { b.Resist[DamageElectric] += v },
	OptionPhysicalResist: func(b *Bonus, v float64) { b.Resist[DamagePhysical] += v },
	OptionPoisonDamage:   func(b *Bonus, v float64) { b.ExtraDamage[DamagePoison] += v },
	OptionFireDamage:     func(b *Bonus, v float64) { b.ExtraDamage[DamageFire] += v },
	OptionColdDamage:     func(b *Bonus, v float64) { b.ExtraDamage[DamageCold] += v },
	OptionElectricDamage: func(b *Bonus, v float64) { b.ExtraDamage[DamageElectric] += v },
}

// ApplyOption folds one option-performance affix into the accumulator.
// Returns false when the option type is unknown (skipped, not an error).
func (b *Bonus) ApplyOption(opt Option) bool {
	apply, ok := optionFields[opt.Type]
	if !ok {
		return false
	}
	apply(b, opt.Value)
	return true
}

// ApplyItem folds one equipped item: its basic-performance value goes to
// attack (weapons) or defence (everything else that carries one), then all
// option affixes are dispatched.
//
// This is the single authoritative accumulation point for equipment
// basic-performance. The attribute derivations in attributes.go work from
// base attributes alone, so an item's basic value is counted exactly once.
func (b *Bonus) ApplyItem(slot Slot, item *Equipment) {
	if item == nil {
		return
	}
	switch item.Category {
	case CategoryWeapon:
		b.Attack += item.Basic
		b.HasWeapon = true
		b.WeaponRanged = item.Ranged
	case CategoryArmor, CategoryShield:
		b.Defence += item.Basic
		if item.Category == CategoryShield && slot == SlotHandLeft {
			b.HasShield = true
		}
	case CategoryJewelry:
		// Jewelry carries no basic-performance value, options only.
	}
	for _, opt := range item.Options {
		b.ApplyOption(opt)
	}
}
