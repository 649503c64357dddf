package model

// Derived is the recomputed stat cache published after every recalculation
// pass. It is always overwritten wholesale; nothing mutates single fields
// in place.
type Derived struct {
	MaxLife float64
	MaxMana float64

	BasicAttack   float64
	BasicDefence  float64
	BasicAccuracy float64

	FinalAttack   float64
	FinalDefence  float64
	FinalAccuracy float64

	CritRate   float64
	CritDamage float64

	AttackSpeed float64 // attacks per second multiplier, 1.0 = base
	MoveSpeed   float64 // world units per second
	BlockRate   float64

	LifeRegen float64 // fraction of max life per second
	ManaRegen float64

	LifeLeech float64 // percent of damage dealt
	ManaLeech float64

	Resist      [NumDamageTypes]float64 // capped at ResistanceCap on recompute
	ExtraDamage [NumDamageTypes]float64

	HasWeapon    bool
	WeaponRanged bool
	HasShield    bool
	AttackRange  float64 // tiles
}

// ResistanceCap is the ceiling every resistance is clamped to after a
// recompute pass. There is deliberately no floor: strong debuffs may push
// a resistance negative.
const ResistanceCap = 75.0
