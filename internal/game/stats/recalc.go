// Package stats implements the derived-stat recalculation pipeline. The
// step order is load-bearing: base derivation, equipment fold, buff
// modifiers, debuff modifiers, resistance cap, finals, resource clamp —
// later steps read what earlier steps wrote.
package stats

import (
	"log/slog"
	"math"

	"github.com/skalder/emberfall/internal/data"
	"github.com/skalder/emberfall/internal/model"
)

// Attack ranges in tiles. Ranged weapons outrange melee; the resolver
// multiplies by the configured tile size.
const (
	meleeAttackRange  = 1.5
	rangedAttackRange = 6.0
)

// Recalculator recomputes a character's derived-stat cache from its base
// attributes, equipment and active effects. It is deterministic and has no
// side effect beyond publishing the cache: two back-to-back passes with no
// intervening mutation produce identical stats.
type Recalculator struct {
	tables *data.Tables
	log    *slog.Logger
}

// NewRecalculator builds a recalculator over the given balance tables.
func NewRecalculator(tables *data.Tables) *Recalculator {
	return &Recalculator{tables: tables, log: slog.Default()}
}

// working is the mutable stat sheet the pipeline builds up before
// publishing. Named-effect modifiers address its fields through the
// accessor table below.
type working struct {
	maxLife, maxMana       float64
	attack, defence        float64
	accuracy               float64
	critRate, critDamage   float64
	attackSpeed, moveSpeed float64 // percent bonuses until the finals step
	blockRate              float64
	lifeRegen, manaRegen   float64
	lifeLeech, manaLeech   float64
	flatLife, flatMana     float64
	resist                 [model.NumDamageTypes]float64
	extra                  [model.NumDamageTypes]float64
}

// statFields is the typed accessor table for named-effect modifiers: one
// entry per modifiable stat name, a lookup miss is the soft-failure branch
// for unknown names.
var statFields = map[string]func(*working) *float64{
	"maxLife":        func(w *working) *float64 { return &w.maxLife },
	"maxMana":        func(w *working) *float64 { return &w.maxMana },
	"attack":         func(w *working) *float64 { return &w.attack },
	"defence":        func(w *working) *float64 { return &w.defence },
	"accuracy":       func(w *working) *float64 { return &w.accuracy },
	"critRate":       func(w *working) *float64 { return &w.critRate },
	"critDamage":     func(w *working) *float64 { return &w.critDamage },
	"attackSpeed":    func(w *working) *float64 { return &w.attackSpeed },
	"moveSpeed":      func(w *working) *float64 { return &w.moveSpeed },
	"blockRate":      func(w *working) *float64 { return &w.blockRate },
	"lifeRegen":      func(w *working) *float64 { return &w.lifeRegen },
	"manaRegen":      func(w *working) *float64 { return &w.manaRegen },
	"lifeLeech":      func(w *working) *float64 { return &w.lifeLeech },
	"manaLeech":      func(w *working) *float64 { return &w.manaLeech },
	"flatLife":       func(w *working) *float64 { return &w.flatLife },
	"flatMana":       func(w *working) *float64 { return &w.flatMana },
	"poisonResist":   func(w *working) *float64 { return &w.resist[model.DamagePoison] },
	"fireResist":     func(w *working) *float64 { return &w.resist[model.DamageFire] },
	"coldResist":     func(w *working) *float64 { return &w.resist[model.DamageCold] },
	"electricResist": func(w *working) *float64 { return &w.resist[model.DamageElectric] },
	"physicalResist": func(w *working) *float64 { return &w.resist[model.DamagePhysical] },
	"poisonDamage":   func(w *working) *float64 { return &w.extra[model.DamagePoison] },
	"fireDamage":     func(w *working) *float64 { return &w.extra[model.DamageFire] },
	"coldDamage":     func(w *working) *float64 { return &w.extra[model.DamageCold] },
	"electricDamage": func(w *working) *float64 { return &w.extra[model.DamageElectric] },
}

// Recompute rebuilds and publishes the character's derived-stat cache.
// Must run after every equip/unequip, buff/debuff add/expire, level-up and
// snapshot restore — the sim loop triggers it off the character's dirty
// flag, but callers outside the loop may invoke it directly.
func (r *Recalculator) Recompute(ch *model.Character) model.Derived {
	cls := r.tables.Class(ch.Class())
	attrs := ch.Attrs()
	level := ch.Level()

	// Step 1: base derivation from attributes, level and the class table.
	// Equipment basic-performance is NOT counted here — the fold below is
	// the single authoritative accumulation point for items.
	var w working
	w.maxLife = model.MaxLifeFor(cls.BaseHP, level, attrs.Vitality)
	w.maxMana = model.MaxManaFor(cls.BaseMana, level, attrs.Energy)
	w.accuracy = model.BasicAccuracyFor(attrs.Dexterity, cls.BaseAR)
	basicAttack := cls.BaseAttack
	basicDefence := cls.BaseDefence
	basicAccuracy := w.accuracy

	// Step 2: fresh equipment fold.
	bonus := FoldEquipment(ch.EquipmentSlots())
	w.attack = basicAttack + bonus.Attack
	w.defence = basicDefence + bonus.Defence
	w.accuracy += bonus.Accuracy
	w.critRate = bonus.CritRate
	w.critDamage = bonus.CritDamage
	w.attackSpeed = bonus.AttackSpeed
	w.moveSpeed = bonus.MoveSpeed
	w.blockRate = bonus.BlockRate
	w.lifeRegen = bonus.LifeRegen
	w.manaRegen = bonus.ManaRegen
	w.lifeLeech = bonus.LifeLeech
	w.manaLeech = bonus.ManaLeech
	w.flatLife = bonus.FlatLife
	w.flatMana = bonus.FlatMana

	baseResist := ch.BaseResistances()
	baseExtra := ch.ExtraDamages()
	for i := 0; i < model.NumDamageTypes; i++ {
		w.resist[i] = baseResist[i] + bonus.Resist[i]
		w.extra[i] = baseExtra[i] + bonus.ExtraDamage[i]
	}

	// Steps 3 and 4: named effects in insertion order, buffs before
	// debuffs. Application order is numerically significant for mixed
	// additive/multiplicative stacks and deliberately not sorted.
	named := ch.Effects().Named()
	for _, ne := range named {
		if !ne.Debuff {
			r.applyMods(ch, &w, ne)
		}
	}
	for _, ne := range named {
		if ne.Debuff {
			r.applyMods(ch, &w, ne)
		}
	}

	// Step 5: resistance ceiling. No floor — heavy debuffs may leave a
	// resistance negative.
	for i := range w.resist {
		if w.resist[i] > model.ResistanceCap {
			w.resist[i] = model.ResistanceCap
		}
	}

	// Step 6: finals.
	d := model.Derived{
		MaxLife:       math.Max(w.maxLife+w.flatLife, 1),
		MaxMana:       math.Max(w.maxMana+w.flatMana, 0),
		BasicAttack:   basicAttack,
		BasicDefence:  basicDefence,
		BasicAccuracy: basicAccuracy,
		FinalAttack:   math.Max(w.attack, 0),
		FinalDefence:  math.Max(w.defence, 0),
		FinalAccuracy: w.accuracy,
		CritRate:      math.Max(w.critRate, 0),
		CritDamage:    math.Max(w.critDamage, 1),
		AttackSpeed:   math.Max(1+w.attackSpeed/100, 0.1),
		MoveSpeed:     math.Max(cls.BaseMoveSpeed*(1+w.moveSpeed/100), 0),
		BlockRate:     math.Max(w.blockRate, 0),
		LifeRegen:     math.Max(w.lifeRegen, 0),
		ManaRegen:     math.Max(w.manaRegen, 0),
		LifeLeech:     math.Max(w.lifeLeech, 0),
		ManaLeech:     math.Max(w.manaLeech, 0),
		Resist:        w.resist,
		ExtraDamage:   w.extra,
		HasWeapon:     bonus.HasWeapon,
		WeaponRanged:  bonus.WeaponRanged,
		HasShield:     bonus.HasShield,
		AttackRange:   meleeAttackRange,
	}
	if bonus.WeaponRanged {
		d.AttackRange = rangedAttackRange
	}

	// Step 7: publishing clamps current life/mana to the new maxima.
	ch.SetDerived(d)
	return d
}

// applyMods folds one named effect's modifier list into the working sheet
// in list order. Unknown stat names are skipped with a warning.
func (r *Recalculator) applyMods(ch *model.Character, w *working, ne *model.NamedEffect) {
	for _, mod := range ne.Mods {
		field, ok := statFields[mod.Stat]
		if !ok {
			r.log.Warn("named effect targets unknown stat",
				"effect", ne.Name,
				"stat", mod.Stat,
				"target", ch.Name())
			continue
		}
		p := field(w)
		if mod.Mul {
			*p *= mod.Value
		} else {
			*p += mod.Value
		}
	}
}
