package model

// Attributes are the four raw base attributes. They change only through
// level-up allocation or explicit attribute effects.
type Attributes struct {
	Strength  int `json:"strength" yaml:"strength"`
	Dexterity int `json:"dexterity" yaml:"dexterity"`
	Vitality  int `json:"vitality" yaml:"vitality"`
	Energy    int `json:"energy" yaml:"energy"`
}

// The derivations below are pure: base attributes + level + the class
// baseline in, a number out. Equipment is intentionally absent — items are
// folded by the bonus accumulator, never here.

// MaxLifeFor derives the unbuffed life cap.
func MaxLifeFor(classBaseHP, level, vitality int) float64 {
	return float64(classBaseHP + level + vitality*3)
}

// MaxManaFor derives the unbuffed mana cap.
func MaxManaFor(classBaseMana, level, energy int) float64 {
	return float64(classBaseMana + level + energy*3)
}

// BasicAccuracyFor derives the pre-equipment accuracy rating.
func BasicAccuracyFor(dexterity, classAR int) float64 {
	return float64(dexterity*5 - 35 + classAR)
}
