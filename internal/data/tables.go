// Package data holds the balance tables the engine derives numbers from:
// per-class base stats and the rarity/level-scaled item option pool.
//
// Tables are explicitly constructed and passed to consumers. There is no
// package-level registry, so parallel simulations (tests, multiple server
// instances) never share mutable table state.
package data

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skalder/emberfall/internal/model"
)

//go:embed classes.yaml options.yaml
var defaultFS embed.FS

// ClassStats is the per-class baseline fed into the attribute derivations.
type ClassStats struct {
	BaseHP        int     `yaml:"base_hp"`
	BaseMana      int     `yaml:"base_mana"`
	BaseAR        int     `yaml:"base_ar"`
	BaseAttack    float64 `yaml:"base_attack"`
	BaseDefence   float64 `yaml:"base_defence"`
	BaseMoveSpeed float64 `yaml:"base_move_speed"`
}

// OptionSpec describes one affix in the item option pool.
type OptionSpec struct {
	Type      model.OptionType `yaml:"type"`
	Min       float64          `yaml:"min"`
	Max       float64          `yaml:"max"`
	PerLevel  float64          `yaml:"per_level"`  // flat gain per item level
	MinRarity model.Rarity     `yaml:"min_rarity"` // affix only rolls at this grade or above
}

type classFile struct {
	Classes map[string]ClassStats `yaml:"classes"`
}

type optionFile struct {
	Options []OptionSpec `yaml:"options"`
}

// Tables bundles the loaded balance data.
type Tables struct {
	classes  map[string]ClassStats
	fallback ClassStats
	pool     []OptionSpec
}

// Load reads the embedded default tables.
func Load() (*Tables, error) {
	return loadFrom(defaultFS, "classes.yaml", "options.yaml")
}

// LoadFiles reads tables from explicit file paths, falling back to the
// embedded defaults for any empty path.
func LoadFiles(classesPath, optionsPath string) (*Tables, error) {
	t, err := Load()
	if err != nil {
		return nil, err
	}
	if classesPath != "" {
		raw, err := os.ReadFile(classesPath)
		if err != nil {
			return nil, fmt.Errorf("reading class table %s: %w", classesPath, err)
		}
		var cf classFile
		if err := yaml.Unmarshal(raw, &cf); err != nil {
			return nil, fmt.Errorf("parsing class table %s: %w", classesPath, err)
		}
		t.classes = cf.Classes
	}
	if optionsPath != "" {
		raw, err := os.ReadFile(optionsPath)
		if err != nil {
			return nil, fmt.Errorf("reading option pool %s: %w", optionsPath, err)
		}
		var of optionFile
		if err := yaml.Unmarshal(raw, &of); err != nil {
			return nil, fmt.Errorf("parsing option pool %s: %w", optionsPath, err)
		}
		t.pool = of.Options
	}
	return t, nil
}

func loadFrom(fsys fs.FS, classesName, optionsName string) (*Tables, error) {
	rawClasses, err := fs.ReadFile(fsys, classesName)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", classesName, err)
	}
	var cf classFile
	if err := yaml.Unmarshal(rawClasses, &cf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", classesName, err)
	}

	rawOptions, err := fs.ReadFile(fsys, optionsName)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", optionsName, err)
	}
	var of optionFile
	if err := yaml.Unmarshal(rawOptions, &of); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", optionsName, err)
	}

	t := &Tables{classes: cf.Classes, pool: of.Options}
	if def, ok := cf.Classes["adventurer"]; ok {
		t.fallback = def
	} else {
		for _, cls := range cf.Classes {
			t.fallback = cls
			break
		}
	}
	return t, nil
}

// Class returns the baseline for the named class, or the fallback class
// when the name is unknown. Unknown classes are a data problem, not a
// runtime failure.
func (t *Tables) Class(name string) ClassStats {
	if cls, ok := t.classes[name]; ok {
		return cls
	}
	return t.fallback
}

// HasClass reports whether the named class exists in the table.
func (t *Tables) HasClass(name string) bool {
	_, ok := t.classes[name]
	return ok
}

// OptionPool returns the affix pool entries available at the given rarity.
func (t *Tables) OptionPool(rarity model.Rarity) []OptionSpec {
	var out []OptionSpec
	for _, spec := range t.pool {
		if rarity >= spec.MinRarity {
			out = append(out, spec)
		}
	}
	return out
}

// optionCount is how many affixes each grade rolls.
var optionCount = map[model.Rarity]int{
	model.RarityCommon:    0,
	model.RarityUncommon:  1,
	model.RarityRare:      2,
	model.RarityEpic:      3,
	model.RarityLegendary: 4,
}

// RollOptions draws option-performance affixes for a freshly generated
// item: the count is fixed by rarity, values scale with item level.
// rng is caller-supplied so item generation stays deterministic in tests.
func (t *Tables) RollOptions(rarity model.Rarity, level int, rng Rand) []model.Option {
	pool := t.OptionPool(rarity)
	count := optionCount[rarity]
	if count == 0 || len(pool) == 0 {
		return nil
	}
	opts := make([]model.Option, 0, count)
	for i := 0; i < count; i++ {
		spec := pool[rng.IntN(len(pool))]
		value := spec.Min + rng.Float64()*(spec.Max-spec.Min) + spec.PerLevel*float64(level)
		opts = append(opts, model.Option{Type: spec.Type, Value: value})
	}
	return opts
}

// Rand is the subset of math/rand/v2 the pool needs; narrow so tests can
// substitute a fixed sequence.
type Rand interface {
	IntN(n int) int
	Float64() float64
}
