package model

// Category classifies equipment by which basic-performance stat it carries.
type Category int8

const (
	CategoryWeapon Category = iota
	CategoryArmor
	CategoryJewelry
	CategoryShield
)

func (c Category) String() string {
	switch c {
	case CategoryWeapon:
		return "weapon"
	case CategoryArmor:
		return "armor"
	case CategoryJewelry:
		return "jewelry"
	case CategoryShield:
		return "shield"
	default:
		return "unknown"
	}
}

// Rarity is the ordered item grade. Higher rarities draw more and stronger
// option-performance affixes from the pool.
type Rarity int8

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityUncommon:
		return "uncommon"
	case RarityRare:
		return "rare"
	case RarityEpic:
		return "epic"
	case RarityLegendary:
		return "legendary"
	default:
		return "unknown"
	}
}

// Slot is a fixed equipment slot on a character.
type Slot int8

const (
	SlotHead Slot = iota
	SlotBody
	SlotGlove
	SlotBelt
	SlotAmulet
	SlotRingLeft
	SlotRingRight
	SlotHandLeft
	SlotHandRight

	NumSlots = 9
)

var slotNames = [NumSlots]string{
	"head", "body", "glove", "belt", "amulet",
	"ring-left", "ring-right", "hand-left", "hand-right",
}

func (s Slot) String() string {
	if s < 0 || int(s) >= NumSlots {
		return "unknown"
	}
	return slotNames[s]
}

// ParseSlot maps a slot name to its Slot. Returns false for unknown names.
func ParseSlot(name string) (Slot, bool) {
	for i, n := range slotNames {
		if n == name {
			return Slot(i), true
		}
	}
	return 0, false
}

// OptionType names a secondary equipment affix. The set is closed: the bonus
// accumulator ignores types it does not know about.
type OptionType string

const (
	OptionAttack         OptionType = "attack"
	OptionDefence        OptionType = "defence"
	OptionAccuracy       OptionType = "accuracy"
	OptionCritRate       OptionType = "critRate"
	OptionCritDamage     OptionType = "critDamage"
	OptionAttackSpeed    OptionType = "attackSpeed"
	OptionMoveSpeed      OptionType = "moveSpeed"
	OptionFlatLife       OptionType = "flatLife"
	OptionFlatMana       OptionType = "flatMana"
	OptionLifeLeech      OptionType = "lifeLeech"
	OptionManaLeech      OptionType = "manaLeech"
	OptionLifeRegen      OptionType = "lifeRegen"
	OptionManaRegen      OptionType = "manaRegen"
	OptionBlockRate      OptionType = "blockRate"
	OptionPoisonResist   OptionType = "poisonResist"
	OptionFireResist     OptionType = "fireResist"
	OptionColdResist     OptionType = "coldResist"
	OptionElectricResist OptionType = "electricResist"
	OptionPhysicalResist OptionType = "physicalResist"
	OptionPoisonDamage   OptionType = "poisonDamage"
	OptionFireDamage     OptionType = "fireDamage"
	OptionColdDamage     OptionType = "coldDamage"
	OptionElectricDamage OptionType = "electricDamage"
)

// Option is a single option-performance affix on an item.
type Option struct {
	Type  OptionType `json:"type" yaml:"type"`
	Value float64    `json:"value" yaml:"value"`
}

// Equipment is a single item instance. Basic is the item's one
// basic-performance value: flat attack for weapons, flat defence for
// armor/shields, interpreted by category when folded into the bonus
// accumulator.
type Equipment struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Rarity   Rarity   `json:"rarity"`
	Level    int      `json:"level"`
	Basic    float64  `json:"basic"`
	// Ranged marks bow-like weapons; drives the dexterity damage scaling
	// and the longer attack range.
	Ranged  bool     `json:"ranged,omitempty"`
	Options []Option `json:"options,omitempty"`
}
