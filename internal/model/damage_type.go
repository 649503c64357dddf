package model

// DamageType is the element of a damage packet or resistance channel.
// The set is closed; name lookups for unknown elements fail soft.
type DamageType int8

const (
	DamagePhysical DamageType = iota
	DamagePoison
	DamageFire
	DamageCold
	DamageElectric

	NumDamageTypes = 5
)

var damageTypeNames = [NumDamageTypes]string{
	"physical", "poison", "fire", "cold", "electric",
}

func (t DamageType) String() string {
	if t < 0 || int(t) >= NumDamageTypes {
		return "unknown"
	}
	return damageTypeNames[t]
}

// ParseDamageType maps an element name to its DamageType. Returns false
// for unknown names.
func ParseDamageType(name string) (DamageType, bool) {
	for i, n := range damageTypeNames {
		if n == name {
			return DamageType(i), true
		}
	}
	return 0, false
}
