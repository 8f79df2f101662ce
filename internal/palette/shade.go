package palette

// Shade is a brightness variant applied to a base color.
// The numeric value is the ordinal used on the wire.
type Shade uint8

const (
	// ShadeDark scales the raw base color by 180/255.
	ShadeDark Shade = iota
	// ShadeBase scales the raw base color by 220/255. Named entries carry it.
	ShadeBase
	// ShadeLight keeps the raw base color.
	ShadeLight
	// ShadeDarker scales the raw base color by 135/255.
	ShadeDarker

	shadeCount
)

var shadeMultipliers = [shadeCount]uint8{180, 220, 255, 135}

// Shades returns every shade in ordinal order.
func Shades() []Shade {
	return []Shade{ShadeDark, ShadeBase, ShadeLight, ShadeDarker}
}

// Valid reports whether s is a known shade.
func (s Shade) Valid() bool {
	return s < shadeCount
}

// Multiplier returns the per-channel multiplier in 1/255 units.
func (s Shade) Multiplier() uint8 {
	if !s.Valid() {
		return shadeMultipliers[ShadeBase]
	}
	return shadeMultipliers[s]
}

// Apply shades a raw base color.
func (s Shade) Apply(raw Color) Color {
	return raw.Mul(s.Multiplier())
}

// String returns the name of the shade.
func (s Shade) String() string {
	switch s {
	case ShadeDark:
		return "dark"
	case ShadeBase:
		return "base"
	case ShadeLight:
		return "light"
	case ShadeDarker:
		return "darker"
	default:
		return "unknown"
	}
}
