package cursor

import (
	"fmt"
	"strings"
)

// Type is the kind of marker a cursor shows. The value is the wire ordinal.
type Type uint8

// Cursor types.
const (
	WhitePointer Type = iota
	GreenPointer
	RedPointer
	BluePointer
	WhiteCross
	RedMarker
	WhiteCircle
	SmallWhiteCircle
	Mansion
	Temple

	typeCount
)

var typeNames = [typeCount]string{
	"WHITE_POINTER",
	"GREEN_POINTER",
	"RED_POINTER",
	"BLUE_POINTER",
	"WHITE_CROSS",
	"RED_MARKER",
	"WHITE_CIRCLE",
	"SMALL_WHITE_CIRCLE",
	"MANSION",
	"TEMPLE",
}

// Types returns every cursor type in ordinal order.
func Types() []Type {
	out := make([]Type, typeCount)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t < typeCount
}

// String returns the catalog name of the type.
func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("CURSOR(%d)", uint8(t))
	}
	return typeNames[t]
}

// ParseType resolves a catalog name, case-insensitively.
func ParseType(name string) (Type, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	for i, tn := range typeNames {
		if tn == n {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
