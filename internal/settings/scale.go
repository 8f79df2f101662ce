package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Scale is the number of world blocks one map pixel covers.
type Scale uint8

// Scales, from the most detailed.
const (
	ScaleBase Scale = iota // 1 block per pixel
	Scale1                 // 4 blocks per pixel
	Scale2                 // 16 blocks per pixel
	Scale3                 // 64 blocks per pixel
	Scale4                 // 256 blocks per pixel

	scaleCount
)

var scaleNames = [scaleCount]string{"SCALE_BASE", "SCALE_1", "SCALE_2", "SCALE_3", "SCALE_4"}

// Scales returns every scale from the most detailed.
func Scales() []Scale {
	return []Scale{ScaleBase, Scale1, Scale2, Scale3, Scale4}
}

// Valid reports whether s is a known scale.
func (s Scale) Valid() bool {
	return s < scaleCount
}

// BlocksPerPixel returns the world blocks covered by one pixel along each axis.
func (s Scale) BlocksPerPixel() int {
	if !s.Valid() {
		return 1
	}
	return 1 << (2 * uint(s))
}

// String returns the catalog name of the scale.
func (s Scale) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SCALE(%d)", uint8(s))
	}
	return scaleNames[s]
}

// Ratio returns the scale as "blocks:1".
func (s Scale) Ratio() string {
	return fmt.Sprintf("%d:1", s.BlocksPerPixel())
}

// ParseScale accepts a catalog name ("SCALE_2"), a ratio ("16:1") or a bare
// blocks-per-pixel count ("16").
func ParseScale(v string) (Scale, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	for i, n := range scaleNames {
		if n == v {
			return Scale(i), nil
		}
	}
	v = strings.TrimSuffix(v, ":1")
	if n, err := strconv.Atoi(v); err == nil {
		for _, s := range Scales() {
			if s.BlocksPerPixel() == n {
				return s, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScale, v)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scale) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScale, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scale) UnmarshalText(b []byte) error {
	parsed, err := ParseScale(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
