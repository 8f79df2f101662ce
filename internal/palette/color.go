package palette

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an immutable 24-bit RGB value. It has no alpha channel.
type Color struct {
	R, G, B uint8
}

// RGB creates a Color from its channels.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ColorFromHex parses "#RRGGBB" (or "RRGGBB") into a Color.
func ColorFromHex(hex string) (Color, error) {
	if len(hex) > 0 && hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// FromStd converts a standard library color. The second result is false when
// the color is fully transparent; partially transparent colors are
// un-premultiplied.
func FromStd(c color.Color) (Color, bool) {
	nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
	if nrgba.A == 0 {
		return Color{}, false
	}
	return Color{R: nrgba.R, G: nrgba.G, B: nrgba.B}, true
}

// RGBA implements color.Color. Colors are always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Hex returns the "#RRGGBB" form of the color.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// DistanceSq returns the squared euclidean distance over the three channels.
func (c Color) DistanceSq(other Color) int {
	dr := int(c.R) - int(other.R)
	dg := int(c.G) - int(other.G)
	db := int(c.B) - int(other.B)
	return dr*dr + dg*dg + db*db
}

// Mul scales every channel by k/255.
func (c Color) Mul(k uint8) Color {
	return Color{
		R: uint8((uint16(c.R) * uint16(k)) / 255),
		G: uint8((uint16(c.G) * uint16(k)) / 255),
		B: uint8((uint16(c.B) * uint16(k)) / 255),
	}
}

// colorful converts to the go-colorful representation.
func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}
