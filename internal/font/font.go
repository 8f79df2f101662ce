// Package font provides the bitmap fonts text is rastered with.
//
// A Font maps runes to fixed-height Glyph bitmaps. Glyphs are drawn left to
// right with Spacing blank columns between them.
package font

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/mapcast/internal/maperr"
	"golang.org/x/image/font/basicfont"
)

// Errors returned by font operations.
var (
	// ErrMissingGlyph is returned when text uses a rune the font lacks.
	ErrMissingGlyph = fmt.Errorf("missing glyph: %w", maperr.ErrInvalidArgument)

	// ErrGlyphSize is returned for glyph bitmaps that do not match their
	// declared size or the font height.
	ErrGlyphSize = errors.New("glyph size mismatch")
)

// Glyph is a monochrome bitmap for one rune.
type Glyph struct {
	width  int
	height int
	bits   []bool
}

// NewGlyph creates a glyph from row-major bits of size width x height.
func NewGlyph(width, height int, bits []bool) (*Glyph, error) {
	if width < 0 || height <= 0 || len(bits) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d bits", ErrGlyphSize, width, height, len(bits))
	}
	g := &Glyph{width: width, height: height, bits: make([]bool, len(bits))}
	copy(g.bits, bits)
	return g, nil
}

// ParseGlyph creates a glyph from text rows where '#' marks a set pixel and
// any other byte a blank one. All rows must have the same length.
func ParseGlyph(rows ...string) (*Glyph, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrGlyphSize)
	}
	width := len(rows[0])
	bits := make([]bool, 0, width*len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrGlyphSize, i, len(row), width)
		}
		for j := 0; j < len(row); j++ {
			bits = append(bits, row[j] == '#')
		}
	}
	return NewGlyph(width, len(rows), bits)
}

// Width returns the glyph width in pixels.
func (g *Glyph) Width() int { return g.width }

// Height returns the glyph height in pixels.
func (g *Glyph) Height() int { return g.height }

// Set reports whether the pixel at (x, y) is inked.
func (g *Glyph) Set(x, y int) bool {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return false
	}
	return g.bits[y*g.width+x]
}

// Font is a set of same-height glyphs.
type Font struct {
	name    string
	height  int
	spacing int
	glyphs  map[rune]*Glyph
}

// New creates an empty font whose glyphs are all height pixels tall.
func New(name string, height int) *Font {
	return &Font{
		name:    name,
		height:  height,
		spacing: 1,
		glyphs:  make(map[rune]*Glyph),
	}
}

// Name returns the font name.
func (f *Font) Name() string { return f.name }

// Height returns the glyph height shared by every glyph.
func (f *Font) Height() int { return f.height }

// Spacing returns the blank columns drawn between glyphs.
func (f *Font) Spacing() int { return f.spacing }

// SetSpacing changes the blank columns between glyphs. Negative values are
// treated as zero.
func (f *Font) SetSpacing(n int) {
	if n < 0 {
		n = 0
	}
	f.spacing = n
}

// SetGlyph adds or replaces the glyph for r.
func (f *Font) SetGlyph(r rune, g *Glyph) error {
	if g == nil || g.height != f.height {
		return fmt.Errorf("%w: glyph %q for %d px font", ErrGlyphSize, r, f.height)
	}
	f.glyphs[r] = g
	return nil
}

// Glyph returns the glyph for r.
func (f *Font) Glyph(r rune) (*Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

// Runes returns every rune the font covers, sorted.
func (f *Font) Runes() []rune {
	out := make([]rune, 0, len(f.glyphs))
	for r := range f.glyphs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Valid reports whether every rune of text, other than line breaks, has a glyph.
func (f *Font) Valid(text string) bool {
	for _, r := range text {
		if r == '\n' {
			continue
		}
		if _, ok := f.glyphs[r]; !ok {
			return false
		}
	}
	return true
}

// Width returns the pixel width of a single line of text, including spacing
// between glyphs.
func (f *Font) Width(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	width, n := 0, 0
	for _, r := range text {
		g, ok := f.glyphs[r]
		if !ok {
			return 0, fmt.Errorf("%w: %q in font %s", ErrMissingGlyph, r, f.name)
		}
		width += g.width
		n++
	}
	return width + (n-1)*f.spacing, nil
}

// FromFace builds a font from a basicfont face. Every rune of the face's
// ranges becomes a glyph of the face's Width and Ascent+Descent height.
func FromFace(name string, face *basicfont.Face) *Font {
	height := face.Ascent + face.Descent
	f := New(name, height)
	f.SetSpacing(face.Advance - face.Width)

	for _, rng := range face.Ranges {
		for r := rng.Low; r < rng.High; r++ {
			offsetY := (int(r-rng.Low) + rng.Offset) * height
			f.glyphs[r] = glyphFromMask(face.Mask, face.Width, height, offsetY)
		}
	}
	return f
}

func glyphFromMask(mask image.Image, width, height, offsetY int) *Glyph {
	bits := make([]bool, width*height)
	b := mask.Bounds()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			_, _, _, a := mask.At(b.Min.X+x, b.Min.Y+offsetY+y).RGBA()
			bits[y*width+x] = a > 0x7fff
		}
	}
	return &Glyph{width: width, height: height, bits: bits}
}

var (
	defaultOnce sync.Once
	defaultFont *Font
)

// Default returns the shared 7x13 font built from basicfont.Face7x13.
// Callers must not modify it.
func Default() *Font {
	defaultOnce.Do(func() {
		defaultFont = FromFace("basic7x13", basicfont.Face7x13)
	})
	return defaultFont
}

// Minimal returns a small 3x5 font covering digits, upper-case ASCII letters,
// space and a few punctuation marks. Lower-case letters map to upper case.
func Minimal() *Font {
	f := New("minimal3x5", 5)
	for r, rows := range minimalGlyphs {
		g, err := ParseGlyph(strings.Split(rows, "|")...)
		if err != nil {
			panic(fmt.Sprintf("minimal font %q: %v", r, err))
		}
		f.glyphs[r] = g
		if r >= 'A' && r <= 'Z' {
			f.glyphs[r+'a'-'A'] = g
		}
	}
	return f
}
