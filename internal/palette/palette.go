package palette

import (
	"fmt"
	"sync"
)

// MaxEntries is the size of the palette index space. Indices fit in a byte.
const MaxEntries = 256

// MapColor is a palette entry: a base color identity, a shade and the RGB
// value that results from shading. Two MapColors are equal when they share
// base identity and shade; Equal compares exactly that.
type MapColor struct {
	index       uint8
	base        uint8
	shade       Shade
	rgb         Color
	name        string
	transparent bool
	palette     *Palette
}

// Index returns the stable palette index.
func (c MapColor) Index() uint8 {
	return c.index
}

// Base returns the identity of the named base color.
func (c MapColor) Base() BaseID {
	return BaseID(c.base)
}

// Shade returns the shading of this color.
func (c MapColor) Shade() Shade {
	return c.shade
}

// Color returns the displayed RGB value.
func (c MapColor) Color() Color {
	return c.rgb
}

// Name returns the name of a named palette entry. Shaded variants have none.
func (c MapColor) Name() (string, bool) {
	return c.name, c.name != ""
}

// Transparent reports whether this is the AIR entry.
func (c MapColor) Transparent() bool {
	return c.transparent
}

// Equal reports whether both colors share base identity and shade.
func (c MapColor) Equal(other MapColor) bool {
	return c.base == other.base && c.shade == other.shade
}

// WithShade returns the variant of this color's base with the given shade.
// The lookup starts from the unshaded base, not from this color.
func (c MapColor) WithShade(s Shade) MapColor {
	if c.palette == nil {
		return c
	}
	return c.palette.Shade(c, s)
}

// String implements fmt.Stringer.
func (c MapColor) String() string {
	if c.name != "" {
		return c.name
	}
	return fmt.Sprintf("#%d(%d/%s)", c.index, c.base, c.shade)
}

type shadeKey struct {
	base  uint8
	shade Shade
}

// Palette is the quantization table. It is scoped to an engine instance and
// passed by reference to every component that matches colors.
type Palette struct {
	mu sync.RWMutex

	bases []Entry    // raw definitions, index == base identity
	table []MapColor // dense index -> color, append-only
	named int        // number of named entries at the front of table

	shades map[shadeKey]uint8
}

// New creates a palette from named base entries. Entry 0 must be the
// transparent entry; no other entry may be transparent.
func New(entries []Entry) (*Palette, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidPalette)
	}
	if !entries[0].Transparent {
		return nil, fmt.Errorf("%w: entry 0 must be transparent", ErrInvalidPalette)
	}
	if len(entries)*int(shadeCount) > MaxEntries {
		return nil, fmt.Errorf("%w: %d entries exceed index space", ErrInvalidPalette, len(entries))
	}

	p := &Palette{
		bases:  make([]Entry, len(entries)),
		table:  make([]MapColor, 0, len(entries)*int(shadeCount)),
		named:  len(entries),
		shades: make(map[shadeKey]uint8),
	}
	copy(p.bases, entries)

	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if i > 0 && e.Transparent {
			return nil, fmt.Errorf("%w: entry %d is transparent", ErrInvalidPalette, i)
		}
		if e.Name == "" || seen[e.Name] {
			return nil, fmt.Errorf("%w: entry %d has empty or duplicate name %q", ErrInvalidPalette, i, e.Name)
		}
		seen[e.Name] = true

		c := MapColor{
			index:       uint8(i),
			base:        uint8(i),
			shade:       ShadeBase,
			name:        e.Name,
			transparent: e.Transparent,
			palette:     p,
		}
		if !e.Transparent {
			c.rgb = ShadeBase.Apply(e.Color)
		}
		p.table = append(p.table, c)
		p.shades[shadeKey{base: uint8(i), shade: ShadeBase}] = uint8(i)
	}

	return p, nil
}

// Default creates a new palette with DefaultEntries.
func Default() *Palette {
	p, err := New(DefaultEntries())
	if err != nil {
		panic(fmt.Sprintf("default palette: %v", err))
	}
	return p
}

// Air returns the transparent entry at index 0.
func (p *Palette) Air() MapColor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.table[0]
}

// Base returns the named entry for a base identity.
func (p *Palette) Base(id BaseID) (MapColor, error) {
	if int(id) >= p.named {
		return MapColor{}, fmt.Errorf("base %d: %w", id, ErrOutOfRange)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.table[id], nil
}

// MustBase is Base for identities known to exist, such as the default
// palette constants. It panics otherwise.
func (p *Palette) MustBase(id BaseID) MapColor {
	c, err := p.Base(id)
	if err != nil {
		panic(err)
	}
	return c
}

// Named returns the named entry with the given name.
func (p *Palette) Named(name string) (MapColor, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.table[:p.named] {
		if c.name == name {
			return c, true
		}
	}
	return MapColor{}, false
}

// ByIndex returns the color for a previously issued index in O(1).
func (p *Palette) ByIndex(i int) (MapColor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i < 0 || i >= len(p.table) {
		return MapColor{}, fmt.Errorf("byIndex %d: %w", i, ErrOutOfRange)
	}
	return p.table[i], nil
}

// RGB returns the displayed color and transparency of an index.
// Unknown indices report transparent.
func (p *Palette) RGB(index uint8) (Color, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if int(index) >= len(p.table) {
		return Color{}, false
	}
	c := p.table[index]
	return c.rgb, !c.transparent
}

// Nearest returns the named opaque entry closest to c by squared euclidean
// distance. Ties resolve to the lowest palette index.
func (p *Palette) Nearest(c Color) MapColor {
	p.mu.RLock()
	defer p.mu.RUnlock()

	best := 0
	bestDist := -1
	for i, entry := range p.table[:p.named] {
		if entry.transparent {
			continue
		}
		dist := c.DistanceSq(entry.rgb)
		if bestDist < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return p.table[best]
}

// Match implements Matcher with Nearest.
func (p *Palette) Match(c Color) MapColor {
	return p.Nearest(c)
}

// Shade returns the variant of base's named color with the given shade,
// issuing and caching a new index on first request. An invalid shade or the
// transparent entry returns the named entry unchanged.
func (p *Palette) Shade(base MapColor, s Shade) MapColor {
	baseID := base.base
	if int(baseID) >= p.named {
		baseID = 0
	}
	if !s.Valid() {
		s = ShadeBase
	}

	key := shadeKey{base: baseID, shade: s}

	p.mu.RLock()
	if idx, ok := p.shades[key]; ok {
		c := p.table[idx]
		p.mu.RUnlock()
		return c
	}
	if p.bases[baseID].Transparent {
		c := p.table[baseID]
		p.mu.RUnlock()
		return c
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another caller may have interned the pair between the locks.
	if idx, ok := p.shades[key]; ok {
		return p.table[idx]
	}

	c := MapColor{
		index:   uint8(len(p.table)),
		base:    baseID,
		shade:   s,
		rgb:     s.Apply(p.bases[baseID].Color),
		palette: p,
	}
	p.table = append(p.table, c)
	p.shades[key] = c.index
	return c
}

// shadedRGB computes the displayed color of a (base, shade) pair without
// issuing an index.
func (p *Palette) shadedRGB(base int, s Shade) Color {
	return s.Apply(p.bases[base].Color)
}

// All returns every color issued so far, including shaded variants, in index
// order.
func (p *Palette) All() []MapColor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]MapColor, len(p.table))
	copy(out, p.table)
	return out
}

// AllNamed returns the named entries in index order.
func (p *Palette) AllNamed() []MapColor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]MapColor, p.named)
	copy(out, p.table[:p.named])
	return out
}

// NamedCount returns the number of named entries.
func (p *Palette) NamedCount() int {
	return p.named
}

// Len returns the number of issued indices.
func (p *Palette) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.table)
}

// Version changes whenever a new index is issued. Viewers holding a table of
// an older version must be resynchronized before they can decode new indices.
func (p *Palette) Version() uint32 {
	return uint32(p.Len())
}
