// Package settings holds the configuration bundle a map view is created from.
//
// Settings is a plain value: handing it to a store copies it, so later
// changes to the caller's copy never reach the created view.
package settings

import (
	"fmt"

	"github.com/dshills/mapcast/internal/cursor"
	"github.com/dshills/mapcast/internal/maperr"
)

// Errors returned by settings operations.
var (
	ErrUnknownScale = fmt.Errorf("unknown map scale: %w", maperr.ErrInvalidArgument)
	ErrInvalidJSON  = fmt.Errorf("invalid settings json: %w", maperr.ErrInvalidArgument)
)

// Settings configures a map view.
type Settings struct {
	UsesDefaultCursors bool
	PlayerCursor       cursor.Type
	ItemFrameCursor    cursor.Type
	EdgeCursor         cursor.Type

	Scale Scale

	// CenterX and CenterZ are the world coordinates under the canvas center.
	CenterX int
	CenterZ int

	AutomaticUpdates    bool
	UsesDefaultRenderer bool
}

// Default returns the settings a Builder starts from.
func Default() Settings {
	return Settings{
		UsesDefaultCursors:  true,
		PlayerCursor:        cursor.WhitePointer,
		ItemFrameCursor:     cursor.GreenPointer,
		EdgeCursor:          cursor.WhiteCircle,
		Scale:               ScaleBase,
		AutomaticUpdates:    true,
		UsesDefaultRenderer: true,
	}
}

// DefaultCursorTypes returns the cursor types default cursors use.
func (s Settings) DefaultCursorTypes() cursor.DefaultTypes {
	return cursor.DefaultTypes{
		Player:    s.PlayerCursor,
		ItemFrame: s.ItemFrameCursor,
		Edge:      s.EdgeCursor,
	}
}

// Validate checks every enumerated field.
func (s Settings) Validate() error {
	for _, t := range []cursor.Type{s.PlayerCursor, s.ItemFrameCursor, s.EdgeCursor} {
		if !t.Valid() {
			return fmt.Errorf("%w: %d", cursor.ErrUnknownType, uint8(t))
		}
	}
	if !s.Scale.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownScale, uint8(s.Scale))
	}
	return nil
}

// Project converts world coordinates to canvas pixel coordinates for a
// width x height canvas. Results may lie outside the canvas.
func (s Settings) Project(worldX, worldZ float64, width, height int) (int, int) {
	bpp := float64(s.Scale.BlocksPerPixel())
	x := (worldX-float64(s.CenterX))/bpp + float64(width)/2
	y := (worldZ-float64(s.CenterZ))/bpp + float64(height)/2
	return floor(x), floor(y)
}

func floor(v float64) int {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}

// Builder assembles Settings.
type Builder struct {
	s Settings
}

// NewBuilder returns a builder holding Default().
func NewBuilder() *Builder {
	return &Builder{s: Default()}
}

// Fill copies every field from s.
func (b *Builder) Fill(s Settings) *Builder {
	b.s = s
	return b
}

// Reset restores Default().
func (b *Builder) Reset() *Builder {
	b.s = Default()
	return b
}

func (b *Builder) UsesDefaultCursors(v bool) *Builder {
	b.s.UsesDefaultCursors = v
	return b
}

func (b *Builder) PlayerCursor(t cursor.Type) *Builder {
	b.s.PlayerCursor = t
	return b
}

func (b *Builder) ItemFrameCursor(t cursor.Type) *Builder {
	b.s.ItemFrameCursor = t
	return b
}

func (b *Builder) EdgeCursor(t cursor.Type) *Builder {
	b.s.EdgeCursor = t
	return b
}

func (b *Builder) Scale(s Scale) *Builder {
	b.s.Scale = s
	return b
}

func (b *Builder) Center(x, z int) *Builder {
	b.s.CenterX, b.s.CenterZ = x, z
	return b
}

func (b *Builder) AutomaticUpdates(v bool) *Builder {
	b.s.AutomaticUpdates = v
	return b
}

func (b *Builder) UsesDefaultRenderer(v bool) *Builder {
	b.s.UsesDefaultRenderer = v
	return b
}

// Build validates and returns the settings.
func (b *Builder) Build() (Settings, error) {
	if err := b.s.Validate(); err != nil {
		return Settings{}, err
	}
	return b.s, nil
}
