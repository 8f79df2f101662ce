package render

import (
	"fmt"
	"image"

	"github.com/dshills/mapcast/internal/canvas"
	"github.com/dshills/mapcast/internal/font"
	"github.com/dshills/mapcast/internal/palette"
)

// Renderer draws onto a canvas. Any state a renderer keeps is its own.
type Renderer interface {
	Render(c *canvas.Canvas) error
}

// Named is implemented by renderers that describe themselves in failure
// reports.
type Named interface {
	Name() string
}

// NameOf returns the name of r, or its type when r is not Named.
func NameOf(r Renderer) string {
	if n, ok := r.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", r)
}

// Func adapts a function to Renderer. Func values are not comparable, so
// Pipeline.Remove never finds them; remove them by position with
// Pipeline.RemoveAt.
type Func func(c *canvas.Canvas) error

// Render implements Renderer.
func (f Func) Render(c *canvas.Canvas) error {
	return f(c)
}

// Fill paints every pixel with one color.
type Fill struct {
	Color palette.MapColor
}

// Render implements Renderer.
func (f *Fill) Render(c *canvas.Canvas) error {
	c.Fill(f.Color)
	return nil
}

// Name implements Named.
func (f *Fill) Name() string { return "fill(" + f.Color.String() + ")" }

// Rect paints a rectangle, clipped to the canvas.
type Rect struct {
	Bounds image.Rectangle
	Color  palette.MapColor
}

// Render implements Renderer.
func (r *Rect) Render(c *canvas.Canvas) error {
	c.FillRect(r.Bounds, r.Color)
	return nil
}

// Name implements Named.
func (r *Rect) Name() string { return "rect" + r.Bounds.String() }

// Image blits an image with its top-left corner at X, Y.
type Image struct {
	X, Y  int
	Image image.Image
}

// Render implements Renderer.
func (r *Image) Render(c *canvas.Canvas) error {
	c.DrawImage(r.X, r.Y, r.Image)
	return nil
}

// Name implements Named.
func (r *Image) Name() string { return "image" }

// Text draws colored text spans. A nil Font selects font.Default().
type Text struct {
	X, Y  int
	Spans []canvas.Span
	Font  *font.Font
}

// NewText creates a single-color text renderer.
func NewText(x, y int, text string, col palette.MapColor, f *font.Font) *Text {
	return &Text{X: x, Y: y, Spans: []canvas.Span{{Text: text, Color: col}}, Font: f}
}

// Render implements Renderer.
func (r *Text) Render(c *canvas.Canvas) error {
	return c.DrawSpans(r.X, r.Y, r.Spans, r.Font)
}

// Name implements Named.
func (r *Text) Name() string { return "text" }

// Group runs its renderers in order as one layer. The first failure stops
// the group. Like Func, a Group is not comparable: use Pipeline.RemoveAt to
// take it out of a pipeline.
type Group []Renderer

// Render implements Renderer.
func (g Group) Render(c *canvas.Canvas) error {
	for i, r := range g {
		if err := r.Render(c); err != nil {
			return fmt.Errorf("group member %d (%s): %w", i, NameOf(r), err)
		}
	}
	return nil
}

// Name implements Named.
func (g Group) Name() string { return fmt.Sprintf("group[%d]", len(g)) }
