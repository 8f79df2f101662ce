package canvas

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/mapcast/internal/font"
	"github.com/dshills/mapcast/internal/palette"
)

// ColorCode starts an inline color change in ParseColorCodes input:
// "§<index>;" switches to the palette color with that index.
const ColorCode = '§'

// Span is a run of text drawn in one color.
type Span struct {
	Text  string
	Color palette.MapColor
}

// ParseColorCodes splits s into spans at "§<index>;" color codes. Text before
// the first code uses initial. "§§" is a literal '§'.
func ParseColorCodes(p *palette.Palette, s string, initial palette.MapColor) ([]Span, error) {
	var spans []Span
	var sb strings.Builder
	current := initial

	flush := func() {
		if sb.Len() > 0 {
			spans = append(spans, Span{Text: sb.String(), Color: current})
			sb.Reset()
		}
	}

	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] != ColorCode {
			sb.WriteRune(rs[i])
			continue
		}
		if i+1 < len(rs) && rs[i+1] == ColorCode {
			sb.WriteRune(ColorCode)
			i++
			continue
		}
		end := i + 1
		for end < len(rs) && rs[end] != ';' {
			end++
		}
		if end >= len(rs) {
			return nil, fmt.Errorf("%w: unterminated color code at %d", ErrUnknownIndex, i)
		}
		n, err := strconv.Atoi(string(rs[i+1 : end]))
		if err != nil {
			return nil, fmt.Errorf("%w: color code %q", ErrUnknownIndex, string(rs[i+1:end]))
		}
		c, err := p.ByIndex(n)
		if err != nil {
			return nil, fmt.Errorf("color code %d: %w", n, err)
		}
		flush()
		current = c
		i = end
	}
	flush()
	return spans, nil
}

type placedGlyph struct {
	x, y  int
	glyph *font.Glyph
	color uint8
}

// DrawText draws text in a single color. See DrawSpans.
func (c *Canvas) DrawText(x, y int, text string, f *font.Font, col palette.MapColor) error {
	return c.DrawSpans(x, y, []Span{{Text: text, Color: col}}, f)
}

// DrawSpans rasters glyphs left to right with the top-left of the first glyph
// at (x, y). A line break moves to the next text line at the original x.
// Drawing stops at the first glyph that would not fully fit on the canvas.
// Every glyph reached before that point must exist in f, otherwise nothing is
// drawn and an error wrapping font.ErrMissingGlyph is returned.
func (c *Canvas) DrawSpans(x, y int, spans []Span, f *font.Font) error {
	if f == nil {
		f = font.Default()
	}

	layout, err := c.layoutText(x, y, spans, f)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pg := range layout {
		g := pg.glyph
		for gy := 0; gy < g.Height(); gy++ {
			row := (pg.y + gy) * c.width
			for gx := 0; gx < g.Width(); gx++ {
				if g.Set(gx, gy) {
					c.pix[row+pg.x+gx] = pg.color
				}
			}
		}
	}
	return nil
}

// layoutText places glyphs up to the clip point without touching pixels.
func (c *Canvas) layoutText(x, y int, spans []Span, f *font.Font) ([]placedGlyph, error) {
	var out []placedGlyph
	cx, cy := x, y

	for _, span := range spans {
		gr := uniseg.NewGraphemes(norm.NFC.String(span.Text))
		for gr.Next() {
			runes := gr.Runes()
			if runes[0] == '\n' || (runes[0] == '\r' && len(runes) > 1) {
				cx = x
				cy += f.Height() + 1
				continue
			}

			g, ok := f.Glyph(runes[0])
			if !ok {
				return nil, fmt.Errorf("drawText %q in font %s: %w", runes[0], f.Name(), font.ErrMissingGlyph)
			}
			if cx < 0 || cy < 0 || cx+g.Width() > c.width || cy+g.Height() > c.height {
				return out, nil
			}
			out = append(out, placedGlyph{x: cx, y: cy, glyph: g, color: span.Color.Index()})
			cx += g.Width() + f.Spacing()
		}
	}
	return out, nil
}
