package canvas

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/dshills/mapcast/internal/maperr"
	"github.com/dshills/mapcast/internal/palette"
)

// MaxSize is the largest width or height a canvas may have.
const MaxSize = 1<<16 - 1

// Canvas is a width x height grid of palette indices.
type Canvas struct {
	mu sync.RWMutex

	width  int
	height int
	pix    []uint8

	palette *palette.Palette
	matcher palette.Matcher
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithMatcher sets the matcher used by SetPixelMatched and DrawImage.
// The default is the palette's nearest-color matcher.
func WithMatcher(m palette.Matcher) Option {
	return func(c *Canvas) {
		if m != nil {
			c.matcher = m
		}
	}
}

// New creates a canvas filled with AIR.
func New(width, height int, p *palette.Palette, opts ...Option) (*Canvas, error) {
	if width <= 0 || height <= 0 || width > MaxSize || height > MaxSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: nil palette", maperr.ErrInvalidArgument)
	}
	c := &Canvas{
		width:   width,
		height:  height,
		pix:     make([]uint8, width*height),
		palette: p,
		matcher: p,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Width returns the canvas width.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height.
func (c *Canvas) Height() int { return c.height }

// Bounds returns the canvas rectangle anchored at the origin.
func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.width, c.height)
}

// Palette returns the palette pixel indices refer to.
func (c *Canvas) Palette() *palette.Palette { return c.palette }

// Matcher returns the matcher used for RGB input.
func (c *Canvas) Matcher() palette.Matcher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.matcher
}

// SetMatcher replaces the matcher used for RGB input.
func (c *Canvas) SetMatcher(m palette.Matcher) {
	if m == nil {
		m = c.palette
	}
	c.mu.Lock()
	c.matcher = m
	c.mu.Unlock()
}

func (c *Canvas) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.width && y < c.height
}

// SetPixel sets the pixel at (x, y) to color.
func (c *Canvas) SetPixel(x, y int, col palette.MapColor) error {
	if !c.inBounds(x, y) {
		return maperr.NewBoundsError("setPixel", x, y, c.width, c.height)
	}
	c.mu.Lock()
	c.pix[y*c.width+x] = col.Index()
	c.mu.Unlock()
	return nil
}

// SetPixelMatched sets the pixel at (x, y) to the palette color the canvas
// matcher picks for rgb.
func (c *Canvas) SetPixelMatched(x, y int, rgb palette.Color) error {
	if !c.inBounds(x, y) {
		return maperr.NewBoundsError("setPixelMatched", x, y, c.width, c.height)
	}
	return c.SetPixel(x, y, c.Matcher().Match(rgb))
}

// SetIndex sets the pixel at (x, y) to a raw palette index.
func (c *Canvas) SetIndex(x, y int, index uint8) error {
	if !c.inBounds(x, y) {
		return maperr.NewBoundsError("setIndex", x, y, c.width, c.height)
	}
	if int(index) >= c.palette.Len() {
		return fmt.Errorf("%w: %d", ErrUnknownIndex, index)
	}
	c.mu.Lock()
	c.pix[y*c.width+x] = index
	c.mu.Unlock()
	return nil
}

// GetPixel returns the color at (x, y). Unset pixels read as AIR.
func (c *Canvas) GetPixel(x, y int) (palette.MapColor, error) {
	idx, err := c.Index(x, y)
	if err != nil {
		return palette.MapColor{}, err
	}
	return c.palette.ByIndex(int(idx))
}

// Index returns the raw palette index at (x, y).
func (c *Canvas) Index(x, y int) (uint8, error) {
	if !c.inBounds(x, y) {
		return 0, maperr.NewBoundsError("getPixel", x, y, c.width, c.height)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pix[y*c.width+x], nil
}

// Fill sets every pixel to col.
func (c *Canvas) Fill(col palette.MapColor) {
	idx := col.Index()
	c.mu.Lock()
	for i := range c.pix {
		c.pix[i] = idx
	}
	c.mu.Unlock()
}

// Clear resets every pixel to AIR.
func (c *Canvas) Clear() {
	c.mu.Lock()
	clear(c.pix)
	c.mu.Unlock()
}

// FillRect sets every pixel of r, clipped to the canvas, to col.
func (c *Canvas) FillRect(r image.Rectangle, col palette.MapColor) {
	r = r.Canon().Intersect(c.Bounds())
	if r.Empty() {
		return
	}
	idx := col.Index()
	c.mu.Lock()
	defer c.mu.Unlock()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := c.pix[y*c.width : (y+1)*c.width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = idx
		}
	}
}

// DrawImage blits img with its top-left corner at (x, y). The parts of img
// outside the canvas are clipped. Fully transparent source pixels leave the
// canvas untouched; every other pixel is matched to the palette.
func (c *Canvas) DrawImage(x, y int, img image.Image) {
	if img == nil {
		return
	}
	src := img.Bounds()
	dst := image.Rect(x, y, x+src.Dx(), y+src.Dy()).Intersect(c.Bounds())
	if dst.Empty() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for py := dst.Min.Y; py < dst.Max.Y; py++ {
		sy := src.Min.Y + py - y
		for px := dst.Min.X; px < dst.Max.X; px++ {
			sx := src.Min.X + px - x
			rgb, opaque := palette.FromStd(img.At(sx, sy))
			if !opaque {
				continue
			}
			c.pix[py*c.width+px] = c.matcher.Match(rgb).Index()
		}
	}
}

// ToImage renders the canvas to an RGBA image. AIR becomes fully
// transparent. The canvas is not modified.
func (c *Canvas) ToImage() *image.NRGBA {
	out := image.NewNRGBA(c.Bounds())

	c.mu.RLock()
	defer c.mu.RUnlock()

	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			rgb, opaque := c.palette.RGB(c.pix[y*c.width+x])
			if !opaque {
				continue
			}
			out.SetNRGBA(x, y, color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 0xff})
		}
	}
	return out
}

// Snapshot returns a copy of every pixel index in row-major order.
func (c *Canvas) Snapshot() []uint8 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]uint8, len(c.pix))
	copy(out, c.pix)
	return out
}

// Region returns the row-major indices of the inclusive rectangle
// [minX,maxX] x [minY,maxY].
func (c *Canvas) Region(minX, minY, maxX, maxY int) ([]uint8, error) {
	if !c.inBounds(minX, minY) {
		return nil, maperr.NewBoundsError("region", minX, minY, c.width, c.height)
	}
	if !c.inBounds(maxX, maxY) {
		return nil, maperr.NewBoundsError("region", maxX, maxY, c.width, c.height)
	}
	if maxX < minX || maxY < minY {
		return nil, fmt.Errorf("region min (%d,%d) past max (%d,%d): %w", minX, minY, maxX, maxY, maperr.ErrOutOfBounds)
	}

	w := maxX - minX + 1
	out := make([]uint8, 0, w*(maxY-minY+1))

	c.mu.RLock()
	defer c.mu.RUnlock()
	for y := minY; y <= maxY; y++ {
		start := y*c.width + minX
		out = append(out, c.pix[start:start+w]...)
	}
	return out, nil
}

// CopyFrom replaces this canvas' pixels with those of src. Both canvases must
// have the same size.
func (c *Canvas) CopyFrom(src *Canvas) error {
	if src.width != c.width || src.height != c.height {
		return fmt.Errorf("%w: copy %dx%d onto %dx%d", ErrInvalidSize, src.width, src.height, c.width, c.height)
	}
	pix := src.Snapshot()
	c.mu.Lock()
	copy(c.pix, pix)
	c.mu.Unlock()
	return nil
}

// MarshalBinary encodes the canvas as width:2, height:2 then the pixels.
func (c *Canvas) MarshalBinary() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	buf := make([]byte, 4, 4+len(c.pix))
	binary.BigEndian.PutUint16(buf[0:2], uint16(c.width))
	binary.BigEndian.PutUint16(buf[2:4], uint16(c.height))
	return append(buf, c.pix...), nil
}

// UnmarshalBinary restores pixels written by MarshalBinary. The encoded size
// must match the canvas and every index must be known to the palette.
func (c *Canvas) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: short header", ErrCorrupt)
	}
	w := int(binary.BigEndian.Uint16(data[0:2]))
	h := int(binary.BigEndian.Uint16(data[2:4]))
	if w != c.width || h != c.height {
		return fmt.Errorf("%w: size %dx%d, canvas is %dx%d", ErrCorrupt, w, h, c.width, c.height)
	}
	pix := data[4:]
	if len(pix) != w*h {
		return fmt.Errorf("%w: %d pixels, want %d", ErrCorrupt, len(pix), w*h)
	}
	limit := c.palette.Len()
	for i, idx := range pix {
		if int(idx) >= limit {
			return fmt.Errorf("%w: pixel %d has index %d", ErrUnknownIndex, i, idx)
		}
	}

	c.mu.Lock()
	copy(c.pix, pix)
	c.mu.Unlock()
	return nil
}
