// Package dirty tracks which pixels of a canvas changed since they were last
// sent, so updates only carry the minimal bounding rectangle.
package dirty

import (
	"fmt"

	"github.com/dshills/mapcast/internal/maperr"
)

// Rect is an inclusive pixel rectangle [MinX,MaxX] x [MinY,MaxY].
// A Rect with MaxX < MinX or MaxY < MinY is empty.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Empty is the canonical empty rectangle.
var Empty = Rect{MinX: 0, MinY: 0, MaxX: -1, MaxY: -1}

// NewRect creates a rectangle from two corners in any order.
func NewRect(x0, y0, x1, y1 int) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1}
}

// Full returns the rectangle covering a width x height canvas.
func Full(width, height int) Rect {
	return Rect{MinX: 0, MinY: 0, MaxX: width - 1, MaxY: height - 1}
}

// IsEmpty returns true if the rectangle covers no pixel.
func (r Rect) IsEmpty() bool {
	return r.MaxX < r.MinX || r.MaxY < r.MinY
}

// Width returns the number of columns covered.
func (r Rect) Width() int {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxX - r.MinX + 1
}

// Height returns the number of rows covered.
func (r Rect) Height() int {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxY - r.MinY + 1
}

// Area returns the number of pixels covered.
func (r Rect) Area() int {
	return r.Width() * r.Height()
}

// Contains returns true if the rectangle contains the pixel.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Union returns the smallest rectangle containing both.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rect{
		MinX: min(r.MinX, other.MinX),
		MinY: min(r.MinY, other.MinY),
		MaxX: max(r.MaxX, other.MaxX),
		MaxY: max(r.MaxY, other.MaxY),
	}
}

// Validate checks 0 <= Min <= Max < (width, height) on both axes.
func (r Rect) Validate(width, height int) error {
	if r.MinX < 0 || r.MinY < 0 || r.MinX >= width || r.MinY >= height {
		return maperr.NewBoundsError("rect min", r.MinX, r.MinY, width, height)
	}
	if r.MaxX >= width || r.MaxY >= height {
		return maperr.NewBoundsError("rect max", r.MaxX, r.MaxY, width, height)
	}
	if r.IsEmpty() {
		return fmt.Errorf("rect min %s past max: %w", r, maperr.ErrOutOfBounds)
	}
	return nil
}

// String implements fmt.Stringer.
func (r Rect) String() string {
	return fmt.Sprintf("[(%d,%d)-(%d,%d)]", r.MinX, r.MinY, r.MaxX, r.MaxY)
}

// Diff returns the bounding rectangle of the pixels that differ between two
// row-major snapshots of the same width. It returns Empty when they match.
func Diff(prev, cur []uint8, width int) Rect {
	if width <= 0 || len(prev) != len(cur) {
		if width > 0 && len(cur) > 0 {
			return Full(width, len(cur)/width)
		}
		return Empty
	}

	out := Empty
	height := len(cur) / width
	for y := 0; y < height; y++ {
		row := y * width
		first := -1
		last := -1
		for x := 0; x < width; x++ {
			if prev[row+x] != cur[row+x] {
				if first < 0 {
					first = x
				}
				last = x
			}
		}
		if first >= 0 {
			out = out.Union(Rect{MinX: first, MinY: y, MaxX: last, MaxY: y})
		}
	}
	return out
}
