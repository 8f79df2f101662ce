package dirty

import (
	"sync"
)

// Tracker remembers the last snapshot sent automatically and trickles the
// difference out a bounded number of rows at a time.
//
// Only rows passed to Commit count as sent. Rows that were dirty but not
// committed stay dirty for the next Next call. Next resumes after the last
// committed row and wraps to the top, so a row that changes on every redraw
// cannot hold back the rows below it: every dirty row is offered within
// ceil(height/rowsPerTick) committed ticks.
type Tracker struct {
	mu sync.Mutex

	width  int
	height int

	// sent is the last committed state of every pixel.
	sent []uint8

	// forced holds, per row, the columns to resend even if unchanged.
	forced []span

	// cursor is the row Next resumes from.
	cursor int

	// rowsPerTick bounds the rows returned by Next. Zero means unbounded.
	rowsPerTick int

	stats Stats
}

// span is an inclusive column range; min > max means none.
type span struct {
	min, max int
}

var noSpan = span{min: 0, max: -1}

func (s span) empty() bool { return s.min > s.max }

func (s span) union(o span) span {
	switch {
	case s.empty():
		return o
	case o.empty():
		return s
	}
	return span{min: min(s.min, o.min), max: max(s.max, o.max)}
}

// Stats counts the work a tracker has committed.
type Stats struct {
	Commits      int
	RowsSent     int
	PixelsSent   int
	FullResyncs  int
	PendingAfter bool
}

// NewTracker creates a tracker for a width x height canvas. The initial sent
// state is all AIR, matching a blank viewer.
func NewTracker(width, height, rowsPerTick int) *Tracker {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if rowsPerTick < 0 {
		rowsPerTick = 0
	}
	t := &Tracker{
		width:       width,
		height:      height,
		sent:        make([]uint8, width*height),
		forced:      make([]span, height),
		rowsPerTick: rowsPerTick,
	}
	t.clearForced()
	return t
}

func (t *Tracker) clearForced() {
	for y := range t.forced {
		t.forced[y] = noSpan
	}
}

// SetRowsPerTick changes the row budget of Next. Zero means unbounded.
func (t *Tracker) SetRowsPerTick(n int) {
	if n < 0 {
		n = 0
	}
	t.mu.Lock()
	t.rowsPerTick = n
	t.mu.Unlock()
}

// RowsPerTick returns the row budget of Next.
func (t *Tracker) RowsPerTick() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rowsPerTick
}

// MarkRect forces r to be resent even if its pixels did not change.
func (t *Tracker) MarkRect(r Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r.IsEmpty() {
		return
	}
	r = r.clip(t.width, t.height)
	if r.IsEmpty() {
		return
	}
	for y := r.MinY; y <= r.MaxY; y++ {
		t.forced[y] = t.forced[y].union(span{min: r.MinX, max: r.MaxX})
	}
}

// MarkFull forces the whole canvas to be resent.
func (t *Tracker) MarkFull() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for y := range t.forced {
		t.forced[y] = span{min: 0, max: t.width - 1}
	}
	t.stats.FullResyncs++
}

// MarkDirty forces the columns where cur differs from the last commit to be
// resent, even if they later change back. A viewer handed cur as its full
// image then converges with the others through Next and Commit.
func (t *Tracker) MarkDirty(cur []uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for y := 0; y < t.height; y++ {
		t.forced[y] = t.rowSpan(cur, y)
	}
}

// rowSpan returns the columns of row y to send: the pixels that differ from
// the last commit plus any forced columns.
func (t *Tracker) rowSpan(cur []uint8, y int) span {
	if len(cur) != len(t.sent) {
		return span{min: 0, max: t.width - 1}
	}
	row := y * t.width
	d := Diff(t.sent[row:row+t.width], cur[row:row+t.width], t.width)
	if d.IsEmpty() {
		return t.forced[y]
	}
	return span{min: d.MinX, max: d.MaxX}.union(t.forced[y])
}

func (t *Tracker) dirtyLocked(cur []uint8) Rect {
	out := Empty
	for y := 0; y < t.height; y++ {
		if s := t.rowSpan(cur, y); !s.empty() {
			out = out.Union(Rect{MinX: s.min, MinY: y, MaxX: s.max, MaxY: y})
		}
	}
	return out
}

// Dirty returns the full dirty rectangle of cur, without the row budget.
func (t *Tracker) Dirty(cur []uint8) Rect {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirtyLocked(cur)
}

// Next returns the next rectangle to send for cur. It starts at the first
// dirty row at or after the resume row, wrapping to the top, and covers at
// most rowsPerTick rows. The second result is false when nothing is dirty.
func (t *Tracker) Next(cur []uint8) (Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.height == 0 || t.width == 0 {
		return Empty, false
	}

	start := -1
	for i := 0; i < t.height; i++ {
		y := (t.cursor + i) % t.height
		if !t.rowSpan(cur, y).empty() {
			start = y
			break
		}
	}
	if start < 0 {
		return Empty, false
	}

	end := t.height - 1
	if t.rowsPerTick > 0 {
		end = min(start+t.rowsPerTick-1, end)
	}
	cols := noSpan
	last := start
	for y := start; y <= end; y++ {
		if s := t.rowSpan(cur, y); !s.empty() {
			cols = cols.union(s)
			last = y
		}
	}
	return Rect{MinX: cols.min, MinY: start, MaxX: cols.max, MaxY: last}, true
}

// Commit records that the pixels of cur inside r were delivered. The next
// call to Next resumes below r.
func (t *Tracker) Commit(cur []uint8, r Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r.IsEmpty() || len(cur) != len(t.sent) || t.height == 0 {
		return
	}
	r = r.clip(t.width, t.height)
	if r.IsEmpty() {
		return
	}
	for y := r.MinY; y <= r.MaxY; y++ {
		start := y*t.width + r.MinX
		end := y*t.width + r.MaxX + 1
		copy(t.sent[start:end], cur[start:end])

		if f := t.forced[y]; !f.empty() && r.MinX <= f.min && r.MaxX >= f.max {
			t.forced[y] = noSpan
		}
	}
	t.cursor = (r.MaxY + 1) % t.height

	t.stats.Commits++
	t.stats.RowsSent += r.Height()
	t.stats.PixelsSent += r.Area()
	t.stats.PendingAfter = !t.dirtyLocked(cur).IsEmpty()
}

// Reset forgets everything sent, as if every viewer were blank again.
func (t *Tracker) Reset() {
	t.mu.Lock()
	clear(t.sent)
	t.clearForced()
	t.cursor = 0
	t.mu.Unlock()
}

// Stats returns a copy of the tracker statistics.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func (r Rect) clip(width, height int) Rect {
	return Rect{
		MinX: max(r.MinX, 0),
		MinY: max(r.MinY, 0),
		MaxX: min(r.MaxX, width-1),
		MaxY: min(r.MaxY, height-1),
	}
}
