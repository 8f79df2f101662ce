package view

import (
	"github.com/google/uuid"

	"github.com/dshills/mapcast/internal/cursor"
	"github.com/dshills/mapcast/internal/dirty"
	"github.com/dshills/mapcast/internal/maperr"
	"github.com/dshills/mapcast/internal/protocol"
)

// Sender delivers updates to viewers. Deliver must not block: delivery is
// queued or dropped, never awaited.
type Sender interface {
	// Deliver queues u for every target and returns how many accepted it.
	Deliver(targets []uuid.UUID, u *protocol.Update) int

	// Subscribers returns the viewers currently watching viewID.
	Subscribers(viewID string) []uuid.UUID
}

type discard struct{}

func (discard) Deliver([]uuid.UUID, *protocol.Update) int { return 0 }
func (discard) Subscribers(string) []uuid.UUID           { return nil }

// Discard is a Sender with no viewers.
var Discard Sender = discard{}

// SendUpdate sends the inclusive rectangle r and the full cursor set to
// every target. The rectangle must satisfy 0 <= min <= max < size on both
// axes; otherwise nothing is sent. It does not touch automatic update
// tracking.
func (v *View) SendUpdate(targets []uuid.UUID, r dirty.Rect) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkActive(); err != nil {
		return err
	}
	if err := r.Validate(v.canvas.Width(), v.canvas.Height()); err != nil {
		return err
	}

	u, err := v.regionUpdateLocked(r)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}
	n := v.sender.Deliver(targets, u)
	v.log.Debug("manual update %s to %d/%d viewers", r, n, len(targets))
	return nil
}

// SendUpdateTo sends the rectangle r to a single viewer.
func (v *View) SendUpdateTo(target uuid.UUID, r dirty.Rect) error {
	return v.SendUpdate([]uuid.UUID{target}, r)
}

// FullUpdate returns an update covering the whole canvas, for viewers that
// just subscribed or need a resync.
func (v *View) FullUpdate() (*protocol.Update, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkActive(); err != nil {
		return nil, err
	}
	u, err := v.regionUpdateLocked(dirty.Full(v.canvas.Width(), v.canvas.Height()))
	if err != nil {
		return nil, err
	}
	u.Full = true
	return u, nil
}

// Attach hands fn a full update of the current canvas and runs it under the
// view write lock, so no automatic update is in flight while fn subscribes a
// new viewer. Rows where the canvas is ahead of the last automatic send stay
// dirty until a later tick delivers them to every subscriber.
func (v *View) Attach(fn func(full *protocol.Update) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.checkActive(); err != nil {
		return err
	}

	snap := v.canvas.Snapshot()
	v.tracker.MarkDirty(snap)
	return fn(&protocol.Update{
		ViewID:  v.id,
		Rect:    dirty.Full(v.canvas.Width(), v.canvas.Height()),
		Pixels:  snap,
		Cursors: cursorRecords(v.cursors.Snapshot()),
		Full:    true,
	})
}

func (v *View) regionUpdateLocked(r dirty.Rect) (*protocol.Update, error) {
	pixels, err := v.canvas.Region(r.MinX, r.MinY, r.MaxX, r.MaxY)
	if err != nil {
		return nil, err
	}
	return &protocol.Update{
		ViewID:  v.id,
		Rect:    r,
		Pixels:  pixels,
		Cursors: cursorRecords(v.cursors.Snapshot()),
	}, nil
}

// TickResult reports one automatic update step.
type TickResult struct {
	Rect      dirty.Rect // rows sent, Empty when nothing was sent
	Delivered int        // viewers that accepted the update
	Pending   bool       // dirty rows remain for later ticks
	Failures  []*maperr.RendererError
}

// Tick performs one automatic update: redraw, diff against the last
// automatically sent snapshot, and send at most the configured number of
// dirty rows to the subscribers, resuming below the rows sent last time.
// Rows are committed only when a subscriber
// accepted them, or when nobody is subscribed. Views with automatic updates
// disabled are left untouched.
func (v *View) Tick() (TickResult, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkActive(); err != nil {
		return TickResult{Rect: dirty.Empty}, err
	}
	if !v.settings.AutomaticUpdates {
		return TickResult{Rect: dirty.Empty}, nil
	}

	res := TickResult{Rect: dirty.Empty, Failures: v.redrawLocked()}

	snap := v.canvas.Snapshot()
	r, ok := v.tracker.Next(snap)
	if !ok {
		return res, nil
	}

	subs := v.sender.Subscribers(v.id)
	if len(subs) > 0 {
		u := &protocol.Update{
			ViewID:  v.id,
			Rect:    r,
			Pixels:  region(snap, v.canvas.Width(), r),
			Cursors: cursorRecords(v.cursors.Snapshot()),
		}
		res.Delivered = v.sender.Deliver(subs, u)
		if res.Delivered == 0 {
			res.Pending = true
			v.log.Warn("automatic update %s dropped by all %d viewers", r, len(subs))
			return res, nil
		}
		res.Rect = r
	}

	v.tracker.Commit(snap, r)
	res.Pending = v.tracker.Stats().PendingAfter
	return res, nil
}

// Resync makes the next automatic updates resend the whole canvas.
func (v *View) Resync() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkActive(); err != nil {
		return err
	}
	v.tracker.MarkFull()
	return nil
}

// SetRowsPerTick changes the automatic update row budget.
func (v *View) SetRowsPerTick(n int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state != StateDeleted {
		v.tracker.SetRowsPerTick(n)
	}
}

// TrackerStats returns the automatic update counters.
func (v *View) TrackerStats() dirty.Stats {
	return v.tracker.Stats()
}

func region(pix []uint8, width int, r dirty.Rect) []uint8 {
	out := make([]uint8, 0, r.Area())
	for y := r.MinY; y <= r.MaxY; y++ {
		start := y*width + r.MinX
		out = append(out, pix[start:start+r.Width()]...)
	}
	return out
}

func cursorRecords(cs []cursor.Cursor) []protocol.CursorRecord {
	out := make([]protocol.CursorRecord, len(cs))
	for i, c := range cs {
		out[i] = protocol.CursorRecord{Type: uint8(c.Type), X: uint16(c.X), Y: uint16(c.Y)}
	}
	return out
}
