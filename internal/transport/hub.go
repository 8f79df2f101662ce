// Package transport delivers map updates to remote viewers.
//
// The Hub keeps a bounded send queue per viewer. Delivery never blocks the
// caller: a full queue drops the frame, logs it and flags the viewer for a
// full resync. Before any update, a viewer whose palette is older than the
// engine palette gets a palette frame queued first, so every index it
// receives resolves. Connections are served over websockets behind a chi
// router.
package transport

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/palette"
	"github.com/dshills/mapcast/internal/protocol"
)

// DefaultQueueSize is the per viewer send queue length.
const DefaultQueueSize = 64

// HubStats holds delivery counters.
type HubStats struct {
	Viewers   int
	Delivered uint64
	Dropped   uint64
	Palettes  uint64
}

// Hub routes frames to subscribed viewers.
type Hub struct {
	mu      sync.RWMutex
	viewers map[uuid.UUID]*Viewer
	byView  map[string]map[uuid.UUID]*Viewer

	palette   *palette.Palette
	queueSize int
	log       *logging.Logger

	delivered atomic.Uint64
	dropped   atomic.Uint64
	palettes  atomic.Uint64
}

// NewHub creates a hub sending palette frames for p.
func NewHub(p *palette.Palette, queueSize int, log *logging.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		viewers:   make(map[uuid.UUID]*Viewer),
		byView:    make(map[string]map[uuid.UUID]*Viewer),
		palette:   p,
		queueSize: queueSize,
		log:       logging.OrDefault(log).WithComponent("hub"),
	}
}

// Subscribe registers a viewer of viewID. hello, a palette frame and full
// are queued, in that order, ahead of anything delivered afterwards. Nil
// hello or full are skipped.
func (h *Hub) Subscribe(viewID string, hello *protocol.Hello, full *protocol.Update) (*Viewer, error) {
	v := newViewer(viewID, h.queueSize)

	var first []byte
	if hello != nil {
		f, err := hello.Encode()
		if err != nil {
			return nil, err
		}
		if first, err = f.MarshalBinary(); err != nil {
			return nil, err
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if first != nil {
		v.enqueue(first)
	}
	if full != nil {
		h.deliverLocked(v, full, nil)
	} else {
		h.syncPalette(v)
	}

	h.viewers[v.ID] = v
	if h.byView[viewID] == nil {
		h.byView[viewID] = make(map[uuid.UUID]*Viewer)
	}
	h.byView[viewID][v.ID] = v
	h.log.Debug("viewer %s subscribed to %s", v.ID, viewID)
	return v, nil
}

// Unsubscribe removes and closes the viewer.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, ok := h.viewers[id]
	if !ok {
		return
	}
	delete(h.viewers, id)
	if set := h.byView[v.ViewID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(h.byView, v.ViewID)
		}
	}
	v.Close()
	h.log.Debug("viewer %s unsubscribed from %s", id, v.ViewID)
}

// Viewer returns the viewer with the given id.
func (h *Hub) Viewer(id uuid.UUID) (*Viewer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.viewers[id]
	return v, ok
}

// Subscribers returns the ids of the viewers of viewID.
func (h *Hub) Subscribers(viewID string) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.byView[viewID]
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Deliver queues u for every target and returns how many accepted it.
// Unknown targets are skipped.
func (h *Hub) Deliver(targets []uuid.UUID, u *protocol.Update) int {
	f, err := u.Encode()
	if err != nil {
		h.log.Error("encode update for %s: %v", u.ViewID, err)
		return 0
	}
	frame, err := f.MarshalBinary()
	if err != nil {
		h.log.Error("encode update for %s: %v", u.ViewID, err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, id := range targets {
		v, ok := h.viewers[id]
		if !ok {
			continue
		}
		if h.deliverLocked(v, u, frame) {
			n++
		}
	}
	return n
}

// deliverLocked queues the palette when stale, then the update. frame is
// the encoded update, built here when nil.
func (h *Hub) deliverLocked(v *Viewer, u *protocol.Update, frame []byte) bool {
	if !h.syncPalette(v) {
		h.drop(v, u)
		return false
	}
	if frame == nil {
		f, err := u.Encode()
		if err != nil {
			h.log.Error("encode update for %s: %v", u.ViewID, err)
			return false
		}
		if frame, err = f.MarshalBinary(); err != nil {
			h.log.Error("encode update for %s: %v", u.ViewID, err)
			return false
		}
	}
	if !v.enqueue(frame) {
		h.drop(v, u)
		return false
	}
	h.delivered.Add(1)
	return true
}

// syncPalette queues a palette frame when the viewer's palette is stale.
func (h *Hub) syncPalette(v *Viewer) bool {
	if h.palette == nil {
		return true
	}
	version := h.palette.Version()
	if v.paletteVersion.Load() >= version {
		return true
	}

	ps := protocol.PaletteSyncFrom(h.palette)
	f, err := ps.Encode()
	if err != nil {
		h.log.Error("encode palette: %v", err)
		return false
	}
	b, err := f.MarshalBinary()
	if err != nil {
		h.log.Error("encode palette: %v", err)
		return false
	}
	if !v.enqueue(b) {
		return false
	}
	v.paletteVersion.Store(ps.Version)
	h.palettes.Add(1)
	return true
}

func (h *Hub) drop(v *Viewer, u *protocol.Update) {
	h.dropped.Add(1)
	if !v.needsResync.Swap(true) {
		h.log.Warn("viewer %s queue full, dropped update %s for %s", v.ID, u.Rect, u.ViewID)
	}
}

// SendFrame queues a frame for one viewer.
func (h *Hub) SendFrame(id uuid.UUID, f *protocol.Frame) bool {
	b, err := f.MarshalBinary()
	if err != nil {
		h.log.Error("encode %s: %v", f.Type, err)
		return false
	}
	h.mu.RLock()
	v, ok := h.viewers[id]
	h.mu.RUnlock()
	return ok && v.enqueue(b)
}

// TakeResyncs returns the viewers that dropped an update since the last
// call and clears their flag. Each needs a full update.
func (h *Hub) TakeResyncs() []*Viewer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Viewer
	for _, v := range h.viewers {
		if v.needsResync.Swap(false) {
			out = append(out, v)
		}
	}
	return out
}

// Resync queues a full update for one viewer, retrying the flag on failure.
func (h *Hub) Resync(v *Viewer, full *protocol.Update) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.viewers[v.ID]; !ok {
		return false
	}
	return h.deliverLocked(v, full, nil)
}

// CloseView unsubscribes every viewer of viewID, sending them code first.
// A message that cannot be encoded is logged and the viewers are closed
// without it.
func (h *Hub) CloseView(viewID string, code uint8, msg string) {
	h.mu.Lock()
	set := h.byView[viewID]
	delete(h.byView, viewID)
	var closed []*Viewer
	for id, v := range set {
		delete(h.viewers, id)
		closed = append(closed, v)
	}
	h.mu.Unlock()

	f := (&protocol.ErrorMessage{Code: code, Message: msg}).Encode()
	b, err := f.MarshalBinary()
	if err != nil {
		h.log.Error("encode %s for %s: %v", f.Type, viewID, err)
	}
	for _, v := range closed {
		if err == nil {
			v.enqueue(b)
		}
		v.Close()
	}
}

// Close unsubscribes every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, v := range h.viewers {
		v.Close()
		delete(h.viewers, id)
	}
	clear(h.byView)
}

// Stats returns a snapshot of the delivery counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	n := len(h.viewers)
	h.mu.RUnlock()
	return HubStats{
		Viewers:   n,
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
		Palettes:  h.palettes.Load(),
	}
}
