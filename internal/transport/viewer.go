package transport

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Viewer is one subscriber to a map view. Frames queued for it are written
// by its connection's write loop.
type Viewer struct {
	ID     uuid.UUID
	ViewID string

	send chan []byte

	paletteVersion atomic.Uint32
	needsResync    atomic.Bool
	dropped        atomic.Uint64

	closeCh   chan struct{}
	closeOnce sync.Once
}

func newViewer(viewID string, queueSize int) *Viewer {
	return &Viewer{
		ID:      uuid.New(),
		ViewID:  viewID,
		send:    make(chan []byte, queueSize),
		closeCh: make(chan struct{}),
	}
}

// enqueue queues an encoded frame without blocking. It returns false when
// the queue is full or the viewer is closed.
func (v *Viewer) enqueue(frame []byte) bool {
	select {
	case <-v.closeCh:
		return false
	default:
	}
	select {
	case v.send <- frame:
		return true
	default:
		v.dropped.Add(1)
		return false
	}
}

// Frames returns the outbound frame queue.
func (v *Viewer) Frames() <-chan []byte { return v.send }

// Done is closed when the viewer is closed.
func (v *Viewer) Done() <-chan struct{} { return v.closeCh }

// Dropped returns the number of frames dropped on a full queue.
func (v *Viewer) Dropped() uint64 { return v.dropped.Load() }

// PaletteVersion returns the palette version the viewer was last sent.
func (v *Viewer) PaletteVersion() uint32 { return v.paletteVersion.Load() }

// Close stops delivery to the viewer. It is safe to call more than once.
func (v *Viewer) Close() {
	v.closeOnce.Do(func() {
		close(v.closeCh)
	})
}
