package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/mapcast/internal/maperr"
	"github.com/dshills/mapcast/internal/palette"
	"github.com/dshills/mapcast/internal/protocol"
)

// Errors returned while applying frames.
var (
	ErrNoHello       = fmt.Errorf("update before hello: %w", maperr.ErrInvalidState)
	ErrWrongView     = fmt.Errorf("update for another view: %w", maperr.ErrInvalidArgument)
	ErrRectOutOfView = fmt.Errorf("update rectangle outside the view: %w", maperr.ErrOutOfBounds)
)

// RemoteError is an error frame sent by the server.
type RemoteError struct {
	Code    uint8
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// MirrorStats counts applied frames.
type MirrorStats struct {
	Updates     int
	FullUpdates int
	Palettes    int
	Pixels      int
}

// Mirror is the viewer side copy of a map view.
type Mirror struct {
	mu             sync.RWMutex
	viewID         string
	width, height  int
	pixels         []uint8
	table          [palette.MaxEntries]palette.Color
	paletteVersion uint32
	cursors        []protocol.CursorRecord
	stats          MirrorStats
}

// NewMirror returns an empty mirror waiting for a hello frame.
func NewMirror() *Mirror {
	return &Mirror{}
}

// Apply updates the mirror from one server frame. Error frames are returned
// as *RemoteError.
func (m *Mirror) Apply(f *protocol.Frame) error {
	switch f.Type {
	case protocol.TypeHello:
		h, err := protocol.DecodeHello(f)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.viewID = h.ViewID
		m.width, m.height = int(h.Width), int(h.Height)
		m.pixels = make([]uint8, m.width*m.height)
		m.cursors = nil
		m.mu.Unlock()
		return nil

	case protocol.TypePalette:
		ps, err := protocol.DecodePalette(f)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.table = ps.Table()
		m.paletteVersion = ps.Version
		m.stats.Palettes++
		m.mu.Unlock()
		return nil

	case protocol.TypeUpdate:
		u, err := protocol.DecodeUpdate(f)
		if err != nil {
			return err
		}
		return m.applyUpdate(u)

	case protocol.TypeError:
		e, err := protocol.DecodeError(f)
		if err != nil {
			return err
		}
		return &RemoteError{Code: e.Code, Message: e.Message}

	case protocol.TypePing:
		return nil

	default:
		return fmt.Errorf("%w: %s", protocol.ErrWrongType, f.Type)
	}
}

func (m *Mirror) applyUpdate(u *protocol.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pixels == nil {
		return ErrNoHello
	}
	if u.ViewID != m.viewID {
		return fmt.Errorf("%w: %s", ErrWrongView, u.ViewID)
	}
	if err := u.Rect.Validate(m.width, m.height); err != nil {
		return errors.Join(ErrRectOutOfView, err)
	}

	w := u.Rect.Width()
	for y := u.Rect.MinY; y <= u.Rect.MaxY; y++ {
		row := u.Pixels[(y-u.Rect.MinY)*w : (y-u.Rect.MinY+1)*w]
		copy(m.pixels[y*m.width+u.Rect.MinX:], row)
	}
	m.cursors = append(m.cursors[:0], u.Cursors...)

	m.stats.Updates++
	if u.Full {
		m.stats.FullUpdates++
	}
	m.stats.Pixels += len(u.Pixels)
	return nil
}

// ViewID returns the id from the hello frame.
func (m *Mirror) ViewID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewID
}

// Size returns the view size, zero before the hello frame.
func (m *Mirror) Size() (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.width, m.height
}

// Index returns the palette index at x, y.
func (m *Mirror) Index(x, y int) (uint8, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return 0, false
	}
	return m.pixels[y*m.width+x], true
}

// Color returns the displayed color at x, y. The second result is false for
// transparent or out of range pixels.
func (m *Mirror) Color(x, y int) (palette.Color, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return palette.Color{}, false
	}
	i := m.pixels[y*m.width+x]
	if i == 0 {
		return palette.Color{}, false
	}
	return m.table[i], true
}

// Cursors returns the cursors of the last update.
func (m *Mirror) Cursors() []protocol.CursorRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]protocol.CursorRecord(nil), m.cursors...)
}

// PaletteVersion returns the version of the last palette frame.
func (m *Mirror) PaletteVersion() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paletteVersion
}

// Stats returns the frame counters.
func (m *Mirror) Stats() MirrorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}
