package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/dshills/mapcast/internal/dirty"
	"github.com/dshills/mapcast/internal/palette"
)

// CursorRecord is one cursor as sent in an update.
type CursorRecord struct {
	Type uint8
	X, Y uint16
}

// Update carries a rectangle of palette indices and the full cursor set.
//
// Payload:
//
//	[idLen:1][id][minX:2][minY:2][maxX:2][maxY:2][pixels:w*h]
//	[cursorCount:2]{[type:1][x:2][y:2]}*
type Update struct {
	ViewID  string
	Rect    dirty.Rect
	Pixels  []uint8
	Cursors []CursorRecord
	Full    bool
}

// Encode builds the update frame.
func (u *Update) Encode() (*Frame, error) {
	if len(u.ViewID) > 255 {
		return nil, fmt.Errorf("%w: view id longer than 255 bytes", ErrMalformed)
	}
	if u.Rect.IsEmpty() || u.Rect.MinX < 0 || u.Rect.MinY < 0 || u.Rect.MaxX > 0xffff || u.Rect.MaxY > 0xffff {
		return nil, fmt.Errorf("%w: rect %s", ErrMalformed, u.Rect)
	}
	if len(u.Pixels) != u.Rect.Area() {
		return nil, fmt.Errorf("%w: %d pixels for %s", ErrMalformed, len(u.Pixels), u.Rect)
	}
	if len(u.Cursors) > 0xffff {
		return nil, fmt.Errorf("%w: %d cursors", ErrMalformed, len(u.Cursors))
	}

	size := 1 + len(u.ViewID) + 8 + len(u.Pixels) + 2 + 5*len(u.Cursors)
	buf := make([]byte, 0, size)
	buf = append(buf, byte(len(u.ViewID)))
	buf = append(buf, u.ViewID...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(u.Rect.MinX))
	buf = binary.BigEndian.AppendUint16(buf, uint16(u.Rect.MinY))
	buf = binary.BigEndian.AppendUint16(buf, uint16(u.Rect.MaxX))
	buf = binary.BigEndian.AppendUint16(buf, uint16(u.Rect.MaxY))
	buf = append(buf, u.Pixels...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(u.Cursors)))
	for _, c := range u.Cursors {
		buf = append(buf, c.Type)
		buf = binary.BigEndian.AppendUint16(buf, c.X)
		buf = binary.BigEndian.AppendUint16(buf, c.Y)
	}

	flags := FlagNone
	if u.Full {
		flags |= FlagFull
	}
	return &Frame{Type: TypeUpdate, Flags: flags, Payload: buf}, nil
}

// DecodeUpdate parses an update frame.
func DecodeUpdate(f *Frame) (*Update, error) {
	if f.Type != TypeUpdate {
		return nil, fmt.Errorf("%w: %s", ErrWrongType, f.Type)
	}
	r := &reader{buf: f.Payload}

	u := &Update{Full: f.Flags&FlagFull != 0}
	u.ViewID = string(r.take(int(r.u8())))
	u.Rect = dirty.Rect{
		MinX: int(r.u16()),
		MinY: int(r.u16()),
		MaxX: int(r.u16()),
		MaxY: int(r.u16()),
	}
	if r.err == nil && u.Rect.IsEmpty() {
		return nil, fmt.Errorf("%w: rect %s", ErrMalformed, u.Rect)
	}
	if px := r.take(u.Rect.Area()); px != nil {
		u.Pixels = append([]uint8(nil), px...)
	}

	n := int(r.u16())
	if r.err == nil {
		u.Cursors = make([]CursorRecord, 0, n)
	}
	for i := 0; i < n && r.err == nil; i++ {
		u.Cursors = append(u.Cursors, CursorRecord{Type: r.u8(), X: r.u16(), Y: r.u16()})
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return u, nil
}

// PaletteEntry is one palette index and its displayed color.
type PaletteEntry struct {
	Index   uint8
	R, G, B uint8
}

// PaletteSync carries the palette table up to Version.
//
// Payload:
//
//	[version:4][count:2]{[index:1][r:1][g:1][b:1]}*
//
// Index 0 is always transparent regardless of its color.
type PaletteSync struct {
	Version uint32
	Entries []PaletteEntry
}

// PaletteSyncFrom snapshots every issued index of p.
func PaletteSyncFrom(p *palette.Palette) *PaletteSync {
	all := p.All()
	ps := &PaletteSync{Version: uint32(len(all)), Entries: make([]PaletteEntry, len(all))}
	for i, c := range all {
		rgb := c.Color()
		ps.Entries[i] = PaletteEntry{Index: c.Index(), R: rgb.R, G: rgb.G, B: rgb.B}
	}
	return ps
}

// Encode builds the palette frame.
func (ps *PaletteSync) Encode() (*Frame, error) {
	if len(ps.Entries) > palette.MaxEntries {
		return nil, fmt.Errorf("%w: %d palette entries", ErrMalformed, len(ps.Entries))
	}
	buf := make([]byte, 0, 6+4*len(ps.Entries))
	buf = binary.BigEndian.AppendUint32(buf, ps.Version)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(ps.Entries)))
	for _, e := range ps.Entries {
		buf = append(buf, e.Index, e.R, e.G, e.B)
	}
	return &Frame{Type: TypePalette, Payload: buf}, nil
}

// DecodePalette parses a palette frame.
func DecodePalette(f *Frame) (*PaletteSync, error) {
	if f.Type != TypePalette {
		return nil, fmt.Errorf("%w: %s", ErrWrongType, f.Type)
	}
	r := &reader{buf: f.Payload}
	ps := &PaletteSync{Version: r.u32()}
	n := int(r.u16())
	for i := 0; i < n && r.err == nil; i++ {
		ps.Entries = append(ps.Entries, PaletteEntry{Index: r.u8(), R: r.u8(), G: r.u8(), B: r.u8()})
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return ps, nil
}

// Table returns the entries as a dense color table indexed by palette index.
func (ps *PaletteSync) Table() [palette.MaxEntries]palette.Color {
	var t [palette.MaxEntries]palette.Color
	for _, e := range ps.Entries {
		t[e.Index] = palette.RGB(e.R, e.G, e.B)
	}
	return t
}

// Hello is the first frame a viewer receives.
//
// Payload:
//
//	[version:1][idLen:1][id][width:2][height:2]
type Hello struct {
	Version uint8
	ViewID  string
	Width   uint16
	Height  uint16
}

// Encode builds the hello frame.
func (h *Hello) Encode() (*Frame, error) {
	if len(h.ViewID) > 255 {
		return nil, fmt.Errorf("%w: view id longer than 255 bytes", ErrMalformed)
	}
	buf := make([]byte, 0, 6+len(h.ViewID))
	buf = append(buf, h.Version, byte(len(h.ViewID)))
	buf = append(buf, h.ViewID...)
	buf = binary.BigEndian.AppendUint16(buf, h.Width)
	buf = binary.BigEndian.AppendUint16(buf, h.Height)
	return &Frame{Type: TypeHello, Payload: buf}, nil
}

// DecodeHello parses a hello frame.
func DecodeHello(f *Frame) (*Hello, error) {
	if f.Type != TypeHello {
		return nil, fmt.Errorf("%w: %s", ErrWrongType, f.Type)
	}
	r := &reader{buf: f.Payload}
	h := &Hello{Version: r.u8()}
	h.ViewID = string(r.take(int(r.u8())))
	h.Width = r.u16()
	h.Height = r.u16()
	if err := r.done(); err != nil {
		return nil, err
	}
	return h, nil
}

// Error codes.
const (
	CodeInternal uint8 = 1
	CodeNotFound uint8 = 2
	CodeBadFrame uint8 = 3
)

// ErrorMessage reports a fatal condition before the server closes.
//
// Payload:
//
//	[code:1][msgLen:2][msg]
type ErrorMessage struct {
	Code    uint8
	Message string
}

// Encode builds the error frame. Long messages are truncated.
func (e *ErrorMessage) Encode() *Frame {
	msg := e.Message
	if len(msg) > 0xffff {
		msg = msg[:0xffff]
	}
	buf := make([]byte, 0, 3+len(msg))
	buf = append(buf, e.Code)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(msg)))
	buf = append(buf, msg...)
	return &Frame{Type: TypeError, Payload: buf}
}

// DecodeError parses an error frame.
func DecodeError(f *Frame) (*ErrorMessage, error) {
	if f.Type != TypeError {
		return nil, fmt.Errorf("%w: %s", ErrWrongType, f.Type)
	}
	r := &reader{buf: f.Payload}
	e := &ErrorMessage{Code: r.u8()}
	e.Message = string(r.take(int(r.u16())))
	if err := r.done(); err != nil {
		return nil, err
	}
	return e, nil
}
