// Package protocol defines the binary frames exchanged with map viewers.
//
// Every frame starts with a fixed 6 byte header:
//
//	[Type:1][Flags:1][Len:4 big-endian][Payload:Len]
//
// Payload layouts are documented on each message type.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dshills/mapcast/internal/maperr"
)

// Version is the protocol version announced in Hello frames.
const Version = 1

// HeaderSize is the size of the frame header.
const HeaderSize = 6

// MaxPayload bounds the payload a reader accepts.
const MaxPayload = 4 << 20

// Type identifies the meaning of a frame.
type Type uint8

// Frame types.
const (
	TypeHello   Type = 0x01 // server -> viewer, first frame
	TypeUpdate  Type = 0x02 // server -> viewer, pixel rectangle + cursors
	TypePalette Type = 0x03 // server -> viewer, palette table
	TypeError   Type = 0x04 // server -> viewer, fatal error before close
	TypePing    Type = 0x10 // either direction
	TypeResync  Type = 0x11 // viewer -> server, request full update
)

// String returns the name of the frame type.
func (t Type) String() string {
	switch t {
	case TypeHello:
		return "hello"
	case TypeUpdate:
		return "update"
	case TypePalette:
		return "palette"
	case TypeError:
		return "error"
	case TypePing:
		return "ping"
	case TypeResync:
		return "resync"
	default:
		return fmt.Sprintf("type(0x%02x)", uint8(t))
	}
}

// Frame flags.
const (
	FlagNone uint8 = 0x00
	FlagFull uint8 = 0x01 // update covers the whole canvas
)

// Errors returned while encoding or decoding frames.
var (
	ErrFrameTooLarge = errors.New("frame payload exceeds maximum size")
	ErrMalformed     = fmt.Errorf("malformed frame: %w", maperr.ErrInvalidArgument)
	ErrWrongType     = fmt.Errorf("unexpected frame type: %w", maperr.ErrInvalidArgument)
)

// Frame is one framed message.
type Frame struct {
	Type    Type
	Flags   uint8
	Payload []byte
}

// Encode writes the frame to w.
func (f *Frame) Encode(w io.Writer) error {
	if len(f.Payload) > MaxPayload {
		return ErrFrameTooLarge
	}
	header := make([]byte, HeaderSize)
	header[0] = byte(f.Type)
	header[1] = f.Flags
	binary.BigEndian.PutUint32(header[2:6], uint32(len(f.Payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}

// MarshalBinary returns the header and payload as one buffer.
func (f *Frame) MarshalBinary() ([]byte, error) {
	if len(f.Payload) > MaxPayload {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, HeaderSize, HeaderSize+len(f.Payload))
	buf[0] = byte(f.Type)
	buf[1] = f.Flags
	binary.BigEndian.PutUint32(buf[2:6], uint32(len(f.Payload)))
	return append(buf, f.Payload...), nil
}

// Decode reads one frame from r.
func Decode(r io.Reader) (*Frame, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(header[2:6])
	if n > MaxPayload {
		return nil, ErrFrameTooLarge
	}

	f := &Frame{Type: Type(header[0]), Flags: header[1]}
	if n > 0 {
		f.Payload = make([]byte, n)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Parse decodes a frame held entirely in data, as delivered by a
// message-oriented transport.
func Parse(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d byte frame", ErrMalformed, len(data))
	}
	n := binary.BigEndian.Uint32(data[2:6])
	if n > MaxPayload {
		return nil, ErrFrameTooLarge
	}
	if int(n) != len(data)-HeaderSize {
		return nil, fmt.Errorf("%w: length %d, have %d", ErrMalformed, n, len(data)-HeaderSize)
	}
	return &Frame{Type: Type(data[0]), Flags: data[1], Payload: data[HeaderSize:]}, nil
}

// reader walks a payload, recording the first short read.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d of %d", ErrMalformed, n, r.off, len(r.buf))
		return nil
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(r.buf)-r.off)
	}
	return nil
}
