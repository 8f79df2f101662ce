package transport

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/dshills/mapcast/internal/dirty"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/palette"
	"github.com/dshills/mapcast/internal/protocol"
)

func testUpdate(viewID string) *protocol.Update {
	return &protocol.Update{
		ViewID: viewID,
		Rect:   dirty.NewRect(0, 0, 1, 0),
		Pixels: []uint8{1, 2},
	}
}

func drain(t *testing.T, v *Viewer) []*protocol.Frame {
	t.Helper()
	var out []*protocol.Frame
	for {
		select {
		case b := <-v.Frames():
			f, err := protocol.Parse(b)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			out = append(out, f)
		default:
			return out
		}
	}
}

func frameTypes(fs []*protocol.Frame) []protocol.Type {
	out := make([]protocol.Type, len(fs))
	for i, f := range fs {
		out[i] = f.Type
	}
	return out
}

func equalTypes(a, b []protocol.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSubscribeInitialOrder(t *testing.T) {
	h := NewHub(palette.Default(), 8, logging.Nop())
	full := testUpdate("map_0")
	full.Full = true

	v, err := h.Subscribe("map_0", &protocol.Hello{Version: protocol.Version, ViewID: "map_0", Width: 2, Height: 1}, full)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	frames := drain(t, v)
	want := []protocol.Type{protocol.TypeHello, protocol.TypePalette, protocol.TypeUpdate}
	if got := frameTypes(frames); !equalTypes(got, want) {
		t.Fatalf("frames = %v, want %v", got, want)
	}
	if frames[2].Flags&protocol.FlagFull == 0 {
		t.Error("initial update not flagged full")
	}
	if subs := h.Subscribers("map_0"); len(subs) != 1 || subs[0] != v.ID {
		t.Errorf("Subscribers() = %v", subs)
	}
}

func TestDeliver(t *testing.T) {
	h := NewHub(palette.Default(), 8, logging.Nop())
	a, _ := h.Subscribe("map_0", nil, nil)
	b, _ := h.Subscribe("map_0", nil, nil)
	drain(t, a)
	drain(t, b)

	n := h.Deliver([]uuid.UUID{a.ID, b.ID, uuid.New()}, testUpdate("map_0"))
	if n != 2 {
		t.Errorf("Deliver() = %d, want 2", n)
	}
	for _, v := range []*Viewer{a, b} {
		frames := drain(t, v)
		if got := frameTypes(frames); !equalTypes(got, []protocol.Type{protocol.TypeUpdate}) {
			t.Errorf("viewer frames = %v", got)
		}
		u, err := protocol.DecodeUpdate(frames[0])
		if err != nil || u.ViewID != "map_0" || len(u.Pixels) != 2 {
			t.Errorf("DecodeUpdate() = %+v, %v", u, err)
		}
	}
}

func TestDeliverStalePalette(t *testing.T) {
	p := palette.Default()
	h := NewHub(p, 8, logging.Nop())
	v, _ := h.Subscribe("map_0", nil, nil)
	drain(t, v)

	p.Shade(p.MustBase(palette.Red), palette.ShadeDark)
	if v.PaletteVersion() >= p.Version() {
		t.Fatal("palette did not grow")
	}

	h.Deliver([]uuid.UUID{v.ID}, testUpdate("map_0"))
	frames := drain(t, v)
	want := []protocol.Type{protocol.TypePalette, protocol.TypeUpdate}
	if got := frameTypes(frames); !equalTypes(got, want) {
		t.Fatalf("frames = %v, want %v", got, want)
	}
	ps, err := protocol.DecodePalette(frames[0])
	if err != nil || ps.Version != p.Version() {
		t.Errorf("palette frame = %+v, %v", ps, err)
	}
	if v.PaletteVersion() != p.Version() {
		t.Errorf("PaletteVersion() = %d, want %d", v.PaletteVersion(), p.Version())
	}
}

func TestDeliverQueueFull(t *testing.T) {
	h := NewHub(nil, 2, logging.Nop())
	v, _ := h.Subscribe("map_0", nil, nil)

	targets := []uuid.UUID{v.ID}
	for i := 0; i < 2; i++ {
		if h.Deliver(targets, testUpdate("map_0")) != 1 {
			t.Fatalf("Deliver() #%d rejected", i)
		}
	}
	if h.Deliver(targets, testUpdate("map_0")) != 0 {
		t.Fatal("Deliver() on a full queue accepted")
	}
	if v.Dropped() != 1 || h.Stats().Dropped != 1 {
		t.Errorf("dropped viewer %d hub %d", v.Dropped(), h.Stats().Dropped)
	}

	resyncs := h.TakeResyncs()
	if len(resyncs) != 1 || resyncs[0] != v {
		t.Fatalf("TakeResyncs() = %v", resyncs)
	}
	if len(h.TakeResyncs()) != 0 {
		t.Error("resync flag not cleared")
	}

	drain(t, v)
	full := testUpdate("map_0")
	full.Full = true
	if !h.Resync(v, full) {
		t.Error("Resync() rejected after drain")
	}
}

func TestUnsubscribeAndCloseView(t *testing.T) {
	h := NewHub(nil, 4, logging.Nop())
	a, _ := h.Subscribe("map_0", nil, nil)
	b, _ := h.Subscribe("map_1", nil, nil)

	h.Unsubscribe(a.ID)
	select {
	case <-a.Done():
	default:
		t.Error("Unsubscribe() did not close the viewer")
	}
	if len(h.Subscribers("map_0")) != 0 {
		t.Error("viewer still subscribed")
	}
	if h.Deliver([]uuid.UUID{a.ID}, testUpdate("map_0")) != 0 {
		t.Error("Deliver() reached an unsubscribed viewer")
	}

	h.CloseView("map_1", protocol.CodeNotFound, "map deleted")
	frames := drain(t, b)
	if len(frames) != 1 || frames[0].Type != protocol.TypeError {
		t.Fatalf("frames = %v", frameTypes(frames))
	}
	em, _ := protocol.DecodeError(frames[0])
	if em.Code != protocol.CodeNotFound || em.Message != "map deleted" {
		t.Errorf("error frame = %+v", em)
	}
	if h.Stats().Viewers != 0 {
		t.Errorf("viewers = %d", h.Stats().Viewers)
	}
}

func TestCloseViewMessages(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want int
	}{
		{"short", "gone", 4},
		{"empty", "", 0},
		{"truncated", strings.Repeat("x", 0x10000+10), 0xffff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHub(nil, 4, logging.Nop())
			v, _ := h.Subscribe("map_0", nil, nil)

			h.CloseView("map_0", protocol.CodeNotFound, tt.msg)
			select {
			case <-v.Done():
			default:
				t.Fatal("CloseView() did not close the viewer")
			}
			frames := drain(t, v)
			if len(frames) != 1 {
				t.Fatalf("frames = %v, want one error frame", frameTypes(frames))
			}
			em, err := protocol.DecodeError(frames[0])
			if err != nil {
				t.Fatalf("DecodeError() error = %v", err)
			}
			if len(em.Message) != tt.want {
				t.Errorf("message length = %d, want %d", len(em.Message), tt.want)
			}
		})
	}
}

func TestDeliverConcurrent(t *testing.T) {
	p := palette.Default()
	h := NewHub(p, 1024, logging.Nop())

	var viewers []*Viewer
	for i := 0; i < 4; i++ {
		v, _ := h.Subscribe("map_0", nil, nil)
		viewers = append(viewers, v)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if i%5 == 0 {
					p.Shade(p.MustBase(palette.BaseID(1+g)), palette.Shades()[i%4])
				}
				h.Deliver(h.Subscribers("map_0"), testUpdate("map_0"))
			}
		}(g)
	}
	wg.Wait()

	for _, v := range viewers {
		updates := 0
		for _, f := range drain(t, v) {
			if f.Type == protocol.TypeUpdate {
				updates++
			}
		}
		if updates != 160 {
			t.Errorf("viewer got %d updates, want 160", updates)
		}
	}
}
