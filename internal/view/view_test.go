package view

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/mapcast/internal/canvas"
	"github.com/dshills/mapcast/internal/cursor"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/maperr"
	"github.com/dshills/mapcast/internal/palette"
	"github.com/dshills/mapcast/internal/render"
	"github.com/dshills/mapcast/internal/settings"
)

func newTestView(t *testing.T, w, h int, opts ...Option) (*View, *palette.Palette) {
	t.Helper()
	p := palette.Default()
	c, err := canvas.New(w, h, p)
	if err != nil {
		t.Fatalf("canvas.New() error = %v", err)
	}
	opts = append([]Option{WithLogger(logging.Nop())}, opts...)
	v, err := New("map_0", c, settings.Default(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return v, p
}

func activeView(t *testing.T, w, h int, opts ...Option) (*View, *palette.Palette) {
	t.Helper()
	v, p := newTestView(t, w, h, opts...)
	if err := v.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	return v, p
}

func paint(x, y int, col palette.MapColor) render.Renderer {
	return render.Func(func(c *canvas.Canvas) error {
		return c.SetPixel(x, y, col)
	})
}

func TestNewValidation(t *testing.T) {
	c, _ := canvas.New(4, 4, palette.Default())
	if _, err := New("", c, settings.Default()); !errors.Is(err, maperr.ErrInvalidArgument) {
		t.Errorf("New(empty id) error = %v", err)
	}
	if _, err := New("map_1", nil, settings.Default()); !errors.Is(err, maperr.ErrInvalidArgument) {
		t.Errorf("New(nil canvas) error = %v", err)
	}
	bad := settings.Default()
	bad.Scale = settings.Scale(42)
	if _, err := New("map_1", c, bad); !errors.Is(err, maperr.ErrInvalidArgument) {
		t.Errorf("New(bad settings) error = %v", err)
	}
}

func TestLifecycle(t *testing.T) {
	v, _ := newTestView(t, 4, 4)

	if v.State() != StateUninitialized {
		t.Fatalf("State() = %v, want uninitialized", v.State())
	}
	if _, err := v.Canvas(); !errors.Is(err, maperr.ErrInvalidState) {
		t.Errorf("Canvas() before activation error = %v", err)
	}
	if _, err := v.Pipeline(); err != nil {
		t.Errorf("Pipeline() before activation error = %v", err)
	}

	if err := v.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := v.Activate(); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("second Activate() error = %v", err)
	}

	if err := v.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if v.State() != StateDeleted || v.Width() != 0 {
		t.Errorf("after Delete: state %v width %d", v.State(), v.Width())
	}

	checks := map[string]error{}
	_, checks["Canvas"] = v.Canvas()
	_, checks["Pipeline"] = v.Pipeline()
	_, checks["Cursors"] = v.Cursors()
	_, checks["AddCursor"] = v.AddCursor(cursor.WhitePointer, 0, 0)
	_, checks["Redraw"] = v.Redraw()
	_, checks["Tick"] = v.Tick()
	_, checks["Image"] = v.Image()
	checks["SendUpdate"] = v.SendUpdateTo(newID(), fullRect(4, 4))
	checks["SetPlayerCursor"] = v.SetPlayerCursor(cursor.RedPointer)
	checks["Activate"] = v.Activate()
	checks["Delete"] = v.Delete()

	for name, err := range checks {
		if !errors.Is(err, maperr.ErrNotFound) {
			t.Errorf("%s on deleted view error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestSettingsCopied(t *testing.T) {
	p := palette.Default()
	c, _ := canvas.New(4, 4, p)
	s := settings.Default()
	v, err := New("map_2", c, s, WithLogger(logging.Nop()))
	if err != nil {
		t.Fatal(err)
	}

	s.AutomaticUpdates = false
	s.Scale = settings.Scale4
	if got := v.Settings(); !got.AutomaticUpdates || got.Scale != settings.ScaleBase {
		t.Errorf("caller change reached view: %+v", got)
	}

	got := v.Settings()
	got.PlayerCursor = cursor.Temple
	if v.Settings().PlayerCursor != cursor.WhitePointer {
		t.Error("Settings() returned a shared value")
	}
}

func TestUpdateSettings(t *testing.T) {
	v, _ := activeView(t, 4, 4)

	if err := v.SetEdgeCursor(cursor.RedMarker); err != nil {
		t.Fatalf("SetEdgeCursor() error = %v", err)
	}
	if v.Settings().EdgeCursor != cursor.RedMarker {
		t.Errorf("EdgeCursor = %v", v.Settings().EdgeCursor)
	}

	if err := v.SetPlayerCursor(cursor.Type(99)); !errors.Is(err, maperr.ErrInvalidArgument) {
		t.Errorf("SetPlayerCursor(invalid) error = %v", err)
	}
	if v.Settings().PlayerCursor != cursor.WhitePointer {
		t.Error("invalid update was installed")
	}
}

func TestRedrawOrder(t *testing.T) {
	tests := []struct {
		name  string
		first palette.BaseID
		last  palette.BaseID
	}{
		{"red then blue", palette.Red, palette.Blue},
		{"blue then red", palette.Blue, palette.Red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, p := activeView(t, 4, 4)
			pl, _ := v.Pipeline()
			pl.Add(paint(1, 1, p.MustBase(tt.first)))
			pl.Add(paint(1, 1, p.MustBase(tt.last)))

			if _, err := v.Redraw(); err != nil {
				t.Fatalf("Redraw() error = %v", err)
			}
			c, _ := v.Canvas()
			got, _ := c.GetPixel(1, 1)
			if got.Base() != tt.last {
				t.Errorf("pixel = %v, want base %d", got, tt.last)
			}
		})
	}
}

func TestRedrawDefaultRenderer(t *testing.T) {
	p := palette.Default()
	green := p.MustBase(palette.Grass)
	v, _ := activeView(t, 4, 4, WithDefaultRenderer(&render.Fill{Color: green}))

	pl, _ := v.Pipeline()
	pl.Add(paint(0, 0, p.MustBase(palette.Red)))
	v.Redraw()

	c, _ := v.Canvas()
	if got, _ := c.GetPixel(3, 3); got != green {
		t.Errorf("default renderer did not run: %v", got)
	}
	if got, _ := c.GetPixel(0, 0); got.Base() != palette.Red {
		t.Errorf("pipeline did not paint over base: %v", got)
	}

	c.Clear()
	v.SetUsesDefaultRenderer(false)
	v.Redraw()
	if got, _ := c.GetPixel(3, 3); !got.Transparent() {
		t.Errorf("default renderer ran while disabled: %v", got)
	}
}

func TestRedrawFailureIsolated(t *testing.T) {
	v, p := activeView(t, 4, 4)
	pl, _ := v.Pipeline()
	pl.Add(render.Func(func(*canvas.Canvas) error { return errors.New("boom") }))
	pl.Add(render.Func(func(*canvas.Canvas) error { panic("worse") }))
	pl.Add(paint(2, 2, p.MustBase(palette.Gold)))

	failures, err := v.Redraw()
	if err != nil {
		t.Fatalf("Redraw() error = %v", err)
	}
	if len(failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(failures))
	}
	if failures[1].Index != 1 || failures[1].Panic == nil {
		t.Errorf("failure[1] = %+v", failures[1])
	}
	c, _ := v.Canvas()
	if got, _ := c.GetPixel(2, 2); got.Base() != palette.Gold {
		t.Errorf("later renderer did not run: %v", got)
	}
}

func TestDeleteWaitsForRedraw(t *testing.T) {
	v, _ := activeView(t, 4, 4)
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	pl, _ := v.Pipeline()
	pl.Add(render.Func(func(*canvas.Canvas) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v.Redraw()
	}()
	<-started

	deleted := make(chan error, 1)
	go func() { deleted <- v.Delete() }()

	select {
	case <-deleted:
		t.Fatal("Delete returned during redraw")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	if err := <-deleted; err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !finished.Load() {
		t.Error("Delete completed before redraw finished")
	}
	wg.Wait()
}

func TestSyncMarkers(t *testing.T) {
	v, _ := activeView(t, 16, 16)
	v.UpdateSettings(func(s *settings.Settings) {
		s.Scale = settings.Scale1
		s.CenterX, s.CenterZ = 100, 100
	})

	markers := []WorldMarker{
		{Kind: cursor.MarkerPlayer, Key: "alice", X: 104, Z: 100},
		{Kind: cursor.MarkerPlayer, Key: "bob", X: 1000, Z: 100},
		{Kind: cursor.MarkerItemFrame, Key: "frame", X: -1000, Z: 0},
	}
	if err := v.SyncMarkers(markers); err != nil {
		t.Fatalf("SyncMarkers() error = %v", err)
	}

	cs, _ := v.Cursors()
	if cs.Len() != 2 {
		t.Fatalf("cursors = %d, want 2", cs.Len())
	}
	var sawPlayer, sawEdge bool
	for _, h := range cs.Handles() {
		c, _ := h.Cursor()
		switch {
		case c.Type == cursor.WhitePointer && c.X == 9 && c.Y == 8:
			sawPlayer = true
		case c.Type == cursor.WhiteCircle && c.X == 15 && c.Y == 8:
			sawEdge = true
		}
	}
	if !sawPlayer || !sawEdge {
		t.Errorf("player %v edge %v", sawPlayer, sawEdge)
	}

	v.SetUsesDefaultCursors(false)
	if cs.Len() != 0 {
		t.Errorf("disabling default cursors left %d cursors", cs.Len())
	}
	v.SyncMarkers(markers)
	if cs.Len() != 0 {
		t.Errorf("sync while disabled added %d cursors", cs.Len())
	}
}

func TestAddCursorBounds(t *testing.T) {
	v, _ := activeView(t, 8, 8)
	if _, err := v.AddCursor(cursor.BluePointer, 8, 0); !errors.Is(err, maperr.ErrOutOfBounds) {
		t.Errorf("AddCursor(out of bounds) error = %v", err)
	}
	h, err := v.AddCursor(cursor.BluePointer, 7, 7)
	if err != nil {
		t.Fatalf("AddCursor() error = %v", err)
	}
	cs, _ := v.Cursors()
	if !cs.Remove(h) || cs.Len() != 0 {
		t.Error("handle removal did not remove the cursor")
	}
}
