package view

import (
	"fmt"
	"image"
	"sync"

	"github.com/dshills/mapcast/internal/canvas"
	"github.com/dshills/mapcast/internal/cursor"
	"github.com/dshills/mapcast/internal/dirty"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/maperr"
	"github.com/dshills/mapcast/internal/render"
	"github.com/dshills/mapcast/internal/settings"
)

// View is the aggregate root for one map.
//
// The read lock is held for the duration of any operation on an Active
// view; Delete takes the write lock, so it waits for a redraw or send in
// progress and no caller observes a half torn down view.
type View struct {
	mu    sync.RWMutex
	id    string
	state State

	canvas   *canvas.Canvas
	cursors  *cursor.Registry
	defaults *cursor.Defaults
	pipeline *render.Pipeline
	settings settings.Settings
	base     render.Renderer
	tracker  *dirty.Tracker

	rowsPerTick int
	sender      Sender
	log         *logging.Logger
}

// New creates an uninitialized view drawing onto c. The settings are
// copied; later changes to s do not reach the view.
func New(id string, c *canvas.Canvas, s settings.Settings, opts ...Option) (*View, error) {
	if id == "" {
		return nil, fmt.Errorf("view id is empty: %w", maperr.ErrInvalidArgument)
	}
	if c == nil {
		return nil, fmt.Errorf("view %s has no canvas: %w", id, maperr.ErrInvalidArgument)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	v := &View{
		id:          id,
		canvas:      c,
		settings:    s,
		rowsPerTick: DefaultRowsPerTick,
		sender:      Discard,
		log:         logging.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.log = v.log.WithComponent("view").WithField("view", id)
	v.cursors = cursor.NewRegistry(c.Width(), c.Height())
	v.defaults = cursor.NewDefaults(v.cursors, s.DefaultCursorTypes())
	v.defaults.SetEnabled(s.UsesDefaultCursors)
	v.pipeline = render.NewPipeline(v.log)
	v.tracker = dirty.NewTracker(c.Width(), c.Height(), v.rowsPerTick)
	return v, nil
}

// ID returns the view identifier.
func (v *View) ID() string { return v.id }

// State returns the lifecycle state.
func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Activate moves an uninitialized view to Active. It happens once, when the
// view is attached.
func (v *View) Activate() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.state {
	case StateActive:
		return ErrAlreadyActive
	case StateDeleted:
		return ErrDeleted
	}
	v.state = StateActive
	v.log.Debug("activated")
	return nil
}

// Delete releases the view. It blocks until operations in progress finish.
func (v *View) Delete() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == StateDeleted {
		return ErrDeleted
	}
	v.state = StateDeleted
	v.pipeline.Clear()
	v.cursors.Cursors().Clear()
	v.defaults.SetEnabled(false)
	v.canvas = nil
	v.base = nil
	v.log.Debug("deleted")
	return nil
}

// checkActive must be called with the lock held.
func (v *View) checkActive() error {
	switch v.state {
	case StateActive:
		return nil
	case StateDeleted:
		return ErrDeleted
	default:
		return ErrNotActive
	}
}

// checkLive must be called with the lock held. Uninitialized views may be
// configured before they are attached.
func (v *View) checkLive() error {
	if v.state == StateDeleted {
		return ErrDeleted
	}
	return nil
}

// Width returns the canvas width, or 0 once deleted.
func (v *View) Width() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.canvas == nil {
		return 0
	}
	return v.canvas.Width()
}

// Height returns the canvas height, or 0 once deleted.
func (v *View) Height() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.canvas == nil {
		return 0
	}
	return v.canvas.Height()
}

// Canvas returns the canvas of an active view.
func (v *View) Canvas() (*canvas.Canvas, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkActive(); err != nil {
		return nil, err
	}
	return v.canvas, nil
}

// Pipeline returns the renderer pipeline. Renderers may be arranged before
// the view is attached.
func (v *View) Pipeline() (*render.Pipeline, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkLive(); err != nil {
		return nil, err
	}
	return v.pipeline, nil
}

// AddCursor registers a cursor on an active view.
func (v *View) AddCursor(t cursor.Type, x, y int) (*cursor.Handle, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkActive(); err != nil {
		return nil, err
	}
	return v.cursors.Add(t, x, y)
}

// Cursors returns the live cursor collection. Removing a handle from it is
// the only way to remove a cursor.
func (v *View) Cursors() (*cursor.Collection, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkLive(); err != nil {
		return nil, err
	}
	return v.cursors.Cursors(), nil
}

// Settings returns a copy of the live settings.
func (v *View) Settings() settings.Settings {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.settings
}

// UpdateSettings applies fn to a copy of the live settings and installs the
// result when it validates. Default cursor management follows the new
// values immediately.
func (v *View) UpdateSettings(fn func(s *settings.Settings)) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.checkLive(); err != nil {
		return err
	}

	next := v.settings
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	v.settings = next
	v.defaults.SetTypes(next.DefaultCursorTypes())
	v.defaults.SetEnabled(next.UsesDefaultCursors)
	return nil
}

// SetPlayerCursor sets the cursor type used for players on the map.
func (v *View) SetPlayerCursor(t cursor.Type) error {
	return v.UpdateSettings(func(s *settings.Settings) { s.PlayerCursor = t })
}

// SetItemFrameCursor sets the cursor type used for item frames.
func (v *View) SetItemFrameCursor(t cursor.Type) error {
	return v.UpdateSettings(func(s *settings.Settings) { s.ItemFrameCursor = t })
}

// SetEdgeCursor sets the cursor type used for players past the map edge.
func (v *View) SetEdgeCursor(t cursor.Type) error {
	return v.UpdateSettings(func(s *settings.Settings) { s.EdgeCursor = t })
}

// SetUsesDefaultCursors turns default cursor management on or off.
func (v *View) SetUsesDefaultCursors(enabled bool) error {
	return v.UpdateSettings(func(s *settings.Settings) { s.UsesDefaultCursors = enabled })
}

// SetAutomaticUpdates turns automatic updates on or off.
func (v *View) SetAutomaticUpdates(enabled bool) error {
	return v.UpdateSettings(func(s *settings.Settings) { s.AutomaticUpdates = enabled })
}

// SetUsesDefaultRenderer turns the default pre-fill on or off.
func (v *View) SetUsesDefaultRenderer(enabled bool) error {
	return v.UpdateSettings(func(s *settings.Settings) { s.UsesDefaultRenderer = enabled })
}

// WorldMarker is a host object in world coordinates.
type WorldMarker struct {
	Kind    cursor.MarkerKind
	Key     string
	X, Z    float64
	Heading float64
}

// SyncMarkers projects world markers through the view scale and center and
// reconciles the default cursors with them. It does nothing while default
// cursors are disabled.
func (v *View) SyncMarkers(markers []WorldMarker) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkActive(); err != nil {
		return err
	}

	w, h := v.canvas.Width(), v.canvas.Height()
	projected := make([]cursor.Marker, 0, len(markers))
	for _, m := range markers {
		x, y := v.settings.Project(m.X, m.Z, w, h)
		projected = append(projected, cursor.Marker{
			Kind:    m.Kind,
			Key:     m.Key,
			X:       x,
			Y:       y,
			Heading: m.Heading,
		})
	}
	return v.defaults.Sync(projected)
}

// Redraw runs the pipeline on the canvas, preceded by the default renderer
// when enabled. Renderer failures are logged and returned for inspection;
// they never make Redraw fail.
func (v *View) Redraw() ([]*maperr.RendererError, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkActive(); err != nil {
		return nil, err
	}
	return v.redrawLocked(), nil
}

func (v *View) redrawLocked() []*maperr.RendererError {
	var base render.Renderer
	if v.settings.UsesDefaultRenderer {
		base = v.base
	}
	return v.pipeline.Redraw(v.canvas, base)
}

// Image renders the canvas to an image.
func (v *View) Image() (*image.NRGBA, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.checkActive(); err != nil {
		return nil, err
	}
	return v.canvas.ToImage(), nil
}

// String implements fmt.Stringer.
func (v *View) String() string {
	return fmt.Sprintf("View(%s, %s)", v.id, v.State())
}
