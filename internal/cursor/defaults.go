package cursor

import (
	"math"
	"sync"
)

// MarkerKind is the kind of host object a default cursor follows.
type MarkerKind uint8

// Marker kinds.
const (
	MarkerPlayer MarkerKind = iota
	MarkerItemFrame
)

// Marker is a host object projected onto canvas pixel coordinates. X and Y
// may lie outside the canvas. Heading is in degrees clockwise from up.
type Marker struct {
	Kind    MarkerKind
	Key     string
	X, Y    int
	Heading float64
}

// DefaultTypes selects the cursor types default cursors are drawn with.
type DefaultTypes struct {
	Player    Type
	ItemFrame Type
	Edge      Type
}

// Defaults keeps one cursor per host marker while enabled.
type Defaults struct {
	mu      sync.Mutex
	reg     *Registry
	types   DefaultTypes
	enabled bool
	handles map[string]*Handle
}

// NewDefaults creates an enabled default cursor manager for reg.
func NewDefaults(reg *Registry, types DefaultTypes) *Defaults {
	return &Defaults{
		reg:     reg,
		types:   types,
		enabled: true,
		handles: make(map[string]*Handle),
	}
}

// Enabled reports whether default cursors are managed.
func (d *Defaults) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// SetEnabled turns default cursor management on or off. Turning it off
// removes every default cursor.
func (d *Defaults) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enabled == enabled {
		return
	}
	d.enabled = enabled
	if !enabled {
		d.removeAllLocked()
	}
}

// Types returns the current default cursor types.
func (d *Defaults) Types() DefaultTypes {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.types
}

// SetTypes changes the default cursor types. Existing default cursors pick up
// the change on the next Sync.
func (d *Defaults) SetTypes(types DefaultTypes) {
	d.mu.Lock()
	d.types = types
	d.mu.Unlock()
}

// Sync reconciles default cursors with markers. Players outside the canvas
// are pinned to the nearest edge with the edge type; item frames outside the
// canvas get no cursor. Cursors for markers no longer present are removed.
func (d *Defaults) Sync(markers []Marker) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.enabled {
		return nil
	}

	seen := make(map[string]bool, len(markers))
	for _, m := range markers {
		t, x, y, ok := d.place(m)
		if !ok {
			continue
		}
		seen[m.Key] = true
		dir := HeadingToDirection(m.Heading)

		if h, exists := d.handles[m.Key]; exists && h.Live() {
			if err := h.SetPosition(x, y); err != nil {
				return err
			}
			if err := h.SetType(t); err != nil {
				return err
			}
			if err := h.SetDirection(dir); err != nil {
				return err
			}
			continue
		}

		h, err := d.reg.AddDirected(t, x, y, dir)
		if err != nil {
			return err
		}
		d.handles[m.Key] = h
	}

	for key, h := range d.handles {
		if !seen[key] {
			d.reg.Cursors().Remove(h)
			delete(d.handles, key)
		}
	}
	return nil
}

// Count returns the number of managed default cursors.
func (d *Defaults) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handles)
}

func (d *Defaults) removeAllLocked() {
	for key, h := range d.handles {
		d.reg.Cursors().Remove(h)
		delete(d.handles, key)
	}
}

func (d *Defaults) place(m Marker) (Type, int, int, bool) {
	w, h := d.reg.width, d.reg.height
	inside := m.X >= 0 && m.Y >= 0 && m.X < w && m.Y < h

	switch m.Kind {
	case MarkerPlayer:
		if inside {
			return d.types.Player, m.X, m.Y, true
		}
		return d.types.Edge, clamp(m.X, 0, w-1), clamp(m.Y, 0, h-1), true
	case MarkerItemFrame:
		if inside {
			return d.types.ItemFrame, m.X, m.Y, true
		}
	}
	return 0, 0, 0, false
}

// HeadingToDirection converts degrees clockwise from up to the nearest of the
// sixteen cursor directions.
func HeadingToDirection(heading float64) uint8 {
	h := math.Mod(heading, 360)
	if h < 0 {
		h += 360
	}
	return uint8(int(math.Round(h/22.5)) % 16)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
