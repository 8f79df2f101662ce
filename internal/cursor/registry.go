// Package cursor manages the overlay markers drawn on top of a map canvas.
//
// Cursors never touch canvas pixels. A Registry hands out live Handles;
// removing a handle from the registry's Collection is the only way to
// deregister a cursor.
package cursor

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/mapcast/internal/maperr"
)

// MaxDirection is the largest direction value. Directions count clockwise in
// sixteenths of a turn, 0 pointing up.
const MaxDirection = 15

// Cursor is a point-in-time copy of one registered cursor.
type Cursor struct {
	ID        uuid.UUID
	Type      Type
	X, Y      int
	Direction uint8
	Visible   bool
}

type entry struct {
	cursor Cursor
}

// Registry holds the cursors of one canvas-sized area.
type Registry struct {
	mu      sync.RWMutex
	width   int
	height  int
	order   []uuid.UUID
	entries map[uuid.UUID]*entry

	collection *Collection
}

// NewRegistry creates an empty registry for a width x height canvas.
func NewRegistry(width, height int) *Registry {
	r := &Registry{
		width:   width,
		height:  height,
		entries: make(map[uuid.UUID]*entry),
	}
	r.collection = &Collection{reg: r}
	return r
}

func (r *Registry) checkPosition(op string, x, y int) error {
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return maperr.NewBoundsError(op, x, y, r.width, r.height)
	}
	return nil
}

// Add registers a visible cursor of type t at (x, y) pointing up.
func (r *Registry) Add(t Type, x, y int) (*Handle, error) {
	return r.AddDirected(t, x, y, 0)
}

// AddDirected registers a visible cursor with an explicit direction.
func (r *Registry) AddDirected(t Type, x, y int, direction uint8) (*Handle, error) {
	if !t.Valid() {
		return nil, ErrUnknownType
	}
	if direction > MaxDirection {
		return nil, ErrInvalidDirection
	}
	if err := r.checkPosition("addCursor", x, y); err != nil {
		return nil, err
	}

	id := uuid.New()
	r.mu.Lock()
	r.entries[id] = &entry{cursor: Cursor{
		ID:        id,
		Type:      t,
		X:         x,
		Y:         y,
		Direction: direction,
		Visible:   true,
	}}
	r.order = append(r.order, id)
	r.mu.Unlock()

	return &Handle{id: id, reg: r}, nil
}

// Cursors returns the live collection of registered cursors.
func (r *Registry) Cursors() *Collection {
	return r.collection
}

// Snapshot returns the visible cursors in registration order.
func (r *Registry) Snapshot() []Cursor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Cursor, 0, len(r.order))
	for _, id := range r.order {
		c := r.entries[id].cursor
		if c.Visible {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of registered cursors, visible or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) update(id uuid.UUID, fn func(c *Cursor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return ErrRemoved
	}
	c := e.cursor
	if err := fn(&c); err != nil {
		return err
	}
	e.cursor = c
	return nil
}

func (r *Registry) get(id uuid.UUID) (Cursor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Cursor{}, false
	}
	return e.cursor, true
}

func (r *Registry) remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Handle is a live reference to one registered cursor.
type Handle struct {
	id  uuid.UUID
	reg *Registry
}

// ID returns the cursor id.
func (h *Handle) ID() uuid.UUID { return h.id }

// Cursor returns the current state of the cursor. The second result is false
// once the cursor has been removed.
func (h *Handle) Cursor() (Cursor, bool) {
	return h.reg.get(h.id)
}

// Live reports whether the cursor is still registered.
func (h *Handle) Live() bool {
	_, ok := h.reg.get(h.id)
	return ok
}

// SetPosition moves the cursor.
func (h *Handle) SetPosition(x, y int) error {
	if err := h.reg.checkPosition("setCursorPosition", x, y); err != nil {
		return err
	}
	return h.reg.update(h.id, func(c *Cursor) error {
		c.X, c.Y = x, y
		return nil
	})
}

// SetDirection turns the cursor.
func (h *Handle) SetDirection(direction uint8) error {
	if direction > MaxDirection {
		return ErrInvalidDirection
	}
	return h.reg.update(h.id, func(c *Cursor) error {
		c.Direction = direction
		return nil
	})
}

// SetType changes the cursor type.
func (h *Handle) SetType(t Type) error {
	if !t.Valid() {
		return ErrUnknownType
	}
	return h.reg.update(h.id, func(c *Cursor) error {
		c.Type = t
		return nil
	})
}

// SetVisible shows or hides the cursor. Hidden cursors stay registered but
// are left out of snapshots.
func (h *Handle) SetVisible(visible bool) error {
	return h.reg.update(h.id, func(c *Cursor) error {
		c.Visible = visible
		return nil
	})
}

// Collection is the externally observed set of registered cursors.
type Collection struct {
	reg *Registry
}

// Len returns the number of registered cursors.
func (c *Collection) Len() int {
	return c.reg.Len()
}

// Handles returns handles for every registered cursor in registration order.
func (c *Collection) Handles() []*Handle {
	c.reg.mu.RLock()
	defer c.reg.mu.RUnlock()
	out := make([]*Handle, len(c.reg.order))
	for i, id := range c.reg.order {
		out[i] = &Handle{id: id, reg: c.reg}
	}
	return out
}

// Contains reports whether h is registered in this collection.
func (c *Collection) Contains(h *Handle) bool {
	return h != nil && h.reg == c.reg && h.Live()
}

// Remove deregisters the cursor behind h. It reports whether it was present.
func (c *Collection) Remove(h *Handle) bool {
	if h == nil || h.reg != c.reg {
		return false
	}
	return c.reg.remove(h.id)
}

// RemoveIf deregisters every cursor for which fn returns true and returns how
// many were removed.
func (c *Collection) RemoveIf(fn func(Cursor) bool) int {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()

	kept := c.reg.order[:0]
	removed := 0
	for _, id := range c.reg.order {
		if fn(c.reg.entries[id].cursor) {
			delete(c.reg.entries, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	c.reg.order = kept
	return removed
}

// Clear deregisters every cursor.
func (c *Collection) Clear() {
	c.RemoveIf(func(Cursor) bool { return true })
}
