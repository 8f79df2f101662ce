// Package storage is the map view registry.
//
// A Store creates views through a Factory, hands out ids of the form
// map_<n> from a counter that never goes backwards, and, when given a
// directory, keeps one JSON settings file per map plus an index holding the
// counter. Creation and deletion fail soft: backing store errors are logged
// and reported as an absent result.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/maperr"
	"github.com/dshills/mapcast/internal/settings"
	"github.com/dshills/mapcast/internal/view"
)

// Default canvas size for new maps.
const (
	DefaultWidth  = 128
	DefaultHeight = 128
)

// ErrUnknownMap is returned for ids the store does not hold.
var ErrUnknownMap = fmt.Errorf("unknown map: %w", maperr.ErrNotFound)

// Factory builds an uninitialized view for a new or restored map.
type Factory func(id string, width, height int, s settings.Settings) (*view.View, error)

// Option configures a Store.
type Option func(*Store)

// WithDir persists map settings under dir. Without it the store is memory
// only.
func WithDir(dir string) Option {
	return func(s *Store) {
		s.dir = dir
	}
}

// WithCanvasSize sets the canvas size of new maps.
func WithCanvasSize(width, height int) Option {
	return func(s *Store) {
		if width > 0 && height > 0 {
			s.width, s.height = width, height
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store holds every live map view.
type Store struct {
	mu      sync.RWMutex
	dir     string
	width   int
	height  int
	next    int
	views   map[string]*view.View
	order   []string
	factory Factory
	log     *logging.Logger
}

// New creates an empty store.
func New(factory Factory, opts ...Option) *Store {
	s := &Store{
		width:   DefaultWidth,
		height:  DefaultHeight,
		views:   make(map[string]*view.View),
		factory: factory,
		log:     logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("storage")
	return s
}

// Dir returns the persistence directory, empty for memory only stores.
func (s *Store) Dir() string { return s.dir }

// Load restores the maps persisted in the store directory and returns the
// restored views, uninitialized, in id order. Unreadable map files are
// logged and skipped.
func (s *Store) Load() ([]*view.View, error) {
	if s.dir == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(s.dir, mapPrefix+"*"+mapExt))
	if err != nil {
		return nil, err
	}

	type loaded struct {
		n   int
		rec mapRecord
	}
	var recs []loaded
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skipping %s: %v", path, err)
			continue
		}
		rec, err := decodeRecord(data)
		if err != nil {
			s.log.Warn("skipping %s: %v", path, err)
			continue
		}
		if filepath.Base(path) != rec.ID+mapExt {
			s.log.Warn("skipping %s: id %s does not match file name", path, rec.ID)
			continue
		}
		n, _ := parseID(rec.ID)
		recs = append(recs, loaded{n: n, rec: rec})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].n < recs[j].n })

	var out []*view.View
	for _, l := range recs {
		if _, exists := s.views[l.rec.ID]; exists {
			continue
		}
		w, h := l.rec.Width, l.rec.Height
		if w <= 0 || h <= 0 {
			w, h = s.width, s.height
		}
		v, err := s.factory(l.rec.ID, w, h, l.rec.Settings)
		if err != nil {
			s.log.Warn("skipping %s: %v", l.rec.ID, err)
			continue
		}
		s.views[l.rec.ID] = v
		s.order = append(s.order, l.rec.ID)
		out = append(out, v)
		next = max(next, l.n+1)
	}
	s.next = max(s.next, next)

	s.log.Info("loaded %d maps from %s", len(out), s.dir)
	return out, nil
}

// CreateMap builds a view from a copy of set. It returns false when the
// factory or the backing store fails.
func (s *Store) CreateMap(set settings.Settings) (*view.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := formatID(s.next)
	v, err := s.factory(id, s.width, s.height, set)
	if err != nil {
		s.log.Warn("create %s: %v", id, err)
		return nil, false
	}

	if s.dir != "" {
		if err := s.writeIndex(s.next + 1); err != nil {
			s.log.Error("create %s: %v", id, err)
			return nil, false
		}
		rec := mapRecord{ID: id, Width: v.Width(), Height: v.Height(), SavedAt: time.Now(), Settings: set}
		if err := s.writeRecord(rec); err != nil {
			s.log.Error("create %s: %v", id, err)
			return nil, false
		}
	}

	s.next++
	s.views[id] = v
	s.order = append(s.order, id)
	s.log.Debug("created %s", id)
	return v, true
}

// GetMap returns the view with the given id.
func (s *Store) GetMap(id string) (*view.View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[id]
	return v, ok
}

// Maps returns every live view in creation order. The slice is a copy.
func (s *Store) Maps() []*view.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*view.View, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.views[id])
	}
	return out
}

// Len returns the number of live views.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// DeleteMap removes the view and its settings file and deletes the view.
// It returns false for unknown ids or when the file cannot be removed.
func (s *Store) DeleteMap(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[id]
	if !ok {
		return false
	}
	if s.dir != "" {
		if err := os.Remove(s.mapPath(id)); err != nil && !os.IsNotExist(err) {
			s.log.Error("delete %s: %v", id, err)
			return false
		}
	}

	delete(s.views, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if err := v.Delete(); err != nil {
		s.log.Debug("delete %s: %v", id, err)
	}
	s.log.Debug("deleted %s", id)
	return true
}

// Save persists the live settings of the view with the given id. Memory only
// stores do nothing.
func (s *Store) Save(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.views[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMap, id)
	}
	if s.dir == "" {
		return nil
	}
	rec := mapRecord{ID: id, Width: v.Width(), Height: v.Height(), SavedAt: time.Now(), Settings: v.Settings()}
	if err := s.writeRecord(rec); err != nil {
		return maperr.NewOperationError("save", id, err)
	}
	return nil
}
