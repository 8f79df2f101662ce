package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/mapcast/internal/canvas"
	"github.com/dshills/mapcast/internal/cursor"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/maperr"
	"github.com/dshills/mapcast/internal/palette"
	"github.com/dshills/mapcast/internal/settings"
	"github.com/dshills/mapcast/internal/view"
)

func testFactory(p *palette.Palette) Factory {
	return func(id string, w, h int, s settings.Settings) (*view.View, error) {
		c, err := canvas.New(w, h, p)
		if err != nil {
			return nil, err
		}
		return view.New(id, c, s, view.WithLogger(logging.Nop()))
	}
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Nop()), WithCanvasSize(8, 8)}, opts...)
	return New(testFactory(palette.Default()), opts...)
}

func TestCreateGetDelete(t *testing.T) {
	s := newTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		v, ok := s.CreateMap(settings.Default())
		if !ok {
			t.Fatalf("CreateMap() #%d failed", i)
		}
		ids = append(ids, v.ID())
	}
	want := []string{"map_0", "map_1", "map_2"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("id[%d] = %s, want %s", i, ids[i], want[i])
		}
	}

	v1, ok := s.GetMap("map_1")
	if !ok || v1.Width() != 8 {
		t.Fatalf("GetMap(map_1) = %v, %v", v1, ok)
	}
	if !s.DeleteMap("map_1") {
		t.Fatal("DeleteMap(map_1) = false")
	}
	if v1.State() != view.StateDeleted {
		t.Errorf("deleted view state = %v", v1.State())
	}
	if s.DeleteMap("map_1") {
		t.Error("second DeleteMap(map_1) = true")
	}
	if _, ok := s.GetMap("map_1"); ok {
		t.Error("GetMap found a deleted map")
	}

	v, _ := s.CreateMap(settings.Default())
	if v.ID() != "map_3" {
		t.Errorf("id after delete = %s, want map_3", v.ID())
	}

	maps := s.Maps()
	got := make([]string, len(maps))
	for i, m := range maps {
		got[i] = m.ID()
	}
	if len(got) != 3 || got[0] != "map_0" || got[1] != "map_2" || got[2] != "map_3" {
		t.Errorf("Maps() = %v", got)
	}
	maps[0] = nil
	if s.Maps()[0] == nil {
		t.Error("Maps() exposed internal slice")
	}
}

func TestCreateMapSettingsInert(t *testing.T) {
	s := newTestStore(t)
	set := settings.Default()
	v, _ := s.CreateMap(set)

	set.EdgeCursor = cursor.Mansion
	if v.Settings().EdgeCursor != cursor.WhiteCircle {
		t.Error("settings change after CreateMap reached the view")
	}
}

func TestCreateMapFailsSoft(t *testing.T) {
	failing := New(func(string, int, int, settings.Settings) (*view.View, error) {
		return nil, errors.New("no canvas")
	}, WithLogger(logging.Nop()))
	if v, ok := failing.CreateMap(settings.Default()); ok || v != nil {
		t.Errorf("CreateMap() with failing factory = %v, %v", v, ok)
	}

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, WithDir(filepath.Join(blocker, "maps")))
	if v, ok := s.CreateMap(settings.Default()); ok || v != nil {
		t.Errorf("CreateMap() with unwritable dir = %v, %v", v, ok)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after failed create", s.Len())
	}
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, WithDir(dir))

	set, _ := settings.NewBuilder().Scale(settings.Scale2).PlayerCursor(cursor.BluePointer).Center(10, 20).Build()
	s.CreateMap(set)
	s.CreateMap(settings.Default())
	s.DeleteMap("map_1")

	if _, err := os.Stat(filepath.Join(dir, "map_1.json")); !os.IsNotExist(err) {
		t.Errorf("map_1.json still present: %v", err)
	}

	restored := newTestStore(t, WithDir(dir))
	views, err := restored.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(views) != 1 || views[0].ID() != "map_0" {
		t.Fatalf("Load() = %v", views)
	}
	if got := views[0].Settings(); got != set {
		t.Errorf("restored settings = %+v, want %+v", got, set)
	}
	if views[0].State() != view.StateUninitialized {
		t.Errorf("restored state = %v", views[0].State())
	}

	v, _ := restored.CreateMap(settings.Default())
	if v.ID() != "map_2" {
		t.Errorf("id after reload = %s, want map_2", v.ID())
	}
}

func TestDeleteMapKeepsViewOnRemoveFailure(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, WithDir(dir))
	v, ok := s.CreateMap(settings.Default())
	if !ok {
		t.Fatal("CreateMap() failed")
	}

	// A non-empty directory in place of the map file cannot be removed.
	path := filepath.Join(dir, v.ID()+".json")
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(path, "child"), 0o755); err != nil {
		t.Fatal(err)
	}

	if s.DeleteMap(v.ID()) {
		t.Fatal("DeleteMap() = true, want false when the file cannot be removed")
	}
	if got, ok := s.GetMap(v.ID()); !ok || got != v {
		t.Errorf("GetMap() = %v, %v; want the live view", got, ok)
	}
	if v.State() == view.StateDeleted {
		t.Error("view was deleted although DeleteMap failed")
	}
}

func TestSaveKeepsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, WithDir(dir))
	v, _ := s.CreateMap(settings.Default())
	path := filepath.Join(dir, v.ID()+".json")

	data, _ := os.ReadFile(path)
	data, _ = sjson.SetBytes(data, "owner", "ops")
	os.WriteFile(path, data, 0o644)

	v.Activate()
	v.SetAutomaticUpdates(false)
	if err := s.Save(v.ID()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, _ = os.ReadFile(path)
	if gjson.GetBytes(data, "owner").String() != "ops" {
		t.Errorf("Save() dropped unknown field: %s", data)
	}
	if gjson.GetBytes(data, "automaticUpdates").Bool() {
		t.Errorf("Save() did not write live settings: %s", data)
	}
	if gjson.GetBytes(data, "size.width").Int() != 8 {
		t.Errorf("size.width missing: %s", data)
	}

	if err := s.Save("map_99"); !errors.Is(err, maperr.ErrNotFound) {
		t.Errorf("Save(unknown) error = %v", err)
	}
}

func TestLoadSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "map_0.json"), []byte("{not json"), 0o644)
	os.WriteFile(filepath.Join(dir, "map_1.json"), []byte(`{"id":"map_7"}`), 0o644)
	os.WriteFile(filepath.Join(dir, "map_2.json"), []byte(`{"id":"map_2","scale":"SCALE_1"}`), 0o644)

	s := newTestStore(t, WithDir(dir))
	views, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(views) != 1 || views[0].ID() != "map_2" || views[0].Width() != 8 {
		t.Fatalf("Load() = %v", views)
	}
	if v, _ := s.CreateMap(settings.Default()); v.ID() != "map_3" {
		t.Errorf("next id = %s, want map_3", v.ID())
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		id string
		n  int
		ok bool
	}{
		{"map_0", 0, true},
		{"map_42", 42, true},
		{"map_", 0, false},
		{"map_01", 0, false},
		{"map_-1", 0, false},
		{"img_3", 0, false},
	}
	for _, tt := range tests {
		n, ok := parseID(tt.id)
		if n != tt.n || ok != tt.ok {
			t.Errorf("parseID(%q) = %d, %v", tt.id, n, ok)
		}
	}
}
