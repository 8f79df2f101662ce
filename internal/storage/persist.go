package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/mapcast/internal/settings"
)

const (
	currentVersion = 1
	indexFile      = "index.json"
	mapPrefix      = "map_"
	mapExt         = ".json"
)

// mapRecord is the on-disk form of one map.
type mapRecord struct {
	ID       string
	Width    int
	Height   int
	SavedAt  time.Time
	Settings settings.Settings
}

func (s *Store) mapPath(id string) string {
	return filepath.Join(s.dir, id+mapExt)
}

// encodeRecord writes rec on top of prev, keeping fields this version does
// not know about.
func encodeRecord(prev []byte, rec mapRecord) ([]byte, error) {
	doc, err := settings.Set(prev, rec.Settings)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		path  string
		value any
	}{
		{"version", currentVersion},
		{"id", rec.ID},
		{"size.width", rec.Width},
		{"size.height", rec.Height},
		{"savedAt", rec.SavedAt.UTC().Format(time.RFC3339)},
	} {
		if doc, err = sjson.SetBytes(doc, f.path, f.value); err != nil {
			return nil, fmt.Errorf("set %s: %w", f.path, err)
		}
	}
	return doc, nil
}

func decodeRecord(data []byte) (mapRecord, error) {
	s, err := settings.Parse(data)
	if err != nil {
		return mapRecord{}, err
	}
	root := gjson.ParseBytes(data)
	if v := root.Get("version").Int(); v > currentVersion {
		return mapRecord{}, fmt.Errorf("unsupported map file version: %d (max supported: %d)", v, currentVersion)
	}
	rec := mapRecord{
		ID:       root.Get("id").String(),
		Width:    int(root.Get("size.width").Int()),
		Height:   int(root.Get("size.height").Int()),
		Settings: s,
	}
	if t, err := time.Parse(time.RFC3339, root.Get("savedAt").String()); err == nil {
		rec.SavedAt = t
	}
	if _, ok := parseID(rec.ID); !ok {
		return mapRecord{}, fmt.Errorf("bad map id %q", rec.ID)
	}
	return rec, nil
}

// parseID returns n for ids of the form map_<n>.
func parseID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, mapPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || strconv.Itoa(n) != rest {
		return 0, false
	}
	return n, true
}

func formatID(n int) string {
	return mapPrefix + strconv.Itoa(n)
}

// writeFile writes data atomically using a temporary file and rename.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *Store) writeRecord(rec mapRecord) error {
	path := s.mapPath(rec.ID)
	prev, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read map file: %w", err)
	}
	if !gjson.ValidBytes(prev) {
		prev = nil
	}
	doc, err := encodeRecord(prev, rec)
	if err != nil {
		return err
	}
	return writeFile(path, doc)
}

func (s *Store) writeIndex(next int) error {
	doc, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil || !gjson.ValidBytes(doc) {
		doc = nil
	}
	if len(doc) == 0 {
		doc = []byte("{}")
	}
	doc, err = sjson.SetBytes(doc, "version", currentVersion)
	if err != nil {
		return err
	}
	doc, err = sjson.SetBytes(doc, "next", next)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, indexFile), doc)
}

func (s *Store) readIndex() (int, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read index: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return 0, fmt.Errorf("index file is not valid json")
	}
	return int(gjson.GetBytes(data, "next").Int()), nil
}
