package settings

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/mapcast/internal/cursor"
)

// JSON field paths.
const (
	pathDefaultCursors  = "cursors.useDefault"
	pathPlayerCursor    = "cursors.player"
	pathItemFrameCursor = "cursors.itemFrame"
	pathEdgeCursor      = "cursors.edge"
	pathScale           = "scale"
	pathCenterX         = "center.x"
	pathCenterZ         = "center.z"
	pathAutoUpdates     = "automaticUpdates"
	pathDefaultRenderer = "defaultRenderer"
)

// MarshalJSON implements json.Marshaler.
func (s Settings) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return Set(nil, s)
}

// Set writes every field of s into the JSON document doc, keeping unrelated
// fields. A nil doc starts from an empty object.
func Set(doc []byte, s Settings) ([]byte, error) {
	if len(doc) == 0 {
		doc = []byte("{}")
	}
	fields := []struct {
		path  string
		value any
	}{
		{pathDefaultCursors, s.UsesDefaultCursors},
		{pathPlayerCursor, s.PlayerCursor.String()},
		{pathItemFrameCursor, s.ItemFrameCursor.String()},
		{pathEdgeCursor, s.EdgeCursor.String()},
		{pathScale, s.Scale.String()},
		{pathCenterX, s.CenterX},
		{pathCenterZ, s.CenterZ},
		{pathAutoUpdates, s.AutomaticUpdates},
		{pathDefaultRenderer, s.UsesDefaultRenderer},
	}

	var err error
	for _, f := range fields {
		doc, err = sjson.SetBytes(doc, f.path, f.value)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", f.path, err)
		}
	}
	return doc, nil
}

// UnmarshalJSON implements json.Unmarshaler. Missing fields keep Default()
// values.
func (s *Settings) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Parse reads settings from a JSON document. Missing fields keep Default()
// values; unknown fields are ignored.
func Parse(data []byte) (Settings, error) {
	return Apply(Default(), data)
}

// Apply overlays the fields present in a JSON document onto base.
func Apply(base Settings, data []byte) (Settings, error) {
	if !gjson.ValidBytes(data) {
		return Settings{}, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Settings{}, fmt.Errorf("%w: not an object", ErrInvalidJSON)
	}

	s := base
	var err error

	if v := root.Get(pathDefaultCursors); v.Exists() {
		s.UsesDefaultCursors = v.Bool()
	}
	for _, f := range []struct {
		path string
		dst  *cursor.Type
	}{
		{pathPlayerCursor, &s.PlayerCursor},
		{pathItemFrameCursor, &s.ItemFrameCursor},
		{pathEdgeCursor, &s.EdgeCursor},
	} {
		if v := root.Get(f.path); v.Exists() {
			if *f.dst, err = cursor.ParseType(v.String()); err != nil {
				return Settings{}, err
			}
		}
	}
	if v := root.Get(pathScale); v.Exists() {
		if s.Scale, err = ParseScale(v.String()); err != nil {
			return Settings{}, err
		}
	}
	if v := root.Get(pathCenterX); v.Exists() {
		s.CenterX = int(v.Int())
	}
	if v := root.Get(pathCenterZ); v.Exists() {
		s.CenterZ = int(v.Int())
	}
	if v := root.Get(pathAutoUpdates); v.Exists() {
		s.AutomaticUpdates = v.Bool()
	}
	if v := root.Get(pathDefaultRenderer); v.Exists() {
		s.UsesDefaultRenderer = v.Bool()
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
