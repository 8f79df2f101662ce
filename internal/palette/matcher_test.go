package palette

import (
	"errors"
	"testing"
)

func TestNewMatcher(t *testing.T) {
	p := Default()

	tests := []struct {
		kind    string
		wantErr bool
	}{
		{"", false},
		{"euclidean", false},
		{"Shaded", false},
		{" lab ", false},
		{"dither", true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			m, err := NewMatcher(p, tt.kind)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMatcher) {
					t.Errorf("NewMatcher(%q) error = %v, want ErrUnknownMatcher", tt.kind, err)
				}
				return
			}
			if err != nil || m == nil {
				t.Fatalf("NewMatcher(%q) = %v, %v", tt.kind, m, err)
			}
		})
	}
}

func TestShadedMatcherExact(t *testing.T) {
	p := Default()
	m := NewShadedMatcher(p)

	raw := RGB(127, 178, 56) // GRASS at full brightness
	got := m.Match(raw)
	if got.Base() != Grass || got.Shade() != ShadeLight {
		t.Errorf("Match(%v) = base %d shade %v, want GRASS light", raw, got.Base(), got.Shade())
	}
	if got.Color() != raw {
		t.Errorf("Match color = %v, want %v", got.Color(), raw)
	}

	// Only the winner is interned.
	if p.Len() != 37 {
		t.Errorf("Len() = %d, want 37", p.Len())
	}

	named := m.Match(p.MustBase(Water).Color())
	if named.Index() != uint8(Water) {
		t.Errorf("named match index = %d, want %d", named.Index(), Water)
	}
}

func TestLabMatcher(t *testing.T) {
	p := Default()
	m := NewLabMatcher(p)

	for _, id := range []BaseID{Grass, Red, Lapis, Snow} {
		want := p.MustBase(id)
		if got := m.Match(want.Color()); got.Index() != want.Index() {
			t.Errorf("Match(%v) = %v, want %v", want.Color(), got, want)
		}
	}
	if got := m.Match(RGB(0, 0, 0)); got.Transparent() {
		t.Error("LabMatcher should never return AIR")
	}
}

func TestMatcherFunc(t *testing.T) {
	p := Default()
	var m Matcher = MatcherFunc(func(Color) MapColor { return p.MustBase(Gold) })
	if got := m.Match(RGB(1, 2, 3)); got.Base() != Gold {
		t.Errorf("Match() = %v, want GOLD", got)
	}
}
