package palette

import (
	"image/color"
	"testing"
)

func TestColorFromHex(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#FF8000", RGB(255, 128, 0), false},
		{"00ff7f", RGB(0, 255, 127), false},
		{"#zzz", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ColorFromHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ColorFromHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ColorFromHex(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromStd(t *testing.T) {
	if _, ok := FromStd(color.NRGBA{R: 10, A: 0}); ok {
		t.Error("fully transparent color should report false")
	}
	got, ok := FromStd(color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	if !ok || got != RGB(10, 20, 30) {
		t.Errorf("FromStd() = %v, %v", got, ok)
	}
}

func TestShadeApply(t *testing.T) {
	raw := RGB(255, 100, 0)
	tests := []struct {
		shade Shade
		want  Color
	}{
		{ShadeDark, RGB(180, 70, 0)},
		{ShadeBase, RGB(220, 86, 0)},
		{ShadeLight, RGB(255, 100, 0)},
		{ShadeDarker, RGB(135, 52, 0)},
		{Shade(9), RGB(220, 86, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.shade.String(), func(t *testing.T) {
			if got := tt.shade.Apply(raw); got != tt.want {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColorRGBAOpaque(t *testing.T) {
	_, _, _, a := RGB(1, 2, 3).RGBA()
	if a != 0xffff {
		t.Errorf("alpha = %#x, want 0xffff", a)
	}
	if got := RGB(255, 0, 16).Hex(); got != "#FF0010" {
		t.Errorf("Hex() = %q", got)
	}
}
