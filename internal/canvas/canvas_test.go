package canvas

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/dshills/mapcast/internal/maperr"
	"github.com/dshills/mapcast/internal/palette"
)

func newTestCanvas(t *testing.T, w, h int) (*Canvas, *palette.Palette) {
	t.Helper()
	p := palette.Default()
	c, err := New(w, h, p)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, p
}

func TestNewInvalidSize(t *testing.T) {
	p := palette.Default()
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, 5}, {MaxSize + 1, 1}} {
		if _, err := New(size[0], size[1], p); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("New(%d, %d) error = %v, want ErrInvalidSize", size[0], size[1], err)
		}
	}
	if _, err := New(4, 4, nil); !errors.Is(err, maperr.ErrInvalidArgument) {
		t.Errorf("New(nil palette) error = %v, want ErrInvalidArgument", err)
	}
}

func TestSetGetPixel(t *testing.T) {
	c, p := newTestCanvas(t, 16, 8)
	red := p.MustBase(palette.Red)

	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			got, err := c.GetPixel(x, y)
			if err != nil {
				t.Fatalf("GetPixel(%d,%d) error = %v", x, y, err)
			}
			if !got.Transparent() {
				t.Fatalf("unset pixel (%d,%d) = %v, want AIR", x, y, got)
			}
		}
	}

	if err := c.SetPixel(15, 7, red); err != nil {
		t.Fatalf("SetPixel() error = %v", err)
	}
	got, _ := c.GetPixel(15, 7)
	if !got.Equal(red) {
		t.Errorf("GetPixel() = %v, want %v", got, red)
	}

	dark := p.Shade(red, palette.ShadeDark)
	_ = c.SetPixel(0, 0, dark)
	got, _ = c.GetPixel(0, 0)
	if !got.Equal(dark) {
		t.Errorf("GetPixel() = %v, want shaded %v", got, dark)
	}
}

func TestPixelOutOfBounds(t *testing.T) {
	c, p := newTestCanvas(t, 16, 8)
	red := p.MustBase(palette.Red)

	points := [][2]int{{-1, 0}, {0, -1}, {16, 0}, {0, 8}, {100, 100}}
	for _, pt := range points {
		x, y := pt[0], pt[1]
		if err := c.SetPixel(x, y, red); !errors.Is(err, maperr.ErrOutOfBounds) {
			t.Errorf("SetPixel(%d,%d) error = %v, want ErrOutOfBounds", x, y, err)
		}
		if _, err := c.GetPixel(x, y); !errors.Is(err, maperr.ErrOutOfBounds) {
			t.Errorf("GetPixel(%d,%d) error = %v, want ErrOutOfBounds", x, y, err)
		}
		if err := c.SetPixelMatched(x, y, palette.RGB(1, 2, 3)); !errors.Is(err, maperr.ErrOutOfBounds) {
			t.Errorf("SetPixelMatched(%d,%d) error = %v, want ErrOutOfBounds", x, y, err)
		}
	}

	var be *maperr.BoundsError
	if err := c.SetPixel(20, 3, red); !errors.As(err, &be) || be.X != 20 || be.Width != 16 {
		t.Errorf("SetPixel() error = %#v, want BoundsError for x=20", err)
	}
}

func TestSetPixelMatched(t *testing.T) {
	c, p := newTestCanvas(t, 4, 4)
	water := p.MustBase(palette.Water)

	if err := c.SetPixelMatched(1, 1, water.Color()); err != nil {
		t.Fatalf("SetPixelMatched() error = %v", err)
	}
	got, _ := c.GetPixel(1, 1)
	if !got.Equal(water) {
		t.Errorf("GetPixel() = %v, want %v", got, water)
	}
}

func TestSetIndex(t *testing.T) {
	c, p := newTestCanvas(t, 4, 4)
	if err := c.SetIndex(0, 0, uint8(palette.Gold)); err != nil {
		t.Fatalf("SetIndex() error = %v", err)
	}
	if got, _ := c.Index(0, 0); got != uint8(palette.Gold) {
		t.Errorf("Index() = %d, want %d", got, palette.Gold)
	}
	if err := c.SetIndex(0, 0, uint8(p.Len())); !errors.Is(err, ErrUnknownIndex) {
		t.Errorf("SetIndex(unissued) error = %v, want ErrUnknownIndex", err)
	}
}

func solidImage(w, h int, col color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, col)
		}
	}
	return img
}

func TestDrawImageClips(t *testing.T) {
	const w = 32
	c, p := newTestCanvas(t, w, 16)
	snow := p.MustBase(palette.Snow)

	img := solidImage(10, 10, snow.Color())
	c.DrawImage(w-5, 0, img)

	for y := 0; y < 16; y++ {
		for x := 0; x < w; x++ {
			got, _ := c.GetPixel(x, y)
			want := x >= w-5 && y < 10
			if want != got.Equal(snow) {
				t.Fatalf("pixel (%d,%d) = %v, written %v", x, y, got, want)
			}
		}
	}
}

func TestDrawImageNegativeOrigin(t *testing.T) {
	c, p := newTestCanvas(t, 8, 8)
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	grass := p.MustBase(palette.Grass).Color()
	img.Set(3, 3, color.NRGBA{R: grass.R, G: grass.G, B: grass.B, A: 255})

	c.DrawImage(-3, -3, img)

	got, _ := c.GetPixel(0, 0)
	if got.Base() != palette.Grass {
		t.Errorf("GetPixel(0,0) = %v, want GRASS", got)
	}
}

func TestDrawImageSkipsTransparent(t *testing.T) {
	c, p := newTestCanvas(t, 4, 4)
	red := p.MustBase(palette.Red)
	c.Fill(red)

	c.DrawImage(0, 0, solidImage(4, 4, color.NRGBA{}))

	got, _ := c.GetPixel(2, 2)
	if !got.Equal(red) {
		t.Errorf("transparent blit overwrote pixel: %v", got)
	}
}

func TestToImage(t *testing.T) {
	c, p := newTestCanvas(t, 3, 2)
	lapis := p.MustBase(palette.Lapis)
	_ = c.SetPixel(1, 0, lapis)

	before := c.Snapshot()
	img := c.ToImage()

	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.NRGBAAt(0, 0); got.A != 0 {
		t.Errorf("AIR pixel = %v, want transparent", got)
	}
	lc := lapis.Color()
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{R: lc.R, G: lc.G, B: lc.B, A: 255}) {
		t.Errorf("lapis pixel = %v, want %v", got, lc)
	}

	after := c.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("ToImage mutated the canvas")
		}
	}
}

func TestRegion(t *testing.T) {
	c, p := newTestCanvas(t, 4, 4)
	red := p.MustBase(palette.Red)
	_ = c.SetPixel(1, 1, red)
	_ = c.SetPixel(2, 2, red)

	got, err := c.Region(1, 1, 2, 2)
	if err != nil {
		t.Fatalf("Region() error = %v", err)
	}
	r := red.Index()
	want := []uint8{r, 0, 0, r}
	if len(got) != len(want) {
		t.Fatalf("len(Region()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Region()[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	bad := [][4]int{{2, 0, 1, 0}, {0, 0, 4, 0}, {-1, 0, 0, 0}, {0, 3, 0, 2}}
	for _, b := range bad {
		if _, err := c.Region(b[0], b[1], b[2], b[3]); !errors.Is(err, maperr.ErrOutOfBounds) {
			t.Errorf("Region(%v) error = %v, want ErrOutOfBounds", b, err)
		}
	}
}

func TestFillRectClips(t *testing.T) {
	c, p := newTestCanvas(t, 4, 4)
	gold := p.MustBase(palette.Gold)
	c.FillRect(image.Rect(2, 2, 10, 10), gold)

	count := 0
	for _, idx := range c.Snapshot() {
		if idx == gold.Index() {
			count++
		}
	}
	if count != 4 {
		t.Errorf("filled %d pixels, want 4", count)
	}
	c.Clear()
	for _, idx := range c.Snapshot() {
		if idx != 0 {
			t.Fatal("Clear() left a colored pixel")
		}
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	c, p := newTestCanvas(t, 5, 3)
	shade := p.Shade(p.MustBase(palette.Cyan), palette.ShadeLight)
	_ = c.SetPixel(4, 2, shade)

	data, err := c.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}

	other, _ := New(5, 3, p)
	if err := other.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	got, _ := other.GetPixel(4, 2)
	if !got.Equal(shade) {
		t.Errorf("restored pixel = %v, want %v", got, shade)
	}

	wrong, _ := New(4, 3, p)
	if err := wrong.UnmarshalBinary(data); !errors.Is(err, ErrCorrupt) {
		t.Errorf("size mismatch error = %v, want ErrCorrupt", err)
	}
	if err := other.UnmarshalBinary(data[:3]); !errors.Is(err, ErrCorrupt) {
		t.Errorf("short data error = %v, want ErrCorrupt", err)
	}
}
