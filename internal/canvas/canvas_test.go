package canvas

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/danfragoso/coverwall/internal/palette"
)

// bands builds a square image with red, green and blue horizontal bands.
func bands(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		c := color.RGBA{G: 255, A: 255}
		switch {
		case y < size/5:
			c = color.RGBA{R: 255, A: 255}
		case y >= size*4/5:
			c = color.RGBA{B: 255, A: 255}
		}
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d > -8 && d < 8
}

func TestScaleToCoverCropsSymmetrically(t *testing.T) {
	out := ScaleToCover(bands(1000), image.Pt(1920, 1080))
	if out.Bounds().Dx() != 1920 || out.Bounds().Dy() != 1080 {
		t.Fatalf("size = %v, want 1920x1080", out.Bounds().Size())
	}
	// Visible source rows span 219..781, entirely inside the green band.
	for _, p := range []image.Point{{0, 0}, {1919, 0}, {960, 540}, {0, 1079}, {1919, 1079}} {
		c := out.NRGBAAt(p.X, p.Y)
		if !near(c.G, 255) || !near(c.R, 0) || !near(c.B, 0) {
			t.Errorf("pixel %v = %v, want green", p, c)
		}
	}
}

func TestScaleToFitLetterboxes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	scaled, r := ScaleToFit(src, image.Pt(1000, 1000))
	if scaled.Bounds().Dx() != 1000 || scaled.Bounds().Dy() != 500 {
		t.Fatalf("scaled = %v, want 1000x500", scaled.Bounds().Size())
	}
	if r != image.Rect(0, 250, 1000, 750) {
		t.Errorf("placement = %v", r)
	}

	_, empty := ScaleToFit(image.NewRGBA(image.Rect(0, 0, 0, 0)), image.Pt(10, 10))
	if !empty.Empty() {
		t.Errorf("empty source should produce empty placement, got %v", empty)
	}
}

func TestStretchIgnoresAspect(t *testing.T) {
	out := Stretch(bands(100), image.Pt(300, 40))
	if out.Bounds().Size() != image.Pt(300, 40) {
		t.Errorf("size = %v", out.Bounds().Size())
	}
}

func TestBlurCompositeSize(t *testing.T) {
	out := BlurComposite(bands(200), image.Pt(640, 360), 25)
	if out.Bounds().Size() != image.Pt(640, 360) {
		t.Errorf("size = %v", out.Bounds().Size())
	}
}

func TestDiagonalGradientCorners(t *testing.T) {
	dc, im := NewCanvas(image.Pt(200, 100))
	p := palette.Palette{{R: 255, A: 255}, {B: 255, A: 255}}
	DiagonalGradient(dc, p, Rect{W: 200, H: 100})

	tl := im.RGBAAt(0, 0)
	br := im.RGBAAt(199, 99)
	if tl.R < 230 || tl.B > 25 {
		t.Errorf("top-left = %v, want red", tl)
	}
	if br.B < 230 || br.R > 25 {
		t.Errorf("bottom-right = %v, want blue", br)
	}
}

func TestRoundedClippedDrawLeavesCornersUntouched(t *testing.T) {
	dc, im := NewCanvas(image.Pt(100, 100))
	src := image.NewUniform(color.RGBA{R: 255, A: 255})
	photo := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			photo.Set(x, y, src.C)
		}
	}
	RoundedClippedDraw(dc, photo, Rect{X: 10, Y: 10, W: 80, H: 80}, 20)

	if c := im.RGBAAt(11, 11); c.A != 0 {
		t.Errorf("rounded corner should stay transparent, got %v", c)
	}
	if c := im.RGBAAt(50, 50); c.R < 250 {
		t.Errorf("center should be drawn, got %v", c)
	}
	if c := im.RGBAAt(5, 50); c.A != 0 {
		t.Errorf("outside rect should be untouched, got %v", c)
	}
}

func TestDropShadowDarkensBelow(t *testing.T) {
	dc, im := NewCanvas(image.Pt(200, 200))
	Fill(dc, color.White)
	DropShadow(dc, Rect{X: 50, Y: 50, W: 100, H: 100}, image.Pt(8, 8), 10, 8, 0.6)

	if c := im.RGBAAt(110, 110); c.R > 200 {
		t.Errorf("shadow interior should be darkened, got %v", c)
	}
	if c := im.RGBAAt(2, 2); c.R != 255 {
		t.Errorf("far corner should stay white, got %v", c)
	}
}

func TestFramedPolaroidDrawsWhiteBorder(t *testing.T) {
	dc, im := NewCanvas(image.Pt(400, 400))
	Fill(dc, color.Black)
	photo := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for i := 0; i < len(photo.Pix); i += 4 {
		photo.Pix[i+2] = 255
		photo.Pix[i+3] = 255
	}
	FramedPolaroid(dc, photo, Frame{
		CenterX: 200, CenterY: 200,
		Width: 200, Height: 200,
		Border: 16, BottomExtra: 30,
	})

	if c := im.RGBAAt(200, 105); c.R < 240 || c.G < 240 {
		t.Errorf("border should be white, got %v", c)
	}
	if c := im.RGBAAt(200, 190); c.B < 200 || c.R > 80 {
		t.Errorf("photo area should be blue-ish, got %v", c)
	}
}

// framedPhoto draws a 200x200 frame around a blue photo at the middle of a
// 400x400 canvas. The photo area spans 116..284 x 116..254.
func framedPhoto(bg color.Color, emphasized bool) *image.RGBA {
	dc, im := NewCanvas(image.Pt(400, 400))
	Fill(dc, bg)
	photo := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for i := 0; i < len(photo.Pix); i += 4 {
		photo.Pix[i+2] = 255
		photo.Pix[i+3] = 255
	}
	FramedPolaroid(dc, photo, Frame{
		CenterX: 200, CenterY: 200,
		Width: 200, Height: 200,
		Border: 16, BottomExtra: 30,
		Emphasized: emphasized,
	})
	return im
}

func TestFramedPolaroidEmphasisGlows(t *testing.T) {
	plain := framedPhoto(color.Black, false).RGBAAt(90, 200)
	emph := framedPhoto(color.Black, true).RGBAAt(90, 200)
	if plain.R > 10 {
		t.Errorf("plain frame lit the background: %v", plain)
	}
	if int(emph.R) < int(plain.R)+40 {
		t.Errorf("no halo beside emphasized frame: %v vs plain %v", emph, plain)
	}
}

func TestFramedPolaroidEmphasisCastsStrongerShadow(t *testing.T) {
	plain := framedPhoto(color.White, false).RGBAAt(200, 325)
	emph := framedPhoto(color.White, true).RGBAAt(200, 325)
	if int(emph.R) > int(plain.R)-15 {
		t.Errorf("emphasized shadow %v not darker than plain %v", emph, plain)
	}
}

func TestFramedPolaroidTintsOnlyPlainFrames(t *testing.T) {
	emph := framedPhoto(color.Black, true).RGBAAt(200, 180)
	if emph.R > 2 || emph.G > 2 || emph.B < 253 {
		t.Errorf("emphasized photo = %v, want the source blue untouched", emph)
	}
	plain := framedPhoto(color.Black, false).RGBAAt(200, 180)
	if plain.R < 20 || plain.G < 20 || plain.B < 230 {
		t.Errorf("plain photo = %v, want a warm tint over blue", plain)
	}
}

func TestTruncateAndWrap(t *testing.T) {
	faces, err := NewFaces()
	if err != nil {
		t.Fatalf("NewFaces: %v", err)
	}
	face, err := faces.Face(Regular, 20)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	defer face.Close()

	short := "Hi"
	if got := Truncate(short, 500, face); got != short {
		t.Errorf("short text changed: %q", got)
	}

	long := strings.Repeat("Wallpaper ", 20)
	got := Truncate(long, 150, face)
	if !strings.HasSuffix(got, ellipsis) {
		t.Errorf("truncated text should end with ellipsis: %q", got)
	}
	if w := MeasureString(got, face); w > 150 {
		t.Errorf("truncated width %f exceeds limit", w)
	}

	lines := WrapText(long, 200, face)
	if len(lines) < 2 {
		t.Fatalf("expected several lines, got %d", len(lines))
	}
	for _, l := range lines {
		if MeasureString(l, face) > 200 && strings.Contains(l, " ") {
			t.Errorf("line %q exceeds width", l)
		}
	}
}
