package canvas

import (
	"image"
	"image/color"
	"math"

	"github.com/danfragoso/coverwall/internal/palette"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Soft shapes (shadows, glows) are rasterized at a quarter of their size and
// stretched back when drawn.
const softScale = 0.25

// NewCanvas returns a drawing context backed by a fresh RGBA image.
func NewCanvas(size image.Point) (*gg.Context, *image.RGBA) {
	im := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	return gg.NewContextForRGBA(im), im
}

// Fill paints the whole context with c.
func Fill(dc *gg.Context, c color.Color) {
	dc.SetColor(c)
	dc.Clear()
}

// DrawImageAt draws img with its top-left corner at (x, y).
func DrawImageAt(dc *gg.Context, img image.Image, x, y float64) {
	dc.DrawImage(img, int(math.Round(x)), int(math.Round(y)))
}

// RoundedClippedDraw draws img cover-scaled into r, clipped to a rounded
// rectangle with the given corner radius.
func RoundedClippedDraw(dc *gg.Context, img image.Image, r Rect, radius float64) {
	w, h := int(math.Round(r.W)), int(math.Round(r.H))
	if w <= 0 || h <= 0 || img == nil {
		return
	}
	photo := imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)

	dc.Push()
	dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, radius)
	dc.Clip()
	DrawImageAt(dc, photo, r.X, r.Y)
	dc.ResetClip()
	dc.Pop()
}

// DropShadow draws a soft black shadow under a rounded rectangle at r, shifted
// by offset and blurred by blur pixels.
func DropShadow(dc *gg.Context, r Rect, offset image.Point, blur, radius, opacity float64) {
	shadow, pad := softShape(r.W, r.H, radius, blur, color.NRGBA{A: uint8(clamp01(opacity) * 255)})
	drawSoft(dc, shadow, r.X+float64(offset.X), r.Y+float64(offset.Y), pad)
}

// DiagonalGradient paints a two-color gradient from the top-left to the
// bottom-right corner of r. Single-color palettes paint a flat fill.
func DiagonalGradient(dc *gg.Context, colors palette.Palette, r Rect) {
	c0, c1 := colors.Pair()
	grad := gg.NewLinearGradient(r.X, r.Y, r.X+r.W, r.Y+r.H)
	grad.AddColorStop(0, c0)
	grad.AddColorStop(1, c1)

	dc.Push()
	dc.SetFillStyle(grad)
	dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	dc.Fill()
	dc.Pop()
}

// Frame describes a photo-print frame around an image.
type Frame struct {
	CenterX, CenterY float64
	Width, Height    float64 // outer size including the border
	Rotation         float64 // degrees, clockwise
	Border           float64
	BottomExtra      float64
	Emphasized       bool
}

// Photo frame styling
const (
	frameCorner = 4.0

	plainShadowBlur    = 14.0
	plainShadowOffset  = 6
	plainShadowOpacity = 0.35

	emphShadowBlur    = 34.0
	emphShadowOffset  = 14
	emphShadowOpacity = 0.6
	glowSpread        = 18.0
	glowOpacity       = 0.55
)

var agingTint = color.NRGBA{R: 255, G: 232, B: 190, A: 34}

// FramedPolaroid draws img inside a white print frame rotated about its
// center. Emphasized frames get a stronger shadow and a white glow halo; plain
// frames get a faint warm tint over the photo.
func FramedPolaroid(dc *gg.Context, img image.Image, f Frame) {
	if f.Width <= 0 || f.Height <= 0 {
		return
	}
	x0, y0 := -f.Width/2, -f.Height/2

	dc.Push()
	dc.Translate(f.CenterX, f.CenterY)
	dc.Rotate(gg.Radians(f.Rotation))

	if f.Emphasized {
		glow, pad := softShape(f.Width+2*glowSpread, f.Height+2*glowSpread, frameCorner+glowSpread, glowSpread*2,
			color.NRGBA{R: 255, G: 255, B: 255, A: uint8(math.Floor(glowOpacity * 255))})
		drawSoft(dc, glow, x0-glowSpread, y0-glowSpread, pad)

		shadow, pad := softShape(f.Width, f.Height, frameCorner, emphShadowBlur, color.NRGBA{A: uint8(emphShadowOpacity * 255)})
		drawSoft(dc, shadow, x0+emphShadowOffset, y0+emphShadowOffset, pad)
	} else {
		shadow, pad := softShape(f.Width, f.Height, frameCorner, plainShadowBlur, color.NRGBA{A: uint8(math.Floor(plainShadowOpacity * 255))})
		drawSoft(dc, shadow, x0+plainShadowOffset, y0+plainShadowOffset, pad)
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawRoundedRectangle(x0, y0, f.Width, f.Height, frameCorner)
	dc.Fill()

	inner := Rect{
		X: x0 + f.Border,
		Y: y0 + f.Border,
		W: f.Width - 2*f.Border,
		H: f.Height - 2*f.Border - f.BottomExtra,
	}
	iw, ih := int(math.Round(inner.W)), int(math.Round(inner.H))
	if img != nil && iw > 0 && ih > 0 {
		photo := imaging.Fill(img, iw, ih, imaging.Center, imaging.Linear)
		DrawImageAt(dc, photo, inner.X, inner.Y)
		if !f.Emphasized {
			dc.SetColor(agingTint)
			dc.DrawRectangle(inner.X, inner.Y, inner.W, inner.H)
			dc.Fill()
		}
	}

	dc.Pop()
}

// softShape renders a blurred rounded rectangle at softScale. The returned pad
// is the unscaled margin around the rectangle inside the image.
func softShape(w, h, radius, blur float64, c color.Color) (image.Image, float64) {
	pad := math.Max(blur*2, 1)
	sw := max(1, int(math.Ceil((w+2*pad)*softScale)))
	sh := max(1, int(math.Ceil((h+2*pad)*softScale)))

	sdc := gg.NewContext(sw, sh)
	sdc.Scale(softScale, softScale)
	sdc.SetColor(c)
	sdc.DrawRoundedRectangle(pad, pad, w, h, radius)
	sdc.Fill()

	img := sdc.Image()
	if sigma := blur * softScale / 2; sigma > 0 {
		img = imaging.Blur(img, sigma)
	}
	return img, pad
}

func drawSoft(dc *gg.Context, img image.Image, x, y, pad float64) {
	dc.Push()
	dc.Translate(x-pad, y-pad)
	dc.Scale(1/softScale, 1/softScale)
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
