package compositor

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/danfragoso/coverwall/internal/canvas"
	"github.com/danfragoso/coverwall/internal/palette"
	"github.com/fogleman/gg"
)

// Blurred background style
const (
	blurRadius       = 25.0
	blurredFgWidth   = 1.0 / 3
	blurredFgHeight  = 0.5
	blurredFgCorner  = 12.0
	blurredFgShadow  = 30.0
	blurredFgOpacity = 0.5
)

// Gradient style
const (
	gradientFgWidth   = 0.25
	gradientFgHeight  = 0.4
	gradientFgOffsetX = 0.1
	gradientFgCorner  = 8.0
	gradientFgShadow  = 24.0
	gradientFgOpacity = 0.45
)

// Minimalist style, as fractions of the shorter canvas side
const (
	titleSize       = 0.07
	artistSize      = 0.04
	textGap         = 0.025
	textMaxWidth    = 0.8 // of the canvas width
	maxTitleLines   = 2
	thumbSize       = 0.16
	thumbMargin     = 0.04
	thumbCorner     = 10.0
	thumbShadow     = 18.0
	thumbShadowOpac = 0.4
)

var (
	lightText = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	darkText  = color.RGBA{R: 20, G: 20, B: 24, A: 255}
)

// job is everything a single display's raster needs. It is read-only while
// rasters are produced.
type job struct {
	src     image.Image
	req     Request
	faces   *canvas.Faces
	palette palette.Palette
}

func (j *job) render(size image.Point, logger *slog.Logger) *image.RGBA {
	dc, out := canvas.NewCanvas(size)
	full := canvas.Rect{W: float64(size.X), H: float64(size.Y)}

	switch j.req.Style {
	case Fit:
		canvas.Fill(dc, j.background())
		scaled, r := canvas.ScaleToFit(j.src, size)
		canvas.DrawImageAt(dc, scaled, float64(r.Min.X), float64(r.Min.Y))
	case Stretch:
		canvas.DrawImageAt(dc, canvas.Stretch(j.src, size), 0, 0)
	case Center:
		canvas.Fill(dc, j.background())
		b := j.src.Bounds()
		x := (size.X - b.Dx()) / 2
		y := (size.Y - b.Dy()) / 2
		canvas.DrawImageAt(dc, j.src, float64(x), float64(y))
	case BlurredBackground:
		j.blurred(dc, size, full)
	case GradientFromAlbumColors:
		j.gradient(dc, full)
	case MinimalistArt:
		j.minimalist(dc, full, logger)
	default:
		canvas.DrawImageAt(dc, canvas.ScaleToCover(j.src, size), 0, 0)
	}
	return out
}

// background is the fill behind fit and center.
func (j *job) background() color.Color {
	if j.req.Fill == FillCustom && j.req.CustomColor != nil {
		return j.req.CustomColor
	}
	return j.palette.Primary()
}

func (j *job) blurred(dc *gg.Context, size image.Point, full canvas.Rect) {
	canvas.DrawImageAt(dc, canvas.BlurComposite(j.src, size, blurRadius), 0, 0)

	box := centeredBox(full, full.W*blurredFgWidth, full.H*blurredFgHeight, 0)
	j.shadowedArtwork(dc, box, blurredFgCorner, blurredFgShadow, blurredFgOpacity)
}

func (j *job) gradient(dc *gg.Context, full canvas.Rect) {
	canvas.DiagonalGradient(dc, j.palette, full)

	box := centeredBox(full, full.W*gradientFgWidth, full.H*gradientFgHeight, full.W*gradientFgOffsetX)
	j.shadowedArtwork(dc, box, gradientFgCorner, gradientFgShadow, gradientFgOpacity)
}

// shadowedArtwork fits the artwork into box and draws it with rounded corners
// over a soft shadow.
func (j *job) shadowedArtwork(dc *gg.Context, box canvas.Rect, corner, shadow, opacity float64) {
	scaled, r := canvas.FitInto(j.src, box)
	if r.W < 1 || r.H < 1 {
		return
	}
	offset := image.Pt(0, int(math.Round(shadow/3)))
	canvas.DropShadow(dc, r, offset, shadow, corner, opacity)
	canvas.RoundedClippedDraw(dc, scaled, r, corner)
}

func (j *job) minimalist(dc *gg.Context, full canvas.Rect, logger *slog.Logger) {
	bg := j.palette.Primary()
	canvas.Fill(dc, bg)
	ink := palette.ContrastingTextColor(bg, lightText, darkText)

	short := math.Min(full.W, full.H)
	cx, cy := full.Center()
	maxWidth := full.W * textMaxWidth
	gap := short * textGap

	if j.req.TrackName != "" {
		face, err := j.faces.Face(canvas.Bold, short*titleSize)
		if err != nil {
			logger.Warn("compositor: title font", "error", err)
		} else {
			lines := canvas.WrapText(j.req.TrackName, maxWidth, face)
			if len(lines) > maxTitleLines {
				lines = lines[:maxTitleLines]
				lines[maxTitleLines-1] += " …"
			}
			for i := range lines {
				lines[i] = canvas.Truncate(lines[i], maxWidth, face)
			}

			lineHeight := float64(face.Metrics().Height.Ceil())
			dc.SetFontFace(face)
			dc.SetColor(ink)
			// Title lines sit above the center line, last line closest to it.
			for i, line := range lines {
				y := cy - gap/2 - float64(len(lines)-1-i)*lineHeight
				dc.DrawStringAnchored(line, cx, y, 0.5, 0)
			}
			face.Close()
		}
	}

	if j.req.Artist != "" {
		face, err := j.faces.Face(canvas.Regular, short*artistSize)
		if err != nil {
			logger.Warn("compositor: artist font", "error", err)
		} else {
			dc.SetFontFace(face)
			dc.SetColor(ink)
			dc.DrawStringAnchored(canvas.Truncate(j.req.Artist, maxWidth, face), cx, cy+gap/2, 0.5, 1)
			face.Close()
		}
	}

	side := short * thumbSize
	margin := short * thumbMargin
	thumb := canvas.Rect{X: full.W - margin - side, Y: full.H - margin - side, W: side, H: side}
	canvas.DropShadow(dc, thumb, image.Pt(0, int(math.Round(thumbShadow/3))), thumbShadow, thumbCorner, thumbShadowOpac)
	canvas.RoundedClippedDraw(dc, j.src, thumb, thumbCorner)
}

// centeredBox returns a w x h box centered in full, shifted right by dx.
func centeredBox(full canvas.Rect, w, h, dx float64) canvas.Rect {
	cx, cy := full.Center()
	return canvas.Rect{X: cx - w/2 + dx, Y: cy - h/2, W: w, H: h}
}
