// Package canvas holds the stateless drawing primitives shared by every
// wallpaper style: resizing, blur, rounded clipping, shadows, gradients and
// framed photos.
package canvas

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Blur is computed on a reduced copy and scaled back up; a blurred background
// carries no detail that the reduction could lose.
const blurDownscale = 4

// Rect is a floating point rectangle in canvas coordinates.
type Rect struct {
	X, Y, W, H float64
}

// RectFrom converts an integer rectangle.
func RectFrom(r image.Rectangle) Rect {
	return Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), W: float64(r.Dx()), H: float64(r.Dy())}
}

// Center returns the middle of r.
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// ScaleToCover scales img uniformly so it covers size entirely, centered, with
// the overflow cropped symmetrically.
func ScaleToCover(img image.Image, size image.Point) *image.NRGBA {
	return imaging.Fill(img, size.X, size.Y, imaging.Center, imaging.Lanczos)
}

// ScaleToFit scales img uniformly (up or down) so it fits inside container and
// returns the scaled image with its centered placement inside the container.
func ScaleToFit(img image.Image, container image.Point) (*image.NRGBA, image.Rectangle) {
	b := img.Bounds()
	if b.Empty() || container.X <= 0 || container.Y <= 0 {
		return &image.NRGBA{}, image.Rectangle{}
	}
	scale := math.Min(float64(container.X)/float64(b.Dx()), float64(container.Y)/float64(b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	scaled := imaging.Resize(img, w, h, imaging.Lanczos)

	x := (container.X - w) / 2
	y := (container.Y - h) / 2
	return scaled, image.Rect(x, y, x+w, y+h)
}

// FitInto is ScaleToFit for a box positioned anywhere on the canvas.
func FitInto(img image.Image, box Rect) (*image.NRGBA, Rect) {
	scaled, r := ScaleToFit(img, image.Pt(int(box.W), int(box.H)))
	return scaled, Rect{X: box.X + float64(r.Min.X), Y: box.Y + float64(r.Min.Y), W: float64(r.Dx()), H: float64(r.Dy())}
}

// Stretch resizes img to exactly size, ignoring its aspect ratio.
func Stretch(img image.Image, size image.Point) *image.NRGBA {
	return imaging.Resize(img, size.X, size.Y, imaging.Lanczos)
}

// BlurComposite cover-scales img to size and applies a gaussian blur of the
// given radius.
func BlurComposite(img image.Image, size image.Point, radius float64) *image.NRGBA {
	small := image.Pt(max(1, size.X/blurDownscale), max(1, size.Y/blurDownscale))
	covered := imaging.Fill(img, small.X, small.Y, imaging.Center, imaging.Linear)
	blurred := imaging.Blur(covered, radius/blurDownscale)
	return imaging.Resize(blurred, size.X, size.Y, imaging.Linear)
}
