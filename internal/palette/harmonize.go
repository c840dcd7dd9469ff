package palette

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Weights used when blending the now-playing artwork with history artwork.
// The current track counts five times as much as each history image.
const (
	CurrentWeight = 5
	HistoryWeight = 1
)

// Readable background bounds for the harmonized pair.
const (
	minSaturation = 0.2
	maxSaturation = 0.6
	minValue      = 0.7
	maxValue      = 0.9

	analogousShift = 30.0 / 360.0
)

type hsvSample struct {
	h, s, v float64
}

// Harmonize blends the top-2 palettes of images into an analogous pair.
//
// Each palette color contributes weights[i] HSV samples (missing or non-positive
// weights count once). Hue is averaged on the color wheel, saturation and value
// are averaged then clamped so text stays readable on the result. The second
// color sits 30 degrees further along the wheel. WarmPalette is returned when no
// image produced samples.
func Harmonize(images []image.Image, weights []int) Palette {
	var samples []hsvSample
	for i, img := range images {
		if img == nil {
			continue
		}
		p, err := Extract(img)
		if err != nil {
			continue
		}
		w := 1
		if i < len(weights) && weights[i] > 0 {
			w = weights[i]
		}
		for _, c := range p {
			h, s, v := toColorful(c).Hsv()
			for range w {
				samples = append(samples, hsvSample{h: h / 360, s: s, v: v})
			}
		}
	}
	if len(samples) == 0 {
		return WarmPalette
	}

	hues := make([]float64, len(samples))
	var sumS, sumV float64
	for i, s := range samples {
		hues[i] = s.h
		sumS += s.s
		sumV += s.v
	}
	n := float64(len(samples))
	hue := CircularMeanHue(hues)
	sat := clamp(sumS/n, minSaturation, maxSaturation)
	val := clamp(sumV/n, minValue, maxValue)

	second := math.Mod(hue+analogousShift, 1)
	return Palette{fromHSV(hue, sat, val), fromHSV(second, sat, val)}
}

// CircularMeanHue averages hues given in [0,1) as angles, so that 0.95 and 0.05
// average to 0 rather than 0.5. The result is in [0,1).
func CircularMeanHue(hues []float64) float64 {
	if len(hues) == 0 {
		return 0
	}
	var x, y float64
	for _, h := range hues {
		a := h * 2 * math.Pi
		x += math.Cos(a)
		y += math.Sin(a)
	}
	mean := math.Atan2(y, x) / (2 * math.Pi)
	if mean < 0 {
		mean++
	}
	if mean >= 1 {
		mean -= 1
	}
	return mean
}

func toColorful(c color.RGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func fromHSV(h, s, v float64) color.RGBA {
	r, g, b := colorful.Hsv(h*360, s, v).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
