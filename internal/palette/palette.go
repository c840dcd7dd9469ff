// Package palette extracts small ranked color palettes from album artwork and
// blends several of them into one background-friendly pair.
package palette

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// Sampling constants
const (
	sampleSize    = 100 // artwork is reduced to sampleSize x sampleSize before binning
	targetSamples = 400
	binShift      = 5 // 256 >> 5 = 8 levels per channel, steps of 32
	minSamples    = 10
)

var (
	ErrDecodeFailure = errors.New("image decode failure")
	ErrPaletteEmpty  = errors.New("palette extraction collected no samples")
)

// Palette is an ordered list of colors, most dominant first. Never empty when
// returned from this package.
type Palette []color.RGBA

// DefaultPalette is used whenever artwork cannot be decoded or sampled.
var DefaultPalette = Palette{
	{R: 51, G: 77, B: 128, A: 255},
	{R: 26, G: 38, B: 64, A: 255},
}

// WarmPalette is the harmonized fallback when no image produced samples.
var WarmPalette = Palette{
	{R: 242, G: 191, B: 140, A: 255},
	{R: 230, G: 153, B: 128, A: 255},
}

// Primary returns the most dominant color.
func (p Palette) Primary() color.RGBA {
	if len(p) == 0 {
		return DefaultPalette[0]
	}
	return p[0]
}

// Pair returns exactly two colors, repeating the primary for single-color palettes.
func (p Palette) Pair() (color.RGBA, color.RGBA) {
	switch len(p) {
	case 0:
		return DefaultPalette[0], DefaultPalette[1]
	case 1:
		return p[0], p[0]
	default:
		return p[0], p[1]
	}
}

type bin struct {
	key   uint32
	count int
}

// Extract returns the two most populated coarse RGB bins of img.
//
// The image is reduced to 100x100 and every 25th pixel is sampled (about 400
// samples). Channels are quantized to steps of 32. Identical pixel data always
// yields the identical palette. When img is nil, empty or fully transparent,
// DefaultPalette is returned together with ErrPaletteEmpty.
func Extract(img image.Image) (Palette, error) {
	if img == nil || img.Bounds().Empty() {
		return DefaultPalette, ErrPaletteEmpty
	}

	small := image.NewRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	total := sampleSize * sampleSize
	stride := max(1, total/targetSamples)

	counts := make(map[uint32]int)
	samples := 0
	for i := 0; i < total; i += stride {
		off := i * 4
		if small.Pix[off+3] == 0 {
			continue
		}
		r := uint32(small.Pix[off]) >> binShift
		g := uint32(small.Pix[off+1]) >> binShift
		b := uint32(small.Pix[off+2]) >> binShift
		counts[r<<16|g<<8|b]++
		samples++
	}
	if samples < minSamples {
		return DefaultPalette, ErrPaletteEmpty
	}

	bins := make([]bin, 0, len(counts))
	for k, c := range counts {
		bins = append(bins, bin{key: k, count: c})
	}
	sort.Slice(bins, func(i, j int) bool {
		if bins[i].count != bins[j].count {
			return bins[i].count > bins[j].count
		}
		return bins[i].key < bins[j].key
	})

	n := min(2, len(bins))
	out := make(Palette, 0, n)
	for _, b := range bins[:n] {
		out = append(out, color.RGBA{
			R: uint8((b.key >> 16 & 0xff) << binShift),
			G: uint8((b.key >> 8 & 0xff) << binShift),
			B: uint8((b.key & 0xff) << binShift),
			A: 255,
		})
	}
	return out, nil
}

// Decode reads PNG, JPEG or GIF artwork. Errors wrap ErrDecodeFailure.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return img, nil
}

// ExtractBytes decodes data and extracts its palette. Decode failures still
// return DefaultPalette; the error wraps ErrDecodeFailure.
func ExtractBytes(data []byte) (Palette, error) {
	img, err := Decode(data)
	if err != nil {
		return DefaultPalette, err
	}
	return Extract(img)
}

// Luminance returns the perceptual luminance of c in [0,1].
func Luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 0xffff
}

// ContrastingTextColor picks light text on dark backgrounds and dark text otherwise.
func ContrastingTextColor(background, light, dark color.Color) color.Color {
	if Luminance(background) < 0.5 {
		return light
	}
	return dark
}

// ParseHex parses "#rrggbb", "rrggbb" or "#rgb" into an opaque color.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
