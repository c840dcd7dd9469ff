package canvas

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const ellipsis = "…"

// Weight selects one of the bundled Go fonts.
type Weight int

const (
	Regular Weight = iota
	Bold
)

// Faces holds the parsed bundled fonts.
type Faces struct {
	fonts map[Weight]*opentype.Font
}

// NewFaces parses the bundled regular and bold fonts.
func NewFaces() (*Faces, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Faces{fonts: map[Weight]*opentype.Font{Regular: regular, Bold: bold}}, nil
}

// Face returns a new face of the given weight at size pixels. Faces keep
// glyph buffers and must not be shared between goroutines; Close it when done.
func (f *Faces) Face(w Weight, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f.fonts[w], &opentype.FaceOptions{
		Size:    math.Max(1, size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face %d@%.0f: %w", w, size, err)
	}
	return face, nil
}

// MeasureString measures the advance width of s in face.
func MeasureString(s string, face font.Face) float64 {
	width := fixed.Int26_6(0)
	prevRune := rune(-1)
	for _, r := range s {
		if prevRune >= 0 {
			width += face.Kern(prevRune, r)
		}
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		width += adv
		prevRune = r
	}
	return float64(width) / 64.0
}

// Truncate shortens s with an ellipsis until it fits maxWidth.
func Truncate(s string, maxWidth float64, face font.Face) string {
	if MeasureString(s, face) <= maxWidth {
		return s
	}
	runes := []rune(s)

	// Binary search for the longest prefix that fits with the ellipsis
	left, right := 0, len(runes)
	best := 0
	for left <= right {
		mid := (left + right) / 2
		if MeasureString(string(runes[:mid])+ellipsis, face) <= maxWidth {
			best = mid
			left = mid + 1
		} else {
			right = mid - 1
		}
	}
	return strings.TrimRight(string(runes[:best]), " ") + ellipsis
}

// WrapText breaks text into lines no wider than maxWidth. Single words wider
// than maxWidth get a line of their own.
func WrapText(text string, maxWidth float64, face font.Face) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	var lines []string
	current := ""
	for _, word := range words {
		test := current
		if test != "" {
			test += " "
		}
		test += word

		if MeasureString(test, face) <= maxWidth {
			current = test
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
