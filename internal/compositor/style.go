package compositor

import (
	"fmt"
	"strings"
)

// Style selects how the current artwork becomes a wallpaper.
type Style int

const (
	Cover Style = iota
	Fit
	Stretch
	Center
	BlurredBackground
	GradientFromAlbumColors
	CollageEffect
	MinimalistArt
)

var styleNames = [...]string{
	Cover:                   "cover",
	Fit:                     "fit",
	Stretch:                 "stretch",
	Center:                  "center",
	BlurredBackground:       "blurredBackground",
	GradientFromAlbumColors: "gradientFromAlbumColors",
	CollageEffect:           "collageEffect",
	MinimalistArt:           "minimalistArt",
}

// Styles lists every style in menu order.
func Styles() []Style {
	out := make([]Style, len(styleNames))
	for i := range styleNames {
		out[i] = Style(i)
	}
	return out
}

func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// ParseStyle accepts a style name in any letter case.
func ParseStyle(name string) (Style, error) {
	for i, n := range styleNames {
		if strings.EqualFold(n, name) {
			return Style(i), nil
		}
	}
	return Cover, fmt.Errorf("unknown style %q", name)
}

// MarshalText lets styles appear by name in YAML and JSON.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Style) UnmarshalText(b []byte) error {
	v, err := ParseStyle(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// usesPalette reports whether the style reads colors from the artwork.
func (s Style) usesPalette() bool {
	switch s {
	case Fit, Center, GradientFromAlbumColors, MinimalistArt:
		return true
	}
	return false
}

// FillMode chooses the background of the fit and center styles.
type FillMode int

const (
	FillAuto FillMode = iota
	FillCustom
)

func (m FillMode) String() string {
	if m == FillCustom {
		return "custom"
	}
	return "auto"
}

func ParseFillMode(name string) (FillMode, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return FillAuto, nil
	case "custom":
		return FillCustom, nil
	}
	return FillAuto, fmt.Errorf("unknown fill mode %q", name)
}

func (m FillMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *FillMode) UnmarshalText(b []byte) error {
	v, err := ParseFillMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
