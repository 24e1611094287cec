package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Style holds the presentation attributes of a collection. The core never
// interprets them; renderers do.
type Style struct {
	Icon       string
	Color      colorful.Color
	Background colorful.Color
	HasColor   bool
	HasBack    bool
}

// WithColor returns a copy of s with the foreground color set
func (s Style) WithColor(c colorful.Color) Style {
	s.Color = c
	s.HasColor = true
	return s
}

// WithBackground returns a copy of s with the background color set
func (s Style) WithBackground(c colorful.Color) Style {
	s.Background = c
	s.HasBack = true
	return s
}

// ParseColor handles #RRGGBB, #RGB and rgb(r,g,b)
func ParseColor(colorStr string) (colorful.Color, error) {
	colorStr = strings.TrimSpace(colorStr)

	if strings.HasPrefix(colorStr, "#") {
		hex := strings.TrimPrefix(colorStr, "#")
		// Short form (#RGB)
		if len(hex) == 3 {
			hex = string(hex[0]) + string(hex[0]) +
				string(hex[1]) + string(hex[1]) +
				string(hex[2]) + string(hex[2])
		}
		c, err := colorful.Hex("#" + hex)
		if err != nil {
			return colorful.Color{}, fmt.Errorf("invalid hex color %q: %w", colorStr, err)
		}
		return c, nil
	}

	if strings.HasPrefix(colorStr, "rgb(") && strings.HasSuffix(colorStr, ")") {
		inner := strings.TrimSuffix(strings.TrimPrefix(colorStr, "rgb("), ")")
		parts := strings.Split(inner, ",")
		if len(parts) != 3 {
			return colorful.Color{}, fmt.Errorf("invalid rgb color %q", colorStr)
		}
		var rgb [3]uint8
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 0 || v > 255 {
				return colorful.Color{}, fmt.Errorf("invalid rgb component %q in %q", p, colorStr)
			}
			rgb[i] = uint8(v)
		}
		return colorful.Color{
			R: float64(rgb[0]) / 255,
			G: float64(rgb[1]) / 255,
			B: float64(rgb[2]) / 255,
		}, nil
	}

	return colorful.Color{}, fmt.Errorf("unsupported color format %q", colorStr)
}
