package visualizer

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Gradient interpolates linearly between two hex colors over steps.
func Gradient(from, to string, steps int) func(int) lipgloss.Color {
	r1, g1, b1 := parseHexColor(from)
	r2, g2, b2 := parseHexColor(to)

	return func(i int) lipgloss.Color {
		t := 0.0
		if steps > 1 {
			t = float64(i) / float64(steps-1)
		}
		t = min(max(t, 0), 1)
		r := int(float64(r1)*(1-t) + float64(r2)*t)
		g := int(float64(g1)*(1-t) + float64(g2)*t)
		b := int(float64(b1)*(1-t) + float64(b2)*t)
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
	}
}

// Shade darkens hex by factor (1 keeps it, 0 is black).
func Shade(hex string, factor float64) lipgloss.Color {
	return Gradient("#000000", hex, 101)(int(factor * 100))
}

// parseHexColor converts "#rrggbb" to RGB values; anything else is black.
func parseHexColor(hex string) (int, int, int) {
	var r, g, b int
	if len(hex) == 7 && hex[0] == '#' {
		fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
	}
	return r, g, b
}
