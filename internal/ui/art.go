package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/babycommando/spazradio-cli/internal/visualizer"
)

var spazArt = `
 ███████ ██████   █████  ███████
 ██      ██   ██ ██   ██    ███
 ███████ ██████  ███████   ███
      ██ ██      ██   ██  ███
 ███████ ██      ██   ██ ███████
`

var artLines = strings.Split(strings.Trim(spazArt, "\n"), "\n")

// backdrop renders the station art with a vertical gradient, centered in a
// width x height box. It stands in for the canvas while nothing is drawn.
func backdrop(tagline, color string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines := artLines
	if tagline != "" {
		lines = append(append([]string{}, artLines...), "", centerText(tagline, artWidth()))
	}

	gradient := visualizer.Gradient(color, "#1a1a1a", len(lines))
	styled := make([]string, len(lines))
	for y, line := range lines {
		styled[y] = lipgloss.NewStyle().Foreground(gradient(y)).Render(line)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(styled, "\n"))
}

func artWidth() int {
	w := 0
	for _, line := range artLines {
		w = max(w, lipgloss.Width(line))
	}
	return w
}

func centerText(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
