package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/babycommando/spazradio-cli/internal/playback"
	"github.com/babycommando/spazradio-cli/internal/schedule"
)

var (
	accent = lipgloss.Color("#FFD75F")
	dim    = lipgloss.Color("#7a7a7a")

	titleStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0e0e0"))
	dimStyle    = lipgloss.NewStyle().Foreground(dim)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff386f"))
	panelStyle  = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Padding(0, 1)
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	header, footer := m.header(), m.footer()
	parts := []string{header}
	if rows := m.height - lipgloss.Height(header) - lipgloss.Height(footer); rows > 0 {
		parts = append(parts, m.body(lipgloss.Height(header), rows))
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// body is the slice of the canvas between the header and the footer, or the
// backdrop while nothing is being drawn.
func (m Model) body(from, rows int) string {
	if m.renderer.Active() {
		return strings.Join(m.canvas.Render(from, from+rows), "\n")
	}
	art := backdrop(m.opts.Station.Tagline, m.opts.Color, m.width, rows)
	return crop(art, rows)
}

/* ─────────────  control bar  ───────────── */

func (m Model) header() string {
	var icon, status string
	switch {
	case m.busy:
		icon, status = m.spinner.View(), "CONNECTING"
	case m.state == playback.StatePlaying:
		icon, status = "▶", m.state.String()
	default:
		icon, status = "▷", m.state.String()
	}

	station := titleStyle.Render(icon + " " + m.opts.Station.Name)
	right := dimStyle.Render(fmt.Sprintf("%s · VIS %s", status, strings.ToUpper(m.renderer.Mode().String())))
	gap := max(m.width-lipgloss.Width(station)-lipgloss.Width(right)-2, 1)
	top := station + strings.Repeat(" ", gap) + right

	meta := m.poller.Metadata()
	lines := []string{top, "  " + textStyle.Render(truncate(meta.NowPlaying(), m.width-4))}
	if l := meta.ListenersLine(); l != "" {
		lines = append(lines, "  "+dimStyle.Render(l))
	}
	return headerStyle.Render(strings.Join(lines, "\n"))
}

/* ─────────────  schedule panel  ───────────── */

func (m Model) footer() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.schedulePanel(), panelStyle.Render(m.help.View(m.keys)))
}

func (m Model) schedulePanel() string {
	var body string
	switch m.sched.Status {
	case schedule.StatusLoading:
		body = dimStyle.Render("Loading schedule...")
	case schedule.StatusFailed:
		body = errorStyle.Render("Schedule unavailable")
	default:
		body = m.showList()
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Upcoming Shows"), body))
}

// showList fits the items into a third of the screen.
func (m Model) showList() string {
	items := m.sched.Items
	if len(items) == 0 {
		return dimStyle.Render("No upcoming shows found.")
	}
	limit := len(items)
	if m.height > 0 {
		limit = min(limit, max(m.height/3-2, 1))
	}
	lines := make([]string, 0, limit+1)
	for _, it := range items[:limit] {
		lines = append(lines, textStyle.Render(truncate(it.String(), m.width-2)))
	}
	if rest := len(items) - limit; rest > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("+%d more", rest)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

func crop(s string, rows int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > rows {
		lines = lines[:rows]
	}
	return strings.Join(lines, "\n")
}
