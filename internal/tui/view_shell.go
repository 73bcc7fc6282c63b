package tui

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

func (m model) View() tea.View {
	if m.quitting {
		return tea.NewView("taskdeck closed\n")
	}

	t := newTheme()
	layout := computeLayout(m.width, m.height, m.inspectorOpen)

	header := m.renderHeader(t, layout)
	footer := m.renderFooter(t, layout)
	boardPane := m.renderBoard(t, layout)

	if !m.inspectorOpen {
		return tea.NewView(t.appBG.Width(layout.Width).Height(layout.Height).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, boardPane, footer),
		))
	}

	inspector := m.renderInspector(t, layout)
	var body string
	if layout.Compact {
		body = lipgloss.JoinVertical(lipgloss.Left, boardPane, inspector)
	} else {
		sep := t.panelSubtle.Render("│")
		body = lipgloss.JoinHorizontal(lipgloss.Top, boardPane, sep, inspector)
	}
	return tea.NewView(t.appBG.Width(layout.Width).Height(layout.Height).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, body, footer),
	))
}

func (m model) renderHeader(t theme, layout uiLayout) string {
	connChip := t.chipError.Render("OFFLINE")
	if m.connected {
		connChip = t.chipSuccess.Render("LIVE")
	}
	if m.busy() {
		connChip = t.chipWarn.Render(m.spin.View() + " BUSY")
	}

	style := sizedStyle(t.headerBox, layout.Width, layout.HeaderHeight)
	contentWidth := innerWidth(t.headerBox, layout.Width)

	line1 := fillLine(t.brand.Render("taskdeck"), connChip, contentWidth)
	line2 := fillLine(
		t.headerSub.Render(trimToWidth("server "+m.cfg.ServerURL, maxInt(20, contentWidth/2))),
		t.headerSub.Render("utc "+time.Now().UTC().Format("15:04:05")),
		contentWidth,
	)
	return style.Render(line1 + "\n" + line2)
}

func (m model) renderFooter(t theme, layout uiLayout) string {
	status := "status: " + fallbackText(m.statusText, "idle")
	statusStyled := t.footerOK.Render(status)
	if m.busy() {
		statusStyled = t.footerWarn.Render(status)
	}
	if strings.TrimSpace(m.errorText) != "" {
		statusStyled = t.footerErr.Render("status: " + m.errorText)
	}

	style := t.footerBox
	helpLine := t.footerInfo.Render(m.help.View(m.keys))
	return sizedStyle(style, layout.Width, layout.FooterHeight).Render(
		helpLine + "\n" + trimToWidth(statusStyled, innerWidth(style, layout.Width)),
	)
}

func fillLine(left, right string, width int) string {
	if width <= 0 {
		return strings.TrimSpace(left + " " + right)
	}
	lw := lipgloss.Width(left)
	rw := lipgloss.Width(right)
	if lw+rw+1 > width {
		return trimToWidth(left+" "+right, width)
	}
	return left + strings.Repeat(" ", width-lw-rw) + right
}

func trimToWidth(value string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= width {
		return string(runes)
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func sizedStyle(style lipgloss.Style, width, height int) lipgloss.Style {
	contentWidth := maxInt(1, width-style.GetHorizontalFrameSize())
	contentHeight := maxInt(1, height-style.GetVerticalFrameSize())
	return style.Width(contentWidth).Height(contentHeight)
}

func innerWidth(style lipgloss.Style, width int) int {
	return maxInt(1, width-style.GetHorizontalFrameSize())
}

func paneLabel(label string, focused bool) string {
	if focused {
		return "› " + label
	}
	return "  " + label
}

func fallbackText(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
