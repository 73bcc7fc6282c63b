package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

func (m model) renderBoard(t theme, layout uiLayout) string {
	width := layout.BoardWidth
	height := layout.BodyHeight
	if layout.Compact && m.inspectorOpen {
		height = layout.CompactBoardHeight
	}

	style := t.panelBox
	title := fillLine(
		t.panelTitle.Render(paneLabel("Board", m.focus == focusBoard)),
		t.panelSubtle.Render(fmt.Sprintf("%d tasks", len(m.tasks))),
		innerWidth(style, width),
	)

	columns := m.renderColumns(t, innerWidth(style, width), maxInt(3, height-3))
	return sizedStyle(style, width, height).Render(title + "\n" + columns)
}

func (m model) renderColumns(t theme, width, height int) string {
	if len(m.stages) == 0 {
		return t.panelSubtle.Render("no stages configured")
	}
	colWidth := maxInt(10, (width-len(m.stages))/len(m.stages))
	colStyle := lipgloss.NewStyle().Width(colWidth)

	rendered := make([]string, 0, len(m.stages))
	for index, stage := range m.stages {
		rendered = append(rendered, colStyle.Render(m.renderColumn(t, stage, index, colWidth, height)))
		if index < len(m.stages)-1 {
			rendered = append(rendered, " ")
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m model) renderColumn(t theme, stage string, index, width, height int) string {
	tasks := m.tasksInStage(stage)
	titleStyle := t.columnTitle
	if index != m.columnIndex {
		titleStyle = t.columnCount
	}
	lines := []string{
		titleStyle.Render(trimToWidth(tabLabel(stage), width-4)) + " " + t.columnCount.Render(fmt.Sprintf("%d", len(tasks))),
	}

	cursor := m.rowIndex[stage]
	for row, task := range tasks {
		if len(lines) >= height {
			lines = append(lines, t.taskMuted.Render(fmt.Sprintf("… %d more", len(tasks)-row)))
			break
		}
		label := trimToWidth(fallbackText(task.Title, task.ID), width-3)
		switch {
		case index == m.columnIndex && row == cursor && m.focus == focusBoard:
			lines = append(lines, t.taskSelected.Render("› "+label))
		case m.inspectorOpen && task.ID == m.selected.ID:
			lines = append(lines, t.taskSelected.Render("  "+label))
		default:
			lines = append(lines, t.taskRow.Render("  "+label))
		}
	}
	if len(tasks) == 0 {
		lines = append(lines, t.taskMuted.Render("  (empty)"))
	}
	return strings.Join(lines, "\n")
}
