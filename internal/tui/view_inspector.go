package tui

import (
	"strings"

	"github.com/taskdeck/taskdeck/internal/agentresult"
	"github.com/taskdeck/taskdeck/internal/jsontree"
)

func (m model) renderInspector(t theme, layout uiLayout) string {
	width := layout.InspectorWidth
	height := layout.BodyHeight
	if layout.Compact {
		height = layout.CompactInspectorHeight
	}

	style := t.panelBox
	contentWidth := innerWidth(style, width)

	head := fillLine(
		t.panelTitle.Render(paneLabel("Task", m.focus == focusInspector)),
		t.panelSubtle.Render(resultModeLabel(m.resultMode)),
		contentWidth,
	)

	tabs := m.stageTabs().View(t)

	body := m.renderInspectorBody(t, contentWidth)
	vp := m.inspectorViewport
	vp.SetWidth(contentWidth)
	vp.SetHeight(maxInt(4, height-4))
	vp.SetContent(body)

	lines := []string{head, tabs, "", vp.View()}
	if m.confirmingDelete {
		lines = append(lines, t.footerErr.Render(trimToWidth(
			"delete worktree "+m.selected.ADWID()+"? y/enter confirm, esc/n cancel", contentWidth)))
	}
	return sizedStyle(style, width, height).Render(strings.Join(lines, "\n"))
}

func (m model) renderInspectorBody(t theme, width int) string {
	if m.planVisible {
		return m.renderPlan(t, width)
	}

	sections := []string{
		m.renderTaskMeta(t, width),
		m.renderStageLogs(t, width),
		m.renderResult(t, width),
	}
	return strings.Join(sections, "\n\n")
}

func (m model) renderTaskMeta(t theme, width int) string {
	lines := []string{
		t.panelAccent.Render(trimToWidth(fallbackText(m.selected.Title, "untitled"), width)),
		t.panelSubtle.Render("id        ") + m.selected.ID,
		t.panelSubtle.Render("stage     ") + m.selected.Stage,
	}
	if adw := m.selected.ADWID(); adw != "" {
		lines = append(lines, t.panelSubtle.Render("adw       ")+adw)
	}
	if m.selected.MergeQueued() {
		lines = append(lines, t.chipWarn.Render("merge queued"))
	}
	if desc := strings.TrimSpace(m.selected.Description); desc != "" {
		lines = append(lines, "", trimToWidth(desc, width))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderStageLogs(t theme, width int) string {
	entries := m.selected.LogsForStage(m.selectedStage)
	lines := []string{t.panelTitle.Render("Logs · " + tabLabel(m.selectedStage))}
	if len(entries) == 0 {
		lines = append(lines, t.panelSubtle.Render("no log entries for this stage"))
		return strings.Join(lines, "\n")
	}
	for _, entry := range entries {
		stamp := t.logStamp.Render(entry.Timestamp.UTC().Format("15:04:05"))
		lines = append(lines, stamp+" "+t.logLine.Render(trimToWidth(entry.Message, maxInt(10, width-9))))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderResult(t theme, width int) string {
	header := t.panelTitle.Render("Result")
	switch m.resultMode {
	case resultTree, resultRaw:
		return header + "\n" + m.viewer.View(width)
	default:
		if len(m.resultSections) == 0 {
			return header + "\n" + t.panelSubtle.Render("no result")
		}
		state := agentresult.State{Collapsed: m.collapsed, Width: width}
		return header + "\n" + m.renderer.Render(m.resultSections, state)
	}
}

func (m model) renderPlan(t theme, width int) string {
	header := t.panelTitle.Render("Plan · " + m.selected.PlanID())
	if m.planErr != "" {
		return header + "\n" + t.panelError.Render(m.planErr)
	}
	if m.planText == "" {
		return header + "\n" + t.panelSubtle.Render("loading plan...")
	}
	return header + "\n" + m.md.Render(m.planText, width)
}

func resultModeLabel(mode resultViewMode) string {
	switch mode {
	case resultTree:
		return jsontree.ModeTree
	case resultRaw:
		return jsontree.ModeRaw
	default:
		return "beautified"
	}
}
