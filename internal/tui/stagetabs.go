package tui

import (
	"strings"

	"github.com/taskdeck/taskdeck/internal/board"
)

// stageTabs renders a pipeline's stages as a tab strip and routes tab
// selection through caller-installed callbacks. The renderer itself is
// stateless over its inputs; selection state lives with the caller.
type stageTabs struct {
	stages   []string
	active   string
	statuses map[string]board.StageStatus
	follow   bool

	onSelect        func(stage string)
	onFollowDisable func()
	onFollowToggle  func()
}

// Select reports a manual tab choice. The selection callback always
// fires with the raw stage id; when auto-follow is on, the
// follow-disable callback fires exactly once for this selection.
func (s *stageTabs) Select(stage string) {
	if s.onSelect != nil {
		s.onSelect(stage)
	}
	if s.follow && s.onFollowDisable != nil {
		s.follow = false
		s.onFollowDisable()
	}
}

// tabLabel uppercases a stage name, abbreviating names longer than six
// characters to their first three letters ("document" becomes "DOC").
func tabLabel(stage string) string {
	label := strings.ToUpper(strings.TrimSpace(stage))
	if len(label) > 6 {
		label = label[:3]
	}
	return label
}

// View renders the tab strip. Selection styling wins over status
// styling for the chosen tab; completed and active stages keep their
// status colors otherwise.
func (s *stageTabs) View(t theme) string {
	parts := make([]string, 0, len(s.stages)+1)
	for _, stage := range s.stages {
		label := tabLabel(stage)
		style := t.tabPending
		switch s.statuses[stage] {
		case board.StageCompleted:
			style = t.tabCompleted
		case board.StageActive:
			style = t.tabActive
		}
		if stage == s.active {
			style = t.tabSelected.Foreground(style.GetForeground())
		}
		parts = append(parts, style.Render(label))
	}
	line := strings.Join(parts, t.panelSubtle.Render(" · "))
	if s.onFollowToggle != nil {
		hint := "f follow: off"
		if s.follow {
			hint = "f follow: on"
		}
		line += "  " + t.panelSubtle.Render(hint)
	}
	return line
}
