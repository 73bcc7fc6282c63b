package tui

import (
	"charm.land/bubbles/v2/key"
)

type keyMap struct {
	Quit       key.Binding
	FocusNext  key.Binding
	Activate   key.Binding
	Back       key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Refresh    key.Binding
	ToggleHelp key.Binding

	Trigger     key.Binding
	Merge       key.Binding
	Delete      key.Binding
	ClearLogs   key.Binding
	Plan        key.Binding
	CopyResult  key.Binding
	ResultMode  key.Binding
	Collapse    key.Binding
	CollapseRaw key.Binding
	Follow      key.Binding
	StagePrev   key.Binding
	StageNext   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next focus"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open task"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "prev column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "next column"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Trigger: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "trigger workflow"),
		),
		Merge: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "trigger merge"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete worktree"),
		),
		ClearLogs: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear logs"),
		),
		Plan: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "show plan"),
		),
		CopyResult: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy result"),
		),
		ResultMode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "result view mode"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("space"),
			key.WithHelp("space", "collapse/expand"),
		),
		CollapseRaw: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "toggle raw json"),
		),
		Follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "auto-follow"),
		),
		StagePrev: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev stage"),
		),
		StageNext: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next stage"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up,
		k.Down,
		k.Left,
		k.Right,
		k.Activate,
		k.Refresh,
		k.ToggleHelp,
		k.Quit,
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Activate, k.Back},
		{k.Trigger, k.Merge, k.Delete, k.ClearLogs, k.Plan, k.CopyResult},
		{k.ResultMode, k.Collapse, k.CollapseRaw, k.Follow, k.StagePrev, k.StageNext},
		{k.FocusNext, k.Refresh, k.ToggleHelp, k.Quit},
	}
}
