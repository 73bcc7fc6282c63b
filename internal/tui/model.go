package tui

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/taskdeck/taskdeck/internal/agentresult"
	"github.com/taskdeck/taskdeck/internal/board"
	"github.com/taskdeck/taskdeck/internal/clipboard"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/jsontree"
	"github.com/taskdeck/taskdeck/internal/markdown"
	"github.com/taskdeck/taskdeck/internal/plans"
	"github.com/taskdeck/taskdeck/internal/prefs"
	"github.com/taskdeck/taskdeck/internal/store"
)

type focusZone int

const (
	focusBoard focusZone = iota
	focusInspector
)

type resultViewMode int

const (
	resultBeautified resultViewMode = iota
	resultTree
	resultRaw
)

// PrefStore is the slice of the preference store the TUI needs.
type PrefStore interface {
	GetBool(ctx context.Context, key string, fallback bool) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// Deps carries everything the workbench model depends on. Client and
// Copier are interfaces so tests run against fakes.
type Deps struct {
	Config config.Config
	Logger *slog.Logger
	Client store.API
	Copier clipboard.Copier
	Plans  *plans.Library
	Prefs  PrefStore
}

type model struct {
	cfg    config.Config
	logger *slog.Logger
	client store.API
	copier clipboard.Copier
	plans  *plans.Library
	prefs  PrefStore

	keys keyMap
	help help.Model
	spin spinner.Model

	width    int
	height   int
	quitting bool
	loading  bool

	connected  bool
	statusText string
	errorText  string

	stages      []string
	tasks       []board.Task
	states      []board.WorkflowState
	columnIndex int
	rowIndex    map[string]int

	focus         focusZone
	inspectorOpen bool
	selected      board.Task
	pipeline      board.Pipeline
	selectedStage string
	follow        bool

	resultMode     resultViewMode
	viewer         *jsontree.Viewer
	resultSections []agentresult.Section
	collapsed      map[string]bool
	renderer       *agentresult.Renderer
	md             *markdown.Renderer

	planVisible bool
	planText    string
	planErr     string

	confirmingDelete bool
	deleteIssued     bool

	inspectorViewport viewport.Model

	// seq invalidates in-flight command results. Any message carrying
	// an older sequence is dropped.
	seq int
}

var _ tea.Model = model{}

func newModel(deps Deps) model {
	md := markdown.New()
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot

	m := model{
		cfg:               deps.Config,
		logger:            deps.Logger,
		client:            deps.Client,
		copier:            deps.Copier,
		plans:             deps.Plans,
		prefs:             deps.Prefs,
		keys:              newKeyMap(),
		help:              help.New(),
		spin:              spin,
		stages:            deps.Config.Stages(),
		rowIndex:          make(map[string]int),
		collapsed:         make(map[string]bool),
		viewer:            jsontree.NewViewer().WithHighlighter(jsontree.NewHighlighter(true)),
		renderer:          agentresult.NewRenderer(md),
		md:                md,
		inspectorViewport: viewport.New(viewport.WithWidth(40), viewport.WithHeight(10)),
		width:             100,
		height:            30,
	}
	return m
}

// Run starts the workbench program, forwarding store updates into the
// model until ctx is cancelled.
func Run(ctx context.Context, deps Deps, updates <-chan store.Update) error {
	program := tea.NewProgram(newModel(deps), tea.WithContext(ctx))

	go func() {
		for update := range updates {
			program.Send(updateEventMsg(update))
		}
	}()

	_, err := program.Run()
	return err
}

type boardLoadedMsg struct {
	seq    int
	tasks  []board.Task
	states []board.WorkflowState
	err    error
}

type pipelineLoadedMsg struct {
	seq      int
	pipeline board.Pipeline
	err      error
}

type planLoadedMsg struct {
	seq     int
	taskID  string
	content string
	err     error
}

type actionDoneMsg struct {
	seq   int
	label string
	err   error
}

type deleteDoneMsg struct {
	seq   int
	adwID string
	err   error
}

type copyDoneMsg struct {
	err error
}

type collapsePrefsMsg struct {
	seq      int
	metadata bool
	rawJSON  bool
}

type prefSavedMsg struct {
	err error
}

type updateEventMsg store.Update

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadBoardCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeWidgets()
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(typed)
		return m, cmd
	case updateEventMsg:
		return m.handleUpdateEvent(store.Update(typed))
	case boardLoadedMsg:
		return m.handleBoardLoaded(typed)
	case pipelineLoadedMsg:
		if typed.seq != m.seq {
			return m, nil
		}
		if typed.err != nil {
			m.errorText = typed.err.Error()
			return m, nil
		}
		m.pipeline = typed.pipeline
		return m, nil
	case planLoadedMsg:
		if typed.seq != m.seq || typed.taskID != m.selected.ID {
			return m, nil
		}
		if typed.err != nil {
			m.planErr = typed.err.Error()
			m.planText = ""
			return m, nil
		}
		m.planErr = ""
		m.planText = typed.content
		return m, nil
	case actionDoneMsg:
		if typed.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if typed.err != nil {
			m.errorText = typed.err.Error()
			m.statusText = ""
			return m, nil
		}
		m.errorText = ""
		m.statusText = typed.label
		return m, m.loadBoardCmd()
	case deleteDoneMsg:
		m.loading = false
		if typed.err != nil {
			m.errorText = typed.err.Error()
			m.statusText = ""
			return m, nil
		}
		m.errorText = ""
		m.statusText = "worktree " + typed.adwID + " deleted"
		return m, m.loadBoardCmd()
	case collapsePrefsMsg:
		if typed.seq != m.seq {
			return m, nil
		}
		m.collapsed["metadata"] = typed.metadata
		m.collapsed["raw-json"] = typed.rawJSON
		return m, nil
	case copyDoneMsg:
		if typed.err != nil {
			m.errorText = typed.err.Error()
			return m, nil
		}
		m.statusText = "result copied to clipboard"
		return m, nil
	case prefSavedMsg:
		if typed.err != nil {
			m.logger.Warn("preference save failed", "error", typed.err)
		}
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m model) handleBoardLoaded(msg boardLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.seq {
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		m.errorText = msg.err.Error()
		m.statusText = ""
		return m, nil
	}
	m.errorText = ""
	m.statusText = "board refreshed"
	m.tasks = msg.tasks
	m.states = msg.states
	m.clampCursors()

	if m.inspectorOpen {
		for _, task := range m.tasks {
			if task.ID == m.selected.ID {
				m.selected = task
				break
			}
		}
		m.syncResult()
	}
	return m, nil
}

func (m model) handleUpdateEvent(update store.Update) (tea.Model, tea.Cmd) {
	switch update.Kind {
	case store.KindConnected:
		m.connected = true
		m.statusText = "connected"
		return m, m.loadBoardCmd()
	case store.KindDisconnected:
		m.connected = false
		m.statusText = "reconnecting..."
		return m, nil
	}

	// Auto-follow tracks the active stage for the open task until a
	// manual tab selection turns it off.
	if m.inspectorOpen && m.follow && update.TaskID == m.selected.ID && update.Stage != "" {
		m.selectedStage = update.Stage
	}
	return m, m.loadBoardCmd()
}

func (m *model) resizeWidgets() {
	layout := computeLayout(m.width, m.height, m.inspectorOpen)
	m.help.SetWidth(layout.Width)

	width := layout.InspectorWidth
	height := layout.BodyHeight
	if layout.Compact {
		height = layout.CompactInspectorHeight
	}
	m.inspectorViewport.SetWidth(maxInt(20, width-2))
	m.inspectorViewport.SetHeight(maxInt(4, height-4))
}

func (m model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.confirmingDelete {
		return m.handleDeleteConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		m.statusText = "refreshing board..."
		return m, tea.Batch(m.spin.Tick, m.loadBoardCmd())
	case key.Matches(msg, m.keys.FocusNext):
		if m.inspectorOpen {
			if m.focus == focusBoard {
				m.focus = focusInspector
			} else {
				m.focus = focusBoard
			}
		}
		return m, nil
	}

	if m.inspectorOpen && m.focus == focusInspector {
		return m.handleInspectorKey(msg)
	}
	return m.handleBoardKey(msg)
}

func (m model) handleBoardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		if m.columnIndex > 0 {
			m.columnIndex--
		}
		return m, nil
	case key.Matches(msg, m.keys.Right):
		if m.columnIndex < len(m.stages)-1 {
			m.columnIndex++
		}
		return m, nil
	case key.Matches(msg, m.keys.Up):
		stage := m.currentStage()
		if m.rowIndex[stage] > 0 {
			m.rowIndex[stage]--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		stage := m.currentStage()
		if m.rowIndex[stage] < len(m.tasksInStage(stage))-1 {
			m.rowIndex[stage]++
		}
		return m, nil
	case key.Matches(msg, m.keys.Activate):
		task, ok := m.selectedBoardTask()
		if !ok {
			return m, nil
		}
		return m.openInspector(task)
	case key.Matches(msg, m.keys.Back):
		if m.inspectorOpen {
			return m.closeInspector()
		}
		return m, nil
	}
	return m, nil
}

func (m model) openInspector(task board.Task) (tea.Model, tea.Cmd) {
	m.seq++
	m.inspectorOpen = true
	m.focus = focusInspector
	m.selected = task
	m.selectedStage = task.Stage
	m.follow = true
	m.resultMode = resultBeautified
	m.planVisible = false
	m.planText = ""
	m.planErr = ""
	m.confirmingDelete = false
	m.deleteIssued = false
	m.collapsed = make(map[string]bool)
	m.errorText = ""
	m.syncResult()
	m.resizeWidgets()

	cmds := []tea.Cmd{m.loadPipelineCmd(task.PipelineID)}
	if m.prefs != nil {
		cmds = append(cmds, m.loadCollapsePrefsCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m model) closeInspector() (tea.Model, tea.Cmd) {
	m.seq++
	m.inspectorOpen = false
	m.focus = focusBoard
	m.confirmingDelete = false
	m.resizeWidgets()
	return m, nil
}

func (m model) handleInspectorKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.planVisible {
			m.planVisible = false
			return m, nil
		}
		return m.closeInspector()
	case key.Matches(msg, m.keys.StagePrev):
		return m.selectStageOffset(-1)
	case key.Matches(msg, m.keys.StageNext):
		return m.selectStageOffset(1)
	case key.Matches(msg, m.keys.Follow):
		m.follow = !m.follow
		return m, nil
	case key.Matches(msg, m.keys.ResultMode):
		m.resultMode = (m.resultMode + 1) % 3
		switch m.resultMode {
		case resultTree:
			m.viewer.SetMode(jsontree.ModeTree)
		case resultRaw:
			m.viewer.SetMode(jsontree.ModeRaw)
		}
		return m, nil
	case key.Matches(msg, m.keys.Collapse):
		return m.handleCollapseKey()
	case key.Matches(msg, m.keys.CollapseRaw):
		if m.resultMode != resultBeautified {
			return m, nil
		}
		return m.toggleSection("raw-json")
	case key.Matches(msg, m.keys.Plan):
		m.planVisible = !m.planVisible
		if m.planVisible && m.planText == "" && m.planErr == "" {
			return m, m.loadPlanCmd(m.selected)
		}
		return m, nil
	case key.Matches(msg, m.keys.CopyResult):
		return m, m.copyResultCmd()
	case key.Matches(msg, m.keys.Trigger):
		return m.runGuardedAction("triggering workflow...", "workflow triggered", func(ctx context.Context) error {
			return m.client.TriggerWorkflow(ctx, m.selected.ID)
		})
	case key.Matches(msg, m.keys.Merge):
		return m.runGuardedAction("queueing merge...", "merge triggered", func(ctx context.Context) error {
			return m.client.TriggerMerge(ctx, m.selected.ID)
		})
	case key.Matches(msg, m.keys.ClearLogs):
		return m.runGuardedAction("clearing logs...", "logs cleared", func(ctx context.Context) error {
			return m.client.ClearLogs(ctx, m.selected.ID)
		})
	case key.Matches(msg, m.keys.Delete):
		if strings.TrimSpace(m.selected.ADWID()) == "" {
			m.errorText = "task has no worktree to delete"
			return m, nil
		}
		m.confirmingDelete = true
		m.statusText = "delete worktree " + m.selected.ADWID() + "? y/enter confirms, esc/n cancels"
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.resultMode == resultTree && !m.planVisible {
			m.viewer.MoveCursor(-1)
			return m, nil
		}
		m.inspectorViewport.ScrollUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.resultMode == resultTree && !m.planVisible {
			m.viewer.MoveCursor(1)
			return m, nil
		}
		m.inspectorViewport.ScrollDown(1)
		return m, nil
	}
	return m, nil
}

// handleCollapseKey toggles the node under the tree cursor in tree
// mode, or the metadata section in the beautified view. Toggles
// persist through the preference store when one is installed.
func (m model) handleCollapseKey() (tea.Model, tea.Cmd) {
	if m.resultMode == resultTree {
		m.viewer.ToggleCursor()
		return m, nil
	}
	if m.resultMode != resultBeautified {
		return m, nil
	}
	return m.toggleSection("metadata")
}

func (m model) toggleSection(name string) (tea.Model, tea.Cmd) {
	current, ok := m.collapsed[name]
	if !ok {
		current = agentresult.DefaultCollapsed(name)
	}
	m.collapsed[name] = !current
	if m.prefs == nil {
		return m, nil
	}
	return m, m.saveCollapsePrefCmd(name, !current)
}

func (m model) handleDeleteConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		if m.deleteIssued {
			return m, nil
		}
		m.deleteIssued = true
		m.confirmingDelete = false
		m.loading = true
		m.statusText = "deleting worktree..."
		adwID := m.selected.ADWID()
		cmd := m.deleteWorktreeCmd(adwID)
		updated, closeCmd := m.closeInspector()
		closed := updated.(model)
		closed.loading = true
		closed.statusText = "deleting worktree..."
		return closed, tea.Batch(cmd, closeCmd, closed.spin.Tick)
	case "n", "esc":
		m.confirmingDelete = false
		m.statusText = "delete cancelled"
		return m, nil
	}
	return m, nil
}

func (m model) selectStageOffset(offset int) (tea.Model, tea.Cmd) {
	stages := m.pipelineStages()
	if len(stages) == 0 {
		return m, nil
	}
	index := 0
	for i, stage := range stages {
		if stage == m.selectedStage {
			index = i
			break
		}
	}
	index = clampInt(index+offset, 0, len(stages)-1)

	tabs := m.stageTabs()
	tabs.Select(stages[index])
	m.follow = tabs.follow
	return m, nil
}

// stageTabs builds the tab component over the current pipeline with
// callbacks wired back into the model.
func (m *model) stageTabs() *stageTabs {
	return &stageTabs{
		stages:   m.pipelineStages(),
		active:   m.selectedStage,
		statuses: m.stageStatuses(),
		follow:   m.follow,
		onSelect: func(stage string) {
			m.selectedStage = stage
		},
		onFollowDisable: func() {
			m.follow = false
		},
		onFollowToggle: func() {
			m.follow = !m.follow
		},
	}
}

func (m model) runGuardedAction(status, label string, action func(context.Context) error) (tea.Model, tea.Cmd) {
	if !m.connected {
		m.errorText = "server disconnected, action unavailable"
		return m, nil
	}
	m.loading = true
	m.errorText = ""
	m.statusText = status
	seq := m.seq
	timeout := m.requestTimeout()
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := action(ctx)
		return actionDoneMsg{seq: seq, label: label, err: err}
	})
}

func (m model) loadBoardCmd() tea.Cmd {
	seq := m.seq
	client := m.client
	limit := m.cfg.TaskListLimit
	timeout := m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		tasks, err := client.ListTasks(ctx, "", limit)
		if err != nil {
			return boardLoadedMsg{seq: seq, err: err}
		}
		states, err := client.WorkflowStates(ctx)
		return boardLoadedMsg{seq: seq, tasks: tasks, states: states, err: err}
	}
}

func (m model) loadPipelineCmd(pipelineID string) tea.Cmd {
	if strings.TrimSpace(pipelineID) == "" {
		return nil
	}
	seq := m.seq
	client := m.client
	timeout := m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		pipeline, err := client.Pipeline(ctx, pipelineID)
		return pipelineLoadedMsg{seq: seq, pipeline: pipeline, err: err}
	}
}

func (m model) loadPlanCmd(task board.Task) tea.Cmd {
	seq := m.seq
	library := m.plans
	planID := task.PlanID()
	taskID := task.ID
	return func() tea.Msg {
		if library == nil {
			return planLoadedMsg{seq: seq, taskID: taskID, err: plans.ErrPlanNotFound}
		}
		content, err := library.Read(planID)
		return planLoadedMsg{seq: seq, taskID: taskID, content: content, err: err}
	}
}

func (m model) deleteWorktreeCmd(adwID string) tea.Cmd {
	seq := m.seq
	client := m.client
	timeout := m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := client.DeleteWorktree(ctx, adwID)
		return deleteDoneMsg{seq: seq, adwID: adwID, err: err}
	}
}

func (m model) copyResultCmd() tea.Cmd {
	result := m.currentResult()
	copier := m.copier
	return func() tea.Msg {
		if copier == nil {
			return copyDoneMsg{}
		}
		raw, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return copyDoneMsg{err: err}
		}
		return copyDoneMsg{err: copier.Copy(string(raw))}
	}
}

func (m model) loadCollapsePrefsCmd() tea.Cmd {
	seq := m.seq
	prefStore := m.prefs
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		metadata, _ := prefStore.GetBool(ctx, prefs.SectionKey("metadata"), true)
		rawJSON, _ := prefStore.GetBool(ctx, prefs.SectionKey("raw-json"), true)
		return collapsePrefsMsg{seq: seq, metadata: metadata, rawJSON: rawJSON}
	}
}

func (m model) saveCollapsePrefCmd(name string, collapsed bool) tea.Cmd {
	prefStore := m.prefs
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return prefSavedMsg{err: prefStore.SetBool(ctx, prefs.SectionKey(name), collapsed)}
	}
}

func (m model) requestTimeout() time.Duration {
	timeout := time.Duration(m.cfg.RequestTimeoutSec) * time.Second
	if timeout < time.Second {
		timeout = 8 * time.Second
	}
	return timeout
}

func (m *model) syncResult() {
	result := m.currentResult()
	m.resultSections = agentresult.Classify(result)
	if result == nil {
		m.viewer.Clear()
		return
	}
	if err := m.viewer.SetValue(result); err != nil {
		m.viewer.SetError(err.Error())
	}
}

func (m model) currentResult() map[string]any {
	state, ok := board.StateFor(m.states, m.selected.ID)
	if !ok {
		return nil
	}
	return state.Result
}

func (m model) currentStage() string {
	if len(m.stages) == 0 {
		return ""
	}
	return m.stages[clampInt(m.columnIndex, 0, len(m.stages)-1)]
}

func (m model) tasksInStage(stage string) []board.Task {
	matched := make([]board.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		if strings.EqualFold(task.Stage, stage) {
			matched = append(matched, task)
		}
	}
	return matched
}

func (m model) selectedBoardTask() (board.Task, bool) {
	stage := m.currentStage()
	tasks := m.tasksInStage(stage)
	if len(tasks) == 0 {
		return board.Task{}, false
	}
	index := clampInt(m.rowIndex[stage], 0, len(tasks)-1)
	return tasks[index], true
}

func (m *model) clampCursors() {
	m.columnIndex = clampInt(m.columnIndex, 0, maxInt(0, len(m.stages)-1))
	for _, stage := range m.stages {
		count := len(m.tasksInStage(stage))
		if count == 0 {
			m.rowIndex[stage] = 0
			continue
		}
		m.rowIndex[stage] = clampInt(m.rowIndex[stage], 0, count-1)
	}
}

func (m model) pipelineStages() []string {
	if len(m.pipeline.Stages) > 0 {
		return m.pipeline.Stages
	}
	return m.stages
}

func (m model) stageStatuses() map[string]board.StageStatus {
	statuses := make(map[string]board.StageStatus)
	state, ok := board.StateFor(m.states, m.selected.ID)
	if !ok {
		return statuses
	}
	for stage := range state.Progress {
		statuses[stage] = state.StatusFor(stage)
	}
	return statuses
}

func (m model) busy() bool {
	return m.loading
}
