package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/taskdeck/taskdeck/internal/board"
	"github.com/taskdeck/taskdeck/internal/config"
)

func keyPress(code rune, text string, mods ...tea.KeyMod) tea.KeyPressMsg {
	var mod tea.KeyMod
	for _, item := range mods {
		mod |= item
	}
	return tea.KeyPressMsg(tea.Key{
		Code: code,
		Text: text,
		Mod:  mod,
	})
}

func keyRune(r rune) tea.KeyPressMsg {
	return keyPress(r, string(r))
}

type fakeClient struct {
	tasks  []board.Task
	states []board.WorkflowState

	triggerCalls []string
	mergeCalls   []string
	deleteCalls  []string
	clearCalls   []string
}

func (f *fakeClient) ListTasks(ctx context.Context, filter string, limit int) ([]board.Task, error) {
	return f.tasks, nil
}

func (f *fakeClient) Pipeline(ctx context.Context, pipelineID string) (board.Pipeline, error) {
	return board.Pipeline{ID: pipelineID, Stages: []string{"plan", "build", "test"}}, nil
}

func (f *fakeClient) WorkflowStates(ctx context.Context) ([]board.WorkflowState, error) {
	return f.states, nil
}

func (f *fakeClient) TriggerWorkflow(ctx context.Context, taskID string) error {
	f.triggerCalls = append(f.triggerCalls, taskID)
	return nil
}

func (f *fakeClient) TriggerMerge(ctx context.Context, taskID string) error {
	f.mergeCalls = append(f.mergeCalls, taskID)
	return nil
}

func (f *fakeClient) DeleteWorktree(ctx context.Context, adwID string) error {
	f.deleteCalls = append(f.deleteCalls, adwID)
	return nil
}

func (f *fakeClient) ClearLogs(ctx context.Context, taskID string) error {
	f.clearCalls = append(f.clearCalls, taskID)
	return nil
}

type fakePrefs struct {
	values map[string]bool
	sets   []string
}

func (f *fakePrefs) GetBool(ctx context.Context, key string, fallback bool) (bool, error) {
	if value, ok := f.values[key]; ok {
		return value, nil
	}
	return fallback, nil
}

func (f *fakePrefs) SetBool(ctx context.Context, key string, value bool) error {
	if f.values == nil {
		f.values = make(map[string]bool)
	}
	f.values[key] = value
	f.sets = append(f.sets, fmt.Sprintf("%s=%t", key, value))
	return nil
}

type fakeCopier struct {
	copied []string
	err    error
}

func (f *fakeCopier) Copy(text string) error {
	f.copied = append(f.copied, text)
	return f.err
}

func newTestModel(client *fakeClient) model {
	cfg := config.Config{
		ServerURL:         "http://board.test",
		StagesCSV:         "plan,build,test",
		RequestTimeoutSec: 2,
		TaskListLimit:     50,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := newModel(Deps{
		Config: cfg,
		Logger: logger,
		Client: client,
		Copier: &fakeCopier{},
	})
	m.width = 140
	m.height = 40
	m.connected = true
	m.resizeWidgets()
	return m
}

func sampleTask() board.Task {
	return board.Task{
		ID:         "task-1",
		Title:      "Fix login flow",
		Stage:      "build",
		PipelineID: "pipe-1",
		Metadata:   map[string]any{"adw_id": "adw-7"},
	}
}

func openInspectorOn(t *testing.T, m model, task board.Task) model {
	t.Helper()
	m.tasks = []board.Task{task}
	m.columnIndex = 1 // build column
	updated, _ := m.Update(keyPress(tea.KeyEnter, ""))
	typed := updated.(model)
	if !typed.inspectorOpen {
		t.Fatal("enter should open the inspector")
	}
	return typed
}

func TestEnterOpensInspectorForSelectedTask(t *testing.T) {
	client := &fakeClient{}
	m := openInspectorOn(t, newTestModel(client), sampleTask())

	if m.selected.ID != "task-1" {
		t.Fatalf("selected = %q", m.selected.ID)
	}
	if m.selectedStage != "build" {
		t.Fatalf("selected stage = %q", m.selectedStage)
	}
	if !m.follow {
		t.Fatal("auto-follow should start enabled")
	}
	if m.resultMode != resultBeautified {
		t.Fatal("result view should start beautified")
	}
}

func TestDeleteCancelMakesNoStoreCall(t *testing.T) {
	client := &fakeClient{}
	m := openInspectorOn(t, newTestModel(client), sampleTask())

	updated, _ := m.Update(keyRune('x'))
	typed := updated.(model)
	if !typed.confirmingDelete {
		t.Fatal("x should arm the delete confirmation")
	}

	updated, _ = typed.Update(keyRune('n'))
	typed = updated.(model)
	if typed.confirmingDelete {
		t.Fatal("n should cancel the confirmation")
	}
	if len(client.deleteCalls) != 0 {
		t.Fatalf("cancel must not call the store, got %v", client.deleteCalls)
	}
	if !typed.inspectorOpen {
		t.Fatal("cancel should keep the inspector open")
	}
}

func TestDeleteConfirmIssuesExactlyOneCallAndCloses(t *testing.T) {
	client := &fakeClient{}
	m := openInspectorOn(t, newTestModel(client), sampleTask())

	updated, _ := m.Update(keyRune('x'))
	typed := updated.(model)
	updated, cmd := typed.Update(keyRune('y'))
	typed = updated.(model)

	if typed.inspectorOpen {
		t.Fatal("confirm should close the inspector")
	}
	if cmd == nil {
		t.Fatal("confirm should issue the delete command")
	}
	drainCmd(cmd)
	if len(client.deleteCalls) != 1 || client.deleteCalls[0] != "adw-7" {
		t.Fatalf("delete calls = %v, want exactly [adw-7]", client.deleteCalls)
	}
}

func TestDeleteWithoutWorktreeShowsError(t *testing.T) {
	client := &fakeClient{}
	task := sampleTask()
	task.Metadata = nil
	m := openInspectorOn(t, newTestModel(client), task)

	updated, _ := m.Update(keyRune('x'))
	typed := updated.(model)
	if typed.confirmingDelete {
		t.Fatal("task without adw id must not arm deletion")
	}
	if typed.errorText == "" {
		t.Fatal("expected inline error for missing worktree")
	}
}

func TestTriggerBlockedWhileDisconnected(t *testing.T) {
	client := &fakeClient{}
	m := openInspectorOn(t, newTestModel(client), sampleTask())
	m.connected = false

	updated, _ := m.Update(keyRune('t'))
	typed := updated.(model)
	if typed.errorText == "" {
		t.Fatal("expected disconnect error text")
	}
	if len(client.triggerCalls) != 0 {
		t.Fatalf("disconnected trigger must not call store, got %v", client.triggerCalls)
	}
}

func TestTriggerWorkflowCallsStore(t *testing.T) {
	client := &fakeClient{}
	m := openInspectorOn(t, newTestModel(client), sampleTask())

	_, cmd := m.Update(keyRune('t'))
	if cmd == nil {
		t.Fatal("trigger should issue a command")
	}
	drainCmd(cmd)
	if len(client.triggerCalls) != 1 || client.triggerCalls[0] != "task-1" {
		t.Fatalf("trigger calls = %v", client.triggerCalls)
	}
}

func TestManualStageSelectionDisablesFollowOnce(t *testing.T) {
	client := &fakeClient{}
	m := openInspectorOn(t, newTestModel(client), sampleTask())
	m.pipeline = board.Pipeline{ID: "pipe-1", Stages: []string{"plan", "build", "test"}}

	updated, _ := m.Update(keyRune(']'))
	typed := updated.(model)
	if typed.follow {
		t.Fatal("manual stage selection should disable auto-follow")
	}
	if typed.selectedStage != "test" {
		t.Fatalf("selected stage = %q, want test", typed.selectedStage)
	}
}

func TestFollowTracksUpdatesUntilManualSelection(t *testing.T) {
	client := &fakeClient{}
	m := openInspectorOn(t, newTestModel(client), sampleTask())

	updated, _ := m.Update(updateEventMsg{Kind: "stage_changed", TaskID: "task-1", Stage: "test"})
	typed := updated.(model)
	if typed.selectedStage != "test" {
		t.Fatalf("follow should track stage updates, got %q", typed.selectedStage)
	}

	typed.follow = false
	updated, _ = typed.Update(updateEventMsg{Kind: "stage_changed", TaskID: "task-1", Stage: "plan"})
	typed = updated.(model)
	if typed.selectedStage != "test" {
		t.Fatalf("disabled follow must not track, got %q", typed.selectedStage)
	}
}

func TestStaleBoardResultDropped(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client)
	m.seq = 3

	updated, _ := m.Update(boardLoadedMsg{
		seq:   2,
		tasks: []board.Task{sampleTask()},
	})
	typed := updated.(model)
	if len(typed.tasks) != 0 {
		t.Fatal("stale board result must be dropped")
	}
}

func TestBoardNavigationClampsToColumns(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client)
	m.tasks = []board.Task{sampleTask()}

	updated, _ := m.Update(keyRune('h'))
	typed := updated.(model)
	if typed.columnIndex != 0 {
		t.Fatalf("column index = %d", typed.columnIndex)
	}
	for i := 0; i < 5; i++ {
		next, _ := typed.Update(keyRune('l'))
		typed = next.(model)
	}
	if typed.columnIndex != 2 {
		t.Fatalf("column index should clamp to last stage, got %d", typed.columnIndex)
	}
}

func TestCopyResultUsesClipboard(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client)
	copier := &fakeCopier{}
	m.copier = copier
	m.states = []board.WorkflowState{{
		TaskID: "task-1",
		Result: map[string]any{"status": "done"},
	}}
	m = openInspectorOn(t, m, sampleTask())

	_, cmd := m.Update(keyRune('y'))
	if cmd == nil {
		t.Fatal("copy should issue a command")
	}
	drainCmd(cmd)
	if len(copier.copied) != 1 {
		t.Fatalf("copied %d times, want 1", len(copier.copied))
	}
}

func TestResultModeCycles(t *testing.T) {
	client := &fakeClient{}
	m := openInspectorOn(t, newTestModel(client), sampleTask())

	updated, _ := m.Update(keyRune('m'))
	typed := updated.(model)
	if typed.resultMode != resultTree {
		t.Fatalf("mode = %d, want tree", typed.resultMode)
	}
	updated, _ = typed.Update(keyRune('m'))
	typed = updated.(model)
	if typed.resultMode != resultRaw {
		t.Fatalf("mode = %d, want raw", typed.resultMode)
	}
	updated, _ = typed.Update(keyRune('m'))
	typed = updated.(model)
	if typed.resultMode != resultBeautified {
		t.Fatalf("mode = %d, want beautified", typed.resultMode)
	}
}

func TestClearLogsCallsStore(t *testing.T) {
	client := &fakeClient{}
	m := openInspectorOn(t, newTestModel(client), sampleTask())

	_, cmd := m.Update(keyRune('c'))
	if cmd == nil {
		t.Fatal("clear logs should issue a command")
	}
	drainCmd(cmd)
	if len(client.clearCalls) != 1 || client.clearCalls[0] != "task-1" {
		t.Fatalf("clear calls = %v", client.clearCalls)
	}
}

func TestCollapseSectionsToggleIndependently(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client)
	prefStore := &fakePrefs{}
	m.prefs = prefStore
	m = openInspectorOn(t, m, sampleTask())

	updated, cmd := m.Update(keyRune('z'))
	typed := updated.(model)
	value, ok := typed.collapsed["raw-json"]
	if !ok || value {
		t.Fatalf("z should expand the raw json section, got %v (set %v)", value, ok)
	}
	if _, ok := typed.collapsed["metadata"]; ok {
		t.Fatal("raw json toggle must not touch metadata")
	}
	drainCmd(cmd)
	if len(prefStore.sets) != 1 || prefStore.sets[0] != "section:raw-json=false" {
		t.Fatalf("raw json toggle not persisted: %v", prefStore.sets)
	}

	updated, cmd = typed.Update(keyPress(tea.KeySpace, ""))
	typed = updated.(model)
	value, ok = typed.collapsed["metadata"]
	if !ok || value {
		t.Fatal("space should expand the metadata section")
	}
	if typed.collapsed["raw-json"] {
		t.Fatal("metadata toggle must not re-collapse raw json")
	}
	drainCmd(cmd)
	if len(prefStore.sets) != 2 || prefStore.sets[1] != "section:metadata=false" {
		t.Fatalf("metadata toggle not persisted: %v", prefStore.sets)
	}
}

func TestViewCarriesRenderedContent(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client)
	m.tasks = []board.Task{sampleTask()}

	view := m.View()
	if !strings.Contains(view.Content, "taskdeck") {
		t.Fatal("view content should carry the header brand")
	}
	if !strings.Contains(view.Content, "Board") {
		t.Fatal("view content should carry the board pane")
	}
}

func TestWindowResizeUpdatesDimensions(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 52})
	typed := updated.(model)
	if typed.width != 160 || typed.height != 52 {
		t.Fatalf("dimensions = %dx%d", typed.width, typed.height)
	}
}

// drainCmd runs a command and any batched sub-commands, discarding the
// resulting messages.
func drainCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			drainCmd(sub)
		}
	}
}
