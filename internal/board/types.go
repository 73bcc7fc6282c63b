package board

import (
	"encoding/json"
	"strings"
	"time"
)

// Task is a board task as served by the board server. Metadata is an
// open mapping; well-known keys are exposed through accessors so
// callers never probe the map directly.
type Task struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Stage       string         `json:"stage"`
	PipelineID  string         `json:"pipeline_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Logs        []LogEntry     `json:"logs,omitempty"`
}

type LogEntry struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Stage     string    `json:"stage,omitempty"`
}

type Pipeline struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Stages []string `json:"stages"`
}

// StageStatus is the workflow status of a single pipeline stage.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageActive    StageStatus = "active"
	StagePending   StageStatus = "pending"
)

// ParseStageStatus maps arbitrary server strings onto the known set.
// Unknown values render as pending.
func ParseStageStatus(value string) StageStatus {
	switch StageStatus(strings.ToLower(strings.TrimSpace(value))) {
	case StageCompleted:
		return StageCompleted
	case StageActive, "running":
		return StageActive
	default:
		return StagePending
	}
}

// WorkflowState is the server-reported run state for one task's workflow.
type WorkflowState struct {
	TaskID       string                 `json:"task_id"`
	Status       string                 `json:"status"`
	CurrentStage string                 `json:"current_stage"`
	Progress     map[string]StageStatus `json:"progress,omitempty"`
	Result       map[string]any         `json:"result,omitempty"`
}

// UnmarshalJSON tolerates a progress field of any shape. Servers have
// reported progress as a fraction as well as a per-stage map; anything
// that is not a map degrades to nil so one odd record never aborts a
// whole state list decode.
func (w *WorkflowState) UnmarshalJSON(data []byte) error {
	type alias WorkflowState
	aux := struct {
		Progress json.RawMessage `json:"progress"`
		*alias
	}{alias: (*alias)(w)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.Progress = nil
	if len(aux.Progress) == 0 {
		return nil
	}
	var progress map[string]StageStatus
	if err := json.Unmarshal(aux.Progress, &progress); err != nil {
		return nil
	}
	w.Progress = progress
	return nil
}

// StatusFor returns the status for a stage, defaulting to pending for
// stages the progress map does not cover.
func (w WorkflowState) StatusFor(stage string) StageStatus {
	if status, ok := w.Progress[stage]; ok {
		return ParseStageStatus(string(status))
	}
	return StagePending
}

// StateFor finds the workflow state for a task in a server-provided
// state list.
func StateFor(states []WorkflowState, taskID string) (WorkflowState, bool) {
	for _, state := range states {
		if state.TaskID == taskID {
			return state, true
		}
	}
	return WorkflowState{}, false
}

// ADWID returns the workflow run identifier stored in task metadata, or
// "" when the task has never been picked up by a workflow.
func (t Task) ADWID() string {
	return metadataString(t.Metadata, "adw_id")
}

// PlanID returns the plan document id associated with the task, falling
// back to the task id when metadata carries none.
func (t Task) PlanID() string {
	if id := metadataString(t.Metadata, "plan_id"); id != "" {
		return id
	}
	return t.ID
}

// MergeQueued reports whether a merge has already been requested for
// the task's workflow branch.
func (t Task) MergeQueued() bool {
	switch value := t.Metadata["merge_queued"].(type) {
	case bool:
		return value
	case string:
		return value == "true" || value == "1"
	default:
		return false
	}
}

// LogsForStage filters the task log to entries for one stage, in order.
// Entries without a stage attribution are included for every stage.
func (t Task) LogsForStage(stage string) []LogEntry {
	filtered := make([]LogEntry, 0, len(t.Logs))
	for _, entry := range t.Logs {
		if entry.Stage == "" || entry.Stage == stage {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func metadataString(metadata map[string]any, key string) string {
	value, ok := metadata[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
