package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/board"
	"github.com/taskdeck/taskdeck/internal/config"
)

// API is the surface the TUI depends on. The concrete Client satisfies
// it; tests substitute fakes.
type API interface {
	ListTasks(ctx context.Context, filter string, limit int) ([]board.Task, error)
	Pipeline(ctx context.Context, pipelineID string) (board.Pipeline, error)
	WorkflowStates(ctx context.Context) ([]board.WorkflowState, error)
	TriggerWorkflow(ctx context.Context, taskID string) error
	TriggerMerge(ctx context.Context, taskID string) error
	DeleteWorktree(ctx context.Context, adwID string) error
	ClearLogs(ctx context.Context, taskID string) error
}

// Client talks to the board server's JSON API. Mutating calls carry a
// generated idempotency key so a retried request cannot double-apply.
type Client struct {
	baseURL string
	http    *http.Client
	newKey  func() string
}

type listTasksResponse struct {
	Items []board.Task `json:"items"`
	Count int          `json:"count"`
}

type workflowStatesResponse struct {
	Items []board.WorkflowState `json:"items"`
	Count int                   `json:"count"`
}

func New(cfg config.Config) *Client {
	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	if timeout < time.Second {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		http:    &http.Client{Timeout: timeout},
		newKey:  uuid.NewString,
	}
}

func (c *Client) ListTasks(ctx context.Context, filter string, limit int) ([]board.Task, error) {
	query := url.Values{}
	if strings.TrimSpace(filter) != "" {
		query.Set("filter", strings.TrimSpace(filter))
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	endpoint := c.baseURL + "/api/v1/tasks"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var response listTasksResponse
	if err := c.doJSON(req, &response); err != nil {
		return nil, err
	}
	return response.Items, nil
}

func (c *Client) Pipeline(ctx context.Context, pipelineID string) (board.Pipeline, error) {
	pipelineID = strings.TrimSpace(pipelineID)
	if pipelineID == "" {
		return board.Pipeline{}, fmt.Errorf("pipeline id is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/pipelines/"+url.PathEscape(pipelineID), nil)
	if err != nil {
		return board.Pipeline{}, err
	}
	var pipeline board.Pipeline
	if err := c.doJSON(req, &pipeline); err != nil {
		return board.Pipeline{}, err
	}
	return pipeline, nil
}

func (c *Client) WorkflowStates(ctx context.Context) ([]board.WorkflowState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/workflows", nil)
	if err != nil {
		return nil, err
	}
	var response workflowStatesResponse
	if err := c.doJSON(req, &response); err != nil {
		return nil, err
	}
	return response.Items, nil
}

func (c *Client) TriggerWorkflow(ctx context.Context, taskID string) error {
	return c.postAction(ctx, "/api/v1/workflows/trigger", map[string]string{"task_id": taskID}, "task id")
}

func (c *Client) TriggerMerge(ctx context.Context, taskID string) error {
	return c.postAction(ctx, "/api/v1/workflows/merge", map[string]string{"task_id": taskID}, "task id")
}

func (c *Client) DeleteWorktree(ctx context.Context, adwID string) error {
	return c.postAction(ctx, "/api/v1/worktrees/delete", map[string]string{"adw_id": adwID}, "adw id")
}

func (c *Client) ClearLogs(ctx context.Context, taskID string) error {
	return c.postAction(ctx, "/api/v1/tasks/clear-logs", map[string]string{"task_id": taskID}, "task id")
}

func (c *Client) postAction(ctx context.Context, path string, payload map[string]string, requiredName string) error {
	for key, value := range payload {
		payload[key] = strings.TrimSpace(value)
		if payload[key] == "" {
			return fmt.Errorf("%s is required", requiredName)
		}
	}
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(requestBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", c.newKey())
	return c.doJSON(req, nil)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var apiError struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiError)
		if strings.TrimSpace(apiError.Error) == "" {
			apiError.Error = res.Status
		}
		return fmt.Errorf("%s", apiError.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
