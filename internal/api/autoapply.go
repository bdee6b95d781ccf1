package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Auto-apply task states as reported by the backend. The browser
// automation itself runs server-side; the client only surfaces status.
const (
	TaskQueued   = "queued"
	TaskRunning  = "running"
	TaskAwaiting = "awaiting_confirmation"
	TaskDone     = "done"
	TaskFailed   = "failed"
	TaskCanceled = "canceled"
)

// TaskStatus is one status snapshot of an auto-apply task.
type TaskStatus struct {
	TaskID    string    `json:"task_id"`
	Status    string    `json:"status"`
	Step      string    `json:"step,omitempty"`    // e.g. "filling_form", "uploading_resume"
	Message   string    `json:"message,omitempty"` // human-readable progress detail
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Terminal reports whether the task has reached a final state.
func (s TaskStatus) Terminal() bool {
	switch s.Status {
	case TaskDone, TaskFailed, TaskCanceled:
		return true
	}
	return false
}

// StartAutoApply kicks off a browser-automation application for a job.
func (c *Client) StartAutoApply(ctx context.Context, applicationID, resumeID string) (*TaskStatus, error) {
	req := struct {
		ApplicationID string `json:"application_id"`
		ResumeID      string `json:"resume_id,omitempty"`
	}{ApplicationID: applicationID, ResumeID: resumeID}

	var status TaskStatus
	if err := c.do(ctx, http.MethodPost, "/auto-apply/tasks", req, &status); err != nil {
		return nil, fmt.Errorf("start auto-apply: %w", err)
	}
	return &status, nil
}

// GetTaskStatus polls one task's current status.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	var status TaskStatus
	if err := c.do(ctx, http.MethodGet, "/auto-apply/tasks/"+taskID, nil, &status); err != nil {
		return nil, fmt.Errorf("get task status %s: %w", taskID, err)
	}
	return &status, nil
}

// CancelTask asks the backend to abort a running task.
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	if err := c.do(ctx, http.MethodPost, "/auto-apply/tasks/"+taskID+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("cancel task %s: %w", taskID, err)
	}
	return nil
}

// TaskSocketURL derives the WebSocket endpoint for live task status.
func (c *Client) TaskSocketURL(taskID string) string {
	url := c.baseURL + "/auto-apply/ws/" + taskID
	if strings.HasPrefix(url, "https://") {
		return "wss://" + strings.TrimPrefix(url, "https://")
	}
	return "ws://" + strings.TrimPrefix(url, "http://")
}

// Token exposes the bearer token for the WebSocket handshake header.
// Empty in dev mode.
func (c *Client) Token() string {
	if c.devMode {
		return ""
	}
	return c.token
}
