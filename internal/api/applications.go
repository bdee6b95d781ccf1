package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/panacea-app/panacea-cli/internal/sse"
)

// Application pipeline stages.
const (
	StageSaved     = "saved"
	StageApplied   = "applied"
	StageInterview = "interview"
	StageOffer     = "offer"
	StageRejected  = "rejected"
)

// Application is one tracked job application.
type Application struct {
	ID             string    `json:"id"`
	Company        string    `json:"company"`
	Position       string    `json:"position"`
	Stage          string    `json:"stage"`
	JobDescription string    `json:"job_description,omitempty"`
	ResumeID       string    `json:"resume_id,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GenerateRequest asks the backend to draft an outreach message for an
// application.
type GenerateRequest struct {
	ApplicationID  string `json:"application_id,omitempty"`
	JobDescription string `json:"job_description,omitempty"`
	MessageType    string `json:"message_type,omitempty"` // e.g. "cover_letter", "recruiter_dm"
	ResumeID       string `json:"resume_id,omitempty"`
	RecruiterName  string `json:"recruiter_name,omitempty"`
}

// generateEvent is the {token, done, error} union of /applications/stream.
type generateEvent struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// ListApplications returns all tracked applications.
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.do(ctx, http.MethodGet, "/applications", nil, &apps); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// CreateApplication records a new application.
func (c *Client) CreateApplication(ctx context.Context, app Application) (*Application, error) {
	var created Application
	if err := c.do(ctx, http.MethodPost, "/applications", app, &created); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return &created, nil
}

// UpdateApplicationStage moves an application through the pipeline.
func (c *Client) UpdateApplicationStage(ctx context.Context, id, stage string) error {
	req := struct {
		Stage string `json:"stage"`
	}{Stage: stage}
	if err := c.do(ctx, http.MethodPatch, "/applications/"+id, req, nil); err != nil {
		return fmt.Errorf("update application %s: %w", id, err)
	}
	return nil
}

// DeleteApplication removes a tracked application.
func (c *Client) DeleteApplication(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/applications/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete application %s: %w", id, err)
	}
	return nil
}

// StreamGenerate streams a drafted outreach message token by token.
//
// A backend "error" event (rate limiting in particular) terminates the
// sequence with the backend's message verbatim. Malformed frames are
// skipped. The sequence ends after the "done" event or stream close.
func (c *Client) StreamGenerate(ctx context.Context, req GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		body, err := c.stream(ctx, http.MethodPost, "/applications/stream", req)
		if err != nil {
			yield("", err)
			return
		}
		defer body.Close()

		for frame, err := range sse.Frames(body) {
			if err != nil {
				yield("", fmt.Errorf("generate stream: %w", err))
				return
			}

			var event generateEvent
			if err := json.Unmarshal([]byte(frame), &event); err != nil {
				c.logger.Debug("skipping malformed generate frame", "error", err)
				continue
			}

			switch event.Type {
			case "token":
				if !yield(event.Token, nil) {
					return
				}
			case "done":
				return
			case "error":
				yield("", errors.New(event.Message))
				return
			default:
				c.logger.Debug("skipping unknown generate event", "type", event.Type)
			}
		}
	}
}
