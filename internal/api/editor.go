package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// FormField is one editable rendered field of a resume document.
type FormField struct {
	ID      string `json:"id"`
	Type    string `json:"type"` // "text" | "bullet" | "heading"
	Section string `json:"section,omitempty"`
	Text    string `json:"text"`
	Page    int    `json:"page,omitempty"`
}

// EditChange is one applied field change in an edit response.
type EditChange struct {
	FieldID      string   `json:"field_id"`
	FieldType    string   `json:"field_type"`
	Section      string   `json:"section,omitempty"`
	OriginalText string   `json:"original_text"`
	NewText      string   `json:"new_text"`
	Reasoning    string   `json:"reasoning,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// EditRequest submits a prompt-driven edit, optionally restricted to
// specific fields.
type EditRequest struct {
	Prompt       string   `json:"prompt"`
	FieldTargets []string `json:"field_targets,omitempty"`
}

// EditResponse carries the backend-assigned version of the produced
// document. The client never invents version numbers.
type EditResponse struct {
	Version        int          `json:"version"`
	Changes        []EditChange `json:"changes"`
	DownloadID     string       `json:"download_id"`
	DiffDownloadID string       `json:"diff_download_id,omitempty"`
}

// ResumeVersion is one entry of the version list for an edited resume.
type ResumeVersion struct {
	Version        int       `json:"version"`
	DownloadID     string    `json:"download_id"`
	DiffDownloadID string    `json:"diff_download_id,omitempty"`
	Prompt         string    `json:"prompt,omitempty"`
	ChangeCount    int       `json:"change_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetFormMap fetches the field inventory for a resume. refresh forces the
// backend to re-render the document before extracting fields.
func (c *Client) GetFormMap(ctx context.Context, resumeID string, refresh bool) ([]FormField, error) {
	path := "/resume-editor/" + resumeID + "/form-map"
	if refresh {
		path += "?refresh=true"
	}

	var resp struct {
		Fields []FormField `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get form map for %s: %w", resumeID, err)
	}
	return resp.Fields, nil
}

// ListResumeVersions returns the version history for a resume, oldest
// first.
func (c *Client) ListResumeVersions(ctx context.Context, resumeID string) ([]ResumeVersion, error) {
	var resp struct {
		Versions []ResumeVersion `json:"versions"`
	}
	if err := c.do(ctx, http.MethodGet, "/resume-editor/"+resumeID+"/versions", nil, &resp); err != nil {
		return nil, fmt.Errorf("list versions for %s: %w", resumeID, err)
	}
	return resp.Versions, nil
}

// SubmitEdit applies a prompt-driven edit and returns the new version.
func (c *Client) SubmitEdit(ctx context.Context, resumeID string, req EditRequest) (*EditResponse, error) {
	var resp EditResponse
	if err := c.do(ctx, http.MethodPost, "/resume-editor/"+resumeID+"/edit", req, &resp); err != nil {
		return nil, fmt.Errorf("submit edit for %s: %w", resumeID, err)
	}
	return &resp, nil
}

// DownloadURL derives the document URL for a download id. Pure string
// shaping; no request is made.
func (c *Client) DownloadURL(downloadID string) string {
	if downloadID == "" {
		return ""
	}
	return c.baseURL + "/resume-editor/downloads/" + downloadID
}
