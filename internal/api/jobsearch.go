package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// JobQuery describes a job search request.
type JobQuery struct {
	Query    string `json:"query"`
	Location string `json:"location,omitempty"`
	Remote   bool   `json:"remote,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// JobCard is one search result. The same shape arrives as the payload of
// the job_cards rich type in chat tool results.
type JobCard struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location,omitempty"`
	URL         string    `json:"url"`
	Salary      string    `json:"salary,omitempty"`
	Description string    `json:"description,omitempty"`
	PostedAt    time.Time `json:"posted_at,omitzero"`
}

// SearchJobs runs a job search through the backend.
func (c *Client) SearchJobs(ctx context.Context, q JobQuery) ([]JobCard, error) {
	var resp struct {
		Jobs []JobCard `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodPost, "/job-descriptions/search", q, &resp); err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}
	return resp.Jobs, nil
}
