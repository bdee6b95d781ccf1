package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Resume is one uploaded resume in the user's library.
type Resume struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Filename   string    `json:"filename"`
	Active     bool      `json:"active"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ListResumes returns the resume library.
func (c *Client) ListResumes(ctx context.Context) ([]Resume, error) {
	var resumes []Resume
	if err := c.do(ctx, http.MethodGet, "/resumes", nil, &resumes); err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return resumes, nil
}

// UploadResume uploads a resume PDF as multipart form data.
func (c *Client) UploadResume(ctx context.Context, filename string, r io.Reader) (*Resume, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy resume data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resumes", &buf)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if !c.devMode {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}
	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	var resume Resume
	if err := unmarshalJSON(respBody, &resume); err != nil {
		return nil, err
	}
	return &resume, nil
}

// SetActiveResume marks one resume as the default for tailoring and
// message generation.
func (c *Client) SetActiveResume(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/resumes/"+id+"/set-active", nil, nil); err != nil {
		return fmt.Errorf("set active resume %s: %w", id, err)
	}
	return nil
}

// DeleteResume removes a resume from the library.
func (c *Client) DeleteResume(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/resumes/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete resume %s: %w", id, err)
	}
	return nil
}
