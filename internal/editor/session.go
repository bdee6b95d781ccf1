// Package editor manages iterative, prompt-driven edits to one resume's
// rendered fields, producing a linear, navigable version history of
// generated documents.
//
// Version numbers are monotonic and assigned by the backend in the edit
// response; the client never invents one. The "current version" pointer
// is client state and may point anywhere in history; only SubmitEdit
// appends new versions, and every new version is mutually exclusive with
// an in-flight submit (single-flight, mirroring the chat session).
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panacea-app/panacea-cli/internal/api"
	"github.com/panacea-app/panacea-cli/internal/log"
)

// Sentinel errors for edit gating.
var (
	// ErrBusy is returned when a submit is already in flight.
	ErrBusy = errors.New("editor: submit already in flight")

	// ErrEmptyPrompt is returned for whitespace-only edit prompts.
	ErrEmptyPrompt = errors.New("editor: empty prompt")

	// ErrNoDrafts is returned by ApplyDrafts with an empty draft buffer.
	ErrNoDrafts = errors.New("editor: no staged drafts")

	// ErrUnknownField is returned when staging a draft for a field id
	// that is not in the form map.
	ErrUnknownField = errors.New("editor: unknown field")
)

type submitState int

const (
	stateIdle submitState = iota
	stateSubmitting
)

// Draft is a proposed but unapplied single-field change, staged before
// batch submission.
type Draft struct {
	FieldID      string
	FieldType    string
	Section      string
	OriginalText string
	NewText      string
	Reasoning    string
	Warnings     []string
}

// HistoryItem records one successful edit submission. Append-only,
// ordered by submission time.
type HistoryItem struct {
	Prompt         string
	Changes        []api.EditChange
	Version        int
	DownloadID     string
	DiffDownloadID string
	CreatedAt      time.Time
}

// Backend is the subset of the API client the editor depends on.
type Backend interface {
	GetFormMap(ctx context.Context, resumeID string, refresh bool) ([]api.FormField, error)
	ListResumeVersions(ctx context.Context, resumeID string) ([]api.ResumeVersion, error)
	SubmitEdit(ctx context.Context, resumeID string, req api.EditRequest) (*api.EditResponse, error)
	DownloadURL(downloadID string) string
}

// Session manages the edit state for one resume.
type Session struct {
	backend  Backend
	resumeID string
	logger   log.Logger

	mu             sync.Mutex
	state          submitState
	fields         []api.FormField // render order preserved
	fieldIdx       map[string]int  // field id -> index into fields
	drafts         map[string]Draft
	history        []HistoryItem
	versions       []api.ResumeVersion
	currentVersion int // 0 = the original document
	lastError      string
}

// NewSession creates an editor session for one resume.
func NewSession(backend Backend, resumeID string, logger log.Logger) *Session {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Session{
		backend:  backend,
		resumeID: resumeID,
		logger:   logger,
		fieldIdx: make(map[string]int),
		drafts:   make(map[string]Draft),
	}
}

// LoadFormMap fetches the field inventory. Nothing can be edited
// without the form map, so a failure here is returned for the caller
// to surface.
func (s *Session) LoadFormMap(ctx context.Context, refresh bool) error {
	fields, err := s.backend.GetFormMap(ctx, s.resumeID, refresh)
	if err != nil {
		return fmt.Errorf("load form map: %w", err)
	}

	s.mu.Lock()
	s.fields = fields
	s.fieldIdx = make(map[string]int, len(fields))
	for i, f := range fields {
		s.fieldIdx[f.ID] = i
	}
	s.mu.Unlock()
	return nil
}

// LoadVersions fetches the version list. Versions are optional
// supplementary data, so a failure degrades to an empty list instead of
// blocking the editor.
func (s *Session) LoadVersions(ctx context.Context) {
	versions, err := s.backend.ListResumeVersions(ctx, s.resumeID)
	if err != nil {
		s.logger.Warn("loading version list failed", "resume_id", s.resumeID, "error", err)
		return
	}

	s.mu.Lock()
	s.versions = versions
	if n := len(versions); n > 0 {
		s.currentVersion = versions[n-1].Version
	}
	s.mu.Unlock()
}

// Fields returns a copy of the form map in render order.
func (s *Session) Fields() []api.FormField {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.FormField, len(s.fields))
	copy(out, s.fields)
	return out
}

// AddDraft stages a manual single-field change. The original text is
// captured from the form map, so callers only provide the replacement.
func (s *Session) AddDraft(fieldID, newText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.fieldIdx[fieldID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}
	f := s.fields[i]
	s.drafts[fieldID] = Draft{
		FieldID:      fieldID,
		FieldType:    f.Type,
		Section:      f.Section,
		OriginalText: f.Text,
		NewText:      newText,
	}
	return nil
}

// RemoveDraft unstages one draft. Removing a missing draft is a no-op.
func (s *Session) RemoveDraft(fieldID string) {
	s.mu.Lock()
	delete(s.drafts, fieldID)
	s.mu.Unlock()
}

// ClearDrafts empties the draft buffer.
func (s *Session) ClearDrafts() {
	s.mu.Lock()
	s.drafts = make(map[string]Draft)
	s.mu.Unlock()
}

// Drafts returns a copy of the draft buffer keyed by field id.
func (s *Session) Drafts() map[string]Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Draft, len(s.drafts))
	for k, v := range s.drafts {
		out[k] = v
	}
	return out
}

// ApplyDrafts synthesizes a natural-language instruction enumerating all
// staged changes and submits it through the same path as a free-text
// prompt.
func (s *Session) ApplyDrafts(ctx context.Context) error {
	s.mu.Lock()
	if len(s.drafts) == 0 {
		s.mu.Unlock()
		return ErrNoDrafts
	}
	prompt, targets := draftInstruction(s.fields, s.drafts)
	s.mu.Unlock()

	return s.SubmitEdit(ctx, prompt, targets)
}

// SubmitEdit applies a prompt-driven edit. Single-flight per session.
//
// On success it appends one HistoryItem and one version summary with the
// backend-assigned version number, advances the current-version pointer,
// rewrites the in-memory field text for every changed field (so the UI
// reflects the edit without a refetch), and clears the draft buffer. On
// failure it records a client-visible error string and mutates no
// version state.
func (s *Session) SubmitEdit(ctx context.Context, prompt string, fieldTargets []string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.state == stateSubmitting {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = stateSubmitting
	s.lastError = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = stateIdle
		s.mu.Unlock()
	}()

	resp, err := s.backend.SubmitEdit(ctx, s.resumeID, api.EditRequest{
		Prompt:       prompt,
		FieldTargets: fieldTargets,
	})
	if err != nil {
		s.mu.Lock()
		s.lastError = editErrorMessage(err)
		s.mu.Unlock()
		return err
	}

	now := time.Now()

	s.mu.Lock()
	s.history = append(s.history, HistoryItem{
		Prompt:         prompt,
		Changes:        resp.Changes,
		Version:        resp.Version,
		DownloadID:     resp.DownloadID,
		DiffDownloadID: resp.DiffDownloadID,
		CreatedAt:      now,
	})
	s.versions = append(s.versions, api.ResumeVersion{
		Version:        resp.Version,
		DownloadID:     resp.DownloadID,
		DiffDownloadID: resp.DiffDownloadID,
		Prompt:         prompt,
		ChangeCount:    len(resp.Changes),
		CreatedAt:      now,
	})
	s.currentVersion = resp.Version

	for _, change := range resp.Changes {
		if i, ok := s.fieldIdx[change.FieldID]; ok {
			s.fields[i].Text = change.NewText
		}
	}

	s.drafts = make(map[string]Draft)
	s.mu.Unlock()

	s.logger.Info("applied resume edit",
		"resume_id", s.resumeID,
		"version", resp.Version,
		"changes", len(resp.Changes))
	return nil
}

// LastError returns the client-visible message of the most recent failed
// submit, empty after a success.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// SwitchToVersion repoints the current-version pointer. Purely a pointer
// change: no refetch, no history mutation. Pointing at a version not in
// the list is allowed; URL derivation simply returns nothing for it.
func (s *Session) SwitchToVersion(n int) {
	s.mu.Lock()
	s.currentVersion = n
	s.mu.Unlock()
}

// CurrentVersion returns the current-version pointer.
func (s *Session) CurrentVersion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentVersion
}

// Versions returns a copy of the version list, oldest first.
func (s *Session) Versions() []api.ResumeVersion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.ResumeVersion, len(s.versions))
	copy(out, s.versions)
	return out
}

// History returns a copy of the edit history, oldest first.
func (s *Session) History() []HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryItem, len(s.history))
	copy(out, s.history)
	return out
}

// CurrentPDFURL derives the document URL for the current version.
// Returns "" when the pointer matches no stored version.
func (s *Session) CurrentPDFURL() string {
	if v, ok := s.currentVersionEntry(); ok {
		return s.backend.DownloadURL(v.DownloadID)
	}
	return ""
}

// CurrentDiffURL derives the diff URL for the current version.
// Returns "" when there is no matching version or the version has no
// diff.
func (s *Session) CurrentDiffURL() string {
	if v, ok := s.currentVersionEntry(); ok && v.DiffDownloadID != "" {
		return s.backend.DownloadURL(v.DiffDownloadID)
	}
	return ""
}

func (s *Session) currentVersionEntry() (api.ResumeVersion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions {
		if v.Version == s.currentVersion {
			return v, true
		}
	}
	return api.ResumeVersion{}, false
}

// draftInstruction renders the staged drafts as one edit prompt,
// enumerated in form-map order for a stable instruction.
func draftInstruction(fields []api.FormField, drafts map[string]Draft) (string, []string) {
	var b strings.Builder
	b.WriteString("Apply exactly these field changes:\n")

	targets := make([]string, 0, len(drafts))
	for _, f := range fields {
		d, ok := drafts[f.ID]
		if !ok {
			continue
		}
		targets = append(targets, d.FieldID)
		if d.Section != "" {
			fmt.Fprintf(&b, "- In %s, replace %q with %q\n", d.Section, d.OriginalText, d.NewText)
		} else {
			fmt.Fprintf(&b, "- Replace %q with %q\n", d.OriginalText, d.NewText)
		}
	}
	return strings.TrimRight(b.String(), "\n"), targets
}

// editErrorMessage prefers backend wording for business errors.
func editErrorMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Edit failed. Please try again."
}
