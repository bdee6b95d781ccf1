package artifact

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Panel projects a filtered, deduplicated, possibly-versioned view of
// tool-result messages for side-panel display.
//
// Invariant: the dedup set and the artifact list always agree; every
// tracked message id corresponds to exactly one artifact or one artifact
// version, and no message id is represented twice. Add and AddVersion
// are idempotent under at-least-once delivery.
type Panel struct {
	mu        sync.Mutex
	artifacts []*Artifact
	tracked   map[string]struct{} // message ids already folded in
	activeID  string
	open      bool
	logger    *slog.Logger
}

// NewPanel creates an empty panel.
func NewPanel(logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{
		tracked: make(map[string]struct{}),
		logger:  logger,
	}
}

// Add appends a new artifact.
//
// A no-op (returning false) if the artifact's origin message id was
// already tracked. If autoOpen is set the artifact becomes active and
// the panel opens.
func (p *Panel) Add(a *Artifact, autoOpen bool) (bool, error) {
	if err := ValidateType(a.Type); err != nil {
		return false, err
	}
	if a.MessageID == "" {
		return false, ErrMissingMessageID
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, seen := p.tracked[a.MessageID]; seen {
		return false, nil
	}

	stored := a.clone()
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	p.artifacts = append(p.artifacts, &stored)
	p.tracked[a.MessageID] = struct{}{}

	if autoOpen {
		p.activeID = stored.ID
		p.open = true
	}

	p.logger.Debug("added artifact",
		"artifact_id", stored.ID,
		"type", stored.Type,
		"message_id", stored.MessageID)
	return true, nil
}

// AddVersion folds a new tool result onto an existing artifact of the
// given type as its next version.
//
// If the origin message id is already tracked this is a successful no-op
// (returns true) to guarantee idempotence. Returns false when no
// artifact of the type exists yet; callers fall back to Add, so the
// first occurrence of a type always becomes version 1.
func (p *Panel) AddVersion(t Type, a *Artifact) (bool, error) {
	if err := ValidateType(t); err != nil {
		return false, err
	}
	if a.MessageID == "" {
		return false, ErrMissingMessageID
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, seen := p.tracked[a.MessageID]; seen {
		return true, nil
	}

	existing := p.findByTypeLocked(t)
	if existing == nil {
		return false, nil
	}

	// Initialize the versions array from the existing single-version
	// artifact. Its original title stays attached to version 1 and is
	// never re-derived from the final count.
	if !existing.versioned() {
		existing.Versions = []Version{{
			Data:      existing.Data,
			MessageID: existing.MessageID,
			Title:     existing.Title,
			CreatedAt: existing.CreatedAt,
		}}
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	title := a.Title
	if title == "" {
		title = fmt.Sprintf("%s (v%d)", existing.Versions[0].Title, len(existing.Versions)+1)
	}

	existing.Versions = append(existing.Versions, Version{
		Data:      a.Data,
		MessageID: a.MessageID,
		Title:     title,
		CreatedAt: createdAt,
	})
	existing.ActiveVersion = len(existing.Versions) - 1
	existing.Data = a.Data
	existing.Title = title

	p.tracked[a.MessageID] = struct{}{}
	p.activeID = existing.ID
	p.open = true

	p.logger.Debug("added artifact version",
		"artifact_id", existing.ID,
		"type", t,
		"version", len(existing.Versions),
		"message_id", a.MessageID)
	return true, nil
}

// SetVersion repoints an artifact's displayed data and title to a stored
// version without mutating history.
func (p *Panel) SetVersion(id string, idx int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	a := p.findByIDLocked(id)
	if a == nil {
		return ErrNotFound
	}
	if idx < 0 || idx >= len(a.Versions) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidVersion, idx, len(a.Versions))
	}

	a.ActiveVersion = idx
	a.Data = a.Versions[idx].Data
	a.Title = a.Versions[idx].Title
	return nil
}

// Open makes the artifact active and shows the panel.
func (p *Panel) Open(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.findByIDLocked(id) == nil {
		return ErrNotFound
	}
	p.activeID = id
	p.open = true
	return nil
}

// Close hides the panel. The artifact list is untouched.
func (p *Panel) Close() {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
}

// Clear resets all state including the dedup tracking set.
// Invoked on conversation switch.
func (p *Panel) Clear() {
	p.mu.Lock()
	p.artifacts = nil
	p.tracked = make(map[string]struct{})
	p.activeID = ""
	p.open = false
	p.mu.Unlock()
}

// Artifacts returns copies of all artifacts in insertion order.
func (p *Panel) Artifacts() []Artifact {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Artifact, 0, len(p.artifacts))
	for _, a := range p.artifacts {
		out = append(out, a.clone())
	}
	return out
}

// Active returns a copy of the active artifact, if any.
func (p *Panel) Active() (Artifact, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a := p.findByIDLocked(p.activeID)
	if a == nil {
		return Artifact{}, false
	}
	return a.clone(), true
}

// IsOpen reports panel visibility.
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Tracked reports whether a message id has already been folded in.
func (p *Panel) Tracked(messageID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.tracked[messageID]
	return ok
}

func (p *Panel) findByIDLocked(id string) *Artifact {
	if id == "" {
		return nil
	}
	for _, a := range p.artifacts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (p *Panel) findByTypeLocked(t Type) *Artifact {
	for _, a := range p.artifacts {
		if a.Type == t {
			return a
		}
	}
	return nil
}
