package artifact

import (
	"encoding/json"
	"time"
)

// Type represents the artifact content type.
type Type string

// The closed artifact type set. Each corresponds to a rich tool result
// that warrants side-panel display.
const (
	TypeMessagePreview Type = "message_preview"
	TypeResumeTailored Type = "resume_tailored"
	TypeResumeScore    Type = "resume_score"
)

// Artifact represents side-panel content derived from a tool result.
//
// Each Artifact is identified by its originating MessageID; the panel
// enforces at most one artifact (or artifact version) per message id.
//
// Zero values:
//   - ID: "" (invalid, assigned by the panel on add)
//   - MessageID: "" (invalid, required)
//   - Versions: nil (single-version artifact; initialized lazily when a
//     second version is folded in)
//   - ActiveVersion: 0 (index into Versions once populated)
type Artifact struct {
	ID            string
	Type          Type
	Title         string
	Data          json.RawMessage
	MessageID     string
	CreatedAt     time.Time
	Versions      []Version
	ActiveVersion int
}

// Version is one stored revision of a versioned artifact.
type Version struct {
	Data      json.RawMessage
	MessageID string
	Title     string
	CreatedAt time.Time
}

// versioned reports whether multi-version state has been initialized.
func (a *Artifact) versioned() bool {
	return len(a.Versions) > 0
}

// clone returns a shallow-safe copy for read access. Versions share the
// backing array but callers only ever read them.
func (a *Artifact) clone() Artifact {
	out := *a
	out.Versions = make([]Version, len(a.Versions))
	copy(out.Versions, a.Versions)
	return out
}
