package artifact

import (
	"encoding/json"
	"time"
)

// typeForRich maps a tool-result rich type to an artifact type.
// Most rich types (loading markers, context updates, job cards) are not
// panel material and map to ok=false.
func typeForRich(richType string) (Type, bool) {
	switch Type(richType) {
	case TypeMessagePreview, TypeResumeTailored, TypeResumeScore:
		return Type(richType), true
	}
	return "", false
}

// FromToolResult builds an Artifact from one tool-result message.
// Returns ok=false for rich types that don't belong in the panel.
//
// The title is read from the payload's "title" field when present and
// left empty otherwise, so version folding can derive "(vN)" titles;
// Fold fills a per-type default for standalone artifacts.
func FromToolResult(messageID, richType string, data json.RawMessage) (*Artifact, bool) {
	t, ok := typeForRich(richType)
	if !ok {
		return nil, false
	}

	return &Artifact{
		Type:      t,
		Title:     payloadTitle(data),
		Data:      data,
		MessageID: messageID,
		CreatedAt: time.Now(),
	}, true
}

// Fold routes one artifact into the panel.
//
// resume_tailored results stack as versions of the existing artifact
// when one exists; everything else (and the first tailored resume)
// becomes an independent artifact. Reports whether the artifact was
// accepted, counting idempotent re-delivery of a tracked message id.
func (p *Panel) Fold(a *Artifact) (bool, error) {
	if a.Type == TypeResumeTailored {
		folded, err := p.AddVersion(TypeResumeTailored, a)
		if err != nil {
			return false, err
		}
		if folded {
			return true, nil
		}
	}
	if a.Title == "" {
		a.Title = defaultTitle(a.Type)
	}
	return p.Add(a, true)
}

func payloadTitle(data json.RawMessage) string {
	var payload struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Title
}

func defaultTitle(t Type) string {
	switch t {
	case TypeMessagePreview:
		return "Message Preview"
	case TypeResumeTailored:
		return "Tailored Resume"
	case TypeResumeScore:
		return "Resume Score"
	default:
		return "Result"
	}
}
