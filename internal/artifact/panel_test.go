package artifact

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preview(messageID string) *Artifact {
	return &Artifact{
		Type:      TypeMessagePreview,
		Title:     "Message Preview",
		Data:      json.RawMessage(`{"body":"Hi there"}`),
		MessageID: messageID,
	}
}

func tailored(messageID, title string) *Artifact {
	return &Artifact{
		Type:      TypeResumeTailored,
		Title:     title,
		Data:      json.RawMessage(fmt.Sprintf(`{"origin":%q}`, messageID)),
		MessageID: messageID,
	}
}

func TestPanel_Add(t *testing.T) {
	t.Parallel()

	t.Run("first add stores and opens", func(t *testing.T) {
		t.Parallel()
		p := NewPanel(nil)

		added, err := p.Add(preview("msg-1"), true)
		require.NoError(t, err)
		assert.True(t, added)

		all := p.Artifacts()
		require.Len(t, all, 1)
		assert.NotEmpty(t, all[0].ID)
		assert.True(t, p.IsOpen())

		active, ok := p.Active()
		require.True(t, ok)
		assert.Equal(t, all[0].ID, active.ID)
	})

	t.Run("duplicate message id is a no-op", func(t *testing.T) {
		t.Parallel()
		p := NewPanel(nil)

		added, err := p.Add(preview("msg-1"), true)
		require.NoError(t, err)
		require.True(t, added)

		added, err = p.Add(preview("msg-1"), true)
		require.NoError(t, err)
		assert.False(t, added)
		assert.Len(t, p.Artifacts(), 1)
	})

	t.Run("without autoOpen the panel stays closed", func(t *testing.T) {
		t.Parallel()
		p := NewPanel(nil)

		_, err := p.Add(preview("msg-1"), false)
		require.NoError(t, err)
		assert.False(t, p.IsOpen())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()
		p := NewPanel(nil)

		_, err := p.Add(&Artifact{Type: "job_cards", MessageID: "m"}, true)
		assert.ErrorIs(t, err, ErrInvalidType)

		_, err = p.Add(&Artifact{Type: TypeMessagePreview}, true)
		assert.ErrorIs(t, err, ErrMissingMessageID)
	})
}

func TestPanel_VersionFolding(t *testing.T) {
	t.Parallel()

	p := NewPanel(nil)

	// Three tailored resumes arrive across a conversation.
	for i, a := range []*Artifact{
		tailored("msg-1", ""),
		tailored("msg-2", ""),
		tailored("msg-3", ""),
	} {
		accepted, err := p.Fold(a)
		require.NoError(t, err, "fold %d", i)
		require.True(t, accepted, "fold %d", i)
	}

	all := p.Artifacts()
	require.Len(t, all, 1, "tailored resumes stack, never siblings")

	a := all[0]
	require.Len(t, a.Versions, 3)
	assert.Equal(t, 2, a.ActiveVersion, "latest version is active")

	// Version 1 keeps the original title; later ones are derived.
	assert.Equal(t, "Tailored Resume", a.Versions[0].Title)
	assert.Equal(t, "Tailored Resume (v2)", a.Versions[1].Title)
	assert.Equal(t, "Tailored Resume (v3)", a.Versions[2].Title)

	// Displayed data tracks the active version.
	assert.Equal(t, a.Versions[2].Data, a.Data)
	assert.True(t, p.IsOpen())
}

func TestPanel_AddVersionIdempotent(t *testing.T) {
	t.Parallel()

	p := NewPanel(nil)
	_, err := p.Fold(tailored("msg-1", ""))
	require.NoError(t, err)
	_, err = p.Fold(tailored("msg-2", ""))
	require.NoError(t, err)

	// Re-delivery of an already folded message id.
	accepted, err := p.AddVersion(TypeResumeTailored, tailored("msg-2", ""))
	require.NoError(t, err)
	assert.True(t, accepted, "idempotent success")

	all := p.Artifacts()
	require.Len(t, all, 1)
	assert.Len(t, all[0].Versions, 2, "no duplicate version")
}

func TestPanel_SetVersion(t *testing.T) {
	t.Parallel()

	p := NewPanel(nil)
	_, err := p.Fold(tailored("msg-1", ""))
	require.NoError(t, err)
	_, err = p.Fold(tailored("msg-2", ""))
	require.NoError(t, err)

	a := p.Artifacts()[0]

	require.NoError(t, p.SetVersion(a.ID, 0))
	got := p.Artifacts()[0]
	assert.Equal(t, 0, got.ActiveVersion)
	assert.Equal(t, got.Versions[0].Data, got.Data)
	assert.Equal(t, got.Versions[0].Title, got.Title)

	assert.ErrorIs(t, p.SetVersion(a.ID, 5), ErrInvalidVersion)
	assert.ErrorIs(t, p.SetVersion(a.ID, -1), ErrInvalidVersion)
	assert.ErrorIs(t, p.SetVersion("nope", 0), ErrNotFound)
}

func TestPanel_MixedTypesStaySiblings(t *testing.T) {
	t.Parallel()

	p := NewPanel(nil)
	_, err := p.Fold(preview("msg-1"))
	require.NoError(t, err)
	_, err = p.Fold(tailored("msg-2", ""))
	require.NoError(t, err)
	_, err = p.Fold(&Artifact{
		Type:      TypeResumeScore,
		Data:      json.RawMessage(`{"score":91}`),
		MessageID: "msg-3",
	})
	require.NoError(t, err)

	all := p.Artifacts()
	require.Len(t, all, 3)

	// Most recent fold is active.
	active, ok := p.Active()
	require.True(t, ok)
	assert.Equal(t, TypeResumeScore, active.Type)
}

func TestPanel_ClearResetsDedup(t *testing.T) {
	t.Parallel()

	p := NewPanel(nil)
	_, err := p.Add(preview("msg-1"), true)
	require.NoError(t, err)

	p.Clear()

	assert.Empty(t, p.Artifacts())
	assert.False(t, p.IsOpen())
	_, ok := p.Active()
	assert.False(t, ok)

	// The same message id is acceptable again after a clear.
	added, err := p.Add(preview("msg-1"), true)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestPanel_OpenClose(t *testing.T) {
	t.Parallel()

	p := NewPanel(nil)
	_, err := p.Add(preview("msg-1"), false)
	require.NoError(t, err)
	id := p.Artifacts()[0].ID

	assert.ErrorIs(t, p.Open("missing"), ErrNotFound)

	require.NoError(t, p.Open(id))
	assert.True(t, p.IsOpen())

	p.Close()
	assert.False(t, p.IsOpen())

	// Closing hides but keeps content.
	assert.Len(t, p.Artifacts(), 1)
}

func TestFromToolResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		richType  string
		wantOK    bool
		wantType  Type
		wantTitle string
	}{
		{"message preview", "message_preview", true, TypeMessagePreview, ""},
		{"resume tailored", "resume_tailored", true, TypeResumeTailored, ""},
		{"resume score", "resume_score", true, TypeResumeScore, ""},
		{"job cards are not panel material", "job_cards", false, "", ""},
		{"loading marker rejected", "tool_loading", false, "", ""},
		{"generic output rejected", "tool_output", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, ok := FromToolResult("msg-1", tt.richType, json.RawMessage(`{}`))
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantType, a.Type)
			assert.Equal(t, tt.wantTitle, a.Title)
			assert.Equal(t, "msg-1", a.MessageID)
		})
	}

	t.Run("payload title wins", func(t *testing.T) {
		t.Parallel()

		a, ok := FromToolResult("msg-2", "message_preview", json.RawMessage(`{"title":"Follow-up to Dana"}`))
		require.True(t, ok)
		assert.Equal(t, "Follow-up to Dana", a.Title)
	})
}
