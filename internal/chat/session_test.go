package chat

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panacea-app/panacea-cli/internal/api"
	"github.com/panacea-app/panacea-cli/internal/storage"
)

// fakeBackend scripts the stream returned by StreamMessage and records
// calls.
type fakeBackend struct {
	mu sync.Mutex

	events    []api.ChatEvent
	streamErr error

	createErr     error
	conversations []api.Conversation
	history       *api.Conversation
	historyErr    error

	streamCalls  int
	createCalls  int
	deletedIDs   []string
	lastStreamed string
}

func (f *fakeBackend) CreateConversation(_ context.Context, title string, _ *api.ChatContext) (*api.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &api.Conversation{ID: "conv-1", Title: title}, nil
}

func (f *fakeBackend) ListConversations(context.Context) ([]api.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conversations, nil
}

func (f *fakeBackend) GetConversation(_ context.Context, id string) (*api.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if f.history != nil {
		return f.history, nil
	}
	return &api.Conversation{ID: id}, nil
}

func (f *fakeBackend) DeleteConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeBackend) StreamMessage(_ context.Context, _, message string, _ *api.ChatContext) iter.Seq2[api.ChatEvent, error] {
	f.mu.Lock()
	f.streamCalls++
	f.lastStreamed = message
	events := f.events
	streamErr := f.streamErr
	f.mu.Unlock()

	return func(yield func(api.ChatEvent, error) bool) {
		if streamErr != nil {
			yield(api.ChatEvent{}, streamErr)
			return
		}
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func newTestSession(t *testing.T, backend *fakeBackend) *Session {
	t.Helper()
	return NewSession(backend, storage.NewMemory(), nil)
}

func TestSendMessage_FullToolTurn(t *testing.T) {
	t.Parallel()

	cards := json.RawMessage(`{"jobs":[{"title":"Go Engineer","company":"Acme"}]}`)
	backend := &fakeBackend{events: []api.ChatEvent{
		{Type: api.EventToolStart, Tool: "search_jobs"},
		{Type: api.EventToolResult, Tool: "search_jobs", Result: cards},
		{Type: api.EventText, Text: "I found "},
		{Type: api.EventText, Text: "one role."},
		{Type: api.EventDone},
	}}
	s := newTestSession(t, backend)

	require.NoError(t, s.SendMessage(context.Background(), "find go jobs"))

	msgs := s.Messages()
	require.Len(t, msgs, 3)

	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "find go jobs", msgs[0].Content)

	assert.Equal(t, RoleTool, msgs[1].Role)
	assert.Equal(t, RichJobCards, msgs[1].RichType)
	assert.JSONEq(t, string(cards), string(msgs[1].RichData))

	assert.Equal(t, RoleAssistant, msgs[2].Role)
	assert.Equal(t, "I found one role.", msgs[2].Content)

	// The loading placeholder must not survive the tool result.
	for _, m := range msgs {
		assert.False(t, m.Loading(), "no loading placeholder should remain")
	}

	assert.Equal(t, 1, backend.streamCalls)
	assert.False(t, s.Sending())
}

func TestSendMessage_LazyConversationCreate(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{events: []api.ChatEvent{{Type: api.EventDone}}}
	s := newTestSession(t, backend)

	require.Empty(t, s.ConversationID())
	require.NoError(t, s.SendMessage(context.Background(), "hello"))

	assert.Equal(t, "conv-1", s.ConversationID())
	assert.Equal(t, 1, backend.createCalls)

	// Second send reuses the conversation.
	require.NoError(t, s.SendMessage(context.Background(), "again"))
	assert.Equal(t, 1, backend.createCalls)
	assert.Equal(t, 2, backend.streamCalls)
}

func TestSendMessage_EmptyInput(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	s := newTestSession(t, backend)

	require.ErrorIs(t, s.SendMessage(context.Background(), "   \n\t"), ErrEmptyMessage)
	assert.Empty(t, s.Messages())
	assert.Equal(t, 0, backend.streamCalls)
}

func TestSendMessage_SingleFlight(t *testing.T) {
	t.Parallel()

	// A stream that blocks until released, holding the session in the
	// sending state.
	release := make(chan struct{})
	entered := make(chan struct{})
	backend := &blockingBackend{entered: entered, release: release}
	s := NewSession(backend, storage.NewMemory(), nil)

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "first") }()

	<-entered
	require.True(t, s.Sending())
	require.ErrorIs(t, s.SendMessage(context.Background(), "second"), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Sending())

	// Exactly one outbound request was made.
	assert.Equal(t, 1, backend.streamCalls)
}

type blockingBackend struct {
	fakeBackend
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) StreamMessage(_ context.Context, _, _ string, _ *api.ChatContext) iter.Seq2[api.ChatEvent, error] {
	b.mu.Lock()
	b.streamCalls++
	b.mu.Unlock()
	return func(yield func(api.ChatEvent, error) bool) {
		close(b.entered)
		<-b.release
		yield(api.ChatEvent{Type: api.EventDone}, nil)
	}
}

func TestSendMessage_StreamErrorDropsLoadingPlaceholder(t *testing.T) {
	t.Parallel()

	backend := &midStreamFailBackend{failAfter: 1}
	backend.events = []api.ChatEvent{
		{Type: api.EventToolStart, Tool: "auto_apply"},
	}
	s := NewSession(backend, storage.NewMemory(), nil)

	require.NoError(t, s.SendMessage(context.Background(), "apply to the acme role"))

	msgs := s.Messages()
	require.Len(t, msgs, 2, "user message plus one error message")
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	for _, m := range msgs {
		assert.False(t, m.Loading(), "an aborted turn leaves no in-progress rows")
	}
	assert.False(t, s.Sending())
}

// midStreamFailBackend yields its events, then a transport error.
type midStreamFailBackend struct {
	fakeBackend
	failAfter int
}

func (b *midStreamFailBackend) StreamMessage(_ context.Context, _, _ string, _ *api.ChatContext) iter.Seq2[api.ChatEvent, error] {
	b.mu.Lock()
	b.streamCalls++
	b.mu.Unlock()
	return func(yield func(api.ChatEvent, error) bool) {
		for i, ev := range b.events {
			if i >= b.failAfter {
				break
			}
			if !yield(ev, nil) {
				return
			}
		}
		yield(api.ChatEvent{}, errors.New("connection reset"))
	}
}

func TestSendMessage_TransportErrorAppendsAssistantMessage(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{streamErr: errors.New("connection refused")}
	s := newTestSession(t, backend)

	require.NoError(t, s.SendMessage(context.Background(), "hello"))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "Something went wrong")
	assert.False(t, s.Sending())
}

func TestSendMessage_RateLimitMessageVerbatim(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{streamErr: &api.Error{
		Status:  429,
		Message: "Daily limit reached. Upgrade to continue.",
	}}
	s := newTestSession(t, backend)

	require.NoError(t, s.SendMessage(context.Background(), "hello"))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Daily limit reached. Upgrade to continue.", msgs[1].Content)
}

func TestSendMessage_ContextUpdateMergesAndPersists(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{events: []api.ChatEvent{
		{
			Type:   api.EventToolResult,
			Tool:   "update_context",
			Result: json.RawMessage(`{"position_title":"Staff Engineer"}`),
		},
		{Type: api.EventDone},
	}}
	store := storage.NewMemory()
	s := NewSession(backend, store, nil)
	s.SetContext(context.Background(), api.ChatContext{RecruiterName: "Dana"})

	require.NoError(t, s.SendMessage(context.Background(), "update my target role"))

	got := s.Context()
	assert.Equal(t, "Staff Engineer", got.PositionTitle)
	assert.Equal(t, "Dana", got.RecruiterName, "merge must keep unrelated fields")

	// Persisted through the store: a fresh session restores it.
	s2 := NewSession(backend, store, nil)
	assert.Equal(t, got, s2.Context())
}

func TestSendMessage_ToolResultWithoutStart(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{events: []api.ChatEvent{
		{Type: api.EventToolResult, Tool: "score_resume", Result: json.RawMessage(`{"score":82}`)},
		{Type: api.EventDone},
	}}
	s := newTestSession(t, backend)

	require.NoError(t, s.SendMessage(context.Background(), "score it"))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RichResumeScore, msgs[1].RichType)
}

func TestSendMessage_ExplicitRichTypeWins(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{events: []api.ChatEvent{
		{
			Type:     api.EventToolResult,
			Tool:     "search_jobs",
			RichType: "tool_output",
			Result:   json.RawMessage(`{}`),
		},
		{Type: api.EventDone},
	}}
	s := newTestSession(t, backend)

	require.NoError(t, s.SendMessage(context.Background(), "x"))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RichToolOutput, msgs[1].RichType)
}

func TestSelectConversation_ProjectsHistory(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{history: &api.Conversation{
		ID: "conv-9",
		Messages: []api.ChatMessage{
			{ID: "m1", Role: api.RoleUser, Content: "hi"},
			{ID: "m2", Role: api.RoleAssistant, Content: "hello"},
			{ID: "m3", Role: api.RoleToolResult, ToolName: "search_jobs", Content: `{"jobs":[]}`},
			{ID: "m4", Role: "system", Content: "ignored"},
		},
	}}
	s := newTestSession(t, backend)

	s.SelectConversation(context.Background(), "conv-9")

	assert.Equal(t, "conv-9", s.ConversationID())
	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, RoleTool, msgs[2].Role)
	assert.Equal(t, RichJobCards, msgs[2].RichType)
}

func TestSelectConversation_FailsSoft(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{historyErr: errors.New("not found")}
	s := newTestSession(t, backend)

	s.SelectConversation(context.Background(), "missing")

	assert.Equal(t, "missing", s.ConversationID())
	assert.Empty(t, s.Messages())
}

func TestSelectConversation_UnparseableToolResultWrapped(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{history: &api.Conversation{
		ID: "conv-2",
		Messages: []api.ChatMessage{
			{ID: "m1", Role: api.RoleToolResult, ToolName: "send_email", Content: "not json"},
		},
	}}
	s := newTestSession(t, backend)

	s.SelectConversation(context.Background(), "conv-2")

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.JSONEq(t, `{"raw":"not json"}`, string(msgs[0].RichData))
}

func TestNewConversation_ClearsEverything(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{events: []api.ChatEvent{{Type: api.EventDone}}}
	store := storage.NewMemory()
	s := NewSession(backend, store, nil)
	s.SetContext(context.Background(), api.ChatContext{ResumeID: "r1"})
	require.NoError(t, s.SendMessage(context.Background(), "hello"))

	s.NewConversation(context.Background())

	assert.Empty(t, s.ConversationID())
	assert.Empty(t, s.Messages())
	assert.True(t, s.Context().IsZero())

	_, err := store.Get(context.Background(), storage.KeyChatContext)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteConversation_ActiveResets(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{events: []api.ChatEvent{{Type: api.EventDone}}}
	s := newTestSession(t, backend)
	require.NoError(t, s.SendMessage(context.Background(), "hello"))
	require.Equal(t, "conv-1", s.ConversationID())

	require.NoError(t, s.DeleteConversation(context.Background(), "conv-1"))

	assert.Equal(t, []string{"conv-1"}, backend.deletedIDs)
	assert.Empty(t, s.ConversationID())
	assert.Empty(t, s.Messages())
}

func TestDeriveTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short stays whole", "find me a job", "find me a job"},
		{
			"long cuts at word boundary",
			"please tailor my resume for the senior platform engineer position at initech",
			"please tailor my resume for the senior platform…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, deriveTitle(tt.in))
		})
	}
}

func TestDeriveTitle_MultibyteInput(t *testing.T) {
	t.Parallel()

	in := strings.Repeat("幫我修改履歷", 10)
	got := deriveTitle(in)

	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.Equal(t, strings.Repeat("幫我修改履歷", 8)+"…", got)
}
