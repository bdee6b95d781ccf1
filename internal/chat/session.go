// Package chat maintains one active conversation's message list and
// mediates the backend's server-sent tool-calling event stream.
//
// The Session is the client-side reducer for that stream: it folds an
// ordered event sequence (tool_start, tool_result, text, done) into
// message-list mutations, enforces single-flight sends through an
// explicit Idle→Sending state machine, and persists the conversation
// context through the injected session-scoped store.
//
// Thread safety: all exported methods are safe for concurrent use, but
// turns are strictly sequential: a second SendMessage while one is in
// flight is rejected with ErrBusy, never queued.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"strings"
	"sync"

	"github.com/panacea-app/panacea-cli/internal/api"
	"github.com/panacea-app/panacea-cli/internal/log"
	"github.com/panacea-app/panacea-cli/internal/storage"
)

// Sentinel errors for send gating.
var (
	// ErrBusy is returned when a send is already in flight. Callers are
	// expected to disable the triggering control, so hitting this is a
	// UI bug, not a user error.
	ErrBusy = errors.New("chat: send already in flight")

	// ErrEmptyMessage is returned for whitespace-only input.
	ErrEmptyMessage = errors.New("chat: empty message")
)

// sendState is the session's turn state machine.
type sendState int

const (
	stateIdle sendState = iota
	stateSending
)

// titleLimit bounds the provisional title derived from the first message
// when a conversation is created lazily.
const titleLimit = 48

// Backend is the subset of the API client the session depends on.
type Backend interface {
	CreateConversation(ctx context.Context, title string, chatCtx *api.ChatContext) (*api.Conversation, error)
	ListConversations(ctx context.Context) ([]api.Conversation, error)
	GetConversation(ctx context.Context, id string) (*api.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	StreamMessage(ctx context.Context, conversationID, message string, chatCtx *api.ChatContext) iter.Seq2[api.ChatEvent, error]
}

// Session owns one active conversation and the conversation list.
type Session struct {
	backend Backend
	store   storage.Store // session-scoped; persists ChatContext
	logger  log.Logger

	mu             sync.Mutex
	state          sendState
	conversationID string
	conversations  []api.Conversation
	messages       []DisplayMessage
	chatCtx        api.ChatContext

	// assistantIdx points at the assistant message being streamed this
	// turn, -1 between turns. The first text event of a turn creates the
	// message; subsequent ones append to it.
	assistantIdx int

	// onChange fires after every message-list or context mutation, with
	// no locks held. The TUI uses it to trigger a redraw.
	onChange func()
}

// NewSession creates a session and restores any persisted context from
// the session-scoped store.
func NewSession(backend Backend, store storage.Store, logger log.Logger) *Session {
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Session{
		backend:      backend,
		store:        store,
		logger:       logger,
		assistantIdx: -1,
	}

	if data, err := store.Get(context.Background(), storage.KeyChatContext); err == nil {
		if err := json.Unmarshal(data, &s.chatCtx); err != nil {
			logger.Debug("discarding unreadable persisted context", "error", err)
		}
	}

	return s
}

// SetOnChange registers the redraw callback. Pass nil to clear.
func (s *Session) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Messages returns a copy of the display message list.
func (s *Session) Messages() []DisplayMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DisplayMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Conversations returns a copy of the conversation list, newest first.
func (s *Session) Conversations() []api.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// ConversationID returns the active conversation id, empty if none.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Context returns the current chat context.
func (s *Session) Context() api.ChatContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatCtx
}

// Sending reports whether a turn is in flight.
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateSending
}

// SetContext replaces the context wholesale and persists it.
func (s *Session) SetContext(ctx context.Context, chatCtx api.ChatContext) {
	s.mu.Lock()
	s.chatCtx = chatCtx
	s.mu.Unlock()

	s.persistContext(ctx, chatCtx)
	s.notify()
}

// RefreshConversations reloads the conversation list from the backend.
func (s *Session) RefreshConversations(ctx context.Context) error {
	convs, err := s.backend.ListConversations(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conversations = convs
	s.mu.Unlock()

	s.notify()
	return nil
}

// SelectConversation makes id active and replaces the message list with
// its projected history. Fails soft: on fetch error the list becomes
// empty rather than blocking the switch.
func (s *Session) SelectConversation(ctx context.Context, id string) {
	conv, err := s.backend.GetConversation(ctx, id)

	s.mu.Lock()
	s.conversationID = id
	s.messages = nil
	s.assistantIdx = -1
	if err != nil {
		s.logger.Warn("loading conversation history failed", "conversation_id", id, "error", err)
	} else {
		for _, msg := range conv.Messages {
			if dm, ok := project(msg); ok {
				s.messages = append(s.messages, dm)
			}
		}
	}
	s.mu.Unlock()

	s.notify()
}

// NewConversation clears the active conversation, message list, and
// context, and removes the persisted context.
func (s *Session) NewConversation(ctx context.Context) {
	s.mu.Lock()
	s.conversationID = ""
	s.messages = nil
	s.assistantIdx = -1
	s.chatCtx = api.ChatContext{}
	s.mu.Unlock()

	if err := s.store.Delete(ctx, storage.KeyChatContext); err != nil {
		s.logger.Debug("clearing persisted context failed", "error", err)
	}
	s.notify()
}

// DeleteConversation removes a conversation from the backend and the
// local list. Deleting the active conversation behaves as
// NewConversation.
func (s *Session) DeleteConversation(ctx context.Context, id string) error {
	if err := s.backend.DeleteConversation(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.conversations[:0]
	for _, conv := range s.conversations {
		if conv.ID != id {
			kept = append(kept, conv)
		}
	}
	s.conversations = kept
	wasActive := s.conversationID == id
	s.mu.Unlock()

	if wasActive {
		s.NewConversation(ctx)
		return nil
	}
	s.notify()
	return nil
}

// SendMessage sends one user message and folds the response stream into
// the message list.
//
// The user message is appended optimistically before any network call.
// If no conversation exists yet, one is created seeded with the current
// context and registered at the head of the conversation list. Exactly
// one send may be in flight; a concurrent call returns ErrBusy.
//
// On a hard transport failure the turn is aborted and one assistant-role
// error message is appended. After the turn, whether it succeeded or
// not, the conversation list is refreshed to pick up backend-assigned
// titles.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == stateSending {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = stateSending
	s.assistantIdx = -1
	s.messages = append(s.messages, DisplayMessage{
		ID:      localID(),
		Role:    RoleUser,
		Content: text,
	})
	chatCtx := s.chatCtx
	convID := s.conversationID
	s.mu.Unlock()
	s.notify()

	defer func() {
		s.mu.Lock()
		s.state = stateIdle
		s.assistantIdx = -1
		s.mu.Unlock()

		if err := s.RefreshConversations(ctx); err != nil {
			s.logger.Debug("refreshing conversation list failed", "error", err)
		}
	}()

	if convID == "" {
		conv, err := s.backend.CreateConversation(ctx, deriveTitle(text), contextArg(chatCtx))
		if err != nil {
			s.appendError(err)
			return nil
		}
		convID = conv.ID

		s.mu.Lock()
		s.conversationID = convID
		s.conversations = append([]api.Conversation{*conv}, s.conversations...)
		s.mu.Unlock()
		s.notify()
	}

	for event, err := range s.backend.StreamMessage(ctx, convID, text, contextArg(chatCtx)) {
		if err != nil {
			s.appendError(err)
			return nil
		}
		s.applyEvent(ctx, event)
	}

	return nil
}

// applyEvent folds one stream event into the message list. Events arrive
// from a single ordered stream, so there is no reordering to handle.
func (s *Session) applyEvent(ctx context.Context, event api.ChatEvent) {
	switch event.Type {
	case api.EventToolStart:
		s.mu.Lock()
		s.messages = append(s.messages, DisplayMessage{
			ID:       localID(),
			Role:     RoleTool,
			ToolName: event.Tool,
			RichType: RichToolLoading,
			RichData: event.Args,
		})
		s.mu.Unlock()

	case api.EventToolResult:
		richType := RichType(event.RichType)
		if richType == "" {
			richType = ForTool(event.Tool)
		}

		s.mu.Lock()
		s.removeLoadingLocked(event.Tool)
		s.messages = append(s.messages, DisplayMessage{
			ID:       localID(),
			Role:     RoleTool,
			ToolName: event.Tool,
			RichType: richType,
			RichData: event.Result,
		})
		s.mu.Unlock()

		if richType == RichContextUpdate {
			s.mergeContext(ctx, event.Result)
		}

	case api.EventText:
		s.mu.Lock()
		if s.assistantIdx < 0 {
			s.assistantIdx = len(s.messages)
			s.messages = append(s.messages, DisplayMessage{
				ID:   localID(),
				Role: RoleAssistant,
			})
		}
		s.messages[s.assistantIdx].Content += event.Text
		s.mu.Unlock()

	case api.EventDone:
		// End of turn; the deferred cleanup in SendMessage releases the
		// in-flight state.
		return

	default:
		s.logger.Debug("ignoring unknown chat event", "type", event.Type)
		return
	}

	s.notify()
}

// removeLoadingLocked drops the most recent loading placeholder for tool.
// At most one is outstanding per tool name at a time in practice.
// Caller holds s.mu.
func (s *Session) removeLoadingLocked(tool string) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.RichType == RichToolLoading && m.ToolName == tool {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// dropLoadingLocked removes every loading placeholder. Caller holds s.mu.
func (s *Session) dropLoadingLocked() {
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.RichType != RichToolLoading {
			kept = append(kept, m)
		}
	}
	s.messages = kept
}

// mergeContext folds a context_update tool result into the live context
// and persists it.
func (s *Session) mergeContext(ctx context.Context, result json.RawMessage) {
	var update api.ChatContext
	if err := json.Unmarshal(result, &update); err != nil {
		s.logger.Debug("ignoring unreadable context update", "error", err)
		return
	}

	s.mu.Lock()
	s.chatCtx = s.chatCtx.Merge(update)
	merged := s.chatCtx
	s.mu.Unlock()

	s.persistContext(ctx, merged)
}

// appendError aborts the turn with one generic assistant-role error
// message. Outstanding loading placeholders are dropped so an aborted
// turn leaves no permanent "in progress" rows.
func (s *Session) appendError(err error) {
	s.logger.Warn("chat turn failed", "error", err)

	content := "Something went wrong sending your message. Please try again."
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		// Business errors (rate limits especially) carry backend wording
		// meant for the user.
		content = apiErr.Message
	}

	s.mu.Lock()
	s.dropLoadingLocked()
	s.messages = append(s.messages, DisplayMessage{
		ID:      localID(),
		Role:    RoleAssistant,
		Content: content,
	})
	s.mu.Unlock()
	s.notify()
}

func (s *Session) persistContext(ctx context.Context, chatCtx api.ChatContext) {
	data, err := json.Marshal(chatCtx)
	if err != nil {
		s.logger.Debug("marshaling context failed", "error", err)
		return
	}
	if err := s.store.Set(ctx, storage.KeyChatContext, data); err != nil {
		s.logger.Debug("persisting context failed", "error", err)
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// contextArg returns nil for a zero context so request bodies omit it.
func contextArg(chatCtx api.ChatContext) *api.ChatContext {
	if chatCtx.IsZero() {
		return nil
	}
	return &chatCtx
}

// deriveTitle produces a provisional conversation title from the first
// message; the backend replaces it with a generated one. Truncation is
// by rune so multibyte input never yields an invalid title.
func deriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleLimit {
		return text
	}
	cut := string(runes[:titleLimit])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
