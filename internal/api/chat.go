package api

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/panacea-app/panacea-cli/internal/sse"
)

// Message role constants as persisted by the backend.
const (
	RoleUser       = "user"
	RoleAssistant  = "assistant"
	RoleToolResult = "tool_result"
)

// Conversation is a persisted chat session.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages is populated only by GetConversation.
	Messages []ChatMessage `json:"messages,omitempty"`
}

// ChatMessage is one persisted message within a conversation.
// For tool_result messages, Content holds the tool's JSON result and
// ToolName identifies which tool produced it.
type ChatMessage struct {
	ID         string `json:"id"`
	Role       string `json:"role"` // "user" | "assistant" | "tool_result"
	Content    string `json:"content"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ChatContext is the optional bag of fields attached to a conversation at
// creation and re-sent with every message.
type ChatContext struct {
	JobDescription string `json:"job_description,omitempty"`
	ResumeID       string `json:"resume_id,omitempty"`
	MessageType    string `json:"message_type,omitempty"`
	PositionTitle  string `json:"position_title,omitempty"`
	RecruiterName  string `json:"recruiter_name,omitempty"`
}

// IsZero reports whether no context field is set.
func (c ChatContext) IsZero() bool {
	return c == ChatContext{}
}

// Merge returns a copy of c with every non-empty field of other applied.
// Used for backend-issued context_update tool results, which may be
// partial.
func (c ChatContext) Merge(other ChatContext) ChatContext {
	if other.JobDescription != "" {
		c.JobDescription = other.JobDescription
	}
	if other.ResumeID != "" {
		c.ResumeID = other.ResumeID
	}
	if other.MessageType != "" {
		c.MessageType = other.MessageType
	}
	if other.PositionTitle != "" {
		c.PositionTitle = other.PositionTitle
	}
	if other.RecruiterName != "" {
		c.RecruiterName = other.RecruiterName
	}
	return c
}

// ChatEventType tags one frame of the send stream.
type ChatEventType string

// The closed event union for POST /chat/conversations/{id}/send.
const (
	EventToolStart  ChatEventType = "tool_start"
	EventToolResult ChatEventType = "tool_result"
	EventText       ChatEventType = "text"
	EventDone       ChatEventType = "done"
)

// ChatEvent is one decoded frame of a send stream. Fields are populated
// per Type: Tool/Args for tool_start; Tool/RichType/Result for
// tool_result; Text for text; nothing extra for done.
type ChatEvent struct {
	Type     ChatEventType   `json:"type"`
	Tool     string          `json:"tool,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
	RichType string          `json:"rich_type,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Text     string          `json:"text,omitempty"`
}

// CreateConversation creates a conversation, optionally seeded with a
// title and context.
func (c *Client) CreateConversation(ctx context.Context, title string, chatCtx *ChatContext) (*Conversation, error) {
	req := struct {
		Title   string       `json:"title,omitempty"`
		Context *ChatContext `json:"context,omitempty"`
	}{Title: title, Context: chatCtx}

	var conv Conversation
	if err := c.do(ctx, http.MethodPost, "/chat/conversations", req, &conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations returns all conversations, newest first.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var convs []Conversation
	if err := c.do(ctx, http.MethodGet, "/chat/conversations", nil, &convs); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// GetConversation returns one conversation with its full message history.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodGet, "/chat/conversations/"+id, nil, &conv); err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return &conv, nil
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/chat/conversations/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	return nil
}

// StreamMessage sends one user message and yields the backend's event
// stream in arrival order.
//
// Malformed frames are skipped (logged at debug), matching the protocol's
// tolerance for partial corruption; only transport failures terminate the
// sequence with an error. The sequence ends without error after the
// stream closes; the done event is yielded, not implied.
func (c *Client) StreamMessage(ctx context.Context, conversationID, message string, chatCtx *ChatContext) iter.Seq2[ChatEvent, error] {
	return func(yield func(ChatEvent, error) bool) {
		req := struct {
			Message string       `json:"message"`
			Context *ChatContext `json:"context,omitempty"`
		}{Message: message, Context: chatCtx}

		body, err := c.stream(ctx, http.MethodPost, "/chat/conversations/"+conversationID+"/send", req)
		if err != nil {
			yield(ChatEvent{}, err)
			return
		}
		defer body.Close()

		for frame, err := range sse.Frames(body) {
			if err != nil {
				yield(ChatEvent{}, fmt.Errorf("chat stream: %w", err))
				return
			}

			var event ChatEvent
			if err := json.Unmarshal([]byte(frame), &event); err != nil {
				c.logger.Debug("skipping malformed chat frame", "error", err)
				continue
			}
			if event.Type == "" {
				c.logger.Debug("skipping untyped chat frame")
				continue
			}

			if !yield(event, nil) {
				return
			}
		}
	}
}
