package chat

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/panacea-app/panacea-cli/internal/api"
)

// Role identifies who a display message belongs to.
type Role string

// Display roles. Persisted tool_result messages project onto RoleTool.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// DisplayMessage is the client-only projection rendered by the UI.
//
// For tool-role entries exactly one of Content or RichType+RichData is
// meaningfully populated; user and assistant entries carry Content only.
type DisplayMessage struct {
	ID       string
	Role     Role
	Content  string
	ToolName string
	RichType RichType
	RichData json.RawMessage
}

// Loading reports whether this is a transient tool-in-progress marker.
func (m DisplayMessage) Loading() bool {
	return m.RichType == RichToolLoading
}

// localID synthesizes an identifier for transient client-side entries
// (optimistic user messages, streamed assistant text, placeholders).
func localID() string {
	return "local-" + uuid.NewString()
}

// project converts one persisted message into zero or one DisplayMessage.
//
// tool_result content is parsed as JSON; unparseable content is wrapped
// under a "raw" key so the UI always has structured data to render. The
// rich type comes from the static tool-name table since persisted
// messages don't record it.
func project(msg api.ChatMessage) (DisplayMessage, bool) {
	id := msg.ID
	if id == "" {
		id = localID()
	}

	switch msg.Role {
	case api.RoleUser:
		return DisplayMessage{ID: id, Role: RoleUser, Content: msg.Content}, true

	case api.RoleAssistant:
		return DisplayMessage{ID: id, Role: RoleAssistant, Content: msg.Content}, true

	case api.RoleToolResult:
		data := json.RawMessage(msg.Content)
		if !json.Valid(data) {
			wrapped, err := json.Marshal(map[string]string{"raw": msg.Content})
			if err != nil {
				// Marshal of map[string]string cannot fail; keep the
				// fallback anyway so a future change degrades visibly.
				wrapped = []byte(fmt.Sprintf("{%q:%q}", "raw", "unrenderable tool result"))
			}
			data = wrapped
		}
		return DisplayMessage{
			ID:       id,
			Role:     RoleTool,
			ToolName: msg.ToolName,
			RichType: ForTool(msg.ToolName),
			RichData: data,
		}, true

	default:
		return DisplayMessage{}, false
	}
}
