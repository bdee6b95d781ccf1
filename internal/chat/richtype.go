package chat

// RichType is a closed tag identifying how a tool's structured result is
// rendered (job listing cards, message preview, tailored resume, ...).
type RichType string

// The closed rich-type set. RichToolOutput is the forward-compatibility
// arm for tool names this build doesn't know.
const (
	RichJobCards       RichType = "job_cards"
	RichMessagePreview RichType = "message_preview"
	RichResumeTailored RichType = "resume_tailored"
	RichResumeScore    RichType = "resume_score"
	RichEmailStatus    RichType = "email_status"
	RichApplyStatus    RichType = "apply_status"
	RichContextUpdate  RichType = "context_update"
	RichToolOutput     RichType = "tool_output"

	// RichToolLoading tags the transient in-progress placeholder appended
	// on tool_start and removed by the matching tool_result.
	RichToolLoading RichType = "tool_loading"
)

// ForTool maps a backend tool name to its rich type.
// Unknown tool names fall through to RichToolOutput so new backend tools
// degrade to a generic rendering instead of breaking the client.
func ForTool(name string) RichType {
	switch name {
	case "search_jobs":
		return RichJobCards
	case "generate_message", "preview_message":
		return RichMessagePreview
	case "tailor_resume":
		return RichResumeTailored
	case "score_resume":
		return RichResumeScore
	case "send_email":
		return RichEmailStatus
	case "auto_apply":
		return RichApplyStatus
	case "update_context":
		return RichContextUpdate
	default:
		return RichToolOutput
	}
}
