package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/panacea-app/panacea-cli/internal/api"
	"github.com/panacea-app/panacea-cli/internal/artifact"
	"github.com/panacea-app/panacea-cli/internal/chat"
)

// View implements tea.Model.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	chatView := m.renderChatColumn()
	if m.panelVisible() {
		panelView := m.renderPanel()
		m.viewBuf.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chatView, panelView))
	} else {
		m.viewBuf.WriteString(chatView)
	}
	return tea.NewView(m.viewBuf.String())
}

// renderChatColumn assembles viewport, input line and help bar.
func (m *Model) renderChatColumn() string {
	var b strings.Builder

	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Separator.Render(strings.Repeat("─", max(1, m.chatWidth))))
	b.WriteString("\n")

	if m.state == StateStreaming {
		b.WriteString(m.styles.Spinner.Render(m.spinner.View()))
		b.WriteString(m.styles.Subtitle.Render(" thinking... (esc to cancel)"))
	} else {
		b.WriteString(m.styles.Prompt.Render("> "))
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Separator.Render(strings.Repeat("─", max(1, m.chatWidth))))
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))

	return b.String()
}

// renderMessages builds the full transcript for the viewport.
func (m *Model) renderMessages() string {
	var b strings.Builder

	msgs := m.session.Messages()
	if len(msgs) == 0 {
		b.WriteString(m.styles.Banner.Render(banner))
		b.WriteString("\n")
		b.WriteString(m.styles.Subtitle.Render("  Your job application copilot. Ask away, or /help."))
		b.WriteString("\n")
	}

	for _, msg := range msgs {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	for _, n := range m.notices {
		if n.Error {
			b.WriteString(m.styles.Error.Render("✗ " + n.Text))
		} else {
			b.WriteString(m.styles.Notice.Render(n.Text))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderMessage renders one display message by role.
func (m *Model) renderMessage(msg chat.DisplayMessage) string {
	switch msg.Role {
	case chat.RoleUser:
		return m.styles.UserLabel.Render("You ") + m.styles.UserText.Render(msg.Content) + "\n"
	case chat.RoleAssistant:
		return m.markdown.render(msg.Content)
	case chat.RoleTool:
		return m.renderToolMessage(msg)
	default:
		return msg.Content
	}
}

// renderToolMessage renders a tool status line plus a compact summary of
// the structured payload.
func (m *Model) renderToolMessage(msg chat.DisplayMessage) string {
	if msg.Loading() {
		return m.styles.ToolLabel.Render("⚙ "+toolVerb(msg.ToolName)) +
			m.styles.ToolDetail.Render(" ...") + "\n"
	}

	head := m.styles.ToolLabel.Render("⚙ " + toolVerb(msg.ToolName))
	body := m.summarizeRich(msg.RichType, msg.RichData)
	if body == "" {
		return head + "\n"
	}
	return head + "\n" + m.styles.ToolDetail.Render(body) + "\n"
}

// summarizeRich produces an inline summary per rich type. Artifact-bound
// payloads stay terse here since the panel carries the full content.
func (m *Model) summarizeRich(rt chat.RichType, data json.RawMessage) string {
	switch rt {
	case chat.RichJobCards:
		return summarizeJobCards(data)

	case chat.RichMessagePreview:
		return "  Message draft ready — open the artifact panel (ctrl+o)."

	case chat.RichResumeTailored:
		return "  Tailored resume ready — open the artifact panel (ctrl+o)."

	case chat.RichResumeScore:
		return summarizeScore(data)

	case chat.RichEmailStatus, chat.RichApplyStatus:
		return summarizeStatus(data)

	case chat.RichContextUpdate:
		return "  Context updated."

	default:
		return summarizeGeneric(data)
	}
}

func summarizeJobCards(data json.RawMessage) string {
	var payload struct {
		Jobs []api.JobCard `json:"jobs"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Jobs) == 0 {
		return "  No matching jobs."
	}

	var b strings.Builder
	for i, job := range payload.Jobs {
		fmt.Fprintf(&b, "  %d. %s — %s", i+1, job.Title, job.Company)
		if job.Location != "" {
			fmt.Fprintf(&b, " (%s)", job.Location)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func summarizeScore(data json.RawMessage) string {
	var payload struct {
		Score   float64 `json:"score"`
		Summary string  `json:"summary"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "  Resume scored — open the artifact panel (ctrl+o)."
	}
	out := fmt.Sprintf("  Score: %.0f/100", payload.Score)
	if payload.Summary != "" {
		out += " — " + payload.Summary
	}
	return out
}

func summarizeStatus(data json.RawMessage) string {
	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Status == "" {
		return summarizeGeneric(data)
	}
	if payload.Message != "" {
		return "  " + payload.Status + ": " + payload.Message
	}
	return "  " + payload.Status
}

// summarizeGeneric is the fallback for unknown tool payloads: a single
// truncated line so new backend tools stay visible without breaking
// layout.
func summarizeGeneric(data json.RawMessage) string {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return ""
	}
	const limit = 120
	if len(s) > limit {
		s = s[:limit] + "…"
	}
	return "  " + s
}

// toolVerb converts a tool name to a human status verb.
func toolVerb(name string) string {
	switch name {
	case "search_jobs":
		return "Searching jobs"
	case "generate_message", "preview_message":
		return "Drafting message"
	case "tailor_resume":
		return "Tailoring resume"
	case "score_resume":
		return "Scoring resume"
	case "send_email":
		return "Sending email"
	case "auto_apply":
		return "Applying"
	case "update_context":
		return "Updating context"
	default:
		if name == "" {
			return "Working"
		}
		return strings.ReplaceAll(name, "_", " ")
	}
}

// renderPanel renders the artifact side panel.
func (m *Model) renderPanel() string {
	width := m.panelWidth() - 4 // border and padding
	if width < 8 {
		width = 8
	}

	var b strings.Builder
	active, ok := m.panel.Active()
	if !ok {
		b.WriteString(m.styles.PanelMeta.Render("No active artifact."))
	} else {
		b.WriteString(m.styles.PanelTitle.Render(active.Title))
		b.WriteString("\n")
		if len(active.Versions) > 1 {
			b.WriteString(m.styles.PanelMeta.Render(fmt.Sprintf(
				"version %d of %d  (ctrl+←/→)", active.ActiveVersion+1, len(active.Versions))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(renderArtifactBody(active, width))
	}

	others := m.panel.Artifacts()
	if len(others) > 1 {
		b.WriteString("\n\n")
		b.WriteString(m.styles.PanelMeta.Render("Artifacts:"))
		b.WriteString("\n")
		for _, a := range others {
			marker := "  "
			style := m.styles.PanelMeta
			if a.ID == active.ID {
				marker = "▸ "
				style = m.styles.PanelActive
			}
			b.WriteString(style.Render(marker + a.Title))
			b.WriteString("\n")
		}
	}

	return m.styles.PanelBorder.
		Width(m.panelWidth() - 2).
		Height(m.vpHeight).
		Render(b.String())
}

// renderArtifactBody renders the active artifact's payload by type.
func renderArtifactBody(a artifact.Artifact, width int) string {
	switch a.Type {
	case artifact.TypeMessagePreview:
		var payload struct {
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		if err := json.Unmarshal(a.Data, &payload); err == nil && payload.Body != "" {
			out := payload.Body
			if payload.Subject != "" {
				out = "Subject: " + payload.Subject + "\n\n" + out
			}
			return wrap(out, width)
		}

	case artifact.TypeResumeScore:
		var payload struct {
			Score      float64  `json:"score"`
			Summary    string   `json:"summary"`
			Highlights []string `json:"highlights"`
		}
		if err := json.Unmarshal(a.Data, &payload); err == nil {
			var b strings.Builder
			fmt.Fprintf(&b, "Score: %.0f/100\n", payload.Score)
			if payload.Summary != "" {
				b.WriteString(wrap(payload.Summary, width))
				b.WriteString("\n")
			}
			for _, h := range payload.Highlights {
				b.WriteString(wrap("• "+h, width))
				b.WriteString("\n")
			}
			return strings.TrimRight(b.String(), "\n")
		}

	case artifact.TypeResumeTailored:
		var payload struct {
			Summary string `json:"summary"`
		}
		if err := json.Unmarshal(a.Data, &payload); err == nil && payload.Summary != "" {
			return wrap(payload.Summary, width)
		}
	}

	return wrap(summarizeGeneric(a.Data), width)
}

// artifactFromMessage builds a panel artifact from a tool message.
func artifactFromMessage(msg chat.DisplayMessage) (*artifact.Artifact, bool) {
	return artifact.FromToolResult(msg.ID, string(msg.RichType), msg.RichData)
}

// describeContext renders the active chat context for /context.
func describeContext(c api.ChatContext) string {
	if c.IsZero() {
		return "No active context."
	}
	var parts []string
	if c.PositionTitle != "" {
		parts = append(parts, "position: "+c.PositionTitle)
	}
	if c.RecruiterName != "" {
		parts = append(parts, "recruiter: "+c.RecruiterName)
	}
	if c.ResumeID != "" {
		parts = append(parts, "resume: "+c.ResumeID)
	}
	if c.MessageType != "" {
		parts = append(parts, "message type: "+c.MessageType)
	}
	if c.JobDescription != "" {
		parts = append(parts, fmt.Sprintf("job description: %d chars", len(c.JobDescription)))
	}
	return "Context — " + strings.Join(parts, ", ")
}

// wrap soft-wraps text to width using lipgloss measurement rules.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
