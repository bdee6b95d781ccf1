// Package tui provides the Bubble Tea terminal interface for Panacea.
//
// The model renders the chat session's display messages in a scrollable
// viewport, streams assistant tokens as they arrive, and shows rich tool
// results (job cards, previews, scores) inline, with an artifact side
// panel for documents worth keeping around.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/panacea-app/panacea-cli/internal/artifact"
	"github.com/panacea-app/panacea-cli/internal/chat"
	"github.com/panacea-app/panacea-cli/internal/storage"
)

// State represents the TUI state machine.
type State int

// TUI state machine states.
const (
	StateInput     State = iota // Awaiting user input
	StateStreaming              // A turn is in flight
)

// Memory bounds to prevent unbounded growth.
const (
	maxHistory = 100 // Maximum input history entries
	maxNotices = 20  // Maximum local notice messages kept
)

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // Two separator lines (above and below input)
	helpLines      = 1 // Help bar height
	promptLines    = 1 // Prompt prefix line
	minViewport    = 3 // Minimum viewport height
	panelMinWidth  = 32
)

// notice is a local, non-conversation message (errors, slash command
// output). These never reach the backend.
type notice struct {
	Error bool
	Text  string
}

// Model is the Bubble Tea model for the Panacea terminal interface.
type Model struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	state     State
	lastCtrlC time.Time
	follow    bool // auto-scroll: tracked from scroll proximity to bottom

	// Output
	spinner spinner.Model
	viewBuf strings.Builder // Reusable buffer for View() to reduce allocations
	notices []notice

	// Scrollable message viewport
	viewport viewport.Model

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// Turn management. Single union channel, same shape as the event
	// stream itself: refresh ticks while the session mutates, then one
	// done/error.
	turnCancel  context.CancelFunc
	turnEventCh <-chan turnEvent

	// Dependencies (direct, no interface)
	session *chat.Session
	panel   *artifact.Panel
	prefs   storage.Store // durable preferences; nil disables persistence
	ctx     context.Context
	cancel  context.CancelFunc

	// Durable preferences mirrored in memory
	theme          string
	panelCollapsed bool // suppresses artifact auto-open

	// Dimensions
	width     int
	height    int
	chatWidth int
	vpHeight  int

	// Styles
	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// New creates the chat interface model.
// Returns an error if required dependencies are nil. prefs is optional;
// without it theme and panel preferences are not persisted.
//
// IMPORTANT: ctx MUST be the same context passed to tea.WithContext()
// to ensure consistent cancellation behavior.
func New(ctx context.Context, session *chat.Session, panel *artifact.Panel, prefs storage.Store) (*Model, error) {
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if session == nil {
		return nil, errors.New("tui.New: session is required")
	}
	if panel == nil {
		return nil, errors.New("tui.New: panel is required")
	}

	theme := loadTheme(ctx, prefs)

	// Create cancellable context for cleanup on exit
	ctx, cancel := context.WithCancel(ctx)

	// Create textarea for multi-line input
	// Enter submits, Shift+Enter adds newline
	ta := textarea.New()
	ta.Placeholder = "Ask about jobs, resumes, outreach..."
	ta.SetHeight(1)
	ta.SetWidth(120) // Updated on WindowSizeMsg
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	// Clean, minimal styling: no background colors, just text
	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Viewport for scrollable message history. Built-in key handling is
	// disabled; keys are routed explicitly in handleKey to avoid
	// conflicts with textarea/history navigation.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	return &Model{
		session:        session,
		panel:          panel,
		prefs:          prefs,
		ctx:            ctx,
		cancel:         cancel,
		input:          ta,
		spinner:        sp,
		viewport:       vp,
		help:           help.New(),
		keys:           newKeyMap(),
		styles:         StylesFor(theme),
		history:        make([]string, 0, maxHistory),
		markdown:       newMarkdownRenderer(80, theme),
		theme:          theme,
		panelCollapsed: loadPanelCollapsed(ctx, prefs),
		width:          80, // Default until WindowSizeMsg arrives
		chatWidth:      80,
		vpHeight:       20,
		follow:         true,
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
	)
}

// addNotice appends a local notice and enforces the bound.
func (m *Model) addNotice(n notice) {
	m.notices = append(m.notices, n)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}
