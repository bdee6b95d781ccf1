package tui

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
)

// ctrlCWindow is the double-press window for quitting while idle.
const ctrlCWindow = 2 * time.Second

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(msg.Width)
		m.resize()
		m.refreshViewport()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case turnStartedMsg:
		m.turnCancel = msg.cancel
		m.turnEventCh = msg.events
		return m, listenForTurn(msg.events)

	case turnRefreshMsg:
		m.foldArtifacts()
		m.refreshViewport()
		if m.turnEventCh == nil {
			return m, nil
		}
		return m, listenForTurn(m.turnEventCh)

	case turnDoneMsg:
		m.finishTurn(msg.err)
		m.foldArtifacts()
		m.refreshViewport()
		return m, m.input.Focus()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey routes key presses by binding, then falls through to the
// textarea.
func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.handleCtrlC()

	case key.Matches(msg, m.keys.Cancel):
		if m.state == StateStreaming && m.turnCancel != nil {
			m.turnCancel()
			return m, nil
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.TogglePanel):
		if m.panel.IsOpen() {
			m.panel.Close()
			m.setPanelCollapsed(true)
		} else if m.openPanel() {
			m.setPanelCollapsed(false)
		} else {
			m.addNotice(notice{Text: "No artifacts yet."})
		}
		m.resize()
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.PrevVersion):
		m.stepVersion(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextVersion):
		m.stepVersion(1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.PageUp()
		m.follow = m.viewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.PageDown()
		m.follow = m.viewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.HistoryUp):
		// Only when the cursor is on the first line, so multi-line
		// editing keeps normal cursor movement.
		if m.input.Line() == 0 {
			m.navigateHistory(-1)
			return m, nil
		}

	case key.Matches(msg, m.keys.HistoryDown):
		if m.input.Line() == m.input.LineCount()-1 {
			m.navigateHistory(1)
			return m, nil
		}

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleCtrlC cancels a streaming turn on the first press and quits on a
// double press while idle.
func (m *Model) handleCtrlC() (tea.Model, tea.Cmd) {
	if m.state == StateStreaming && m.turnCancel != nil {
		m.turnCancel()
		return m, nil
	}
	if time.Since(m.lastCtrlC) < ctrlCWindow {
		m.cleanup()
		return m, tea.Quit
	}
	m.lastCtrlC = time.Now()
	m.addNotice(notice{Text: "Press ctrl+c again to quit."})
	m.refreshViewport()
	return m, nil
}

// handleSubmit sends the textarea content as a chat message.
func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return m, nil
	}
	if m.state == StateStreaming {
		return m, nil
	}

	if strings.HasPrefix(query, "/") {
		return m.handleSlashCommand(query)
	}

	m.pushHistory(query)
	m.input.Reset()
	m.input.Blur()
	m.state = StateStreaming
	m.follow = true

	return m, tea.Batch(m.startTurn(query), m.spinner.Tick)
}

// handleSlashCommand executes local commands that never reach the
// backend.
func (m *Model) handleSlashCommand(query string) (tea.Model, tea.Cmd) {
	m.pushHistory(query)
	m.input.Reset()

	cmd, arg, _ := strings.Cut(query, " ")
	switch cmd {
	case "/help":
		m.addNotice(notice{Text: helpText})

	case "/theme":
		arg = strings.TrimSpace(arg)
		switch {
		case arg == "":
			current := m.theme
			if current == "" {
				current = ThemeDark
			}
			m.addNotice(notice{Text: "Theme: " + current + " (use /theme dark|light)"})
		case m.applyTheme(arg):
			m.addNotice(notice{Text: "Theme set to " + arg + "."})
		default:
			m.addNotice(notice{Error: true, Text: "Unknown theme: " + arg + " (dark or light)"})
		}

	case "/new":
		m.session.NewConversation(m.ctx)
		m.panel.Clear()
		m.notices = nil

	case "/context":
		m.addNotice(notice{Text: describeContext(m.session.Context())})

	case "/artifacts":
		if m.openPanel() {
			m.setPanelCollapsed(false)
			m.resize()
		} else {
			m.addNotice(notice{Text: "No artifacts yet."})
		}

	case "/quit", "/exit":
		m.cleanup()
		return m, tea.Quit

	default:
		m.addNotice(notice{Error: true, Text: "Unknown command: " + cmd + " (try /help)"})
	}

	m.refreshViewport()
	return m, nil
}

const helpText = `Commands:
  /new        start a fresh conversation
  /context    show the active chat context
  /artifacts  open the artifact panel
  /theme      switch the color theme (dark or light)
  /help       show this help
  /quit       exit`

// pushHistory appends to input history, dropping the oldest entry past
// the bound.
func (m *Model) pushHistory(query string) {
	m.history = append(m.history, query)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.historyIdx = len(m.history)
}

// navigateHistory moves through input history. dir is -1 for older, +1
// for newer.
func (m *Model) navigateHistory(dir int) {
	if len(m.history) == 0 {
		return
	}
	idx := m.historyIdx + dir
	switch {
	case idx < 0:
		return
	case idx >= len(m.history):
		m.historyIdx = len(m.history)
		m.input.Reset()
		return
	}
	m.historyIdx = idx
	m.input.SetValue(m.history[idx])
	m.input.CursorEnd()
}

// openPanel shows the panel on the active artifact, falling back to the
// most recent one. Reports whether anything was opened.
func (m *Model) openPanel() bool {
	if a, ok := m.panel.Active(); ok {
		return m.panel.Open(a.ID) == nil
	}
	all := m.panel.Artifacts()
	if len(all) == 0 {
		return false
	}
	return m.panel.Open(all[len(all)-1].ID) == nil
}

// stepVersion moves the active artifact's version pointer.
func (m *Model) stepVersion(dir int) {
	a, ok := m.panel.Active()
	if !ok || len(a.Versions) == 0 {
		return
	}
	next := a.ActiveVersion + dir
	if next < 0 || next >= len(a.Versions) {
		return
	}
	if err := m.panel.SetVersion(a.ID, next); err != nil {
		m.addNotice(notice{Error: true, Text: err.Error()})
	}
	m.refreshViewport()
}

// cleanup releases resources before quitting.
func (m *Model) cleanup() {
	if m.turnCancel != nil {
		m.turnCancel()
		m.turnCancel = nil
	}
	m.session.SetOnChange(nil)
	m.cancel()
}

// resize recomputes component dimensions from the terminal size.
func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}

	chatWidth := m.width
	if m.panelVisible() {
		chatWidth = m.width - m.panelWidth()
	}
	m.chatWidth = chatWidth

	m.input.SetWidth(chatWidth - 2) // Leave room for the prompt prefix
	m.markdown.setWidth(chatWidth - 2)

	inputHeight := m.input.Height()
	vpHeight := m.height - inputHeight - separatorLines - helpLines - promptLines
	if vpHeight < minViewport {
		vpHeight = minViewport
	}
	m.vpHeight = vpHeight
	m.viewport.SetWidth(chatWidth)
	m.viewport.SetHeight(vpHeight)
}

// panelVisible reports whether the artifact panel has room to render.
func (m *Model) panelVisible() bool {
	return m.panel.IsOpen() && m.width >= panelMinWidth*2
}

// panelWidth is the artifact panel's share of the terminal.
func (m *Model) panelWidth() int {
	w := m.width * 2 / 5
	if w < panelMinWidth {
		w = panelMinWidth
	}
	return w
}

// refreshViewport rebuilds viewport content from the session and
// restores scroll position, following the tail only when the user was
// already at the bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
	if m.follow {
		m.viewport.GotoBottom()
	}
}
