package tui

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/panacea-app/panacea-cli/internal/chat"
)

// turnEvent is the union of events delivered while a turn is in flight.
// refresh ticks arrive whenever the session mutates (token appended,
// tool status changed); exactly one event with done=true closes the
// turn.
type turnEvent struct {
	refresh bool
	done    bool
	err     error
}

// Stream messages for Bubble Tea.
type (
	turnStartedMsg struct {
		events <-chan turnEvent
		cancel context.CancelFunc
	}
	turnRefreshMsg struct{}
	turnDoneMsg    struct{ err error }
)

// startTurn runs session.SendMessage in a goroutine and bridges session
// change notifications into Bubble Tea messages through a buffered
// channel. The channel is buffered so the session never blocks on a
// slow render; refresh ticks are coalesced by dropping when full.
func (m *Model) startTurn(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(m.ctx)
		events := make(chan turnEvent, 64)

		m.session.SetOnChange(func() {
			select {
			case events <- turnEvent{refresh: true}:
			default:
			}
		})

		go func() {
			defer func() {
				if r := recover(); r != nil {
					events <- turnEvent{done: true, err: fmt.Errorf("turn panicked: %v", r)}
				}
				close(events)
			}()
			err := m.session.SendMessage(ctx, query)
			events <- turnEvent{done: true, err: err}
		}()

		return turnStartedMsg{events: events, cancel: cancel}
	}
}

// listenForTurn waits for the next turn event. Re-issued after every
// received event until done.
func listenForTurn(events <-chan turnEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return turnDoneMsg{}
		}
		if ev.done {
			return turnDoneMsg{err: ev.err}
		}
		return turnRefreshMsg{}
	}
}

// finishTurn tears down turn state and surfaces the error, if any.
func (m *Model) finishTurn(err error) {
	if m.turnCancel != nil {
		m.turnCancel()
		m.turnCancel = nil
	}
	m.turnEventCh = nil
	m.session.SetOnChange(nil)
	m.state = StateInput

	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, chat.ErrBusy):
		m.addNotice(notice{Error: true, Text: "A message is already in flight."})
	default:
		m.addNotice(notice{Error: true, Text: err.Error()})
	}
}

// foldArtifacts routes new tool results into the artifact panel. Runs on
// every refresh; the panel dedups by message id, so re-walking the whole
// transcript is idempotent.
//
// A user who collapsed the panel keeps it collapsed: folding still
// stores artifacts but never pops the panel open against the persisted
// preference.
func (m *Model) foldArtifacts() {
	wasOpen := m.panel.IsOpen()

	for _, msg := range m.session.Messages() {
		if msg.Role != chat.RoleTool || msg.Loading() {
			continue
		}
		a, ok := artifactFromMessage(msg)
		if !ok {
			continue
		}
		if _, err := m.panel.Fold(a); err != nil {
			m.addNotice(notice{Error: true, Text: "Artifact error: " + err.Error()})
		}
	}

	if m.panelCollapsed && !wasOpen && m.panel.IsOpen() {
		m.panel.Close()
	}
}
