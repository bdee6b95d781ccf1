package tui

import (
	"context"

	"github.com/panacea-app/panacea-cli/internal/storage"
)

// Durable preferences mirror the product's localStorage-backed settings:
// theme and whether the artifact side panel stays collapsed. Reads and
// writes fail soft; a broken preference store never blocks the chat.

// loadTheme reads the persisted theme name. Empty means "no preference";
// styles fall back to dark and glamour auto-detects.
func loadTheme(ctx context.Context, prefs storage.Store) string {
	if prefs == nil {
		return ""
	}
	data, err := prefs.Get(ctx, storage.KeyTheme)
	if err != nil {
		return ""
	}
	return string(data)
}

// loadPanelCollapsed reads the persisted panel-collapsed flag.
func loadPanelCollapsed(ctx context.Context, prefs storage.Store) bool {
	if prefs == nil {
		return false
	}
	data, err := prefs.Get(ctx, storage.KeySidebarCollapsed)
	return err == nil && string(data) == "true"
}

// applyTheme switches the active theme and persists the choice.
// Returns false for an unknown theme name.
func (m *Model) applyTheme(theme string) bool {
	if theme != ThemeDark && theme != ThemeLight {
		return false
	}

	m.theme = theme
	m.styles = StylesFor(theme)
	m.markdown.setTheme(theme)

	if m.prefs != nil {
		if err := m.prefs.Set(m.ctx, storage.KeyTheme, []byte(theme)); err != nil {
			m.addNotice(notice{Error: true, Text: "Could not save theme preference."})
		}
	}
	return true
}

// setPanelCollapsed records the user's panel choice so artifacts stop
// (or resume) opening the panel automatically, and persists it.
func (m *Model) setPanelCollapsed(collapsed bool) {
	m.panelCollapsed = collapsed
	if m.prefs == nil {
		return
	}
	value := []byte("false")
	if collapsed {
		value = []byte("true")
	}
	if err := m.prefs.Set(m.ctx, storage.KeySidebarCollapsed, value); err != nil {
		m.addNotice(notice{Error: true, Text: "Could not save panel preference."})
	}
}
