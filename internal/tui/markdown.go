package tui

import (
	"github.com/charmbracelet/glamour"
)

// markdownRenderer wraps glamour with width-aware re-creation.
// Renderer creation is expensive, so the renderer is cached and only
// rebuilt when the terminal width or theme changes.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	theme    string
}

// newMarkdownRenderer creates a renderer for the given width and theme.
// Returns nil on failure; callers treat nil as "render plain".
func newMarkdownRenderer(width int, theme string) *markdownRenderer {
	r, err := glamour.NewTermRenderer(
		styleOption(theme),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return &markdownRenderer{renderer: r, width: width, theme: theme}
}

// styleOption maps a persisted theme name onto a glamour style. Without
// a stored preference glamour detects the terminal background itself.
func styleOption(theme string) glamour.TermRendererOption {
	switch theme {
	case ThemeDark, ThemeLight:
		return glamour.WithStandardStyle(theme)
	default:
		return glamour.WithAutoStyle()
	}
}

// setWidth rebuilds the renderer if the width changed.
func (m *markdownRenderer) setWidth(width int) {
	if m == nil || m.width == width || width <= 0 {
		return
	}
	m.rebuild(width, m.theme)
}

// setTheme rebuilds the renderer if the theme changed.
func (m *markdownRenderer) setTheme(theme string) {
	if m == nil || m.theme == theme {
		return
	}
	m.rebuild(m.width, theme)
}

func (m *markdownRenderer) rebuild(width int, theme string) {
	r, err := glamour.NewTermRenderer(
		styleOption(theme),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	m.renderer = r
	m.width = width
	m.theme = theme
}

// render converts markdown to styled terminal output.
// Falls back to the raw string on any failure.
func (m *markdownRenderer) render(text string) string {
	if m == nil || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}
