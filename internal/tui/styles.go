package tui

import "charm.land/lipgloss/v2"

// banner is shown at the top of a fresh conversation.
const banner = `
  ██████╗  █████╗ ███╗   ██╗ █████╗  ██████╗███████╗ █████╗
  ██╔══██╗██╔══██╗████╗  ██║██╔══██╗██╔════╝██╔════╝██╔══██╗
  ██████╔╝███████║██╔██╗ ██║███████║██║     █████╗  ███████║
  ██╔═══╝ ██╔══██║██║╚██╗██║██╔══██║██║     ██╔══╝  ██╔══██║
  ██║     ██║  ██║██║ ╚████║██║  ██║╚██████╗███████╗██║  ██║
  ╚═╝     ╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝ ╚═════╝╚══════╝╚═╝  ╚═╝
`

// Theme names persisted in the durable preference store.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Styles holds the lipgloss styles for the interface.
type Styles struct {
	Banner     lipgloss.Style
	Subtitle   lipgloss.Style
	Prompt     lipgloss.Style
	UserLabel  lipgloss.Style
	UserText   lipgloss.Style
	Assistant  lipgloss.Style
	ToolLabel  lipgloss.Style
	ToolDetail lipgloss.Style
	Spinner    lipgloss.Style
	Error      lipgloss.Style
	Notice     lipgloss.Style
	Separator  lipgloss.Style
	Help       lipgloss.Style

	PanelBorder lipgloss.Style
	PanelTitle  lipgloss.Style
	PanelMeta   lipgloss.Style
	PanelActive lipgloss.Style
}

// StylesFor returns the style set for a theme name. Unknown names fall
// back to the dark default.
func StylesFor(theme string) Styles {
	if theme == ThemeLight {
		return LightStyles()
	}
	return DefaultStyles()
}

// DefaultStyles returns the dark color scheme.
func DefaultStyles() Styles {
	return Styles{
		Banner:     lipgloss.NewStyle().Foreground(lipgloss.Color("105")),
		Subtitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:     lipgloss.NewStyle().Foreground(lipgloss.Color("105")).Bold(true),
		UserLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("105")).Bold(true),
		UserText:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Assistant:  lipgloss.NewStyle(),
		ToolLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		ToolDetail: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Spinner:    lipgloss.NewStyle().Foreground(lipgloss.Color("105")),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Notice:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Separator:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Help:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		PanelBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("105")).
			Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("105")).Bold(true),
		PanelMeta:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		PanelActive: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

// LightStyles returns the light color scheme.
func LightStyles() Styles {
	return Styles{
		Banner:     lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
		Subtitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		Prompt:     lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true),
		UserLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true),
		UserText:   lipgloss.NewStyle().Foreground(lipgloss.Color("235")),
		Assistant:  lipgloss.NewStyle(),
		ToolLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
		ToolDetail: lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Spinner:    lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		Notice:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Separator:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Help:       lipgloss.NewStyle().Foreground(lipgloss.Color("246")),

		PanelBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true),
		PanelMeta:   lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		PanelActive: lipgloss.NewStyle().Foreground(lipgloss.Color("130")).Bold(true),
	}
}
