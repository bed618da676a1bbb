package tui

import "github.com/charmbracelet/lipgloss"

// One Dark palette
var (
	ColorFgPrimary = lipgloss.Color("#ABB2BF")
	ColorFgMuted   = lipgloss.Color("#636B78")
	ColorRed       = lipgloss.Color("#E06C75")
	ColorGreen     = lipgloss.Color("#98C379")
	ColorYellow    = lipgloss.Color("#E5C07B")
	ColorBlue      = lipgloss.Color("#61AFEF")
	ColorMagenta   = lipgloss.Color("#C678DD")
	ColorBorder    = lipgloss.Color("#3F4451")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true).
			PaddingLeft(1)

	UserStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	FocusedPanelStyle = PanelStyle.
				BorderForeground(ColorBlue)

	PanelTitleStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true)

	RowStyle = lipgloss.NewStyle().
			Foreground(ColorFgPrimary)

	CursorRowStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorGreen)

	EmptyStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted).
			PaddingLeft(1)

	InputPromptStyle = lipgloss.NewStyle().
				Foreground(ColorBlue)
)
