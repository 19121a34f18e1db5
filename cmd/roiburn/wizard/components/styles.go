package components

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("63")).
		MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244")).
		MarginBottom(1)

	// SwatchStyle renders a region's display color as a block.
	SwatchStyle = lipgloss.NewStyle().Bold(true)
)

// Swatch renders a colored block for a "#rrggbb" region color.
func Swatch(color string) string {
	return SwatchStyle.Foreground(lipgloss.Color(color)).Render("■")
}
