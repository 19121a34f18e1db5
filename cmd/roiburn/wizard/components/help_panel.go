package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/help"
)

var (
	helpPanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 2)

	helpTitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("63")).
		Bold(true)

	helpDescStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	helpDetailStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))
)

// HelpPanel shows the help text of the focused form field.
type HelpPanel struct {
	field string
	width int
}

// NewHelpPanel returns a panel 60 columns wide.
func NewHelpPanel() *HelpPanel {
	return &HelpPanel{width: 60}
}

// SetField selects the help entry by form key.
func (h *HelpPanel) SetField(key string) {
	h.field = key
}

// SetWidth resizes the panel. Widths under 30 columns are ignored.
func (h *HelpPanel) SetWidth(width int) {
	if width >= 30 {
		h.width = width
	}
}

// View renders the panel, or a prompt when the field has no entry.
func (h *HelpPanel) View() string {
	style := helpPanelStyle.Width(h.width - 4)

	text, ok := help.Lookup(h.field)
	if !ok {
		return style.Render(helpDetailStyle.Render("Move to a field to see its help"))
	}

	lines := []string{
		helpTitleStyle.Render(strings.ToUpper(text.Title)),
		helpDescStyle.Render(text.Description),
	}
	if text.Details != "" {
		lines = append(lines, "", helpDetailStyle.Render(text.Details))
	}
	return style.Render(strings.Join(lines, "\n"))
}
