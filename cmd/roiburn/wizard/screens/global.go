package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/components"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/types"
)

// GlobalScreen is the first wizard screen for the export settings
type GlobalScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	config    *types.GlobalConfig
	study     string
	width     int
	height    int
	done      bool
	cancelled bool
}

// NewGlobalScreen creates the export settings screen. study is shown in
// the title.
func NewGlobalScreen(config *types.GlobalConfig, study string) *GlobalScreen {
	if config.OutputDir == "" {
		config.OutputDir = "."
	}

	s := &GlobalScreen{
		helpPanel: components.NewHelpPanel(),
		config:    config,
		study:     study,
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("image_set_name").
				Title("Image Set Name").
				Placeholder("CT_MMDDYY_Burn").
				Value(&config.ImageSetName),

			huh.NewInput().
				Key("output").
				Title("Output Directory").
				Value(&config.OutputDir).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("output directory is required")
					}
					return nil
				}),

			huh.NewConfirm().
				Key("zip").
				Title("Write a zip archive?").
				Value(&config.Zip),

			huh.NewConfirm().
				Key("separate").
				Title("One series per region?").
				Value(&config.Separate),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Key("annotation").
				Title("Burn the annotation band?").
				Value(&config.Annotation),

			huh.NewText().
				Key("note").
				Title("Note").
				CharLimit(400).
				Value(&config.Note),

			huh.NewConfirm().
				Key("recompute_window").
				Title("Recompute the display window?").
				Value(&config.RecomputeWindow),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// Init implements tea.Model
func (s *GlobalScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *GlobalScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.helpPanel.SetWidth(msg.Width / 2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if focused := s.form.GetFocusedField(); focused != nil {
		s.helpPanel.SetField(focused.GetKey())
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *GlobalScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("ROIBURN WIZARD - Export Settings")
	subtitle := components.SubtitleStyle.Render(s.study)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		"Tab: Next field | Enter: Submit | Esc: Cancel",
	)
}

// Done returns true if the form was completed
func (s *GlobalScreen) Done() bool {
	return s.done
}

// Cancelled returns true if the user cancelled
func (s *GlobalScreen) Cancelled() bool {
	return s.cancelled
}
