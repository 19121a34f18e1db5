package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/components"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/types"
)

// RegionsScreen selects the regions to burn
type RegionsScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	regions   []types.RegionConfig
	selected  []string
	done      bool
	cancelled bool
}

// NewRegionsScreen lists every region; regions already selected start
// checked. The selection is written back on completion.
func NewRegionsScreen(regions []types.RegionConfig) *RegionsScreen {
	s := &RegionsScreen{
		helpPanel: components.NewHelpPanel(),
		regions:   regions,
	}

	options := make([]huh.Option[string], len(regions))
	for i, r := range regions {
		label := fmt.Sprintf("%s %s (%d slices)", components.Swatch(r.Color), r.Name, r.Slices)
		options[i] = huh.NewOption(label, r.Name).Selected(r.Selected)
		if r.Selected {
			s.selected = append(s.selected, r.Name)
		}
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Key("regions").
				Title("Regions to burn").
				Options(options...).
				Height(min(len(options)+2, 16)).
				Value(&s.selected).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("select at least one region")
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// Init implements tea.Model
func (s *RegionsScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *RegionsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.helpPanel.SetWidth(msg.Width / 2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	s.helpPanel.SetField("regions")

	if s.form.State == huh.StateCompleted {
		s.done = true
		s.syncSelection()
	}

	return s, cmd
}

func (s *RegionsScreen) syncSelection() {
	want := make(map[string]bool, len(s.selected))
	for _, name := range s.selected {
		want[name] = true
	}
	for i := range s.regions {
		s.regions[i].Selected = want[s.regions[i].Name]
	}
}

// View implements tea.Model
func (s *RegionsScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render("ROIBURN WIZARD - Regions"),
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		"Space: Toggle | Enter: Confirm | Esc: Cancel",
	)
}

// Done returns true if the selection was confirmed
func (s *RegionsScreen) Done() bool {
	return s.done
}

// Cancelled returns true if the user cancelled
func (s *RegionsScreen) Cancelled() bool {
	return s.cancelled
}
