package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/components"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/types"
)

// SummaryAction represents the action selected on the summary screen
type SummaryAction int

const (
	// SummaryActionBack returns to the region selection
	SummaryActionBack SummaryAction = iota
	// SummaryActionBurn burns and exports the series
	SummaryActionBurn
	// SummaryActionSaveConfig saves configuration to YAML file
	SummaryActionSaveConfig
	// SummaryActionCancel exits the wizard
	SummaryActionCancel
)

const (
	actionBack       = "back"
	actionBurn       = "burn"
	actionSaveConfig = "save_config"
	actionCancel     = "cancel"
)

var (
	summaryPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(1, 2)

	summaryTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true).
				MarginBottom(1)

	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)

	cliCommandStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// PreviewStat summarizes one region on the preview burn
type PreviewStat struct {
	Name   string
	Voxels int
	Mean   float64
	StdDev float64
}

// SummaryScreen displays the export settings and the selected regions
// before burning
type SummaryScreen struct {
	form      *huh.Form
	global    *types.GlobalConfig
	regions   []types.RegionConfig
	preview   []PreviewStat
	dir       string
	action    string
	done      bool
	cancelled bool
	width     int
}

// NewSummaryScreen creates a new summary screen. dir is the study
// directory, used for the equivalent command line.
func NewSummaryScreen(global *types.GlobalConfig, regions []types.RegionConfig, dir string) *SummaryScreen {
	s := &SummaryScreen{
		global:  global,
		regions: regions,
		dir:     dir,
		action:  actionBurn,
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("action").
				Title("Select an action").
				Options(
					huh.NewOption("Burn and export", actionBurn),
					huh.NewOption("Save configuration to YAML", actionSaveConfig),
					huh.NewOption("Back to edit", actionBack),
					huh.NewOption("Cancel and exit", actionCancel),
				).
				Value(&s.action),
		),
	).WithShowHelp(false)

	return s
}

// Init implements tea.Model
func (s *SummaryScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SummaryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "esc":
			// Esc goes back instead of cancelling
			s.action = actionBack
			s.done = true
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *SummaryScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render("ROIBURN WIZARD - Summary"),
		summaryPanelStyle.Render(s.buildParameterSummary()),
		"",
		summaryPanelStyle.Render(s.buildRegionTable()),
		s.buildPreview(),
		"",
		summaryLabelStyle.Render("Equivalent command:"),
		cliCommandStyle.Render(s.CLICommand()),
		"",
		s.form.View(),
	)
}

func (s *SummaryScreen) buildParameterSummary() string {
	name := s.global.ImageSetName
	if name == "" {
		name = "(from study date)"
	}
	rows := []struct{ label, value string }{
		{"Image set", name},
		{"Output", s.global.OutputDir},
		{"Zip archive", yesNo(s.global.Zip)},
		{"Separate series", yesNo(s.global.Separate)},
		{"Annotation band", yesNo(s.global.Annotation)},
		{"Recompute window", yesNo(s.global.RecomputeWindow)},
	}

	var sb strings.Builder
	sb.WriteString(summaryTitleStyle.Render("Export"))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString(summaryLabelStyle.Render(fmt.Sprintf("%-18s", r.label+":")))
		sb.WriteString(summaryValueStyle.Render(r.value))
		sb.WriteString("\n")
	}
	if s.global.Note != "" {
		sb.WriteString(summaryLabelStyle.Render(fmt.Sprintf("%-18s", "Note:")))
		sb.WriteString(summaryValueStyle.Render(firstLine(s.global.Note)))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (s *SummaryScreen) buildRegionTable() string {
	var sb strings.Builder
	sb.WriteString(summaryTitleStyle.Render("Regions"))
	sb.WriteString("\n")
	count := 0
	for _, r := range s.regions {
		if !r.Selected {
			continue
		}
		count++
		outline := "no outline"
		if r.Outline {
			outline = fmt.Sprintf("%s %.1fpx @ %.0f HU", r.Style, r.Width, r.TargetHU)
		}
		fill := ""
		if r.Fill {
			fill = fmt.Sprintf(", fill %+.0f HU", r.FillDelta)
		}
		fmt.Fprintf(&sb, "%s %s  %s%s\n",
			components.Swatch(r.Color),
			summaryValueStyle.Render(r.Name),
			summaryLabelStyle.Render(outline),
			summaryLabelStyle.Render(fill))
	}
	if count == 0 {
		sb.WriteString(summaryLabelStyle.Render("(none selected)"))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// buildPreview lists the burned intensities once a preview is in.
func (s *SummaryScreen) buildPreview() string {
	if len(s.preview) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(summaryTitleStyle.Render("Preview"))
	sb.WriteString("\n")
	for _, p := range s.preview {
		fmt.Fprintf(&sb, "%s  %s\n",
			summaryValueStyle.Render(p.Name),
			summaryLabelStyle.Render(fmt.Sprintf("mean %.0f HU (sd %.0f) over %d voxels", p.Mean, p.StdDev, p.Voxels)))
	}
	return summaryPanelStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

// SetPreview replaces the preview statistics
func (s *SummaryScreen) SetPreview(stats []PreviewStat) {
	s.preview = stats
}

// Preview returns the preview statistics shown
func (s *SummaryScreen) Preview() []PreviewStat {
	return s.preview
}

// CLICommand returns the burn command line selecting the same regions
// with the same export flags. Per-region overrides need --save-config.
func (s *SummaryScreen) CLICommand() string {
	parts := []string{"roiburn", "burn", shellQuote(s.dir)}
	for _, r := range s.regions {
		if r.Selected {
			parts = append(parts, "-r", shellQuote(r.Name))
		}
	}
	if s.global.OutputDir != "" && s.global.OutputDir != "." {
		parts = append(parts, "-o", shellQuote(s.global.OutputDir))
	}
	if s.global.ImageSetName != "" {
		parts = append(parts, "-n", shellQuote(s.global.ImageSetName))
	}
	if s.global.Zip {
		parts = append(parts, "--zip")
	}
	if s.global.Separate {
		parts = append(parts, "--separate")
	}
	if !s.global.Annotation {
		parts = append(parts, "--no-annotation")
	}
	if s.global.RecomputeWindow {
		parts = append(parts, "--recompute-window")
	}
	return strings.Join(parts, " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t'\"$\\|&;<>()*?") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Done returns true if an action was chosen
func (s *SummaryScreen) Done() bool {
	return s.done
}

// Cancelled returns true if the user cancelled
func (s *SummaryScreen) Cancelled() bool {
	return s.cancelled
}

// Action returns the selected action
func (s *SummaryScreen) Action() SummaryAction {
	switch s.action {
	case actionBurn:
		return SummaryActionBurn
	case actionSaveConfig:
		return SummaryActionSaveConfig
	case actionCancel:
		return SummaryActionCancel
	}
	return SummaryActionBack
}
