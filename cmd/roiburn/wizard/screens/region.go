package screens

import (
	"fmt"
	"math"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/components"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/types"
	"github.com/mrsinham/roiburn/internal/roi"
)

// presetCustom is the preset choice that keeps the typed target HU.
const presetCustom = ""

// RegionScreen edits the burn settings of one selected region
type RegionScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	config    *types.RegionConfig
	index     int
	total     int
	done      bool
	back      bool
	cancelled bool

	// String versions for form binding (huh binds to strings)
	targetHUStr  string
	widthStr     string
	fillDeltaStr string
}

// NewRegionScreen creates the settings screen for region index of total.
func NewRegionScreen(config *types.RegionConfig, index, total int) *RegionScreen {
	if config.Style == "" {
		config.Style = string(roi.Solid)
	}

	s := &RegionScreen{
		helpPanel:    components.NewHelpPanel(),
		config:       config,
		index:        index,
		total:        total,
		targetHUStr:  strconv.FormatFloat(config.TargetHU, 'f', -1, 64),
		widthStr:     strconv.FormatFloat(config.Width, 'f', -1, 64),
		fillDeltaStr: fmt.Sprintf("%+.0f", config.FillDelta),
	}

	presets := []huh.Option[string]{huh.NewOption("Custom", presetCustom)}
	for _, p := range roi.Presets {
		presets = append(presets, huh.NewOption(fmt.Sprintf("%s (%.0f HU)", p.Name, p.HU), p.Name))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("preset").
				Title("Material Preset").
				Options(presets...).
				Value(&config.Preset),

			huh.NewInput().
				Key("target_hu").
				Title("Target HU").
				Value(&s.targetHUStr).
				Validate(validateFinite),

			huh.NewSelect[string]().
				Key("style").
				Title("Line Style").
				Options(
					huh.NewOption("Solid", string(roi.Solid)),
					huh.NewOption("Dotted", string(roi.Dotted)),
				).
				Value(&config.Style),

			huh.NewInput().
				Key("width").
				Title("Line Width (px)").
				Value(&s.widthStr).
				Validate(validateWidth),

			huh.NewConfirm().
				Key("outline").
				Title("Draw the outline?").
				Value(&config.Outline),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Key("fill").
				Title("Fill the region?").
				Value(&config.Fill),

			huh.NewInput().
				Key("fill_delta").
				Title("Fill Delta (HU)").
				Placeholder("+50, -100HU").
				Value(&s.fillDeltaStr).
				Validate(validateDelta),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

func validateFinite(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("must be a number")
	}
	return nil
}

func validateWidth(s string) error {
	if err := validateFinite(s); err != nil {
		return err
	}
	if v, _ := strconv.ParseFloat(s, 64); v < roi.MinWidth || v > roi.MaxWidth {
		return fmt.Errorf("must be between %.1f and %.1f", roi.MinWidth, roi.MaxWidth)
	}
	return nil
}

func validateDelta(s string) error {
	if v := roi.ParseHUDelta(s, math.NaN()); math.IsNaN(v) {
		return fmt.Errorf("must be an HU offset such as +50 or -100HU")
	}
	return nil
}

// Init implements tea.Model
func (s *RegionScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *RegionScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "esc":
			s.back = true
			s.done = true
			return s, nil
		}
	case tea.WindowSizeMsg:
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
		s.syncConfigFromForm()
	}

	return s, cmd
}

// syncConfigFromForm parses form values back to config. A preset wins
// over the typed target.
func (s *RegionScreen) syncConfigFromForm() {
	if v, err := strconv.ParseFloat(s.targetHUStr, 64); err == nil {
		s.config.TargetHU = v
	}
	if p, ok := roi.PresetByName(s.config.Preset); ok {
		s.config.TargetHU = p.HU
	}
	if v, err := strconv.ParseFloat(s.widthStr, 64); err == nil {
		s.config.Width = roi.NormalizeWidth(v)
	}
	s.config.FillDelta = roi.NormalizeDelta(roi.ParseHUDelta(s.fillDeltaStr, s.config.FillDelta))
}

// View implements tea.Model
func (s *RegionScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render(fmt.Sprintf("REGION %d/%d - %s %s",
		s.index+1, s.total, components.Swatch(s.config.Color), s.config.Name))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		"Tab: Next field | Enter: Submit | Esc: Back",
	)
}

// Done returns true if the form was completed or abandoned with Esc
func (s *RegionScreen) Done() bool {
	return s.done
}

// Back returns true if the user asked for the previous screen
func (s *RegionScreen) Back() bool {
	return s.back
}

// Cancelled returns true if the user cancelled
func (s *RegionScreen) Cancelled() bool {
	return s.cancelled
}
