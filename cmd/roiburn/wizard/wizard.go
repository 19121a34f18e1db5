package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/components"
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/screens"
	"github.com/mrsinham/roiburn/internal/config"
	"github.com/mrsinham/roiburn/internal/session"
)

// Phase represents the current phase/screen of the wizard.
type Phase int

const (
	PhaseGlobal Phase = iota
	PhaseRegions
	PhaseRegion
	PhaseSummary
	PhaseSaveConfig
	PhaseProgress
	PhaseComplete
	PhaseError
)

// Wizard is the main orchestrator for the wizard interface.
type Wizard struct {
	ctx     context.Context
	session *session.Session
	cfg     *config.Config
	state   *WizardState
	dir     string

	phase Phase

	globalScreen     *screens.GlobalScreen
	regionsScreen    *screens.RegionsScreen
	regionScreen     *screens.RegionScreen
	summaryScreen    *screens.SummaryScreen
	progressScreen   *screens.ProgressScreen
	completionScreen *screens.CompletionScreen
	errorScreen      *screens.ErrorScreen

	saveConfigForm *huh.Form
	configPath     string
	saved          string

	// selected holds the catalog indices being edited, current the
	// position within it
	selected []int
	current  int

	// send delivers progress messages from the export goroutine
	send func(tea.Msg)

	// previewer burns the selection in the background while the summary
	// is shown
	previewer *session.Previewer

	cancelled bool
	finished  bool
	err       error
}

// NewWizard creates a wizard over a loaded session. dir names the study
// in titles and in the equivalent command line; configPath is the
// default target of "save configuration".
func NewWizard(ctx context.Context, s *session.Session, cfg *config.Config, dir, configPath string) *Wizard {
	w := &Wizard{
		ctx:        ctx,
		session:    s,
		cfg:        cfg,
		state:      NewState(s, cfg),
		dir:        dir,
		phase:      PhaseGlobal,
		configPath: configPath,
	}
	w.globalScreen = screens.NewGlobalScreen(&w.state.Global, w.studyTitle())
	return w
}

func (w *Wizard) studyTitle() string {
	title := fmt.Sprintf("%s - %d slices, %d regions", w.dir, w.session.Original().Len(), w.session.Catalog.Len())
	if m := w.session.Match(); m != nil {
		title += fmt.Sprintf(" (%d referenced)", m.Overlap)
	}
	return title
}

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	return w.globalScreen.Init()
}

// previewMsg carries a finished preview burn back to the UI goroutine.
type previewMsg struct {
	session.PreviewResult
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if pm, ok := msg.(previewMsg); ok {
		w.applyPreview(pm.PreviewResult)
		return w, nil
	}
	switch w.phase {
	case PhaseGlobal:
		return w.updateGlobal(msg)
	case PhaseRegions:
		return w.updateRegions(msg)
	case PhaseRegion:
		return w.updateRegion(msg)
	case PhaseSummary:
		return w.updateSummary(msg)
	case PhaseSaveConfig:
		return w.updateSaveConfig(msg)
	case PhaseProgress:
		return w.updateProgress(msg)
	case PhaseComplete:
		return w.updateComplete(msg)
	case PhaseError:
		return w.updateError(msg)
	}
	return w, nil
}

// View implements tea.Model.
func (w *Wizard) View() string {
	switch w.phase {
	case PhaseGlobal:
		return w.globalScreen.View()
	case PhaseRegions:
		return w.regionsScreen.View()
	case PhaseRegion:
		return w.regionScreen.View()
	case PhaseSummary:
		v := w.summaryScreen.View()
		if w.saved != "" {
			v = lipgloss.JoinVertical(lipgloss.Left, v, "", "Configuration saved to "+w.saved)
		}
		return v
	case PhaseSaveConfig:
		return w.viewSaveConfig()
	case PhaseProgress:
		return w.progressScreen.View()
	case PhaseComplete:
		return w.completionScreen.View()
	case PhaseError:
		return w.errorScreen.View()
	}
	return ""
}

// updateGlobal handles updates in the export settings phase.
func (w *Wizard) updateGlobal(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.globalScreen.Update(msg)
	if gs, ok := model.(*screens.GlobalScreen); ok {
		w.globalScreen = gs
	}

	if w.globalScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}
	if w.globalScreen.Done() {
		return w.transitionToRegions()
	}
	return w, cmd
}

func (w *Wizard) transitionToRegions() (tea.Model, tea.Cmd) {
	w.stopPreview()
	w.phase = PhaseRegions
	w.regionsScreen = screens.NewRegionsScreen(w.state.Regions)
	return w, w.regionsScreen.Init()
}

// updateRegions handles updates in the region selection phase.
func (w *Wizard) updateRegions(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.regionsScreen.Update(msg)
	if rs, ok := model.(*screens.RegionsScreen); ok {
		w.regionsScreen = rs
	}

	if w.regionsScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}
	if w.regionsScreen.Done() {
		w.selected = w.state.Selected()
		if len(w.selected) == 0 {
			return w.transitionToSummary()
		}
		return w.transitionToRegion(0)
	}
	return w, cmd
}

func (w *Wizard) transitionToRegion(pos int) (tea.Model, tea.Cmd) {
	w.phase = PhaseRegion
	w.current = pos
	idx := w.selected[pos]
	w.regionScreen = screens.NewRegionScreen(&w.state.Regions[idx], pos, len(w.selected))
	return w, w.regionScreen.Init()
}

// updateRegion handles updates while editing one region.
func (w *Wizard) updateRegion(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.regionScreen.Update(msg)
	if rs, ok := model.(*screens.RegionScreen); ok {
		w.regionScreen = rs
	}

	if w.regionScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}
	if w.regionScreen.Done() {
		if w.regionScreen.Back() {
			if w.current == 0 {
				return w.transitionToRegions()
			}
			return w.transitionToRegion(w.current - 1)
		}
		if w.current+1 < len(w.selected) {
			return w.transitionToRegion(w.current + 1)
		}
		return w.transitionToSummary()
	}
	return w, cmd
}

func (w *Wizard) transitionToSummary() (tea.Model, tea.Cmd) {
	w.phase = PhaseSummary
	w.summaryScreen = screens.NewSummaryScreen(&w.state.Global, w.state.Regions, w.dir)
	w.requestPreview()
	return w, w.summaryScreen.Init()
}

// requestPreview applies the state and starts a background burn of the
// selection. The result comes back through w.send as a previewMsg.
func (w *Wizard) requestPreview() {
	if err := w.state.Apply(w.session, w.cfg); err != nil {
		return
	}
	if w.previewer == nil {
		w.previewer = session.NewPreviewer(w.session, func(res session.PreviewResult) {
			if w.send != nil {
				w.send(previewMsg{res})
			}
		})
	}
	if _, err := w.previewer.Request(w.ctx); err != nil && !errors.Is(err, session.ErrNoSelection) {
		slog.DebugContext(w.ctx, "preview not started", "error", err)
	}
}

// applyPreview installs a current preview and measures the selection on
// it. Superseded or failed results are dropped.
func (w *Wizard) applyPreview(res session.PreviewResult) {
	if w.previewer == nil || res.Generation != w.previewer.Generation() || w.phase != PhaseSummary {
		return
	}
	if res.Err != nil {
		slog.DebugContext(w.ctx, "preview failed", "error", res.Err)
		return
	}
	w.session.SetPreview(res.Series)
	resolved, err := w.session.Resolved()
	if err != nil {
		return
	}
	var stats []screens.PreviewStat
	for _, r := range resolved {
		st, err := w.session.RegionStats(w.ctx, r.Name)
		if err != nil {
			slog.DebugContext(w.ctx, "no preview stats", "region", r.Name, "error", err)
			continue
		}
		stats = append(stats, screens.PreviewStat{Name: r.Name, Voxels: st.Voxels, Mean: st.Mean, StdDev: st.StdDev})
	}
	w.summaryScreen.SetPreview(stats)
}

// stopPreview cancels any running preview and drops the installed one.
func (w *Wizard) stopPreview() {
	if w.previewer != nil {
		w.previewer.Cancel()
	}
	w.session.ClearPreview()
}

// updateSummary handles updates in the summary phase.
func (w *Wizard) updateSummary(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.summaryScreen.Update(msg)
	if ss, ok := model.(*screens.SummaryScreen); ok {
		w.summaryScreen = ss
	}

	if w.summaryScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}
	if w.summaryScreen.Done() {
		switch w.summaryScreen.Action() {
		case screens.SummaryActionBack:
			return w.transitionToRegions()
		case screens.SummaryActionBurn:
			return w.startBurn()
		case screens.SummaryActionSaveConfig:
			return w.transitionToSaveConfig()
		case screens.SummaryActionCancel:
			w.cancelled = true
			return w, tea.Quit
		}
	}
	return w, cmd
}

// transitionToSaveConfig shows the save config dialog.
func (w *Wizard) transitionToSaveConfig() (tea.Model, tea.Cmd) {
	w.phase = PhaseSaveConfig
	if w.configPath == "" {
		w.configPath = "roiburn.yaml"
	}

	w.saveConfigForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("config_path").
				Title("Save configuration to").
				Description("Enter the path for the YAML config file").
				Value(&w.configPath).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false)

	return w, w.saveConfigForm.Init()
}

// updateSaveConfig handles updates in the save config phase.
func (w *Wizard) updateSaveConfig(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			return w.transitionToSummary()
		case "ctrl+c":
			w.cancelled = true
			return w, tea.Quit
		}
	}

	form, cmd := w.saveConfigForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.saveConfigForm = f
	}

	if w.saveConfigForm.State == huh.StateCompleted {
		if err := w.saveConfig(w.configPath); err != nil {
			return w.fail(err)
		}
		w.saved = w.configPath
		return w.transitionToSummary()
	}
	return w, cmd
}

// saveConfig applies the state and writes the resulting configuration.
func (w *Wizard) saveConfig(path string) error {
	if err := w.state.Apply(w.session, w.cfg); err != nil {
		return err
	}
	w.cfg.Capture(w.session)
	return config.SaveConfig(w.cfg, path)
}

// viewSaveConfig renders the save config dialog.
func (w *Wizard) viewSaveConfig() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render("Save Configuration"),
		"",
		w.saveConfigForm.View(),
		"",
		"Enter: Save | Esc: Back",
	)
}

// startBurn applies the state and runs the export in a command. Progress
// is delivered through w.send when the wizard runs inside a program.
func (w *Wizard) startBurn() (tea.Model, tea.Cmd) {
	w.stopPreview()
	if err := w.state.Apply(w.session, w.cfg); err != nil {
		return w.fail(err)
	}
	total := w.session.Original().Len()
	if w.cfg.SeparateSeries {
		total *= len(w.state.Selected())
	}
	w.phase = PhaseProgress
	w.progressScreen = screens.NewProgressScreen(total)

	opts := w.cfg.ExportOptions()
	opts.Quiet = true
	if send := w.send; send != nil {
		opts.ProgressCallback = func(current, total int) {
			send(screens.ProgressMsg{Current: current, Total: total})
		}
	}
	dir, zip := w.cfg.Output.Dir, w.cfg.Output.Zip

	return w, func() tea.Msg {
		start := time.Now()
		res, err := w.session.ExportDir(w.ctx, dir, zip, opts)
		if err != nil {
			return screens.ErrorMsg{Error: err}
		}
		output, _ := filepath.Abs(dir)
		msg := screens.CompletionMsg{
			Folders:  res.Folders,
			Written:  res.Written,
			Skipped:  res.Skipped,
			Duration: time.Since(start),
			Output:   output,
		}
		if zip {
			msg.Archive = filepath.Join(output, res.Archive)
		}
		return msg
	}
}

func (w *Wizard) fail(err error) (tea.Model, tea.Cmd) {
	w.phase = PhaseError
	w.err = err
	w.errorScreen = screens.NewErrorScreen(err)
	return w, nil
}

// updateProgress handles updates in the progress phase.
func (w *Wizard) updateProgress(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case screens.CompletionMsg:
		w.phase = PhaseComplete
		w.completionScreen = screens.NewCompletionScreen(msg)
		return w, nil
	case screens.ErrorMsg:
		return w.fail(msg.Error)
	}

	model, cmd := w.progressScreen.Update(msg)
	if ps, ok := model.(*screens.ProgressScreen); ok {
		w.progressScreen = ps
	}
	if w.progressScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}
	return w, cmd
}

// updateComplete handles updates in the completion phase.
func (w *Wizard) updateComplete(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.completionScreen.Update(msg)
	if cs, ok := model.(*screens.CompletionScreen); ok {
		w.completionScreen = cs
	}
	if w.completionScreen.Done() {
		w.finished = true
		return w, tea.Quit
	}
	return w, cmd
}

// updateError handles updates in the error phase.
func (w *Wizard) updateError(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.errorScreen.Update(msg)
	if es, ok := model.(*screens.ErrorScreen); ok {
		w.errorScreen = es
	}
	if w.errorScreen.Done() {
		w.finished = true
		return w, tea.Quit
	}
	return w, cmd
}

// Run starts the interactive wizard over a loaded session. configPath is
// the default target when saving the configuration.
func Run(ctx context.Context, s *session.Session, cfg *config.Config, configPath string) error {
	dir := "study"
	if m := s.Match(); m != nil && len(m.Slices) > 0 {
		dir = filepath.Dir(m.Slices[0].Path)
	}
	return run(ctx, NewWizard(ctx, s, cfg, dir, configPath))
}

func run(ctx context.Context, wizard *Wizard) error {
	p := tea.NewProgram(wizard, tea.WithAltScreen(), tea.WithContext(ctx))
	wizard.send = p.Send

	finalModel, err := p.Run()
	if wizard.previewer != nil {
		wizard.previewer.Cancel()
		wizard.previewer.Wait()
	}
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	if w, ok := finalModel.(*Wizard); ok {
		if w.cancelled {
			return nil // User cancelled, not an error
		}
		if w.err != nil {
			return w.err
		}
	}
	return nil
}
