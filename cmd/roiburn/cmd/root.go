// Package cmd holds the roiburn command tree.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mrsinham/roiburn/internal/config"
	"github.com/mrsinham/roiburn/internal/dicom"
	"github.com/mrsinham/roiburn/internal/logging"
	"github.com/mrsinham/roiburn/internal/session"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfg     *config.Config
	logFile io.Closer
}

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	a := &app{cfg: config.DefaultConfig()}
	cmd := &cobra.Command{
		Use:           "roiburn",
		Short:         "burn RT structure contours into CT series",
		Long:          "roiburn reads a CT series and its RT structure set, burns selected regions into the pixel data and exports patched copies.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(ctx, cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != nil {
				a.logFile.Close()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewRegionsCmd(ctx, a),
		NewBurnCmd(ctx, a),
		NewSectionCmd(ctx, a),
		NewNavigateCmd(ctx, a),
		NewPhantomCmd(ctx),
		NewWizardCmd(ctx, a),
		NewFieldCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.StringP("config", "c", "roiburn.yaml", "YAML burn configuration (defaults are used when absent)")
	return cmd
}

// setup loads the configuration and installs the default logger. The
// --log-level flag wins over the configured level.
func (a *app) setup(ctx context.Context, cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	levelName := cfg.Logging.Level
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		levelName = f.Value.String()
	}
	level, ok := logging.ParseLevel(levelName)

	var w io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		lf := logging.FileWriter(cfg.Logging.File, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)
		a.logFile = lf
		w = lf
	}
	slog.SetDefault(logging.Logger(w, strings.EqualFold(cfg.Logging.Format, "json"), level))
	if !ok {
		slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", levelName)
	}
	return nil
}

// load reads a study directory into a session configured from a.cfg.
func (a *app) load(ctx context.Context, dir string) (*session.Session, error) {
	s := session.New()
	if _, err := s.Load(ctx, dir, dicom.LoadOptions{Workers: a.cfg.Output.Workers}); err != nil {
		return nil, err
	}
	if err := a.cfg.Apply(s); err != nil {
		return nil, err
	}
	return s, nil
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
	return cmd
}
