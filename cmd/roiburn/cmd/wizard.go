package cmd

import (
	"context"

	"github.com/mrsinham/roiburn/cmd/roiburn/wizard"
	"github.com/spf13/cobra"
)

// NewWizardCmd starts the interactive burn wizard.
func NewWizardCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard <dir>",
		Short: "interactive region selection and burn",
		Long:  "Loads the study under dir and walks through region selection, per-region settings and export in a terminal UI.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			s, err := a.load(ctx, args[0])
			if err != nil {
				return err
			}
			return wizard.Run(ctx, s, a.cfg, path)
		},
	}
	return cmd
}
