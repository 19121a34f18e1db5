package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mrsinham/roiburn/internal/roi"
	"github.com/spf13/cobra"
)

// NewRegionsCmd lists the regions of a study.
func NewRegionsCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions <dir>",
		Short: "list the regions of a study",
		Long:  "Loads the CT series and structure set under dir and prints every region with its color and contour count.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, _ := cmd.Flags().GetBool("presets")
			stats, _ := cmd.Flags().GetBool("stats")

			s, err := a.load(ctx, args[0])
			if err != nil {
				return err
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("63")))
			if stats {
				t.Headers("#", "NAME", "COLOR", "SLICES", "VOXELS", "VOLUME (cc)", "MEAN HU", "SD", "MIN", "MAX")
			} else {
				t.Headers("#", "NAME", "COLOR", "SLICES", "CONTOURS")
			}
			for _, r := range s.Catalog.Sorted() {
				row := []string{strconv.Itoa(r.Number), r.Name, r.Color, strconv.Itoa(len(r.Slices()))}
				if !stats {
					t.Row(append(row, strconv.Itoa(len(r.Contours)))...)
					continue
				}
				st, err := s.RegionStats(ctx, r.Name)
				if err != nil {
					slog.DebugContext(ctx, "region not measured", "region", r.Name, "error", err)
					t.Row(append(row, "-", "-", "-", "-", "-", "-")...)
					continue
				}
				t.Row(append(row,
					strconv.Itoa(st.Voxels),
					fmt.Sprintf("%.2f", st.VolumeCC),
					fmt.Sprintf("%.1f", st.Mean),
					fmt.Sprintf("%.1f", st.StdDev),
					fmt.Sprintf("%.0f", st.Min),
					fmt.Sprintf("%.0f", st.Max),
				)...)
			}
			fmt.Println(t)

			if presets {
				fmt.Println()
				fmt.Println("=== HU Presets ===")
				for _, p := range roi.Presets {
					fmt.Printf("  %-16s %6.0f HU\n", p.Name, p.HU)
				}
			}
			return nil
		},
	}

	pf := cmd.Flags()
	pf.Bool("presets", false, "also list the material HU presets")
	pf.Bool("stats", false, "measure every region on the original series")
	return cmd
}
