package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mrsinham/roiburn/internal/config"
	"github.com/mrsinham/roiburn/internal/roi"
	"github.com/mrsinham/roiburn/internal/session"
	"github.com/spf13/cobra"
)

// NewBurnCmd burns the selected regions and exports the result.
func NewBurnCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burn <dir>",
		Short: "burn regions into a CT series and export it",
		Long: `Burns the regions selected by the configuration file, or by --region, into
the CT series under dir and writes patched copies. Flags override the
configuration file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyBurnFlags(cmd, a.cfg)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			s, err := a.load(ctx, args[0])
			if err != nil {
				return err
			}
			regions, _ := cmd.Flags().GetStringSlice("region")
			if len(regions) > 0 {
				if err := s.Catalog.Select(regions...); err != nil {
					return err
				}
			}

			quiet, _ := cmd.Flags().GetBool("quiet")
			opts := a.cfg.ExportOptions()
			opts.Quiet = quiet

			start := time.Now()
			res, err := s.ExportDir(ctx, a.cfg.Output.Dir, a.cfg.Output.Zip, opts)
			if err != nil {
				return err
			}
			if !quiet {
				if a.cfg.Output.Zip {
					fmt.Printf("Archive: %s\n", res.Archive)
				}
				if res.Skipped > 0 {
					fmt.Printf("Skipped: %d slices without pixel data\n", res.Skipped)
				}
				fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())
			}

			if path, _ := cmd.Flags().GetString("save-config"); path != "" {
				a.cfg.Capture(s)
				if err := config.SaveConfig(a.cfg, path); err != nil {
					return err
				}
				if !quiet {
					fmt.Printf("Configuration saved to %s\n", path)
				}
			}
			return nil
		},
	}

	pf := cmd.Flags()
	pf.StringSliceP("region", "r", nil, "regions to burn (repeatable, replaces the configured selection)")
	pf.StringP("output", "o", "", "output directory")
	pf.StringP("name", "n", "", "image set name (default CT_MMDDYY_Burn from the study date)")
	pf.Bool("zip", false, "write one zip archive instead of folders")
	pf.Bool("separate", false, "export one series per region")
	pf.String("note", "", "free text burned into the annotation band")
	pf.Bool("no-annotation", false, "do not burn the annotation band")
	pf.Bool("recompute-window", false, "rewrite the display window from the burned range")
	pf.Int("workers", 0, "parallel export workers (0 = CPU count)")
	pf.Float64("target-hu", 0, "default outline intensity in HU")
	pf.String("preset", "", "default outline intensity by preset name (see regions --presets)")
	pf.String("style", "", "default line style (solid, dotted)")
	pf.Float64("width", 0, "default line width in pixels")
	pf.Bool("fill", false, "fill the burned regions")
	pf.String("fill-delta", "", "fill offset, e.g. +50 or -100HU")
	pf.Bool("no-outline", false, "do not draw outlines")
	pf.BoolP("quiet", "q", false, "suppress progress output")
	pf.String("save-config", "", "save the effective configuration to this YAML file")
	return cmd
}

// applyBurnFlags copies the flags that were set onto cfg.
func applyBurnFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.Output.Dir, _ = f.GetString("output")
	}
	if f.Changed("name") {
		cfg.ImageSetName, _ = f.GetString("name")
	}
	if f.Changed("zip") {
		cfg.Output.Zip, _ = f.GetBool("zip")
	}
	if f.Changed("separate") {
		cfg.SeparateSeries, _ = f.GetBool("separate")
	}
	if f.Changed("note") {
		cfg.Note, _ = f.GetString("note")
	}
	if f.Changed("no-annotation") {
		off, _ := f.GetBool("no-annotation")
		cfg.Annotation.Enabled = !off
	}
	if f.Changed("recompute-window") {
		cfg.Output.RecomputeWindow, _ = f.GetBool("recompute-window")
	}
	if f.Changed("workers") {
		cfg.Output.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("target-hu") {
		cfg.Defaults.TargetHU, _ = f.GetFloat64("target-hu")
	}
	if f.Changed("preset") {
		cfg.Defaults.Preset, _ = f.GetString("preset")
	}
	if f.Changed("style") {
		cfg.Defaults.LineStyle, _ = f.GetString("style")
	}
	if f.Changed("width") {
		cfg.Defaults.LineWidth, _ = f.GetFloat64("width")
	}
	if f.Changed("fill") {
		cfg.Defaults.Fill, _ = f.GetBool("fill")
	}
	if f.Changed("fill-delta") {
		s, _ := f.GetString("fill-delta")
		cfg.Defaults.FillDelta = roi.ParseHUDelta(s, cfg.Defaults.FillDelta)
	}
	if f.Changed("no-outline") {
		off, _ := f.GetBool("no-outline")
		cfg.Defaults.Outline = !off
	}
	if f.Changed("region") {
		// Selection by flag replaces the configured one, so configured
		// overrides must not reselect their regions.
		for i := range cfg.Regions {
			cfg.Regions[i].Selected = false
		}
	}
}

// mustRegion looks a region up, naming the available ones on failure.
func mustRegion(s *session.Session, name string) error {
	if _, err := s.Catalog.Lookup(name); err != nil {
		return fmt.Errorf("%w (available: %v)", err, s.Catalog.Names())
	}
	return nil
}
