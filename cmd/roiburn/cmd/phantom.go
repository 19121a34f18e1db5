package cmd

import (
	"context"
	"fmt"

	"github.com/mrsinham/roiburn/internal/dicom"
	"github.com/mrsinham/roiburn/internal/dicom/edgecases"
	"github.com/mrsinham/roiburn/internal/dicom/vendortags"
	"github.com/spf13/cobra"
)

// NewPhantomCmd writes a synthetic CT study with a structure set.
func NewPhantomCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phantom <dir>",
		Short: "generate a synthetic CT series and structure set",
		Long:  "Writes a deterministic water phantom CT series and an RT structure set with Body, Spine and PTV regions.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			opts := dicom.PhantomOptions{OutputDir: args[0]}
			opts.Slices, _ = f.GetInt("slices")
			opts.Rows, _ = f.GetInt("rows")
			opts.Columns, _ = f.GetInt("columns")
			opts.PixelSpacing, _ = f.GetFloat64("spacing")
			opts.SliceThickness, _ = f.GetFloat64("thickness")
			opts.Seed, _ = f.GetInt64("seed")
			opts.Workers, _ = f.GetInt("workers")
			opts.PatientName, _ = f.GetString("patient")
			opts.StudyDate, _ = f.GetString("study-date")
			opts.NoLabels, _ = f.GetBool("no-labels")
			opts.Quiet, _ = f.GetBool("quiet")

			edgeTypes, _ := f.GetString("edge-cases")
			types, err := edgecases.ParseTypes(edgeTypes)
			if err != nil {
				return err
			}
			opts.EdgeCases.Types = types
			opts.EdgeCases.Percentage, _ = f.GetInt("edge-cases-pct")

			vendorNames, _ := f.GetString("vendors")
			if opts.Vendors.Vendors, err = vendortags.ParseVendors(vendorNames); err != nil {
				return err
			}

			ph, err := dicom.GeneratePhantom(opts)
			if err != nil {
				return err
			}
			if !opts.Quiet {
				fmt.Printf("Study:     %s\n", ph.StudyUID)
				fmt.Printf("Series:    %s (%d slices)\n", ph.SeriesUID, len(ph.Slices))
				fmt.Printf("Structure: %s\n", ph.StructureSetPath)
				fmt.Printf("Regions:   %v\n", ph.Regions)
				fmt.Printf("Scanner:   %s %s\n", ph.Scanner.Manufacturer, ph.Scanner.Model)
				for _, sl := range ph.Slices {
					if len(sl.Omitted) > 0 {
						fmt.Printf("  slice %d without %v\n", sl.InstanceNumber, sl.Omitted)
					}
				}
				if ph.StaleUID != "" {
					fmt.Printf("Stale contour on %s\n", ph.StaleUID)
				}
			}
			return nil
		},
	}

	pf := cmd.Flags()
	pf.Int("slices", 16, "number of CT slices")
	pf.Int("rows", 64, "image rows")
	pf.Int("columns", 64, "image columns")
	pf.Float64("spacing", 1, "pixel spacing in mm")
	pf.Float64("thickness", 2.5, "slice thickness in mm")
	pf.Int64("seed", 0, "seed for reproducibility")
	pf.Int("workers", 0, "parallel workers (0 = CPU count)")
	pf.String("patient", "", "patient name (random from the seed when empty)")
	pf.String("study-date", "", "study date YYYYMMDD (default 20240115)")
	pf.Bool("no-labels", false, "skip the slice number overlay")
	pf.BoolP("quiet", "q", false, "suppress progress output")
	pf.String("edge-cases", "", "degraded inputs: missing-geometry,missing-pixels,stale-contours,odd-names,missing-date or all")
	pf.Int("edge-cases-pct", 10, "percentage of slices hit by per-slice edge cases")
	pf.String("vendors", "", "vendor private blocks: siemens,ge,philips or all")
	return cmd
}
