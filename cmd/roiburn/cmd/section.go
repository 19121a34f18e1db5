package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mrsinham/roiburn/internal/volume"
	"github.com/spf13/cobra"
)

// NewSectionCmd prints the boundary of a region on a sagittal or coronal
// section.
func NewSectionCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section <dir>",
		Short: "print a region's cross-section segments",
		Long:  "Rasterizes a region into the volume and prints the marching-squares boundary on one sagittal or coronal section.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("region")
			axisName, _ := cmd.Flags().GetString("axis")
			index, _ := cmd.Flags().GetInt("index")
			format, _ := cmd.Flags().GetString("format")

			axis, err := volume.ParseAxis(axisName)
			if err != nil {
				return err
			}
			s, err := a.load(ctx, args[0])
			if err != nil {
				return err
			}
			if err := mustRegion(s, name); err != nil {
				return err
			}
			v, err := s.Volume(ctx)
			if err != nil {
				return err
			}
			if index < 0 {
				index = v.Extent(axis) / 2
			}
			segs, err := s.CrossSection(ctx, name, axis, index)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				type segment struct {
					A [2]float64 `json:"a"`
					B [2]float64 `json:"b"`
				}
				out := make([]segment, len(segs))
				for i, sg := range segs {
					out[i] = segment{A: [2]float64{sg.A.X, sg.A.Y}, B: [2]float64{sg.B.X, sg.B.Y}}
				}
				j, _ := json.Marshal(out)
				os.Stdout.Write(j)
				fmt.Println()
			default:
				fmt.Printf("%s %s section %d: %d segments\n", name, axis, v.Clamp(axis, index), len(segs))
				for _, sg := range segs {
					fmt.Printf("  (%.1f, %.1f) -> (%.1f, %.1f)\n", sg.A.X, sg.A.Y, sg.B.X, sg.B.Y)
				}
			}
			return nil
		},
	}

	pf := cmd.Flags()
	pf.String("region", "", "region name")
	pf.String("axis", "sagittal", "section axis (sagittal|coronal)")
	pf.Int("index", -1, "section index (-1 = middle)")
	pf.StringP("format", "f", "text", "output format (text|json)")
	cmd.MarkFlagRequired("region")
	return cmd
}
