package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewNavigateCmd prints the voxel at the center of a region.
func NewNavigateCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "navigate <dir>",
		Short: "print the center of a region",
		Long:  "Prints the voxel at the center of the region's bounding box, with the matching slice UID.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("region")
			s, err := a.load(ctx, args[0])
			if err != nil {
				return err
			}
			if err := mustRegion(s, name); err != nil {
				return err
			}
			p, err := s.Navigate(ctx, name)
			if err != nil {
				return err
			}
			fmt.Printf("%s: x=%d y=%d z=%d", name, p.X, p.Y, p.Z)
			if sl := s.Active(); p.Z < sl.Len() {
				fmt.Printf(" (slice %s)", sl.Slices[p.Z].UID)
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().String("region", "", "region name")
	cmd.MarkFlagRequired("region")
	return cmd
}
