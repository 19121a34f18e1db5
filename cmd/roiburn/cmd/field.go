package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrsinham/roiburn/internal/dicom"
	"github.com/spf13/cobra"
)

// NewFieldCmd prints one named field of a DICOM file.
func NewFieldCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field <file> <key>",
		Short: "print a named field of a DICOM file",
		Long:  "Resolves a field keyword such as RescaleSlope or ImagePositionPatient and prints its value. Unknown keywords suggest the closest known one.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := dicom.ReadRecord(args[0])
			if err != nil {
				return err
			}
			v, err := r.Lookup(args[1])
			if err != nil {
				return err
			}
			slog.DebugContext(ctx, "field resolved", "file", args[0], "key", args[1])
			fmt.Println(v)
			return nil
		},
	}
	return cmd
}
