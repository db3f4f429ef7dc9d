package main

import (
	"fmt"

	"github.com/anatolykoptev/go-tamperfy"
	"github.com/spf13/cobra"
)

// NewELACmd creates the ela command.
func NewELACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ela <image> <out.png>",
		Short: "Write an error-level analysis map",
		Long: `Write the error-level analysis map of an image as a PNG. The image is
recompressed as JPEG and the per-pixel difference is amplified; bright
regions recompress differently from their surroundings and are likely edits.

Example:
  tamperfy ela photo.jpg photo-ela.png`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tamperfy.WriteELAMap(args[0], args[1]); err != nil {
				return fmt.Errorf("ela: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
}
