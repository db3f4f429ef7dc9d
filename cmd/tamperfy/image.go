package main

import (
	"strings"

	"github.com/anatolykoptev/go-tamperfy"
	"github.com/spf13/cobra"
)

// NewImageCmd creates the image command.
func NewImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <path|url>...",
		Short: "Score images for tampering",
		Long: `Score one or more images for tampering.

Each argument is a local file or an http(s) URL. Missing and undecodable
files are reported with an error label rather than failing the command.
Signals marked with * fell back to their neutral value.

Examples:
  tamperfy image photo.jpg
  tamperfy image --json https://example.com/upload.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImageCmd,
	}
}

func runImageCmd(cmd *cobra.Command, args []string) error {
	d, _, err := newDetector(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	results := make([]namedResult, 0, len(args))
	for _, arg := range args {
		var res tamperfy.Result
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			res = d.DetectImageURL(ctx, arg)
		} else {
			res = d.DetectImage(ctx, arg)
		}
		results = append(results, namedResult{Name: arg, Result: res})
	}

	out := cmd.OutOrStdout()
	if getJSONFlag(cmd) {
		return writeJSON(out, results)
	}
	for _, r := range results {
		writeResult(out, r.Name, r.Result)
	}
	return nil
}
