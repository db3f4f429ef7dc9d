package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewTextCmd creates the text command.
func NewTextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text [caption]",
		Short: "Score caption text for manipulative language",
		Long: `Score caption text for clickbait, spam, generalizing language and
linguistic anomalies. The caption is taken from the arguments or, with
--file, from a file ("-" reads standard input).

Examples:
  tamperfy text "Click here for a FREE gift!!!"
  tamperfy text --file caption.txt`,
		RunE: runTextCmd,
	}
	cmd.Flags().StringP("file", "f", "", "Read the caption from a file")
	return cmd
}

func runTextCmd(cmd *cobra.Command, args []string) error {
	caption, err := readCaption(cmd, args)
	if err != nil {
		return err
	}

	d, _, err := newDetector(cmd)
	if err != nil {
		return err
	}
	res := d.DetectText(cmd.Context(), caption)

	if getJSONFlag(cmd) {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	writeResult(cmd.OutOrStdout(), "text", res)
	return nil
}

func readCaption(cmd *cobra.Command, args []string) (string, error) {
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return "", err
	}
	if file == "" {
		if len(args) == 0 {
			return "", errors.New("no caption provided (pass it as an argument or use --file)")
		}
		return strings.Join(args, " "), nil
	}
	if len(args) > 0 {
		return "", errors.New("--file cannot be combined with a caption argument")
	}

	var data []byte
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file) //nolint:gosec // User-provided caption path is intentional
	}
	if err != nil {
		return "", fmt.Errorf("read caption: %w", err)
	}
	return string(data), nil
}
