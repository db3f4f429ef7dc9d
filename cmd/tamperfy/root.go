package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/anatolykoptev/go-tamperfy"
	"github.com/anatolykoptev/go-tamperfy/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for tamperfy.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tamperfy",
		Short: "Detect tampered images and manipulative captions",
		Long: `tamperfy scores images for tampering (error-level analysis, noise
inconsistency, EXIF metadata and an optional learned classifier) and caption
text for manipulative language (rule engine, linguistic analysis and an
optional learned classifier).

Learned classifiers are configured in .tamperfy.yaml. Without them tamperfy
runs the heuristic pipelines only.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(setupLogger(getVerboseFlag(cmd)))
		},
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .tamperfy.yaml in current or home directory)")
	cmd.PersistentFlags().BoolP("json", "j", false, "Output JSON")

	cmd.AddCommand(NewImageCmd())
	cmd.AddCommand(NewTextCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewELACmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger creates a structured logger based on verbosity setting.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

func getJSONFlag(cmd *cobra.Command) bool {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return false
	}
	return asJSON
}

// loadConfig resolves and validates the configuration file selected by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newDetector builds a Detector from the resolved configuration.
func newDetector(cmd *cobra.Command) (*tamperfy.Detector, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	dc := cfg.Detector(os.Getenv)
	dc.OnPanic = func(tag string, r any) {
		slog.Error("analyzer panic", "analyzer", tag, "panic", fmt.Sprint(r))
	}

	rc, err := cfg.NewCache()
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	if rc != nil {
		dc.Cache = rc
	}
	return tamperfy.New(dc), cfg, nil
}
