package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-tamperfy/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detectors over HTTP",
		Long: `Serve exposes image and caption detection as a JSON API:

  GET  /ping      liveness
  POST /v1/image  multipart "image" file, raw image body, or {"url": "..."}
  POST /v1/text   {"text": "..."}
  POST /v1/post   multipart "image" file and "caption" field

Examples:
  tamperfy serve
  tamperfy serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	d, cfg, err := newDetector(cmd)
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if cmd.Flags().Changed("addr") {
		if addr, err = cmd.Flags().GetString("addr"); err != nil {
			return err
		}
	}

	api := server.New(d, server.Options{
		FlagThreshold:  &cfg.FlagThreshold,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	srv := &http.Server{
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * cfg.ImageModel.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	if srv.WriteTimeout < 30*time.Second {
		srv.WriteTimeout = 30 * time.Second
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("server starting", "addr", ln.Addr().String(),
		"image_model", d.HasImageModel(), "text_model", d.HasTextModel())
	return serve(ctx, srv, ln)
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
