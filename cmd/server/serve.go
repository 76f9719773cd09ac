package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ebook_checkout/internal/config"
	httpd "ebook_checkout/internal/delivery/http"
)

func serveCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.AppPort = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringP("port", "p", "", "Listen port (overrides APP_PORT)")

	return cmd
}

func runServe(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.WebhookSecret == "" {
		log.Warn().Msg("WEBHOOK_SECRET is not set; webhook signatures are not verified")
	}

	h := httpd.NewHandler(a.uc)
	server := &http.Server{
		Addr: ":" + cfg.AppPort,
		Handler: h.Routes(httpd.RouteConfig{
			Sig: httpd.SigConfig{
				Secret:        cfg.WebhookSecret,
				MaxAgeSeconds: cfg.SigMaxAgeSeconds,
			},
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Warn().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
