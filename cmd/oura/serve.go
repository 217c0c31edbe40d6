// ABOUTME: CLI command that runs the password-protected dashboard JSON API.
// ABOUTME: Shuts down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/oura/internal/api"
	"github.com/harperreed/oura/internal/auth"
	"github.com/harperreed/oura/internal/config"
	"github.com/harperreed/oura/internal/logging"
	"github.com/harperreed/oura/internal/pipeline"
	"github.com/harperreed/oura/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long: `Serve the dashboard as a JSON API.

Clients log in with POST /api/login {"password": "..."} and send the
returned token as "Authorization: Bearer <token>".

ENDPOINTS:

  GET  /healthz
  POST /api/login
  POST /api/logout
  GET  /api/data?range=last-7-days     (or ?start=YYYY-MM-DD&end=YYYY-MM-DD)
  GET  /api/summary
  GET  /api/charts/{sleep|readiness|activity|temperature}?last=14
  GET  /api/stats
  GET  /api/runs?limit=10

SETUP:

  oura auth hash            # then put password_hash in the config
  oura auth secret          # then put session_secret in the config`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Request logs are info level; quiet mode would hide them.
		if logMode == "" && cfg.LogMode == "" {
			l, err := logging.New("dev")
			if err != nil {
				return err
			}
			logger = l
		}

		store, err := openDB()
		if err != nil {
			return err
		}
		authn, err := newAuthenticator(store)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if n, err := store.PurgeSessions(ctx, now()); err != nil {
			logger.Warn("failed to purge sessions", "error", err)
		} else if n > 0 {
			logger.Info("purged expired sessions", "count", n)
		}

		data := pipeline.NewLoader(cfg.BundlePath(), logger)
		data.Dataset()

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           api.NewServer(data, authn, store, logger, now).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()
		logger.Info("dashboard api listening", "addr", serveAddr)
		fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", serveAddr)

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

// newAuthenticator builds the password authenticator from config.
func newAuthenticator(store storage.Repository) (*auth.PasswordAuthenticator, error) {
	if cfg.PasswordHash == "" {
		return nil, fmt.Errorf("no password configured; run 'oura auth hash' and set password_hash in %s", config.GetConfigPath())
	}
	ttl, err := cfg.GetSessionTTL()
	if err != nil {
		return nil, err
	}
	return auth.NewPasswordAuthenticator(auth.Options{
		PasswordHash: cfg.PasswordHash,
		Secret:       []byte(cfg.SessionSecret),
		TTL:          ttl,
		Store:        store,
		Now:          now,
		Log:          logger,
	})
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
