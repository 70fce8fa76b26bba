// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"safecheck/internal/api"
	"safecheck/internal/cache"
	"safecheck/internal/config"
	"safecheck/internal/database"
	"safecheck/internal/handlers"
	"safecheck/internal/render"
	"safecheck/internal/router"
	"safecheck/internal/session"
	"safecheck/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin dashboard server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"api", cfg.APIURL,
		"admin_2fa", cfg.Admin2FA,
	)

	// Connect to Valkey (sessions + builder drafts).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return fmt.Errorf("connect to valkey: %w", err)
	}
	defer valkeyClient.Close()

	// PostgreSQL is optional: without it the audit log and 2FA are off.
	var (
		auditStore *store.AuditStore
		totpStore  *store.TOTPStore
	)
	if cfg.DBEnabled() {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		auditStore = store.NewAuditStore(db)
		if cfg.Admin2FA {
			totpStore = store.NewTOTPStore(db)
		}
	} else {
		slog.Warn("postgres not configured, audit log and 2FA disabled")
	}

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	drafts := cache.NewDraftStore(valkeyClient, cache.DefaultDraftTTL)

	// In dev mode, templates load assets from CDN; in production they use
	// compiled local files embedded in the binary.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		return fmt.Errorf("initialize template renderer: %w", err)
	}

	client := api.New(cfg.APIURL, cfg.APITimeout)

	adminHandlers := handlers.NewAdmin(renderer, sessionStore, client, drafts, auditStore)
	authHandlers := handlers.NewAuth(renderer, sessionStore, client, drafts, totpStore, auditStore)

	r, stopLimiter := router.New(sessionStore, adminHandlers, authHandlers, secureCookies)
	defer stopLimiter()

	// WriteTimeout leaves room for a backend call at its full timeout.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.APITimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// openDB connects to PostgreSQL and applies pending migrations.
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}
