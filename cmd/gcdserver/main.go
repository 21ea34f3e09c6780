// Command gcdserver serves the detector GCD API: calibration, geometry and
// detector-status records plus per-run snapshot generation.
package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftice/gcdserver/api"
	"github.com/driftice/gcdserver/auth"
	"github.com/driftice/gcdserver/config"
	"github.com/driftice/gcdserver/observability"
	"github.com/driftice/gcdserver/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"
)

func main() {
	configPath := flag.String("config", os.Getenv("GCD_CONFIG"), "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Derive a 32-byte signing secret from whatever the operator configured.
	secretHash := sha256.Sum256([]byte(cfg.Auth.Secret))
	jwtSecret := secretHash[:]
	if err := auth.ValidateSecret(jwtSecret); err != nil {
		slog.Error("auth secret", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer st.Close()

	// Audit log shares the main database.
	auditLogger := observability.NewEventLogger(st.DB)
	if err := auditLogger.Init(); err != nil {
		slog.Error("audit init", "error", err)
		os.Exit(1)
	}
	if cfg.Audit.RetentionDays > 0 {
		go auditRetentionLoop(ctx, auditLogger, cfg.Audit.RetentionDays)
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	if err := api.SeedAdmin(ctx, st, cfg.Auth.AdminUser, cfg.Auth.AdminPassword); err != nil {
		slog.Error("seed admin", "error", err)
		os.Exit(1)
	}

	svc := api.New(st, logger, jwtSecret, cfg.Auth.TokenTTL,
		api.WithAudit(auditLogger),
		api.WithMetrics(metrics),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.HTTPMiddleware)
	r.Use(auth.Middleware(jwtSecret))

	r.Handle("/metrics", promhttp.Handler())
	svc.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// auditRetentionLoop trims old business events once a day.
func auditRetentionLoop(ctx context.Context, l *observability.EventLogger, retentionDays int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		if err := l.Cleanup(ctx, retentionDays); err != nil {
			slog.Error("audit cleanup", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
