// Command studio-devapi serves an in-memory studio backend for local work
// with studioctl.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/softseven/studio-admin/internal/devapi"
	"github.com/softseven/studio-admin/internal/metrics"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	jwtKey := flag.String("jwt-key", "", "HS256 signing key (built-in dev key when empty)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "issued token lifetime")
	seedName := flag.String("seed-name", "Admin", "seeded admin name")
	seedEmail := flag.String("seed-email", "admin@softseven.ao", "seeded admin email")
	seedPassword := flag.String("seed-password", "", "seeded admin password (required)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	if *seedPassword == "" {
		logger.Fatal("missing admin password (--seed-password)")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []devapi.Option{
		devapi.WithLogger(logger),
		devapi.WithMetrics(metrics.NewCollector(reg)),
		devapi.WithTokenTTL(*tokenTTL),
	}
	if *jwtKey != "" {
		opts = append(opts, devapi.WithSignKey([]byte(*jwtKey)))
	}
	backend := devapi.New(opts...)
	if _, err := backend.AddUser(*seedName, *seedEmail, *seedPassword); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler(reg))
	r.Mount("/", backend.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("forced shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
