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

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"grantintake/internal/intake"
	intakemetrics "grantintake/internal/intake/metrics"
	"grantintake/internal/intake/service"
	"grantintake/internal/platform/config"
	"grantintake/internal/platform/httpserver"
	"grantintake/internal/platform/logger"
	"grantintake/internal/platform/metrics"
	"grantintake/internal/platform/middleware"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/intake.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	intakeMetrics := intakemetrics.New()
	svc := intake.NewService(deps.objects, deps.records,
		service.WithLogger(log),
		service.WithMetrics(intakeMetrics),
		service.WithVariants(cfg.Variants),
		service.WithGuard(deps.guard),
		service.WithStepTimeout(cfg.Supabase.Timeout),
		service.WithNotifyTimeout(2*cfg.Webhooks.Timeout+cfg.Kafka.DeliveryTimeout),
		service.WithNotifier(buildNotifier(cfg, deps, log, intakeMetrics)),
	)

	httpMetrics := metrics.New()
	limiter := middleware.NewRateLimiter(cfg.Limits.RPS, cfg.Limits.Burst, log, httpMetrics)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(log, httpMetrics))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))
	r.Get("/healthz", deps.health)
	r.Handle("/metrics", metrics.Handler())
	r.Group(func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		intake.NewHandler(svc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, r, cfg.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting grant intake", "addr", cfg.Addr, "variants", len(cfg.Variants))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				limiter.Sweep()
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}
