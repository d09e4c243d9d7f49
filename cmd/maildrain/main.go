package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mickamy/maildrain"
	"github.com/mickamy/maildrain/internal/config"
	"github.com/mickamy/maildrain/internal/dispatch"
	"github.com/mickamy/maildrain/internal/logger"
	"github.com/mickamy/maildrain/internal/metrics"
	"github.com/mickamy/maildrain/migrations"
)

func main() {
	once := flag.Bool("once", false, "drain a single batch and exit")
	migrate := flag.Bool("migrate", false, "apply queue table migrations before draining")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithLevel(cfg.LogLevel),
		logger.WithAttr(slog.String("service", "maildrain")),
	)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *once, *migrate); err != nil {
		log.Error("maildrain stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, once, migrate bool) error {
	backend, err := dispatch.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	if migrate {
		applied, err := migrations.Up(ctx, backend.DB, backend.Dialect)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "dialect", backend.Dialect, "count", applied)
	}

	deliverer, err := dispatch.NewDeliverer(ctx, cfg)
	if err != nil {
		return err
	}

	hooks := metrics.NewStatsHook("maildrain")
	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(log, cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	drainer := maildrain.NewDrainer(backend.Store, deliverer, maildrain.Options{
		BatchSize:         cfg.BatchSize,
		Interval:          cfg.Interval,
		DeliveryTimeout:   cfg.DeliveryTimeout,
		ContinueOnFailure: cfg.ContinueOnFailure,
		Logger:            log.With("dialect", string(backend.Dialect)),
		Hooks:             hooks,
	})

	if once {
		_, err := drainer.Drain(ctx)
		return err
	}

	log.Info("maildrain started",
		"dialect", backend.Dialect,
		"transport", cfg.Transport,
		"interval", cfg.Interval.String(),
	)
	if err := drainer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("maildrain shut down")
	return nil
}

func startMetricsServer(log *slog.Logger, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics available", "addr", addr, "path", "/debug/vars")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()
	return srv
}
