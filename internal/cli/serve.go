package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/af-corp/amrs/internal/config"
	"github.com/af-corp/amrs/internal/gateway"
	"github.com/af-corp/amrs/internal/inference"
	"github.com/af-corp/amrs/internal/resolver"
	"github.com/af-corp/amrs/internal/telemetry"
	"github.com/af-corp/amrs/internal/usage"
)

// NewServeCmd runs the HTTP API and metrics servers until interrupted.
func NewServeCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve completions over HTTP, reloading the routing set on config changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
}

func runServe(ctx context.Context, opts *Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(os.Stdout, cfg.Telemetry.LogLevel, cfg.Telemetry.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	creds, err := credentials(opts)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetricsWith(reg)
	tracker := usage.NewTracker()
	reg.MustRegister(telemetry.NewUsageCollector(tracker))

	set, err := inference.BuildSet(cfg, creds)
	if err != nil {
		return fmt.Errorf("build routing set: %w", err)
	}

	callbacks := []inference.Callback{
		inference.LogCallback(logger),
		inference.MetricsCallback(metrics),
	}

	// Connect to Redis
	var mirror *usage.Mirror
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not reachable (usage mirror disabled)", "error", err)
		} else {
			logger.Info("redis connected", "addr", cfg.Redis.Address)
			mirror = usage.NewMirror(rdb, cfg.Redis.KeyPrefix)
			callbacks = append(callbacks, inference.MirrorCallback(mirror))
		}
	}

	client := inference.NewClient(set, tracker,
		inference.WithCallbacks(callbacks...),
		inference.WithMetrics(metrics),
		inference.WithLogger(logger),
	)
	logger.Info("routing set loaded", "mode", set.Router.Mode().String(), "models", len(set.Models))

	loader := config.NewLoader(opts.ConfigPath, logger)
	loader.OnReload(reloadSet(client, creds, metrics, logger))
	if err := loader.Watch(ctx); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	api := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      gateway.NewRouter(gateway.NewHandler(client, mirror), Version),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	servers := []*http.Server{api}
	if cfg.Telemetry.MetricsPort > 0 {
		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Telemetry.MetricsPort),
			Handler: metricsRouter(reg),
		})
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("server starting", "addr", srv.Addr, "version", Version)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	logger.Info("amrs stopped")
	return err
}

// reloadSet returns the Loader callback that rebuilds the routing set. A
// document that fails resolution or router construction is rejected and the
// running set stays in place.
func reloadSet(client *inference.Client, creds resolver.CredentialProvider, metrics *telemetry.Metrics, logger *slog.Logger) func(*config.Config) {
	return func(cfg *config.Config) {
		set, err := inference.BuildSet(cfg, creds)
		if err != nil {
			metrics.RecordReload(false)
			logger.Error("routing config rejected, keeping previous set", "error", err)
			return
		}
		client.Swap(set)
		metrics.RecordReload(true)
		logger.Info("routing set reloaded", "mode", set.Router.Mode().String(), "models", len(set.Models))
	}
}

func metricsRouter(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return r
}
