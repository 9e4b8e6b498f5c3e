package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	database "github.com/FACorreiaa/skill-registry/app/db"
	"github.com/FACorreiaa/skill-registry/app/observability/metrics"
	"github.com/FACorreiaa/skill-registry/app/tracer"
	"github.com/FACorreiaa/skill-registry/config"
	"github.com/FACorreiaa/skill-registry/internal/container"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Start without applying database migrations")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	providers, err := tracer.InitTracingAndMetrics(serviceName, Version)
	if err != nil {
		return fmt.Errorf("observability setup: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
		}
	}()
	if err := metrics.InitAppMetrics(); err != nil {
		return fmt.Errorf("metric instruments: %w", err)
	}

	if !skipMigrations {
		dbConfig, err := database.NewDatabaseConfig(cfg, logger)
		if err != nil {
			return fmt.Errorf("database config: %w", err)
		}
		if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
			return err
		}
	}

	c, err := container.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if !c.WaitForDB(ctx) {
		return errors.New("database not ready after waiting")
	}

	servers := []*http.Server{newServer(cfg, fmt.Sprintf(":%s", cfg.Server.HTTPPort), c.Router(), logger)}
	if cfg.Metrics.Enabled && cfg.Metrics.Port != "" {
		m := chi.NewRouter()
		m.Handle("/metrics", providers.MetricsHandler)
		servers = append(servers, newServer(cfg, fmt.Sprintf(":%s", cfg.Metrics.Port), m, logger))
	}

	return run(ctx, cfg.Server.ShutdownTimeout, logger, servers...)
}

func newServer(cfg *config.Config, addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  orDefault(cfg.Server.ReadTimeout, 5*time.Second),
		WriteTimeout: orDefault(cfg.Server.WriteTimeout, 10*time.Second),
		IdleTimeout:  orDefault(cfg.Server.IdleTimeout, 120*time.Second),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// run serves until ctx is cancelled or one server fails, then shuts all of them down.
func run(ctx context.Context, shutdownTimeout time.Duration, logger *slog.Logger, servers ...*http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), orDefault(shutdownTimeout, 10*time.Second))
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server graceful shutdown failed", slog.String("address", srv.Addr), slog.Any("error", err))
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Application shut down complete.")
	return nil
}
