package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campusgrid/timetabling/internal/cache"
	"github.com/campusgrid/timetabling/internal/config"
	"github.com/campusgrid/timetabling/internal/metrics"
	"github.com/campusgrid/timetabling/internal/server"
	"github.com/campusgrid/timetabling/internal/service"
	"github.com/campusgrid/timetabling/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the scheduling HTTP API",
		Long: `Serves the scheduling HTTP API. The Redis schedule cache and the Postgres
snapshot store are used when ENABLE_CACHE and ENABLE_STORE are set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := setup()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck
			return serve(cmd.Context(), cfg, logr)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()
	options := []service.Option{service.WithMetrics(m)}

	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		options = append(options, service.WithCache(cache.NewScheduleCache(client, cfg.Cache.TTL, logr)))
	}

	if cfg.Store.Enabled {
		db, err := store.NewPostgres(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		options = append(options, service.WithStore(store.NewSnapshotStore(db)))
	}

	scheduler := service.NewSchedulerService(cfg.Scheduler.Model(), cfg.Scheduler.Timeout, logr, options...)
	router := server.NewRouter(server.Dependencies{
		APIPrefix: cfg.APIPrefix,
		Scheduler: scheduler,
		Metrics:   m,
		Logger:    logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env,
			"cache", cfg.Cache.Enabled, "store", cfg.Store.Enabled)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.Timeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
