package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plinth/internal/adapters/http/api"
	"plinth/internal/adapters/repository/memory"
	"plinth/internal/adapters/repository/postgres"
	"plinth/internal/app"
	"plinth/internal/config"
	"plinth/internal/domain/schema"
	"plinth/internal/gateway"
	"plinth/internal/router"
	"plinth/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout        = 10 * time.Second
	writeTimeout       = 10 * time.Second
	idleTimeout        = 60 * time.Second
	readHeaderTimeout  = 5 * time.Second
	shutdownTimeout    = 30 * time.Second
	poolMetricsRefresh = 10 * time.Second
)

// demoCollections returns the collections the demo server exposes.
func demoCollections() []schema.Collection {
	return []schema.Collection{
		{
			Name: "items",
			Key:  "id",
			Columns: []schema.Column{
				{Name: "name", Type: schema.Text, Indexed: true},
				{Name: "description", Type: schema.Text, Nullable: true},
				{Name: "price", Type: schema.Double, Nullable: true},
				{Name: "created_at", Type: schema.Timestamp, Nullable: true},
			},
		},
	}
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Err(err))
		_ = logger.SetLevelString("info")
	}

	collections := demoCollections()

	store, err := openStore(ctx, cfg, collections)
	if err != nil {
		os.Stderr.WriteString("failed to open store: " + err.Error() + "\n")
		return
	}

	svc := app.New(
		app.WithStore(store),
		app.WithCollections(collections...),
		app.WithListLimit(cfg.ListLimit),
		app.WithLogger(log),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			log.Error(ctx, "service stop failed", logger.Err(err))
		}
	}()

	r := router.New(
		router.WithLogger(log),
		router.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)
	r.Use(router.AccessLog(log.Named("http")))

	apiServer := api.NewServer(svc)
	if err := apiServer.Register(ctx, r); err != nil {
		os.Stderr.WriteString("failed to register routes: " + err.Error() + "\n")
		return
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Err(err))
	}

	log.Info(ctx, "server stopped")
}

// openStore selects a driver from the configured database URL: empty means
// the in-memory store, postgres:// the PostgreSQL driver.
func openStore(ctx context.Context, cfg *config.Config, collections []schema.Collection) (gateway.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Get().Info(ctx, "using in-memory store")
		return memory.New(), nil
	}
	if !postgres.Accepts(cfg.DatabaseURL) {
		return nil, fmt.Errorf("unsupported database_url scheme")
	}

	store, err := postgres.Connect(ctx, cfg.DatabaseURL,
		postgres.WithCollections(collections...),
		postgres.WithMaxConns(cfg.PoolMaxConns),
		postgres.WithAcquireTimeout(time.Duration(cfg.PoolAcquireTimeoutMS)*time.Millisecond),
	)
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	go poolMetricsUpdater(ctx, store)
	logger.Get().Info(ctx, "using postgres store")
	return store, nil
}

// poolMetricsUpdater periodically publishes connection pool gauges.
func poolMetricsUpdater(ctx context.Context, store *postgres.Store) {
	ticker := time.NewTicker(poolMetricsRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.UpdatePoolMetrics()
		}
	}
}
