package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quickbite/internal/api"
	"quickbite/internal/config"
	"quickbite/internal/jwt"
	"quickbite/internal/logger"
	"quickbite/internal/postgres"
	"quickbite/internal/rabbitmq"
	"quickbite/internal/realtime"
	"quickbite/internal/tracking"
)

const accessTokenTTL = 2 * time.Hour

// run wires the service together and blocks until ctx is cancelled or the
// listener fails.
func run(ctx context.Context, configPath string, maxConcurrent int) error {
	log := logger.New("geo-location-service")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := postgres.RunMigrations(ctx, cfg, log, "file://migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	mq, err := rabbitmq.Connect(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer mq.Close()

	store := postgres.NewLocationRepo(pool)
	registry := realtime.NewRegistry(log)
	dispatcher := tracking.NewDispatcher(registry, log)
	svc := tracking.NewService(log, store, dispatcher, rabbitmq.NewMQPublisher(mq))
	gateway := realtime.NewGateway(log, registry, svc, cfg.WebSocket.AllowedOrigins)
	tokens := jwt.NewManager(cfg.JWT.SecretKey, accessTokenTTL)

	// one snapshot loop per process, regardless of how many admins connect
	broadcaster := realtime.NewBroadcaster(log, store, registry, cfg.SnapshotInterval(), cfg.ActiveWindow())
	go broadcaster.Run(ctx)

	mux := http.NewServeMux()
	api.NewLocationHTTPHandler(svc, log, tokens).RegisterRoutes(mux)
	mux.HandleFunc("GET /ws", gateway.HandleWS)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           withConcurrencyLimit(mux, maxConcurrent),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "http_listening", "HTTP and WebSocket listener started", map[string]any{
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info(context.WithoutCancel(ctx), "shutting_down", "Shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	return nil
}

// withConcurrencyLimit caps in-flight requests with a semaphore; excess
// requests get 503 instead of piling up.
func withConcurrencyLimit(next http.Handler, limit int) http.Handler {
	if limit <= 0 {
		return next
	}

	sem := make(chan struct{}, limit)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		default:
			http.Error(w, "server busy", http.StatusServiceUnavailable)
		}
	})
}
