package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/basecloud/tenantd/internal/adapter/otel"
	"github.com/basecloud/tenantd/internal/adapter/rabbit"
	rediscache "github.com/basecloud/tenantd/internal/adapter/redis"
	riveradapter "github.com/basecloud/tenantd/internal/adapter/river"
	"github.com/basecloud/tenantd/internal/adapter/sqlite"
	"github.com/basecloud/tenantd/internal/app"
	"github.com/basecloud/tenantd/internal/domain"

	fsmadapter "github.com/basecloud/tenantd/internal/adapter/fsm"
	handler "github.com/basecloud/tenantd/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "tenantd.db")
	amqpURL := os.Getenv("AMQP_URL")
	redisURL := os.Getenv("REDIS_URL")

	// Bootstrap material. The defaults mirror the legacy deployment and
	// exist for local development only; production must supply both and
	// rotate the admin password out-of-band after first login.
	provisionCfg := app.ProvisionConfig{
		DefaultAppID:          envOrDefault("DEFAULT_APP_ID", "e46c0d4f85f24f759ad4d86b9505b1d4"),
		BootstrapPasswordHash: envOrDefault("BOOTSTRAP_PASSWORD_HASH", "e10adc3949ba59abbe56e057f20f883e"),
	}

	ctx := context.Background()

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}

	// --- Adapters (out) ---
	db, err := otel.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer store.Close()

	var broker riveradapter.Broker
	if amqpURL != "" {
		rb, err := rabbit.New(amqpURL)
		if err != nil {
			return fmt.Errorf("broker: %w", err)
		}
		defer rb.Close()
		broker = rb
	} else {
		log.Println("AMQP_URL not set, events will be logged but not delivered")
	}

	queue, err := riveradapter.Setup(ctx, db, broker)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := queue.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}

	publisher := otel.NewTracingPublisher(riveradapter.NewPublisher(queue))

	var cache domain.EntitlementCache
	if redisURL != "" {
		rc, err := rediscache.New(redisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		cache = rc
	} else {
		log.Println("REDIS_URL not set, entitlement cache updates disabled")
		cache = noopCache{}
	}

	// --- Application ---
	roles := app.NewPublishRoleBootstrap(publisher)
	provisioner := app.NewProvisioner(store, publisher, roles, provisionCfg)
	svc := app.NewTenantService(store, fsmadapter.New(), roles, cache, provisioner)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("tenantd", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("tenantd", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("tenantd listening on :%s", port)
		log.Printf("API docs: http://localhost:%s/docs", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := queue.Stop(shutdownCtx); err != nil {
		log.Printf("river stop: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}

	log.Println("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// noopCache keeps renewals working when no Redis deployment exists.
type noopCache struct{}

func (noopCache) SetExpiry(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}
