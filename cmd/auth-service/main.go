package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tidyhome/auth-service/internal/analytics"
	"tidyhome/auth-service/internal/config"
	"tidyhome/auth-service/internal/httpapi"
	"tidyhome/auth-service/internal/hub"
	"tidyhome/auth-service/internal/mailer"
	"tidyhome/auth-service/internal/recovery"
	"tidyhome/auth-service/internal/store/postgres"
	"tidyhome/auth-service/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("auth-service")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	if cfg.DatabaseURL == "" {
		log.Fatal("DB_DSN must be set")
	}
	if err := postgres.Migrate(context.Background(), cfg.DatabaseURL); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	st := postgres.NewStore(pool)
	sessionHub := hub.New()
	sink := analytics.New(cfg.AnalyticsProvider, cfg.AnalyticsWebhook, cfg.AnalyticsToken)
	sender := mailer.New(cfg.EmailProvider, cfg.EmailWebhook, cfg.EmailToken)
	reset := recovery.NewInitiator(st, sender, cfg.PublicBaseURL)
	handler := httpapi.NewHandler(st, sink, sender, sessionHub, reset, cfg.PublicBaseURL)
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute: cfg.RateLimitPerMinute,
		IPBurst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/", handler.Routes())
	mux.Handle("/events/", httpapi.StreamHandler("/events", st, sessionHub))

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(mux)), "auth-service")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("auth-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
