package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/stride/db"
	"example.com/stride/internal/api"
	"example.com/stride/internal/auth"
	"example.com/stride/internal/config"
	"example.com/stride/internal/domain"
	"example.com/stride/internal/logger"
	"example.com/stride/internal/outbox"
	"example.com/stride/internal/suggestion"
	persistence "example.com/stride/internal/persistence/postgres"
	httptransport "example.com/stride/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(0).Fatal("failed to load config", "error", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Migrate(ctx, cfg.Database.DSN); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to connect to postgres", "error", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	producer := outbox.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.WriteTimeout)
	defer producer.Close()

	registry := outbox.NewSchemaRegistryClient(cfg.Kafka.SchemaRegistryURL, cfg.Kafka.SchemaRegistryTimeout)
	dispatcher := outbox.NewDispatcher(pool, producer, registry, log, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)

	go dispatcher.Start(ctx)

	var planner domain.WorkoutPlanner = suggestion.NewStaticPlanner()
	if cfg.Suggestion.APIKey != "" {
		planner = suggestion.NewGeminiPlanner(cfg.Suggestion.Endpoint, cfg.Suggestion.APIKey, cfg.Suggestion.Timeout)
	}

	service := domain.NewService(repo, planner, cfg.WeeklyGoalKm)

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	requestLog := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug("request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(requestLog(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("stride api listening", "address", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	dispatcher.Wait()
}
