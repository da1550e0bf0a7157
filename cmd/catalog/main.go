// cmd/catalog/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"moviecatalog/internal/catalog"
	"moviecatalog/internal/config"
	"moviecatalog/internal/logging"
	"moviecatalog/internal/publisher"
	"moviecatalog/internal/tracing"
	"moviecatalog/pkg/eventstore"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Install(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to shut down tracer provider", zap.Error(err))
		}
	}()

	var sinks catalog.MultiSink

	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		es := eventstore.NewEventStore(db)
		if err := es.Migrate(ctx); err != nil {
			logger.Fatal("Failed to prepare event journal", zap.Error(err))
		}
		sinks = append(sinks, catalog.NewJournalSink(es))
		logger.Info("Event journal enabled")
	}

	if cfg.Kafka.Brokers != "" {
		pub, err := publisher.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Fatal("Failed to create Kafka publisher", zap.Error(err))
		}
		defer pub.Close(10 * time.Second)
		sinks = append(sinks, pub)
		logger.Info("Kafka publishing enabled", zap.String("topic", cfg.Kafka.Topic))
	}

	svc := catalog.NewService(catalog.NewSeededStore(), sinks, logger)
	handler := catalog.NewHandler(svc, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           catalog.NewRouter(handler, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Attempting graceful shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down HTTP server", zap.Error(err))
		}
	}()

	logger.Info("Starting catalog service", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
	logger.Info("Gracefully stopped the HTTP server")
}
