// cmd/probe/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"moviecatalog/internal/catalog"
	"moviecatalog/internal/chaos"
	"moviecatalog/internal/clients"
	"moviecatalog/internal/logging"
)

func main() {
	catalogURL := flag.String("catalog-url", os.Getenv("CATALOG_SERVICE_URL"), "catalog to probe; empty runs against an in-process catalog")
	concurrency := flag.Int("concurrency", 100, "simultaneous requests per experiment")
	duration := flag.Duration("duration", 5*time.Second, "observation window per experiment")
	pause := flag.Duration("pause", 2*time.Second, "pause between experiments")
	flag.Parse()

	logger, err := logging.New("info", true)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	var target chaos.Target
	if *catalogURL != "" {
		target = clients.NewCatalogClient(*catalogURL)
		logger.Info("Probing remote catalog", zap.String("url", *catalogURL))
	} else {
		target = chaos.ServiceTarget(catalog.NewService(catalog.NewSeededStore(), nil, logger))
		logger.Info("Probing in-process catalog")
	}

	engine := chaos.NewEngine(target, logger)
	engine.RegisterExperiments(chaos.Settings{
		Concurrency:    *concurrency,
		Duration:       *duration,
		SampleInterval: 500 * time.Millisecond,
	})

	held, err := engine.ExecuteGameDay(context.Background(), chaos.GameDay{
		Name:      "Catalog consistency game day",
		Date:      time.Now(),
		Scenarios: engine.Experiments(),
		Pause:     *pause,
	})
	if err != nil {
		logger.Fatal("Game day failed", zap.Error(err))
	}
	if !held {
		logger.Error("At least one hypothesis was violated")
		os.Exit(1)
	}
}
