package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"airbnb-harvester/config"
	"airbnb-harvester/extract"
	"airbnb-harvester/pipeline"
	"airbnb-harvester/reconcile"
	"airbnb-harvester/scraper/airbnb"
	"airbnb-harvester/services"
	"airbnb-harvester/storage"
	"airbnb-harvester/utils"
)

func main() {
	// ================== Bootstrap ====================
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("Airbnb Listing Harvester")
	logger.Info("Pages per run: %d | Concurrency: %d | Rate delay: %dms | Retries: %d",
		cfg.PagesPerRun, cfg.MaxConcurrency, cfg.RateLimitDelay, cfg.MaxRetries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =================== Storage Setup ========================================
	var store storage.Store
	if cfg.DryRun {
		logger.Warn("DRY_RUN set: using in-memory store, nothing will be persisted")
		store = storage.NewMemoryStore()
	} else {
		pgStore, err := storage.NewPostgresStore(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("Cannot connect to PostgreSQL: %v", err)
			os.Exit(1)
		}
		if err := pgStore.CreateSchema(); err != nil {
			logger.Error("Failed to create DB schema: %v", err)
			os.Exit(1)
		}
		store = pgStore
	}
	defer store.Close()

	// =============== Pipeline ===================================
	extractor := extract.New(logger)
	reconciler := reconcile.New(store, logger)
	driver := pipeline.NewDriver(extractor, reconciler, cfg.MaxConcurrency, logger)

	// =============== Fetching ===================================
	fetcher := airbnb.NewFetcher(cfg, logger)
	pages := make(chan pipeline.Page)

	go func() {
		defer close(pages)
		if err := fetcher.Fetch(ctx, cfg.SearchURL, pages); err != nil {
			logger.Error("Fetching stopped: %v", err)
		}
	}()

	results := driver.Run(ctx, pages)
	if len(results) == 0 {
		logger.Warn("No pages processed — check your network connection or Airbnb page structure")
		os.Exit(0)
	}

	// ========= CSV: audit trail of extracted records ===========================
	csvWriter := storage.NewCSVWriter(cfg.CSVFilePath, logger)
	if err := csvWriter.WriteRecords(pipeline.ExtractedRecords(results)); err != nil {
		logger.Error("Failed to write CSV: %v", err)
		// Non-fatal: records are already reconciled
	}

	// ==== Insights ============================
	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(pipeline.StoredRecords(results))
	services.PrintInsightReport(report)

	tally := pipeline.Count(results)
	fmt.Printf(" Done! %d stored, %d skipped, %d failed. Audit CSV → %s\n",
		tally.Stored, tally.Skipped, tally.Failed, cfg.CSVFilePath)
}
