package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thabzzzzz/hardwarestorefront-sub000/app/catalog"
	"github.com/thabzzzzz/hardwarestorefront-sub000/app/categories"
	"github.com/thabzzzzz/hardwarestorefront-sub000/app/flags"
	"github.com/thabzzzzz/hardwarestorefront-sub000/config"
	"github.com/thabzzzzz/hardwarestorefront-sub000/database"
	"github.com/thabzzzzz/hardwarestorefront-sub000/logging"
	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
	"github.com/thabzzzzz/hardwarestorefront-sub000/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Background flag reconciliation, when this process owns the schedule.
	if cfg.Flags.InProcess && cfg.Flags.Interval > 0 {
		scheduler := flags.NewScheduler(models.NewFlagReconciler(db), cfg.Flags.Interval, logger)
		go scheduler.Run(ctx)
	}

	public := os.DirFS(cfg.HTTP.PublicDir)
	products := models.NewProductsRepository(db)
	handler := server.NewRouter(server.Handlers{
		Catalog:    catalog.NewCatalogHandler(products, catalog.NewThumbnailResolver(public), logger),
		Categories: categories.NewCategoryHandler(models.NewCategoriesRepository(db), logger),
		HotDeals:   catalog.NewHotDealsHandler(products, cfg.HotDeals.Slugs, cfg.HotDeals.CacheTTL, logger),
		Public:     public,
	}, cfg.HTTP, logger)

	if err := server.Run(ctx, cfg.HTTP.Addr, handler, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
