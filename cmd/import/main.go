package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/thabzzzzz/hardwarestorefront-sub000/app/importer"
	"github.com/thabzzzzz/hardwarestorefront-sub000/config"
	"github.com/thabzzzzz/hardwarestorefront-sub000/database"
	"github.com/thabzzzzz/hardwarestorefront-sub000/logging"
	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

func main() {
	force := flag.Bool("force", false, "Import even when another import holds the lock")
	migrate := flag.Bool("migrate", true, "Run schema migrations before importing")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [csv-file]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Imports a crawler CSV export into the catalog in a single transaction.\n")
		fmt.Fprintf(os.Stderr, "The file defaults to IMPORT_FILE (tmp/newegg_products.csv).\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0), *force, *migrate); err != nil {
		red := color.New(color.FgRed, color.Bold)
		switch {
		case errors.Is(err, importer.ErrImportLocked):
			red.Fprintln(os.Stderr, "Import already running (use -force to override)")
		case errors.Is(err, importer.ErrFileNotFound):
			red.Fprintf(os.Stderr, "CSV not found: %v\n", err)
		default:
			red.Fprintf(os.Stderr, "Import failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, file string, force, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log)

	if file == "" {
		file = cfg.Import.File
	}
	if err := importer.CheckFile(file); err != nil {
		return err
	}

	override, err := cfg.Rates.Override()
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if migrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	rates := importer.NewExchangeRates(importer.RateConfig{
		URL:      cfg.Rates.URL,
		APIKey:   cfg.Rates.APIKey,
		Currency: cfg.Import.Currency,
		Timeout:  cfg.Rates.Timeout,
		Override: override,
	}, logger)

	im := importer.New(
		models.NewImportRepository(db),
		models.NewLockRepository(db),
		rates,
		importer.Config{LockTTL: cfg.Import.LockTTL, Currency: cfg.Import.Currency},
		logger,
	)

	result, err := im.Run(ctx, file, importer.Options{Force: force})
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen, color.Bold)
	green.Printf("Imported %s\n", result.File)
	fmt.Printf("  rows:     %d (skipped %d)\n", result.Rows, result.Skipped)
	fmt.Printf("  variants: %d created, %d updated\n", result.Created, result.Updated)
	fmt.Printf("  prices:   %d appended at USD->%s %s\n", result.PricesAdded, cfg.Import.Currency, result.Rate.String())
	fmt.Printf("  images:   %d\n", result.ImagesTouched)
	fmt.Printf("  took:     %s\n", result.Duration.Round(time.Millisecond))
	return nil
}
