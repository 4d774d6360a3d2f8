package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/thabzzzzz/hardwarestorefront-sub000/app/flags"
	"github.com/thabzzzzz/hardwarestorefront-sub000/config"
	"github.com/thabzzzzz/hardwarestorefront-sub000/database"
	"github.com/thabzzzzz/hardwarestorefront-sub000/logging"
	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

func main() {
	every := flag.Duration("every", 0, "Keep running and reconcile on this interval (e.g. 168h)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *every); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Reconciliation failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, every time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log)

	db, err := database.Open(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	scheduler := flags.NewScheduler(models.NewFlagReconciler(db), every, logger)
	if every > 0 {
		scheduler.Run(ctx)
		return nil
	}

	counts, err := scheduler.RunOnce(ctx)
	if err != nil {
		return err
	}
	color.New(color.FgGreen, color.Bold).Println("Flags reconciled")
	fmt.Printf("  featured: %d\n  popular:  %d\n  new:      %d\n", counts.Featured, counts.Popular, counts.New)
	return nil
}
