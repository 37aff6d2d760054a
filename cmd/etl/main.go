package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/config"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/pipeline"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	st, err := store.Open(cfg.TrackingDB)
	if err != nil {
		log.Fatalf("open tracking store: %v", err)
	}
	defer st.Close()

	// With SYNC_SCHEDULE set the process stays up and syncs on the cron
	// schedule; the default is one run and exit.
	if cfg.SyncSchedule != "" {
		runScheduled(cfg, st)
		return
	}

	if err := runOnce(cfg, st); err != nil {
		log.Printf("sync failed: %v", err)
		os.Exit(1)
	}
}

// runOnce performs a single sync run and prints the loaded-record count.
func runOnce(cfg *config.Config, st *store.Store) error {
	runID := uuid.New().String()
	if err := st.CreateRun(runID, cfg.CityName); err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	runner := pipeline.NewRunner(cfg, st, cfg.CityName)
	summary, err := runner.Run(context.Background(), runID)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Loaded %d records for %s (fetched %d, skipped %d)\n",
		summary.Loaded, summary.City, summary.Fetched, summary.Skipped)
	return nil
}

// runScheduled blocks forever, running a sync on every cron tick. A failed
// run is logged and the schedule keeps going.
func runScheduled(cfg *config.Config, st *store.Store) {
	c := cron.New()
	if _, err := c.AddFunc(cfg.SyncSchedule, func() {
		if err := runOnce(cfg, st); err != nil {
			log.Printf("scheduled sync failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid SYNC_SCHEDULE %q: %v", cfg.SyncSchedule, err)
	}

	log.Printf("⏰ Sync scheduled: %q (city: %s)", cfg.SyncSchedule, cfg.CityName)
	c.Run()
}
