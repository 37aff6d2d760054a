package main

import (
	"log"

	_ "github.com/Fardin3303/etl-pipeline-mapbox-test/docs"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/api"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/api/handler"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/config"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/store"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/pkg/router"
)

// @title Road Sync API
// @version 1.0
// @description Trigger and inspect road-network sync runs
// @BasePath /api/v1
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

	r := router.New()
	api.RegisterRoutes(r, handler.New(cfg, st))
	r.Start(cfg.ListenAddr)
}
