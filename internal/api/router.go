package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/api/handler"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/pkg/router"
)

// RegisterRoutes mounts the sync API and the swagger UI.
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/syncs", h.CreateSync)
	r.GET("/api/v1/syncs", h.ListSyncs)
	// More specific routes first
	r.GET("/api/v1/syncs/*/errors", h.GetSyncErrors)
	r.GET("/api/v1/syncs/*/progress", h.GetSyncProgress)
	r.GET("/api/v1/syncs/*/logs", h.GetSyncLogs)
	// Generic run route last
	r.GET("/api/v1/syncs/*", h.GetSync)

	r.Handle("/swagger/", httpSwagger.WrapHandler)
}
