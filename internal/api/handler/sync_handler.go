package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/config"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/model"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/pipeline"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/store"
)

// Handler serves the sync-run API on top of the tracking store. Runs are
// started asynchronously; their progress is observable through the store.
type Handler struct {
	Cfg   *config.Config
	Store *store.Store
}

func New(cfg *config.Config, st *store.Store) *Handler {
	return &Handler{Cfg: cfg, Store: st}
}

// createSyncRequest is the optional body of POST /syncs.
type createSyncRequest struct {
	City string `json:"city"`
}

// CreateSync starts a new sync run
// @Summary Start a sync run
// @Description Start an asynchronous extract-transform-load run for a city's road network
// @Tags syncs
// @Accept json
// @Produce json
// @Param sync body createSyncRequest false "Run options"
// @Success 200 {object} map[string]interface{} "Run accepted"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /syncs [post]
func (h *Handler) CreateSync(w http.ResponseWriter, r *http.Request) {
	var req createSyncRequest
	if r.Body != nil {
		// Body is optional; a decode failure just means defaults.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	city := req.City
	if city == "" {
		city = h.Cfg.CityName
	}

	runID := uuid.New().String()
	if err := h.Store.CreateRun(runID, city); err != nil {
		http.Error(w, "Failed to create run", http.StatusInternalServerError)
		return
	}

	runner := pipeline.NewRunner(h.Cfg, h.Store, city)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		// Failures are recorded in the tracking store by the runner.
		_, _ = runner.Run(ctx, runID)
	}()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":   "Sync run started",
		"runID":     runID,
		"city":      city,
		"status":    model.StatusPending,
		"createdAt": time.Now().UTC(),
	})
}

// ListSyncs lists all sync runs
// @Summary List sync runs
// @Description Get all sync runs with their current status, newest first
// @Tags syncs
// @Produce json
// @Success 200 {array} map[string]interface{} "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /syncs [get]
func (h *Handler) ListSyncs(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// GetSync returns one sync run
// @Summary Get a sync run
// @Description Retrieve status and counters of one sync run
// @Tags syncs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run details"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /syncs/{id} [get]
func (h *Handler) GetSync(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	run, err := h.Store.GetRun(runID)
	if err == sql.ErrNoRows {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

// GetSyncErrors returns the errors recorded for a run
// @Summary Get run errors
// @Tags syncs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{} "Run errors"
// @Router /syncs/{id}/errors [get]
func (h *Handler) GetSyncErrors(w http.ResponseWriter, r *http.Request) {
	h.writeRunDetail(w, r, h.Store.GetRunErrors)
}

// GetSyncProgress returns per-stage progress for a run
// @Summary Get run stage progress
// @Tags syncs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{} "Stage progress"
// @Router /syncs/{id}/progress [get]
func (h *Handler) GetSyncProgress(w http.ResponseWriter, r *http.Request) {
	h.writeRunDetail(w, r, h.Store.GetRunStages)
}

// GetSyncLogs returns the structured logs recorded for a run
// @Summary Get run logs
// @Tags syncs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{} "Run logs"
// @Router /syncs/{id}/logs [get]
func (h *Handler) GetSyncLogs(w http.ResponseWriter, r *http.Request) {
	h.writeRunDetail(w, r, h.Store.GetRunLogs)
}

func (h *Handler) writeRunDetail(w http.ResponseWriter, r *http.Request, fetch func(string) ([]map[string]interface{}, error)) {
	runID, ok := runIDFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	items, err := fetch(runID)
	if err != nil {
		http.Error(w, "Failed to fetch run detail", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []map[string]interface{}{}
	}
	writeJSON(w, items)
}

// runIDFromPath extracts the run ID from /api/v1/syncs/{id}[/...].
func runIDFromPath(path string) (string, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	// api / v1 / syncs / {id} / ...
	if len(segments) < 4 || segments[3] == "" {
		return "", false
	}
	return segments[3], true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
