package model

// RawRecord is a schema-agnostic map holding one Overpass element exactly as
// decoded from the API response
type RawRecord map[string]interface{}

// Road is one row of the destination roads table
type Road struct {
	RoadID   string  `json:"road_id"`
	RoadName string  `json:"road_name"`
	RoadType string  `json:"road_type"`
	GeomWKT  *string `json:"geom_wkt"` // WKT LINESTRING, nil when geometry is absent or unusable
}

// RunSummary reports the outcome of one completed sync run
type RunSummary struct {
	RunID       string `json:"run_id"`
	City        string `json:"city"`
	Fetched     int    `json:"fetched"`
	Transformed int    `json:"transformed"`
	Skipped     int    `json:"skipped"`
	Loaded      int    `json:"loaded"`
	DurationMS  int64  `json:"duration_ms"`
}

// Run statuses persisted in the tracking store. They mirror the pipeline
// states: a run moves pending → extracting → transforming → loading → done,
// or to failed from any non-done state.
const (
	StatusPending      = "pending"
	StatusExtracting   = "extracting"
	StatusTransforming = "transforming"
	StatusLoading      = "loading"
	StatusDone         = "done"
	StatusFailed       = "failed"
)
