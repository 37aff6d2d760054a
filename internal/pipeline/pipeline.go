package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/config"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/model"
)

// ------------------- Pipeline Runner -------------------

// Fetcher produces the raw record collection for a run.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.RawRecord, error)
}

// Sink persists the transformed records and reports how many rows landed.
type Sink interface {
	Load(ctx context.Context, roads []model.Road) (int, error)
}

// Tracker mirrors run progress into the tracking store. Tracking is
// observational: a Tracker error never fails the sync.
type Tracker interface {
	UpdateRunStatus(runID, status string) error
	SaveStageProgress(runID, stage string, startedAt, finishedAt time.Time, records int) error
	SaveRunLog(runID, stage, level, message string) error
	SaveRunError(runID string, runErr error) error
	SaveRunSummary(runID string, summary model.RunSummary) error
}

// Runner sequences extract → transform → load for one invocation. Stages run
// strictly in order; the first stage error moves the run to failed and aborts
// with a non-nil error.
type Runner struct {
	Fetcher Fetcher
	Sink    Sink
	Tracker Tracker // optional
	City    string
}

// NewRunner wires the standard Overpass extractor and Postgres loader from
// config. An empty city falls back to the configured default.
func NewRunner(cfg *config.Config, tracker Tracker, city string) *Runner {
	if city == "" {
		city = cfg.CityName
	}
	policy := model.DefaultRetryPolicy
	policy.MaxAttempts = cfg.MaxAttempts
	policy.InitialDelay = cfg.RetryDelay
	return &Runner{
		Fetcher: NewExtractor(cfg.OverpassURL, BuildQuery(city), cfg.HTTPTimeout, policy),
		Sink:    NewLoader(cfg.ConnString()),
		Tracker: tracker,
		City:    city,
	}
}

// Run executes the pipeline once and returns the run summary on success.
func (r *Runner) Run(ctx context.Context, runID string) (*model.RunSummary, error) {
	start := time.Now()
	fmt.Printf("🚀 Starting sync run %s (city: %s)\n", runID, r.City)

	// --- EXTRACT ---
	r.setStatus(runID, model.StatusExtracting)
	stageStart := time.Now()
	records, err := r.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, r.fail(runID, "extract", err)
	}
	r.endStage(runID, "extract", stageStart, len(records))
	fmt.Printf("🌐 Extract complete: %d raw records\n", len(records))

	// --- TRANSFORM ---
	r.setStatus(runID, model.StatusTransforming)
	stageStart = time.Now()
	report := Transform(records)
	roads := report.Roads()
	r.endStage(runID, "transform", stageStart, len(roads))
	for reason, count := range report.SkipReasons() {
		msg := fmt.Sprintf("skipped %d record(s): %s", count, reason)
		fmt.Printf("⚠️ Transform: %s\n", msg)
		r.log(runID, "transform", "warning", msg)
	}
	fmt.Printf("🔄 Transform complete: %d roads, %d skipped\n", len(roads), report.Skipped())

	// --- LOAD ---
	r.setStatus(runID, model.StatusLoading)
	stageStart = time.Now()
	loaded, err := r.Sink.Load(ctx, roads)
	if err != nil {
		return nil, r.fail(runID, "load", err)
	}
	r.endStage(runID, "load", stageStart, loaded)
	fmt.Printf("💾 Load complete: %d rows inserted\n", loaded)

	summary := &model.RunSummary{
		RunID:       runID,
		City:        r.City,
		Fetched:     len(records),
		Transformed: len(roads),
		Skipped:     report.Skipped(),
		Loaded:      loaded,
		DurationMS:  time.Since(start).Milliseconds(),
	}
	if r.Tracker != nil {
		r.track(r.Tracker.SaveRunSummary(runID, *summary))
	}
	r.setStatus(runID, model.StatusDone)

	fmt.Printf("🏁 Sync run %s completed in %v\n", runID, time.Since(start))
	return summary, nil
}

// fail records the terminal failed state and passes the stage error through.
func (r *Runner) fail(runID, stage string, err error) error {
	fmt.Printf("❌ Stage %s failed for run %s: %v\n", stage, runID, err)
	if r.Tracker != nil {
		r.track(r.Tracker.SaveRunError(runID, err))
		r.track(r.Tracker.UpdateRunStatus(runID, model.StatusFailed))
	}
	return err
}

func (r *Runner) setStatus(runID, status string) {
	if r.Tracker != nil {
		r.track(r.Tracker.UpdateRunStatus(runID, status))
	}
}

func (r *Runner) endStage(runID, stage string, startedAt time.Time, records int) {
	if r.Tracker != nil {
		r.track(r.Tracker.SaveStageProgress(runID, stage, startedAt, time.Now(), records))
	}
}

func (r *Runner) log(runID, stage, level, message string) {
	if r.Tracker != nil {
		r.track(r.Tracker.SaveRunLog(runID, stage, level, message))
	}
}

// track swallows tracking-store errors so observability never breaks a run.
func (r *Runner) track(err error) {
	if err != nil {
		fmt.Printf("⚠️ Tracking store error (ignored): %v\n", err)
	}
}
