package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/model"
)

// memorySink records what the loader would have written.
type memorySink struct {
	roads  []model.Road
	err    error
	called int
}

func (m *memorySink) Load(ctx context.Context, roads []model.Road) (int, error) {
	m.called++
	if m.err != nil {
		return 0, m.err
	}
	m.roads = append(m.roads, roads...)
	return len(roads), nil
}

// memoryTracker records every state transition in order.
type memoryTracker struct {
	statuses []string
	stages   []string
	errs     []error
	summary  *model.RunSummary
}

func (m *memoryTracker) UpdateRunStatus(runID, status string) error {
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *memoryTracker) SaveStageProgress(runID, stage string, startedAt, finishedAt time.Time, records int) error {
	m.stages = append(m.stages, stage)
	return nil
}

func (m *memoryTracker) SaveRunLog(runID, stage, level, message string) error { return nil }

func (m *memoryTracker) SaveRunError(runID string, runErr error) error {
	m.errs = append(m.errs, runErr)
	return nil
}

func (m *memoryTracker) SaveRunSummary(runID string, summary model.RunSummary) error {
	m.summary = &summary
	return nil
}

func TestRunEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements": [
			{"id": "1", "tags": {"name": "Main Street", "highway": "residential"},
			 "geometry": [{"lat": "10.5", "lon": "20.1"}]}
		]}`))
	}))
	defer srv.Close()

	sink := &memorySink{}
	tracker := &memoryTracker{}
	runner := &Runner{
		Fetcher: NewExtractor(srv.URL, "q", time.Second, testPolicy(3)),
		Sink:    sink,
		Tracker: tracker,
		City:    "Testville",
	}

	summary, err := runner.Run(context.Background(), "run-1")
	require.NoError(t, err)

	require.Len(t, sink.roads, 1)
	require.Equal(t, "1", sink.roads[0].RoadID)
	require.NotNil(t, sink.roads[0].GeomWKT)
	require.Equal(t, "LINESTRING(20.1 10.5)", *sink.roads[0].GeomWKT)

	require.Equal(t, 1, summary.Fetched)
	require.Equal(t, 1, summary.Transformed)
	require.Zero(t, summary.Skipped)
	require.Equal(t, 1, summary.Loaded)

	require.Equal(t,
		[]string{model.StatusExtracting, model.StatusTransforming, model.StatusLoading, model.StatusDone},
		tracker.statuses)
	require.Equal(t, []string{"extract", "transform", "load"}, tracker.stages)
	require.NotNil(t, tracker.summary)
}

func TestRunFailsWhenAPIKeepsReturning500(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := &memorySink{}
	tracker := &memoryTracker{}
	runner := &Runner{
		Fetcher: NewExtractor(srv.URL, "q", time.Second, testPolicy(3)),
		Sink:    sink,
		Tracker: tracker,
		City:    "Testville",
	}

	_, err := runner.Run(context.Background(), "run-2")
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, 3, calls, "fails after the configured retry count")
	require.Zero(t, sink.called, "no rows reach the loader on a fetch failure")
	require.Equal(t, model.StatusFailed, tracker.statuses[len(tracker.statuses)-1])
	require.Len(t, tracker.errs, 1)
}

func TestRunFailsOnLoadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements": [{"id": 9}]}`))
	}))
	defer srv.Close()

	loadErr := &LoadError{Op: "connect", Cause: errors.New("connection refused")}
	tracker := &memoryTracker{}
	runner := &Runner{
		Fetcher: NewExtractor(srv.URL, "q", time.Second, testPolicy(1)),
		Sink:    &memorySink{err: loadErr},
		Tracker: tracker,
		City:    "Testville",
	}

	_, err := runner.Run(context.Background(), "run-3")
	require.ErrorIs(t, err, loadErr)
	require.Equal(t, model.StatusFailed, tracker.statuses[len(tracker.statuses)-1])
}

func TestRunSkipsMalformedRecordsAndLoadsTheRest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements": [
			{"id": 1, "tags": {"highway": "primary"}},
			{"tags": {"name": "No ID Road"}},
			{"id": 3}
		]}`))
	}))
	defer srv.Close()

	sink := &memorySink{}
	runner := &Runner{
		Fetcher: NewExtractor(srv.URL, "q", time.Second, testPolicy(1)),
		Sink:    sink,
		Tracker: &memoryTracker{},
		City:    "Testville",
	}

	summary, err := runner.Run(context.Background(), "run-4")
	require.NoError(t, err)
	require.Equal(t, 3, summary.Fetched)
	require.Equal(t, 2, summary.Transformed)
	require.Equal(t, 1, summary.Skipped)
	require.Len(t, sink.roads, 2)
}
