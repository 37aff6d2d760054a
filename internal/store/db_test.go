package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Re-opening the same file re-runs the conditional DDL without error.
	st, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestRunLifecycle(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.CreateRun("run-1", "Helsinki"))
	require.NoError(t, st.UpdateRunStatus("run-1", model.StatusExtracting))
	require.NoError(t, st.UpdateRunStatus("run-1", model.StatusDone))
	require.NoError(t, st.SaveRunSummary("run-1", model.RunSummary{
		Fetched: 10, Transformed: 9, Skipped: 1, Loaded: 9, DurationMS: 1234,
	}))

	run, err := st.GetRun("run-1")
	require.NoError(t, err)
	require.Equal(t, model.StatusDone, run["status"])
	require.Equal(t, "Helsinki", run["city"])
	require.Equal(t, 10, run["fetched"])
	require.Equal(t, 9, run["loaded"])
	require.Equal(t, 1, run["skipped"])
}

func TestListRunsNewestFirst(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.CreateRun("run-old", "Helsinki"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, st.CreateRun("run-new", "Espoo"))

	runs, err := st.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-new", runs[0]["id"])
	require.Equal(t, "run-old", runs[1]["id"])
}

func TestRunErrorsAndLogs(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.CreateRun("run-1", "Helsinki"))

	require.NoError(t, st.SaveRunError("run-1", errors.New("boom")))
	require.NoError(t, st.SaveRunError("run-1", nil), "nil error is a no-op")
	require.NoError(t, st.SaveRunLog("run-1", "transform", "warning", "skipped 2 record(s)"))

	errs, err := st.GetRunErrors("run-1")
	require.NoError(t, err)
	require.Len(t, errs, 1)
	require.Equal(t, "boom", errs[0]["message"])

	logs, err := st.GetRunLogs("run-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "transform", logs[0]["stage"])
	require.Equal(t, "warning", logs[0]["level"])
}

func TestStageProgressOrder(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.CreateRun("run-1", "Helsinki"))

	now := time.Now()
	for _, stage := range []string{"extract", "transform", "load"} {
		require.NoError(t, st.SaveStageProgress("run-1", stage, now, now.Add(time.Second), 5))
	}

	stages, err := st.GetRunStages("run-1")
	require.NoError(t, err)
	require.Len(t, stages, 3)
	require.Equal(t, "extract", stages[0]["stage"])
	require.Equal(t, "transform", stages[1]["stage"])
	require.Equal(t, "load", stages[2]["stage"])
	require.Equal(t, 5, stages[0]["records"])
}
