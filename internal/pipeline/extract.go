package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/model"
)

// ------------------- Extraction -------------------

// Extractor performs the HTTP GET against the Overpass interpreter and
// decodes the element list. It is stateless between Fetch calls; transient
// failures are retried per Policy, terminal failures are not.
type Extractor struct {
	URL    string
	Query  string
	Policy model.RetryPolicy
	Client *http.Client
}

// NewExtractor builds an extractor for the given interpreter endpoint, query
// and timeout.
func NewExtractor(endpoint, query string, timeout time.Duration, policy model.RetryPolicy) *Extractor {
	return &Extractor{
		URL:    endpoint,
		Query:  query,
		Policy: policy,
		Client: &http.Client{Timeout: timeout},
	}
}

// BuildQuery returns the OverpassQL query selecting all highway ways for a
// named area.
func BuildQuery(city string) string {
	return fmt.Sprintf(`area["name"=%q]->.a;
(
  way(area.a)[highway];
);
out geom;`, city)
}

// overpassResponse is the envelope of an Overpass JSON payload; everything
// but the element list is ignored.
type overpassResponse struct {
	Elements []model.RawRecord `json:"elements"`
}

// Fetch performs the GET with bounded retries and returns the decoded raw
// records. Network errors, timeouts and 408/429/5xx statuses are retried up
// to Policy.MaxAttempts with backoff; any other 4xx and a malformed body are
// terminal. On failure the last cause is wrapped in a *FetchError.
func (e *Extractor) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	requestURL := e.URL + "?data=" + url.QueryEscape(e.Query)

	var lastErr error
	for attempt := 1; attempt <= e.Policy.MaxAttempts; attempt++ {
		if delay := e.Policy.Delay(attempt); delay > 0 {
			fmt.Printf("⏳ Retrying in %s (attempt %d/%d)\n", delay, attempt, e.Policy.MaxAttempts)
			select {
			case <-ctx.Done():
				return nil, &FetchError{URL: e.URL, Attempts: attempt - 1, Cause: ctx.Err()}
			case <-time.After(delay):
			}
		}

		records, retryable, err := e.fetchOnce(ctx, requestURL)
		if err == nil {
			fmt.Printf("🌐 Fetched %d elements from %s\n", len(records), e.URL)
			return records, nil
		}
		if !retryable {
			return nil, &FetchError{URL: e.URL, Attempts: attempt, Cause: err}
		}
		lastErr = err
		fmt.Printf("❌ Fetch attempt %d/%d failed: %v\n", attempt, e.Policy.MaxAttempts, err)
	}

	return nil, &FetchError{URL: e.URL, Attempts: e.Policy.MaxAttempts, Cause: lastErr}
}

// fetchOnce performs a single GET. retryable reports whether a failure is
// worth another attempt.
func (e *Extractor) fetchOnce(ctx context.Context, requestURL string) (records []model.RawRecord, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		// Covers timeouts, connection resets and DNS failures.
		return nil, true, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		statusErr := fmt.Errorf("unexpected status %s: %s", resp.Status, string(snippet))
		return nil, retryableStatus(resp.StatusCode), statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	var payload overpassResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		// A body that is not valid JSON will not improve on retry.
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	return payload.Elements, false, nil
}

// retryableStatus reports whether an HTTP status indicates a transient
// server-side condition.
func retryableStatus(code int) bool {
	switch {
	case code >= 500:
		return true
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}
