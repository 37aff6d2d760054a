package pipeline

import "fmt"

// FetchError is returned when the extract stage gives up: either retries were
// exhausted on a transient failure, or the failure was terminal to begin
// with. It is fatal for the run.
type FetchError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// TransformError marks a single record that could not be mapped to the roads
// schema. It is recovered locally: the record is dropped and the run goes on.
type TransformError struct {
	Field  string
	Reason string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform: field %s: %s", e.Field, e.Reason)
}

// LoadError is returned when the destination database rejects the connection
// or any statement. The whole batch is rolled back; fatal for the run.
type LoadError struct {
	Op    string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load: %s: %v", e.Op, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }
