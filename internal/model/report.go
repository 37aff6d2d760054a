package model

// RecordResult is the per-record outcome of the transform stage. Either Road
// is set, or Err explains why the record was dropped.
type RecordResult struct {
	Road *Road
	Err  error
}

// TransformReport aggregates per-record results instead of swallowing
// failures: every input record is accounted for, good or bad.
type TransformReport struct {
	Results []RecordResult
}

// Roads returns the successfully transformed records, in input order.
func (r *TransformReport) Roads() []Road {
	roads := make([]Road, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Road != nil {
			roads = append(roads, *res.Road)
		}
	}
	return roads
}

// Skipped returns how many records were dropped.
func (r *TransformReport) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Road == nil {
			n++
		}
	}
	return n
}

// SkipReasons groups dropped records by their error message.
func (r *TransformReport) SkipReasons() map[string]int {
	reasons := make(map[string]int)
	for _, res := range r.Results {
		if res.Road == nil && res.Err != nil {
			reasons[res.Err.Error()]++
		}
	}
	return reasons
}
