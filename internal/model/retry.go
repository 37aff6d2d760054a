package model

import "time"

// RetryPolicy defines retry behavior for the extract stage
type RetryPolicy struct {
	MaxAttempts   int           `json:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
	MaxDelay      time.Duration `json:"max_delay"`
}

// DefaultRetryPolicy matches the extractor defaults: three attempts with a
// doubling delay capped at 30s.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:   3,
	InitialDelay:  2 * time.Second,
	BackoffFactor: 2.0,
	MaxDelay:      30 * time.Second,
}

// Delay returns how long to wait before the given attempt (1-based). The
// first attempt has no delay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := p.InitialDelay
	for i := 2; i < attempt; i++ {
		d = time.Duration(float64(d) * p.BackoffFactor)
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
