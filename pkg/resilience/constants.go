package resilience

import "time"

// Circuit breaker default configuration values
const (
	DefaultMaxRequests           uint32        = 3
	DefaultInterval              time.Duration = 60 * time.Second
	DefaultTimeout               time.Duration = 30 * time.Second
	DefaultFailureThreshold      uint32        = 5
	DefaultFailureRatioThreshold float64       = 0.5
	DefaultMinRequestsToTrip     uint32        = 10
)

// Retry default configuration values.
// Delays run 1s, 2s between the three attempts.
const (
	DefaultRetryMaxAttempts   int           = 3
	DefaultRetryInitialDelay  time.Duration = 1 * time.Second
	DefaultRetryMaxDelay      time.Duration = 8 * time.Second
	DefaultRetryBackoffFactor float64       = 2.0
)
