package telemetry

import "errors"

// Domain-specific errors for telemetry operations.
var (
	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("telemetry: connection failed")

	// ErrNotHealthy is returned when the server responds but reports unhealthy.
	ErrNotHealthy = errors.New("telemetry: server not healthy")
)
