package hardware

import "errors"

// Domain errors for the hardware package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, hardware.ErrApplyFailed) {
//	    // log and continue; hardware failures are non-fatal
//	}
var (
	// ErrPinNotFound is returned when the configured GPIO pin does not exist.
	ErrPinNotFound = errors.New("hardware: pin not found")

	// ErrProbeFailed is returned when a driver probe cannot acquire its output.
	ErrProbeFailed = errors.New("hardware: probe failed")

	// ErrApplyFailed is returned when a duty-cycle write to the output fails.
	ErrApplyFailed = errors.New("hardware: apply failed")
)
