package hardware

import "sync"

// Driver applies a duty-cycle percentage to an LED output.
//
// Implementations must tolerate Apply failures without corrupting their own
// state: a failed write leaves the previous output unchanged and returns an
// error for the caller to log. Shutdown must be idempotent, drive the output
// to 0 and release any underlying handle, and must be safe even when the
// handle was never acquired.
type Driver interface {
	// Name identifies the driver for logs and status reporting.
	Name() string

	// Apply drives the output at the given duty cycle (0.0-100.0).
	Apply(percent float64) error

	// Shutdown drives the output to 0 and releases resources.
	// Safe to call multiple times.
	Shutdown() error
}

// ProbeState describes the outcome of a driver probe during selection.
type ProbeState string

const (
	// ProbeActive means the driver probe succeeded and the driver was selected.
	ProbeActive ProbeState = "active"

	// ProbeFailed means the driver probe failed and selection fell through.
	ProbeFailed ProbeState = "failed"

	// ProbeSkipped means the driver was never probed because an earlier
	// probe already succeeded.
	ProbeSkipped ProbeState = "skipped"
)

// DryRunDriver is the terminal fallback: it accepts every duty cycle and
// performs no I/O. The last applied value is retained for inspection.
type DryRunDriver struct {
	mu      sync.Mutex
	percent float64
}

// NewDryRunDriver creates a dry-run driver. It never fails.
func NewDryRunDriver() *DryRunDriver {
	return &DryRunDriver{}
}

// Name implements Driver.
func (d *DryRunDriver) Name() string { return "dry-run" }

// Apply records the requested duty cycle and performs no I/O.
func (d *DryRunDriver) Apply(percent float64) error {
	d.mu.Lock()
	d.percent = percent
	d.mu.Unlock()
	return nil
}

// Shutdown resets the recorded duty cycle to 0. Idempotent.
func (d *DryRunDriver) Shutdown() error {
	d.mu.Lock()
	d.percent = 0
	d.mu.Unlock()
	return nil
}

// Percent returns the last applied duty cycle.
func (d *DryRunDriver) Percent() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.percent
}
