package hardware

import (
	"time"

	"github.com/nerrad567/glowdeck/internal/infrastructure/config"
)

// Logger defines the logging interface used during driver selection.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Probe is a single candidate in the driver selection order.
type Probe struct {
	// Name identifies the candidate in logs and probe results.
	Name string

	// Open attempts to acquire the driver. A returned error means the
	// candidate is unavailable and selection falls through to the next.
	Open func() (Driver, error)
}

// ProbeResult records the outcome of one probe for status reporting.
type ProbeResult struct {
	Name  string
	State ProbeState
	Err   error
}

// Selection is the outcome of driver selection: the active driver plus
// metadata about how it was chosen. The driver is immutable for the
// remainder of the process.
type Selection struct {
	Driver Driver

	// HardwareBacked is false when the dry-run driver is active.
	HardwareBacked bool

	// Probes holds the per-candidate results in probe order.
	Probes []ProbeResult
}

// Select runs the driver probe chain exactly once and returns the first
// driver whose probe succeeds.
//
// The order is fixed: hardware PWM, then software PWM, then dry-run. The
// dry-run probe cannot fail, so Select always returns an active driver;
// on machines without GPIO the service degrades transparently. Each probe
// failure is logged with its cause before falling through.
//
// Parameters:
//   - cfg: Hardware configuration (pin, frequencies, dry-run override)
//   - logger: Logger for probe outcomes (nil for silent selection)
//
// Returns:
//   - *Selection: Active driver, never nil
func Select(cfg config.HardwareConfig, logger Logger) *Selection {
	if logger == nil {
		logger = noopLogger{}
	}

	probes := []Probe{
		{
			Name: "pwm",
			Open: func() (Driver, error) {
				return NewPWMDriver(cfg.Pin, cfg.PWMFrequency)
			},
		},
		{
			Name: "soft-pwm",
			Open: func() (Driver, error) {
				period := time.Duration(cfg.SoftPWMPeriodMs) * time.Millisecond
				return NewSoftPWMDriver(cfg.Pin, period)
			},
		},
		{
			Name: "dry-run",
			Open: func() (Driver, error) {
				return NewDryRunDriver(), nil
			},
		},
	}

	if cfg.DryRun {
		logger.Info("hardware probes skipped, dry-run forced by config")
		probes = probes[len(probes)-1:]
	}

	return selectFrom(probes, logger)
}

// selectFrom probes candidates in order and returns the first success.
// Split from Select so tests can inject failing probes.
func selectFrom(probes []Probe, logger Logger) *Selection {
	sel := &Selection{}

	for i, p := range probes {
		driver, err := p.Open()
		if err != nil {
			logger.Warn("driver probe failed, falling through",
				"driver", p.Name,
				"error", err,
			)
			sel.Probes = append(sel.Probes, ProbeResult{Name: p.Name, State: ProbeFailed, Err: err})
			continue
		}

		logger.Info("driver selected",
			"driver", p.Name,
			"hardware_backed", p.Name != "dry-run",
		)
		sel.Driver = driver
		sel.HardwareBacked = p.Name != "dry-run"
		sel.Probes = append(sel.Probes, ProbeResult{Name: p.Name, State: ProbeActive})

		// Remaining candidates are never probed.
		for _, rest := range probes[i+1:] {
			sel.Probes = append(sel.Probes, ProbeResult{Name: rest.Name, State: ProbeSkipped})
		}
		return sel
	}

	// Unreachable with the standard probe list: the dry-run probe cannot
	// fail. Guard anyway so a caller-supplied list degrades the same way.
	logger.Error("all driver probes failed, forcing dry-run")
	sel.Driver = NewDryRunDriver()
	sel.HardwareBacked = false
	sel.Probes = append(sel.Probes, ProbeResult{Name: "dry-run", State: ProbeActive})
	return sel
}
