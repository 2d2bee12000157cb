package hardware

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PWMDriver drives an LED through the chip's hardware PWM via periph.io.
// This is the preferred driver: flicker-free output with no CPU cost.
type PWMDriver struct {
	pin  gpio.PinIO
	freq physic.Frequency

	mu       sync.Mutex
	shutdown bool
	once     sync.Once
}

// NewPWMDriver probes for hardware PWM on the named pin.
//
// The probe initialises the periph host, resolves the pin by name and
// confirms the handle works with a 0% apply. Any failure releases the
// partially-acquired pin and returns an error so selection can fall
// through to the next driver.
//
// Parameters:
//   - pinName: periph pin name, e.g. "GPIO18" (BCM numbering)
//   - frequencyHz: PWM frequency in Hz
//
// Returns:
//   - *PWMDriver: Working driver with output at 0%
//   - error: If the host, pin or confirmation write fails
func NewPWMDriver(pinName string, frequencyHz int) (*PWMDriver, error) {
	// host.Init is safe to call multiple times; later calls are no-ops.
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: initialising periph host: %w", ErrProbeFailed, err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("%w: %q", ErrPinNotFound, pinName)
	}

	d := &PWMDriver{
		pin:  pin,
		freq: physic.Frequency(frequencyHz) * physic.Hertz,
	}

	// Confirm the handle actually works before committing to it.
	// Some pins resolve but reject PWM (wrong pin, missing kernel support).
	if err := d.pin.PWM(0, d.freq); err != nil {
		_ = pin.Halt()
		return nil, fmt.Errorf("%w: confirming PWM on %q: %w", ErrProbeFailed, pinName, err)
	}

	return d, nil
}

// Name implements Driver.
func (d *PWMDriver) Name() string { return "pwm" }

// Apply sets the hardware PWM duty cycle.
//
// A failed write leaves the previous output unchanged; the error is
// returned for the caller to log and absorb.
func (d *PWMDriver) Apply(percent float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.shutdown {
		return fmt.Errorf("%w: driver is shut down", ErrApplyFailed)
	}

	if err := d.pin.PWM(dutyFromPercent(percent), d.freq); err != nil {
		return fmt.Errorf("%w: %w", ErrApplyFailed, err)
	}
	return nil
}

// Shutdown drives the output to 0 and releases the pin. Idempotent.
func (d *PWMDriver) Shutdown() error {
	var err error
	d.once.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown = true

		// Zero the output before releasing; an LED left partially lit
		// after process exit reads as a hung service.
		if pwmErr := d.pin.PWM(0, d.freq); pwmErr != nil {
			err = fmt.Errorf("zeroing PWM output: %w", pwmErr)
		}
		if haltErr := d.pin.Halt(); haltErr != nil && err == nil {
			err = fmt.Errorf("releasing pin: %w", haltErr)
		}
	})
	return err
}

// dutyFromPercent converts a duty-cycle percentage to a periph gpio.Duty.
func dutyFromPercent(percent float64) gpio.Duty {
	if percent <= 0 {
		return 0
	}
	if percent >= 100 {
		return gpio.DutyMax
	}
	return gpio.Duty(percent / 100 * float64(gpio.DutyMax))
}
