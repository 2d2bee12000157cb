package hardware

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// SoftPWMDriver emulates PWM by toggling a plain GPIO output from a
// background goroutine. It is the fallback for pins (or kernels) without
// hardware PWM support. The timing is best-effort: good enough for LED
// dimming, not for servos.
type SoftPWMDriver struct {
	pin    gpio.PinIO
	period time.Duration

	mu      sync.Mutex
	percent float64

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewSoftPWMDriver probes for a plain GPIO output on the named pin and
// starts the software PWM loop at 0% duty.
//
// Parameters:
//   - pinName: periph pin name, e.g. "GPIO18" (BCM numbering)
//   - period: Full PWM period; 10ms gives a flicker-free 100Hz
//
// Returns:
//   - *SoftPWMDriver: Running driver with output low
//   - error: If the host or pin cannot be configured
func NewSoftPWMDriver(pinName string, period time.Duration) (*SoftPWMDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: initialising periph host: %w", ErrProbeFailed, err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("%w: %q", ErrPinNotFound, pinName)
	}

	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%w: configuring %q as output: %w", ErrProbeFailed, pinName, err)
	}

	d := &SoftPWMDriver{
		pin:    pin,
		period: period,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go d.run()

	return d, nil
}

// Name implements Driver.
func (d *SoftPWMDriver) Name() string { return "soft-pwm" }

// Apply updates the duty cycle used by the PWM loop.
// The change takes effect on the next period.
func (d *SoftPWMDriver) Apply(percent float64) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	select {
	case <-d.stop:
		return fmt.Errorf("%w: driver is shut down", ErrApplyFailed)
	default:
	}

	d.percent = percent
	return nil
}

// Shutdown stops the PWM loop, drives the pin low and releases it. Idempotent.
func (d *SoftPWMDriver) Shutdown() error {
	var err error
	d.once.Do(func() {
		close(d.stop)
		<-d.done

		if outErr := d.pin.Out(gpio.Low); outErr != nil {
			err = fmt.Errorf("driving pin low: %w", outErr)
		}
		if haltErr := d.pin.Halt(); haltErr != nil && err == nil {
			err = fmt.Errorf("releasing pin: %w", haltErr)
		}
	})
	return err
}

// run is the software PWM loop. Each period the pin is held high for
// percent/100 of the period, then low for the remainder. 0% and 100%
// hold the level without toggling to avoid needless pin writes.
func (d *SoftPWMDriver) run() {
	defer close(d.done)

	for {
		select {
		case <-d.stop:
			return
		default:
		}

		d.mu.Lock()
		percent := d.percent
		d.mu.Unlock()

		onTime := time.Duration(percent / 100 * float64(d.period))
		offTime := d.period - onTime

		if onTime > 0 {
			// Write errors are deliberately dropped here: a transient
			// failure mid-cycle corrects itself on the next period, and
			// logging at 100Hz would flood the log.
			_ = d.pin.Out(gpio.High)
			if !d.sleep(onTime) {
				return
			}
		}
		if offTime > 0 {
			_ = d.pin.Out(gpio.Low)
			if !d.sleep(offTime) {
				return
			}
		}
	}
}

// sleep waits for the given duration unless the driver is stopped first.
// Returns false when the driver is stopping.
func (d *SoftPWMDriver) sleep(dur time.Duration) bool {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-d.stop:
		return false
	case <-t.C:
		return true
	}
}
