// Package hardware provides the LED output abstraction for Glowdeck.
//
// It maps user-facing brightness values to PWM duty cycles and drives them
// through one of three interchangeable drivers:
//
//   - PWMDriver: hardware PWM via periph.io (preferred)
//   - SoftPWMDriver: software-timed PWM on a plain GPIO output
//   - DryRunDriver: no-op driver that only records requested values
//
// Driver selection happens exactly once at startup via Select, which probes
// the drivers in priority order and falls through on failure. The dry-run
// driver always succeeds, so selection itself cannot fail: on machines
// without GPIO the service runs fully functional in dry-run mode.
//
// A hardware write failure after selection is returned to the caller, who is
// expected to log and absorb it. Faulty hardware must never take the service
// down.
//
// Thread Safety: Apply and Shutdown are safe for concurrent use. Shutdown is
// idempotent and always drives the output to 0 before releasing the pin.
package hardware
