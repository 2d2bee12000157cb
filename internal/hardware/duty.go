package hardware

// ToPercent maps a bounded control value onto a duty-cycle percentage.
//
// The value is clamped to [0, max] before scaling, so out-of-range input
// never produces an out-of-range duty cycle. The mapping is linear:
// 0 maps to 0.0, max maps to 100.0.
//
// Parameters:
//   - value: User-facing control value (e.g. brightness 0-255, volume 0-100)
//   - max: Upper bound of the control scale (must be positive)
//
// Returns:
//   - float64: Duty cycle in [0.0, 100.0]
func ToPercent(value, max int) float64 {
	if max <= 0 {
		return 0
	}
	value = Clamp(value, 0, max)
	return float64(value) / float64(max) * 100
}

// Clamp bounds v to the closed interval [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
