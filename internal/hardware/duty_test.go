package hardware

import (
	"math"
	"testing"
)

func TestToPercent_Endpoints(t *testing.T) {
	if got := ToPercent(0, 255); got != 0.0 {
		t.Errorf("ToPercent(0, 255) = %v, want 0.0", got)
	}
	if got := ToPercent(255, 255); got != 100.0 {
		t.Errorf("ToPercent(255, 255) = %v, want 100.0", got)
	}
	if got := ToPercent(0, 100); got != 0.0 {
		t.Errorf("ToPercent(0, 100) = %v, want 0.0", got)
	}
	if got := ToPercent(100, 100); got != 100.0 {
		t.Errorf("ToPercent(100, 100) = %v, want 100.0", got)
	}
}

func TestToPercent_Linear(t *testing.T) {
	tests := []struct {
		value, max int
		want       float64
	}{
		{128, 255, 50.19607843137255},
		{64, 255, 25.098039215686274},
		{50, 100, 50.0},
		{1, 255, 0.39215686274509803},
	}

	for _, tt := range tests {
		got := ToPercent(tt.value, tt.max)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ToPercent(%d, %d) = %v, want %v", tt.value, tt.max, got, tt.want)
		}
	}
}

func TestToPercent_ClampsOutOfRange(t *testing.T) {
	if got := ToPercent(-10, 255); got != 0.0 {
		t.Errorf("ToPercent(-10, 255) = %v, want 0.0 (clamped)", got)
	}
	if got := ToPercent(9999, 255); got != 100.0 {
		t.Errorf("ToPercent(9999, 255) = %v, want 100.0 (clamped)", got)
	}
	if got := ToPercent(5, 0); got != 0.0 {
		t.Errorf("ToPercent(5, 0) = %v, want 0.0 (degenerate scale)", got)
	}
}

func TestToPercent_Monotonic(t *testing.T) {
	prev := -1.0
	for v := 0; v <= 255; v++ {
		got := ToPercent(v, 255)
		if got < prev {
			t.Fatalf("ToPercent not monotonic at %d: %v < %v", v, got, prev)
		}
		if got < 0 || got > 100 {
			t.Fatalf("ToPercent(%d, 255) = %v out of range", v, got)
		}
		prev = got
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
