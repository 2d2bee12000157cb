package hardware

import (
	"errors"
	"testing"

	"github.com/nerrad567/glowdeck/internal/infrastructure/config"
)

// fakeDriver is a controllable Driver for selection tests.
type fakeDriver struct {
	name      string
	applied   []float64
	applyErr  error
	shutdowns int
}

func (f *fakeDriver) Name() string { return f.name }

func (f *fakeDriver) Apply(percent float64) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, percent)
	return nil
}

func (f *fakeDriver) Shutdown() error {
	f.shutdowns++
	return nil
}

func failingProbe(name string) Probe {
	return Probe{
		Name: name,
		Open: func() (Driver, error) {
			return nil, errors.New("no such device")
		},
	}
}

func workingProbe(name string, d Driver) Probe {
	return Probe{
		Name: name,
		Open: func() (Driver, error) {
			return d, nil
		},
	}
}

func TestSelectFrom_FirstSuccessWins(t *testing.T) {
	primary := &fakeDriver{name: "pwm"}
	fallback := &fakeDriver{name: "soft-pwm"}

	sel := selectFrom([]Probe{
		workingProbe("pwm", primary),
		workingProbe("soft-pwm", fallback),
	}, nil)

	if sel.Driver != primary {
		t.Errorf("selected %q, want primary", sel.Driver.Name())
	}
	if !sel.HardwareBacked {
		t.Error("HardwareBacked = false, want true for pwm")
	}
	if sel.Probes[0].State != ProbeActive {
		t.Errorf("probe[0].State = %v, want active", sel.Probes[0].State)
	}
	if sel.Probes[1].State != ProbeSkipped {
		t.Errorf("probe[1].State = %v, want skipped", sel.Probes[1].State)
	}
}

func TestSelectFrom_FallsThroughOnFailure(t *testing.T) {
	fallback := &fakeDriver{name: "soft-pwm"}

	sel := selectFrom([]Probe{
		failingProbe("pwm"),
		workingProbe("soft-pwm", fallback),
	}, nil)

	if sel.Driver != fallback {
		t.Errorf("selected %q, want fallback", sel.Driver.Name())
	}
	if sel.Probes[0].State != ProbeFailed {
		t.Errorf("probe[0].State = %v, want failed", sel.Probes[0].State)
	}
	if sel.Probes[0].Err == nil {
		t.Error("failed probe should record its cause")
	}
}

func TestSelectFrom_AllFailuresEndInDryRun(t *testing.T) {
	sel := selectFrom([]Probe{
		failingProbe("pwm"),
		failingProbe("soft-pwm"),
		{Name: "dry-run", Open: func() (Driver, error) { return NewDryRunDriver(), nil }},
	}, nil)

	if sel.Driver == nil {
		t.Fatal("selection must always produce a driver")
	}
	if sel.Driver.Name() != "dry-run" {
		t.Errorf("selected %q, want dry-run", sel.Driver.Name())
	}
	if sel.HardwareBacked {
		t.Error("HardwareBacked = true, want false for dry-run")
	}
}

func TestSelectFrom_EmptyProbeListStillTerminates(t *testing.T) {
	sel := selectFrom(nil, nil)
	if sel.Driver == nil || sel.Driver.Name() != "dry-run" {
		t.Fatal("empty probe list must degrade to dry-run")
	}
}

func TestSelect_DryRunForced(t *testing.T) {
	sel := Select(config.HardwareConfig{
		Pin:             "GPIO18",
		PWMFrequency:    800,
		SoftPWMPeriodMs: 10,
		DryRun:          true,
	}, nil)

	if sel.Driver.Name() != "dry-run" {
		t.Errorf("selected %q, want dry-run when forced", sel.Driver.Name())
	}
	if sel.HardwareBacked {
		t.Error("forced dry-run must not report hardware backing")
	}
	// Hardware probes must not appear in the results at all.
	for _, p := range sel.Probes {
		if p.Name != "dry-run" {
			t.Errorf("unexpected probe %q with dry-run forced", p.Name)
		}
	}
}

func TestDryRunDriver_ApplyRecordsPercent(t *testing.T) {
	d := NewDryRunDriver()
	if err := d.Apply(50.5); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := d.Percent(); got != 50.5 {
		t.Errorf("Percent() = %v, want 50.5", got)
	}
}

func TestDryRunDriver_ShutdownIdempotent(t *testing.T) {
	d := NewDryRunDriver()
	if err := d.Apply(80); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// Two shutdowns in a row: no error, output at 0 both times.
	for i := 0; i < 2; i++ {
		if err := d.Shutdown(); err != nil {
			t.Fatalf("Shutdown() #%d error = %v", i+1, err)
		}
		if got := d.Percent(); got != 0 {
			t.Errorf("Percent() after Shutdown #%d = %v, want 0", i+1, got)
		}
	}
}
