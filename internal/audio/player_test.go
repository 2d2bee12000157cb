package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/effects"
)

func trackDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("not real audio"), 0600); err != nil {
			t.Fatalf("writing fixture %q: %v", name, err)
		}
	}
	return dir
}

func TestResolve(t *testing.T) {
	dir := trackDir(t, "chime.mp3")

	path, err := Resolve(dir, "chime.mp3")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if path != filepath.Join(dir, "chime.mp3") {
		t.Errorf("Resolve() = %q, want path inside dir", path)
	}
}

func TestResolve_Missing(t *testing.T) {
	dir := trackDir(t)

	_, err := Resolve(dir, "missing.mp3")
	if !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Resolve() error = %v, want ErrTrackNotFound", err)
	}
}

func TestResolve_InvalidNames(t *testing.T) {
	dir := trackDir(t, "chime.mp3")

	for _, name := range []string{"", "  ", "../chime.mp3", "sub/chime.mp3"} {
		if _, err := Resolve(dir, name); !errors.Is(err, ErrInvalidTrack) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidTrack", name, err)
		}
	}
}

func TestNopPlayer_PlayValidates(t *testing.T) {
	dir := trackDir(t, "loop.ogg")
	p := NewNopPlayer(dir)

	if err := p.Play("loop.ogg"); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !p.Busy() {
		t.Error("Busy() = false after Play")
	}

	if err := p.Play("missing.mp3"); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Play(missing) error = %v, want ErrTrackNotFound", err)
	}
}

func TestNopPlayer_StopAndClose(t *testing.T) {
	dir := trackDir(t, "loop.ogg")
	p := NewNopPlayer(dir)

	if err := p.Play("loop.ogg"); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	p.Stop()
	if p.Busy() {
		t.Error("Busy() = true after Stop")
	}

	// Close twice: idempotent like the hardware drivers.
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNopPlayer_VolumeClamped(t *testing.T) {
	p := NewNopPlayer(t.TempDir())

	if err := p.SetVolume(2.5); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}
	if p.level != 1.0 {
		t.Errorf("level = %v, want clamped to 1.0", p.level)
	}

	if err := p.SetVolume(-1); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}
	if p.level != 0 {
		t.Errorf("level = %v, want clamped to 0", p.level)
	}
}

func TestApplyLevel(t *testing.T) {
	var v effects.Volume

	applyLevel(&v, 0)
	if !v.Silent {
		t.Error("level 0 should set Silent")
	}

	applyLevel(&v, 1.0)
	if v.Silent {
		t.Error("level 1 should clear Silent")
	}
	if v.Volume != 0 {
		t.Errorf("Volume at level 1 = %v, want 0 (unity gain)", v.Volume)
	}

	applyLevel(&v, 0.5)
	if v.Volume != -1 {
		t.Errorf("Volume at level 0.5 = %v, want -1 (half gain, base 2)", v.Volume)
	}
}
