package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/nerrad567/glowdeck/internal/infrastructure/config"
)

// Player is the playback capability consumed by the state store.
//
// Implementations must be safe for concurrent use. Play replaces whatever
// is currently playing; the track loops until Stop or the next Play.
type Player interface {
	// SetVolume sets the playback volume (0.0 = silent, 1.0 = full).
	SetVolume(level float64) error

	// Play loops the named track from the track directory.
	// Returns ErrTrackNotFound if the name does not resolve to a file.
	Play(track string) error

	// Stop halts playback.
	Stop()

	// Busy reports whether a track is currently playing.
	Busy() bool

	// Close stops playback and releases the audio device. Idempotent.
	Close() error
}

// Resolve maps a track name to a path inside dir, rejecting names that are
// empty or would escape the directory. Returns ErrTrackNotFound when the
// file does not exist.
func Resolve(dir, track string) (string, error) {
	track = strings.TrimSpace(track)
	if track == "" {
		return "", ErrInvalidTrack
	}
	// Track names are bare filenames; anything with a path component is
	// refused rather than cleaned.
	if filepath.Base(track) != track {
		return "", fmt.Errorf("%w: %q", ErrInvalidTrack, track)
	}

	path := filepath.Join(dir, track)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrTrackNotFound, track)
		}
		return "", fmt.Errorf("checking track %q: %w", track, err)
	}
	return path, nil
}

// speakerBufferLen is the speaker buffer size as a fraction of a second.
// 1/10s trades a little latency for underrun resistance on small boards.
const speakerBufferLen = time.Second / 10

// BeepPlayer plays tracks through the default audio device using gopxl/beep.
type BeepPlayer struct {
	dir        string
	sampleRate beep.SampleRate

	mu      sync.Mutex
	level   float64
	volume  *effects.Volume
	closer  interface{ Close() error }
	current string
	closed  bool
}

// NewBeepPlayer initialises the audio device and returns a ready player.
//
// Initialisation failure is expected on headless machines; callers should
// fall back to NewNopPlayer in that case.
func NewBeepPlayer(cfg config.AudioConfig) (*BeepPlayer, error) {
	sr := beep.SampleRate(cfg.SampleRate)
	if err := speaker.Init(sr, sr.N(speakerBufferLen)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return &BeepPlayer{
		dir:        cfg.TrackDir,
		sampleRate: sr,
		level:      1.0,
	}, nil
}

// SetVolume adjusts the playback volume, effective immediately if a track
// is playing.
func (p *BeepPlayer) SetVolume(level float64) error {
	level = clampLevel(level)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.level = level
	if p.volume != nil {
		speaker.Lock()
		applyLevel(p.volume, level)
		speaker.Unlock()
	}
	return nil
}

// Play decodes the named track and loops it, replacing any current playback.
func (p *BeepPlayer) Play(track string) error {
	path, err := Resolve(p.dir, track)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening track %q: %w", track, err)
	}

	streamer, format, err := decode(path, f)
	if err != nil {
		f.Close() //nolint:errcheck // Best effort cleanup on error path
		return err
	}

	var stream beep.Streamer = beep.Loop(-1, streamer)
	if format.SampleRate != p.sampleRate {
		stream = beep.Resample(4, format.SampleRate, p.sampleRate, stream)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		streamer.Close() //nolint:errcheck // Player already closed
		return ErrUnavailable
	}

	// Replace current playback
	speaker.Clear()
	p.releaseLocked()

	vol := &effects.Volume{
		Streamer: stream,
		Base:     2,
	}
	applyLevel(vol, p.level)

	speaker.Play(vol)
	p.volume = vol
	p.closer = streamer
	p.current = track
	return nil
}

// Stop halts playback and releases the decoded stream.
func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	speaker.Clear()
	p.releaseLocked()
}

// Busy reports whether a track is currently playing.
func (p *BeepPlayer) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != ""
}

// Close stops playback and releases the audio device. Idempotent.
func (p *BeepPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	speaker.Clear()
	p.releaseLocked()
	speaker.Close()
	return nil
}

// releaseLocked closes the current stream. Caller holds p.mu.
func (p *BeepPlayer) releaseLocked() {
	if p.closer != nil {
		p.closer.Close() //nolint:errcheck // Nothing useful to do with a close error here
		p.closer = nil
	}
	p.volume = nil
	p.current = ""
}

// decode picks a decoder by file extension.
func decode(path string, f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// applyLevel maps a linear 0..1 level onto the effects.Volume exponent.
// Base 2 with Volume=log2(level) yields a gain equal to the level itself;
// level 0 cannot be expressed as an exponent and uses Silent instead.
func applyLevel(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(level)
}

// clampLevel bounds a volume level to [0.0, 1.0].
func clampLevel(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}

// NopPlayer is the dry-run equivalent for audio: it validates track names
// against the track directory and records requests, but produces no sound.
type NopPlayer struct {
	dir string

	mu      sync.Mutex
	level   float64
	current string
}

// NewNopPlayer creates a silent player over the given track directory.
func NewNopPlayer(dir string) *NopPlayer {
	return &NopPlayer{dir: dir, level: 1.0}
}

// SetVolume records the requested volume.
func (p *NopPlayer) SetVolume(level float64) error {
	p.mu.Lock()
	p.level = clampLevel(level)
	p.mu.Unlock()
	return nil
}

// Play validates the track name and records it. Validation is identical to
// the real player so the HTTP surface behaves the same in silent mode.
func (p *NopPlayer) Play(track string) error {
	if _, err := Resolve(p.dir, track); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = track
	p.mu.Unlock()
	return nil
}

// Stop clears the recorded track.
func (p *NopPlayer) Stop() {
	p.mu.Lock()
	p.current = ""
	p.mu.Unlock()
}

// Busy reports whether a track is recorded as playing.
func (p *NopPlayer) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != ""
}

// Close implements Player. Nothing to release.
func (p *NopPlayer) Close() error {
	p.Stop()
	return nil
}
