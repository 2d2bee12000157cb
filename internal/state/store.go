package state

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nerrad567/glowdeck/internal/audio"
	"github.com/nerrad567/glowdeck/internal/hardware"
)

// Logger defines the logging interface used by the Store.
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

// Deps holds the collaborators required by the Store.
type Deps struct {
	// Driver is the active LED driver from hardware.Select.
	Driver hardware.Driver

	// HardwareBacked reports whether Driver talks to real hardware.
	HardwareBacked bool

	// Player is the audio playback collaborator.
	Player audio.Player

	// Repo persists messages. Nil means memory-only operation.
	Repo Repository

	// Logger for absorbed hardware/audio failures (nil for silent).
	Logger Logger
}

// Store owns the shared mutable state: brightness, volume, track and the
// message board. Every read and write is serialised through one mutex.
//
// Hardware and audio failures inside control operations are absorbed: the
// stored state reflects the requested value even when the physical output
// did not respond, and the failure is logged instead of propagated. The
// service stays available in degraded environments.
type Store struct {
	mu sync.Mutex

	driver         hardware.Driver
	hardwareBacked bool
	player         audio.Player
	repo           Repository
	logger         Logger

	brightness int
	volume     int
	track      string
	messages   []Message

	// onChange is invoked with a fresh snapshot after each mutation,
	// outside the lock. Set once at startup before requests flow.
	onChange func(Snapshot)

	// now is the timestamp source, replaceable in tests.
	now func() time.Time
}

// New creates a Store with the given collaborators.
func New(deps Deps) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Store{
		driver:         deps.Driver,
		hardwareBacked: deps.HardwareBacked,
		player:         deps.Player,
		repo:           deps.Repo,
		logger:         logger,
		volume:         MaxVolume,
		now:            time.Now,
	}
}

// SetOnChange registers a callback invoked with a snapshot after every
// mutation. The callback runs outside the store lock and must not call
// back into the Store's mutating methods. Call before serving requests.
func (s *Store) SetOnChange(fn func(Snapshot)) {
	s.onChange = fn
}

// LoadMessages populates the message board from the repository.
// Call once at startup, before requests flow.
func (s *Store) LoadMessages(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	msgs, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading messages: %w", err)
	}

	s.mu.Lock()
	s.messages = msgs
	s.mu.Unlock()

	s.logger.Info("messages loaded", "count", len(msgs))
	return nil
}

// SetBrightness clamps the requested value to [0, MaxBrightness], maps it
// to a duty cycle and drives the active LED driver.
//
// A driver failure is logged and absorbed: the stored brightness reflects
// the requested value even if the hardware did not respond, so the
// service never turns a flaky LED into a failed request.
//
// Returns the clamped value and the applied duty-cycle percentage.
func (s *Store) SetBrightness(value int) (int, float64) {
	value = hardware.Clamp(value, 0, MaxBrightness)
	percent := hardware.ToPercent(value, MaxBrightness)

	s.mu.Lock()
	if err := s.driver.Apply(percent); err != nil {
		s.logger.Warn("brightness apply failed, state updated anyway",
			"driver", s.driver.Name(),
			"percent", percent,
			"error", err,
		)
	}
	s.brightness = value
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return value, percent
}

// SetVolume clamps the requested value to [0, MaxVolume] and forwards it to
// the audio player as a 0.0-1.0 level. Player failures are logged and
// absorbed like hardware failures.
//
// Returns the clamped value.
func (s *Store) SetVolume(value int) int {
	value = hardware.Clamp(value, 0, MaxVolume)
	level := float64(value) / float64(MaxVolume)

	s.mu.Lock()
	if err := s.player.SetVolume(level); err != nil {
		s.logger.Warn("volume apply failed, state updated anyway",
			"level", level,
			"error", err,
		)
	}
	s.volume = value
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return value
}

// SetTrack starts looped playback of the named track.
//
// Unlike brightness and volume, a playback failure here is surfaced: a
// track that does not exist returns audio.ErrTrackNotFound and the stored
// track is left unchanged.
func (s *Store) SetTrack(track string) error {
	track = strings.TrimSpace(track)
	if track == "" {
		return ErrEmptyTrack
	}

	s.mu.Lock()
	if err := s.player.Play(track); err != nil {
		s.mu.Unlock()
		return err
	}
	s.track = track
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// AddMessage appends a message to the board with a server-generated
// timestamp and persists the full updated sequence.
//
// The text is trimmed and validated first: empty text returns
// ErrEmptyMessage, text over MaxMessageLen characters returns
// ErrMessageTooLong; neither mutates state. A failed persistence write
// returns ErrPersistence after the in-memory append already happened; the
// created message and new count are returned alongside the error so the
// caller can surface the divergence.
func (s *Store) AddMessage(ctx context.Context, text string) (Message, int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, 0, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLen {
		return Message{}, 0, fmt.Errorf("%w: %d characters (max %d)",
			ErrMessageTooLong, utf8.RuneCountInString(text), MaxMessageLen)
	}

	msg := Message{
		Text:      text,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	count := len(s.messages)
	saveErr := s.saveLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)

	if saveErr != nil {
		s.logger.Error("message accepted but not durably saved",
			"count", count,
			"error", saveErr,
		)
		return msg, count, fmt.Errorf("%w: %w", ErrPersistence, saveErr)
	}
	return msg, count, nil
}

// Messages returns the most recent limit messages in append order.
// A non-positive limit uses DefaultMessageLimit. The returned slice is a
// copy; callers never hold a reference into shared state.
func (s *Store) Messages(limit int) []Message {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if len(s.messages) > limit {
		start = len(s.messages) - limit
	}

	out := make([]Message, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out
}

// ClearMessages atomically replaces the board with an empty sequence and
// persists the result. A failed persistence write returns ErrPersistence;
// the in-memory board is already empty.
func (s *Store) ClearMessages(ctx context.Context) error {
	s.mu.Lock()
	s.messages = nil
	saveErr := s.saveLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)

	if saveErr != nil {
		s.logger.Error("messages cleared in memory but not durably",
			"error", saveErr,
		)
		return fmt.Errorf("%w: %w", ErrPersistence, saveErr)
	}
	return nil
}

// Status returns a point-in-time snapshot of the control state.
func (s *Store) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// saveLocked persists the current sequence. Caller holds s.mu.
// The write is a small bounded document; holding the lock across it keeps
// persisted order identical to append order under concurrent writers.
func (s *Store) saveLocked(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	return s.repo.Save(ctx, msgs)
}

// snapshotLocked builds a Snapshot. Caller holds s.mu.
func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Brightness:     s.brightness,
		Volume:         s.volume,
		Track:          s.track,
		HardwareBacked: s.hardwareBacked,
		MessageCount:   len(s.messages),
	}
}

// notify delivers a snapshot to the change listener, if any.
func (s *Store) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
