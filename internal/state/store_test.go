package state

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/glowdeck/internal/audio"
)

// mockDriver records applied duty cycles and can fail on demand.
type mockDriver struct {
	mu       sync.Mutex
	applied  []float64
	applyErr error
}

func (m *mockDriver) Name() string { return "mock" }

func (m *mockDriver) Apply(percent float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied = append(m.applied, percent)
	return nil
}

func (m *mockDriver) Shutdown() error { return nil }

func (m *mockDriver) lastApplied() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.applied) == 0 {
		return 0, false
	}
	return m.applied[len(m.applied)-1], true
}

// mockPlayer records playback requests and can fail on demand.
type mockPlayer struct {
	mu      sync.Mutex
	level   float64
	track   string
	playErr error
}

func (m *mockPlayer) SetVolume(level float64) error {
	m.mu.Lock()
	m.level = level
	m.mu.Unlock()
	return nil
}

func (m *mockPlayer) Play(track string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.track = track
	return nil
}

func (m *mockPlayer) Stop()        {}
func (m *mockPlayer) Busy() bool   { return false }
func (m *mockPlayer) Close() error { return nil }

// mockRepo is an in-memory Repository with injectable failures.
type mockRepo struct {
	mu      sync.Mutex
	saved   [][]Message
	saveErr error
}

func (m *mockRepo) Load(context.Context) ([]Message, error) { return nil, nil }

func (m *mockRepo) Save(_ context.Context, msgs []Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := make([]Message, len(msgs))
	copy(cp, msgs)
	m.saved = append(m.saved, cp)
	return nil
}

func (m *mockRepo) Close() error { return nil }

func newTestStore(repo Repository) (*Store, *mockDriver, *mockPlayer) {
	driver := &mockDriver{}
	player := &mockPlayer{}
	store := New(Deps{
		Driver:         driver,
		HardwareBacked: false,
		Player:         player,
		Repo:           repo,
	})
	return store, driver, player
}

func TestSetBrightness_AppliesDuty(t *testing.T) {
	store, driver, _ := newTestStore(nil)

	value, duty := store.SetBrightness(128)
	if value != 128 {
		t.Errorf("value = %d, want 128", value)
	}
	want := float64(128) / 255 * 100
	if math.Abs(duty-want) > 1e-9 {
		t.Errorf("duty = %v, want %v", duty, want)
	}

	applied, ok := driver.lastApplied()
	if !ok || math.Abs(applied-want) > 1e-9 {
		t.Errorf("driver applied %v, want %v", applied, want)
	}
	if got := store.Status().Brightness; got != 128 {
		t.Errorf("Status().Brightness = %d, want 128", got)
	}
}

func TestSetBrightness_ClampsInput(t *testing.T) {
	store, _, _ := newTestStore(nil)

	if value, duty := store.SetBrightness(-5); value != 0 || duty != 0 {
		t.Errorf("SetBrightness(-5) = (%d, %v), want (0, 0)", value, duty)
	}
	if value, duty := store.SetBrightness(9999); value != 255 || duty != 100 {
		t.Errorf("SetBrightness(9999) = (%d, %v), want (255, 100)", value, duty)
	}
}

func TestSetBrightness_HardwareFailureAbsorbed(t *testing.T) {
	store, driver, _ := newTestStore(nil)
	driver.applyErr = errors.New("pwm write failed")

	// The failure must not propagate and the state must still update:
	// degraded hardware never fails a request.
	value, duty := store.SetBrightness(200)
	if value != 200 {
		t.Errorf("value = %d, want 200", value)
	}
	if duty == 0 {
		t.Error("duty should still be computed on hardware failure")
	}
	if got := store.Status().Brightness; got != 200 {
		t.Errorf("Status().Brightness = %d, want 200 despite apply failure", got)
	}
}

func TestSetVolume_ForwardsLevel(t *testing.T) {
	store, _, player := newTestStore(nil)

	if got := store.SetVolume(50); got != 50 {
		t.Errorf("SetVolume(50) = %d, want 50", got)
	}
	if player.level != 0.5 {
		t.Errorf("player level = %v, want 0.5", player.level)
	}

	if got := store.SetVolume(150); got != 100 {
		t.Errorf("SetVolume(150) = %d, want clamped 100", got)
	}
}

func TestSetTrack(t *testing.T) {
	store, _, player := newTestStore(nil)

	if err := store.SetTrack("chime.mp3"); err != nil {
		t.Fatalf("SetTrack() error = %v", err)
	}
	if player.track != "chime.mp3" {
		t.Errorf("player track = %q, want chime.mp3", player.track)
	}
	if got := store.Status().Track; got != "chime.mp3" {
		t.Errorf("Status().Track = %q, want chime.mp3", got)
	}
}

func TestSetTrack_NotFoundLeavesStateUnchanged(t *testing.T) {
	store, _, player := newTestStore(nil)
	if err := store.SetTrack("first.mp3"); err != nil {
		t.Fatalf("SetTrack() error = %v", err)
	}

	player.playErr = audio.ErrTrackNotFound
	err := store.SetTrack("missing.mp3")
	if !errors.Is(err, audio.ErrTrackNotFound) {
		t.Errorf("SetTrack(missing) error = %v, want ErrTrackNotFound", err)
	}
	if got := store.Status().Track; got != "first.mp3" {
		t.Errorf("Status().Track = %q, want unchanged first.mp3", got)
	}
}

func TestSetTrack_Empty(t *testing.T) {
	store, _, _ := newTestStore(nil)

	for _, track := range []string{"", "   "} {
		if err := store.SetTrack(track); !errors.Is(err, ErrEmptyTrack) {
			t.Errorf("SetTrack(%q) error = %v, want ErrEmptyTrack", track, err)
		}
	}
}

func TestAddMessage_Validation(t *testing.T) {
	store, _, _ := newTestStore(nil)

	for _, text := range []string{"", " ", "\t\n"} {
		_, _, err := store.AddMessage(context.Background(), text)
		if !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("AddMessage(%q) error = %v, want ErrEmptyMessage", text, err)
		}
	}

	long := strings.Repeat("x", MaxMessageLen+1)
	if _, _, err := store.AddMessage(context.Background(), long); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("AddMessage(101 chars) error = %v, want ErrMessageTooLong", err)
	}

	// Exactly at the limit is accepted.
	exact := strings.Repeat("x", MaxMessageLen)
	if _, _, err := store.AddMessage(context.Background(), exact); err != nil {
		t.Errorf("AddMessage(100 chars) error = %v", err)
	}

	if got := store.Status().MessageCount; got != 1 {
		t.Errorf("MessageCount = %d, want 1 (rejections must not mutate)", got)
	}
}

func TestAddMessage_TrimsAndTimestamps(t *testing.T) {
	store, _, _ := newTestStore(nil)

	msg, count, err := store.AddMessage(context.Background(), "  hello  ")
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if msg.Text != "hello" {
		t.Errorf("Text = %q, want trimmed hello", msg.Text)
	}
	if msg.Timestamp == "" {
		t.Error("Timestamp should be set")
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestAddMessage_Concurrent(t *testing.T) {
	store, _, _ := newTestStore(&mockRepo{})

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if _, _, err := store.AddMessage(context.Background(), fmt.Sprintf("msg-%d", i)); err != nil {
				t.Errorf("AddMessage(%d) error = %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	msgs := store.Messages(0)
	if len(msgs) != n {
		t.Fatalf("got %d messages, want %d (lost updates)", len(msgs), n)
	}

	// Every unique text must be present exactly once.
	seen := make(map[string]bool, n)
	for _, m := range msgs {
		if seen[m.Text] {
			t.Errorf("duplicate message %q", m.Text)
		}
		seen[m.Text] = true
	}
}

func TestAddMessage_PersistenceFailureSurfaced(t *testing.T) {
	repo := &mockRepo{saveErr: errors.New("disk full")}
	store, _, _ := newTestStore(repo)

	msg, count, err := store.AddMessage(context.Background(), "hello")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("AddMessage() error = %v, want ErrPersistence", err)
	}

	// The in-memory mutation stands: divergence is surfaced, not rolled back.
	if msg.Text != "hello" || count != 1 {
		t.Errorf("message/count = %q/%d, want accepted hello/1", msg.Text, count)
	}
	if got := store.Status().MessageCount; got != 1 {
		t.Errorf("MessageCount = %d, want 1", got)
	}
}

func TestMessages_SuffixWindow(t *testing.T) {
	store, _, _ := newTestStore(nil)

	for i := 0; i < 250; i++ {
		if _, _, err := store.AddMessage(context.Background(), fmt.Sprintf("msg-%03d", i)); err != nil {
			t.Fatalf("AddMessage(%d) error = %v", i, err)
		}
	}

	msgs := store.Messages(200)
	if len(msgs) != 200 {
		t.Fatalf("got %d messages, want 200", len(msgs))
	}
	// Oldest within the window first: msg-050 .. msg-249.
	if msgs[0].Text != "msg-050" {
		t.Errorf("first = %q, want msg-050", msgs[0].Text)
	}
	if msgs[199].Text != "msg-249" {
		t.Errorf("last = %q, want msg-249", msgs[199].Text)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i-1].Text >= msgs[i].Text {
			t.Fatalf("append order violated at %d: %q >= %q", i, msgs[i-1].Text, msgs[i].Text)
		}
	}
}

func TestClearMessages(t *testing.T) {
	repo := &mockRepo{}
	store, _, _ := newTestStore(repo)

	if _, _, err := store.AddMessage(context.Background(), "one"); err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if err := store.ClearMessages(context.Background()); err != nil {
		t.Fatalf("ClearMessages() error = %v", err)
	}

	if got := len(store.Messages(0)); got != 0 {
		t.Errorf("got %d messages after clear, want 0", got)
	}

	repo.mu.Lock()
	last := repo.saved[len(repo.saved)-1]
	repo.mu.Unlock()
	if len(last) != 0 {
		t.Errorf("last persisted sequence has %d entries, want 0", len(last))
	}
}

func TestOnChange_ReceivesSnapshots(t *testing.T) {
	store, _, _ := newTestStore(nil)

	var mu sync.Mutex
	var snaps []Snapshot
	store.SetOnChange(func(s Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})

	store.SetBrightness(10)
	store.SetVolume(20)
	if _, _, err := store.AddMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}
	last := snaps[2]
	if last.Brightness != 10 || last.Volume != 20 || last.MessageCount != 1 {
		t.Errorf("final snapshot = %+v, want brightness 10, volume 20, 1 message", last)
	}
}
