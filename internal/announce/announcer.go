package announce

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/glowdeck/internal/infrastructure/mqtt"
	"github.com/nerrad567/glowdeck/internal/state"
)

// Publisher is the slice of the MQTT client the announcer needs.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
	IsConnected() bool
}

// Logger defines the logging interface used by the Announcer.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Announcer publishes retained control-state snapshots to MQTT.
//
// It publishes on every state change (via OnChange, wired as the store's
// change listener) and on a periodic heartbeat so consumers can bound the
// staleness of the retained snapshot. Publish failures are logged and
// dropped: the next change or heartbeat carries the full state again.
type Announcer struct {
	pub      Publisher
	logger   Logger
	interval time.Duration

	// latest returns a fresh snapshot for heartbeats. The snapshot read
	// takes the store lock only briefly and has no side effects, so the
	// heartbeat never contends meaningfully with request handling.
	latest func() state.Snapshot
}

// New creates an Announcer.
//
// Parameters:
//   - pub: MQTT publisher
//   - latest: Snapshot source for heartbeats (typically store.Status)
//   - interval: Heartbeat period; 0 disables the heartbeat
//   - logger: For dropped publishes
func New(pub Publisher, latest func() state.Snapshot, interval time.Duration, logger Logger) *Announcer {
	return &Announcer{
		pub:      pub,
		logger:   logger,
		interval: interval,
		latest:   latest,
	}
}

// OnChange publishes a snapshot. Wire this as the store's change listener;
// it runs outside the store lock.
func (a *Announcer) OnChange(snap state.Snapshot) {
	a.publish(snap)
}

// Run publishes heartbeat snapshots until the context is cancelled.
// Safe to run indefinitely; each tick is a brief snapshot read and one
// bounded publish.
func (a *Announcer) Run(ctx context.Context) {
	if a.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.publish(a.latest())
		}
	}
}

// publish sends one retained snapshot, dropping it on failure.
func (a *Announcer) publish(snap state.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		// Snapshot is a plain struct; this cannot realistically fail.
		a.logger.Warn("encoding snapshot", "error", err)
		return
	}

	if err := a.pub.PublishRetained(mqtt.TopicStatus, payload); err != nil {
		a.logger.Debug("snapshot publish dropped", "error", err)
		return
	}
}
