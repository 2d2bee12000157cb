package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/glowdeck/internal/infrastructure/config"
	"github.com/nerrad567/glowdeck/internal/state"
)

// Default timeouts for InfluxDB operations.
const (
	defaultConnectTimeout = 10 * time.Second

	// msPerSecond converts seconds to milliseconds for the InfluxDB API.
	msPerSecond = 1000
)

// measurement is the InfluxDB measurement name for control-state points.
const measurement = "control"

// pointWriter is the slice of the InfluxDB write API the recorder needs.
// Narrowed for testability.
type pointWriter interface {
	WritePoint(point *write.Point)
}

// Recorder writes control-state changes to InfluxDB.
//
// Writes are non-blocking and batched by the client library; async write
// failures surface through the error callback set with SetOnError.
//
// Thread Safety: all methods are safe for concurrent use.
type Recorder struct {
	client   influxdb2.Client
	writeAPI pointWriter
	cfg      config.InfluxDBConfig

	mu      sync.RWMutex
	onError func(err error)

	// now is the point timestamp source, replaceable in tests.
	now func() time.Time
}

// Connect establishes a connection to the InfluxDB server.
//
// It creates the client with token authentication, verifies connectivity
// with a ping and configures the non-blocking write API with batching.
//
// Parameters:
//   - ctx: Context bounding the connectivity check
//   - cfg: InfluxDB configuration from config.yaml
//
// Returns:
//   - *Recorder: Connected recorder ready for use
//   - error: If the ping fails
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Recorder, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	// #nosec G115 -- values validated above to be positive
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*msPerSecond),
	)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	r := &Recorder{
		client:   client,
		writeAPI: writeAPI,
		cfg:      cfg,
		now:      time.Now,
	}

	go r.handleWriteErrors(writeAPI.Errors())

	return r, nil
}

// handleWriteErrors forwards async write errors to the error callback.
func (r *Recorder) handleWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		r.mu.RLock()
		callback := r.onError
		r.mu.RUnlock()
		if callback != nil {
			callback(err)
		}
	}
}

// SetOnError sets a callback invoked for async write failures.
func (r *Recorder) SetOnError(callback func(err error)) {
	r.mu.Lock()
	r.onError = callback
	r.mu.Unlock()
}

// OnChange records a control-state snapshot as a point. Wire this as a
// store change listener; the write is non-blocking.
func (r *Recorder) OnChange(snap state.Snapshot) {
	p := influxdb2.NewPoint(
		measurement,
		map[string]string{
			"hardware": fmt.Sprintf("%t", snap.HardwareBacked),
		},
		map[string]any{
			"brightness":    snap.Brightness,
			"volume":        snap.Volume,
			"track":         snap.Track,
			"message_count": snap.MessageCount,
		},
		r.now(),
	)
	r.writeAPI.WritePoint(p)
}

// Close flushes pending writes and releases the client.
func (r *Recorder) Close() error {
	if r.client == nil {
		return nil
	}
	if flusher, ok := r.writeAPI.(api.WriteAPI); ok {
		flusher.Flush()
	}
	r.client.Close()
	return nil
}

// HealthCheck verifies the InfluxDB server is reachable.
func (r *Recorder) HealthCheck(ctx context.Context) error {
	healthy, err := r.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influxdb ping: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb: %w", ErrNotHealthy)
	}
	return nil
}
