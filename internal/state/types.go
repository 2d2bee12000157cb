package state

// Control value bounds.
const (
	// MaxBrightness is the upper bound of the brightness scale.
	MaxBrightness = 255

	// MaxVolume is the upper bound of the volume scale.
	MaxVolume = 100

	// MaxMessageLen is the maximum message length in characters (after trimming).
	MaxMessageLen = 100

	// DefaultMessageLimit is the number of messages returned when no limit
	// is given.
	DefaultMessageLimit = 200
)

// Message is one entry on the message board. Messages are immutable once
// created: they are only ever appended or bulk-cleared.
type Message struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"` // RFC 3339, server-generated
}

// Snapshot is a point-in-time view of the control state, taken under the
// store lock.
type Snapshot struct {
	Brightness     int    `json:"brightness"`
	Volume         int    `json:"volume"`
	Track          string `json:"track"`
	HardwareBacked bool   `json:"has_hardware"`
	MessageCount   int    `json:"message_count"`
}
