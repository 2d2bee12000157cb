package state

import "errors"

// Domain errors for the state package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, state.ErrPersistence) {
//	    // message accepted in memory but not durably saved
//	}
var (
	// ErrEmptyMessage is returned when a message is empty after trimming.
	ErrEmptyMessage = errors.New("state: message is empty")

	// ErrMessageTooLong is returned when a message exceeds MaxMessageLen
	// characters after trimming.
	ErrMessageTooLong = errors.New("state: message too long")

	// ErrEmptyTrack is returned when a track name is empty.
	ErrEmptyTrack = errors.New("state: track is empty")

	// ErrPersistence is returned when a durable write fails after the
	// in-memory mutation was already applied. Memory and disk have
	// diverged; the next successful write reconverges them.
	ErrPersistence = errors.New("state: persistence failed")
)
