package audio

import "errors"

// Domain errors for the audio package.
var (
	// ErrTrackNotFound is returned when a track name does not resolve to a
	// file in the track directory.
	ErrTrackNotFound = errors.New("audio: track not found")

	// ErrInvalidTrack is returned when a track name is empty or attempts to
	// escape the track directory.
	ErrInvalidTrack = errors.New("audio: invalid track name")

	// ErrUnsupportedFormat is returned when a track file extension is not
	// one of .wav, .ogg or .mp3.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")

	// ErrUnavailable is returned when the audio device could not be
	// initialised.
	ErrUnavailable = errors.New("audio: device unavailable")
)
