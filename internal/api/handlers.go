package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/glowdeck/internal/audio"
	"github.com/nerrad567/glowdeck/internal/state"
)

// Request bodies use pointer fields so a missing key is distinguishable
// from a zero value: {"value": 0} is a valid request, {} is not.

// setBrightnessRequest is the body for POST /set_brightness.
type setBrightnessRequest struct {
	Value *int `json:"value"`
}

// setVolumeRequest is the body for POST /set_volume.
type setVolumeRequest struct {
	Value *int `json:"value"`
}

// setTrackRequest is the body for POST /set_track.
type setTrackRequest struct {
	Track *string `json:"track"`
}

// addMessageRequest is the body for POST /add_message.
type addMessageRequest struct {
	Text *string `json:"text"`
}

// decodeBody parses a JSON request body into dst. Returns false after
// writing a 400 response if the body is not valid JSON.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeBadRequest(w, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// handleSetBrightness sets the LED brightness.
//
// The 0-255 value is clamped, mapped to a duty-cycle percentage and
// applied to the active driver. Driver failures never fail the request;
// the response reports the value and duty that now describe the state.
func (s *Server) handleSetBrightness(w http.ResponseWriter, r *http.Request) {
	var req setBrightnessRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeBadRequest(w, ErrCodeBadRequest, "value is required")
		return
	}

	value, duty := s.store.SetBrightness(*req.Value)
	writeOK(w, map[string]any{
		"value": value,
		"duty":  duty,
	})
}

// handleSetVolume sets the audio volume (0-100, clamped).
func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	var req setVolumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeBadRequest(w, ErrCodeBadRequest, "value is required")
		return
	}

	value := s.store.SetVolume(*req.Value)
	writeOK(w, map[string]any{
		"value": value,
	})
}

// handleSetTrack starts looped playback of a track from the track
// directory. An unknown track is a 404; the current track is unchanged.
func (s *Server) handleSetTrack(w http.ResponseWriter, r *http.Request) {
	var req setTrackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Track == nil {
		writeBadRequest(w, ErrCodeBadRequest, "track is required")
		return
	}

	if err := s.store.SetTrack(*req.Track); err != nil {
		switch {
		case errors.Is(err, state.ErrEmptyTrack), errors.Is(err, audio.ErrInvalidTrack):
			writeBadRequest(w, ErrCodeValidation, err.Error())
		case errors.Is(err, audio.ErrTrackNotFound):
			writeNotFound(w, err.Error())
		default:
			s.logger.Error("track playback failed", "track", *req.Track, "error", err)
			writeInternalError(w, ErrCodeInternal, "failed to start playback")
		}
		return
	}

	writeOK(w, map[string]any{
		"track": *req.Track,
	})
}

// handleAddMessage appends a message to the board.
//
// A persistence failure after the in-memory append is a 500: the caller
// must know the message may not survive a restart.
func (s *Server) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	var req addMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == nil {
		writeBadRequest(w, ErrCodeBadRequest, "text is required")
		return
	}

	msg, count, err := s.store.AddMessage(r.Context(), *req.Text)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrEmptyMessage), errors.Is(err, state.ErrMessageTooLong):
			writeBadRequest(w, ErrCodeValidation, err.Error())
		case errors.Is(err, state.ErrPersistence):
			writeInternalError(w, ErrCodePersistence, "message accepted but could not be saved")
		default:
			writeInternalError(w, ErrCodeInternal, "failed to add message")
		}
		return
	}

	writeOK(w, map[string]any{
		"message":       msg,
		"message_count": count,
	})
}

// handleGetMessages returns the most recent messages in append order.
func (s *Server) handleGetMessages(w http.ResponseWriter, _ *http.Request) {
	msgs := s.store.Messages(state.DefaultMessageLimit)
	writeOK(w, map[string]any{
		"messages": msgs,
	})
}

// handleClearMessages empties the message board.
func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearMessages(r.Context()); err != nil {
		writeInternalError(w, ErrCodePersistence, "messages cleared but board could not be saved")
		return
	}
	writeOK(w, nil)
}

// handleStatus returns a point-in-time snapshot of the control state.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Status()
	writeOK(w, map[string]any{
		"brightness":    snap.Brightness,
		"volume":        snap.Volume,
		"track":         snap.Track,
		"has_hardware":  snap.HardwareBacked,
		"message_count": snap.MessageCount,
	})
}
