package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/glowdeck/internal/web"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// The control endpoints live at the root rather than under a versioned
// prefix: the device is a single-purpose appliance and its clients are
// the embedded page and small scripts.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Embedded control page
	r.Handle("/", web.Handler())
	r.Handle("/static/*", web.Handler())

	// Control endpoints
	r.Post("/set_brightness", s.handleSetBrightness)
	r.Post("/set_volume", s.handleSetVolume)
	r.Post("/set_track", s.handleSetTrack)

	// Message board
	r.Post("/add_message", s.handleAddMessage)
	r.Get("/get_messages", s.handleGetMessages)
	r.Post("/clear_messages", s.handleClearMessages)

	// Status and health
	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	// Live snapshot stream
	r.Get("/ws", s.handleWebSocket)

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
