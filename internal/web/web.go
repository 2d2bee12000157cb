// Package web serves the embedded Glowdeck control page.
package web

import (
	"embed"
	"net/http"
)

//go:embed static/*
var content embed.FS

// Handler returns an http.Handler serving the static control page.
// Everything is embedded at build time; there is nothing to deploy beside
// the binary.
func Handler() http.Handler {
	fileServer := http.FileServer(http.FS(content))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The page is tiny and changes with the binary; don't let
		// browsers cache a stale copy across upgrades.
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		if r.URL.Path == "/" {
			r.URL.Path = "/static/index.html"
		}
		fileServer.ServeHTTP(w, r)
	})
}
