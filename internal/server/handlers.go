// Package server handles HTTP requests and middleware.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"

	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/preview"

	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error  string `json:"error"`
	Feed   string `json:"feed,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Status int    `json:"status,omitempty"`
	Retry  bool   `json:"retry"`
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/favicon.ico" && r.URL.Path != "/favicon.svg" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	serveStatic(w, r, s.IndexHTML, "text/html; charset=utf-8")
}

// HandleView serves the map description: tile layers, overlays, legend and viewport.
func (s *ServerContext) HandleView(w http.ResponseWriter, r *http.Request) {
	serveStatic(w, r, s.View.JSON(), "application/json")
}

// HandleScene fetches both feeds and serves the styled layers.
func (s *ServerContext) HandleScene(w http.ResponseWriter, r *http.Request) {
	sc, err := s.render(r.Context())
	if err != nil {
		writeRenderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(sc.Document())
}

// HandlePreview renders the current scene as a WebP snapshot.
func (s *ServerContext) HandlePreview(w http.ResponseWriter, r *http.Request) {
	width := preview.DefaultWidth
	if v := r.URL.Query().Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "width must be an integer", http.StatusBadRequest)
			return
		}
		width = preview.ClampWidth(n)
	}

	sc, err := s.render(r.Context())
	if err != nil {
		writeRenderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := preview.Encode(w, preview.Render(sc, width)); err != nil {
		log.Error().Err(err).Str("scene", sc.ID.String()).Msg("Failed to encode preview")
	}
}

// HandleHealth reports liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// writeRenderError reports a failed load so the page can offer a retry.
func writeRenderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		log.Debug().Str("path", r.URL.Path).Msg("Client went away during render")
		return
	}

	resp := errorResponse{Error: err.Error(), Retry: true}
	status := http.StatusBadGateway

	var fe *feed.FetchError
	if errors.As(err, &fe) {
		resp.Feed = fe.Feed
		resp.Kind = string(fe.Kind)
		resp.Status = fe.StatusCode
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
	} else {
		status = http.StatusInternalServerError
		resp.Retry = false
	}

	log.Error().
		Err(err).
		Str("feed", resp.Feed).
		Str("kind", resp.Kind).
		Msg("Render pass failed")

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// serveStatic writes an in-memory body with a content hash ETag.
func serveStatic(w http.ResponseWriter, r *http.Request, body []byte, contentType string) {
	h := fnv.New64a()
	_, _ = h.Write(body)
	etag := fmt.Sprintf(`"%x"`, h.Sum64())

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(body)
}
