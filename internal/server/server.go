// Package server implements the HTTP surface: the live search stream, the
// non-streaming search variant, and the direct availability check.
//
// Routes:
//
//	GET  /search_stream?category=<id> → line-delimited JSON event feed
//	GET  /search?category=<id>        → full result set in one response
//	POST /verify {url}                → direct availability verdict
//	GET  /                            → liveness message
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"glitchfinder/internal/deal"
	"glitchfinder/internal/search"
	"glitchfinder/logger"
	"glitchfinder/pkg/errors"
)

// Verifier is the direct availability check behind POST /verify
type Verifier interface {
	VerifyDetailed(ctx context.Context, url string) (bool, string)
}

// Server holds shared handler dependencies
type Server struct {
	orch     *search.Orchestrator
	verifier Verifier
	log      *logger.Logger
}

// New returns a configured Server
func New(orch *search.Orchestrator, verifier Verifier) *Server {
	return &Server{
		orch:     orch,
		verifier: verifier,
		log:      logger.ForComponent("server"),
	}
}

// RegisterRoutes mounts all routes on mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/search_stream", s.handleSearchStream)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/verify", s.handleVerify)
}

// Handler returns the full handler chain including CORS
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return withCORS(mux)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "GlitchPrice finder backend is running.",
	})
}

// handleSearchStream opens the live, append-only event feed: one JSON line
// per accepted deal, then exactly one terminal line. A client disconnect
// cancels the session through the request context.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	category := r.URL.Query().Get("category")

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for ev := range s.orch.Run(r.Context(), category) {
		if err := enc.Encode(ev); err != nil {
			// Client is gone; the context cancellation stops the session
			s.log.Debug().Err(err).Msg("Stream write failed")
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	category := r.URL.Query().Get("category")
	items, scanned := s.orch.Search(r.Context(), category)
	if items == nil {
		items = []deal.EnrichedDeal{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":   items,
		"scanned": scanned,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		s.log.Debug().
			Err(errors.NewValidation("", "url must be absolute http(s)")).
			Str("url", req.URL).
			Msg("Verification request rejected")
		http.Error(w, "invalid url", http.StatusBadRequest)
		return
	}

	available, reason := s.verifier.VerifyDetailed(r.Context(), req.URL)

	status := "available"
	if !available {
		status = "unavailable"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": status,
		"reason": reason,
	})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// withCORS allows all origins; the clients are mobile and web apps served
// from elsewhere
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
