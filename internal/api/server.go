// Package api is the HTTP transport around the operation pipeline. It
// parses request bodies, hands them to the handler and writes structured
// responses; all pipeline semantics live below it.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"docstore/internal/config"
	"docstore/internal/globalconst"
	"docstore/internal/handler"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPFunc is a user-registered HTTP endpoint served under /functions/.
type HTTPFunc func(w http.ResponseWriter, r *http.Request)

// Server exposes the pipeline over HTTP: POST /store for operations,
// /info as a liveness probe, /functions/<name> for registered functions
// and optional static hosting at the root.
type Server struct {
	cfg      *config.Config
	pipeline *handler.Handler

	mu        sync.RWMutex
	functions map[string]HTTPFunc

	publicDir string
	spa       bool

	srv *http.Server
}

// NewServer returns a Server over the given pipeline.
func NewServer(cfg *config.Config, pipeline *handler.Handler) *Server {
	return &Server{
		cfg:       cfg,
		pipeline:  pipeline,
		functions: make(map[string]HTTPFunc),
	}
}

// Function registers an HTTP function reachable at /functions/<name>.
func (s *Server) Function(name string, fn HTTPFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.functions[name] = fn
}

// Public serves static files from dir at the server root.
func (s *Server) Public(dir string) {
	s.publicDir = dir
	s.spa = false
}

// SinglePageApp serves static files from dir, falling back to its
// index.html for unknown paths so client-side routing works.
func (s *Server) SinglePageApp(dir string) {
	s.publicDir = dir
	s.spa = true
}

// Routes builds the HTTP handler serving the store, info, functions and
// static endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/store", LogRequest(http.HandlerFunc(s.storeHandler)))
	mux.Handle("/info", LogRequest(http.HandlerFunc(s.infoHandler)))
	mux.Handle("/functions/", LogRequest(http.HandlerFunc(s.functionHandler)))
	if s.publicDir != "" {
		mux.Handle("/", LogRequest(http.HandlerFunc(s.staticHandler)))
	}
	return mux
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.srv = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("HTTP server listening", "addr", s.cfg.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) storeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"response": globalconst.StatusInvalidRequest,
			"message":  "store requests must be POST",
		})
		return
	}

	var req handler.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"response": globalconst.StatusInvalidRequest,
			"message":  "malformed request body",
		})
		return
	}
	// Bypass flags are server-side only, regardless of what the body said.
	req.BypassRules = false
	req.BypassTriggers = false

	writeJSON(w, http.StatusOK, s.pipeline.Handle(&req))
}

func (s *Server) infoHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"response": globalconst.StatusOk})
}

// functionHandler routes /functions/<name> to the registered function,
// behind a recover guard so a faulty function answers 500 instead of
// killing the connection.
func (s *Server) functionHandler(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/functions/")

	s.mu.RLock()
	fn, ok := s.functions[name]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("HTTP function panicked", "name", name, "panic", rec)
			http.Error(w, fmt.Sprintf("function %q failed", name), http.StatusInternalServerError)
		}
	}()
	fn(w, r)
}

func (s *Server) staticHandler(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.publicDir, filepath.Clean("/"+r.URL.Path))

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if s.spa {
			http.ServeFile(w, r, filepath.Join(s.publicDir, "index.html"))
			return
		}
		if info != nil && info.IsDir() {
			index := filepath.Join(path, "index.html")
			if _, err := os.Stat(index); err == nil {
				http.ServeFile(w, r, index)
				return
			}
		}
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
