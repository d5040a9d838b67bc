package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/user/alsamixer-volume/internal/config"
	"github.com/user/alsamixer-volume/internal/logging"
	"github.com/user/alsamixer-volume/internal/registry"
	"github.com/user/alsamixer-volume/internal/sse"
)

// Server exposes the mixer over HTTP and streams its changes over SSE.
type Server struct {
	config *config.Config
	mixer  registry.Mixer
	hub    *sse.Hub
	mux    *http.ServeMux
	server *http.Server
}

// NewServer creates a new HTTP server instance.
func NewServer(cfg *config.Config, m registry.Mixer, hub *sse.Hub) *Server {
	s := &Server{
		config: cfg,
		mixer:  m,
		hub:    hub,
		mux:    http.NewServeMux(),
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.Port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.loggingMiddleware(s.corsMiddleware(s.mux)),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: /events streams for as long as the client stays
		IdleTimeout: 60 * time.Second,
	}
	if hub != nil {
		// Shutdown waits for /events handlers, which end when the hub closes them.
		s.server.RegisterOnShutdown(hub.Stop)
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "alsamixer-volume %s\n", registry.Version)
	})

	// SSE endpoint
	s.mux.Handle("/events", s.hub)

	s.mux.HandleFunc("GET /api/volume", s.GetVolumeHandler)
	s.mux.HandleFunc("POST /api/volume", s.SetVolumeHandler)
	s.mux.HandleFunc("GET /api/mute", s.GetMuteHandler)
	s.mux.HandleFunc("POST /api/mute", s.SetMuteHandler)
	s.mux.HandleFunc("GET /api/config", s.ConfigHandler)
}

// loggingMiddleware logs all HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logging.Infof("[%s] %s %s %d %v",
			r.Method,
			r.URL.Path,
			r.RemoteAddr,
			wrapped.statusCode,
			time.Since(start),
		)
	})
}

// corsMiddleware adds CORS headers to allow all origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets SSE streams through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start begins the HTTP server. It returns nil after Stop.
func (s *Server) Start() error {
	logging.Infof("Starting server on %s", s.server.Addr)
	return ignoreClosed(s.server.ListenAndServe())
}

// Serve accepts connections on l. It returns nil after Stop.
func (s *Server) Serve(l net.Listener) error {
	logging.Infof("Starting server on %s", l.Addr())
	return ignoreClosed(s.server.Serve(l))
}

// Stop gracefully shuts down the HTTP server and the event hub.
func (s *Server) Stop(ctx context.Context) error {
	logging.Infof("Shutting down server...")
	return s.server.Shutdown(ctx)
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
