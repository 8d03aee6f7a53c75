package telemetry

import (
	"context"
	"net/http"
	"sync/atomic"
)

// Server exposes a collector and health endpoints over HTTP.
type Server struct {
	srv        *http.Server
	collector  *Collector
	readyState atomic.Bool
}

// NewServer creates a telemetry server. It returns nil when addr is empty.
func NewServer(addr string, collector *Collector) *Server {
	if addr == "" {
		return nil
	}

	server := &Server{collector: collector}
	server.srv = &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}
	return server
}

// Handler returns the HTTP handler serving /metrics, /healthz and /readyz
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if s.readyState.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})
	return mux
}

func (s *Server) metricsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if s.collector == nil {
		return
	}
	_ = s.collector.WritePrometheus(w)
}

// Start begins serving in a separate goroutine.
func (s *Server) Start() error {
	if s == nil || s.srv == nil {
		return nil
	}
	go func() {
		_ = s.srv.ListenAndServe()
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// SetReady updates the readiness state exposed on /readyz. A run sets it
// once its result is available.
func (s *Server) SetReady(ready bool) {
	if s == nil {
		return
	}
	s.readyState.Store(ready)
}
