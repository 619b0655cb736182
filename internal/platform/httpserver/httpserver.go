// Package httpserver wraps net/http server construction so main stays small
// and timeouts are set in exactly one place.
package httpserver

import (
	"context"
	"net/http"
	"time"
)

// Server wraps http.Server with sane defaults.
type Server struct {
	srv *http.Server
}

// New builds a server with read/write timeouts suited to a decision API:
// evaluations are CPU-bound and fast, so slow clients are the only risk.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
