package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	phttp "github.com/freekieb7/phantom/http"
)

// Server runs a native handler on the standard library server, traced with otelhttp.
type Server struct {
	Name   string
	Logger *slog.Logger

	server *http.Server
}

func NewServer(name string, handler phttp.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		Name:   name,
		Logger: logger,
		server: &http.Server{
			Handler:           otelhttp.NewHandler(Handler(handler), name),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       phttp.DefaultIdleTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
	}
}

func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(listener)
}

// Serve returns phttp.ErrServerClosed after Shutdown, like the native server.
func (s *Server) Serve(listener net.Listener) error {
	err := s.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return phttp.ErrServerClosed
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
