// Package server exposes the Nivesh REST API, the universe WebSocket, the
// Prometheus endpoint and MCP over streamable HTTP.
package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bobmcallan/nivesh/internal/app"
	"github.com/bobmcallan/nivesh/internal/common"
)

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 5 * time.Minute // advice and full syncs run long
	idleTimeout  = time.Minute
)

// Server serves the application over HTTP.
type Server struct {
	app          *app.App
	http         *http.Server
	logger       *common.Logger
	shutdownChan chan struct{}
}

// NewServer builds the routes and middleware for a.
func NewServer(a *app.App) *Server {
	s := &Server{app: a, logger: a.Logger}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	errLog := a.Logger.With().Str("component", "http").Logger()
	s.http = &http.Server{
		Addr:         net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:      applyMiddleware(mux, a.Logger, a.Metrics),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     log.New(errLog, "", 0),
	}
	// Hijacked WebSocket connections are not tracked by http.Server.
	s.http.RegisterOnShutdown(a.Events.Stop)
	return s
}

// SetShutdownChannel registers the channel signalled by POST /api/shutdown.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Start listens and serves until Shutdown. It returns http.ErrServerClosed
// after a graceful stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting REST API server")
	return s.http.Serve(ln)
}

// Shutdown drains in-flight requests and closes the universe sockets.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
