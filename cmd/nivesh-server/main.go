// Command nivesh-server runs the mutual fund advisory service: the REST API,
// the universe WebSocket, Prometheus metrics and MCP over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/nivesh/internal/app"
	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/server"
)

const shutdownGrace = 10 * time.Second

func main() {
	a, err := app.NewApp(os.Getenv("NIVESH_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "nivesh-server: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	common.PrintBanner(a.Config, a.Logger)

	if err := run(a); err != nil {
		a.Logger.Error().Err(err).Msg("Server stopped with error")
		a.Close()
		os.Exit(1)
	}
	common.PrintShutdownBanner(a.Logger)
}

// run serves until a signal, an HTTP shutdown request or a listener failure.
func run(a *app.App) error {
	if err := a.StartScheduler(); err != nil {
		return fmt.Errorf("start sync scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(a)
	requested := make(chan struct{}, 1)
	srv.SetShutdownChannel(requested)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	base := "localhost:" + fmt.Sprint(a.Config.Server.Port)
	a.Logger.Info().
		Str("url", "http://"+base).
		Str("mcp", "http://"+base+"/mcp").
		Str("events", "ws://"+base+"/api/ws/universe").
		Msg("Server ready")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.Logger.Info().Msg("Shutdown signal received")
	case <-requested:
		a.Logger.Info().Msg("Shutdown requested over HTTP")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
