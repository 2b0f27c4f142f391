package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)
	mux.Handle("/metrics", s.app.Metrics.Handler())

	// Funds
	mux.HandleFunc("/api/funds/", s.routeFunds)
	mux.HandleFunc("/api/funds", s.handleFundList)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/sync", s.handleSync)
	mux.HandleFunc("/api/ws/universe", s.handleUniverseWS)

	// Advisory
	mux.HandleFunc("/api/recommendations", s.handleRecommendations)
	mux.HandleFunc("/api/advice", s.handleAdvice)
	mux.HandleFunc("/api/guidance", s.handleGuidance)

	// Calculators
	mux.HandleFunc("/api/calculators/sip/chart", s.handleSIPChart)
	mux.HandleFunc("/api/calculators/sip", s.handleSIP)
	mux.HandleFunc("/api/calculators/goal", s.handleGoal)

	// MCP over Streamable HTTP
	mux.Handle("/mcp", server.NewStreamableHTTPServer(s.app.MCPServer,
		server.WithStateLess(true),
	))
}

// routeFunds dispatches /api/funds/{code}/* to the appropriate handler.
func (s *Server) routeFunds(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/funds/"), "/")
	if path == "" {
		s.handleFundList(w, r)
		return
	}
	if path == "compare" {
		s.handleFundCompare(w, r)
		return
	}

	code, subpath, _ := strings.Cut(path, "/")
	switch subpath {
	case "":
		s.handleFundGet(w, r, code)
	case "history":
		s.handleFundHistory(w, r, code)
	case "chart":
		s.handleFundChart(w, r, code)
	case "analysis":
		s.handleFundAnalysis(w, r, code)
	default:
		WriteErrorWithCode(w, http.StatusNotFound, "Unknown fund resource: "+subpath, CodeNotFound)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// handleConfig reports the non-secret runtime settings.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	cfg := s.app.Config
	snap := s.app.Universe.Snapshot()

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":      cfg.Environment,
		"storage_backend":  s.app.Storage.Backend(),
		"sync_interval":    cfg.Sync.GetInterval().String(),
		"sync_running":     s.app.Sync.Running(),
		"advice_provider":  s.app.Advice.Provider(),
		"advice_available": s.app.Advice.Available(),
		"universe_funds":   len(snap.Funds),
		"generation":       snap.Generation,
		"last_synced":      snap.LastSyncedLabel(),
		"uptime":           time.Since(s.app.StartupTime).Round(time.Second).String(),
		"logging_level":    cfg.Logging.Level,
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// handleGuidance serves the category guide and tax notes.
func (s *Server) handleGuidance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": models.CategoryGuidance,
		"tax_notes":  models.TaxNotes,
	})
}

// handleUniverseWS streams universe publish events.
func (s *Server) handleUniverseWS(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	s.app.Events.ServeWS(w, r, s.app.Universe.Snapshot())
}
