package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/calculator"
	"github.com/bobmcallan/nivesh/internal/services/navsync"
)

const maxCompareFunds = 4

type fundDetailResponse struct {
	Fund             models.MutualFund      `json:"fund"`
	Returns          []models.DisplayReturn `json:"returns"`
	BenchmarkReturns []models.DisplayReturn `json:"benchmark_returns,omitempty"`
	Generation       uint64                 `json:"generation"`
	Warning          string                 `json:"warning,omitempty"`
}

// handleFundList handles GET /api/funds with optional category and risk filters.
func (s *Server) handleFundList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snap := s.app.Universe.Snapshot()
	category := strings.ToLower(r.URL.Query().Get("category"))
	risk := r.URL.Query().Get("risk")

	funds := make([]models.MutualFund, 0, len(snap.Funds))
	for _, f := range snap.Funds {
		if category != "" && !strings.Contains(strings.ToLower(f.Category), category) {
			continue
		}
		if risk != "" && !strings.EqualFold(string(f.Risk), risk) {
			continue
		}
		funds = append(funds, f)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"generation":  snap.Generation,
		"synced_at":   snap.SyncedAt,
		"last_synced": snap.LastSyncedLabel(),
		"count":       len(funds),
		"funds":       funds,
	})
}

// handleFundGet handles GET /api/funds/{code}. With ?refresh=true the scheme
// is refreshed first; a failed refresh still returns the existing record.
func (s *Server) handleFundGet(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var warning string
	f, ok := s.app.Universe.Get(code)
	if QueryBool(r, "refresh") {
		refreshed, err := s.app.Sync.SyncOne(r.Context(), code)
		if err != nil {
			if !ok {
				WriteErrorWithCode(w, http.StatusBadGateway, err.Error(), CodeDataUnavailable)
				return
			}
			s.logger.Warn().Err(err).Str("scheme_code", code).Msg("Fund refresh failed, serving cached record")
			warning = "Live data unavailable; showing last known values"
		} else {
			f, ok = refreshed, true
		}
	}
	if !ok {
		WriteErrorWithCode(w, http.StatusNotFound, "Fund not found: "+code, CodeNotFound)
		return
	}

	resp := fundDetailResponse{
		Fund:       f,
		Returns:    f.Returns.Display(),
		Generation: s.app.Universe.Snapshot().Generation,
		Warning:    warning,
	}
	if f.BenchmarkReturns != nil {
		resp.BenchmarkReturns = f.BenchmarkReturns.Display()
	}
	WriteJSON(w, http.StatusOK, resp)
}

// handleFundHistory handles GET /api/funds/{code}/history?days=N.
func (s *Server) handleFundHistory(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	h, err := s.app.FundHistory(r.Context(), code)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadGateway, err.Error(), CodeDataUnavailable)
		return
	}

	out := *h
	if days := QueryInt(r, "days", 0); days > 0 && len(out.Points) > 0 {
		cutoff := out.Points[0].Date.AddDate(0, 0, -days)
		n := 0
		for n < len(out.Points) && !out.Points[n].Date.Before(cutoff) {
			n++
		}
		out.Points = out.Points[:n]
	}
	WriteJSON(w, http.StatusOK, out)
}

// handleFundChart handles GET /api/funds/{code}/chart?days=N as a PNG.
func (s *Server) handleFundChart(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	h, err := s.app.FundHistory(r.Context(), code)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadGateway, err.Error(), CodeDataUnavailable)
		return
	}

	png, err := calculator.RenderNAVChart(h, QueryInt(r, "days", 365))
	if err != nil {
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), CodeDataUnavailable)
		return
	}
	WritePNG(w, png)
}

// handleFundAnalysis handles POST /api/funds/{code}/analysis.
func (s *Server) handleFundAnalysis(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	f, analysis, err := s.app.AnalyzeFund(r.Context(), code)
	switch {
	case errors.Is(err, models.ErrNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, "Fund not found: "+code, CodeNotFound)
		return
	case errors.Is(err, models.ErrAdviceUnavailable):
		WriteErrorWithCode(w, http.StatusServiceUnavailable, err.Error(), CodeAdviceUnavailable)
		return
	case err != nil:
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"fund":     f,
		"analysis": analysis,
	})
}

// handleFundCompare handles GET /api/funds/compare?codes=a,b,c.
func (s *Server) handleFundCompare(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var codes []string
	for _, c := range strings.Split(r.URL.Query().Get("codes"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	if len(codes) < 2 || len(codes) > maxCompareFunds {
		WriteErrorWithCode(w, http.StatusBadRequest, "codes must list between 2 and 4 scheme codes", CodeInvalidRequest)
		return
	}

	snap := s.app.Universe.Snapshot()
	funds := make([]models.MutualFund, 0, len(codes))
	var missing []string
	for _, c := range codes {
		f, ok := snap.Get(c)
		if !ok {
			missing = append(missing, c)
			continue
		}
		funds = append(funds, f)
	}
	if len(missing) > 0 {
		WriteErrorWithCode(w, http.StatusNotFound, "Unknown scheme codes: "+strings.Join(missing, ", "), CodeNotFound)
		return
	}

	WriteJSON(w, http.StatusOK, calculator.Compare(funds))
}

// handleSearch handles GET /api/search?q=. Each caller session keeps its own
// request sequence; responses overtaken by a newer query are flagged stale.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	session := r.Header.Get("X-Nivesh-Session")
	if session == "" {
		session = r.URL.Query().Get("session")
	}
	if session == "" {
		session = "anonymous"
	}

	WriteJSON(w, http.StatusOK, s.app.Search.Query(r.Context(), session, r.URL.Query().Get("q")))
}

// handleSync handles GET /api/sync (status) and POST /api/sync (full batch).
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"running":     s.app.Sync.Running(),
			"last_report": s.app.Sync.LastReport(),
			"last_synced": s.app.Universe.Snapshot().LastSyncedLabel(),
		})
		return
	}

	// A batch outlives a disconnected client.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*s.app.Config.Sync.GetInterval()+time.Minute)
	defer cancel()

	report, err := s.app.Sync.SyncAll(ctx)
	if errors.Is(err, navsync.ErrSyncInProgress) {
		WriteErrorWithCode(w, http.StatusConflict, "A universe sync is already running", CodeSyncInProgress)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, report)
}
