package server

import (
	"net/http"

	"github.com/bobmcallan/nivesh/internal/models"
)

type recommendationRequest struct {
	models.UserInputs
	IncludeAdvice bool `json:"include_advice"`
}

// handleRecommendations handles POST /api/recommendations.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req := recommendationRequest{UserInputs: models.DefaultUserInputs()}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !ValidateRequest(w, req.UserInputs) {
		return
	}

	WriteJSON(w, http.StatusOK, s.app.RecommendFunds(r.Context(), req.UserInputs, req.IncludeAdvice))
}

// handleAdvice handles POST /api/advice. The narrative always comes back;
// when the model is unreachable it carries the offline text and Fallback is set.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	profile := models.DefaultUserInputs()
	if !DecodeJSON(w, r, &profile) {
		return
	}
	if !ValidateRequest(w, profile) {
		return
	}

	rec := s.app.RecommendFunds(r.Context(), profile, true)
	codes := make([]string, len(rec.Funds))
	for i, f := range rec.Funds {
		codes[i] = f.SchemeCode
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"advice":     rec.Advice,
		"shortlist":  codes,
		"generation": rec.Generation,
	})
}
