package server

import (
	"net/http"

	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/calculator"
)

// Dashboard slider defaults.
var defaultSIPRequest = models.SIPRequest{
	MonthlySIP:   10000,
	Years:        10,
	AnnualReturn: 12,
	StepUp:       0,
}

// handleSIP handles POST /api/calculators/sip.
func (s *Server) handleSIP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req := defaultSIPRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !ValidateRequest(w, req) {
		return
	}

	p, err := calculator.ProjectSIP(req)
	if err != nil {
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), CodeInvalidRequest)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// handleSIPChart handles GET /api/calculators/sip/chart with the projection
// inputs as query parameters.
func (s *Server) handleSIPChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	req := models.SIPRequest{
		MonthlySIP:   QueryFloat(r, "monthly_sip", defaultSIPRequest.MonthlySIP),
		Years:        QueryInt(r, "years", defaultSIPRequest.Years),
		AnnualReturn: QueryFloat(r, "annual_return", defaultSIPRequest.AnnualReturn),
		StepUp:       QueryFloat(r, "step_up", defaultSIPRequest.StepUp),
	}
	if !ValidateRequest(w, req) {
		return
	}

	p, err := calculator.ProjectSIP(req)
	if err != nil {
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), CodeInvalidRequest)
		return
	}
	png, err := calculator.RenderSIPChart(p)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WritePNG(w, png)
}

// handleGoal handles POST /api/calculators/goal.
func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.GoalRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !ValidateRequest(w, req) {
		return
	}

	plan, err := calculator.PlanGoal(req)
	if err != nil {
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), CodeInvalidRequest)
		return
	}
	WriteJSON(w, http.StatusOK, plan)
}
