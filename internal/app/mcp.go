package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/calculator"
	"github.com/bobmcallan/nivesh/internal/services/navsync"
)

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	s.AddTool(createGetVersionTool(), a.handleGetVersion)
	s.AddTool(createRecommendFundsTool(), a.handleRecommendFunds)
	s.AddTool(createGetFundTool(), a.handleGetFund)
	s.AddTool(createSearchFundsTool(), a.handleSearchFunds)
	s.AddTool(createSyncUniverseTool(), a.handleSyncUniverse)
	s.AddTool(createAnalyzeFundTool(), a.handleAnalyzeFund)
	s.AddTool(createSIPProjectionTool(), a.handleSIPProjection)
	s.AddTool(createGoalPlanTool(), a.handleGoalPlan)
}

func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the Nivesh server version and status. Use this to verify connectivity."),
	)
}

func createRecommendFundsTool() mcp.Tool {
	return mcp.NewTool("recommend_funds",
		mcp.WithDescription("Shortlist mutual funds for an investor profile, ranked by quality score, with an equal SIP split."),
		mcp.WithString("risk_profile",
			mcp.Required(),
			mcp.Enum(string(models.RiskLow), string(models.RiskMedium), string(models.RiskHigh)),
			mcp.Description("Investor risk appetite"),
		),
		mcp.WithString("horizon",
			mcp.Required(),
			mcp.Enum(string(models.Horizon1Y), string(models.Horizon3Y), string(models.Horizon5Y), string(models.Horizon10Y)),
			mcp.Description("Investment horizon"),
		),
		mcp.WithNumber("sip_amount",
			mcp.Description("Monthly SIP in rupees (default: 10000)"),
		),
		mcp.WithString("goal_type",
			mcp.Description("Goal, e.g. 'Wealth Creation', 'Retirement'"),
		),
		mcp.WithBoolean("include_advice",
			mcp.Description("Attach an AI narrative for the shortlist (default: false)"),
		),
	)
}

func createGetFundTool() mcp.Tool {
	return mcp.NewTool("get_fund",
		mcp.WithDescription("Get a fund's record: NAV, trailing returns, risk ratios, score and manager."),
		mcp.WithString("scheme_code",
			mcp.Required(),
			mcp.Description("AMFI scheme code (e.g., '119598')"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Fetch the latest NAV history before answering. Adds unknown schemes to the universe."),
		),
	)
}

func createSearchFundsTool() mcp.Tool {
	return mcp.NewTool("search_funds",
		mcp.WithDescription("Search mutual fund schemes by name. Queries shorter than three characters return nothing."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Part of the scheme name (e.g., 'parag parikh')"),
		),
	)
}

func createSyncUniverseTool() mcp.Tool {
	return mcp.NewTool("sync_universe",
		mcp.WithDescription("Refresh every fund in the universe from live NAV histories. Fails if a sync is already running."),
	)
}

func createAnalyzeFundTool() mcp.Tool {
	return mcp.NewTool("analyze_fund",
		mcp.WithDescription("Run an AI deep analysis of a fund (risk ratios, manager, costs, red flags, tax) and fold it into the record."),
		mcp.WithString("scheme_code",
			mcp.Required(),
			mcp.Description("AMFI scheme code"),
		),
	)
}

func createSIPProjectionTool() mcp.Tool {
	return mcp.NewTool("sip_projection",
		mcp.WithDescription("Project a step-up SIP year by year with monthly compounding."),
		mcp.WithNumber("monthly_sip", mcp.Required(), mcp.Description("Monthly instalment in rupees (1000-100000)")),
		mcp.WithNumber("years", mcp.Required(), mcp.Description("Duration in years (1-40)")),
		mcp.WithNumber("annual_return", mcp.Required(), mcp.Description("Expected annual return in percent (1-30)")),
		mcp.WithNumber("step_up", mcp.Description("Annual increase of the instalment in percent (default: 0)")),
	)
}

func createGoalPlanTool() mcp.Tool {
	return mcp.NewTool("goal_plan",
		mcp.WithDescription("Work out the monthly SIP needed to reach a target corpus."),
		mcp.WithNumber("target_amount", mcp.Required(), mcp.Description("Target corpus in rupees")),
		mcp.WithNumber("years", mcp.Required(), mcp.Description("Years to the goal (1-40)")),
		mcp.WithNumber("annual_return", mcp.Required(), mcp.Description("Expected annual return in percent")),
	)
}

func (a *App) handleGetVersion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v := common.GetVersionInfo()
	snap := a.Universe.Snapshot()
	result := fmt.Sprintf("Nivesh MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nFunds: %d\nLast synced: %s\nStatus: OK",
		v.Version, v.Build, v.Commit, len(snap.Funds), snap.LastSyncedLabel())
	return textResult(result), nil
}

func (a *App) handleRecommendFunds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile := models.DefaultUserInputs()
	profile.RiskProfile = models.RiskProfile(request.GetString("risk_profile", ""))
	profile.Horizon = models.Horizon(request.GetString("horizon", ""))
	profile.SIPAmount = request.GetFloat("sip_amount", profile.SIPAmount)
	profile.GoalType = models.GoalType(request.GetString("goal_type", string(profile.GoalType)))

	if err := common.Validate(profile); err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil
	}

	rec := a.RecommendFunds(ctx, profile, request.GetBool("include_advice", false))
	return textResult(formatRecommendation(rec)), nil
}

func (a *App) handleGetFund(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("scheme_code")
	if err != nil || code == "" {
		return errorResult("Error: scheme_code parameter is required"), nil
	}

	if request.GetBool("refresh", false) {
		f, err := a.Sync.SyncOne(ctx, code)
		if err != nil && f.SchemeCode == "" {
			a.Logger.Warn().Err(err).Str("scheme_code", code).Msg("MCP: fund refresh failed")
			return errorResult(fmt.Sprintf("Error refreshing fund %s: %v", code, err)), nil
		}
		return textResult(formatFund(f)), nil
	}

	f, ok := a.Universe.Get(code)
	if !ok {
		return errorResult(fmt.Sprintf("Fund %s is not in the universe. Retry with refresh=true to fetch it.", code)), nil
	}
	return textResult(formatFund(f)), nil
}

func (a *App) handleSearchFunds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return errorResult("Error: query parameter is required"), nil
	}
	// each tool call is its own session
	res := a.Search.Query(ctx, "mcp-"+uuid.NewString()[:8], query)
	if res.Unavailable {
		return errorResult("Fund search is unavailable right now. Try again shortly."), nil
	}
	return textResult(formatSearch(res.Query, res.Results)), nil
}

func (a *App) handleSyncUniverse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := a.Sync.SyncAll(ctx)
	if errors.Is(err, navsync.ErrSyncInProgress) {
		return errorResult("A sync is already running. Try again when it completes."), nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Sync error: %v", err)), nil
	}
	return textResult(formatSyncReport(report)), nil
}

func (a *App) handleAnalyzeFund(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("scheme_code")
	if err != nil || code == "" {
		return errorResult("Error: scheme_code parameter is required"), nil
	}

	f, analysis, err := a.AnalyzeFund(ctx, code)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return errorResult(fmt.Sprintf("Fund %s is not in the universe", code)), nil
	case err != nil:
		return errorResult("AI analysis is unavailable right now. The fund's curated data is unchanged."), nil
	}
	return textResult(formatAnalysis(f, analysis)), nil
}

func (a *App) handleSIPProjection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := models.SIPRequest{
		MonthlySIP:   request.GetFloat("monthly_sip", 0),
		Years:        request.GetInt("years", 0),
		AnnualReturn: request.GetFloat("annual_return", 0),
		StepUp:       request.GetFloat("step_up", 0),
	}
	if err := common.Validate(req); err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil
	}
	p, err := calculator.ProjectSIP(req)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil
	}
	return textResult(formatSIPProjection(p)), nil
}

func (a *App) handleGoalPlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := models.GoalRequest{
		TargetAmount: request.GetFloat("target_amount", 0),
		Years:        request.GetInt("years", 0),
		AnnualReturn: request.GetFloat("annual_return", 0),
	}
	if err := common.Validate(req); err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil
	}
	plan, err := calculator.PlanGoal(req)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil
	}
	return textResult(fmt.Sprintf("## Goal Plan\n\nTo reach **%s** in %d years at %.1f%% a year, invest **%s** a month.\n\n- Invested: %s\n- Growth: %s\n",
		rupees(req.TargetAmount), req.Years, req.AnnualReturn, rupees(plan.MonthlySIP), rupees(plan.Invested), rupees(plan.Gain))), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
