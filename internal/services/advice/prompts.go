package advice

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/nivesh/internal/models"
)

// AdvisorPersona is sent as the system instruction by transports that support one.
const AdvisorPersona = "You are a SEBI-aware Indian mutual fund advisor. Be factual, avoid guarantees of returns and keep answers brief."

// narrativePrompt asks for a short plain-text summary of a shortlist.
func narrativePrompt(profile models.UserInputs, shortlist []models.MutualFund) string {
	var funds strings.Builder
	if len(shortlist) == 0 {
		funds.WriteString("- (no fund matched the profile)\n")
	}
	for _, f := range shortlist {
		fmt.Fprintf(&funds, "- %s (%s, Score: %d/100)\n", f.Name, f.Category, f.Score.Total)
	}

	goal := string(profile.GoalType)
	if goal == "" {
		goal = "Wealth Creation"
	}

	return fmt.Sprintf(`Act as an experienced Indian mutual fund advisor.
Analyze this investor profile and the recommended mutual funds.

Investor Profile:
- Monthly SIP: Rs %.0f
- Horizon: %s
- Risk: %s
- Goal: %s

Recommended Funds:
%s
Provide a concise 3-paragraph summary covering:
1. Why this mix suits a %s risk profile over %s.
2. How expense ratios affect the %s goal.
3. One practical tip for staying invested through a market crash with this profile.

Return plain text only. Keep it professional and encouraging.`,
		profile.SIPAmount, profile.Horizon, profile.RiskProfile, goal,
		funds.String(),
		profile.RiskProfile, profile.Horizon, goal)
}

// analysisPrompt asks for a structured research record for one fund.
func analysisPrompt(f models.MutualFund) string {
	return fmt.Sprintf(`Provide a research summary for the Indian mutual fund "%s" (category: %s, AMFI code %s).

Respond with a single JSON object with exactly these keys:
{
  "aiStrategy": string, two sentences on the investment strategy,
  "benchmark": string, the official benchmark index,
  "catAvg5y": number, category average 5 year CAGR in percent,
  "estimated5y": number, this fund's 5 year CAGR in percent,
  "exitLoad": string,
  "expenseRatio": number, direct plan TER in percent,
  "manager": {"name": string, "exp": number of years},
  "redFlags": array of short strings, empty when none,
  "riskRatios": {"sharpe": number, "alpha": number, "beta": number, "sortino": number, "standard_deviation": number},
  "taxSummary": string, one sentence on capital gains treatment
}
Omit a key when the value is not known. Do not invent precision.`,
		f.Name, f.Category, f.SchemeCode)
}
