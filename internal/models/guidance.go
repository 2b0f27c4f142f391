package models

// CategoryGuidance describes what each fund category is suited for.
var CategoryGuidance = map[string]string{
	"Small Cap":          "High risk, high reward. Invests in emerging companies. Minimum 7+ years horizon.",
	"Mid Cap":            "Balanced growth and volatility. Invests in future industry leaders.",
	"Large Cap":          "Relatively stable. Invests in top 100 established companies.",
	"Flexi Cap":          "Dynamic investment across all market caps based on market conditions.",
	"Multi Cap":          "Strict allocation across Small, Mid, and Large caps (25% each).",
	"ELSS":               "Tax-saving equity funds with a 3-year lock-in under Section 80C.",
	"Focused":            "Concentrated portfolio of max 30 stocks for high conviction growth.",
	"Sectoral":           "Targeted investment in specific industries like Banking, Tech, or Pharma.",
	"Aggressive Hybrid":  "Mix of 65-80% Equity and rest in Debt for capital appreciation.",
	"Balanced Advantage": "Dynamic Asset Allocation that shifts between Debt and Equity.",
	"Arbitrage":          "Low risk. Profits from price differences in cash and derivatives markets.",
	"Multi Asset":        "Invests in at least 3 asset classes (Equity, Debt, Gold).",
	"Liquid":             "Safe for 1-90 days. Ideal for parking emergency funds.",
	"Ultra Short":        "Low risk for 3-6 months. Better than savings bank returns.",
	"Corporate Bond":     "Invests in high-rated corporate papers for steady income.",
	"Gilt":               "Invests in Government Securities. Sensitive to interest rate changes.",
	"Overnight":          "Extremely safe. Invests in securities maturing in 1 day.",
	"Index Fund":         "Passive low-cost funds that track indices like Nifty 50 or Sensex.",
	"ETF":                "Exchange Traded Funds. Passive, low cost, and traded like stocks.",
	"International":      "Provides exposure to global markets like US, China, or Europe.",
}

// TaxNote is one rule of thumb on mutual fund taxation.
type TaxNote struct {
	Asset string `json:"asset"`
	Rule  string `json:"rule"`
}

// TaxNotes summarise Indian mutual fund taxation (Budget 2024-25).
var TaxNotes = []TaxNote{
	{Asset: "Equity LTCG", Rule: "12.5% on profits exceeding ₹1.25 Lakh per year (held > 12 months)."},
	{Asset: "Equity STCG", Rule: "Flat 20% on all profits if held for less than 12 months."},
	{Asset: "Debt Funds", Rule: "Taxed as per your Income Tax Slab (no indexation benefit anymore)."},
	{Asset: "Gold/International", Rule: "Taxed as per Income Tax Slab for investments after April 2023."},
	{Asset: "Tip", Rule: "Use the ₹1.25 Lakh exemption wisely by harvesting LTCG annually."},
}
