package models

// SIPRequest describes a step-up SIP projection.
type SIPRequest struct {
	MonthlySIP   float64 `json:"monthly_sip" validate:"gte=1000,lte=100000"`
	Years        int     `json:"years" validate:"gte=1,lte=40"`
	AnnualReturn float64 `json:"annual_return" validate:"gte=1,lte=30"`
	StepUp       float64 `json:"step_up" validate:"gte=0,lte=25"`
}

// SIPYear is the running position at the end of one year.
type SIPYear struct {
	Year     int     `json:"year"`
	Invested float64 `json:"invested"`
	Value    float64 `json:"value"`
}

// SIPProjection is the outcome of a SIP projection.
type SIPProjection struct {
	Request  SIPRequest `json:"request"`
	Invested float64    `json:"invested"`
	Value    float64    `json:"value"`
	Gain     float64    `json:"gain"`
	Years    []SIPYear  `json:"years"`
}

// GoalRequest asks for the SIP needed to reach a target corpus.
type GoalRequest struct {
	TargetAmount float64 `json:"target_amount" validate:"gt=0"`
	Years        int     `json:"years" validate:"gte=1,lte=40"`
	AnnualReturn float64 `json:"annual_return" validate:"gte=0,lte=30"`
}

// GoalPlan is the required monthly SIP for a goal.
type GoalPlan struct {
	Request    GoalRequest `json:"request"`
	MonthlySIP float64     `json:"monthly_sip"`
	Invested   float64     `json:"invested"`
	Gain       float64     `json:"gain"`
}

// ComparisonRow is one metric across a set of compared funds.
type ComparisonRow struct {
	Metric string   `json:"metric"`
	Values []string `json:"values"`
}

// Comparison lays funds side by side.
type Comparison struct {
	SchemeCodes []string        `json:"scheme_codes"`
	Names       []string        `json:"names"`
	Rows        []ComparisonRow `json:"rows"`
}
