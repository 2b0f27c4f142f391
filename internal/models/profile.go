package models

// Horizon is the investment horizon chosen by the investor.
type Horizon string

const (
	Horizon1Y  Horizon = "1 Year"
	Horizon3Y  Horizon = "3 Years"
	Horizon5Y  Horizon = "5 Years"
	Horizon10Y Horizon = "10+ Years"
)

// Years returns the horizon length in whole years.
func (h Horizon) Years() int {
	switch h {
	case Horizon1Y:
		return 1
	case Horizon3Y:
		return 3
	case Horizon5Y:
		return 5
	case Horizon10Y:
		return 10
	}
	return 0
}

// GoalType is the purpose of the investment.
type GoalType string

const (
	GoalWealthCreation GoalType = "Wealth Creation"
	GoalRetirement     GoalType = "Retirement"
	GoalChildEducation GoalType = "Child Education"
	GoalHousePurchase  GoalType = "House Purchase"
	GoalEmergencyFund  GoalType = "Emergency Fund"
)

// UserInputs is the investor profile that drives recommendations.
type UserInputs struct {
	SIPAmount    float64     `json:"sip_amount" validate:"gte=0"`
	LumpSum      float64     `json:"lump_sum" validate:"gte=0"`
	Horizon      Horizon     `json:"horizon" validate:"required,oneof='1 Year' '3 Years' '5 Years' '10+ Years'"`
	RiskProfile  RiskProfile `json:"risk_profile" validate:"required,oneof=Low Medium High"`
	GoalType     GoalType    `json:"goal_type" validate:"omitempty,oneof='Wealth Creation' 'Retirement' 'Child Education' 'House Purchase' 'Emergency Fund'"`
	TargetAmount *float64    `json:"target_amount,omitempty" validate:"omitempty,gt=0"`
}

// DefaultUserInputs mirrors the starting profile of the dashboard.
func DefaultUserInputs() UserInputs {
	return UserInputs{
		SIPAmount:   10000,
		LumpSum:     0,
		Horizon:     Horizon5Y,
		RiskProfile: RiskMedium,
		GoalType:    GoalWealthCreation,
	}
}

// AllocationSlice is one fund's share of the suggested split.
type AllocationSlice struct {
	SchemeCode string  `json:"scheme_code"`
	Name       string  `json:"name"`
	Percent    int     `json:"percent"`
	MonthlySIP float64 `json:"monthly_sip"`
}

// Recommendation is a ranked shortlist for a profile.
type Recommendation struct {
	Profile    UserInputs        `json:"profile"`
	Funds      []MutualFund      `json:"funds"`
	Allocation []AllocationSlice `json:"allocation"`
	Advice     *Advice           `json:"advice,omitempty"`
	Generation uint64            `json:"generation"`
}
