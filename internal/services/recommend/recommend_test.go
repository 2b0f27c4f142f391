package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/universe"
)

func mf(name string, risk models.RiskProfile, category string, score int) models.MutualFund {
	return models.MutualFund{
		SchemeCode: name,
		Name:       name,
		Risk:       risk,
		Category:   category,
		Returns:    models.FundReturns{},
		Score:      models.FundScore{Total: score},
	}
}

func names(funds []models.MutualFund) []string {
	out := make([]string, len(funds))
	for i, f := range funds {
		out[i] = f.Name
	}
	return out
}

func profile(risk models.RiskProfile, h models.Horizon) models.UserInputs {
	return models.UserInputs{RiskProfile: risk, Horizon: h, SIPAmount: 10000}
}

func abc() []models.MutualFund {
	return []models.MutualFund{
		mf("FundA", models.RiskHigh, "Small Cap", 92),
		mf("FundB", models.RiskMedium, "Flexi Cap", 95),
		mf("FundC", models.RiskLow, models.CategoryIndexFund, 88),
	}
}

func TestRecommend_LowProfileLongHorizon(t *testing.T) {
	got := Recommend(abc(), profile(models.RiskLow, models.Horizon10Y), 3)
	assert.Equal(t, []string{"FundC"}, names(got))
}

func TestRecommend_HighProfileFiveYears(t *testing.T) {
	got := Recommend(abc(), profile(models.RiskHigh, models.Horizon5Y), 3)
	assert.Equal(t, []string{"FundB", "FundA"}, names(got))
}

func TestRecommend_MediumProfileNoRiskFilter(t *testing.T) {
	got := Recommend(abc(), profile(models.RiskMedium, models.Horizon5Y), 3)
	assert.Equal(t, []string{"FundB", "FundA", "FundC"}, names(got))
}

func TestRecommend_UnknownProfileTreatedAsNoFilter(t *testing.T) {
	got := Recommend(abc(), profile("Aggressive", models.Horizon10Y), 3)
	assert.Len(t, got, 3)
}

func TestRecommend_OneYearOnlyLiquidDebt(t *testing.T) {
	funds := append(abc(),
		mf("Liquid", models.RiskLow, models.CategoryLiquidDebt, 70),
		mf("Large", models.RiskMedium, models.CategoryLargeCap, 99),
	)
	got := Recommend(funds, profile(models.RiskMedium, models.Horizon1Y), 3)
	assert.Equal(t, []string{"Liquid"}, names(got))
	assert.NotContains(t, names(got), "Large", "top-scoring large cap is not a one-year fund")

	assert.Empty(t, Recommend(abc(), profile(models.RiskMedium, models.Horizon1Y), 3))
}

func TestRecommend_ThreeYearCategories(t *testing.T) {
	funds := append(abc(),
		mf("Large", models.RiskMedium, models.CategoryLargeCap, 80),
		mf("Liquid", models.RiskLow, models.CategoryLiquidDebt, 60),
	)
	got := Recommend(funds, profile(models.RiskMedium, models.Horizon3Y), 5)
	assert.Equal(t, []string{"FundC", "Large", "Liquid"}, names(got))
}

func TestRecommend_LowProfileAdmitsIndexFundOfAnyRisk(t *testing.T) {
	funds := []models.MutualFund{
		mf("IndexHigh", models.RiskHigh, models.CategoryIndexFund, 50),
		mf("DebtLow", models.RiskLow, "Corporate Bond", 40),
		mf("EquityMed", models.RiskMedium, "Flexi Cap", 99),
	}
	got := Recommend(funds, profile(models.RiskLow, models.Horizon5Y), 3)
	assert.Equal(t, []string{"IndexHigh", "DebtLow"}, names(got))
}

func TestRecommend_StableOnTies(t *testing.T) {
	funds := []models.MutualFund{
		mf("First", models.RiskHigh, "Small Cap", 80),
		mf("Second", models.RiskHigh, "Mid Cap", 80),
		mf("Third", models.RiskHigh, "Flexi Cap", 80),
	}
	got := Recommend(funds, profile(models.RiskHigh, models.Horizon10Y), 3)
	assert.Equal(t, []string{"First", "Second", "Third"}, names(got))
}

func TestRecommend_Limit(t *testing.T) {
	funds := []models.MutualFund{
		mf("a", models.RiskHigh, "x", 1), mf("b", models.RiskHigh, "x", 5),
		mf("c", models.RiskHigh, "x", 3), mf("d", models.RiskHigh, "x", 4),
	}
	got := Recommend(funds, profile(models.RiskHigh, models.Horizon10Y), 3)
	assert.Equal(t, []string{"b", "d", "c"}, names(got))

	got = Recommend(funds, profile(models.RiskHigh, models.Horizon10Y), 0)
	assert.Len(t, got, DefaultLimit)
}

func TestRecommend_SkipsUnscoredFunds(t *testing.T) {
	searched := mf("Searched", models.RiskMedium, "Flexi Cap", 0)
	searched.Placeholders = []string{models.FieldScore}
	got := Recommend(append(abc(), searched), profile(models.RiskMedium, models.Horizon10Y), 5)
	assert.NotContains(t, names(got), "Searched")
}

func TestRecommend_DoesNotMutateInput(t *testing.T) {
	funds := abc()
	Recommend(funds, profile(models.RiskMedium, models.Horizon5Y), 3)
	assert.Equal(t, []string{"FundA", "FundB", "FundC"}, names(funds))
}

func TestAllocation(t *testing.T) {
	got := Allocation(abc(), 10000)
	require.Len(t, got, 3)
	for _, a := range got {
		assert.Equal(t, 33, a.Percent)
		assert.Equal(t, 3300.0, a.MonthlySIP)
	}

	assert.Empty(t, Allocation(nil, 10000))
	assert.Equal(t, 100, Allocation(abc()[:1], 5000)[0].Percent)
}

func TestService_Recommend(t *testing.T) {
	store := universe.NewStore(abc(), nil)
	svc := NewService(store, 0, nil)

	rec := svc.Recommend(context.Background(), profile(models.RiskLow, models.Horizon10Y))
	assert.Equal(t, []string{"FundC"}, names(rec.Funds))
	require.Len(t, rec.Allocation, 1)
	assert.Equal(t, 100, rec.Allocation[0].Percent)
	assert.Equal(t, 10000.0, rec.Allocation[0].MonthlySIP)
}
