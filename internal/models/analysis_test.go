package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepAnalysis_RiskRatiosNeedFullSet(t *testing.T) {
	var a DeepAnalysis
	require.NoError(t, json.Unmarshal([]byte(`{"benchmark":"Nifty 50 TRI","riskRatios":{"sharpe":1.2,"beta":0.9}}`), &a))
	assert.Nil(t, a.RiskRatios)
	assert.Equal(t, "Nifty 50 TRI", a.Benchmark)

	var full DeepAnalysis
	require.NoError(t, json.Unmarshal([]byte(`{"riskRatios":{"sharpe":1.2,"alpha":-0.4,"beta":0.9,"sortino":1.6,"standard_deviation":12.5}}`), &full))
	require.NotNil(t, full.RiskRatios)
	assert.Equal(t, RiskRatios{Sharpe: 1.2, Alpha: -0.4, Beta: 0.9, Sortino: 1.6, StandardDeviation: 12.5}, *full.RiskRatios)
}

func TestDeepAnalysis_RoundTrip(t *testing.T) {
	in := DeepAnalysis{
		SchemeCode: "120847",
		RiskRatios: &RiskRatios{Sharpe: 1, Alpha: 2, Beta: 1.1, Sortino: 1.4, StandardDeviation: 16},
		RedFlags:   []string{"High churn"},
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out DeepAnalysis
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.SchemeCode, out.SchemeCode)
	assert.Equal(t, in.RiskRatios, out.RiskRatios)
	assert.Equal(t, in.RedFlags, out.RedFlags)
}
