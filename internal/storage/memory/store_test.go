package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nivesh/internal/models"
)

func TestManager_History(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	_, err := m.GetHistory(ctx, "1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	h := &models.NavHistory{SchemeCode: "1", Points: []models.NavPoint{{NAV: 10}}}
	require.NoError(t, m.SaveHistory(ctx, h))
	h.Points[0].NAV = 99

	got, err := m.GetHistory(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Points[0].NAV, "saved copy must not alias the caller's slice")

	assert.Error(t, m.SaveHistory(ctx, &models.NavHistory{}))
}

func TestManager_AnalysisAndAdvice(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	_, err := m.GetAnalysis(ctx, "1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, m.SaveAnalysis(ctx, &models.DeepAnalysis{SchemeCode: "1", AIStrategy: "x"}))
	a, err := m.GetAnalysis(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "x", a.AIStrategy)

	_, err = m.GetAdvice(ctx, "k")
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, m.SaveAdvice(ctx, &models.Advice{Key: "k", Text: "t"}))
	adv, err := m.GetAdvice(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "t", adv.Text)

	assert.Equal(t, "memory", m.Backend())
	assert.NoError(t, m.Close())
}
