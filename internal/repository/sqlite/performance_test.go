package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

func TestMetrics_FilterAndOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, rec := range []struct {
		category string
		score    float64
	}{
		{model.CategoryGrammar, 80},
		{model.CategoryVocabulary, 60},
		{model.CategoryGrammar, 90},
	} {
		m := &model.PerformanceMetric{
			ID:       xid.New().String(),
			UserID:   userID,
			Date:     base.AddDate(0, 0, i),
			Category: rec.category,
			Score:    rec.score,
			Details:  map[string]any{"attempt": float64(i)},
		}
		require.NoError(t, db.CreateMetric(ctx, m))
	}

	grammar, err := db.ListMetrics(ctx, userID, repository.MetricQuery{Category: model.CategoryGrammar})
	require.NoError(t, err)
	require.Len(t, grammar, 2)
	// Default ordering is newest first.
	assert.Equal(t, float64(90), grammar[0].Score)

	asc, err := db.ListMetrics(ctx, userID, repository.MetricQuery{Ascending: true})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, float64(80), asc[0].Score)
	assert.Equal(t, map[string]any{"attempt": float64(0)}, asc[0].Details)

	from := base.AddDate(0, 0, 1)
	ranged, err := db.ListMetrics(ctx, userID, repository.MetricQuery{From: &from})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}

func TestListMetrics_ScopedToUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mine := createTestUser(t, db, "maria@example.com")
	theirs := createTestUser(t, db, "other@example.com")

	m := &model.PerformanceMetric{
		ID:       xid.New().String(),
		UserID:   mine,
		Date:     time.Now(),
		Category: model.CategoryGrammar,
		Score:    75,
	}
	require.NoError(t, db.CreateMetric(ctx, m))

	metrics, err := db.ListMetrics(ctx, theirs, repository.MetricQuery{})
	require.NoError(t, err)
	assert.Empty(t, metrics)
}
