package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

// trendWindowDays is how far back the daily trend in the summary reaches.
const trendWindowDays = 30

// PerformanceService records standalone performance metrics and derives
// summaries from them.
type PerformanceService struct {
	metrics repository.PerformanceRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewPerformanceService(metrics repository.PerformanceRepository, logger *slog.Logger) *PerformanceService {
	return &PerformanceService{
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// RecordPerformanceMetric stores one scored observation.
func (s *PerformanceService) RecordPerformanceMetric(ctx context.Context, userID, category string, score float64, details map[string]any) (*model.PerformanceMetric, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}
	category = strings.TrimSpace(category)
	if !model.ValidMetricCategory(category) {
		return nil, apperror.ValidationFailed("category", "unknown metric category")
	}
	if score < 0 || score > 100 {
		return nil, apperror.ValidationFailed("score", "score must be between 0 and 100")
	}

	m := &model.PerformanceMetric{
		ID:       xid.New().String(),
		UserID:   userID,
		Date:     s.now(),
		Category: category,
		Score:    score,
		Details:  details,
	}

	if err := s.metrics.CreateMetric(ctx, m); err != nil {
		s.logger.Error("failed to record metric",
			slog.String("user_id", userID),
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("recording metric: %w", err)
	}

	return m, nil
}

// GetPerformanceMetrics lists the user's metrics, optionally narrowed by
// category and date range. Newest first unless ascending is requested.
func (s *PerformanceService) GetPerformanceMetrics(ctx context.Context, userID string, q repository.MetricQuery) ([]model.PerformanceMetric, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}
	if q.Category != "" && !model.ValidMetricCategory(q.Category) {
		return nil, apperror.ValidationFailed("category", "unknown metric category")
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, apperror.ValidationFailed("to", "date range end precedes its start")
	}

	metrics, err := s.metrics.ListMetrics(ctx, userID, q)
	if err != nil {
		s.logger.Error("failed to list metrics", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing metrics: %w", err)
	}
	return metrics, nil
}

// GetPerformanceSummary derives per-category averages, a 30-day daily
// trend, and overall totals from the user's full metric history.
func (s *PerformanceService) GetPerformanceSummary(ctx context.Context, userID string) (*model.PerformanceSummary, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}

	metrics, err := s.metrics.ListMetrics(ctx, userID, repository.MetricQuery{Ascending: true})
	if err != nil {
		return nil, fmt.Errorf("listing metrics: %w", err)
	}

	summary := &model.PerformanceSummary{
		CategoryData: []model.CategorySummary{},
		TrendData:    []model.TrendPoint{},
	}
	if len(metrics) == 0 {
		return summary, nil
	}

	type acc struct {
		sum   float64
		count int
	}

	byCategory := make(map[string]*acc)
	byDay := make(map[string]*acc)
	var total float64

	trendStart := s.now().AddDate(0, 0, -trendWindowDays)

	for _, m := range metrics {
		total += m.Score

		c, ok := byCategory[m.Category]
		if !ok {
			c = &acc{}
			byCategory[m.Category] = c
		}
		c.sum += m.Score
		c.count++

		if m.Date.Before(trendStart) {
			continue
		}
		day := m.Date.Format(dateLayout)
		d, ok := byDay[day]
		if !ok {
			d = &acc{}
			byDay[day] = d
		}
		d.sum += m.Score
		d.count++
	}

	for _, category := range []string{
		model.CategoryPronunciation, model.CategoryVocabulary,
		model.CategoryGrammar, model.CategoryConversation,
	} {
		if c, ok := byCategory[category]; ok {
			summary.CategoryData = append(summary.CategoryData, model.CategorySummary{
				Category: category,
				Average:  c.sum / float64(c.count),
				Count:    c.count,
			})
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		d := byDay[day]
		summary.TrendData = append(summary.TrendData, model.TrendPoint{
			Date:    day,
			Average: d.sum / float64(d.count),
			Count:   d.count,
		})
	}

	summary.TotalSessions = len(metrics)
	summary.OverallAverage = total / float64(len(metrics))
	return summary, nil
}
