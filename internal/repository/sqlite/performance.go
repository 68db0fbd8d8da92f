package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

var _ repository.PerformanceRepository = (*DB)(nil)

// CreateMetric appends one scored observation. Metrics are never updated or
// deleted.
func (db *DB) CreateMetric(ctx context.Context, m *model.PerformanceMetric) error {
	var details any // NULL when the caller supplied none
	if m.Details != nil {
		encoded, err := encodeJSON(m.Details)
		if err != nil {
			return fmt.Errorf("sqlite: encoding metric details: %w", err)
		}
		details = encoded
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO performance_metrics (id, user_id, date, category, score, details)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Date, m.Category, m.Score, details,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting metric for %s: %w", m.UserID, err)
	}
	return nil
}

// ListMetrics returns the user's metrics narrowed by the query. Default
// ordering is newest first; range queries ask for oldest first.
func (db *DB) ListMetrics(ctx context.Context, userID string, q repository.MetricQuery) ([]model.PerformanceMetric, error) {
	query := `SELECT id, user_id, date, category, score, details
	          FROM performance_metrics WHERE user_id = ?`
	args := []any{userID}

	if q.Category != "" {
		query += " AND category = ?"
		args = append(args, q.Category)
	}
	if q.From != nil {
		query += " AND date >= ?"
		args = append(args, *q.From)
	}
	if q.To != nil {
		query += " AND date <= ?"
		args = append(args, *q.To)
	}
	if q.Ascending {
		query += " ORDER BY date ASC"
	} else {
		query += " ORDER BY date DESC"
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing metrics for %s: %w", userID, err)
	}
	defer rows.Close()

	metrics := []model.PerformanceMetric{}
	for rows.Next() {
		var (
			m       model.PerformanceMetric
			details sql.NullString
		)
		err := rows.Scan(&m.ID, &m.UserID, &m.Date, &m.Category, &m.Score, &details)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning metric: %w", err)
		}
		if details.Valid && details.String != "" {
			if err := decodeNullableJSON(details, &m.Details); err != nil {
				return nil, fmt.Errorf("sqlite: metric %s details: %w", m.ID, err)
			}
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating metrics: %w", err)
	}

	return metrics, nil
}
