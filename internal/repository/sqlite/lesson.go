package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

var _ repository.LessonRepository = (*DB)(nil)

// ListLessons returns lessons matching the filter, oldest first (the order
// the catalog was authored in).
func (db *DB) ListLessons(ctx context.Context, filter repository.LessonFilter) ([]model.Lesson, error) {
	query := `SELECT id, title, description, language, level, duration, type, content, created_at
	          FROM lessons`
	var (
		conds []string
		args  []any
	)
	if filter.Language != "" {
		conds = append(conds, "language = ?")
		args = append(args, filter.Language)
	}
	if filter.Level != "" {
		conds = append(conds, "level = ?")
		args = append(args, filter.Level)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing lessons: %w", err)
	}
	defer rows.Close()

	lessons := []model.Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating lessons: %w", err)
	}

	return lessons, nil
}

// GetLesson retrieves one lesson by ID.
func (db *DB) GetLesson(ctx context.Context, id string) (*model.Lesson, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, title, description, language, level, duration, type, content, created_at
		 FROM lessons WHERE id = ?`, id)

	l, err := scanLesson(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("lesson", id)
		}
		return nil, fmt.Errorf("sqlite: getting lesson %s: %w", id, err)
	}
	return l, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLesson(s scanner) (*model.Lesson, error) {
	var (
		l       model.Lesson
		content string
	)
	err := s.Scan(&l.ID, &l.Title, &l.Description, &l.Language, &l.Level,
		&l.Duration, &l.Type, &content, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(content, &l.Content); err != nil {
		return nil, fmt.Errorf("sqlite: lesson %s content: %w", l.ID, err)
	}
	return &l, nil
}

// CreateUserLesson inserts a progress row. The UNIQUE(user_id, lesson_id)
// constraint turns a duplicate start, including two racing requests, into
// apperror.ErrConflict, which the service treats as "already started".
func (db *DB) CreateUserLesson(ctx context.Context, ul *model.UserLesson) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_lessons (id, user_id, lesson_id, progress, completed, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ul.ID, ul.UserID, ul.LessonID, ul.Progress, ul.Completed, ul.StartedAt, ul.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user lesson", ul.LessonID)
		}
		return fmt.Errorf("sqlite: inserting user lesson (user=%s lesson=%s): %w",
			ul.UserID, ul.LessonID, err)
	}
	return nil
}

// GetUserLesson loads one progress row with its performances attached.
func (db *DB) GetUserLesson(ctx context.Context, id string) (*model.UserLesson, error) {
	ul, err := db.getUserLessonRow(ctx,
		`SELECT id, user_id, lesson_id, progress, completed, started_at, completed_at
		 FROM user_lessons WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}

	perfs, err := db.listPerformances(ctx, []string{ul.ID})
	if err != nil {
		return nil, err
	}
	ul.Performances = perfs[ul.ID]
	if ul.Performances == nil {
		ul.Performances = []model.LessonPerformance{}
	}
	return ul, nil
}

// FindUserLesson looks up the progress row for (userID, lessonID),
// performances included.
func (db *DB) FindUserLesson(ctx context.Context, userID, lessonID string) (*model.UserLesson, error) {
	ul, err := db.getUserLessonRow(ctx,
		`SELECT id, user_id, lesson_id, progress, completed, started_at, completed_at
		 FROM user_lessons WHERE user_id = ? AND lesson_id = ?`, userID, lessonID)
	if err != nil {
		return nil, err
	}

	perfs, err := db.listPerformances(ctx, []string{ul.ID})
	if err != nil {
		return nil, err
	}
	ul.Performances = perfs[ul.ID]
	if ul.Performances == nil {
		ul.Performances = []model.LessonPerformance{}
	}
	return ul, nil
}

func (db *DB) getUserLessonRow(ctx context.Context, query string, args ...any) (*model.UserLesson, error) {
	var (
		ul          model.UserLesson
		completedAt sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&ul.ID, &ul.UserID, &ul.LessonID, &ul.Progress, &ul.Completed,
		&ul.StartedAt, &completedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user lesson", fmt.Sprint(args[0]))
		}
		return nil, fmt.Errorf("sqlite: getting user lesson: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		ul.CompletedAt = &t
	}
	return &ul, nil
}

// ListUserLessons returns every progress row for the user, with performances
// fetched in a single batched query over all row ids rather than one query
// per row.
func (db *DB) ListUserLessons(ctx context.Context, userID string) ([]model.UserLesson, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, lesson_id, progress, completed, started_at, completed_at
		 FROM user_lessons WHERE user_id = ? ORDER BY started_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing user lessons for %s: %w", userID, err)
	}
	defer rows.Close()

	userLessons := []model.UserLesson{}
	ids := []string{}
	for rows.Next() {
		var (
			ul          model.UserLesson
			completedAt sql.NullTime
		)
		err := rows.Scan(&ul.ID, &ul.UserID, &ul.LessonID, &ul.Progress,
			&ul.Completed, &ul.StartedAt, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user lesson: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			ul.CompletedAt = &t
		}
		ul.Performances = []model.LessonPerformance{}
		userLessons = append(userLessons, ul)
		ids = append(ids, ul.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user lessons: %w", err)
	}

	if len(ids) == 0 {
		return userLessons, nil
	}

	perfs, err := db.listPerformances(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range userLessons {
		if p, ok := perfs[userLessons[i].ID]; ok {
			userLessons[i].Performances = p
		}
	}

	return userLessons, nil
}

// listPerformances fetches performances for a set of user-lesson ids in one
// query, grouped by user_lesson_id.
func (db *DB) listPerformances(ctx context.Context, userLessonIDs []string) (map[string][]model.LessonPerformance, error) {
	placeholders := strings.Repeat("?,", len(userLessonIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(userLessonIDs))
	for i, id := range userLessonIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_lesson_id, date, score, duration, metrics
		 FROM lesson_performances
		 WHERE user_lesson_id IN (`+placeholders+`)
		 ORDER BY date ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing performances: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]model.LessonPerformance)
	for rows.Next() {
		var (
			p       model.LessonPerformance
			metrics string
		)
		err := rows.Scan(&p.ID, &p.UserLessonID, &p.Date, &p.Score, &p.Duration, &metrics)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning performance: %w", err)
		}
		if err := decodeJSON(metrics, &p.Metrics); err != nil {
			return nil, fmt.Errorf("sqlite: performance %s metrics: %w", p.ID, err)
		}
		result[p.UserLessonID] = append(result[p.UserLessonID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating performances: %w", err)
	}

	return result, nil
}

// UpdateUserLesson persists progress, completed, and completedAt.
func (db *DB) UpdateUserLesson(ctx context.Context, ul *model.UserLesson) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE user_lessons SET progress = ?, completed = ?, completed_at = ?
		 WHERE id = ?`,
		ul.Progress, ul.Completed, ul.CompletedAt, ul.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user lesson %s: %w", ul.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking user lesson update %s: %w", ul.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user lesson", ul.ID)
	}
	return nil
}

// CreatePerformance appends one practice-session snapshot. Performances are
// never updated or deleted.
func (db *DB) CreatePerformance(ctx context.Context, p *model.LessonPerformance) error {
	metrics, err := encodeJSON(p.Metrics)
	if err != nil {
		return fmt.Errorf("sqlite: encoding performance metrics: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO lesson_performances (id, user_lesson_id, date, score, duration, metrics)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserLessonID, p.Date, p.Score, p.Duration, metrics,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting performance for %s: %w", p.UserLessonID, err)
	}
	return nil
}
