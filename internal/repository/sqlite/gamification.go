package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

var _ repository.GamificationRepository = (*DB)(nil)

// RecordActivity appends the activity entry and updates the progress
// aggregate in one transaction. The aggregate is read inside the same
// transaction that writes it back, so two concurrent activities for one
// user serialize instead of overwriting each other's fold.
func (db *DB) RecordActivity(ctx context.Context, act *model.UserActivity, fold func(p *model.UserProgress)) (*model.UserProgress, error) {
	metadata, err := encodeJSON(act.Metadata)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encoding activity metadata: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning activity transaction: %w", err)
	}
	defer tx.Rollback()

	progress := &model.UserProgress{UserID: act.UserID}
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, total_xp, level, current_streak, longest_streak,
		        last_activity_date, updated_at
		 FROM user_progress WHERE user_id = ?`, act.UserID,
	).Scan(&progress.UserID, &progress.TotalXP, &progress.Level, &progress.CurrentStreak,
		&progress.LongestStreak, &progress.LastActivityDate, &progress.UpdatedAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: reading progress for %s: %w", act.UserID, err)
	}

	fold(progress)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_activity (id, user_id, activity_type, xp_earned, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		act.ID, act.UserID, act.ActivityType, act.XPEarned, metadata, act.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting activity for %s: %w", act.UserID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_progress
		   (user_id, total_xp, level, current_streak, longest_streak, last_activity_date, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   total_xp = excluded.total_xp,
		   level = excluded.level,
		   current_streak = excluded.current_streak,
		   longest_streak = excluded.longest_streak,
		   last_activity_date = excluded.last_activity_date,
		   updated_at = excluded.updated_at`,
		progress.UserID, progress.TotalXP, progress.Level, progress.CurrentStreak,
		progress.LongestStreak, progress.LastActivityDate, progress.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: upserting progress for %s: %w", act.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing activity for %s: %w", act.UserID, err)
	}
	return progress, nil
}

// GetAchievementByType looks up a catalog entry by its stable type key.
func (db *DB) GetAchievementByType(ctx context.Context, achievementType string) (*model.Achievement, error) {
	var a model.Achievement
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, type, name, description, icon, xp_reward
		 FROM achievements WHERE type = ?`, achievementType,
	).Scan(&a.ID, &a.Type, &a.Name, &a.Description, &a.Icon, &a.XPReward)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("achievement", achievementType)
		}
		return nil, fmt.Errorf("sqlite: getting achievement %s: %w", achievementType, err)
	}
	return &a, nil
}

// CreateUserAchievement inserts an unlock row. The UNIQUE constraint maps a
// duplicate unlock, racing or repeated, to apperror.ErrConflict.
func (db *DB) CreateUserAchievement(ctx context.Context, ua *model.UserAchievement) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_achievements (id, user_id, achievement_id, unlocked_at)
		 VALUES (?, ?, ?, ?)`,
		ua.ID, ua.UserID, ua.AchievementID, ua.UnlockedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user achievement", ua.AchievementID)
		}
		return fmt.Errorf("sqlite: inserting unlock (user=%s achievement=%s): %w",
			ua.UserID, ua.AchievementID, err)
	}
	return nil
}

// ListUserAchievements returns the user's unlocks joined with their catalog
// entries, newest first.
func (db *DB) ListUserAchievements(ctx context.Context, userID string) ([]model.UserAchievement, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT ua.id, ua.user_id, ua.achievement_id, ua.unlocked_at,
		        a.id, a.type, a.name, a.description, a.icon, a.xp_reward
		 FROM user_achievements ua
		 JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = ?
		 ORDER BY ua.unlocked_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing achievements for %s: %w", userID, err)
	}
	defer rows.Close()

	unlocks := []model.UserAchievement{}
	for rows.Next() {
		var (
			ua model.UserAchievement
			a  model.Achievement
		)
		err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.UnlockedAt,
			&a.ID, &a.Type, &a.Name, &a.Description, &a.Icon, &a.XPReward)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning unlock: %w", err)
		}
		ua.Achievement = &a
		unlocks = append(unlocks, ua)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating unlocks: %w", err)
	}

	return unlocks, nil
}

// GetUserProgress returns the aggregate row; apperror.ErrNotFound when the
// user has never logged an activity. Callers substitute zero-valued
// defaults; absence is a normal state, not an error to surface.
func (db *DB) GetUserProgress(ctx context.Context, userID string) (*model.UserProgress, error) {
	var p model.UserProgress
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, total_xp, level, current_streak, longest_streak,
		        last_activity_date, updated_at
		 FROM user_progress WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.TotalXP, &p.Level, &p.CurrentStreak, &p.LongestStreak,
		&p.LastActivityDate, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user progress", userID)
		}
		return nil, fmt.Errorf("sqlite: getting progress for %s: %w", userID, err)
	}
	return &p, nil
}

// Leaderboard returns the top-N learners by XP, joined with display fields.
func (db *DB) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.user_id, u.name, u.avatar_url, p.total_xp, p.level
		 FROM user_progress p
		 JOIN users u ON u.id = p.user_id
		 ORDER BY p.total_xp DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		err := rows.Scan(&e.UserID, &e.Name, &e.AvatarURL, &e.TotalXP, &e.Level)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard: %w", err)
	}

	return entries, nil
}
