package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
)

func TestSeedAchievements(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, achievementType := range []string{
		model.AchievementFirstLesson,
		model.AchievementFirstConversation,
		model.AchievementLessonMaster,
		model.AchievementStreakWeek,
		model.AchievementXP500,
	} {
		a, err := db.GetAchievementByType(ctx, achievementType)
		require.NoError(t, err, "achievement %q should be seeded", achievementType)
		assert.NotEmpty(t, a.Name)
	}
}

func TestRecordActivity_UpsertsProgress(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")

	_, err := db.GetUserProgress(ctx, userID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	act := &model.UserActivity{
		ID:           xid.New().String(),
		UserID:       userID,
		ActivityType: "lesson_completed",
		XPEarned:     30,
		Metadata:     map[string]any{"lessonId": "l1"},
		CreatedAt:    time.Now(),
	}
	progress, err := db.RecordActivity(ctx, act, func(p *model.UserProgress) {
		// First activity: fold starts from a zero aggregate.
		assert.Zero(t, p.TotalXP)
		p.TotalXP += 30
		p.Level = 1
		p.CurrentStreak = 1
		p.LongestStreak = 1
		p.LastActivityDate = "2026-03-01"
		p.UpdatedAt = time.Now()
	})
	require.NoError(t, err)
	assert.Equal(t, 30, progress.TotalXP)

	loaded, err := db.GetUserProgress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.TotalXP)
	assert.Equal(t, "2026-03-01", loaded.LastActivityDate)

	// Second activity updates the aggregate, not inserts a second row.
	act2 := &model.UserActivity{
		ID:           xid.New().String(),
		UserID:       userID,
		ActivityType: "conversation",
		XPEarned:     80,
		CreatedAt:    time.Now(),
	}
	progress, err = db.RecordActivity(ctx, act2, func(p *model.UserProgress) {
		p.TotalXP += 80
		p.Level = 2
		p.UpdatedAt = time.Now()
	})
	require.NoError(t, err)

	loaded, err = db.GetUserProgress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 110, loaded.TotalXP)
	assert.Equal(t, 2, loaded.Level)
}

// The fold sees the stored aggregate, including writes that landed after
// any value the caller may have read earlier.
func TestRecordActivity_FoldSeesLatestAggregate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")

	for i := 0; i < 3; i++ {
		act := &model.UserActivity{
			ID:           xid.New().String(),
			UserID:       userID,
			ActivityType: "practice",
			XPEarned:     10,
			CreatedAt:    time.Now(),
		}
		_, err := db.RecordActivity(ctx, act, func(p *model.UserProgress) {
			p.TotalXP += 10
			p.Level = 1
			p.UpdatedAt = time.Now()
		})
		require.NoError(t, err)
	}

	loaded, err := db.GetUserProgress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.TotalXP)
}

// The UNIQUE(user_id, achievement_id) constraint collapses a double unlock
// into a Conflict with exactly one row kept.
func TestCreateUserAchievement_DuplicateConflicts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")
	achievement, err := db.GetAchievementByType(ctx, model.AchievementFirstLesson)
	require.NoError(t, err)

	first := &model.UserAchievement{
		ID:            xid.New().String(),
		UserID:        userID,
		AchievementID: achievement.ID,
		UnlockedAt:    time.Now(),
	}
	require.NoError(t, db.CreateUserAchievement(ctx, first))

	dup := &model.UserAchievement{
		ID:            xid.New().String(),
		UserID:        userID,
		AchievementID: achievement.ID,
		UnlockedAt:    time.Now(),
	}
	err = db.CreateUserAchievement(ctx, dup)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	unlocked, err := db.ListUserAchievements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	require.NotNil(t, unlocked[0].Achievement)
	assert.Equal(t, model.AchievementFirstLesson, unlocked[0].Achievement.Type)
}

func TestLeaderboard_OrdersAndLimits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i, email := range []string{"low@example.com", "high@example.com", "mid@example.com"} {
		userID := createTestUser(t, db, email)
		xp := i*150 + 50 // 50, 200, 350
		act := &model.UserActivity{
			ID:           xid.New().String(),
			UserID:       userID,
			ActivityType: "practice",
			XPEarned:     xp,
			CreatedAt:    time.Now(),
		}
		_, err := db.RecordActivity(ctx, act, func(p *model.UserProgress) {
			p.TotalXP += xp
			p.Level = 1
			p.UpdatedAt = time.Now()
		})
		require.NoError(t, err)
	}

	board, err := db.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, 350, board[0].TotalXP)
	assert.Equal(t, 200, board[1].TotalXP)
	assert.Equal(t, "Test User", board[0].Name)
}
