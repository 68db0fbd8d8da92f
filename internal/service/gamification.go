package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/realtime"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

const (
	// XPPerLevel: level N spans [100*(N-1), 100*N) total XP.
	XPPerLevel = 100

	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// dateLayout is the calendar-day form used for streak arithmetic.
const dateLayout = "2006-01-02"

// GamificationService maintains XP, levels, streaks, and achievements.
// All writes flow through LogUserActivity; readers only ever see the
// maintained aggregate.
type GamificationService struct {
	gamification repository.GamificationRepository
	hub          *realtime.Hub
	logger       *slog.Logger
	now          func() time.Time
}

func NewGamificationService(gamification repository.GamificationRepository, hub *realtime.Hub, logger *slog.Logger) *GamificationService {
	return &GamificationService{
		gamification: gamification,
		hub:          hub,
		logger:       logger,
		now:          time.Now,
	}
}

// LogUserActivity appends an activity entry and folds it into the user's
// progress aggregate (XP, level, streak) in one transaction.
//
// An empty userID is silently ignored: activity logging is fire-and-forget
// from flows that may run before login completes, and those calls must
// never fail the caller.
func (s *GamificationService) LogUserActivity(ctx context.Context, userID, activityType string, xpEarned int, metadata map[string]any) (*model.UserProgress, error) {
	if userID == "" {
		return nil, nil
	}

	activityType = strings.TrimSpace(activityType)
	if activityType == "" {
		return nil, apperror.ValidationFailed("activityType", "activity type is required")
	}
	if xpEarned < 0 {
		return nil, apperror.ValidationFailed("xpEarned", "earned XP cannot be negative")
	}

	now := s.now()

	act := &model.UserActivity{
		ID:           xid.New().String(),
		UserID:       userID,
		ActivityType: activityType,
		XPEarned:     xpEarned,
		Metadata:     metadata,
		CreatedAt:    now,
	}

	// The fold runs against the stored aggregate inside the repository's
	// transaction, so concurrent activities for one user cannot lose XP.
	progress, err := s.gamification.RecordActivity(ctx, act, func(p *model.UserProgress) {
		p.TotalXP += xpEarned
		p.Level = p.TotalXP/XPPerLevel + 1
		p.CurrentStreak = nextStreak(p.CurrentStreak, p.LastActivityDate, now)
		if p.CurrentStreak > p.LongestStreak {
			p.LongestStreak = p.CurrentStreak
		}
		p.LastActivityDate = now.Format(dateLayout)
		p.UpdatedAt = now
	})
	if err != nil {
		s.logger.Error("failed to record activity",
			slog.String("user_id", userID),
			slog.String("activity_type", activityType),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("recording activity: %w", err)
	}

	s.logger.Info("activity logged",
		slog.String("user_id", userID),
		slog.String("activity_type", activityType),
		slog.Int("xp_earned", xpEarned),
		slog.Int("total_xp", progress.TotalXP),
		slog.Int("streak", progress.CurrentStreak),
	)
	s.hub.Publish(userID, realtime.Event{Table: realtime.TableUserProgress, Type: "UPDATE", Data: progress})

	s.checkMilestones(ctx, userID, progress)
	return progress, nil
}

// nextStreak applies the day-granular streak rules: a second activity on
// the same day leaves the streak alone, activity the day after the last
// one extends it, and any gap resets it to 1.
func nextStreak(current int, lastActivityDate string, now time.Time) int {
	if lastActivityDate == "" {
		return 1
	}
	last, err := time.Parse(dateLayout, lastActivityDate)
	if err != nil {
		return 1
	}

	today := now.Format(dateLayout)
	switch last.Format(dateLayout) {
	case today:
		if current < 1 {
			return 1
		}
		return current
	case now.AddDate(0, 0, -1).Format(dateLayout):
		return current + 1
	default:
		return 1
	}
}

// checkMilestones unlocks threshold achievements reached by the latest
// activity. Best-effort: unlock failures are logged, never surfaced.
func (s *GamificationService) checkMilestones(ctx context.Context, userID string, progress *model.UserProgress) {
	if progress.CurrentStreak >= 7 {
		s.unlockQuietly(ctx, userID, model.AchievementStreakWeek)
	}
	if progress.TotalXP >= 500 {
		s.unlockQuietly(ctx, userID, model.AchievementXP500)
	}
}

func (s *GamificationService) unlockQuietly(ctx context.Context, userID, achievementType string) {
	if _, err := s.UnlockAchievement(ctx, userID, achievementType); err != nil {
		s.logger.Warn("milestone unlock failed",
			slog.String("user_id", userID),
			slog.String("achievement", achievementType),
			slog.String("error", err.Error()),
		)
	}
}

// UnlockAchievement grants the named achievement to the user. Unlocking an
// already-held achievement, or a type absent from the catalog, is a no-op
// rather than an error, so callers can fire unlocks without checking
// first. The achievement's XP reward is logged as its own activity.
func (s *GamificationService) UnlockAchievement(ctx context.Context, userID, achievementType string) (*model.UserAchievement, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}
	achievementType = strings.TrimSpace(achievementType)
	if achievementType == "" {
		return nil, apperror.ValidationFailed("type", "achievement type is required")
	}

	achievement, err := s.gamification.GetAchievementByType(ctx, achievementType)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("unknown achievement type", slog.String("type", achievementType))
			return nil, nil
		}
		return nil, err
	}

	ua := &model.UserAchievement{
		ID:            xid.New().String(),
		UserID:        userID,
		AchievementID: achievement.ID,
		UnlockedAt:    s.now(),
		Achievement:   achievement,
	}

	if err := s.gamification.CreateUserAchievement(ctx, ua); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Already unlocked; nothing to grant again.
			return nil, nil
		}
		s.logger.Error("failed to unlock achievement",
			slog.String("user_id", userID),
			slog.String("achievement", achievementType),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("unlocking achievement: %w", err)
	}

	s.logger.Info("achievement unlocked",
		slog.String("user_id", userID),
		slog.String("achievement", achievementType),
		slog.Int("xp_reward", achievement.XPReward),
	)
	s.hub.Publish(userID, realtime.Event{Table: realtime.TableUserAchievements, Type: "INSERT", Data: ua})

	if achievement.XPReward > 0 {
		if _, err := s.LogUserActivity(ctx, userID, "achievement_"+achievementType, achievement.XPReward, nil); err != nil {
			s.logger.Warn("failed to log achievement reward", slog.String("user_id", userID), slog.String("error", err.Error()))
		}
	}

	return ua, nil
}

// GetUserProgress returns the progress aggregate. A user with no logged
// activity gets a zeroed aggregate, not an error.
func (s *GamificationService) GetUserProgress(ctx context.Context, userID string) (*model.UserProgress, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}

	progress, err := s.gamification.GetUserProgress(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &model.UserProgress{UserID: userID, Level: 1}, nil
		}
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	return progress, nil
}

// GetUserStreak returns the current and longest streaks.
func (s *GamificationService) GetUserStreak(ctx context.Context, userID string) (current, longest int, err error) {
	progress, err := s.GetUserProgress(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return progress.CurrentStreak, progress.LongestStreak, nil
}

// GetLevelAndXP returns the user's level and total XP.
func (s *GamificationService) GetLevelAndXP(ctx context.Context, userID string) (level, totalXP int, err error) {
	progress, err := s.GetUserProgress(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return progress.Level, progress.TotalXP, nil
}

// GetUserAchievements lists the user's unlocks, newest first.
func (s *GamificationService) GetUserAchievements(ctx context.Context, userID string) ([]model.UserAchievement, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}
	return s.gamification.ListUserAchievements(ctx, userID)
}

// GetLeaderboard returns the top users by total XP.
func (s *GamificationService) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	if limit > MaxLeaderboardSize {
		limit = MaxLeaderboardSize
	}
	return s.gamification.Leaderboard(ctx, limit)
}
