package model

import "time"

// Achievement types seeded into the catalog. Unlock calls reference
// achievements by type, not ID, so the catalog can be re-seeded freely.
const (
	AchievementFirstLesson       = "first_lesson"
	AchievementFirstConversation = "first_conversation"
	AchievementLessonMaster      = "lesson_master"
	AchievementStreakWeek        = "streak_7"
	AchievementXP500             = "xp_500"
)

// Achievement is a catalog entry describing something a learner can unlock.
type Achievement struct {
	ID          string `json:"id"          db:"id"`
	Type        string `json:"type"        db:"type"`
	Name        string `json:"name"        db:"name"`
	Description string `json:"description" db:"description"`
	Icon        string `json:"icon,omitempty" db:"icon"`
	XPReward    int    `json:"xpReward"    db:"xp_reward"`
}

// UserAchievement is the unlock join row. At most one per
// (user, achievement), enforced by a UNIQUE constraint in the store.
type UserAchievement struct {
	ID            string       `json:"id"            db:"id"`
	UserID        string       `json:"userId"        db:"user_id"`
	AchievementID string       `json:"achievementId" db:"achievement_id"`
	UnlockedAt    time.Time    `json:"unlockedAt"    db:"unlocked_at"`
	Achievement   *Achievement `json:"achievement,omitempty"`
}

// UserProgress is the single aggregate row per user that the dashboard and
// leaderboard read. It is maintained transactionally alongside every
// activity append (the write path owns it; readers never recompute).
//
// LastActivityDate is a calendar day (YYYY-MM-DD), not an instant; streaks
// are day-granular.
type UserProgress struct {
	UserID           string    `json:"userId"           db:"user_id"`
	TotalXP          int       `json:"totalXp"          db:"total_xp"`
	Level            int       `json:"level"            db:"level"`
	CurrentStreak    int       `json:"currentStreak"    db:"current_streak"`
	LongestStreak    int       `json:"longestStreak"    db:"longest_streak"`
	LastActivityDate string    `json:"lastActivityDate,omitempty" db:"last_activity_date"`
	UpdatedAt        time.Time `json:"updatedAt"        db:"updated_at"`
}

// UserActivity is one append-only activity log entry.
type UserActivity struct {
	ID           string         `json:"id"           db:"id"`
	UserID       string         `json:"userId"       db:"user_id"`
	ActivityType string         `json:"activityType" db:"activity_type"`
	XPEarned     int            `json:"xpEarned"     db:"xp_earned"`
	Metadata     map[string]any `json:"metadata,omitempty" db:"metadata"` // stored as JSON
	CreatedAt    time.Time      `json:"createdAt"    db:"created_at"`
}

// LeaderboardEntry is one row of the XP leaderboard, joined with the
// learner's display fields.
type LeaderboardEntry struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	TotalXP   int    `json:"totalXp"`
	Level     int    `json:"level"`
}
