// Package repository declares the storage interfaces consumed by the service
// layer. Services program against these interfaces; the sqlite subpackage
// provides the concrete implementation, and tests substitute in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
)

// UserRepository stores identities and learning profiles.
type UserRepository interface {
	// CreateAccount inserts the credential and profile rows in one
	// transaction. Returns apperror.ErrConflict when the email is taken.
	CreateAccount(ctx context.Context, cred *model.Credential, profile *model.User) error

	// GetCredentialByEmail returns apperror.ErrNotFound when no identity
	// exists for the email.
	GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error)

	// GetUserByID returns the profile row; apperror.ErrNotFound when absent.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// UpdateUser writes only the supplied fields of the partial update.
	UpdateUser(ctx context.Context, id string, update model.UserUpdate) error
}

// LessonFilter narrows ListLessons. Empty fields match everything.
type LessonFilter struct {
	Language string
	Level    string
}

// LessonRepository stores lesson content and per-user progress.
type LessonRepository interface {
	ListLessons(ctx context.Context, filter LessonFilter) ([]model.Lesson, error)
	GetLesson(ctx context.Context, id string) (*model.Lesson, error)

	// CreateUserLesson inserts a progress row. Returns apperror.ErrConflict
	// when a row for (userID, lessonID) already exists; callers treat that
	// as "already started" and re-fetch, never as a hard failure.
	CreateUserLesson(ctx context.Context, ul *model.UserLesson) error

	// GetUserLesson loads one progress row with its performances.
	GetUserLesson(ctx context.Context, id string) (*model.UserLesson, error)

	// FindUserLesson looks up the progress row for (userID, lessonID);
	// apperror.ErrNotFound when the lesson was never started.
	FindUserLesson(ctx context.Context, userID, lessonID string) (*model.UserLesson, error)

	// ListUserLessons returns all progress rows for the user, performances
	// included (batched: a single query over all row ids, not one per row).
	ListUserLessons(ctx context.Context, userID string) ([]model.UserLesson, error)

	// UpdateUserLesson persists progress/completed/completedAt.
	UpdateUserLesson(ctx context.Context, ul *model.UserLesson) error

	// CreatePerformance appends one practice-session snapshot.
	CreatePerformance(ctx context.Context, p *model.LessonPerformance) error
}

// ConversationRepository stores chat threads and their messages.
type ConversationRepository interface {
	// CreateConversation inserts the thread and its seeded greeting message
	// in one transaction: both appear together or neither does.
	CreateConversation(ctx context.Context, conv *model.Conversation, greeting *model.Message) error

	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
	CreateMessage(ctx context.Context, msg *model.Message) error

	// TouchConversation bumps updated_at.
	TouchConversation(ctx context.Context, id string, at time.Time) error

	// DeleteConversation removes messages before the thread row, in one
	// transaction, so a partial failure can never orphan messages.
	DeleteConversation(ctx context.Context, id string) error
}

// GamificationRepository stores the activity log, achievement unlocks, and
// the per-user progress aggregate.
type GamificationRepository interface {
	// RecordActivity appends the activity entry and updates the progress
	// aggregate in one transaction. The stored aggregate (a zero row
	// carrying the user's ID when none exists yet) is read inside the
	// transaction and passed to fold; the folded result is written back,
	// so concurrent calls cannot lose each other's updates.
	RecordActivity(ctx context.Context, act *model.UserActivity, fold func(p *model.UserProgress)) (*model.UserProgress, error)

	GetAchievementByType(ctx context.Context, achievementType string) (*model.Achievement, error)

	// CreateUserAchievement returns apperror.ErrConflict when the
	// achievement is already unlocked for the user.
	CreateUserAchievement(ctx context.Context, ua *model.UserAchievement) error

	ListUserAchievements(ctx context.Context, userID string) ([]model.UserAchievement, error)

	// GetUserProgress returns apperror.ErrNotFound when the user has no
	// aggregate row yet (i.e. no activity ever logged).
	GetUserProgress(ctx context.Context, userID string) (*model.UserProgress, error)

	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// MetricQuery narrows ListMetrics. Zero values match everything.
type MetricQuery struct {
	Category  string
	From      *time.Time
	To        *time.Time
	Ascending bool // date ordering; default is newest first
}

// PerformanceRepository stores standalone performance metrics.
type PerformanceRepository interface {
	CreateMetric(ctx context.Context, m *model.PerformanceMetric) error
	ListMetrics(ctx context.Context, userID string, q MetricQuery) ([]model.PerformanceMetric, error)
}
