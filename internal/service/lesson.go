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

// LessonService handles lesson catalog reads and per-user progress writes.
type LessonService struct {
	lessons repository.LessonRepository
	hub     *realtime.Hub
	logger  *slog.Logger
}

func NewLessonService(lessons repository.LessonRepository, hub *realtime.Hub, logger *slog.Logger) *LessonService {
	return &LessonService{
		lessons: lessons,
		hub:     hub,
		logger:  logger,
	}
}

// GetLessons lists catalog lessons, optionally narrowed by language and
// level. The catalog is read-only here; seeding happens at startup.
func (s *LessonService) GetLessons(ctx context.Context, language, level string) ([]model.Lesson, error) {
	lessons, err := s.lessons.ListLessons(ctx, repository.LessonFilter{
		Language: strings.TrimSpace(language),
		Level:    strings.TrimSpace(level),
	})
	if err != nil {
		s.logger.Error("failed to list lessons", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing lessons: %w", err)
	}
	return lessons, nil
}

// GetLesson loads one catalog lesson with its full content.
func (s *LessonService) GetLesson(ctx context.Context, id string) (*model.Lesson, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "lesson ID is required")
	}
	return s.lessons.GetLesson(ctx, id)
}

// StartLesson creates the progress row for (user, lesson), or returns the
// existing one; starting twice is not an error. The returned bool reports
// whether a new row was created, so callers can distinguish a fresh start
// from idempotent reuse. The UNIQUE constraint in the store makes the race
// between two concurrent starts harmless: the loser gets a Conflict and
// re-fetches the winner's row.
func (s *LessonService) StartLesson(ctx context.Context, userID, lessonID string) (*model.UserLesson, bool, error) {
	if userID == "" {
		return nil, false, apperror.NotAuthenticated("")
	}
	lessonID = strings.TrimSpace(lessonID)
	if lessonID == "" {
		return nil, false, apperror.ValidationFailed("lessonId", "lesson ID is required")
	}

	// Confirm the lesson exists before creating progress against it.
	if _, err := s.lessons.GetLesson(ctx, lessonID); err != nil {
		return nil, false, err
	}

	ul := &model.UserLesson{
		ID:           xid.New().String(),
		UserID:       userID,
		LessonID:     lessonID,
		Progress:     0,
		Completed:    false,
		StartedAt:    time.Now(),
		Performances: []model.LessonPerformance{},
	}

	err := s.lessons.CreateUserLesson(ctx, ul)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			existing, err := s.lessons.FindUserLesson(ctx, userID, lessonID)
			return existing, false, err
		}
		s.logger.Error("failed to start lesson",
			slog.String("user_id", userID),
			slog.String("lesson_id", lessonID),
			slog.String("error", err.Error()),
		)
		return nil, false, fmt.Errorf("starting lesson: %w", err)
	}

	s.logger.Info("lesson started", slog.String("user_id", userID), slog.String("lesson_id", lessonID))
	s.hub.Publish(userID, realtime.Event{Table: realtime.TableUserLessons, Type: "INSERT", Data: ul})
	return ul, true, nil
}

// ProgressUpdate is a partial update to a lesson's progress state.
type ProgressUpdate struct {
	Progress  *int
	Completed *bool
}

// UpdateLessonProgress applies a progress update, enforcing the state
// machine: progress stays in 0..100, completed requires progress 100,
// and completedAt is stamped once and never moves afterwards.
func (s *LessonService) UpdateLessonProgress(ctx context.Context, userID, userLessonID string, update ProgressUpdate) (*model.UserLesson, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}
	if update.Progress == nil && update.Completed == nil {
		return nil, apperror.ValidationFailed("", "no fields to update")
	}

	ul, err := s.lessons.GetUserLesson(ctx, userLessonID)
	if err != nil {
		return nil, err
	}
	if ul.UserID != userID {
		return nil, apperror.Forbidden("lesson progress belongs to another user")
	}

	if update.Progress != nil {
		p := *update.Progress
		if p < 0 || p > 100 {
			return nil, apperror.ValidationFailed("progress", "progress must be between 0 and 100")
		}
		if ul.Completed && p != 100 {
			return nil, apperror.ValidationFailed("progress", "a completed lesson cannot lose progress")
		}
		ul.Progress = p
	}

	if update.Completed != nil {
		if *update.Completed {
			if ul.Progress != 100 {
				return nil, apperror.ValidationFailed("completed", "lesson can only be completed at 100% progress")
			}
			if !ul.Completed {
				ul.Completed = true
				now := time.Now()
				ul.CompletedAt = &now
			}
			// Already completed: completedAt keeps its original stamp.
		} else if ul.Completed {
			return nil, apperror.ValidationFailed("completed", "a completed lesson cannot be reopened")
		}
	}

	if err := s.lessons.UpdateUserLesson(ctx, ul); err != nil {
		s.logger.Error("failed to update lesson progress",
			slog.String("user_lesson_id", userLessonID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating lesson progress: %w", err)
	}

	s.hub.Publish(userID, realtime.Event{Table: realtime.TableUserLessons, Type: "UPDATE", Data: ul})
	return ul, nil
}

// PerformanceInput is one practice-session result to record.
type PerformanceInput struct {
	Score    float64
	Duration int
	Metrics  model.PerformanceDetails
}

// RecordLessonPerformance appends a practice-session snapshot to a lesson
// the user has started.
func (s *LessonService) RecordLessonPerformance(ctx context.Context, userID, userLessonID string, in PerformanceInput) (*model.LessonPerformance, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}
	if in.Score < 0 || in.Score > 100 {
		return nil, apperror.ValidationFailed("score", "score must be between 0 and 100")
	}
	if in.Duration < 0 {
		return nil, apperror.ValidationFailed("duration", "duration cannot be negative")
	}

	ul, err := s.lessons.GetUserLesson(ctx, userLessonID)
	if err != nil {
		return nil, err
	}
	if ul.UserID != userID {
		return nil, apperror.Forbidden("lesson progress belongs to another user")
	}

	perf := &model.LessonPerformance{
		ID:           xid.New().String(),
		UserLessonID: userLessonID,
		Date:         time.Now(),
		Score:        in.Score,
		Duration:     in.Duration,
		Metrics:      in.Metrics,
	}

	if err := s.lessons.CreatePerformance(ctx, perf); err != nil {
		s.logger.Error("failed to record lesson performance",
			slog.String("user_lesson_id", userLessonID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("recording lesson performance: %w", err)
	}

	return perf, nil
}

// GetUserLesson loads one progress row the user owns.
func (s *LessonService) GetUserLesson(ctx context.Context, userID, userLessonID string) (*model.UserLesson, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}

	ul, err := s.lessons.GetUserLesson(ctx, userLessonID)
	if err != nil {
		return nil, err
	}
	if ul.UserID != userID {
		return nil, apperror.Forbidden("lesson progress belongs to another user")
	}
	return ul, nil
}

// GetUserLessons returns all of the user's progress rows, performances
// included.
func (s *LessonService) GetUserLessons(ctx context.Context, userID string) ([]model.UserLesson, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}

	lessons, err := s.lessons.ListUserLessons(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user lessons", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing user lessons: %w", err)
	}
	return lessons, nil
}
