package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/auth"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/service"
)

// LessonHandler serves the lesson catalog and per-user progress endpoints.
type LessonHandler struct {
	lessonService       *service.LessonService
	gamificationService *service.GamificationService
	logger              *slog.Logger
}

func NewLessonHandler(lessonService *service.LessonService, gamificationService *service.GamificationService, logger *slog.Logger) *LessonHandler {
	return &LessonHandler{
		lessonService:       lessonService,
		gamificationService: gamificationService,
		logger:              logger,
	}
}

// List handles GET /api/lessons?language=&level=.
func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessonService.GetLessons(r.Context(), r.URL.Query().Get("language"), r.URL.Query().Get("level"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

// Get handles GET /api/lessons/{id}.
func (h *LessonHandler) Get(w http.ResponseWriter, r *http.Request) {
	lesson, err := h.lessonService.GetLesson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

// Start handles POST /api/lessons/{id}/start. Idempotent: re-starting
// returns the existing progress row with 200 instead of 201.
func (h *LessonHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	ul, created, err := h.lessonService.StartLesson(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, ul)
}

// ListMine handles GET /api/user-lessons.
func (h *LessonHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessonService.GetUserLessons(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

type progressRequest struct {
	Progress  *int  `json:"progress"`
	Completed *bool `json:"completed"`
}

// completedLessonXP is awarded once, when a lesson first completes.
const completedLessonXP = 50

// UpdateProgress handles PATCH /api/user-lessons/{id}. Completing a
// lesson also logs the XP activity and fires the first-lesson unlock.
func (h *LessonHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	before, err := h.lessonService.GetUserLesson(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	wasCompleted := before.Completed

	ul, err := h.lessonService.UpdateLessonProgress(r.Context(), userID, id, service.ProgressUpdate{
		Progress:  req.Progress,
		Completed: req.Completed,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// XP and the first-lesson unlock are best effort: the progress write
	// already succeeded, and failing the request here would strand the
	// client against a completed row it cannot re-complete.
	if ul.Completed && !wasCompleted {
		if _, err := h.gamificationService.LogUserActivity(r.Context(), userID, "lesson_completed", completedLessonXP,
			map[string]any{"lessonId": ul.LessonID}); err != nil {
			h.logger.Warn("failed to log lesson completion XP",
				slog.String("user_id", userID),
				slog.String("lesson_id", ul.LessonID),
				slog.String("error", err.Error()),
			)
		}
		if _, err := h.gamificationService.UnlockAchievement(r.Context(), userID, model.AchievementFirstLesson); err != nil {
			h.logger.Warn("failed to unlock first lesson achievement",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	writeJSON(w, http.StatusOK, ul)
}

type lessonPerformanceRequest struct {
	Score    float64                  `json:"score"`
	Duration int                      `json:"duration"`
	Metrics  model.PerformanceDetails `json:"metrics"`
}

// RecordPerformance handles POST /api/user-lessons/{id}/performances.
func (h *LessonHandler) RecordPerformance(w http.ResponseWriter, r *http.Request) {
	var req lessonPerformanceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	perf, err := h.lessonService.RecordLessonPerformance(r.Context(), auth.UserIDFromContext(r.Context()),
		chi.URLParam(r, "id"), service.PerformanceInput{
			Score:    req.Score,
			Duration: req.Duration,
			Metrics:  req.Metrics,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, perf)
}
