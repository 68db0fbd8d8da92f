package handler

import (
	"net/http"
	"strconv"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/auth"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/service"
)

// GamificationHandler serves progress, streaks, levels, achievements,
// the leaderboard, and activity logging.
type GamificationHandler struct {
	gamificationService *service.GamificationService
}

func NewGamificationHandler(gamificationService *service.GamificationService) *GamificationHandler {
	return &GamificationHandler{gamificationService: gamificationService}
}

// Progress handles GET /api/progress.
func (h *GamificationHandler) Progress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.gamificationService.GetUserProgress(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// Streak handles GET /api/streak.
func (h *GamificationHandler) Streak(w http.ResponseWriter, r *http.Request) {
	current, longest, err := h.gamificationService.GetUserStreak(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"currentStreak": current,
		"longestStreak": longest,
	})
}

// Level handles GET /api/level.
func (h *GamificationHandler) Level(w http.ResponseWriter, r *http.Request) {
	level, totalXP, err := h.gamificationService.GetLevelAndXP(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"level":   level,
		"totalXp": totalXP,
	})
}

// Achievements handles GET /api/achievements.
func (h *GamificationHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.gamificationService.GetUserAchievements(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, achievements)
}

// Leaderboard handles GET /api/leaderboard?limit=.
func (h *GamificationHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	board, err := h.gamificationService.GetLeaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

type activityRequest struct {
	ActivityType string         `json:"activityType"`
	XPEarned     int            `json:"xpEarned"`
	Metadata     map[string]any `json:"metadata"`
}

// LogActivity handles POST /api/activity.
func (h *GamificationHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	progress, err := h.gamificationService.LogUserActivity(r.Context(), auth.UserIDFromContext(r.Context()),
		req.ActivityType, req.XPEarned, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, progress)
}
