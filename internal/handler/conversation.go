package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/auth"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/service"
)

// ConversationHandler serves chat threads and pronunciation analysis.
type ConversationHandler struct {
	conversationService *service.ConversationService
	gamificationService *service.GamificationService
}

func NewConversationHandler(conversationService *service.ConversationService, gamificationService *service.GamificationService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		gamificationService: gamificationService,
	}
}

type createConversationRequest struct {
	Title    string `json:"title"`
	Language string `json:"language"`
}

// Create handles POST /api/conversations.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	conv, err := h.conversationService.CreateConversation(r.Context(), userID, req.Title, req.Language)
	if err != nil {
		writeError(w, err)
		return
	}

	// First conversation unlock is best-effort; the thread exists either way.
	_, _ = h.gamificationService.UnlockAchievement(r.Context(), userID, model.AchievementFirstConversation)

	writeJSON(w, http.StatusCreated, conv)
}

// List handles GET /api/conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	convs, err := h.conversationService.GetUserConversations(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

// Get handles GET /api/conversations/{id}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conv, err := h.conversationService.GetConversation(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// Delete handles DELETE /api/conversations/{id}.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.conversationService.DeleteConversation(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendMessageRequest struct {
	Text     string `json:"text"`
	AudioURL string `json:"audioUrl"`
}

type sendMessageResponse struct {
	Messages []model.Message `json:"messages"`
	// Partial is set when the user's message was stored but the tutor's
	// reply failed; the client shows the sent message and offers a retry.
	Partial bool   `json:"partial,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SendMessage handles POST /api/conversations/{id}/messages.
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	msgs, err := h.conversationService.SendMessage(r.Context(), auth.UserIDFromContext(r.Context()),
		chi.URLParam(r, "id"), req.Text, req.AudioURL)
	if err != nil {
		if len(msgs) > 0 && errors.Is(err, apperror.ErrExternal) {
			// Partial success: 202 tells the client its message is safe
			// even though the reply is missing.
			writeJSON(w, http.StatusAccepted, sendMessageResponse{
				Messages: msgs,
				Partial:  true,
				Error:    "tutor reply unavailable",
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sendMessageResponse{Messages: msgs})
}

type pronunciationRequest struct {
	AudioURL string `json:"audioUrl"`
	Text     string `json:"text"`
}

// AnalyzePronunciation handles POST /api/pronunciation.
func (h *ConversationHandler) AnalyzePronunciation(w http.ResponseWriter, r *http.Request) {
	var req pronunciationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	feedback, err := h.conversationService.AnalyzePronunciation(r.Context(), auth.UserIDFromContext(r.Context()), req.AudioURL, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}
