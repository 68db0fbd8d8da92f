package handler

import (
	"net/http"
	"time"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/auth"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/service"
)

// AuthHandler serves registration, login, logout, and the profile
// endpoints.
type AuthHandler struct {
	authService  *service.AuthService
	secureCookie bool
}

func NewAuthHandler(authService *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

type registerRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	ProficiencyLevel string `json:"proficiencyLevel"`
}

type sessionResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := h.authService.Register(r.Context(), service.RegisterInput{
		Email:            req.Email,
		Password:         req.Password,
		Name:             req.Name,
		NativeLanguage:   req.NativeLanguage,
		LearningLanguage: req.LearningLanguage,
		ProficiencyLevel: req.ProficiencyLevel,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, sessionResponse{User: user, Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, sessionResponse{User: user, Token: token})
}

// Logout handles POST /api/auth/logout. Always succeeds; the session is
// stateless so the only server-side action is clearing the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(r.Context(), auth.UserIDFromContext(r.Context()))
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUserProfile(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/me. Absent fields are left unchanged.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var update model.UserUpdate
	if err := decodeBody(w, r, &update); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authService.UpdateUser(r.Context(), auth.UserIDFromContext(r.Context()), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
