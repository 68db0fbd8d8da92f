// Package service contains the business logic layer. Handlers parse HTTP
// and delegate here; services validate, enforce rules, and orchestrate the
// repositories. Services return domain errors from the apperror package and
// never know about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"

	"github.com/rs/xid"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/auth"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

const (
	MinPasswordLength = 8
	MaxNameLength     = 100
)

// AuthService handles registration, login, and profile management.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput carries everything needed to create an account.
type RegisterInput struct {
	Email            string
	Password         string
	Name             string
	NativeLanguage   string
	LearningLanguage string
	ProficiencyLevel string
}

// Register creates the credential and learning profile atomically and
// returns the new profile with a session token. A taken email surfaces
// as a Conflict error.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, "", apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, "", apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	level := strings.TrimSpace(in.ProficiencyLevel)
	if level == "" {
		level = model.LevelBeginner
	}
	if !model.ValidProficiencyLevel(level) {
		return nil, "", apperror.ValidationFailed("proficiencyLevel", "unknown proficiency level")
	}

	native := strings.TrimSpace(in.NativeLanguage)
	learning := strings.TrimSpace(in.LearningLanguage)
	if learning == "" {
		return nil, "", apperror.ValidationFailed("learningLanguage", "learning language is required")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, "", apperror.ValidationFailed("password", "password could not be processed")
	}

	userID := xid.New().String()
	cred := &model.Credential{
		ID:           userID,
		Email:        email,
		PasswordHash: hash,
	}
	profile := &model.User{
		ID:               userID,
		Email:            email,
		Name:             name,
		NativeLanguage:   native,
		LearningLanguage: learning,
		ProficiencyLevel: level,
		AvatarURL:        defaultAvatarURL(name),
	}

	if err := s.users.CreateAccount(ctx, cred, profile); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, "", err
		}
		s.logger.Error("failed to create account", slog.String("email", email), slog.String("error", err.Error()))
		return nil, "", fmt.Errorf("registering account: %w", err)
	}

	token, err := s.tokens.Generate(userID)
	if err != nil {
		s.logger.Error("failed to issue token after registration", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, "", fmt.Errorf("issuing session token: %w", err)
	}

	s.logger.Info("account registered", slog.String("user_id", userID), slog.String("email", email))
	return profile, token, nil
}

// Login verifies credentials and returns the profile with a fresh session
// token. Unknown email and wrong password produce the same error so the
// response never reveals which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", apperror.NotAuthenticated("invalid email or password")
	}

	cred, err := s.users.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, "", apperror.NotAuthenticated("invalid email or password")
		}
		s.logger.Error("failed to load credential", slog.String("email", email), slog.String("error", err.Error()))
		return nil, "", fmt.Errorf("logging in: %w", err)
	}

	if !s.passwords.Verify(cred.PasswordHash, password) {
		return nil, "", apperror.NotAuthenticated("invalid email or password")
	}

	profile, err := s.users.GetUserByID(ctx, cred.ID)
	if err != nil {
		// A credential without a profile is a data fault, not a login error.
		s.logger.Error("credential exists without profile", slog.String("user_id", cred.ID), slog.String("error", err.Error()))
		return nil, "", apperror.Backend("loading profile", err)
	}

	token, err := s.tokens.Generate(cred.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issuing session token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("user_id", cred.ID))
	return profile, token, nil
}

// Logout records the sign-out. Sessions are stateless JWTs, so there is
// nothing to revoke server-side; the handler clears the cookie and the
// client discards its token. Never fails.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	s.logger.Info("user logged out", slog.String("user_id", userID))
}

// GetUserProfile loads the learning profile for an authenticated user.
func (s *AuthService) GetUserProfile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}
	return s.users.GetUserByID(ctx, userID)
}

// UpdateUser applies a partial profile update and returns the fresh profile.
func (s *AuthService) UpdateUser(ctx context.Context, userID string, update model.UserUpdate) (*model.User, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}
	if update.Empty() {
		return nil, apperror.ValidationFailed("", "no fields to update")
	}

	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return nil, apperror.ValidationFailed("name", "name cannot be empty")
		}
		if len(trimmed) > MaxNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or less", MaxNameLength))
		}
		update.Name = &trimmed
	}
	if update.ProficiencyLevel != nil && !model.ValidProficiencyLevel(*update.ProficiencyLevel) {
		return nil, apperror.ValidationFailed("proficiencyLevel", "unknown proficiency level")
	}

	if err := s.users.UpdateUser(ctx, userID, update); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("user_id", userID))
	return s.users.GetUserByID(ctx, userID)
}

// ValidateToken resolves a raw token to a user ID.
func (s *AuthService) ValidateToken(token string) (string, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return "", apperror.NotAuthenticated("invalid or expired session")
	}
	return userID, nil
}

// defaultAvatarURL builds a deterministic placeholder avatar from the
// user's name, matching what the web client renders before an upload.
func defaultAvatarURL(name string) string {
	return "https://api.dicebear.com/7.x/initials/svg?seed=" + url.QueryEscape(name)
}
