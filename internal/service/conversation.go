package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/ai"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

const (
	MaxConversationTitleLength = 150
	MaxMessageLength           = 4000
	// conversationContextTurns bounds how much history is sent to the
	// responder per reply.
	conversationContextTurns = 20
)

// ConversationService handles chat threads between learners and the AI
// tutor.
type ConversationService struct {
	conversations repository.ConversationRepository
	responder     ai.Responder
	scorer        ai.PronunciationScorer
	logger        *slog.Logger
}

func NewConversationService(conversations repository.ConversationRepository, responder ai.Responder, scorer ai.PronunciationScorer, logger *slog.Logger) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		responder:     responder,
		scorer:        scorer,
		logger:        logger,
	}
}

// CreateConversation opens a new thread seeded with the tutor's greeting.
// Thread and greeting are stored in one transaction, so a new conversation
// is never visible without its opening message.
func (s *ConversationService) CreateConversation(ctx context.Context, userID, title, language string) (*model.Conversation, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "conversation title is required")
	}
	if len(title) > MaxConversationTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxConversationTitleLength))
	}
	language = strings.TrimSpace(language)
	if language == "" {
		return nil, apperror.ValidationFailed("language", "language is required")
	}

	greetingText, err := s.responder.Greeting(ctx, language)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	conv := &model.Conversation{
		ID:        xid.New().String(),
		UserID:    userID,
		Title:     title,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	greeting := &model.Message{
		ID:             xid.New().String(),
		ConversationID: conv.ID,
		Sender:         model.SenderAI,
		Text:           greetingText,
		Timestamp:      now,
	}

	if err := s.conversations.CreateConversation(ctx, conv, greeting); err != nil {
		s.logger.Error("failed to create conversation", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	conv.Messages = []model.Message{*greeting}
	s.logger.Info("conversation created", slog.String("conversation_id", conv.ID), slog.String("user_id", userID))
	return conv, nil
}

// GetUserConversations lists the user's threads, most recently active
// first. Messages are not loaded; the client fetches a thread to read it.
func (s *ConversationService) GetUserConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}

	convs, err := s.conversations.ListConversations(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list conversations", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return convs, nil
}

// GetConversation loads one thread with its full message history.
func (s *ConversationService) GetConversation(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := s.ownedConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	conv.Messages = messages
	return conv, nil
}

// SendMessage stores the user's message and asks the responder for the
// tutor's reply. If the responder fails, the user's message is already
// saved and is returned alongside the error, so the client can show the
// sent message and a retry affordance instead of losing input.
func (s *ConversationService) SendMessage(ctx context.Context, userID, conversationID, text, audioURL string) ([]model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "message text is required")
	}
	if len(text) > MaxMessageLength {
		return nil, apperror.ValidationFailed("text",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	conv, err := s.ownedConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	userMsg := &model.Message{
		ID:             xid.New().String(),
		ConversationID: conversationID,
		Sender:         model.SenderUser,
		Text:           text,
		AudioURL:       audioURL,
		Timestamp:      time.Now(),
	}
	if err := s.conversations.CreateMessage(ctx, userMsg); err != nil {
		s.logger.Error("failed to store message", slog.String("conversation_id", conversationID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("storing message: %w", err)
	}

	history, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return []model.Message{*userMsg}, fmt.Errorf("loading history: %w", err)
	}

	replyText, err := s.responder.Reply(ctx, chatHistory(history, conv.Language))
	if err != nil {
		s.logger.Warn("responder failed, user message kept",
			slog.String("conversation_id", conversationID),
			slog.String("error", err.Error()),
		)
		return []model.Message{*userMsg}, err
	}

	aiMsg := &model.Message{
		ID:             xid.New().String(),
		ConversationID: conversationID,
		Sender:         model.SenderAI,
		Text:           replyText,
		Timestamp:      time.Now(),
	}
	if err := s.conversations.CreateMessage(ctx, aiMsg); err != nil {
		s.logger.Error("failed to store reply", slog.String("conversation_id", conversationID), slog.String("error", err.Error()))
		return []model.Message{*userMsg}, fmt.Errorf("storing reply: %w", err)
	}

	if err := s.conversations.TouchConversation(ctx, conversationID, aiMsg.Timestamp); err != nil {
		s.logger.Warn("failed to bump conversation timestamp", slog.String("conversation_id", conversationID), slog.String("error", err.Error()))
	}

	return []model.Message{*userMsg, *aiMsg}, nil
}

// DeleteConversation removes a thread and its messages.
func (s *ConversationService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return err
	}

	if err := s.conversations.DeleteConversation(ctx, conversationID); err != nil {
		s.logger.Error("failed to delete conversation", slog.String("conversation_id", conversationID), slog.String("error", err.Error()))
		return fmt.Errorf("deleting conversation: %w", err)
	}

	s.logger.Info("conversation deleted", slog.String("conversation_id", conversationID), slog.String("user_id", userID))
	return nil
}

// AnalyzePronunciation scores a recorded utterance against its target text.
func (s *ConversationService) AnalyzePronunciation(ctx context.Context, userID, audioURL, text string) (*model.PronunciationFeedback, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "target text is required")
	}

	feedback, err := s.scorer.Score(ctx, audioURL, text)
	if err != nil {
		s.logger.Error("pronunciation scoring failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, err
	}
	return feedback, nil
}

// ownedConversation loads a thread and verifies the caller owns it.
func (s *ConversationService) ownedConversation(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	if userID == "" {
		return nil, apperror.NotAuthenticated("")
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, apperror.ValidationFailed("id", "conversation ID is required")
	}

	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, apperror.Forbidden("conversation belongs to another user")
	}
	return conv, nil
}

// chatHistory converts stored messages to responder turns, keeping only
// the most recent ones.
func chatHistory(messages []model.Message, language string) []ai.ChatMessage {
	if len(messages) > conversationContextTurns {
		messages = messages[len(messages)-conversationContextTurns:]
	}

	out := make([]ai.ChatMessage, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Sender == model.SenderAI {
			role = "assistant"
		}
		out = append(out, ai.ChatMessage{Role: role, Content: m.Text})
	}
	return out
}
