package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/ai"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
)

func newTestConversationService(t *testing.T, responder ai.Responder) (*ConversationService, *fakeConversationRepo) {
	t.Helper()
	repo := newFakeConversationRepo()
	if responder == nil {
		responder = &fakeResponder{reply: "¡Muy bien!"}
	}
	scorer := ai.NewMockScorer(rand.NewSource(1))
	return NewConversationService(repo, responder, scorer, testLogger()), repo
}

func TestCreateConversation_SeedsGreeting(t *testing.T) {
	svc, repo := newTestConversationService(t, nil)

	conv, err := svc.CreateConversation(context.Background(), "user-1", "Práctica diaria", "Spanish")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, model.SenderAI, conv.Messages[0].Sender)
	assert.NotEmpty(t, conv.Messages[0].Text)

	stored := repo.messages[conv.ID]
	require.Len(t, stored, 1)
	assert.Equal(t, conv.Messages[0].ID, stored[0].ID)
}

func TestCreateConversation_Validation(t *testing.T) {
	svc, _ := newTestConversationService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateConversation(ctx, "user-1", "  ", "Spanish")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.CreateConversation(ctx, "user-1", "Title", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.CreateConversation(ctx, "", "Title", "Spanish")
	assert.ErrorIs(t, err, apperror.ErrNotAuthenticated)
}

// The reply pair always comes back as [user, ai] with ordered timestamps.
func TestSendMessage_ReturnsOrderedPair(t *testing.T) {
	svc, _ := newTestConversationService(t, nil)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", "Práctica", "Spanish")
	require.NoError(t, err)

	msgs, err := svc.SendMessage(ctx, "user-1", conv.ID, "Hola, ¿cómo estás?", "")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, model.SenderUser, msgs[0].Sender)
	assert.Equal(t, model.SenderAI, msgs[1].Sender)
	assert.Equal(t, "Hola, ¿cómo estás?", msgs[0].Text)
	assert.Equal(t, "¡Muy bien!", msgs[1].Text)
	assert.False(t, msgs[1].Timestamp.Before(msgs[0].Timestamp))
}

// A responder failure keeps the user's message and surfaces the error so
// the client can retry the reply without re-sending.
func TestSendMessage_KeepsUserMessageWhenResponderFails(t *testing.T) {
	responder := &fakeResponder{err: apperror.External("openai", errors.New("timeout"))}
	svc, repo := newTestConversationService(t, responder)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", "Práctica", "Spanish")
	require.NoError(t, err)

	msgs, err := svc.SendMessage(ctx, "user-1", conv.ID, "Hola", "")
	assert.ErrorIs(t, err, apperror.ErrExternal)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.SenderUser, msgs[0].Sender)

	// Greeting plus the kept user message; no AI reply row.
	assert.Len(t, repo.messages[conv.ID], 2)
}

func TestSendMessage_BumpsConversationTimestamp(t *testing.T) {
	svc, repo := newTestConversationService(t, nil)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", "Práctica", "Spanish")
	require.NoError(t, err)
	created := repo.conversations[conv.ID].UpdatedAt

	msgs, err := svc.SendMessage(ctx, "user-1", conv.ID, "Hola", "")
	require.NoError(t, err)

	bumped := repo.conversations[conv.ID].UpdatedAt
	assert.False(t, bumped.Before(created))
	assert.Equal(t, msgs[1].Timestamp, bumped)
}

func TestSendMessage_RejectsForeignConversation(t *testing.T) {
	svc, _ := newTestConversationService(t, nil)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", "Práctica", "Spanish")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, "user-2", conv.ID, "Hola", "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestGetConversation_IncludesHistory(t *testing.T) {
	svc, _ := newTestConversationService(t, nil)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", "Práctica", "Spanish")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, "user-1", conv.ID, "Hola", "")
	require.NoError(t, err)

	loaded, err := svc.GetConversation(ctx, "user-1", conv.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Messages, 3)
}

func TestDeleteConversation_RemovesThreadAndMessages(t *testing.T) {
	svc, repo := newTestConversationService(t, nil)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", "Práctica", "Spanish")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConversation(ctx, "user-1", conv.ID))
	assert.Empty(t, repo.conversations)
	assert.Empty(t, repo.messages)

	err = svc.DeleteConversation(ctx, "user-1", conv.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAnalyzePronunciation_ReturnsFeedback(t *testing.T) {
	svc, _ := newTestConversationService(t, nil)

	fb, err := svc.AnalyzePronunciation(context.Background(), "user-1", "https://example.com/clip.webm", "buenos días")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fb.Score, 60)
	assert.LessOrEqual(t, fb.Score, 100)
	assert.NotEmpty(t, fb.Feedback)
}

func TestAnalyzePronunciation_RequiresText(t *testing.T) {
	svc, _ := newTestConversationService(t, nil)

	_, err := svc.AnalyzePronunciation(context.Background(), "user-1", "", "  ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
