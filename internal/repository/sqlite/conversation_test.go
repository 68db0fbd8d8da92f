package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
)

func createTestConversation(t *testing.T, db *DB, userID string) *model.Conversation {
	t.Helper()
	now := time.Now()
	conv := &model.Conversation{
		ID:        xid.New().String(),
		UserID:    userID,
		Title:     "Práctica",
		Language:  "Spanish",
		CreatedAt: now,
		UpdatedAt: now,
	}
	greeting := &model.Message{
		ID:             xid.New().String(),
		ConversationID: conv.ID,
		Sender:         model.SenderAI,
		Text:           "¡Hola!",
		Timestamp:      now,
	}
	require.NoError(t, db.CreateConversation(context.Background(), conv, greeting))
	return conv
}

// Creating a conversation stores the thread and its greeting together.
func TestCreateConversation_SeedsGreeting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")
	conv := createTestConversation(t, db, userID)

	msgs, err := db.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.SenderAI, msgs[0].Sender)
	assert.Equal(t, "¡Hola!", msgs[0].Text)
}

func TestListMessages_OrderedWithPronunciation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")
	conv := createTestConversation(t, db, userID)

	base := time.Now()
	userMsg := &model.Message{
		ID:             xid.New().String(),
		ConversationID: conv.ID,
		Sender:         model.SenderUser,
		Text:           "Buenos días",
		AudioURL:       "https://example.com/clip.webm",
		Timestamp:      base.Add(time.Second),
		Pronunciation: &model.PronunciationFeedback{
			Score:    84,
			Feedback: "¡Muy bien!",
			Detail:   &model.PronunciationDetail{Accuracy: 85, Fluency: 80, Intonation: 88},
		},
	}
	require.NoError(t, db.CreateMessage(ctx, userMsg))

	msgs, err := db.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderAI, msgs[0].Sender)
	assert.Equal(t, model.SenderUser, msgs[1].Sender)
	require.NotNil(t, msgs[1].Pronunciation)
	assert.Equal(t, 84, msgs[1].Pronunciation.Score)
	require.NotNil(t, msgs[1].Pronunciation.Detail)
	assert.Equal(t, 85, msgs[1].Pronunciation.Detail.Accuracy)
	assert.Nil(t, msgs[0].Pronunciation)
}

func TestListConversations_MostRecentFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")
	older := createTestConversation(t, db, userID)
	newer := createTestConversation(t, db, userID)

	require.NoError(t, db.TouchConversation(ctx, newer.ID, time.Now().Add(time.Hour)))

	convs, err := db.ListConversations(ctx, userID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, newer.ID, convs[0].ID)
	assert.Equal(t, older.ID, convs[1].ID)
}

// Deleting removes the thread and every message in one transaction; with
// foreign keys enforced, surviving messages would fail the delete.
func TestDeleteConversation_RemovesMessages(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")
	conv := createTestConversation(t, db, userID)

	require.NoError(t, db.DeleteConversation(ctx, conv.ID))

	_, err := db.GetConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	msgs, err := db.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	err = db.DeleteConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
