package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

var _ repository.ConversationRepository = (*DB)(nil)

// CreateConversation inserts the thread and its seeded greeting in one
// transaction, so a conversation can never exist without its greeting.
func (db *DB) CreateConversation(ctx context.Context, conv *model.Conversation, greeting *model.Message) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning conversation transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, language, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.Title, conv.Language, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting conversation for %s: %w", conv.UserID, err)
	}

	if err := insertMessage(ctx, tx, greeting); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing conversation %s: %w", conv.ID, err)
	}
	return nil
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMessage(ctx context.Context, ex execer, msg *model.Message) error {
	var pronunciation any // NULL unless feedback is present
	if msg.Pronunciation != nil {
		encoded, err := encodeJSON(msg.Pronunciation)
		if err != nil {
			return fmt.Errorf("sqlite: encoding pronunciation feedback: %w", err)
		}
		pronunciation = encoded
	}

	_, err := ex.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender, text, audio_url, timestamp, pronunciation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Sender, msg.Text, msg.AudioURL, msg.Timestamp, pronunciation,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting message in %s: %w", msg.ConversationID, err)
	}
	return nil
}

// ListConversations returns the user's threads, most recently active first.
// Messages are not loaded here; list views don't need them.
func (db *DB) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, title, language, created_at, updated_at
		 FROM conversations WHERE user_id = ? ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing conversations for %s: %w", userID, err)
	}
	defer rows.Close()

	convs := []model.Conversation{}
	for rows.Next() {
		var c model.Conversation
		err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Language, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning conversation: %w", err)
		}
		c.Messages = []model.Message{}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating conversations: %w", err)
	}

	return convs, nil
}

// GetConversation retrieves one thread without messages; callers that want
// the transcript follow up with ListMessages.
func (db *DB) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, title, language, created_at, updated_at
		 FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.Language, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("conversation", id)
		}
		return nil, fmt.Errorf("sqlite: getting conversation %s: %w", id, err)
	}
	c.Messages = []model.Message{}
	return &c, nil
}

// ListMessages returns the transcript, oldest first.
func (db *DB) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, conversation_id, sender, text, audio_url, timestamp, pronunciation
		 FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages for %s: %w", conversationID, err)
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var (
			m             model.Message
			pronunciation sql.NullString
		)
		err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Text,
			&m.AudioURL, &m.Timestamp, &pronunciation)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning message: %w", err)
		}
		if pronunciation.Valid && pronunciation.String != "" {
			var fb model.PronunciationFeedback
			if err := decodeNullableJSON(pronunciation, &fb); err != nil {
				return nil, fmt.Errorf("sqlite: message %s pronunciation: %w", m.ID, err)
			}
			m.Pronunciation = &fb
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating messages: %w", err)
	}

	return msgs, nil
}

// CreateMessage appends one message to a thread.
func (db *DB) CreateMessage(ctx context.Context, msg *model.Message) error {
	return insertMessage(ctx, db.conn, msg)
}

// TouchConversation bumps updated_at so the thread sorts to the top of the
// list view.
func (db *DB) TouchConversation(ctx context.Context, id string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("sqlite: touching conversation %s: %w", id, err)
	}
	return nil
}

// DeleteConversation removes the transcript and then the thread row in one
// transaction. Messages must go first: the foreign key from messages to
// conversations would otherwise block the delete, and doing both in a
// transaction means a failure can never leave orphaned messages.
func (db *DB) DeleteConversation(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting messages for %s: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting conversation %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking conversation delete %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("conversation", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete of %s: %w", id, err)
	}
	return nil
}
