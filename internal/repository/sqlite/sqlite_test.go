package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/require"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

// newTestDB opens a fresh in-memory database, migrated and seeded.
// The pool is pinned to one connection: each ":memory:" connection is its
// own database, so a second pooled connection would see an empty schema.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	db.conn.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts an identity+profile pair and returns the user ID.
func createTestUser(t *testing.T, db *DB, email string) string {
	t.Helper()
	id := xid.New().String()
	cred := &model.Credential{ID: id, Email: email, PasswordHash: "x"}
	profile := &model.User{
		ID:               id,
		Email:            email,
		Name:             "Test User",
		NativeLanguage:   "English",
		LearningLanguage: "Spanish",
		ProficiencyLevel: model.LevelBeginner,
	}
	require.NoError(t, db.CreateAccount(context.Background(), cred, profile))
	return id
}

// startTestLesson creates a progress row against a seeded lesson.
func startTestLesson(t *testing.T, db *DB, userID, lessonID string) *model.UserLesson {
	t.Helper()
	ul := &model.UserLesson{
		ID:        xid.New().String(),
		UserID:    userID,
		LessonID:  lessonID,
		StartedAt: time.Now(),
	}
	require.NoError(t, db.CreateUserLesson(context.Background(), ul))
	return ul
}

// seededLessonID returns the ID of one of the seeded starter lessons.
func seededLessonID(t *testing.T, db *DB, index int) string {
	t.Helper()
	lessons, err := db.ListLessons(context.Background(), repository.LessonFilter{})
	require.NoError(t, err)
	require.Greater(t, len(lessons), index)
	return lessons[index].ID
}
