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
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

func TestListLessons_SeededAndFiltered(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	all, err := db.ListLessons(ctx, repository.LessonFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.NotEmpty(t, all[0].Content.Sections)

	spanish, err := db.ListLessons(ctx, repository.LessonFilter{Language: "Spanish"})
	require.NoError(t, err)
	assert.Len(t, spanish, len(all))

	none, err := db.ListLessons(ctx, repository.LessonFilter{Language: "Klingon"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetLesson_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetLesson(context.Background(), "no-such-lesson")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// The UNIQUE(user_id, lesson_id) constraint turns the second insert into
// a Conflict, never a second row.
func TestCreateUserLesson_DuplicateConflicts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")
	lessonID := seededLessonID(t, db, 0)

	startTestLesson(t, db, userID, lessonID)

	dup := &model.UserLesson{
		ID:        xid.New().String(),
		UserID:    userID,
		LessonID:  lessonID,
		StartedAt: time.Now(),
	}
	err := db.CreateUserLesson(ctx, dup)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	rows, err := db.ListUserLessons(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFindUserLesson(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")
	lessonID := seededLessonID(t, db, 0)
	created := startTestLesson(t, db, userID, lessonID)

	found, err := db.FindUserLesson(ctx, userID, lessonID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = db.FindUserLesson(ctx, userID, "never-started")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateUserLesson_PersistsCompletion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")
	ul := startTestLesson(t, db, userID, seededLessonID(t, db, 0))

	now := time.Now()
	ul.Progress = 100
	ul.Completed = true
	ul.CompletedAt = &now
	require.NoError(t, db.UpdateUserLesson(ctx, ul))

	loaded, err := db.GetUserLesson(ctx, ul.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, loaded.Progress)
	assert.True(t, loaded.Completed)
	require.NotNil(t, loaded.CompletedAt)
}

// ListUserLessons attaches each row's performances via one batched query.
func TestListUserLessons_IncludesPerformances(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, db, "maria@example.com")
	first := startTestLesson(t, db, userID, seededLessonID(t, db, 0))
	second := startTestLesson(t, db, userID, seededLessonID(t, db, 1))

	for i, ulID := range []string{first.ID, first.ID, second.ID} {
		perf := &model.LessonPerformance{
			ID:           xid.New().String(),
			UserLessonID: ulID,
			Date:         time.Now().Add(time.Duration(i) * time.Minute),
			Score:        float64(70 + i),
		}
		require.NoError(t, db.CreatePerformance(ctx, perf))
	}

	rows, err := db.ListUserLessons(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[string]model.UserLesson{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	assert.Len(t, byID[first.ID].Performances, 2)
	assert.Len(t, byID[second.ID].Performances, 1)
}

func TestListUserLessons_EmptyForNewUser(t *testing.T) {
	db := newTestDB(t)

	userID := createTestUser(t, db, "maria@example.com")
	rows, err := db.ListUserLessons(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
