package model

import "time"

// Lesson types. A lesson is static learning content, created by seeding or
// external authoring, immutable from the API's perspective.
const (
	LessonTypeConversation  = "conversation"
	LessonTypeGrammar       = "grammar"
	LessonTypeVocabulary    = "vocabulary"
	LessonTypePronunciation = "pronunciation"
)

// Lesson is one unit of learning content.
type Lesson struct {
	ID          string        `json:"id"          db:"id"`
	Title       string        `json:"title"       db:"title"`
	Description string        `json:"description" db:"description"`
	Language    string        `json:"language"    db:"language"`
	Level       string        `json:"level"       db:"level"`
	Duration    int           `json:"duration"    db:"duration"` // minutes
	Type        string        `json:"type"        db:"type"`
	Content     LessonContent `json:"content"     db:"content"` // stored as JSON
	CreatedAt   time.Time     `json:"createdAt"   db:"created_at"`
}

// LessonContent is the nested section list rendered by the lesson viewer.
// Section bodies are rich text (HTML fragments) and opaque to the server.
type LessonContent struct {
	Sections []LessonSection `json:"sections"`
}

// LessonSection is one titled block of lesson content.
type LessonSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UserLesson is the per-(user, lesson) progress join. At most one row exists
// per pair (enforced by a UNIQUE constraint in the store), so "start lesson"
// is idempotent.
//
// State machine: NotStarted → InProgress (progress 0..99) → Completed
// (progress 100, CompletedAt stamped exactly once, then immutable).
type UserLesson struct {
	ID           string              `json:"id"          db:"id"`
	UserID       string              `json:"userId"      db:"user_id"`
	LessonID     string              `json:"lessonId"    db:"lesson_id"`
	Progress     int                 `json:"progress"    db:"progress"` // 0..100
	Completed    bool                `json:"completed"   db:"completed"`
	StartedAt    time.Time           `json:"startedAt"   db:"started_at"`
	CompletedAt  *time.Time          `json:"completedAt,omitempty" db:"completed_at"`
	Performances []LessonPerformance `json:"performances"`
}

// LessonPerformance is an immutable snapshot of one practice session's
// outcome for a UserLesson. Append-only.
type LessonPerformance struct {
	ID           string             `json:"id"           db:"id"`
	UserLessonID string             `json:"userLessonId" db:"user_lesson_id"`
	Date         time.Time          `json:"date"         db:"date"`
	Score        float64            `json:"score"        db:"score"`
	Duration     int                `json:"duration"     db:"duration"` // minutes
	Metrics      PerformanceDetails `json:"metrics"      db:"metrics"`  // stored as JSON
}

// PerformanceDetails holds optional per-axis scores for a practice session.
// Callers report either 0–1 fractions or 0–100 percentages; the value is
// stored as supplied and interpreted by the client that recorded it.
type PerformanceDetails struct {
	Accuracy   *float64 `json:"accuracy,omitempty"`
	Fluency    *float64 `json:"fluency,omitempty"`
	Vocabulary *float64 `json:"vocabulary,omitempty"`
	Grammar    *float64 `json:"grammar,omitempty"`
}
