package model

import "time"

// Message senders.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Conversation is a chat thread between a learner and the AI tutor.
// Messages are loaded separately, not embedded in list responses.
type Conversation struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Title     string    `json:"title"     db:"title"`
	Language  string    `json:"language"  db:"language"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Messages  []Message `json:"messages"`
}

// Message belongs to exactly one conversation. Append-only; ordering is by
// timestamp ascending.
type Message struct {
	ID             string                 `json:"id"             db:"id"`
	ConversationID string                 `json:"conversationId" db:"conversation_id"`
	Sender         string                 `json:"sender"         db:"sender"` // "user" | "ai"
	Text           string                 `json:"text"           db:"text"`
	AudioURL       string                 `json:"audioUrl,omitempty" db:"audio_url"`
	Timestamp      time.Time              `json:"timestamp"      db:"timestamp"`
	Pronunciation  *PronunciationFeedback `json:"pronunciation,omitempty" db:"pronunciation"` // stored as JSON
}

// PronunciationFeedback is a scored assessment of a spoken utterance.
type PronunciationFeedback struct {
	Score    int                  `json:"score"`
	Feedback string               `json:"feedback,omitempty"`
	Detail   *PronunciationDetail `json:"detailedFeedback,omitempty"`
}

// PronunciationDetail breaks a pronunciation score down by axis.
type PronunciationDetail struct {
	Accuracy   int `json:"accuracy"`
	Fluency    int `json:"fluency"`
	Intonation int `json:"intonation"`
}
