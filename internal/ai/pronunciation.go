package ai

import (
	"context"
	"math/rand"
	"sync"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
)

// PronunciationScorer evaluates a spoken attempt at a phrase. The
// audioURL points at the recorded clip; implementations may ignore it.
type PronunciationScorer interface {
	Score(ctx context.Context, audioURL, text string) (*model.PronunciationFeedback, error)
}

// MockScorer produces plausible pronunciation feedback without a speech
// backend: a random score in 60..100 with feedback text banded by score.
// Real scoring needs a speech-analysis provider; until one is wired in,
// this keeps the pronunciation flow exercisable end to end.
type MockScorer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMockScorer(src rand.Source) *MockScorer {
	return &MockScorer{rnd: rand.New(src)}
}

var _ PronunciationScorer = (*MockScorer)(nil)

func (m *MockScorer) Score(ctx context.Context, audioURL, text string) (*model.PronunciationFeedback, error) {
	m.mu.Lock()
	score := 60 + m.rnd.Intn(41)
	acc := clampScore(score + m.rnd.Intn(11) - 5)
	flu := clampScore(score + m.rnd.Intn(11) - 5)
	intn := clampScore(score + m.rnd.Intn(11) - 5)
	m.mu.Unlock()

	return &model.PronunciationFeedback{
		Score:    score,
		Feedback: feedbackForScore(score),
		Detail: &model.PronunciationDetail{
			Accuracy:   acc,
			Fluency:    flu,
			Intonation: intn,
		},
	}, nil
}

func feedbackForScore(score int) string {
	switch {
	case score >= 90:
		return "¡Excelente pronunciación! Suenas muy natural."
	case score >= 80:
		return "¡Muy bien! Solo pequeños detalles por pulir."
	case score >= 70:
		return "Buen intento. Practica las vocales y la entonación."
	default:
		return "Sigue practicando. Repite la frase despacio, sílaba por sílaba."
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
