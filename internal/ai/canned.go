package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

// CannedResponder is the default Responder used when no OpenAI key is
// configured. It keeps conversation practice usable offline: a handful
// of keyword-triggered replies plus a rotating pool of conversation
// starters, all in Spanish since that is the seeded starter language.
type CannedResponder struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewCannedResponder creates a CannedResponder seeded from src. Pass a
// deterministic source in tests.
func NewCannedResponder(src rand.Source) *CannedResponder {
	return &CannedResponder{rnd: rand.New(src)}
}

func (c *CannedResponder) Greeting(ctx context.Context, language string) (string, error) {
	return fmt.Sprintf("¡Hola! Soy tu tutor de %s. ¿Cómo estás hoy?", language), nil
}

var cannedPool = []string{
	"¡Interesante! Cuéntame más sobre eso.",
	"¿Puedes repetirlo con una frase completa?",
	"¡Muy bien! ¿Qué hiciste el fin de semana?",
	"Entiendo. ¿Y qué piensas tú?",
	"¡Excelente pregunta! Vamos a practicar: describe tu día en tres frases.",
}

func (c *CannedResponder) Reply(ctx context.Context, messages []ChatMessage) (string, error) {
	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			last = messages[i].Content
			break
		}
	}

	lower := strings.ToLower(last)
	switch {
	case strings.Contains(lower, "hola"):
		return "¡Hola! ¿Qué tal tu día?", nil
	case strings.Contains(lower, "bien"):
		return "¡Me alegro! ¿Qué quieres practicar hoy?", nil
	case strings.Contains(lower, "mal"):
		return "Lo siento. A veces practicar un idioma ayuda a distraerse. ¿Seguimos?", nil
	case strings.Contains(lower, "gracias"):
		return "¡De nada! Estás progresando muy bien.", nil
	case strings.Contains(last, "?"):
		return "Buena pregunta. Intenta responderla tú primero, ¡y yo te corrijo!", nil
	}

	c.mu.Lock()
	reply := cannedPool[c.rnd.Intn(len(cannedPool))]
	c.mu.Unlock()
	return reply, nil
}
