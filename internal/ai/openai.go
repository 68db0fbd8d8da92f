package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIResponder generates tutor replies with the OpenAI chat API.
type OpenAIResponder struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIResponder builds a responder for the given key. Empty model or
// baseURL select the defaults; a non-empty baseURL points the client at an
// OpenAI-compatible endpoint.
func NewOpenAIResponder(apiKey, model, baseURL string) *OpenAIResponder {
	if model == "" {
		model = defaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIResponder{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

var _ Responder = (*OpenAIResponder)(nil)

func (o *OpenAIResponder) Greeting(ctx context.Context, language string) (string, error) {
	// The greeting is fixed rather than generated: it opens every
	// conversation identically and costs nothing.
	return fmt.Sprintf("¡Hola! Soy tu tutor de %s. ¿Cómo estás hoy?", language), nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const tutorSystemPrompt = "You are a friendly language tutor. Reply briefly in the language " +
	"the student is learning, gently correcting mistakes. Keep replies under three sentences."

func (o *OpenAIResponder) Reply(ctx context.Context, messages []ChatMessage) (string, error) {
	payload := chatRequest{
		Model:       o.model,
		Messages:    append([]ChatMessage{{Role: "system", Content: tutorSystemPrompt}}, messages...),
		Temperature: 0.6,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperror.External("openai", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperror.External("openai", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", apperror.External("openai", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperror.External("openai", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperror.External("openai", err)
	}
	if len(out.Choices) == 0 {
		return "", apperror.External("openai", fmt.Errorf("empty choices"))
	}

	return out.Choices[0].Message.Content, nil
}
