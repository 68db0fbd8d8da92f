// Package ai produces tutor replies for conversation practice. The
// Responder interface has two implementations: a canned keyword matcher
// that works offline, and an OpenAI-backed client enabled when an API
// key is configured.
package ai

import "context"

// ChatMessage is one turn of conversation history passed to a Responder.
// Role follows the OpenAI convention: "system", "user", or "assistant".
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Responder generates tutor messages in the user's learning language.
type Responder interface {
	// Greeting returns the opening message for a new conversation.
	Greeting(ctx context.Context, language string) (string, error)
	// Reply generates the next tutor turn given the conversation so far.
	// The last message is the user's latest input.
	Reply(ctx context.Context, messages []ChatMessage) (string, error)
}
