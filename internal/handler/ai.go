package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/ai"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/speech"
)

// AIHandler proxies chat completion and text-to-speech so browser
// clients never hold provider credentials.
type AIHandler struct {
	responder    ai.Responder
	synthesizer  speech.Synthesizer // nil when TTS is not configured
	defaultVoice string             // used when a request names no voice
}

func NewAIHandler(responder ai.Responder, synthesizer speech.Synthesizer, defaultVoice string) *AIHandler {
	return &AIHandler{
		responder:    responder,
		synthesizer:  synthesizer,
		defaultVoice: defaultVoice,
	}
}

type chatRequest struct {
	Messages []ai.ChatMessage `json:"messages"`
}

// Chat handles POST /api/chat: a stateless completion over the supplied
// history, independent of any stored conversation.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, apperror.ValidationFailed("messages", "at least one message is required"))
		return
	}

	reply, err := h.responder.Reply(r.Context(), req.Messages)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

type ttsRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Voice    string `json:"voice"`
}

type ttsResponse struct {
	// AudioContent is base64 MP3, or null when synthesis is unavailable
	// so clients can fall back to browser speech.
	AudioContent *string `json:"audioContent"`
}

// Synthesize handles POST /api/tts.
func (h *AIHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Text == "" {
		writeError(w, apperror.ValidationFailed("text", "text is required"))
		return
	}

	if h.synthesizer == nil {
		writeJSON(w, http.StatusOK, ttsResponse{AudioContent: nil})
		return
	}

	voice := req.Voice
	if voice == "" {
		voice = h.defaultVoice
	}
	audio, err := h.synthesizer.Synthesize(r.Context(), req.Text, req.Language, voice)
	if err != nil {
		writeError(w, err)
		return
	}

	encoded := base64.StdEncoding.EncodeToString(audio)
	writeJSON(w, http.StatusOK, ttsResponse{AudioContent: &encoded})
}
