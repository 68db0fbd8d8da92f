// Package speech converts tutor text to audio for the listen-back
// feature in conversation practice.
package speech

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
)

// Synthesizer renders text to spoken audio. Implementations return
// encoded audio bytes ready to hand to the client.
type Synthesizer interface {
	// Synthesize returns MP3 audio of text spoken by the named voice.
	// An empty voice selects the default for the language.
	Synthesize(ctx context.Context, text, language, voice string) ([]byte, error)
	Close() error
}

// GoogleSynthesizer speaks through the Google Cloud Text-to-Speech API.
// Credentials come from the environment (GOOGLE_APPLICATION_CREDENTIALS
// or ambient service-account identity).
type GoogleSynthesizer struct {
	client *texttospeech.Client
}

func NewGoogleSynthesizer(ctx context.Context) (*GoogleSynthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech: creating texttospeech client: %w", err)
	}
	return &GoogleSynthesizer{client: client}, nil
}

var _ Synthesizer = (*GoogleSynthesizer)(nil)

func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text, language, voice string) ([]byte, error) {
	if language == "" {
		language = "es-ES"
	}

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		// Standard voices stay within the free synthesis quota.
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: language,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_FEMALE,
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}

	resp, err := g.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, apperror.External("texttospeech", err)
	}

	return resp.AudioContent, nil
}

func (g *GoogleSynthesizer) Close() error {
	return g.client.Close()
}
