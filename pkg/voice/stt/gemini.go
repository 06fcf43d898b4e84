package stt

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiSTTModel = "gemini-2.0-flash"

// GeminiProvider transcribes candidate audio through Gemini's audio
// understanding endpoint.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed transcriber.
func NewGemini(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: defaultGeminiSTTModel}, nil
}

// WithModel overrides the default model.
func (g *GeminiProvider) WithModel(model string) *GeminiProvider {
	if strings.TrimSpace(model) != "" {
		g.model = model
	}
	return g
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}

func (g *GeminiProvider) Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (*Transcript, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio payload is empty")
	}
	mime := opts.MIMEType
	if mime == "" {
		mime = "audio/wav"
	}

	prompt := "Transcribe this audio verbatim. Respond with the transcript text only, no commentary."
	if opts.Language != "" {
		prompt = fmt.Sprintf("Transcribe this %s audio verbatim. Respond with the transcript text only, no commentary.", opts.Language)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mime, Data: audio}},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini transcription: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini transcription returned no text")
	}
	return &Transcript{Text: text, Language: opts.Language}, nil
}
