package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	elevenLabsDefaultBaseURL = "https://api.elevenlabs.io"
	elevenLabsDefaultModel   = "eleven_multilingual_v2"
	elevenLabsDefaultVoice   = "21m00Tcm4TlvDq8ikWAM"
)

// ElevenLabsProvider synthesizes speech over the ElevenLabs HTTP API.
type ElevenLabsProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	modelID    string
}

func NewElevenLabs(apiKey string) *ElevenLabsProvider {
	return NewElevenLabsWithClient(apiKey, nil)
}

func NewElevenLabsWithClient(apiKey string, client *http.Client) *ElevenLabsProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &ElevenLabsProvider{
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: client,
		baseURL:    elevenLabsDefaultBaseURL,
		modelID:    elevenLabsDefaultModel,
	}
}

// WithBaseURL overrides the API base URL (tests, proxies).
func (e *ElevenLabsProvider) WithBaseURL(base string) *ElevenLabsProvider {
	base = strings.TrimSpace(base)
	if base != "" {
		e.baseURL = strings.TrimSuffix(base, "/")
	}
	return e
}

func (e *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

func (e *ElevenLabsProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key is required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	voice := strings.TrimSpace(opts.Voice)
	if voice == "" {
		voice = elevenLabsDefaultVoice
	}

	format := outputFormat(opts)
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(voice), url.QueryEscape(format))

	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": e.modelID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs returned no audio")
	}
	return &Synthesis{Audio: audio, Format: opts.Format}, nil
}

func outputFormat(opts SynthesizeOptions) string {
	switch opts.Format {
	case "pcm":
		rate := opts.SampleRate
		if rate <= 0 {
			rate = 24000
		}
		return fmt.Sprintf("pcm_%d", rate)
	case "", "mp3":
		return "mp3_44100_128"
	default:
		return opts.Format
	}
}
