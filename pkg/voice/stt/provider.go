// Package stt provides speech-to-text adapters.
package stt

import "context"

// Provider is the interface for speech-to-text services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Transcribe converts audio to text.
	Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (*Transcript, error)
}

// TranscribeOptions configures transcription.
type TranscribeOptions struct {
	Language string // ISO language code hint
	MIMEType string // Audio MIME type (default: "audio/wav")
}

// Transcript is the result of transcription.
type Transcript struct {
	Text     string // Full transcribed text
	Language string // Detected or specified language
}
