// Package tts provides text-to-speech adapters. Synthesis is invoked by the
// transport layer on the orchestrator's output; the orchestrator itself never
// touches audio.
package tts

import "context"

// Provider is the interface for text-to-speech services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)
}

// SynthesizeOptions configures synthesis.
type SynthesizeOptions struct {
	Voice      string // Voice identifier
	Format     string // Output format: "mp3" or "pcm"
	SampleRate int    // Sample rate for pcm output
}

// Synthesis is the result of synthesis.
type Synthesis struct {
	Audio  []byte // Audio data
	Format string // Audio format
}
