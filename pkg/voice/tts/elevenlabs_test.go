package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestElevenLabs_Synthesize(t *testing.T) {
	var gotPath, gotFormat, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFormat = r.URL.Query().Get("output_format")
		gotKey = r.Header.Get("xi-api-key")
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	p := NewElevenLabs("key-123").WithBaseURL(srv.URL)
	out, err := p.Synthesize(context.Background(), "Tell me about Go.", SynthesizeOptions{Voice: "voice-1"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(out.Audio) != "mp3-bytes" {
		t.Fatalf("audio=%q", out.Audio)
	}
	if gotPath != "/v1/text-to-speech/voice-1" {
		t.Fatalf("path=%q", gotPath)
	}
	if gotFormat != "mp3_44100_128" {
		t.Fatalf("output_format=%q", gotFormat)
	}
	if gotKey != "key-123" {
		t.Fatalf("xi-api-key=%q", gotKey)
	}
}

func TestElevenLabs_PCMFormat(t *testing.T) {
	var gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFormat = r.URL.Query().Get("output_format")
		w.Write([]byte("pcm"))
	}))
	defer srv.Close()

	p := NewElevenLabs("key").WithBaseURL(srv.URL)
	if _, err := p.Synthesize(context.Background(), "hi", SynthesizeOptions{Format: "pcm", SampleRate: 16000}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if gotFormat != "pcm_16000" {
		t.Fatalf("output_format=%q", gotFormat)
	}

	// Default pcm rate.
	if _, err := p.Synthesize(context.Background(), "hi", SynthesizeOptions{Format: "pcm"}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if gotFormat != "pcm_24000" {
		t.Fatalf("output_format=%q", gotFormat)
	}
}

func TestElevenLabs_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewElevenLabs("key").WithBaseURL(srv.URL)
	_, err := p.Synthesize(context.Background(), "hi", SynthesizeOptions{})
	if err == nil {
		t.Fatalf("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("err=%v, want status in message", err)
	}
}

func TestElevenLabs_InputValidation(t *testing.T) {
	p := NewElevenLabs("")
	if _, err := p.Synthesize(context.Background(), "hi", SynthesizeOptions{}); err == nil {
		t.Fatalf("expected error without an api key")
	}

	p = NewElevenLabs("key")
	if _, err := p.Synthesize(context.Background(), "   ", SynthesizeOptions{}); err == nil {
		t.Fatalf("expected error for empty text")
	}
}
