package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aihr-dev/interviewd/pkg/gateway/config"
	"github.com/aihr-dev/interviewd/pkg/gateway/lifecycle"
	"github.com/aihr-dev/interviewd/pkg/gateway/server"
	"github.com/aihr-dev/interviewd/pkg/interview"
	"github.com/aihr-dev/interviewd/pkg/store/memory"
)

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return fmt.Sprintf("transcript of %d bytes", len(audio)), nil
}

type stubAnalyzer struct {
	score float64
}

func (a stubAnalyzer) Analyze(ctx context.Context, transcript string, profile interview.VacancyProfile, history []interview.Assessment) (*interview.Assessment, error) {
	return &interview.Assessment{
		SchemaVersion: interview.AssessmentSchemaVersion,
		HardSkills:    map[string]float64{"go": a.score},
		Emotion:       "calm",
	}, nil
}

type testServer struct {
	ts        *httptest.Server
	lifecycle *lifecycle.Lifecycle
}

func newTestServer(t *testing.T, score float64) testServer {
	t.Helper()

	orch, err := interview.New(interview.Dependencies{
		Store:       memory.New(),
		Transcriber: stubTranscriber{},
		Analyzer:    stubAnalyzer{score: score},
		Config: interview.Config{
			Policy: interview.PolicyConfig{MaxTurns: 8, MinTurns: 1, AcceptScore: 4.0, RejectScore: 1.5},
		},
	})
	if err != nil {
		t.Fatalf("interview.New: %v", err)
	}

	cfg := config.Config{
		AuthMode:     config.AuthModeDisabled,
		MaxBodyBytes: 1 << 20,
	}
	lc := &lifecycle.Lifecycle{}
	srv := server.New(cfg, nil, server.Dependencies{Orchestrator: orch, Lifecycle: lc})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return testServer{ts: ts, lifecycle: lc}
}

func (s testServer) post(t *testing.T, path string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(s.ts.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, decodeFields(t, resp)
}

func (s testServer) get(t *testing.T, path string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Get(s.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, decodeFields(t, resp)
}

func decodeFields(t *testing.T, resp *http.Response) map[string]json.RawMessage {
	t.Helper()
	defer resp.Body.Close()
	fields := make(map[string]json.RawMessage)
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return fields
}

func strField(t *testing.T, fields map[string]json.RawMessage, key string) string {
	t.Helper()
	var s string
	if err := json.Unmarshal(fields[key], &s); err != nil {
		t.Fatalf("field %q: %v (raw=%s)", key, err, fields[key])
	}
	return s
}

func startBody() map[string]any {
	return map[string]any{
		"candidate": "cand-1",
		"vacancy":   "vac-1",
		"profile": map[string]any{
			"title":       "Backend Engineer",
			"level":       "middle",
			"hard_skills": []string{"go", "sql"},
			"soft_skills": []string{"communication"},
		},
	}
}

func TestInterviewFlow(t *testing.T) {
	srv := newTestServer(t, 4.5)

	resp, fields := srv.post(t, "/v1/interviews", startBody())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status=%d", resp.StatusCode)
	}
	id := strField(t, fields, "session_id")
	if id == "" {
		t.Fatalf("missing session_id")
	}
	if got := strField(t, fields, "status"); got != string(interview.StatusInProgress) {
		t.Fatalf("status=%q", got)
	}
	if strField(t, fields, "question") == "" {
		t.Fatalf("start must return the opening question")
	}

	// Score 4.5 with an explicit done forces a terminal accept on turn one.
	resp, fields = srv.post(t, "/v1/interviews/"+id+"/turns", map[string]any{
		"text": "I have five years of Go experience.",
		"done": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status=%d", resp.StatusCode)
	}
	if got := strField(t, fields, "decision"); got != string(interview.DecisionAccept) {
		t.Fatalf("decision=%q, want accept", got)
	}
	if _, ok := fields["report"]; !ok {
		t.Fatalf("terminal turn must include the report")
	}

	resp, fields = srv.get(t, "/v1/interviews/"+id)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status=%d", resp.StatusCode)
	}
	if got := strField(t, fields, "status"); got != string(interview.StatusCompleted) {
		t.Fatalf("final status=%q", got)
	}

	resp, fields = srv.get(t, "/v1/interviews/"+id+"/report")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status=%d", resp.StatusCode)
	}
	var verdict struct {
		IsSuitable bool `json:"is_suitable"`
	}
	if err := json.Unmarshal(fields["verdict"], &verdict); err != nil {
		t.Fatalf("verdict: %v", err)
	}
	if !verdict.IsSuitable {
		t.Fatalf("verdict=%+v, want suitable", verdict)
	}
}

func TestContinueThenNextQuestion(t *testing.T) {
	// Score in the gray zone keeps the interview going.
	srv := newTestServer(t, 3.0)

	_, fields := srv.post(t, "/v1/interviews", startBody())
	id := strField(t, fields, "session_id")

	resp, fields := srv.post(t, "/v1/interviews/"+id+"/turns", map[string]any{
		"text": "I mostly worked with Python.",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status=%d", resp.StatusCode)
	}
	if got := strField(t, fields, "decision"); got != string(interview.DecisionContinue) {
		t.Fatalf("decision=%q, want continue", got)
	}
	if strField(t, fields, "question") == "" {
		t.Fatalf("continue must carry the next question")
	}
	if _, ok := fields["report"]; ok {
		t.Fatalf("continue must not carry a report")
	}
}

func TestStart_RejectsWhileDraining(t *testing.T) {
	srv := newTestServer(t, 4.5)
	srv.lifecycle.SetDraining(true)

	resp, _ := srv.post(t, "/v1/interviews", startBody())
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503 while draining", resp.StatusCode)
	}
}

func TestSubmit_InvalidBase64(t *testing.T) {
	srv := newTestServer(t, 4.5)
	_, fields := srv.post(t, "/v1/interviews", startBody())
	id := strField(t, fields, "session_id")

	resp, _ := srv.post(t, "/v1/interviews/"+id+"/turns", map[string]any{
		"audio_b64": "%%%not-base64%%%",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400 for invalid base64", resp.StatusCode)
	}
}

func TestSubmit_UnknownSession(t *testing.T) {
	srv := newTestServer(t, 4.5)
	resp, _ := srv.post(t, "/v1/interviews/nope/turns", map[string]any{"text": "hi"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", resp.StatusCode)
	}
}

func TestStart_UnknownFieldRejected(t *testing.T) {
	srv := newTestServer(t, 4.5)
	resp, _ := srv.post(t, "/v1/interviews", map[string]any{
		"candidate": "cand-1",
		"vacancy":   "vac-1",
		"surprise":  true,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400 for unknown field", resp.StatusCode)
	}
}

func TestSendReport_NotConfigured(t *testing.T) {
	srv := newTestServer(t, 4.5)
	_, fields := srv.post(t, "/v1/interviews", startBody())
	id := strField(t, fields, "session_id")

	resp, _ := srv.post(t, "/v1/interviews/"+id+"/report/send", map[string]any{"email": "c@example.com"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status=%d, want 502 without a mailer", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, 4.5)
	resp, _ := srv.get(t, "/v1/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", resp.StatusCode)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 4.5)

	resp, err := http.Get(srv.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status=%d", resp.StatusCode)
	}

	resp, _ = srv.get(t, "/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status=%d", resp.StatusCode)
	}

	srv.lifecycle.SetDraining(true)
	resp, _ = srv.get(t, "/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503 while draining", resp.StatusCode)
	}
}
