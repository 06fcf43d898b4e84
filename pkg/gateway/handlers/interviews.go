package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aihr-dev/interviewd/pkg/core"
	"github.com/aihr-dev/interviewd/pkg/gateway/config"
	"github.com/aihr-dev/interviewd/pkg/gateway/lifecycle"
	"github.com/aihr-dev/interviewd/pkg/gateway/mw"
	"github.com/aihr-dev/interviewd/pkg/interview"
	"github.com/aihr-dev/interviewd/pkg/notify"
	"github.com/aihr-dev/interviewd/pkg/voice/tts"
)

// Interviews serves the REST interview surface.
type Interviews struct {
	Orchestrator *interview.Orchestrator
	TTS          tts.Provider
	Mailer       *notify.Mailer
	Config       config.Config
	Logger       *slog.Logger
	Lifecycle    *lifecycle.Lifecycle
}

type startRequest struct {
	Candidate      string                   `json:"candidate"`
	CandidateEmail string                   `json:"candidate_email,omitempty"`
	Vacancy        string                   `json:"vacancy"`
	Profile        interview.VacancyProfile `json:"profile"`
}

type startResponse struct {
	SessionID string           `json:"session_id"`
	Status    interview.Status `json:"status"`
	Question  string           `json:"question"`
	Room      *interview.Room  `json:"room,omitempty"`
}

// Start handles POST /v1/interviews.
func (h Interviews) Start(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	if h.Lifecycle.IsDraining() {
		writeCoreErrorJSON(w, reqID, &core.Error{
			Type:    core.ErrAPI,
			Message: "server is draining",
			Code:    "draining",
		}, http.StatusServiceUnavailable)
		return
	}

	var req startRequest
	if !h.decodeBody(w, r, reqID, &req) {
		return
	}

	sess, room, err := h.Orchestrator.CreateSession(r.Context(), req.Candidate, req.Vacancy, req.Profile)
	if err != nil {
		coreErr, status := coreErrorFrom(err, reqID)
		writeCoreErrorJSON(w, reqID, coreErr, status)
		return
	}

	if h.Mailer != nil && room != nil && strings.TrimSpace(req.CandidateEmail) != "" {
		link := room.WSURL + "?token=" + room.CandidateToken
		if merr := h.Mailer.SendInvite(r.Context(), req.CandidateEmail, link); merr != nil {
			// The session exists either way; the caller still gets the tokens.
			h.Logger.Warn("invite delivery failed", "session_id", sess.ID, "error", merr)
		}
	}

	writeJSON(w, http.StatusCreated, startResponse{
		SessionID: sess.ID,
		Status:    sess.Status,
		Question:  sess.CurrentQuestion,
		Room:      room,
	})
}

type turnRequest struct {
	AudioB64  string `json:"audio_b64,omitempty"`
	MIMEType  string `json:"mime_type,omitempty"`
	Text      string `json:"text,omitempty"`
	Done      bool   `json:"done,omitempty"`
	WantAudio bool   `json:"want_audio,omitempty"`
}

type turnResponse struct {
	Decision interview.Decision `json:"decision"`
	Question string             `json:"question,omitempty"`
	AudioB64 string             `json:"audio_b64,omitempty"`
	Report   *interview.Report  `json:"report,omitempty"`
}

// Submit handles POST /v1/interviews/{id}/turns.
func (h Interviews) Submit(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	id := r.PathValue("id")

	var req turnRequest
	if !h.decodeBody(w, r, reqID, &req) {
		return
	}

	var audio []byte
	if raw := strings.TrimSpace(req.AudioB64); raw != "" {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			writeCoreErrorJSON(w, reqID, &core.Error{
				Type:    core.ErrInvalidRequest,
				Message: "audio_b64 is not valid base64",
				Param:   "audio_b64",
			}, http.StatusBadRequest)
			return
		}
		audio = decoded
	}

	result, err := h.Orchestrator.SubmitTurn(r.Context(), id, interview.TurnInput{
		Audio: audio,
		Text:  req.Text,
		Done:  req.Done,
	})
	if err != nil {
		coreErr, status := coreErrorFrom(err, reqID)
		writeCoreErrorJSON(w, reqID, coreErr, status)
		return
	}

	resp := turnResponse{
		Decision: result.Decision,
		Question: result.Question,
		Report:   result.Report,
	}
	if req.WantAudio && resp.Question != "" && h.TTS != nil {
		if audioOut, terr := h.TTS.Synthesize(r.Context(), resp.Question, tts.SynthesizeOptions{Voice: h.Config.ElevenLabsVoice}); terr == nil {
			resp.AudioB64 = base64.StdEncoding.EncodeToString(audioOut.Audio)
		} else {
			// Text prompt still flows; the client falls back to showing it.
			h.Logger.Warn("prompt synthesis failed", "session_id", id, "error", terr)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /v1/interviews/{id}.
func (h Interviews) Get(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	id := r.PathValue("id")

	sess, err := h.Orchestrator.GetSession(r.Context(), id)
	if err != nil {
		coreErr, status := coreErrorFrom(err, reqID)
		writeCoreErrorJSON(w, reqID, coreErr, status)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Report handles GET /v1/interviews/{id}/report.
func (h Interviews) Report(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	id := r.PathValue("id")

	report, err := h.Orchestrator.GetReport(r.Context(), id)
	if err != nil {
		coreErr, status := coreErrorFrom(err, reqID)
		writeCoreErrorJSON(w, reqID, coreErr, status)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type sendReportRequest struct {
	Email string `json:"email"`
}

// SendReport handles POST /v1/interviews/{id}/report/send. It delivers the
// stored report; aggregation never reruns here.
func (h Interviews) SendReport(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	id := r.PathValue("id")

	if h.Mailer == nil {
		writeCoreErrorJSON(w, reqID, &core.Error{
			Type:    core.ErrDelivery,
			Message: "report delivery is not configured",
		}, http.StatusBadGateway)
		return
	}

	var req sendReportRequest
	if !h.decodeBody(w, r, reqID, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeCoreErrorJSON(w, reqID, &core.Error{
			Type:    core.ErrInvalidRequest,
			Message: "email is required",
			Param:   "email",
		}, http.StatusBadRequest)
		return
	}

	report, err := h.Orchestrator.GetReport(r.Context(), id)
	if err != nil {
		coreErr, status := coreErrorFrom(err, reqID)
		writeCoreErrorJSON(w, reqID, coreErr, status)
		return
	}
	if err := h.Mailer.SendReport(r.Context(), req.Email, report); err != nil {
		coreErr, status := coreErrorFrom(err, reqID)
		writeCoreErrorJSON(w, reqID, coreErr, status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

func (h Interviews) decodeBody(w http.ResponseWriter, r *http.Request, reqID string, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeCoreErrorJSON(w, reqID, &core.Error{
			Type:    core.ErrInvalidRequest,
			Message: "invalid request body: " + err.Error(),
		}, http.StatusBadRequest)
		return false
	}
	return true
}
