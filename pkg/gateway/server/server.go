package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aihr-dev/interviewd/pkg/gateway/config"
	"github.com/aihr-dev/interviewd/pkg/gateway/handlers"
	"github.com/aihr-dev/interviewd/pkg/gateway/lifecycle"
	"github.com/aihr-dev/interviewd/pkg/gateway/live/sessions"
	"github.com/aihr-dev/interviewd/pkg/gateway/mw"
	"github.com/aihr-dev/interviewd/pkg/interview"
	"github.com/aihr-dev/interviewd/pkg/notify"
	"github.com/aihr-dev/interviewd/pkg/voice/tts"
)

// Dependencies wires a Server. Orchestrator is required; TTS and Mailer are
// optional feature surfaces.
type Dependencies struct {
	Orchestrator *interview.Orchestrator
	TTS          tts.Provider
	Mailer       *notify.Mailer
	Lifecycle    *lifecycle.Lifecycle
	LiveSessions *sessions.Tracker
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux
	deps   Dependencies
}

func New(cfg config.Config, logger *slog.Logger, deps Dependencies) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Lifecycle == nil {
		deps.Lifecycle = &lifecycle.Lifecycle{}
	}
	if deps.LiveSessions == nil {
		deps.LiveSessions = sessions.NewTracker()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		deps:   deps,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg, Lifecycle: s.deps.Lifecycle})

	interviews := handlers.Interviews{
		Orchestrator: s.deps.Orchestrator,
		TTS:          s.deps.TTS,
		Mailer:       s.deps.Mailer,
		Config:       s.cfg,
		Logger:       s.logger,
		Lifecycle:    s.deps.Lifecycle,
	}
	s.mux.HandleFunc("POST /v1/interviews", interviews.Start)
	s.mux.HandleFunc("POST /v1/interviews/{id}/turns", interviews.Submit)
	s.mux.HandleFunc("GET /v1/interviews/{id}", interviews.Get)
	s.mux.HandleFunc("GET /v1/interviews/{id}/report", interviews.Report)
	s.mux.HandleFunc("POST /v1/interviews/{id}/report/send", interviews.SendReport)

	s.mux.Handle("GET /v1/interviews/{id}/live", handlers.Live{
		Orchestrator: s.deps.Orchestrator,
		TTS:          s.deps.TTS,
		Config:       s.cfg,
		Logger:       s.logger,
		Lifecycle:    s.deps.Lifecycle,
		LiveSessions: s.deps.LiveSessions,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) SetDraining() {
	s.deps.Lifecycle.SetDraining(true)
}

func (s *Server) WarnLiveSessionsDraining() {
	s.deps.LiveSessions.WarnAll("draining", "server is shutting down")
}

func (s *Server) WaitLiveSessions(ctx context.Context) bool {
	return s.deps.LiveSessions.Wait(ctx)
}

func (s *Server) CancelLiveSessions() {
	s.deps.LiveSessions.CancelAll()
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Auth(s.cfg, h)
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
