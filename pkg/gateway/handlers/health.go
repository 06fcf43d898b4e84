package handlers

import (
	"net/http"

	"github.com/aihr-dev/interviewd/pkg/gateway/config"
	"github.com/aihr-dev/interviewd/pkg/gateway/lifecycle"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config    config.Config
	Lifecycle *lifecycle.Lifecycle
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK       bool     `json:"ok"`
		AuthMode string   `json:"auth_mode"`
		Store    string   `json:"store"`
		Draining bool     `json:"draining,omitempty"`
		Issues   []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	if h.Lifecycle.IsDraining() {
		issues = append(issues, "draining")
	}

	switch h.Config.AuthMode {
	case config.AuthModeRequired, config.AuthModeOptional, config.AuthModeDisabled:
	default:
		issues = append(issues, "invalid auth_mode")
	}
	if h.Config.AuthMode == config.AuthModeRequired && len(h.Config.APIKeys) == 0 {
		issues = append(issues, "auth_mode=required but no api keys configured")
	}
	if h.Config.MaxBodyBytes <= 0 {
		issues = append(issues, "max_body_bytes must be > 0")
	}
	if h.Config.MaxTurns <= 0 {
		issues = append(issues, "max_turns must be > 0")
	}
	if h.Config.ReadHeaderTimeout <= 0 || h.Config.ReadTimeout <= 0 || h.Config.HandlerTimeout <= 0 {
		issues = append(issues, "timeouts must be > 0")
	}
	if h.Config.Store == config.StorePostgres && h.Config.PostgresDSN == "" {
		issues = append(issues, "store=postgres but no dsn configured")
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, readyResp{
		OK:       ok,
		AuthMode: string(h.Config.AuthMode),
		Store:    string(h.Config.Store),
		Draining: h.Lifecycle.IsDraining(),
		Issues:   issues,
	})
}
