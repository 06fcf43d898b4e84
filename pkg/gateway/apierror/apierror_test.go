package apierror

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aihr-dev/interviewd/pkg/core"
)

func TestFromError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantType   core.ErrorType
		wantStatus int
	}{
		{"invalid request", core.NewInvalidRequestError("bad"), core.ErrInvalidRequest, http.StatusBadRequest},
		{"authentication", core.NewAuthenticationError("no"), core.ErrAuthentication, http.StatusUnauthorized},
		{"not found", core.NewNotFoundError("missing"), core.ErrNotFound, http.StatusNotFound},
		{"conflict", core.NewConflictError("busy"), core.ErrConflict, http.StatusConflict},
		{"session closed", core.NewSessionClosedError("done"), core.ErrSessionClosed, http.StatusUnprocessableEntity},
		{"transcription", core.NewTranscriptionError("stt", nil), core.ErrTranscription, http.StatusBadGateway},
		{"analysis", core.NewAnalysisError("llm", nil), core.ErrAnalysis, http.StatusBadGateway},
		{"synthesis", core.NewSynthesisError("tts", nil), core.ErrSynthesis, http.StatusBadGateway},
		{"provisioning", core.NewProvisioningError("rooms", nil), core.ErrProvisioning, http.StatusBadGateway},
		{"delivery", core.NewDeliveryError("smtp", nil), core.ErrDelivery, http.StatusBadGateway},
		{"persistence", core.NewPersistenceError("db", nil), core.ErrPersistence, http.StatusInternalServerError},
		{"unknown", errors.New("surprise"), core.ErrAPI, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coreErr, status := FromError(tc.err, "req_1")
			if coreErr.Type != tc.wantType {
				t.Fatalf("type=%s, want %s", coreErr.Type, tc.wantType)
			}
			if status != tc.wantStatus {
				t.Fatalf("status=%d, want %d", status, tc.wantStatus)
			}
			if coreErr.RequestID != "req_1" {
				t.Fatalf("request id=%q", coreErr.RequestID)
			}
		})
	}
}

func TestFromError_UnknownErrorsDoNotLeakDetails(t *testing.T) {
	coreErr, _ := FromError(errors.New("dsn=postgres://secret"), "req_1")
	if coreErr.Message != "internal error" {
		t.Fatalf("message=%q, must not leak internals", coreErr.Message)
	}
}

func TestFromError_ContextErrors(t *testing.T) {
	_, status := FromError(context.DeadlineExceeded, "req_1")
	if status != http.StatusGatewayTimeout {
		t.Fatalf("deadline status=%d", status)
	}
	_, status = FromError(context.Canceled, "req_1")
	if status != http.StatusRequestTimeout {
		t.Fatalf("cancel status=%d", status)
	}
}

func TestFromError_Nil(t *testing.T) {
	coreErr, status := FromError(nil, "req_1")
	if coreErr != nil || status != http.StatusOK {
		t.Fatalf("got %v/%d", coreErr, status)
	}
}
