package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/aihr-dev/interviewd/pkg/core"
	"github.com/aihr-dev/interviewd/pkg/interview"
)

func testMailer(t *testing.T, send sendFunc) *Mailer {
	t.Helper()
	m, err := NewMailer(Config{
		Host:        "smtp.example.com",
		Port:        2525,
		User:        "noreply@example.com",
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewMailer: %v", err)
	}
	m.send = send
	return m
}

func TestSendInvite(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m := testMailer(t, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	})

	err := m.SendInvite(context.Background(), "cand@example.com", "wss://rooms.example.com?token=abc")
	if err != nil {
		t.Fatalf("SendInvite: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" {
		t.Fatalf("addr=%q", gotAddr)
	}
	if gotFrom != "noreply@example.com" || len(gotTo) != 1 || gotTo[0] != "cand@example.com" {
		t.Fatalf("from=%q to=%v", gotFrom, gotTo)
	}
	body := string(gotMsg)
	if !strings.Contains(body, "Subject: Your interview link\r\n") {
		t.Fatalf("missing subject: %q", body)
	}
	if !strings.Contains(body, "wss://rooms.example.com?token=abc") {
		t.Fatalf("missing link: %q", body)
	}
}

func TestSendReport_Formatting(t *testing.T) {
	var gotMsg []byte
	m := testMailer(t, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotMsg = msg
		return nil
	})

	report := &interview.Report{
		InterviewID: "sess-1",
		HardSkills:  map[string]float64{"sql": 3, "go": 4.5},
		SoftSkills:  map[string]float64{"communication": 4},
		Verdict: interview.Verdict{
			IsSuitable: true,
			Strengths:  []string{"clear answers"},
			Weaknesses: []string{"shallow on indexing"},
		},
	}
	if err := m.SendReport(context.Background(), "cand@example.com", report); err != nil {
		t.Fatalf("SendReport: %v", err)
	}

	body := string(gotMsg)
	// Skills are listed alphabetically.
	if !strings.Contains(body, "- go: 4.5/5\r\n- sql: 3.0/5") {
		t.Fatalf("hard skills not formatted: %q", body)
	}
	if !strings.Contains(body, "Verdict: Suitable") {
		t.Fatalf("missing verdict: %q", body)
	}
	if !strings.Contains(body, "Strengths: clear answers") {
		t.Fatalf("missing strengths: %q", body)
	}
	if !strings.Contains(body, "Areas to improve: shallow on indexing") {
		t.Fatalf("missing weaknesses: %q", body)
	}
}

func TestSendReport_NilReport(t *testing.T) {
	m := testMailer(t, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Fatalf("send must not be called")
		return nil
	})
	if err := m.SendReport(context.Background(), "cand@example.com", nil); err == nil {
		t.Fatalf("expected error for nil report")
	}
}

func TestDeliver_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	m := testMailer(t, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	if err := m.SendInvite(context.Background(), "cand@example.com", "link"); err != nil {
		t.Fatalf("SendInvite: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts=%d, want 3", attempts)
	}
}

func TestDeliver_ExhaustedRetries(t *testing.T) {
	attempts := 0
	m := testMailer(t, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		attempts++
		return errors.New("connection reset")
	})

	err := m.SendInvite(context.Background(), "cand@example.com", "link")
	if err == nil {
		t.Fatalf("expected delivery error")
	}
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Type != core.ErrDelivery {
		t.Fatalf("err=%v, want delivery_error", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts=%d, want max attempts", attempts)
	}
}

func TestDeliver_EmptyRecipient(t *testing.T) {
	m := testMailer(t, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Fatalf("send must not be called")
		return nil
	})
	if err := m.SendInvite(context.Background(), "   ", "link"); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}
