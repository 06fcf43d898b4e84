// Package notify delivers interview artifacts to candidates over email.
// Sends are retried with capped exponential backoff; a send that exhausts its
// retries surfaces as a delivery error. Delivery always works from a stored
// report, it never recomputes one.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/aihr-dev/interviewd/pkg/core"
	"github.com/aihr-dev/interviewd/pkg/interview"
)

// Config carries SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string

	// MaxAttempts bounds retries per send. Defaults to 3.
	MaxAttempts int
	// BaseDelay is the initial backoff. Defaults to 500ms.
	BaseDelay time.Duration
}

// sendFunc matches smtp.SendMail; swapped in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer formats and sends interview emails.
type Mailer struct {
	cfg  Config
	send sendFunc
}

func NewMailer(cfg Config) (*Mailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	return &Mailer{cfg: cfg, send: smtp.SendMail}, nil
}

// SendInvite emails the candidate their interview join link.
func (m *Mailer) SendInvite(ctx context.Context, to, link string) error {
	body := fmt.Sprintf("Hello!\n\nYou can start your interview at any time using the link below:\n%s\n\nBest regards,\nThe interview team\n", link)
	return m.deliver(ctx, to, "Your interview link", body)
}

// SendReport emails the stored report to the candidate.
func (m *Mailer) SendReport(ctx context.Context, to string, report *interview.Report) error {
	if report == nil {
		return core.NewDeliveryError("no report to deliver", nil)
	}

	verdict := "Not suitable"
	if report.Verdict.IsSuitable {
		verdict = "Suitable"
	}

	var b strings.Builder
	b.WriteString("Hello!\n\nThank you for completing the interview. Here are your results:\n\n")
	b.WriteString("Hard skills:\n")
	b.WriteString(formatSkills(report.HardSkills))
	b.WriteString("\nSoft skills:\n")
	b.WriteString(formatSkills(report.SoftSkills))
	b.WriteString("\nVerdict: " + verdict + "\n")
	if len(report.Verdict.Strengths) > 0 {
		b.WriteString("\nStrengths: " + strings.Join(report.Verdict.Strengths, ", ") + "\n")
	}
	if len(report.Verdict.Weaknesses) > 0 {
		b.WriteString("\nAreas to improve: " + strings.Join(report.Verdict.Weaknesses, ", ") + "\n")
	}
	b.WriteString("\nBest regards,\nThe interview team\n")

	return m.deliver(ctx, to, "Your interview results", b.String())
}

func (m *Mailer) deliver(ctx context.Context, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return core.NewDeliveryError("recipient address is required", nil)
	}

	msg := m.message(to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	backoff := retry.WithMaxRetries(uint64(m.cfg.MaxAttempts-1), retry.NewExponential(m.cfg.BaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := m.send(addr, auth, m.cfg.User, []string{to}, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return core.NewDeliveryError(fmt.Sprintf("send email to %s", to), err)
	}
	return nil
}

func (m *Mailer) message(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.User)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func formatSkills(skills map[string]float64) string {
	if len(skills) == 0 {
		return "- no data\n"
	}
	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %.1f/5\n", name, skills[name])
	}
	return b.String()
}
