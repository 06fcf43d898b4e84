package interview

import "context"

// Store is the durable record of sessions and reports. It is the single
// source of truth between turns; the orchestrator loads, mutates one
// authoritative copy, and saves within one guarded turn.
//
// Save has append semantics: an implementation must reject a snapshot whose
// logs are shorter than what it already holds, so no retry or race can ever
// lose a recorded turn.
type Store interface {
	// Load returns a copy of the session, or core.ErrNotFound.
	Load(ctx context.Context, sessionID string) (*Session, error)
	// Save persists the session snapshot atomically.
	Save(ctx context.Context, session *Session) error
	// SaveReport persists the final report. Reports are immutable; saving
	// the same interview's report twice is an error.
	SaveReport(ctx context.Context, report *Report) error
	// LoadReport returns the stored report for a completed interview.
	LoadReport(ctx context.Context, interviewID string) (*Report, error)
}
