// Package memory is an in-process Store used in tests and single-node
// development runs. It keeps the same append-only contract as the Postgres
// store: a save that would shorten a session's logs is rejected.
package memory

import (
	"context"
	"sync"

	"github.com/aihr-dev/interviewd/pkg/core"
	"github.com/aihr-dev/interviewd/pkg/interview"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*interview.Session
	reports  map[string]*interview.Report
}

func New() *Store {
	return &Store{
		sessions: make(map[string]*interview.Session),
		reports:  make(map[string]*interview.Report),
	}
}

func (s *Store) Load(_ context.Context, sessionID string) (*interview.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, core.NewNotFoundError("unknown session " + sessionID)
	}
	return sess.Clone(), nil
}

func (s *Store) Save(_ context.Context, session *interview.Session) error {
	if session == nil || session.ID == "" {
		return core.NewPersistenceError("session id is required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.sessions[session.ID]; ok {
		// Append-only: snapshots are monotone in log length.
		if len(session.Answers) < len(prev.Answers) ||
			len(session.Questions) < len(prev.Questions) ||
			len(session.Assessments) < len(prev.Assessments) {
			return core.NewPersistenceError("refusing save: snapshot is shorter than the stored session", nil)
		}
		if prev.IsTerminal() && session.Status != prev.Status {
			return core.NewPersistenceError("refusing save: session is terminal", nil)
		}
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Store) SaveReport(_ context.Context, report *interview.Report) error {
	if report == nil || report.InterviewID == "" {
		return core.NewPersistenceError("report interview id is required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.InterviewID]; ok {
		return core.NewPersistenceError("report already exists for interview "+report.InterviewID, nil)
	}
	clone := *report
	s.reports[report.InterviewID] = &clone
	return nil
}

func (s *Store) LoadReport(_ context.Context, interviewID string) (*interview.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[interviewID]
	if !ok {
		return nil, core.NewNotFoundError("no report for interview " + interviewID)
	}
	clone := *report
	return &clone, nil
}
