package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aihr-dev/interviewd/pkg/core"
	"github.com/aihr-dev/interviewd/pkg/interview"
)

func seedSession(t *testing.T, s *Store, turns int) *interview.Session {
	t.Helper()
	now := time.Now()
	sess := interview.NewSession("sess-1", "cand", "vac", interview.VacancyProfile{}, now)
	if err := sess.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for i := 0; i < turns; i++ {
		sess.Ask("q")
		sess.RecordAnswer("a", now)
		if err := sess.RecordAssessment(interview.Assessment{}); err != nil {
			t.Fatalf("RecordAssessment: %v", err)
		}
	}
	if err := s.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return sess
}

func TestStore_LoadReturnsClone(t *testing.T) {
	s := New()
	seedSession(t, s, 1)

	first, err := s.Load(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	first.Answers[0] = "mutated"

	second, err := s.Load(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if second.Answers[0] != "a" {
		t.Fatalf("store handed out shared state: %q", second.Answers[0])
	}
}

func TestStore_LoadUnknown(t *testing.T) {
	s := New()
	_, err := s.Load(context.Background(), "nope")
	var ce *core.Error
	if !errors.As(err, &ce) || ce.Type != core.ErrNotFound {
		t.Fatalf("err=%v, want not found", err)
	}
}

func TestStore_SaveRejectsShorterSnapshot(t *testing.T) {
	s := New()
	sess := seedSession(t, s, 2)

	shorter := sess.Clone()
	shorter.Answers = shorter.Answers[:1]
	shorter.Questions = shorter.Questions[:1]
	shorter.Assessments = shorter.Assessments[:1]

	err := s.Save(context.Background(), shorter)
	var ce *core.Error
	if !errors.As(err, &ce) || ce.Type != core.ErrPersistence {
		t.Fatalf("err=%v, want persistence error for a shorter snapshot", err)
	}

	// Stored state is untouched.
	got, _ := s.Load(context.Background(), "sess-1")
	if len(got.Answers) != 2 {
		t.Fatalf("answers=%d, want 2", len(got.Answers))
	}
}

func TestStore_SaveRejectsTerminalStatusChange(t *testing.T) {
	s := New()
	sess := seedSession(t, s, 1)
	if err := sess.Complete(time.Now()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := s.Save(context.Background(), sess); err != nil {
		t.Fatalf("save completed: %v", err)
	}

	reopened := sess.Clone()
	reopened.Status = interview.StatusInProgress
	err := s.Save(context.Background(), reopened)
	var ce *core.Error
	if !errors.As(err, &ce) || ce.Type != core.ErrPersistence {
		t.Fatalf("err=%v, want persistence error when reopening a terminal session", err)
	}
}

func TestStore_ReportIsImmutable(t *testing.T) {
	s := New()
	report := &interview.Report{InterviewID: "sess-1", CreatedAt: time.Now()}
	if err := s.SaveReport(context.Background(), report); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	err := s.SaveReport(context.Background(), report)
	var ce *core.Error
	if !errors.As(err, &ce) || ce.Type != core.ErrPersistence {
		t.Fatalf("err=%v, want persistence error for duplicate report", err)
	}

	got, err := s.LoadReport(context.Background(), "sess-1")
	if err != nil || got.InterviewID != "sess-1" {
		t.Fatalf("LoadReport=%+v err=%v", got, err)
	}

	_, err = s.LoadReport(context.Background(), "other")
	if !errors.As(err, &ce) || ce.Type != core.ErrNotFound {
		t.Fatalf("err=%v, want not found", err)
	}
}
