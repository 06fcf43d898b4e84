// Package postgres persists sessions and reports in PostgreSQL via pgx.
// Logs are stored as jsonb; the guarded UPDATE keeps snapshots monotone so a
// lost race or stale writer can never shorten a session's history.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aihr-dev/interviewd/pkg/core"
	"github.com/aihr-dev/interviewd/pkg/interview"
)

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and runs pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := Migrate(ctx, dsn); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

type sessionLogs struct {
	Questions   []string                     `json:"questions"`
	Answers     []string                     `json:"answers"`
	Transcript  []interview.TranscriptEntry  `json:"transcript"`
	Assessments []interview.Assessment       `json:"assessments"`
	Profile     interview.VacancyProfile     `json:"profile"`
}

func (s *Store) Load(ctx context.Context, sessionID string) (*interview.Session, error) {
	const q = `
		SELECT candidate_id, vacancy_id, status, start_time, end_time,
		       current_question, room_name, recording_url, logs
		FROM interview_sessions WHERE id = $1`

	var (
		sess    = interview.Session{ID: sessionID}
		endTime *time.Time
		raw     []byte
	)
	err := s.pool.QueryRow(ctx, q, sessionID).Scan(
		&sess.CandidateID, &sess.VacancyID, &sess.Status, &sess.StartTime,
		&endTime, &sess.CurrentQuestion, &sess.RoomName, &sess.RecordingURL, &raw,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.NewNotFoundError("unknown session " + sessionID)
	}
	if err != nil {
		return nil, core.NewPersistenceError("load session", err)
	}
	sess.EndTime = endTime

	var logs sessionLogs
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, core.NewPersistenceError("decode session logs", err)
	}
	for _, a := range logs.Assessments {
		if err := a.Validate(); err != nil {
			return nil, core.NewPersistenceError("stored assessment failed schema validation", err)
		}
	}
	sess.Questions = logs.Questions
	sess.Answers = logs.Answers
	sess.Transcript = logs.Transcript
	sess.Assessments = logs.Assessments
	sess.Profile = logs.Profile
	return &sess, nil
}

func (s *Store) Save(ctx context.Context, session *interview.Session) error {
	if session == nil || session.ID == "" {
		return core.NewPersistenceError("session id is required", nil)
	}
	raw, err := json.Marshal(sessionLogs{
		Questions:   session.Questions,
		Answers:     session.Answers,
		Transcript:  session.Transcript,
		Assessments: session.Assessments,
		Profile:     session.Profile,
	})
	if err != nil {
		return core.NewPersistenceError("encode session logs", err)
	}

	// Single upsert; the WHERE clause enforces append-only turn counts and
	// terminal-state immutability at the row level.
	const q = `
		INSERT INTO interview_sessions
			(id, candidate_id, vacancy_id, status, start_time, end_time,
			 current_question, room_name, recording_url, turn_count, logs, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			end_time = EXCLUDED.end_time,
			current_question = EXCLUDED.current_question,
			recording_url = EXCLUDED.recording_url,
			turn_count = EXCLUDED.turn_count,
			logs = EXCLUDED.logs,
			updated_at = now()
		WHERE interview_sessions.turn_count <= EXCLUDED.turn_count
		  AND interview_sessions.status NOT IN ('completed', 'failed')`

	tag, err := s.pool.Exec(ctx, q,
		session.ID, session.CandidateID, session.VacancyID, string(session.Status),
		session.StartTime, session.EndTime, session.CurrentQuestion,
		session.RoomName, session.RecordingURL, len(session.Answers), raw,
	)
	if err != nil {
		return core.NewPersistenceError("save session", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewPersistenceError("refusing save: snapshot is stale or the session is terminal", nil)
	}
	return nil
}

func (s *Store) SaveReport(ctx context.Context, report *interview.Report) error {
	if report == nil || report.InterviewID == "" {
		return core.NewPersistenceError("report interview id is required", nil)
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return core.NewPersistenceError("encode report", err)
	}
	const q = `
		INSERT INTO interview_reports (interview_id, body, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (interview_id) DO NOTHING`
	tag, err := s.pool.Exec(ctx, q, report.InterviewID, raw, report.CreatedAt)
	if err != nil {
		return core.NewPersistenceError("save report", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewPersistenceError("report already exists for interview "+report.InterviewID, nil)
	}
	return nil
}

func (s *Store) LoadReport(ctx context.Context, interviewID string) (*interview.Report, error) {
	const q = `SELECT body FROM interview_reports WHERE interview_id = $1`
	var raw []byte
	err := s.pool.QueryRow(ctx, q, interviewID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.NewNotFoundError("no report for interview " + interviewID)
	}
	if err != nil {
		return nil, core.NewPersistenceError("load report", err)
	}
	var report interview.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, core.NewPersistenceError("decode report", err)
	}
	return &report, nil
}
