package interview

import (
	"fmt"
	"time"
)

// Session is one candidate's end-to-end interview and its accumulated state.
// The orchestrator is the only writer; everyone else sees snapshots.
type Session struct {
	ID          string     `json:"id"`
	CandidateID string     `json:"candidate_id"`
	VacancyID   string     `json:"vacancy_id"`
	Status      Status     `json:"status"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`

	// Questions and Answers are index-aligned append-only logs: Answers[i]
	// answers Questions[i]. Transcript interleaves both speakers in order.
	Questions   []string          `json:"questions"`
	Answers     []string          `json:"answers"`
	Transcript  []TranscriptEntry `json:"transcript"`
	Assessments []Assessment      `json:"assessments"`

	// CurrentQuestion is the question asked but not yet answered. It joins
	// the Questions log only when its answer is recorded, which keeps the
	// two logs the same length after every successful turn.
	CurrentQuestion string `json:"current_question,omitempty"`

	Profile      VacancyProfile `json:"profile"`
	RoomName     string         `json:"room_name,omitempty"`
	RecordingURL string         `json:"recording_url,omitempty"`
}

// NewSession allocates a session in state Created.
func NewSession(id, candidateID, vacancyID string, profile VacancyProfile, start time.Time) *Session {
	return &Session{
		ID:          id,
		CandidateID: candidateID,
		VacancyID:   vacancyID,
		Status:      StatusCreated,
		StartTime:   start,
		Profile:     profile,
	}
}

// TurnCount is the number of completed answers.
func (s *Session) TurnCount() int {
	return len(s.Answers)
}

// PendingAnalysis reports whether the latest answer was durably recorded but
// its assessment is still owed (analysis failed mid-turn).
func (s *Session) PendingAnalysis() bool {
	return len(s.Assessments) < len(s.Answers)
}

// IsTerminal reports whether the session accepts no further turns.
func (s *Session) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusCreated: {
		StatusInProgress: true,
		StatusFailed:     true,
	},
	StatusInProgress: {
		StatusAwaitingAnalysis: true,
		StatusCompleted:        true,
		StatusFailed:           true,
	},
	StatusAwaitingAnalysis: {
		StatusInProgress: true,
		StatusCompleted:  true,
		StatusFailed:     true,
	},
}

// transition moves the session to next, rejecting any move out of a terminal
// state or backwards in the lifecycle.
func (s *Session) transition(next Status) error {
	if s.Status == next {
		return nil
	}
	if !allowedTransitions[s.Status][next] {
		return fmt.Errorf("invalid session transition %s -> %s", s.Status, next)
	}
	s.Status = next
	return nil
}

// Begin moves a freshly created session into InProgress.
func (s *Session) Begin() error {
	return s.transition(StatusInProgress)
}

// RecordAnswer appends the answered question and its transcript to the logs.
// The assessment is appended separately so a failed analysis can retain the
// transcript without faking a score.
func (s *Session) RecordAnswer(transcript string, at time.Time) {
	s.Questions = append(s.Questions, s.CurrentQuestion)
	s.Answers = append(s.Answers, transcript)
	s.Transcript = append(s.Transcript,
		TranscriptEntry{Speaker: SpeakerInterviewer, Text: s.CurrentQuestion, Timestamp: at},
		TranscriptEntry{Speaker: SpeakerCandidate, Text: transcript, Timestamp: at},
	)
}

// RecordAssessment appends the per-turn assessment for the latest answer.
func (s *Session) RecordAssessment(a Assessment) error {
	if !s.PendingAnalysis() {
		return fmt.Errorf("no answer awaiting assessment")
	}
	s.Assessments = append(s.Assessments, a)
	return nil
}

// Ask sets the question for the next turn.
func (s *Session) Ask(question string) {
	s.CurrentQuestion = question
}

// Complete marks the session finished and stamps the end time.
func (s *Session) Complete(at time.Time) error {
	if err := s.transition(StatusCompleted); err != nil {
		return err
	}
	t := at
	s.EndTime = &t
	return nil
}

// Fail marks the session terminally failed and stamps the end time.
func (s *Session) Fail(at time.Time) error {
	if err := s.transition(StatusFailed); err != nil {
		return err
	}
	t := at
	s.EndTime = &t
	return nil
}

// Clone returns a deep copy. Stores hand out clones so no two callers share
// a mutable session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	out.Questions = append([]string(nil), s.Questions...)
	out.Answers = append([]string(nil), s.Answers...)
	out.Transcript = append([]TranscriptEntry(nil), s.Transcript...)
	out.Assessments = make([]Assessment, len(s.Assessments))
	for i, a := range s.Assessments {
		out.Assessments[i] = *cloneAssessment(&a)
	}
	return &out
}

func cloneAssessment(a *Assessment) *Assessment {
	out := *a
	if a.HardSkills != nil {
		out.HardSkills = make(map[string]float64, len(a.HardSkills))
		for k, v := range a.HardSkills {
			out.HardSkills[k] = v
		}
	}
	if a.SoftSkills != nil {
		out.SoftSkills = make(map[string]float64, len(a.SoftSkills))
		for k, v := range a.SoftSkills {
			out.SoftSkills[k] = v
		}
	}
	out.Strengths = append([]string(nil), a.Strengths...)
	out.Weaknesses = append([]string(nil), a.Weaknesses...)
	if a.Hint != nil {
		h := *a.Hint
		out.Hint = &h
	}
	return &out
}
