package interview

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a session. Transitions are one-directional:
// Created -> InProgress -> {Completed | Failed}, with AwaitingAnalysis as a
// resumable detour while a turn's assessment is still owed.
type Status string

const (
	StatusCreated          Status = "created"
	StatusInProgress       Status = "in_progress"
	StatusAwaitingAnalysis Status = "awaiting_analysis"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
)

// Speaker labels for transcript entries.
const (
	SpeakerInterviewer = "interviewer"
	SpeakerCandidate   = "candidate"
)

// TranscriptEntry is one line of the interview transcript.
type TranscriptEntry struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// VacancyProfile describes the position a session screens for.
type VacancyProfile struct {
	Title      string   `json:"title"`
	Level      string   `json:"level"`
	HardSkills []string `json:"hard_skills"`
	SoftSkills []string `json:"soft_skills"`
	Tasks      []string `json:"tasks,omitempty"`
	Tools      []string `json:"tools,omitempty"`
}

// AssessmentSchemaVersion is the current closed schema version for per-turn
// assessments. Persisted assessments with a different version are rejected at
// load rather than interpreted loosely.
const AssessmentSchemaVersion = 1

// Assessment is the structured scoring output for a single turn.
type Assessment struct {
	SchemaVersion int                `json:"schema_version"`
	HardSkills    map[string]float64 `json:"hard_skills,omitempty"`
	SoftSkills    map[string]float64 `json:"soft_skills,omitempty"`
	Emotion       string             `json:"emotion,omitempty"`
	Strengths     []string           `json:"strengths,omitempty"`
	Weaknesses    []string           `json:"weaknesses,omitempty"`
	Hint          *VerdictHint       `json:"hint,omitempty"`
}

// VerdictHint is an optional per-turn suitability signal from the analyzer.
type VerdictHint struct {
	Suitable   bool    `json:"suitable"`
	Confidence float64 `json:"confidence"`
}

// MinSkillScore and MaxSkillScore bound every per-skill score.
const (
	MinSkillScore = 0.0
	MaxSkillScore = 5.0
)

// Validate checks the assessment against the closed schema.
func (a *Assessment) Validate() error {
	if a == nil {
		return fmt.Errorf("assessment is nil")
	}
	if a.SchemaVersion != AssessmentSchemaVersion {
		return fmt.Errorf("unsupported assessment schema version %d", a.SchemaVersion)
	}
	for name, score := range a.HardSkills {
		if name == "" {
			return fmt.Errorf("hard skill with empty name")
		}
		if score < MinSkillScore || score > MaxSkillScore {
			return fmt.Errorf("hard skill %q score %v out of range", name, score)
		}
	}
	for name, score := range a.SoftSkills {
		if name == "" {
			return fmt.Errorf("soft skill with empty name")
		}
		if score < MinSkillScore || score > MaxSkillScore {
			return fmt.Errorf("soft skill %q score %v out of range", name, score)
		}
	}
	if a.Hint != nil && (a.Hint.Confidence < 0 || a.Hint.Confidence > 1) {
		return fmt.Errorf("verdict hint confidence %v out of range", a.Hint.Confidence)
	}
	return nil
}

// Room is the provisioned real-time room for a session.
type Room struct {
	Name             string `json:"name"`
	WSURL            string `json:"ws_url"`
	CandidateToken   string `json:"candidate_token"`
	InterviewerToken string `json:"interviewer_token,omitempty"`
}
