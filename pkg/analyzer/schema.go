package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aihr-dev/interviewd/pkg/interview"
)

// wireAssessment is the closed JSON shape the model is asked to produce.
// Skill scores arrive as name/score pairs so the response schema stays fully
// typed; unknown fields are rejected rather than ignored.
type wireAssessment struct {
	HardSkills []wireSkill `json:"hard_skills"`
	SoftSkills []wireSkill `json:"soft_skills"`
	Emotion    string      `json:"emotion"`
	Strengths  []string    `json:"strengths"`
	Weaknesses []string    `json:"weaknesses"`
	Suitable   *bool       `json:"suitable,omitempty"`
	Confidence *float64    `json:"confidence,omitempty"`
}

type wireSkill struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// decodeAssessment strictly decodes raw model output into the versioned
// assessment schema and validates it.
func decodeAssessment(raw string) (*interview.Assessment, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("analyzer returned empty output")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	var wire wireAssessment
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}

	out := &interview.Assessment{
		SchemaVersion: interview.AssessmentSchemaVersion,
		Emotion:       strings.TrimSpace(wire.Emotion),
		Strengths:     trimAll(wire.Strengths),
		Weaknesses:    trimAll(wire.Weaknesses),
	}
	var err error
	if out.HardSkills, err = skillMap(wire.HardSkills); err != nil {
		return nil, fmt.Errorf("hard_skills: %w", err)
	}
	if out.SoftSkills, err = skillMap(wire.SoftSkills); err != nil {
		return nil, fmt.Errorf("soft_skills: %w", err)
	}
	if wire.Suitable != nil {
		confidence := 0.5
		if wire.Confidence != nil {
			confidence = *wire.Confidence
		}
		out.Hint = &interview.VerdictHint{Suitable: *wire.Suitable, Confidence: confidence}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func skillMap(skills []wireSkill) (map[string]float64, error) {
	if len(skills) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(skills))
	for _, s := range skills {
		name := strings.TrimSpace(strings.ToLower(s.Name))
		if name == "" {
			return nil, fmt.Errorf("skill with empty name")
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("duplicate skill %q", name)
		}
		out[name] = s.Score
	}
	return out, nil
}

func trimAll(items []string) []string {
	out := items[:0:0]
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
