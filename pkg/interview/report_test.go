package interview

import (
	"reflect"
	"testing"
	"time"
)

func TestAggregateReport_MergeRules(t *testing.T) {
	history := []Assessment{
		{
			HardSkills: map[string]float64{"go": 4, "sql": 2},
			SoftSkills: map[string]float64{"communication": 3},
			Emotion:    "calm",
			Strengths:  []string{"concise answers"},
			Weaknesses: []string{"vague on indexing"},
		},
		{
			HardSkills: map[string]float64{"go": 2},
			Emotion:    "calm",
			Strengths:  []string{"concise answers", "asks clarifying questions"},
		},
		{
			Emotion:    "nervous",
			Weaknesses: []string{"vague on indexing"},
		},
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := AggregateReport("sess-1", history, DecisionAccept, at)

	if report.InterviewID != "sess-1" || !report.CreatedAt.Equal(at) {
		t.Fatalf("report header: %+v", report)
	}

	// Mean over mentioning turns only: go=(4+2)/2, sql mentioned once.
	wantHard := map[string]float64{"go": 3, "sql": 2}
	if !reflect.DeepEqual(report.HardSkills, wantHard) {
		t.Fatalf("hard skills=%v, want %v", report.HardSkills, wantHard)
	}
	wantSoft := map[string]float64{"communication": 3}
	if !reflect.DeepEqual(report.SoftSkills, wantSoft) {
		t.Fatalf("soft skills=%v, want %v", report.SoftSkills, wantSoft)
	}

	if !report.Verdict.IsSuitable {
		t.Fatalf("accept decision must map to a suitable verdict")
	}
	wantStrengths := []string{"asks clarifying questions", "concise answers"}
	if !reflect.DeepEqual(report.Verdict.Strengths, wantStrengths) {
		t.Fatalf("strengths=%v, want deduplicated sorted %v", report.Verdict.Strengths, wantStrengths)
	}
	wantWeaknesses := []string{"vague on indexing"}
	if !reflect.DeepEqual(report.Verdict.Weaknesses, wantWeaknesses) {
		t.Fatalf("weaknesses=%v, want %v", report.Verdict.Weaknesses, wantWeaknesses)
	}

	wantEmotions := map[string]int{"calm": 2, "nervous": 1}
	if !reflect.DeepEqual(report.EmotionSummary, wantEmotions) {
		t.Fatalf("emotions=%v, want %v", report.EmotionSummary, wantEmotions)
	}
}

func TestAggregateReport_RejectIsUnsuitable(t *testing.T) {
	report := AggregateReport("sess-2", scored(1), DecisionReject, time.Now())
	if report.Verdict.IsSuitable {
		t.Fatalf("reject decision must map to an unsuitable verdict")
	}
}

func TestAggregateReport_EmptyHistory(t *testing.T) {
	report := AggregateReport("sess-3", nil, DecisionReject, time.Now())
	if len(report.HardSkills) != 0 || len(report.SoftSkills) != 0 {
		t.Fatalf("skills=%v/%v, want empty", report.HardSkills, report.SoftSkills)
	}
	if len(report.Verdict.Strengths) != 0 || len(report.Verdict.Weaknesses) != 0 {
		t.Fatalf("verdict lists must be empty, got %+v", report.Verdict)
	}
}
