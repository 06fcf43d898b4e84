package interview

import (
	"sort"
	"time"
)

// Report is the immutable final summary of a completed session. It references
// the session by id and is never regenerated: re-sending a report delivers
// the stored copy.
type Report struct {
	InterviewID    string             `json:"interview_id"`
	HardSkills     map[string]float64 `json:"hard_skills_assessment"`
	SoftSkills     map[string]float64 `json:"soft_skills_assessment"`
	EmotionSummary map[string]int     `json:"emotion_summary"`
	Verdict        Verdict            `json:"verdict"`
	Feedback       string             `json:"feedback,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Verdict is the final suitability call.
type Verdict struct {
	IsSuitable bool     `json:"is_suitable"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// AggregateReport folds the per-turn assessments of a finished session into
// one report. Merge rules, fixed:
//   - skill scores: arithmetic mean across the turns that mention the skill;
//     skills never mentioned do not appear at all
//   - strengths/weaknesses: set union, deduplicated, sorted
//   - is_suitable: true iff the termination policy's final decision was Accept
//   - emotion summary: turn counts per emotion label
func AggregateReport(interviewID string, history []Assessment, final Decision, at time.Time) *Report {
	report := &Report{
		InterviewID:    interviewID,
		HardSkills:     meanSkills(history, func(a Assessment) map[string]float64 { return a.HardSkills }),
		SoftSkills:     meanSkills(history, func(a Assessment) map[string]float64 { return a.SoftSkills }),
		EmotionSummary: map[string]int{},
		Verdict: Verdict{
			IsSuitable: final == DecisionAccept,
			Strengths:  unionSorted(history, func(a Assessment) []string { return a.Strengths }),
			Weaknesses: unionSorted(history, func(a Assessment) []string { return a.Weaknesses }),
		},
		CreatedAt: at,
	}
	for _, a := range history {
		if a.Emotion != "" {
			report.EmotionSummary[a.Emotion]++
		}
	}
	return report
}

func meanSkills(history []Assessment, pick func(Assessment) map[string]float64) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, a := range history {
		for name, score := range pick(a) {
			sums[name] += score
			counts[name]++
		}
	}
	out := make(map[string]float64, len(sums))
	for name, sum := range sums {
		out[name] = sum / float64(counts[name])
	}
	return out
}

func unionSorted(history []Assessment, pick func(Assessment) []string) []string {
	seen := map[string]bool{}
	for _, a := range history {
		for _, item := range pick(a) {
			if item != "" {
				seen[item] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for item := range seen {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
