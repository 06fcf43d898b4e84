package interview

import (
	"context"
	"fmt"
)

// QuestionPlanner produces the next question from the Q/A history and the
// vacancy profile. Implementations must be deterministic for a given history
// or delegate to the analyzer; the orchestrator treats planner output as
// best-effort and falls back to the scripted ladder on error.
type QuestionPlanner interface {
	NextQuestion(ctx context.Context, profile VacancyProfile, questions, answers []string) (string, error)
}

// ScriptedPlanner walks a fixed ladder derived from the vacancy profile:
// opening, hard skills, soft skills, tasks, then a closing prompt. It is a
// pure function of the turn index and the profile.
type ScriptedPlanner struct{}

func (ScriptedPlanner) NextQuestion(_ context.Context, profile VacancyProfile, questions, _ []string) (string, error) {
	idx := len(questions)
	if idx == 0 {
		title := profile.Title
		if title == "" {
			title = "this role"
		}
		return fmt.Sprintf("Tell me about your experience relevant to %s.", title), nil
	}
	idx--

	if idx < len(profile.HardSkills) {
		return fmt.Sprintf("Can you describe a project where you used %s?", profile.HardSkills[idx]), nil
	}
	idx -= len(profile.HardSkills)

	if idx < len(profile.SoftSkills) {
		return fmt.Sprintf("Give me an example of a situation that required %s.", profile.SoftSkills[idx]), nil
	}
	idx -= len(profile.SoftSkills)

	if idx < len(profile.Tasks) {
		return fmt.Sprintf("How would you approach this task: %s?", profile.Tasks[idx]), nil
	}

	return "Is there anything else you would like to add about your background?", nil
}
