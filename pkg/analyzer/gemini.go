// Package analyzer scores interview answers against a vacancy profile using
// an LLM. Model output is constrained by a response schema and strictly
// decoded into the closed assessment format before anything trusts it.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/aihr-dev/interviewd/pkg/interview"
)

const defaultGeminiModel = "gemini-2.0-flash"

const analyzeSystemPrompt = "You are an HR specialist evaluating a candidate's answer in a live screening " +
	"interview. Score only skills from the vacancy profile that the answer gives evidence for, " +
	"on a 0-5 scale. Note the dominant emotion in one word. List concrete strengths and " +
	"weaknesses the answer demonstrates. Include suitable/confidence only when the evidence " +
	"so far supports a call."

const questionSystemPrompt = "You are an HR specialist running a live screening interview. Given the vacancy " +
	"profile and the questions and answers so far, ask the single next question. Probe skills " +
	"not yet covered, or dig deeper where an answer was weak. Respond with the question text " +
	"only."

var skillSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":  {Type: genai.TypeString},
		"score": {Type: genai.TypeNumber},
	},
	Required: []string{"name", "score"},
}

var assessmentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"hard_skills": {Type: genai.TypeArray, Items: skillSchema},
		"soft_skills": {Type: genai.TypeArray, Items: skillSchema},
		"emotion":     {Type: genai.TypeString},
		"strengths":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"weaknesses":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"suitable":    {Type: genai.TypeBoolean},
		"confidence":  {Type: genai.TypeNumber},
	},
	Required: []string{"hard_skills", "soft_skills", "emotion", "strengths", "weaknesses"},
}

// Gemini is the production analyzer. It implements interview.Analyzer and
// interview.QuestionPlanner.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: defaultGeminiModel}, nil
}

// WithModel overrides the default model.
func (g *Gemini) WithModel(model string) *Gemini {
	if strings.TrimSpace(model) != "" {
		g.model = model
	}
	return g
}

// Analyze scores one transcript against the vacancy profile.
func (g *Gemini) Analyze(ctx context.Context, transcript string, profile interview.VacancyProfile, history []interview.Assessment) (*interview.Assessment, error) {
	payload, err := json.Marshal(map[string]any{
		"answer":  transcript,
		"vacancy": profile,
		"turn":    len(history) + 1,
	})
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: string(payload)}},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: analyzeSystemPrompt}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    assessmentSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini analysis: %w", err)
	}
	return decodeAssessment(resp.Text())
}

// NextQuestion asks the model for the next question given the Q/A history.
func (g *Gemini) NextQuestion(ctx context.Context, profile interview.VacancyProfile, questions, answers []string) (string, error) {
	exchanges := make([]map[string]string, 0, len(answers))
	for i, answer := range answers {
		if i >= len(questions) {
			break
		}
		exchanges = append(exchanges, map[string]string{
			"question": questions[i],
			"answer":   answer,
		})
	}
	payload, err := json.Marshal(map[string]any{
		"vacancy": profile,
		"history": exchanges,
	})
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: string(payload)}},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: questionSystemPrompt}}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini question generation: %w", err)
	}
	question := strings.TrimSpace(resp.Text())
	if question == "" {
		return "", fmt.Errorf("gemini returned no question")
	}
	return question, nil
}
