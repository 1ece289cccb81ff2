package domain

import (
	"context"
	"fmt"
)

// GeneratedQuizContent is the validated output of one LLM generation call.
// The generation client parses the raw completion into this struct and
// rejects anything that does not match the requested spec; nothing untyped
// crosses this boundary.
type GeneratedQuizContent struct {
	Quiz     GeneratedQuizMeta  `json:"quizzes"`
	Elements []GeneratedElement `json:"quiz_elements"`
	Results  []GeneratedResult  `json:"quiz_results"`
}

// GeneratedQuizMeta carries the quiz-level fields the model produces.
type GeneratedQuizMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ScaleType   string `json:"scale_type"`
	Theme       string `json:"theme"`
	CreatedBy   string `json:"created_by"`
}

// GeneratedElement is one generated question with its weight vector.
type GeneratedElement struct {
	ID           int            `json:"id"`
	QuestionText string         `json:"question_text"`
	TypeWeights  map[string]int `json:"type_weights"`
}

// GeneratedResult is one generated diagnosis. BaseType must be one of the
// originally requested type names; Modifier is a thematic styling only.
type GeneratedResult struct {
	BaseType    string   `json:"base_type"`
	Modifier    string   `json:"modifier,omitempty"`
	Description string   `json:"description"`
	Strengths   string   `json:"strengths"`
	Weaknesses  string   `json:"weaknesses"`
	GoodMatches []string `json:"good_matches,omitempty"`
	BadMatches  []string `json:"bad_matches,omitempty"`
	Advice      string   `json:"advice"`
}

// Validate enforces structural fidelity between the request and the model
// output: exact question and result counts, base types drawn from the
// requested set, and a weight for every requested type on every question.
// A failure here is a GenerationError and eligible for retry.
func (c *GeneratedQuizContent) Validate(spec *QuizSpec) error {
	if len(c.Elements) != spec.QuestionCount {
		return NewGenerationError(
			fmt.Sprintf("generated %d questions, requested %d", len(c.Elements), spec.QuestionCount), nil)
	}
	if len(c.Results) != len(spec.Types) {
		return NewGenerationError(
			fmt.Sprintf("generated %d results, requested %d", len(c.Results), len(spec.Types)), nil)
	}

	requested := make(map[string]struct{}, len(spec.Types))
	for _, t := range spec.Types {
		requested[t] = struct{}{}
	}

	seen := make(map[string]struct{}, len(c.Results))
	for _, r := range c.Results {
		if _, ok := requested[r.BaseType]; !ok {
			return NewGenerationError(
				fmt.Sprintf("result base type %q is not one of the requested types", r.BaseType), nil)
		}
		if _, dup := seen[r.BaseType]; dup {
			return NewGenerationError(
				fmt.Sprintf("result base type %q appears more than once", r.BaseType), nil)
		}
		seen[r.BaseType] = struct{}{}
		if r.Description == "" || r.Advice == "" {
			return NewGenerationError(
				fmt.Sprintf("result %q is missing description or advice", r.BaseType), nil)
		}
	}

	for _, e := range c.Elements {
		if e.QuestionText == "" {
			return NewGenerationError(fmt.Sprintf("question %d has empty text", e.ID), nil)
		}
		for t := range requested {
			if _, ok := e.TypeWeights[t]; !ok {
				return NewGenerationError(
					fmt.Sprintf("question %d has no weight for type %q", e.ID, t), nil)
			}
		}
	}
	return nil
}

// QuizGenerator defines the interface for the LLM generation client.
type QuizGenerator interface {
	// Generate builds the prompt from the spec, invokes the completion
	// service and returns validated structured content. Stateless per call.
	Generate(ctx context.Context, spec *QuizSpec) (*GeneratedQuizContent, error)
}
