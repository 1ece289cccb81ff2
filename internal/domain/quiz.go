package domain

import (
	"time"
)

// Answer scale bounds. Every question is answered on a symmetric 7-point
// scale from strong disagree (-3) to strong agree (+3).
const (
	ScaleMin = -3
	ScaleMax = 3

	// ScaleType is the human-readable descriptor stored with each quiz.
	ScaleType = "7-point (-3 to +3)"

	// MinResultTypes is the smallest type list that makes a diagnosis meaningful.
	MinResultTypes = 2

	// MaxQuestionCount bounds a single generation request.
	MaxQuestionCount = 20
)

// QuizSpec is a quiz-creation request as it travels through the queue.
// It is immutable once enqueued and never persisted itself.
type QuizSpec struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Types         []string `json:"types"`
	QuestionCount int      `json:"questions_count"`
	CreatorID     string   `json:"creator_id,omitempty"`
}

// Validate checks the spec shape. An invalid spec is dead-lettered by the
// worker rather than retried.
func (s *QuizSpec) Validate() error {
	var errs ValidationErrors
	if s.Title == "" {
		errs = append(errs, NewMissingFieldError("title"))
	}
	if s.Description == "" {
		errs = append(errs, NewMissingFieldError("description"))
	}
	if len(s.Types) < MinResultTypes {
		errs = append(errs, ValidationError{Field: "types", Message: "at least 2 result types are required"})
	}
	seen := make(map[string]struct{}, len(s.Types))
	for _, t := range s.Types {
		if t == "" {
			errs = append(errs, ValidationError{Field: "types", Message: "type names must not be empty"})
			break
		}
		if _, dup := seen[t]; dup {
			errs = append(errs, ValidationError{Field: "types", Message: "type names must be unique"})
			break
		}
		seen[t] = struct{}{}
	}
	if s.QuestionCount < 1 || s.QuestionCount > MaxQuestionCount {
		errs = append(errs, NewOutOfRangeError("questions_count", s.QuestionCount, 1, MaxQuestionCount))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Quiz represents a generated personality quiz. Immutable after the worker
// persists it; Published is flipped inside the same transaction as the
// element/result/score rows so respondents never see a half-written quiz.
type Quiz struct {
	ID          string
	Title       string
	Description string
	ScaleType   string
	Theme       string
	CreatorID   string
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AnswerCount int64 // populated by listing queries only

	Elements []*QuizElement
	Results  []*QuizResult
}

// QuizElement is a single question with its weight vector. The vector maps
// every result type of the quiz to a signed influence; a type absent from
// the vector is a generation defect, not an implicit zero.
type QuizElement struct {
	ID       string
	QuizID   string
	Position int
	Content  string
	Weights  map[string]int
}

// QuizResult is one candidate diagnosis for a quiz.
type QuizResult struct {
	ID          string
	QuizID      string
	BaseType    string
	Modifier    string
	Description string
	Strengths   string
	Weaknesses  string
	GoodMatches []string
	BadMatches  []string
	Advice      string
}

// Answer is one quiz attempt. UserID is empty for anonymous respondents.
type Answer struct {
	ID        string
	QuizID    string
	UserID    string
	CreatedAt time.Time
	Details   []*AnswerDetail
}

// AnswerDetail is a single question response within an attempt.
type AnswerDetail struct {
	AnswerID      string
	QuizElementID string
	Value         int
}

// ScoreRow is one cell of the persisted weight matrix, joined with enough
// identity for the scoring fold. Rows are ordered by result ID in storage.
type ScoreRow struct {
	QuizElementID string
	QuizResultID  string
	Score         int
}
