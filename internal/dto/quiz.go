package dto

import "time"

// CreateQuizRequest is the body of POST /api/quizzes
type CreateQuizRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Types         []string `json:"types"`
	QuestionCount int      `json:"questions_count"`
}

// CreateQuizResponse acknowledges an enqueued generation request
type CreateQuizResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// QuizElementResponse is one question as presented to respondents.
// Weight vectors are never exposed over the API.
type QuizElementResponse struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Content  string `json:"content"`
}

// QuizResponse is a quiz with its questions
type QuizResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	ScaleType   string                `json:"scale_type"`
	Theme       string                `json:"theme,omitempty"`
	Elements    []QuizElementResponse `json:"quiz_elements,omitempty"`
	AnswerCount int64                 `json:"answer_count,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// QuizListResponse is a page of quizzes for the recent/hot listings
type QuizListResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
}

// SubmitAnswersRequest is the body of POST /api/quizzes/:id/answers.
// Keys are quiz element IDs, values are scale responses in [-3, 3].
type SubmitAnswersRequest struct {
	Answers map[string]int `json:"answers"`
}

// SubmitAnswersResponse returns the created attempt
type SubmitAnswersResponse struct {
	AnswerID string `json:"answer_id"`
}

// QuizResultResponse is the winning diagnosis for one attempt
type QuizResultResponse struct {
	AnswerID    string         `json:"answer_id"`
	BaseType    string         `json:"base_type"`
	Modifier    string         `json:"modifier,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Strengths   string         `json:"strengths"`
	Weaknesses  string         `json:"weaknesses"`
	GoodMatches []string       `json:"good_matches,omitempty"`
	BadMatches  []string       `json:"bad_matches,omitempty"`
	Advice      string         `json:"advice"`
	Totals      map[string]int `json:"totals,omitempty"`
}

// AnswerSummaryResponse is one past attempt in a user's history
type AnswerSummaryResponse struct {
	AnswerID  string    `json:"answer_id"`
	QuizID    string    `json:"quiz_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AnswerListResponse is the authenticated user's attempt history
type AnswerListResponse struct {
	Answers []AnswerSummaryResponse `json:"answers"`
}

// HealthResponse is the liveness probe body
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}
