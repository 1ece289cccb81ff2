package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StringSlice stores a string array as a JSON text column.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	var bytesToParse []byte
	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("StringSlice Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*s = StringSlice{}
		return nil
	}

	return json.Unmarshal(bytesToParse, s)
}

// Quiz is the quizzes table row
type Quiz struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	ScaleType   string         `db:"scale_type"`
	Theme       sql.NullString `db:"theme"`
	CreatorID   sql.NullString `db:"creator_id"`
	Published   bool           `db:"published"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	AnswerCount int64          `db:"answer_count"` // from listing aggregates only
}

// QuizElement is the quiz_elements table row
type QuizElement struct {
	ID       string `db:"id"`
	QuizID   string `db:"quiz_id"`
	Position int    `db:"position"`
	Content  string `db:"content"`
}

// QuizResult is the quiz_results table row
type QuizResult struct {
	ID          string         `db:"id"`
	QuizID      string         `db:"quiz_id"`
	BaseType    string         `db:"base_type"`
	Modifier    sql.NullString `db:"modifier"`
	Description string         `db:"description"`
	Strengths   sql.NullString `db:"strengths"`
	Weaknesses  sql.NullString `db:"weaknesses"`
	GoodMatches StringSlice    `db:"good_matches"`
	BadMatches  StringSlice    `db:"bad_matches"`
	Advice      sql.NullString `db:"advice"`
}

// QuizElementScore is one weight matrix cell
type QuizElementScore struct {
	QuizElementID string `db:"quiz_element_id"`
	QuizResultID  string `db:"quiz_result_id"`
	Score         int    `db:"score"`
}

// Answer is the answers table row
type Answer struct {
	ID        string         `db:"id"`
	QuizID    string         `db:"quiz_id"`
	UserID    sql.NullString `db:"user_id"`
	CreatedAt time.Time      `db:"created_at"`
}

// AnswerDetail is the answer_details table row
type AnswerDetail struct {
	AnswerID      string `db:"answer_id"`
	QuizElementID string `db:"quiz_element_id"`
	Answer        int    `db:"answer"`
}
