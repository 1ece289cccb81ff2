package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"

	// Quiz specific errors
	CodeQuizNotFound   ErrorCode = "QUIZ_NOT_FOUND"
	CodeAnswerNotFound ErrorCode = "ANSWER_NOT_FOUND"
	CodeGeneration     ErrorCode = "GENERATION_ERROR"
	CodePersistence    ErrorCode = "PERSISTENCE_ERROR"
	CodeNotComputable  ErrorCode = "NOT_COMPUTABLE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Helper constructors for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewQuizNotFoundError(quizID string) *DomainError {
	return NewError(CodeQuizNotFound, fmt.Sprintf("Quiz not found with ID: %s", quizID), nil)
}

func NewAnswerNotFoundError(answerID string) *DomainError {
	return NewError(CodeAnswerNotFound, fmt.Sprintf("Answer not found with ID: %s", answerID), nil)
}

// NewGenerationError wraps a failure of the LLM generation step. Generation
// errors are retryable a bounded number of times before dead-lettering.
func NewGenerationError(message string, cause error) *DomainError {
	return NewError(CodeGeneration, message, cause)
}

// NewPersistenceError wraps a storage write failure. Persistence errors are
// retryable; the enclosing transaction guarantees no partial writes survive.
func NewPersistenceError(message string, cause error) *DomainError {
	return NewError(CodePersistence, message, cause)
}

// NewNotComputableError signals that scoring had no data to fold over.
func NewNotComputableError(message string) *DomainError {
	return NewError(CodeNotComputable, message, nil)
}

// IsRetryable reports whether the worker may retry the failed step.
// Validation failures are never retried; generation and persistence
// failures are retried up to the configured attempt cap.
func IsRetryable(err error) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		// Unknown errors (network, driver) are treated as transient.
		return true
	}
	switch domainErr.Code {
	case CodeGeneration, CodePersistence, CodeInternal:
		return true
	default:
		return false
	}
}

// ValidationError represents a single field-level validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field-level failures for one request
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e[0].Error())
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has invalid format: %v", value)}
}

func NewOutOfRangeError(field string, value, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("value %d is out of range [%d, %d]", value, min, max)}
}
