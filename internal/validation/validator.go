package validation

import (
	"regexp"
	"strings"

	"personaquiz/internal/domain"
	"personaquiz/internal/dto"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

var ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreateQuizRequest validates the quiz creation request shape.
// The same rules are re-checked by the worker on dequeue, since the queue
// may carry messages from other producers.
func (v *Validator) ValidateCreateQuizRequest(req *dto.CreateQuizRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors

	if strings.TrimSpace(req.Title) == "" {
		errs = append(errs, domain.NewMissingFieldError("title"))
	} else if len(req.Title) > maxTitleLength {
		errs = append(errs, domain.NewOutOfRangeError("title", len(req.Title), 1, maxTitleLength))
	}

	if strings.TrimSpace(req.Description) == "" {
		errs = append(errs, domain.NewMissingFieldError("description"))
	} else if len(req.Description) > maxDescriptionLength {
		errs = append(errs, domain.NewOutOfRangeError("description", len(req.Description), 1, maxDescriptionLength))
	}

	if len(req.Types) < domain.MinResultTypes {
		errs = append(errs, domain.ValidationError{Field: "types", Message: "at least 2 result types are required"})
	} else {
		seen := make(map[string]struct{}, len(req.Types))
		for _, t := range req.Types {
			if strings.TrimSpace(t) == "" {
				errs = append(errs, domain.ValidationError{Field: "types", Message: "type names must not be empty"})
				break
			}
			if _, dup := seen[t]; dup {
				errs = append(errs, domain.ValidationError{Field: "types", Message: "type names must be unique"})
				break
			}
			seen[t] = struct{}{}
		}
	}

	if req.QuestionCount < 1 || req.QuestionCount > domain.MaxQuestionCount {
		errs = append(errs, domain.NewOutOfRangeError("questions_count", req.QuestionCount, 1, domain.MaxQuestionCount))
	}

	return errs
}

// ValidateSubmitAnswersRequest validates a respondent's answer submission.
func (v *Validator) ValidateSubmitAnswersRequest(req *dto.SubmitAnswersRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors

	if len(req.Answers) == 0 {
		errs = append(errs, domain.NewMissingFieldError("answers"))
		return errs
	}

	for elementID, value := range req.Answers {
		if !isValidULID(elementID) {
			errs = append(errs, domain.NewInvalidFormatError("answers", elementID))
			continue
		}
		if value < domain.ScaleMin || value > domain.ScaleMax {
			errs = append(errs, domain.NewOutOfRangeError("answers."+elementID, value, domain.ScaleMin, domain.ScaleMax))
		}
	}

	return errs
}

// ValidateID validates a path parameter that must be a ULID.
func (v *Validator) ValidateID(field, id string) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errs = append(errs, domain.NewMissingFieldError(field))
	} else if !isValidULID(id) {
		errs = append(errs, domain.NewInvalidFormatError(field, id))
	}
	return errs
}

func isValidULID(s string) bool {
	return ulidPattern.MatchString(s)
}
