package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxQuestionLength   = 140
	MaxChoiceTextLength = 40
	MinChoices          = 2
	MaxChoices          = 6
	MaxPollDays         = 7
	MaxPollHours        = 23
)

// CreatePollRequest mirrors the fields needed for create poll validation.
type CreatePollRequest struct {
	Question string
	Choices  []string
	Days     *int
	Hours    *int
}

// Duration returns the poll length described by the request.
func (r CreatePollRequest) Duration() time.Duration {
	var d time.Duration
	if r.Days != nil {
		d += time.Duration(*r.Days) * 24 * time.Hour
	}
	if r.Hours != nil {
		d += time.Duration(*r.Hours) * time.Hour
	}
	return d
}

// ValidateCreatePollRequest validates the fields of a create poll request.
func ValidateCreatePollRequest(req CreatePollRequest) []FieldError {
	var errs []FieldError

	question := strings.TrimSpace(req.Question)
	if question == "" {
		errs = append(errs, FieldError{Field: "question", Message: "question is required"})
	} else if utf8.RuneCountInString(question) > MaxQuestionLength {
		errs = append(errs, FieldError{Field: "question", Message: fmt.Sprintf("question must be at most %d characters", MaxQuestionLength)})
	}

	switch n := len(req.Choices); {
	case n < MinChoices || n > MaxChoices:
		errs = append(errs, FieldError{Field: "choices", Message: fmt.Sprintf("a poll must have between %d and %d choices", MinChoices, MaxChoices)})
	}
	for i, text := range req.Choices {
		field := fmt.Sprintf("choices[%d].text", i)
		text = strings.TrimSpace(text)
		if text == "" {
			errs = append(errs, FieldError{Field: field, Message: "choice text is required"})
		} else if utf8.RuneCountInString(text) > MaxChoiceTextLength {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("choice text must be at most %d characters", MaxChoiceTextLength)})
		}
	}

	if req.Days == nil {
		errs = append(errs, FieldError{Field: "pollLength.days", Message: "pollLength.days is required"})
	} else if *req.Days < 0 || *req.Days > MaxPollDays {
		errs = append(errs, FieldError{Field: "pollLength.days", Message: fmt.Sprintf("pollLength.days must be between 0 and %d", MaxPollDays)})
	}
	if req.Hours == nil {
		errs = append(errs, FieldError{Field: "pollLength.hours", Message: "pollLength.hours is required"})
	} else if *req.Hours < 0 || *req.Hours > MaxPollHours {
		errs = append(errs, FieldError{Field: "pollLength.hours", Message: fmt.Sprintf("pollLength.hours must be between 0 and %d", MaxPollHours)})
	}
	if req.Days != nil && req.Hours != nil && *req.Days == 0 && *req.Hours == 0 {
		errs = append(errs, FieldError{Field: "pollLength", Message: "pollLength must be greater than zero"})
	}

	return errs
}

// CastVoteRequest mirrors the fields needed for vote validation.
type CastVoteRequest struct {
	ChoiceID *int64
}

// ValidateCastVoteRequest validates the fields of a vote request.
func ValidateCastVoteRequest(req CastVoteRequest) []FieldError {
	if req.ChoiceID == nil {
		return []FieldError{{Field: "choiceId", Message: "choiceId is required"}}
	}
	if *req.ChoiceID <= 0 {
		return []FieldError{{Field: "choiceId", Message: "choiceId must be a positive integer"}}
	}
	return nil
}
