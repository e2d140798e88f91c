package validation

import "strings"

// SignInRequest mirrors the fields needed for sign-in validation.
type SignInRequest struct {
	UsernameOrEmail string
	Password        string
}

// ValidateSignInRequest validates the fields of a sign-in request.
func ValidateSignInRequest(req SignInRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.UsernameOrEmail) == "" {
		errs = append(errs, FieldError{Field: "usernameOrEmail", Message: "usernameOrEmail is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return errs
}
