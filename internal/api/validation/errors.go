// Package validation checks decoded request bodies before they reach the
// domain services. Validators return every problem at once; an empty result
// means the request is valid.
package validation

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
