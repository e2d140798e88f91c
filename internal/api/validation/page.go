package validation

import (
	"fmt"
	"math"
	"strconv"
)

// MaxOffset bounds (page-1)*limit so the row offset fits a Postgres integer.
const MaxOffset = math.MaxInt32

// Page holds validated pagination parameters.
type Page struct {
	Page  int
	Limit int
}

// ParsePage parses the page and limit query parameters. Empty values fall
// back to page 1 and defaultLimit; a limit above maxLimit is an error rather
// than being clamped, and so is a page that starts beyond MaxOffset.
func ParsePage(pageParam, limitParam string, defaultLimit, maxLimit int) (Page, []FieldError) {
	p := Page{Page: 1, Limit: defaultLimit}
	var errs []FieldError

	if pageParam != "" {
		n, err := strconv.Atoi(pageParam)
		if err != nil || n < 1 {
			errs = append(errs, FieldError{Field: "page", Message: "page must be a positive integer"})
		} else {
			p.Page = n
		}
	}

	if limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		switch {
		case err != nil || n < 1:
			errs = append(errs, FieldError{Field: "limit", Message: "limit must be a positive integer"})
		case n > maxLimit:
			errs = append(errs, FieldError{Field: "limit", Message: fmt.Sprintf("limit must not be greater than %d", maxLimit)})
		default:
			p.Limit = n
		}
	}

	if len(errs) == 0 && p.Page-1 > MaxOffset/p.Limit {
		errs = append(errs, FieldError{Field: "page", Message: "page is too large"})
		p.Page = 1
	}

	return p, errs
}
