package task

import (
	"unicode/utf8"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

const (
	minTitleLen       = 3
	minDescriptionLen = 5
)

// validateFields checks the creation field rules and returns every violation,
// not just the first. Lengths are counted in characters, not bytes. Member
// existence is checked elsewhere, and before this, which is a compatibility
// contract: a request with both an unknown member and a short title reports
// the member error.
func validateFields(title, description string) []cerr.FieldError {
	var fields []cerr.FieldError
	if utf8.RuneCountInString(title) < minTitleLen {
		fields = append(fields, cerr.FieldError{
			Field:   "title",
			Message: "Enter a valid Title",
		})
	}
	if utf8.RuneCountInString(description) < minDescriptionLen {
		fields = append(fields, cerr.FieldError{
			Field:   "description",
			Message: "Description must be of at least 5 characters",
		})
	}
	return fields
}
