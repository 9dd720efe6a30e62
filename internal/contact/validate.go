// Package contact validates and stores contact form submissions.
package contact

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// Maximums match the contact_messages column sizes
const (
	minNameLength    = 2
	maxNameLength    = 200
	maxEmailLength   = 254
	maxSubjectLength = 100
	minMessageLength = 10
	maxMessageLength = 5000
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]*[a-zA-Z0-9])?@[a-zA-Z0-9]([a-zA-Z0-9.-]*[a-zA-Z0-9])?\.[a-zA-Z]{2,}$`)

// FieldError is a validation failure of one form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks the form fields in order name, email, subject, message.
// The form is valid when the returned slice is empty.
func Validate(req models.ContactRequest) []FieldError {
	errs := []FieldError{}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		errs = append(errs, FieldError{"name", "Name is required"})
	case utf8.RuneCountInString(name) < minNameLength:
		errs = append(errs, FieldError{"name", "Name must be at least 2 characters"})
	case utf8.RuneCountInString(name) > maxNameLength:
		errs = append(errs, FieldError{"name", "Name must be at most 200 characters"})
	}

	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		errs = append(errs, FieldError{"email", "Email is required"})
	case !ValidEmail(email):
		errs = append(errs, FieldError{"email", "Please enter a valid email address"})
	}

	subject := strings.TrimSpace(req.Subject)
	switch {
	case subject == "":
		errs = append(errs, FieldError{"subject", "Please select a subject"})
	case utf8.RuneCountInString(subject) > maxSubjectLength:
		errs = append(errs, FieldError{"subject", "Subject must be at most 100 characters"})
	}

	message := strings.TrimSpace(req.Message)
	switch {
	case message == "":
		errs = append(errs, FieldError{"message", "Message is required"})
	case utf8.RuneCountInString(message) < minMessageLength:
		errs = append(errs, FieldError{"message", "Message must be at least 10 characters"})
	case utf8.RuneCountInString(message) > maxMessageLength:
		errs = append(errs, FieldError{"message", "Message must be at most 5000 characters"})
	}

	return errs
}

// ValidEmail reports whether email has an acceptable shape
func ValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}
