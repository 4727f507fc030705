package dictionary

import (
	"fmt"
	"strings"
)

// Issue is a single validation finding.
type Issue struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Key == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Key, i.Message)
}

// ValidationResult reports whether a document may be loaded.
// Errors block loading; warnings do not.
type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Invalid returns a failed result with a single error.
func Invalid(key, message string) ValidationResult {
	return ValidationResult{Errors: []Issue{{Key: key, Message: message}}}
}

// AddError records a blocking issue.
func (r *ValidationResult) AddError(key, message string) {
	r.Errors = append(r.Errors, Issue{Key: key, Message: message})
	r.Valid = false
}

// AddWarning records a non-blocking issue.
func (r *ValidationResult) AddWarning(key, message string) {
	r.Warnings = append(r.Warnings, Issue{Key: key, Message: message})
}

// Summary returns a one-line human-readable description.
func (r ValidationResult) Summary() string {
	if r.Valid {
		if len(r.Warnings) == 0 {
			return "valid"
		}
		return fmt.Sprintf("valid with %d warning(s)", len(r.Warnings))
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.String())
	}
	return fmt.Sprintf("invalid: %s", strings.Join(msgs, "; "))
}
