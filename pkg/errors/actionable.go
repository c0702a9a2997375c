// Package errors turns entry failures met during a mirror run into short,
// actionable hints.
//
// A failure is first classified into an ErrorCategory, by errno where the
// error wraps one and by message text otherwise. Each category carries a
// list of suggestions; the first one is the hint appended to the warning the
// engine logs for the entry:
//
//	enricher := errors.NewEnricher()
//	_, err := fileops.CopyFile(fsys, src, dst)
//	if err != nil {
//	    log("Error copying " + src + ": " + err.Error() + " (" + enricher.Hint(err, src) + ")")
//	}
package errors

import "strings"

// Exported constants.
const (
	CategoryCopy       ErrorCategory = "copy"
	CategoryDelete     ErrorCategory = "delete"
	CategoryDiskSpace  ErrorCategory = "disk_space"
	CategoryInUse      ErrorCategory = "in_use"
	CategoryNameLength ErrorCategory = "name_length"
	CategoryPath       ErrorCategory = "path"
	CategoryPermission ErrorCategory = "permission"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ErrorCategory represents the kind of failure that occurred.
type ErrorCategory string

// ActionableError is an error with a category and suggestions for the user.
type ActionableError interface {
	error
	Unwrap() error
	Category() ErrorCategory
	Suggestions() []string
	AffectedPath() string
}

// NewActionableError wraps err with the given category, suggestions and path.
func NewActionableError(
	err error,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		err:          err,
		category:     category,
		suggestions:  suggestions,
		affectedPath: affectedPath,
	}
}

// FormatSuggestions formats the suggestions of an ActionableError as a
// bulleted list. Returns "" for any other error or when there are none.
func FormatSuggestions(err error) string {
	actionable, ok := err.(ActionableError)
	if !ok {
		return ""
	}

	var builder strings.Builder

	for i, suggestion := range actionable.Suggestions() {
		if i > 0 {
			builder.WriteString("\n")
		}

		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

type actionableError struct {
	err          error
	category     ErrorCategory
	suggestions  []string
	affectedPath string
}

func (e *actionableError) AffectedPath() string {
	return e.affectedPath
}

func (e *actionableError) Category() ErrorCategory {
	return e.category
}

func (e *actionableError) Error() string {
	return e.err.Error()
}

func (e *actionableError) Suggestions() []string {
	return e.suggestions
}

func (e *actionableError) Unwrap() error {
	return e.err
}
