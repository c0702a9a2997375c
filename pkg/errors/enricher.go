package errors

import (
	"errors"
	"regexp"
	"strings"
)

// Enricher attaches categories and suggestions to errors.
type Enricher interface {
	Enrich(err error, affectedPath string) ActionableError
	Hint(err error, affectedPath string) string
}

// NewEnricher creates an Enricher with the default matcher and generator.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Compiled once, shared by every enricher
	pathExtractionPatterns = []*regexp.Regexp{
		// "open /path/file: permission denied"
		regexp.MustCompile(`\b\w+\s+([./][^\s:]+):`),
		// "open C:\path\file: Access is denied."
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:\\[^\s:]+):`),
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:/[^\s:]+):`),
	}
)

type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich classifies err. An error that is already actionable is returned
// unchanged. When affectedPath is empty it is taken from the error message.
func (e *enricher) Enrich(err error, affectedPath string) ActionableError {
	var actionableErr ActionableError
	if errors.As(err, &actionableErr) {
		return actionableErr
	}

	if affectedPath == "" {
		affectedPath = extractPath(err.Error())
	}

	category := e.matcher.Match(err)

	return NewActionableError(err, category, e.generator.Generate(category, affectedPath), affectedPath)
}

// Hint returns the first suggestion for err, or "" when err is nil.
func (e *enricher) Hint(err error, affectedPath string) string {
	if err == nil {
		return ""
	}

	suggestions := e.Enrich(err, affectedPath).Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	return suggestions[0]
}

// extractPath pulls the path out of messages shaped like "op /path: reason".
func extractPath(errorMsg string) string {
	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			if path := strings.TrimSpace(matches[1]); path != "" {
				return path
			}
		}
	}

	return ""
}
