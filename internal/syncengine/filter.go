package syncengine

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileFilter decides whether an entry takes part in a sync.
type FileFilter interface {
	// IsExcluded returns true if entryPath, seen relative to basePath, must be skipped.
	IsExcluded(entryPath, basePath string) bool
}

// Excluder implements FileFilter with shell-glob exclusion patterns.
// A pattern matches either the whole relative path or, through an implicit
// "**/" prefix, any trailing part of it, so "*.log" and ".git" apply at any depth.
//
// Wildcards follow fnmatch rules: "*", "?" and bracket classes also match
// "/", so "logs/*.log" excludes "logs/sub/a.log". Braces and backslashes are
// literal, and a "[" without a closing "]" matches itself.
type Excluder struct {
	patterns []string
	compiled []string
	foldCase bool
}

// segment stands in for "/" so that doublestar sees every relative path as a
// single segment its wildcards may span.
const segment = "\x00"

// NewExcluder creates an Excluder for the given patterns. Matching ignores
// case on Windows, where the filesystem does too.
func NewExcluder(patterns []string) *Excluder {
	return newExcluder(patterns, runtime.GOOS == "windows")
}

// NewCaseInsensitiveExcluder creates an Excluder that always ignores case.
func NewCaseInsensitiveExcluder(patterns []string) *Excluder {
	return newExcluder(patterns, true)
}

func newExcluder(patterns []string, foldCase bool) *Excluder {
	normalized := make([]string, 0, len(patterns))
	compiled := make([]string, 0, 2*len(patterns))

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		pattern = filepath.ToSlash(pattern)
		if foldCase {
			pattern = strings.ToLower(pattern)
		}

		normalized = append(normalized, pattern)
		translated := translateFnmatch(pattern)
		compiled = append(compiled, translated, "*"+segment+translated)
	}

	return &Excluder{patterns: normalized, compiled: compiled, foldCase: foldCase}
}

// IsExcluded reports whether entryPath matches a pattern once made relative to
// basePath. Entries outside basePath are never excluded.
func (e *Excluder) IsExcluded(entryPath, basePath string) bool {
	rel, err := filepath.Rel(basePath, entryPath)
	if err != nil {
		return false
	}

	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}

	return e.MatchRelative(rel)
}

// MatchRelative reports whether a forward-slash relative path matches any
// pattern. Invalid patterns never match.
func (e *Excluder) MatchRelative(rel string) bool {
	if rel == "" {
		return false
	}

	if e.foldCase {
		rel = strings.ToLower(rel)
	}

	rel = strings.ReplaceAll(rel, "/", segment)

	for _, pattern := range e.compiled {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}

	return false
}

// translateFnmatch rewrites an fnmatch pattern into an equivalent doublestar
// pattern over paths whose separators were replaced by segment.
func translateFnmatch(pattern string) string {
	var out strings.Builder

	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '/':
			out.WriteString(segment)
		case '\\', '{', '}':
			out.WriteByte('\\')
			out.WriteByte(c)
		case '[':
			end := classEnd(pattern, i)
			if end < 0 {
				out.WriteString("\\[")

				continue
			}

			out.WriteByte('[')

			j := i + 1
			if pattern[j] == '!' {
				out.WriteByte('!')
				j++
			}

			for ; j < end; j++ {
				switch c := pattern[j]; c {
				case '/':
					out.WriteString(segment)
				case '\\', ']', '^':
					out.WriteByte('\\')
					out.WriteByte(c)
				default:
					out.WriteByte(c)
				}
			}

			out.WriteByte(']')

			i = end
		default:
			out.WriteByte(c)
		}
	}

	return out.String()
}

// classEnd returns the index of the "]" closing the class opened at start,
// or -1. A "]" right after "[" or "[!" belongs to the class.
func classEnd(pattern string, start int) int {
	j := start + 1
	if j < len(pattern) && pattern[j] == '!' {
		j++
	}

	if j < len(pattern) && pattern[j] == ']' {
		j++
	}

	if k := strings.IndexByte(pattern[j:], ']'); k >= 0 {
		return j + k
	}

	return -1
}

// Patterns returns the normalized patterns.
func (e *Excluder) Patterns() []string {
	return append([]string(nil), e.patterns...)
}
