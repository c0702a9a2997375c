package errors

import (
	"errors"
	"io/fs"
	"strings"
	"syscall"
)

// PatternMatcher classifies an error into a category.
type PatternMatcher interface {
	Match(err error) ErrorCategory
}

// NewPatternMatcher creates a PatternMatcher that checks wrapped errno values
// first and falls back to message patterns.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		sentinels: []sentinelRule{
			{CategoryPermission, []error{fs.ErrPermission, syscall.EACCES, syscall.EPERM, syscall.EROFS}},
			{CategoryDiskSpace, []error{syscall.ENOSPC}},
			{CategoryPath, []error{fs.ErrNotExist}},
			{CategoryNameLength, []error{syscall.ENAMETOOLONG}},
			{CategoryInUse, []error{syscall.EBUSY, syscall.ETXTBSY}},
			{CategoryDelete, []error{syscall.ENOTEMPTY}},
			{CategoryCopy, []error{syscall.EIO}},
		},
		patterns: []patternRule{
			{CategoryInUse, []string{
				"being used by another process",
				"sharing violation",
				"device or resource busy",
				"text file busy",
			}},
			{CategoryPermission, []string{"permission denied", "access is denied", "access denied", "operation not permitted", "read-only file system"}},
			{CategoryDiskSpace, []string{"no space left on device", "not enough space", "disk full", "quota exceeded"}},
			{CategoryNameLength, []string{"file name too long", "filename or extension is too long"}},
			{CategoryPath, []string{"no such file or directory", "cannot find the path", "cannot find the file", "file not found"}},
			{CategoryDelete, []string{"directory not empty", "directory is not empty", "cannot remove"}},
			{CategoryCopy, []string{"short write", "input/output error", "i/o error"}},
		},
	}
}

type sentinelRule struct {
	category ErrorCategory
	targets  []error
}

type patternRule struct {
	category ErrorCategory
	needles  []string
}

// patternMatcher checks rules in order, so an error that fits two
// categories always lands in the same one.
type patternMatcher struct {
	sentinels []sentinelRule
	patterns  []patternRule
}

// Match returns the category of err, or CategoryUnknown.
func (m *patternMatcher) Match(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	for _, rule := range m.sentinels {
		for _, target := range rule.targets {
			if errors.Is(err, target) {
				return rule.category
			}
		}
	}

	lowerMsg := strings.ToLower(err.Error())

	for _, rule := range m.patterns {
		for _, needle := range rule.needles {
			if strings.Contains(lowerMsg, needle) {
				return rule.category
			}
		}
	}

	return CategoryUnknown
}
