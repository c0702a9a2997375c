// Package pathguard validates a source/destination pair before a mirror run
// is allowed to touch the filesystem.
package pathguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies why a pair of paths was rejected.
type Kind int

const (
	// NotAbsolute - source or destination is a relative path
	NotAbsolute Kind = iota + 1
	// SameLocation - both paths resolve to the same directory
	SameLocation
	// DriveRootForbidden - destination is the root of a volume
	DriveRootForbidden
	// DestinationInsideSource - destination lies below the source tree
	DestinationInsideSource
)

// Exported variables.
var (
	ErrNotAbsolute             = errors.New("paths must be absolute")
	ErrSameLocation            = errors.New("source and destination are the same location")
	ErrDriveRootForbidden      = errors.New("syncing into the root of a drive is forbidden")
	ErrDestinationInsideSource = errors.New("destination is inside the source directory")
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case NotAbsolute:
		return "not-absolute"
	case SameLocation:
		return "same-location"
	case DriveRootForbidden:
		return "drive-root-forbidden"
	case DestinationInsideSource:
		return "destination-inside-source"
	default:
		return "unknown"
	}
}

// ValidationError is returned when a source/destination pair is unsafe.
type ValidationError struct {
	Kind Kind
	Path string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Unwrap(), e.Path)
}

// Unwrap maps the kind onto its sentinel so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case NotAbsolute:
		return ErrNotAbsolute
	case SameLocation:
		return ErrSameLocation
	case DriveRootForbidden:
		return ErrDriveRootForbidden
	case DestinationInsideSource:
		return ErrDestinationInsideSource
	default:
		return nil
	}
}

// Validate checks that source and destination are absolute, distinct once
// symlinks are resolved, that destination is not a volume root and that it
// does not sit inside source. It performs no mutation.
func Validate(source, destination string) error {
	if !filepath.IsAbs(source) {
		return &ValidationError{Kind: NotAbsolute, Path: source}
	}

	if !filepath.IsAbs(destination) {
		return &ValidationError{Kind: NotAbsolute, Path: destination}
	}

	canonicalSource := Canonical(source)
	canonicalDest := Canonical(destination)

	if samePath(canonicalSource, canonicalDest) {
		return &ValidationError{Kind: SameLocation, Path: canonicalDest}
	}

	if IsVolumeRoot(canonicalDest) {
		return &ValidationError{Kind: DriveRootForbidden, Path: canonicalDest}
	}

	if isWithin(canonicalDest, canonicalSource) {
		return &ValidationError{Kind: DestinationInsideSource, Path: canonicalDest}
	}

	return nil
}

// Canonical resolves symlinks in path. Components that do not exist yet are
// kept verbatim below the deepest existing ancestor, so a destination that
// will be created by the run still canonicalizes.
func Canonical(path string) string {
	path = filepath.Clean(path)

	var missing []string

	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			parts := append([]string{resolved}, reverse(missing)...)

			return filepath.Join(parts...)
		}

		parent := filepath.Dir(current)
		if parent == current || !errors.Is(err, os.ErrNotExist) {
			return path
		}

		missing = append(missing, filepath.Base(current))
		current = parent
	}
}

// IsVolumeRoot reports whether path, with trailing separators stripped,
// names the root of a filesystem volume ("/" on POSIX, "C:\" or a UNC share
// root on Windows). The comparison ignores case.
func IsVolumeRoot(path string) bool {
	trimmed := strings.TrimRight(path, `\/`)
	if trimmed == "" {
		return true
	}

	volume := filepath.VolumeName(path)

	return volume != "" && strings.EqualFold(trimmed, volume)
}

func isWithin(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func reverse(items []string) []string {
	out := make([]string, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}

	return out
}
