//go:build !windows && !darwin

package pathguard

// CaseInsensitive reports whether names differing only in case collide.
const CaseInsensitive = false

func samePath(a, b string) bool {
	return a == b
}
