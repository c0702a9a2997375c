//go:build windows || darwin

package pathguard

import "strings"

// CaseInsensitive is true where Windows and default macOS volumes treat
// names that differ only in case as the same entry.
const CaseInsensitive = true

func samePath(a, b string) bool {
	return strings.EqualFold(a, b)
}
