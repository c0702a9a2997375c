package shared

import (
	"strings"
)

// RenderActivityLog renders the newest maxEntries log lines under a title,
// oldest first. maxEntries <= 0 shows every line.
func RenderActivityLog(title string, entries []string, maxEntries int) string {
	var builder strings.Builder

	if trimmed := strings.TrimSpace(title); trimmed != "" {
		builder.WriteString(RenderLabel(trimmed))
		builder.WriteString("\n")
	}

	start := 0
	if maxEntries > 0 && maxEntries < len(entries) {
		start = len(entries) - maxEntries
	}

	for i := start; i < len(entries); i++ {
		builder.WriteString("  ")
		builder.WriteString(entries[i])

		if i < len(entries)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}
