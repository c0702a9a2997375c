package errors

import "fmt"

// SuggestionGenerator produces suggestions for a category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates the default SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

type suggestionGenerator struct{}

// Generate returns suggestions for the category, most useful first.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryPermission:
		return g.permission(affectedPath)
	case CategoryDiskSpace:
		return []string{
			"Free up space on the backup drive",
			"Add exclusion patterns for large files that need no backup",
		}
	case CategoryInUse:
		return []string{
			"Close the program holding the file and run the task again",
			"The next run will pick the file up once it is released",
		}
	case CategoryNameLength:
		return []string{
			"Shorten the file name or move the destination closer to the drive root",
		}
	case CategoryPath:
		return g.path(affectedPath)
	case CategoryDelete:
		return []string{
			"Close programs browsing the destination folder and run the task again",
			"Check that the destination drive is not mounted read-only",
		}
	case CategoryCopy:
		return []string{
			"Check the cable and health of the backup drive",
			"Run the task again; the copy is retried on the next run",
		}
	case CategoryUnknown:
		return g.unknown(affectedPath)
	default:
		return g.unknown(affectedPath)
	}
}

func (g *suggestionGenerator) path(path string) []string {
	if path == "" {
		return []string{"The entry vanished during the run; it will be handled on the next run"}
	}

	return []string{
		fmt.Sprintf("%s vanished during the run; it will be handled on the next run", path),
		"Check that the drive holding " + path + " is still connected",
	}
}

func (g *suggestionGenerator) permission(path string) []string {
	suggestions := []string{}

	if path != "" {
		suggestions = append(suggestions, "Check read access to "+path+" and write access to the destination")
	} else {
		suggestions = append(suggestions, "Check read access to the source and write access to the destination")
	}

	return append(suggestions, "Run the backup as a user that owns both folders")
}

func (g *suggestionGenerator) unknown(path string) []string {
	suggestions := []string{"See the log file for details"}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
