// Package task defines the BackupTask record fed into a mirror run.
package task

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Exported variables.
var (
	ErrDuplicateName = errors.New("duplicate task name")
	ErrNotFound      = errors.New("task not found")
)

// DefaultExcludePatterns returns the built-in exclusion set used when a task
// specifies none. A fresh slice is returned on every call.
func DefaultExcludePatterns() []string {
	return []string{
		"*.tmp", "*.log", ".git", ".gitignore", "__pycache__", "*.pyc",
		".DS_Store", "Thumbs.db", "desktop.ini", "$RECYCLE.BIN", "System Volume Information",
	}
}

// BackupTask describes one source → destination mirror.
type BackupTask struct {
	Name            string   `validate:"required" yaml:"name"`
	Source          string   `validate:"required" yaml:"source"`
	Destination     string   `validate:"required,nefield=Source" yaml:"destination"`
	ExcludePatterns []string `validate:"dive,required,glob" yaml:"exclude_patterns"`
	DeleteExtra     bool     `yaml:"delete_extra"`
	// DeleteExcluded lets the deletion pass remove destination entries that
	// match an exclusion pattern. By default they are left alone.
	DeleteExcluded bool   `yaml:"delete_excluded,omitempty"`
	Schedule       string `validate:"omitempty,schedule" yaml:"schedule,omitempty"`
}

// New creates a task. A nil pattern list selects DefaultExcludePatterns; an
// empty non-nil list means "exclude nothing".
func New(name, source, destination string, excludePatterns []string, deleteExtra bool) BackupTask {
	if excludePatterns == nil {
		excludePatterns = DefaultExcludePatterns()
	}

	return BackupTask{
		Name:            name,
		Source:          source,
		Destination:     destination,
		ExcludePatterns: excludePatterns,
		DeleteExtra:     deleteExtra,
	}
}

// SafeName returns the task name with every character that is not a letter,
// digit, space, underscore or dash replaced by an underscore.
func (t BackupTask) SafeName() string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			return r
		}

		return '_'
	}, t.Name)
}

// Validate checks the task's static shape. Path safety (absolute paths,
// symlink identity, volume roots) is checked separately by pathguard right
// before a run.
func (t BackupTask) Validate() error {
	err := validate.Struct(t)
	if err != nil {
		return fmt.Errorf("invalid task %q: %w", t.Name, err)
	}

	return nil
}

// ValidateAll validates every task and checks that names are unique.
func ValidateAll(tasks []BackupTask) error {
	seen := make(map[string]struct{}, len(tasks))

	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}

		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, t.Name)
		}

		seen[t.Name] = struct{}{}
	}

	return nil
}

// Find returns the task with the given name.
func Find(tasks []BackupTask, name string) (BackupTask, error) {
	for _, t := range tasks {
		if t.Name == name {
			return t, nil
		}
	}

	return BackupTask{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// unexported variables.
var (
	//nolint:gochecknoglobals // validator caches struct metadata; one instance per process
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Braces and backslashes are literal in exclusion patterns, so only an
	// unclosed bracket class is rejected.
	literal := strings.NewReplacer(`\`, `\\`, "{", `\{`, "}", `\}`)

	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(literal.Replace(fl.Field().String()))
	})

	_ = v.RegisterValidation("schedule", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())

		return err == nil
	})

	return v
}
