package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/joe/servatio/internal/task"
)

// Exported constants.
const (
	// DefaultDirPermissions is used for the task file and log directories.
	DefaultDirPermissions = 0o750
	// DefaultFilePermissions is used for the task file.
	DefaultFilePermissions = 0o600
)

// TaskFile is the content of the task file.
type TaskFile struct {
	LogDir string             `yaml:"log_dir"`
	Tasks  []task.BackupTask `yaml:"tasks"`
}

// Add appends t after validating it against the existing tasks.
func (f *TaskFile) Add(t task.BackupTask) error {
	return f.replaceTasks(append(append([]task.BackupTask(nil), f.Tasks...), t))
}

// Remove deletes the task with the given name.
func (f *TaskFile) Remove(name string) error {
	if _, err := task.Find(f.Tasks, name); err != nil {
		return err //nolint:wrapcheck // Already carries the name
	}

	kept := make([]task.BackupTask, 0, len(f.Tasks)-1)

	for _, t := range f.Tasks {
		if t.Name != name {
			kept = append(kept, t)
		}
	}

	f.Tasks = kept

	return nil
}

// Update replaces the task called name with t, keeping its position. t may
// carry a new name.
func (f *TaskFile) Update(name string, t task.BackupTask) error {
	tasks := append([]task.BackupTask(nil), f.Tasks...)

	for i := range tasks {
		if tasks[i].Name == name {
			tasks[i] = t

			return f.replaceTasks(tasks)
		}
	}

	return fmt.Errorf("%w: %q", task.ErrNotFound, name)
}

func (f *TaskFile) replaceTasks(tasks []task.BackupTask) error {
	err := task.ValidateAll(tasks)
	if err != nil {
		return err //nolint:wrapcheck // Validation errors name the task
	}

	f.Tasks = tasks

	return nil
}

// Store reads and writes the task file. The format follows the extension:
// .yaml and .yml select YAML, everything else INI.
type Store struct {
	Path string
}

// NewStore creates a store for path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// DefaultConfigPath returns ~/.config/servatio/tasks.ini.
func DefaultConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return "tasks.ini"
	}

	return filepath.Join(home, ".config", "servatio", "tasks.ini")
}

// DefaultLogDir returns ~/Documents/Servatio/Logs.
func DefaultLogDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return "Logs"
	}

	return filepath.Join(home, "Documents", "Servatio", "Logs")
}

// Load reads the task file. A missing file yields no tasks and the default
// log directory.
func (s *Store) Load() (*TaskFile, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &TaskFile{LogDir: DefaultLogDir()}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read task file %s: %w", s.Path, err)
	}

	var file *TaskFile

	if s.isYAML() {
		file, err = decodeYAML(data)
	} else {
		file, err = decodeINI(data)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse task file %s: %w", s.Path, err)
	}

	if file.LogDir == "" {
		file.LogDir = DefaultLogDir()
	}

	file.LogDir, err = homedir.Expand(file.LogDir)
	if err != nil {
		return nil, fmt.Errorf("invalid log_dir in %s: %w", s.Path, err)
	}

	return file, nil
}

// Save writes the task file, creating its directory and the log directory.
func (s *Store) Save(file *TaskFile) error {
	if file.LogDir == "" {
		file.LogDir = DefaultLogDir()
	}

	err := os.MkdirAll(file.LogDir, DefaultDirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", file.LogDir, err)
	}

	err = os.MkdirAll(filepath.Dir(s.Path), DefaultDirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", s.Path, err)
	}

	var data []byte

	if s.isYAML() {
		data, err = yaml.Marshal(file)
	} else {
		data, err = encodeINI(file)
	}

	if err != nil {
		return fmt.Errorf("failed to encode task file %s: %w", s.Path, err)
	}

	err = os.WriteFile(s.Path, data, DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to write task file %s: %w", s.Path, err)
	}

	return nil
}

func (s *Store) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.Path))

	return ext == ".yaml" || ext == ".yml"
}

func decodeYAML(data []byte) (*TaskFile, error) {
	file := &TaskFile{}

	err := yaml.Unmarshal(data, file)
	if err != nil {
		return nil, err //nolint:wrapcheck // Wrapped by Load
	}

	for i := range file.Tasks {
		if file.Tasks[i].ExcludePatterns == nil {
			file.Tasks[i].ExcludePatterns = task.DefaultExcludePatterns()
		}
	}

	return file, nil
}

// INI layout: a [global] section with log_dir, then [task_0], [task_1], ...
// until the first missing index. Booleans are "True"/"False" and
// exclude_patterns is a JSON array.
func decodeINI(data []byte) (*TaskFile, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, err //nolint:wrapcheck // Wrapped by Load
	}

	file := &TaskFile{}

	if global, err := cfg.GetSection("global"); err == nil {
		file.LogDir = global.Key("log_dir").String()
	}

	for i := 0; ; i++ {
		section, err := cfg.GetSection(taskSection(i))
		if err != nil {
			break
		}

		// A missing key selects the defaults; an explicit [] excludes nothing.
		var patterns []string

		if section.HasKey("exclude_patterns") {
			raw := section.Key("exclude_patterns").MustString("[]")
			if err := json.Unmarshal([]byte(raw), &patterns); err != nil {
				return nil, fmt.Errorf("[%s] exclude_patterns: %w", section.Name(), err)
			}
		}

		t := task.New(
			section.Key("name").String(),
			section.Key("source").String(),
			section.Key("destination").String(),
			patterns,
			parseBool(section.Key("delete_extra").MustString("True")),
		)
		t.DeleteExcluded = parseBool(section.Key("delete_excluded").MustString("False"))
		t.Schedule = section.Key("schedule").String()

		file.Tasks = append(file.Tasks, t)
	}

	return file, nil
}

//nolint:gochecknoinits // go-ini only exposes its output style as package variables
func init() {
	// "key = value" without column alignment.
	ini.PrettyFormat = false
	ini.PrettyEqual = true
}

func encodeINI(file *TaskFile) ([]byte, error) {
	cfg := ini.Empty(ini.LoadOptions{IgnoreInlineComment: true})

	global, err := cfg.NewSection("global")
	if err != nil {
		return nil, err //nolint:wrapcheck // Wrapped by Save
	}

	global.Key("log_dir").SetValue(file.LogDir)

	for i, t := range file.Tasks {
		section, err := cfg.NewSection(taskSection(i))
		if err != nil {
			return nil, err //nolint:wrapcheck // Wrapped by Save
		}

		section.Key("name").SetValue(t.Name)
		section.Key("source").SetValue(t.Source)
		section.Key("destination").SetValue(t.Destination)
		section.Key("exclude_patterns").SetValue(jsonList(t.ExcludePatterns))
		section.Key("delete_extra").SetValue(formatBool(t.DeleteExtra))

		if t.DeleteExcluded {
			section.Key("delete_excluded").SetValue(formatBool(true))
		}

		if t.Schedule != "" {
			section.Key("schedule").SetValue(t.Schedule)
		}
	}

	var builder strings.Builder

	_, err = cfg.WriteTo(&builder)
	if err != nil {
		return nil, err //nolint:wrapcheck // Wrapped by Save
	}

	return []byte(builder.String()), nil
}

func taskSection(i int) string {
	return "task_" + strconv.Itoa(i)
}

func parseBool(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}

func formatBool(value bool) string {
	if value {
		return "True"
	}

	return "False"
}

// jsonList renders patterns as a JSON array with ", " separators.
func jsonList(patterns []string) string {
	quoted := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		encoded, _ := json.Marshal(pattern) //nolint:errchkjson // Marshalling a string cannot fail
		quoted = append(quoted, string(encoded))
	}

	return "[" + strings.Join(quoted, ", ") + "]"
}
