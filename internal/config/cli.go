// Package config handles command-line argument parsing and the task file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/alexflint/go-arg"
	"github.com/mitchellh/go-homedir"
)

// Exported variables.
var (
	ErrNoCommand    = errors.New("no command given (run, list, add, edit, remove, set-log-dir or serve)")
	ErrLogDir       = errors.New("log directory must be an absolute path")
	ErrRunSelection = errors.New("run needs task names or --all, not both")
)

// Args holds the parsed command line.
type Args struct {
	Config      string `arg:"-c,--config,env:SERVATIO_CONFIG" help:"task file (.ini, .yaml or .yml)"`
	Verbose     bool   `arg:"-v,--verbose" help:"log debug detail to the console"`
	Plain       bool   `arg:"--plain" help:"print log lines instead of the progress display"`
	MetricsDir  string `arg:"--metrics-dir" help:"write a Prometheus textfile per task into this directory"`

	Run       *RunCmd       `arg:"subcommand:run" help:"run backup tasks now"`
	List      *ListCmd      `arg:"subcommand:list" help:"list configured tasks"`
	Add       *AddCmd       `arg:"subcommand:add" help:"add a task to the task file"`
	Edit      *EditCmd      `arg:"subcommand:edit" help:"replace the definition of an existing task"`
	Remove    *RemoveCmd    `arg:"subcommand:remove" help:"remove a task from the task file"`
	SetLogDir *SetLogDirCmd `arg:"subcommand:set-log-dir" help:"change the directory run logs are written to"`
	Serve     *ServeCmd     `arg:"subcommand:serve" help:"run scheduled tasks until interrupted"`
}

// RunCmd selects the tasks to run.
type RunCmd struct {
	Names []string `arg:"positional" help:"names of the tasks to run"`
	All   bool     `arg:"--all" help:"run every task in order"`
}

// ListCmd has no options.
type ListCmd struct{}

// AddCmd describes a new task.
type AddCmd struct {
	Name              string   `arg:"positional,required" help:"task name"`
	Source            string   `arg:"positional,required" help:"absolute source directory"`
	Destination       string   `arg:"positional,required" help:"absolute destination directory"`
	Exclude           []string `arg:"-x,--exclude,separate" help:"exclusion pattern (repeatable)"`
	NoDefaultExcludes bool     `arg:"--no-default-excludes" help:"do not add the built-in exclusion patterns"`
	KeepExtra         bool     `arg:"--keep-extra" help:"keep destination entries missing from the source"`
	DeleteExcluded    bool     `arg:"--delete-excluded" help:"also delete destination entries matching an exclusion"`
	Schedule          string   `arg:"--schedule" help:"cron expression for serve, e.g. \"0 2 * * *\""`
}

// EditCmd takes the same arguments as AddCmd. Name selects the task; the
// other fields replace its definition.
type EditCmd struct {
	AddCmd

	Rename string `arg:"--rename" help:"new name for the task"`
}

// SetLogDirCmd names the new log directory.
type SetLogDirCmd struct {
	Dir string `arg:"positional,required" help:"absolute directory for run logs"`
}

// RemoveCmd names the task to remove.
type RemoveCmd struct {
	Name string `arg:"positional,required" help:"task name"`
}

// ServeCmd has no options.
type ServeCmd struct{}

// Description returns the program description for go-arg.
func (Args) Description() string {
	return "Mirror backup of directories to local or removable drives"
}

// Version returns the version string for go-arg.
func (Args) Version() string {
	return "servatio 1.0.0"
}

// NewParser builds the go-arg parser for args. Defaults are filled in first,
// so flags and the environment override them.
func NewParser(args *Args) (*arg.Parser, error) {
	if args.Config == "" {
		args.Config = DefaultConfigPath()
	}

	parser, err := arg.NewParser(arg.Config{Program: "servatio"}, args)
	if err != nil {
		return nil, fmt.Errorf("failed to build argument parser: %w", err)
	}

	return parser, nil
}

// Parse parses argv (without the program name) into args.
// go-arg's ErrHelp and ErrVersion are passed through for the caller to handle.
func Parse(parser *arg.Parser, args *Args, argv []string) error {
	err := parser.Parse(argv)
	if err != nil {
		return err //nolint:wrapcheck // Callers compare against arg.ErrHelp
	}

	return PostProcess(args)
}

// PostProcess checks cross-field rules go-arg cannot express.
func PostProcess(args *Args) error {
	expanded, err := homedir.Expand(args.Config)
	if err != nil {
		return fmt.Errorf("invalid config path %q: %w", args.Config, err)
	}

	args.Config = expanded

	if args.MetricsDir != "" {
		expanded, err = homedir.Expand(args.MetricsDir)
		if err != nil {
			return fmt.Errorf("invalid metrics directory %q: %w", args.MetricsDir, err)
		}

		args.MetricsDir = expanded
	}

	switch {
	case args.Run != nil:
		if args.Run.All == (len(args.Run.Names) > 0) {
			return ErrRunSelection
		}
	case args.SetLogDir != nil:
		expanded, err = homedir.Expand(args.SetLogDir.Dir)
		if err != nil || !filepath.IsAbs(expanded) {
			return fmt.Errorf("%w: %q", ErrLogDir, args.SetLogDir.Dir)
		}

		args.SetLogDir.Dir = filepath.Clean(expanded)
	case args.List != nil, args.Add != nil, args.Edit != nil, args.Remove != nil, args.Serve != nil:
	default:
		return ErrNoCommand
	}

	return nil
}
