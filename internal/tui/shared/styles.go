// Package shared holds styles and rendering helpers for the progress display.
package shared

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Exported constants.
const (
	// DefaultPadding is the default padding for boxes.
	DefaultPadding = 2
	// ProgressBarWidth is the default width of the progress bar.
	ProgressBarWidth = 40
	// MaxProgressBarWidth caps the bar on wide terminals.
	MaxProgressBarWidth = 100
	// TickIntervalMs is the progress polling interval in milliseconds.
	TickIntervalMs = 100
	// ActivityLogLines is how many recent log lines stay on screen.
	ActivityLogLines = 8
	// ProgressEllipsisLength is the length of the ellipsis on truncated paths.
	ProgressEllipsisLength = 3

	// KeyCtrlC cancels the run.
	KeyCtrlC = "ctrl+c"
	// KeyQuit cancels the run, like ctrl+c.
	KeyQuit = "q"
)

// ColorsDisabled reports whether NO_COLOR is set or the terminal is dumb.
func ColorsDisabled() bool {
	_, noColor := os.LookupEnv("NO_COLOR")

	return noColor || os.Getenv("TERM") == "dumb"
}

func AccentColor() lipgloss.Color { return lipgloss.Color(accentColorCode) }

// BoxStyle returns the style of the summary box.
func BoxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AccentColor()).
		Padding(1, DefaultPadding)
}

func DimColor() lipgloss.Color { return lipgloss.Color(dimColorCode) }

// DimStyle returns the style for secondary text.
func DimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(DimColor())
}

func ErrorColor() lipgloss.Color { return lipgloss.Color(errorColorCode) }

// ErrorStyle returns the style for error messages.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ErrorColor()).Bold(true)
}

func HighlightColor() lipgloss.Color { return lipgloss.Color(highlightColorCode) }

// LabelStyle returns the style for labels.
func LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(HighlightColor()).Bold(true)
}

// PrimaryColor returns the title color.
func PrimaryColor() lipgloss.Color { return lipgloss.Color(primaryColorCode) }

func RenderBox(content string) string { return BoxStyle().Render(content) }

func RenderDim(text string) string { return DimStyle().Render(text) }

func RenderError(text string) string { return ErrorStyle().Render(text) }

func RenderLabel(text string) string { return LabelStyle().Render(text) }

func RenderSuccess(text string) string { return SuccessStyle().Render(text) }

func RenderTitle(text string) string { return TitleStyle().Render(text) }

func RenderWarning(text string) string { return WarningStyle().Render(text) }

func SuccessColor() lipgloss.Color { return lipgloss.Color(successColorCode) }

// SuccessStyle returns the style for success messages.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(SuccessColor()).Bold(true)
}

// TitleStyle returns the style for the title line.
func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor()).MarginBottom(1)
}

func WarningColor() lipgloss.Color { return lipgloss.Color(warningColorCode) }

// WarningStyle returns the style for warnings.
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(WarningColor()).Bold(true)
}

// unexported constants.
const (
	accentColorCode    = "62"  // Blue
	dimColorCode       = "240" // Dark gray
	errorColorCode     = "196" // Red
	highlightColorCode = "86"  // Cyan
	primaryColorCode   = "205" // Pink/purple
	successColorCode   = "42"  // Green
	warningColorCode   = "226"
)
