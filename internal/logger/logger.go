// Package logger provides the process-wide structured logger for the changelog and release tools.
// Log lines go to stderr (or a log file) so that rendered changelogs on stdout stay clean.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// EnvLogLevel names the environment variable consulted when no --log-level flag is given.
const EnvLogLevel = "CHANGELOG_LOG_LEVEL"

// Logger is the global logger instance.
var Logger *log.Logger

var output io.Writer = os.Stderr

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.InfoLevel)
}

// Configure sets up the logger from CLI flags and the environment.
// CLI flags take precedence over environment variables.
func Configure(logLevel string, logFile string, testMode bool) error {
	level := logLevel
	if level == "" {
		level = strings.ToLower(os.Getenv(EnvLogLevel))
	}

	output = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		output = file
	}

	Logger = log.New(output)
	Logger.SetTimeFormat("")
	Logger.SetLevel(parseLogLevel(level))

	if testMode {
		Logger.SetLevel(log.InfoLevel)
	}

	return nil
}

// SetOutput redirects the global logger, keeping its level. Tests use it to capture log lines.
func SetOutput(w io.Writer) {
	level := Logger.GetLevel()
	output = w
	Logger = log.New(w)
	Logger.SetTimeFormat("")
	Logger.SetLevel(level)
}

func parseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// GitCommand logs an outgoing git invocation.
func GitCommand(dir string, args []string) {
	Debug("git", "dir", dir, "args", args)
}

// Step logs a release sequencer transition.
func Step(name string, dryRun bool) {
	Debug("release step", "step", name, "dry_run", dryRun)
}

// NewStyledLogger creates a component logger with a prefix and colored level badges.
// The prefix identifies the component ("release", "gitlog", ...).
func NewStyledLogger(prefix string) *log.Logger {
	styles := log.DefaultStyles()

	styles.Levels[log.InfoLevel] = badge("INFO", "33")
	styles.Levels[log.ErrorLevel] = badge("ERROR", "196")
	styles.Levels[log.DebugLevel] = badge("DEBUG", "240")
	styles.Levels[log.WarnLevel] = badge("WARN", "214")
	styles.Levels[log.FatalLevel] = badge("FATAL", "88")

	styles.Keys["step"] = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	styles.Keys["tag"] = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	styles.Keys["version"] = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	styles.Keys["file"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	styles.Values["step"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	componentLogger := log.NewWithOptions(output, log.Options{
		Prefix: prefix + " ",
	})
	componentLogger.SetStyles(styles)
	componentLogger.SetLevel(Logger.GetLevel())

	return componentLogger
}

func badge(label, background string) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(label).
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color(background)).
		Foreground(lipgloss.Color("15"))
}
