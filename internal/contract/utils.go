package contract

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/huangsam/tranche/schema"
)

// Color variables for console output.
var (
	ThisQuarterColor = color.New(color.FgGreen, color.Bold) // ThisQuarterColor marks work landing this quarter.
	NextQuarterColor = color.New(color.FgYellow)            // NextQuarterColor marks work landing next quarter.
	LaterColor       = color.New(color.FgRed, color.Bold)   // LaterColor marks work slipping past next quarter.
	UnknownColor     = color.New(color.FgHiBlack)           // UnknownColor marks estimates without enough history.
)

// GetColorLabel returns a colored quarter label for console output (table).
func GetColorLabel(label string) string {
	switch label {
	case schema.ThisQuarterLabel:
		return ThisQuarterColor.Sprint(label)
	case schema.NextQuarterLabel:
		return NextQuarterColor.Sprint(label)
	case schema.LaterLabel:
		return LaterColor.Sprint(label)
	default:
		return UnknownColor.Sprint(label)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. Empty means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// SplitList splits a comma-separated flag value, dropping blanks and duplicates.
func SplitList(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

// LogFatal logs an error and exits the program. Deferred calls do not run,
// so it is only meant for setup that happens before any resource is opened.
func LogFatal(msg string, err error) {
	LogError(msg, err)
	os.Exit(1)
}

// LogError logs an error message to stderr.
func LogError(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// NewLogger returns the structured logger used by the pipeline. Verbose enables debug records.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// GetDBFilePath returns the path to the SQLite DB file used by default.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tranche.db"
	}
	return filepath.Join(homeDir, ".tranche.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
