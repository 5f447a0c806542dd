package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/foothold/schema"
)

// Color variables for console output.
var (
	FirstOrderColor  = color.New(color.FgGreen, color.Bold) // FirstOrderColor marks the reference leader.
	SecondOrderColor = color.New(color.FgCyan, color.Bold)  // SecondOrderColor marks strong followers.
	ThirdOrderColor  = color.New(color.FgYellow)            // ThirdOrderColor marks the bulk of the selection.
	FourthOrderColor = color.New(color.FgRed)               // FourthOrderColor marks the boundary entity.
)

// GetPlainLabel returns the tier label used for CSV, JSON and uncolored tables.
func GetPlainLabel(tier schema.Tier) string {
	return tier.Label()
}

// GetColorLabel returns a colored tier label for console output (table).
func GetColorLabel(tier schema.Tier) string {
	text := GetPlainLabel(tier)

	switch tier {
	case schema.FirstOrder:
		return FirstOrderColor.Sprint(text)
	case schema.SecondOrder:
		return SecondOrderColor.Sprint(text)
	case schema.ThirdOrder:
		return ThirdOrderColor.Sprint(text)
	default:
		return FourthOrderColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for matrix cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".foothold_cache.db"
	}
	return filepath.Join(homeDir, ".foothold_cache.db")
}

// GetRunDBFilePath returns the path to the SQLite DB file for run history storage.
func GetRunDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".foothold_runs.db"
	}
	return filepath.Join(homeDir, ".foothold_runs.db")
}

// TruncateName shortens a name to maxWidth runes with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for at least one character besides "...".
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
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
