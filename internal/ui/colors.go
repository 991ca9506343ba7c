package ui

import "fmt"

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
)

func Bold(s string) string {
	return ColorBold + s + ColorReset
}

func Success(s string) string {
	return ColorGreen + s + ColorReset
}

func Warn(s string) string {
	return ColorYellow + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}

// Field renders an indented "Label: value" line body
func Field(label string, value any) string {
	return fmt.Sprintf("  %s %v", Bold(label+":"), value)
}

// Similarity colors a match score: likely renumbering in green, weak hints dimmed
func Similarity(score float64) string {
	s := fmt.Sprintf("%.2f", score)
	switch {
	case score >= 0.9:
		return Success(s)
	case score >= 0.75:
		return Warn(s)
	default:
		return ColorDim + s + ColorReset
	}
}
