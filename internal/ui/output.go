package ui

import "fmt"

// Unicode symbols for status indicators
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
)

// Success returns a message with the checkmark symbol.
func Success(msg string) string {
	return fmt.Sprintf("%s %s", SymbolSuccess, msg)
}

// Successf returns a formatted message with the checkmark symbol.
func Successf(format string, args ...interface{}) string {
	return Success(fmt.Sprintf(format, args...))
}

// Error returns a message with the X symbol.
func Error(msg string) string {
	return fmt.Sprintf("%s %s", SymbolError, msg)
}

// Errorf returns a formatted message with the X symbol.
func Errorf(format string, args ...interface{}) string {
	return Error(fmt.Sprintf(format, args...))
}

// Warning returns a message with the warning symbol.
func Warning(msg string) string {
	return fmt.Sprintf("%s %s", SymbolWarning, msg)
}

// Warningf returns a formatted message with the warning symbol.
func Warningf(format string, args ...interface{}) string {
	return Warning(fmt.Sprintf(format, args...))
}

// Header returns a styled section header.
func Header(msg string) string {
	return Bold.Render(msg)
}

// ID returns an accent-styled record or note id.
func ID(id string) string {
	return Accent.Render(id)
}

// FilePath returns an accent-styled file path.
func FilePath(path string) string {
	return Accent.Render(path)
}

// Hint returns muted hint text.
func Hint(msg string) string {
	return Muted.Render(msg)
}

// Count returns a count badge like "(3 errors)".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("(%d %s)", n, singular)
	}
	return fmt.Sprintf("(%d %s)", n, plural)
}

// Pluralize returns the singular or plural form for a count.
func Pluralize(singular string, count int) string {
	if count == 1 {
		return singular
	}
	return singular + "s"
}
