// Package shellquote quotes strings for safe interpolation into sh -c
// command lines, used when launching the configured editor.
package shellquote

import "strings"

// Quote wraps s in single quotes, escaping any internal single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteIfNeeded quotes s only when a shell would otherwise mangle it.
// Used when echoing runnable commands back to the user.
func QuoteIfNeeded(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t#[]()|&;<>*?!\"'$`\\") {
		return Quote(s)
	}
	return s
}

// Join quotes each argument as needed and joins them with spaces.
func Join(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteIfNeeded(a)
	}
	return strings.Join(quoted, " ")
}
