package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/aidanlsb/munin/internal/ui"
)

// promptForConfirm asks a yes/no question before a destructive action.
// Without a real terminal on both ends, or in JSON mode, the answer is
// always no and the caller is expected to require --force instead.
func promptForConfirm(message string) bool {
	if isJSONOutput() {
		return false
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return false
	}
	return readConfirm(os.Stdin, os.Stdout, message)
}

func readConfirm(in io.Reader, out io.Writer, message string) bool {
	if message == "" {
		message = "Proceed?"
	}
	fmt.Fprintf(out, "%s %s ", message, ui.Hint("[y/N]"))

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
