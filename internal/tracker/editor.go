package tracker

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/aidanlsb/munin/internal/shellquote"
)

// ResolveEditor picks the editor command to use: the configured one if set,
// otherwise $VISUAL, otherwise $EDITOR. Empty means no editor is available.
func ResolveEditor(configured string) string {
	if configured != "" {
		return configured
	}
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	return os.Getenv("EDITOR")
}

// OpenInEditor opens a file with the given editor command and waits for it
// to exit. The command may contain arguments ("code --wait", "open -a Zed");
// anything with spaces runs through the shell with the path quoted.
func OpenInEditor(editor, filePath string) error {
	if editor == "" {
		return fmt.Errorf("no editor configured (set editor in config or $EDITOR)")
	}

	var cmd *exec.Cmd
	if strings.Contains(editor, " ") {
		cmd = exec.Command("sh", "-c", editor+" "+shellquote.Quote(filePath))
	} else {
		cmd = exec.Command(editor, filePath)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor %q: %w", editor, err)
	}
	return nil
}
