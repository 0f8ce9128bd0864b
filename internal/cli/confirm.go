package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal on stdin.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// confirm asks a yes/no question on an interactive terminal. Without a
// terminal the caller must pass --yes.
func confirm(in io.Reader, out io.Writer, question string, yes bool) error {
	if yes {
		return nil
	}
	if !isTerminal() {
		return NewExitError(ExitCommandError, "refusing to run without --yes when stdin is not a terminal")
	}

	if _, err := fmt.Fprintf(out, "%s [y/N]\n> ", question); err != nil {
		return err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return NewExitError(ExitCommandError, "aborted")
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return NewExitError(ExitCommandError, "aborted")
	}
}
