package review

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal checks if stdout is a TTY. Log output defaults to
// the human format on a terminal and JSON when piped or running in CI.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
