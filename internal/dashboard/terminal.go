package dashboard

import (
	"os"

	"github.com/mattn/go-isatty"
)

// PlainOutput reports whether the board written to f should skip colors and
// screen clearing. Anything that is not a terminal (a pipe, a file, a log
// collector) gets plain text.
func PlainOutput(f *os.File) bool {
	fd := f.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}
