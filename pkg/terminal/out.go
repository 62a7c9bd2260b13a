package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	terminalHighlightEscapeCode string = "\033[%2dm"
	terminalResetEscapeCode     string = "\033[0m"
)

const (
	ansiRed    = 31
	ansiGreen  = 32
	ansiYellow = 33
	ansiBlue   = 34
	ansiCyan   = 36
)

// getColorableWriter returns a writer that is capable of interpreting ANSI
// escape codes for terminal colors, on Windows consoles too.
func getColorableWriter() io.Writer {
	return colorable.NewColorableStdout()
}

// isDumb returns true if escape codes must not be written to stdout.
func isDumb() bool {
	if strings.ToLower(os.Getenv("TERM")) == "dumb" {
		return true
	}
	return !isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps s in the escape codes for color, unless the terminal is
// dumb.
func (t *Term) colorize(color int, s string) string {
	if t.dumb {
		return s
	}
	return fmt.Sprintf(terminalHighlightEscapeCode, color) + s + terminalResetEscapeCode
}

// Println prints a line to the terminal, with prefix highlighted.
func (t *Term) Println(prefix, str string) {
	fmt.Fprintf(t.stdout, "%s%s\n", t.colorize(ansiBlue, prefix), str)
}

func (t *Term) printf(format string, args ...interface{}) {
	fmt.Fprintf(t.stdout, format, args...)
}
