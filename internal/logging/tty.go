package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

// noColorEnv lists variables that disable color when set to any value.
var noColorEnv = []string{"NO_COLOR", "APM_NO_COLOR"}

// IsTerminal reports whether w is backed by a terminal. Writers without an
// Fd method never are.
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// ColorEnabled reports whether ANSI colors may be written to w. Colors are
// off when w is not a terminal, when TERM is "dumb", or when NO_COLOR or
// APM_NO_COLOR is set (https://no-color.org).
func ColorEnabled(w io.Writer) bool {
	return colorEnabled(IsTerminal(w))
}

func colorEnabled(tty bool) bool {
	for _, name := range noColorEnv {
		if _, ok := os.LookupEnv(name); ok {
			return false
		}
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return tty
}
