package ui

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ColorEnabled reports whether colored output suits w. NO_COLOR wins over
// CLICOLOR_FORCE=1, which wins over CLICOLOR=0. Otherwise w must be a terminal.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
