package monitor

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// cleanLine removes terminal escape sequences and stray control characters
// from a line, leaving tabs in place.
func cleanLine(line string) string {
	if !strings.ContainsFunc(line, isControl) {
		return line
	}
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, ansi.Strip(line))
}

func isControl(r rune) bool {
	return (r < 0x20 && r != '\t') || r == 0x7f || (r >= 0x80 && r < 0xa0)
}
