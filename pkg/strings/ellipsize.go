// Package strings holds small text helpers shared by the CLI tables.
package strings

import (
	"strings"
)

// DefaultCellWidth is the width the CLI tables use for free-form text
// columns such as demo descriptions and failure messages.
const DefaultCellWidth = 60

// minCellWidth leaves room for at least one rune plus the ellipsis.
const minCellWidth = 4

// Ellipsize collapses s onto a single line and shortens it to at most
// width runes, appending "..." when content was dropped. Runs of
// whitespace, newlines included, become single spaces. Widths below 4
// are clamped so the ellipsis always fits.
func Ellipsize(s string, width int) string {
	if width < minCellWidth {
		width = minCellWidth
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
