package diag

import (
	"strings"
)

// Report renders the user-visible failure form spec.md §7 describes: a
// one-line header naming the error kind, a file/line/column pointer, a
// source slice with a caret range, and the short message. This is
// presentation only (spec.md §1 lists diagnostic rendering as an
// external concern) — the taxonomy above is what's actually load-bearing.
func Report(e *Error, source string) string {
	var b strings.Builder
	b.WriteString(e.Error())
	b.WriteByte('\n')

	lines := strings.Split(source, "\n")
	if e.Line-1 >= 0 && e.Line-1 < len(lines) {
		lineText := lines[e.Line-1]
		b.WriteString(lineText)
		b.WriteByte('\n')
		col := e.Column
		if col < 1 {
			col = 1
		}
		if col > len(lineText)+1 {
			col = len(lineText) + 1
		}
		b.WriteString(strings.Repeat(" ", col-1))
		b.WriteString("^\n")
	}
	return b.String()
}
