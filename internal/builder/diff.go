package builder

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/meson2hermetic/internal/msg"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// unchanged runs longer than this are collapsed
const diffContext = 3

// writeDiff writes a line diff from old to cur to w and reports whether they differ
func writeDiff(w io.Writer, path, old, cur string) bool {
	if old == cur {
		return false
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(old, cur)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	fmt.Fprintf(w, "%s %s\n", color.HiYellowString("changed"), path)
	iw := &msg.IndentWriter{Indent: "  ", W: w}

	for i, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			for _, line := range text {
				fmt.Fprintln(iw, color.GreenString("+"+line))
			}
		case diffmatchpatch.DiffDelete:
			for _, line := range text {
				fmt.Fprintln(iw, color.RedString("-"+line))
			}
		case diffmatchpatch.DiffEqual:
			writeContext(iw, text, i > 0, i < len(diffs)-1)
		}
	}

	return true
}

// writeContext prints the unchanged lines next to a change and collapses the rest
func writeContext(w io.Writer, text []string, afterChange, beforeChange bool) {
	var head, tail []string
	if afterChange {
		head = text[:min(diffContext, len(text))]
		text = text[len(head):]
	}
	if beforeChange {
		tail = text[max(0, len(text)-diffContext):]
		text = text[:len(text)-len(tail)]
	}

	for _, line := range head {
		fmt.Fprintln(w, " "+line)
	}
	if len(text) > 0 {
		fmt.Fprintln(w, color.HiBlackString("@@ %d unchanged lines @@", len(text)))
	}
	for _, line := range tail {
		fmt.Fprintln(w, " "+line)
	}
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
