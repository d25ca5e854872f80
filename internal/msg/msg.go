package msg

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	// Output receives every message
	Output io.Writer = os.Stdout
	// Verbose enables Debug messages
	Verbose bool
)

var mu sync.Mutex

func printMsg(prefix, format string, a ...any) {
	line := prefix + ": " + fmt.Sprintf(format, a...) + "\n"

	mu.Lock()
	defer mu.Unlock()
	io.WriteString(Output, line)
}

func Error(format string, a ...any) {
	printMsg(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	printMsg(color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	printMsg(color.RedString("fatal"), format, a...)
	os.Exit(1)
}

func Info(format string, a ...any) {
	printMsg(color.HiGreenString("info"), format, a...)
}

func Debug(format string, a ...any) {
	if !Verbose {
		return
	}
	printMsg(color.HiBlackString("debug"), format, a...)
}

type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	for _, c := range p {
		if !w.didIndent {
			if _, err := w.W.Write([]byte(w.Indent)); err != nil {
				return n, err
			}
			w.didIndent = true
		}
		if _, err := w.W.Write([]byte{c}); err != nil { // FIXME-perf: buffer this
			return n, err
		}
		n++
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	return n, nil
}
