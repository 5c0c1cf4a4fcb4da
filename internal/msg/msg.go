package msg

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Out is where all messages go. Tests swap it for a buffer.
var Out io.Writer = color.Output

func emit(label string, format string, a ...any) {
	fmt.Fprintf(Out, "%s: %s\n", label, fmt.Sprintf(format, a...))
}

func Error(format string, a ...any) { emit(color.HiRedString("error"), format, a...) }

func Warn(format string, a ...any) { emit(color.YellowString("warn"), format, a...) }

func Info(format string, a ...any) { emit(color.HiGreenString("info"), format, a...) }

func Fatal(format string, a ...any) {
	emit(color.RedString("fatal"), format, a...)
	os.Exit(1)
}

// Step prints a build step line such as "MC src/messages.mc"
func Step(tag, format string, a ...any) {
	fmt.Fprintf(Out, "%s %s\n", color.HiCyanString(tag), fmt.Sprintf(format, a...))
}

// IndentWriter prefixes every line written through it with Indent.
// Used to nest compiler output under the step that produced it.
type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	var buf bytes.Buffer
	buf.Grow(len(p) + len(w.Indent))
	for _, c := range p {
		if !w.didIndent {
			buf.WriteString(w.Indent)
			w.didIndent = true
		}
		buf.WriteByte(c)
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	if _, err := w.W.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
