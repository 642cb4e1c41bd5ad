package cure

import (
	"fmt"
	"os"
	"strings"

	"github.com/lemurgaminglabs/curelang/ascii"
)

// CompileError is the single error type every stage of the pipeline
// (lexer, parser, IR builder, analyser) raises. Every category (syntax,
// unknown identifier/callable/attribute/type/library, type mismatch,
// mutability violation, range) is represented the same way: a message
// anchored at a Position.
type CompileError struct {
	Pos     Position
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s @ %s", e.Message, e.Pos)
}

// comptimeError constructs a CompileError; it mirrors the reference
// compiler's comptime_error helper, which every analyser rule funnels
// through.
func comptimeError(pos Position, format string, args ...any) *CompileError {
	return &CompileError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// ReportAndExit prints a source line, a caret under the offending
// column, and a colored error banner to stderr, then terminates the
// process with exit code 1. This is the sole way a compile error is
// surfaced.
func ReportAndExit(src []byte, err *CompileError) {
	fmt.Fprintln(os.Stderr, formatCompileError(src, err))
	os.Exit(1)
}

func formatCompileError(src []byte, err *CompileError) string {
	var b strings.Builder

	if src != nil && err.Pos.Line > 0 {
		li := NewLineIndex(src)
		line := li.Line(err.Pos.Line)
		fmt.Fprintf(&b, "%s\n", line)
		col := err.Pos.Column
		if col < 1 {
			col = 1
		}
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat(" ", col-1), ascii.Color(ascii.Yellow, "^"))
	}
	fmt.Fprint(&b, ascii.Color(ascii.Red, "error: %s", err.Message))
	return b.String()
}
