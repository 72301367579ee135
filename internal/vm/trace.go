package vm

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// traceColor gates ANSI highlighting on whether stdout is an actual
// terminal, decided once per process the way CLI tools in this stack
// decide whether to colorize (never colorize a redirected/piped log).
var traceColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

const (
	ansiDim    = "\x1b[2m"
	ansiCyan   = "\x1b[36m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

func colorize(code, s string) string {
	if !traceColor {
		return s
	}
	return code + s + ansiReset
}

// traceLine renders one scope-stack push/pop as a trace line: a
// monotonic instruction pointer, the verb (enter/leave), the frame's
// opcode-category mnemonic (FrameKind.String(), which frame.go already
// keeps aligned with the opcode that pushed it), and a humanized
// summary of the machine's active state — scope depth and live slot
// count — standing in for a per-value trace, since this evaluator's
// Frame.Active is never populated with a single "the" active value
// (spec.md §4.F describes one, but the direct-recursive eval in this
// port returns results through the call stack instead, see eval.go).
func (m *Machine) traceLine(verb string, kind FrameKind) string {
	m.traceSeq++
	step := colorize(ansiDim, fmt.Sprintf("#%s", humanize.Comma(int64(m.traceSeq))))
	action := colorize(ansiCyan, verb)
	op := colorize(ansiYellow, kind.String())
	return fmt.Sprintf("%s %-5s %-20s depth=%d slots=%s", step, action, op,
		len(m.Scopes), humanize.Comma(int64(len(m.Slots))))
}
