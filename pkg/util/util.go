// Package util holds the diagnostic machinery shared by every compiler stage.
package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
	"golang.org/x/term"
)

type Severity int

const (
	SevError Severity = iota
	SevWarning
)

func (s Severity) String() string {
	if s == SevWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one reported problem. Line and Column are 1-based; a zero
// Line means the problem has no source position (e.g. an I/O failure).
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int
	Column   int
	Len      int
}

// Error lets a Diagnostic travel as an ordinary Go error, which is how the
// parser surfaces its single fatal syntax diagnostic.
func (d *Diagnostic) Error() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s at line %d", d.Severity, d.Message, d.Line)
}

// Diagnostics accumulates problems found while compiling one source text.
// Each compilation owns its own bag; nothing here is package-level state.
type Diagnostics struct {
	FileName string
	source   []rune
	list     []Diagnostic
}

func NewDiagnostics(fileName string, source []rune) *Diagnostics {
	return &Diagnostics{FileName: fileName, source: source}
}

func (ds *Diagnostics) Errorf(tok token.Token, format string, args ...interface{}) *Diagnostic {
	return ds.add(SevError, tok, format, args...)
}

func (ds *Diagnostics) Warnf(tok token.Token, format string, args ...interface{}) *Diagnostic {
	return ds.add(SevWarning, tok, format, args...)
}

func (ds *Diagnostics) add(sev Severity, tok token.Token, format string, args ...interface{}) *Diagnostic {
	ds.list = append(ds.list, Diagnostic{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Line:     tok.Line,
		Column:   tok.Column,
		Len:      tok.Len,
	})
	return &ds.list[len(ds.list)-1]
}

func (ds *Diagnostics) All() []Diagnostic { return ds.list }

func (ds *Diagnostics) Errors() []Diagnostic   { return ds.filter(SevError) }
func (ds *Diagnostics) Warnings() []Diagnostic { return ds.filter(SevWarning) }

func (ds *Diagnostics) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range ds.list {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

func (ds *Diagnostics) HasErrors() bool {
	for _, d := range ds.list {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// Render writes every accumulated diagnostic to w, with the offending source
// line and a caret when a position is available.
func (ds *Diagnostics) Render(w io.Writer) {
	for i := range ds.list {
		ds.RenderOne(w, &ds.list[i])
	}
}

func (ds *Diagnostics) RenderOne(w io.Writer, d *Diagnostic) {
	color := useColor(w)
	tag := d.Severity.String() + ":"
	if color {
		if d.Severity == SevError {
			tag = "\033[31m" + tag + "\033[0m"
		} else {
			tag = "\033[33m" + tag + "\033[0m"
		}
	}
	if d.Line == 0 {
		fmt.Fprintf(w, "%s: %s %s\n", ds.FileName, tag, d.Message)
		return
	}
	fmt.Fprintf(w, "%s:%d:%d: %s %s\n", ds.FileName, d.Line, d.Column, tag, d.Message)
	ds.printSourceLine(w, d, color)
}

// printSourceLine prints the source line and a caret under the offending span.
func (ds *Diagnostics) printSourceLine(w io.Writer, d *Diagnostic, color bool) {
	if len(ds.source) == 0 || d.Line <= 0 || d.Column <= 0 {
		return
	}
	lineStart := 0
	lineNum := d.Line
	for i, r := range ds.source {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}
	if lineNum > 1 {
		return
	}
	lineEnd := len(ds.source)
	for i := lineStart; i < len(ds.source); i++ {
		if ds.source[i] == '\n' {
			lineEnd = i
			break
		}
	}
	line := string(ds.source[lineStart:lineEnd])
	if d.Column-1 > len([]rune(line)) {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)
	caret := "^"
	if d.Len > 1 {
		caret += strings.Repeat("~", d.Len-1)
	}
	if color {
		caret = "\033[32m" + caret + "\033[0m"
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", d.Column-1), caret)
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
