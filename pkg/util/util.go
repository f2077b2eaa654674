package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/brc/pkg/config"
	"github.com/xplshn/brc/pkg/token"
	"golang.org/x/term"
)

// Kind classifies a fatal compilation error.
type Kind int

const (
	Lexical Kind = iota
	Syntax
	Semantic
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	case Semantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// CompileError is the single diagnostic that halts a compilation.
type CompileError struct {
	Kind Kind
	Tok  token.Token
	Msg  string
	File string
}

func (e *CompileError) Error() string {
	file := e.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s error: %s", file, e.Tok.Line, e.Tok.Column, e.Kind, e.Msg)
}

// Errorf builds a CompileError positioned at tok.
func Errorf(kind Kind, tok token.Token, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Tok: tok, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a CompileError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Kind == kind
}

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

// Diagnostics renders errors and warnings for one source file. A nil Out
// silences warnings.
type Diagnostics struct {
	Out    io.Writer
	Source SourceFileRecord
	cfg    *config.Config
}

func NewDiagnostics(out io.Writer, src SourceFileRecord, cfg *config.Config) *Diagnostics {
	return &Diagnostics{Out: out, Source: src, cfg: cfg}
}

type palette struct{ red, yellow, green, none string }

func colorsFor(w io.Writer) palette {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return palette{"\033[31m", "\033[33m", "\033[32m", "\033[0m"}
	}
	return palette{}
}

func (d *Diagnostics) fileName() string {
	if d.Source.Name == "" {
		return "<input>"
	}
	return d.Source.Name
}

// printErrorLine prints the source line and a caret indicating the error position
func (d *Diagnostics) printErrorLine(w io.Writer, tok token.Token, c palette) {
	if tok.Line == 0 || len(d.Source.Content) == 0 {
		return
	}

	lines := strings.Split(string(d.Source.Content), "\n")
	if tok.Line > len(lines) {
		return
	}
	fmt.Fprintf(w, "  %s\n", lines[tok.Line-1])

	col := max(tok.Column, 1)
	fmt.Fprintf(w, "  %s%s^", strings.Repeat(" ", col-1), c.green)
	if tok.Len > 1 {
		fmt.Fprint(w, strings.Repeat("~", tok.Len-1))
	}
	fmt.Fprintln(w, c.none)
}

// Report writes err to w. Compile errors get the offending line and a caret;
// anything else is printed as a plain error.
func (d *Diagnostics) Report(w io.Writer, err error) {
	c := colorsFor(w)
	var ce *CompileError
	if !errors.As(err, &ce) {
		fmt.Fprintf(w, "brc: %serror:%s %v\n", c.red, c.none, err)
		return
	}
	fmt.Fprintf(w, "%s:%d:%d: %s%s error:%s %s\n", d.fileName(), ce.Tok.Line, ce.Tok.Column, c.red, ce.Kind, c.none, ce.Msg)
	d.printErrorLine(w, ce.Tok, c)
}

// Warn prints a formatted warning if the corresponding warning is enabled
func (d *Diagnostics) Warn(wt config.Warning, tok token.Token, format string, args ...any) {
	if d == nil || d.Out == nil || !d.cfg.IsWarningEnabled(wt) {
		return
	}
	c := colorsFor(d.Out)
	fmt.Fprintf(d.Out, "%s:%d:%d: %swarning:%s ", d.fileName(), tok.Line, tok.Column, c.yellow, c.none)
	fmt.Fprintf(d.Out, format, args...)
	fmt.Fprintf(d.Out, " [-W%s]\n", d.cfg.Warnings[wt].Name)
	d.printErrorLine(d.Out, tok, c)
}
