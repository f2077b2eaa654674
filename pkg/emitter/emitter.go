package emitter

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Emitter accumulates generated C in three regions. Whatever order lines
// are appended in, Finalize always yields header, then code, then ender.
type Emitter struct {
	header strings.Builder
	code   strings.Builder
	ender  strings.Builder
	levels []int
	unit   int
	bol    bool // code region is at the beginning of a line
}

func New() *Emitter {
	return &Emitter{levels: []int{1}, unit: 4, bol: true}
}

func (e *Emitter) indent() string {
	return strings.Repeat(" ", e.unit*e.levels[len(e.levels)-1])
}

// Indent nests subsequent body lines one level deeper.
func (e *Emitter) Indent() {
	e.levels = append(e.levels, e.levels[len(e.levels)-1]+1)
}

func (e *Emitter) Dedent() {
	if len(e.levels) > 1 {
		e.levels = e.levels[:len(e.levels)-1]
	}
}

// Emit appends a fragment to the body without a newline.
func (e *Emitter) Emit(code string) {
	if e.bol && code != "" {
		e.code.WriteString(e.indent())
	}
	e.code.WriteString(code)
	e.bol = strings.HasSuffix(code, "\n")
}

func (e *Emitter) EmitLine(code string) {
	e.Emit(code)
	e.code.WriteByte('\n')
	e.bol = true
}

func (e *Emitter) HeaderLine(code string) {
	e.header.WriteString(code)
	e.header.WriteByte('\n')
}

// DeclLine appends an indented declaration inside the entry function.
func (e *Emitter) DeclLine(code string) {
	e.header.WriteString(strings.Repeat(" ", int(e.unit)))
	e.HeaderLine(code)
}

func (e *Emitter) EnderLine(code string) {
	e.ender.WriteString(code)
	e.ender.WriteByte('\n')
}

// CleanupLine appends an indented statement to the cleanup region.
func (e *Emitter) CleanupLine(code string) {
	e.ender.WriteString(strings.Repeat(" ", int(e.unit)))
	e.EnderLine(code)
}

func (e *Emitter) Header() string { return e.header.String() }
func (e *Emitter) Code() string   { return e.code.String() }
func (e *Emitter) Ender() string  { return e.ender.String() }

// Finalize concatenates the three regions.
func (e *Emitter) Finalize() string {
	var sb strings.Builder
	sb.Grow(e.header.Len() + e.code.Len() + e.ender.Len())
	sb.WriteString(e.header.String())
	sb.WriteString(e.code.String())
	sb.WriteString(e.ender.String())
	return sb.String()
}

func (e *Emitter) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, e.Finalize())
	return int64(n), err
}

func (e *Emitter) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(e.Finalize()), 0644); err != nil {
		return fmt.Errorf("failed to write output file '%s': %w", path, err)
	}
	return nil
}
