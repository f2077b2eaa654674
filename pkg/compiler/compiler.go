package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/cespare/xxhash/v2"
	"github.com/xplshn/brc/pkg/config"
	"github.com/xplshn/brc/pkg/emitter"
	"github.com/xplshn/brc/pkg/lexer"
	"github.com/xplshn/brc/pkg/parser"
	"github.com/xplshn/brc/pkg/symtab"
	"github.com/xplshn/brc/pkg/util"
)

// Result is the output of one successful compilation.
type Result struct {
	C       string
	Symbols []symtab.Symbol
	// Sum is the xxhash of C, used to name build artifacts.
	Sum uint64
}

// Options tune a single Compile call.
type Options struct {
	Name     string    // file name used in diagnostics
	Warnings io.Writer // nil silences warnings
}

// Compile translates source into C. Every call owns a fresh lexer, symbol
// table and emitter, so concurrent calls do not interfere as long as cfg is
// not mutated meanwhile.
func Compile(source string, cfg *config.Config, opts Options) (*Result, error) {
	runes := []rune(source)
	diag := util.NewDiagnostics(opts.Warnings, util.SourceFileRecord{Name: opts.Name, Content: runes}, cfg)

	symbols := symtab.NewSymbolTable()
	out := emitter.New()
	p := parser.NewParser(lexer.NewLexer(runes, 0, cfg), symbols, out, cfg, diag)
	if err := p.Program(); err != nil {
		var ce *util.CompileError
		if errors.As(err, &ce) {
			ce.File = opts.Name
		}
		return nil, err
	}

	c := out.Finalize()
	return &Result{C: c, Symbols: symbols.Symbols(), Sum: xxhash.Sum64String(c)}, nil
}

// CompileFile reads path and compiles it, naming diagnostics after the file.
func CompileFile(path string, cfg *config.Config, warnings io.Writer) (*Result, []rune, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read file '%s': %w", path, err)
	}
	res, err := Compile(string(content), cfg, Options{Name: path, Warnings: warnings})
	return res, []rune(string(content)), err
}

// Build hands generated C to the native toolchain.
func Build(ctx context.Context, cc, cSource, outFile string, ccArgs []string) error {
	if cc == "" {
		cc = "cc"
	}
	srcFile, err := os.CreateTemp("", "brc-main-*.c")
	if err != nil {
		return fmt.Errorf("failed to create temp file for C source: %w", err)
	}
	defer os.Remove(srcFile.Name())
	if _, err := srcFile.WriteString(cSource); err != nil {
		srcFile.Close()
		return fmt.Errorf("failed to write to temp file for C source: %w", err)
	}
	srcFile.Close()

	args := []string{"-o", outFile, srcFile.Name()}
	args = append(args, ccArgs...)

	cmd := exec.CommandContext(ctx, cc, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s command failed: %w\nOutput:\n%s", cc, err, string(output))
	}
	return nil
}
