package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/xplshn/brc/pkg/cli"
	"github.com/xplshn/brc/pkg/compiler"
	"github.com/xplshn/brc/pkg/config"
	"github.com/xplshn/brc/pkg/symtab"
	"github.com/xplshn/brc/pkg/util"
)

func main() {
	app := cli.NewApp("brc")
	app.Synopsis = "[options] <input.rot>"
	app.Description = "A single-pass compiler from Brainrot to C. No cap."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/brc>"

	var (
		outFile   string
		binFile   string
		ccArgs    []string
		std       string
		stringCap int
		dumpSyms  bool
		quiet     bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "out.c", "Write the generated C to <file>.", "file")
	fs.String(&binFile, "binary", "b", "", "Also build a native executable at <file> using $CC.", "file")
	fs.List(&ccArgs, "cc-arg", "C", []string{}, "Pass an argument to the C compiler when building.", "arg")
	fs.String(&std, "std", "", "strict", "Specify language standard (classic, strict)", "std")
	fs.Int(&stringCap, "string-cap", "", config.DefaultStringCap, "Bytes allocated for every string variable.", "n")
	fs.Bool(&dumpSyms, "dump-symbols", "d", false, "Print the symbol table after compiling.")
	fs.Bool(&quiet, "quiet", "q", false, "Only print diagnostics.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		// Standard first, explicit -W/-F flags override it
		if err := cfg.ApplyStd(std); err != nil {
			return fail(err)
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		if err := cfg.SetStringCap(stringCap); err != nil {
			return fail(err)
		}

		if len(inputFiles) != 1 {
			return fail(fmt.Errorf("expected exactly one input file, got %d", len(inputFiles)))
		}
		input := inputFiles[0]

		say := func(format string, args ...any) {
			if !quiet {
				fmt.Printf(format, args...)
			}
		}

		say("----------------------\n")
		say("Compiling '%s' (std: %s)...\n", input, cfg.StdName)
		res, src, err := compiler.CompileFile(input, cfg, os.Stderr)
		if err != nil {
			diag := util.NewDiagnostics(os.Stderr, util.SourceFileRecord{Name: input, Content: src}, cfg)
			diag.Report(os.Stderr, err)
			return err
		}

		if dumpSyms {
			dumpSymbols(os.Stdout, res.Symbols)
		}

		say("Writing %s of C to '%s'...\n", humanize.Bytes(uint64(len(res.C))), outFile)
		if err := os.WriteFile(outFile, []byte(res.C), 0644); err != nil {
			return fail(fmt.Errorf("failed to write output file '%s': %w", outFile, err))
		}

		if binFile != "" {
			cc := os.Getenv("CC")
			if cc == "" {
				cc = "cc"
			}
			say("Building '%s' with %s...\n", binFile, cc)
			if err := compiler.Build(context.Background(), cc, res.C, binFile, ccArgs); err != nil {
				return fail(err)
			}
		}

		say("----------------------\n")
		say("Done! (%016x)\n", res.Sum)
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func fail(err error) error {
	util.NewDiagnostics(nil, util.SourceFileRecord{}, nil).Report(os.Stderr, err)
	return err
}

func dumpSymbols(w io.Writer, symbols []symtab.Symbol) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tDECLARED")
	for _, sym := range symbols {
		typ := sym.Type.String()
		if sym.Type == symtab.IntArray {
			typ = fmt.Sprintf("int[%d]", sym.Len)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d:%d\n", sym.Name, typ, sym.Decl.Line, sym.Decl.Column)
	}
	tw.Flush()
}
