package main

import (
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/xplshn/brc/pkg/cli"
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	log.SetFlags(0)

	app := cli.NewApp("brtest")
	app.Synopsis = "[options]"
	app.Description = "Golden-output test harness for brc. Compiles every test program, runs it against fixed stdin cases and diffs the result with the stored golden file."

	h := &harness{}
	var timeoutStr string
	fs := app.FlagSet
	fs.String(&h.compiler, "compiler", "", "./brc", "Path to the brc binary to test.", "path")
	fs.List(&h.compilerArgs, "compiler-arg", "", []string{}, "Extra argument passed to brc.", "arg")
	fs.String(&h.testFiles, "test-files", "", "tests/*.rot", "Glob pattern(s) for files to test (space-separated).", "glob")
	fs.String(&h.generate, "generate-golden", "", "", "Generate the golden .json file for a given source file.", "file")
	fs.String(&h.output, "output", "", ".test_results.json", "Output file for the JSON test report.", "file")
	fs.String(&timeoutStr, "timeout", "", "5s", "Timeout for each command execution.", "duration")
	fs.Int(&h.jobs, "jobs", "j", 4, "Number of parallel test jobs.", "n")
	fs.Bool(&h.verbose, "verbose", "v", false, "Enable verbose logging.")

	app.Action = func([]string) error {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			log.Printf("%s[ERROR]%s Invalid --timeout: %v\n", cRed, cNone, err)
			return err
		}
		h.timeout = timeout
		if h.jobs < 1 {
			h.jobs = 1
		}

		tempDir, err := os.MkdirTemp("", "brtest-*")
		if err != nil {
			log.Printf("%s[ERROR]%s Failed to create temp directory: %v\n", cRed, cNone, err)
			return err
		}
		defer os.RemoveAll(tempDir)
		h.tempDir = tempDir
		setupInterruptHandler(tempDir)

		if h.generate != "" {
			return h.generateGolden(h.generate)
		}
		return h.runSuite()
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// setupInterruptHandler is used to clean up on CTRL+C
func setupInterruptHandler(tempDir string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		os.RemoveAll(tempDir)
		log.Printf("\n%s[INTERRUPT]%s Test run cancelled. Cleaning up...\n", cYellow, cNone)
		os.Exit(1)
	}()
}
