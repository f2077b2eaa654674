package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

type Execution struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

type TestRun struct {
	Name   string    `json:"name"`
	Input  string    `json:"input,omitempty"`
	Result Execution `json:"result"`
}

// ProgramResult is what one source file produced: the compiler run, and one
// run of the built binary per stdin case.
type ProgramResult struct {
	Compile Execution `json:"compile"`
	Runs    []TestRun `json:"runs"`
}

type FileTestResult struct {
	File     string         `json:"file"`
	Status   string         `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message  string         `json:"message,omitempty"`
	Diff     string         `json:"diff,omitempty"`
	Golden   *ProgramResult `json:"golden,omitempty"`
	Observed *ProgramResult `json:"observed,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

// Report is the JSON document written by --output.
type Report struct {
	RunID    string           `json:"run_id"`
	Compiler string           `json:"compiler"`
	Started  time.Time        `json:"started"`
	Results  TestSuiteResults `json:"results"`
}

// stdinCases feed every compiled program. Programs that never read simply
// produce the same output for all of them.
var stdinCases = map[string]string{
	"empty":     "",
	"ints":      "5\n3\n7\n",
	"negative":  "-4\n-9\n",
	"floats":    "2.5\n0.75\n",
	"words":     "hello\nworld\n",
	"bools":     "1\n0\n",
	"malformed": "abc\n12\n",
}

type harness struct {
	compiler     string
	compilerArgs []string
	testFiles    string
	generate     string
	output       string
	timeout      time.Duration
	jobs         int
	verbose      bool
	tempDir      string
}

func goldenPath(sourceFile string) string {
	return filepath.Join(filepath.Dir(sourceFile), "."+filepath.Base(sourceFile)+".json")
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func (h *harness) generateGolden(sourceFile string) error {
	log.Printf("Generating golden file for %s...\n", sourceFile)
	fileHash, err := hashFile(sourceFile)
	if err != nil {
		log.Printf("%s[ERROR]%s Could not hash source file %s: %v\n", cRed, cNone, sourceFile, err)
		return err
	}

	result := h.compileAndRun(sourceFile, fileHash)
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal golden data to JSON: %v\n", cRed, cNone, err)
		return err
	}

	golden := goldenPath(sourceFile)
	if err := os.WriteFile(golden, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, golden, err)
		return err
	}
	log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, golden)
	return nil
}

func (h *harness) runSuite() error {
	files, err := expandGlobPatterns(h.testFiles)
	if err != nil {
		log.Printf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
		return err
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return nil
	}

	started := time.Now()
	type task struct{ file, hash string }
	tasks := make(chan task, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < h.jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				resultsChan <- h.testFile(t.file, t.hash)
			}
		}()
	}

	// Files with identical content are only tested once
	seenHashes := make(map[string]string)
	for _, file := range files {
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if original, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", original)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- task{file, fileHash}
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var all []*FileTestResult
	for result := range resultsChan {
		all = append(all, result)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].File < all[j].File })

	printSummary(all, h.verbose)
	if hasFailures(h.writeJSONReport(all, started)) {
		return errors.New("test suite failed")
	}
	return nil
}

func (h *harness) testFile(file, fileHash string) *FileTestResult {
	golden := goldenPath(file)
	data, err := os.ReadFile(golden)
	if err != nil {
		return &FileTestResult{File: file, Status: "SKIP", Message: "Cannot test without a corresponding .json golden file"}
	}
	var want ProgramResult
	if err := json.Unmarshal(data, &want); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file %s: %v", golden, err)}
	}

	if h.verbose {
		log.Printf("[%s] testing against %s", file, golden)
	}
	got := h.compileAndRun(file, fileHash)
	return compareResults(file, &want, got)
}

// compareResults diffs an observed run against the golden one. Durations are
// ignored, and a compile failure only has to match the exit code and the
// diagnostics.
func compareResults(file string, want, got *ProgramResult) *FileTestResult {
	var diffs strings.Builder
	failed := false

	if want.Compile.ExitCode != got.Compile.ExitCode {
		failed = true
		fmt.Fprintf(&diffs, "Compile exit code mismatch:\n  - Golden:   %d\n  - Observed: %d\n", want.Compile.ExitCode, got.Compile.ExitCode)
	}
	if want.Compile.ExitCode != 0 && want.Compile.Stderr != got.Compile.Stderr {
		failed = true
		fmt.Fprintf(&diffs, "Compile STDERR mismatch:\n%s", cmp.Diff(want.Compile.Stderr, got.Compile.Stderr))
	}

	gotRuns := make(map[string]TestRun, len(got.Runs))
	for _, run := range got.Runs {
		gotRuns[run.Name] = run
	}
	for _, wantRun := range want.Runs {
		gotRun, ok := gotRuns[wantRun.Name]
		if !ok {
			failed = true
			fmt.Fprintf(&diffs, "Run '%s' missing in observed results.\n", wantRun.Name)
			continue
		}
		if wantRun.Result.ExitCode != gotRun.Result.ExitCode || wantRun.Result.TimedOut != gotRun.Result.TimedOut {
			failed = true
			fmt.Fprintf(&diffs, "Run '%s' exit mismatch:\n  - Golden:   %d (timed out: %v)\n  - Observed: %d (timed out: %v)\n",
				wantRun.Name, wantRun.Result.ExitCode, wantRun.Result.TimedOut, gotRun.Result.ExitCode, gotRun.Result.TimedOut)
		}
		if d := cmp.Diff(wantRun.Result.Stdout, gotRun.Result.Stdout); d != "" {
			failed = true
			fmt.Fprintf(&diffs, "Run '%s' STDOUT mismatch:\n%s", wantRun.Name, d)
		}
	}

	if failed {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Output or exit code mismatch", Diff: diffs.String(), Golden: want, Observed: got}
	}
	msg := "All test cases passed"
	if want.Compile.ExitCode != 0 {
		msg = "Compilation failed as expected"
	}
	return &FileTestResult{File: file, Status: "PASS", Message: msg, Golden: want, Observed: got}
}

// executeCommand runs a command under ctx and captures its output, optionally piping data to stdin
func executeCommand(ctx context.Context, stdinData, command string, args ...string) Execution {
	start := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	cmd.Stdin = strings.NewReader(stdinData)

	err := cmd.Run()
	res := Execution{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.TimedOut, res.ExitCode = true, -1
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case err != nil:
		res.ExitCode = -2
		res.Stderr += "\nExecution error: " + err.Error()
	}
	return res
}

// compileAndRun translates sourceFile with brc, letting brc drive cc, then
// runs the binary once per stdin case. A failed compile yields no runs.
func (h *harness) compileAndRun(sourceFile, fileHash string) *ProgramResult {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	cPath := filepath.Join(h.tempDir, fileHash+".c")
	binPath := filepath.Join(h.tempDir, fileHash)
	args := append([]string{"-q", "-o", cPath, "-b", binPath}, h.compilerArgs...)
	args = append(args, sourceFile)

	compile := executeCommand(ctx, "", h.compiler, args...)
	// Diagnostics name the file; make them independent of where the suite runs.
	compile.Stderr = strings.ReplaceAll(compile.Stderr, sourceFile, filepath.Base(sourceFile))
	result := &ProgramResult{Compile: compile}
	if compile.ExitCode != 0 || compile.TimedOut {
		return result
	}

	names := make([]string, 0, len(stdinCases))
	for name := range stdinCases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		runCtx, runCancel := context.WithTimeout(context.Background(), h.timeout)
		res := executeCommand(runCtx, stdinCases[name], binPath)
		runCancel()
		result.Runs = append(result.Runs, TestRun{Name: name, Input: stdinCases[name], Result: res})
	}
	return result
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dus", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

func printSummary(results []*FileTestResult, verbose bool) {
	var passed, failed, skipped, errored int
	for _, result := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s%s%s...\n", cCyan, result.File, cNone)

		switch result.Status {
		case "PASS":
			passed++
			fmt.Printf("  [%sPASS%s] %s\n", cGreen, cNone, result.Message)
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s\n", cRed, cNone, result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%sSKIP%s] %s\n", cYellow, cNone, result.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s\n", cRed, cNone, result.Message)
		}

		if verbose && result.Observed != nil {
			var runtime time.Duration
			for _, run := range result.Observed.Runs {
				runtime += run.Result.Duration
			}
			fmt.Printf("  [compile: %s | runtime: %s]\n", formatDuration(result.Observed.Compile.Duration), formatDuration(runtime))
		}
	}

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-"):
			sb.WriteString(cRed)
		case strings.HasPrefix(trimmed, "+"):
			sb.WriteString(cGreen)
		}
		sb.WriteString("    " + line + cNone + "\n")
	}
	return sb.String()
}

func (h *harness) writeJSONReport(results []*FileTestResult, started time.Time) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	report := Report{RunID: uuid.NewString(), Compiler: h.compiler, Started: started, Results: resultsMap}
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}
	if err := os.WriteFile(h.output, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, h.output, err)
	} else {
		fmt.Printf("Full test report %s saved to %s\n", report.RunID, h.output)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var all []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			abs, err := filepath.Abs(file)
			if err != nil || seen[abs] {
				continue
			}
			if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
				all = append(all, abs)
				seen[abs] = true
			}
		}
	}
	return all, nil
}
