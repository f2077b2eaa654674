package compiler

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xplshn/brc/pkg/config"
	"github.com/xplshn/brc/pkg/symtab"
	"github.com/xplshn/brc/pkg/util"
)

const program = `# counts down and greets
ON GYATT name IS "rizzler"
ON GYATT n IS 3
ONLY IN OHIO n > 0
    RIZZ n
    n IS n - 1
SUSSY
IS n == 0 CHAT
    RIZZ name
THANKS CHAT
`

func TestCompile(t *testing.T) {
	res, err := Compile(program, config.NewConfig(), Options{Name: "count.rot"})
	require.NoError(t, err)

	assert.Equal(t, xxhash.Sum64String(res.C), res.Sum)
	assert.True(t, strings.HasPrefix(res.C, "#include <stdio.h>\n"))
	assert.True(t, strings.HasSuffix(res.C, "    free(name);\n    return 0;\n}\n"))

	require.Len(t, res.Symbols, 2)
	assert.Equal(t, "name", res.Symbols[0].Name)
	assert.Equal(t, symtab.Str, res.Symbols[0].Type)
	assert.Equal(t, "n", res.Symbols[1].Name)
	assert.Equal(t, symtab.Int, res.Symbols[1].Type)
}

func TestCompileErrorNamesFile(t *testing.T) {
	res, err := Compile("RIZZ y\n", config.NewConfig(), Options{Name: "bad.rot"})
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.Semantic))
	assert.Equal(t, "bad.rot:1:6: semantic error: cannot print undeclared identifier 'y'", err.Error())
}

func TestCompileWarnings(t *testing.T) {
	var warnings bytes.Buffer
	_, err := Compile("ON GYATT x IS 1\nON GYATT x IS 2\n", config.NewConfig(), Options{Name: "w.rot", Warnings: &warnings})
	require.NoError(t, err)
	assert.Contains(t, warnings.String(), "w.rot:2:10: warning:")

	_, err = Compile("ON GYATT x IS 1\nON GYATT x IS 2\n", config.NewConfig(), Options{})
	require.NoError(t, err, "nil writer silences warnings")
}

func TestCompileIsIsolated(t *testing.T) {
	cfg := config.NewConfig()
	want, err := Compile(program, cfg, Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Compile(program, cfg, Options{})
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want.C, res.C)
		assert.Equal(t, want.Sum, res.Sum)
	}
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.rot")
	require.NoError(t, os.WriteFile(path, []byte("RIZZ \"hello\"\n"), 0644))

	res, src, err := CompileFile(path, config.NewConfig(), nil)
	require.NoError(t, err)
	assert.Contains(t, res.C, "printf(\"hello\\n\");")
	assert.Equal(t, "RIZZ \"hello\"\n", string(src))

	_, _, err = CompileFile(filepath.Join(dir, "missing.rot"), config.NewConfig(), nil)
	assert.ErrorContains(t, err, "could not read file")
}

func TestBuildAndRun(t *testing.T) {
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler available")
	}

	res, err := Compile(program, config.NewConfig(), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	bin := filepath.Join(t.TempDir(), "count")
	require.NoError(t, Build(ctx, cc, res.C, bin, nil))

	out, err := exec.CommandContext(ctx, bin).Output()
	require.NoError(t, err)
	assert.Equal(t, "3\n2\n1\nrizzler\n", string(out))
}

func TestBuildReportsCompilerFailure(t *testing.T) {
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler available")
	}
	err = Build(context.Background(), cc, "this is not C", filepath.Join(t.TempDir(), "x"), nil)
	assert.ErrorContains(t, err, "command failed")
}

func TestHeaderNamesAreRejected(t *testing.T) {
	for _, name := range []string{"EOF", "BUFSIZ", "asm", "typeof"} {
		_, err := Compile("ON GYATT "+name+" IS 1\nRIZZ "+name+"\n", config.NewConfig(), Options{})
		assert.True(t, util.IsKind(err, util.Semantic), name)
	}

	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler available")
	}
	for _, name := range []string{"eof", "bufsiz", "Asm", "type_of"} {
		res, err := Compile("ON GYATT "+name+" IS 1\nRIZZ "+name+"\n", config.NewConfig(), Options{})
		require.NoError(t, err, name)
		assert.NoError(t, Build(context.Background(), cc, res.C, filepath.Join(t.TempDir(), name), nil), name)
	}
}

func TestReadResetsAtEndOfInput(t *testing.T) {
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler available")
	}

	src := "ON GYATT n IS 5\nON GYATT f IS 2.5\nON GYATT s IS \"old\"\nSKIBIDI n\nSKIBIDI f\nSKIBIDI s\nRIZZ n\nRIZZ f\nRIZZ s\n"
	res, err := Compile(src, config.NewConfig(), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	bin := filepath.Join(t.TempDir(), "reads")
	require.NoError(t, Build(ctx, cc, res.C, bin, nil))

	cmd := exec.CommandContext(ctx, bin)
	cmd.Stdin = strings.NewReader("")
	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, "0\n0.00\n\n", string(out))
}
