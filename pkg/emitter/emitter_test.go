package emitter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionsAreOrdered(t *testing.T) {
	e := New()
	e.EnderLine("}")
	e.EmitLine("x = 1;")
	e.HeaderLine("int main(void) {")
	e.DeclLine("int x;")
	e.CleanupLine("return 0;")

	want := "int main(void) {\n    int x;\n    x = 1;\n    return 0;\n}\n"
	if diff := cmp.Diff(want, e.Finalize()); diff != "" {
		t.Errorf("Finalize mismatch (-want +got):\n%s", diff)
	}
}

func TestIndentation(t *testing.T) {
	e := New()
	e.EmitLine("if (x) {")
	e.Indent()
	e.EmitLine("while (y) {")
	e.Indent()
	e.Emit("a = ")
	e.Emit("1;")
	e.EmitLine("")
	e.Dedent()
	e.EmitLine("}")
	e.Dedent()
	e.EmitLine("}")
	e.Dedent() // extra dedent stays at the base level
	e.EmitLine("done;")

	want := "    if (x) {\n        while (y) {\n            a = 1;\n        }\n    }\n    done;\n"
	assert.Equal(t, want, e.Code())
}

func TestDeepNesting(t *testing.T) {
	e := New()
	for i := 0; i < 70; i++ {
		e.Indent()
	}
	e.EmitLine("x;")
	assert.Equal(t, strings.Repeat(" ", 4*71)+"x;\n", e.Code())
}

func TestWriteTo(t *testing.T) {
	e := New()
	e.HeaderLine("h")
	e.EmitLine("c")
	e.EnderLine("e")

	var buf bytes.Buffer
	n, err := e.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "h\n    c\ne\n", buf.String())
	assert.Equal(t, "h\n", e.Header())
	assert.Equal(t, "e\n", e.Ender())
}

func TestWriteFile(t *testing.T) {
	e := New()
	e.HeaderLine("int main(void) {")
	e.EnderLine("}")

	path := filepath.Join(t.TempDir(), "out.c")
	require.NoError(t, e.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, e.Finalize(), string(data))

	err = e.WriteFile(filepath.Join(t.TempDir(), "missing", "out.c"))
	assert.ErrorContains(t, err, "failed to write output file")
}
