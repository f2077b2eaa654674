package lexer

import (
	"go/format"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xplshn/brc/pkg/config"
	"github.com/xplshn/brc/pkg/token"
	"github.com/xplshn/brc/pkg/util"
)

type lexed struct {
	Type  token.Type
	Value string
}

func lexAll(t *testing.T, src string, cfg *config.Config) []lexed {
	t.Helper()
	l := NewLexer([]rune(src), 0, cfg)
	var out []lexed
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		out = append(out, lexed{tok.Type, tok.Value})
		if tok.Type == token.EOF {
			return out
		}
	}
}

func lexErr(t *testing.T, src string) error {
	t.Helper()
	l := NewLexer([]rune(src), 0, config.NewConfig())
	for i := 0; i < 100; i++ {
		tok, err := l.Next()
		if err != nil {
			return err
		}
		if tok.Type == token.EOF {
			break
		}
	}
	t.Fatalf("expected a lexical error for %q", src)
	return nil
}

func TestTokenStream(t *testing.T) {
	src := "ON GYATT x IS 5\nIS x <= 2.5 CHAT\n  RIZZ \"hi there\"\nTHANKS CHAT"
	want := []lexed{
		{token.On, "ON"}, {token.Gyatt, "GYATT"}, {token.Ident, "x"}, {token.Is, "IS"}, {token.Integer, "5"}, {token.Newline, "\n"},
		{token.Is, "IS"}, {token.Ident, "x"}, {token.Lte, "<="}, {token.Float, "2.5"}, {token.Chat, "CHAT"}, {token.Newline, "\n"},
		{token.Rizz, "RIZZ"}, {token.String, `"hi there"`}, {token.Newline, "\n"},
		{token.Thanks, "THANKS"}, {token.Chat, "CHAT"}, {token.Newline, "\n"},
		{token.EOF, ""},
	}
	got := lexAll(t, src, config.NewConfig())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token stream mismatch (-want +got):\n%s", diff)
	}
}

func TestOperators(t *testing.T) {
	got := lexAll(t, "+ - * / == != < <= > >= [ ]", config.NewConfig())
	want := []token.Type{
		token.Plus, token.Minus, token.Star, token.Slash, token.EqEq, token.Neq,
		token.Lt, token.Lte, token.Gt, token.Gte, token.LBracket, token.RBracket,
		token.Newline, token.EOF,
	}
	require.Len(t, got, len(want))
	for i, typ := range want {
		assert.Equal(t, typ, got[i].Type, "token %d", i)
	}
}

func TestIdentifiersAndKeywords(t *testing.T) {
	got := lexAll(t, "rizz RIZZ x1 ONLYx BASED", config.NewConfig())
	assert.Equal(t, token.Ident, got[0].Type)
	assert.Equal(t, token.Rizz, got[1].Type)
	assert.Equal(t, token.Ident, got[2].Type)
	assert.Equal(t, "x1", got[2].Value)
	assert.Equal(t, token.Ident, got[3].Type)
	assert.Equal(t, token.Based, got[4].Type)
}

func TestComments(t *testing.T) {
	got := lexAll(t, "RIZZ x # trailing words\n", config.NewConfig())
	want := []lexed{{token.Rizz, "RIZZ"}, {token.Ident, "x"}, {token.Newline, "\n"}, {token.Newline, "\n"}, {token.EOF, ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("comment handling mismatch (-want +got):\n%s", diff)
	}

	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatComments, false)
	l := NewLexer([]rune("# nope"), 0, cfg)
	_, err := l.Next()
	assert.True(t, util.IsKind(err, util.Lexical))
}

func TestPositions(t *testing.T) {
	l := NewLexer([]rune("RIZZ\n  abc"), 0, config.NewConfig())
	first, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, 1, first.Column)
	assert.Equal(t, 4, first.Len)

	_, err = l.Next()
	require.NoError(t, err)
	ident, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, "abc", ident.Value)
	assert.Equal(t, 2, ident.Line)
	assert.Equal(t, 3, ident.Column)
}

func TestEOFIsSticky(t *testing.T) {
	l := NewLexer(nil, 0, config.NewConfig())
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, token.Newline, tok.Type)
	for i := 0; i < 3; i++ {
		tok, err = l.Next()
		require.NoError(t, err)
		assert.Equal(t, token.EOF, tok.Type)
	}
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"unknown character", "RIZZ x @", "unknown token"},
		{"lone equals", "x = 3", "expected '=='"},
		{"lone bang", "IS x ! 3 CHAT", "expected '!='"},
		{"dot without fraction", "RIZZ 3.", "illegal character in number"},
		{"dot then letter", "RIZZ 3.x", "illegal character in number"},
		{"percent in string", `RIZZ "100%"`, "illegal character '%'"},
		{"backslash in string", `RIZZ "a\b"`, `illegal character '\'`},
		{"tab in string", "RIZZ \"a\tb\"", `illegal character '\t'`},
		{"string runs past end of line", `RIZZ "abc`, "illegal character '\\n'"},
		{"non-ascii identifier", "ON GYATT é IS 1", "unknown token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := lexErr(t, tt.src)
			assert.True(t, util.IsKind(err, util.Lexical), "got %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestSourceIsFormatted(t *testing.T) {
	src, err := os.ReadFile("lexer.go")
	require.NoError(t, err)
	formatted, err := format.Source(src)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(string(formatted), string(src)))
}
