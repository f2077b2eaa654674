package lexer

import (
	"github.com/xplshn/brc/pkg/config"
	"github.com/xplshn/brc/pkg/token"
	"github.com/xplshn/brc/pkg/util"
)

type Lexer struct {
	source    []rune
	fileIndex int
	pos       int
	line      int
	column    int
	cfg       *config.Config
}

// NewLexer prepares source for scanning. A trailing newline is appended so
// the last statement is always terminated.
func NewLexer(source []rune, fileIndex int, cfg *config.Config) *Lexer {
	src := make([]rune, len(source), len(source)+1)
	copy(src, source)
	return &Lexer{
		source: append(src, '\n'), fileIndex: fileIndex, line: 1, column: 1, cfg: cfg,
	}
}

// Next returns the next token. Once EOF has been returned every further call
// returns EOF again.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()
	if l.peek() == '#' && l.cfg.IsFeatureEnabled(config.FeatComments) {
		l.lineComment()
	}
	startPos, startCol, startLine := l.pos, l.column, l.line

	if l.isAtEnd() {
		return l.makeToken(token.EOF, startPos, startCol, startLine), nil
	}

	ch := l.peek()
	if isAlpha(ch) {
		return l.identifierOrKeyword(startPos, startCol, startLine), nil
	}
	if isDigit(ch) {
		return l.numberLiteral(startPos, startCol, startLine)
	}

	l.advance()
	switch ch {
	case '\n':
		return l.makeToken(token.Newline, startPos, startCol, startLine), nil
	case '+':
		return l.makeToken(token.Plus, startPos, startCol, startLine), nil
	case '-':
		return l.makeToken(token.Minus, startPos, startCol, startLine), nil
	case '*':
		return l.makeToken(token.Star, startPos, startCol, startLine), nil
	case '/':
		return l.makeToken(token.Slash, startPos, startCol, startLine), nil
	case '[':
		return l.makeToken(token.LBracket, startPos, startCol, startLine), nil
	case ']':
		return l.makeToken(token.RBracket, startPos, startCol, startLine), nil
	case '<':
		return l.matchThen('=', token.Lte, token.Lt, startPos, startCol, startLine), nil
	case '>':
		return l.matchThen('=', token.Gte, token.Gt, startPos, startCol, startLine), nil
	case '=':
		if l.match('=') {
			return l.makeToken(token.EqEq, startPos, startCol, startLine), nil
		}
		return token.Token{}, util.Errorf(util.Lexical, l.makeToken(token.EOF, startPos, startCol, startLine), "expected '==', got '=%s'", printable(l.peek()))
	case '!':
		if l.match('=') {
			return l.makeToken(token.Neq, startPos, startCol, startLine), nil
		}
		return token.Token{}, util.Errorf(util.Lexical, l.makeToken(token.EOF, startPos, startCol, startLine), "expected '!=', got '!%s'", printable(l.peek()))
	case '"':
		return l.stringLiteral(startPos, startCol, startLine)
	}

	return token.Token{}, util.Errorf(util.Lexical, l.makeToken(token.EOF, startPos, startCol, startLine), "unknown token: '%s'", printable(ch))
}

func printable(r rune) string {
	switch r {
	case 0:
		return `\0`
	case '\n':
		return `\n`
	case '\t':
		return `\t`
	case '\r':
		return `\r`
	}
	return string(r)
}

// Identifiers end up verbatim in C source, so only ASCII is accepted.
func isAlpha(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: string(l.source[startPos:l.pos]), FileIndex: l.fileIndex,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

// skipWhitespace skips blanks but not newlines, which terminate statements.
func (l *Lexer) skipWhitespace() {
	for {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) identifierOrKeyword(startPos, startCol, startLine int) token.Token {
	for isAlpha(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	tok := l.makeToken(token.Ident, startPos, startCol, startLine)
	if tokType, isKeyword := token.Lookup(tok.Value); isKeyword {
		tok.Type = tokType
	}
	return tok
}

func (l *Lexer) numberLiteral(startPos, startCol, startLine int) (token.Token, error) {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() != '.' {
		return l.makeToken(token.Integer, startPos, startCol, startLine), nil
	}

	l.advance()
	if !isDigit(l.peek()) {
		tok := l.makeToken(token.Float, startPos, startCol, startLine)
		return token.Token{}, util.Errorf(util.Lexical, tok, "illegal character in number '%s': expected a digit after '.'", tok.Value)
	}
	for isDigit(l.peek()) {
		l.advance()
	}
	return l.makeToken(token.Float, startPos, startCol, startLine), nil
}

func (l *Lexer) stringLiteral(startPos, startCol, startLine int) (token.Token, error) {
	for !l.isAtEnd() {
		c := l.peek()
		switch c {
		case '"':
			l.advance()
			return l.makeToken(token.String, startPos, startCol, startLine), nil
		case '\r', '\n', '\t', '\\', '%':
			tok := l.makeToken(token.String, startPos, startCol, startLine)
			return token.Token{}, util.Errorf(util.Lexical, tok, "illegal character '%s' in string", printable(c))
		}
		l.advance()
	}
	return token.Token{}, util.Errorf(util.Lexical, l.makeToken(token.String, startPos, startCol, startLine), "unterminated string literal")
}

func (l *Lexer) matchThen(expected rune, thenType, elseType token.Type, sPos, sCol, sLine int) token.Token {
	if l.match(expected) {
		return l.makeToken(thenType, sPos, sCol, sLine)
	}
	return l.makeToken(elseType, sPos, sCol, sLine)
}
