package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xplshn/brc/pkg/config"
	"github.com/xplshn/brc/pkg/emitter"
	"github.com/xplshn/brc/pkg/lexer"
	"github.com/xplshn/brc/pkg/symtab"
	"github.com/xplshn/brc/pkg/token"
	"github.com/xplshn/brc/pkg/util"
)

// Parser recognizes a program and emits C while it goes; there is no tree.
type Parser struct {
	lex     *lexer.Lexer
	current token.Token
	next    token.Token
	primed  bool

	symbols *symtab.SymbolTable
	out     *emitter.Emitter
	cfg     *config.Config
	diag    *util.Diagnostics
	tmps    int
}

// NewParser wires a parser to its collaborators. diag may be nil, in which
// case warnings are dropped.
func NewParser(lex *lexer.Lexer, symbols *symtab.SymbolTable, out *emitter.Emitter, cfg *config.Config, diag *util.Diagnostics) *Parser {
	return &Parser{lex: lex, symbols: symbols, out: out, cfg: cfg, diag: diag}
}

// Parser helpers
func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.current = p.next
	p.next = tok
	return nil
}

func (p *Parser) prime() error {
	if p.primed {
		return nil
	}
	p.primed = true
	if err := p.advance(); err != nil {
		return err
	}
	return p.advance()
}

func (p *Parser) check(tokType token.Type) bool     { return p.current.Type == tokType }
func (p *Parser) checkPeek(tokType token.Type) bool { return p.next.Type == tokType }

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF, token.Newline:
		return tok.Type.String()
	}
	return fmt.Sprintf("'%s'", tok.Value)
}

func (p *Parser) unexpected(want string) error {
	return util.Errorf(util.Syntax, p.current, "expected %s, got %s", want, describe(p.current))
}

func (p *Parser) expect(tokType token.Type) error {
	if !p.check(tokType) {
		return p.unexpected(tokType.String())
	}
	return p.advance()
}

func (p *Parser) semantic(tok token.Token, format string, args ...any) error {
	return util.Errorf(util.Semantic, tok, format, args...)
}

// Production rules

// Program parses the whole input. It may be called once.
func (p *Parser) Program() error {
	p.out.HeaderLine("#include <stdio.h>")
	p.out.HeaderLine("#include <stdlib.h>")
	p.out.HeaderLine("#include <stdbool.h>")
	p.out.HeaderLine("")
	p.out.HeaderLine("int main(void) {")

	if err := p.prime(); err != nil {
		return err
	}
	for p.check(token.Newline) {
		if err := p.advance(); err != nil {
			return err
		}
	}
	for !p.check(token.EOF) {
		if err := p.statement(); err != nil {
			return err
		}
	}

	p.out.CleanupLine("return 0;")
	p.out.EnderLine("}")
	return nil
}

func (p *Parser) statement() error {
	var err error
	switch p.current.Type {
	case token.Rizz:
		err = p.printStmt()
	case token.Is:
		err = p.ifStmt()
	case token.Only:
		err = p.whileStmt()
	case token.On:
		err = p.declStmt()
	case token.Skibidi:
		err = p.readStmt()
	case token.Ident:
		err = p.assignStmt()
	default:
		return util.Errorf(util.Syntax, p.current, "invalid statement at %s", describe(p.current))
	}
	if err != nil {
		return err
	}
	return p.nl()
}

// nl ::= '\n'+
func (p *Parser) nl() error {
	if err := p.expect(token.Newline); err != nil {
		return err
	}
	for p.check(token.Newline) {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) printStmt() error {
	if err := p.advance(); err != nil {
		return err
	}

	if p.check(token.String) {
		p.out.EmitLine(fmt.Sprintf("printf(\"%s\\n\");", unquote(p.current.Value)))
		return p.advance()
	}

	if p.check(token.Ident) && p.checkPeek(token.Newline) {
		name := p.current
		sym, ok := p.symbols.Lookup(name.Value)
		if !ok {
			return p.semantic(name, "cannot print undeclared identifier '%s'", name.Value)
		}
		switch sym.Type {
		case symtab.Float:
			p.out.EmitLine(fmt.Sprintf("printf(\"%%.2f\\n\", (float)(%s));", name.Value))
		case symtab.Int, symtab.Bool:
			p.out.EmitLine(fmt.Sprintf("printf(\"%%d\\n\", %s);", name.Value))
		case symtab.Str:
			p.out.EmitLine(fmt.Sprintf("printf(\"%%s\\n\", %s);", name.Value))
		default:
			return p.semantic(name, "cannot print '%s' of type %s", name.Value, sym.Type)
		}
		return p.advance()
	}

	start := p.current
	expr, err := p.expression()
	if err != nil {
		return err
	}
	p.diag.Warn(config.WarnFloatPrint, start, "expression printed with float format")
	p.out.EmitLine(fmt.Sprintf("printf(\"%%.2f\\n\", (float)(%s));", expr))
	return nil
}

func unquote(lit string) string {
	return strings.TrimSuffix(strings.TrimPrefix(lit, `"`), `"`)
}

func (p *Parser) assignStmt() error {
	name := p.current
	if err := p.advance(); err != nil {
		return err
	}

	if p.check(token.LBracket) && p.cfg.IsFeatureEnabled(config.FeatArrayIndex) {
		return p.elementAssign(name)
	}
	if err := p.expect(token.Is); err != nil {
		return err
	}

	sym, ok := p.symbols.Lookup(name.Value)
	switch {
	case !ok && p.cfg.IsFeatureEnabled(config.FeatStrictAssign):
		return p.semantic(name, "assignment to undeclared identifier '%s' (declare it with ON GYATT)", name.Value)
	case ok && sym.Type == symtab.Str:
		return p.semantic(name, "cannot assign an expression to string '%s' (use ON GYATT with a string literal)", name.Value)
	case ok && sym.Type == symtab.IntArray:
		return p.semantic(name, "cannot assign to array '%s' as a whole", name.Value)
	case !ok:
		p.diag.Warn(config.WarnExtra, name, "assignment to undeclared identifier '%s'", name.Value)
	}

	expr, err := p.expression()
	if err != nil {
		return err
	}
	p.out.EmitLine(fmt.Sprintf("%s = %s;", name.Value, expr))
	return nil
}

func (p *Parser) elementAssign(name token.Token) error {
	if !p.symbols.Is(name.Value, symtab.IntArray) {
		return p.semantic(name, "'%s' is not an array", name.Value)
	}
	if err := p.advance(); err != nil {
		return err
	}
	index, err := p.expression()
	if err != nil {
		return err
	}
	if err := p.expect(token.RBracket); err != nil {
		return err
	}
	if err := p.expect(token.Is); err != nil {
		return err
	}
	expr, err := p.expression()
	if err != nil {
		return err
	}
	p.out.EmitLine(fmt.Sprintf("%s[%s] = %s;", name.Value, index, expr))
	return nil
}

// block parses statements until the closing keyword, which is left current.
func (p *Parser) block(closer token.Type, what string) error {
	p.out.Indent()
	defer p.out.Dedent()
	for !p.check(closer) {
		if p.check(token.EOF) {
			return util.Errorf(util.Syntax, p.current, "expected %s, reached end of input", what)
		}
		if err := p.statement(); err != nil {
			return err
		}
	}
	return nil
}

// ifStmt ::= "IS" comparison "CHAT" nl {statement} "THANKS" "CHAT"
func (p *Parser) ifStmt() error {
	if err := p.advance(); err != nil {
		return err
	}
	cond, err := p.comparison()
	if err != nil {
		return err
	}
	if err := p.expect(token.Chat); err != nil {
		return err
	}
	if err := p.nl(); err != nil {
		return err
	}

	p.out.EmitLine(fmt.Sprintf("if (%s) {", cond))
	if err := p.block(token.Thanks, "THANKS CHAT"); err != nil {
		return err
	}
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(token.Chat); err != nil {
		return err
	}
	p.out.EmitLine("}")
	return nil
}

// whileStmt ::= "ONLY" "IN" "OHIO" comparison nl {statement} "SUSSY"
func (p *Parser) whileStmt() error {
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(token.In); err != nil {
		return err
	}
	if err := p.expect(token.Ohio); err != nil {
		return err
	}
	cond, err := p.comparison()
	if err != nil {
		return err
	}
	if err := p.nl(); err != nil {
		return err
	}

	p.out.EmitLine(fmt.Sprintf("while (%s) {", cond))
	if err := p.block(token.Sussy, "SUSSY"); err != nil {
		return err
	}
	if err := p.advance(); err != nil {
		return err
	}
	p.out.EmitLine("}")
	return nil
}

// reservedNames collide with C keywords or with what the generated program uses.
var reservedNames = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true, "continue": true,
	"default": true, "do": true, "double": true, "else": true, "enum": true, "extern": true,
	"float": true, "for": true, "goto": true, "if": true, "inline": true, "int": true,
	"long": true, "register": true, "restrict": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true, "volatile": true,
	"while": true, "bool": true, "true": true, "false": true, "main": true, "printf": true,
	"scanf": true, "snprintf": true, "malloc": true, "free": true, "NULL": true,
	// GNU and C23 keywords
	"asm": true, "typeof": true, "typeof_unqual": true, "alignas": true, "alignof": true,
	"nullptr": true, "constexpr": true, "static_assert": true, "thread_local": true,
	// macros and objects from stdio.h, stdlib.h and stdbool.h
	"EOF": true, "BUFSIZ": true, "FILENAME_MAX": true, "FOPEN_MAX": true, "TMP_MAX": true,
	"L_tmpnam": true, "SEEK_SET": true, "SEEK_CUR": true, "SEEK_END": true,
	"EXIT_SUCCESS": true, "EXIT_FAILURE": true, "RAND_MAX": true, "MB_CUR_MAX": true,
	"stdin": true, "stdout": true, "stderr": true,
}

// declStmt ::= "ON" "GYATT" IDENT ( "IS" initializer | "[" INTEGER "]" [arrayInit] )
func (p *Parser) declStmt() error {
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(token.Gyatt); err != nil {
		return err
	}
	if !p.check(token.Ident) {
		return p.unexpected("identifier")
	}
	name := p.current
	if reservedNames[name.Value] {
		return p.semantic(name, "'%s' is reserved in generated code", name.Value)
	}
	if err := p.advance(); err != nil {
		return err
	}

	if p.check(token.LBracket) {
		return p.arrayDecl(name)
	}
	if err := p.expect(token.Is); err != nil {
		return err
	}
	return p.initializer(name)
}

// initType infers a declaration's type from the first initializer token.
func (p *Parser) initType() (symtab.Type, error) {
	switch p.current.Type {
	case token.Integer:
		return symtab.Int, nil
	case token.Float:
		return symtab.Float, nil
	case token.String:
		return symtab.Str, nil
	case token.Based, token.Cringe:
		return symtab.Bool, nil
	case token.Ident:
		src, ok := p.symbols.Lookup(p.current.Value)
		switch {
		case !ok:
			return 0, p.semantic(p.current, "cannot infer type from undeclared identifier '%s'", p.current.Value)
		case src.Type == symtab.Float:
			return symtab.Float, nil
		case src.Type == symtab.Int:
			return symtab.Int, nil
		case src.Type == symtab.Str:
			return symtab.Str, nil
		default:
			return 0, p.semantic(p.current, "cannot infer type from %s identifier '%s'", src.Type, p.current.Value)
		}
	}
	return 0, p.unexpected("initializer")
}

func (p *Parser) initializer(name token.Token) error {
	typ, err := p.initType()
	if err != nil {
		return err
	}

	sym, added := p.symbols.Declare(symtab.Symbol{Name: name.Value, Type: typ, Decl: name})
	if added {
		p.declare(sym)
	} else {
		if (sym.Type == symtab.Str) != (typ == symtab.Str) || sym.Type == symtab.IntArray {
			return p.semantic(name, "'%s' is already declared as %s and cannot be initialized with a %s value", name.Value, sym.Type, typ)
		}
		p.diag.Warn(config.WarnRedeclare, name, "'%s' is already declared as %s", name.Value, sym.Type)
	}

	if typ == symtab.Str {
		src := p.current
		if err := p.advance(); err != nil {
			return err
		}
		if src.Type == token.Ident && !p.check(token.Newline) {
			return p.unexpected("newline after string identifier")
		}
		p.out.EmitLine(fmt.Sprintf("snprintf(%s, %d, \"%%s\", %s);", name.Value, p.cfg.StringCap, src.Value))
		return nil
	}

	expr, err := p.expression()
	if err != nil {
		return err
	}
	p.out.EmitLine(fmt.Sprintf("%s = %s;", name.Value, expr))
	return nil
}

// declare writes the header declaration for a newly registered symbol.
func (p *Parser) declare(sym symtab.Symbol) {
	switch sym.Type {
	case symtab.Str:
		p.out.DeclLine(fmt.Sprintf("char *%s = malloc(%d);", sym.Name, p.cfg.StringCap))
		p.out.CleanupLine(fmt.Sprintf("free(%s);", sym.Name))
	default:
		p.out.DeclLine(fmt.Sprintf("%s %s;", sym.Type.CType(), sym.Name))
	}
}

// arrayDecl ::= "[" INTEGER "]" [ ["IS"] "[" {INTEGER} "]" ]
func (p *Parser) arrayDecl(name token.Token) error {
	if err := p.advance(); err != nil {
		return err
	}
	if !p.check(token.Integer) {
		return p.unexpected("array size")
	}
	sizeTok := p.current
	size, err := strconv.Atoi(sizeTok.Value)
	if err != nil || size <= 0 {
		return p.semantic(sizeTok, "array size must be a positive integer, got '%s'", sizeTok.Value)
	}
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(token.RBracket); err != nil {
		return err
	}

	var values []string
	if p.check(token.Is) && p.checkPeek(token.LBracket) {
		if err := p.advance(); err != nil {
			return err
		}
	}
	if p.check(token.LBracket) {
		if err := p.advance(); err != nil {
			return err
		}
		for p.check(token.Integer) {
			values = append(values, p.current.Value)
			if len(values) > size {
				return p.semantic(p.current, "too many values in initializer for '%s': array holds %d", name.Value, size)
			}
			if err := p.advance(); err != nil {
				return err
			}
		}
		if err := p.expect(token.RBracket); err != nil {
			return err
		}
		if len(values) < size {
			p.diag.Warn(config.WarnShortInit, name, "'%s' holds %d values but only %d were given; the rest are zero", name.Value, size, len(values))
		}
	}

	sym, added := p.symbols.Declare(symtab.Symbol{Name: name.Value, Type: symtab.IntArray, Len: size, Decl: name})
	if !added {
		if sym.Type != symtab.IntArray || sym.Len != size {
			return p.semantic(name, "'%s' is already declared as %s and cannot be redeclared as int[%d]", name.Value, describeSym(sym), size)
		}
		p.diag.Warn(config.WarnRedeclare, name, "'%s' is already declared as %s", name.Value, describeSym(sym))
		for i, v := range values {
			p.out.EmitLine(fmt.Sprintf("%s[%d] = %s;", name.Value, i, v))
		}
		return nil
	}

	list := "0"
	if len(values) > 0 {
		list = strings.Join(values, ", ")
	}
	p.out.DeclLine(fmt.Sprintf("int %s[%d] = {%s};", name.Value, size, list))
	return nil
}

func describeSym(sym symtab.Symbol) string {
	if sym.Type == symtab.IntArray {
		return fmt.Sprintf("int[%d]", sym.Len)
	}
	return sym.Type.String()
}

// readStmt ::= "SKIBIDI" IDENT
func (p *Parser) readStmt() error {
	if err := p.advance(); err != nil {
		return err
	}
	if !p.check(token.Ident) {
		return p.unexpected("identifier")
	}
	name := p.current
	sym, ok := p.symbols.Lookup(name.Value)
	if !ok {
		return p.semantic(name, "cannot read into undeclared identifier '%s'", name.Value)
	}

	v := name.Value
	switch sym.Type {
	case symtab.Int, symtab.Float:
		verb, zero := "%d", "0"
		if sym.Type == symtab.Float {
			verb, zero = "%f", "0.0"
		}
		p.out.EmitLine(fmt.Sprintf("if (1 != scanf(\"%s\", &%s)) {", verb, v))
		p.out.Indent()
		p.out.EmitLine(fmt.Sprintf("%s = %s;", v, zero))
		p.out.EmitLine("scanf(\"%*s\");")
		p.out.Dedent()
		p.out.EmitLine("}")
	case symtab.Bool:
		tmp := p.temp()
		p.out.EmitLine("{")
		p.out.Indent()
		p.out.EmitLine(fmt.Sprintf("int %s;", tmp))
		p.out.EmitLine(fmt.Sprintf("if (1 == scanf(\"%%d\", &%s)) {", tmp))
		p.out.Indent()
		p.out.EmitLine(fmt.Sprintf("%s = %s != 0;", v, tmp))
		p.out.Dedent()
		p.out.EmitLine("} else {")
		p.out.Indent()
		p.out.EmitLine(fmt.Sprintf("%s = false;", v))
		p.out.EmitLine("scanf(\"%*s\");")
		p.out.Dedent()
		p.out.EmitLine("}")
		p.out.Dedent()
		p.out.EmitLine("}")
	case symtab.Str:
		p.out.EmitLine(fmt.Sprintf("if (1 != scanf(\"%%%ds\", %s)) {", p.cfg.StringCap-1, v))
		p.out.Indent()
		p.out.EmitLine(fmt.Sprintf("%s[0] = '\\0';", v))
		p.out.EmitLine("scanf(\"%*s\");")
		p.out.Dedent()
		p.out.EmitLine("}")
	default:
		return p.semantic(name, "cannot read into array '%s'", v)
	}
	return p.advance()
}

func (p *Parser) temp() string {
	p.tmps++
	return fmt.Sprintf("brc_tmp_%d", p.tmps)
}
