package parser

import (
	"fmt"
	"strings"

	"github.com/xplshn/brc/pkg/config"
	"github.com/xplshn/brc/pkg/symtab"
	"github.com/xplshn/brc/pkg/token"
)

// Expression parsing. Each rule returns the C text of what it recognized.

// comparison ::= expression compOp expression {compOp expression}
//
// By default the chain is emitted flat, in source order, so "a < b < c"
// becomes the C expression "a < b < c". With -Fchain-and every adjacent pair
// is compared and the results are joined with &&.
func (p *Parser) comparison() (string, error) {
	start := p.current
	left, err := p.expression()
	if err != nil {
		return "", err
	}
	if !p.current.Type.IsComparison() {
		return "", p.unexpected("comparison operator")
	}

	flat := []string{left}
	var pairs []string
	for p.current.Type.IsComparison() {
		op := p.current.Value
		if err := p.advance(); err != nil {
			return "", err
		}
		right, err := p.expression()
		if err != nil {
			return "", err
		}
		pairs = append(pairs, fmt.Sprintf("(%s %s %s)", left, op, right))
		flat = append(flat, op, right)
		left = right
	}

	if len(pairs) == 1 {
		return strings.Join(flat, " "), nil
	}
	if p.cfg.IsFeatureEnabled(config.FeatChainAnd) {
		return strings.Join(pairs, " && "), nil
	}
	p.diag.Warn(config.WarnFlatChain, start, "comparison chain of %d operators is evaluated left to right, not pairwise (use -Fchain-and)", len(pairs))
	return strings.Join(flat, " "), nil
}

// expression ::= term {("+" | "-") term}
func (p *Parser) expression() (string, error) {
	var sb strings.Builder
	term, err := p.term()
	if err != nil {
		return "", err
	}
	sb.WriteString(term)
	for p.check(token.Plus) || p.check(token.Minus) {
		sb.WriteString(" " + p.current.Value + " ")
		if err := p.advance(); err != nil {
			return "", err
		}
		if term, err = p.term(); err != nil {
			return "", err
		}
		sb.WriteString(term)
	}
	return sb.String(), nil
}

// term ::= unary {("*" | "/") unary}
func (p *Parser) term() (string, error) {
	var sb strings.Builder
	unary, err := p.unary()
	if err != nil {
		return "", err
	}
	sb.WriteString(unary)
	for p.check(token.Star) || p.check(token.Slash) {
		sb.WriteString(" " + p.current.Value + " ")
		if err := p.advance(); err != nil {
			return "", err
		}
		if unary, err = p.unary(); err != nil {
			return "", err
		}
		sb.WriteString(unary)
	}
	return sb.String(), nil
}

// unary ::= ["+" | "-"] primary
func (p *Parser) unary() (string, error) {
	sign := ""
	if p.check(token.Plus) || p.check(token.Minus) {
		sign = p.current.Value
		if err := p.advance(); err != nil {
			return "", err
		}
	}
	primary, err := p.primary()
	if err != nil {
		return "", err
	}
	return sign + primary, nil
}

// primary ::= INTEGER | FLOAT | IDENT | IDENT "[" expression "]" | "BASED" | "CRINGE"
func (p *Parser) primary() (string, error) {
	tok := p.current
	switch tok.Type {
	case token.Integer, token.Float:
		return tok.Value, p.advance()
	case token.Based:
		return "true", p.advance()
	case token.Cringe:
		return "false", p.advance()
	case token.Ident:
		if p.checkPeek(token.LBracket) && p.cfg.IsFeatureEnabled(config.FeatArrayIndex) {
			return p.element()
		}
		if err := p.checkOperand(tok); err != nil {
			return "", err
		}
		return tok.Value, p.advance()
	}
	return "", p.unexpected("expression")
}

// checkOperand validates an identifier used as a value. The classic standard
// only accepts numeric names; strict mode also accepts booleans.
func (p *Parser) checkOperand(tok token.Token) error {
	sym, ok := p.symbols.Lookup(tok.Value)
	if !p.cfg.IsFeatureEnabled(config.FeatStrictPrimary) {
		if !ok || !sym.Type.IsNumeric() {
			return p.semantic(tok, "referencing variable before assignment: '%s' is not a declared number", tok.Value)
		}
		return nil
	}
	switch {
	case !ok:
		return p.semantic(tok, "referencing variable before assignment: '%s'", tok.Value)
	case sym.Type == symtab.Str || sym.Type == symtab.IntArray:
		return p.semantic(tok, "'%s' is a %s and cannot be used in an expression", tok.Value, sym.Type)
	}
	return nil
}

// element parses an integer array read, name "[" expression "]".
func (p *Parser) element() (string, error) {
	name := p.current
	if !p.symbols.Is(name.Value, symtab.IntArray) {
		return "", p.semantic(name, "'%s' is not an array", name.Value)
	}
	if err := p.advance(); err != nil {
		return "", err
	}
	if err := p.advance(); err != nil {
		return "", err
	}
	index, err := p.expression()
	if err != nil {
		return "", err
	}
	if err := p.expect(token.RBracket); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s[%s]", name.Value, index), nil
}
