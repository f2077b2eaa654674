package symtab

import (
	"sort"

	"github.com/xplshn/brc/pkg/token"
)

// Type is the inferred type of a declared name.
type Type int

const (
	Int Type = iota
	Float
	Str
	Bool
	IntArray
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Str:
		return "str"
	case Bool:
		return "bool"
	case IntArray:
		return "int-array"
	default:
		return "unknown"
	}
}

// CType is the C spelling used in declarations.
func (t Type) CType() string {
	switch t {
	case Int, IntArray:
		return "int"
	case Float:
		return "float"
	case Str:
		return "char *"
	case Bool:
		return "bool"
	default:
		return "void"
	}
}

func (t Type) IsNumeric() bool { return t == Int || t == Float }
func (t Type) IsScalar() bool  { return t != IntArray }

type Symbol struct {
	Name string
	Type Type
	Len  int // element count, IntArray only
	Decl token.Token
}

// SymbolTable maps each declared name to exactly one type. Entries are never
// replaced or removed.
type SymbolTable struct {
	symbols map[string]Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]Symbol)}
}

// Declare registers sym unless its name is already known. It reports
// whether the symbol was added; the existing entry is returned either way.
func (s *SymbolTable) Declare(sym Symbol) (Symbol, bool) {
	if existing, ok := s.symbols[sym.Name]; ok {
		return existing, false
	}
	s.symbols[sym.Name] = sym
	return sym, true
}

func (s *SymbolTable) Lookup(name string) (Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// Is reports whether name is declared with one of the given types.
func (s *SymbolTable) Is(name string, types ...Type) bool {
	sym, ok := s.symbols[name]
	if !ok {
		return false
	}
	for _, t := range types {
		if sym.Type == t {
			return true
		}
	}
	return false
}

func (s *SymbolTable) Len() int { return len(s.symbols) }

// Symbols returns every entry sorted by declaration position.
func (s *SymbolTable) Symbols() []Symbol {
	out := make([]Symbol, 0, len(s.symbols))
	for _, sym := range s.symbols {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Decl.Line != out[j].Decl.Line {
			return out[i].Decl.Line < out[j].Decl.Line
		}
		if out[i].Decl.Column != out[j].Decl.Column {
			return out[i].Decl.Column < out[j].Decl.Column
		}
		return out[i].Name < out[j].Name
	})
	return out
}
