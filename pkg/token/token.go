package token

type Type int

const (
	EOF Type = iota
	Newline
	Integer
	Float
	String
	Ident

	keywordBeg
	Rizz    // print
	Skibidi // read
	Is
	Chat
	Thanks
	Only
	In
	Ohio
	Sussy
	On
	Gyatt
	Based  // true
	Cringe // false
	keywordEnd

	operatorBeg
	Plus
	Minus
	Star
	Slash
	EqEq
	Neq
	Lt
	Lte
	Gt
	Gte
	LBracket
	RBracket
	operatorEnd
)

var KeywordMap = map[string]Type{
	"RIZZ":    Rizz,
	"SKIBIDI": Skibidi,
	"IS":      Is,
	"CHAT":    Chat,
	"THANKS":  Thanks,
	"ONLY":    Only,
	"IN":      In,
	"OHIO":    Ohio,
	"SUSSY":   Sussy,
	"ON":      On,
	"GYATT":   Gyatt,
	"BASED":   Based,
	"CRINGE":  Cringe,
}

var typeStrings = map[Type]string{
	EOF:      "end of input",
	Newline:  "newline",
	Integer:  "integer",
	Float:    "float",
	String:   "string",
	Ident:    "identifier",
	Plus:     "'+'",
	Minus:    "'-'",
	Star:     "'*'",
	Slash:    "'/'",
	EqEq:     "'=='",
	Neq:      "'!='",
	Lt:       "'<'",
	Lte:      "'<='",
	Gt:       "'>'",
	Gte:      "'>='",
	LBracket: "'['",
	RBracket: "']'",
}

func init() {
	for str, typ := range KeywordMap {
		typeStrings[typ] = str
	}
}

func (t Type) String() string {
	if s, ok := typeStrings[t]; ok {
		return s
	}
	return "unknown"
}

func (t Type) IsKeyword() bool  { return t > keywordBeg && t < keywordEnd }
func (t Type) IsOperator() bool { return t > operatorBeg && t < operatorEnd }

// IsComparison reports whether t is one of the six comparison operators.
func (t Type) IsComparison() bool {
	switch t {
	case EqEq, Neq, Lt, Lte, Gt, Gte:
		return true
	}
	return false
}

// Lookup maps an exact, case-sensitive spelling to its keyword type.
// Identifiers and anything outside the keyword partition report false.
func Lookup(text string) (Type, bool) {
	typ, ok := KeywordMap[text]
	if !ok || !typ.IsKeyword() {
		return Ident, false
	}
	return typ, true
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}
