package lexer

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	ILLEGAL

	IDENT  // field reference
	NUMBER // numeric literal
	STRING // quoted string literal, Text holds the unescaped value

	// Keywords. Matched case-sensitively: True is a literal, true is a field.
	TRUE
	FALSE
	NULL
	AND
	OR
	NOT
	IN

	// Comparison operators.
	EQ // ==
	NE // !=
	LT // <
	LE // <=
	GT // >
	GE // >=

	// Punctuation.
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	COMMA    // ,
)

var kindNames = map[Kind]string{
	EOF:      "end of expression",
	ILLEGAL:  "illegal character",
	IDENT:    "identifier",
	NUMBER:   "number",
	STRING:   "string",
	TRUE:     "True",
	FALSE:    "False",
	NULL:     "Null",
	AND:      "'and'",
	OR:       "'or'",
	NOT:      "'not'",
	IN:       "'in'",
	EQ:       "'=='",
	NE:       "'!='",
	LT:       "'<'",
	LE:       "'<='",
	GT:       "'>'",
	GE:       "'>='",
	LPAREN:   "'('",
	RPAREN:   "')'",
	LBRACKET: "'['",
	RBRACKET: "']'",
	COMMA:    "','",
}

// String returns a description of the kind suitable for error messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown token"
}

// IsComparison reports whether the kind is a comparison operator.
func (k Kind) IsComparison() bool {
	switch k {
	case EQ, NE, LT, LE, GT, GE, IN:
		return true
	}
	return false
}

// Token is one lexical unit of an expression. Tokens are produced by the
// lexer and consumed immediately by the parser; they are not retained.
type Token struct {
	Kind   Kind
	Text   string // raw text, or the unescaped value for STRING
	Offset int    // byte offset of the first character in the input
}

// keywords maps reserved words to their kinds. The None spelling is kept
// alongside Null because rule authors write both.
var keywords = map[string]Kind{
	"and":   AND,
	"or":    OR,
	"not":   NOT,
	"in":    IN,
	"True":  TRUE,
	"False": FALSE,
	"Null":  NULL,
	"None":  NULL,
}

// lookupIdent returns the keyword kind for ident, or IDENT.
func lookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}
