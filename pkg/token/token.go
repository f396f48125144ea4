package token

type Type int

const (
	EOF Type = iota

	// Literals
	Ident
	Number
	FloatNumber
	CharLit
	String

	// Keywords
	If
	Else
	While
	For
	Do
	Break
	Continue
	Return
	Switch
	Case
	Default
	Sizeof

	// Type keywords
	Void
	Char
	Short
	Int
	Long
	Float
	Double
	Signed
	Unsigned
	Bool

	// Storage classes (accepted, then ignored)
	Static
	Extern
	Auto
	Register
	Const
	Volatile

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semi
	Comma
	Dot
	Arrow
	Question
	Colon

	// Operators
	Eq
	PlusEq
	MinusEq
	StarEq
	SlashEq
	Plus
	Minus
	Star
	Slash
	Rem
	Inc
	Dec
	EqEq
	Neq
	Lt
	Gt
	Lte
	Gte
	AndAnd
	OrOr
	Not
	And
	Or
	Xor
	Complement
	Shl
	Shr
)

var KeywordMap = map[string]Type{
	"if":       If,
	"else":     Else,
	"while":    While,
	"for":      For,
	"do":       Do,
	"break":    Break,
	"continue": Continue,
	"return":   Return,
	"switch":   Switch,
	"case":     Case,
	"default":  Default,
	"sizeof":   Sizeof,
	"void":     Void,
	"char":     Char,
	"short":    Short,
	"int":      Int,
	"long":     Long,
	"float":    Float,
	"double":   Double,
	"signed":   Signed,
	"unsigned": Unsigned,
	"bool":     Bool,
	"static":   Static,
	"extern":   Extern,
	"auto":     Auto,
	"register": Register,
	"const":    Const,
	"volatile": Volatile,
}

var operatorStrings = map[Type]string{
	EOF: "end of input", Ident: "identifier", Number: "number",
	FloatNumber: "float number", CharLit: "character literal", String: "string literal",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	LBracket: "[", RBracket: "]", Semi: ";", Comma: ",",
	Dot: ".", Arrow: "->", Question: "?", Colon: ":",
	Eq: "=", PlusEq: "+=", MinusEq: "-=", StarEq: "*=", SlashEq: "/=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Rem: "%",
	Inc: "++", Dec: "--",
	EqEq: "==", Neq: "!=", Lt: "<", Gt: ">", Lte: "<=", Gte: ">=",
	AndAnd: "&&", OrOr: "||", Not: "!",
	And: "&", Or: "|", Xor: "^", Complement: "~", Shl: "<<", Shr: ">>",
}

// TypeStrings maps every token type to a printable spelling
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
	for typ, str := range operatorStrings {
		TypeStrings[typ] = str
	}
}

// Token is a single lexeme. Value holds the literal's decoded form: the
// identifier text, the digits of a number after suffix stripping, the code
// point of a character literal, or the unescaped contents of a string.
// Line numbers are 1-based and non-decreasing across a token stream.
type Token struct {
	Type   Type
	Value  string
	Line   int
	Column int
	Len    int
}

// IsTypeKeyword reports whether the token can begin a type specifier.
func (t Token) IsTypeKeyword() bool {
	return t.Type >= Void && t.Type <= Bool
}

// IsStorageClass reports whether the token is a storage-class specifier.
func (t Token) IsStorageClass() bool {
	return t.Type >= Static && t.Type <= Volatile
}

// Text renders the token for use in diagnostics.
func (t Token) Text() string {
	switch t.Type {
	case Ident, Number, FloatNumber, String:
		return t.Value
	default:
		return TypeStrings[t.Type]
	}
}
