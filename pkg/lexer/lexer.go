// Package lexer turns source text into a stream of tokens.
package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/config"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/util"
)

type Lexer struct {
	source []rune
	pos    int
	line   int
	column int
	cfg    *config.Config
	diags  *util.Diagnostics
}

func New(source []rune, cfg *config.Config, diags *util.Diagnostics) *Lexer {
	return &Lexer{source: source, line: 1, column: 1, cfg: cfg, diags: diags}
}

// Tokenize scans the whole input, including the trailing EOF token.
// Malformed input produces diagnostics, never a short stream: the scanner
// skips what it cannot recognize and keeps going.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) Next() token.Token {
	for {
		l.skipWhitespaceAndComments()
		startPos, startCol, startLine := l.pos, l.column, l.line

		if l.isAtEnd() {
			return l.makeToken(token.EOF, "", startPos, startCol, startLine)
		}

		ch := l.peek()
		if ch == '#' && l.cfg.IsFeatureEnabled(config.FeatDirectives) {
			l.skipLine()
			continue
		}
		if unicode.IsLetter(ch) || ch == '_' {
			l.advance()
			return l.identifierOrKeyword(startPos, startCol, startLine)
		}
		if unicode.IsDigit(ch) || (ch == '.' && unicode.IsDigit(l.peekNext())) {
			return l.numberLiteral(startPos, startCol, startLine)
		}

		l.advance()
		switch ch {
		case '(':
			return l.makeToken(token.LParen, "", startPos, startCol, startLine)
		case ')':
			return l.makeToken(token.RParen, "", startPos, startCol, startLine)
		case '{':
			return l.makeToken(token.LBrace, "", startPos, startCol, startLine)
		case '}':
			return l.makeToken(token.RBrace, "", startPos, startCol, startLine)
		case '[':
			return l.makeToken(token.LBracket, "", startPos, startCol, startLine)
		case ']':
			return l.makeToken(token.RBracket, "", startPos, startCol, startLine)
		case ';':
			return l.makeToken(token.Semi, "", startPos, startCol, startLine)
		case ',':
			return l.makeToken(token.Comma, "", startPos, startCol, startLine)
		case '?':
			return l.makeToken(token.Question, "", startPos, startCol, startLine)
		case ':':
			return l.makeToken(token.Colon, "", startPos, startCol, startLine)
		case '~':
			return l.makeToken(token.Complement, "", startPos, startCol, startLine)
		case '.':
			return l.makeToken(token.Dot, "", startPos, startCol, startLine)
		case '!':
			return l.matchThen('=', token.Neq, token.Not, startPos, startCol, startLine)
		case '^':
			return l.makeToken(token.Xor, "", startPos, startCol, startLine)
		case '%':
			return l.makeToken(token.Rem, "", startPos, startCol, startLine)
		case '=':
			return l.matchThen('=', token.EqEq, token.Eq, startPos, startCol, startLine)
		case '+':
			if l.match('+') {
				return l.makeToken(token.Inc, "", startPos, startCol, startLine)
			}
			return l.matchThen('=', token.PlusEq, token.Plus, startPos, startCol, startLine)
		case '-':
			if l.match('-') {
				return l.makeToken(token.Dec, "", startPos, startCol, startLine)
			}
			if l.match('>') {
				return l.makeToken(token.Arrow, "", startPos, startCol, startLine)
			}
			return l.matchThen('=', token.MinusEq, token.Minus, startPos, startCol, startLine)
		case '*':
			return l.matchThen('=', token.StarEq, token.Star, startPos, startCol, startLine)
		case '/':
			return l.matchThen('=', token.SlashEq, token.Slash, startPos, startCol, startLine)
		case '&':
			return l.matchThen('&', token.AndAnd, token.And, startPos, startCol, startLine)
		case '|':
			return l.matchThen('|', token.OrOr, token.Or, startPos, startCol, startLine)
		case '<':
			if l.match('<') {
				return l.makeToken(token.Shl, "", startPos, startCol, startLine)
			}
			return l.matchThen('=', token.Lte, token.Lt, startPos, startCol, startLine)
		case '>':
			if l.match('>') {
				return l.makeToken(token.Shr, "", startPos, startCol, startLine)
			}
			return l.matchThen('=', token.Gte, token.Gt, startPos, startCol, startLine)
		case '"':
			return l.stringLiteral(startPos, startCol, startLine)
		case '\'':
			return l.charLiteral(startPos, startCol, startLine)
		}

		tok := l.makeToken(token.EOF, string(ch), startPos, startCol, startLine)
		l.diags.Errorf(tok, "unexpected character '%c'", ch)
	}
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
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

func (l *Lexer) matchThen(expected rune, matched, otherwise token.Type, startPos, startCol, startLine int) token.Token {
	if l.match(expected) {
		return l.makeToken(matched, "", startPos, startCol, startLine)
	}
	return l.makeToken(otherwise, "", startPos, startCol, startLine)
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.advance()
		case '/':
			if l.peekNext() == '/' && l.cfg.IsFeatureEnabled(config.FeatCComments) {
				l.skipLine()
			} else if l.peekNext() == '*' {
				l.blockComment()
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipLine() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) blockComment() {
	start := l.makeToken(token.EOF, "", l.pos, l.column, l.line)
	l.advance()
	l.advance()
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	l.diags.Errorf(start, "unterminated block comment")
}

func (l *Lexer) identifierOrKeyword(startPos, startCol, startLine int) token.Token {
	for unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	text := string(l.source[startPos:l.pos])
	if kw, isKeyword := token.KeywordMap[text]; isKeyword {
		return l.makeToken(kw, text, startPos, startCol, startLine)
	}
	return l.makeToken(token.Ident, text, startPos, startCol, startLine)
}

// numberLiteral scans integer and floating-point constants. Hex and octal
// integers keep their prefix in Value; type suffixes are validated and then
// dropped so later stages see only the digits.
func (l *Lexer) numberLiteral(startPos, startCol, startLine int) token.Token {
	isFloat := false

	if l.peek() == '0' && (l.peekNext() == 'x' || l.peekNext() == 'X') {
		l.advance()
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		value := string(l.source[startPos:l.pos])
		l.intSuffix()
		return l.checkedInt(value, startPos, startCol, startLine)
	}

	for unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peekNext()) {
		isFloat = true
		l.advance()
		for unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekNext()
		if unicode.IsDigit(next) || ((next == '+' || next == '-') && l.pos+2 < len(l.source) && unicode.IsDigit(l.source[l.pos+2])) {
			isFloat = true
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for unicode.IsDigit(l.peek()) {
				l.advance()
			}
		}
	}

	value := string(l.source[startPos:l.pos])
	if isFloat {
		l.floatSuffix()
		tok := l.makeToken(token.FloatNumber, value, startPos, startCol, startLine)
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			l.diags.Errorf(tok, "invalid float literal %q", value)
		}
		return tok
	}

	l.intSuffix()
	return l.checkedInt(value, startPos, startCol, startLine)
}

func (l *Lexer) intSuffix() {
	for strings.ContainsRune("uUlL", l.peek()) {
		l.advance()
	}
}

func (l *Lexer) floatSuffix() {
	for strings.ContainsRune("fFlL", l.peek()) {
		l.advance()
	}
}

func (l *Lexer) checkedInt(value string, startPos, startCol, startLine int) token.Token {
	tok := l.makeToken(token.Number, value, startPos, startCol, startLine)
	if _, err := strconv.ParseInt(value, 0, 64); err != nil {
		if l.cfg.IsWarningEnabled(config.WarnOverflow) {
			l.diags.Warnf(tok, "integer constant %q out of range", value)
		}
	}
	return tok
}

func (l *Lexer) stringLiteral(startPos, startCol, startLine int) token.Token {
	var sb strings.Builder
	for !l.isAtEnd() && l.peek() != '"' {
		ch := l.advance()
		if ch == '\\' {
			sb.WriteRune(l.escape(startPos, startCol, startLine))
		} else {
			sb.WriteRune(ch)
		}
	}
	if l.isAtEnd() {
		tok := l.makeToken(token.String, sb.String(), startPos, startCol, startLine)
		l.diags.Errorf(tok, "unterminated string literal")
		return tok
	}
	l.advance() // closing quote
	return l.makeToken(token.String, sb.String(), startPos, startCol, startLine)
}

// charLiteral decodes one character constant. Value carries the decimal code
// point so the parser never re-parses quoting.
func (l *Lexer) charLiteral(startPos, startCol, startLine int) token.Token {
	var value rune
	if l.isAtEnd() || l.peek() == '\'' {
		tok := l.makeToken(token.CharLit, "0", startPos, startCol, startLine)
		l.diags.Errorf(tok, "empty character literal")
		if l.peek() == '\'' {
			l.advance()
		}
		return tok
	}
	ch := l.advance()
	if ch == '\\' {
		value = l.escape(startPos, startCol, startLine)
	} else {
		value = ch
	}
	if !l.match('\'') {
		tok := l.makeToken(token.CharLit, strconv.Itoa(int(value)), startPos, startCol, startLine)
		l.diags.Errorf(tok, "unterminated character literal")
		return tok
	}
	return l.makeToken(token.CharLit, strconv.Itoa(int(value)), startPos, startCol, startLine)
}

// escape decodes one backslash sequence, the backslash already consumed.
// Unrecognized escapes keep the raw character and raise a warning.
func (l *Lexer) escape(startPos, startCol, startLine int) rune {
	ch := l.advance()
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'v':
		return '\v'
	case '0', '1', '2', '3', '4', '5', '6', '7':
		value := int64(ch - '0')
		for i := 0; i < 2 && l.peek() >= '0' && l.peek() <= '7'; i++ {
			value = value*8 + int64(l.advance()-'0')
		}
		return rune(value)
	case 'x':
		var value int64
		digits := 0
		for isHexDigit(l.peek()) {
			value = value*16 + int64(hexValue(l.advance()))
			digits++
		}
		if digits == 0 {
			tok := l.makeToken(token.CharLit, "", startPos, startCol, startLine)
			l.diags.Errorf(tok, "\\x escape has no hex digits")
			return 0
		}
		return rune(value)
	case '\\', '\'', '"':
		return ch
	default:
		if l.cfg.IsWarningEnabled(config.WarnUnrecognizedEscape) {
			tok := l.makeToken(token.CharLit, string(ch), startPos, startCol, startLine)
			l.diags.Warnf(tok, "unrecognized escape sequence '\\%c'", ch)
		}
		return ch
	}
}

func isHexDigit(ch rune) bool {
	return unicode.IsDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func hexValue(ch rune) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	default:
		return int(ch-'A') + 10
	}
}
