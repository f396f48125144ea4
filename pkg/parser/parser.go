// Package parser builds an AST from a token stream. Parsing stops at the
// first syntax error: the parser records one diagnostic and unwinds, so a
// malformed program never yields a partial tree.
package parser

import (
	"strconv"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/ast"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/util"
)

type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
	diags    *util.Diagnostics
	fatal    *util.Diagnostic
}

// bailout is the sentinel the parser panics with after recording its fatal
// diagnostic; Parse recovers it and returns the diagnostic as an error.
type bailout struct{}

func NewParser(tokens []token.Token, diags *util.Diagnostics) *Parser {
	p := &Parser{tokens: tokens, diags: diags}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

// Parse consumes the whole token stream and returns the program root, or the
// first syntax error found.
func (p *Parser) Parse() (root *ast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			root, err = nil, p.fatal
		}
	}()

	first := p.current
	var decls []*ast.Node
	for !p.check(token.EOF) {
		decls = append(decls, p.parseTopLevelDecl())
	}
	return ast.NewProgram(first, decls), nil
}

// Parser helpers

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		if p.pos < len(p.tokens) {
			p.current = p.tokens[p.pos]
		}
	}
}

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) check(tokType token.Type) bool { return p.current.Type == tokType }

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, context string) {
	if p.check(tokType) {
		p.advance()
		return
	}
	p.errorf(p.current, "expected %s %s, found '%s'", token.TypeStrings[tokType], context, p.current.Text())
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	p.fatal = p.diags.Errorf(tok, format, args...)
	panic(bailout{})
}

func isLValue(node *ast.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind {
	case ast.Ident, ast.Subscript, ast.Member:
		return true
	case ast.Unary:
		return node.Data.(ast.UnaryNode).Op == token.Star
	default:
		return false
	}
}

// Declarations

func (p *Parser) parseTopLevelDecl() *ast.Node {
	tok := p.current
	baseType := p.parseTypeSpec()

	declType := p.parsePointers(baseType)
	nameTok := p.current
	_ = nameTok
	p.expect(token.Ident, "in declaration")
	name := p.previous.Value

	if p.check(token.LParen) {
		return p.parseFuncDecl(tok, name, declType)
	}
	return p.parseVarDeclRest(tok, name, baseType, declType)
}

// parseTypeSpec consumes storage-class and type-specifier keywords and folds
// them into one primitive type. Storage classes are accepted and discarded;
// signedness is accepted and discarded as well since the target treats every
// integer as a signed machine word.
func (p *Parser) parseTypeSpec() *ast.Type {
	for p.current.IsStorageClass() {
		p.advance()
	}
	if !p.current.IsTypeKeyword() {
		p.errorf(p.current, "expected a type name, found '%s'", p.current.Text())
	}

	sawSign := false
	base := ""
	for p.current.IsTypeKeyword() {
		switch p.current.Type {
		case token.Signed, token.Unsigned:
			sawSign = true
		case token.Void:
			base = "void"
		case token.Char:
			base = "char"
		case token.Short:
			base = "short"
		case token.Long:
			base = "long"
		case token.Float:
			base = "float"
		case token.Double:
			base = "double"
		case token.Bool:
			base = "bool"
		case token.Int:
			if base == "" {
				base = "int"
			}
			// "short int" and "long int" keep the modifier
		}
		p.advance()
	}
	if base == "" {
		if !sawSign {
			p.errorf(p.previous, "incomplete type specifier")
		}
		base = "int"
	}
	return ast.NewPrimitive(base)
}

func (p *Parser) parsePointers(base *ast.Type) *ast.Type {
	typ := base
	for p.match(token.Star) {
		typ = ast.PointerTo(typ)
	}
	return typ
}

// parseArraySuffix wraps typ in array layers for each bracketed size after a
// declarator name. Sizes must be integer constants; an empty pair declares an
// array of unknown size.
func (p *Parser) parseArraySuffix(typ *ast.Type) *ast.Type {
	var sizes []int64
	for p.match(token.LBracket) {
		if p.match(token.RBracket) {
			sizes = append(sizes, -1)
			continue
		}
		sizeTok := p.current
		p.expect(token.Number, "as array size")
		size, err := strconv.ParseInt(p.previous.Value, 0, 64)
		if err != nil || size < 0 {
			p.errorf(sizeTok, "array size must be a non-negative integer constant")
		}
		p.expect(token.RBracket, "after array size")
		sizes = append(sizes, size)
	}
	for i := len(sizes) - 1; i >= 0; i-- {
		typ = ast.ArrayOf(typ, sizes[i])
	}
	return typ
}

func (p *Parser) parseFuncDecl(tok token.Token, name string, returnType *ast.Type) *ast.Node {
	p.expect(token.LParen, "after function name")
	var params []*ast.Node
	if !p.check(token.RParen) {
		// A lone 'void' means an empty parameter list
		if p.check(token.Void) && p.peek().Type == token.RParen {
			p.advance()
		} else {
			for {
				params = append(params, p.parseParam())
				if !p.match(token.Comma) {
					break
				}
			}
		}
	}
	p.expect(token.RParen, "after parameter list")

	if p.match(token.Semi) {
		return ast.NewFuncDecl(tok, name, returnType, params, nil)
	}
	if !p.check(token.LBrace) {
		p.errorf(p.current, "expected '{' or ';' after function signature, found '%s'", p.current.Text())
	}
	body := p.parseBlock()
	return ast.NewFuncDecl(tok, name, returnType, params, body)
}

func (p *Parser) parseParam() *ast.Node {
	tok := p.current
	typ := p.parsePointers(p.parseTypeSpec())
	name := ""
	if p.match(token.Ident) {
		name = p.previous.Value
	}
	typ = p.parseArraySuffix(typ)
	// Array parameters decay to pointers at the call boundary
	if typ.IsArray() {
		typ = ast.PointerTo(typ.Base)
	}
	return ast.NewVarDecl(tok, name, typ, nil)
}

// parseVarDeclRest finishes a variable declaration whose base type and first
// declarator name are already consumed. A comma-separated declarator list
// becomes a MultiVarDecl so each name keeps its own pointer/array shape.
func (p *Parser) parseVarDeclRest(tok token.Token, firstName string, baseType, firstType *ast.Type) *ast.Node {
	first := p.parseDeclaratorRest(tok, firstName, firstType)
	if !p.check(token.Comma) {
		p.expect(token.Semi, "after declaration")
		return first
	}

	decls := []*ast.Node{first}
	for p.match(token.Comma) {
		declTok := p.current
		declType := p.parsePointers(baseType)
		p.expect(token.Ident, "in declaration")
		decls = append(decls, p.parseDeclaratorRest(declTok, p.previous.Value, declType))
	}
	p.expect(token.Semi, "after declaration")
	return ast.NewMultiVarDecl(tok, decls)
}

func (p *Parser) parseDeclaratorRest(tok token.Token, name string, typ *ast.Type) *ast.Node {
	typ = p.parseArraySuffix(typ)
	var init *ast.Node
	if p.match(token.Eq) {
		init = p.parseAssignmentExpr()
	}
	return ast.NewVarDecl(tok, name, typ, init)
}

func (p *Parser) parseVarDeclStmt() *ast.Node {
	tok := p.current
	baseType := p.parseTypeSpec()
	declType := p.parsePointers(baseType)
	p.expect(token.Ident, "in declaration")
	return p.parseVarDeclRest(tok, p.previous.Value, baseType, declType)
}

// Statements

func (p *Parser) parseStmt() *ast.Node {
	tok := p.current
	switch {
	case p.check(token.LBrace):
		return p.parseBlock()
	case p.current.IsTypeKeyword() || p.current.IsStorageClass():
		return p.parseVarDeclStmt()
	case p.match(token.If):
		return p.parseIf(tok)
	case p.match(token.While):
		return p.parseWhile(tok)
	case p.match(token.Do):
		return p.parseDoWhile(tok)
	case p.match(token.For):
		return p.parseFor(tok)
	case p.match(token.Switch):
		return p.parseSwitch(tok)
	case p.match(token.Return):
		var expr *ast.Node
		if !p.check(token.Semi) {
			expr = p.parseExpr()
		}
		p.expect(token.Semi, "after return statement")
		return ast.NewReturn(tok, expr)
	case p.match(token.Break):
		p.expect(token.Semi, "after 'break'")
		return ast.NewBreak(tok)
	case p.match(token.Continue):
		p.expect(token.Semi, "after 'continue'")
		return ast.NewContinue(tok)
	case p.match(token.Semi):
		return ast.NewExprStmt(tok, nil)
	default:
		expr := p.parseExpr()
		p.expect(token.Semi, "after expression")
		return ast.NewExprStmt(tok, expr)
	}
}

func (p *Parser) parseBlock() *ast.Node {
	tok := p.current
	p.expect(token.LBrace, "to open block")
	var stmts []*ast.Node
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		stmts = append(stmts, p.parseStmt())
	}
	p.expect(token.RBrace, "to close block")
	return ast.NewBlock(tok, stmts)
}

func (p *Parser) parseIf(tok token.Token) *ast.Node {
	p.expect(token.LParen, "after 'if'")
	cond := p.parseExpr()
	p.expect(token.RParen, "after if condition")
	thenStmt := p.parseStmt()
	var elseStmt *ast.Node
	if p.match(token.Else) {
		elseStmt = p.parseStmt()
	}
	return ast.NewIf(tok, cond, thenStmt, elseStmt)
}

func (p *Parser) parseWhile(tok token.Token) *ast.Node {
	p.expect(token.LParen, "after 'while'")
	cond := p.parseExpr()
	p.expect(token.RParen, "after while condition")
	return ast.NewWhile(tok, cond, p.parseStmt())
}

func (p *Parser) parseDoWhile(tok token.Token) *ast.Node {
	body := p.parseStmt()
	p.expect(token.While, "after do body")
	p.expect(token.LParen, "after 'while'")
	cond := p.parseExpr()
	p.expect(token.RParen, "after do-while condition")
	p.expect(token.Semi, "after do-while")
	return ast.NewDoWhile(tok, body, cond)
}

// parseFor keeps the init and condition clauses as (possibly empty)
// expression statements so downstream stages treat them uniformly; only the
// update clause is structurally optional.
func (p *Parser) parseFor(tok token.Token) *ast.Node {
	p.expect(token.LParen, "after 'for'")

	var init *ast.Node
	initTok := p.current
	switch {
	case p.current.IsTypeKeyword() || p.current.IsStorageClass():
		init = p.parseVarDeclStmt()
	case p.match(token.Semi):
		init = ast.NewExprStmt(initTok, nil)
	default:
		expr := p.parseExpr()
		p.expect(token.Semi, "after for initializer")
		init = ast.NewExprStmt(initTok, expr)
	}

	condTok := p.current
	var cond *ast.Node
	if p.match(token.Semi) {
		cond = ast.NewExprStmt(condTok, nil)
	} else {
		expr := p.parseExpr()
		p.expect(token.Semi, "after for condition")
		cond = ast.NewExprStmt(condTok, expr)
	}

	var update *ast.Node
	if !p.check(token.RParen) {
		update = p.parseExpr()
	}
	p.expect(token.RParen, "after for clauses")
	return ast.NewFor(tok, init, cond, update, p.parseStmt())
}

func (p *Parser) parseSwitch(tok token.Token) *ast.Node {
	p.expect(token.LParen, "after 'switch'")
	expr := p.parseExpr()
	p.expect(token.RParen, "after switch expression")

	bodyTok := p.current
	p.expect(token.LBrace, "to open switch body")
	var entries []*ast.Node
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		entryTok := p.current
		switch {
		case p.match(token.Case):
			value := p.parseTernaryExpr()
			p.expect(token.Colon, "after case value")
			entries = append(entries, ast.NewCase(entryTok, value, p.parseCaseBody()))
		case p.match(token.Default):
			p.expect(token.Colon, "after 'default'")
			entries = append(entries, ast.NewDefault(entryTok, p.parseCaseBody()))
		default:
			p.errorf(entryTok, "expected 'case' or 'default' in switch body, found '%s'", entryTok.Text())
		}
	}
	p.expect(token.RBrace, "to close switch body")
	return ast.NewSwitch(tok, expr, ast.NewBlock(bodyTok, entries))
}

func (p *Parser) parseCaseBody() *ast.Node {
	tok := p.current
	var stmts []*ast.Node
	for !p.check(token.Case) && !p.check(token.Default) && !p.check(token.RBrace) && !p.check(token.EOF) {
		stmts = append(stmts, p.parseStmt())
	}
	return ast.NewBlock(tok, stmts)
}

// Expression parsing

func getBinaryOpPrecedence(op token.Type) int {
	switch op {
	case token.Star, token.Slash, token.Rem:
		return 13
	case token.Plus, token.Minus:
		return 12
	case token.Shl, token.Shr:
		return 11
	case token.Lt, token.Gt, token.Lte, token.Gte:
		return 10
	case token.EqEq, token.Neq:
		return 9
	case token.And:
		return 8
	case token.Xor:
		return 7
	case token.Or:
		return 6
	case token.AndAnd:
		return 5
	case token.OrOr:
		return 4
	default:
		return -1
	}
}

// parseExpr handles the comma operator, the lowest level of the ladder.
func (p *Parser) parseExpr() *ast.Node {
	expr := p.parseAssignmentExpr()
	for p.check(token.Comma) {
		tok := p.current
		p.advance()
		expr = ast.NewBinary(tok, token.Comma, expr, p.parseAssignmentExpr())
	}
	return expr
}

func isAssignOp(op token.Type) bool {
	switch op {
	case token.Eq, token.PlusEq, token.MinusEq, token.StarEq, token.SlashEq:
		return true
	}
	return false
}

func (p *Parser) parseAssignmentExpr() *ast.Node {
	expr := p.parseTernaryExpr()
	if isAssignOp(p.current.Type) {
		tok := p.current
		p.advance()
		if !isLValue(expr) {
			p.errorf(tok, "left side of assignment is not assignable")
		}
		rhs := p.parseAssignmentExpr()
		return ast.NewAssign(tok, tok.Type, expr, rhs)
	}
	return expr
}

func (p *Parser) parseTernaryExpr() *ast.Node {
	cond := p.parseBinaryExpr(0)
	if !p.check(token.Question) {
		return cond
	}
	tok := p.current
	p.advance()
	thenExpr := p.parseExpr()
	p.expect(token.Colon, "in conditional expression")
	elseExpr := p.parseAssignmentExpr()
	return ast.NewTernary(tok, cond, thenExpr, elseExpr)
}

func (p *Parser) parseBinaryExpr(minPrec int) *ast.Node {
	left := p.parseUnaryExpr()
	for {
		prec := getBinaryOpPrecedence(p.current.Type)
		if prec < minPrec || prec == -1 {
			return left
		}
		tok := p.current
		p.advance()
		right := p.parseBinaryExpr(prec + 1)
		left = ast.NewBinary(tok, tok.Type, left, right)
	}
}

func (p *Parser) parseUnaryExpr() *ast.Node {
	tok := p.current
	if p.check(token.LParen) && p.peek().IsTypeKeyword() {
		p.advance()
		target := p.parsePointers(p.parseTypeSpec())
		p.expect(token.RParen, "after cast type")
		return ast.NewCast(tok, target, p.parseUnaryExpr())
	}
	if p.match(token.Sizeof) {
		return p.parseSizeof(tok)
	}
	if p.match(token.Not) || p.match(token.Complement) || p.match(token.Minus) ||
		p.match(token.Plus) || p.match(token.Inc) || p.match(token.Dec) ||
		p.match(token.Star) || p.match(token.And) {
		op := p.previous.Type
		opTok := p.previous
		operand := p.parseUnaryExpr()
		if op == token.And && !isLValue(operand) {
			p.errorf(opTok, "address-of operator '&' requires an l-value")
		}
		if (op == token.Inc || op == token.Dec) && !isLValue(operand) {
			p.errorf(opTok, "prefix '%s' requires an l-value", token.TypeStrings[op])
		}
		return ast.NewUnary(tok, op, operand)
	}
	return p.parsePostfixExpr()
}

func (p *Parser) parseSizeof(tok token.Token) *ast.Node {
	if p.check(token.LParen) && p.peek().IsTypeKeyword() {
		p.advance()
		target := p.parsePointers(p.parseTypeSpec())
		p.expect(token.RParen, "after sizeof type")
		return ast.NewSizeofType(tok, target)
	}
	return ast.NewSizeofExpr(tok, p.parseUnaryExpr())
}

func (p *Parser) parsePostfixExpr() *ast.Node {
	expr := p.parsePrimaryExpr()
	for {
		tok := p.current
		switch {
		case p.match(token.LParen):
			var args []*ast.Node
			if !p.check(token.RParen) {
				for {
					args = append(args, p.parseAssignmentExpr())
					if !p.match(token.Comma) {
						break
					}
				}
			}
			p.expect(token.RParen, "after call arguments")
			expr = ast.NewCall(tok, expr, args)
		case p.match(token.LBracket):
			index := p.parseExpr()
			p.expect(token.RBracket, "after array index")
			expr = ast.NewSubscript(tok, expr, index)
		case p.match(token.Dot), p.match(token.Arrow):
			isArrow := p.previous.Type == token.Arrow
			p.expect(token.Ident, "after member access")
			expr = ast.NewMember(tok, expr, p.previous.Value, isArrow)
		case p.match(token.Inc), p.match(token.Dec):
			if !isLValue(expr) {
				p.errorf(p.previous, "postfix '%s' requires an l-value", token.TypeStrings[p.previous.Type])
			}
			expr = ast.NewPostfix(p.previous, p.previous.Type, expr)
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimaryExpr() *ast.Node {
	tok := p.current
	switch {
	case p.match(token.Number):
		val, _ := strconv.ParseInt(p.previous.Value, 0, 64)
		return ast.NewNumber(tok, val)
	case p.match(token.FloatNumber):
		val, _ := strconv.ParseFloat(p.previous.Value, 64)
		return ast.NewFloatLit(tok, val, p.previous.Value)
	case p.match(token.CharLit):
		val, _ := strconv.ParseInt(p.previous.Value, 10, 64)
		return ast.NewCharLit(tok, val)
	case p.match(token.String):
		return ast.NewStringLit(tok, p.previous.Value)
	case p.match(token.Ident):
		switch p.previous.Value {
		case "true":
			return ast.NewBoolLit(tok, true)
		case "false":
			return ast.NewBoolLit(tok, false)
		}
		return ast.NewIdent(tok, p.previous.Value)
	case p.match(token.LParen):
		expr := p.parseExpr()
		p.expect(token.RParen, "after expression")
		return expr
	}
	p.errorf(tok, "expected an expression, found '%s'", tok.Text())
	return nil
}
