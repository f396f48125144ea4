// Package sema checks declarations, scopes and types over the AST. Unlike
// the parser it does not stop at the first problem: it records every error
// and warning it can find in one pass.
package sema

import (
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/ast"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/config"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/util"
)

// numericRank orders the primitive types for promotion: the wider operand
// wins. Signedness is not tracked, so signed and unsigned collapse onto the
// same rank.
var numericRank = map[string]int{
	"bool":   1,
	"char":   1,
	"short":  2,
	"int":    3,
	"long":   4,
	"float":  5,
	"double": 6,
}

type Analyzer struct {
	cfg       *config.Config
	diags     *util.Diagnostics
	scope     *Scope
	current   *Symbol // function being analyzed, nil at file scope
	loopDepth int
}

func NewAnalyzer(cfg *config.Config, diags *util.Diagnostics) *Analyzer {
	a := &Analyzer{cfg: cfg, diags: diags, scope: NewScope(nil)}
	a.declareBuiltins()
	return a
}

// declareBuiltins seeds the root scope with the C library functions the
// runtime links against. They are ordinary symbols, not keywords, so user
// code may shadow them with locals.
func (a *Analyzer) declareBuiltins() {
	intT, voidT := ast.TypeInt, ast.TypeVoid
	charPtr, voidPtr := ast.TypeCharPtr, ast.TypeVoidPtr

	builtins := []*Symbol{
		{Name: "printf", Kind: SymFunc, Type: intT, Params: []*ast.Type{charPtr}, Variadic: true},
		{Name: "scanf", Kind: SymFunc, Type: intT, Params: []*ast.Type{charPtr}, Variadic: true},
		{Name: "malloc", Kind: SymFunc, Type: voidPtr, Params: []*ast.Type{intT}},
		{Name: "free", Kind: SymFunc, Type: voidT, Params: []*ast.Type{voidPtr}},
		{Name: "strlen", Kind: SymFunc, Type: intT, Params: []*ast.Type{charPtr}},
		{Name: "strcpy", Kind: SymFunc, Type: charPtr, Params: []*ast.Type{charPtr, charPtr}},
	}
	for _, sym := range builtins {
		a.scope.Declare(sym)
	}
}

// Analyze walks the whole program. It returns false when at least one error
// was recorded; the caller reads errors and warnings off the diagnostics bag.
func (a *Analyzer) Analyze(root *ast.Node) bool {
	before := len(a.diags.Errors())
	a.analyzeNode(root)
	return len(a.diags.Errors()) == before
}

func (a *Analyzer) pushScope() { a.scope = NewScope(a.scope) }
func (a *Analyzer) popScope()  { a.scope = a.scope.parent }

func (a *Analyzer) analyzeNode(node *ast.Node) {
	if node == nil {
		return
	}
	switch node.Kind {
	case ast.Program:
		for _, decl := range node.Data.(ast.ProgramNode).Decls {
			a.analyzeNode(decl)
		}
	case ast.FuncDecl:
		a.analyzeFuncDecl(node)
	case ast.VarDecl:
		a.analyzeVarDecl(node)
	case ast.MultiVarDecl:
		for _, decl := range node.Data.(ast.MultiVarDeclNode).Decls {
			a.analyzeVarDecl(decl)
		}
	case ast.Block:
		a.pushScope()
		for _, stmt := range node.Data.(ast.BlockNode).Stmts {
			a.analyzeNode(stmt)
		}
		a.popScope()
	case ast.ExprStmt:
		if expr := node.Data.(ast.ExprStmtNode).Expr; expr != nil {
			a.analyzeExpr(expr)
		}
	case ast.If:
		d := node.Data.(ast.IfNode)
		a.checkCondition(d.Cond)
		a.analyzeNode(d.Then)
		a.analyzeNode(d.Else)
	case ast.While:
		d := node.Data.(ast.WhileNode)
		a.checkCondition(d.Cond)
		a.loopDepth++
		a.analyzeNode(d.Body)
		a.loopDepth--
	case ast.DoWhile:
		d := node.Data.(ast.DoWhileNode)
		a.loopDepth++
		a.analyzeNode(d.Body)
		a.loopDepth--
		a.checkCondition(d.Cond)
	case ast.For:
		a.analyzeFor(node)
	case ast.Switch:
		a.analyzeSwitch(node)
	case ast.Case, ast.Default:
		// Reached only through analyzeSwitch
	case ast.Return:
		a.analyzeReturn(node)
	case ast.Break:
		if a.loopDepth == 0 {
			a.diags.Errorf(node.Tok, "'break' outside of a loop")
		}
	case ast.Continue:
		if a.loopDepth == 0 {
			a.diags.Errorf(node.Tok, "'continue' outside of a loop")
		}
	default:
		a.analyzeExpr(node)
	}
}

func (a *Analyzer) analyzeFuncDecl(node *ast.Node) {
	d := node.Data.(ast.FuncDeclNode)

	var paramTypes []*ast.Type
	for _, param := range d.Params {
		paramTypes = append(paramTypes, param.Data.(ast.VarDeclNode).Type)
	}
	sym := &Symbol{Name: d.Name, Kind: SymFunc, Type: d.ReturnType, Params: paramTypes, Tok: node.Tok}

	if existing := a.scope.LookupLocal(d.Name); existing != nil {
		if existing.Kind != SymFunc || !sameSignature(existing, sym) {
			a.diags.Errorf(node.Tok, "conflicting declaration of '%s'", d.Name)
			return
		}
	} else {
		a.scope.Declare(sym)
	}

	if d.Body == nil {
		return
	}

	prev := a.current
	a.current = sym
	a.pushScope()
	for _, param := range d.Params {
		pd := param.Data.(ast.VarDeclNode)
		if pd.Name == "" {
			a.diags.Errorf(param.Tok, "parameter of function '%s' is missing a name", d.Name)
			continue
		}
		if !a.scope.Declare(&Symbol{Name: pd.Name, Kind: SymVar, Type: pd.Type, Tok: param.Tok}) {
			a.diags.Errorf(param.Tok, "duplicate parameter name '%s'", pd.Name)
		}
	}
	// The body block shares the parameter scope level semantics of C: a
	// body-level redeclaration of a parameter shadows it one level in.
	a.analyzeNode(d.Body)
	a.popScope()
	a.current = prev
}

func sameSignature(a, b *Symbol) bool {
	if !a.Type.Equal(b.Type) || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !a.Params[i].Equal(b.Params[i]) {
			return false
		}
	}
	return true
}

func (a *Analyzer) analyzeVarDecl(node *ast.Node) {
	d := node.Data.(ast.VarDeclNode)
	if d.Type.Kind == ast.TYPE_PRIMITIVE && d.Type.Name == "void" {
		a.diags.Errorf(node.Tok, "variable '%s' declared void", d.Name)
		return
	}
	if !a.scope.Declare(&Symbol{Name: d.Name, Kind: SymVar, Type: d.Type, Tok: node.Tok}) {
		a.diags.Errorf(node.Tok, "redeclaration of '%s' in the same scope", d.Name)
		return
	}
	if d.Init != nil {
		initType := a.analyzeExpr(d.Init)
		if initType != nil && !a.canConvert(initType, d.Type) {
			a.diags.Errorf(node.Tok, "cannot initialize '%s' of type %s with a value of type %s",
				d.Name, d.Type, initType)
		}
	}
}

func (a *Analyzer) analyzeFor(node *ast.Node) {
	d := node.Data.(ast.ForNode)
	a.pushScope()
	a.analyzeNode(d.Init)
	if cond := d.Cond.Data.(ast.ExprStmtNode).Expr; cond != nil {
		a.checkCondition(cond)
	}
	if d.Update != nil {
		a.analyzeExpr(d.Update)
	}
	a.loopDepth++
	a.analyzeNode(d.Body)
	a.loopDepth--
	a.popScope()
}

func (a *Analyzer) analyzeSwitch(node *ast.Node) {
	d := node.Data.(ast.SwitchNode)
	exprType := a.analyzeExpr(d.Expr)
	if exprType != nil && !a.isInteger(exprType) {
		a.diags.Errorf(d.Expr.Tok, "switch expression must have integer type, got %s", exprType)
	}
	a.loopDepth++ // break binds to the switch
	for _, entry := range d.Body.Data.(ast.BlockNode).Stmts {
		switch entry.Kind {
		case ast.Case:
			cd := entry.Data.(ast.CaseNode)
			valType := a.analyzeExpr(cd.Value)
			if valType != nil && !a.isInteger(valType) {
				a.diags.Errorf(cd.Value.Tok, "case value must have integer type, got %s", valType)
			}
			a.analyzeNode(cd.Body)
		case ast.Default:
			a.analyzeNode(entry.Data.(ast.DefaultNode).Body)
		}
	}
	a.loopDepth--
}

func (a *Analyzer) analyzeReturn(node *ast.Node) {
	d := node.Data.(ast.ReturnNode)
	if a.current == nil {
		a.diags.Errorf(node.Tok, "'return' outside of a function")
		return
	}
	isVoid := a.current.Type.Kind == ast.TYPE_PRIMITIVE && a.current.Type.Name == "void"
	if d.Expr == nil {
		if !isVoid && a.cfg.IsWarningEnabled(config.WarnNoReturn) {
			a.diags.Warnf(node.Tok, "non-void function '%s' returns without a value", a.current.Name)
		}
		return
	}
	exprType := a.analyzeExpr(d.Expr)
	if isVoid {
		a.diags.Errorf(node.Tok, "void function '%s' returns a value", a.current.Name)
		return
	}
	if exprType != nil && !a.canConvert(exprType, a.current.Type) {
		a.diags.Errorf(node.Tok, "cannot return %s from function '%s' returning %s",
			exprType, a.current.Name, a.current.Type)
	}
}

func (a *Analyzer) checkCondition(cond *ast.Node) {
	condType := a.analyzeExpr(cond)
	if condType == nil {
		return
	}
	if !a.isNumeric(condType) && !condType.IsPointer() && a.cfg.IsWarningEnabled(config.WarnNonNumericCond) {
		a.diags.Warnf(cond.Tok, "condition has non-numeric type %s", condType)
	}
}

// Expression analysis. A nil result means the subexpression already produced
// an error; callers stay silent to avoid cascading reports.

func (a *Analyzer) analyzeExpr(node *ast.Node) *ast.Type {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case ast.Number:
		return ast.TypeInt
	case ast.FloatLit:
		return ast.TypeDouble
	case ast.CharLit:
		return ast.TypeChar
	case ast.StringLit:
		return ast.TypeCharPtr
	case ast.BoolLit:
		return ast.TypeInt
	case ast.Ident:
		return a.analyzeIdent(node)
	case ast.Assign:
		return a.analyzeAssign(node)
	case ast.Binary:
		return a.analyzeBinary(node)
	case ast.Unary:
		return a.analyzeUnary(node)
	case ast.Postfix:
		return a.analyzePostfix(node)
	case ast.Ternary:
		return a.analyzeTernary(node)
	case ast.Call:
		return a.analyzeCall(node)
	case ast.Subscript:
		return a.analyzeSubscript(node)
	case ast.Member:
		a.analyzeExpr(node.Data.(ast.MemberNode).Expr)
		a.diags.Errorf(node.Tok, "member access is not supported: there are no struct types")
		return nil
	case ast.Cast:
		return a.analyzeCast(node)
	case ast.SizeofExpr:
		if d := node.Data.(ast.SizeofNode); d.Expr != nil {
			a.analyzeExpr(d.Expr)
		}
		return ast.TypeInt
	default:
		a.diags.Errorf(node.Tok, "expected an expression, found a %s node", node.Kind)
		return nil
	}
}

func (a *Analyzer) analyzeIdent(node *ast.Node) *ast.Type {
	name := node.Data.(ast.IdentNode).Name
	sym := a.scope.Lookup(name)
	if sym == nil {
		a.diags.Errorf(node.Tok, "use of undeclared identifier '%s'", name)
		return nil
	}
	if sym.Kind == SymFunc {
		a.diags.Errorf(node.Tok, "function '%s' used as a value", name)
		return nil
	}
	return sym.Type
}

func (a *Analyzer) analyzeAssign(node *ast.Node) *ast.Type {
	d := node.Data.(ast.AssignNode)
	lhsType := a.analyzeLValue(d.Lhs)
	rhsType := a.analyzeExpr(d.Rhs)
	if lhsType == nil || rhsType == nil {
		return lhsType
	}
	if d.Op != token.Eq {
		// Compound assignment desugars to an arithmetic op, so both sides
		// must be numeric.
		if !a.isNumeric(lhsType) || !a.isNumeric(rhsType) {
			a.diags.Errorf(node.Tok, "operands of '%s' must be numeric, got %s and %s",
				token.TypeStrings[d.Op], lhsType, rhsType)
			return lhsType
		}
	}
	if !a.canConvert(rhsType, lhsType) {
		a.diags.Errorf(node.Tok, "cannot assign a value of type %s to %s", rhsType, lhsType)
	}
	return lhsType
}

// analyzeLValue types the target of an assignment or increment. The parser
// already rejected structural non-lvalues, so this only resolves names and
// dereferences.
func (a *Analyzer) analyzeLValue(node *ast.Node) *ast.Type {
	return a.analyzeExpr(node)
}

func (a *Analyzer) analyzeBinary(node *ast.Node) *ast.Type {
	d := node.Data.(ast.BinaryNode)
	leftType := a.analyzeExpr(d.Left)
	rightType := a.analyzeExpr(d.Right)
	if leftType == nil || rightType == nil {
		return nil
	}

	switch d.Op {
	case token.Comma:
		return rightType
	case token.Plus, token.Minus, token.Star, token.Slash:
		if !a.isNumeric(leftType) || !a.isNumeric(rightType) {
			a.diags.Errorf(node.Tok, "operands of '%s' must be numeric, got %s and %s",
				token.TypeStrings[d.Op], leftType, rightType)
			return nil
		}
		return a.promote(leftType, rightType)
	case token.Rem:
		if !a.isInteger(leftType) || !a.isInteger(rightType) {
			a.diags.Errorf(node.Tok, "operands of '%%' must be integers, got %s and %s", leftType, rightType)
			return nil
		}
		return a.promote(leftType, rightType)
	case token.EqEq, token.Neq, token.Lt, token.Gt, token.Lte, token.Gte:
		if !a.canConvert(leftType, rightType) && !a.canConvert(rightType, leftType) {
			a.diags.Errorf(node.Tok, "cannot compare %s with %s", leftType, rightType)
		}
		return ast.TypeInt
	case token.AndAnd, token.OrOr:
		return ast.TypeInt
	case token.And, token.Or, token.Xor, token.Shl, token.Shr:
		if !a.isInteger(leftType) || !a.isInteger(rightType) {
			a.diags.Errorf(node.Tok, "operands of '%s' must be integers, got %s and %s",
				token.TypeStrings[d.Op], leftType, rightType)
			return nil
		}
		return a.promote(leftType, rightType)
	}
	a.diags.Errorf(node.Tok, "unknown binary operator '%s'", token.TypeStrings[d.Op])
	return nil
}

func (a *Analyzer) analyzeUnary(node *ast.Node) *ast.Type {
	d := node.Data.(ast.UnaryNode)
	operandType := a.analyzeExpr(d.Expr)
	if operandType == nil {
		return nil
	}
	switch d.Op {
	case token.Minus, token.Plus:
		if !a.isNumeric(operandType) {
			a.diags.Errorf(node.Tok, "operand of unary '%s' must be numeric, got %s",
				token.TypeStrings[d.Op], operandType)
			return nil
		}
		return operandType
	case token.Not:
		return ast.TypeInt
	case token.Complement:
		if !a.isInteger(operandType) {
			a.diags.Errorf(node.Tok, "operand of '~' must be an integer, got %s", operandType)
			return nil
		}
		return operandType
	case token.Inc, token.Dec:
		if !a.isNumeric(operandType) && !operandType.IsPointer() {
			a.diags.Errorf(node.Tok, "operand of '%s' must be numeric or a pointer, got %s",
				token.TypeStrings[d.Op], operandType)
			return nil
		}
		return operandType
	case token.And:
		return ast.PointerTo(operandType)
	case token.Star:
		if !operandType.IsPointer() && !operandType.IsArray() {
			a.diags.Errorf(node.Tok, "cannot dereference a value of type %s", operandType)
			return nil
		}
		return operandType.Base
	}
	a.diags.Errorf(node.Tok, "unknown unary operator '%s'", token.TypeStrings[d.Op])
	return nil
}

func (a *Analyzer) analyzePostfix(node *ast.Node) *ast.Type {
	d := node.Data.(ast.PostfixNode)
	operandType := a.analyzeExpr(d.Expr)
	if operandType == nil {
		return nil
	}
	if !a.isNumeric(operandType) && !operandType.IsPointer() {
		a.diags.Errorf(node.Tok, "operand of '%s' must be numeric or a pointer, got %s",
			token.TypeStrings[d.Op], operandType)
		return nil
	}
	return operandType
}

func (a *Analyzer) analyzeTernary(node *ast.Node) *ast.Type {
	d := node.Data.(ast.TernaryNode)
	a.checkCondition(d.Cond)
	thenType := a.analyzeExpr(d.Then)
	elseType := a.analyzeExpr(d.Else)
	if thenType == nil || elseType == nil {
		return nil
	}
	if a.isNumeric(thenType) && a.isNumeric(elseType) {
		return a.promote(thenType, elseType)
	}
	if !thenType.Equal(elseType) {
		a.diags.Errorf(node.Tok, "branches of '?:' have incompatible types %s and %s", thenType, elseType)
		return nil
	}
	return thenType
}

func (a *Analyzer) analyzeCall(node *ast.Node) *ast.Type {
	d := node.Data.(ast.CallNode)
	if d.Callee.Kind != ast.Ident {
		a.diags.Errorf(node.Tok, "called object is not a function")
		for _, arg := range d.Args {
			a.analyzeExpr(arg)
		}
		return nil
	}
	name := d.Callee.Data.(ast.IdentNode).Name
	sym := a.scope.Lookup(name)
	if sym == nil {
		a.diags.Errorf(d.Callee.Tok, "call to undeclared function '%s'", name)
		for _, arg := range d.Args {
			a.analyzeExpr(arg)
		}
		return nil
	}
	if sym.Kind != SymFunc {
		a.diags.Errorf(d.Callee.Tok, "'%s' is not a function", name)
		for _, arg := range d.Args {
			a.analyzeExpr(arg)
		}
		return nil
	}

	if sym.Variadic {
		if len(d.Args) < len(sym.Params) {
			a.diags.Errorf(node.Tok, "'%s' expects at least %d argument(s), got %d",
				name, len(sym.Params), len(d.Args))
		}
	} else if len(d.Args) != len(sym.Params) {
		a.diags.Errorf(node.Tok, "'%s' expects %d argument(s), got %d",
			name, len(sym.Params), len(d.Args))
	}

	for i, arg := range d.Args {
		argType := a.analyzeExpr(arg)
		if argType == nil || i >= len(sym.Params) {
			continue
		}
		if !a.canConvert(argType, sym.Params[i]) {
			a.diags.Errorf(arg.Tok, "argument %d of '%s': cannot convert %s to %s",
				i+1, name, argType, sym.Params[i])
		}
	}
	return sym.Type
}

func (a *Analyzer) analyzeSubscript(node *ast.Node) *ast.Type {
	d := node.Data.(ast.SubscriptNode)
	arrayType := a.analyzeExpr(d.Array)
	indexType := a.analyzeExpr(d.Index)
	if indexType != nil && !a.isInteger(indexType) {
		a.diags.Errorf(d.Index.Tok, "array index must have integer type, got %s", indexType)
	}
	if arrayType == nil {
		return nil
	}
	if !arrayType.IsArray() && !arrayType.IsPointer() {
		a.diags.Errorf(node.Tok, "subscripted value of type %s is not an array or pointer", arrayType)
		return nil
	}
	return arrayType.Base
}

func (a *Analyzer) analyzeCast(node *ast.Node) *ast.Type {
	d := node.Data.(ast.CastNode)
	exprType := a.analyzeExpr(d.Expr)
	if exprType == nil {
		return d.Target
	}
	if !a.canConvert(exprType, d.Target) {
		a.diags.Errorf(node.Tok, "cannot cast %s to %s", exprType, d.Target)
	}
	return d.Target
}

// Type predicates and conversion rules

func (a *Analyzer) isNumeric(t *ast.Type) bool {
	if t == nil || t.Kind != ast.TYPE_PRIMITIVE {
		return false
	}
	_, ok := numericRank[t.Name]
	return ok
}

func (a *Analyzer) isInteger(t *ast.Type) bool {
	return a.isNumeric(t) && numericRank[t.Name] < numericRank["float"]
}

// promote picks the wider of two numeric types.
func (a *Analyzer) promote(left, right *ast.Type) *ast.Type {
	if numericRank[right.Name] > numericRank[left.Name] {
		return right
	}
	return left
}

// canConvert reports whether a value of type from may flow into a slot of
// type to. The rules are deliberately loose: identical types always convert,
// void* converts to and from any pointer, arrays decay to pointers of their
// element type, and with the permissive-convert feature any two numeric types
// convert implicitly.
func (a *Analyzer) canConvert(from, to *ast.Type) bool {
	if from == nil || to == nil {
		return false
	}
	if from.Equal(to) {
		return true
	}
	if from.IsArray() {
		return a.canConvert(ast.PointerTo(from.Base), to)
	}
	if from.IsVoidPointer() && to.IsPointer() {
		return true
	}
	if to.IsVoidPointer() && from.IsPointer() {
		return true
	}
	if from.IsPointer() && to.IsPointer() {
		return from.Base.Equal(to.Base)
	}
	if a.cfg.IsFeatureEnabled(config.FeatPermissiveConvert) {
		return a.isNumeric(from) && a.isNumeric(to)
	}
	// Strict mode still widens, never narrows
	return a.isNumeric(from) && a.isNumeric(to) && numericRank[from.Name] <= numericRank[to.Name]
}
