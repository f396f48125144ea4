// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
package ast

import (
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
)

// Kind defines the kind of a node in the AST. The set is closed: every
// pipeline stage switches exhaustively over it.
type Kind int

const (
	// Expressions
	Number Kind = iota
	FloatLit
	CharLit
	StringLit
	BoolLit
	Ident
	Assign
	Binary
	Unary
	Postfix
	Ternary
	Call
	Subscript
	Member
	Cast
	SizeofExpr

	// Statements and declarations
	Program
	FuncDecl
	VarDecl
	MultiVarDecl
	Block
	ExprStmt
	If
	While
	DoWhile
	For
	Switch
	Case
	Default
	Return
	Break
	Continue
)

var kindNames = map[Kind]string{
	Number: "Number", FloatLit: "FloatLit", CharLit: "CharLit",
	StringLit: "StringLit", BoolLit: "BoolLit", Ident: "Ident",
	Assign: "Assign", Binary: "Binary", Unary: "Unary", Postfix: "Postfix",
	Ternary: "Ternary", Call: "Call", Subscript: "Subscript",
	Member: "Member", Cast: "Cast", SizeofExpr: "Sizeof",
	Program: "Program", FuncDecl: "FuncDecl", VarDecl: "VarDecl",
	MultiVarDecl: "MultiVarDecl", Block: "Block", ExprStmt: "ExprStmt",
	If: "If", While: "While", DoWhile: "DoWhile", For: "For",
	Switch: "Switch", Case: "Case", Default: "Default",
	Return: "Return", Break: "Break", Continue: "Continue",
}

func (k Kind) String() string { return kindNames[k] }

// Node represents a node in the AST. Data holds the kind-specific payload
// struct; each node owns its children exclusively.
type Node struct {
	Kind Kind
	Tok  token.Token
	Data interface{}
}

// --- Node data structs ---

type NumberNode struct{ Value int64 }
type FloatLitNode struct{ Value float64; Text string }
type CharLitNode struct{ Value int64 }
type StringLitNode struct{ Value string }
type BoolLitNode struct{ Value bool }
type IdentNode struct{ Name string }
type AssignNode struct {
	Op       token.Type
	Lhs, Rhs *Node
}
type BinaryNode struct {
	Op          token.Type
	Left, Right *Node
}
type UnaryNode struct {
	Op   token.Type
	Expr *Node
}
type PostfixNode struct {
	Op   token.Type
	Expr *Node
}
type TernaryNode struct{ Cond, Then, Else *Node }
type CallNode struct {
	Callee *Node
	Args   []*Node
}
type SubscriptNode struct{ Array, Index *Node }
type MemberNode struct {
	Expr    *Node
	Name    string
	IsArrow bool
}
type CastNode struct {
	Target *Type
	Expr   *Node
}
type SizeofNode struct {
	// Exactly one of Expr and Target is set.
	Expr   *Node
	Target *Type
}

type ProgramNode struct{ Decls []*Node }
type FuncDeclNode struct {
	Name       string
	ReturnType *Type
	Params     []*Node // VarDecl nodes without initializers
	Body       *Node
}
type VarDeclNode struct {
	Name string
	Type *Type
	Init *Node
}
type MultiVarDeclNode struct{ Decls []*Node }
type BlockNode struct{ Stmts []*Node }
type ExprStmtNode struct{ Expr *Node } // Expr may be nil for a bare ';'
type IfNode struct{ Cond, Then, Else *Node }
type WhileNode struct{ Cond, Body *Node }
type DoWhileNode struct{ Body, Cond *Node }
type ForNode struct {
	// Init and Cond are always present as (possibly empty) expression
	// statements; Update is nil when the third clause is omitted.
	Init, Cond, Update, Body *Node
}
type SwitchNode struct{ Expr, Body *Node }
type CaseNode struct{ Value, Body *Node }
type DefaultNode struct{ Body *Node }
type ReturnNode struct{ Expr *Node } // nil for 'return;'
type BreakNode struct{}
type ContinueNode struct{}

// --- Constructors ---

func newNode(tok token.Token, kind Kind, data interface{}) *Node {
	return &Node{Kind: kind, Tok: tok, Data: data}
}

func NewNumber(tok token.Token, value int64) *Node {
	return newNode(tok, Number, NumberNode{Value: value})
}
func NewFloatLit(tok token.Token, value float64, text string) *Node {
	return newNode(tok, FloatLit, FloatLitNode{Value: value, Text: text})
}
func NewCharLit(tok token.Token, value int64) *Node {
	return newNode(tok, CharLit, CharLitNode{Value: value})
}
func NewStringLit(tok token.Token, value string) *Node {
	return newNode(tok, StringLit, StringLitNode{Value: value})
}
func NewBoolLit(tok token.Token, value bool) *Node {
	return newNode(tok, BoolLit, BoolLitNode{Value: value})
}
func NewIdent(tok token.Token, name string) *Node {
	return newNode(tok, Ident, IdentNode{Name: name})
}
func NewAssign(tok token.Token, op token.Type, lhs, rhs *Node) *Node {
	return newNode(tok, Assign, AssignNode{Op: op, Lhs: lhs, Rhs: rhs})
}
func NewBinary(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(tok, Binary, BinaryNode{Op: op, Left: left, Right: right})
}
func NewUnary(tok token.Token, op token.Type, expr *Node) *Node {
	return newNode(tok, Unary, UnaryNode{Op: op, Expr: expr})
}
func NewPostfix(tok token.Token, op token.Type, expr *Node) *Node {
	return newNode(tok, Postfix, PostfixNode{Op: op, Expr: expr})
}
func NewTernary(tok token.Token, cond, thenExpr, elseExpr *Node) *Node {
	return newNode(tok, Ternary, TernaryNode{Cond: cond, Then: thenExpr, Else: elseExpr})
}
func NewCall(tok token.Token, callee *Node, args []*Node) *Node {
	return newNode(tok, Call, CallNode{Callee: callee, Args: args})
}
func NewSubscript(tok token.Token, array, index *Node) *Node {
	return newNode(tok, Subscript, SubscriptNode{Array: array, Index: index})
}
func NewMember(tok token.Token, expr *Node, name string, isArrow bool) *Node {
	return newNode(tok, Member, MemberNode{Expr: expr, Name: name, IsArrow: isArrow})
}
func NewCast(tok token.Token, target *Type, expr *Node) *Node {
	return newNode(tok, Cast, CastNode{Target: target, Expr: expr})
}
func NewSizeofExpr(tok token.Token, expr *Node) *Node {
	return newNode(tok, SizeofExpr, SizeofNode{Expr: expr})
}
func NewSizeofType(tok token.Token, target *Type) *Node {
	return newNode(tok, SizeofExpr, SizeofNode{Target: target})
}

func NewProgram(tok token.Token, decls []*Node) *Node {
	return newNode(tok, Program, ProgramNode{Decls: decls})
}
func NewFuncDecl(tok token.Token, name string, returnType *Type, params []*Node, body *Node) *Node {
	return newNode(tok, FuncDecl, FuncDeclNode{Name: name, ReturnType: returnType, Params: params, Body: body})
}
func NewVarDecl(tok token.Token, name string, typ *Type, init *Node) *Node {
	return newNode(tok, VarDecl, VarDeclNode{Name: name, Type: typ, Init: init})
}
func NewMultiVarDecl(tok token.Token, decls []*Node) *Node {
	return newNode(tok, MultiVarDecl, MultiVarDeclNode{Decls: decls})
}
func NewBlock(tok token.Token, stmts []*Node) *Node {
	return newNode(tok, Block, BlockNode{Stmts: stmts})
}
func NewExprStmt(tok token.Token, expr *Node) *Node {
	return newNode(tok, ExprStmt, ExprStmtNode{Expr: expr})
}
func NewIf(tok token.Token, cond, thenStmt, elseStmt *Node) *Node {
	return newNode(tok, If, IfNode{Cond: cond, Then: thenStmt, Else: elseStmt})
}
func NewWhile(tok token.Token, cond, body *Node) *Node {
	return newNode(tok, While, WhileNode{Cond: cond, Body: body})
}
func NewDoWhile(tok token.Token, body, cond *Node) *Node {
	return newNode(tok, DoWhile, DoWhileNode{Body: body, Cond: cond})
}
func NewFor(tok token.Token, init, cond, update, body *Node) *Node {
	return newNode(tok, For, ForNode{Init: init, Cond: cond, Update: update, Body: body})
}
func NewSwitch(tok token.Token, expr, body *Node) *Node {
	return newNode(tok, Switch, SwitchNode{Expr: expr, Body: body})
}
func NewCase(tok token.Token, value, body *Node) *Node {
	return newNode(tok, Case, CaseNode{Value: value, Body: body})
}
func NewDefault(tok token.Token, body *Node) *Node {
	return newNode(tok, Default, DefaultNode{Body: body})
}
func NewReturn(tok token.Token, expr *Node) *Node {
	return newNode(tok, Return, ReturnNode{Expr: expr})
}
func NewBreak(tok token.Token) *Node    { return newNode(tok, Break, BreakNode{}) }
func NewContinue(tok token.Token) *Node { return newNode(tok, Continue, ContinueNode{}) }
