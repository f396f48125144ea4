// Package codegen lowers a checked AST to 32-bit x86 assembly in NASM
// syntax. The machine model is a plain stack machine: every expression
// leaves its value in eax, binary operators stage the right operand through
// the stack, and locals live at fixed offsets below ebp.
package codegen

import (
	"fmt"
	"strings"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/ast"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/config"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/util"
)

// externFuncs are the C library symbols the runtime may link against. Each
// is declared extern only when the program actually calls it.
var externFuncs = map[string]bool{
	"printf": true, "scanf": true, "malloc": true,
	"free": true, "strlen": true, "strcpy": true,
}

type Generator struct {
	cfg   *config.Config
	diags *util.Diagnostics

	text strings.Builder
	data []string
	bss  []string

	stringLabels map[string]string
	floatLabels  map[string]string
	usedExterns  map[string]bool
	globals      map[string]bool
	labelCount   int

	frame          *frame
	inMain         bool
	breakLabels    []string
	continueLabels []string
}

// frame tracks the stack layout of the function being emitted. Parameters
// sit above the saved ebp at +8 and advance by the word size; locals grow
// downward, each advancing the cursor by its own type size.
type frame struct {
	scopes []map[string]int
	cursor int
	size   int
}

func (f *frame) push() { f.scopes = append(f.scopes, make(map[string]int)) }
func (f *frame) pop()  { f.scopes = f.scopes[:len(f.scopes)-1] }

func (f *frame) bind(name string, offset int) {
	f.scopes[len(f.scopes)-1][name] = offset
}

func (f *frame) lookup(name string) (int, bool) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if off, ok := f.scopes[i][name]; ok {
			return off, true
		}
	}
	return 0, false
}

func New(cfg *config.Config, diags *util.Diagnostics) *Generator {
	return &Generator{
		cfg:          cfg,
		diags:        diags,
		stringLabels: make(map[string]string),
		floatLabels:  make(map[string]string),
		usedExterns:  make(map[string]bool),
		globals:      make(map[string]bool),
	}
}

// Generate emits the whole program as one assembly text. Generation is best
// effort: constructs the backend does not lower yet become comment markers
// instead of aborting the build.
func (g *Generator) Generate(root *ast.Node) string {
	prog := root.Data.(ast.ProgramNode)
	for _, decl := range prog.Decls {
		switch decl.Kind {
		case ast.VarDecl:
			g.globalVar(decl)
		case ast.MultiVarDecl:
			for _, d := range decl.Data.(ast.MultiVarDeclNode).Decls {
				g.globalVar(d)
			}
		}
	}
	for _, decl := range prog.Decls {
		if decl.Kind == ast.FuncDecl {
			g.funcDecl(decl)
		}
	}
	return g.build()
}

// build assembles the final text: header, data, bss, then code.
func (g *Generator) build() string {
	var sb strings.Builder
	sb.WriteString("; 32-bit x86 assembly, NASM syntax\n")
	sb.WriteString("; assemble with: nasm -f elf32, link with: ld -m elf_i386\n\n")

	sb.WriteString("section .data\n")
	for _, line := range g.data {
		sb.WriteString("    " + line + "\n")
	}
	sb.WriteString("\nsection .bss\n")
	for _, line := range g.bss {
		sb.WriteString("    " + line + "\n")
	}
	sb.WriteString("\nsection .text\n")
	sb.WriteString("    global _start\n")
	for _, name := range []string{"printf", "scanf", "malloc", "free", "strlen", "strcpy"} {
		if g.usedExterns[name] {
			sb.WriteString("    extern " + name + "\n")
		}
	}
	sb.WriteString("\n")
	sb.WriteString(g.text.String())
	return sb.String()
}

func (g *Generator) emit(format string, args ...interface{}) {
	g.text.WriteString("    " + fmt.Sprintf(format, args...) + "\n")
}

func (g *Generator) emitLabel(label string) {
	g.text.WriteString(label + ":\n")
}

func (g *Generator) newLabel(prefix string) string {
	label := fmt.Sprintf("%s_%d", prefix, g.labelCount)
	g.labelCount++
	return label
}

// typeSize is the number of stack bytes a value of type t occupies.
func typeSize(t *ast.Type) int {
	if t == nil {
		return 4
	}
	switch t.Kind {
	case ast.TYPE_POINTER:
		return 4
	case ast.TYPE_ARRAY:
		if t.ArraySize < 0 {
			return 4
		}
		return int(t.ArraySize) * typeSize(t.Base)
	}
	switch t.Name {
	case "char", "bool":
		return 1
	case "short":
		return 2
	case "double":
		return 8
	default:
		return 4
	}
}

// Data section helpers

// internString returns the label of a deduplicated string constant,
// emitting its db directive on first use.
func (g *Generator) internString(value string) string {
	if label, ok := g.stringLabels[value]; ok {
		return label
	}
	label := fmt.Sprintf("str_%d", len(g.stringLabels))
	g.stringLabels[value] = label
	g.data = append(g.data, fmt.Sprintf("%s: db %s", label, dataBytes(value)))
	return label
}

// internFloat returns the label of a deduplicated float constant.
func (g *Generator) internFloat(text string) string {
	if label, ok := g.floatLabels[text]; ok {
		return label
	}
	label := fmt.Sprintf("flt_%d", len(g.floatLabels))
	g.floatLabels[text] = label
	g.data = append(g.data, fmt.Sprintf("%s: dd %s", label, text))
	return label
}

// dataBytes renders a decoded string as a db operand list: printable runs
// stay quoted, everything else becomes a numeric byte, and a NUL terminator
// is always appended.
func dataBytes(value string) string {
	var parts []string
	var run []byte
	flush := func() {
		if len(run) > 0 {
			parts = append(parts, `"`+string(run)+`"`)
			run = nil
		}
	}
	for _, b := range []byte(value) {
		if b >= 0x20 && b < 0x7f && b != '"' {
			run = append(run, b)
		} else {
			flush()
			parts = append(parts, fmt.Sprintf("%d", b))
		}
	}
	flush()
	parts = append(parts, "0")
	return strings.Join(parts, ", ")
}

// Declarations

// globalVar places a global in .data when it has a constant initializer and
// in .bss otherwise.
func (g *Generator) globalVar(node *ast.Node) {
	d := node.Data.(ast.VarDeclNode)
	g.globals[d.Name] = true
	if d.Init == nil {
		g.bss = append(g.bss, fmt.Sprintf("%s: resb %d", d.Name, typeSize(d.Type)))
		return
	}
	value, ok := constInt(d.Init)
	if !ok {
		g.diags.Errorf(node.Tok, "initializer of global '%s' must be an integer constant", d.Name)
		return
	}
	g.data = append(g.data, fmt.Sprintf("%s: dd %d", d.Name, value))
}

// constInt folds the small constant-expression subset allowed in global
// initializers.
func constInt(node *ast.Node) (int64, bool) {
	switch node.Kind {
	case ast.Number:
		return node.Data.(ast.NumberNode).Value, true
	case ast.CharLit:
		return node.Data.(ast.CharLitNode).Value, true
	case ast.BoolLit:
		if node.Data.(ast.BoolLitNode).Value {
			return 1, true
		}
		return 0, true
	case ast.Unary:
		d := node.Data.(ast.UnaryNode)
		if value, ok := constInt(d.Expr); ok && d.Op == token.Minus {
			return -value, true
		}
	}
	return 0, false
}

func (g *Generator) funcDecl(node *ast.Node) {
	d := node.Data.(ast.FuncDeclNode)
	if d.Body == nil {
		return
	}

	g.inMain = d.Name == "main"
	if g.inMain {
		g.emitLabel("_start")
	} else {
		g.emitLabel(d.Name)
	}

	g.frame = &frame{}
	g.frame.push()
	for i, param := range d.Params {
		pd := param.Data.(ast.VarDeclNode)
		g.frame.bind(pd.Name, 8+4*i)
	}
	g.frame.size = localBytes(d.Body)

	g.emit("push ebp")
	g.emit("mov ebp, esp")
	if g.frame.size > 0 {
		g.emit("sub esp, %d", alignUp(g.frame.size, 4))
	}

	g.stmt(d.Body)

	// Fall-off return: main exits the process, everything else returns 0
	if g.inMain {
		g.emit("mov eax, 1")
		g.emit("mov ebx, 0")
		g.emit("int 0x80")
	} else {
		g.emit("mov eax, 0")
		g.epilogue()
	}
	g.text.WriteString("\n")
	g.frame.pop()
	g.frame = nil
}

func (g *Generator) epilogue() {
	g.emit("mov esp, ebp")
	g.emit("pop ebp")
	g.emit("ret")
}

func alignUp(n, to int) int { return (n + to - 1) / to * to }

// localBytes pre-computes the frame size by summing every local declared
// anywhere in the body, including nested blocks and for-loop initializers.
func localBytes(node *ast.Node) int {
	if node == nil {
		return 0
	}
	switch node.Kind {
	case ast.VarDecl:
		return typeSize(node.Data.(ast.VarDeclNode).Type)
	case ast.MultiVarDecl:
		total := 0
		for _, d := range node.Data.(ast.MultiVarDeclNode).Decls {
			total += localBytes(d)
		}
		return total
	case ast.Block:
		total := 0
		for _, stmt := range node.Data.(ast.BlockNode).Stmts {
			total += localBytes(stmt)
		}
		return total
	case ast.If:
		d := node.Data.(ast.IfNode)
		return localBytes(d.Then) + localBytes(d.Else)
	case ast.While:
		return localBytes(node.Data.(ast.WhileNode).Body)
	case ast.DoWhile:
		return localBytes(node.Data.(ast.DoWhileNode).Body)
	case ast.For:
		d := node.Data.(ast.ForNode)
		return localBytes(d.Init) + localBytes(d.Body)
	case ast.Switch:
		return localBytes(node.Data.(ast.SwitchNode).Body)
	case ast.Case:
		return localBytes(node.Data.(ast.CaseNode).Body)
	case ast.Default:
		return localBytes(node.Data.(ast.DefaultNode).Body)
	}
	return 0
}

// Statements

func (g *Generator) stmt(node *ast.Node) {
	if node == nil {
		return
	}
	switch node.Kind {
	case ast.Block:
		g.frame.push()
		for _, s := range node.Data.(ast.BlockNode).Stmts {
			g.stmt(s)
		}
		g.frame.pop()
	case ast.VarDecl:
		g.localVar(node)
	case ast.MultiVarDecl:
		for _, d := range node.Data.(ast.MultiVarDeclNode).Decls {
			g.localVar(d)
		}
	case ast.ExprStmt:
		if expr := node.Data.(ast.ExprStmtNode).Expr; expr != nil {
			g.expr(expr)
		}
	case ast.If:
		g.ifStmt(node)
	case ast.While:
		g.whileStmt(node)
	case ast.DoWhile:
		g.doWhileStmt(node)
	case ast.For:
		g.forStmt(node)
	case ast.Return:
		g.returnStmt(node)
	case ast.Break:
		if n := len(g.breakLabels); n > 0 {
			g.emit("jmp %s", g.breakLabels[n-1])
		}
	case ast.Continue:
		if n := len(g.continueLabels); n > 0 {
			g.emit("jmp %s", g.continueLabels[n-1])
		}
	default:
		g.unimplemented(node)
	}
}

// localVar reserves the next slot below ebp and stores the initializer.
func (g *Generator) localVar(node *ast.Node) {
	d := node.Data.(ast.VarDeclNode)
	g.frame.cursor += typeSize(d.Type)
	offset := -g.frame.cursor
	g.frame.bind(d.Name, offset)
	if d.Init != nil {
		g.expr(d.Init)
		g.emit("mov dword [ebp%+d], eax", offset)
	}
}

func (g *Generator) ifStmt(node *ast.Node) {
	d := node.Data.(ast.IfNode)
	elseLabel := g.newLabel("else")
	endLabel := g.newLabel("endif")

	g.expr(d.Cond)
	g.emit("cmp eax, 0")
	g.emit("je %s", elseLabel)
	g.stmt(d.Then)
	g.emit("jmp %s", endLabel)
	g.emitLabel(elseLabel)
	g.stmt(d.Else)
	g.emitLabel(endLabel)
}

func (g *Generator) whileStmt(node *ast.Node) {
	d := node.Data.(ast.WhileNode)
	startLabel := g.newLabel("while")
	endLabel := g.newLabel("endwhile")

	g.emitLabel(startLabel)
	g.expr(d.Cond)
	g.emit("cmp eax, 0")
	g.emit("je %s", endLabel)

	g.pushLoop(endLabel, startLabel)
	g.stmt(d.Body)
	g.popLoop()

	g.emit("jmp %s", startLabel)
	g.emitLabel(endLabel)
}

func (g *Generator) doWhileStmt(node *ast.Node) {
	d := node.Data.(ast.DoWhileNode)
	startLabel := g.newLabel("do")
	condLabel := g.newLabel("docond")
	endLabel := g.newLabel("enddo")

	g.emitLabel(startLabel)
	g.pushLoop(endLabel, condLabel)
	g.stmt(d.Body)
	g.popLoop()

	g.emitLabel(condLabel)
	g.expr(d.Cond)
	g.emit("cmp eax, 0")
	g.emit("jne %s", startLabel)
	g.emitLabel(endLabel)
}

func (g *Generator) forStmt(node *ast.Node) {
	d := node.Data.(ast.ForNode)
	startLabel := g.newLabel("for")
	updateLabel := g.newLabel("forupd")
	endLabel := g.newLabel("endfor")

	g.frame.push()
	g.stmt(d.Init)
	g.emitLabel(startLabel)
	if cond := d.Cond.Data.(ast.ExprStmtNode).Expr; cond != nil {
		g.expr(cond)
		g.emit("cmp eax, 0")
		g.emit("je %s", endLabel)
	}

	g.pushLoop(endLabel, updateLabel)
	g.stmt(d.Body)
	g.popLoop()

	g.emitLabel(updateLabel)
	if d.Update != nil {
		g.expr(d.Update)
	}
	g.emit("jmp %s", startLabel)
	g.emitLabel(endLabel)
	g.frame.pop()
}

func (g *Generator) pushLoop(breakLabel, continueLabel string) {
	g.breakLabels = append(g.breakLabels, breakLabel)
	g.continueLabels = append(g.continueLabels, continueLabel)
}

func (g *Generator) popLoop() {
	g.breakLabels = g.breakLabels[:len(g.breakLabels)-1]
	g.continueLabels = g.continueLabels[:len(g.continueLabels)-1]
}

func (g *Generator) returnStmt(node *ast.Node) {
	d := node.Data.(ast.ReturnNode)
	if d.Expr != nil {
		g.expr(d.Expr)
	} else {
		g.emit("mov eax, 0")
	}
	if g.inMain {
		// Exit the process with the return value as status
		g.emit("mov ebx, eax")
		g.emit("mov eax, 1")
		g.emit("int 0x80")
		return
	}
	g.epilogue()
}

func (g *Generator) unimplemented(node *ast.Node) {
	g.emit("; unimplemented: %s", node.Kind)
}

// Expressions: every case leaves its result in eax.

func (g *Generator) expr(node *ast.Node) {
	switch node.Kind {
	case ast.Number:
		g.emit("mov eax, %d", node.Data.(ast.NumberNode).Value)
	case ast.CharLit:
		g.emit("mov eax, %d", node.Data.(ast.CharLitNode).Value)
	case ast.BoolLit:
		if node.Data.(ast.BoolLitNode).Value {
			g.emit("mov eax, 1")
		} else {
			g.emit("mov eax, 0")
		}
	case ast.FloatLit:
		label := g.internFloat(node.Data.(ast.FloatLitNode).Text)
		g.emit("mov eax, dword [%s]", label)
	case ast.StringLit:
		label := g.internString(node.Data.(ast.StringLitNode).Value)
		g.emit("mov eax, %s", label)
	case ast.Ident:
		g.emit("mov eax, %s", g.varRef(node))
	case ast.Assign:
		g.assign(node)
	case ast.Binary:
		g.binary(node)
	case ast.Unary:
		g.unary(node)
	case ast.Postfix:
		g.postfix(node)
	case ast.Call:
		g.call(node)
	case ast.Cast:
		// Word-level representation is shared across types, so a cast
		// only evaluates its operand
		g.expr(node.Data.(ast.CastNode).Expr)
	case ast.SizeofExpr:
		d := node.Data.(ast.SizeofNode)
		if d.Target != nil {
			g.emit("mov eax, %d", typeSize(d.Target))
		} else {
			g.emit("mov eax, %d", typeSize(g.exprType(d.Expr)))
		}
	case ast.Ternary:
		g.ternary(node)
	default:
		g.unimplemented(node)
		g.emit("mov eax, 0")
	}
}

// varRef renders the memory operand of a named variable: an ebp offset for
// locals and parameters, a label for globals.
func (g *Generator) varRef(node *ast.Node) string {
	name := node.Data.(ast.IdentNode).Name
	if g.frame != nil {
		if offset, ok := g.frame.lookup(name); ok {
			return fmt.Sprintf("dword [ebp%+d]", offset)
		}
	}
	if g.globals[name] {
		return fmt.Sprintf("dword [%s]", name)
	}
	g.diags.Errorf(node.Tok, "no storage for identifier '%s'", name)
	return "dword [ebp+0]"
}

func (g *Generator) assign(node *ast.Node) {
	d := node.Data.(ast.AssignNode)

	if d.Op != token.Eq {
		// Compound assignment: stage the rhs, reload the target, apply the
		// operator, fall through to the plain store
		g.expr(d.Rhs)
		g.emit("push eax")
		g.lvalueLoad(d.Lhs)
		g.emit("pop ebx")
		switch d.Op {
		case token.PlusEq:
			g.emit("add eax, ebx")
		case token.MinusEq:
			g.emit("sub eax, ebx")
		case token.StarEq:
			g.emit("imul eax, ebx")
		case token.SlashEq:
			g.emit("cdq")
			g.emit("idiv ebx")
		}
	} else {
		g.expr(d.Rhs)
	}
	g.lvalueStore(d.Lhs)
}

func (g *Generator) lvalueLoad(lhs *ast.Node) {
	switch lhs.Kind {
	case ast.Ident:
		g.emit("mov eax, %s", g.varRef(lhs))
	case ast.Unary:
		g.expr(lhs)
	default:
		g.unimplemented(lhs)
		g.emit("mov eax, 0")
	}
}

// lvalueStore writes eax into the assignment target.
func (g *Generator) lvalueStore(lhs *ast.Node) {
	switch lhs.Kind {
	case ast.Ident:
		g.emit("mov %s, eax", g.varRef(lhs))
	case ast.Unary:
		d := lhs.Data.(ast.UnaryNode)
		if d.Op == token.Star {
			g.emit("push eax")
			g.expr(d.Expr)
			g.emit("mov ebx, eax")
			g.emit("pop eax")
			g.emit("mov dword [ebx], eax")
			return
		}
		g.unimplemented(lhs)
	default:
		g.unimplemented(lhs)
	}
}

// binary stages the right operand through the stack: right lands in ebx,
// left in eax.
func (g *Generator) binary(node *ast.Node) {
	d := node.Data.(ast.BinaryNode)

	if d.Op == token.Comma {
		g.expr(d.Left)
		g.expr(d.Right)
		return
	}

	g.expr(d.Right)
	g.emit("push eax")
	g.expr(d.Left)
	g.emit("pop ebx")

	switch d.Op {
	case token.Plus:
		g.emit("add eax, ebx")
	case token.Minus:
		g.emit("sub eax, ebx")
	case token.Star:
		g.emit("imul eax, ebx")
	case token.Slash:
		g.emit("cdq")
		g.emit("idiv ebx")
	case token.Rem:
		g.emit("cdq")
		g.emit("idiv ebx")
		g.emit("mov eax, edx")
	case token.EqEq:
		g.compare("sete")
	case token.Neq:
		g.compare("setne")
	case token.Lt:
		g.compare("setl")
	case token.Gt:
		g.compare("setg")
	case token.Lte:
		g.compare("setle")
	case token.Gte:
		g.compare("setge")
	case token.And:
		g.emit("and eax, ebx")
	case token.Or:
		g.emit("or eax, ebx")
	case token.Xor:
		g.emit("xor eax, ebx")
	case token.Shl:
		g.emit("mov ecx, ebx")
		g.emit("shl eax, cl")
	case token.Shr:
		g.emit("mov ecx, ebx")
		g.emit("sar eax, cl")
	case token.AndAnd:
		g.logicalAnd()
	case token.OrOr:
		g.logicalOr()
	default:
		g.unimplemented(node)
	}
}

func (g *Generator) compare(setInstr string) {
	g.emit("cmp eax, ebx")
	g.emit("%s al", setInstr)
	g.emit("movzx eax, al")
}

// logicalAnd normalizes both operands, already in eax and ebx, to a 0/1
// result. Both sides were evaluated before this point: && does not
// short-circuit.
func (g *Generator) logicalAnd() {
	falseLabel := g.newLabel("and_false")
	endLabel := g.newLabel("and_end")
	g.emit("cmp eax, 0")
	g.emit("je %s", falseLabel)
	g.emit("cmp ebx, 0")
	g.emit("je %s", falseLabel)
	g.emit("mov eax, 1")
	g.emit("jmp %s", endLabel)
	g.emitLabel(falseLabel)
	g.emit("mov eax, 0")
	g.emitLabel(endLabel)
}

func (g *Generator) logicalOr() {
	trueLabel := g.newLabel("or_true")
	endLabel := g.newLabel("or_end")
	g.emit("cmp eax, 0")
	g.emit("jne %s", trueLabel)
	g.emit("cmp ebx, 0")
	g.emit("jne %s", trueLabel)
	g.emit("mov eax, 0")
	g.emit("jmp %s", endLabel)
	g.emitLabel(trueLabel)
	g.emit("mov eax, 1")
	g.emitLabel(endLabel)
}

func (g *Generator) unary(node *ast.Node) {
	d := node.Data.(ast.UnaryNode)
	switch d.Op {
	case token.Minus:
		g.expr(d.Expr)
		g.emit("neg eax")
	case token.Plus:
		g.expr(d.Expr)
	case token.Not:
		g.expr(d.Expr)
		g.emit("cmp eax, 0")
		g.emit("sete al")
		g.emit("movzx eax, al")
	case token.Complement:
		g.expr(d.Expr)
		g.emit("not eax")
	case token.Inc, token.Dec:
		instr := "inc"
		if d.Op == token.Dec {
			instr = "dec"
		}
		if d.Expr.Kind == ast.Ident {
			ref := g.varRef(d.Expr)
			g.emit("%s %s", instr, ref)
			g.emit("mov eax, %s", ref)
			return
		}
		g.unimplemented(node)
		g.emit("mov eax, 0")
	case token.And:
		g.addressOf(d.Expr)
	case token.Star:
		g.expr(d.Expr)
		g.emit("mov eax, dword [eax]")
	default:
		g.unimplemented(node)
		g.emit("mov eax, 0")
	}
}

// addressOf leaves the address of an lvalue in eax.
func (g *Generator) addressOf(node *ast.Node) {
	switch node.Kind {
	case ast.Ident:
		name := node.Data.(ast.IdentNode).Name
		if g.frame != nil {
			if offset, ok := g.frame.lookup(name); ok {
				g.emit("lea eax, [ebp%+d]", offset)
				return
			}
		}
		if g.globals[name] {
			g.emit("mov eax, %s", name)
			return
		}
		g.diags.Errorf(node.Tok, "no storage for identifier '%s'", name)
	case ast.Unary:
		if d := node.Data.(ast.UnaryNode); d.Op == token.Star {
			g.expr(d.Expr)
			return
		}
		g.unimplemented(node)
	default:
		g.unimplemented(node)
	}
}

func (g *Generator) postfix(node *ast.Node) {
	d := node.Data.(ast.PostfixNode)
	instr := "inc"
	if d.Op == token.Dec {
		instr = "dec"
	}
	if d.Expr.Kind == ast.Ident {
		ref := g.varRef(d.Expr)
		g.emit("mov eax, %s", ref)
		g.emit("%s %s", instr, ref)
		return
	}
	g.unimplemented(node)
	g.emit("mov eax, 0")
}

func (g *Generator) ternary(node *ast.Node) {
	d := node.Data.(ast.TernaryNode)
	elseLabel := g.newLabel("tern_else")
	endLabel := g.newLabel("tern_end")
	g.expr(d.Cond)
	g.emit("cmp eax, 0")
	g.emit("je %s", elseLabel)
	g.expr(d.Then)
	g.emit("jmp %s", endLabel)
	g.emitLabel(elseLabel)
	g.expr(d.Else)
	g.emitLabel(endLabel)
}

// call pushes arguments right to left so the callee sees them in
// declaration order, then pops them after the call returns.
func (g *Generator) call(node *ast.Node) {
	d := node.Data.(ast.CallNode)
	if d.Callee.Kind != ast.Ident {
		g.unimplemented(node)
		g.emit("mov eax, 0")
		return
	}
	name := d.Callee.Data.(ast.IdentNode).Name
	if externFuncs[name] {
		g.usedExterns[name] = true
	}

	for i := len(d.Args) - 1; i >= 0; i-- {
		g.expr(d.Args[i])
		g.emit("push eax")
	}
	g.emit("call %s", name)
	if len(d.Args) > 0 {
		g.emit("add esp, %d", 4*len(d.Args))
	}
}

// exprType recovers a size-relevant type for sizeof on expressions. Only
// literals and a few shapes matter; everything else is a machine word.
func (g *Generator) exprType(node *ast.Node) *ast.Type {
	if node == nil {
		return ast.TypeInt
	}
	switch node.Kind {
	case ast.CharLit:
		return ast.TypeChar
	case ast.FloatLit:
		return ast.TypeDouble
	case ast.StringLit:
		return ast.TypeCharPtr
	case ast.Cast:
		return node.Data.(ast.CastNode).Target
	default:
		return ast.TypeInt
	}
}
