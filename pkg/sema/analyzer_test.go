package sema

import (
	"strings"
	"testing"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/ast"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/config"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/lexer"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/parser"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/util"
)

func analyze(t *testing.T, source string) (*util.Diagnostics, bool) {
	t.Helper()
	cfg := config.NewConfig()
	runes := []rune(source)
	diags := util.NewDiagnostics("test.c", runes)
	toks := lexer.New(runes, cfg, diags).Tokenize()
	root, err := parser.NewParser(toks, diags).Parse()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ok := NewAnalyzer(cfg, diags).Analyze(root)
	return diags, ok
}

func wantError(t *testing.T, source, substring string) {
	t.Helper()
	diags, ok := analyze(t, source)
	if ok {
		t.Fatalf("expected an error mentioning %q, got none", substring)
	}
	for _, d := range diags.Errors() {
		if strings.Contains(d.Message, substring) {
			return
		}
	}
	t.Fatalf("no error mentions %q; got %v", substring, diags.Errors())
}

func wantClean(t *testing.T, source string) {
	t.Helper()
	diags, ok := analyze(t, source)
	if !ok {
		t.Fatalf("expected no errors, got %v", diags.Errors())
	}
}

func TestUndeclaredIdentifier(t *testing.T) {
	wantError(t, "int main() { return x; }", "undeclared identifier 'x'")
}

func TestRedeclarationInSameScope(t *testing.T) {
	wantError(t, "int main() { int a; int a; }", "redeclaration of 'a'")
}

func TestShadowingIsAllowed(t *testing.T) {
	wantClean(t, "int main() { int a = 1; { int a = 2; return a; } }")
}

func TestUseBeforeDeclarationInBlock(t *testing.T) {
	wantError(t, "int main() { int a = b; int b = 1; return a; }", "undeclared identifier 'b'")
}

func TestCallArity(t *testing.T) {
	wantError(t, "int f(int a) { return a; } int main() { return f(1, 2); }", "expects 1 argument(s), got 2")
}

func TestCallArgumentType(t *testing.T) {
	wantError(t, "int f(int* p) { return 0; } int main() { return f(3.5); }", "cannot convert")
}

func TestCallUndeclaredFunction(t *testing.T) {
	wantError(t, "int main() { return g(); }", "undeclared function 'g'")
}

func TestVariableCalledAsFunction(t *testing.T) {
	wantError(t, "int main() { int a; return a(); }", "not a function")
}

func TestBreakOutsideLoop(t *testing.T) {
	wantError(t, "int main() { break; }", "outside of a loop")
	wantClean(t, "int main() { while (1) { break; } return 0; }")
	wantClean(t, "int main() { do { continue; } while (0); return 0; }")
}

func TestReturnOutsideFunctionIsSyntactic(t *testing.T) {
	// Return can only appear inside a function body syntactically, so the
	// analyzer's guard triggers on nothing reachable from source; loops and
	// conditions still analyze inside nested functions.
	wantClean(t, "int main() { for (;;) { break; } return 0; }")
}

func TestVoidFunctionReturningValue(t *testing.T) {
	wantError(t, "void f() { return 1; }", "returns a value")
}

func TestNonVoidReturnWithoutValueWarns(t *testing.T) {
	diags, ok := analyze(t, "int f() { return; }")
	if !ok {
		t.Fatalf("expected warning only, got errors %v", diags.Errors())
	}
	if len(diags.Warnings()) != 1 {
		t.Fatalf("expected 1 warning, got %v", diags.All())
	}
}

func TestPermissiveNumericConversions(t *testing.T) {
	wantClean(t, `
int main() {
    int i = 'c';
    double d = i;
    char c = d;
    float f = 1;
    return c + f;
}`)
}

func TestPointerRules(t *testing.T) {
	wantClean(t, "int main() { int a = 1; int* p = &a; int b = *p; void* v = p; int* q = v; return b; }")
	wantError(t, "int main() { int a; return *a; }", "cannot dereference")
	wantError(t, "int main() { int* p; char* q = p; return 0; }", "cannot initialize")
}

func TestModuloRejectsFloats(t *testing.T) {
	wantError(t, "int main() { return 5.0 % 2; }", "must be integers")
}

func TestShiftRequiresIntegers(t *testing.T) {
	wantError(t, "int main() { return 1.5 << 2; }", "must be integers")
}

func TestLogicalOperatorsYieldInt(t *testing.T) {
	wantClean(t, "int main() { int a = (1 < 2) && (3 || 0); return a; }")
}

func TestBuiltinsAreSeeded(t *testing.T) {
	wantClean(t, `
int main() {
    int n;
    printf("hello %d\n", 42);
    scanf("%d", &n);
    char* buf = malloc(16);
    strcpy(buf, "hi");
    int len = strlen(buf);
    free(buf);
    return len + n;
}`)
}

func TestPrintfNeedsFormatArgument(t *testing.T) {
	wantError(t, "int main() { printf(); return 0; }", "at least 1 argument(s)")
}

func TestPrintfExtraArgumentsUnchecked(t *testing.T) {
	wantClean(t, `int main() { printf("%d %s %f", 1, "two", 3.0); return 0; }`)
}

func TestConflictingFunctionSignature(t *testing.T) {
	wantError(t, "int f(int a); char f(int a) { return 'x'; }", "conflicting declaration")
	wantClean(t, "int f(int a); int f(int a) { return a; }")
}

func TestVoidVariable(t *testing.T) {
	wantError(t, "int main() { void v; return 0; }", "declared void")
}

func TestNonNumericConditionWarns(t *testing.T) {
	diags, ok := analyze(t, `int main() { if ("s") { return 1; } return 0; }`)
	if !ok {
		t.Fatalf("expected warnings only, got %v", diags.Errors())
	}
	// char* conditions are pointers, which are fine; only genuinely
	// non-numeric shapes warn, so this stays quiet
	if len(diags.Warnings()) != 0 {
		t.Fatalf("expected no warnings, got %v", diags.Warnings())
	}
}

func TestErrorsAccumulate(t *testing.T) {
	diags, ok := analyze(t, "int main() { x = 1; y = 2; z = 3; return 0; }")
	if ok {
		t.Fatal("expected errors")
	}
	if len(diags.Errors()) != 3 {
		t.Fatalf("expected 3 accumulated errors, got %d: %v", len(diags.Errors()), diags.Errors())
	}
}

func TestScopeTreeDirectly(t *testing.T) {
	root := NewScope(nil)
	if !root.Declare(&Symbol{Name: "a", Kind: SymVar, Type: ast.TypeInt}) {
		t.Fatal("first declaration rejected")
	}
	if root.Declare(&Symbol{Name: "a", Kind: SymVar, Type: ast.TypeInt}) {
		t.Fatal("duplicate declaration accepted")
	}
	child := NewScope(root)
	if !child.Declare(&Symbol{Name: "a", Kind: SymVar, Type: ast.TypeChar}) {
		t.Fatal("shadowing rejected")
	}
	if child.Lookup("a").Type != ast.TypeChar {
		t.Fatal("lookup did not find the innermost binding")
	}
	if child.LookupLocal("missing") != nil {
		t.Fatal("LookupLocal leaked into parent scope")
	}
	if root.Lookup("a").Type != ast.TypeInt {
		t.Fatal("outer binding clobbered by shadow")
	}
}
