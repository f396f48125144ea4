package codegen

import (
	"strings"
	"testing"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/config"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/lexer"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/parser"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/sema"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/util"
)

func generate(t *testing.T, source string) string {
	t.Helper()
	cfg := config.NewConfig()
	runes := []rune(source)
	diags := util.NewDiagnostics("test.c", runes)
	toks := lexer.New(runes, cfg, diags).Tokenize()
	root, err := parser.NewParser(toks, diags).Parse()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !sema.NewAnalyzer(cfg, diags).Analyze(root) {
		t.Fatalf("analysis failed: %v", diags.Errors())
	}
	asm := New(cfg, diags).Generate(root)
	if diags.HasErrors() {
		t.Fatalf("generation failed: %v", diags.Errors())
	}
	return asm
}

// wantSequence asserts the lines appear in the assembly in order, not
// necessarily adjacent.
func wantSequence(t *testing.T, asm string, lines ...string) {
	t.Helper()
	rest := asm
	for _, line := range lines {
		idx := strings.Index(rest, line)
		if idx < 0 {
			t.Fatalf("missing %q (in order) in assembly:\n%s", line, asm)
		}
		rest = rest[idx+len(line):]
	}
}

func TestEmptyMainSkeleton(t *testing.T) {
	asm := generate(t, "int main() { return 0; }")
	wantSequence(t, asm,
		"section .data",
		"section .bss",
		"section .text",
		"global _start",
		"_start:",
		"push ebp",
		"mov ebp, esp",
		"mov eax, 0",
		"mov ebx, eax",
		"mov eax, 1",
		"int 0x80",
	)
	if strings.Contains(asm, "extern") {
		t.Errorf("no externs expected, got:\n%s", asm)
	}
}

func TestMainFallOffExitsWithZero(t *testing.T) {
	asm := generate(t, "int main() { }")
	wantSequence(t, asm, "_start:", "mov eax, 1", "mov ebx, 0", "int 0x80")
}

func TestBinaryOperandOrder(t *testing.T) {
	// The right operand is evaluated first and staged through the stack;
	// the subtraction sees left in eax and right in ebx
	asm := generate(t, "int main() { int a = 7 - 3; return a; }")
	wantSequence(t, asm,
		"mov eax, 3",
		"push eax",
		"mov eax, 7",
		"pop ebx",
		"sub eax, ebx",
	)
}

func TestDivisionAndRemainder(t *testing.T) {
	asm := generate(t, "int main() { int q = 7 / 2; int r = 7 % 2; return q + r; }")
	wantSequence(t, asm, "cdq", "idiv ebx")
	wantSequence(t, asm, "cdq", "idiv ebx", "cdq", "idiv ebx", "mov eax, edx")
}

func TestComparisonProducesFlag(t *testing.T) {
	asm := generate(t, "int main() { return 1 < 2; }")
	wantSequence(t, asm, "cmp eax, ebx", "setl al", "movzx eax, al")
}

func TestShiftUsesCl(t *testing.T) {
	asm := generate(t, "int main() { return 1 << 3; }")
	wantSequence(t, asm, "mov ecx, ebx", "shl eax, cl")
}

func TestLocalsAdvanceByTypeSize(t *testing.T) {
	asm := generate(t, `
int main() {
    char c = 'x';
    int i = 1;
    double d = 2.5;
    int j = 3;
    return i + j;
}`)
	// char at -1, int at -5, double at -13, int at -17
	wantSequence(t, asm, "mov dword [ebp-1], eax")
	wantSequence(t, asm, "mov dword [ebp-5], eax")
	wantSequence(t, asm, "mov dword [ebp-13], eax")
	wantSequence(t, asm, "mov dword [ebp-17], eax")
}

func TestParametersStartAtPlusEight(t *testing.T) {
	asm := generate(t, "int add(int a, int b) { return a + b; }")
	wantSequence(t, asm, "add:", "push ebp")
	if !strings.Contains(asm, "[ebp+8]") || !strings.Contains(asm, "[ebp+12]") {
		t.Fatalf("parameters not at +8/+12:\n%s", asm)
	}
	// Non-main functions return through a frame epilogue
	wantSequence(t, asm, "mov esp, ebp", "pop ebp", "ret")
}

func TestCallPushesArgsInReverse(t *testing.T) {
	asm := generate(t, `
int add(int a, int b) { return a + b; }
int main() { return add(1, 2); }`)
	wantSequence(t, asm,
		"mov eax, 2",
		"push eax",
		"mov eax, 1",
		"push eax",
		"call add",
		"add esp, 8",
	)
}

func TestPrintfExternAndStringInterning(t *testing.T) {
	asm := generate(t, `
int main() {
    printf("hi\n");
    printf("hi\n");
    printf("bye\n");
    return 0;
}`)
	if !strings.Contains(asm, "extern printf") {
		t.Fatalf("missing extern printf:\n%s", asm)
	}
	if strings.Contains(asm, "extern scanf") {
		t.Fatalf("scanf extern emitted without use:\n%s", asm)
	}
	// Two distinct strings, the repeated one deduplicated
	if !strings.Contains(asm, "str_0: db ") || !strings.Contains(asm, "str_1: db ") {
		t.Fatalf("expected two interned strings:\n%s", asm)
	}
	if strings.Contains(asm, "str_2:") {
		t.Fatalf("duplicate string was not deduplicated:\n%s", asm)
	}
	if strings.Count(asm, "push str_0")+strings.Count(asm, "mov eax, str_0") < 2 {
		t.Fatalf("both printf calls should reference str_0:\n%s", asm)
	}
}

func TestScanfTakesAddress(t *testing.T) {
	asm := generate(t, `int main() { int n; scanf("%d", &n); return n; }`)
	wantSequence(t, asm, "lea eax, [ebp-4]", "push eax", "call scanf")
}

func TestFloatLiteralsDeduplicated(t *testing.T) {
	asm := generate(t, `
int main() {
    double a = 3.14;
    double b = 3.14;
    double c = 2.71;
    return 0;
}`)
	if !strings.Contains(asm, "flt_0: dd 3.14") || !strings.Contains(asm, "flt_1: dd 2.71") {
		t.Fatalf("float constants missing:\n%s", asm)
	}
	if strings.Contains(asm, "flt_2:") {
		t.Fatalf("duplicate float was not deduplicated:\n%s", asm)
	}
}

func TestGlobalsPlacement(t *testing.T) {
	asm := generate(t, `
int initialized = 7;
int uninitialized;
int main() { return initialized + uninitialized; }`)
	dataIdx := strings.Index(asm, "section .data")
	bssIdx := strings.Index(asm, "section .bss")
	textIdx := strings.Index(asm, "section .text")
	initIdx := strings.Index(asm, "initialized: dd 7")
	uninitIdx := strings.Index(asm, "uninitialized: resb 4")
	if initIdx < dataIdx || initIdx > bssIdx {
		t.Fatalf("initialized global not in .data:\n%s", asm)
	}
	if uninitIdx < bssIdx || uninitIdx > textIdx {
		t.Fatalf("uninitialized global not in .bss:\n%s", asm)
	}
	wantSequence(t, asm, "[initialized]")
}

func TestLabelsAreUnique(t *testing.T) {
	asm := generate(t, `
int main() {
    int i;
    for (i = 0; i < 3; i++) {
        if (i == 1) { continue; }
        while (i > 5) { break; }
    }
    if (i) { i = 0; } else { i = 1; }
    return i && 1 || 0;
}`)
	seen := make(map[string]bool)
	for _, line := range strings.Split(asm, "\n") {
		if strings.HasSuffix(line, ":") && !strings.HasPrefix(line, " ") {
			label := strings.TrimSuffix(line, ":")
			if seen[label] {
				t.Fatalf("label %q defined twice:\n%s", label, asm)
			}
			seen[label] = true
		}
	}
}

func TestNonShortCircuitLogical(t *testing.T) {
	// Both operands are evaluated before the 0/1 normalization
	asm := generate(t, "int f() { return 1; } int main() { return 0 && f(); }")
	callIdx := strings.Index(asm, "call f")
	if callIdx < 0 {
		t.Fatalf("right operand call not emitted, && must not short-circuit:\n%s", asm)
	}
}

func TestUnimplementedConstructsAreMarked(t *testing.T) {
	asm := generate(t, `
int main() {
    int x = 1;
    switch (x) {
    case 1:
        break;
    }
    return 0;
}`)
	if !strings.Contains(asm, "; unimplemented: Switch") {
		t.Fatalf("switch placeholder missing:\n%s", asm)
	}
}

func TestGenerationIsDeterministic(t *testing.T) {
	source := `
int helper(int n) { return n * 2; }
int main() {
    int total = 0;
    int i;
    for (i = 0; i < 4; i++) { total += helper(i); }
    printf("%d\n", total);
    return total;
}`
	first := generate(t, source)
	second := generate(t, source)
	if first != second {
		t.Fatal("same input produced different assembly")
	}
}

func TestDataBytes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hi", `"hi", 0`},
		{"a\nb", `"a", 10, "b", 0`},
		{"", `0`},
		{"say \"hi\"", `"say ", 34, "hi", 34, 0`},
	}
	for _, tt := range tests {
		if got := dataBytes(tt.in); got != tt.want {
			t.Errorf("dataBytes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
