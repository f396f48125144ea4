package compiler

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/config"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
)

const helloSource = `
int main() {
    printf("hello\n");
    return 0;
}`

func TestCompileProducesAssembly(t *testing.T) {
	result, err := Compile("hello.c", helloSource, config.NewConfig())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	for _, want := range []string{"section .text", "global _start", "_start:", "extern printf"} {
		if !strings.Contains(result.Assembly, want) {
			t.Errorf("assembly missing %q", want)
		}
	}
	if result.AST == nil {
		t.Error("result carries no AST")
	}
}

func TestSyntaxErrorIsFatal(t *testing.T) {
	result, err := Compile("bad.c", "int main() { return }", config.NewConfig())
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if errors.Is(err, ErrHasErrors) {
		t.Fatal("syntax errors should surface as the parser diagnostic, not ErrHasErrors")
	}
	if result.Assembly != "" {
		t.Fatal("assembly produced despite syntax error")
	}
}

func TestSemanticErrorsAccumulate(t *testing.T) {
	source := "int main() { a = 1; b = 2; return 0; }"
	result, err := Compile("bad.c", source, config.NewConfig())
	if !errors.Is(err, ErrHasErrors) {
		t.Fatalf("got %v, want ErrHasErrors", err)
	}
	if len(result.Diags.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Diags.Errors())
	}
	if result.Assembly != "" {
		t.Fatal("assembly produced despite semantic errors")
	}
}

func TestWarningsDoNotFail(t *testing.T) {
	result, err := Compile("warn.c", "int f() { return; } int main() { f(); return 0; }", config.NewConfig())
	if err != nil {
		t.Fatalf("warnings should not fail the build: %v", err)
	}
	if len(result.Diags.Warnings()) == 0 {
		t.Fatal("expected at least one warning")
	}
	if result.Assembly == "" {
		t.Fatal("no assembly produced")
	}
}

func TestScanDiagnosticsAloneDoNotFail(t *testing.T) {
	// A stray character is reported and skipped; the program still compiles
	result, err := Compile("stray.c", "int main() { return 0; } @", config.NewConfig())
	if err != nil {
		t.Fatalf("scan diagnostics should not fail the build: %v", err)
	}
	if len(result.Diags.Errors()) != 1 {
		t.Fatalf("expected the stray character to be reported, got %v", result.Diags.All())
	}
	if result.Assembly == "" {
		t.Fatal("no assembly produced")
	}
}

func TestTokenize(t *testing.T) {
	toks, diags := Tokenize("t.c", "int x = 42;", config.NewConfig())
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	want := []token.Type{token.Int, token.Ident, token.Eq, token.Number, token.Semi, token.EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tok := range toks {
		if tok.Type != want[i] {
			t.Errorf("token %d: got %v, want %v", i, tok.Type, want[i])
		}
	}
}

func TestCompilationIsIdempotent(t *testing.T) {
	first, err := Compile("hello.c", helloSource, config.NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compile("hello.c", helloSource, config.NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	if first.Assembly != second.Assembly {
		t.Fatal("repeated compilation produced different assembly")
	}
}

func TestConcurrentCompilesAreIndependent(t *testing.T) {
	sources := map[string]string{
		"hello.c": helloSource,
		"math.c":  "int main() { return (3 + 4) * 2; }",
		"loop.c":  "int main() { int i; int s = 0; for (i = 0; i < 5; i++) { s += i; } return s; }",
		"bad.c":   "int main() { return missing; }",
	}

	baseline := make(map[string]string)
	for name, src := range sources {
		result, _ := Compile(name, src, config.NewConfig())
		baseline[name] = result.Assembly
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for name, src := range sources {
			wg.Add(1)
			go func(name, src string) {
				defer wg.Done()
				result, _ := Compile(name, src, config.NewConfig())
				if result.Assembly != baseline[name] {
					t.Errorf("%s: concurrent compile diverged from baseline", name)
				}
			}(name, src)
		}
	}
	wg.Wait()
}
