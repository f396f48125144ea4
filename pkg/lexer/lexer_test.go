package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/config"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/util"
)

func scan(t *testing.T, source string) ([]token.Token, *util.Diagnostics) {
	t.Helper()
	runes := []rune(source)
	diags := util.NewDiagnostics("test.c", runes)
	return New(runes, config.NewConfig(), diags).Tokenize(), diags
}

func kinds(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestOperatorsMaximalMunch(t *testing.T) {
	tests := []struct {
		source string
		want   []token.Type
	}{
		{"+ ++ +=", []token.Type{token.Plus, token.Inc, token.PlusEq, token.EOF}},
		{"- -- -= ->", []token.Type{token.Minus, token.Dec, token.MinusEq, token.Arrow, token.EOF}},
		{"< << <=", []token.Type{token.Lt, token.Shl, token.Lte, token.EOF}},
		{"> >> >=", []token.Type{token.Gt, token.Shr, token.Gte, token.EOF}},
		{"= == != !", []token.Type{token.Eq, token.EqEq, token.Neq, token.Not, token.EOF}},
		{"& && | ||", []token.Type{token.And, token.AndAnd, token.Or, token.OrOr, token.EOF}},
		{"* *= / /= % ^ ~", []token.Type{token.Star, token.StarEq, token.Slash, token.SlashEq, token.Rem, token.Xor, token.Complement, token.EOF}},
	}
	for _, tt := range tests {
		toks, diags := scan(t, tt.source)
		if diags.HasErrors() {
			t.Errorf("%q: unexpected errors: %v", tt.source, diags.Errors())
		}
		if diff := cmp.Diff(tt.want, kinds(toks)); diff != "" {
			t.Errorf("%q: token kinds mismatch (-want +got):\n%s", tt.source, diff)
		}
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks, _ := scan(t, "int main while printf _x x9")
	want := []token.Type{token.Int, token.Ident, token.While, token.Ident, token.Ident, token.Ident, token.EOF}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Fatalf("token kinds mismatch (-want +got):\n%s", diff)
	}
	// printf is a library function, not a keyword
	if toks[3].Value != "printf" {
		t.Errorf("expected identifier 'printf', got %q", toks[3].Value)
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		source   string
		wantType token.Type
		want     string
	}{
		{"42", token.Number, "42"},
		{"0x1F", token.Number, "0x1F"},
		{"0755", token.Number, "0755"},
		{"10u", token.Number, "10"},
		{"10UL", token.Number, "10"},
		{"3.14", token.FloatNumber, "3.14"},
		{"3.14f", token.FloatNumber, "3.14"},
		{"1e9", token.FloatNumber, "1e9"},
		{"2.5e-3", token.FloatNumber, "2.5e-3"},
		{".5", token.FloatNumber, ".5"},
	}
	for _, tt := range tests {
		toks, diags := scan(t, tt.source)
		if diags.HasErrors() {
			t.Errorf("%q: unexpected errors: %v", tt.source, diags.Errors())
			continue
		}
		if toks[0].Type != tt.wantType {
			t.Errorf("%q: got token type %v, want %v", tt.source, toks[0].Type, tt.wantType)
		}
		if toks[0].Value != tt.want {
			t.Errorf("%q: got value %q, want %q", tt.source, toks[0].Value, tt.want)
		}
	}
}

func TestCharLiteralDecoding(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"'A'", "65"},
		{`'\n'`, "10"},
		{`'\0'`, "0"},
		{`'\x41'`, "65"},
		{`'\''`, "39"},
	}
	for _, tt := range tests {
		toks, diags := scan(t, tt.source)
		if diags.HasErrors() {
			t.Errorf("%s: unexpected errors: %v", tt.source, diags.Errors())
			continue
		}
		if toks[0].Type != token.CharLit || toks[0].Value != tt.want {
			t.Errorf("%s: got (%v, %q), want (CharLit, %q)", tt.source, toks[0].Type, toks[0].Value, tt.want)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	toks, diags := scan(t, `"line\n\ttab\\"`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	if toks[0].Value != "line\n\ttab\\" {
		t.Errorf("got %q", toks[0].Value)
	}
}

func TestUnrecognizedEscapeWarns(t *testing.T) {
	toks, diags := scan(t, `"bad\q"`)
	if len(diags.Warnings()) != 1 {
		t.Fatalf("expected 1 warning, got %v", diags.All())
	}
	// The raw character is kept
	if toks[0].Value != "badq" {
		t.Errorf("got %q, want %q", toks[0].Value, "badq")
	}
}

func TestComments(t *testing.T) {
	toks, diags := scan(t, "a // line comment\nb /* block\ncomment */ c")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	want := []token.Type{token.Ident, token.Ident, token.Ident, token.EOF}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Fatalf("token kinds mismatch (-want +got):\n%s", diff)
	}
	// Block comments count their newlines
	if toks[2].Line != 3 {
		t.Errorf("token after block comment on line %d, want 3", toks[2].Line)
	}
}

func TestDirectiveLinesAreDiscarded(t *testing.T) {
	toks, diags := scan(t, "#include <stdio.h>\nint")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	if toks[0].Type != token.Int {
		t.Fatalf("got %v, want Int", toks[0].Type)
	}
	if toks[0].Line != 2 {
		t.Errorf("got line %d, want 2", toks[0].Line)
	}
}

func TestUnrecognizedCharacterIsSkipped(t *testing.T) {
	toks, diags := scan(t, "a @ b")
	if len(diags.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %v", diags.All())
	}
	// The stream continues past the bad character and still ends in EOF
	want := []token.Type{token.Ident, token.Ident, token.EOF}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Fatalf("token kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLinesNeverDecrease(t *testing.T) {
	toks, _ := scan(t, "a\nb\n\nc d\ne")
	prev := 0
	for _, tok := range toks {
		if tok.Line < prev {
			t.Fatalf("line went backwards: %d after %d", tok.Line, prev)
		}
		prev = tok.Line
	}
}

func TestOverflowWarning(t *testing.T) {
	_, diags := scan(t, "99999999999999999999")
	if len(diags.Warnings()) != 1 {
		t.Fatalf("expected 1 overflow warning, got %v", diags.All())
	}
}
