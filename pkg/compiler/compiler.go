// Package compiler wires the pipeline stages together behind a small
// façade: source text in, assembly text out. Every invocation builds fresh
// stage instances and its own diagnostics bag, so concurrent compilations
// never share state.
package compiler

import (
	"errors"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/ast"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/codegen"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/config"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/lexer"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/parser"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/sema"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/util"
)

// ErrHasErrors reports that compilation stopped because the analyzer found
// semantic errors; the details live in the returned diagnostics.
var ErrHasErrors = errors.New("compilation failed")

// Result carries everything one compilation produced. Assembly is empty
// when any stage failed.
type Result struct {
	Assembly string
	AST      *ast.Node
	Diags    *util.Diagnostics
}

// Tokenize scans source without running the rest of the pipeline. Scan
// problems are recorded in the returned diagnostics; the token stream is
// always complete and ends with EOF.
func Tokenize(fileName, source string, cfg *config.Config) ([]token.Token, *util.Diagnostics) {
	runes := []rune(source)
	diags := util.NewDiagnostics(fileName, runes)
	toks := lexer.New(runes, cfg, diags).Tokenize()
	return toks, diags
}

// Compile runs the full pipeline. The returned error is the parser's fatal
// diagnostic on a syntax error, or ErrHasErrors when semantic analysis
// rejected the program; warnings alone never fail a build.
func Compile(fileName, source string, cfg *config.Config) (*Result, error) {
	runes := []rune(source)
	diags := util.NewDiagnostics(fileName, runes)
	res := &Result{Diags: diags}

	toks := lexer.New(runes, cfg, diags).Tokenize()

	root, err := parser.NewParser(toks, diags).Parse()
	if err != nil {
		return res, err
	}
	res.AST = root

	// Scan-stage diagnostics are already in the bag; only errors added from
	// here on abort the build.
	preSema := len(diags.Errors())
	sema.NewAnalyzer(cfg, diags).Analyze(root)
	if len(diags.Errors()) > preSema {
		return res, ErrHasErrors
	}

	res.Assembly = codegen.New(cfg, diags).Generate(root)
	if len(diags.Errors()) > preSema {
		res.Assembly = ""
		return res, ErrHasErrors
	}
	return res, nil
}
