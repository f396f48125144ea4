package sema

import (
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/ast"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
)

type SymbolKind int

const (
	SymVar SymbolKind = iota
	SymFunc
)

// Symbol is one declared name. Functions carry their parameter types; the
// variadic flag marks the I/O builtins that accept a format string plus any
// number of extra arguments.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Type     *ast.Type // variable type, or function return type
	Params   []*ast.Type
	Variadic bool
	Tok      token.Token
}

// Scope is one level of the lexical scope tree. Lookups walk outward;
// declaration collisions are only checked against the current level, so inner
// scopes may shadow outer names.
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: make(map[string]*Symbol)}
}

// Declare binds a symbol in this scope. It reports false when the name is
// already bound at this level.
func (s *Scope) Declare(sym *Symbol) bool {
	if _, exists := s.symbols[sym.Name]; exists {
		return false
	}
	s.symbols[sym.Name] = sym
	return true
}

// Lookup resolves a name through the scope chain, innermost first.
func (s *Scope) Lookup(name string) *Symbol {
	for scope := s; scope != nil; scope = scope.parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupLocal resolves a name in this scope only.
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.symbols[name]
}
