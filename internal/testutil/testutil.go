// Package testutil provides small lex/parse helpers shared by the
// lexer and parser test suites.
package testutil

import (
	"github.com/quarklang/quarkdep/ast"
	"github.com/quarklang/quarkdep/lexer"
	"github.com/quarklang/quarkdep/parser"
	"github.com/quarklang/quarkdep/token"
)

func Lex(source string) []token.Token {
	l := lexer.New(source)
	return l.Tokenize()
}

func Parse(source string) (*ast.TreeNode, []string) {
	toks := Lex(source)
	p := parser.New(toks)
	node := p.Parse()
	return node, p.Errors()
}
