// Package extract reads import references out of Quark source, the way
// the lexer and parser read tokens and statements out of it.
package extract

import (
	"fmt"
	"strings"

	"github.com/quarklang/quarkdep/ast"
	"github.com/quarklang/quarkdep/importref"
	"github.com/quarklang/quarkdep/lexer"
	"github.com/quarklang/quarkdep/parser"
)

// ParseError wraps the parser's accumulated error list so callers can
// distinguish "file doesn't parse" from other extraction failures.
type ParseError struct {
	Filename string
	Errors   []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("extract: %s: %s", e.Filename, strings.Join(e.Errors, "; "))
}

// Extractor pulls the import references out of a source file's text.
type Extractor interface {
	GetImports(filename, source string) ([]importref.Reference, error)
}

// QuarkExtractor extracts imports by running the real lexer and parser
// and walking the resulting UseNode statements.
type QuarkExtractor struct{}

func NewQuarkExtractor() *QuarkExtractor { return &QuarkExtractor{} }

// GetImports lexes and parses source, then collects the importref.Reference
// values of every UseNode statement found anywhere in the compilation unit
// (one per imported name, so a from-clause list yields several).
func (QuarkExtractor) GetImports(filename, source string) ([]importref.Reference, error) {
	toks := lexer.New(source).Tokenize()
	p := parser.New(toks)
	root := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, &ParseError{Filename: filename, Errors: errs}
	}

	var refs []importref.Reference
	var walk func(n *ast.TreeNode)
	walk = func(n *ast.TreeNode) {
		if n == nil {
			return
		}
		if n.Type() == ast.UseNode {
			refs = append(refs, referencesFromUse(n)...)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return refs, nil
}

// referencesFromUse converts one UseNode's children into Reference
// values. A plain import carries a single ImportItemNode child. A
// from-clause import carries either a StarImportNode or one-or-more
// ImportItemNode children, followed by a trailing FromClauseNode.
func referencesFromUse(use *ast.TreeNode) []importref.Reference {
	var fromModule string
	isFrom := false
	for _, c := range use.Children {
		if c.Type() == ast.FromClauseNode {
			fromModule = c.TokenLiteral()
			isFrom = true
		}
	}

	var refs []importref.Reference
	for _, c := range use.Children {
		switch c.Type() {
		case ast.StarImportNode:
			refs = append(refs, importref.New(fromModule, fromModule, true, true, ""))
		case ast.ImportItemNode:
			name := c.TokenLiteral()
			newName := name
			if len(c.Children) > 0 && c.Children[0].Type() == ast.IdentifierNode {
				newName = c.Children[0].TokenLiteral()
			}
			if isFrom {
				// The resolver's candidate search wants the imported
				// symbol appended to the dotted module path it is
				// drawn from, so it can try both the full name and the
				// package-relative short name (spec.md's symbol-vs-
				// module disambiguation).
				full := joinModule(fromModule, name)
				refs = append(refs, importref.New(full, newName, true, false, ""))
			} else {
				refs = append(refs, importref.New(name, newName, false, false, ""))
			}
		}
	}
	return refs
}

func joinModule(module, name string) string {
	if module == "" {
		return name
	}
	if strings.HasSuffix(module, ".") {
		return module + name
	}
	return module + "." + name
}
