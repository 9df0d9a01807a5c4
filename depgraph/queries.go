package depgraph

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quarklang/quarkdep/env"
)

// DepsEntry is one (node, direct source-node dependencies) pair, as
// returned by DepsList.
type DepsEntry struct {
	Node string
	Deps []string
}

// topoOrderLocked returns a topological order (edge u->v implies u
// appears before v) via Kahn's algorithm, breaking ties by sorting the
// frontier and each node's neighbor list by path — the stability
// spec.md §5 requires for repeatable output across identical inputs.
// Callers must already hold g.mu.
func (g *DependencyGraph) topoOrderLocked() []string {
	indeg := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		indeg[n] = 0
	}
	for _, tos := range g.edges {
		for _, to := range tos {
			indeg[to]++
		}
	}

	var frontier []string
	for n, d := range indeg {
		if d == 0 {
			frontier = append(frontier, n)
		}
	}
	sort.Strings(frontier)

	order := make([]string, 0, len(g.nodes))
	for len(frontier) > 0 {
		sort.Strings(frontier)
		n := frontier[0]
		frontier = frontier[1:]
		order = append(order, n)

		neighbors := append([]string(nil), g.edges[n]...)
		sort.Strings(neighbors)
		for _, m := range neighbors {
			indeg[m]--
			if indeg[m] == 0 {
				frontier = append(frontier, m)
			}
		}
	}
	return order
}

// SortedSourceFiles returns targets in topological order, reversed so
// dependencies precede dependents; each NodeSet is emitted as its
// member list, and non-source nodes are skipped.
func (g *DependencyGraph) SortedSourceFiles() ([][]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.final {
		return nil, ErrGraphNotFinal
	}

	order := g.topoOrderLocked()
	var out [][]string
	for _, n := range order {
		if ns, ok := g.nodeSets[n]; ok {
			out = append(out, append([]string(nil), ns.Nodes...))
		} else if strings.HasSuffix(n, env.SourceExt) {
			out = append(out, []string{n})
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// DepsList returns (node, direct source-node dependencies) in
// topological order, filtered to source nodes only.
func (g *DependencyGraph) DepsList() ([]DepsEntry, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.final {
		return nil, ErrGraphNotFinal
	}
	return g.depsListLocked(), nil
}

func (g *DependencyGraph) depsListLocked() []DepsEntry {
	var out []DepsEntry
	for _, n := range g.topoOrderLocked() {
		if !isSourceNode(g, n) {
			continue
		}
		var deps []string
		neighbors := append([]string(nil), g.edges[n]...)
		sort.Strings(neighbors)
		for _, m := range neighbors {
			if isSourceNode(g, m) {
				deps = append(deps, m)
			}
		}
		out = append(out, DepsEntry{Node: n, Deps: deps})
	}
	return out
}

// GetAllUnresolved returns the deduplicated union of every file's
// broken_deps, sorted by the importing file path for determinism.
func (g *DependencyGraph) GetAllUnresolved() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.final {
		return nil, ErrGraphNotFinal
	}

	keys := make([]string, 0, len(g.brokenDeps))
	for f := range g.brokenDeps {
		keys = append(keys, f)
	}
	sort.Strings(keys)

	seen := make(map[string]bool)
	var out []string
	for _, f := range keys {
		for _, ref := range g.brokenDeps[f] {
			s := ref.String()
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// BrokenDeps returns the unresolved import references recorded while
// scanning filename.
func (g *DependencyGraph) BrokenDeps(filename string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	refs := g.brokenDeps[filename]
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}

// FindRoot returns the best-effort common directory prefix of every
// edge source in the graph, used to shorten paths in pretty output.
func (g *DependencyGraph) FindRoot() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.findRootLocked()
}

func (g *DependencyGraph) findRootLocked() string {
	if g.rootComputed {
		return g.root
	}
	g.rootComputed = true

	var keys []string
	for from := range g.edges {
		keys = append(keys, from)
	}
	if len(keys) == 0 {
		g.root = ""
		return g.root
	}
	sort.Strings(keys)
	prefix := commonPrefix(keys)
	if info, err := os.Stat(prefix); err != nil || !info.IsDir() {
		prefix = filepath.Dir(prefix)
	}
	g.root = prefix
	return g.root
}

func commonPrefix(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	prefix := ss[0]
	for _, s := range ss[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

func formatRelative(root, node string) string {
	if root == "" {
		return node
	}
	if rel, err := filepath.Rel(root, node); err == nil {
		return rel
	}
	return node
}

// Format renders a node key for display: a NodeSet or Cycle's own
// pretty form, or the node's path relative to FindRoot().
func (g *DependencyGraph) Format(node string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.formatLocked(node)
}

func (g *DependencyGraph) formatLocked(node string) string {
	if ns, ok := g.nodeSets[node]; ok {
		return ns.String()
	}
	if c, ok := g.cycles[node]; ok {
		return c.String()
	}
	return formatRelative(g.findRootLocked(), node)
}

// PrintTree walks from every in-degree-zero node in topological order
// and prints an indented tree of source-node dependencies.
func (g *DependencyGraph) PrintTree(w io.Writer) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.final {
		return ErrGraphNotFinal
	}

	indeg := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		indeg[n] = 0
	}
	for _, tos := range g.edges {
		for _, to := range tos {
			indeg[to]++
		}
	}

	seen := make(map[string]bool)
	for _, n := range g.topoOrderLocked() {
		if indeg[n] != 0 {
			continue
		}
		g.printTreeNode(w, n, seen, 0)
	}
	return nil
}

func (g *DependencyGraph) printTreeNode(w io.Writer, n string, seen map[string]bool, indent int) {
	if seen[n] || !isSourceNode(g, n) {
		return
	}
	seen[n] = true
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", indent), g.formatLocked(n))
	neighbors := append([]string(nil), g.edges[n]...)
	sort.Strings(neighbors)
	for _, m := range neighbors {
		g.printTreeNode(w, m, seen, indent+1)
	}
}

// PrintTopologicalSort prints every source node in topological order.
func (g *DependencyGraph) PrintTopologicalSort(w io.Writer) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.final {
		return ErrGraphNotFinal
	}
	for _, n := range g.topoOrderLocked() {
		if isSourceNode(g, n) {
			fmt.Fprintln(w, g.formatLocked(n))
		}
	}
	return nil
}

// FormattedDepsList renders DepsList as the "source: ... / deps: ..."
// text block that output.Reporter.RenderDepsList prints.
func (g *DependencyGraph) FormattedDepsList() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.final {
		return "", ErrGraphNotFinal
	}

	var b strings.Builder
	for _, e := range g.depsListLocked() {
		fmt.Fprintf(&b, "source: %s\n", g.formatLocked(e.Node))
		if len(e.Deps) > 0 {
			b.WriteString("deps:\n")
			for _, d := range e.Deps {
				fmt.Fprintf(&b, "  %s\n", g.formatLocked(d))
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
