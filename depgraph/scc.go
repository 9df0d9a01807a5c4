package depgraph

import "sort"

// tarjanState holds the bookkeeping for one run of Tarjan's strongly
// connected components algorithm over the graph's current edge set.
type tarjanState struct {
	g       *DependencyGraph
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	sccs    [][]string
}

// stronglyConnectedComponents returns every strongly connected
// component of the graph's current (pre-freeze) node/edge set, each
// sorted by path for determinism, in an order reproducible across
// identical inputs.
func stronglyConnectedComponents(g *DependencyGraph) [][]string {
	t := &tarjanState{
		g:       g,
		index:   make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
	}
	keys := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		keys = append(keys, n)
	}
	sort.Strings(keys)
	for _, n := range keys {
		if _, ok := t.index[n]; !ok {
			t.connect(n)
		}
	}
	return t.sccs
}

func (t *tarjanState) connect(v string) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	neighbors := append([]string(nil), t.g.edges[v]...)
	sort.Strings(neighbors)
	for _, w := range neighbors {
		if _, ok := t.index[w]; !ok {
			t.connect(w)
			if t.low[w] < t.low[v] {
				t.low[v] = t.low[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.low[v] {
				t.low[v] = t.index[w]
			}
		}
	}

	if t.low[v] == t.index[v] {
		var comp []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		sort.Strings(comp)
		t.sccs = append(t.sccs, comp)
	}
}

// nontrivialComponents filters sccs down to the ones that represent an
// actual cycle: size greater than one, or a lone node with a self-loop.
func nontrivialComponents(g *DependencyGraph, sccs [][]string) [][]string {
	var out [][]string
	for _, comp := range sccs {
		if len(comp) > 1 {
			out = append(out, comp)
			continue
		}
		n := comp[0]
		for _, m := range g.edges[n] {
			if m == n {
				out = append(out, comp)
				break
			}
		}
	}
	return out
}
