// Package depgraph builds and queries the dependency graph of a Quark
// source tree: a BFS over resolved imports, cycle collapse into
// NodeSets, and topologically ordered read queries.
package depgraph

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quarklang/quarkdep/env"
	"github.com/quarklang/quarkdep/importref"
	"github.com/quarklang/quarkdep/resolve"
)

// ErrGraphFinal is returned by any mutator called after Build().
var ErrGraphFinal = errors.New("depgraph: graph is already final")

// ErrGraphNotFinal is returned by any read query called before Build().
var ErrGraphNotFinal = errors.New("depgraph: build() has not been called yet")

// ResolvedDep pairs a resolved dependency's graph key with the
// ResolvedFile that produced it.
type ResolvedDep struct {
	Path string
	File resolve.ResolvedFile
}

// FileDepsFunc resolves one file's direct dependencies. It is the
// "subclass hook" ImportGraph wires to its own method, since Go has no
// inheritance to override get_file_deps with.
type FileDepsFunc func(filename string) (resolved []ResolvedDep, unresolved []importref.Reference, err error)

// ProvenanceFunc computes the best-effort provenance of a root file
// added directly (not discovered via another file's imports).
type ProvenanceFunc func(path string) resolve.ResolvedFile

// Cycle is an ordered set of node keys discovered by the cycle finder,
// pre-flattening. A member may itself be the key of a nested Cycle.
type Cycle struct {
	Root  string
	Nodes []string
}

func (c *Cycle) String() string {
	parts := make([]string, len(c.Nodes))
	for i, n := range c.Nodes {
		parts[i] = formatRelative(c.Root, n)
	}
	return "Cycle(" + strings.Join(parts, "->") + ")"
}

func (c *Cycle) flatten(cycles map[string]*Cycle) []string {
	var out []string
	for _, n := range c.Nodes {
		if inner, ok := cycles[n]; ok {
			out = append(out, inner.flatten(cycles)...)
		} else {
			out = append(out, n)
		}
	}
	return out
}

// NodeSet is the flattened, leaf-only form of a Cycle produced on
// freeze.
type NodeSet struct {
	Root  string
	Nodes []string
}

func newNodeSet(c *Cycle, cycles map[string]*Cycle) *NodeSet {
	return &NodeSet{Root: c.Root, Nodes: c.flatten(cycles)}
}

func (s *NodeSet) String() string {
	parts := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		parts[i] = formatRelative(s.Root, n)
	}
	return "[" + strings.Join(parts, "->") + "]"
}

// Contains reports whether v is one of the set's member file paths.
func (s *NodeSet) Contains(v string) bool {
	for _, n := range s.Nodes {
		if n == v {
			return true
		}
	}
	return false
}

// DependencyGraph is mutable until Build() is called, then read-only.
// It is safe for concurrent use via the embedded RWMutex, which both
// guards the underlying maps and serializes edge insertion per source
// node (a goroutine only ever appends to the edge list of the file it
// is itself expanding).
type DependencyGraph struct {
	mu sync.RWMutex

	nodes           map[string]bool
	edges           map[string][]string
	brokenDeps      map[string][]importref.Reference
	unreadableFiles map[string]error
	sources         map[string]bool
	provenance      map[string]resolve.ResolvedFile
	cycles          map[string]*Cycle
	nodeSets        map[string]*NodeSet
	cycleCounter    int
	root            string
	rootComputed    bool
	final           bool

	fileDeps      FileDepsFunc
	provenanceFor ProvenanceFunc
}

// NewDependencyGraph builds an empty graph. fileDeps and provenanceFor
// are the two hooks a specialization (such as ImportGraph) supplies.
func NewDependencyGraph(fileDeps FileDepsFunc, provenanceFor ProvenanceFunc) *DependencyGraph {
	return &DependencyGraph{
		nodes:           make(map[string]bool),
		edges:           make(map[string][]string),
		brokenDeps:      make(map[string][]importref.Reference),
		unreadableFiles: make(map[string]error),
		sources:         make(map[string]bool),
		provenance:      make(map[string]resolve.ResolvedFile),
		cycles:          make(map[string]*Cycle),
		nodeSets:        make(map[string]*NodeSet),
		fileDeps:        fileDeps,
		provenanceFor:   provenanceFor,
	}
}

// AddFile adds filename and all of its immediate (non-transitive)
// dependencies to the graph.
func (g *DependencyGraph) AddFile(filename string) error {
	g.mu.RLock()
	final := g.final
	g.mu.RUnlock()
	if final {
		return ErrGraphFinal
	}

	g.mu.Lock()
	g.nodes[filename] = true
	g.mu.Unlock()

	resolved, unresolved, err := g.fileDeps(filename)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.final {
		return ErrGraphFinal
	}
	if err != nil {
		g.unreadableFiles[filename] = err
		return nil
	}
	for _, u := range unresolved {
		g.brokenDeps[filename] = append(g.brokenDeps[filename], u)
	}
	for _, d := range resolved {
		if _, ok := g.provenance[d.Path]; !ok {
			g.provenance[d.Path] = d.File
		}
		g.nodes[d.Path] = true
		g.edges[filename] = append(g.edges[filename], d.Path)
	}
	return nil
}

// AddFileRecursive registers root as a source and BFS-walks its
// transitive dependencies into the graph, per spec.md §4.3. When trim
// is true, files whose provenance is System or Builtin are added as
// leaf nodes but not themselves expanded.
func (g *DependencyGraph) AddFileRecursive(root string, trim bool) error {
	g.mu.Lock()
	if g.final {
		g.mu.Unlock()
		return ErrGraphFinal
	}
	g.sources[root] = true
	if _, ok := g.provenance[root]; !ok && g.provenanceFor != nil {
		g.provenance[root] = g.provenanceFor(root)
	}
	g.mu.Unlock()

	queue := []string{root}
	seen := map[string]bool{root: true}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		g.mu.Lock()
		g.nodes[f] = true
		g.mu.Unlock()

		// fileDeps runs unlocked: it may read this file and resolve its
		// imports, work that must not hold the graph lock for the
		// duration (it would also self-deadlock, since ImportGraph's
		// hook reads provenance through the same mutex).
		resolved, unresolved, err := g.fileDeps(f)
		if err != nil {
			g.mu.Lock()
			g.unreadableFiles[f] = err
			g.mu.Unlock()
			continue
		}

		g.mu.Lock()
		for _, u := range unresolved {
			g.brokenDeps[f] = append(g.brokenDeps[f], u)
		}
		for _, d := range resolved {
			if _, ok := g.provenance[d.Path]; !ok {
				g.provenance[d.Path] = d.File
			}
			alreadyInGraph := g.nodes[d.Path]
			g.nodes[d.Path] = true
			g.edges[f] = append(g.edges[f], d.Path)

			if !alreadyInGraph && !seen[d.Path] && strings.HasSuffix(d.Path, env.SourceExt) {
				if !trim || notSystemOrBuiltin(d.File) {
					seen[d.Path] = true
					queue = append(queue, d.Path)
				}
			}
		}
		g.mu.Unlock()
	}
	return nil
}

func notSystemOrBuiltin(rf resolve.ResolvedFile) bool {
	switch rf.(type) {
	case resolve.System, resolve.Builtin:
		return false
	default:
		return true
	}
}

// AddFilesRecursiveConcurrent fans independent root files out across a
// bounded errgroup, relying on the graph's own mutex for the
// first-writer-wins provenance and per-source-node edge-list
// invariants spec.md §5 requires.
func (g *DependencyGraph) AddFilesRecursiveConcurrent(ctx context.Context, roots []string, trim bool) error {
	g.mu.RLock()
	final := g.final
	g.mu.RUnlock()
	if final {
		return ErrGraphFinal
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, root := range roots {
		root := root
		eg.Go(func() error {
			return g.AddFileRecursive(root, trim)
		})
	}
	return eg.Wait()
}

// Build finalizes the graph: cycles are iteratively collapsed into
// Cycle nodes, then every Cycle is flattened into a NodeSet, and the
// graph is sealed against further mutation.
func (g *DependencyGraph) Build() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.final {
		return ErrGraphFinal
	}

	root := g.findRootLocked()
	for {
		sccs := nontrivialComponents(g, stronglyConnectedComponents(g))
		if len(sccs) == 0 {
			break
		}
		sort.Slice(sccs, func(i, j int) bool { return sccs[i][0] < sccs[j][0] })
		for _, members := range sccs {
			g.extractCycleLocked(root, members)
		}
	}

	for key, c := range g.cycles {
		g.nodeSets[key] = newNodeSet(c, g.cycles)
	}
	g.final = true
	return nil
}

func (g *DependencyGraph) extractCycleLocked(root string, members []string) {
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	key := fmt.Sprintf("\x00cycle#%d", g.cycleCounter)
	g.cycleCounter++
	g.cycles[key] = &Cycle{Root: root, Nodes: append([]string(nil), members...)}
	g.nodes[key] = true

	newEdges := make(map[string][]string, len(g.edges))
	added := make(map[string]map[string]bool)
	addEdge := func(from, to string) {
		if added[from] == nil {
			added[from] = make(map[string]bool)
		}
		if added[from][to] {
			return
		}
		added[from][to] = true
		newEdges[from] = append(newEdges[from], to)
	}

	for from, tos := range g.edges {
		fromIn := memberSet[from]
		for _, to := range tos {
			toIn := memberSet[to]
			switch {
			case fromIn && toIn:
				continue
			case fromIn:
				addEdge(key, to)
			case toIn:
				addEdge(from, key)
			default:
				addEdge(from, to)
			}
		}
	}
	g.edges = newEdges

	for _, m := range members {
		delete(g.nodes, m)
	}
}

func isSourceNode(g *DependencyGraph, key string) bool {
	if _, ok := g.nodeSets[key]; ok {
		return true
	}
	if _, ok := g.cycles[key]; ok {
		return true
	}
	return strings.HasSuffix(key, env.SourceExt)
}

// Provenance returns the recorded ResolvedFile for path, if any.
func (g *DependencyGraph) Provenance(path string) (resolve.ResolvedFile, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rf, ok := g.provenance[path]
	return rf, ok
}

// Sources returns the set of file paths added directly as roots.
func (g *DependencyGraph) Sources() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.sources))
	for s := range g.sources {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// UnreadableFiles returns the sorted set of file paths whose extractor
// failed.
func (g *DependencyGraph) UnreadableFiles() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.unreadableFiles))
	for f := range g.unreadableFiles {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// IsFinal reports whether Build() has been called.
func (g *DependencyGraph) IsFinal() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.final
}
