package depgraph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quarklang/quarkdep/env"
	"github.com/quarklang/quarkdep/extract"
	"github.com/quarklang/quarkdep/fsys"
	"github.com/quarklang/quarkdep/importref"
	"github.com/quarklang/quarkdep/resolve"
)

// ImportGraph is the DependencyGraph specialization spec.md §4.4
// describes: it knows how to read a Quark source file, extract its
// imports, and resolve them against an Environment.
type ImportGraph struct {
	*DependencyGraph

	environment *env.Environment
	extractor   extract.Extractor
	read        func(path string) (string, error)
}

func readOSFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("depgraph: read %s: %w", path, err)
	}
	return string(content), nil
}

// NewImportGraph is the factory of spec.md §4.4: build an empty graph,
// add_file_recursive every filename, build, return. Root files are
// independent fan-out points (none can appear in another's transitive
// closure before the graph exists), so spec.md §6's "one or more root
// files" positional is walked through the bounded errgroup fan-out of
// AddFilesRecursiveConcurrent rather than a sequential loop; a single
// root still takes this path, just with a group of size one.
func NewImportGraph(environment *env.Environment, filenames []string, trim bool) (*ImportGraph, error) {
	ig := &ImportGraph{
		environment: environment,
		extractor:   extract.NewQuarkExtractor(),
		read:        readOSFile,
	}
	ig.DependencyGraph = NewDependencyGraph(ig.GetFileDeps, ig.GetSourceFileProvenance)

	if err := ig.AddFilesRecursiveConcurrent(context.Background(), filenames, trim); err != nil {
		return nil, err
	}
	if err := ig.Build(); err != nil {
		return nil, err
	}
	return ig, nil
}

// GetSourceFileProvenance infers a root file's module name by
// stripping the longest matching OS-filesystem root in the
// environment's search path and dot-joining what remains.
func (ig *ImportGraph) GetSourceFileProvenance(path string) resolve.ResolvedFile {
	best := ""
	for _, layer := range ig.environment.SearchPath {
		osfs, ok := layer.(*fsys.OSFileSystem)
		if !ok {
			continue
		}
		root := osfs.Root
		if strings.HasPrefix(path, root) && len(root) > len(best) {
			best = root
		}
	}

	rel := path
	if best != "" {
		rel = strings.TrimPrefix(strings.TrimPrefix(path, best), string(filepath.Separator))
	}
	rel = strings.TrimSuffix(rel, env.SourceExt)
	moduleName := strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
	return resolve.NewDirect(path, moduleName)
}

// GetFileDeps reads filename, extracts its import statements, resolves
// each one against the environment (seeding the resolver's current
// module with filename's own recorded provenance), and returns the
// resolved/unresolved split spec.md §4.4 requires. Extension results
// (Builtin, or any native-extension path) are filtered out here, before
// being returned; the DependencyGraph BFS itself does not filter them.
func (ig *ImportGraph) GetFileDeps(filename string) ([]ResolvedDep, []importref.Reference, error) {
	source, err := ig.read(filename)
	if err != nil {
		return nil, nil, err
	}

	refs, err := ig.extractor.GetImports(filename, source)
	if err != nil {
		return nil, nil, err
	}

	current, _ := ig.DependencyGraph.Provenance(filename)
	resolver := resolve.New(ig.environment, resolve.Context{
		CurrentFilename: filename,
		CurrentModule:   current,
	})

	var resolved []ResolvedDep
	var unresolved []importref.Reference
	for _, ref := range refs {
		rf, rerr := resolver.ResolveImport(ref)
		if rerr != nil {
			unresolved = append(unresolved, ref)
			continue
		}
		if rf.IsExtension() {
			continue
		}
		resolved = append(resolved, ResolvedDep{Path: rf.Path(), File: rf})
	}
	return resolved, unresolved, nil
}
