package output

import (
	"encoding/json"
	"io"

	"github.com/quarklang/quarkdep/depgraph"
)

// jsonDepsEntry mirrors depgraph.DepsEntry with exported JSON field
// names, since DepsEntry itself carries no tags.
type jsonDepsEntry struct {
	Source string   `json:"source"`
	Deps   []string `json:"deps"`
}

// jsonReport is the full machine-readable shape the CLI writes to its
// standard output when run with --json.
type jsonReport struct {
	Deps       []jsonDepsEntry `json:"deps"`
	Unresolved []string        `json:"unresolved"`
	Unreadable []string        `json:"unreadable"`
	Summary    string          `json:"summary"`
}

// RenderJSON marshals g's deps list, broken imports, and unreadable
// files to w as indented JSON.
func RenderJSON(w io.Writer, g *depgraph.DependencyGraph) error {
	entries, err := g.DepsList()
	if err != nil {
		return err
	}
	unresolved, err := g.GetAllUnresolved()
	if err != nil {
		return err
	}
	summary, err := Summary(g)
	if err != nil {
		return err
	}

	report := jsonReport{
		Unresolved: unresolved,
		Unreadable: g.UnreadableFiles(),
		Summary:    summary,
	}
	for _, e := range entries {
		report.Deps = append(report.Deps, jsonDepsEntry{Source: g.Format(e.Node), Deps: formatAll(g, e.Deps)})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func formatAll(g *depgraph.DependencyGraph, nodes []string) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = g.Format(n)
	}
	return out
}
