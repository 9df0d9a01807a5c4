// Package output renders a built dependency graph as colorized terminal
// text, a plain topological listing, or JSON, and prints the
// humanize-backed one-line CLI summary.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/quarklang/quarkdep/depgraph"
)

// Reporter renders graph query results to a writer, with colors gated
// on whether that writer is a terminal (and NO_COLOR is unset).
type Reporter struct {
	w         io.Writer
	color     bool
	bold      *color.Color
	yellow    *color.Color
	red       *color.Color
	dim       *color.Color
	isProject IsProjectFunc
}

// NewReporter builds a Reporter for w. If w is an *os.File, color is
// enabled only when it is a real terminal (or Cygwin terminal) and
// NO_COLOR is not set; any other writer (a buffer, a file being
// redirected to) gets plain text.
func NewReporter(w io.Writer) *Reporter {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = os.Getenv("NO_COLOR") == "" &&
			(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	}
	return &Reporter{
		w:      w,
		color:  useColor,
		bold:   color.New(color.Bold),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
		dim:    color.New(color.FgHiBlack),
	}
}

func (r *Reporter) fprintf(c *color.Color, format string, args ...any) {
	if r.color {
		c.Fprintf(r.w, format, args...)
		return
	}
	fmt.Fprintf(r.w, format, args...)
}

// IsProjectFunc reports whether a file path was listed under a
// .quarkdep.yml's projects: prefix list — the only distinction the
// core's own consumer (this package) draws between projects and deps:
// deps files still resolve and appear in the graph, but their broken
// imports are not reported as errors.
type IsProjectFunc func(path string) bool

// ReportProjectsOnly restricts broken-import reporting to files
// isProject accepts; nil (the default) reports every broken import.
func (r *Reporter) ReportProjectsOnly(isProject IsProjectFunc) {
	r.isProject = isProject
}

// RenderTree prints g's dependency tree, then the broken-import and
// unreadable-file summaries. The tree lines themselves are not colored;
// only the heading and the summaries are.
func (r *Reporter) RenderTree(g *depgraph.DependencyGraph) error {
	r.fprintf(r.bold, "dependency tree:\n")
	if err := g.PrintTree(r.w); err != nil {
		return err
	}
	return r.renderBrokenAndUnreadable(g)
}

// RenderTopoSort prints g's sources in topological order, then the
// broken-import and unreadable-file summaries.
func (r *Reporter) RenderTopoSort(g *depgraph.DependencyGraph) error {
	r.fprintf(r.bold, "topological order:\n")
	if err := g.PrintTopologicalSort(r.w); err != nil {
		return err
	}
	return r.renderBrokenAndUnreadable(g)
}

// RenderDepsList prints the "source: ... / deps: ..." block format.
func (r *Reporter) RenderDepsList(g *depgraph.DependencyGraph) error {
	text, err := g.FormattedDepsList()
	if err != nil {
		return err
	}
	fmt.Fprintln(r.w, text)
	return r.renderBrokenAndUnreadable(g)
}

func (r *Reporter) renderBrokenAndUnreadable(g *depgraph.DependencyGraph) error {
	unresolved, err := r.reportableUnresolved(g)
	if err != nil {
		return err
	}
	if len(unresolved) > 0 {
		r.fprintf(r.yellow, "\nunresolved imports (%d):\n", len(unresolved))
		for _, u := range unresolved {
			r.fprintf(r.red, "  %s\n", u)
		}
	}
	if unreadable := g.UnreadableFiles(); len(unreadable) > 0 {
		r.fprintf(r.yellow, "\nunreadable files (%d):\n", len(unreadable))
		for _, f := range unreadable {
			r.fprintf(r.dim, "  %s\n", f)
		}
	}
	return nil
}

// reportableUnresolved returns GetAllUnresolved, restricted (via
// BrokenDeps per source) to files r.isProject accepts, when set.
func (r *Reporter) reportableUnresolved(g *depgraph.DependencyGraph) ([]string, error) {
	if r.isProject == nil {
		return g.GetAllUnresolved()
	}
	deps, err := g.DepsList()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range deps {
		if !r.isProject(e.Node) {
			continue
		}
		for _, s := range g.BrokenDeps(e.Node) {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// Summary returns the one-line CLI summary ("127 sources, 4
// unresolved") printed after a build, built on go-humanize's Comma for
// larger graphs.
func Summary(g *depgraph.DependencyGraph) (string, error) {
	deps, err := g.DepsList()
	if err != nil {
		return "", err
	}
	unresolved, err := g.GetAllUnresolved()
	if err != nil {
		return "", err
	}
	return summaryLine(len(deps), len(unresolved), len(g.UnreadableFiles())), nil
}
