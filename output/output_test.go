package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarklang/quarkdep/depgraph"
	"github.com/quarklang/quarkdep/env"
	"github.com/quarklang/quarkdep/fsys"
)

func buildTestGraph(t *testing.T) *depgraph.ImportGraph {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("a.qrk", "use b\n")
	write("b.qrk", "module b:\n    fn f() -> 1\n")

	e := env.New([]fsys.FileSystem{fsys.NewOSFileSystem(dir)}, env.LangVersion{Major: 0, Minor: 1})
	ig, err := depgraph.NewImportGraph(e, []string{filepath.Join(dir, "a.qrk")}, false)
	require.NoError(t, err)
	return ig
}

func TestReporter_PlainWriterNeverColors(t *testing.T) {
	ig := buildTestGraph(t)
	var buf bytes.Buffer
	r := NewReporter(&buf)

	require.NoError(t, r.RenderTopoSort(ig.DependencyGraph))
	require.NotContains(t, buf.String(), "\x1b[", "a non-*os.File writer must never receive ANSI escapes")
}

func TestRenderJSON(t *testing.T) {
	ig := buildTestGraph(t)
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, ig.DependencyGraph))

	var report jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	require.Len(t, report.Deps, 2)
	require.Empty(t, report.Unresolved)
	require.Empty(t, report.Unreadable)
	require.Contains(t, report.Summary, "2 sources")
}

func TestSummaryLine(t *testing.T) {
	require.Equal(t, "1 source", summaryLine(1, 0, 0))
	require.Equal(t, "2 sources", summaryLine(2, 0, 0))
	require.Equal(t, "2 sources, 1 unresolved", summaryLine(2, 1, 0))
	require.Equal(t, "1,234 sources, 5 unresolved, 2 unreadable", summaryLine(1234, 5, 2))
}
