package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarklang/quarkdep/env"
	"github.com/quarklang/quarkdep/fsys"
	"github.com/quarklang/quarkdep/importref"
)

func newTestEnvironment(files map[string]string) *env.Environment {
	return env.New([]fsys.FileSystem{fsys.NewStoredFileSystem(files)}, env.LangVersion{Major: 0, Minor: 1})
}

func TestResolveImport_Local(t *testing.T) {
	e := newTestEnvironment(map[string]string{
		"a/b.qrk": "module a.b",
	})
	r := New(e, Context{})

	rf, err := r.ResolveImport(importref.New("a.b", "", false, false, ""))
	require.NoError(t, err)
	require.Equal(t, filepath.Join("a", "b.qrk"), rf.Path())
	require.Equal(t, "a.b", rf.ModuleName())
	require.IsType(t, Local{}, rf)
}

func TestResolveImport_PackageInitializerPreferred(t *testing.T) {
	e := newTestEnvironment(map[string]string{
		filepath.Join("pkg", env.InitName): "module pkg",
		"pkg.qrk":                          "module pkg (shadowed)",
	})
	r := New(e, Context{})

	rf, err := r.ResolveImport(importref.New("pkg", "", false, false, ""))
	require.NoError(t, err)
	require.Equal(t, filepath.Join("pkg", env.InitName), rf.Path())
}

func TestResolveImport_Builtin(t *testing.T) {
	e := newTestEnvironment(nil)
	r := New(e, Context{})

	rf, err := r.ResolveImport(importref.New("core", "", false, false, ""))
	require.NoError(t, err)
	require.IsType(t, Builtin{}, rf)
	require.True(t, rf.IsExtension())
}

func TestResolveImport_NotFound(t *testing.T) {
	e := newTestEnvironment(nil)
	r := New(e, Context{})

	_, err := r.ResolveImport(importref.New("nope.nothere", "", false, false, ""))
	require.Error(t, err)
	var notFound *ImportNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestResolveImport_SymbolVsModuleShortNameFallback(t *testing.T) {
	e := newTestEnvironment(map[string]string{
		filepath.Join("foo", env.InitName): "module foo",
	})
	r := New(e, Context{})

	// from foo import foo: "foo" is a symbol inside package foo, not a
	// submodule foo.foo, so the short-name candidate (the package
	// itself) must be the one that hits.
	rf, err := r.ResolveImport(importref.New("foo.foo", "", true, false, ""))
	require.NoError(t, err)
	require.Equal(t, filepath.Join("foo", env.InitName), rf.Path())
}

func TestResolveImport_RelativeImport(t *testing.T) {
	e := newTestEnvironment(map[string]string{
		filepath.Join("pkg", "sibling.qrk"): "module pkg.sibling",
	})
	current := NewDirect(filepath.Join("pkg", "mod.qrk"), "pkg.mod")
	r := New(e, Context{CurrentFilename: filepath.Join("pkg", "mod.qrk"), CurrentModule: current})

	rf, err := r.ResolveImport(importref.New(".sibling", "", true, false, ""))
	require.NoError(t, err)
	require.IsType(t, Relative{}, rf)
	require.Equal(t, "pkg.sibling", rf.ModuleName())
}

func TestResolveImport_RelativeUnderSystemCurrentModuleStaysSystem(t *testing.T) {
	e := newTestEnvironment(map[string]string{
		filepath.Join("pkg", "sibling.qrk"): "module pkg.sibling",
	})
	current := NewSystem(filepath.Join("pkg", "mod.qrk"), "pkg.mod")
	r := New(e, Context{CurrentFilename: filepath.Join("pkg", "mod.qrk"), CurrentModule: current})

	rf, err := r.ResolveImport(importref.New(".sibling", "", true, false, ""))
	require.NoError(t, err)
	require.IsType(t, System{}, rf)
}

func TestResolveImport_OverDeepRelativeImportYieldsEmptyModuleName(t *testing.T) {
	// spec.md §9: a relative import with more leading dots than the
	// importing module's package depth still returns whatever path the
	// filesystem walk resolved, but with module name set to "" rather
	// than a sentinel or the original dotted form.
	e := newTestEnvironment(map[string]string{
		"x.qrk": "module x",
	})
	current := NewDirect(filepath.Join("pkg", "sub", "mod.qrk"), "pkg.mod")
	r := New(e, Context{CurrentFilename: filepath.Join("pkg", "sub", "mod.qrk"), CurrentModule: current})

	rf, err := r.ResolveImport(importref.New("...x", "", true, false, ""))
	require.NoError(t, err)
	require.Equal(t, "x.qrk", rf.Path())
	require.Equal(t, "", rf.ModuleName())
}

func TestResolveImport_OverDeepRelativeImportNotFoundStillErrors(t *testing.T) {
	e := newTestEnvironment(nil)
	current := NewDirect("mod.qrk", "mod")
	r := New(e, Context{CurrentFilename: "mod.qrk", CurrentModule: current})

	_, err := r.ResolveImport(importref.New("...sibling", "", true, false, ""))
	require.Error(t, err)
}

func TestResolveImport_BytecodeSiblingHint(t *testing.T) {
	e := newTestEnvironment(nil)
	r := New(e, Context{})

	dir := t.TempDir()
	src := filepath.Join(dir, "hinted.qrk")
	require.NoError(t, os.WriteFile(src, []byte("module hinted"), 0o644))

	rf, err := r.ResolveImport(importref.New("hinted", "", false, false, filepath.Join(dir, "hinted.qrkc")))
	require.NoError(t, err)
	require.IsType(t, System{}, rf)
	require.Equal(t, src, rf.Path())
}

func TestShortPath_CountsInitializerOnce(t *testing.T) {
	rf := NewDirect(filepath.Join("a", "b", env.InitName), "a.b")
	require.Equal(t, filepath.Join("a", "b", env.InitName), rf.ShortPath())
}

func TestShortPath_TruncatesToAvailableSegments(t *testing.T) {
	rf := NewDirect("b.qrk", "a.b.c")
	require.Equal(t, "b.qrk", rf.ShortPath())
}
