// Package resolve implements the import resolver: given a parsed import
// reference and a search path of filesystem layers, it locates the file
// Quark's import machinery would load and classifies where it came from.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quarklang/quarkdep/builtin"
	"github.com/quarklang/quarkdep/env"
	"github.com/quarklang/quarkdep/fsys"
	"github.com/quarklang/quarkdep/importref"
)

// ImportNotFoundError is returned when no filesystem, and no source hint,
// could resolve a reference. It is data the caller records as a broken
// dependency, never a fatal error.
type ImportNotFoundError struct {
	Name string
}

func (e *ImportNotFoundError) Error() string {
	return fmt.Sprintf("resolve: import not found: %s", e.Name)
}

// ResolvedFile is the closed sum of the five ways an import can resolve.
type ResolvedFile interface {
	Path() string
	ModuleName() string
	IsExtension() bool
	PackageName() string
	ShortPath() string
}

var initModuleName = strings.TrimSuffix(env.InitName, env.SourceExt)

type base struct {
	path       string
	moduleName string
}

func (b base) Path() string       { return b.path }
func (b base) ModuleName() string { return b.moduleName }

func (b base) isInitializer() bool {
	return b.path == env.InitName || strings.HasSuffix(b.path, "/"+env.InitName)
}

func (b base) IsExtension() bool {
	return strings.HasSuffix(b.path, env.NativeExtMarker)
}

func (b base) PackageName() string {
	if b.isInitializer() {
		return b.moduleName
	}
	if i := strings.LastIndexByte(b.moduleName, '.'); i >= 0 {
		return b.moduleName[:i]
	}
	return ""
}

// ShortPath returns the last N+1 path segments, where N is the number
// of dots in module_name, plus one more segment when the file is a
// package initializer (the initializer segment is counted once).
func (b base) ShortPath() string {
	count := strings.Count(b.moduleName, ".") + 1
	if b.isInitializer() {
		count++
	}
	segments := strings.Split(strings.Trim(filepath.ToSlash(b.path), "/"), "/")
	if count > len(segments) {
		count = len(segments)
	}
	return strings.Join(segments[len(segments)-count:], "/")
}

// Direct is a file supplied as a root argument.
type Direct struct{ base }

func NewDirect(path, moduleName string) Direct { return Direct{base{path, moduleName}} }

// Local was found inside one of the search-path filesystems.
type Local struct {
	base
	FS fsys.FileSystem
}

func NewLocal(path, moduleName string, fs fsys.FileSystem) Local {
	return Local{base{path, moduleName}, fs}
}

// Relative was found via relative-import arithmetic from an origin file.
type Relative struct{ base }

func NewRelative(path, moduleName string) Relative { return Relative{base{path, moduleName}} }

// System was supplied via the import reference's source hint rather than
// found in the search path.
type System struct{ base }

func NewSystem(path, moduleName string) System { return System{base{path, moduleName}} }

// Builtin matched the language's statically known builtin-module list.
type Builtin struct{ base }

func NewBuiltin(name string) Builtin {
	return Builtin{base{path: name + env.NativeExtMarker, moduleName: name}}
}

// Context carries what the resolver needs to qualify relative imports:
// the importing file's path and, when known, its own recorded provenance.
type Context struct {
	CurrentFilename string
	CurrentModule   ResolvedFile
}

// Resolver maps (import reference, context, search path) to a ResolvedFile.
type Resolver struct {
	searchPath []fsys.FileSystem
	version    env.LangVersion
	ctx        Context
}

func New(environment *env.Environment, ctx Context) *Resolver {
	return &Resolver{
		searchPath: environment.SearchPath,
		version:    environment.Version,
		ctx:        ctx,
	}
}

// convertToPath converts ".module" to "module", "..module" to
// "../module", "module.sub" to "module/sub".
func convertToPath(name string) string {
	if strings.HasPrefix(name, ".") {
		remainder := strings.TrimLeft(name, ".")
		dotCount := len(name) - len(remainder)
		prefix := strings.Repeat(".."+string(filepath.Separator), dotCount-1)
		return prefix + dottedToPath(remainder)
	}
	return dottedToPath(name)
}

func dottedToPath(remainder string) string {
	if remainder == "" {
		return ""
	}
	return strings.ReplaceAll(remainder, ".", string(filepath.Separator))
}

func findFile(fs fsys.FileSystem, name string) (string, bool) {
	init := filepath.Join(name, env.InitName)
	src := name + env.SourceExt
	if fs.IsFile(init) {
		return fs.ReferTo(init), true
	}
	if fs.IsFile(src) {
		return fs.ReferTo(src), true
	}
	return "", false
}

// popUp pops n trailing dotted components off packageName. ok is false
// when n exceeds the package's depth (an over-deep relative import).
func popUp(packageName string, n int) (string, bool) {
	if n <= 0 {
		return packageName, true
	}
	var parts []string
	if packageName != "" {
		parts = strings.Split(packageName, ".")
	}
	if n > len(parts) {
		return "", false
	}
	parts = parts[:len(parts)-n]
	return strings.Join(parts, "."), true
}

func joinDotted(base, remainder string) string {
	switch {
	case base == "" && remainder == "":
		return ""
	case base == "":
		return remainder
	case remainder == "":
		return base
	default:
		return base + "." + remainder
	}
}

type candidate struct {
	path      string
	usedShort bool
}

// moduleNameFor computes the dotted module name a given candidate (full
// or short) resolves to, performing the relative-import pop-up
// arithmetic of spec.md step 5 when the reference is relative and the
// current module's package is known.
func (r *Resolver) moduleNameFor(ref importref.Reference, usedShort bool) string {
	remainder := ref.Remainder()
	if usedShort {
		if i := strings.LastIndexByte(remainder, '.'); i >= 0 {
			remainder = remainder[:i]
		} else {
			remainder = ""
		}
	}
	if !ref.IsRelative() {
		return remainder
	}
	if r.ctx.CurrentModule == nil {
		return remainder
	}
	popped, ok := popUp(r.ctx.CurrentModule.PackageName(), ref.Level()-1)
	if !ok {
		return ""
	}
	return joinDotted(popped, remainder)
}

// classify picks Relative/System/Local per spec.md step 5 and the
// resolved Open Question: a relative import under a System current
// module stays a System result.
func (r *Resolver) classify(ref importref.Reference, path, moduleName string, fs fsys.FileSystem) ResolvedFile {
	if ref.IsRelative() && r.ctx.CurrentModule != nil {
		if _, isSystem := r.ctx.CurrentModule.(System); isSystem {
			return NewSystem(path, moduleName)
		}
		return NewRelative(path, moduleName)
	}
	return NewLocal(path, moduleName, fs)
}

func hintDottedForm(path string) string {
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	slash := strings.Trim(filepath.ToSlash(trimmed), "/")
	if slash == "" {
		return ""
	}
	return strings.ReplaceAll(slash, "/", ".")
}

// resolveFromHint implements spec.md step 6, the source-hint fallback.
func (r *Resolver) resolveFromHint(ref importref.Reference, candidates []candidate) ResolvedFile {
	hintPath := ref.Source
	path := hintPath
	if ext := filepath.Ext(hintPath); ext == env.BytecodeExt {
		sibling := strings.TrimSuffix(hintPath, ext) + env.SourceExt
		if _, err := os.Stat(sibling); err == nil {
			path = sibling
		}
	}

	moduleName := hintDottedForm(path)
	hasShort := len(candidates) > 1
	if hasShort {
		moduleName = strings.TrimSuffix(moduleName, "."+initModuleName)
		shortName := r.moduleNameFor(ref, true)
		if moduleName == shortName || strings.HasSuffix(moduleName, "."+shortName) {
			moduleName = shortName
		}
	}
	return NewSystem(path, moduleName)
}

// ResolveImport implements spec.md §4.2's seven-step algorithm.
func (r *Resolver) ResolveImport(ref importref.Reference) (ResolvedFile, error) {
	if builtin.IsBuiltin(ref.Name, r.version.BuiltinVersion()) {
		return NewBuiltin(ref.Name), nil
	}

	filename := convertToPath(ref.Name)
	if ref.IsRelative() {
		dir := ""
		if r.ctx.CurrentFilename != "" {
			dir = filepath.Dir(r.ctx.CurrentFilename)
		}
		filename = filepath.Clean(filepath.Join(dir, filename))
	}

	candidates := []candidate{{path: filename, usedShort: false}}
	if ref.IsFrom && !ref.IsStar {
		candidates = append(candidates, candidate{path: filepath.Dir(filename), usedShort: true})
	}

	for _, layer := range r.searchPath {
		for _, c := range candidates {
			if hit, ok := findFile(layer, c.path); ok {
				moduleName := r.moduleNameFor(ref, c.usedShort)
				return r.classify(ref, hit, moduleName, layer), nil
			}
		}
	}

	if ref.Source != "" {
		return r.resolveFromHint(ref, candidates), nil
	}

	return nil, &ImportNotFoundError{Name: ref.Name}
}

// ResolveAll resolves a slice of references, separating hits from
// ImportNotFoundError failures. Any other error aborts the batch.
func (r *Resolver) ResolveAll(refs []importref.Reference) (resolved []ResolvedFile, unresolved []importref.Reference, err error) {
	for _, ref := range refs {
		rf, rerr := r.ResolveImport(ref)
		if rerr != nil {
			var notFound *ImportNotFoundError
			if ok := isImportNotFound(rerr, &notFound); ok {
				unresolved = append(unresolved, ref)
				continue
			}
			return nil, nil, rerr
		}
		resolved = append(resolved, rf)
	}
	return resolved, unresolved, nil
}

func isImportNotFound(err error, target **ImportNotFoundError) bool {
	if e, ok := err.(*ImportNotFoundError); ok {
		*target = e
		return true
	}
	return false
}
