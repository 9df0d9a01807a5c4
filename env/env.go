// Package env bundles the search path and language version a Resolver
// needs to do its work.
package env

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quarklang/quarkdep/builtin"
	"github.com/quarklang/quarkdep/fsys"
)

// File-naming conventions for Quark sources, fixed across all versions.
const (
	// SourceExt is the extension every Quark source file carries.
	SourceExt = ".qrk"
	// NativeExtMarker suffixes the synthetic path recorded for a Builtin
	// resolution (and any other module backed by a native/compiled
	// extension rather than Quark source) — the Quark analogue of
	// Python's ".so" extension modules.
	NativeExtMarker = ".qnative"
	// BytecodeExt is the compiled-bytecode cache extension checked during
	// the resolver's source-hint fallback.
	BytecodeExt = ".qrkc"
	// InitName is the distinguished file marking a directory as a
	// package.
	InitName = "__init__" + SourceExt
)

// LangVersion is a parsed "major.minor" Quark version string.
type LangVersion struct {
	Major int
	Minor int
}

// ParseLangVersion parses a "M.N" string such as "0.3".
func ParseLangVersion(s string) (LangVersion, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return LangVersion{}, fmt.Errorf("env: invalid version %q, want M.N", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return LangVersion{}, fmt.Errorf("env: invalid major version in %q: %w", s, err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return LangVersion{}, fmt.Errorf("env: invalid minor version in %q: %w", s, err)
	}
	return LangVersion{Major: major, Minor: minor}, nil
}

func (v LangVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// BuiltinVersion adapts this LangVersion to builtin.Version.
func (v LangVersion) BuiltinVersion() builtin.Version {
	return builtin.Version{Major: v.Major, Minor: v.Minor}
}

// Environment is the ordered search path plus the Quark version every
// Resolver in a build is constructed against.
type Environment struct {
	SearchPath []fsys.FileSystem
	Version    LangVersion
}

func New(searchPath []fsys.FileSystem, version LangVersion) *Environment {
	return &Environment{SearchPath: searchPath, Version: version}
}
