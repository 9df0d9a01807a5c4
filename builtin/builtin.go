// Package builtin knows which dotted module names are part of Quark's
// standard library, parameterized by language version the way the
// resolver's step 1 builtin test requires.
package builtin

import "strings"

// Version is the (major, minor) pair a builtin lookup is evaluated
// against. It mirrors env.LangVersion but lives here too so this package
// has no dependency on env, keeping it a leaf collaborator as spec.md
// requires ("a small external helper that knows the target language
// version").
type Version struct {
	Major int
	Minor int
}

func (v Version) atLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// entry records the version a builtin module name first became available.
type entry struct {
	name       string
	sinceMajor int
	sinceMinor int
}

var table = []entry{
	{"core", 0, 1},
	{"io", 0, 1},
	{"str", 0, 1},
	{"list", 0, 1},
	{"dict", 0, 1},
	{"math", 0, 1},
	{"os", 0, 2},
	{"time", 0, 2},
	{"sync", 0, 3},
}

// IsBuiltin reports whether name is a statically known Quark standard
// module for the given version. Dotted submodule references (e.g.
// "os.path") are checked against their top-level component.
func IsBuiltin(name string, version Version) bool {
	top := name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		top = name[:i]
	}
	for _, e := range table {
		if e.name == top {
			return version.atLeast(e.sinceMajor, e.sinceMinor)
		}
	}
	return false
}
