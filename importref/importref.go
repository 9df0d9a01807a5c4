// Package importref holds the value type that describes one parsed
// import statement, independent of how it was extracted or resolved.
package importref

import "strings"

// Reference is an immutable description of a single import. Name carries
// any leading dots denoting relative-import level; IsStar implies IsFrom.
type Reference struct {
	Name    string
	NewName string
	IsFrom  bool
	IsStar  bool
	Source  string
}

// New builds a Reference, defaulting NewName to Name and enforcing the
// IsStar-implies-IsFrom invariant. Violating it is a caller bug, not a
// recoverable import error, so it panics rather than returning an error.
func New(name string, newName string, isFrom, isStar bool, source string) Reference {
	if isStar && !isFrom {
		panic("importref: IsStar requires IsFrom")
	}
	if newName == "" {
		newName = name
	}
	return Reference{
		Name:    name,
		NewName: newName,
		IsFrom:  isFrom,
		IsStar:  isStar,
		Source:  source,
	}
}

// IsRelative reports whether Name begins with one or more leading dots.
func (r Reference) IsRelative() bool {
	return strings.HasPrefix(r.Name, ".")
}

// Level returns the count of leading dots in Name (0 for an absolute
// import).
func (r Reference) Level() int {
	n := 0
	for n < len(r.Name) && r.Name[n] == '.' {
		n++
	}
	return n
}

// Remainder returns Name with its leading dots stripped.
func (r Reference) Remainder() string {
	return strings.TrimLeft(r.Name, ".")
}

func (r Reference) String() string {
	switch {
	case r.IsStar:
		return "from " + r.Name + " import *"
	case r.IsFrom:
		if r.NewName != r.Name {
			return "from " + r.Name + " import " + r.NewName
		}
		return "from " + r.Name
	case r.NewName != r.Name:
		return "import " + r.Name + " as " + r.NewName
	default:
		return "import " + r.Name
	}
}
