package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetImports_PlainAndAliasedImport(t *testing.T) {
	src := `
use foo.bar
use baz.qux as bq
`
	refs, err := NewQuarkExtractor().GetImports("t.qrk", src)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	require.Equal(t, "foo.bar", refs[0].Name)
	require.Equal(t, "foo.bar", refs[0].NewName)
	require.False(t, refs[0].IsFrom)

	require.Equal(t, "baz.qux", refs[1].Name)
	require.Equal(t, "bq", refs[1].NewName)
}

func TestGetImports_RelativeImport(t *testing.T) {
	src := "use .sibling\n"
	refs, err := NewQuarkExtractor().GetImports("t.qrk", src)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.True(t, refs[0].IsRelative())
	require.Equal(t, 1, refs[0].Level())
}

func TestGetImports_FromClauseBuildsFullDottedName(t *testing.T) {
	src := "use { a, b as c } from foo.bar\n"
	refs, err := NewQuarkExtractor().GetImports("t.qrk", src)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	require.Equal(t, "foo.bar.a", refs[0].Name)
	require.Equal(t, "a", refs[0].NewName)
	require.True(t, refs[0].IsFrom)

	require.Equal(t, "foo.bar.b", refs[1].Name)
	require.Equal(t, "c", refs[1].NewName)
}

func TestGetImports_StarImport(t *testing.T) {
	src := "use * from foo.bar\n"
	refs, err := NewQuarkExtractor().GetImports("t.qrk", src)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.True(t, refs[0].IsStar)
	require.Equal(t, "foo.bar", refs[0].Name)
}

func TestGetImports_ParseErrorSurfacesAsParseError(t *testing.T) {
	src := "use\n"
	_, err := NewQuarkExtractor().GetImports("broken.qrk", src)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "broken.qrk", parseErr.Filename)
}
