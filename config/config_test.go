package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsLanguageVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte("projects:\n  - a.qrk\ndeps:\n  - vendor/b.qrk\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"a.qrk"}, cfg.Projects)
	require.Equal(t, []string{"vendor/b.qrk"}, cfg.Deps)
	require.Equal(t, "0.1", cfg.LanguageVersion)
}

func TestLoad_ExplicitLanguageVersionKept(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte("language_version: \"0.3\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	v, err := cfg.Version()
	require.NoError(t, err)
	require.Equal(t, 0, v.Major)
	require.Equal(t, 3, v.Minor)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestIsProject(t *testing.T) {
	cfg := &Config{Projects: []string{"a.qrk", "b.qrk"}}
	require.True(t, cfg.IsProject("a.qrk"))
	require.False(t, cfg.IsProject("c.qrk"))
}
