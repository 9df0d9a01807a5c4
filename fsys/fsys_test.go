package fsys

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoredFileSystem(t *testing.T) {
	fs := NewStoredFileSystem(map[string]string{
		"a.qrk":        "module a",
		"pkg/__init__.qrk": "module pkg",
	})

	require.True(t, fs.IsFile("a.qrk"))
	require.False(t, fs.IsFile("missing.qrk"))
	require.True(t, fs.IsDir("pkg"))
	require.False(t, fs.IsDir("nope"))

	content, err := fs.Read("a.qrk")
	require.NoError(t, err)
	require.Equal(t, "module a", content)

	_, err = fs.Read("missing.qrk")
	require.Error(t, err)

	require.Equal(t, "a.qrk", fs.ReferTo("a.qrk"))
}

func TestOSFileSystem(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.qrk"), []byte("module a"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir fixture: %v", err)
	}

	fs := NewOSFileSystem(dir)
	require.True(t, fs.IsFile("a.qrk"))
	require.False(t, fs.IsFile("b.qrk"))
	require.True(t, fs.IsDir("sub"))
	require.False(t, fs.IsDir("a.qrk"))

	content, err := fs.Read("a.qrk")
	require.NoError(t, err)
	require.Equal(t, "module a", content)

	require.Equal(t, filepath.Join(dir, "a.qrk"), fs.ReferTo("a.qrk"))
}

func TestOSFileSystemPanicsOnEmptyRoot(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on empty root")
		}
	}()
	NewOSFileSystem("")
}

func TestExtensionRemapFileSystem(t *testing.T) {
	underlying := NewStoredFileSystem(map[string]string{
		"stub.qrki": "stub content",
	})
	fs := NewExtensionRemapFileSystem(underlying, "i")

	require.True(t, fs.IsFile("stub.qrk"))
	require.False(t, fs.IsFile("other.qrk"))

	content, err := fs.Read("stub.qrk")
	require.NoError(t, err)
	require.Equal(t, "stub content", content)

	require.Equal(t, "stub.qrki", fs.ReferTo("stub.qrk"))
}

func TestArchiveFileSystem(t *testing.T) {
	fs := NewArchiveFileSystem("stubs", map[string]string{
		"a.qrk":          "module a",
		"pkg/sub.qrk":    "module pkg.sub",
		"pkg/other.qrk":  "module pkg.other",
	})

	require.True(t, fs.IsDir(""))
	require.True(t, fs.IsDir("pkg"))
	require.True(t, fs.IsFile("pkg/sub.qrk"))
	require.False(t, fs.IsFile("pkg"))

	content, err := fs.Read("a.qrk")
	require.NoError(t, err)
	require.Equal(t, "module a", content)

	require.Equal(t, "stubs:a.qrk", fs.ReferTo("a.qrk"))
}

func TestArchiveFileSystemGeneratesPrefixWhenEmpty(t *testing.T) {
	a := NewArchiveFileSystem("", map[string]string{"a.qrk": "x"})
	b := NewArchiveFileSystem("", map[string]string{"a.qrk": "x"})

	require.NotEqual(t, a.ReferTo("a.qrk"), b.ReferTo("a.qrk"),
		"two archives mounted at the same overlay point must produce distinct node keys")
}

func writeTestTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gw := gzip.NewWriter(f)
	defer gw.Close()
	tw := tar.NewWriter(gw)
	defer tw.Close()

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "pkg",
		Typeflag: tar.TypeDir,
		Mode:     0o755,
	}))
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
}

func TestArchiveFileSystemFromTar(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "stubs.tar.gz")
	writeTestTarGz(t, archivePath, map[string]string{
		"a.qrk":       "module a",
		"pkg/sub.qrk": "module pkg.sub",
	})

	fs, err := NewArchiveFileSystemFromTar(archivePath, "stubs")
	require.NoError(t, err)

	require.True(t, fs.IsFile("a.qrk"))
	require.True(t, fs.IsDir("pkg"))
	require.True(t, fs.IsFile("pkg/sub.qrk"))

	content, err := fs.Read("a.qrk")
	require.NoError(t, err)
	require.Equal(t, "module a", content)

	require.Equal(t, "stubs:a.qrk", fs.ReferTo("a.qrk"))
}

func TestArchiveFileSystemFromTar_PlainUncompressed(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "stubs.tar")

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	tw := tar.NewWriter(f)
	content := "module a"
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "a.qrk",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(content)),
	}))
	_, err = tw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())

	fs, err := NewArchiveFileSystemFromTar(archivePath, "")
	require.NoError(t, err)
	require.True(t, fs.IsFile("a.qrk"))
}
