// Package fsys provides the uniform isfile/isdir/read/refer_to capability
// the resolver probes, layered over OS directories, in-memory maps,
// extension-remapping overlays, and tar archives.
package fsys

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileSystem is the capability every search-path layer implements. Paths
// are relative to the filesystem's own root; "" denotes the root itself.
type FileSystem interface {
	IsFile(path string) bool
	IsDir(path string) bool
	Read(path string) (string, error)
	ReferTo(path string) string
}

// StoredFileSystem serves files out of an in-memory map, the way the
// teacher's lexer/parser operate on an in-memory source string rather
// than touching disk — useful for resolver and graph tests that must not
// depend on the filesystem.
type StoredFileSystem struct {
	files map[string]string
	dirs  map[string]bool
}

// NewStoredFileSystem builds a StoredFileSystem from a file content map,
// precomputing the parent-directory set the way the reference
// implementation does once at construction time.
func NewStoredFileSystem(files map[string]string) *StoredFileSystem {
	dirs := make(map[string]bool, len(files))
	for f := range files {
		dir := filepath.Dir(f)
		if dir == "." {
			dir = ""
		}
		dirs[dir] = true
	}
	return &StoredFileSystem{files: files, dirs: dirs}
}

func (s *StoredFileSystem) IsFile(path string) bool {
	_, ok := s.files[path]
	return ok
}

func (s *StoredFileSystem) IsDir(path string) bool {
	if path == "" {
		return len(s.dirs) > 0
	}
	return s.dirs[path]
}

func (s *StoredFileSystem) Read(path string) (string, error) {
	content, ok := s.files[path]
	if !ok {
		return "", fmt.Errorf("fsys: %s: %w", path, os.ErrNotExist)
	}
	return content, nil
}

func (s *StoredFileSystem) ReferTo(path string) string {
	return path
}

// OSFileSystem joins every request under a root directory on disk.
type OSFileSystem struct {
	Root string
}

func NewOSFileSystem(root string) *OSFileSystem {
	if root == "" {
		panic("fsys: OSFileSystem root must not be empty")
	}
	return &OSFileSystem{Root: root}
}

func (o *OSFileSystem) join(path string) string {
	return filepath.Join(o.Root, path)
}

func (o *OSFileSystem) IsFile(path string) bool {
	info, err := os.Stat(o.join(path))
	return err == nil && !info.IsDir()
}

func (o *OSFileSystem) IsDir(path string) bool {
	info, err := os.Stat(o.join(path))
	return err == nil && info.IsDir()
}

func (o *OSFileSystem) Read(path string) (string, error) {
	content, err := os.ReadFile(o.join(path))
	if err != nil {
		return "", fmt.Errorf("fsys: read %s: %w", path, err)
	}
	return string(content), nil
}

func (o *OSFileSystem) ReferTo(path string) string {
	return o.join(path)
}

// ExtensionRemapFileSystem appends a fixed suffix rune to every incoming
// path before delegating to an underlying filesystem, the way a .qrk
// request transparently finds a stub file saved as .qrki. ReferTo returns
// the underlying filesystem's remapped identifier, so two overlays that
// remap the same request to different suffixes produce distinct node
// keys even when asked for the same nominal path.
type ExtensionRemapFileSystem struct {
	Underlying FileSystem
	Suffix     string
}

func NewExtensionRemapFileSystem(underlying FileSystem, suffix string) *ExtensionRemapFileSystem {
	return &ExtensionRemapFileSystem{Underlying: underlying, Suffix: suffix}
}

func (e *ExtensionRemapFileSystem) remap(path string) string {
	return path + e.Suffix
}

func (e *ExtensionRemapFileSystem) IsFile(path string) bool {
	return e.Underlying.IsFile(e.remap(path))
}

func (e *ExtensionRemapFileSystem) IsDir(path string) bool {
	return e.Underlying.IsDir(e.remap(path))
}

func (e *ExtensionRemapFileSystem) Read(path string) (string, error) {
	return e.Underlying.Read(e.remap(path))
}

func (e *ExtensionRemapFileSystem) ReferTo(path string) string {
	return e.Underlying.ReferTo(e.remap(path))
}

// ArchiveFileSystem serves entries out of a tar archive's flat entry
// list, the supplementary variant spec.md names alongside OS- and
// map-backed filesystems.
type ArchiveFileSystem struct {
	prefix  string
	entries map[string]string
	dirs    map[string]bool
}

// NewArchiveFileSystem builds an ArchiveFileSystem from already-extracted
// tar entries (name -> contents). The prefix distinguishes node keys
// produced by two archives mounted at the same logical overlay point;
// an empty prefix gets a generated uuid, since two stub archives
// legitimately mounted at the same overlay point have no natural
// prefix to tell their nodes apart by otherwise.
func NewArchiveFileSystem(prefix string, entries map[string]string) *ArchiveFileSystem {
	if prefix == "" {
		prefix = uuid.NewString()
	}
	dirs := make(map[string]bool, len(entries))
	for name := range entries {
		dir := filepath.Dir(name)
		if dir == "." {
			dir = ""
		}
		for {
			dirs[dir] = true
			if dir == "" {
				break
			}
			dir = filepath.Dir(dir)
			if dir == "." {
				dir = ""
			}
		}
	}
	return &ArchiveFileSystem{prefix: prefix, entries: entries, dirs: dirs}
}

func (a *ArchiveFileSystem) IsFile(path string) bool {
	_, ok := a.entries[path]
	return ok
}

func (a *ArchiveFileSystem) IsDir(path string) bool {
	if path == "" {
		return true
	}
	return a.dirs[path]
}

func (a *ArchiveFileSystem) Read(path string) (string, error) {
	content, ok := a.entries[path]
	if !ok {
		return "", fmt.Errorf("fsys: %s: %w", path, os.ErrNotExist)
	}
	return content, nil
}

func (a *ArchiveFileSystem) ReferTo(path string) string {
	return strings.TrimSuffix(a.prefix, "/") + ":" + path
}

// NewArchiveFileSystemFromTar opens archivePath (transparently gzip'd if
// named .tar.gz/.tgz or gzip-magic-prefixed), reads every regular entry
// into memory, and hands the result to NewArchiveFileSystem, the way
// TarFileSystem.read_tarfile opens a tarfile.TarFile and wraps it rather
// than reading lazily. prefix follows the same empty-generates-a-uuid
// rule as NewArchiveFileSystem.
func NewArchiveFileSystemFromTar(archivePath, prefix string) (*ArchiveFileSystem, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("fsys: open %s: %w", archivePath, err)
	}
	defer f.Close()

	r, err := tarReader(f, archivePath)
	if err != nil {
		return nil, fmt.Errorf("fsys: %s: %w", archivePath, err)
	}

	entries := make(map[string]string)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fsys: read %s: %w", archivePath, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		var buf strings.Builder
		if _, err := io.Copy(&buf, tr); err != nil {
			return nil, fmt.Errorf("fsys: extract %s from %s: %w", hdr.Name, archivePath, err)
		}
		entries[filepath.Clean(hdr.Name)] = buf.String()
	}

	return NewArchiveFileSystem(prefix, entries), nil
}

// tarReader returns a plain tar stream over f, transparently unwrapping
// gzip when archivePath's name or magic bytes say it's compressed.
func tarReader(f *os.File, archivePath string) (io.Reader, error) {
	if !strings.HasSuffix(archivePath, ".gz") && !strings.HasSuffix(archivePath, ".tgz") {
		magic := make([]byte, 2)
		if n, _ := io.ReadFull(f, magic); n == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}
		} else {
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}
			return f, nil
		}
	}
	return gzip.NewReader(f)
}
