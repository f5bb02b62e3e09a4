package fs

import (
	"os"
	"path/filepath"
)

// LocalFS reads directories below a root on disk.
type LocalFS struct {
	root string
}

// NewLocalFS creates a LocalFS rooted at root.
func NewLocalFS(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) abs(path string) string {
	if path == "" || path == "." {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Stat describes the file or directory at path.
func (l *LocalFS) Stat(path string) (Entry, error) {
	info, err := os.Stat(l.abs(path))
	if err != nil {
		return Entry{}, err
	}
	return Entry{Name: info.Name(), IsDir: info.IsDir()}, nil
}

// ReadDir lists the immediate children of the directory at path.
func (l *LocalFS) ReadDir(path string) ([]Entry, error) {
	entries, err := os.ReadDir(l.abs(path))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Name: e.Name(), IsDir: e.IsDir()}
	}
	return out, nil
}
