// Package fs lists directories from local disk or from a git ref so they can
// be scanned into a tree.
package fs

// Entry describes one file or directory.
type Entry struct {
	Name  string
	IsDir bool
}

// FileSystem is the read-only surface the scanner needs. Paths are
// slash-separated and relative to the source root; "" is the root itself.
type FileSystem interface {
	Stat(path string) (Entry, error)
	ReadDir(path string) ([]Entry, error)
}
