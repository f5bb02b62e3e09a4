package tree

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Tree guards a root Folder for concurrent use. Mutations take the write
// lock and rendering takes the read lock, so a traversal never observes a
// half-applied change.
type Tree struct {
	mu   sync.RWMutex
	root *Folder
	unit string
}

// New wraps root. An empty unit falls back to Unit.
func New(root *Folder, unit string) *Tree {
	if unit == "" {
		unit = Unit
	}
	if root == nil {
		root = NewFolder("")
	}
	return &Tree{root: root, unit: unit}
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// lookup resolves segments from the root. Callers hold the lock.
func (t *Tree) lookup(segments []string) (Component, error) {
	var cur Component = t.root
	for i, seg := range segments {
		folder, ok := cur.(*Folder)
		if !ok {
			return nil, fmt.Errorf("%s: %w", strings.Join(segments[:i], "/"), ErrNotFolder)
		}
		child, ok := folder.Child(seg)
		if !ok {
			return nil, fmt.Errorf("%s: %w", strings.Join(segments[:i+1], "/"), ErrNotFound)
		}
		cur = child
	}
	return cur, nil
}

func (t *Tree) lookupFolder(segments []string) (*Folder, error) {
	c, err := t.lookup(segments)
	if err != nil {
		return nil, err
	}
	folder, ok := c.(*Folder)
	if !ok {
		return nil, fmt.Errorf("%s: %w", strings.Join(segments, "/"), ErrNotFolder)
	}
	return folder, nil
}

// Lookup returns the node at path; "" is the root.
func (t *Tree) Lookup(path string) (Component, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lookup(splitPath(path))
}

// Add appends c to the folder at parentPath. A node may only have one
// parent, and a folder may not be added below itself.
func (t *Tree) Add(parentPath string, c Component) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, err := t.lookupFolder(splitPath(parentPath))
	if err != nil {
		return err
	}
	if folder, ok := c.(*Folder); ok && Contains(folder, parent) {
		return ErrCycle
	}
	if t.attached(c) {
		return ErrAttached
	}
	parent.Add(c)
	return nil
}

// attached reports whether c or any node below it is already in the tree.
func (t *Tree) attached(c Component) bool {
	nodes := make(map[Component]struct{})
	Walk(t.root, func(n Component, _ int) bool {
		nodes[n] = struct{}{}
		return true
	})
	found := false
	Walk(c, func(n Component, _ int) bool {
		_, found = nodes[n]
		return !found
	})
	return found
}

// Remove detaches the node at path from its parent. A missing final
// segment is a no-op and reports false.
func (t *Tree) Remove(path string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	segments := splitPath(path)
	if len(segments) == 0 {
		return false, fmt.Errorf("cannot remove root: %w", ErrNotFound)
	}
	parent, err := t.lookupFolder(segments[:len(segments)-1])
	if err != nil {
		return false, err
	}
	child, ok := parent.Child(segments[len(segments)-1])
	if !ok {
		return false, nil
	}
	return parent.Remove(child), nil
}

// Replace swaps the whole tree for root. A nil root becomes an empty
// unnamed folder.
func (t *Tree) Replace(root *Folder) {
	if root == nil {
		root = NewFolder("")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = root
}

// Display writes the tree to w.
func (t *Tree) Display(w io.Writer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Fprint(w, t.root, "", t.unit)
}

// String returns the display output.
func (t *Tree) String() string {
	var sb strings.Builder
	_ = t.Display(&sb)
	return sb.String()
}

// View calls fn with the root and indentation unit under the read lock.
// fn must not modify root or keep it after returning.
func (t *Tree) View(fn func(root *Folder, unit string)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn(t.root, t.unit)
}

// Snapshot returns a serializable copy of the tree.
func (t *Tree) Snapshot() *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Encode(t.root)
}

// Count returns the number of files and folders, root included.
func (t *Tree) Count() (files, folders int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Count(t.root)
}
