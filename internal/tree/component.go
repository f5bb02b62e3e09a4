// Package tree models a file system as a composite of Files and Folders and
// renders it as an indented pre-order listing.
package tree

import (
	"io"
	"strings"
)

// Unit is the indentation added per tree level.
const Unit = "  "

// Component is implemented by every node in the tree. The set of
// implementers is closed: *File and *Folder.
type Component interface {
	Name() string
	// Display writes the node, and for folders every descendant, one line
	// per node prefixed by indent.
	Display(w io.Writer, indent string) error

	// header returns the node's own line without indentation.
	header() string
}

// File is a leaf node.
type File struct {
	name string
}

// NewFile creates a file named name.
func NewFile(name string) *File {
	return &File{name: name}
}

// Name returns the file name.
func (f *File) Name() string { return f.name }

// Display writes "<indent>- File: <name>".
func (f *File) Display(w io.Writer, indent string) error {
	return Fprint(w, f, indent, Unit)
}

func (f *File) header() string { return "- File: " + f.name }

// Folder is a composite node holding an ordered sequence of children.
type Folder struct {
	name     string
	children []Component
}

// NewFolder creates a folder named name with the given initial children.
// Nil children are skipped.
func NewFolder(name string, children ...Component) *Folder {
	f := &Folder{name: name}
	for _, c := range children {
		f.Add(c)
	}
	return f
}

// Name returns the folder name.
func (f *Folder) Name() string { return f.name }

// Add appends c to the end of the child sequence. A nil c is ignored.
func (f *Folder) Add(c Component) {
	if isNil(c) {
		return
	}
	f.children = append(f.children, c)
}

// Remove drops the first child that is identical to c. It reports whether
// anything was removed; removing an absent component is a no-op.
func (f *Folder) Remove(c Component) bool {
	for i, child := range f.children {
		if child == c {
			f.children = append(f.children[:i], f.children[i+1:]...)
			return true
		}
	}
	return false
}

// Children returns a copy of the child sequence in insertion order.
func (f *Folder) Children() []Component {
	out := make([]Component, len(f.children))
	copy(out, f.children)
	return out
}

// Len returns the number of direct children.
func (f *Folder) Len() int { return len(f.children) }

// Child returns the first direct child named name.
func (f *Folder) Child(name string) (Component, bool) {
	for _, c := range f.children {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Display writes "<indent>+ Folder: <name>" and then every child with one
// more indentation unit.
func (f *Folder) Display(w io.Writer, indent string) error {
	return Fprint(w, f, indent, Unit)
}

func (f *Folder) header() string { return "+ Folder: " + f.name }

// isNil catches both a nil interface and a typed nil pointer.
func isNil(c Component) bool {
	switch v := c.(type) {
	case nil:
		return true
	case *File:
		return v == nil
	case *Folder:
		return v == nil
	}
	return false
}

// Fprint writes c in pre-order to w, starting at indent and adding unit per
// level.
func Fprint(w io.Writer, c Component, indent, unit string) error {
	var err error
	Walk(c, func(n Component, depth int) bool {
		line := indent + strings.Repeat(unit, depth) + n.header() + "\n"
		_, err = io.WriteString(w, line)
		return err == nil
	})
	return err
}

// Lines returns the display output of c, one element per line.
func Lines(c Component, indent string) []string {
	var lines []string
	Walk(c, func(n Component, depth int) bool {
		lines = append(lines, indent+strings.Repeat(Unit, depth)+n.header())
		return true
	})
	return lines
}

// Render returns the display output of c as a single string.
func Render(c Component, indent string) string {
	var sb strings.Builder
	_ = Fprint(&sb, c, indent, Unit)
	return sb.String()
}
