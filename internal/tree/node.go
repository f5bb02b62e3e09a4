package tree

import "fmt"

// Node types used in the JSON form.
const (
	TypeFile   = "file"
	TypeFolder = "folder"
)

// Node is the JSON representation of a Component.
type Node struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Children []*Node `json:"children,omitempty"`
}

// Encode converts c into its JSON representation.
func Encode(c Component) *Node {
	switch v := c.(type) {
	case *File:
		return &Node{Name: v.name, Type: TypeFile}
	case *Folder:
		n := &Node{Name: v.name, Type: TypeFolder}
		for _, child := range v.children {
			n.Children = append(n.Children, Encode(child))
		}
		return n
	}
	return nil
}

// Decode builds a fresh Component from n.
func Decode(n *Node) (Component, error) {
	if n == nil {
		return nil, fmt.Errorf("nil node: %w", ErrUnknownType)
	}
	switch n.Type {
	case TypeFile:
		if len(n.Children) > 0 {
			return nil, fmt.Errorf("file %q has children: %w", n.Name, ErrNotFolder)
		}
		return NewFile(n.Name), nil
	case TypeFolder:
		folder := NewFolder(n.Name)
		for _, child := range n.Children {
			c, err := Decode(child)
			if err != nil {
				return nil, err
			}
			folder.Add(c)
		}
		return folder, nil
	}
	return nil, fmt.Errorf("%q: %w", n.Type, ErrUnknownType)
}
