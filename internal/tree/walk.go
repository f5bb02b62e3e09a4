package tree

// WalkFunc is called for every node visited by Walk. Returning false stops
// the walk.
type WalkFunc func(c Component, depth int) bool

type frame struct {
	c     Component
	depth int
}

// Walk visits root and its descendants in pre-order, children in insertion
// order. It keeps its own stack so tree depth is not bounded by the
// goroutine stack.
func Walk(root Component, fn WalkFunc) {
	if root == nil {
		return
	}
	stack := []frame{{c: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(top.c, top.depth) {
			return
		}

		folder, ok := top.c.(*Folder)
		if !ok {
			continue
		}
		// Push in reverse so the first child is popped first.
		for i := len(folder.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{c: folder.children[i], depth: top.depth + 1})
		}
	}
}

// Contains reports whether target is root or one of its descendants.
func Contains(root, target Component) bool {
	found := false
	Walk(root, func(c Component, _ int) bool {
		if c == target {
			found = true
		}
		return !found
	})
	return found
}

// Count returns the number of files and folders in root, root included.
func Count(root Component) (files, folders int) {
	Walk(root, func(c Component, _ int) bool {
		switch c.(type) {
		case *File:
			files++
		case *Folder:
			folders++
		}
		return true
	})
	return files, folders
}
