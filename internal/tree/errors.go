package tree

// Error is a constant error type so sentinels can be declared with const.
type Error string

func (err Error) Error() string { return string(err) }

// Errors returned by Tree, Decode and the outer layers built on them.
const (
	ErrNotFound    Error = "node not found"
	ErrNotFolder   Error = "node is not a folder"
	ErrCycle       Error = "folder cannot contain itself"
	ErrAttached    Error = "node is already attached to the tree"
	ErrUnknownType Error = "unknown node type"
)
