package fs

import (
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
)

// GitFS lists trees stored at a git ref (branch, tag or commit) without
// touching the working copy.
type GitFS struct {
	repoPath string
	ref      string
}

// NewGitFS creates a GitFS for ref in the repository at repoPath.
func NewGitFS(repoPath, ref string) *GitFS {
	return &GitFS{repoPath: repoPath, ref: ref}
}

func (g *GitFS) git(args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", g.repoPath}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// lsTree runs "git ls-tree <ref> [target]" and parses
// "<mode> <type> <hash>\t<name>" lines.
func (g *GitFS) lsTree(target string) ([]Entry, error) {
	args := []string{"ls-tree", g.ref}
	if target != "" {
		args = append(args, target)
	}
	out, err := g.git(args...)
	if err != nil {
		return nil, os.ErrNotExist
	}

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		meta, name, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) < 3 {
			continue
		}
		entries = append(entries, Entry{
			Name:  path.Base(name),
			IsDir: fields[1] == "tree",
		})
	}
	return entries, nil
}

// Stat describes the entry at p. The root is named after the ref.
func (g *GitFS) Stat(p string) (Entry, error) {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		if _, err := g.git("rev-parse", "--verify", g.ref); err != nil {
			return Entry{}, os.ErrNotExist
		}
		return Entry{Name: g.ref, IsDir: true}, nil
	}

	// Without a trailing slash ls-tree reports the entry itself.
	entries, err := g.lsTree(p)
	if err != nil || len(entries) != 1 {
		return Entry{}, os.ErrNotExist
	}
	return entries[0], nil
}

// ReadDir lists the immediate children of the tree at p.
func (g *GitFS) ReadDir(p string) ([]Entry, error) {
	p = strings.Trim(p, "/")
	if p == "." {
		p = ""
	}
	if p != "" {
		info, err := g.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir {
			return nil, fmt.Errorf("%s: not a directory", p)
		}
		p += "/"
	}
	entries, err := g.lsTree(p)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
