// Package scan builds composite trees from configured folders.
package scan

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/CageChen/foldertree/internal/config"
	mfs "github.com/CageChen/foldertree/internal/fs"
	"github.com/CageChen/foldertree/internal/tree"
)

// FSForFolder returns the FileSystem backing a configured folder.
func FSForFolder(folder config.Folder) mfs.FileSystem {
	if folder.GitRef != "" {
		return mfs.NewGitFS(folder.Path, folder.GitRef)
	}
	return mfs.NewLocalFS(folder.Path)
}

// Scanner turns FileSystems into trees according to the config filters.
type Scanner struct {
	cfg *config.Config
}

// New creates a Scanner.
func New(cfg *config.Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// All scans every configured folder. A single folder becomes the root
// itself; several are grouped under a virtual root. Folders that fail to
// scan are logged and skipped.
func (s *Scanner) All() (*tree.Folder, error) {
	var roots []tree.Component
	for _, folder := range s.cfg.Folders {
		root, err := s.Folder(FSForFolder(folder), folder)
		if err != nil {
			log.Printf("Warning: failed to scan %s: %v", folder.Path, err)
			continue
		}
		roots = append(roots, root)
	}

	switch len(roots) {
	case 0:
		return nil, fmt.Errorf("no folder could be scanned")
	case 1:
		return roots[0].(*tree.Folder), nil
	}
	return tree.NewFolder(s.cfg.RootName, roots...), nil
}

// Folder scans one configured folder from fsys, starting at its sub path.
// The returned folder is named after the folder alias.
func (s *Scanner) Folder(fsys mfs.FileSystem, folder config.Folder) (*tree.Folder, error) {
	start := strings.Trim(folder.SubPath, "/")
	info, err := fsys.Stat(start)
	if err != nil {
		return nil, err
	}
	if !info.IsDir {
		return nil, fmt.Errorf("%s is not a directory", start)
	}

	name := folder.Alias
	if name == "" {
		name = info.Name
	}
	root := tree.NewFolder(name)
	if err := s.fill(fsys, root, start, folder.Exclude); err != nil {
		return nil, err
	}
	return root, nil
}

func (s *Scanner) fill(fsys mfs.FileSystem, parent *tree.Folder, dir string, excludes []string) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}

	if s.cfg.DirsFirst {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].IsDir != entries[j].IsDir {
				return entries[i].IsDir
			}
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
	} else {
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
	}

	for _, entry := range entries {
		childPath := entry.Name
		if dir != "" {
			childPath = dir + "/" + entry.Name
		}

		if s.cfg.IsExcluded(entry.Name) || config.IsFolderExcluded(childPath, excludes) {
			continue
		}

		if !entry.IsDir {
			if s.cfg.AcceptsFile(entry.Name) {
				parent.Add(tree.NewFile(entry.Name))
			}
			continue
		}

		child := tree.NewFolder(entry.Name)
		if err := s.fill(fsys, child, childPath, excludes); err != nil {
			log.Printf("Warning: skipping %s: %v", childPath, err)
			continue
		}
		// Directories left empty by the extension filter are dropped.
		if child.Len() == 0 && len(s.cfg.Extensions) > 0 {
			continue
		}
		parent.Add(child)
	}
	return nil
}
