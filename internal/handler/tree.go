// Package handler provides HTTP handlers for the FolderTree REST API.
package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/CageChen/foldertree/internal/config"
	"github.com/CageChen/foldertree/internal/markdown"
	"github.com/CageChen/foldertree/internal/scan"
	"github.com/CageChen/foldertree/internal/tree"
	"github.com/gin-gonic/gin"
)

// Notifier is told about every change to the served tree.
type Notifier interface {
	TreeChanged(reason string, snapshot *tree.Node)
}

// FolderWatcher starts watching folders added at runtime.
type FolderWatcher interface {
	AddFolder(folder config.Folder)
}

// TreeHandler handles tree API requests
type TreeHandler struct {
	cfg      *config.Config
	tree     *tree.Tree
	scanner  *scan.Scanner
	parser   *markdown.Parser
	notifier Notifier
	watcher  FolderWatcher

	// mu serializes config changes and rescans.
	mu sync.Mutex
}

// NewTreeHandler creates a new tree handler serving t. notifier may be nil.
func NewTreeHandler(cfg *config.Config, t *tree.Tree, notifier Notifier) *TreeHandler {
	return &TreeHandler{
		cfg:      cfg,
		tree:     t,
		scanner:  scan.New(cfg),
		parser:   markdown.NewParser(),
		notifier: notifier,
	}
}

// SetWatcher makes AddFolder also watch the new folder.
func (h *TreeHandler) SetWatcher(w FolderWatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.watcher = w
}

// Register mounts the tree and folder routes on r.
func (h *TreeHandler) Register(r gin.IRouter) {
	r.GET("/tree", h.GetTree)
	r.GET("/tree/text", h.GetTreeText)
	r.GET("/tree/html", h.GetTreeHTML)
	r.GET("/tree/outline", h.GetTreeOutline)
	r.PUT("/tree", h.ImportTree)
	r.POST("/reload", h.Reload)

	r.POST("/nodes", h.AddNode)
	r.DELETE("/nodes", h.RemoveNode)

	r.GET("/folders", h.GetFolders)
	r.POST("/folders", h.AddFolder)
	r.DELETE("/folders", h.RemoveFolder)
}

func (h *TreeHandler) changed(reason string) {
	if h.notifier != nil {
		h.notifier.TreeChanged(reason, h.tree.Snapshot())
	}
}

// statusFor maps tree errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tree.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tree.ErrCycle), errors.Is(err, tree.ErrAttached):
		return http.StatusConflict
	case errors.Is(err, tree.ErrNotFolder), errors.Is(err, tree.ErrUnknownType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Rescan rebuilds the tree from the configured folders.
func (h *TreeHandler) Rescan(reason string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rescan(reason)
}

func (h *TreeHandler) rescan(reason string) error {
	root, err := h.scanner.All()
	if err != nil {
		return err
	}
	h.tree.Replace(root)
	h.changed(reason)
	return nil
}

// GetTree returns the tree as JSON
func (h *TreeHandler) GetTree(c *gin.Context) {
	files, folders := h.tree.Count()
	c.JSON(http.StatusOK, gin.H{
		"tree":    h.tree.Snapshot(),
		"files":   files,
		"folders": folders,
	})
}

// GetTreeText returns the indented listing
func (h *TreeHandler) GetTreeText(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(h.tree.String()))
}

// GetTreeOutline returns the Markdown outline accepted by ImportTree
func (h *TreeHandler) GetTreeOutline(c *gin.Context) {
	var outline string
	h.tree.View(func(root *tree.Folder, _ string) {
		outline = markdown.Outline(root)
	})
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(outline))
}

// GetTreeHTML returns the tree as nested HTML lists followed by the
// highlighted text listing
func (h *TreeHandler) GetTreeHTML(c *gin.Context) {
	html, err := h.parser.RenderTree(h.tree)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to render tree: " + err.Error(),
		})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// ImportTree replaces the tree with a Markdown outline from the request body
func (h *TreeHandler) ImportTree(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	root, err := h.parser.ParseOutline(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.tree.Replace(root)
	h.changed("import")
	c.JSON(http.StatusOK, gin.H{"message": "tree imported", "tree": h.tree.Snapshot()})
}

// Reload rescans the configured folders
func (h *TreeHandler) Reload(c *gin.Context) {
	if err := h.Rescan("reload"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tree reloaded", "tree": h.tree.Snapshot()})
}

// AddNodeRequest adds a subtree below Parent ("" is the root)
type AddNodeRequest struct {
	Parent string     `json:"parent"`
	Node   *tree.Node `json:"node" binding:"required"`
}

// AddNode appends a new subtree to a folder
func (h *TreeHandler) AddNode(c *gin.Context) {
	var req AddNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "node is required"})
		return
	}

	node, err := tree.Decode(req.Node)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.tree.Add(req.Parent, node); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	h.changed("add")
	c.JSON(http.StatusOK, gin.H{"message": "node added", "tree": h.tree.Snapshot()})
}

// RemoveNodeRequest identifies the node to remove by path
type RemoveNodeRequest struct {
	Path string `json:"path" binding:"required"`
}

// RemoveNode detaches a node from its parent. Removing a missing node
// succeeds with removed=false.
func (h *TreeHandler) RemoveNode(c *gin.Context) {
	var req RemoveNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	removed, err := h.tree.Remove(req.Path)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if removed {
		h.changed("remove")
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "tree": h.tree.Snapshot()})
}

// GetFolders returns the configured source folders
func (h *TreeHandler) GetFolders(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"folders":       h.cfg.Folders,
		"globalExclude": h.cfg.Exclude,
	})
}

// AddFolderRequest represents a request to add a folder
type AddFolderRequest struct {
	Path    string   `json:"path" binding:"required"`
	Alias   string   `json:"alias"`
	GitRef  string   `json:"git_ref"`
	SubPath string   `json:"sub_path"`
	Exclude []string `json:"exclude"`
}

// AddFolder adds a source folder, saves the config and rescans
func (h *TreeHandler) AddFolder(c *gin.Context) {
	var req AddFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	// The path must be a directory on disk even for git_ref folders.
	info, err := os.Stat(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path does not exist: " + req.Path})
		return
	}
	if !info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is not a directory"})
		return
	}
	if req.SubPath != "" {
		fsys := scan.FSForFolder(config.Folder{Path: req.Path, GitRef: req.GitRef})
		if _, err := fsys.Stat(req.SubPath); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sub_path does not exist: " + req.SubPath})
			return
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.cfg.AddFolder(req.Path, req.Alias, req.GitRef, req.SubPath, req.Exclude); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.watcher != nil {
		// Already watched folders are skipped by the watcher.
		for _, folder := range h.cfg.Folders {
			h.watcher.AddFolder(folder)
		}
	}
	h.saveAndRescan(c, "folder added")
}

// RemoveFolderRequest represents a request to remove a folder (by index)
type RemoveFolderRequest struct {
	Index int `json:"index"`
}

// RemoveFolder removes a source folder by index, saves the config and rescans
func (h *TreeHandler) RemoveFolder(c *gin.Context) {
	var req RemoveFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if req.Index < 0 || req.Index >= len(h.cfg.Folders) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder index"})
		return
	}
	if len(h.cfg.Folders) == 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot remove the last folder"})
		return
	}

	h.cfg.RemoveFolderByIndex(req.Index)
	h.saveAndRescan(c, "folder removed")
}

func (h *TreeHandler) saveAndRescan(c *gin.Context, message string) {
	if err := h.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to save config: " + err.Error(),
		})
		return
	}
	if err := h.rescan("folders"); err != nil {
		log.Printf("Warning: rescan after config change failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"folders": h.cfg.Folders,
	})
}
