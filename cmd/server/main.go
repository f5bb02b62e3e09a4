// Package main is the entry point for the FolderTree server.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/CageChen/foldertree/internal/config"
	"github.com/CageChen/foldertree/internal/handler"
	"github.com/CageChen/foldertree/internal/scan"
	"github.com/CageChen/foldertree/internal/tree"
	"github.com/CageChen/foldertree/internal/watcher"
	"github.com/gin-gonic/gin"
)

func main() {
	args := os.Args[1:]
	// Accept `foldertree serve --path ...` as well.
	if len(args) > 0 && args[0] == "serve" {
		args = args[1:]
	}

	cfg, err := config.Load(args)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("FolderTree - composite file tree server")
	log.Printf("Config file: %s", cfg.GetConfigFilePath())
	log.Printf("Scanning %d folder(s):", len(cfg.Folders))
	for i, f := range cfg.Folders {
		if f.GitRef != "" {
			log.Printf("  [%d] %s -> %s (git ref: %s)", i, f.Alias, f.Path, f.GitRef)
		} else {
			log.Printf("  [%d] %s -> %s", i, f.Alias, f.Path)
		}
	}

	root, err := scan.New(cfg).All()
	if err != nil {
		log.Fatalf("Failed to scan folders: %v", err)
	}
	files, folders := tree.Count(root)
	log.Printf("Loaded %d file(s) in %d folder(s)", files, folders)

	wsHandler := handler.NewWSHandler()
	treeHandler := handler.NewTreeHandler(cfg, tree.New(root, cfg.Indent), wsHandler)

	if cfg.Watch {
		w, err := watcher.New(cfg)
		if err != nil {
			log.Printf("Warning: failed to create file watcher: %v", err)
		} else {
			w.OnChange(watcher.Debounce(200*time.Millisecond, func(e watcher.Event) {
				if err := treeHandler.Rescan("watch"); err != nil {
					log.Printf("Warning: rescan after %s of %s failed: %v", e.Type, e.Path, err)
				}
			}))
			if err := w.Start(); err != nil {
				log.Printf("Warning: failed to start file watcher: %v", err)
			}
			defer func() { _ = w.Stop() }()
			treeHandler.SetWatcher(w)
			log.Printf("File watcher enabled")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	api := r.Group("/api")
	treeHandler.Register(api)
	api.GET("/ws", wsHandler.HandleWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Server starting at: http://localhost%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
