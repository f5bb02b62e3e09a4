// Package config manages YAML-based configuration, CLI flags, and the set of
// scanned folders.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Folder is one source directory scanned into the tree.
type Folder struct {
	Path    string   `yaml:"path" json:"path"`
	Alias   string   `yaml:"alias" json:"alias"`
	GitRef  string   `yaml:"git_ref,omitempty" json:"git_ref,omitempty"`
	SubPath string   `yaml:"sub_path,omitempty" json:"sub_path,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Config holds all configuration options for FolderTree
type Config struct {
	Folders []Folder `yaml:"folders,omitempty" json:"folders"`

	Port int `yaml:"port" json:"port"`
	// Name of the virtual root when more than one folder is configured.
	RootName string `yaml:"root_name" json:"root_name"`
	// Indentation added per tree level.
	Indent     string   `yaml:"indent" json:"indent"`
	Watch      bool     `yaml:"watch" json:"watch"`
	DirsFirst  bool     `yaml:"dirs_first" json:"dirs_first"`
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Exclude    []string `yaml:"exclude" json:"exclude"`

	configPath string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:      8080,
		RootName:  "Root",
		Indent:    "  ",
		Watch:     true,
		DirsFirst: true,
		Exclude:   []string{".git", ".svn", "node_modules"},
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/foldertree"
	}
	return filepath.Join(home, ".config", "foldertree")
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load reads the config file and applies command line flags from args.
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fset := flag.NewFlagSet("foldertree", flag.ContinueOnError)
	path := fset.String("path", "", "Directory to scan (replaces configured folders)")
	port := fset.Int("port", 0, "HTTP server port")
	indent := fset.String("indent", "", "Indentation per tree level")
	watch := fset.Bool("watch", true, "Rescan on file changes")
	configFile := fset.String("config", "", "Configuration file path")
	fset.StringVar(path, "p", "", "Directory to scan (shorthand)")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	var cfgPath string
	switch {
	case *configFile != "":
		cfgPath = *configFile
	case fileExists(GetConfigPath()):
		cfgPath = GetConfigPath()
	case fileExists("foldertree.yaml"):
		cfgPath = "foldertree.yaml"
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && *configFile != "" {
			// Only an explicitly requested file is required to load.
			return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
		}
		cfg.configPath = cfgPath
	} else {
		cfg.configPath = GetConfigPath()
	}

	// Only flags given on the command line override the file.
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path", "p":
			if *path != "" {
				cfg.Folders = []Folder{{Path: *path}}
			}
		case "port":
			cfg.Port = *port
		case "indent":
			cfg.Indent = *indent
		case "watch":
			cfg.Watch = *watch
		}
	})

	if len(cfg.Folders) == 0 {
		cfg.Folders = []Folder{{Path: "."}}
	}
	cfg.normalize()

	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// normalize resolves folder paths and fills in missing aliases.
func (c *Config) normalize() {
	for i := range c.Folders {
		if abs, err := filepath.Abs(c.Folders[i].Path); err == nil {
			c.Folders[i].Path = abs
		}
		if c.Folders[i].Alias == "" {
			c.Folders[i].Alias = defaultAlias(c.Folders[i].Path, c.Folders[i].GitRef)
		}
	}
	if c.RootName == "" {
		c.RootName = "Root"
	}
	if c.Indent == "" {
		c.Indent = "  "
	}
}

func defaultAlias(path, gitRef string) string {
	alias := filepath.Base(path)
	if gitRef != "" {
		alias += " (" + gitRef + ")"
	}
	return alias
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Save writes the current configuration to the config file
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.configPath, data, 0644)
}

// AddFolder registers a folder. Adding the same path, ref and sub path twice
// is a no-op.
func (c *Config) AddFolder(path, alias, gitRef, subPath string, exclude []string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	for _, f := range c.Folders {
		if f.Path == absPath && f.GitRef == gitRef && f.SubPath == subPath {
			return nil
		}
	}
	for _, f := range c.Folders {
		if alias != "" && f.Alias == alias {
			return fmt.Errorf("alias %q already in use", alias)
		}
	}

	if alias == "" {
		alias = defaultAlias(absPath, gitRef)
	}

	c.Folders = append(c.Folders, Folder{
		Path:    absPath,
		Alias:   alias,
		GitRef:  gitRef,
		SubPath: subPath,
		Exclude: exclude,
	})
	return nil
}

// RemoveFolderByIndex removes a folder by its index
func (c *Config) RemoveFolderByIndex(index int) {
	if index < 0 || index >= len(c.Folders) {
		return
	}
	c.Folders = append(c.Folders[:index], c.Folders[index+1:]...)
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// IsExcluded reports whether the base name of path matches a global exclude.
func (c *Config) IsExcluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range c.Exclude {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// IsFolderExcluded reports whether relPath matches one of the folder-level
// patterns, either as a glob on the path or base name, or as a path prefix.
func IsFolderExcluded(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(relPath)); matched {
			return true
		}
		clean := filepath.ToSlash(filepath.Clean(pattern))
		if relPath == clean || strings.HasPrefix(relPath, clean+"/") {
			return true
		}
	}
	return false
}

// AcceptsFile reports whether a file name passes the extension filter. An
// empty filter accepts every file.
func (c *Config) AcceptsFile(name string) bool {
	if len(c.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range c.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
