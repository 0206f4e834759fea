// Package config handles promptdesk configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"

	"github.com/nugget/promptdesk/internal/opstate"
	"github.com/nugget/promptdesk/internal/paths"
	"github.com/nugget/promptdesk/internal/prompts"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/promptdesk/config.yaml,
// /etc/promptdesk/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "promptdesk", "config.yaml"))
	}

	paths = append(paths, "/etc/promptdesk/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all promptdesk configuration.
type Config struct {
	Listen    ListenConfig  `yaml:"listen"`
	CORS      CORSConfig    `yaml:"cors"`
	DataDir   string        `yaml:"data_dir"`
	Storage   StorageConfig `yaml:"storage"`
	Prompt    PromptConfig  `yaml:"prompt"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"` // text (default) or json
	LogFile   string        `yaml:"log_file"`   // optional second sink
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig selects the settings database.
type StorageConfig struct {
	// Driver is "sqlite3" (cgo, default) or "sqlite" (pure Go).
	Driver string `yaml:"driver"`
	// Namespace prefixes every settings key so promptdesk state never
	// collides with other data in the same database.
	Namespace string `yaml:"namespace"`
}

// PromptConfig holds the render options used when a caller leaves them
// blank.
type PromptConfig struct {
	WorkingDirectory    string   `yaml:"working_directory"`
	AllowedHTMLElements []string `yaml:"allowed_html_elements"`
	ModificationTagName string   `yaml:"modification_tag_name"`
}

// Options converts the configured defaults to render options. An
// explicit empty element list stays empty (non-nil) so it is not
// replaced by the package defaults downstream.
func (p PromptConfig) Options() prompts.Options {
	return prompts.Options{
		WorkingDirectory:    p.WorkingDirectory,
		AllowedHTMLElements: slices.Clone(p.AllowedHTMLElements),
		ModificationTagName: p.ModificationTagName,
	}
}

// DatabasePath returns the settings database file under DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "promptdesk.db")
}

// Load reads configuration from a YAML file, expanding environment
// variables first and filling defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.resolvePaths()

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = 8080
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = opstate.DriverCGO
	}
	if c.Storage.Namespace == "" {
		c.Storage.Namespace = "bolt"
	}
	if c.Prompt.WorkingDirectory == "" {
		c.Prompt.WorkingDirectory = prompts.DefaultWorkingDirectory
	}
	// An explicit empty list is kept: the prompt then advertises no tags.
	if c.Prompt.AllowedHTMLElements == nil {
		c.Prompt.AllowedHTMLElements = append([]string(nil), prompts.DefaultAllowedHTMLElements...)
	}
	if c.Prompt.ModificationTagName == "" {
		c.Prompt.ModificationTagName = prompts.DefaultModificationTagName
	}
}

// Paths returns a resolver that maps "data:" onto DataDir.
func (c *Config) Paths() *paths.Resolver {
	return paths.New(map[string]string{"data": c.DataDir})
}

// resolvePaths expands ~ in DataDir and lets LogFile use the data:
// prefix.
func (c *Config) resolvePaths() {
	c.DataDir = paths.ExpandHome(c.DataDir)
	if c.LogFile != "" {
		c.LogFile = c.Paths().Resolve(c.LogFile)
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLogFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		errs = append(errs, fmt.Errorf("listen.port %d out of range (1-65535)", c.Listen.Port))
	}
	switch c.Storage.Driver {
	case opstate.DriverCGO, opstate.DriverPureGo:
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q invalid (valid: %s, %s)",
			c.Storage.Driver, opstate.DriverCGO, opstate.DriverPureGo))
	}
	if strings.TrimSpace(c.Storage.Namespace) == "" {
		errs = append(errs, errors.New("storage.namespace must not be blank"))
	}
	if strings.TrimSpace(c.Prompt.WorkingDirectory) == "" {
		errs = append(errs, errors.New("prompt.working_directory must not be blank"))
	}
	for _, name := range c.Prompt.AllowedHTMLElements {
		if atom.Lookup([]byte(name)) == 0 {
			errs = append(errs, fmt.Errorf("prompt.allowed_html_elements: %q is not an HTML element", name))
		}
	}

	return errors.Join(errs...)
}
