// Package config loads spor configuration.
//
// Values are applied in order of increasing precedence:
//  1. Hardcoded defaults (NewConfig)
//  2. User config ($XDG_CONFIG_HOME/spor/config.yaml or ~/.config/spor/config.yaml)
//  3. Repository config (<root>/.spor/config.yaml)
//  4. Environment variables (SPOR_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name used in both the user and repository locations.
const FileName = "config.yaml"

// RepositoryDir is the directory holding repository-level configuration.
const RepositoryDir = ".spor"

var configValidate = newValidator()

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Config is the complete spor configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Alignment  AlignmentConfig  `yaml:"alignment" json:"alignment"`
	Anchors    AnchorsConfig    `yaml:"anchors" json:"anchors"`
	Relocation RelocationConfig `yaml:"relocation" json:"relocation"`
	Watch      WatchConfig      `yaml:"watch" json:"watch"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// AlignmentConfig configures the Smith-Waterman scorer and its cost limits.
type AlignmentConfig struct {
	// MatchScore is awarded for identical characters and subtracted for mismatches.
	MatchScore float64 `yaml:"match_score" json:"match_score" validate:"gt=0"`

	// GapPenalty is subtracted per gap position.
	GapPenalty float64 `yaml:"gap_penalty" json:"gap_penalty" validate:"gt=0"`

	// MaxCells caps the alignment matrix size per anchor (0 = unlimited).
	// Each cell costs nine bytes.
	MaxCells int `yaml:"max_cells" json:"max_cells" validate:"gte=0"`

	// MaxTracebacks caps how many tied alignments are enumerated (0 = unlimited).
	MaxTracebacks int `yaml:"max_tracebacks" json:"max_tracebacks" validate:"gte=0"`
}

// AnchorsConfig holds defaults for new anchors.
type AnchorsConfig struct {
	ContextWidth int    `yaml:"context_width" json:"context_width" validate:"gte=0"`
	Encoding     string `yaml:"encoding" json:"encoding" validate:"required"`
}

// RelocationConfig configures `spor update`.
type RelocationConfig struct {
	// Workers is the number of anchors relocated concurrently.
	Workers int `yaml:"workers" json:"workers" validate:"gte=1"`

	// SearchWindow, when positive, aligns against this many characters around
	// the previous location before trying the whole file.
	SearchWindow int `yaml:"search_window" json:"search_window" validate:"gte=0"`
}

// WatchConfig configures `spor watch`.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LoggingConfig configures the debug log file.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Alignment: AlignmentConfig{
			MatchScore:    3,
			GapPenalty:    2,
			MaxCells:      20_000_000,
			MaxTracebacks: 1000,
		},
		Anchors: AnchorsConfig{
			ContextWidth: 60,
			Encoding:     "utf-8",
		},
		Relocation: RelocationConfig{
			Workers:      runtime.NumCPU(),
			SearchWindow: 0,
		},
		Watch: WatchConfig{
			Debounce: "300ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spor", FileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "spor", FileName)
	}
	return filepath.Join(home, ".config", "spor", FileName)
}

// GetRepositoryConfigPath returns the config path for the repository at root.
func GetRepositoryConfigPath(root string) string {
	return filepath.Join(root, RepositoryDir, FileName)
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	var parsed Config
	if err := parsed.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return &parsed, nil
}

// Load builds the configuration for the repository rooted at root.
// An empty root skips the repository layer.
func Load(root string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
		}
	}

	if root != "" {
		if path := GetRepositoryConfigPath(root); fileExists(path) {
			if err := cfg.loadYAML(path); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadYAML decodes the file at path onto c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := c.overlay(data); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// overlay decodes data onto c. Keys that are absent or null keep their
// current values; keys that are present, zeros included, replace them.
func (c *Config) overlay(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	dropNulls(root)
	return root.Decode(c)
}

// dropNulls removes null-valued pairs from mapping n and its child mappings,
// so a section whose keys are all commented out leaves the section alone.
func dropNulls(n *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		return
	}
	kept := n.Content[:0]
	for i := 0; i+1 < len(n.Content); i += 2 {
		value := n.Content[i+1]
		if value.Kind == yaml.ScalarNode && value.ShortTag() == "!!null" {
			continue
		}
		dropNulls(value)
		kept = append(kept, n.Content[i], value)
	}
	n.Content = kept
}

// applyEnvOverrides applies SPOR_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	envInt("SPOR_CONTEXT_WIDTH", &c.Anchors.ContextWidth)
	envInt("SPOR_MAX_CELLS", &c.Alignment.MaxCells)
	envInt("SPOR_MAX_TRACEBACKS", &c.Alignment.MaxTracebacks)
	envInt("SPOR_WORKERS", &c.Relocation.Workers)
	envInt("SPOR_SEARCH_WINDOW", &c.Relocation.SearchWindow)
	envFloat("SPOR_MATCH_SCORE", &c.Alignment.MatchScore)
	envFloat("SPOR_GAP_PENALTY", &c.Alignment.GapPenalty)

	if v := os.Getenv("SPOR_ENCODING"); v != "" {
		c.Anchors.Encoding = v
	}
	if v := os.Getenv("SPOR_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("SPOR_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envFloat(name string, dst *float64) {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*dst = f
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s must satisfy %s %s, got %v",
				fieldPath(fe.Namespace()), fe.Tag(), fe.Param(), fe.Value())
		}
		return err
	}
	if _, err := c.WatchDebounce(); err != nil {
		return fmt.Errorf("watch.debounce must be a duration like 300ms, got %q", c.Watch.Debounce)
	}
	return nil
}

// fieldPath turns "Config.alignment.match_score" into "alignment.match_score".
func fieldPath(ns string) string {
	return strings.TrimPrefix(ns, "Config.")
}

// WatchDebounce parses Watch.Debounce.
func (c *Config) WatchDebounce() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
