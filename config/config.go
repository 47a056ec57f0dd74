// Package config loads the vivarium configuration file.
//
// Config is stored at $XDG_CONFIG_HOME/vivarium/config.yaml (defaults to
// ~/.config/vivarium/config.yaml). Durable artifacts such as snapshots,
// journals and the vocabulary live under DataRoot, which defaults to
// $XDG_DATA_HOME/vivarium.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration unmarshals from strings like "30s" or "30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(value.Value))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// API configures the OpenAI-compatible endpoint used for vision
// analysis and decisions.
type API struct {
	BaseURL string `yaml:"base-url,omitempty"`
	Key     string `yaml:"key,omitempty"`
}

// Sandbox configures the managed container. A compose file takes
// precedence; Image and Name describe the sandbox directly when no
// compose file is given.
type Sandbox struct {
	ComposeFile string   `yaml:"compose-file,omitempty"`
	Service     string   `yaml:"service,omitempty"`
	Name        string   `yaml:"name,omitempty"`
	Image       string   `yaml:"image,omitempty"`
	Memory      string   `yaml:"memory,omitempty"` // "512m", "2g"
	CPUs        float64  `yaml:"cpus,omitempty"`
	StopGrace   Duration `yaml:"stop-grace,omitempty"`
	ExecTimeout Duration `yaml:"exec-timeout,omitempty"`
}

// Observer configures the observation loop. Zero values fall back to
// the observer package defaults.
type Observer struct {
	Interval       Duration `yaml:"interval,omitempty"`
	Backoff        Duration `yaml:"backoff,omitempty"`
	HistoryCap     int      `yaml:"history-cap,omitempty"`
	VisionModel    string   `yaml:"vision-model,omitempty"`
	CaptureCommand []string `yaml:"capture-command,omitempty"`
}

// Decision configures the decision engine.
type Decision struct {
	Model  string `yaml:"model,omitempty"`
	Policy string `yaml:"policy,omitempty"` // "model" (default) or "rules"
}

// Whisper configures the injection loop.
type Whisper struct {
	Interval Duration `yaml:"interval,omitempty"`
	Path     string   `yaml:"path,omitempty"`
	LogCap   int      `yaml:"log-cap,omitempty"`
}

// Config is the full configuration file.
type Config struct {
	LogLevel string `yaml:"log-level,omitempty"`
	LogFile  string `yaml:"log-file,omitempty"`
	DataRoot string `yaml:"data-root,omitempty"`

	API      API      `yaml:"api,omitempty"`
	Sandbox  Sandbox  `yaml:"sandbox,omitempty"`
	Observer Observer `yaml:"observer,omitempty"`
	Decision Decision `yaml:"decision,omitempty"`
	Whisper  Whisper  `yaml:"whisper,omitempty"`
}

// DefaultContainerName is used when neither config nor compose file
// names the sandbox.
const DefaultContainerName = "vivarium-sandbox"

// Path returns the config file location. It respects XDG_CONFIG_HOME,
// falling back to ~/.config/vivarium/config.yaml.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "vivarium", "config.yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "vivarium", "config.yaml")
}

// Load reads the config file at path, or the default location when path
// is empty. A missing file yields a zero config (not an error);
// components apply their own defaults over it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to path, creating directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// APIKey returns the configured key, falling back to OPENAI_API_KEY.
func (c *Config) APIKey() string {
	if c.API.Key != "" {
		return c.API.Key
	}
	return os.Getenv("OPENAI_API_KEY")
}

// ContainerName returns the configured sandbox name or the default.
func (c *Config) ContainerName() string {
	if c.Sandbox.Name != "" {
		return c.Sandbox.Name
	}
	return DefaultContainerName
}

// Root returns DataRoot, defaulting to $XDG_DATA_HOME/vivarium.
func (c *Config) Root() string {
	if c.DataRoot != "" {
		return c.DataRoot
	}
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "share", "vivarium")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "vivarium")
}

// SnapshotsDir is where observer snapshots are stored.
func (c *Config) SnapshotsDir() string {
	return filepath.Join(c.Root(), "snapshots")
}

// VocabularyPath is the vocabulary store file.
func (c *Config) VocabularyPath() string {
	return filepath.Join(c.Root(), "vocabulary.json")
}

// ObservationLogPath is the append-only observation journal.
func (c *Config) ObservationLogPath() string {
	return filepath.Join(c.Root(), "logs", "observations.jsonl")
}

// DecisionLogPath is the append-only decision journal.
func (c *Config) DecisionLogPath() string {
	return filepath.Join(c.Root(), "logs", "decisions.jsonl")
}

// InjectionLogPath is the capped injection log.
func (c *Config) InjectionLogPath() string {
	return filepath.Join(c.Root(), "logs", "injections.json")
}

// SharedDir is the host side of the directory shared with the sandbox.
func (c *Config) SharedDir() string {
	return filepath.Join(c.Root(), "shared")
}

// WhisperPath is the whisper file the injector overwrites. The default
// sits in SharedDir so a bind mount makes it visible inside the
// sandbox.
func (c *Config) WhisperPath() string {
	if c.Whisper.Path != "" {
		return c.Whisper.Path
	}
	return filepath.Join(c.SharedDir(), "whisper.txt")
}

// AuditDBPath is the SQLite audit database.
func (c *Config) AuditDBPath() string {
	return filepath.Join(c.Root(), "audit.db")
}
