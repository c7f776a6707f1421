// Package config loads conllu-pipeline settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/validation"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "conllu.yaml"

// Config holds all pipeline configuration.
type Config struct {
	// Corpus input
	Corpus CorpusConfig `yaml:"corpus"`

	// External annotation engine
	Engine EngineConfig `yaml:"engine"`

	// Annotation artifact
	Output OutputConfig `yaml:"output"`

	// Structural validator
	Validation ValidationConfig `yaml:"validation"`

	// Validation history
	Store StoreConfig `yaml:"store"`

	// HTTP API
	Server ServerConfig `yaml:"server"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CorpusConfig configures the corpus loader.
type CorpusConfig struct {
	Dir      string `yaml:"dir"`
	Pattern  string `yaml:"pattern"`  // glob on file names, e.g. "*_raw.txt"
	Workers  int    `yaml:"workers"`  // concurrent reads, 0 = NumCPU
	Numbered bool   `yaml:"numbered"` // files are N_raw.txt numbered 1..N without gaps
}

// EngineConfig selects and configures the annotation engine.
type EngineConfig struct {
	Kind    string        `yaml:"kind"` // udpipe, command
	Timeout string        `yaml:"timeout"`
	UDPipe  UDPipeConfig  `yaml:"udpipe"`
	Command CommandConfig `yaml:"command"`
}

// UDPipeConfig configures the UDPipe REST service.
type UDPipeConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// CommandConfig configures a local analyzer binary.
type CommandConfig struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
}

// OutputConfig configures the written artifact.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// ValidationConfig configures the structural validator.
type ValidationConfig struct {
	RootPolicy string `yaml:"root_policy"` // single, multiple, flagged
	Workers    int    `yaml:"workers"`
	Strict     bool   `yaml:"strict"` // unannotated words and sentences are errors
}

// StoreConfig configures the validation history store.
type StoreConfig struct {
	Backend  string `yaml:"backend"` // sqlite, sqlite-pure, memory
	DataPath string `yaml:"data_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	MaxConns int    `yaml:"max_conns"` // 0 = unlimited
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Engine kinds.
const (
	EngineUDPipe  = "udpipe"
	EngineCommand = "command"
)

// Store backends.
const (
	StoreSQLite     = "sqlite"
	StorePureSQLite = "sqlite-pure"
	StoreMemory     = "memory"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Dir:     "corpus",
			Pattern: "*.txt",
		},

		Engine: EngineConfig{
			Kind:    EngineUDPipe,
			Timeout: "300s",
			UDPipe: UDPipeConfig{
				BaseURL: "https://lindat.mff.cuni.cz/services/udpipe/api",
				Model:   "russian-syntagrus",
			},
		},

		Output: OutputConfig{
			Path: "corpus.conllu",
		},

		Validation: ValidationConfig{
			RootPolicy: string(validation.RootSingle),
		},

		Store: StoreConfig{
			Backend:  StoreSQLite,
			DataPath: "data",
		},

		Server: ServerConfig{
			Addr:     "127.0.0.1:8090",
			MaxConns: 64,
		},

		Watch: WatchConfig{
			Debounce: "500ms",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if kind := os.Getenv("CONLLU_ENGINE"); kind != "" {
		c.Engine.Kind = kind
	}
	if url := os.Getenv("CONLLU_UDPIPE_URL"); url != "" {
		c.Engine.UDPipe.BaseURL = url
	}
	if model := os.Getenv("CONLLU_UDPIPE_MODEL"); model != "" {
		c.Engine.UDPipe.Model = model
	}
	if path := os.Getenv("CONLLU_DATA"); path != "" {
		c.Store.DataPath = path
	}
	if addr := os.Getenv("CONLLU_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("CONLLU_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetEngineTimeout returns the engine timeout as a duration.
func (c *Config) GetEngineTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil {
		return 300 * time.Second
	}
	return d
}

// GetWatchDebounce returns the watch quiet period as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetRootPolicy returns the parsed root policy.
func (c *Config) GetRootPolicy() validation.RootPolicy {
	p, err := validation.ParseRootPolicy(c.Validation.RootPolicy)
	if err != nil {
		return validation.RootSingle
	}
	return p
}

// ValidatorOptions builds validator options from the validation section.
func (c *Config) ValidatorOptions() validation.Options {
	return validation.Options{
		RootPolicy: c.GetRootPolicy(),
		Workers:    c.Validation.Workers,
		Strict:     c.Validation.Strict,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !doublestar.ValidatePattern(c.Corpus.Pattern) {
		return fmt.Errorf("invalid corpus pattern: %q", c.Corpus.Pattern)
	}

	switch c.Engine.Kind {
	case EngineUDPipe:
	case EngineCommand:
		if c.Engine.Command.Path == "" {
			return fmt.Errorf("engine kind %q needs engine.command.path", EngineCommand)
		}
	default:
		return fmt.Errorf("invalid engine kind: %s (valid: %s, %s)", c.Engine.Kind, EngineUDPipe, EngineCommand)
	}

	if c.Engine.Timeout != "" {
		if _, err := time.ParseDuration(c.Engine.Timeout); err != nil {
			return fmt.Errorf("invalid engine timeout: %w", err)
		}
	}

	if _, err := validation.ParseRootPolicy(c.Validation.RootPolicy); err != nil {
		return err
	}

	switch c.Store.Backend {
	case StoreSQLite, StorePureSQLite, StoreMemory:
	default:
		return fmt.Errorf("invalid store backend: %s (valid: %s, %s, %s)",
			c.Store.Backend, StoreSQLite, StorePureSQLite, StoreMemory)
	}

	if c.Server.MaxConns < 0 {
		return fmt.Errorf("invalid server max_conns: %d", c.Server.MaxConns)
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	return nil
}
