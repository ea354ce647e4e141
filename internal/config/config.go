// Package config holds the immutable runtime configuration for Umbrasol.
// A single Config value is built at startup (defaults, optionally overlaid
// by umbrasol.yaml) and passed explicitly to every component.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Umbrasol configuration.
type Config struct {
	// Identity
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Filesystem layout
	Paths PathsConfig `yaml:"paths"`

	// Local inference endpoint
	Brain BrainConfig `yaml:"brain"`

	// Orchestrator tunables
	Execution ExecutionConfig `yaml:"execution"`

	// Web search collaborator
	Internet InternetConfig `yaml:"internet"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig pins the on-disk layout. All paths are relative to BaseDir
// unless absolute.
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir"`
	LogDir    string `yaml:"log_dir"`
	MemoryDir string `yaml:"memory_dir"`
	BackupDir string `yaml:"backup_dir"`
}

// BrainConfig configures the streaming inference client.
type BrainConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	NumThreads  int     `yaml:"num_threads"`
	ContextSize int     `yaml:"context_size"`

	// Seconds. Either timeout firing ends the stream with a terminal
	// ERROR: chunk.
	StreamTimeoutSec int `yaml:"stream_timeout_sec"`
	ChunkTimeoutSec  int `yaml:"chunk_timeout_sec"`
}

// ExecutionConfig carries the orchestrator tunables.
type ExecutionConfig struct {
	MaxRetries             int `yaml:"max_retries"`
	ExecutionTimeoutSec    int `yaml:"execution_timeout_sec"`
	MaxConcurrentTasks     int `yaml:"max_concurrent_tasks"`
	MaxTaskResume          int `yaml:"max_task_resume"`
	HeuristicWordThreshold int `yaml:"heuristic_word_threshold"`
	SentenceBufferWords    int `yaml:"sentence_buffer_words"`
	HealthCheckIntervalSec int `yaml:"health_check_interval_sec"`
}

// InternetConfig configures the swift-search collaborator.
type InternetConfig struct {
	CacheTTLSec int `yaml:"cache_ttl_sec"`
	TimeoutSec  int `yaml:"timeout_sec"`
}

// LoggingConfig configures the file logger.
type LoggingConfig struct {
	Level   string `yaml:"level"` // debug, info, warn, error
	Console bool   `yaml:"console"`
}

// DefaultConfig returns the default configuration rooted at the current
// working directory.
func DefaultConfig() *Config {
	base, err := os.Getwd()
	if err != nil {
		base = "."
	}
	return &Config{
		Name:    "Umbrasol",
		Version: "v12.0",

		Paths: PathsConfig{
			BaseDir:   base,
			LogDir:    "logs",
			MemoryDir: "memory",
			BackupDir: filepath.Join(".umbrasol", "backups"),
		},

		Brain: BrainConfig{
			BaseURL:          "http://localhost:11434",
			Model:            "qwen2.5:3b",
			Temperature:      0.3,
			MaxTokens:        600,
			NumThreads:       defaultThreads(),
			ContextSize:      4096,
			StreamTimeoutSec: 60,
			ChunkTimeoutSec:  30,
		},

		Execution: ExecutionConfig{
			MaxRetries:             2,
			ExecutionTimeoutSec:    60,
			MaxConcurrentTasks:     4,
			MaxTaskResume:          10,
			HeuristicWordThreshold: 5,
			SentenceBufferWords:    8,
			HealthCheckIntervalSec: 30,
		},

		Internet: InternetConfig{
			CacheTTLSec: 14400, // 4 hours
			TimeoutSec:  15,
		},

		Logging: LoggingConfig{
			Level:   "info",
			Console: false,
		},
	}
}

func defaultThreads() int {
	n := runtime.NumCPU()
	if n <= 0 {
		return 4
	}
	return n
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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

// Resolved path accessors. Every component takes its paths from here so the
// layout is decided in exactly one place.

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.BaseDir, p)
}

// LogDir returns the resolved log directory.
func (c *Config) LogDir() string { return c.resolve(c.Paths.LogDir) }

// LogFile returns the resolved path of the line log.
func (c *Config) LogFile() string { return filepath.Join(c.LogDir(), "umbrasol.log") }

// LockFile returns the resolved path of the PID lock file.
func (c *Config) LockFile() string { return filepath.Join(c.LogDir(), "core.lock") }

// DatabasePath returns the resolved path of the embedded store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.resolve(c.Paths.MemoryDir), "umbrasol.db")
}

// BackupDir returns the resolved snapshot directory.
func (c *Config) BackupDir() string { return c.resolve(c.Paths.BackupDir) }

// Duration accessors.

// ExecutionTimeout bounds a single shell command.
func (c *Config) ExecutionTimeout() time.Duration {
	return time.Duration(c.Execution.ExecutionTimeoutSec) * time.Second
}

// HealthCheckInterval is the liveness ticker period.
func (c *Config) HealthCheckInterval() time.Duration {
	return time.Duration(c.Execution.HealthCheckIntervalSec) * time.Second
}

// StreamTimeout bounds a whole brain stream.
func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.Brain.StreamTimeoutSec) * time.Second
}

// ChunkTimeout bounds the gap between consecutive brain chunks.
func (c *Config) ChunkTimeout() time.Duration {
	return time.Duration(c.Brain.ChunkTimeoutSec) * time.Second
}

// CacheTTL bounds web search cache entries.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Internet.CacheTTLSec) * time.Second
}

// InternetTimeout bounds a single web search request.
func (c *Config) InternetTimeout() time.Duration {
	return time.Duration(c.Internet.TimeoutSec) * time.Second
}
