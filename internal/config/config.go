// Package config provides configuration management for pullcheck
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// Global configuration instance
	globalConfig *Config
	configMutex  sync.RWMutex
)

// Get returns the global configuration instance
// If the configuration has not been initialized, it will return an error
func Get() (*Config, error) {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}

	return globalConfig, nil
}

// Set sets the global configuration instance
func Set(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = cfg
}

// Config represents the complete application configuration
type Config struct {
	GitHub   GitHubConfig
	Claude   ClaudeConfig
	Review   ReviewConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// GitHubConfig represents GitHub-specific configuration
type GitHubConfig struct {
	Token             string        // GitHub token (PAT or Actions token)
	APIURL            string        // GitHub API base URL
	Owner             string        // Default repository owner
	Repo              string        // Default repository name
	PRNumber          int           // Default pull request number
	CommitSHA         string        // Commit SHA to anchor review comments to
	RequestTimeout    time.Duration // Request timeout for GitHub API
	RequestsPerMinute int           // Rate limit for comment posting
}

// ClaudeConfig holds Claude API configuration
type ClaudeConfig struct {
	APIKey      string        // Claude API key
	BaseURL     string        // Claude API base URL
	APIVersion  string        // API version to use
	Model       string        // Claude model to use
	Timeout     time.Duration // Request timeout
	MaxRetries  int           // Maximum number of retries on failure
	MaxTokens   int           // Max tokens to generate for responses
	Temperature float64       // Default temperature for generation
}

// ReviewConfig represents review pipeline configuration
type ReviewConfig struct {
	Concurrency  int  // Number of files reviewed in parallel
	MaxDiffBytes int  // Fragments larger than this are skipped
	DryRun       bool // Never post comments, print them instead
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Path            string        // Path to the SQLite database file
	JournalMode     string        // Journal mode (WAL recommended)
	SynchronousMode string        // Synchronous mode
	BusyTimeout     int           // Busy timeout in milliseconds
	ForeignKeys     bool          // Whether to enforce foreign key constraints
	ConnMaxLife     time.Duration // Maximum connection lifetime
	QueryTimeout    time.Duration // Query timeout
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	Output     string // stdout, stderr, or file path
	AddSource  bool   // Include source code position in logs
	TimeFormat string // Time format for logs (empty uses RFC3339)
}

// New returns a new empty Config
func New() *Config {
	return &Config{}
}

// Validate checks the configuration for invalid or inconsistent values
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if c.Review.Concurrency <= 0 {
		return fmt.Errorf("review config: concurrency must be positive")
	}

	if c.GitHub.RequestsPerMinute <= 0 {
		return fmt.Errorf("github config: requests per minute must be positive")
	}

	if c.Database.BusyTimeout <= 0 {
		return fmt.Errorf("database config: busy timeout must be positive")
	}

	return nil
}

// ValidateForPR checks the additional fields a GitHub review run requires
func (c *Config) ValidateForPR() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("github token is required (PULLCHECK_GITHUB_TOKEN or GITHUB_TOKEN)")
	}

	if c.Claude.APIKey == "" {
		return fmt.Errorf("claude api key is required (PULLCHECK_CLAUDE_API_KEY or ANTHROPIC_API_KEY)")
	}

	if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
		return fmt.Errorf("repository is required (--repo owner/name or REPO_NAME)")
	}

	if c.GitHub.PRNumber <= 0 {
		return fmt.Errorf("pull request number is required (--pr or PR_NUMBER)")
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// ParseLogLevel converts a string log level to slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetRepository splits an "owner/name" slug into the GitHub config
func (c *Config) SetRepository(slug string) error {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("invalid repository %q, expected owner/name", slug)
	}

	c.GitHub.Owner = owner
	c.GitHub.Repo = repo
	return nil
}

// getEnvString returns a string from the environment variable
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an int from the environment variable
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool returns a bool from the environment variable
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvFloat returns a float64 from the environment variable
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration returns a time.Duration from the environment variable
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
