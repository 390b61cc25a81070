package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads configuration from environment variables.
//
// configDir is the directory holding the .env file and the database
// (default ~/.pullcheck); envFilePath overrides the .env location.
//
// Besides the PULLCHECK_* variables, the GitHub Actions environment the
// original workflow exposes is honored as a fallback: GITHUB_TOKEN,
// ANTHROPIC_API_KEY, REPO_NAME, PR_NUMBER and GITHUB_SHA.
func LoadFromEnv(configDir string, envFilePath string) (*Config, error) {
	cfg := New()

	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".pullcheck")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if envFilePath == "" {
		envFilePath = filepath.Join(configDir, ".env")
	}

	if err := godotenv.Load(envFilePath); err != nil {
		// Fall back to a .env in the working directory, ignoring absence
		_ = godotenv.Load()
	}

	// GitHub configuration
	cfg.GitHub = GitHubConfig{
		Token:             getEnvString("PULLCHECK_GITHUB_TOKEN", os.Getenv("GITHUB_TOKEN")),
		APIURL:            getEnvString("PULLCHECK_GITHUB_API_URL", "https://api.github.com"),
		CommitSHA:         getEnvString("PULLCHECK_COMMIT_SHA", os.Getenv("GITHUB_SHA")),
		RequestTimeout:    getEnvDuration("PULLCHECK_GITHUB_REQUEST_TIMEOUT", 30*time.Second),
		RequestsPerMinute: getEnvInt("PULLCHECK_GITHUB_REQUESTS_PER_MINUTE", 30),
	}

	if slug := getEnvString("PULLCHECK_REPO", os.Getenv("REPO_NAME")); slug != "" {
		if err := cfg.SetRepository(slug); err != nil {
			return nil, err
		}
	}

	if raw := getEnvString("PULLCHECK_PR_NUMBER", os.Getenv("PR_NUMBER")); raw != "" {
		number, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid pull request number %q: %w", raw, err)
		}
		cfg.GitHub.PRNumber = number
	}

	// Claude configuration
	cfg.Claude = ClaudeConfig{
		APIKey:      getEnvString("PULLCHECK_CLAUDE_API_KEY", os.Getenv("ANTHROPIC_API_KEY")),
		BaseURL:     getEnvString("PULLCHECK_CLAUDE_BASE_URL", "https://api.anthropic.com"),
		APIVersion:  getEnvString("PULLCHECK_CLAUDE_API_VERSION", "2023-06-01"),
		Model:       getEnvString("PULLCHECK_CLAUDE_MODEL", "claude-3-5-sonnet-20241022"),
		Timeout:     getEnvDuration("PULLCHECK_CLAUDE_TIMEOUT", 120*time.Second),
		MaxRetries:  getEnvInt("PULLCHECK_CLAUDE_MAX_RETRIES", 3),
		MaxTokens:   getEnvInt("PULLCHECK_CLAUDE_MAX_TOKENS", 4096),
		Temperature: getEnvFloat("PULLCHECK_CLAUDE_TEMPERATURE", 0),
	}

	// Review pipeline configuration
	cfg.Review = ReviewConfig{
		Concurrency:  getEnvInt("PULLCHECK_REVIEW_CONCURRENCY", 3),
		MaxDiffBytes: getEnvInt("PULLCHECK_REVIEW_MAX_DIFF_BYTES", 64*1024),
		DryRun:       getEnvBool("PULLCHECK_REVIEW_DRY_RUN", false),
	}

	// Database configuration
	cfg.Database = DatabaseConfig{
		Path:            getEnvString("PULLCHECK_DB_PATH", filepath.Join(configDir, "pullcheck.db")),
		BusyTimeout:     getEnvInt("PULLCHECK_DB_BUSY_TIMEOUT", 5000),
		JournalMode:     getEnvString("PULLCHECK_DB_JOURNAL_MODE", "WAL"),
		SynchronousMode: getEnvString("PULLCHECK_DB_SYNCHRONOUS_MODE", "NORMAL"),
		ForeignKeys:     getEnvBool("PULLCHECK_DB_FOREIGN_KEYS", true),
		ConnMaxLife:     getEnvDuration("PULLCHECK_DB_CONN_MAX_LIFE", 5*time.Minute),
		QueryTimeout:    getEnvDuration("PULLCHECK_DB_QUERY_TIMEOUT", 30*time.Second),
	}

	// Logging configuration
	cfg.Logging = LoggingConfig{
		Level:      getEnvString("PULLCHECK_LOG_LEVEL", "info"),
		Format:     getEnvString("PULLCHECK_LOG_FORMAT", "text"),
		Output:     getEnvString("PULLCHECK_LOG_OUTPUT", filepath.Join(configDir, "pullcheck.log")),
		AddSource:  getEnvBool("PULLCHECK_LOG_ADD_SOURCE", false),
		TimeFormat: getEnvString("PULLCHECK_LOG_TIME_FORMAT", time.RFC3339),
	}

	return cfg, cfg.Validate()
}
