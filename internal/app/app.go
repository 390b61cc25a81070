// Package app wires pullcheck's services together for the CLI
package app

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/pullcheck/internal/claude"
	"github.com/tildaslashalef/pullcheck/internal/config"
	"github.com/tildaslashalef/pullcheck/internal/database"
	"github.com/tildaslashalef/pullcheck/internal/git"
	"github.com/tildaslashalef/pullcheck/internal/github"
	"github.com/tildaslashalef/pullcheck/internal/loggy"
	"github.com/tildaslashalef/pullcheck/internal/review"
)

// App holds the application's configuration and services
type App struct {
	Config *config.Config
	Logger *loggy.Logger

	Git    *git.Service
	GitHub *github.Service
	Review *review.Service
	Repo   review.Repository
}

// New creates a fully initialized application
func New(configDir, envFile string) (*App, error) {
	cfg, err := config.LoadFromEnv(configDir, envFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	config.Set(cfg)

	if err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	}); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := loggy.GetGlobalLogger()

	if err := database.InitDB(cfg); err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	db, err := database.DB()
	if err != nil {
		return nil, err
	}

	repo := review.NewSQLRepository(db, logger)
	githubService := github.NewService(&cfg.GitHub, logger)
	llmClient := claude.NewClient(cfg.Claude, logger)

	return &App{
		Config: cfg,
		Logger: logger,
		Git:    git.NewService(logger),
		GitHub: githubService,
		Review: review.NewService(cfg, logger, llmClient, githubService, repo),
		Repo:   repo,
	}, nil
}

// Shutdown releases the application's resources
func (a *App) Shutdown() error {
	if err := database.Close(); err != nil {
		a.Logger.Error("failed to close database", "error", err)
		return err
	}
	return nil
}

// FromContext extracts the App from the CLI context metadata
func FromContext(c *cli.Context) (*App, error) {
	application, ok := c.App.Metadata["app"].(*App)
	if !ok || application == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return application, nil
}
