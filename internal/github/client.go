// Package github provides the GitHub API integration for pullcheck
package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"

	"github.com/tildaslashalef/pullcheck/internal/config"
)

// Client wraps the go-github client
type Client struct {
	gh     *github.Client
	config *config.GitHubConfig
}

// NewClient creates a new GitHub API client from config
func NewClient(cfg *config.GitHubConfig) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = timeout

	var gh *github.Client
	if cfg.APIURL != "" && cfg.APIURL != "https://api.github.com" {
		var err error
		gh, err = github.NewClient(tc).WithEnterpriseURLs(cfg.APIURL, cfg.APIURL)
		if err != nil {
			// Fall back to the default endpoint if the enterprise URL is unusable
			gh = github.NewClient(tc)
		}
	} else {
		gh = github.NewClient(tc)
	}

	return &Client{
		gh:     gh,
		config: cfg,
	}
}

// GetPullRequest gets a pull request by number
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo must be provided")
	}

	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("getting pull request %s/%s#%d: %w", owner, repo, number, err)
	}

	return pr, nil
}

// GetPullRequestDiff fetches the raw unified diff of a pull request
func (c *Client) GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	if owner == "" || repo == "" {
		return "", fmt.Errorf("owner and repo must be provided")
	}

	diff, _, err := c.gh.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{Type: github.Diff})
	if err != nil {
		return "", fmt.Errorf("getting diff for %s/%s#%d: %w", owner, repo, number, err)
	}

	return diff, nil
}

// CreateReviewComment creates a pull request review comment
func (c *Client) CreateReviewComment(ctx context.Context, owner, repo string, number int, comment *github.PullRequestComment) error {
	_, _, err := c.gh.PullRequests.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		return fmt.Errorf("creating review comment on %s/%s#%d: %w", owner, repo, number, err)
	}

	return nil
}
