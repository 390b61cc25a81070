package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v59/github"
	"golang.org/x/time/rate"

	"github.com/tildaslashalef/pullcheck/internal/config"
	"github.com/tildaslashalef/pullcheck/internal/loggy"
)

// PRComment contains all details needed to submit a review comment to a
// GitHub pull request
type PRComment struct {
	Owner     string
	Repo      string
	PRNumber  int
	CommitSHA string
	Path      string
	Line      int
	Body      string
}

// Service provides GitHub integration functionality
type Service struct {
	client  *Client
	config  *config.GitHubConfig
	logger  *loggy.Logger
	limiter *rate.Limiter
}

// NewService creates a new GitHub service
func NewService(cfg *config.GitHubConfig, logger *loggy.Logger) *Service {
	return newService(NewClient(cfg), cfg, logger)
}

func newService(client *Client, cfg *config.GitHubConfig, logger *loggy.Logger) *Service {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &Service{
		client:  client,
		config:  cfg,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
	}
}

// FetchDiff retrieves the raw unified diff for a pull request
func (s *Service) FetchDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	diff, err := s.client.GetPullRequestDiff(ctx, owner, repo, number)
	if err != nil {
		return "", err
	}

	s.logger.Debug("fetched pull request diff",
		"repo", fmt.Sprintf("%s/%s", owner, repo),
		"pr", number,
		"bytes", len(diff))

	return diff, nil
}

// HeadSHA resolves the head commit SHA of a pull request
func (s *Service) HeadSHA(ctx context.Context, owner, repo string, number int) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	pr, err := s.client.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return "", err
	}

	if pr.Head == nil || pr.Head.SHA == nil {
		return "", fmt.Errorf("unable to determine head commit SHA for PR #%d", number)
	}

	return *pr.Head.SHA, nil
}

// PostComment submits a single review comment to a pull request. Comments
// are anchored to the post-change side of the diff.
func (s *Service) PostComment(ctx context.Context, comment *PRComment) error {
	if comment.Owner == "" || comment.Repo == "" {
		return fmt.Errorf("owner and repo must be provided")
	}

	commitSHA := comment.CommitSHA
	if commitSHA == "" {
		var err error
		commitSHA, err = s.HeadSHA(ctx, comment.Owner, comment.Repo, comment.PRNumber)
		if err != nil {
			return fmt.Errorf("resolving commit SHA: %w", err)
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	prComment := &github.PullRequestComment{
		Path:     github.String(comment.Path),
		CommitID: github.String(commitSHA),
		Body:     github.String(comment.Body),
		Line:     github.Int(comment.Line),
		Side:     github.String("RIGHT"),
	}

	if err := s.client.CreateReviewComment(ctx, comment.Owner, comment.Repo, comment.PRNumber, prComment); err != nil {
		s.logger.Error("failed to submit review comment",
			"repo", fmt.Sprintf("%s/%s", comment.Owner, comment.Repo),
			"pr", comment.PRNumber,
			"path", comment.Path,
			"line", comment.Line,
			"error", err)
		return err
	}

	s.logger.Info("submitted review comment",
		"repo", fmt.Sprintf("%s/%s", comment.Owner, comment.Repo),
		"pr", comment.PRNumber,
		"path", comment.Path,
		"line", comment.Line)

	return nil
}
