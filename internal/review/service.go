// Package review orchestrates the pull-request review pipeline: diff
// splitting, LLM review per file, comment extraction and posting.
package review

import (
	"context"
	"fmt"
	"sync"

	"github.com/tildaslashalef/pullcheck/internal/claude"
	"github.com/tildaslashalef/pullcheck/internal/config"
	"github.com/tildaslashalef/pullcheck/internal/diff"
	"github.com/tildaslashalef/pullcheck/internal/github"
	"github.com/tildaslashalef/pullcheck/internal/loggy"
	"github.com/tildaslashalef/pullcheck/internal/transcript"
)

// LLMClient generates review transcripts for diff fragments
type LLMClient interface {
	GenerateChat(ctx context.Context, req claude.ChatRequest) (*claude.MessageResponse, error)
}

// GitHubGateway is the slice of the GitHub service the reviewer needs
type GitHubGateway interface {
	FetchDiff(ctx context.Context, owner, repo string, number int) (string, error)
	HeadSHA(ctx context.Context, owner, repo string, number int) (string, error)
	PostComment(ctx context.Context, comment *github.PRComment) error
}

// Service runs reviews
type Service struct {
	cfg       *config.Config
	logger    *loggy.Logger
	llm       LLMClient
	gh        GitHubGateway
	repo      Repository
	splitter  *diff.Splitter
	extractor *transcript.Extractor
}

// NewService creates a new review service
func NewService(cfg *config.Config, logger *loggy.Logger, llm LLMClient, gh GitHubGateway, repo Repository) *Service {
	return &Service{
		cfg:       cfg,
		logger:    logger,
		llm:       llm,
		gh:        gh,
		repo:      repo,
		splitter:  diff.NewSplitter(logger),
		extractor: transcript.NewExtractor(logger),
	}
}

// ReviewPR reviews a pull request and posts the findings back as review
// comments, unless opts.DryRun is set
func (s *Service) ReviewPR(ctx context.Context, opts Options) (*Result, error) {
	diffText, err := s.gh.FetchDiff(ctx, opts.Owner, opts.Repo, opts.PRNumber)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request diff: %w", err)
	}

	commitSHA := opts.CommitSHA
	if commitSHA == "" && !opts.DryRun {
		commitSHA, err = s.gh.HeadSHA(ctx, opts.Owner, opts.Repo, opts.PRNumber)
		if err != nil {
			return nil, fmt.Errorf("resolving head commit: %w", err)
		}
	}

	rev := NewReview(opts.Owner, opts.Repo, opts.PRNumber, commitSHA)
	if err := s.repo.CreateReview(ctx, rev); err != nil {
		return nil, fmt.Errorf("creating review run: %w", err)
	}

	fragments := s.splitter.Split(diffText)
	if len(fragments) == 0 {
		s.logger.Warn("pull request diff contained no reviewable files",
			"repo", fmt.Sprintf("%s/%s", opts.Owner, opts.Repo),
			"pr", opts.PRNumber)

		rev.Status = StatusCompleted
		if err := s.repo.UpdateReview(ctx, rev); err != nil {
			return nil, err
		}
		return &Result{Review: rev}, nil
	}

	rev.Status = StatusInProgress
	if err := s.repo.UpdateReview(ctx, rev); err != nil {
		return nil, err
	}

	files := s.reviewFragments(ctx, fragments)

	posted, err := s.publish(ctx, rev, files, opts)
	if err != nil {
		rev.Status = StatusFailed
		_ = s.repo.UpdateReview(ctx, rev)
		return nil, err
	}

	rev.Status = StatusCompleted
	rev.FilesReviewed = len(fragments)
	rev.CommentsPosted = posted
	if err := s.repo.UpdateReview(ctx, rev); err != nil {
		return nil, err
	}

	return &Result{Review: rev, Files: files}, nil
}

// ReviewLocal reviews diff text produced from a local repository. Nothing
// is posted or persisted; the findings are only returned.
func (s *Service) ReviewLocal(ctx context.Context, diffText string) (*Result, error) {
	rev := NewReview("", "local", 0, "")
	rev.Status = StatusCompleted

	fragments := s.splitter.Split(diffText)
	if len(fragments) == 0 {
		s.logger.Warn("local diff contained no reviewable files")
		return &Result{Review: rev}, nil
	}

	files := s.reviewFragments(ctx, fragments)
	rev.FilesReviewed = len(fragments)

	return &Result{Review: rev, Files: files}, nil
}

// reviewFragments reviews fragments with bounded concurrency. Results keep
// the input order regardless of completion order.
func (s *Service) reviewFragments(ctx context.Context, fragments []diff.Fragment) []FileResult {
	concurrency := s.cfg.Review.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, concurrency)
	)

	results := make([]FileResult, len(fragments))
	for i, fragment := range fragments {
		wg.Add(1)
		go func(i int, fragment diff.Fragment) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = s.reviewFragment(ctx, fragment)
		}(i, fragment)
	}
	wg.Wait()

	return results
}

// reviewFragment sends one fragment through the LLM and extracts its
// findings
func (s *Service) reviewFragment(ctx context.Context, fragment diff.Fragment) FileResult {
	result := FileResult{Path: fragment.Path, Language: detectLanguage(fragment)}

	if max := s.cfg.Review.MaxDiffBytes; max > 0 && len(fragment.Body) > max {
		s.logger.Warn("skipping oversized diff fragment",
			"path", fragment.Path,
			"bytes", len(fragment.Body),
			"limit", max)
		result.Skipped = true
		return result
	}

	prompt, err := buildReviewPrompt(fragment)
	if err != nil {
		result.Err = fmt.Errorf("building prompt: %w", err)
		return result
	}

	resp, err := s.llm.GenerateChat(ctx, claude.ChatRequest{
		System: reviewSystemPrompt,
		Messages: []claude.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		s.logger.Error("review request failed", "path", fragment.Path, "error", err)
		result.Err = err
		return result
	}

	result.Comments = s.extractor.Extract(resp.Text(), fragment.Path)
	s.logger.Debug("reviewed fragment",
		"path", fragment.Path,
		"language", result.Language,
		"comments", len(result.Comments))

	return result
}

// publish posts extracted comments and stores them. Comments whose
// file/line location was already posted for this pull request in an
// earlier run are stored but not re-posted.
func (s *Service) publish(ctx context.Context, rev *Review, files []FileResult, opts Options) (int, error) {
	posted := 0

	for _, file := range files {
		for _, comment := range file.Comments {
			shouldPost := !opts.DryRun

			if shouldPost {
				already, err := s.repo.HasPosted(ctx, opts.Owner, opts.Repo, opts.PRNumber, comment.File, comment.Line)
				if err != nil {
					return posted, fmt.Errorf("checking posted comments: %w", err)
				}
				if already {
					s.logger.Debug("skipping already posted location",
						"path", comment.File, "line", comment.Line)
					shouldPost = false
				}
			}

			if shouldPost {
				err := s.gh.PostComment(ctx, &github.PRComment{
					Owner:     opts.Owner,
					Repo:      opts.Repo,
					PRNumber:  opts.PRNumber,
					CommitSHA: rev.CommitSHA,
					Path:      comment.File,
					Line:      comment.Line,
					Body:      comment.Content,
				})
				if err != nil {
					// One failed posting should not lose the rest
					s.logger.Error("failed to post comment",
						"path", comment.File, "line", comment.Line, "error", err)
					shouldPost = false
				} else {
					posted++
				}
			}

			if err := s.repo.CreateComment(ctx, NewStoredComment(rev.ID, comment, shouldPost)); err != nil {
				return posted, fmt.Errorf("storing comment: %w", err)
			}
		}
	}

	return posted, nil
}
