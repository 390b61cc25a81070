package review

import (
	"time"

	"github.com/tildaslashalef/pullcheck/internal/transcript"
	"github.com/tildaslashalef/pullcheck/internal/ulid"
	"github.com/tildaslashalef/pullcheck/internal/utils"
)

// Status represents the lifecycle state of a review run
type Status string

const (
	// StatusPending means the review has been created but not started
	StatusPending Status = "pending"
	// StatusInProgress means fragments are being reviewed
	StatusInProgress Status = "in_progress"
	// StatusCompleted means the review finished
	StatusCompleted Status = "completed"
	// StatusFailed means the review aborted with an error
	StatusFailed Status = "failed"
)

// Review represents one review run over a pull request or local diff
type Review struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Owner          string    `json:"owner"`
	Repo           string    `json:"repo"`
	PRNumber       int       `json:"pr_number"`
	CommitSHA      string    `json:"commit_sha,omitempty"`
	Status         Status    `json:"status"`
	FilesReviewed  int       `json:"files_reviewed"`
	CommentsPosted int       `json:"comments_posted"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewReview creates a pending review run with a generated ID and name
func NewReview(owner, repo string, prNumber int, commitSHA string) *Review {
	now := time.Now()
	return &Review{
		ID:        ulid.ReviewID(),
		Name:      utils.GenerateReviewName(),
		Owner:     owner,
		Repo:      repo,
		PRNumber:  prNumber,
		CommitSHA: commitSHA,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FileResult holds the outcome of reviewing one diff fragment
type FileResult struct {
	Path     string               `json:"path"`
	Language string               `json:"language,omitempty"`
	Comments []transcript.Comment `json:"comments"`
	Skipped  bool                 `json:"skipped"`
	Err      error                `json:"-"`
}

// Result is the outcome of a whole review run
type Result struct {
	Review *Review      `json:"review"`
	Files  []FileResult `json:"files"`
}

// Comments flattens the per-file comments preserving file order
func (r *Result) Comments() []transcript.Comment {
	var comments []transcript.Comment
	for _, f := range r.Files {
		comments = append(comments, f.Comments...)
	}
	return comments
}

// Options control a review run
type Options struct {
	Owner     string
	Repo      string
	PRNumber  int
	CommitSHA string
	DryRun    bool
}
