package review

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/pullcheck/internal/loggy"
	"github.com/tildaslashalef/pullcheck/internal/transcript"
	"github.com/tildaslashalef/pullcheck/internal/ulid"
)

// StoredComment is the persisted form of an extracted comment
type StoredComment struct {
	ID        string
	ReviewID  string
	FilePath  string
	Line      int
	Content   string
	Posted    bool
	CreatedAt time.Time
}

// NewStoredComment builds a StoredComment from an extracted comment
func NewStoredComment(reviewID string, c transcript.Comment, posted bool) *StoredComment {
	return &StoredComment{
		ID:        ulid.CommentID(),
		ReviewID:  reviewID,
		FilePath:  c.File,
		Line:      c.Line,
		Content:   c.Content,
		Posted:    posted,
		CreatedAt: time.Now(),
	}
}

// Repository defines operations for persisting review runs
type Repository interface {
	// CreateReview creates a new review run
	CreateReview(ctx context.Context, review *Review) error

	// UpdateReview updates a review run's status and counters
	UpdateReview(ctx context.Context, review *Review) error

	// CreateComment stores an extracted comment
	CreateComment(ctx context.Context, comment *StoredComment) error

	// HasPosted reports whether an identical comment location was already
	// posted for the given pull request in an earlier run
	HasPosted(ctx context.Context, owner, repo string, prNumber int, filePath string, line int) (bool, error)

	// ListReviews returns the most recent review runs
	ListReviews(ctx context.Context, limit int) ([]*Review, error)
}

// SQLRepository implements Repository using a SQL database
type SQLRepository struct {
	db      *sql.DB
	logger  *loggy.Logger
	builder sq.StatementBuilderType
}

// NewSQLRepository creates a new SQL repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) *SQLRepository {
	return &SQLRepository{
		db:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// CreateReview creates a new review run
func (r *SQLRepository) CreateReview(ctx context.Context, review *Review) error {
	if review.ID == "" {
		review.ID = ulid.ReviewID()
	}

	now := time.Now()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	if review.UpdatedAt.IsZero() {
		review.UpdatedAt = now
	}

	q := r.builder.Insert("reviews").
		Columns("id", "name", "repo_owner", "repo_name", "pr_number", "commit_sha",
			"status", "files_reviewed", "comments_posted", "created_at", "updated_at").
		Values(review.ID, review.Name, review.Owner, review.Repo, review.PRNumber, review.CommitSHA,
			review.Status, review.FilesReviewed, review.CommentsPosted, review.CreatedAt, review.UpdatedAt)

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building create review query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("executing create review query: %w", err)
	}

	return nil
}

// UpdateReview updates a review run's status and counters
func (r *SQLRepository) UpdateReview(ctx context.Context, review *Review) error {
	review.UpdatedAt = time.Now()

	q := r.builder.Update("reviews").
		Set("status", review.Status).
		Set("commit_sha", review.CommitSHA).
		Set("files_reviewed", review.FilesReviewed).
		Set("comments_posted", review.CommentsPosted).
		Set("updated_at", review.UpdatedAt).
		Where(sq.Eq{"id": review.ID})

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building update review query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("executing update review query: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("review not found: %s", review.ID)
	}

	return nil
}

// CreateComment stores an extracted comment
func (r *SQLRepository) CreateComment(ctx context.Context, comment *StoredComment) error {
	if comment.ID == "" {
		comment.ID = ulid.CommentID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	q := r.builder.Insert("comments").
		Columns("id", "review_id", "file_path", "line", "content", "posted", "created_at").
		Values(comment.ID, comment.ReviewID, comment.FilePath, comment.Line, comment.Content,
			comment.Posted, comment.CreatedAt)

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building create comment query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("executing create comment query: %w", err)
	}

	return nil
}

// HasPosted reports whether an identical comment location was already
// posted for the given pull request in an earlier run
func (r *SQLRepository) HasPosted(ctx context.Context, owner, repo string, prNumber int, filePath string, line int) (bool, error) {
	q := r.builder.Select("COUNT(1)").
		From("comments c").
		Join("reviews r ON r.id = c.review_id").
		Where(sq.Eq{
			"r.repo_owner": owner,
			"r.repo_name":  repo,
			"r.pr_number":  prNumber,
			"c.file_path":  filePath,
			"c.line":       line,
			"c.posted":     true,
		})

	query, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("building has posted query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("executing has posted query: %w", err)
	}

	return count > 0, nil
}

// ListReviews returns the most recent review runs
func (r *SQLRepository) ListReviews(ctx context.Context, limit int) ([]*Review, error) {
	if limit <= 0 {
		limit = 10
	}

	q := r.builder.Select("id", "name", "repo_owner", "repo_name", "pr_number", "commit_sha",
		"status", "files_reviewed", "comments_posted", "created_at", "updated_at").
		From("reviews").
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list reviews query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing list reviews query: %w", err)
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		var review Review
		if err := rows.Scan(
			&review.ID,
			&review.Name,
			&review.Owner,
			&review.Repo,
			&review.PRNumber,
			&review.CommitSHA,
			&review.Status,
			&review.FilesReviewed,
			&review.CommentsPosted,
			&review.CreatedAt,
			&review.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		reviews = append(reviews, &review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating review rows: %w", err)
	}

	return reviews, nil
}
