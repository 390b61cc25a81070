package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/pullcheck/internal/claude"
	"github.com/tildaslashalef/pullcheck/internal/config"
	"github.com/tildaslashalef/pullcheck/internal/github"
	"github.com/tildaslashalef/pullcheck/internal/loggy"
)

const twoFileDiff = `diff --git a/internal/auth/token.go b/internal/auth/token.go
index 1111111..2222222 100644
--- a/internal/auth/token.go
+++ b/internal/auth/token.go
@@ -10,6 +10,7 @@ func Verify(raw string) error {
 	if raw == "" {
+		return nil
 	}
diff --git a/README.md b/README.md
index 3333333..4444444 100644
--- a/README.md
+++ b/README.md
@@ -1,2 +1,3 @@
 # auth
+Token helpers.
`

// stubLLM answers with canned transcripts keyed by the file path named in
// the prompt
type stubLLM struct {
	mu        sync.Mutex
	responses map[string]string
	errPaths  map[string]error
	calls     []string
}

func (s *stubLLM) GenerateChat(_ context.Context, req claude.ChatRequest) (*claude.MessageResponse, error) {
	prompt := req.Messages[0].Content

	s.mu.Lock()
	defer s.mu.Unlock()

	for path, err := range s.errPaths {
		if strings.Contains(prompt, "The diff is from file: "+path) {
			s.calls = append(s.calls, path)
			return nil, err
		}
	}
	for path, transcript := range s.responses {
		if strings.Contains(prompt, "The diff is from file: "+path) {
			s.calls = append(s.calls, path)
			return &claude.MessageResponse{
				Content: []claude.ContentBlock{{Type: "text", Text: transcript}},
			}, nil
		}
	}
	return &claude.MessageResponse{
		Content: []claude.ContentBlock{{Type: "text", Text: "No issues found."}},
	}, nil
}

// stubGateway fakes the GitHub service
type stubGateway struct {
	mu      sync.Mutex
	diff    string
	headSHA string
	postErr error
	posted  []github.PRComment
}

func (s *stubGateway) FetchDiff(context.Context, string, string, int) (string, error) {
	return s.diff, nil
}

func (s *stubGateway) HeadSHA(context.Context, string, string, int) (string, error) {
	return s.headSHA, nil
}

func (s *stubGateway) PostComment(_ context.Context, comment *github.PRComment) error {
	if s.postErr != nil {
		return s.postErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posted = append(s.posted, *comment)
	return nil
}

// memRepo is an in-memory Repository
type memRepo struct {
	mu       sync.Mutex
	reviews  map[string]*Review
	comments []*StoredComment
	seeded   map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{reviews: make(map[string]*Review), seeded: make(map[string]bool)}
}

func locationKey(filePath string, line int) string {
	return fmt.Sprintf("%s#%d", filePath, line)
}

func (m *memRepo) CreateReview(_ context.Context, review *Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[review.ID] = review
	return nil
}

func (m *memRepo) UpdateReview(_ context.Context, review *Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[review.ID]; !ok {
		return errors.New("review not found")
	}
	m.reviews[review.ID] = review
	return nil
}

func (m *memRepo) CreateComment(_ context.Context, comment *StoredComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, comment)
	return nil
}

func (m *memRepo) HasPosted(_ context.Context, _, _ string, _ int, filePath string, line int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seeded[locationKey(filePath, line)] {
		return true, nil
	}
	for _, c := range m.comments {
		if c.Posted && c.FilePath == filePath && c.Line == line {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ListReviews(context.Context, int) ([]*Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reviews := make([]*Review, 0, len(m.reviews))
	for _, r := range m.reviews {
		reviews = append(reviews, r)
	}
	return reviews, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Review: config.ReviewConfig{Concurrency: 2},
	}
}

func TestReviewPR(t *testing.T) {
	llm := &stubLLM{responses: map[string]string{
		"internal/auth/token.go": "Line 12: Empty tokens are silently accepted.\nReturn an error instead of nil.",
		"README.md":              "No issues found.",
	}}
	gw := &stubGateway{diff: twoFileDiff}
	repo := newMemRepo()

	svc := NewService(testConfig(), loggy.NewNoopLogger(), llm, gw, repo)

	result, err := svc.ReviewPR(context.Background(), Options{
		Owner:     "octocat",
		Repo:      "auth",
		PRNumber:  7,
		CommitSHA: "abc123",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Review.Status)
	assert.Equal(t, 2, result.Review.FilesReviewed)
	assert.Equal(t, 1, result.Review.CommentsPosted)

	require.Len(t, result.Files, 2)
	assert.Equal(t, "internal/auth/token.go", result.Files[0].Path)
	assert.Equal(t, "README.md", result.Files[1].Path)

	require.Len(t, gw.posted, 1)
	posted := gw.posted[0]
	assert.Equal(t, "octocat", posted.Owner)
	assert.Equal(t, "auth", posted.Repo)
	assert.Equal(t, 7, posted.PRNumber)
	assert.Equal(t, "abc123", posted.CommitSHA)
	assert.Equal(t, "internal/auth/token.go", posted.Path)
	assert.Equal(t, 12, posted.Line)
	assert.Contains(t, posted.Body, "Empty tokens are silently accepted.")
	assert.Contains(t, posted.Body, "Return an error instead of nil.")

	require.Len(t, repo.comments, 1)
	assert.True(t, repo.comments[0].Posted)
	assert.Equal(t, result.Review.ID, repo.comments[0].ReviewID)
}

func TestReviewPRDryRun(t *testing.T) {
	llm := &stubLLM{responses: map[string]string{
		"internal/auth/token.go": "Line 12: Empty tokens are silently accepted.",
	}}
	gw := &stubGateway{diff: twoFileDiff}
	repo := newMemRepo()

	svc := NewService(testConfig(), loggy.NewNoopLogger(), llm, gw, repo)

	result, err := svc.ReviewPR(context.Background(), Options{
		Owner:    "octocat",
		Repo:     "auth",
		PRNumber: 7,
		DryRun:   true,
	})
	require.NoError(t, err)

	assert.Empty(t, gw.posted)
	assert.Equal(t, 0, result.Review.CommentsPosted)
	require.Len(t, repo.comments, 1)
	assert.False(t, repo.comments[0].Posted)
}

func TestReviewPRSkipsAlreadyPostedLocation(t *testing.T) {
	llm := &stubLLM{responses: map[string]string{
		"internal/auth/token.go": "Line 12: Empty tokens are silently accepted.",
	}}
	gw := &stubGateway{diff: twoFileDiff}
	repo := newMemRepo()
	repo.seeded[locationKey("internal/auth/token.go", 12)] = true

	svc := NewService(testConfig(), loggy.NewNoopLogger(), llm, gw, repo)

	result, err := svc.ReviewPR(context.Background(), Options{
		Owner: "octocat", Repo: "auth", PRNumber: 7, CommitSHA: "abc123",
	})
	require.NoError(t, err)

	assert.Empty(t, gw.posted)
	assert.Equal(t, 0, result.Review.CommentsPosted)
	require.Len(t, repo.comments, 1)
	assert.False(t, repo.comments[0].Posted)
}

func TestReviewPRResolvesHeadSHA(t *testing.T) {
	llm := &stubLLM{responses: map[string]string{
		"internal/auth/token.go": "Line 12: Empty tokens are silently accepted.",
	}}
	gw := &stubGateway{diff: twoFileDiff, headSHA: "headsha1"}
	repo := newMemRepo()

	svc := NewService(testConfig(), loggy.NewNoopLogger(), llm, gw, repo)

	result, err := svc.ReviewPR(context.Background(), Options{
		Owner: "octocat", Repo: "auth", PRNumber: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, "headsha1", result.Review.CommitSHA)
	require.Len(t, gw.posted, 1)
	assert.Equal(t, "headsha1", gw.posted[0].CommitSHA)
}

func TestReviewPREmptyDiff(t *testing.T) {
	llm := &stubLLM{}
	gw := &stubGateway{diff: "nothing resembling a diff here\n"}
	repo := newMemRepo()

	svc := NewService(testConfig(), loggy.NewNoopLogger(), llm, gw, repo)

	result, err := svc.ReviewPR(context.Background(), Options{
		Owner: "octocat", Repo: "auth", PRNumber: 7, CommitSHA: "abc123",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Review.Status)
	assert.Empty(t, result.Files)
	assert.Empty(t, llm.calls)
	assert.Empty(t, gw.posted)
}

func TestReviewPROversizedFragmentSkipped(t *testing.T) {
	llm := &stubLLM{}
	gw := &stubGateway{diff: twoFileDiff}
	repo := newMemRepo()

	cfg := testConfig()
	cfg.Review.MaxDiffBytes = 10

	svc := NewService(cfg, loggy.NewNoopLogger(), llm, gw, repo)

	result, err := svc.ReviewPR(context.Background(), Options{
		Owner: "octocat", Repo: "auth", PRNumber: 7, CommitSHA: "abc123",
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 2)
	assert.True(t, result.Files[0].Skipped)
	assert.True(t, result.Files[1].Skipped)
	assert.Empty(t, llm.calls)
}

func TestReviewPRFragmentErrorDoesNotAbortRun(t *testing.T) {
	llm := &stubLLM{
		responses: map[string]string{
			"README.md": "Line 3: Mention the minimum supported Go version.",
		},
		errPaths: map[string]error{
			"internal/auth/token.go": errors.New("model overloaded"),
		},
	}
	gw := &stubGateway{diff: twoFileDiff}
	repo := newMemRepo()

	svc := NewService(testConfig(), loggy.NewNoopLogger(), llm, gw, repo)

	result, err := svc.ReviewPR(context.Background(), Options{
		Owner: "octocat", Repo: "auth", PRNumber: 7, CommitSHA: "abc123",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Review.Status)
	require.Len(t, result.Files, 2)
	assert.Error(t, result.Files[0].Err)
	assert.Empty(t, result.Files[0].Comments)
	require.Len(t, result.Files[1].Comments, 1)
	require.Len(t, gw.posted, 1)
	assert.Equal(t, "README.md", gw.posted[0].Path)
}

func TestReviewPRPostFailureStoredUnposted(t *testing.T) {
	llm := &stubLLM{responses: map[string]string{
		"internal/auth/token.go": "Line 12: Empty tokens are silently accepted.",
	}}
	gw := &stubGateway{diff: twoFileDiff, postErr: errors.New("422 unprocessable")}
	repo := newMemRepo()

	svc := NewService(testConfig(), loggy.NewNoopLogger(), llm, gw, repo)

	result, err := svc.ReviewPR(context.Background(), Options{
		Owner: "octocat", Repo: "auth", PRNumber: 7, CommitSHA: "abc123",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Review.Status)
	assert.Equal(t, 0, result.Review.CommentsPosted)
	require.Len(t, repo.comments, 1)
	assert.False(t, repo.comments[0].Posted)
}

func TestReviewLocal(t *testing.T) {
	llm := &stubLLM{responses: map[string]string{
		"internal/auth/token.go": "Line 12: Empty tokens are silently accepted.",
	}}
	gw := &stubGateway{}
	repo := newMemRepo()

	svc := NewService(testConfig(), loggy.NewNoopLogger(), llm, gw, repo)

	result, err := svc.ReviewLocal(context.Background(), twoFileDiff)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Review.Status)
	assert.Equal(t, 2, result.Review.FilesReviewed)
	require.Len(t, result.Files, 2)
	require.Len(t, result.Comments(), 1)
	assert.Equal(t, 12, result.Comments()[0].Line)

	// Local reviews never touch GitHub or the database
	assert.Empty(t, gw.posted)
	assert.Empty(t, repo.comments)
	assert.Empty(t, repo.reviews)
}
