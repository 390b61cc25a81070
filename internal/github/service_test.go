package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	gh "github.com/google/go-github/v59/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/pullcheck/internal/config"
	"github.com/tildaslashalef/pullcheck/internal/loggy"
)

const testDiff = `diff --git a/main.go b/main.go
@@ -1 +1 @@
-old
+new`

// setupTestService wires a Service against an httptest server speaking the
// GitHub REST API
func setupTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ghClient := gh.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	ghClient.BaseURL = baseURL

	cfg := &config.GitHubConfig{
		Token:             "test-token",
		RequestTimeout:    5 * time.Second,
		RequestsPerMinute: 6000,
	}

	return newService(&Client{gh: ghClient, config: cfg}, cfg, loggy.NewNoopLogger())
}

func TestFetchDiff(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/demo/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Accept"), "diff") {
			fmt.Fprint(w, testDiff)
			return
		}
		w.WriteHeader(http.StatusNotAcceptable)
	})

	svc := setupTestService(t, mux)

	diff, err := svc.FetchDiff(context.Background(), "octocat", "demo", 7)
	require.NoError(t, err)
	assert.Equal(t, testDiff, diff)
}

func TestHeadSHA(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/demo/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(gh.PullRequest{
			Number: gh.Int(7),
			Head:   &gh.PullRequestBranch{SHA: gh.String("abc123")},
		})
	})

	svc := setupTestService(t, mux)

	sha, err := svc.HeadSHA(context.Background(), "octocat", "demo", 7)
	require.NoError(t, err)
	assert.Equal(t, "abc123", sha)
}

func TestHeadSHAMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/demo/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(gh.PullRequest{Number: gh.Int(7)})
	})

	svc := setupTestService(t, mux)

	_, err := svc.HeadSHA(context.Background(), "octocat", "demo", 7)
	assert.ErrorContains(t, err, "head commit SHA")
}

func TestPostComment(t *testing.T) {
	var posted *gh.PullRequestComment

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/demo/pulls/7/comments", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		posted = new(gh.PullRequestComment)
		require.NoError(t, json.NewDecoder(r.Body).Decode(posted))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(posted)
	})

	svc := setupTestService(t, mux)

	err := svc.PostComment(context.Background(), &PRComment{
		Owner:     "octocat",
		Repo:      "demo",
		PRNumber:  7,
		CommitSHA: "abc123",
		Path:      "main.go",
		Line:      12,
		Body:      "consider handling the error",
	})

	require.NoError(t, err)
	require.NotNil(t, posted)
	assert.Equal(t, "main.go", posted.GetPath())
	assert.Equal(t, "abc123", posted.GetCommitID())
	assert.Equal(t, 12, posted.GetLine())
	assert.Equal(t, "RIGHT", posted.GetSide())
	assert.Equal(t, "consider handling the error", posted.GetBody())
}

func TestPostCommentResolvesHeadSHA(t *testing.T) {
	var posted *gh.PullRequestComment

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/demo/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(gh.PullRequest{
			Head: &gh.PullRequestBranch{SHA: gh.String("resolved-sha")},
		})
	})
	mux.HandleFunc("/repos/octocat/demo/pulls/7/comments", func(w http.ResponseWriter, r *http.Request) {
		posted = new(gh.PullRequestComment)
		require.NoError(t, json.NewDecoder(r.Body).Decode(posted))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(posted)
	})

	svc := setupTestService(t, mux)

	err := svc.PostComment(context.Background(), &PRComment{
		Owner:    "octocat",
		Repo:     "demo",
		PRNumber: 7,
		Path:     "main.go",
		Line:     3,
		Body:     "nit",
	})

	require.NoError(t, err)
	require.NotNil(t, posted)
	assert.Equal(t, "resolved-sha", posted.GetCommitID())
}

func TestPostCommentRequiresRepo(t *testing.T) {
	svc := setupTestService(t, http.NewServeMux())

	err := svc.PostComment(context.Background(), &PRComment{PRNumber: 1})
	assert.ErrorContains(t, err, "owner and repo")
}
