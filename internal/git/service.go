// Package git produces unified diff text from a local repository, as an
// alternative diff source to the GitHub API
package git

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/tildaslashalef/pullcheck/internal/loggy"
)

// Service provides Git operations
type Service struct {
	logger *loggy.Logger
	repo   *git.Repository
}

// NewService creates a new Git service
func NewService(logger *loggy.Logger) *Service {
	return &Service{logger: logger}
}

// InitRepo opens the git repository at repoPath for the service
func (s *Service) InitRepo(repoPath string) error {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("opening git repo: %w", err)
	}

	s.repo = repo
	return nil
}

// ensureRepo ensures the repository is initialized before performing operations
func (s *Service) ensureRepo() error {
	if s.repo == nil {
		return fmt.Errorf("git repository not initialized")
	}
	return nil
}

// CommitDiff returns the unified diff text of a commit against its first
// parent. Root commits are diffed against the empty tree.
func (s *Service) CommitDiff(hash string) (string, error) {
	if err := s.ensureRepo(); err != nil {
		return "", err
	}

	commit, err := s.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return "", fmt.Errorf("getting commit %s: %w", hash, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("getting commit tree: %w", err)
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return "", fmt.Errorf("getting parent commit: %w", err)
		}

		parentTree, err = parent.Tree()
		if err != nil {
			return "", fmt.Errorf("getting parent tree: %w", err)
		}
	}

	return s.patchText(parentTree, tree)
}

// BranchDiff returns the unified diff text between two local branches,
// from base to target
func (s *Service) BranchDiff(base, target string) (string, error) {
	if err := s.ensureRepo(); err != nil {
		return "", err
	}

	baseTree, err := s.branchTree(base)
	if err != nil {
		return "", err
	}

	targetTree, err := s.branchTree(target)
	if err != nil {
		return "", err
	}

	return s.patchText(baseTree, targetTree)
}

// branchTree resolves a branch name to its commit tree
func (s *Service) branchTree(branch string) (*object.Tree, error) {
	ref, err := s.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, fmt.Errorf("resolving branch %s: %w", branch, err)
	}

	commit, err := s.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("getting commit for branch %s: %w", branch, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("getting tree for branch %s: %w", branch, err)
	}

	return tree, nil
}

// patchText renders the changes between two trees as "diff --git" patch
// text. Either tree may be nil, meaning the empty tree.
func (s *Service) patchText(from, to *object.Tree) (string, error) {
	changes, err := object.DiffTree(from, to)
	if err != nil {
		return "", fmt.Errorf("diffing trees: %w", err)
	}

	patch, err := changes.Patch()
	if err != nil {
		return "", fmt.Errorf("rendering patch: %w", err)
	}

	text := patch.String()
	s.logger.Debug("generated local diff", "files", len(changes), "bytes", len(text))

	return text, nil
}
