package internal

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	log "github.com/sirupsen/logrus"
)

// Mirror owns the filesystem the data directory lives on and knows how to
// publish a changed mirror. One session owns the mirror exclusively for the
// duration of a run.
type Mirror interface {
	// Filesystem returns the filesystem holding the data directory.
	Filesystem() billy.Filesystem

	// Publish uploads the current mirror contents, if the backend has
	// anywhere to upload to. Returns ErrNoChanges when there is nothing new.
	Publish(ctx context.Context, message string) error

	// Close cleans up any resources
	Close() error
}

// DirMirror is a mirror rooted at a plain local directory. Publishing is a
// no-op; the directory itself is the published artifact.
type DirMirror struct {
	fs billy.Filesystem
}

func NewDirMirror(root string) (*DirMirror, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating mirror root: %w", err)
	}
	return &DirMirror{fs: osfs.New(root)}, nil
}

func (m *DirMirror) Filesystem() billy.Filesystem { return m.fs }

func (m *DirMirror) Publish(ctx context.Context, message string) error { return nil }

func (m *DirMirror) Close() error { return nil }

// GitMirror keeps the mirror inside a clone of a data repository, so every
// run that changes the canonical files gets committed and pushed. The diff-
// friendly canonical form is what makes those commits reviewable.
type GitMirror struct {
	url        string
	repository *git.Repository
	worktree   *git.Worktree
	filesystem billy.Filesystem
}

func NewGitMirror(url string) *GitMirror {
	return &GitMirror{url: url}
}

// Initialize clones the data repository into memory storage with a temp-dir
// worktree.
func (m *GitMirror) Initialize(ctx context.Context) error {
	storage := memory.NewStorage()
	tempDir, err := os.MkdirTemp("", "ww-data-clone")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	filesystem := osfs.New(tempDir)
	m.filesystem = filesystem

	log.Info("Cloning data repository ", m.url)

	repo, err := git.CloneContext(ctx, storage, filesystem, &git.CloneOptions{
		URL: m.url,
	})
	if err != nil {
		return fmt.Errorf("failed to clone data repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	m.repository = repo
	m.worktree = worktree
	return nil
}

func (m *GitMirror) Filesystem() billy.Filesystem {
	return m.filesystem
}

// Publish commits and pushes everything that changed under the worktree.
func (m *GitMirror) Publish(ctx context.Context, message string) error {
	status, err := m.worktree.Status()
	if err != nil {
		return fmt.Errorf("error getting worktree status: %w", err)
	}

	if status.IsClean() {
		return ErrNoChanges
	}

	if err := m.worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("error staging mirror contents: %w", err)
	}

	_, err = m.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "ww-data Bot",
			Email: "bot@ww-data",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("error committing mirror contents: %w", err)
	}

	if err := m.repository.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
	}); err != nil {
		return fmt.Errorf("error pushing to remote: %w", err)
	}

	return nil
}

func (m *GitMirror) Close() error {
	if m.filesystem == nil {
		return nil
	}
	return os.RemoveAll(m.filesystem.Root())
}
