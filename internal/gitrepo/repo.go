// Package gitrepo reads the staged change set of a git repository and
// creates commits from it, using go-git.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	// ErrNoStagedChanges is returned by StagedDiff when the index matches HEAD.
	ErrNoStagedChanges = errors.New("没有发现已暂存的变更。")
	// ErrNoSignature is returned by Commit when no author identity is configured.
	ErrNoSignature = errors.New("no commit identity: set user.name and user.email in git config")
)

// now is replaced in tests for stable commit hashes.
var now = time.Now

// Author overrides the identity used for commits.
type Author struct {
	Name  string
	Email string
}

// Repo is a handle on a working directory. The repository is re-opened on
// every operation.
type Repo struct {
	workdir string
	author  Author
}

// Option configures a Repo.
type Option func(*Repo)

// WithAuthor sets the commit identity. Empty fields fall back to git config.
func WithAuthor(a Author) Option {
	return func(r *Repo) {
		r.author = a
	}
}

// New returns a Repo for workdir. An empty workdir means the current directory.
func New(workdir string, opts ...Option) *Repo {
	if workdir == "" {
		workdir = "."
	}
	r := &Repo{workdir: workdir}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Workdir returns the directory the repository is opened from.
func (r *Repo) Workdir() string {
	return r.workdir
}

// open opens the git repository containing the working directory
func (r *Repo) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(r.workdir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("error opening repository %s: %w", r.workdir, err)
	}
	return repo, nil
}

// Commit records the staged tree as a new commit on HEAD and returns a
// confirmation naming the commit hash. The first commit of a repository has
// no parent. Neither the message nor the tree is validated.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	repo, err := r.open()
	if err != nil {
		return "", err
	}

	sig, err := r.signature(repo)
	if err != nil {
		return "", err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("error getting worktree: %w", err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", fmt.Errorf("error creating commit: %w", err)
	}

	return fmt.Sprintf("Commit successful: %s", hash), nil
}

// signature resolves the commit identity from the override, then the
// repository config merged with the global config.
func (r *Repo) signature(repo *git.Repository) (*object.Signature, error) {
	name, email := r.author.Name, r.author.Email

	if name == "" || email == "" {
		cfg, err := repo.ConfigScoped(config.GlobalScope)
		if err != nil {
			return nil, fmt.Errorf("error reading git config: %w", err)
		}
		if name == "" {
			name = cfg.User.Name
		}
		if email == "" {
			email = cfg.User.Email
		}
		if name == "" {
			name = os.Getenv("GIT_AUTHOR_NAME")
		}
		if email == "" {
			email = os.Getenv("GIT_AUTHOR_EMAIL")
		}
	}

	if name == "" || email == "" {
		return nil, ErrNoSignature
	}

	return &object.Signature{Name: name, Email: email, When: now()}, nil
}
