package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"unitytk/protokit/pkg/config"
)

// CommitInfo describes the checked-out commit.
type CommitInfo struct {
	SHA       string    `json:"sha"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Branch    string    `json:"branch"`
}

// SyncResult reports what a Sync did.
type SyncResult struct {
	Cloned     bool
	FromSHA    string
	ToSHA      string
	HadChanges bool
}

// Repository keeps a local clone of the content repository current. It
// implements catalog.Source: the catalog manager calls Sync before every load
// and reads documents from Root.
type Repository struct {
	config      *config.GitConfig
	contentPath string
	auth        AuthProvider
	logger      *slog.Logger

	mu       sync.Mutex
	repo     *gogit.Repository
	lastSync time.Time
}

// NewRepository creates a repository manager. contentPath is the document
// directory relative to the repository root.
func NewRepository(cfg *config.GitConfig, contentPath string, logger *slog.Logger) (*Repository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Repository == "" {
		return nil, errors.New("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, errors.New("branch cannot be empty")
	}
	if filepath.IsAbs(contentPath) {
		return nil, fmt.Errorf("content path %q must be relative to the repository root", contentPath)
	}

	auth, err := NewAuthProvider(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Repository{
		config:      cfg,
		contentPath: contentPath,
		auth:        auth,
		logger:      logger.With("component", "gitsource", "repository", cfg.Repository),
	}, nil
}

// Root returns the content directory inside the local clone.
func (r *Repository) Root() string {
	return filepath.Join(r.config.LocalPath, r.contentPath)
}

// Sync clones the repository on first use and pulls afterwards.
func (r *Repository) Sync(ctx context.Context) error {
	_, err := r.SyncResult(ctx)
	return err
}

// SyncResult is Sync returning what changed.
func (r *Repository) SyncResult(ctx context.Context) (*SyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout.Duration)
	defer cancel()

	start := time.Now()
	var (
		res *SyncResult
		err error
	)
	if r.repo == nil {
		res, err = r.open(ctx)
	} else {
		res, err = r.pull(ctx)
	}
	if err != nil {
		r.logger.Error("Content sync failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	r.lastSync = time.Now()
	r.logger.Info("Content synced",
		"cloned", res.Cloned,
		"changed", res.HadChanges,
		"sha", res.ToSHA,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// open reuses an existing clone at LocalPath or clones into it.
func (r *Repository) open(ctx context.Context) (*SyncResult, error) {
	local := r.config.LocalPath

	if _, err := os.Stat(filepath.Join(local, ".git")); err == nil {
		repo, err := gogit.PlainOpen(local)
		if err != nil {
			return nil, fmt.Errorf("failed to open existing clone: %w", err)
		}
		r.repo = repo
		return r.pull(ctx)
	}

	if err := os.MkdirAll(local, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}

	auth, err := r.auth.GetAuth()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth: %w", err)
	}

	repo, err := gogit.PlainCloneContext(ctx, local, false, &gogit.CloneOptions{
		URL:           r.config.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(r.config.Branch),
		SingleBranch:  true,
		Depth:         r.config.Depth,
		Auth:          auth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}
	r.repo = repo

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	return &SyncResult{Cloned: true, ToSHA: head.Hash().String(), HadChanges: true}, nil
}

func (r *Repository) pull(ctx context.Context) (*SyncResult, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	from := head.Hash().String()

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	auth, err := r.auth.GetAuth()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth: %w", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(r.config.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to pull: %w", err)
	}

	head, err = r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get new HEAD: %w", err)
	}
	to := head.Hash().String()
	return &SyncResult{FromSHA: from, ToSHA: to, HadChanges: from != to}, nil
}

// Head returns the checked-out commit.
func (r *Repository) Head() (*CommitInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, errors.New("repository not synced yet")
	}
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	return &CommitInfo{
		SHA:       commit.Hash.String(),
		Author:    commit.Author.Name,
		Timestamp: commit.Author.When,
		Message:   commit.Message,
		Branch:    r.config.Branch,
	}, nil
}

// LastSync returns when the last successful Sync finished.
func (r *Repository) LastSync() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSync
}
