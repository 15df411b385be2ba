// Package history is a persistence gateway that keeps every snapshot: each
// save commits database.json to a local git repository, so the comment
// database can be inspected at any point in its past.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"marginalia/internal/store"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const snapshotFile = "database.json"

type Service struct {
	dir    string
	author string
	mu     sync.Mutex
}

// New builds a git-backed gateway rooted at dir. Commits are attributed to
// author.
func New(dir, author string) *Service {
	if author == "" {
		author = "marginalia"
	}
	return &Service{dir: dir, author: author}
}

func (s *Service) LoadSnapshot(ctx context.Context) (*store.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, store.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, store.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("resolve main: %w", err)
	}

	commitObj, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("load commit object: %w", err)
	}
	return readSnapshotFromCommit(commitObj)
}

func (s *Service) SaveSnapshot(ctx context.Context, db *store.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.openOrInit()
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, snapshotFile), append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if _, err := worktree.Add(snapshotFile); err != nil {
		return fmt.Errorf("git add snapshot: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("read worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	message := fmt.Sprintf("Snapshot %s (%d comments)", db.Metadata.LastUpdated, db.Metadata.TotalComments)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.author,
			Email: fmt.Sprintf("%s@localhost", sanitizeEmail(s.author)),
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	mainRef := plumbing.NewBranchReferenceName("main")
	if err := repo.Storer.SetReference(plumbing.NewHashReference(mainRef, hash)); err != nil {
		return fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, mainRef)); err != nil {
		return fmt.Errorf("set HEAD to main: %w", err)
	}
	return nil
}

// History lists the most recent snapshot commits, newest first. A limit of 0
// means no limit.
func (s *Service) History(limit int) ([]store.CommitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve main: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]store.CommitInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommitInfo(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// SnapshotAt returns the database as it was at the given commit. Short hashes
// are resolved the way git resolves them.
func (s *Service) SnapshotAt(hash string) (*store.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	resolvedHash, err := resolveHash(repo, hash)
	if err != nil {
		return nil, err
	}
	commitObj, err := repo.CommitObject(resolvedHash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	return readSnapshotFromCommit(commitObj)
}

func (s *Service) openOrInit() (*git.Repository, error) {
	repo, err := git.PlainOpen(s.dir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err = git.PlainInit(s.dir, false)
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	return repo, nil
}

func readSnapshotFromCommit(commitObj *object.Commit) (*store.Database, error) {
	file, err := commitObj.File(snapshotFile)
	if err != nil {
		return nil, fmt.Errorf("load %s from commit: %w", snapshotFile, err)
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("open snapshot reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read snapshot bytes: %w", err)
	}

	var db store.Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("decode commit snapshot: %w", err)
	}
	return &db, nil
}

func toCommitInfo(commitObj *object.Commit) store.CommitInfo {
	return store.CommitInfo{
		Hash:      commitObj.Hash.String()[:7],
		Message:   commitObj.Message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "user"
	}
	return string(out)
}
