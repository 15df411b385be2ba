// Package persist provides the local persistence gateways the comment store
// writes its snapshots through.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"marginalia/internal/store"
)

// File persists the database as one pretty-printed JSON file. Writes go
// through a temp file and a rename so a crash mid-write cannot leave a
// half-written snapshot behind.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) LoadSnapshot(ctx context.Context) (*store.Database, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, store.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var db store.Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &db, nil
}

func (f *File) SaveSnapshot(ctx context.Context, db *store.Database) error {
	payload, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
