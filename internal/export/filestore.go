package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirFileStore writes exports into a local directory, creating it on first
// save.
type DirFileStore struct {
	Dir string
}

func NewDirFileStore(dir string) *DirFileStore {
	return &DirFileStore{Dir: dir}
}

func (s *DirFileStore) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	// Base strips any path components a caller might sneak into the name.
	path := filepath.Join(s.Dir, filepath.Base(fileName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}
