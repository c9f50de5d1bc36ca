// internal/storage/archive/localfs.go
package archive

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalFS implements Archive on the local filesystem. Slash-separated
// archive paths map directly to files under the base directory.
type LocalFS struct {
	baseDir string
}

// NewLocalFS creates a LocalFS archive rooted at baseDir,
// creating the directory if needed.
func NewLocalFS(baseDir string) (*LocalFS, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &LocalFS{baseDir: baseDir}, nil
}

func (l *LocalFS) filePath(path string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(path))
}

func (l *LocalFS) Store(ctx context.Context, path string, data []byte) error {
	fp := l.filePath(path)
	if err := os.MkdirAll(filepath.Dir(fp), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	return os.WriteFile(fp, data, 0644)
}

func (l *LocalFS) Load(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(l.filePath(path))
}

func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	root := l.filePath(prefix)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, relErr := filepath.Rel(l.baseDir, p)
			if relErr != nil {
				return relErr
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})

	if os.IsNotExist(err) {
		return []string{}, nil
	}
	return paths, err
}

func (l *LocalFS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(l.filePath(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}
