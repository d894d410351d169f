package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

// LocalStorage serves a directory tree on the local filesystem. Used for
// development deployments and tests.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(config *BackendConfig) (*LocalStorage, error) {
	basePath := config.Path
	if basePath == "" {
		basePath = "./storage"
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, err, "create storage directory failed")
	}

	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "object %q not found", key)
		}
		return nil, apperr.Wrap(apperr.KindBackend, err, "read %q failed", key)
	}
	return data, nil
}

func (s *LocalStorage) Write(ctx context.Context, key string, data []byte) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperr.Wrap(apperr.KindBackend, err, "write %q failed", key)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return apperr.Wrap(apperr.KindBackend, err, "write %q failed", key)
	}
	return nil
}

func (s *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	root := filepath.Join(s.basePath, filepath.FromSlash(strings.TrimPrefix(prefix, "/")))

	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "directory %q not found", prefix)
		}
		return nil, apperr.Wrap(apperr.KindBackend, err, "list %q failed", prefix)
	}
	return keys, nil
}

func (s *LocalStorage) CheckCredentials(ctx context.Context) error {
	if _, err := os.Stat(s.basePath); err != nil {
		return apperr.Wrap(apperr.KindAuth, err, "storage directory not accessible")
	}
	return nil
}
