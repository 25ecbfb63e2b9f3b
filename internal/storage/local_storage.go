package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const defaultLocalDir = "datas/cards"

// LocalStorage writes cards under a directory that the HTTP server also serves.
type LocalStorage struct {
	baseDir string
	layout  objectLayout
}

func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir = strings.TrimSpace(baseDir); baseDir == "" {
		baseDir = defaultLocalDir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, layout: newObjectLayout("")}, nil
}

func (s *LocalStorage) LocalBaseDir() string {
	return s.baseDir
}

func (s *LocalStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	if err := checkSave(ctx, data); err != nil {
		return "", err
	}

	key := s.layout.key(opts)
	target := filepath.Join(s.baseDir, filepath.FromSlash(key))

	if opts.SkipIfExists {
		_, err := os.Stat(target)
		switch {
		case err == nil:
			return key, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("stat file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return key, nil
}

var (
	_ Storage              = (*LocalStorage)(nil)
	_ LocalBaseDirProvider = (*LocalStorage)(nil)
)
