package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"luvv/internal/config"
)

// 支持的存储后端
const (
	TypeLocal = "local"
	TypeS3    = "s3"
	TypeOSS   = "oss"
	TypeCOS   = "cos"
	TypeR2    = "r2"
)

// ErrEmptyPayload is returned when Save is called without data.
var ErrEmptyPayload = errors.New("empty payload")

// SaveOptions describes one object. Extension has no leading dot; ContentType
// overrides the type guessed from Extension.
type SaveOptions struct {
	Category     string
	Extension    string
	ContentType  string
	BaseName     string
	SkipIfExists bool
}

// Storage persists binary data and returns the object key relative to the backend root.
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
}

// LocalBaseDirProvider is implemented by backends whose files the HTTP server
// can serve directly.
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage picks the backend named by STORAGE_TYPE.
func NewStorage(cfg config.Config) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageType)) {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

// PublicURL joins the configured public base with an object key.
func PublicURL(baseURL, key string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/" + strings.TrimLeft(key, "/")
}

// required trims every value and reports the first missing one as
// "storage: missing <backend> <name>".
func required(backend string, fields map[string]*string) error {
	for name, value := range fields {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			return fmt.Errorf("storage: missing %s %s", backend, name)
		}
	}
	return nil
}

func checkSave(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyPayload
	}
	return ctx.Err()
}

func contentTypeFor(opts SaveOptions) string {
	if ct := strings.TrimSpace(opts.ContentType); ct != "" {
		return ct
	}
	return detectContentType(opts.Extension)
}
