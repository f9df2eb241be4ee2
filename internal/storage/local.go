package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalService keeps objects as files in a single directory that is served under urlPrefix.
type LocalService struct {
	dir       string
	urlPrefix string
}

func NewLocalService(dir, urlPrefix string) (*LocalService, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalService{
		dir:       filepath.Clean(dir),
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}, nil
}

// Dir is the directory backing the service.
func (s *LocalService) Dir() string { return s.dir }

// URLPrefix is the public path the directory is mounted on.
func (s *LocalService) URLPrefix() string { return s.urlPrefix }

func (s *LocalService) Put(ctx context.Context, key string, body io.Reader) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, key)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", key, ErrObjectExists)
		}
		return fmt.Errorf("create %s: %w", key, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close %s: %w", key, err)
	}
	return nil
}

func (s *LocalService) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *LocalService) URL(ctx context.Context, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return s.urlPrefix + "/" + url.PathEscape(key), nil
}

func (s *LocalService) List(ctx context.Context) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	objects := make([]ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		modified := info.ModTime()
		objects = append(objects, ObjectInfo{
			Key:          entry.Name(),
			Size:         info.Size(),
			LastModified: &modified,
		})
	}
	return objects, nil
}

var _ Service = (*LocalService)(nil)
