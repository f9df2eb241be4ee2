package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrObjectExists is returned by Put when the key is already taken.
var ErrObjectExists = errors.New("object already exists")

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service stores uploaded files under flat keys.
type Service interface {
	Put(ctx context.Context, key string, body io.Reader) error
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the address clients use to fetch key.
	URL(ctx context.Context, key string) (string, error)
	List(ctx context.Context) ([]ObjectInfo, error)
}

// ValidateKey rejects keys that could escape the flat namespace.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("storage key is required")
	case key == "." || key == "..":
		return fmt.Errorf("invalid storage key %q", key)
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("storage key %q must not contain path separators", key)
	}
	return nil
}
