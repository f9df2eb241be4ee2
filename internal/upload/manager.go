package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"blogboard/internal/storage"
)

// Manager turns uploaded files into storage references of the form "<unix millis>-<name>".
type Manager struct {
	store  storage.Service
	logger *logrus.Logger
	now    func() time.Time
}

func NewManager(store storage.Service, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Store writes the uploaded file and returns its reference.
func (m *Manager) Store(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", fmt.Errorf("no file uploaded")
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	return m.StoreReader(ctx, fh.Filename, f)
}

// StoreReader writes body under a reference generated from originalName.
func (m *Manager) StoreReader(ctx context.Context, originalName string, body io.Reader) (string, error) {
	ref := m.newRef(originalName)
	if err := m.store.Put(ctx, ref, body); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	m.logger.WithField("ref", ref).Debug("upload stored")
	return ref, nil
}

// Replace stores fh and passes the new reference to commit. oldRef is removed only after
// commit succeeds; a failing commit removes the new file instead and its error is returned.
// Failing to remove either file is only logged.
func (m *Manager) Replace(ctx context.Context, oldRef string, fh *multipart.FileHeader, commit func(newRef string) error) (string, error) {
	ref, err := m.Store(ctx, fh)
	if err != nil {
		return "", err
	}
	if err := commit(ref); err != nil {
		m.discard(ctx, ref)
		return "", err
	}
	m.discard(ctx, oldRef)
	return ref, nil
}

// Delete removes ref. Empty and already-missing references are no-ops.
func (m *Manager) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	if err := m.store.Delete(ctx, ref); err != nil {
		return fmt.Errorf("delete upload %s: %w", ref, err)
	}
	return nil
}

// URL resolves ref to an address the browser can fetch. Empty refs resolve to "".
func (m *Manager) URL(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	return m.store.URL(ctx, ref)
}

func (m *Manager) discard(ctx context.Context, ref string) {
	if err := m.Delete(ctx, ref); err != nil {
		m.logger.WithField("ref", ref).Warnf("remove upload: %v", err)
	}
}

func (m *Manager) newRef(originalName string) string {
	return fmt.Sprintf("%d-%s", m.now().UnixMilli(), sanitizeName(originalName))
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}
