package janitor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogboard/internal/storage"
)

type staticRefs []string

func (s staticRefs) ImageRefs(context.Context) ([]string, error) { return s, nil }

type failingRefs struct{}

func (failingRefs) ImageRefs(context.Context) ([]string, error) { return nil, errors.New("db down") }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newStore(t *testing.T, keys ...string) *storage.LocalService {
	t.Helper()
	store, err := storage.NewLocalService(t.TempDir(), "/uploads")
	require.NoError(t, err)
	old := time.Now().Add(-time.Hour)
	for _, k := range keys {
		require.NoError(t, store.Put(context.Background(), k, strings.NewReader(k)))
		require.NoError(t, os.Chtimes(filepath.Join(store.Dir(), k), old, old))
	}
	return store
}

func exists(t *testing.T, store *storage.LocalService, key string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(store.Dir(), key))
	return err == nil
}

func TestSweep_RemovesOnlyOrphans(t *testing.T) {
	store := newStore(t, "1-avatar.png", "2-post.png", "3-orphan.png")
	s := NewSweeper(Config{Grace: time.Minute, Logger: quietLogger()}, store,
		staticRefs{"1-avatar.png"}, staticRefs{"2-post.png"})

	removed, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.True(t, exists(t, store, "1-avatar.png"))
	assert.True(t, exists(t, store, "2-post.png"))
	assert.False(t, exists(t, store, "3-orphan.png"))
}

func TestSweep_KeepsFreshUploads(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Put(context.Background(), "4-new.png", strings.NewReader("x")))

	s := NewSweeper(Config{Grace: time.Hour, Logger: quietLogger()}, store)
	removed, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.True(t, exists(t, store, "4-new.png"))
}

func TestSweep_ReferenceErrorAbortsBeforeDeleting(t *testing.T) {
	store := newStore(t, "1-a.png")
	s := NewSweeper(Config{Logger: quietLogger()}, store, failingRefs{})

	_, err := s.Sweep(context.Background())
	require.Error(t, err)
	assert.True(t, exists(t, store, "1-a.png"))
}

func TestStartShutdown(t *testing.T) {
	store := newStore(t, "1-orphan.png")
	s := NewSweeper(Config{Interval: 10 * time.Millisecond, Grace: time.Minute, Logger: quietLogger()}, store)

	require.NoError(t, s.Start(context.Background()))
	require.Error(t, s.Start(context.Background()))

	require.Eventually(t, func() bool {
		return !exists(t, store, "1-orphan.png")
	}, 2*time.Second, 10*time.Millisecond)

	s.Shutdown()
}

func TestStart_DisabledWithZeroInterval(t *testing.T) {
	s := NewSweeper(Config{Logger: quietLogger()}, newStore(t))
	require.NoError(t, s.Start(context.Background()))
	s.Shutdown()
}
