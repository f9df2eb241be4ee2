package service

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"blogboard/internal/repository"
	"blogboard/internal/repository/sqlite"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newRepos(t *testing.T) (repository.UserRepository, repository.BlogRepository) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := sqlite.NewUserRepository(db)
	blogs := sqlite.NewBlogRepository(db)
	require.NoError(t, users.Init(context.Background()))
	require.NoError(t, blogs.Init(context.Background()))
	return users, blogs
}
