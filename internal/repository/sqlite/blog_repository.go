package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"blogboard/internal/domain"
	"blogboard/internal/repository"
)

const createBlogsTable = `
CREATE TABLE IF NOT EXISTS blogs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL,
	comments TEXT NOT NULL DEFAULT '[]',
	version INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blogs_created_by ON blogs(created_by);
`

const selectBlogColumns = `
SELECT id, title, description, image, created_by, comments, version, created_at, updated_at
FROM blogs`

// commentRecord is the JSON shape of a comment inside the comments column.
type commentRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Replies   []string  `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

type BlogRepository struct {
	db *sql.DB
}

func NewBlogRepository(db *sql.DB) repository.BlogRepository {
	return &BlogRepository{db: db}
}

func (r *BlogRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createBlogsTable); err != nil {
		return fmt.Errorf("create blogs table: %w", err)
	}
	return nil
}

func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog) (string, error) {
	if blog.ID == "" {
		blog.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	blog.Version = 1

	comments, err := encodeComments(blog.Comments)
	if err != nil {
		return "", err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO blogs (id, title, description, image, created_by, comments, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		blog.ID,
		blog.Title,
		blog.Description,
		blog.Image,
		blog.CreatedBy,
		comments,
		blog.Version,
		blog.CreatedAt,
		blog.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert blog: %w", err)
	}
	return blog.ID, nil
}

func (r *BlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	comments, err := encodeComments(blog.Comments)
	if err != nil {
		return err
	}
	updatedAt := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE blogs
SET title=?, description=?, image=?, comments=?, version=version+1, updated_at=?
WHERE id=? AND version=?`,
		blog.Title,
		blog.Description,
		blog.Image,
		comments,
		updatedAt,
		blog.ID,
		blog.Version,
	)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("blog rows affected: %w", err)
	}
	if affected == 0 {
		return r.missOrConflict(ctx, blog.ID)
	}

	blog.Version++
	blog.UpdatedAt = updatedAt
	return nil
}

// missOrConflict tells apart a vanished row from a stale version after a no-op update.
func (r *BlogRepository) missOrConflict(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM blogs WHERE id=?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("blog %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check blog: %w", err)
	}
	return fmt.Errorf("blog %s: %w", id, repository.ErrVersionConflict)
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("blog %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *BlogRepository) GetByID(ctx context.Context, id string) (*domain.Blog, error) {
	row := r.db.QueryRowContext(ctx, selectBlogColumns+` WHERE id=?`, id)
	blog, err := scanBlog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("blog %s: %w", id, repository.ErrNotFound)
		}
		return nil, err
	}
	return blog, nil
}

func (r *BlogRepository) List(ctx context.Context) ([]domain.Blog, error) {
	return r.queryBlogs(ctx, selectBlogColumns+` ORDER BY created_at DESC, rowid DESC`)
}

func (r *BlogRepository) ListByOwner(ctx context.Context, email string) ([]domain.Blog, error) {
	return r.queryBlogs(ctx, selectBlogColumns+` WHERE created_by=? ORDER BY created_at DESC, rowid DESC`, email)
}

func (r *BlogRepository) ImageRefs(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, r.db, `SELECT image FROM blogs WHERE image != ''`)
}

func (r *BlogRepository) queryBlogs(ctx context.Context, query string, args ...any) ([]domain.Blog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query blogs: %w", err)
	}
	defer rows.Close()

	var blogs []domain.Blog
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, *blog)
	}
	return blogs, rows.Err()
}

func scanBlog(row interface {
	Scan(dest ...any) error
}) (*domain.Blog, error) {
	var (
		blog     domain.Blog
		comments string
	)
	if err := row.Scan(
		&blog.ID,
		&blog.Title,
		&blog.Description,
		&blog.Image,
		&blog.CreatedBy,
		&comments,
		&blog.Version,
		&blog.CreatedAt,
		&blog.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan blog: %w", err)
	}

	decoded, err := decodeComments(comments)
	if err != nil {
		return nil, fmt.Errorf("blog %s: %w", blog.ID, err)
	}
	blog.Comments = decoded
	return &blog, nil
}

func encodeComments(comments []domain.Comment) (string, error) {
	records := make([]commentRecord, len(comments))
	for i, c := range comments {
		replies := c.Replies
		if replies == nil {
			replies = []string{}
		}
		records[i] = commentRecord{
			ID:        c.ID,
			Text:      c.Text,
			Replies:   replies,
			CreatedAt: c.CreatedAt,
		}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode comments: %w", err)
	}
	return string(raw), nil
}

func decodeComments(raw string) ([]domain.Comment, error) {
	if raw == "" {
		return []domain.Comment{}, nil
	}
	var records []commentRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	comments := make([]domain.Comment, len(records))
	for i, rec := range records {
		replies := rec.Replies
		if replies == nil {
			replies = []string{}
		}
		comments[i] = domain.Comment{
			ID:        rec.ID,
			Text:      rec.Text,
			Replies:   replies,
			CreatedAt: rec.CreatedAt,
		}
	}
	return comments, nil
}
