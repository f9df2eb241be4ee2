package repository

import (
	"context"

	"blogboard/internal/domain"
)

// BlogRepository stores blogs as whole documents, comments included.
type BlogRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, blog *domain.Blog) (string, error)
	// Update writes blog only if the stored version still equals blog.Version,
	// then bumps blog.Version. A stale version yields ErrVersionConflict.
	Update(ctx context.Context, blog *domain.Blog) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Blog, error)
	List(ctx context.Context) ([]domain.Blog, error)
	ListByOwner(ctx context.Context, email string) ([]domain.Blog, error)
	ImageRefs(ctx context.Context) ([]string, error)
}
