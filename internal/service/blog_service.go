package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blogboard/internal/domain"
	"blogboard/internal/metrics"
	"blogboard/internal/repository"
)

// ErrForbidden is returned when ownership checks are on and the actor does not own the blog.
var ErrForbidden = errors.New("not the blog owner")

const (
	maxMutationAttempts = 5
	retryBackoff        = 10 * time.Millisecond
)

// BlogService coordinates blog operations backed by a BlogRepository.
type BlogService interface {
	Create(ctx context.Context, title, description, imageRef, ownerEmail string) (*domain.Blog, error)
	Get(ctx context.Context, id string) (*domain.Blog, error)
	List(ctx context.Context) ([]domain.Blog, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]domain.Blog, error)
	// Update sets title and description; imageRef replaces the image only when non-nil.
	Update(ctx context.Context, id, title, description string, imageRef *string) (*domain.Blog, error)
	Delete(ctx context.Context, id string) error
	AppendComment(ctx context.Context, blogID, text string) (*domain.Blog, error)
	AppendReply(ctx context.Context, blogID string, commentIndex int, reply string) (*domain.Blog, error)
	AppendReplyToComment(ctx context.Context, blogID, commentID, reply string) (*domain.Blog, error)
	// Authorize reports ErrForbidden when ownership is enforced and actorEmail does not own blog.
	Authorize(blog *domain.Blog, actorEmail string) error
}

// BlogOptions tunes a BlogService.
type BlogOptions struct {
	EnforceOwnership bool
	// MaxAttempts bounds read-modify-write retries on version conflicts.
	MaxAttempts int
	// RetryBackoff is the first pause after a conflict; later pauses double, each jittered by half.
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

type blogService struct {
	blogs       repository.BlogRepository
	enforce     bool
	maxAttempts int
	retryBase   time.Duration
	logger      *logrus.Logger
	newID       func() string
	now         func() time.Time
}

func NewBlogService(blogs repository.BlogRepository, opts BlogOptions) BlogService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = maxMutationAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = retryBackoff
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &blogService{
		blogs:       blogs,
		enforce:     opts.EnforceOwnership,
		maxAttempts: opts.MaxAttempts,
		retryBase:   opts.RetryBackoff,
		logger:      opts.Logger,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

func (s *blogService) Create(ctx context.Context, title, description, imageRef, ownerEmail string) (*domain.Blog, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if ownerEmail == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}

	blog := &domain.Blog{
		Title:       title,
		Description: description,
		Image:       imageRef,
		CreatedBy:   ownerEmail,
		Comments:    []domain.Comment{},
	}
	_, err := s.blogs.Create(ctx, blog)
	metrics.RecordBlogMutation("create", err)
	if err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *blogService) Get(ctx context.Context, id string) (*domain.Blog, error) {
	return s.blogs.GetByID(ctx, id)
}

func (s *blogService) List(ctx context.Context) ([]domain.Blog, error) {
	return s.blogs.List(ctx)
}

func (s *blogService) ListByOwner(ctx context.Context, ownerEmail string) ([]domain.Blog, error) {
	return s.blogs.ListByOwner(ctx, ownerEmail)
}

func (s *blogService) Update(ctx context.Context, id, title, description string, imageRef *string) (*domain.Blog, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return s.mutate(ctx, "update", id, func(b *domain.Blog) error {
		b.Title = title
		b.Description = description
		if imageRef != nil {
			b.Image = *imageRef
		}
		return nil
	})
}

func (s *blogService) Delete(ctx context.Context, id string) error {
	err := s.blogs.Delete(ctx, id)
	metrics.RecordBlogMutation("delete", err)
	return err
}

func (s *blogService) AppendComment(ctx context.Context, blogID, text string) (*domain.Blog, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrInvalidInput)
	}
	return s.mutate(ctx, "comment", blogID, func(b *domain.Blog) error {
		b.AppendComment(domain.Comment{
			ID:        s.newID(),
			Text:      text,
			CreatedAt: s.now().UTC(),
		})
		return nil
	})
}

func (s *blogService) AppendReply(ctx context.Context, blogID string, commentIndex int, reply string) (*domain.Blog, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("%w: reply text is required", ErrInvalidInput)
	}
	return s.mutate(ctx, "reply", blogID, func(b *domain.Blog) error {
		return b.AppendReply(commentIndex, reply)
	})
}

func (s *blogService) AppendReplyToComment(ctx context.Context, blogID, commentID, reply string) (*domain.Blog, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("%w: reply text is required", ErrInvalidInput)
	}
	return s.mutate(ctx, "reply", blogID, func(b *domain.Blog) error {
		return b.AppendReplyTo(commentID, reply)
	})
}

func (s *blogService) Authorize(blog *domain.Blog, actorEmail string) error {
	if !s.enforce || blog == nil {
		return nil
	}
	if !strings.EqualFold(blog.CreatedBy, actorEmail) {
		return ErrForbidden
	}
	return nil
}

// mutate runs read, apply, conditional write until the write lands or attempts run out.
// Version conflicts are retried with jittered exponential backoff; anything else aborts.
func (s *blogService) mutate(ctx context.Context, op, id string, apply func(*domain.Blog) error) (*domain.Blog, error) {
	logger := s.logger.WithFields(logrus.Fields{"blog_id": id, "op": op})

	attempts := 0
	policy := backoff.WithContext(backoff.WithMaxRetries(s.retryPolicy(), uint64(s.maxAttempts-1)), ctx)
	blog, err := backoff.RetryNotifyWithData(func() (*domain.Blog, error) {
		attempts++
		blog, err := s.blogs.GetByID(ctx, id)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if err := apply(blog); err != nil {
			return nil, backoff.Permanent(err)
		}
		if err := s.blogs.Update(ctx, blog); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				metrics.RecordVersionConflict()
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return blog, nil
	}, policy, func(err error, wait time.Duration) {
		logger.Debugf("version conflict on attempt %d, retrying in %s", attempts, wait)
	})

	metrics.RecordBlogMutation(op, err)
	if errors.Is(err, repository.ErrVersionConflict) {
		return nil, fmt.Errorf("%s after %d attempts: %w", op, attempts, err)
	}
	if err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *blogService) retryPolicy() *backoff.ExponentialBackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(s.retryBase),
		backoff.WithRandomizationFactor(0.5),
		backoff.WithMultiplier(2),
		backoff.WithMaxInterval(64*s.retryBase),
		backoff.WithMaxElapsedTime(0),
	)
}
