package janitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"blogboard/internal/metrics"
	"blogboard/internal/storage"
)

// RefSource lists the upload references a store still points at.
type RefSource interface {
	ImageRefs(ctx context.Context) ([]string, error)
}

// Sweeper periodically removes uploads that no user or blog references any more.
type Sweeper interface {
	Start(ctx context.Context) error
	Shutdown()
	Sweep(ctx context.Context) (int, error)
}

type Config struct {
	Interval time.Duration
	// Grace is the minimum age of an unreferenced object before it is removed.
	Grace  time.Duration
	Logger *logrus.Logger
}

type sweeper struct {
	cfg     Config
	store   storage.Service
	sources []RefSource
	now     func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

func NewSweeper(cfg Config, store storage.Service, sources ...RefSource) Sweeper {
	if cfg.Grace <= 0 {
		cfg.Grace = 10 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &sweeper{
		cfg:     cfg,
		store:   store,
		sources: sources,
		now:     time.Now,
	}
}

// Start launches the background loop. A zero interval leaves the sweeper idle.
func (s *sweeper) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		s.cfg.Logger.Info("upload janitor disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("janitor already started")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(loopCtx)
	}()

	s.cfg.Logger.Infof("upload janitor started, interval %s", s.cfg.Interval)
	return nil
}

func (s *sweeper) Shutdown() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.cfg.Logger.Info("upload janitor stopped")
}

func (s *sweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.cfg.Logger.Warnf("sweep uploads: %v", err)
			}
		}
	}
}

// Sweep deletes unreferenced objects older than the grace period and reports how many it removed.
func (s *sweeper) Sweep(ctx context.Context) (int, error) {
	referenced := make(map[string]struct{})
	for _, src := range s.sources {
		refs, err := src.ImageRefs(ctx)
		if err != nil {
			return 0, fmt.Errorf("collect references: %w", err)
		}
		for _, ref := range refs {
			referenced[ref] = struct{}{}
		}
	}

	objects, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list uploads: %w", err)
	}

	cutoff := s.now().Add(-s.cfg.Grace)
	removed := 0
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if obj.LastModified == nil || obj.LastModified.After(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			s.cfg.Logger.WithField("ref", obj.Key).Warnf("remove orphaned upload: %v", err)
			continue
		}
		s.cfg.Logger.WithField("ref", obj.Key).Info("removed orphaned upload")
		removed++
	}

	metrics.RecordSweptUploads(removed)
	return removed, nil
}

var _ Sweeper = (*sweeper)(nil)
