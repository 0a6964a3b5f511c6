package doctorsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/metrics"
)

const directoryKey = "directory"

// Directory is the read side of the user directory.
type Directory interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
}

type Config struct {
	CacheTTL        time.Duration
	CleanupInterval time.Duration
}

// Service finds doctors for a recommended specialist. The directory
// snapshot is cached; Invalidate drops it after directory changes.
type Service struct {
	directory Directory
	cache     *cache.Cache
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(directory Directory, cfg Config, log *logger.Logger, m *metrics.Metrics) *Service {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Service{
		directory: directory,
		cache:     cache.New(ttl, cfg.CleanupInterval),
		logger:    log,
		metrics:   m,
	}
}

// FindMatchingDoctors returns active doctors matching specialist. An empty
// or "null" specialist returns an empty list without reading the directory.
func (s *Service) FindMatchingDoctors(ctx context.Context, specialist string) (*model.DoctorSearchOutput, error) {
	if IsEmptyQuery(specialist) {
		s.metrics.ObserveMatches(0)
		return &model.DoctorSearchOutput{Doctors: []model.DoctorSearchResult{}}, nil
	}

	users, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read doctor directory: %w", err)
	}

	doctors := Match(specialist, users)
	s.metrics.ObserveMatches(len(doctors))
	s.logger.Debug("doctor search", "specialist", specialist, "matches", len(doctors))

	return &model.DoctorSearchOutput{Doctors: doctors}, nil
}

// Invalidate drops the cached directory snapshot.
func (s *Service) Invalidate() {
	s.cache.Delete(directoryKey)
}

func (s *Service) snapshot(ctx context.Context) ([]*model.User, error) {
	if cached, found := s.cache.Get(directoryKey); found {
		return cached.([]*model.User), nil
	}

	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(directoryKey, users, cache.DefaultExpiration)
	return users, nil
}
