package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samirrijal/maptrace/internal/core/domain"
	"github.com/samirrijal/maptrace/internal/core/measure"
	"github.com/samirrijal/maptrace/internal/core/pathcodec"
	"github.com/samirrijal/maptrace/internal/core/ports"
	"github.com/samirrijal/maptrace/internal/pkg/metrics"
)

const maxNameLength = 120

// SavedPathService handles named, persisted measurements.
type SavedPathService struct {
	paths ports.SavedPathRepository
	cache ports.CacheService
}

// NewSavedPathService creates a new SavedPathService.
func NewSavedPathService(paths ports.SavedPathRepository, cache ports.CacheService) *SavedPathService {
	return &SavedPathService{paths: paths, cache: cache}
}

// Save validates and stores an encoded path under name.
func (s *SavedPathService) Save(ctx context.Context, name, encoded string) (*domain.SavedPath, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, maxNameLength)
	}
	path, err := pathcodec.Decode(encoded)
	if err != nil {
		metrics.PathDecodeErrors.Inc()
		return nil, fmt.Errorf("decode path: %w", err)
	}

	sp := &domain.SavedPath{
		Name:       name,
		Encoded:    encoded,
		PointCount: len(path),
		TotalKm:    measure.ComputeProfile(path, nil).Total(),
	}
	if err := s.paths.Create(ctx, sp); err != nil {
		return nil, fmt.Errorf("create saved path: %w", err)
	}
	return sp, nil
}

// GetByID returns a single saved path.
func (s *SavedPathService) GetByID(ctx context.Context, id string) (*domain.SavedPath, error) {
	cacheKey := "saved_paths:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var sp domain.SavedPath
			if err := json.Unmarshal(data, &sp); err == nil {
				metrics.CacheHits.WithLabelValues("saved_path").Inc()
				return &sp, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("saved_path").Inc()
	}

	sp, err := s.paths.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(sp); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600) // 10 min
		}
	}

	return sp, nil
}

// List returns one page of saved paths, newest first, and the total count.
func (s *SavedPathService) List(ctx context.Context, offset, limit int) ([]domain.SavedPath, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.paths.List(ctx, offset, limit)
}

// Delete removes a saved path and evicts it from the cache.
func (s *SavedPathService) Delete(ctx context.Context, id string) error {
	if err := s.paths.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "saved_paths:id:"+id)
	}
	return nil
}
