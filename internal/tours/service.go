package tours

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// Service wraps tour business rules.
type Service struct {
	repo   *Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo *Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// List returns a page of tours plus pagination metadata. A page beyond the
// last yields an empty slice with the real totals.
func (s *Service) List(ctx context.Context, q shared.ListQuery) ([]Tour, shared.Pagination, error) {
	tours, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list tours: %w", err)
	}
	return tours, shared.NewPagination(q.Page(), q.Size(), total), nil
}

// Get returns a tour by id.
func (s *Service) Get(ctx context.Context, id int64) (*Tour, error) {
	return s.repo.Get(ctx, id)
}

// GetBySlug returns a tour by slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Tour, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Create inserts a new tour; the slug is derived from the name.
func (s *Service) Create(ctx context.Context, params CreateTourParams) (*Tour, error) {
	tour := Tour{
		Name:            params.Name,
		Slug:            shared.Slugify(params.Name),
		Duration:        params.Duration,
		MaxGroupSize:    params.MaxGroupSize,
		Difficulty:      params.Difficulty,
		RatingsAverage:  4.5,
		RatingsQuantity: 0,
		Price:           params.Price,
		PriceDiscount:   params.PriceDiscount,
		Summary:         params.Summary,
		Description:     params.Description,
		ImageCover:      params.ImageCover,
		Images:          params.Images,
		StartDates:      params.StartDates,
		Secret:          params.Secret,
		StartLocation:   params.StartLocation,
		Locations:       params.Locations,
		GuideIDs:        params.GuideIDs,
	}
	id, err := s.repo.Create(ctx, tour)
	if err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}
	tour.ID = id
	s.bumpCache(ctx)
	return s.repo.Get(ctx, id)
}

// Update applies a partial update and returns the fresh record.
func (s *Service) Update(ctx context.Context, id int64, params UpdateTourParams) (*Tour, error) {
	updates := make(map[string]any)
	if params.Name != nil {
		updates["name"] = *params.Name
		updates["slug"] = shared.Slugify(*params.Name)
	}
	if params.Duration != nil {
		updates["duration"] = *params.Duration
	}
	if params.MaxGroupSize != nil {
		updates["max_group_size"] = *params.MaxGroupSize
	}
	if params.Difficulty != nil {
		updates["difficulty"] = string(*params.Difficulty)
	}
	if params.Price != nil {
		updates["price"] = *params.Price
	}
	if params.PriceDiscount != nil {
		updates["price_discount"] = *params.PriceDiscount
	}
	if params.Summary != nil {
		updates["summary"] = *params.Summary
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if params.ImageCover != nil {
		updates["image_cover"] = *params.ImageCover
	}
	if params.Images != nil {
		updates["images"] = *params.Images
	}
	if params.StartDates != nil {
		updates["start_dates"] = *params.StartDates
	}
	if params.Secret != nil {
		updates["secret"] = *params.Secret
	}
	if params.StartLocation != nil {
		updates["start_location"] = *params.StartLocation
	}
	if params.Locations != nil {
		updates["locations"] = *params.Locations
	}
	if params.GuideIDs != nil {
		updates["guide_ids"] = *params.GuideIDs
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update tour: %w", err)
		}
		s.bumpCache(ctx)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a tour.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bumpCache(ctx)
	return nil
}

// Stats returns the per-difficulty aggregates, served from cache when warm.
func (s *Service) Stats(ctx context.Context) ([]Stats, error) {
	key, err := s.cache.BuildKey(ctx, "tours", "stats")
	if err != nil {
		return s.repo.Stats(ctx)
	}
	var stats []Stats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
		return s.repo.Stats(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("tour stats: %w", err)
	}
	return stats, nil
}

// MonthlyPlan returns the per-month start counts for a year, served from
// cache when warm.
func (s *Service) MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlanEntry, error) {
	key, err := s.cache.BuildKey(ctx, "tours", "plan", strconv.Itoa(year))
	if err != nil {
		return s.repo.MonthlyPlan(ctx, year)
	}
	var plan []MonthlyPlanEntry
	err = s.cache.FetchJSON(ctx, key, &plan, func(ctx context.Context) (any, error) {
		return s.repo.MonthlyPlan(ctx, year)
	})
	if err != nil {
		return nil, fmt.Errorf("monthly plan: %w", err)
	}
	return plan, nil
}

// Within returns tours starting inside the radius around the point.
func (s *Service) Within(ctx context.Context, lat, lng, radiusKm float64) ([]Tour, error) {
	return s.repo.Within(ctx, lat, lng, radiusKm)
}

// Distances returns every tour's distance from the point in the requested
// unit.
func (s *Service) Distances(ctx context.Context, lat, lng, multiplier float64) ([]Distance, error) {
	return s.repo.Distances(ctx, lat, lng, multiplier)
}

// Cache invalidation is best effort; a failed bump only means stale
// aggregates until the TTL runs out.
func (s *Service) bumpCache(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump tours cache", slog.Any("error", err))
	}
}
