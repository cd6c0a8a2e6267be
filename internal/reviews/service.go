package reviews

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// Service wraps review business rules.
type Service struct {
	repo   *Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListByTour returns a tour's reviews.
func (s *Service) ListByTour(ctx context.Context, tourID int64) ([]Review, error) {
	return s.repo.ListByTour(ctx, tourID)
}

// Create stores a review authored by the principal and refreshes the
// tour's ratings aggregate.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, tourID int64, rating int, text string) (*Review, error) {
	review := Review{
		TourID: tourID,
		UserID: principal.ID,
		Rating: rating,
		Review: text,
	}
	id, err := s.repo.Create(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.recalc(ctx, tourID)
	return s.repo.Get(ctx, id)
}

// Update modifies a review. Only the author or an administrator may do so.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, id int64, params UpdateReviewParams) (*Review, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != principal.ID && principal.Role != auth.RoleAdmin {
		return nil, shared.ErrForbidden
	}

	if err := s.repo.Update(ctx, id, params); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	s.recalc(ctx, existing.TourID)
	return s.repo.Get(ctx, id)
}

// Delete removes a review. Only the author or an administrator may do so.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != principal.ID && principal.Role != auth.RoleAdmin {
		return shared.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	s.recalc(ctx, existing.TourID)
	return nil
}

// Ratings refresh is best effort; the aggregate self-heals on the next
// review write.
func (s *Service) recalc(ctx context.Context, tourID int64) {
	if err := s.repo.RecalcTourRatings(ctx, tourID); err != nil && s.logger != nil {
		s.logger.Warn("recalc tour ratings", slog.Any("error", err), slog.Int64("tour_id", tourID))
	}
}
