package users

import (
	"context"
	"fmt"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// Service wraps account administration and self-service profile rules.
type Service struct {
	repo *Repository
}

// NewService constructs a Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns a filtered, paginated page of users.
func (s *Service) List(ctx context.Context, query shared.ListQuery) ([]User, shared.Pagination, error) {
	users, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list users: %w", err)
	}
	return users, shared.NewPagination(query.Page(), query.Size(), total), nil
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// UpdateProfile applies the self-service profile fields to the given
// account and returns the refreshed record.
func (s *Service) UpdateProfile(ctx context.Context, id int64, params UpdateProfileParams) (*User, error) {
	fields := map[string]any{}
	if params.Name != nil {
		fields["name"] = *params.Name
	}
	if params.Email != nil {
		fields["email"] = *params.Email
	}
	if params.Photo != nil {
		fields["photo"] = *params.Photo
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Deactivate soft-deletes the caller's own account.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

// AdminUpdate applies an administrative update, including role and active
// flag changes.
func (s *Service) AdminUpdate(ctx context.Context, id int64, params AdminUpdateParams) (*User, error) {
	fields := map[string]any{}
	if params.Name != nil {
		fields["name"] = *params.Name
	}
	if params.Email != nil {
		fields["email"] = *params.Email
	}
	if params.Photo != nil {
		fields["photo"] = *params.Photo
	}
	if params.Role != nil {
		fields["role"] = string(*params.Role)
	}
	if params.IsActive != nil {
		fields["is_active"] = *params.IsActive
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes an account entirely.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
