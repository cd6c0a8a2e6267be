package bookings

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/payments"
	"github.com/wayfarer-app/wayfarer/internal/shared"
	"github.com/wayfarer-app/wayfarer/internal/tours"
)

// TourCatalog resolves the tour being booked.
type TourCatalog interface {
	Get(ctx context.Context, id int64) (*tours.Tour, error)
}

// CheckoutProvider opens hosted checkout sessions and decodes provider
// webhook events.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, params payments.SessionParams) (*payments.Session, error)
}

// Notifier delivers booking notifications out of band.
type Notifier interface {
	SendBookingConfirmed(ctx context.Context, email, name, tourName string) error
}

// AccountDirectory looks up the account a paid booking belongs to.
type AccountDirectory interface {
	FindActiveByID(ctx context.Context, id int64) (*auth.Account, error)
}

// Service wraps the booking lifecycle.
type Service struct {
	repo     *Repository
	catalog  TourCatalog
	provider CheckoutProvider
	accounts AccountDirectory
	notify   Notifier
	logger   *slog.Logger
	baseURL  string
}

// NewService constructs a Service. baseURL is the public origin used to
// build the checkout redirect targets.
func NewService(repo *Repository, catalog TourCatalog, provider CheckoutProvider, accounts AccountDirectory, notify Notifier, logger *slog.Logger, baseURL string) *Service {
	return &Service{repo: repo, catalog: catalog, provider: provider, accounts: accounts, notify: notify, logger: logger, baseURL: baseURL}
}

// Checkout snapshots the tour price into a pending booking and opens a
// hosted checkout session for it. The returned URL is where the client
// redirects the user.
func (s *Service) Checkout(ctx context.Context, principal *auth.Principal, tourID int64) (string, error) {
	tour, err := s.catalog.Get(ctx, tourID)
	if err != nil {
		return "", err
	}

	booking := Booking{
		Reference:  uuid.New(),
		TourID:     tour.ID,
		UserID:     principal.ID,
		PriceCents: int64(math.Round(tour.Price * 100)),
		Status:     StatusPaymentPending,
	}
	id, err := s.repo.Create(ctx, booking)
	if err != nil {
		return "", fmt.Errorf("create booking: %w", err)
	}

	session, err := s.provider.CreateSession(ctx, payments.SessionParams{
		Reference:   booking.Reference.String(),
		Email:       principal.Email,
		Name:        fmt.Sprintf("%s Tour", tour.Name),
		Description: tour.Summary,
		ImageURL:    tour.ImageCover,
		AmountCents: booking.PriceCents,
		Currency:    "usd",
		SuccessURL:  fmt.Sprintf("%s/my-bookings", s.baseURL),
		CancelURL:   fmt.Sprintf("%s/tours/%s", s.baseURL, tour.Slug),
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	if err := s.repo.SetSession(ctx, id, session.ID); err != nil {
		return "", fmt.Errorf("record checkout session: %w", err)
	}
	return session.URL, nil
}

// HandleEvent applies a verified provider event to the referenced booking.
// Replayed events find the booking already terminal and do nothing.
func (s *Service) HandleEvent(ctx context.Context, event *payments.Event) error {
	reference, err := uuid.Parse(event.Reference)
	if err != nil {
		return fmt.Errorf("%w: malformed booking reference", shared.ErrValidation)
	}

	var to Status
	switch event.Type {
	case payments.EventCheckoutCompleted:
		to = StatusPaymentCompleted
	case payments.EventCheckoutRejected:
		to = StatusPaymentRejected
	default:
		if s.logger != nil {
			s.logger.Info("ignoring webhook event", slog.String("type", event.Type))
		}
		return nil
	}

	moved, err := s.repo.Transition(ctx, reference, to)
	if err != nil {
		return fmt.Errorf("transition booking: %w", err)
	}
	if !moved || to != StatusPaymentCompleted {
		return nil
	}

	booking, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	account, err := s.accounts.FindActiveByID(ctx, booking.UserID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("lookup booking owner for notification", slog.Any("error", err))
		}
		return nil
	}
	if s.notify != nil {
		if err := s.notify.SendBookingConfirmed(ctx, account.Email, account.Name, booking.TourName); err != nil && s.logger != nil {
			s.logger.Warn("enqueue booking confirmation", slog.Any("error", err))
		}
	}
	return nil
}

// Cancel marks a pending booking cancelled. Only the owner or an
// administrator may cancel.
func (s *Service) Cancel(ctx context.Context, principal *auth.Principal, id int64) error {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if booking.UserID != principal.ID && principal.Role != auth.RoleAdmin {
		return shared.ErrNotFound
	}
	moved, err := s.repo.Transition(ctx, booking.Reference, StatusCancelled)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if !moved {
		return fmt.Errorf("%w: booking is not pending", shared.ErrValidation)
	}
	return nil
}

// ListMine returns the caller's bookings.
func (s *Service) ListMine(ctx context.Context, principal *auth.Principal) ([]Booking, error) {
	return s.repo.ListByUser(ctx, principal.ID)
}

// Get returns a booking visible to the caller. Non-owners get a not-found
// rather than a forbidden, so booking ids cannot be probed.
func (s *Service) Get(ctx context.Context, principal *auth.Principal, id int64) (*Booking, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != principal.ID && principal.Role != auth.RoleAdmin {
		return nil, shared.ErrNotFound
	}
	return booking, nil
}
