package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// Repository is the account store collaborator. Lookups that take an
// "active" qualifier must exclude soft-deleted accounts.
type Repository interface {
	FindActiveByID(ctx context.Context, id int64) (*Account, error)
	FindActiveByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, account Account) (int64, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error
	SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id int64) error
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*Account, error)
}

// Notifier delivers account emails. Implementations may send inline or
// enqueue a background task.
type Notifier interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendPasswordReset(ctx context.Context, email, resetURL string) error
}

const bcryptCost = 12

// Password mutations record the change one second in the past so a
// credential minted within the same second still passes the staleness
// check.
const changedAtSkew = time.Second

// Service wraps authentication and credential business rules.
type Service struct {
	repo     Repository
	tokens   *TokenManager
	notify   Notifier
	logger   *slog.Logger
	resetTTL time.Duration
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *TokenManager, notify Notifier, logger *slog.Logger, resetTTL time.Duration) *Service {
	if resetTTL <= 0 {
		resetTTL = 10 * time.Minute
	}
	return &Service{repo: repo, tokens: tokens, notify: notify, logger: logger, resetTTL: resetTTL}
}

// SignUpParams are the fields accepted at registration. The role is always
// "user"; privileged roles are assigned by an administrator afterwards.
type SignUpParams struct {
	Name     string
	Email    string
	Password string
	Photo    string
}

// SignUp registers an account and mints its first credential.
func (s *Service) SignUp(ctx context.Context, params SignUpParams) (*Account, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	account := Account{
		Name:         params.Name,
		Email:        params.Email,
		Photo:        params.Photo,
		Role:         RoleUser,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	id, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, "", fmt.Errorf("create account: %w", err)
	}
	account.ID = id

	token, err := s.tokens.Mint(id, time.Now())
	if err != nil {
		return nil, "", fmt.Errorf("mint credential: %w", err)
	}

	if s.notify != nil {
		if err := s.notify.SendWelcome(ctx, account.Email, account.Name); err != nil && s.logger != nil {
			s.logger.Warn("send welcome email", slog.Any("error", err))
		}
	}
	return &account, token, nil
}

// Login validates email/password credentials and mints a credential.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, string, error) {
	account, err := s.repo.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, "", shared.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}

	token, err := s.tokens.Mint(account.ID, time.Now())
	if err != nil {
		return nil, "", fmt.Errorf("mint credential: %w", err)
	}
	return account, token, nil
}

// Resolve looks up the active account behind a verified credential and
// applies the staleness rule: a credential issued strictly before the last
// recorded password change is rejected. Accounts that never changed their
// password skip the check entirely.
func (s *Service) Resolve(ctx context.Context, accountID int64, issuedAt time.Time) (*Principal, error) {
	account, err := s.repo.FindActiveByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if account.PasswordChangedAt != nil {
		changedAt := account.PasswordChangedAt.Truncate(time.Second)
		if issuedAt.Before(changedAt) {
			return nil, shared.ErrStaleCredential
		}
	}

	principal := account.Principal()
	return &principal, nil
}

// ForgotPassword issues a reset token, stores its hash with an expiry and
// emails the redemption URL. Issuing a new token overwrites any prior
// unredeemed one. The raw token never touches storage.
func (s *Service) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	account, err := s.repo.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("find account: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)
	expires := time.Now().Add(s.resetTTL)

	if err := s.repo.SetResetToken(ctx, account.ID, hashResetToken(token), expires); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := resetURLBase + "/" + token
	if err := s.notify.SendPasswordReset(ctx, account.Email, resetURL); err != nil {
		// Without the email the token is unreachable; drop it so the
		// account is not left with a pending token nobody holds.
		if clearErr := s.repo.ClearResetToken(ctx, account.ID); clearErr != nil && s.logger != nil {
			s.logger.Error("clear reset token", slog.Any("error", clearErr))
		}
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetPassword redeems a reset token: the stored hash must match and be
// unexpired, otherwise ErrResetTokenInvalid. On success the password is
// replaced, the token cleared, the staleness timestamp advanced and a fresh
// credential minted.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (*Account, string, error) {
	account, err := s.repo.FindByResetToken(ctx, hashResetToken(token), time.Now())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, "", shared.ErrResetTokenInvalid
		}
		return nil, "", fmt.Errorf("find reset token: %w", err)
	}

	if err := s.rotatePassword(ctx, account, newPassword); err != nil {
		return nil, "", err
	}

	signed, err := s.tokens.Mint(account.ID, time.Now())
	if err != nil {
		return nil, "", fmt.Errorf("mint credential: %w", err)
	}
	return account, signed, nil
}

// UpdatePassword rotates the password of a logged-in account after
// verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, accountID int64, currentPassword, newPassword string) (*Account, string, error) {
	account, err := s.repo.FindActiveByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, "", shared.ErrPrincipalNotFound
		}
		return nil, "", fmt.Errorf("find account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}

	if err := s.rotatePassword(ctx, account, newPassword); err != nil {
		return nil, "", err
	}

	signed, err := s.tokens.Mint(account.ID, time.Now())
	if err != nil {
		return nil, "", fmt.Errorf("mint credential: %w", err)
	}
	return account, signed, nil
}

func (s *Service) rotatePassword(ctx context.Context, account *Account, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	changedAt := time.Now().Add(-changedAtSkew)
	if err := s.repo.UpdatePassword(ctx, account.ID, string(hash), changedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.repo.ClearResetToken(ctx, account.ID); err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	account.PasswordHash = string(hash)
	account.PasswordChangedAt = &changedAt
	account.ResetTokenHash = nil
	account.ResetTokenExpires = nil
	return nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
