package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

type mockRepository struct {
	accounts map[int64]*Account
	byEmail  map[string]int64
	nextID   int64

	createError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		accounts: make(map[int64]*Account),
		byEmail:  make(map[string]int64),
		nextID:   1,
	}
}

func (m *mockRepository) FindActiveByID(ctx context.Context, id int64) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok || !a.IsActive {
		return nil, shared.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (m *mockRepository) FindActiveByEmail(ctx context.Context, email string) (*Account, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return m.FindActiveByID(ctx, id)
}

func (m *mockRepository) Create(ctx context.Context, account Account) (int64, error) {
	if m.createError != nil {
		return 0, m.createError
	}
	if _, exists := m.byEmail[account.Email]; exists {
		return 0, shared.ErrDuplicate
	}
	account.ID = m.nextID
	m.nextID++
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	m.accounts[account.ID] = &account
	m.byEmail[account.Email] = account.ID
	return account.ID, nil
}

func (m *mockRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error {
	a, ok := m.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.PasswordChangedAt = &changedAt
	return nil
}

func (m *mockRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	a, ok := m.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.ResetTokenHash = &tokenHash
	a.ResetTokenExpires = &expires
	return nil
}

func (m *mockRepository) ClearResetToken(ctx context.Context, id int64) error {
	a, ok := m.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.ResetTokenHash = nil
	a.ResetTokenExpires = nil
	return nil
}

func (m *mockRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*Account, error) {
	for _, a := range m.accounts {
		if a.IsActive && a.ResetTokenHash != nil && *a.ResetTokenHash == tokenHash &&
			a.ResetTokenExpires != nil && a.ResetTokenExpires.After(now) {
			clone := *a
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

type mockNotifier struct {
	welcomes  []string
	resetURLs []string
	sendError error
}

func (m *mockNotifier) SendWelcome(ctx context.Context, email, name string) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.welcomes = append(m.welcomes, email)
	return nil
}

func (m *mockNotifier) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.resetURLs = append(m.resetURLs, resetURL)
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepository, *mockNotifier) {
	t.Helper()
	repo := newMockRepository()
	notify := &mockNotifier{}
	tokens := NewTokenManager("test-secret", time.Hour, "wayfarer")
	return NewService(repo, tokens, notify, nil, 10*time.Minute), repo, notify
}

func signUpTestAccount(t *testing.T, svc *Service) *Account {
	t.Helper()
	account, _, err := svc.SignUp(context.Background(), SignUpParams{
		Name:     "Ada Wayfarer",
		Email:    "ada@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)
	return account
}

func TestSignUpAssignsUserRole(t *testing.T) {
	svc, repo, notify := newTestService(t)

	account, token, err := svc.SignUp(context.Background(), SignUpParams{
		Name:     "Ada Wayfarer",
		Email:    "ada@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleUser, account.Role)
	assert.NotEmpty(t, token)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.accounts[account.ID].PasswordHash), []byte("pass1234")))
	assert.Equal(t, []string{"ada@example.com"}, notify.welcomes)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	signUpTestAccount(t, svc)

	account, token, err := svc.Login(context.Background(), "ada@example.com", "pass1234")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", account.Email)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "pass1234")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestResolve(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := signUpTestAccount(t, svc)

	principal, err := svc.Resolve(context.Background(), account.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, account.ID, principal.ID)
	assert.Equal(t, RoleUser, principal.Role)

	_, err = svc.Resolve(context.Background(), 999, time.Now())
	assert.ErrorIs(t, err, shared.ErrPrincipalNotFound)

	repo.accounts[account.ID].IsActive = false
	_, err = svc.Resolve(context.Background(), account.ID, time.Now())
	assert.ErrorIs(t, err, shared.ErrPrincipalNotFound)
}

func TestResolveStaleness(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := signUpTestAccount(t, svc)

	changedAt := time.Date(2026, 8, 1, 12, 0, 0, 500_000_000, time.UTC)
	repo.accounts[account.ID].PasswordChangedAt = &changedAt

	// Issued before the change: stale.
	_, err := svc.Resolve(context.Background(), account.ID, changedAt.Add(-20*time.Second))
	assert.ErrorIs(t, err, shared.ErrStaleCredential)

	// Issued after the change: fresh.
	_, err = svc.Resolve(context.Background(), account.ID, changedAt.Add(20*time.Second))
	assert.NoError(t, err)

	// Issued within the same second as the change: the sub-second part of
	// the change timestamp is dropped, so the credential passes.
	_, err = svc.Resolve(context.Background(), account.ID, changedAt.Truncate(time.Second))
	assert.NoError(t, err)
}

func TestResolveSkipsCheckWithoutPasswordChange(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := signUpTestAccount(t, svc)
	require.Nil(t, repo.accounts[account.ID].PasswordChangedAt)

	_, err := svc.Resolve(context.Background(), account.ID, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
}

func TestForgotPasswordStoresHashedToken(t *testing.T) {
	svc, repo, notify := newTestService(t)
	account := signUpTestAccount(t, svc)

	err := svc.ForgotPassword(context.Background(), "ada@example.com", "https://wayfarer.test/reset")
	require.NoError(t, err)

	stored := repo.accounts[account.ID]
	require.NotNil(t, stored.ResetTokenHash)
	require.NotNil(t, stored.ResetTokenExpires)
	require.Len(t, notify.resetURLs, 1)

	raw := strings.TrimPrefix(notify.resetURLs[0], "https://wayfarer.test/reset/")
	assert.NotEmpty(t, raw)
	assert.NotEqual(t, raw, *stored.ResetTokenHash)
	assert.Equal(t, hashResetToken(raw), *stored.ResetTokenHash)
}

func TestForgotPasswordReissueOverwrites(t *testing.T) {
	svc, repo, notify := newTestService(t)
	account := signUpTestAccount(t, svc)

	require.NoError(t, svc.ForgotPassword(context.Background(), "ada@example.com", "https://wayfarer.test/reset"))
	first := *repo.accounts[account.ID].ResetTokenHash
	require.NoError(t, svc.ForgotPassword(context.Background(), "ada@example.com", "https://wayfarer.test/reset"))
	second := *repo.accounts[account.ID].ResetTokenHash
	assert.NotEqual(t, first, second)

	// The first token no longer redeems.
	firstRaw := strings.TrimPrefix(notify.resetURLs[0], "https://wayfarer.test/reset/")
	_, _, err := svc.ResetPassword(context.Background(), firstRaw, "newpass123")
	assert.ErrorIs(t, err, shared.ErrResetTokenInvalid)
}

func TestForgotPasswordClearsTokenWhenEmailFails(t *testing.T) {
	svc, repo, notify := newTestService(t)
	account := signUpTestAccount(t, svc)
	notify.sendError = errors.New("smtp down")

	err := svc.ForgotPassword(context.Background(), "ada@example.com", "https://wayfarer.test/reset")
	require.Error(t, err)
	assert.Nil(t, repo.accounts[account.ID].ResetTokenHash)
	assert.Nil(t, repo.accounts[account.ID].ResetTokenExpires)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.ForgotPassword(context.Background(), "nobody@example.com", "https://wayfarer.test/reset")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResetPassword(t *testing.T) {
	svc, repo, notify := newTestService(t)
	account := signUpTestAccount(t, svc)

	require.NoError(t, svc.ForgotPassword(context.Background(), "ada@example.com", "https://wayfarer.test/reset"))
	raw := strings.TrimPrefix(notify.resetURLs[0], "https://wayfarer.test/reset/")

	updated, token, err := svc.ResetPassword(context.Background(), raw, "newpass123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newpass123")))

	stored := repo.accounts[account.ID]
	assert.Nil(t, stored.ResetTokenHash)
	require.NotNil(t, stored.PasswordChangedAt)
	assert.WithinDuration(t, time.Now().Add(-changedAtSkew), *stored.PasswordChangedAt, 2*time.Second)

	// Single use: the same token does not redeem twice.
	_, _, err = svc.ResetPassword(context.Background(), raw, "anotherpass1")
	assert.ErrorIs(t, err, shared.ErrResetTokenInvalid)
}

func TestResetPasswordInvalidToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	signUpTestAccount(t, svc)

	_, _, err := svc.ResetPassword(context.Background(), "deadbeef", "newpass123")
	assert.ErrorIs(t, err, shared.ErrResetTokenInvalid)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc, repo, notify := newTestService(t)
	account := signUpTestAccount(t, svc)

	require.NoError(t, svc.ForgotPassword(context.Background(), "ada@example.com", "https://wayfarer.test/reset"))
	raw := strings.TrimPrefix(notify.resetURLs[0], "https://wayfarer.test/reset/")

	expired := time.Now().Add(-time.Minute)
	repo.accounts[account.ID].ResetTokenExpires = &expired

	_, _, err := svc.ResetPassword(context.Background(), raw, "newpass123")
	assert.ErrorIs(t, err, shared.ErrResetTokenInvalid)
}

func TestUpdatePassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := signUpTestAccount(t, svc)

	_, _, err := svc.UpdatePassword(context.Background(), account.ID, "wrong", "newpass123")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	updated, token, err := svc.UpdatePassword(context.Background(), account.ID, "pass1234", "newpass123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newpass123")))
	require.NotNil(t, repo.accounts[account.ID].PasswordChangedAt)

	// The freshly minted credential survives its own password change.
	tokens := NewTokenManager("test-secret", time.Hour, "wayfarer")
	id, issuedAt, err := tokens.Verify(token)
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), id, issuedAt)
	assert.NoError(t, err)
}
